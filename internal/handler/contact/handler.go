package contact

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mailpilot/campaign-api/internal/middleware"
	"github.com/mailpilot/campaign-api/internal/service/campaign"
	pkgerrors "github.com/mailpilot/campaign-api/pkg/errors"
	"github.com/mailpilot/campaign-api/pkg/httputil"
)

type Handler struct {
	service *campaign.Service
}

func NewHandler(service *campaign.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	contacts := r.Group("/contacts")
	{
		contacts.POST("/upload", h.Upload)
		contacts.GET("", h.List)
		contacts.GET("/stats", h.Stats)
		contacts.GET("/activity", h.Activity)
		contacts.POST("/:email/resend", h.Resend)
	}
}

func (h *Handler) Upload(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		middleware.AbortUnauthenticated(c)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		httputil.RespondWithError(c, pkgerrors.BadRequest("missing file", err))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		httputil.RespondWithError(c, pkgerrors.BadRequest("could not read file", err))
		return
	}
	defer f.Close()

	result, err := h.service.ImportContacts(c.Request.Context(), userID, fileHeader.Filename, f)
	if err != nil {
		if errors.Is(err, campaign.ErrUnsupportedFormat) || errors.Is(err, campaign.ErrMissingColumns) {
			httputil.RespondWithError(c, pkgerrors.BadRequest(err.Error(), err))
			return
		}
		httputil.RespondWithError(c, pkgerrors.Internal(err))
		return
	}

	httputil.RespondWithSuccess(c, result)
}

func (h *Handler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		middleware.AbortUnauthenticated(c)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))

	contacts, total, err := h.service.ListContacts(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		httputil.RespondWithError(c, pkgerrors.Internal(err))
		return
	}

	httputil.RespondWithPagination(c, contacts, page, pageSize, total)
}

func (h *Handler) Stats(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		middleware.AbortUnauthenticated(c)
		return
	}

	stats, err := h.service.Stats(c.Request.Context(), userID)
	if err != nil {
		httputil.RespondWithError(c, pkgerrors.Internal(err))
		return
	}

	httputil.RespondWithSuccess(c, stats)
}

func (h *Handler) Activity(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		middleware.AbortUnauthenticated(c)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	activity, err := h.service.Activity(c.Request.Context(), userID, limit)
	if err != nil {
		httputil.RespondWithError(c, pkgerrors.Internal(err))
		return
	}

	httputil.RespondWithSuccess(c, activity)
}

func (h *Handler) Resend(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		middleware.AbortUnauthenticated(c)
		return
	}

	email := c.Param("email")
	if err := h.service.Resend(c.Request.Context(), userID, email); err != nil {
		if errors.Is(err, campaign.ErrContactNotFound) {
			httputil.RespondWithError(c, pkgerrors.NotFound("contact", err))
			return
		}
		httputil.RespondWithError(c, pkgerrors.Internal(err))
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"message": "queued resend for " + email})
}
