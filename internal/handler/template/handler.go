package template

import (
	"github.com/gin-gonic/gin"

	"github.com/mailpilot/campaign-api/internal/template"
	pkgerrors "github.com/mailpilot/campaign-api/pkg/errors"
	"github.com/mailpilot/campaign-api/pkg/httputil"
)

type Handler struct {
	store *template.Store
}

func NewHandler(store *template.Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	templates := r.Group("/templates")
	{
		templates.GET("", h.List)
		templates.POST("/upload", h.Upload)
	}
}

func (h *Handler) List(c *gin.Context) {
	names, err := h.store.List()
	if err != nil {
		httputil.RespondWithError(c, pkgerrors.Internal(err))
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"templates": names})
}

func (h *Handler) Upload(c *gin.Context) {
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

	if err := h.store.Upload(fileHeader.Filename, f); err != nil {
		httputil.RespondWithError(c, pkgerrors.BadRequest(err.Error(), err))
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"filename": fileHeader.Filename})
}
