package auth

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/mailpilot/campaign-api/internal/model"
	authService "github.com/mailpilot/campaign-api/internal/service/auth"
	pkgerrors "github.com/mailpilot/campaign-api/pkg/errors"
	"github.com/mailpilot/campaign-api/pkg/httputil"
)

type Handler struct {
	service *authService.Service
}

func NewHandler(service *authService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/signup", h.Signup)
		auth.POST("/login", h.Login)
	}
}

func (h *Handler) Signup(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, pkgerrors.BadRequest(err.Error(), err))
		return
	}

	user, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, authService.ErrEmailTaken) {
			httputil.RespondWithError(c, pkgerrors.Conflict("email already registered", err))
			return
		}
		httputil.RespondWithError(c, pkgerrors.Internal(err))
		return
	}

	httputil.RespondWithCreated(c, user)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, pkgerrors.BadRequest(err.Error(), err))
		return
	}

	tokens, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, authService.ErrInvalidCredentials) {
			httputil.RespondWithError(c, pkgerrors.Unauthorized(err))
			return
		}
		httputil.RespondWithError(c, pkgerrors.Internal(err))
		return
	}

	httputil.RespondWithSuccess(c, tokens)
}
