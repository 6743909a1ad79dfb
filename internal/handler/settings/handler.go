package settings

import (
	"github.com/gin-gonic/gin"

	"github.com/mailpilot/campaign-api/internal/middleware"
	"github.com/mailpilot/campaign-api/internal/model"
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
	r.GET("/settings", h.GetSettings)
	r.PUT("/settings", h.UpdateSettings)
}

func (h *Handler) GetSettings(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		middleware.AbortUnauthenticated(c)
		return
	}

	settings, err := h.service.GetSettings(c.Request.Context(), userID)
	if err != nil {
		httputil.RespondWithError(c, pkgerrors.Internal(err))
		return
	}

	httputil.RespondWithSuccess(c, settings)
}

type updateSettingsRequest struct {
	ProviderAPIKey   string `json:"provider_api_key" binding:"required"`
	SenderEmail      string `json:"sender_email" binding:"required,email"`
	SenderName       string `json:"sender_name"`
	Subject          string `json:"subject"`
	HourlyLimit      int    `json:"hourly_limit" binding:"min=0"`
	DailyLimit       int    `json:"daily_limit" binding:"min=0"`
	SelectedTemplate string `json:"selected_template"`
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		middleware.AbortUnauthenticated(c)
		return
	}

	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, pkgerrors.BadRequest(err.Error(), err))
		return
	}

	if req.Subject == "" {
		req.Subject = model.DefaultSubject
	}
	if req.HourlyLimit == 0 {
		req.HourlyLimit = model.DefaultHourlyLimit
	}
	if req.DailyLimit == 0 {
		req.DailyLimit = model.DefaultDailyLimit
	}
	if req.SelectedTemplate == "" {
		req.SelectedTemplate = model.DefaultTemplate
	}

	settings, err := h.service.UpdateSettings(c.Request.Context(), userID, &model.AccountSettings{
		ProviderAPIKey:   req.ProviderAPIKey,
		SenderEmail:      req.SenderEmail,
		SenderName:       req.SenderName,
		Subject:          req.Subject,
		HourlyLimit:      req.HourlyLimit,
		DailyLimit:       req.DailyLimit,
		SelectedTemplate: req.SelectedTemplate,
	})
	if err != nil {
		httputil.RespondWithError(c, pkgerrors.Internal(err))
		return
	}

	httputil.RespondWithSuccess(c, settings)
}
