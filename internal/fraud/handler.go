package fraud

import (
	"errors"
	"net/http"

	"github.com/certhq/certify/pkg/common"
	"github.com/certhq/certify/pkg/middleware"
	"github.com/certhq/certify/pkg/pagination"
	"github.com/certhq/certify/pkg/validation"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for the fraud review queue
type Handler struct {
	service *Service
}

// NewHandler creates a new fraud handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ListAlerts returns fraud alerts, newest first, with optional status and
// severity filters
func (h *Handler) ListAlerts(c *gin.Context) {
	params := pagination.ParseParams(c)
	filter := AlertFilter{
		Status:   AlertStatus(c.Query("status")),
		Severity: AlertSeverity(c.Query("severity")),
	}

	alerts, total, err := h.service.ListAlerts(c.Request.Context(), filter, params.Limit, params.Offset)
	if err != nil {
		respondError(c, err, "failed to list fraud alerts")
		return
	}

	common.SuccessResponseWithMeta(c, alerts, &common.Meta{Limit: params.Limit, Offset: params.Offset, Total: total})
}

// GetAlert returns a single fraud alert
func (h *Handler) GetAlert(c *gin.Context) {
	alertID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid alert ID")
		return
	}

	alert, err := h.service.GetAlert(c.Request.Context(), alertID)
	if err != nil {
		respondError(c, err, "failed to get fraud alert")
		return
	}

	common.SuccessResponse(c, alert)
}

// ResolveAlert transitions a pending alert into a terminal status
func (h *Handler) ResolveAlert(c *gin.Context) {
	alertID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid alert ID")
		return
	}

	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, validation.BindingErrorMessage(err))
		return
	}

	var reviewerID *uuid.UUID
	if id, err := middleware.GetUserID(c); err == nil {
		reviewerID = &id
	}

	alert, err := h.service.ResolveAlert(c.Request.Context(), alertID, AlertStatus(req.Status), reviewerID, req.Note)
	if err != nil {
		respondError(c, err, "failed to resolve fraud alert")
		return
	}

	common.SuccessResponse(c, alert)
}

// Statistics returns fraud review queue statistics
func (h *Handler) Statistics(c *gin.Context) {
	stats, err := h.service.Statistics(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to get fraud statistics")
		return
	}

	common.SuccessResponse(c, stats)
}

// RegisterRoutes registers admin fraud routes
func RegisterRoutes(r *gin.Engine, h *Handler, jwtSecret string) {
	admin := r.Group("/api/v1/admin/fraud")
	admin.Use(middleware.AuthMiddleware(jwtSecret))
	admin.Use(middleware.RequireAlertReviewer())
	{
		admin.GET("/alerts", h.ListAlerts)
		admin.GET("/alerts/:id", h.GetAlert)
		admin.PUT("/alerts/:id/resolve", h.ResolveAlert)
		admin.GET("/statistics", h.Statistics)
	}
}

func respondError(c *gin.Context, err error, fallback string) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		common.AppErrorResponse(c, appErr)
		return
	}
	common.ErrorResponse(c, http.StatusInternalServerError, fallback)
}
