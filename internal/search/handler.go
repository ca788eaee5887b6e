package search

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/certhq/certify/pkg/common"
	"github.com/certhq/certify/pkg/middleware"
	"github.com/certhq/certify/pkg/models"
	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for smart search
type Handler struct {
	service *Service
}

// NewHandler creates a new search handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Suggestions returns ranked certificate suggestions for an approximate query
func (h *Handler) Suggestions(c *gin.Context) {
	query := c.Query("q")

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			limit = v
		}
	}

	result, err := h.service.Suggestions(c.Request.Context(), query, limit)
	if err != nil {
		var appErr *common.AppError
		if errors.As(err, &appErr) {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to search certificates")
		return
	}

	common.SuccessResponse(c, result)
}

// RegisterRoutes registers admin search routes
func RegisterRoutes(r *gin.Engine, h *Handler, jwtSecret string) {
	admin := r.Group("/api/v1/admin/search")
	admin.Use(middleware.AuthMiddleware(jwtSecret))
	admin.Use(middleware.RequireRole(models.RoleAdmin, models.RoleReviewer, models.RoleIssuer))
	{
		admin.GET("/suggestions", h.Suggestions)
	}
}
