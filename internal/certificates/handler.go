package certificates

import (
	"errors"
	"net/http"

	"github.com/certhq/certify/pkg/common"
	"github.com/certhq/certify/pkg/middleware"
	"github.com/certhq/certify/pkg/models"
	"github.com/certhq/certify/pkg/pagination"
	"github.com/certhq/certify/pkg/validation"
	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for certificates
type Handler struct {
	service *Service
}

// NewHandler creates a new certificate handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create issues a new certificate
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, validation.BindingErrorMessage(err))
		return
	}

	cert, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "failed to create certificate")
		return
	}

	common.CreatedResponse(c, cert)
}

// Get returns a certificate by public identifier
func (h *Handler) Get(c *gin.Context) {
	certificateID := c.Param("id")
	if certificateID == "" {
		common.ErrorResponse(c, http.StatusBadRequest, "certificate ID required")
		return
	}

	cert, err := h.service.Get(c.Request.Context(), certificateID)
	if err != nil {
		respondError(c, err, "failed to get certificate")
		return
	}

	common.SuccessResponse(c, cert)
}

// List returns certificates with pagination
func (h *Handler) List(c *gin.Context) {
	params := pagination.ParseParams(c)

	certs, total, err := h.service.List(c.Request.Context(), params.Limit, params.Offset)
	if err != nil {
		respondError(c, err, "failed to list certificates")
		return
	}

	common.SuccessResponseWithMeta(c, certs, &common.Meta{Limit: params.Limit, Offset: params.Offset, Total: total})
}

// Revoke marks a certificate as revoked
func (h *Handler) Revoke(c *gin.Context) {
	certificateID := c.Param("id")
	if certificateID == "" {
		common.ErrorResponse(c, http.StatusBadRequest, "certificate ID required")
		return
	}

	var req RevokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, validation.BindingErrorMessage(err))
		return
	}

	cert, err := h.service.Revoke(c.Request.Context(), certificateID, req.Reason)
	if err != nil {
		respondError(c, err, "failed to revoke certificate")
		return
	}

	common.SuccessResponse(c, cert)
}

// RegisterRoutes registers admin certificate routes
func RegisterRoutes(r *gin.Engine, h *Handler, jwtSecret string) {
	admin := r.Group("/api/v1/admin/certificates")
	admin.Use(middleware.AuthMiddleware(jwtSecret))
	admin.Use(middleware.RequireRole(models.RoleAdmin, models.RoleIssuer))
	{
		admin.POST("", h.Create)
		admin.GET("", h.List)
		admin.GET("/:id", h.Get)
		admin.POST("/:id/revoke", h.Revoke)
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
