package verification

import (
	"net/http"

	"github.com/certhq/certify/pkg/common"
	"github.com/certhq/certify/pkg/ratelimit"
	"github.com/certhq/certify/pkg/validation"
	"github.com/gin-gonic/gin"
)

// Handler handles public verification requests
type Handler struct {
	service *Service
}

// NewHandler creates a new verification handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Verify answers whether a certificate is valid, invalid or revoked
func (h *Handler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, validation.BindingErrorMessage(err))
		return
	}

	result, err := h.service.Verify(c.Request.Context(), req.CertificateID, c.ClientIP(), nil)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "verification failed")
		return
	}

	common.SuccessResponse(c, result)
}

// RegisterRoutes registers the public verification route. The limiter may be
// nil when rate limiting is disabled.
func RegisterRoutes(r *gin.Engine, h *Handler, limiter *ratelimit.Limiter) {
	group := r.Group("/api/v1")
	if limiter != nil {
		group.Use(limiter.Middleware())
	}
	group.POST("/verify", h.Verify)
}
