package certificates

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/certhq/certify/pkg/common"
	"github.com/google/uuid"
)

// Service handles certificate business logic
type Service struct {
	repo CertificateRepository
	now  func() time.Time
}

// NewService creates a new certificate service
func NewService(repo CertificateRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Create issues a new certificate. When no public identifier is supplied one
// is generated in the CF-<year>-<suffix> form.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Certificate, error) {
	issuedAt := s.now().UTC()
	if req.IssuedAt != nil {
		issuedAt = req.IssuedAt.UTC()
	}

	if req.ExpiresAt != nil && req.ExpiresAt.Before(issuedAt) {
		return nil, common.NewBadRequestError("expires_at cannot be before issued_at", nil)
	}

	certificateID := req.CertificateID
	if certificateID == "" {
		certificateID = generateCertificateID(issuedAt)
	}

	if existing, err := s.repo.GetByCertificateID(ctx, certificateID); err == nil && existing != nil {
		return nil, common.NewConflictError("certificate with this identifier already exists")
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, common.NewInternalServerError("failed to check certificate identifier")
	}

	cert := &Certificate{
		ID:            uuid.New(),
		CertificateID: certificateID,
		HolderName:    req.HolderName,
		HolderEmail:   req.HolderEmail,
		Category:      req.Category,
		Status:        StatusActive,
		IssuedAt:      issuedAt,
		ExpiresAt:     req.ExpiresAt,
		RiskLevel:     RiskNone,
	}

	if err := s.repo.Create(ctx, cert); err != nil {
		return nil, common.NewInternalServerError("failed to create certificate")
	}

	return cert, nil
}

// Get returns a certificate by public identifier
func (s *Service) Get(ctx context.Context, certificateID string) (*Certificate, error) {
	cert, err := s.repo.GetByCertificateID(ctx, certificateID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, common.NewNotFoundError("certificate not found", err)
		}
		return nil, common.NewServiceUnavailableError("certificate store unavailable", err)
	}
	return cert, nil
}

// List returns certificates ordered by recency, with total count
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Certificate, int64, error) {
	certs, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, common.NewServiceUnavailableError("certificate store unavailable", err)
	}
	return certs, total, nil
}

// Revoke marks a certificate as revoked
func (s *Service) Revoke(ctx context.Context, certificateID, reason string) (*Certificate, error) {
	if err := s.repo.Revoke(ctx, certificateID, reason); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, common.NewNotFoundError("certificate not found or already revoked", err)
		}
		return nil, common.NewInternalServerError("failed to revoke certificate")
	}

	return s.Get(ctx, certificateID)
}

// generateCertificateID builds a public identifier like CF-2026-4F7K2M
func generateCertificateID(issuedAt time.Time) string {
	const alphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		// rand.Read failing is effectively unheard of; fall back to a UUID slice
		copy(buf, uuid.New().String())
	}
	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}

	return fmt.Sprintf("CF-%d-%s", issuedAt.Year(), string(buf))
}
