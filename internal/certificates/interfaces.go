package certificates

import (
	"context"

	"github.com/google/uuid"
)

// CertificateRepository defines the persistence operations required by the service
type CertificateRepository interface {
	Create(ctx context.Context, cert *Certificate) error
	GetByCertificateID(ctx context.Context, certificateID string) (*Certificate, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Certificate, error)
	List(ctx context.Context, limit, offset int) ([]*Certificate, int64, error)
	Revoke(ctx context.Context, certificateID, reason string) error
	ListSearchCandidates(ctx context.Context, limit int) ([]*SearchCandidate, error)
}
