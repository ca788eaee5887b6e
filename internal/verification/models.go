package verification

import (
	"time"

	"github.com/certhq/certify/internal/eventlog"
)

// VerifyRequest is the public verification request
type VerifyRequest struct {
	CertificateID string `json:"certificate_id" binding:"required,min=3,max=64"`
}

// CertificateSummary is the public projection of a certificate returned to
// verifiers. Risk fields and internal identifiers are never exposed here.
type CertificateSummary struct {
	CertificateID string     `json:"certificate_id"`
	HolderName    string     `json:"holder_name"`
	Category      string     `json:"category"`
	Status        string     `json:"status"`
	IssuedAt      time.Time  `json:"issued_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// VerifyResult is the outcome of a verification request
type VerifyResult struct {
	CertificateID string                       `json:"certificate_id"`
	Outcome       eventlog.VerificationOutcome `json:"outcome"`
	VerifiedAt    time.Time                    `json:"verified_at"`
	Certificate   *CertificateSummary          `json:"certificate,omitempty"`
}
