package certificates

import (
	"time"

	"github.com/google/uuid"
)

// CertificateStatus is the lifecycle status of a certificate
type CertificateStatus string

const (
	StatusActive  CertificateStatus = "active"
	StatusRevoked CertificateStatus = "revoked"
	StatusExpired CertificateStatus = "expired"
)

// RiskLevel is the derived fraud-risk label on a certificate record
type RiskLevel string

const (
	RiskNone   RiskLevel = "none"
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Certificate represents an internship completion certificate
type Certificate struct {
	ID            uuid.UUID         `json:"id" db:"id"`
	CertificateID string            `json:"certificate_id" db:"certificate_id"`
	HolderName    string            `json:"holder_name" db:"holder_name"`
	HolderEmail   string            `json:"holder_email" db:"holder_email"`
	Category      string            `json:"category" db:"category"`
	Status        CertificateStatus `json:"status" db:"status"`
	IssuedAt      time.Time         `json:"issued_at" db:"issued_at"`
	ExpiresAt     *time.Time        `json:"expires_at,omitempty" db:"expires_at"`
	RevokedAt     *time.Time        `json:"revoked_at,omitempty" db:"revoked_at"`
	RevokeReason  string            `json:"revoke_reason,omitempty" db:"revoke_reason"`

	// Derived fraud-risk fields, maintained by the anomaly analyzer
	RiskLevel         RiskLevel  `json:"risk_level" db:"risk_level"`
	VerificationCount int64      `json:"verification_count" db:"verification_count"`
	LastVerifiedAt    *time.Time `json:"last_verified_at,omitempty" db:"last_verified_at"`
	LastSourceAddress string     `json:"last_source_address,omitempty" db:"last_source_address"`
	FlaggedAt         *time.Time `json:"flagged_at,omitempty" db:"flagged_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsExpired reports whether the certificate has passed its expiry date
func (c *Certificate) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}

// RiskUpdate is the atomic risk-field update applied after an analysis run.
// VerificationCount is incremented server-side; FlaggedAt is only applied
// when no earlier flag timestamp exists.
type RiskUpdate struct {
	RiskLevel         RiskLevel
	LastVerifiedAt    time.Time
	LastSourceAddress string
	FlaggedAt         *time.Time
}

// SearchCandidate is the searchable projection of a certificate used by the
// smart-search engine
type SearchCandidate struct {
	CertificateID string `json:"certificate_id"`
	HolderName    string `json:"holder_name"`
	HolderEmail   string `json:"holder_email"`
	Category      string `json:"category"`
	Status        string `json:"status"`
}

// CreateRequest is the API request for issuing a certificate
type CreateRequest struct {
	CertificateID string     `json:"certificate_id" binding:"omitempty,min=6,max=64"`
	HolderName    string     `json:"holder_name" binding:"required,min=2,max=120"`
	HolderEmail   string     `json:"holder_email" binding:"required,email"`
	Category      string     `json:"category" binding:"required,min=2,max=80"`
	IssuedAt      *time.Time `json:"issued_at"`
	ExpiresAt     *time.Time `json:"expires_at"`
}

// RevokeRequest is the API request for revoking a certificate
type RevokeRequest struct {
	Reason string `json:"reason" binding:"required,min=3,max=500"`
}
