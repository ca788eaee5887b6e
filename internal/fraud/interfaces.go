package fraud

import (
	"context"
	"time"

	"github.com/certhq/certify/internal/certificates"
	"github.com/google/uuid"
)

// AlertRepository defines the persistence operations for fraud alerts
type AlertRepository interface {
	CreateAlert(ctx context.Context, alert *FraudAlert) error
	GetAlertByID(ctx context.Context, alertID uuid.UUID) (*FraudAlert, error)
	ListAlerts(ctx context.Context, filter AlertFilter, limit, offset int) ([]*FraudAlert, int64, error)
	LatestAlertTime(ctx context.Context, certificateID string) (*time.Time, error)
	CountPendingForCertificate(ctx context.Context, certificateID string) (int, error)
	UpdateAlertStatus(ctx context.Context, alertID uuid.UUID, status AlertStatus, reviewerID *uuid.UUID, note string) error
	GetStatistics(ctx context.Context) (*Statistics, error)
	ResetCertificateRisk(ctx context.Context, certificateID string) error
}

// EventLogReader exposes the event log queries the analyzer needs
type EventLogReader interface {
	CountSince(ctx context.Context, certificateID string, since time.Time) (int, error)
	DistinctSourcesSince(ctx context.Context, certificateID string, since time.Time) ([]string, error)
}

// CertificateStore exposes the certificate operations the analyzer needs
type CertificateStore interface {
	GetByCertificateID(ctx context.Context, certificateID string) (*certificates.Certificate, error)
	UpdateRiskFields(ctx context.Context, certificateID string, update certificates.RiskUpdate) error
}

// EventPublisher publishes domain events; implementations may be nil-safe no-ops
type EventPublisher interface {
	Publish(ctx context.Context, subject, eventType, eventID string, payload interface{}) error
}
