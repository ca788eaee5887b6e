package verification

import (
	"context"

	"github.com/certhq/certify/internal/certificates"
	"github.com/certhq/certify/internal/eventlog"
)

// CertificateReader looks up certificates by their public identifier
type CertificateReader interface {
	GetByCertificateID(ctx context.Context, certificateID string) (*certificates.Certificate, error)
}

// EventRecorder appends verification events to the immutable log
type EventRecorder interface {
	Record(ctx context.Context, event *eventlog.VerificationEvent) error
}

// AnalysisQueue schedules asynchronous fraud analysis for a certificate
type AnalysisQueue interface {
	Enqueue(ctx context.Context, certificateID, sourceAddress string) bool
}

// EventPublisher publishes domain events to the bus
type EventPublisher interface {
	Publish(ctx context.Context, subject, eventType, eventID string, payload interface{}) error
}
