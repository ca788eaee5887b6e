package verification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/certhq/certify/internal/certificates"
	"github.com/certhq/certify/internal/eventlog"
	"github.com/certhq/certify/pkg/eventbus"
	"github.com/certhq/certify/pkg/logger"
)

// Service handles certificate verification. Every request is answered
// immediately from the certificate record; event logging, bus publishing and
// fraud analysis run on the side and never fail the caller.
type Service struct {
	certs     CertificateReader
	events    EventRecorder
	queue     AnalysisQueue
	publisher EventPublisher
	now       func() time.Time
}

// NewService creates a new verification service. queue and publisher may be
// nil when the corresponding subsystem is disabled.
func NewService(certs CertificateReader, events EventRecorder, queue AnalysisQueue, publisher EventPublisher) *Service {
	return &Service{
		certs:     certs,
		events:    events,
		queue:     queue,
		publisher: publisher,
		now:       time.Now,
	}
}

// WithNow overrides the clock, for tests
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Verify checks a certificate and records the attempt. Unknown identifiers
// verify as invalid; they are logged like any other attempt so that probing
// for valid identifiers is visible to the analyzer.
func (s *Service) Verify(ctx context.Context, certificateID, sourceAddress string, requesterID *uuid.UUID) (*VerifyResult, error) {
	now := s.now()
	if sourceAddress == "" {
		sourceAddress = eventlog.UnknownSource
	}

	result := &VerifyResult{
		CertificateID: certificateID,
		VerifiedAt:    now,
	}

	cert, err := s.certs.GetByCertificateID(ctx, certificateID)
	switch {
	case errors.Is(err, certificates.ErrNotFound):
		result.Outcome = eventlog.OutcomeInvalid
	case err != nil:
		logger.WithContext(ctx).Error("certificate lookup failed",
			zap.String("certificate_id", certificateID), zap.Error(err))
		result.Outcome = eventlog.OutcomeInvalid
	default:
		result.Outcome = outcomeFor(cert, now)
		result.Certificate = summarize(cert)
	}

	s.recordEvent(ctx, certificateID, result.Outcome, sourceAddress, requesterID, now)

	if s.queue != nil {
		s.queue.Enqueue(ctx, certificateID, sourceAddress)
	}

	return result, nil
}

// recordEvent appends the verification event and publishes it. Both are
// best-effort: a logging failure must not turn a verification away.
func (s *Service) recordEvent(ctx context.Context, certificateID string, outcome eventlog.VerificationOutcome, sourceAddress string, requesterID *uuid.UUID, now time.Time) {
	event := &eventlog.VerificationEvent{
		ID:            uuid.New(),
		CertificateID: certificateID,
		Outcome:       outcome,
		SourceAddress: sourceAddress,
		RequesterID:   requesterID,
		CreatedAt:     now,
	}

	if err := s.events.Record(ctx, event); err != nil {
		logger.WithContext(ctx).Error("failed to record verification event",
			zap.String("certificate_id", certificateID), zap.Error(err))
		return
	}

	if s.publisher != nil {
		payload := eventbus.VerificationRecordedData{
			CertificateID: certificateID,
			Outcome:       string(outcome),
			SourceAddress: sourceAddress,
			VerifiedAt:    now,
		}
		if err := s.publisher.Publish(ctx, eventbus.SubjectVerifications,
			eventbus.TypeVerificationRecorded, event.ID.String(), payload); err != nil {
			logger.WithContext(ctx).Warn("failed to publish verification event", zap.Error(err))
		}
	}
}

func outcomeFor(cert *certificates.Certificate, now time.Time) eventlog.VerificationOutcome {
	switch {
	case cert.Status == certificates.StatusRevoked:
		return eventlog.OutcomeRevoked
	case cert.Status != certificates.StatusActive, cert.IsExpired(now):
		return eventlog.OutcomeInvalid
	default:
		return eventlog.OutcomeValid
	}
}

func summarize(cert *certificates.Certificate) *CertificateSummary {
	return &CertificateSummary{
		CertificateID: cert.CertificateID,
		HolderName:    cert.HolderName,
		Category:      cert.Category,
		Status:        string(cert.Status),
		IssuedAt:      cert.IssuedAt,
		ExpiresAt:     cert.ExpiresAt,
	}
}
