package fraud

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/certhq/certify/pkg/common"
	"github.com/certhq/certify/pkg/config"
	"github.com/certhq/certify/pkg/eventbus"
	"github.com/certhq/certify/pkg/logger"
)

// Service manages the fraud alert lifecycle: raising alerts from analyzer
// signals, listing the review queue, and resolving alerts.
type Service struct {
	repo      AlertRepository
	publisher EventPublisher
	cfg       config.FraudConfig
	now       func() time.Time
}

// NewService creates a new fraud service. publisher may be nil when no
// event bus is configured.
func NewService(repo AlertRepository, publisher EventPublisher, cfg config.FraudConfig) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

// WithNow overrides the clock, for tests
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// RaiseAlert creates an alert for a signal unless the certificate raised any
// alert inside the cooldown window. Failures are logged and swallowed; the
// verification path must never fail because alerting did.
func (s *Service) RaiseAlert(ctx context.Context, certificateID string, signal AnomalySignal) {
	log := logger.WithContext(ctx)

	latest, err := s.repo.LatestAlertTime(ctx, certificateID)
	if err != nil {
		log.Error("failed to check alert cooldown",
			zap.String("certificate_id", certificateID), zap.Error(err))
		return
	}

	cooldown := time.Duration(s.cfg.AlertCooldownSeconds) * time.Second
	if latest != nil && s.now().Sub(*latest) < cooldown {
		alertsSuppressed.Inc()
		log.Debug("alert suppressed by cooldown",
			zap.String("certificate_id", certificateID),
			zap.String("kind", string(signal.Kind)))
		return
	}

	alert := &FraudAlert{
		ID:            uuid.New(),
		CertificateID: certificateID,
		AlertKind:     signal.Kind,
		Severity:      signal.Tier.Severity(),
		Status:        StatusPending,
		Description:   describeSignal(signal),
		Details:       signalDetails(signal),
		Score:         signal.Score,
		TriggeredAt:   s.now(),
	}

	if err := s.repo.CreateAlert(ctx, alert); err != nil {
		log.Error("failed to create fraud alert",
			zap.String("certificate_id", certificateID),
			zap.String("kind", string(signal.Kind)), zap.Error(err))
		return
	}

	alertsCreated.WithLabelValues(string(alert.AlertKind), string(alert.Severity)).Inc()
	log.Warn("fraud alert created",
		zap.String("alert_id", alert.ID.String()),
		zap.String("certificate_id", certificateID),
		zap.String("kind", string(alert.AlertKind)),
		zap.String("severity", string(alert.Severity)),
		zap.Float64("score", alert.Score))

	if s.publisher != nil {
		payload := eventbus.FraudAlertCreatedData{
			AlertID:       alert.ID.String(),
			CertificateID: certificateID,
			AlertKind:     string(alert.AlertKind),
			Severity:      string(alert.Severity),
		}
		if err := s.publisher.Publish(ctx, eventbus.SubjectFraudAlerts,
			eventbus.TypeFraudAlertCreated, alert.ID.String(), payload); err != nil {
			log.Warn("failed to publish fraud alert event", zap.Error(err))
		}
	}
}

// GetAlert retrieves a single alert
func (s *Service) GetAlert(ctx context.Context, alertID uuid.UUID) (*FraudAlert, error) {
	alert, err := s.repo.GetAlertByID(ctx, alertID)
	if err != nil {
		if errors.Is(err, ErrAlertNotFound) {
			return nil, common.NewNotFoundError("fraud alert not found", err)
		}
		logger.WithContext(ctx).Error("failed to get fraud alert", zap.Error(err))
		return nil, common.NewServiceUnavailableError("failed to get fraud alert", err)
	}
	return alert, nil
}

// ListAlerts retrieves alerts matching the filter, newest first
func (s *Service) ListAlerts(ctx context.Context, filter AlertFilter, limit, offset int) ([]*FraudAlert, int64, error) {
	if filter.Status != "" && filter.Status != StatusPending && !filter.Status.IsResolvable() {
		return nil, 0, common.NewBadRequestError(fmt.Sprintf("invalid status filter: %s", filter.Status), nil)
	}
	if filter.Severity != "" && filter.Severity != SeverityLow && filter.Severity != SeverityMedium && filter.Severity != SeverityHigh {
		return nil, 0, common.NewBadRequestError(fmt.Sprintf("invalid severity filter: %s", filter.Severity), nil)
	}

	alerts, total, err := s.repo.ListAlerts(ctx, filter, limit, offset)
	if err != nil {
		logger.WithContext(ctx).Error("failed to list fraud alerts", zap.Error(err))
		return nil, 0, common.NewServiceUnavailableError("failed to list fraud alerts", err)
	}
	return alerts, total, nil
}

// ResolveAlert transitions a pending alert into a terminal status. Repeating
// the same resolution on an already-resolved alert is accepted without
// effect; conflicting resolutions are rejected. Dismissing a certificate's
// last pending alert clears its risk label.
func (s *Service) ResolveAlert(ctx context.Context, alertID uuid.UUID, status AlertStatus, reviewerID *uuid.UUID, note string) (*FraudAlert, error) {
	if !status.IsResolvable() {
		return nil, common.NewInvalidStatusError(fmt.Sprintf("cannot resolve alert to status: %s", status))
	}

	alert, err := s.GetAlert(ctx, alertID)
	if err != nil {
		return nil, err
	}

	if alert.Status != StatusPending {
		if alert.Status == status {
			return alert, nil
		}
		return nil, common.NewInvalidStatusError(
			fmt.Sprintf("alert already resolved as %s", alert.Status))
	}

	if err := s.repo.UpdateAlertStatus(ctx, alertID, status, reviewerID, note); err != nil {
		if errors.Is(err, ErrAlertNotFound) {
			return nil, common.NewNotFoundError("fraud alert not found", err)
		}
		logger.WithContext(ctx).Error("failed to resolve fraud alert", zap.Error(err))
		return nil, common.NewServiceUnavailableError("failed to resolve fraud alert", err)
	}

	if status == StatusDismissed {
		s.clearRiskIfNoPending(ctx, alert.CertificateID)
	}

	logger.WithContext(ctx).Info("fraud alert resolved",
		zap.String("alert_id", alertID.String()),
		zap.String("status", string(status)))

	return s.GetAlert(ctx, alertID)
}

// Statistics retrieves fraud review queue statistics
func (s *Service) Statistics(ctx context.Context) (*Statistics, error) {
	stats, err := s.repo.GetStatistics(ctx)
	if err != nil {
		logger.WithContext(ctx).Error("failed to get fraud statistics", zap.Error(err))
		return nil, common.NewServiceUnavailableError("failed to get fraud statistics", err)
	}
	return stats, nil
}

// clearRiskIfNoPending resets the certificate's risk label when its last
// pending alert was just dismissed. The flagged_at marker is preserved.
func (s *Service) clearRiskIfNoPending(ctx context.Context, certificateID string) {
	log := logger.WithContext(ctx)

	pending, err := s.repo.CountPendingForCertificate(ctx, certificateID)
	if err != nil {
		log.Error("failed to count pending alerts",
			zap.String("certificate_id", certificateID), zap.Error(err))
		return
	}
	if pending > 0 {
		return
	}

	if err := s.repo.ResetCertificateRisk(ctx, certificateID); err != nil {
		log.Error("failed to reset certificate risk",
			zap.String("certificate_id", certificateID), zap.Error(err))
		return
	}

	log.Info("certificate risk cleared after dismissal",
		zap.String("certificate_id", certificateID))
}

func describeSignal(signal AnomalySignal) string {
	switch signal.Kind {
	case AlertKindBurstRate:
		return fmt.Sprintf("%d verifications within %d seconds", signal.EventCount, signal.WindowSeconds)
	case AlertKindSourceDiversity:
		return fmt.Sprintf("%d distinct sources within %d seconds", len(signal.DistinctSources), signal.WindowSeconds)
	default:
		return fmt.Sprintf("anomalous verification pattern (%s)", signal.Kind)
	}
}

func signalDetails(signal AnomalySignal) map[string]interface{} {
	details := map[string]interface{}{
		"tier":           string(signal.Tier),
		"window_seconds": signal.WindowSeconds,
	}
	if signal.EventCount > 0 {
		details["event_count"] = signal.EventCount
	}
	if len(signal.DistinctSources) > 0 {
		details["distinct_sources"] = signal.DistinctSources
	}
	return details
}
