package fraud

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/certhq/certify/internal/certificates"
	"github.com/certhq/certify/pkg/config"
	"github.com/certhq/certify/pkg/logger"
)

// Analyzer runs the anomaly heuristics for a single certificate after a
// verification has been recorded. It is invoked asynchronously; its errors
// never reach the verification caller.
type Analyzer struct {
	events EventLogReader
	certs  CertificateStore
	alerts *Service
	cfg    config.FraudConfig
	now    func() time.Time
}

// NewAnalyzer creates a new anomaly analyzer
func NewAnalyzer(events EventLogReader, certs CertificateStore, alerts *Service, cfg config.FraudConfig) *Analyzer {
	return &Analyzer{
		events: events,
		certs:  certs,
		alerts: alerts,
		cfg:    cfg,
		now:    time.Now,
	}
}

// WithNow overrides the clock, for tests
func (a *Analyzer) WithNow(now func() time.Time) *Analyzer {
	a.now = now
	return a
}

// Analyze evaluates the burst-rate and source-diversity heuristics for a
// certificate, updates its risk fields, and raises alerts for any signal
// that cleared a threshold. A certificate that no longer exists is a no-op.
func (a *Analyzer) Analyze(ctx context.Context, certificateID, sourceAddress string) (*AnalysisResult, error) {
	analysesTotal.Inc()

	cert, err := a.certs.GetByCertificateID(ctx, certificateID)
	if err != nil {
		if errors.Is(err, certificates.ErrNotFound) {
			return &AnalysisResult{CertificateID: certificateID, RiskLevel: TierNone}, nil
		}
		analysisFailures.Inc()
		return nil, fmt.Errorf("load certificate: %w", err)
	}

	now := a.now()
	signals := make([]AnomalySignal, 0, 2)

	burst, err := a.burstSignal(ctx, certificateID, now)
	if err != nil {
		analysisFailures.Inc()
		return nil, fmt.Errorf("burst signal: %w", err)
	}
	if burst != nil {
		signals = append(signals, *burst)
	}

	diversity, err := a.diversitySignal(ctx, certificateID, sourceAddress, now)
	if err != nil {
		analysisFailures.Inc()
		return nil, fmt.Errorf("diversity signal: %w", err)
	}
	if diversity != nil {
		signals = append(signals, *diversity)
	}

	tier := TierNone
	for _, sig := range signals {
		tier = MaxTier(tier, sig.Tier)
	}

	update := certificates.RiskUpdate{
		RiskLevel:         certificates.RiskLevel(tier),
		LastVerifiedAt:    now,
		LastSourceAddress: sourceAddress,
	}
	if cert.RiskLevel == certificates.RiskNone && tier != TierNone {
		flaggedAt := now
		update.FlaggedAt = &flaggedAt
	}
	if err := a.certs.UpdateRiskFields(ctx, certificateID, update); err != nil {
		analysisFailures.Inc()
		return nil, fmt.Errorf("update risk fields: %w", err)
	}

	for _, sig := range signals {
		a.alerts.RaiseAlert(ctx, certificateID, sig)
	}

	logger.WithContext(ctx).Debug("analysis run complete",
		zap.String("certificate_id", certificateID),
		zap.String("risk_level", string(tier)),
		zap.Int("signals", len(signals)))

	return &AnalysisResult{
		CertificateID: certificateID,
		RiskLevel:     tier,
		Signals:       signals,
	}, nil
}

// burstSignal counts verification events inside the burst window. The event
// that triggered this run is already recorded, so it is included in the count.
func (a *Analyzer) burstSignal(ctx context.Context, certificateID string, now time.Time) (*AnomalySignal, error) {
	window := time.Duration(a.cfg.BurstWindowSeconds) * time.Second
	count, err := a.events.CountSince(ctx, certificateID, now.Add(-window))
	if err != nil {
		return nil, err
	}

	var tier RiskTier
	var score float64
	switch {
	case count >= a.cfg.BurstHighThreshold:
		tier = TierHigh
		score = capScore(float64(count)/float64(a.cfg.BurstHighThreshold)*100, 100)
	case count >= a.cfg.BurstMediumThreshold:
		tier = TierMedium
		score = capScore(float64(count)/float64(a.cfg.BurstMediumThreshold)*50, 70)
	case count >= a.cfg.BurstLowThreshold:
		tier = TierLow
		score = 25
	default:
		return nil, nil
	}

	return &AnomalySignal{
		Kind:          AlertKindBurstRate,
		Tier:          tier,
		Score:         score,
		EventCount:    count,
		WindowSeconds: a.cfg.BurstWindowSeconds,
	}, nil
}

// diversitySignal counts distinct source addresses inside the diversity
// window. Unknown sources are excluded; the current source is unioned in so
// the first verification from a new address counts immediately.
func (a *Analyzer) diversitySignal(ctx context.Context, certificateID, sourceAddress string, now time.Time) (*AnomalySignal, error) {
	window := time.Duration(a.cfg.DiversityWindowSeconds) * time.Second
	sources, err := a.events.DistinctSourcesSince(ctx, certificateID, now.Add(-window))
	if err != nil {
		return nil, err
	}

	if sourceAddress != "" && sourceAddress != "unknown" && !contains(sources, sourceAddress) {
		sources = append(sources, sourceAddress)
	}
	n := len(sources)

	var tier RiskTier
	var score float64
	switch {
	case n >= a.cfg.DiversityHighThreshold:
		tier = TierHigh
		score = capScore(float64(n)/float64(a.cfg.DiversityHighThreshold)*100, 100)
	case n >= a.cfg.DiversityMediumThreshold:
		tier = TierMedium
		score = capScore(float64(n)/float64(a.cfg.DiversityMediumThreshold)*50, 70)
	default:
		return nil, nil
	}

	return &AnomalySignal{
		Kind:            AlertKindSourceDiversity,
		Tier:            tier,
		Score:           score,
		DistinctSources: sources,
		WindowSeconds:   a.cfg.DiversityWindowSeconds,
	}, nil
}

func capScore(score, max float64) float64 {
	if score > max {
		return max
	}
	return score
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
