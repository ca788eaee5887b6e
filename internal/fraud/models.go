package fraud

import (
	"time"

	"github.com/google/uuid"
)

// AlertKind identifies the detection heuristic that produced an alert
type AlertKind string

const (
	AlertKindBurstRate       AlertKind = "burst_rate"
	AlertKindSourceDiversity AlertKind = "source_diversity"
	AlertKindPatternAnomaly  AlertKind = "pattern_anomaly"
)

// AlertSeverity grades how suspicious the detected pattern is
type AlertSeverity string

const (
	SeverityLow    AlertSeverity = "low"
	SeverityMedium AlertSeverity = "medium"
	SeverityHigh   AlertSeverity = "high"
)

// AlertStatus is the review state of an alert. pending is the only
// non-terminal state.
type AlertStatus string

const (
	StatusPending   AlertStatus = "pending"
	StatusReviewed  AlertStatus = "reviewed"
	StatusDismissed AlertStatus = "dismissed"
	StatusConfirmed AlertStatus = "confirmed"
)

// terminalStatuses are the states a pending alert may be resolved into.
var terminalStatuses = map[AlertStatus]bool{
	StatusReviewed:  true,
	StatusDismissed: true,
	StatusConfirmed: true,
}

// IsResolvable reports whether the status is a valid resolution target
func (s AlertStatus) IsResolvable() bool {
	return terminalStatuses[s]
}

// RiskTier is the ordinal risk classification of a signal or certificate
type RiskTier string

const (
	TierNone   RiskTier = "none"
	TierLow    RiskTier = "low"
	TierMedium RiskTier = "medium"
	TierHigh   RiskTier = "high"
)

var tierRank = map[RiskTier]int{
	TierNone:   0,
	TierLow:    1,
	TierMedium: 2,
	TierHigh:   3,
}

// Rank returns the tier's position in the none < low < medium < high ordering
func (t RiskTier) Rank() int {
	return tierRank[t]
}

// MaxTier returns the higher of two tiers
func MaxTier(a, b RiskTier) RiskTier {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// Severity maps a risk tier onto an alert severity. TierNone has no
// severity; callers must not create alerts for it.
func (t RiskTier) Severity() AlertSeverity {
	switch t {
	case TierHigh:
		return SeverityHigh
	case TierMedium:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// AnomalySignal is one risk signal computed during an analysis run. Signals
// are ephemeral; they are folded into alerts and risk labels, never persisted.
type AnomalySignal struct {
	Kind            AlertKind `json:"kind"`
	Tier            RiskTier  `json:"tier"`
	Score           float64   `json:"score"`
	EventCount      int       `json:"event_count,omitempty"`
	DistinctSources []string  `json:"distinct_sources,omitempty"`
	WindowSeconds   int       `json:"window_seconds"`
}

// AnalysisResult is the outcome of one analysis run
type AnalysisResult struct {
	CertificateID string          `json:"certificate_id"`
	RiskLevel     RiskTier        `json:"risk_level"`
	Signals       []AnomalySignal `json:"signals"`
}

// FraudAlert is a persisted fraud alert awaiting (or past) review
type FraudAlert struct {
	ID             uuid.UUID              `json:"id" db:"id"`
	CertificateID  string                 `json:"certificate_id" db:"certificate_id"`
	AlertKind      AlertKind              `json:"alert_kind" db:"alert_kind"`
	Severity       AlertSeverity          `json:"severity" db:"severity"`
	Status         AlertStatus            `json:"status" db:"status"`
	Description    string                 `json:"description" db:"description"`
	Details        map[string]interface{} `json:"details" db:"details"`
	Score          float64                `json:"score" db:"score"`
	TriggeredAt    time.Time              `json:"triggered_at" db:"triggered_at"`
	ReviewerID     *uuid.UUID             `json:"reviewer_id,omitempty" db:"reviewer_id"`
	ReviewedAt     *time.Time             `json:"reviewed_at,omitempty" db:"reviewed_at"`
	ResolutionNote string                 `json:"resolution_note,omitempty" db:"resolution_note"`
}

// AlertFilter narrows alert listings
type AlertFilter struct {
	Status   AlertStatus
	Severity AlertSeverity
}

// Statistics summarizes the fraud review queue
type Statistics struct {
	PendingCount             int64 `json:"pending_count"`
	HighSeverityCount        int64 `json:"high_severity_count"`
	ReviewedCount            int64 `json:"reviewed_count"`
	HighRiskCertificateCount int64 `json:"high_risk_certificate_count"`
}

// ResolveRequest is the API request for resolving an alert
type ResolveRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note" binding:"omitempty,max=1000"`
}
