package fraud

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrAlertNotFound is returned when an alert does not exist
var ErrAlertNotFound = errors.New("fraud alert not found")

// Repository handles fraud alert data operations
type Repository struct {
	db *pgxpool.Pool
}

// Ensure the concrete repository satisfies the service's requirements.
var _ AlertRepository = (*Repository)(nil)

// NewRepository creates a new fraud repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateAlert inserts a new fraud alert
func (r *Repository) CreateAlert(ctx context.Context, alert *FraudAlert) error {
	detailsJSON, err := json.Marshal(alert.Details)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO fraud_alerts (
			id, certificate_id, alert_kind, severity, status, description,
			details, score, triggered_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.db.Exec(ctx, query,
		alert.ID,
		alert.CertificateID,
		alert.AlertKind,
		alert.Severity,
		alert.Status,
		alert.Description,
		detailsJSON,
		alert.Score,
		alert.TriggeredAt,
	)

	return err
}

// GetAlertByID retrieves a fraud alert by ID
func (r *Repository) GetAlertByID(ctx context.Context, alertID uuid.UUID) (*FraudAlert, error) {
	query := `
		SELECT id, certificate_id, alert_kind, severity, status, description,
		       details, score, triggered_at, reviewer_id, reviewed_at, resolution_note
		FROM fraud_alerts
		WHERE id = $1
	`

	alert, err := scanAlert(r.db.QueryRow(ctx, query, alertID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlertNotFound
		}
		return nil, err
	}
	return alert, nil
}

// ListAlerts retrieves alerts matching the filter, newest first, with total count
func (r *Repository) ListAlerts(ctx context.Context, filter AlertFilter, limit, offset int) ([]*FraudAlert, int64, error) {
	where := `WHERE ($1 = '' OR status = $1) AND ($2 = '' OR severity = $2)`

	var total int64
	countQuery := `SELECT COUNT(*) FROM fraud_alerts ` + where
	if err := r.db.QueryRow(ctx, countQuery, string(filter.Status), string(filter.Severity)).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, certificate_id, alert_kind, severity, status, description,
		       details, score, triggered_at, reviewer_id, reviewed_at, resolution_note
		FROM fraud_alerts
		` + where + `
		ORDER BY triggered_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Query(ctx, query, string(filter.Status), string(filter.Severity), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	alerts := make([]*FraudAlert, 0)
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			continue
		}
		alerts = append(alerts, alert)
	}

	return alerts, total, nil
}

// LatestAlertTime returns the most recent triggered_at for a certificate,
// regardless of alert kind or status. Returns nil when no alert exists.
func (r *Repository) LatestAlertTime(ctx context.Context, certificateID string) (*time.Time, error) {
	query := `SELECT MAX(triggered_at) FROM fraud_alerts WHERE certificate_id = $1`

	var latest sql.NullTime
	if err := r.db.QueryRow(ctx, query, certificateID).Scan(&latest); err != nil {
		return nil, err
	}
	if !latest.Valid {
		return nil, nil
	}
	return &latest.Time, nil
}

// CountPendingForCertificate counts pending alerts for a certificate
func (r *Repository) CountPendingForCertificate(ctx context.Context, certificateID string) (int, error) {
	query := `SELECT COUNT(*) FROM fraud_alerts WHERE certificate_id = $1 AND status = 'pending'`

	var count int
	if err := r.db.QueryRow(ctx, query, certificateID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateAlertStatus transitions an alert and stamps reviewer metadata
func (r *Repository) UpdateAlertStatus(ctx context.Context, alertID uuid.UUID, status AlertStatus, reviewerID *uuid.UUID, note string) error {
	query := `
		UPDATE fraud_alerts
		SET status = $2,
		    reviewer_id = COALESCE($3, reviewer_id),
		    reviewed_at = NOW(),
		    resolution_note = COALESCE(NULLIF($4, ''), resolution_note),
		    updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, alertID, status, reviewerID, note)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlertNotFound
	}
	return nil
}

// GetStatistics retrieves fraud review queue statistics
func (r *Repository) GetStatistics(ctx context.Context) (*Statistics, error) {
	stats := &Statistics{}

	query := `
		SELECT
			COUNT(CASE WHEN status = 'pending' THEN 1 END) as pending,
			COUNT(CASE WHEN status = 'pending' AND severity = 'high' THEN 1 END) as high_severity,
			COUNT(CASE WHEN status = 'reviewed' THEN 1 END) as reviewed
		FROM fraud_alerts
	`

	if err := r.db.QueryRow(ctx, query).Scan(
		&stats.PendingCount,
		&stats.HighSeverityCount,
		&stats.ReviewedCount,
	); err != nil {
		return nil, err
	}

	highRiskQuery := `SELECT COUNT(*) FROM certificates WHERE risk_level = 'high'`
	if err := r.db.QueryRow(ctx, highRiskQuery).Scan(&stats.HighRiskCertificateCount); err != nil {
		return nil, err
	}

	return stats, nil
}

// ResetCertificateRisk sets a certificate's risk label back to none. The
// flagged_at marker is historical and deliberately left in place.
func (r *Repository) ResetCertificateRisk(ctx context.Context, certificateID string) error {
	query := `
		UPDATE certificates
		SET risk_level = 'none',
		    updated_at = NOW()
		WHERE certificate_id = $1
	`

	_, err := r.db.Exec(ctx, query, certificateID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (*FraudAlert, error) {
	var alert FraudAlert
	var detailsJSON []byte
	var reviewerID sql.NullString
	var reviewedAt sql.NullTime
	var note sql.NullString

	err := row.Scan(
		&alert.ID,
		&alert.CertificateID,
		&alert.AlertKind,
		&alert.Severity,
		&alert.Status,
		&alert.Description,
		&detailsJSON,
		&alert.Score,
		&alert.TriggeredAt,
		&reviewerID,
		&reviewedAt,
		&note,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(detailsJSON, &alert.Details); err != nil {
		alert.Details = make(map[string]interface{})
	}

	if reviewerID.Valid {
		id, _ := uuid.Parse(reviewerID.String)
		alert.ReviewerID = &id
	}
	if reviewedAt.Valid {
		alert.ReviewedAt = &reviewedAt.Time
	}
	if note.Valid {
		alert.ResolutionNote = note.String
	}

	return &alert, nil
}
