package eventlog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the append-only store of verification events
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new event log repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Record appends a verification event to the log
func (r *Repository) Record(ctx context.Context, event *VerificationEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if event.SourceAddress == "" {
		event.SourceAddress = UnknownSource
	}

	query := `
		INSERT INTO verification_events (id, certificate_id, outcome, source_address, requester_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		event.ID,
		event.CertificateID,
		event.Outcome,
		event.SourceAddress,
		event.RequesterID,
		event.CreatedAt,
	)

	return err
}

// CountSince counts events for a certificate recorded at or after the given instant
func (r *Repository) CountSince(ctx context.Context, certificateID string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM verification_events
		WHERE certificate_id = $1 AND created_at >= $2
	`

	var count int
	if err := r.db.QueryRow(ctx, query, certificateID, since).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// DistinctSourcesSince returns the distinct source addresses seen for a
// certificate at or after the given instant, excluding unknown sources
func (r *Repository) DistinctSourcesSince(ctx context.Context, certificateID string, since time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT source_address
		FROM verification_events
		WHERE certificate_id = $1
		  AND created_at >= $2
		  AND source_address <> $3
	`

	rows, err := r.db.Query(ctx, query, certificateID, since, UnknownSource)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sources := make([]string, 0)
	for rows.Next() {
		var source string
		if err := rows.Scan(&source); err != nil {
			continue
		}
		sources = append(sources, source)
	}

	return sources, nil
}
