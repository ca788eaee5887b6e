package certificates

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a certificate does not exist
var ErrNotFound = errors.New("certificate not found")

// Repository handles certificate data operations
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new certificate repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const certificateColumns = `
	id, certificate_id, holder_name, holder_email, category, status,
	issued_at, expires_at, revoked_at, revoke_reason,
	risk_level, verification_count, last_verified_at, last_source_address, flagged_at,
	created_at, updated_at
`

// Create inserts a new certificate
func (r *Repository) Create(ctx context.Context, cert *Certificate) error {
	query := `
		INSERT INTO certificates (
			id, certificate_id, holder_name, holder_email, category, status,
			issued_at, expires_at, risk_level, verification_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0)
	`

	_, err := r.db.Exec(ctx, query,
		cert.ID,
		cert.CertificateID,
		cert.HolderName,
		cert.HolderEmail,
		cert.Category,
		cert.Status,
		cert.IssuedAt,
		cert.ExpiresAt,
		cert.RiskLevel,
	)

	return err
}

// GetByCertificateID retrieves a certificate by its public identifier
func (r *Repository) GetByCertificateID(ctx context.Context, certificateID string) (*Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE certificate_id = $1`

	cert, err := r.scanOne(r.db.QueryRow(ctx, query, certificateID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return cert, nil
}

// GetByID retrieves a certificate by its internal UUID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE id = $1`

	cert, err := r.scanOne(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return cert, nil
}

// List retrieves certificates ordered by recency, with total count
func (r *Repository) List(ctx context.Context, limit, offset int) ([]*Certificate, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM certificates`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + certificateColumns + `
		FROM certificates
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	certs := make([]*Certificate, 0)
	for rows.Next() {
		cert, err := r.scanOne(rows)
		if err != nil {
			continue
		}
		certs = append(certs, cert)
	}

	return certs, total, nil
}

// Revoke marks a certificate as revoked
func (r *Repository) Revoke(ctx context.Context, certificateID, reason string) error {
	query := `
		UPDATE certificates
		SET status = 'revoked',
		    revoked_at = NOW(),
		    revoke_reason = $2,
		    updated_at = NOW()
		WHERE certificate_id = $1 AND status <> 'revoked'
	`

	tag, err := r.db.Exec(ctx, query, certificateID, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateRiskFields applies the analyzer's risk-field update atomically.
// The verification counter is incremented server-side and flagged_at is
// written at most once over the certificate's lifetime.
func (r *Repository) UpdateRiskFields(ctx context.Context, certificateID string, update RiskUpdate) error {
	query := `
		UPDATE certificates
		SET risk_level = $2,
		    verification_count = verification_count + 1,
		    last_verified_at = $3,
		    last_source_address = $4,
		    flagged_at = COALESCE(flagged_at, $5),
		    updated_at = NOW()
		WHERE certificate_id = $1
	`

	tag, err := r.db.Exec(ctx, query,
		certificateID,
		update.RiskLevel,
		update.LastVerifiedAt,
		update.LastSourceAddress,
		update.FlaggedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetRiskLevel sets the risk label back to none, leaving flagged_at as a
// historical marker
func (r *Repository) ResetRiskLevel(ctx context.Context, certificateID string) error {
	query := `
		UPDATE certificates
		SET risk_level = 'none',
		    updated_at = NOW()
		WHERE certificate_id = $1
	`

	_, err := r.db.Exec(ctx, query, certificateID)
	return err
}

// ListSearchCandidates returns a bounded projection of certificates for the
// fuzzy matcher, most recently issued first
func (r *Repository) ListSearchCandidates(ctx context.Context, limit int) ([]*SearchCandidate, error) {
	query := `
		SELECT certificate_id, holder_name, holder_email, category, status
		FROM certificates
		ORDER BY issued_at DESC
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := make([]*SearchCandidate, 0)
	for rows.Next() {
		var c SearchCandidate
		if err := rows.Scan(&c.CertificateID, &c.HolderName, &c.HolderEmail, &c.Category, &c.Status); err != nil {
			continue
		}
		candidates = append(candidates, &c)
	}

	return candidates, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanOne(row rowScanner) (*Certificate, error) {
	var cert Certificate
	var expiresAt, revokedAt, lastVerifiedAt, flaggedAt sql.NullTime
	var revokeReason, lastSource sql.NullString

	err := row.Scan(
		&cert.ID,
		&cert.CertificateID,
		&cert.HolderName,
		&cert.HolderEmail,
		&cert.Category,
		&cert.Status,
		&cert.IssuedAt,
		&expiresAt,
		&revokedAt,
		&revokeReason,
		&cert.RiskLevel,
		&cert.VerificationCount,
		&lastVerifiedAt,
		&lastSource,
		&flaggedAt,
		&cert.CreatedAt,
		&cert.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if expiresAt.Valid {
		cert.ExpiresAt = &expiresAt.Time
	}
	if revokedAt.Valid {
		cert.RevokedAt = &revokedAt.Time
	}
	if revokeReason.Valid {
		cert.RevokeReason = revokeReason.String
	}
	if lastVerifiedAt.Valid {
		cert.LastVerifiedAt = &lastVerifiedAt.Time
	}
	if lastSource.Valid {
		cert.LastSourceAddress = lastSource.String
	}
	if flaggedAt.Valid {
		cert.FlaggedAt = &flaggedAt.Time
	}

	return &cert, nil
}
