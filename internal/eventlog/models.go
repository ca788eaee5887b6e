package eventlog

import (
	"time"

	"github.com/google/uuid"
)

// VerificationOutcome is the result of a single verification attempt
type VerificationOutcome string

const (
	OutcomeValid   VerificationOutcome = "valid"
	OutcomeInvalid VerificationOutcome = "invalid"
	OutcomeRevoked VerificationOutcome = "revoked"
)

// UnknownSource is recorded when the requester's address could not be determined
const UnknownSource = "unknown"

// VerificationEvent is an immutable record of one verification attempt.
// Events are write-once; the log exposes no update or delete operation.
type VerificationEvent struct {
	ID            uuid.UUID           `json:"id" db:"id"`
	CertificateID string              `json:"certificate_id" db:"certificate_id"`
	Outcome       VerificationOutcome `json:"outcome" db:"outcome"`
	SourceAddress string              `json:"source_address" db:"source_address"`
	RequesterID   *uuid.UUID          `json:"requester_id,omitempty" db:"requester_id"`
	CreatedAt     time.Time           `json:"created_at" db:"created_at"`
}
