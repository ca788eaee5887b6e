package eventbus

import "time"

// Event types published by the verification flow.
const (
	TypeVerificationRecorded = "verification.recorded"
	TypeFraudAlertCreated    = "fraud.alert_created"
)

// Subjects used on the bus.
const (
	SubjectVerifications = "verifications.recorded"
	SubjectFraudAlerts   = "fraud.alerts"
)

// VerificationRecordedData is the payload of a verification.recorded event
type VerificationRecordedData struct {
	CertificateID string    `json:"certificate_id"`
	Outcome       string    `json:"outcome"`
	SourceAddress string    `json:"source_address"`
	VerifiedAt    time.Time `json:"verified_at"`
}

// FraudAlertCreatedData is the payload of a fraud.alert_created event
type FraudAlertCreatedData struct {
	AlertID       string `json:"alert_id"`
	CertificateID string `json:"certificate_id"`
	AlertKind     string `json:"alert_kind"`
	Severity      string `json:"severity"`
}
