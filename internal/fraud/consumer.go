package fraud

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/certhq/certify/pkg/eventbus"
)

// AnalysisQueueGroup is the queue group for verification-event consumers, so
// each recorded verification is analyzed by exactly one instance.
const AnalysisQueueGroup = "certify-fraud-analysis"

// VerificationEventHandler feeds the analysis worker from verification.recorded
// events on the bus. A payload that cannot be decoded is surfaced as an error
// for redelivery; an event without a certificate ID is skipped.
func VerificationEventHandler(worker *Worker) eventbus.Handler {
	return func(ctx context.Context, event *eventbus.Event) error {
		var data eventbus.VerificationRecordedData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return fmt.Errorf("decode verification event: %w", err)
		}

		if data.CertificateID == "" {
			return nil
		}

		worker.Enqueue(ctx, data.CertificateID, data.SourceAddress)
		return nil
	}
}
