package fraud

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestWorker_ProcessesJobs(t *testing.T) {
	var analyzed atomic.Int32

	events := new(MockEventLogReader)
	events.On("CountSince", mock.Anything, mock.Anything, mock.Anything).Return(1, nil)
	events.On("DistinctSourcesSince", mock.Anything, mock.Anything, mock.Anything).Return([]string{}, nil)

	certs := new(MockCertificateStore)
	certs.On("GetByCertificateID", mock.Anything, mock.Anything).Return(cleanCertificate(), nil)
	certs.On("UpdateRiskFields", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { analyzed.Add(1) }).Return(nil)

	analyzer := newTestAnalyzer(events, certs, new(MockAlertRepository))
	worker := NewWorker(analyzer, 2, 8)

	for i := 0; i < 5; i++ {
		assert.True(t, worker.Enqueue(context.Background(), "CF-2024-001", "203.0.113.9"))
	}

	worker.Stop()
	assert.Equal(t, int32(5), analyzed.Load())
}

func TestWorker_DropsWhenQueueFull(t *testing.T) {
	release := make(chan struct{})

	events := new(MockEventLogReader)
	events.On("CountSince", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { <-release }).Return(1, nil)
	events.On("DistinctSourcesSince", mock.Anything, mock.Anything, mock.Anything).Return([]string{}, nil)

	certs := new(MockCertificateStore)
	certs.On("GetByCertificateID", mock.Anything, mock.Anything).Return(cleanCertificate(), nil)
	certs.On("UpdateRiskFields", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	analyzer := newTestAnalyzer(events, certs, new(MockAlertRepository))
	worker := NewWorker(analyzer, 1, 1)

	// First job occupies the single worker; wait until it is picked up so the
	// queue slot is free for the second.
	assert.True(t, worker.Enqueue(context.Background(), "CF-2024-001", "203.0.113.9"))
	waitForPickup(t, worker)

	assert.True(t, worker.Enqueue(context.Background(), "CF-2024-002", "203.0.113.9"))
	assert.False(t, worker.Enqueue(context.Background(), "CF-2024-003", "203.0.113.9"),
		"third job should be dropped while the queue is full")

	close(release)
	worker.Stop()
}

func waitForPickup(t *testing.T, w *Worker) {
	t.Helper()
	deadline := time.After(time.Second)
	for len(w.jobs) > 0 {
		select {
		case <-deadline:
			t.Fatal("worker never picked up the queued job")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
