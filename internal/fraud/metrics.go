package fraud

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	analysesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "certify_fraud_analyses_total",
		Help: "Total number of verification analysis runs",
	})

	analysisFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "certify_fraud_analysis_failures_total",
		Help: "Total number of analysis runs that ended in an error",
	})

	alertsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "certify_fraud_alerts_created_total",
		Help: "Total number of fraud alerts created",
	}, []string{"kind", "severity"})

	alertsSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "certify_fraud_alerts_suppressed_total",
		Help: "Total number of alerts suppressed by the cooldown window",
	})

	queueDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "certify_fraud_queue_dropped_total",
		Help: "Total number of analysis jobs dropped because the queue was full",
	})
)
