package convo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	asksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ragchat_asks_total",
		Help: "Questions asked across all sessions",
	})
	askFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ragchat_ask_failures_total",
		Help: "Failed asks by failure kind",
	}, []string{"kind"})
	sentinelEvidenceTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ragchat_sentinel_evidence_total",
		Help: "Turns where retrieval fell below the acceptance threshold",
	})
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ragchat_active_sessions",
		Help: "Sessions currently held by the registry",
	})
)
