package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_turns_total",
			Help: "Total number of conversation turns by response type",
		},
		[]string{"response_type"},
	)

	TurnsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_turns_failed_total",
			Help: "Total number of turns surfaced as transport errors",
		},
		[]string{"error_code"},
	)

	ExternalCallFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_external_call_failures_total",
			Help: "Degraded external collaborator calls by service",
		},
		[]string{"service"},
	)

	StrategySwitches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assistant_strategy_switches_total",
			Help: "Turns where the clarification budget forced a recommendation",
		},
	)

	CapabilityFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assistant_capability_fallbacks_total",
			Help: "Turns answered by the capability matcher instead of fit scores",
		},
	)

	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "assistant_turn_duration_seconds",
			Help: "Duration of turn processing in seconds",
		},
		[]string{"response_type"},
	)
)
