package backend

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Provider observability: load outcomes, fallback substitutions, and
// operation volume. Registered on the default prometheus registry; callers
// expose them however they expose the rest of their metrics.
var (
	loadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pqkit",
		Subsystem: "backend",
		Name:      "loads_total",
		Help:      "Completed load cycles by result (native, fallback, failed).",
	}, []string{"result"})

	fallbackActivations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pqkit",
		Subsystem: "backend",
		Name:      "fallback_activations_total",
		Help:      "Load cycles that substituted the deterministic fallback engine.",
	})

	opsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pqkit",
		Subsystem: "backend",
		Name:      "operations_total",
		Help:      "Signature operations served, by operation.",
	}, []string{"op"})
)
