package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecomputeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_shift_recompute_total",
		Help: "Shift summary recomputations by result.",
	}, []string{"result"})

	RecomputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "attendance_shift_recompute_duration_seconds",
		Help:    "Time spent recomputing one shift summary.",
		Buckets: prometheus.DefBuckets,
	})

	AutoCloseRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_auto_close_runs_total",
		Help: "Auto-close passes by outcome.",
	}, []string{"outcome"})

	AutoCloseShiftsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_auto_close_shifts_total",
		Help: "Shifts handled by the auto-close job, by reason or failure.",
	}, []string{"result"})
)
