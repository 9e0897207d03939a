package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// result: created, updated, rejected, failed
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contest_submissions_total",
			Help: "Submission attempts by result",
		},
		[]string{"result"},
	)

	LiveSubmissions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "contest_live_submissions",
			Help: "Number of stored submissions after the last write",
		},
	)

	// result: ok, failed
	TallyLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contest_tally_lookups_total",
			Help: "Reaction count lookups performed by tally recompute",
		},
		[]string{"result"},
	)

	TallyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "contest_tally_duration_seconds",
			Help:    "Duration of a full tally recompute",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)

	// outcome: evaluated, skipped, finished
	CountdownTicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contest_countdown_ticks_total",
			Help: "Countdown scheduler ticks by outcome",
		},
		[]string{"outcome"},
	)

	StrippedReactionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "contest_stripped_reactions_total",
			Help: "Disallowed reactions removed from submission cards",
		},
	)
)
