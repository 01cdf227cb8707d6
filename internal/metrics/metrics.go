// Package metrics exposes Prometheus counters for claim runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// claimOutcomes counts processed quests by outcome
	claimOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "questclaim_claim_outcomes_total",
		Help: "Processed quests by claim outcome",
	}, []string{"outcome"})

	// claimSubmissions counts claim submissions sent to the platform, retries included
	claimSubmissions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "questclaim_claim_submissions_total",
		Help: "Claim submissions sent to the platform",
	})

	// earnedXP sums XP returned by successful claims
	earnedXP = promauto.NewCounter(prometheus.CounterOpts{
		Name: "questclaim_earned_xp_total",
		Help: "XP earned by successful claims",
	})

	// runDuration tracks full run latency
	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "questclaim_run_duration_seconds",
		Help:    "Duration of complete claim runs",
		Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10s to ~85min
	}, []string{"result"})
)

// ObserveOutcome records one processed quest
func ObserveOutcome(outcome string, xp int) {
	claimOutcomes.WithLabelValues(outcome).Inc()
	if xp > 0 {
		earnedXP.Add(float64(xp))
	}
}

// ObserveSubmission records one claim submission
func ObserveSubmission() {
	claimSubmissions.Inc()
}

// ObserveRun records the duration of a run; result is "ok" or "error"
func ObserveRun(result string, seconds float64) {
	runDuration.WithLabelValues(result).Observe(seconds)
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
