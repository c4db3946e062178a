package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	swipesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_swipes_total",
			Help: "Total number of recorded swipe decisions",
		},
		[]string{"kind"},
	)

	matchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_matches_total",
			Help: "Total number of matches created",
		},
		[]string{"completed_by"},
	)

	matchAlreadyExistsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_match_already_exists_total",
			Help: "Positive decisions on a pair that was already matched",
		},
	)

	rateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_rate_limited_total",
			Help: "Likes rejected by the daily quota",
		},
	)

	storageRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_storage_retries_total",
			Help: "Storage operations retried after a transient error or conflict",
		},
		[]string{"operation"},
	)

	compatibilityScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_compatibility_scores",
			Help:    "Distribution of compatibility totals served to viewers",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	batchSizes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_candidate_batch_size",
			Help:    "Number of candidates returned per batch",
			Buckets: prometheus.LinearBuckets(0, 5, 11),
		},
	)

	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_notifications_total",
			Help: "Match events handed to notification sinks",
		},
		[]string{"sink", "status"},
	)

	responseTime = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "matching_response_time_seconds",
			Help: "Engine operation latency",
		},
		[]string{"operation"},
	)
)

func RecordSwipe(kind string) {
	swipesTotal.WithLabelValues(kind).Inc()
}

func RecordMatch(completedBy string) {
	matchesTotal.WithLabelValues(completedBy).Inc()
}

func RecordMatchAlreadyExists() {
	matchAlreadyExistsTotal.Inc()
}

func RecordRateLimited() {
	rateLimitedTotal.Inc()
}

func RecordRetry(operation string) {
	storageRetriesTotal.WithLabelValues(operation).Inc()
}

func RecordCompatibilityScore(score float64) {
	compatibilityScores.Observe(score)
}

func RecordBatchSize(n int) {
	batchSizes.Observe(float64(n))
}

func RecordNotification(sink string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	notificationsTotal.WithLabelValues(sink, status).Inc()
}

func RecordResponseTime(operation string, duration time.Duration) {
	responseTime.WithLabelValues(operation).Observe(duration.Seconds())
}
