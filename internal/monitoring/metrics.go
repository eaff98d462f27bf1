package monitoring

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	ReferralEvents  *prometheus.CounterVec
	ReferralPayouts prometheus.Counter
	XPAwarded       *prometheus.CounterVec
	QuestProgress   *prometheus.CounterVec
	QuestClaims     *prometheus.CounterVec
	GamesPlayed     *prometheus.CounterVec
	QuestCache      *prometheus.CounterVec
}

var (
	metrics *Metrics
	once    sync.Once
)

func Get() *Metrics {
	once.Do(func() {
		metrics = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request duration in seconds",
					Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path"},
			),
			HTTPRequestsInFlight: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "http_requests_in_flight",
					Help: "Number of HTTP requests being served",
				},
			),
			ReferralEvents: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "referral_events_total",
					Help: "Referral records entering each status",
				},
				[]string{"status"},
			),
			ReferralPayouts: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "referral_payouts_usdc_total",
					Help: "USDC credited to referrers",
				},
			),
			XPAwarded: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "xp_awarded_total",
					Help: "XP awarded by source",
				},
				[]string{"source"},
			),
			QuestProgress: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "quest_progress_updates_total",
					Help: "Quest progress updates by requirement type",
				},
				[]string{"requirement"},
			),
			QuestClaims: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "quest_claims_total",
					Help: "Quest rewards claimed by quest type",
				},
				[]string{"type"},
			),
			GamesPlayed: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "minigame_sessions_total",
					Help: "Finished mini-game sessions by outcome",
				},
				[]string{"outcome"},
			),
			QuestCache: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "quest_cache_lookups_total",
					Help: "Quest catalog cache lookups",
				},
				[]string{"result"},
			),
		}
	})
	return metrics
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func GinHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func Middleware() gin.HandlerFunc {
	m := Get()
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method

		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

func RecordReferralEvent(status string) {
	Get().ReferralEvents.WithLabelValues(status).Inc()
}

func RecordReferralPayout(amount float64) {
	Get().ReferralPayouts.Add(amount)
}

func RecordXPAwarded(source string, amount int) {
	Get().XPAwarded.WithLabelValues(source).Add(float64(amount))
}

func RecordQuestProgress(requirement string) {
	Get().QuestProgress.WithLabelValues(requirement).Inc()
}

func RecordQuestClaim(questType string) {
	Get().QuestClaims.WithLabelValues(questType).Inc()
}

func RecordGame(outcome string) {
	Get().GamesPlayed.WithLabelValues(outcome).Inc()
}

func RecordQuestCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	Get().QuestCache.WithLabelValues(result).Inc()
}
