// Package metrics собирает счётчики Prometheus для API и доменных событий.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sudak_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sudak_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	listingsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sudak_listings_created_total",
			Help: "Total number of posted listings",
		},
	)

	listingsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sudak_listings_rejected_total",
			Help: "Listing submissions rejected by reason",
		},
		[]string{"reason"},
	)

	reviewsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sudak_reviews_total",
			Help: "Total number of reviews added",
		},
	)

	messagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sudak_messages_total",
			Help: "Total number of chat messages by origin",
		},
		[]string{"origin"},
	)

	registrationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sudak_registrations_total",
			Help: "Total number of registered users",
		},
	)

	storeFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sudak_store_failures_total",
			Help: "Store operations that failed by operation",
		},
		[]string{"operation"},
	)

	storeConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sudak_store_conflicts_total",
			Help: "Optimistic transaction attempts that hit a version conflict",
		},
	)
)

// Middleware записывает метрики HTTP запросов
func Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		// Шаблон маршрута, а не фактический путь, чтобы не раздувать кардинальность
		path := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}

		httpRequestsTotal.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())
		return err
	}
}

// ListingCreated увеличивает счётчик размещённых объявлений
func ListingCreated() {
	listingsCreatedTotal.Inc()
}

// ListingRejected учитывает отказ в размещении с кодом причины
func ListingRejected(reason string) {
	listingsRejectedTotal.WithLabelValues(reason).Inc()
}

// ReviewAdded увеличивает счётчик отзывов
func ReviewAdded() {
	reviewsTotal.Inc()
}

// MessageSent учитывает сообщение; origin = user или auto_reply
func MessageSent(origin string) {
	messagesTotal.WithLabelValues(origin).Inc()
}

// UserRegistered увеличивает счётчик регистраций
func UserRegistered() {
	registrationsTotal.Inc()
}

// StoreFailure учитывает сбой операции хранилища
func StoreFailure(operation string) {
	storeFailuresTotal.WithLabelValues(operation).Inc()
}

// StoreConflict учитывает конфликт версий в транзакции
func StoreConflict() {
	storeConflictsTotal.Inc()
}
