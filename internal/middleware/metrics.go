package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts failed Redis commands by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warbler_redis_errors_total",
		Help: "Total number of Redis command errors",
	}, []string{"command"})

	// DomainEvents counts successful domain mutations (signup, follow, like, ...).
	DomainEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warbler_domain_events_total",
		Help: "Total number of domain events by type",
	}, []string{"event"})

	// AuthFailures counts rejected logins and unauthorized actions.
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warbler_auth_failures_total",
		Help: "Total number of authentication and authorization failures",
	}, []string{"reason"})
)

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// InitMetrics returns the process-wide Prometheus middleware. Registering the
// fiberprometheus collectors twice panics, so every server shares one instance.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.New(serviceName)
	})
	return prom
}

// MetricsMiddleware records HTTP metrics, skipping the scrape endpoint and static assets.
func MetricsMiddleware(p *fiberprometheus.FiberPrometheus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if path == "/metrics" || len(path) >= 8 && path[:8] == "/static/" {
			return c.Next()
		}
		return p.Middleware(c)
	}
}

// RecordEvent increments the domain event counter.
func RecordEvent(event string) {
	DomainEvents.WithLabelValues(event).Inc()
}
