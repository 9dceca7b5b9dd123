package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pacificfuels/lcfs-backend/api/controllers"
	"github.com/pacificfuels/lcfs-backend/api/middleware"
	"github.com/pacificfuels/lcfs-backend/pkg/config"
	"github.com/pacificfuels/lcfs-backend/pkg/db"
	"github.com/pacificfuels/lcfs-backend/pkg/logger"
	"github.com/pacificfuels/lcfs-backend/pkg/redis"
)

// NewRouter builds the operational HTTP surface: liveness, readiness, and
// the Prometheus scrape endpoint. Compliance operations run through the
// service layer and background workers, not through HTTP.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return r
}
