package api

import (
	"net/http"

	"github.com/EmpoweredVote/geodata/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options configures the router.
type Options struct {
	AllowedOrigins []string
	RateLimit      float64
	RateBurst      int

	// Gatherer backs /metrics. Nil leaves /metrics unmounted.
	Gatherer prometheus.Gatherer
}

// SetupRoutes returns the HTTP surface over svc.
func SetupRoutes(svc Searcher, opts Options) http.Handler {
	h := &handlers{svc: svc}
	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware(opts.AllowedOrigins))

	r.Get("/", RootHandler)
	r.Get("/healthz", healthHandler)
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewRateLimiter(opts.RateLimit, opts.RateBurst).Middleware)
		r.Get("/spt", h.penetrationTests)
		r.Get("/cpt", h.coneTests)
		r.Get("/vs", h.velocityProfiles)
	})

	return r
}
