package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robertarktes/event-registrations/internal/observability"
)

type RouterOptions struct {
	Limiter   Limiter
	RateLimit int
}

func SetupRouter(h *Handlers, logger observability.Logger, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(TracingMiddleware)
	r.Use(MetricsMiddleware)

	r.Get("/v1/healthz", h.Healthz)
	r.Get("/v1/readyz", h.Readyz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/v1/events", func(r chi.Router) {
		r.Use(WalletMiddleware)
		if opts.Limiter != nil && opts.RateLimit > 0 {
			r.Use(RateLimitMiddleware(opts.Limiter, opts.RateLimit, logger))
		}

		r.Get("/", h.ListEvents)
		r.Post("/", h.CreateEvent)
		r.Get("/upcoming", h.UpcomingEvents)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetEvent)
			r.Put("/", h.UpdateEvent)
			r.Delete("/", h.DeleteEvent)
			r.Post("/mint-nft", h.PrepareNFT)

			r.Get("/attendees", h.ListAttendees)
			r.Post("/attendees", h.Register)
			r.Put("/attendees/check-in", h.CheckIn)
			r.Put("/attendees/nft", h.RecordNFTMint)
		})
	})

	return r
}
