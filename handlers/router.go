package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rental-search/session"
	"rental-search/utils"
)

// RouterConfig carries the dependencies of NewRouter.
type RouterConfig struct {
	Auth          *AuthHandler
	Listings      *ListingsHandler
	Logger        *utils.Logger
	SecureCookies bool
	SessionTTL    time.Duration
	// RequestTimeout bounds each request; scraping needs a generous value.
	RequestTimeout time.Duration
}

// NewRouter creates a chi router with every route registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(Recovery(cfg.Logger))
	r.Use(RequestLogging(cfg.Logger))
	r.Use(Metrics)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(session.Middleware(cfg.SecureCookies, cfg.SessionTTL))
		if cfg.RequestTimeout > 0 {
			r.Use(chimw.Timeout(cfg.RequestTimeout))
		}

		r.Route("/auth", func(r chi.Router) {
			r.Get("/start", cfg.Auth.Start)
			r.Get("/callback", cfg.Auth.Callback)
			r.Get("/status", cfg.Auth.Status)
			r.Post("/logout", cfg.Auth.Logout)
		})

		r.Get("/listings", cfg.Listings.Search)
		r.Get("/listings/external", cfg.Listings.External)
		r.Get("/properties/{id}", cfg.Listings.Property)
	})

	return r
}
