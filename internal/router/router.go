package router

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/unclebandit/folio-backend/internal/controller"
	"github.com/unclebandit/folio-backend/internal/metrics"
)

// Deps are the handlers the router mounts. Nil controllers leave their
// routes out.
type Deps struct {
	Campaigns   *controller.CampaignController
	Analytics   *controller.AnalyticsController
	Settings    *controller.SettingsController
	Backups     *controller.BackupController
	Unsubscribe http.Handler
	Track       http.Handler

	Metrics    *metrics.Metrics
	AdminToken string
	Health     func(ctx context.Context) error
	Log        zerolog.Logger
}

func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(d.Log))
	r.Use(accessLog(d.Metrics))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Client-Info", "Apikey"},
		MaxAge:         300,
	}))

	r.Get("/health", health(d.Health))
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler())
	}

	if d.Campaigns != nil {
		r.Post("/functions/send-newsletter", d.Campaigns.SendNewsletter)
		r.Options("/functions/send-newsletter", d.Campaigns.Preflight)
	}
	if d.Unsubscribe != nil {
		r.Method(http.MethodGet, "/functions/unsubscribe", d.Unsubscribe)
		r.Method(http.MethodGet, "/unsubscribe", d.Unsubscribe)
	}
	if d.Track != nil {
		r.Method(http.MethodPost, "/api/track", d.Track)
	}

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(adminAuth(d.AdminToken))

		if c := d.Campaigns; c != nil {
			r.Post("/campaigns", c.CreateCampaign)
			r.Get("/campaigns", c.ListCampaigns)
			r.Get("/campaigns/{id}", c.GetCampaignDetails)
			r.Post("/campaigns/{id}/send", c.SendCampaign)
		}
		if c := d.Analytics; c != nil {
			r.Get("/analytics/stats", c.Stats)
			r.Get("/analytics/recent", c.Recent)
			r.Get("/analytics/daily", c.Daily)
		}
		if c := d.Settings; c != nil {
			r.Get("/settings", c.List)
			r.Post("/settings", c.Create)
			r.Get("/settings/{key}", c.Get)
			r.Put("/settings/{key}", c.Update)
			r.Delete("/settings/{key}", c.Delete)
		}
		if c := d.Backups; c != nil {
			r.Get("/backups", c.List)
			r.Get("/backups/{id}", c.Get)
			r.Post("/backups/{id}/restore", c.Restore)
		}
	})

	return r
}

// adminAuth requires "Authorization: Bearer <token>". An empty configured
// token locks the admin API entirely.
func adminAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			got := strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer ")
			if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func accessLog(m *metrics.Metrics) func(http.Handler) http.Handler {
	return hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		m.ObserveHTTP(route, status, duration)

		hlog.FromRequest(r).Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("route", route).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})
}

func health(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
