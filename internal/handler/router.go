package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/geotrace/geotrace-go/internal/middleware"
)

// RouterConfig carries everything NewRouter wires together.
type RouterConfig struct {
	Auth        *AuthHandler
	Geo         *GeoHandler
	History     *HistoryHandler
	Tokens      middleware.TokenVerifier
	Log         *slog.Logger
	CORSOrigins []string
}

// NewRouter builds the HTTP surface. /register, /login, /health and /metrics
// are public; everything else requires a bearer token.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(cfg.Log))
	r.Use(chimw.Recoverer)

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/register", cfg.Auth.HandleRegister)
	r.Post("/login", cfg.Auth.HandleLogin)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(cfg.Tokens, cfg.Log))
		r.Get("/me", cfg.Auth.HandleMe)

		r.Get("/geo/self", cfg.Geo.HandleSelf)
		r.Get("/geo/{ip}", cfg.Geo.HandleByIP)

		r.Post("/history/search", cfg.History.HandleSearch)
		r.Get("/history", cfg.History.HandleList)
		r.Delete("/history", cfg.History.HandleDelete)
	})

	return r
}
