package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/wordduel/internal/api/handler"
	"github.com/mcoot/wordduel/internal/api/middleware"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger *slog.Logger
	Source handler.SnapshotSource
	// AdminToken, when set, is required as a bearer token on every route but /health
	AdminToken string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	statusHandler := handler.NewStatusHandler(cfg.Source)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(middleware.Logging(cfg.Logger))

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	admin := api.NewRoute().Subrouter()
	admin.Use(middleware.AdminToken(cfg.AdminToken))
	admin.HandleFunc("/status", statusHandler.Status).Methods(http.MethodGet)
	admin.HandleFunc("/players", statusHandler.ListPlayers).Methods(http.MethodGet)
	admin.HandleFunc("/players/{id}", statusHandler.GetPlayer).Methods(http.MethodGet)
	admin.HandleFunc("/matches", statusHandler.ListMatches).Methods(http.MethodGet)
	admin.HandleFunc("/matches/{guesser_id}", statusHandler.GetMatch).Methods(http.MethodGet)
	admin.HandleFunc("/results", statusHandler.ListResults).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
