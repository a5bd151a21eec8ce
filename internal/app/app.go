package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/boardledger/boardledger/internal/config"
	"github.com/boardledger/boardledger/internal/database"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const ConfigPath = "./config/application.yaml"

// Application wires configuration, database, router, and server lifecycle.
type Application struct {
	cfg  config.Application
	db   *pgxpool.Pool
	deps *Dependencies
	srv  *http.Server
}

// NewApplication constructs the full HTTP application, ready to Run().
func NewApplication() (*Application, error) {
	cfg, err := config.Load(ConfigPath)
	if err != nil {
		return nil, err
	}
	ConfigureLogging(cfg.Log)

	// DB + migrations
	if err := database.Migrate(cfg.Database); err != nil {
		return nil, err
	}
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}

	deps := BuildDependencies(db, cfg)

	r := mux.NewRouter()
	if cfg.Metrics.Enabled {
		r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}
	api := r.PathPrefix("/api").Subrouter()
	SetupMiddleware(api)
	RegisterRoutes(api, deps)

	srv := &http.Server{
		Handler:      r,
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Application{cfg: cfg, db: db, deps: deps, srv: srv}, nil
}

// Run starts the HTTP server and blocks until ctx is cancelled or the server fails.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s", a.srv.Addr)
		errCh <- a.srv.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	case <-ctx.Done():
		log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.srv.Shutdown(shutdownCtx); err != nil {
			runErr = fmt.Errorf("server shutdown: %w", err)
		}
	}

	a.deps.Close()
	a.db.Close()
	return runErr
}

// ConfigureLogging switches logrus to JSON output when configured.
func ConfigureLogging(cfg config.Log) {
	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	}
}
