// Command server runs the claims backend HTTP API.
//
// It loads configuration from the environment, opens the SQLite database,
// wires the storage and collaborator clients, and serves the REST API with
// graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "github.com/tbourn/go-claims-backend/docs"
	"github.com/tbourn/go-claims-backend/internal/clients"
	"github.com/tbourn/go-claims-backend/internal/config"
	"github.com/tbourn/go-claims-backend/internal/events"
	httpapi "github.com/tbourn/go-claims-backend/internal/http"
	"github.com/tbourn/go-claims-backend/internal/observability"
	"github.com/tbourn/go-claims-backend/internal/repo"
	"github.com/tbourn/go-claims-backend/internal/storage"
	"github.com/tbourn/go-claims-backend/internal/sysutil"
)

var version = "dev"

// @title           Claims Backend API
// @version         1.0
// @description     Claim settlement adjudication and reconciliation service.
// @BasePath        /api/v1
func main() {
	// Optional .env for local development. Missing file is not an error.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("database open failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	store, err := storage.New(ctx, cfg.Upload.Bucket, cfg.Upload.URLTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("storage setup failed")
	}

	col := httpapi.Collaborators{
		Storage:     store,
		Parser:      clients.NewParserClient(cfg.Collaborators.ParserURL, nil),
		Estimator:   clients.NewEstimatorClient(cfg.Collaborators.EstimatorURL, nil),
		Adjudicator: clients.NewAdjudicatorClient(cfg.Collaborators.AdjudicatorURL, nil),
		Letters:     clients.NewLettersClient(cfg.Collaborators.LettersURL, nil),
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, db, events.NewBus(), col, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
		}
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	if err := shutdownOTel(shutCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown failed")
	}
	log.Info().Msg("server stopped")
}
