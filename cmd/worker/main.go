package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/appointment-api/internal/config"
	"github.com/jwalitptl/appointment-api/internal/handler/health"
	"github.com/jwalitptl/appointment-api/internal/repository/postgres"
	"github.com/jwalitptl/appointment-api/internal/worker"
	"github.com/jwalitptl/appointment-api/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	healthAddr := flag.String("health-addr", ":8081", "listen address for health probes")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Logger = logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Pretty: cfg.Logging.Pretty,
	}).With().Str("process", "worker").Logger()

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	cleanup := worker.NewNotificationCleanupWorker(
		postgres.NewNotificationRepository(db),
		cfg.Notification.RetentionDays,
		cfg.Notification.CleanupInterval,
		log.Logger,
	)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	health.NewHandler(map[string]health.Check{"database": health.Database(db)}).RegisterRoutes(engine)
	probes := &http.Server{Addr: *healthAddr, Handler: engine, ReadTimeout: 5 * time.Second}

	go func() {
		if err := probes.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health check server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Int("retention_days", cfg.Notification.RetentionDays).
		Dur("interval", cfg.Notification.CleanupInterval).
		Msg("worker started")
	cleanup.Start(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = probes.Shutdown(shutdownCtx)
	log.Info().Msg("worker stopped")
}
