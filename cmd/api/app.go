package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	promclient "github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/appointment-api/internal/config"
	"github.com/jwalitptl/appointment-api/internal/email"
	"github.com/jwalitptl/appointment-api/internal/handler/admin"
	"github.com/jwalitptl/appointment-api/internal/handler/appointment"
	"github.com/jwalitptl/appointment-api/internal/handler/health"
	"github.com/jwalitptl/appointment-api/internal/handler/notification"
	"github.com/jwalitptl/appointment-api/internal/handler/prometheus"
	"github.com/jwalitptl/appointment-api/internal/handler/resource"
	"github.com/jwalitptl/appointment-api/internal/middleware"
	"github.com/jwalitptl/appointment-api/internal/repository/postgres"
	"github.com/jwalitptl/appointment-api/internal/router"
	"github.com/jwalitptl/appointment-api/internal/service/access"
	adminService "github.com/jwalitptl/appointment-api/internal/service/admin"
	appointmentService "github.com/jwalitptl/appointment-api/internal/service/appointment"
	notificationService "github.com/jwalitptl/appointment-api/internal/service/notification"
	"github.com/jwalitptl/appointment-api/internal/service/validation"
	"github.com/jwalitptl/appointment-api/pkg/auth"
	"github.com/jwalitptl/appointment-api/pkg/lock"
	"github.com/jwalitptl/appointment-api/pkg/messaging/redis"
	"github.com/jwalitptl/appointment-api/pkg/metrics"
)

// app owns every long-lived dependency of the API process.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger

	db     *sqlx.DB
	redis  *goredis.Client
	center *notificationService.Center
	server *http.Server
}

func newApp(cfg *config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		return nil, err
	}
	a.db = db

	if cfg.Redis.Enabled {
		client, err := redis.NewClient(redis.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   3,
			RetryBackoff: 100 * time.Millisecond,
			PoolSize:     cfg.Redis.PoolSize,
		})
		if err != nil {
			a.close()
			return nil, err
		}
		a.redis = client
	}

	registry := promclient.NewRegistry()
	m := metrics.New("clinic", registry)

	// Repositories
	users := postgres.NewUserRepository(db)
	providers := postgres.NewProviderRepository(db)
	patients := postgres.NewPatientRepository(db)
	appointments := postgres.NewAppointmentRepository(db)
	records := postgres.NewMedicalRecordRepository(db)
	notifications := postgres.NewNotificationRepository(db)

	// Notification center and its channels
	a.center = notificationService.NewCenter(logger,
		notificationService.WithAsync(cfg.Notification.Async),
		notificationService.WithChannelTimeout(cfg.Notification.ChannelTimeout),
		notificationService.WithMetrics(m),
	)

	var sender email.Sender = email.NewLogSender(logger)
	if cfg.SMTP.Enabled {
		sender = email.NewSMTPSender(cfg.SMTP)
	}
	a.center.Subscribe(notificationService.ChannelEmail, notificationService.NewEmailChannel(sender, users).Handle)
	a.center.Subscribe(notificationService.ChannelRecord, notificationService.NewRecordChannel(notifications, users).Handle)

	var locker lock.Locker = lock.NewLocalLocker()
	if a.redis != nil {
		locker = lock.NewRedisLocker(a.redis, cfg.Redis.LockTTL)
		broker := redis.NewRedisBroker(a.redis, logger)
		a.center.Subscribe(notificationService.ChannelPush, notificationService.NewPushChannel(broker).Handle)
	}

	// Services
	authMW := middleware.NewAuthMiddleware(
		auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.ExpiryHours)*time.Hour),
		users,
		cfg.Access.CacheTTL,
	)

	apptSvc := appointmentService.NewService(appointmentService.Deps{
		Appointments: appointments,
		Patients:     patients,
		Providers:    providers,
		Locker:       locker,
		Events:       a.center,
		Validate:     validation.NewValidate(),
		Clock:        validation.SystemClock(cfg.Location()),
		Metrics:      m,
		Logger:       logger,
	})

	proxy := access.NewProxy(
		access.NewRepositoryAccessor(users, providers, appointments, records),
		access.DefaultPolicy(),
		access.NewLog(cfg.Access.LogCapacity),
		m,
		logger,
	)

	adminSvc := adminService.NewService(users, a.center, authMW, logger)
	inbox := notificationService.NewInbox(notifications)

	// HTTP
	checks := map[string]health.Check{"database": health.Database(db)}
	if a.redis != nil {
		checks["redis"] = health.Redis(a.redis)
	}

	routerCfg := router.RouterConfig{
		CORSConfig:   middleware.DefaultCORSConfig(cfg.Server.AllowedOrigins),
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		ExposeErrors: !cfg.IsProduction(),
	}
	if cfg.RateLimit.Enabled {
		routerCfg.RateLimit = &middleware.RateLimiterConfig{
			Rate:    rate.Limit(cfg.RateLimit.RequestsPerSecond),
			Burst:   cfg.RateLimit.Burst,
			IdleTTL: 10 * time.Minute,
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := router.NewRouter(
		routerCfg,
		logger,
		m,
		authMW,
		health.NewHandler(checks),
		prometheus.New(registry),
		appointment.NewHandler(apptSvc, proxy),
		resource.NewHandler(proxy),
		notification.NewHandler(inbox),
		admin.NewHandler(adminSvc, proxy.Log()),
	)
	r.Setup()

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return a, nil
}

// close releases connections. In-flight notifications must be drained first.
func (a *app) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("failed to close redis")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("failed to close database")
		}
	}
}
