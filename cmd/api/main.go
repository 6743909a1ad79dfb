package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/mailpilot/campaign-api/internal/config"
	"github.com/mailpilot/campaign-api/internal/email"
	"github.com/mailpilot/campaign-api/internal/handler"
	authHandler "github.com/mailpilot/campaign-api/internal/handler/auth"
	contactHandler "github.com/mailpilot/campaign-api/internal/handler/contact"
	settingsHandler "github.com/mailpilot/campaign-api/internal/handler/settings"
	templateHandler "github.com/mailpilot/campaign-api/internal/handler/template"
	"github.com/mailpilot/campaign-api/internal/middleware"
	"github.com/mailpilot/campaign-api/internal/model"
	"github.com/mailpilot/campaign-api/internal/provider/brevo"
	"github.com/mailpilot/campaign-api/internal/repository/postgres"
	"github.com/mailpilot/campaign-api/internal/router"
	"github.com/mailpilot/campaign-api/internal/scheduler"
	authService "github.com/mailpilot/campaign-api/internal/service/auth"
	campaignService "github.com/mailpilot/campaign-api/internal/service/campaign"
	"github.com/mailpilot/campaign-api/internal/template"
	pkgauth "github.com/mailpilot/campaign-api/pkg/auth"
	"github.com/mailpilot/campaign-api/pkg/logger"
	"github.com/mailpilot/campaign-api/pkg/messaging"
	redisbroker "github.com/mailpilot/campaign-api/pkg/messaging/redis"
	"github.com/mailpilot/campaign-api/pkg/metrics"
	"github.com/mailpilot/campaign-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	appLogger := logger.FromZerolog(log.Logger)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	settingsRepo := postgres.NewSettingsRepository(db)
	contactRepo := postgres.NewContactRepository(db)
	jobRepo := postgres.NewImportJobRepository(db)

	// Optional message broker for dispatch events
	var broker messaging.Broker
	if cfg.Redis.Enabled {
		broker, err = redisbroker.NewRedisBroker(redisbroker.Config{URL: cfg.Redis.URL}, &log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer broker.Close()
	}

	// Transactional mail
	var emailSvc email.Service = email.NoopService{}
	if cfg.SMTP.Enabled {
		emailSvc = email.NewSMTPService(cfg.SMTP)
	}

	// Services
	jwtSvc := pkgauth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	hasher := security.NewBcryptHasher(bcrypt.DefaultCost)
	authSvc := authService.NewService(userRepo, settingsRepo, hasher, jwtSvc, emailSvc, appLogger)
	campaignSvc := campaignService.NewService(contactRepo, settingsRepo, jobRepo, appLogger)
	templateStore := template.NewStore(cfg.Templates.Dir)

	// Dispatch core
	m := metrics.New("campaign")
	quota := scheduler.NewQuotaTracker(settingsRepo)
	confirmer := scheduler.NewConfirmer(cfg.Scheduler.ConfirmAttempts, cfg.Scheduler.ConfirmInterval)
	dispatcher := scheduler.NewDispatcher(contactRepo, quota, templateStore, confirmer, broker, m, appLogger)
	sched := scheduler.New(settingsRepo, contactRepo, quota, dispatcher, providerFactory, scheduler.Config{
		IdleInterval: cfg.Scheduler.IdleInterval,
		ErrorBackoff: cfg.Scheduler.ErrorBackoff,
	}, m, appLogger)

	// HTTP surface
	authMiddleware := middleware.NewAuthMiddleware(jwtSvc)
	r := router.NewRouter(
		authMiddleware,
		authHandler.NewHandler(authSvc),
		settingsHandler.NewHandler(campaignSvc),
		contactHandler.NewHandler(campaignSvc),
		templateHandler.NewHandler(templateStore),
		handler.NewHandler(),
		router.Config{RateLimit: 50, RateBurst: 100},
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	sched.Start()

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	// waits for the in-flight pass before returning
	sched.Stop()
	log.Info().Msg("shutdown complete")
}

// providerFactory builds a fresh provider client per dispatch from the
// account's own credential.
func providerFactory(s *model.AccountSettings) scheduler.Provider {
	senderName := s.SenderName
	if senderName == "" {
		senderName = "Sender"
	}
	return brevo.New(s.ProviderAPIKey, s.SenderEmail, senderName)
}
