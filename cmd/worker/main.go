// The worker binary runs the dispatch scheduler without the HTTP
// surface. Exactly one instance may run against a given store:
// the loop is the sole writer of contact statuses and quota counters,
// and a second copy would double-send.
package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mailpilot/campaign-api/internal/config"
	"github.com/mailpilot/campaign-api/internal/model"
	"github.com/mailpilot/campaign-api/internal/provider/brevo"
	"github.com/mailpilot/campaign-api/internal/repository/postgres"
	"github.com/mailpilot/campaign-api/internal/scheduler"
	"github.com/mailpilot/campaign-api/internal/template"
	"github.com/mailpilot/campaign-api/pkg/logger"
	"github.com/mailpilot/campaign-api/pkg/messaging"
	redisbroker "github.com/mailpilot/campaign-api/pkg/messaging/redis"
	"github.com/mailpilot/campaign-api/pkg/metrics"
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

	settingsRepo := postgres.NewSettingsRepository(db)
	contactRepo := postgres.NewContactRepository(db)

	var broker messaging.Broker
	if cfg.Redis.Enabled {
		broker, err = redisbroker.NewRedisBroker(redisbroker.Config{URL: cfg.Redis.URL}, &log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer broker.Close()
	}

	templateStore := template.NewStore(cfg.Templates.Dir)

	m := metrics.New("campaign_worker")
	quota := scheduler.NewQuotaTracker(settingsRepo)
	confirmer := scheduler.NewConfirmer(cfg.Scheduler.ConfirmAttempts, cfg.Scheduler.ConfirmInterval)
	dispatcher := scheduler.NewDispatcher(contactRepo, quota, templateStore, confirmer, broker, m, appLogger)
	sched := scheduler.New(settingsRepo, contactRepo, quota, dispatcher, providerFactory, scheduler.Config{
		IdleInterval: cfg.Scheduler.IdleInterval,
		ErrorBackoff: cfg.Scheduler.ErrorBackoff,
	}, m, appLogger)

	setupHealthCheck(appLogger)

	sched.Start()
	log.Info().Msg("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down...")

	sched.Stop()
	log.Info().Msg("shutdown complete")
}

func providerFactory(s *model.AccountSettings) scheduler.Provider {
	senderName := s.SenderName
	if senderName == "" {
		senderName = "Sender"
	}
	return brevo.New(s.ProviderAPIKey, s.SenderEmail, senderName)
}

func setupHealthCheck(appLogger *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(":8081", mux); err != nil {
			appLogger.Fatal(err, "health check server failed")
		}
	}()
}
