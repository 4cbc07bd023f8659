package cmd

import (
	"context"
	"fmt"

	"lotterypool/application"
	"lotterypool/config"
	"lotterypool/database"
	"lotterypool/domain/entropy"
	"lotterypool/httpapi"
	"lotterypool/infrastructure"
	"lotterypool/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// runtime holds the shared dependencies of the server and the CLI commands
type runtime struct {
	db         *database.DB
	natsClient *infrastructure.NATSClient
	discord    interface{ Close() error }
	handler    *application.LotteryHandler
	metrics    *observability.MetricsProvider
}

// newRuntime connects to every configured backend. withAnnouncer opens the
// Discord session when a token is configured.
func newRuntime(ctx context.Context, cfg *config.Config, withAnnouncer bool) (*runtime, error) {
	rt := &runtime{metrics: observability.GetMetrics()}

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	rt.db = db
	log.Info("Database connection established successfully")

	var publisher *infrastructure.NATSEventPublisher
	if cfg.NATSServers != "" {
		rt.natsClient = infrastructure.NewNATSClient(cfg.NATSServers)
		if err := rt.natsClient.Connect(ctx); err != nil {
			rt.Close()
			return nil, err
		}
		publisher = infrastructure.NewNATSEventPublisher(rt.natsClient, infrastructure.NewEventSubjectMapper()).WithMetrics(rt.metrics)
		if err := publisher.EnsureLotteryEventStream(); err != nil {
			rt.Close()
			return nil, err
		}
	} else {
		log.Info("NATS_SERVERS not set, events stay in process")
		publisher = infrastructure.NewNATSEventPublisher(nil, infrastructure.NewEventSubjectMapper())
	}

	source, err := entropy.New(cfg.EntropySource)
	if err != nil {
		rt.Close()
		return nil, err
	}
	if isWeakEntropy(source) {
		log.Warn("Using block metadata entropy; draws are predictable by anyone who can observe or influence it")
	}

	var announcer application.WinnerAnnouncer
	if withAnnouncer && cfg.DiscordToken != "" {
		session, err := infrastructure.OpenDiscordSession(cfg.DiscordToken)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.discord = session
		announcer = infrastructure.NewDiscordAnnouncer(session, cfg.DiscordChannelID)
		log.WithField("channel_id", cfg.DiscordChannelID).Info("Discord winner announcements enabled")
	}

	uowFactory := infrastructure.NewUnitOfWorkFactory(db, publisher)
	rt.handler = application.NewLotteryHandler(uowFactory, source, cfg.StartingBalance, rt.metrics, announcer)
	return rt, nil
}

// isWeakEntropy reports whether draws are seeded from observable ledger metadata
func isWeakEntropy(source entropy.Source) bool {
	return source.Name() == entropy.SourceBlock
}

// Close releases every connection the runtime opened
func (rt *runtime) Close() {
	if rt.discord != nil {
		if err := rt.discord.Close(); err != nil {
			log.WithError(err).Error("Error closing Discord session")
		}
	}
	if rt.natsClient != nil {
		if err := rt.natsClient.Close(); err != nil {
			log.WithError(err).Error("Error closing NATS connection")
		}
	}
	if rt.db != nil {
		log.Info("Closing database connection...")
		rt.db.Close()
	}
}

// Run initializes and starts the HTTP API and the draw scheduler
func Run(ctx context.Context) error {
	cfg := config.Get()
	cfg.ConfigureLogging()
	log.WithField("environment", cfg.Environment).Info("Starting lotterypool...")

	rt, err := newRuntime(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	if cfg.DrawSchedule != "" {
		worker := application.NewDrawWorker(rt.handler, cfg.DrawSchedule, cfg.DrawPoolIDs, cfg.AdministratorAddress)
		stopWorker, err := worker.Start(ctx)
		if err != nil {
			return err
		}
		defer stopWorker()
	}

	limiter := httpapi.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	router := httpapi.NewRouter(rt.handler, limiter, rt.metrics.Handler())
	server := httpapi.NewServer(cfg.HTTPAddr, router, limiter)

	if err := server.Run(ctx); err != nil {
		return err
	}

	log.Info("Shutdown completed")
	return nil
}
