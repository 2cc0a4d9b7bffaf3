package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	notificationservice "stackit/contexts/community-qa/notification-service"
	notificationmemory "stackit/contexts/community-qa/notification-service/adapters/memory"
	notificationpostgres "stackit/contexts/community-qa/notification-service/adapters/postgres"
	questionservice "stackit/contexts/community-qa/question-service"
	questionmemory "stackit/contexts/community-qa/question-service/adapters/memory"
	questionpostgres "stackit/contexts/community-qa/question-service/adapters/postgres"
	questionworkers "stackit/contexts/community-qa/question-service/application/workers"
	voteledger "stackit/contexts/community-qa/vote-ledger"
	ledgermemory "stackit/contexts/community-qa/vote-ledger/adapters/memory"
	ledgerpostgres "stackit/contexts/community-qa/vote-ledger/adapters/postgres"
	ledgerworkers "stackit/contexts/community-qa/vote-ledger/application/workers"
	authservice "stackit/contexts/identity-access/auth-service"
	authmemory "stackit/contexts/identity-access/auth-service/adapters/memory"
	authpostgres "stackit/contexts/identity-access/auth-service/adapters/postgres"
	"stackit/contexts/identity-access/auth-service/adapters/security"
	"stackit/internal/app/bridge"
	"stackit/internal/platform/config"
	"stackit/internal/platform/db"
	"stackit/internal/platform/messaging"
	"stackit/internal/platform/metrics"
	"stackit/internal/shared/events"
)

const relayBatchSize = 100

type eventBus interface {
	Publish(ctx context.Context, topic string, event events.Envelope) error
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler func(context.Context, events.Envelope) error) error
}

// components holds every wired module of one process.
type components struct {
	auth          authservice.Module
	ledger        voteledger.Module
	questions     questionservice.Module
	notifications notificationservice.Module

	ledgerRelay   ledgerworkers.OutboxRelay
	questionRelay questionworkers.OutboxRelay

	metrics  *metrics.Registry
	bus      eventBus
	nats     *messaging.NATS
	postgres *db.Postgres
}

func buildComponents(ctx context.Context, cfg config.Config, logger *slog.Logger) (*components, error) {
	c := &components{metrics: metrics.NewRegistry()}

	switch cfg.EventBus {
	case config.EventBusNATS:
		nc, err := messaging.ConnectNATS(ctx, cfg.NATSURL, cfg.NATSStream, logger)
		if err != nil {
			return nil, err
		}
		c.nats = nc
		c.bus = nc
	default:
		c.bus = messaging.NewInProcessBus(logger)
	}

	var err error
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		err = c.wirePostgres(ctx, cfg, logger)
	default:
		c.wireMemory(cfg, logger)
	}
	if err != nil {
		_ = c.close()
		return nil, err
	}
	return c, nil
}

func (c *components) wirePostgres(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return err
	}
	c.postgres = pg

	authRepo := authpostgres.NewRepository(pg.DB, logger)
	ledgerRepo := ledgerpostgres.NewRepository(pg.DB, logger)
	questionRepo := questionpostgres.NewRepository(pg.DB, logger)
	notificationRepo := notificationpostgres.NewRepository(pg.DB, logger)

	if cfg.AutoMigrate {
		migrations := []interface {
			AutoMigrate(context.Context) error
		}{authRepo, ledgerRepo, questionRepo, notificationRepo}
		for _, repo := range migrations {
			if err := repo.AutoMigrate(ctx); err != nil {
				return fmt.Errorf("auto migrate: %w", err)
			}
		}
	}

	c.auth = authservice.NewModule(authservice.Dependencies{
		Users:       authRepo,
		Hasher:      security.BcryptHasher{},
		Tokens:      security.NewJWTIssuer(cfg.JWTSecret, cfg.JWTTTL, authpostgres.SystemClock{}),
		Clock:       authpostgres.SystemClock{},
		IDGen:       authpostgres.UUIDGenerator{},
		AdminEmails: cfg.AdminEmails,
		Logger:      logger,
	})
	c.ledger = voteledger.NewModule(voteledger.Dependencies{
		Posts:       ledgerRepo,
		Outbox:      ledgerRepo,
		Clock:       ledgerpostgres.SystemClock{},
		IDGen:       ledgerpostgres.UUIDGenerator{},
		Metrics:     c.metrics,
		MaxAttempts: cfg.LedgerMaxAttempts,
		RetryBase:   cfg.LedgerRetryBase,
		Logger:      logger,
	})
	c.questions = questionservice.NewModule(questionservice.Dependencies{
		Questions: questionRepo,
		Answers:   questionRepo,
		Tags:      questionRepo,
		Ledger:    bridge.Ledger{Module: c.ledger},
		Outbox:    questionRepo,
		Clock:     questionpostgres.SystemClock{},
		IDGen:     questionpostgres.UUIDGenerator{},
		Logger:    logger,
	})
	c.notifications = notificationservice.NewModule(notificationservice.Dependencies{
		Repository: notificationRepo,
		Directory:  bridge.Directory{Auth: c.auth.Service},
		Subscriber: c.bus,
		Clock:      notificationpostgres.SystemClock{},
		IDGen:      notificationpostgres.UUIDGenerator{},
		Logger:     logger,
	})

	c.ledgerRelay = ledgerworkers.OutboxRelay{
		Outbox:    ledgerRepo,
		Publisher: c.bus,
		Clock:     ledgerpostgres.SystemClock{},
		BatchSize: relayBatchSize,
		Logger:    logger,
	}
	c.questionRelay = questionworkers.OutboxRelay{
		Outbox:    questionRepo,
		Publisher: c.bus,
		Clock:     questionpostgres.SystemClock{},
		BatchSize: relayBatchSize,
		Logger:    logger,
	}
	return nil
}

func (c *components) wireMemory(cfg config.Config, logger *slog.Logger) {
	authStore := authmemory.NewStore()
	ledgerStore := ledgermemory.NewStore(nil)
	questionStore := questionmemory.NewStore()
	notificationStore := notificationmemory.NewStore()

	c.auth = authservice.NewModule(authservice.Dependencies{
		Users:       authStore,
		Hasher:      security.BcryptHasher{},
		Tokens:      security.NewJWTIssuer(cfg.JWTSecret, cfg.JWTTTL, authStore),
		Clock:       authStore,
		IDGen:       authStore,
		AdminEmails: cfg.AdminEmails,
		Logger:      logger,
	})
	c.auth.Store = authStore

	c.ledger = voteledger.NewModule(voteledger.Dependencies{
		Posts:       ledgerStore,
		Outbox:      ledgerStore,
		Clock:       ledgerStore,
		IDGen:       ledgerStore,
		Metrics:     c.metrics,
		MaxAttempts: cfg.LedgerMaxAttempts,
		RetryBase:   cfg.LedgerRetryBase,
		Logger:      logger,
	})
	c.ledger.Store = ledgerStore

	c.questions = questionservice.NewModule(questionservice.Dependencies{
		Questions: questionStore,
		Answers:   questionStore,
		Tags:      questionStore,
		Ledger:    bridge.Ledger{Module: c.ledger},
		Outbox:    questionStore,
		Clock:     questionStore,
		IDGen:     questionStore,
		Logger:    logger,
	})
	c.questions.Store = questionStore

	c.notifications = notificationservice.NewModule(notificationservice.Dependencies{
		Repository: notificationStore,
		Directory:  bridge.Directory{Auth: c.auth.Service},
		Subscriber: c.bus,
		Clock:      notificationStore,
		IDGen:      notificationStore,
		Logger:     logger,
	})
	c.notifications.Store = notificationStore

	c.ledgerRelay = ledgerworkers.OutboxRelay{
		Outbox:    ledgerStore,
		Publisher: c.bus,
		Clock:     ledgerStore,
		BatchSize: relayBatchSize,
		Logger:    logger,
	}
	c.questionRelay = questionworkers.OutboxRelay{
		Outbox:    questionStore,
		Publisher: c.bus,
		Clock:     questionStore,
		BatchSize: relayBatchSize,
		Logger:    logger,
	}
}

func (c *components) close() error {
	var firstErr error
	if c.nats != nil {
		if err := c.nats.Close(); err != nil {
			firstErr = err
		}
	}
	if c.postgres != nil {
		if err := c.postgres.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
