package control

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pressly/goose/v3"

	"github.com/r0zar/innkeeper/internal/core/config"
	"github.com/r0zar/innkeeper/internal/events"
	redisclient "github.com/r0zar/innkeeper/internal/infra/redis"
	"github.com/r0zar/innkeeper/internal/infra/stacks"
	"github.com/r0zar/innkeeper/internal/infra/storage"
	"github.com/r0zar/innkeeper/internal/infra/storage/memory"
	"github.com/r0zar/innkeeper/internal/infra/storage/postgres"
	"github.com/r0zar/innkeeper/internal/runner"
	"github.com/r0zar/innkeeper/internal/validation"
)

// Innkeeper is the main application struct that manages the validation
// service lifecycle.
type Innkeeper struct {
	cfg         *config.AppConfig
	runner      *runner.Runner
	opsServer   *OpsServer
	db          *postgres.DB
	redisClient *redisclient.Client
	emitter     events.Emitter
	log         *slog.Logger

	// exposed for the CLI subcommands
	Quests      storage.QuestRepository
	Validations storage.ValidationRepository
	Results     storage.ValidationResultRepository
}

// New creates an Innkeeper instance with all dependencies initialized.
func New(cfg *config.AppConfig) (*Innkeeper, error) {
	// 1. Initialize Storage
	var questRepo storage.QuestRepository
	var validationRepo storage.ValidationRepository
	var resultRepo storage.ValidationResultRepository
	var db *postgres.DB

	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}

		if err := goose.SetDialect("postgres"); err != nil {
			return nil, err
		}
		if err := goose.Up(db.DB.DB, "migrations"); err != nil {
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}

		questRepo = postgres.NewQuestRepo(db)
		validationRepo = postgres.NewValidationRepo(db)
		resultRepo = postgres.NewResultRepo(db)
		slog.Info("Using PostgreSQL storage")
	} else {
		store := memory.NewMemoryStorage()
		questRepo = memory.NewQuestRepo(store)
		validationRepo = memory.NewValidationRepo(store)
		resultRepo = memory.NewResultRepo(store)
		slog.Info("Using Memory storage")
	}

	// 2. Initialize the data client, with a Redis price cache when configured
	client := stacks.NewClient(cfg.API)
	var src validation.DataSource = client
	var redisClient *redisclient.Client
	if cfg.Redis.URL != "" {
		var err error
		redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("Failed to connect to Redis, price cache disabled", "error", err)
		} else {
			src = stacks.NewCachedClient(client, redisClient, cfg.Validation.PriceCacheTTL)
			slog.Info("Price cache enabled", "ttl", cfg.Validation.PriceCacheTTL)
		}
	}

	// 3. Initialize the outcome emitter
	var emitter events.Emitter = &events.LogEmitter{}
	if cfg.NATS.URL != "" {
		natsEmitter, err := events.NewNATSEmitter(cfg.NATS)
		if err != nil {
			slog.Warn("Failed to connect to NATS, falling back to log emitter", "error", err)
		} else {
			emitter = natsEmitter
			slog.Info("NATS emitter enabled", "url", cfg.NATS.URL)
		}
	}

	// 4. Initialize the runner
	runnerCfg := runner.Config{
		SweepInterval:   cfg.Validation.SweepInterval,
		SuccessInterval: cfg.Validation.SuccessInterval,
		ErrorInterval:   cfg.Validation.ErrorInterval,
		RecentSwapLimit: cfg.Validation.RecentSwapLimit,
	}
	run := runner.New(runnerCfg, src, questRepo, validationRepo, resultRepo, emitter)

	// 5. Initialize the ops server
	checks := map[string]HealthChecker{}
	if db != nil {
		checks["database"] = db.Health
	}
	opsServer := NewOpsServer(cfg.Server.Port, checks)

	return &Innkeeper{
		cfg:         cfg,
		runner:      run,
		opsServer:   opsServer,
		db:          db,
		redisClient: redisClient,
		emitter:     emitter,
		log:         slog.Default(),
		Quests:      questRepo,
		Validations: validationRepo,
		Results:     resultRepo,
	}, nil
}

// Start starts the ops server and the sweep loop.
func (k *Innkeeper) Start(ctx context.Context) error {
	go func() {
		if err := k.opsServer.Start(); err != nil && err != http.ErrServerClosed {
			k.log.Error("Ops server failed", "error", err)
		}
	}()

	if k.db != nil {
		k.db.StartMetricsCollector(ctx)
	}

	go func() {
		if err := k.runner.Run(ctx); err != nil {
			k.log.Error("Runner failed", "error", err)
		}
	}()

	return nil
}

// Sweep runs exactly one validation sweep.
func (k *Innkeeper) Sweep(ctx context.Context) error {
	return k.runner.Sweep(ctx)
}

// Stop stops the service.
func (k *Innkeeper) Stop(ctx context.Context) error {
	k.log.Info("Stopping Innkeeper...")

	if err := k.emitter.Close(); err != nil {
		k.log.Warn("Failed to close emitter", "error", err)
	}
	if k.redisClient != nil {
		if err := k.redisClient.Close(); err != nil {
			k.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if k.db != nil {
		if err := k.db.Close(); err != nil {
			k.log.Warn("Failed to close database", "error", err)
		}
	}

	return k.opsServer.Stop(ctx)
}
