package app

import (
	"log"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"videosplit/internal/api/server"
	v1routes "videosplit/internal/api/v1/routes"
	"videosplit/internal/api/v1/services"
	"videosplit/internal/app/billing"
	"videosplit/internal/app/common"
	"videosplit/internal/app/encoder"
	"videosplit/internal/app/metrics"
	"videosplit/internal/app/quota"
	"videosplit/internal/app/ratelimit"
	"videosplit/internal/app/repository"
	"videosplit/internal/app/repository/pg"
	"videosplit/internal/app/repository/sqlite"
	"videosplit/internal/app/splitter"
	"videosplit/internal/app/storage"
	"videosplit/internal/app/sweeper"
	"videosplit/internal/app/transfer"
	"videosplit/internal/config"
)

// Application bundles the assembled server and background workers.
type Application struct {
	Server  *server.Server
	Sweeper *sweeper.Sweeper
	Config  *config.Config
	Logger  *slog.Logger
}

func provideConfig() *config.Config {
	if err := config.LoadEnv(); err != nil {
		log.Fatalf("Failed to load env file: %v\n", err)
	}
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %v\n", err)
	}
	return cfg
}

func provideSlogLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler
	if cfg.Environment == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(handler)
}

func provideZapLogger(cfg *config.Config) *zap.Logger {
	return common.MustNewLogger(cfg.Environment != "production")
}

// provideDatabase picks postgres when DATABASE_URL is set, sqlite otherwise.
// Both backends implement all three DAOs on one handle.
func provideDatabase(cfg *config.Config) (repository.JobDAO, repository.AccountDAO, repository.UsageDAO) {
	if cfg.DatabaseURL != "" {
		db, err := pg.NewPostgresDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to postgres: %v\n", err)
		}
		return db, db, db
	}
	db := sqlite.NewSQLiteDB(cfg.SQLitePath)
	return db, db, db
}

func provideObjectStore(cfg *config.Config) storage.ObjectStore {
	store, err := storage.NewMinioStore(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to connect to object storage: %v\n", err)
	}
	if store == nil {
		// Interface holding a typed nil would dodge the nil checks downstream.
		return nil
	}
	return store
}

func provideEncoder() encoder.Encoder {
	enc := encoder.NewFFmpegEncoder()
	if !enc.CheckInstalled() {
		log.Fatal("ffmpeg/ffprobe not found in PATH")
	}
	return enc
}

func provideCounterStore(cfg *config.Config, logger *slog.Logger) ratelimit.CounterStore {
	store, err := ratelimit.NewRedisCounterStore(cfg.RedisURL, cfg.RedisKeyPrefix)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v\n", err)
	}
	if store == nil {
		logger.Warn("redis not configured, rate limiting disabled")
		return nil
	}
	return store
}

// assemble wires the object graph by hand; the wire-generated initializer
// delegates here so both construction paths stay in sync.
func assemble(cfg *config.Config) *Application {
	logger := provideSlogLogger(cfg)
	zapLogger := provideZapLogger(cfg)

	jobs, accounts, usage := provideDatabase(cfg)
	store := provideObjectStore(cfg)
	enc := provideEncoder()
	counters := provideCounterStore(cfg, logger)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	ledger := quota.NewLedger(accounts)
	limiter := ratelimit.NewLimiter(counters, m, logger)
	orchestrator := splitter.NewOrchestrator(jobs, usage, ledger, enc, store, cfg, m, logger)
	negotiator := transfer.NewNegotiator(jobs, store, cfg, logger)
	sw := sweeper.NewSweeper(jobs, store, cfg, m, zapLogger)
	billingProcessor := billing.NewProcessor(accounts, logger)

	container := &v1routes.ServiceContainer{
		Accounts:     accounts,
		Orchestrator: orchestrator,
		Negotiator:   negotiator,
		Limiter:      limiter,
		Billing:      billingProcessor,
		JobService:   services.NewJobService(jobs, store, cfg, logger),
		UsageService: services.NewUsageService(usage, logger),
		Config:       cfg,
		Logger:       logger,
	}

	srv := server.NewServer(server.Config{
		Host:        cfg.Host,
		Port:        cfg.Port,
		Environment: cfg.Environment,
	}, container, registry, logger)

	return &Application{
		Server:  srv,
		Sweeper: sw,
		Config:  cfg,
		Logger:  logger,
	}
}
