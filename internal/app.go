package internal

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"imobiliaria-sync/internal/adapters/feedfetcher"
	logger_adapter "imobiliaria-sync/internal/adapters/logger"
	postgres_adapter "imobiliaria-sync/internal/adapters/postgres"
	rabbitmq_adapter "imobiliaria-sync/internal/adapters/rabbitmq"
	"imobiliaria-sync/internal/configs"
	"imobiliaria-sync/internal/constants"
	"imobiliaria-sync/internal/contextkeys"
	"imobiliaria-sync/internal/core/port"
	"imobiliaria-sync/internal/core/port/usecases"
	"imobiliaria-sync/internal/core/usecase"
	fluentlogger "imobiliaria-sync/pkg/fluent_logger"
	"imobiliaria-sync/pkg/postgres"
	"imobiliaria-sync/pkg/rabbitmq"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// App is the composition root: every dependency is created and wired here.
type App struct {
	config        *configs.AppConfig
	dbPool        *pgxpool.Pool
	eventProducer *rabbitmq.Publisher
	fluentClient  *fluent.Fluent
	logger        port.LoggerPort

	syncFeed usecases.SyncFeedUseCasePort
}

func NewApp() (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	// --- 1. Loggers ---
	var activeLoggers []port.LoggerPort

	slogCfg := logger_adapter.SlogConfig{
		Level:    parseLogLevel(appConfig.StdoutLogger.Level),
		IsJSON:   false,
		UseColor: true,
	}
	stdoutLogger := logger_adapter.NewSlogAdapter(slogCfg)
	activeLoggers = append(activeLoggers, stdoutLogger)

	var fluentClient *fluent.Fluent
	if appConfig.FluentBit.Enabled {
		fluentClient, err = fluentlogger.NewClient(fluentlogger.Config{
			Host:      appConfig.FluentBit.Host,
			Port:      appConfig.FluentBit.Port,
			TagPrefix: appConfig.AppName,
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return nil, fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(fluentClient, parseLogLevel(appConfig.FluentBit.Level))
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit adapter", err, nil)
			fluentClient.Close()
			return nil, err
		}
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	multiLogger, err := logger_adapter.NewMultiloggerAdapter(activeLoggers...)
	if err != nil {
		return nil, fmt.Errorf("failed to create multi-logger: %w", err)
	}

	baseLogger := multiLogger.WithFields(port.Fields{
		"service_name": appConfig.AppName,
	})

	appLogger := baseLogger.WithFields(port.Fields{"component": "app"})
	appLogger.Info("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers), "fluent_enabled": appConfig.FluentBit.Enabled,
	})

	// --- 2. Low-level dependencies ---
	dbPool, err := postgres.NewClient(context.Background(), postgres.Config{DatabaseURL: appConfig.Database.URL})
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", err, nil)
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	appLogger.Info("Successfully connected to PostgreSQL pool!", nil)

	var eventProducer *rabbitmq.Publisher
	var runReporter port.RunReportQueuePort
	if appConfig.RabbitMQ.Enabled {
		eventProducer, err = rabbitmq.NewPublisher(rabbitmq.PublisherConfig{
			URL:             appConfig.RabbitMQ.URL,
			ExchangeName:    constants.ReportsExchangeName,
			ExchangeType:    constants.ReportsExchangeType,
			DurableExchange: true,
		})
		if err != nil {
			appLogger.Error("Failed to create event producer", err, port.Fields{"url": appConfig.RabbitMQ.URL})
			dbPool.Close()
			return nil, fmt.Errorf("failed to create event producer: %w", err)
		}
		appLogger.Info("RabbitMQ Event Producer initialized.", nil)

		runReporter, err = rabbitmq_adapter.NewRunReporterAdapter(eventProducer, constants.RoutingKeyRunReport)
		if err != nil {
			eventProducer.Close()
			dbPool.Close()
			return nil, err
		}
	}

	// --- 3. Outgoing adapters ---
	feedAdapter, err := feedfetcher.NewFeedFetcherAdapter(feedfetcher.FetcherConfig{
		FeedURL:      appConfig.Feed.URL,
		DefaultState: appConfig.Feed.DefaultState,
		Timeout:      appConfig.Feed.Timeout,
		MaxAttempts:  appConfig.Feed.Retries,
		BaseDelay:    appConfig.Feed.RetryBaseDelay,
	})
	if err != nil {
		appLogger.Error("Failed to create Feed Fetcher Adapter", err, nil)
		if eventProducer != nil {
			eventProducer.Close()
		}
		dbPool.Close()
		return nil, fmt.Errorf("failed to initialize feed fetcher: %w", err)
	}
	appLogger.Info("Feed Fetcher Adapter initialized.", nil)

	listingCache := postgres_adapter.NewPostgresListingCacheAdapter(dbPool)
	runLog := postgres_adapter.NewPostgresRunLogAdapter(dbPool)
	appLogger.Info("All outgoing adapters initialized.", nil)

	// --- 4. Use cases ---
	syncFeed := usecase.NewSyncFeedUseCase(feedAdapter, listingCache, runLog, runReporter, usecase.SyncConfig{
		Provider:             appConfig.Feed.Provider,
		SnapshotPageSize:     appConfig.Sync.SnapshotPageSize,
		WriteBatchSize:       appConfig.Sync.WriteBatchSize,
		WriteConcurrency:     appConfig.Sync.WriteConcurrency,
		DescriptionHashLimit: appConfig.Sync.DescriptionHashLimit,
	})
	appLogger.Info("All use cases initialized.", nil)

	return &App{
		config:        appConfig,
		dbPool:        dbPool,
		eventProducer: eventProducer,
		fluentClient:  fluentClient,
		logger:        appLogger,
		syncFeed:      syncFeed,
	}, nil
}

// Run executes one synchronization and shuts everything down. SIGINT and
// SIGTERM cancel the run context.
func (a *App) Run() error {
	appCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defer func() {
		a.logger.Info("Shutdown sequence initiated...", nil)

		if a.eventProducer != nil {
			if err := a.eventProducer.Close(); err != nil {
				a.logger.Error("Error closing event producer", err, nil)
			}
		}

		if a.dbPool != nil {
			a.dbPool.Close()
			a.logger.Info("PostgreSQL pool closed.", nil)
		}

		a.logger.Info("Application shut down gracefully.", nil)

		if a.fluentClient != nil {
			if err := a.fluentClient.Close(); err != nil {
				log.Printf("App: Error closing fluent client: %v\n", err)
			}
		}
	}()

	a.logger.Info("Application is starting...", nil)

	runCtx := contextkeys.ContextWithLogger(appCtx, a.logger)
	runCtx = contextkeys.ContextWithTraceID(runCtx, uuid.NewString())

	summary, err := a.syncFeed.Execute(runCtx)
	if err != nil {
		a.logger.Error("Synchronization run failed", err, nil)
		return err
	}

	a.logger.Info("Synchronization run complete", port.Fields{
		"run_id":      summary.RunID.String(),
		"total_feed":  summary.TotalFeed,
		"new":         summary.New,
		"updated":     summary.Updated,
		"reactivated": summary.Reactivated,
		"unchanged":   summary.Unchanged,
		"retired":     summary.Retired,
		"duplicates":  summary.Duplicates,
		"errors":      summary.Errors,
	})
	return nil
}

func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		log.Printf("Warning: Unknown log level '%s'. Defaulting to 'info'.", levelStr)
		return slog.LevelInfo
	}
}
