package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/nautilusoss/voi-indexer/internal/adapter"
	"github.com/nautilusoss/voi-indexer/internal/chain"
	"github.com/nautilusoss/voi-indexer/internal/classifier"
	"github.com/nautilusoss/voi-indexer/internal/config"
	"github.com/nautilusoss/voi-indexer/internal/domain"
	"github.com/nautilusoss/voi-indexer/internal/indexer"
	"github.com/nautilusoss/voi-indexer/internal/logger"
	"github.com/nautilusoss/voi-indexer/internal/messaging"
	"github.com/nautilusoss/voi-indexer/internal/metadata"
	"github.com/nautilusoss/voi-indexer/internal/ratelimit"
	"github.com/nautilusoss/voi-indexer/internal/store"
	syncer "github.com/nautilusoss/voi-indexer/internal/sync"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadIndexerConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags: map[string]string{
			"service": "indexer",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting indexer")

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := store.ConfigureConnectionPool(db,
		cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns,
		cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.Fatal("Failed to configure connection pool", zap.Error(err))
	}
	dataStore := store.NewPGStore(db)
	logger.InfoCtx(ctx, "Connected to database")

	clockAdapter := adapter.NewClock()
	httpClient := ratelimit.WrapHTTPClient(
		adapter.NewHTTPClient(cfg.Chain.RequestTimeout),
		ratelimit.New(cfg.Chain.RequestsPerSecond, cfg.Chain.RequestBurst),
	)

	chainClient := chain.NewGatewayClient(cfg.Chain.GatewayURL, httpClient)
	fetcher := metadata.NewFetcher(httpClient, cfg.Chain.IPFSGateway)
	contractClassifier := classifier.New(chainClient)

	var publisher messaging.Publisher = messaging.NopPublisher{}
	if cfg.NATS.URL != "" {
		publisher, err = messaging.NewJetStreamPublisher(ctx, messaging.JetStreamConfig{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			SubjectPrefix:  cfg.NATS.SubjectPrefix,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
		})
		if err != nil {
			logger.Fatal("Failed to create NATS publisher", zap.Error(err), zap.String("url", cfg.NATS.URL))
		}
		logger.InfoCtx(ctx, "Connected to NATS JetStream")
	}
	defer publisher.Close()

	coordinator := syncer.NewCoordinator(
		chainClient,
		contractClassifier,
		dataStore,
		publisher,
		clockAdapter,
		syncer.Config{
			WorkerPoolSize:       cfg.Worker.PoolSize,
			WorkerQueueSize:      cfg.Worker.QueueSize,
			PollInterval:         cfg.Sync.PollInterval,
			RetryInitialInterval: cfg.Sync.RetryInitialInterval,
			RetryMaxInterval:     cfg.Sync.RetryMaxInterval,
			RetryMaxElapsedTime:  cfg.Sync.RetryMaxElapsedTime,
		},
		indexer.NewNFTHandler(chainClient, dataStore, fetcher, indexer.NFTConfig{
			ResolverID:        cfg.Chain.ResolverID,
			SkipMintContracts: cfg.Chain.SkipMintContracts,
		}),
		indexer.NewFungibleHandler(chainClient, dataStore),
		indexer.NewMarketHandler(chainClient, dataStore),
	)

	// Seed the tracked set from config and restore cached classifications.
	for _, contractID := range cfg.Chain.Contracts {
		if err := coordinator.Track(ctx, contractID); err != nil {
			logger.Fatal("Failed to track contract", zap.Error(err), zap.Uint64("contract_id", contractID))
		}
	}
	tracked, err := dataStore.ListTrackedContracts(ctx)
	if err != nil {
		logger.Fatal("Failed to list tracked contracts", zap.Error(err))
	}
	for _, contract := range tracked {
		contractClassifier.Prime(contract.ContractID, domain.ContractKind(contract.Kind))
	}
	logger.InfoCtx(ctx, "Tracking contracts", zap.Int("count", len(tracked)))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	if err := coordinator.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("Coordinator stopped", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Indexer stopped")
}
