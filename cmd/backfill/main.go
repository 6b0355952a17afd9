// Command backfill performs a one-shot full resync of a single NFT
// contract: tokens are re-read by enumeration index and the transfer
// history is replayed.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/nautilusoss/voi-indexer/internal/adapter"
	"github.com/nautilusoss/voi-indexer/internal/chain"
	"github.com/nautilusoss/voi-indexer/internal/config"
	"github.com/nautilusoss/voi-indexer/internal/indexer"
	"github.com/nautilusoss/voi-indexer/internal/logger"
	"github.com/nautilusoss/voi-indexer/internal/metadata"
	"github.com/nautilusoss/voi-indexer/internal/ratelimit"
	"github.com/nautilusoss/voi-indexer/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
	contractID = flag.Uint64("contract", 0, "NFT contract to resync")
)

func main() {
	flag.Parse()

	if *contractID == 0 {
		panic("missing -contract flag")
	}

	cfg, err := config.LoadBackfillConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx := context.Background()

	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags: map[string]string{
			"service": "backfill",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	dataStore := store.NewPGStore(db)

	httpClient := ratelimit.WrapHTTPClient(
		adapter.NewHTTPClient(cfg.Chain.RequestTimeout),
		ratelimit.New(cfg.Chain.RequestsPerSecond, cfg.Chain.RequestBurst),
	)
	chainClient := chain.NewGatewayClient(cfg.Chain.GatewayURL, httpClient)
	fetcher := metadata.NewFetcher(httpClient, cfg.Chain.IPFSGateway)

	handler := indexer.NewNFTHandler(chainClient, dataStore, fetcher, indexer.NFTConfig{
		ResolverID:        cfg.Chain.ResolverID,
		SkipMintContracts: cfg.Chain.SkipMintContracts,
	})

	logger.InfoCtx(ctx, "Starting backfill", zap.Uint64("contract_id", *contractID))
	start := time.Now()

	if err := handler.Backfill(ctx, *contractID); err != nil {
		logger.Fatal("Backfill failed", zap.Error(err), zap.Uint64("contract_id", *contractID))
	}

	logger.InfoCtx(ctx, "Backfill complete",
		zap.Uint64("contract_id", *contractID),
		zap.Duration("elapsed", time.Since(start)))
}
