// Package sync drives the event handlers across tracked contracts and owns
// watermark commitment. Each contract's window is a sequential unit of
// work; distinct contracts are advanced concurrently through a worker pool.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/nautilusoss/voi-indexer/internal/adapter"
	"github.com/nautilusoss/voi-indexer/internal/chain"
	"github.com/nautilusoss/voi-indexer/internal/classifier"
	"github.com/nautilusoss/voi-indexer/internal/domain"
	"github.com/nautilusoss/voi-indexer/internal/indexer"
	"github.com/nautilusoss/voi-indexer/internal/logger"
	"github.com/nautilusoss/voi-indexer/internal/messaging"
	"github.com/nautilusoss/voi-indexer/internal/store"
	"github.com/nautilusoss/voi-indexer/internal/store/schema"
)

const (
	defaultWorkerPoolSize  = 4
	defaultWorkerQueueSize = 256
	defaultPollInterval    = 15 * time.Second
)

// Config tunes the coordinator.
type Config struct {
	// WorkerPoolSize bounds how many contracts advance concurrently
	WorkerPoolSize int
	// WorkerQueueSize bounds the pending task queue
	WorkerQueueSize int
	// PollInterval is the delay between poll passes in Run
	PollInterval time.Duration
	// RetryInitialInterval seeds the window retry backoff
	RetryInitialInterval time.Duration
	// RetryMaxInterval caps the backoff delay
	RetryMaxInterval time.Duration
	// RetryMaxElapsedTime bounds total retrying before a window is
	// declared fatal for this pass
	RetryMaxElapsedTime time.Duration
}

// Coordinator advances tracked contracts to the chain's current round.
type Coordinator struct {
	client     chain.Client
	classifier *classifier.Classifier
	store      store.Store
	publisher  messaging.Publisher
	clock      adapter.Clock
	handlers   map[domain.ContractKind]indexer.Handler
	config     Config
}

// NewCoordinator wires the coordinator. Contract kinds without a handler,
// such as liquidity pools, are tracked but not indexed.
func NewCoordinator(
	client chain.Client,
	cls *classifier.Classifier,
	st store.Store,
	publisher messaging.Publisher,
	clock adapter.Clock,
	cfg Config,
	handlers ...indexer.Handler,
) *Coordinator {
	if cfg.WorkerPoolSize == 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}
	if cfg.WorkerQueueSize == 0 {
		cfg.WorkerQueueSize = defaultWorkerQueueSize
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.RetryInitialInterval == 0 {
		cfg.RetryInitialInterval = 2 * time.Second
	}
	if cfg.RetryMaxInterval == 0 {
		cfg.RetryMaxInterval = 30 * time.Second
	}
	if cfg.RetryMaxElapsedTime == 0 {
		cfg.RetryMaxElapsedTime = 5 * time.Minute
	}

	byKind := make(map[domain.ContractKind]indexer.Handler, len(handlers))
	for _, h := range handlers {
		byKind[h.Kind()] = h
	}

	return &Coordinator{
		client:     client,
		classifier: cls,
		store:      st,
		publisher:  publisher,
		clock:      clock,
		handlers:   byKind,
		config:     cfg,
	}
}

// Track registers a contract for indexing. The kind is left for the
// classifier to determine on the first advance.
func (c *Coordinator) Track(ctx context.Context, contractID uint64) error {
	return c.store.TrackContract(ctx, &schema.TrackedContract{
		ContractID: contractID,
		Kind:       string(domain.KindUnknown),
	})
}

// Advance processes the contract's window up to targetRound and commits the
// watermark only after the whole window succeeded. The boundary round is
// re-read on the next advance, which is safe because every handler is
// idempotent.
func (c *Coordinator) Advance(ctx context.Context, contractID, targetRound uint64) error {
	watermark, err := c.store.GetSyncWatermark(ctx, contractID)
	if err != nil {
		return err
	}
	if targetRound <= watermark {
		return nil
	}

	kind := c.classifier.Classify(ctx, contractID)
	if kind == domain.KindUnknown {
		logger.InfoCtx(ctx, "contract kind unknown, deferring",
			zap.Uint64("contract_id", contractID))
		return nil
	}

	if err := c.store.TrackContract(ctx, &schema.TrackedContract{
		ContractID: contractID,
		Kind:       string(kind),
	}); err != nil {
		return err
	}

	handler, ok := c.handlers[kind]
	if !ok {
		logger.InfoCtx(ctx, "no handler for contract kind, skipping",
			zap.Uint64("contract_id", contractID),
			zap.String("kind", string(kind)))
		return nil
	}

	if err := c.processWithRetry(ctx, handler, contractID, watermark, targetRound); err != nil {
		return fmt.Errorf("window [%d, %d] of contract %d failed: %w", watermark, targetRound, contractID, err)
	}

	if err := c.store.SetSyncWatermark(ctx, contractID, targetRound); err != nil {
		return err
	}

	c.publishSynced(ctx, contractID, kind, targetRound)
	return nil
}

// processWithRetry runs the handler's window under the retry policy.
// Every retry replays the full window from scratch.
func (c *Coordinator) processWithRetry(ctx context.Context, handler indexer.Handler, contractID, minRound, maxRound uint64) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.config.RetryInitialInterval
	b.MaxInterval = c.config.RetryMaxInterval
	b.MaxElapsedTime = c.config.RetryMaxElapsedTime

	operation := func() error {
		return handler.Process(ctx, contractID, minRound, maxRound)
	}
	notify := func(err error, next time.Duration) {
		logger.WarnCtx(ctx, "window processing failed, retrying",
			zap.Error(err),
			zap.Uint64("contract_id", contractID),
			zap.Uint64("min_round", minRound),
			zap.Uint64("max_round", maxRound),
			zap.Duration("next_attempt_in", next))
	}

	return backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify)
}

// publishSynced announces the committed window. Publication is best-effort:
// the watermark is already committed and the event stream carries no state.
func (c *Coordinator) publishSynced(ctx context.Context, contractID uint64, kind domain.ContractKind, round uint64) {
	if c.publisher == nil {
		return
	}
	err := c.publisher.PublishContractSynced(ctx, &domain.ContractSyncedEvent{
		ContractID: contractID,
		Kind:       kind,
		Round:      round,
	})
	if err != nil {
		logger.WarnCtx(ctx, "failed to publish synced event",
			zap.Error(err),
			zap.Uint64("contract_id", contractID),
			zap.Uint64("round", round))
	}
}

// Run polls the chain and advances every tracked contract until the context
// is cancelled.
func (c *Coordinator) Run(ctx context.Context) error {
	pool := pond.NewPool(
		c.config.WorkerPoolSize,
		pond.WithQueueSize(c.config.WorkerQueueSize),
		pond.WithContext(ctx),
	)
	defer pool.StopAndWait()

	logger.InfoCtx(ctx, "coordinator started",
		zap.Int("workers", c.config.WorkerPoolSize),
		zap.Duration("poll_interval", c.config.PollInterval))

	for {
		c.runPass(ctx, pool)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.clock.After(c.config.PollInterval):
		}
	}
}

// runPass advances all tracked contracts to the current round, waiting for
// the whole pass to finish before returning.
func (c *Coordinator) runPass(ctx context.Context, pool pond.Pool) {
	targetRound, err := c.client.CurrentRound(ctx)
	if err != nil {
		logger.WarnCtx(ctx, "failed to read current round", zap.Error(err))
		return
	}

	contracts, err := c.store.ListTrackedContracts(ctx)
	if err != nil {
		logger.ErrorCtx(ctx, err)
		return
	}

	group := pool.NewGroup()
	for _, contract := range contracts {
		contractID := contract.ContractID
		group.Submit(func() {
			if err := c.Advance(ctx, contractID, targetRound); err != nil {
				logger.ErrorCtx(ctx, err, zap.Uint64("contract_id", contractID))
			}
		})
	}
	if err := group.Wait(); err != nil {
		logger.ErrorCtx(ctx, err)
	}
}
