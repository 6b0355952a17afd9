// Package classifier determines which contract family a deployed contract
// belongs to. Classification runs a fixed, ordered list of probes; the first
// probe a contract affirms decides its kind. A contract's kind is immutable
// on chain, so non-Unknown results are cached for the lifetime of the
// process.
package classifier

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/nautilusoss/voi-indexer/internal/chain"
	"github.com/nautilusoss/voi-indexer/internal/domain"
	"github.com/nautilusoss/voi-indexer/internal/logger"
)

// probeResult is the tri-state outcome of one capability probe.
type probeResult int

const (
	// probeDenied means the contract answered and is not this kind
	probeDenied probeResult = iota
	// probeAffirmed means the contract answered and is this kind
	probeAffirmed
	// probeIndeterminate means the probe could not be completed, folded
	// into denied so a flaky read never aborts the caller
	probeIndeterminate
)

// probe checks one capability and names the kind it affirms.
type probe struct {
	kind domain.ContractKind
	run  func(ctx context.Context, contractID uint64) probeResult
}

// Classifier assigns a ContractKind to contract IDs.
type Classifier struct {
	client chain.Client
	probes []probe

	mu    sync.RWMutex
	cache map[uint64]domain.ContractKind
}

// New creates a classifier backed by the given chain client.
func New(client chain.Client) *Classifier {
	c := &Classifier{
		client: client,
		cache:  make(map[uint64]domain.ContractKind),
	}
	c.probes = []probe{
		{kind: domain.KindNFT, run: c.probeNFT},
		{kind: domain.KindMarketplace, run: c.probeMarketplace},
		{kind: domain.KindLiquidityPool, run: c.probeLiquidityPool},
		{kind: domain.KindFungible, run: c.probeFungible},
	}
	return c
}

// Prime seeds the cache with a known classification, typically loaded from
// the tracked contracts table at startup. Unknown kinds are ignored.
func (c *Classifier) Prime(contractID uint64, kind domain.ContractKind) {
	if kind == domain.KindUnknown {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[contractID] = kind
}

// Classify determines the kind of a contract. Probes that cannot be
// completed count as denied, so classification degrades to Unknown instead
// of failing; Unknown results are not cached and the contract is probed
// again on the next call.
func (c *Classifier) Classify(ctx context.Context, contractID uint64) domain.ContractKind {
	c.mu.RLock()
	kind, ok := c.cache[contractID]
	c.mu.RUnlock()
	if ok {
		return kind
	}

	for _, p := range c.probes {
		switch p.run(ctx, contractID) {
		case probeAffirmed:
			c.mu.Lock()
			c.cache[contractID] = p.kind
			c.mu.Unlock()
			return p.kind
		case probeIndeterminate:
			logger.WarnCtx(ctx, "contract probe indeterminate, treating as denied",
				zap.Uint64("contract_id", contractID),
				zap.String("kind", string(p.kind)))
		}
	}

	return domain.KindUnknown
}

func (c *Classifier) probeNFT(ctx context.Context, contractID uint64) probeResult {
	return c.probeSelector(ctx, contractID, chain.SelectorNFT)
}

func (c *Classifier) probeMarketplace(ctx context.Context, contractID uint64) probeResult {
	return c.probeSelector(ctx, contractID, chain.SelectorMarketplace)
}

func (c *Classifier) probeSelector(ctx context.Context, contractID uint64, selector [4]byte) probeResult {
	supported, err := c.client.SupportsInterface(ctx, contractID, selector)
	if err != nil {
		return probeIndeterminate
	}
	if supported {
		return probeAffirmed
	}
	return probeDenied
}

// probeLiquidityPool runs before the plain fungible probe. Pool contracts
// expose the full fungible interface for their share token but carry a
// "ratio" key in global state and hold no external assets in escrow.
func (c *Classifier) probeLiquidityPool(ctx context.Context, contractID uint64) probeResult {
	if res := c.probeFungible(ctx, contractID); res != probeAffirmed {
		return res
	}

	info, err := c.client.ContractInfo(ctx, contractID)
	if err != nil {
		return probeIndeterminate
	}
	if _, ok := info.GlobalValue("ratio"); !ok {
		return probeDenied
	}

	assetCount, err := c.client.AccountAssetCount(ctx, contractID)
	if err != nil {
		return probeIndeterminate
	}
	if assetCount == 0 {
		return probeAffirmed
	}
	return probeDenied
}

// probeFungible affirms when arc200_name simulates successfully. There is
// no capability selector for this family.
func (c *Classifier) probeFungible(ctx context.Context, contractID uint64) probeResult {
	if _, err := c.client.FungibleName(ctx, contractID); err != nil {
		if chain.IsSimulationFailure(err) {
			return probeDenied
		}
		return probeIndeterminate
	}
	return probeAffirmed
}
