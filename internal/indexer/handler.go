// Package indexer contains the per-kind event handlers. A handler applies
// one contract's round window to the materialized store. Handlers are
// idempotent: re-running a window produces the same stored state.
package indexer

import (
	"context"

	"github.com/nautilusoss/voi-indexer/internal/domain"
)

// Handler processes the event window [minRound, maxRound] for one contract.
//
// Per-item data failures (metadata, naming) are logged and degrade to safe
// defaults; store and transport failures are returned so the caller leaves
// the watermark unadvanced and retries the window.
type Handler interface {
	// Kind names the contract family this handler serves
	Kind() domain.ContractKind
	// Process applies the contract's events within the round window
	Process(ctx context.Context, contractID, minRound, maxRound uint64) error
}
