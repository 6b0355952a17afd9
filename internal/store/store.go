package store

import (
	"context"

	"github.com/nautilusoss/voi-indexer/internal/store/schema"
)

// Store is the materialized snapshot: idempotent upserts keyed by natural
// keys, insert-if-absent history rows, and per-contract sync watermarks.
// Every operation is safe to repeat with identical input.
type Store interface {
	// UpsertCollection inserts or updates a collection keyed by contract ID
	UpsertCollection(ctx context.Context, collection *schema.Collection) error
	// UpdateCollectionTotalSupply refreshes a collection's total supply
	UpdateCollectionTotalSupply(ctx context.Context, contractID uint64, totalSupply string) error

	// UpsertToken inserts or updates a token keyed by (contract, token)
	UpsertToken(ctx context.Context, token *schema.Token) error
	// UpdateTokenOwner sets a token's owner and resets its approval;
	// a no-op when the token has not been observed yet
	UpdateTokenOwner(ctx context.Context, contractID uint64, tokenID, owner, approved string) error
	// UpdateTokenApproved sets a token's approved spender
	UpdateTokenApproved(ctx context.Context, contractID uint64, tokenID, approved string) error
	// GetToken retrieves a token, nil when absent
	GetToken(ctx context.Context, contractID uint64, tokenID string) (*schema.Token, error)

	// InsertTokenTransfer appends a transfer history row; duplicate
	// transaction IDs are no-ops
	InsertTokenTransfer(ctx context.Context, transfer *schema.TokenTransfer) error
	// InsertTokenApproval appends an approval history row; duplicate
	// transaction IDs are no-ops
	InsertTokenApproval(ctx context.Context, approval *schema.TokenApproval) error

	// UpsertFungibleToken inserts or updates a fungible contract record
	UpsertFungibleToken(ctx context.Context, token *schema.FungibleToken) error
	// UpsertAccountBalance inserts or updates a holder balance
	UpsertAccountBalance(ctx context.Context, balance *schema.AccountBalance) error
	// InsertFungibleTransfer appends a transfer history row; duplicate
	// transaction IDs are no-ops
	InsertFungibleTransfer(ctx context.Context, transfer *schema.FungibleTransfer) error

	// UpsertOfferListing inserts or refreshes a listing in open state,
	// preserving existing terminal markers
	UpsertOfferListing(ctx context.Context, listing *schema.OfferListing) error
	// GetOfferListing retrieves a listing, nil when absent
	GetOfferListing(ctx context.Context, mpContractID, mpListingID uint64) (*schema.OfferListing, error)
	// AcceptOfferListing appends the accept record and sets the listing's
	// accept marker; the marker is only written when the listing is not
	// already terminal
	AcceptOfferListing(ctx context.Context, accept *schema.OfferAccept) error
	// DeleteOfferListing appends the delete record and sets the listing's
	// delete marker; the marker is only written when the listing is not
	// already terminal
	DeleteOfferListing(ctx context.Context, del *schema.OfferDelete) error

	// GetSyncWatermark returns the last fully processed round, 0 when the
	// contract has never been synced
	GetSyncWatermark(ctx context.Context, contractID uint64) (uint64, error)
	// SetSyncWatermark advances the watermark; a lower round than the stored
	// one is ignored to keep the watermark monotonic
	SetSyncWatermark(ctx context.Context, contractID uint64, round uint64) error

	// TrackContract registers a contract for indexing
	TrackContract(ctx context.Context, contract *schema.TrackedContract) error
	// ListTrackedContracts returns all registered contracts
	ListTrackedContracts(ctx context.Context) ([]schema.TrackedContract, error)
}
