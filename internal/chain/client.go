package chain

import (
	"context"

	"github.com/nautilusoss/voi-indexer/internal/domain"
)

// Event names emitted by the supported contract families.
const (
	EventNFTTransfer      = "arc72_Transfer"
	EventNFTApproval      = "arc72_Approval"
	EventFungibleTransfer = "arc200_Transfer"
	EventFungibleApproval = "arc200_Approval"
	EventMarketList       = "e_offer_ListEvent"
	EventMarketAccept     = "e_offer_AcceptEvent"
	EventMarketDelete     = "e_offer_DeleteListingEvent"
)

// supportsInterface selectors published by the contract standards.
var (
	SelectorNFT         = [4]byte{0x4e, 0x22, 0xa3, 0xba}
	SelectorMarketplace = [4]byte{0xae, 0x4d, 0x14, 0xad}
)

// GlobalStateEntry is one decoded key/value pair of a contract's global state.
type GlobalStateEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ContractInfo describes a deployed contract.
type ContractInfo struct {
	ContractID     uint64             `json:"contract-id"`
	Creator        string             `json:"creator"`
	CreatedAtRound uint64             `json:"created-at-round"`
	GlobalState    []GlobalStateEntry `json:"global-state"`
}

// GlobalValue looks up a decoded global state key.
func (c *ContractInfo) GlobalValue(key string) (string, bool) {
	for _, entry := range c.GlobalState {
		if entry.Key == key {
			return entry.Value, true
		}
	}
	return "", false
}

// NFTEventLog holds the decoded event log of one NFT contract window.
type NFTEventLog struct {
	Transfers []domain.TransferEvent
	Approvals []domain.ApprovalEvent
}

// FungibleEventLog holds the decoded event log of one fungible contract window.
type FungibleEventLog struct {
	Transfers []domain.TransferEvent
	Approvals []domain.ApprovalEvent
}

// MarketEventLog holds the decoded event log of one marketplace window.
type MarketEventLog struct {
	Listings []domain.ListingEvent
	Accepts  []domain.ListingTerminalEvent
	Deletes  []domain.ListingTerminalEvent
}

// Client is the chain event source: round-windowed event logs plus
// authoritative read-only state. All reads are side-effect free.
type Client interface {
	// CurrentRound returns the latest finalized round
	CurrentRound(ctx context.Context) (uint64, error)

	// ContractInfo returns creator, creation round and decoded global state
	ContractInfo(ctx context.Context, contractID uint64) (*ContractInfo, error)

	// AccountAssetCount returns the number of external assets held by the
	// contract's escrow account
	AccountAssetCount(ctx context.Context, contractID uint64) (int, error)

	// SupportsInterface probes a capability selector, trying both the bool
	// and the byte return encodings seen in deployed contracts
	SupportsInterface(ctx context.Context, contractID uint64, selector [4]byte) (bool, error)

	// NFTEvents returns the decoded NFT event log for [minRound, maxRound]
	NFTEvents(ctx context.Context, contractID, minRound, maxRound uint64) (*NFTEventLog, error)
	// FungibleEvents returns the decoded fungible event log for [minRound, maxRound]
	FungibleEvents(ctx context.Context, contractID, minRound, maxRound uint64) (*FungibleEventLog, error)
	// MarketEvents returns the decoded marketplace event log for [minRound, maxRound]
	MarketEvents(ctx context.Context, contractID, minRound, maxRound uint64) (*MarketEventLog, error)

	// ARC-72 read-only state
	NFTTotalSupply(ctx context.Context, contractID uint64) (string, error)
	NFTOwnerOf(ctx context.Context, contractID uint64, tokenID string) (string, error)
	NFTGetApproved(ctx context.Context, contractID uint64, tokenID string) (string, error)
	NFTTokenURI(ctx context.Context, contractID uint64, tokenID string) (string, error)
	NFTTokenByIndex(ctx context.Context, contractID uint64, index uint64) (string, error)

	// ARC-200 read-only state
	FungibleName(ctx context.Context, contractID uint64) (string, error)
	FungibleSymbol(ctx context.Context, contractID uint64) (string, error)
	FungibleDecimals(ctx context.Context, contractID uint64) (uint8, error)
	FungibleTotalSupply(ctx context.Context, contractID uint64) (string, error)
	FungibleBalanceOf(ctx context.Context, contractID uint64, account string) (string, error)

	// ResolveName resolves a token's name through the auxiliary naming
	// contract identified by resolverID
	ResolveName(ctx context.Context, resolverID uint64, tokenID string) (string, error)
}
