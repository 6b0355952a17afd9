package domain

import (
	"strings"
)

// ContractKind is the semantic classification of an on-chain contract.
type ContractKind string

const (
	KindUnknown       ContractKind = "unknown"
	KindNFT           ContractKind = "arc72"
	KindFungible      ContractKind = "arc200"
	KindMarketplace   ContractKind = "mp"
	KindLiquidityPool ContractKind = "lpt"
)

// IsValidKind reports whether k is one of the known contract kinds.
func IsValidKind(k ContractKind) bool {
	switch k {
	case KindUnknown, KindNFT, KindFungible, KindMarketplace, KindLiquidityPool:
		return true
	}
	return false
}

// TransferEvent is a decoded arc72_Transfer or arc200_Transfer event.
// TokenID carries the uint256 token identifier for NFT contracts and Amount
// carries the transferred quantity for fungible contracts; both are decimal
// strings since the values exceed uint64.
type TransferEvent struct {
	TxID      string
	Round     uint64
	Timestamp uint64
	From      string
	To        string
	TokenID   string
	Amount    string
}

// IsMint reports whether the transfer originates from the zero address.
func (e *TransferEvent) IsMint() bool {
	return e.From == ZeroAddress
}

// ApprovalEvent is a decoded arc72_Approval or arc200_Approval event.
// For NFT contracts TokenID identifies the approved token; for fungible
// contracts Owner/Spender/Amount describe the allowance.
type ApprovalEvent struct {
	TxID      string
	Round     uint64
	Timestamp uint64
	Owner     string
	Spender   string
	TokenID   string
	Amount    string
}

// ListingEvent is a decoded marketplace e_offer_ListEvent.
type ListingEvent struct {
	TxID      string
	Round     uint64
	Timestamp uint64
	ListingID uint64
	// ContractID references the listed token's contract, not the marketplace.
	ContractID uint64
	TokenID    string
	Offerer    string
	Price      ListPrice
}

// ListingTerminalEvent is a decoded e_offer_AcceptEvent or
// e_offer_DeleteListingEvent; both carry only the listing reference.
type ListingTerminalEvent struct {
	TxID      string
	Round     uint64
	Timestamp uint64
	ListingID uint64
}

// ContractSyncedEvent announces that a contract's window has been applied
// and its watermark committed.
type ContractSyncedEvent struct {
	ContractID uint64       `json:"contract_id"`
	Kind       ContractKind `json:"kind"`
	Round      uint64       `json:"round"`
}

// TrimNull strips trailing and embedded NUL bytes from chain-sourced strings.
// ABI byte[N] returns are zero padded and must never be persisted as-is.
func TrimNull(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}
