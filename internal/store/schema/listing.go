package schema

import "time"

// OfferListing represents the offer_listings table - one row per marketplace
// listing, keyed by (marketplace contract, listing ID).
//
// Lifecycle: a listing is open until exactly one of AcceptTxID or DeleteTxID
// is set; the two terminal markers are mutually exclusive and are never
// cleared or overwritten once set.
type OfferListing struct {
	// MpContractID is the marketplace contract the listing lives in
	MpContractID uint64 `gorm:"column:mp_contract_id;primaryKey;autoIncrement:false"`
	// MpListingID is the listing identifier within the marketplace
	MpListingID uint64 `gorm:"column:mp_listing_id;primaryKey;autoIncrement:false"`
	// TxID is the transaction that created the listing
	TxID string `gorm:"column:tx_id;not null;type:text"`
	// ContractID references the listed token's contract
	ContractID uint64 `gorm:"column:contract_id;not null;index:idx_offer_listings_token,priority:1"`
	// TokenID is the listed token
	TokenID string `gorm:"column:token_id;not null;type:numeric(78,0);index:idx_offer_listings_token,priority:2"`
	// Offerer is the listing account
	Offerer string `gorm:"column:offerer;not null;type:text"`
	// Currency is 0 for the native token, otherwise the ARC-200 contract ID
	Currency uint64 `gorm:"column:currency;not null;default:0"`
	// Price is the asking price in base units of Currency
	Price string `gorm:"column:price;not null;type:numeric(78,0)"`
	// CreateRound is the round the list event was emitted in
	CreateRound uint64 `gorm:"column:create_round;not null"`
	// CreateTimestamp is the block timestamp of the list event
	CreateTimestamp uint64 `gorm:"column:create_timestamp;not null"`
	// AcceptTxID is set when the listing was accepted; terminal
	AcceptTxID *string `gorm:"column:accept_tx_id;type:text"`
	// DeleteTxID is set when the listing was deleted; terminal
	DeleteTxID *string `gorm:"column:delete_tx_id;type:text"`
	// CreatedAt is the timestamp when this record was first indexed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the OfferListing model
func (OfferListing) TableName() string {
	return "offer_listings"
}

// Terminal reports whether the listing has reached a terminal state.
func (l *OfferListing) Terminal() bool {
	return l.AcceptTxID != nil || l.DeleteTxID != nil
}

// OfferAccept is the append-only record of a listing acceptance.
type OfferAccept struct {
	TxID         string    `gorm:"column:tx_id;primaryKey;type:text"`
	MpContractID uint64    `gorm:"column:mp_contract_id;not null;index:idx_offer_accepts_listing,priority:1"`
	MpListingID  uint64    `gorm:"column:mp_listing_id;not null;index:idx_offer_accepts_listing,priority:2"`
	ContractID   uint64    `gorm:"column:contract_id;not null"`
	TokenID      string    `gorm:"column:token_id;not null;type:numeric(78,0)"`
	Round        uint64    `gorm:"column:round;not null"`
	Timestamp    uint64    `gorm:"column:timestamp;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the OfferAccept model
func (OfferAccept) TableName() string {
	return "offer_accepts"
}

// OfferDelete is the append-only record of a listing deletion.
type OfferDelete struct {
	TxID         string    `gorm:"column:tx_id;primaryKey;type:text"`
	MpContractID uint64    `gorm:"column:mp_contract_id;not null;index:idx_offer_deletes_listing,priority:1"`
	MpListingID  uint64    `gorm:"column:mp_listing_id;not null;index:idx_offer_deletes_listing,priority:2"`
	ContractID   uint64    `gorm:"column:contract_id;not null"`
	TokenID      string    `gorm:"column:token_id;not null;type:numeric(78,0)"`
	Round        uint64    `gorm:"column:round;not null"`
	Timestamp    uint64    `gorm:"column:timestamp;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the OfferDelete model
func (OfferDelete) TableName() string {
	return "offer_deletes"
}
