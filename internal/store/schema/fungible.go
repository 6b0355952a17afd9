package schema

import "time"

// FungibleToken represents the fungible_tokens table - one row per ARC-200
// contract. Name, symbol and decimals are immutable by contract design but
// are re-fetched defensively on each sync.
type FungibleToken struct {
	// ContractID is the on-chain application ID, the natural key
	ContractID uint64 `gorm:"column:contract_id;primaryKey;autoIncrement:false"`
	// Name is the arc200_name, null bytes stripped
	Name string `gorm:"column:name;not null;type:text"`
	// Symbol is the arc200_symbol, null bytes stripped
	Symbol string `gorm:"column:symbol;not null;type:text"`
	// Decimals is the arc200_decimals
	Decimals uint8 `gorm:"column:decimals;not null"`
	// TotalSupply is refreshed from authoritative state on every sync
	TotalSupply string `gorm:"column:total_supply;not null;type:numeric(78,0);default:0"`
	// CreateRound is the round the contract was deployed in
	CreateRound uint64 `gorm:"column:create_round;not null"`
	// Creator is the deploying account address
	Creator string `gorm:"column:creator;not null;type:text"`
	// CreatedAt is the timestamp when this record was first indexed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the FungibleToken model
func (FungibleToken) TableName() string {
	return "fungible_tokens"
}

// FungibleTransfer is an append-only history row mirroring one
// arc200_Transfer event, keyed by transaction ID.
type FungibleTransfer struct {
	TxID       string    `gorm:"column:tx_id;primaryKey;type:text"`
	ContractID uint64    `gorm:"column:contract_id;not null;index:idx_fungible_transfers_contract_round,priority:1"`
	Sender     string    `gorm:"column:sender;not null;type:text"`
	Receiver   string    `gorm:"column:receiver;not null;type:text"`
	Amount     string    `gorm:"column:amount;not null;type:numeric(78,0)"`
	Round      uint64    `gorm:"column:round;not null;index:idx_fungible_transfers_contract_round,priority:2"`
	Timestamp  uint64    `gorm:"column:timestamp;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the FungibleTransfer model
func (FungibleTransfer) TableName() string {
	return "fungible_transfers"
}
