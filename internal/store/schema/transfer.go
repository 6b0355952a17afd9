package schema

import "time"

// TokenTransfer is an append-only history row mirroring one arc72_Transfer
// event. Rows are keyed by transaction ID and never mutated after insertion.
type TokenTransfer struct {
	// TxID is the emitting transaction, the dedup key
	TxID string `gorm:"column:tx_id;primaryKey;type:text"`
	// ContractID references the NFT contract
	ContractID uint64 `gorm:"column:contract_id;not null;index:idx_token_transfers_contract_round,priority:1"`
	// TokenID is the transferred token
	TokenID string `gorm:"column:token_id;not null;type:numeric(78,0)"`
	// FromAddress is the sender (zero address for mints)
	FromAddress string `gorm:"column:from_address;not null;type:text"`
	// ToAddress is the recipient
	ToAddress string `gorm:"column:to_address;not null;type:text"`
	// Round is the round the event was emitted in
	Round uint64 `gorm:"column:round;not null;index:idx_token_transfers_contract_round,priority:2"`
	// Timestamp is the block timestamp in unix seconds
	Timestamp uint64 `gorm:"column:timestamp;not null"`
	// CreatedAt is the timestamp when this record was first indexed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the TokenTransfer model
func (TokenTransfer) TableName() string {
	return "token_transfers"
}

// TokenApproval is an append-only history row mirroring one arc72_Approval
// event.
type TokenApproval struct {
	TxID       string    `gorm:"column:tx_id;primaryKey;type:text"`
	ContractID uint64    `gorm:"column:contract_id;not null;index:idx_token_approvals_contract"`
	TokenID    string    `gorm:"column:token_id;not null;type:numeric(78,0)"`
	Owner      string    `gorm:"column:owner;not null;type:text"`
	Spender    string    `gorm:"column:spender;not null;type:text"`
	Round      uint64    `gorm:"column:round;not null"`
	Timestamp  uint64    `gorm:"column:timestamp;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the TokenApproval model
func (TokenApproval) TableName() string {
	return "token_approvals"
}
