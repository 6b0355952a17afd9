package schema

import (
	"time"

	"gorm.io/datatypes"
)

// Collection represents the collections table - one row per NFT contract.
// Created on the first observed event or explicit registration, never deleted.
type Collection struct {
	// ContractID is the on-chain application ID, the natural key
	ContractID uint64 `gorm:"column:contract_id;primaryKey;autoIncrement:false"`
	// TotalSupply is refreshed from authoritative state on every processed window
	TotalSupply string `gorm:"column:total_supply;not null;type:numeric(78,0);default:0"`
	// CreateRound is the round the contract was deployed in
	CreateRound uint64 `gorm:"column:create_round;not null"`
	// Creator is the deploying account address
	Creator string `gorm:"column:creator;not null;type:text"`
	// GlobalState is the decoded on-chain global state blob
	GlobalState datatypes.JSON `gorm:"column:global_state;type:jsonb"`
	// LastSyncRound mirrors the contract's sync watermark
	LastSyncRound uint64 `gorm:"column:last_sync_round;not null;default:0"`
	// CreatedAt is the timestamp when this record was first indexed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Collection model
func (Collection) TableName() string {
	return "collections"
}
