package schema

import "time"

// SyncWatermark tracks the last fully processed round per contract.
// LastSyncRound is monotonically non-decreasing.
type SyncWatermark struct {
	ContractID    uint64    `gorm:"column:contract_id;primaryKey;autoIncrement:false"`
	LastSyncRound uint64    `gorm:"column:last_sync_round;not null;default:0"`
	UpdatedAt     time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the SyncWatermark model
func (SyncWatermark) TableName() string {
	return "sync_watermarks"
}

// TrackedContract is a contract registered for indexing, with its cached
// classification. Kind is immutable on chain, so once classified it is safe
// to persist across restarts.
type TrackedContract struct {
	ContractID uint64    `gorm:"column:contract_id;primaryKey;autoIncrement:false"`
	Kind       string    `gorm:"column:kind;not null;type:text;default:'unknown'"`
	CreatedAt  time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	UpdatedAt  time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the TrackedContract model
func (TrackedContract) TableName() string {
	return "tracked_contracts"
}
