package schema

import "time"

// AccountBalance represents the account_balances table - one row per
// (contract, account) pair. The balance is always re-read from authoritative
// contract state, never derived by local arithmetic, so repeated application
// of the same window cannot drift.
type AccountBalance struct {
	// ContractID references the fungible contract
	ContractID uint64 `gorm:"column:contract_id;primaryKey;autoIncrement:false"`
	// AccountID is the holder's address
	AccountID string `gorm:"column:account_id;primaryKey;type:text"`
	// Balance is the holding as a decimal string (uint256 range)
	Balance string `gorm:"column:balance;not null;type:numeric(78,0);default:0"`
	// CreatedAt is the timestamp when this balance was first indexed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this balance was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the AccountBalance model
func (AccountBalance) TableName() string {
	return "account_balances"
}
