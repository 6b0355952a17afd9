package schema

import (
	"time"

	"gorm.io/datatypes"
)

// Token represents the tokens table - one row per (contract, token) pair.
type Token struct {
	// ContractID references the NFT contract
	ContractID uint64 `gorm:"column:contract_id;primaryKey;autoIncrement:false"`
	// TokenID is the uint256 token identifier as a decimal string
	TokenID string `gorm:"column:token_id;primaryKey;type:numeric(78,0)"`
	// TokenIndex is the enumeration index assigned at mint
	TokenIndex uint64 `gorm:"column:token_index;not null;default:0"`
	// Owner is the current owner address, last-write-wins per transfer
	Owner string `gorm:"column:owner;not null;type:text;index:idx_tokens_owner"`
	// Approved is the approved spender, reset to the zero address on every transfer
	Approved string `gorm:"column:approved;not null;type:text"`
	// MetadataURI is the resolved arc72_tokenURI, empty when unresolvable
	MetadataURI string `gorm:"column:metadata_uri;not null;type:text;default:''"`
	// Metadata is the cached metadata payload fetched from MetadataURI
	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb"`
	// MintRound is the round of the mint transfer; immutable once set
	MintRound uint64 `gorm:"column:mint_round;not null"`
	// CreatedAt is the timestamp when this record was first indexed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Token model
func (Token) TableName() string {
	return "tokens"
}
