package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nautilusoss/voi-indexer/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to defaults:
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// UpsertCollection inserts or updates a collection keyed by contract ID
func (s *pgStore) UpsertCollection(ctx context.Context, collection *schema.Collection) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "contract_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"total_supply", "global_state", "last_sync_round", "updated_at"}),
	}).Create(collection).Error
	if err != nil {
		return fmt.Errorf("failed to upsert collection: %w", err)
	}
	return nil
}

// UpdateCollectionTotalSupply refreshes a collection's total supply
func (s *pgStore) UpdateCollectionTotalSupply(ctx context.Context, contractID uint64, totalSupply string) error {
	err := s.db.WithContext(ctx).
		Model(&schema.Collection{}).
		Where("contract_id = ?", contractID).
		Update("total_supply", totalSupply).Error
	if err != nil {
		return fmt.Errorf("failed to update collection total supply: %w", err)
	}
	return nil
}

// UpsertToken inserts or updates a token keyed by (contract_id, token_id).
// An enumeration index assigned by a backfill survives event-path writes,
// which carry index zero.
func (s *pgStore) UpsertToken(ctx context.Context, token *schema.Token) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "contract_id"}, {Name: "token_id"}},
		DoUpdates: append(
			clause.AssignmentColumns([]string{"owner", "approved", "metadata_uri", "metadata", "updated_at"}),
			clause.Assignment{
				Column: clause.Column{Name: "token_index"},
				Value:  gorm.Expr("CASE WHEN excluded.token_index = 0 THEN tokens.token_index ELSE excluded.token_index END"),
			},
		),
	}).Create(token).Error
	if err != nil {
		return fmt.Errorf("failed to upsert token: %w", err)
	}
	return nil
}

// UpdateTokenOwner sets a token's owner and resets its approval
func (s *pgStore) UpdateTokenOwner(ctx context.Context, contractID uint64, tokenID, owner, approved string) error {
	err := s.db.WithContext(ctx).
		Model(&schema.Token{}).
		Where("contract_id = ? AND token_id = ?", contractID, tokenID).
		Updates(map[string]interface{}{
			"owner":    owner,
			"approved": approved,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update token owner: %w", err)
	}
	return nil
}

// UpdateTokenApproved sets a token's approved spender
func (s *pgStore) UpdateTokenApproved(ctx context.Context, contractID uint64, tokenID, approved string) error {
	err := s.db.WithContext(ctx).
		Model(&schema.Token{}).
		Where("contract_id = ? AND token_id = ?", contractID, tokenID).
		Update("approved", approved).Error
	if err != nil {
		return fmt.Errorf("failed to update token approval: %w", err)
	}
	return nil
}

// GetToken retrieves a token by contract and token ID
func (s *pgStore) GetToken(ctx context.Context, contractID uint64, tokenID string) (*schema.Token, error) {
	var token schema.Token
	err := s.db.WithContext(ctx).
		Where("contract_id = ? AND token_id = ?", contractID, tokenID).
		First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return &token, nil
}

// InsertTokenTransfer appends a transfer history row, skipping duplicates by tx_id
func (s *pgStore) InsertTokenTransfer(ctx context.Context, transfer *schema.TokenTransfer) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tx_id"}},
		DoNothing: true,
	}).Create(transfer).Error
	if err != nil {
		return fmt.Errorf("failed to insert token transfer: %w", err)
	}
	return nil
}

// InsertTokenApproval appends an approval history row, skipping duplicates by tx_id
func (s *pgStore) InsertTokenApproval(ctx context.Context, approval *schema.TokenApproval) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tx_id"}},
		DoNothing: true,
	}).Create(approval).Error
	if err != nil {
		return fmt.Errorf("failed to insert token approval: %w", err)
	}
	return nil
}

// UpsertFungibleToken inserts or updates a fungible contract record
func (s *pgStore) UpsertFungibleToken(ctx context.Context, token *schema.FungibleToken) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "contract_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "symbol", "decimals", "total_supply", "updated_at"}),
	}).Create(token).Error
	if err != nil {
		return fmt.Errorf("failed to upsert fungible token: %w", err)
	}
	return nil
}

// UpsertAccountBalance inserts or updates a holder balance
func (s *pgStore) UpsertAccountBalance(ctx context.Context, balance *schema.AccountBalance) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "contract_id"}, {Name: "account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"balance", "updated_at"}),
	}).Create(balance).Error
	if err != nil {
		return fmt.Errorf("failed to upsert account balance: %w", err)
	}
	return nil
}

// InsertFungibleTransfer appends a transfer history row, skipping duplicates by tx_id
func (s *pgStore) InsertFungibleTransfer(ctx context.Context, transfer *schema.FungibleTransfer) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tx_id"}},
		DoNothing: true,
	}).Create(transfer).Error
	if err != nil {
		return fmt.Errorf("failed to insert fungible transfer: %w", err)
	}
	return nil
}

// UpsertOfferListing inserts or refreshes a listing keyed by
// (mp_contract_id, mp_listing_id). Terminal markers are never touched here
// so a replayed create cannot reopen an accepted or deleted listing.
func (s *pgStore) UpsertOfferListing(ctx context.Context, listing *schema.OfferListing) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "mp_contract_id"}, {Name: "mp_listing_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"tx_id", "contract_id", "token_id", "offerer", "currency", "price", "create_round", "create_timestamp", "updated_at"}),
	}).Create(listing).Error
	if err != nil {
		return fmt.Errorf("failed to upsert offer listing: %w", err)
	}
	return nil
}

// GetOfferListing retrieves a listing by marketplace contract and listing ID
func (s *pgStore) GetOfferListing(ctx context.Context, mpContractID, mpListingID uint64) (*schema.OfferListing, error) {
	var listing schema.OfferListing
	err := s.db.WithContext(ctx).
		Where("mp_contract_id = ? AND mp_listing_id = ?", mpContractID, mpListingID).
		First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get offer listing: %w", err)
	}
	return &listing, nil
}

// AcceptOfferListing records an accept event and marks the listing accepted.
// The listing row is only updated while both terminal markers are still null,
// so the first terminal event wins and replays are no-ops.
func (s *pgStore) AcceptOfferListing(ctx context.Context, accept *schema.OfferAccept) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tx_id"}},
			DoNothing: true,
		}).Create(accept).Error; err != nil {
			return fmt.Errorf("failed to insert offer accept: %w", err)
		}

		if err := tx.Model(&schema.OfferListing{}).
			Where("mp_contract_id = ? AND mp_listing_id = ? AND accept_tx_id IS NULL AND delete_tx_id IS NULL",
				accept.MpContractID, accept.MpListingID).
			Update("accept_tx_id", accept.TxID).Error; err != nil {
			return fmt.Errorf("failed to mark listing accepted: %w", err)
		}

		return nil
	})
}

// DeleteOfferListing records a delete event and marks the listing deleted.
// The listing row is only updated while both terminal markers are still null.
func (s *pgStore) DeleteOfferListing(ctx context.Context, del *schema.OfferDelete) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tx_id"}},
			DoNothing: true,
		}).Create(del).Error; err != nil {
			return fmt.Errorf("failed to insert offer delete: %w", err)
		}

		if err := tx.Model(&schema.OfferListing{}).
			Where("mp_contract_id = ? AND mp_listing_id = ? AND accept_tx_id IS NULL AND delete_tx_id IS NULL",
				del.MpContractID, del.MpListingID).
			Update("delete_tx_id", del.TxID).Error; err != nil {
			return fmt.Errorf("failed to mark listing deleted: %w", err)
		}

		return nil
	})
}

// GetSyncWatermark returns the last fully processed round for a contract
func (s *pgStore) GetSyncWatermark(ctx context.Context, contractID uint64) (uint64, error) {
	var wm schema.SyncWatermark
	err := s.db.WithContext(ctx).Where("contract_id = ?", contractID).First(&wm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get sync watermark: %w", err)
	}
	return wm.LastSyncRound, nil
}

// SetSyncWatermark advances the watermark for a contract. Regressions are
// dropped with GREATEST so concurrent or replayed commits never move it back.
func (s *pgStore) SetSyncWatermark(ctx context.Context, contractID uint64, round uint64) error {
	wm := schema.SyncWatermark{
		ContractID:    contractID,
		LastSyncRound: round,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "contract_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_sync_round": gorm.Expr("GREATEST(sync_watermarks.last_sync_round, excluded.last_sync_round)"),
			"updated_at":      gorm.Expr("now()"),
		}),
	}).Create(&wm).Error
	if err != nil {
		return fmt.Errorf("failed to set sync watermark: %w", err)
	}
	return nil
}

// TrackContract registers a contract for indexing. Re-registering with an
// unknown kind keeps a previously stored classification.
func (s *pgStore) TrackContract(ctx context.Context, contract *schema.TrackedContract) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "contract_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"kind":       gorm.Expr("CASE WHEN excluded.kind = 'unknown' THEN tracked_contracts.kind ELSE excluded.kind END"),
			"updated_at": gorm.Expr("now()"),
		}),
	}).Create(contract).Error
	if err != nil {
		return fmt.Errorf("failed to track contract: %w", err)
	}
	return nil
}

// ListTrackedContracts returns all registered contracts ordered by ID
func (s *pgStore) ListTrackedContracts(ctx context.Context) ([]schema.TrackedContract, error) {
	var contracts []schema.TrackedContract
	err := s.db.WithContext(ctx).Order("contract_id").Find(&contracts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked contracts: %w", err)
	}
	return contracts, nil
}
