package indexer

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/nautilusoss/voi-indexer/internal/domain"
	"github.com/nautilusoss/voi-indexer/internal/logger"
	"github.com/nautilusoss/voi-indexer/internal/store/schema"
)

// Backfill rebuilds one NFT contract's materialized state from scratch:
// every token is re-read by enumeration index, the full transfer history is
// replayed into the append-only logs, and the watermark is bumped to the
// current round. Individual token failures are logged and skipped so one
// bad token cannot abort the walk.
func (h *NFTHandler) Backfill(ctx context.Context, contractID uint64) error {
	currentRound, err := h.client.CurrentRound(ctx)
	if err != nil {
		return fmt.Errorf("failed to read current round: %w", err)
	}

	if err := h.refreshCollection(ctx, contractID, currentRound); err != nil {
		return err
	}

	totalSupply, err := h.client.NFTTotalSupply(ctx, contractID)
	if err != nil {
		return fmt.Errorf("failed to read total supply: %w", err)
	}
	supply, err := strconv.ParseUint(totalSupply, 10, 64)
	if err != nil {
		return fmt.Errorf("failed to parse total supply %q: %w", totalSupply, err)
	}

	for index := uint64(0); index < supply; index++ {
		if err := h.backfillToken(ctx, contractID, index); err != nil {
			return err
		}
	}

	if err := h.replayHistory(ctx, contractID, currentRound); err != nil {
		return err
	}

	return h.store.SetSyncWatermark(ctx, contractID, currentRound)
}

func (h *NFTHandler) backfillToken(ctx context.Context, contractID, index uint64) error {
	tokenID, err := h.client.NFTTokenByIndex(ctx, contractID, index)
	if err != nil {
		logger.WarnCtx(ctx, "failed to enumerate token, skipping",
			zap.Error(err),
			zap.Uint64("contract_id", contractID),
			zap.Uint64("index", index))
		return nil
	}

	owner, err := h.client.NFTOwnerOf(ctx, contractID, tokenID)
	if err != nil {
		logger.WarnCtx(ctx, "failed to read token owner, skipping",
			zap.Error(err),
			zap.Uint64("contract_id", contractID),
			zap.String("token_id", tokenID))
		return nil
	}
	approved, err := h.client.NFTGetApproved(ctx, contractID, tokenID)
	if err != nil {
		logger.WarnCtx(ctx, "failed to read approved spender, using zero address",
			zap.Error(err),
			zap.Uint64("contract_id", contractID),
			zap.String("token_id", tokenID))
		approved = domain.ZeroAddress
	}

	uri, err := h.client.NFTTokenURI(ctx, contractID, tokenID)
	if err != nil {
		logger.WarnCtx(ctx, "failed to resolve token URI",
			zap.Error(err),
			zap.Uint64("contract_id", contractID),
			zap.String("token_id", tokenID))
		uri = ""
	}
	uri = domain.TrimNull(uri)

	meta := h.metadata.Fetch(ctx, uri)
	meta = h.overlayName(ctx, tokenID, meta)

	// The upsert preserves mint_round on conflict, so replayed history
	// keeps the original mint round for already-known tokens.
	return h.store.UpsertToken(ctx, &schema.Token{
		ContractID:  contractID,
		TokenID:     tokenID,
		TokenIndex:  index,
		Owner:       owner,
		Approved:    approved,
		MetadataURI: uri,
		Metadata:    meta,
	})
}

// replayHistory re-inserts the full event history. Ownership and approval
// state were already read authoritatively in the token walk, so only the
// append-only logs are touched here.
func (h *NFTHandler) replayHistory(ctx context.Context, contractID, currentRound uint64) error {
	events, err := h.client.NFTEvents(ctx, contractID, 0, currentRound)
	if err != nil {
		return fmt.Errorf("failed to fetch nft events: %w", err)
	}

	for i := range events.Transfers {
		ev := &events.Transfers[i]
		if err := h.store.InsertTokenTransfer(ctx, &schema.TokenTransfer{
			TxID:        ev.TxID,
			ContractID:  contractID,
			TokenID:     ev.TokenID,
			FromAddress: ev.From,
			ToAddress:   ev.To,
			Round:       ev.Round,
			Timestamp:   ev.Timestamp,
		}); err != nil {
			return err
		}
	}
	for i := range events.Approvals {
		ev := &events.Approvals[i]
		if err := h.store.InsertTokenApproval(ctx, &schema.TokenApproval{
			TxID:       ev.TxID,
			ContractID: contractID,
			TokenID:    ev.TokenID,
			Owner:      ev.Owner,
			Spender:    ev.Spender,
			Round:      ev.Round,
			Timestamp:  ev.Timestamp,
		}); err != nil {
			return err
		}
	}

	logger.InfoCtx(ctx, "replayed event history",
		zap.Uint64("contract_id", contractID),
		zap.Int("transfers", len(events.Transfers)),
		zap.Int("approvals", len(events.Approvals)))
	return nil
}
