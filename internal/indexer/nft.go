package indexer

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/nautilusoss/voi-indexer/internal/chain"
	"github.com/nautilusoss/voi-indexer/internal/domain"
	"github.com/nautilusoss/voi-indexer/internal/logger"
	"github.com/nautilusoss/voi-indexer/internal/metadata"
	"github.com/nautilusoss/voi-indexer/internal/store"
	"github.com/nautilusoss/voi-indexer/internal/store/schema"
)

// NFTConfig tunes the NFT handler.
type NFTConfig struct {
	// ResolverID is the auxiliary naming contract used to overlay token
	// names. 0 disables the overlay.
	ResolverID uint64
	// SkipMintContracts lists contract IDs whose mints are ignored,
	// such as the reverse registrar.
	SkipMintContracts []uint64
}

// NFTHandler applies arc72 Transfer and Approval windows.
type NFTHandler struct {
	client    chain.Client
	store     store.Store
	metadata  *metadata.Fetcher
	resolver  uint64
	skipMints map[uint64]bool
}

// NewNFTHandler creates the NFT event handler.
func NewNFTHandler(client chain.Client, st store.Store, fetcher *metadata.Fetcher, cfg NFTConfig) *NFTHandler {
	skip := make(map[uint64]bool, len(cfg.SkipMintContracts))
	for _, id := range cfg.SkipMintContracts {
		skip[id] = true
	}
	return &NFTHandler{
		client:    client,
		store:     st,
		metadata:  fetcher,
		resolver:  cfg.ResolverID,
		skipMints: skip,
	}
}

// Kind returns the contract family this handler serves
func (h *NFTHandler) Kind() domain.ContractKind {
	return domain.KindNFT
}

// Process applies the contract's Transfer and Approval events for the
// window. Collection state is refreshed from authoritative reads on every
// window, not only on mint, so a restarted indexer converges without
// replaying history.
func (h *NFTHandler) Process(ctx context.Context, contractID, minRound, maxRound uint64) error {
	if err := h.refreshCollection(ctx, contractID, maxRound); err != nil {
		return err
	}

	events, err := h.client.NFTEvents(ctx, contractID, minRound, maxRound)
	if err != nil {
		return fmt.Errorf("failed to fetch nft events: %w", err)
	}

	for i := range events.Transfers {
		if err := h.applyTransfer(ctx, contractID, &events.Transfers[i]); err != nil {
			return err
		}
	}
	for i := range events.Approvals {
		if err := h.applyApproval(ctx, contractID, &events.Approvals[i]); err != nil {
			return err
		}
	}

	return nil
}

func (h *NFTHandler) refreshCollection(ctx context.Context, contractID, maxRound uint64) error {
	info, err := h.client.ContractInfo(ctx, contractID)
	if err != nil {
		return fmt.Errorf("failed to get contract info: %w", err)
	}
	totalSupply, err := h.client.NFTTotalSupply(ctx, contractID)
	if err != nil {
		return fmt.Errorf("failed to read total supply: %w", err)
	}

	globalState, err := json.Marshal(info.GlobalState)
	if err != nil {
		return fmt.Errorf("failed to encode global state: %w", err)
	}

	return h.store.UpsertCollection(ctx, &schema.Collection{
		ContractID:    contractID,
		TotalSupply:   totalSupply,
		CreateRound:   info.CreatedAtRound,
		Creator:       info.Creator,
		GlobalState:   datatypes.JSON(globalState),
		LastSyncRound: maxRound,
	})
}

func (h *NFTHandler) applyTransfer(ctx context.Context, contractID uint64, ev *domain.TransferEvent) error {
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

	if ev.IsMint() {
		// The skip list suppresses token materialization only; the history
		// row above is appended for every event.
		if h.skipMints[contractID] {
			logger.InfoCtx(ctx, "skipping mint on skip-listed contract",
				zap.Uint64("contract_id", contractID),
				zap.String("token_id", ev.TokenID),
				zap.String("tx_id", ev.TxID))
			return nil
		}
		return h.applyMint(ctx, contractID, ev)
	}

	existing, err := h.store.GetToken(ctx, contractID, ev.TokenID)
	if err != nil {
		return err
	}
	if existing == nil {
		// Observation started mid-lifecycle; materialize the token from
		// authoritative state with an unknown mint round.
		return h.materializeToken(ctx, contractID, ev, 0)
	}

	// Approval does not survive a transfer.
	return h.store.UpdateTokenOwner(ctx, contractID, ev.TokenID, ev.To, domain.ZeroAddress)
}

func (h *NFTHandler) applyMint(ctx context.Context, contractID uint64, ev *domain.TransferEvent) error {
	if err := h.materializeToken(ctx, contractID, ev, ev.Round); err != nil {
		return err
	}

	// Refresh the collection's supply from the contract rather than
	// incrementing locally.
	totalSupply, err := h.client.NFTTotalSupply(ctx, contractID)
	if err != nil {
		logger.WarnCtx(ctx, "failed to refresh total supply after mint",
			zap.Error(err), zap.Uint64("contract_id", contractID))
		return nil
	}
	return h.store.UpdateCollectionTotalSupply(ctx, contractID, totalSupply)
}

// materializeToken builds a full token row from authoritative reads.
// Metadata and naming failures degrade per token and never abort the window.
func (h *NFTHandler) materializeToken(ctx context.Context, contractID uint64, ev *domain.TransferEvent, mintRound uint64) error {
	uri, err := h.client.NFTTokenURI(ctx, contractID, ev.TokenID)
	if err != nil {
		logger.WarnCtx(ctx, "failed to resolve token URI",
			zap.Error(err),
			zap.Uint64("contract_id", contractID),
			zap.String("token_id", ev.TokenID))
		uri = ""
	}
	uri = domain.TrimNull(uri)

	meta := h.metadata.Fetch(ctx, uri)
	meta = h.overlayName(ctx, ev.TokenID, meta)

	return h.store.UpsertToken(ctx, &schema.Token{
		ContractID:  contractID,
		TokenID:     ev.TokenID,
		Owner:       ev.To,
		Approved:    domain.ZeroAddress,
		MetadataURI: uri,
		Metadata:    meta,
		MintRound:   mintRound,
	})
}

// overlayName resolves the token's name through the auxiliary naming
// contract and replaces the name the metadata document already carries.
// Documents without a name key and resolution failures are left untouched.
func (h *NFTHandler) overlayName(ctx context.Context, tokenID string, meta datatypes.JSON) datatypes.JSON {
	if h.resolver == 0 {
		return meta
	}

	name, err := h.client.ResolveName(ctx, h.resolver, tokenID)
	if err != nil || name == "" {
		if err != nil && !chain.IsSimulationFailure(err) {
			logger.WarnCtx(ctx, "failed to resolve token name",
				zap.Error(err), zap.String("token_id", tokenID))
		}
		return meta
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(meta, &doc); err != nil {
		return meta
	}
	if _, ok := doc["name"]; !ok {
		return meta
	}
	doc["name"] = domain.TrimNull(name)

	merged, err := json.Marshal(doc)
	if err != nil {
		return meta
	}
	return datatypes.JSON(merged)
}

func (h *NFTHandler) applyApproval(ctx context.Context, contractID uint64, ev *domain.ApprovalEvent) error {
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

	// The event's spender may be stale after same-window transfers, so the
	// approved spender is re-read from the contract.
	approved, err := h.client.NFTGetApproved(ctx, contractID, ev.TokenID)
	if err != nil {
		logger.WarnCtx(ctx, "failed to read approved spender",
			zap.Error(err),
			zap.Uint64("contract_id", contractID),
			zap.String("token_id", ev.TokenID))
		return nil
	}

	return h.store.UpdateTokenApproved(ctx, contractID, ev.TokenID, approved)
}
