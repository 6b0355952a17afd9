package indexer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nautilusoss/voi-indexer/internal/chain"
	"github.com/nautilusoss/voi-indexer/internal/domain"
	"github.com/nautilusoss/voi-indexer/internal/logger"
	"github.com/nautilusoss/voi-indexer/internal/store"
	"github.com/nautilusoss/voi-indexer/internal/store/schema"
)

// FungibleHandler applies arc200 Transfer and Approval windows.
type FungibleHandler struct {
	client chain.Client
	store  store.Store
}

// NewFungibleHandler creates the fungible event handler.
func NewFungibleHandler(client chain.Client, st store.Store) *FungibleHandler {
	return &FungibleHandler{client: client, store: st}
}

// Kind returns the contract family this handler serves
func (h *FungibleHandler) Kind() domain.ContractKind {
	return domain.KindFungible
}

// Process applies the contract's events for the window. Contract metadata
// is re-fetched on every window even though name/symbol/decimals are
// immutable by contract design.
func (h *FungibleHandler) Process(ctx context.Context, contractID, minRound, maxRound uint64) error {
	if err := h.refreshContract(ctx, contractID); err != nil {
		return err
	}

	events, err := h.client.FungibleEvents(ctx, contractID, minRound, maxRound)
	if err != nil {
		return fmt.Errorf("failed to fetch fungible events: %w", err)
	}

	for i := range events.Transfers {
		if err := h.applyTransfer(ctx, contractID, &events.Transfers[i]); err != nil {
			return err
		}
	}

	// Approvals are observed but allowance state is not yet materialized.
	for i := range events.Approvals {
		ev := &events.Approvals[i]
		logger.InfoCtx(ctx, "observed fungible approval",
			zap.Uint64("contract_id", contractID),
			zap.String("owner", ev.Owner),
			zap.String("spender", ev.Spender),
			zap.String("amount", ev.Amount),
			zap.String("tx_id", ev.TxID))
	}

	return nil
}

func (h *FungibleHandler) refreshContract(ctx context.Context, contractID uint64) error {
	name, err := h.client.FungibleName(ctx, contractID)
	if err != nil {
		return fmt.Errorf("failed to read name: %w", err)
	}
	symbol, err := h.client.FungibleSymbol(ctx, contractID)
	if err != nil {
		return fmt.Errorf("failed to read symbol: %w", err)
	}
	decimals, err := h.client.FungibleDecimals(ctx, contractID)
	if err != nil {
		return fmt.Errorf("failed to read decimals: %w", err)
	}
	totalSupply, err := h.client.FungibleTotalSupply(ctx, contractID)
	if err != nil {
		return fmt.Errorf("failed to read total supply: %w", err)
	}
	info, err := h.client.ContractInfo(ctx, contractID)
	if err != nil {
		return fmt.Errorf("failed to get contract info: %w", err)
	}

	return h.store.UpsertFungibleToken(ctx, &schema.FungibleToken{
		ContractID:  contractID,
		Name:        domain.TrimNull(name),
		Symbol:      domain.TrimNull(symbol),
		Decimals:    decimals,
		TotalSupply: totalSupply,
		CreateRound: info.CreatedAtRound,
		Creator:     info.Creator,
	})
}

func (h *FungibleHandler) applyTransfer(ctx context.Context, contractID uint64, ev *domain.TransferEvent) error {
	if err := h.store.InsertFungibleTransfer(ctx, &schema.FungibleTransfer{
		TxID:       ev.TxID,
		ContractID: contractID,
		Sender:     ev.From,
		Receiver:   ev.To,
		Amount:     ev.Amount,
		Round:      ev.Round,
		Timestamp:  ev.Timestamp,
	}); err != nil {
		return err
	}

	if ev.IsMint() {
		// Genesis mint: refresh the contract record, then credit the
		// recipient with the full supply read fresh from the contract
		// rather than the event amount.
		if err := h.refreshContract(ctx, contractID); err != nil {
			return err
		}
		totalSupply, err := h.client.FungibleTotalSupply(ctx, contractID)
		if err != nil {
			return fmt.Errorf("failed to read total supply: %w", err)
		}
		return h.upsertBalance(ctx, contractID, ev.To, totalSupply)
	}

	// Balances are always re-read from the contract, never derived by
	// arithmetic on the event amount.
	for _, account := range []string{ev.From, ev.To} {
		balance, err := h.client.FungibleBalanceOf(ctx, contractID, account)
		if err != nil {
			return fmt.Errorf("failed to read balance of %s: %w", account, err)
		}
		if err := h.upsertBalance(ctx, contractID, account, balance); err != nil {
			return err
		}
	}
	return nil
}

func (h *FungibleHandler) upsertBalance(ctx context.Context, contractID uint64, account, balance string) error {
	return h.store.UpsertAccountBalance(ctx, &schema.AccountBalance{
		ContractID: contractID,
		AccountID:  account,
		Balance:    balance,
	})
}
