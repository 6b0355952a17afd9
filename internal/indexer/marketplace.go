package indexer

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/nautilusoss/voi-indexer/internal/chain"
	"github.com/nautilusoss/voi-indexer/internal/domain"
	"github.com/nautilusoss/voi-indexer/internal/logger"
	"github.com/nautilusoss/voi-indexer/internal/store"
	"github.com/nautilusoss/voi-indexer/internal/store/schema"
)

// MarketHandler applies marketplace listing windows. Each listing is a
// state machine: open until exactly one accept or delete, then terminal.
type MarketHandler struct {
	client chain.Client
	store  store.Store
}

// NewMarketHandler creates the marketplace event handler.
func NewMarketHandler(client chain.Client, st store.Store) *MarketHandler {
	return &MarketHandler{client: client, store: st}
}

// Kind returns the contract family this handler serves
func (h *MarketHandler) Kind() domain.ContractKind {
	return domain.KindMarketplace
}

// marketAction is one event of the merged window, ordered by round with
// listings applied before terminals of the same round so an accept in the
// listing's own round finds the row.
type marketAction struct {
	round uint64
	prio  int
	apply func(ctx context.Context) error
}

// Process applies the marketplace's events for the window in round order.
func (h *MarketHandler) Process(ctx context.Context, contractID, minRound, maxRound uint64) error {
	events, err := h.client.MarketEvents(ctx, contractID, minRound, maxRound)
	if err != nil {
		return fmt.Errorf("failed to fetch market events: %w", err)
	}

	actions := make([]marketAction, 0, len(events.Listings)+len(events.Accepts)+len(events.Deletes))
	for i := range events.Listings {
		ev := &events.Listings[i]
		actions = append(actions, marketAction{
			round: ev.Round,
			prio:  0,
			apply: func(ctx context.Context) error { return h.applyListing(ctx, contractID, ev) },
		})
	}
	for i := range events.Accepts {
		ev := &events.Accepts[i]
		actions = append(actions, marketAction{
			round: ev.Round,
			prio:  1,
			apply: func(ctx context.Context) error { return h.applyAccept(ctx, contractID, ev) },
		})
	}
	for i := range events.Deletes {
		ev := &events.Deletes[i]
		actions = append(actions, marketAction{
			round: ev.Round,
			prio:  1,
			apply: func(ctx context.Context) error { return h.applyDelete(ctx, contractID, ev) },
		})
	}

	sort.SliceStable(actions, func(i, j int) bool {
		if actions[i].round != actions[j].round {
			return actions[i].round < actions[j].round
		}
		return actions[i].prio < actions[j].prio
	})

	for _, action := range actions {
		if err := action.apply(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (h *MarketHandler) applyListing(ctx context.Context, mpContractID uint64, ev *domain.ListingEvent) error {
	return h.store.UpsertOfferListing(ctx, &schema.OfferListing{
		MpContractID:    mpContractID,
		MpListingID:     ev.ListingID,
		TxID:            ev.TxID,
		ContractID:      ev.ContractID,
		TokenID:         ev.TokenID,
		Offerer:         ev.Offerer,
		Currency:        ev.Price.Currency,
		Price:           ev.Price.Price.String(),
		CreateRound:     ev.Round,
		CreateTimestamp: ev.Timestamp,
	})
}

func (h *MarketHandler) applyAccept(ctx context.Context, mpContractID uint64, ev *domain.ListingTerminalEvent) error {
	listing, err := h.lookupOpenListing(ctx, mpContractID, ev, "accept")
	if err != nil {
		return err
	}
	if listing == nil {
		return nil
	}

	return h.store.AcceptOfferListing(ctx, &schema.OfferAccept{
		TxID:         ev.TxID,
		MpContractID: mpContractID,
		MpListingID:  ev.ListingID,
		ContractID:   listing.ContractID,
		TokenID:      listing.TokenID,
		Round:        ev.Round,
		Timestamp:    ev.Timestamp,
	})
}

func (h *MarketHandler) applyDelete(ctx context.Context, mpContractID uint64, ev *domain.ListingTerminalEvent) error {
	listing, err := h.lookupOpenListing(ctx, mpContractID, ev, "delete")
	if err != nil {
		return err
	}
	if listing == nil {
		return nil
	}

	return h.store.DeleteOfferListing(ctx, &schema.OfferDelete{
		TxID:         ev.TxID,
		MpContractID: mpContractID,
		MpListingID:  ev.ListingID,
		ContractID:   listing.ContractID,
		TokenID:      listing.TokenID,
		Round:        ev.Round,
		Timestamp:    ev.Timestamp,
	})
}

// lookupOpenListing resolves the listing a terminal event references.
// A missing listing can legitimately occur when observation starts
// mid-lifecycle, so it is skipped rather than escalated; an already
// terminal listing keeps its first marker. Both skips return a nil listing.
func (h *MarketHandler) lookupOpenListing(ctx context.Context, mpContractID uint64, ev *domain.ListingTerminalEvent, action string) (*schema.OfferListing, error) {
	listing, err := h.resolveListing(ctx, mpContractID, ev.ListingID)
	switch {
	case errors.Is(err, domain.ErrListingNotFound):
		logger.WarnCtx(ctx, "terminal event references unknown listing, skipping",
			zap.String("action", action),
			zap.Uint64("mp_contract_id", mpContractID),
			zap.Uint64("mp_listing_id", ev.ListingID),
			zap.String("tx_id", ev.TxID))
		return nil, nil
	case errors.Is(err, domain.ErrListingTerminal):
		logger.InfoCtx(ctx, "listing already terminal, skipping",
			zap.String("action", action),
			zap.Uint64("mp_contract_id", mpContractID),
			zap.Uint64("mp_listing_id", ev.ListingID),
			zap.String("tx_id", ev.TxID))
		return nil, nil
	case err != nil:
		return nil, err
	}
	return listing, nil
}

func (h *MarketHandler) resolveListing(ctx context.Context, mpContractID, mpListingID uint64) (*schema.OfferListing, error) {
	listing, err := h.store.GetOfferListing(ctx, mpContractID, mpListingID)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, domain.ErrListingNotFound
	}
	if listing.Terminal() {
		return nil, domain.ErrListingTerminal
	}
	return listing, nil
}
