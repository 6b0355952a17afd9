package store_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nautilusoss/voi-indexer/internal/domain"
	"github.com/nautilusoss/voi-indexer/internal/logger"
	"github.com/nautilusoss/voi-indexer/internal/store"
	"github.com/nautilusoss/voi-indexer/internal/store/schema"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

func TestWatermarkNeverMovesBackward(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, st.SetSyncWatermark(ctx, 100, 50))
	require.NoError(t, st.SetSyncWatermark(ctx, 100, 40))

	watermark, err := st.GetSyncWatermark(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), watermark)
}

func TestWatermarkDefaultsToZero(t *testing.T) {
	st := store.NewMemoryStore()

	watermark, err := st.GetSyncWatermark(context.Background(), 999)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), watermark)
}

func TestTransferInsertDeduplicatesByTxID(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	transfer := &schema.TokenTransfer{
		TxID:        "TX1",
		ContractID:  100,
		TokenID:     "1",
		FromAddress: domain.ZeroAddress,
		ToAddress:   "ALICE",
		Round:       20,
	}
	require.NoError(t, st.InsertTokenTransfer(ctx, transfer))
	require.NoError(t, st.InsertTokenTransfer(ctx, transfer))

	assert.Equal(t, 1, st.CountTokenTransfers())
}

func TestUpsertTokenPreservesMintRound(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, st.UpsertToken(ctx, &schema.Token{
		ContractID: 100, TokenID: "1", Owner: "ALICE", MintRound: 20,
	}))
	require.NoError(t, st.UpsertToken(ctx, &schema.Token{
		ContractID: 100, TokenID: "1", Owner: "BOB", MintRound: 0,
	}))

	token, err := st.GetToken(ctx, 100, "1")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "BOB", token.Owner)
	assert.Equal(t, uint64(20), token.MintRound)
}

func TestUpsertTokenKeepsAssignedIndex(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	// A backfill assigns the enumeration index; a replayed event window
	// writes the token without one and must not reset it.
	require.NoError(t, st.UpsertToken(ctx, &schema.Token{
		ContractID: 100, TokenID: "6", TokenIndex: 5, Owner: "ALICE", MintRound: 20,
	}))
	require.NoError(t, st.UpsertToken(ctx, &schema.Token{
		ContractID: 100, TokenID: "6", TokenIndex: 0, Owner: "BOB", MintRound: 20,
	}))

	token, err := st.GetToken(ctx, 100, "6")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "BOB", token.Owner)
	assert.Equal(t, uint64(5), token.TokenIndex)
}

func TestAcceptThenDeleteKeepsFirstMarker(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, st.UpsertOfferListing(ctx, &schema.OfferListing{
		MpContractID: 300, MpListingID: 7, TxID: "TX1",
		ContractID: 100, TokenID: "1", Offerer: "ALICE", Price: "5",
	}))
	require.NoError(t, st.AcceptOfferListing(ctx, &schema.OfferAccept{
		TxID: "TX2", MpContractID: 300, MpListingID: 7, ContractID: 100, TokenID: "1",
	}))
	require.NoError(t, st.DeleteOfferListing(ctx, &schema.OfferDelete{
		TxID: "TX3", MpContractID: 300, MpListingID: 7, ContractID: 100, TokenID: "1",
	}))

	listing, err := st.GetOfferListing(ctx, 300, 7)
	require.NoError(t, err)
	require.NotNil(t, listing)
	require.NotNil(t, listing.AcceptTxID)
	assert.Equal(t, "TX2", *listing.AcceptTxID)
	assert.Nil(t, listing.DeleteTxID)
}

func TestListingUpsertPreservesTerminalMarkers(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, st.UpsertOfferListing(ctx, &schema.OfferListing{
		MpContractID: 300, MpListingID: 7, TxID: "TX1",
		ContractID: 100, TokenID: "1", Offerer: "ALICE", Price: "5",
	}))
	require.NoError(t, st.AcceptOfferListing(ctx, &schema.OfferAccept{
		TxID: "TX2", MpContractID: 300, MpListingID: 7, ContractID: 100, TokenID: "1",
	}))

	// A replayed list event must not reopen the listing.
	require.NoError(t, st.UpsertOfferListing(ctx, &schema.OfferListing{
		MpContractID: 300, MpListingID: 7, TxID: "TX1",
		ContractID: 100, TokenID: "1", Offerer: "ALICE", Price: "5",
	}))

	listing, err := st.GetOfferListing(ctx, 300, 7)
	require.NoError(t, err)
	require.NotNil(t, listing)
	require.NotNil(t, listing.AcceptTxID)
	assert.Equal(t, "TX2", *listing.AcceptTxID)
}

func TestTrackContractKeepsKnownKind(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, st.TrackContract(ctx, &schema.TrackedContract{
		ContractID: 100, Kind: string(domain.KindNFT),
	}))
	// A startup re-registration carries kind unknown and must not clobber
	// the stored classification.
	require.NoError(t, st.TrackContract(ctx, &schema.TrackedContract{
		ContractID: 100, Kind: string(domain.KindUnknown),
	}))

	contracts, err := st.ListTrackedContracts(ctx)
	require.NoError(t, err)
	require.Len(t, contracts, 1)
	assert.Equal(t, string(domain.KindNFT), contracts[0].Kind)
}
