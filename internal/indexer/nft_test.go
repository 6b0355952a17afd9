package indexer_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nautilusoss/voi-indexer/internal/adapter"
	"github.com/nautilusoss/voi-indexer/internal/chain"
	"github.com/nautilusoss/voi-indexer/internal/chain/chaintest"
	"github.com/nautilusoss/voi-indexer/internal/domain"
	"github.com/nautilusoss/voi-indexer/internal/indexer"
	"github.com/nautilusoss/voi-indexer/internal/logger"
	"github.com/nautilusoss/voi-indexer/internal/metadata"
	"github.com/nautilusoss/voi-indexer/internal/store"
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

// newFetcher builds a metadata fetcher for tests. Fixture token URIs are
// inline JSON documents, so the HTTP client is never exercised.
func newFetcher() *metadata.Fetcher {
	return metadata.NewFetcher(adapter.NewHTTPClient(time.Second), "https://ipfs.io")
}

func nftFake() *chaintest.Fake {
	return &chaintest.Fake{
		Round: 100,
		Infos: map[uint64]*chain.ContractInfo{
			100: {ContractID: 100, Creator: "CREATOR", CreatedAtRound: 10},
		},
		NFTSupplies: map[uint64]string{100: "1"},
		NFTLogs: map[uint64]*chain.NFTEventLog{
			100: {
				Transfers: []domain.TransferEvent{
					{TxID: "TX1", Round: 20, Timestamp: 1700000020, From: domain.ZeroAddress, To: "ALICE", TokenID: "1"},
					{TxID: "TX2", Round: 35, Timestamp: 1700000035, From: "ALICE", To: "BOB", TokenID: "1"},
				},
			},
		},
		Owners:    map[string]string{chaintest.TokenKey(100, "1"): "BOB"},
		Approveds: map[string]string{chaintest.TokenKey(100, "1"): domain.ZeroAddress},
		URIs:      map[string]string{chaintest.TokenKey(100, "1"): `{"name": "Token One"}`},
	}
}

func TestNFTHandlerMintThenTransfer(t *testing.T) {
	fake := nftFake()
	st := store.NewMemoryStore()
	handler := indexer.NewNFTHandler(fake, st, newFetcher(), indexer.NFTConfig{})

	err := handler.Process(context.Background(), 100, 0, 50)
	require.NoError(t, err)

	token, err := st.GetToken(context.Background(), 100, "1")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "BOB", token.Owner)
	assert.Equal(t, domain.ZeroAddress, token.Approved)
	assert.Equal(t, uint64(20), token.MintRound)
	assert.JSONEq(t, `{"name": "Token One"}`, string(token.Metadata))
	assert.Equal(t, 2, st.CountTokenTransfers())

	collection, err := st.GetCollection(context.Background(), 100)
	require.NoError(t, err)
	require.NotNil(t, collection)
	assert.Equal(t, "1", collection.TotalSupply)
	assert.Equal(t, "CREATOR", collection.Creator)
	assert.Equal(t, uint64(50), collection.LastSyncRound)
}

func TestNFTHandlerIdempotentReplay(t *testing.T) {
	fake := nftFake()
	st := store.NewMemoryStore()
	handler := indexer.NewNFTHandler(fake, st, newFetcher(), indexer.NFTConfig{})

	require.NoError(t, handler.Process(context.Background(), 100, 0, 50))
	require.NoError(t, handler.Process(context.Background(), 100, 0, 50))

	token, err := st.GetToken(context.Background(), 100, "1")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "BOB", token.Owner)
	assert.Equal(t, uint64(20), token.MintRound)
	assert.Equal(t, 2, st.CountTokenTransfers())
}

func TestNFTHandlerMidLifecycleTransfer(t *testing.T) {
	// The mint happened before observation started; the transfer must
	// materialize the token with an unknown mint round.
	fake := nftFake()
	fake.NFTLogs[100].Transfers = fake.NFTLogs[100].Transfers[1:]
	st := store.NewMemoryStore()
	handler := indexer.NewNFTHandler(fake, st, newFetcher(), indexer.NFTConfig{})

	require.NoError(t, handler.Process(context.Background(), 100, 30, 50))

	token, err := st.GetToken(context.Background(), 100, "1")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "BOB", token.Owner)
	assert.Equal(t, uint64(0), token.MintRound)
	assert.Equal(t, 1, st.CountTokenTransfers())
}

func TestNFTHandlerSkipListedMint(t *testing.T) {
	fake := nftFake()
	fake.NFTLogs[100].Transfers = fake.NFTLogs[100].Transfers[:1]
	st := store.NewMemoryStore()
	handler := indexer.NewNFTHandler(fake, st, newFetcher(), indexer.NFTConfig{
		SkipMintContracts: []uint64{100},
	})

	require.NoError(t, handler.Process(context.Background(), 100, 0, 50))

	// The skip list suppresses only the token materialization; the
	// transfer history row is appended for every event.
	token, err := st.GetToken(context.Background(), 100, "1")
	require.NoError(t, err)
	assert.Nil(t, token)
	assert.Equal(t, 1, st.CountTokenTransfers())
}

func TestNFTHandlerApprovalResetOnTransfer(t *testing.T) {
	fake := nftFake()
	fake.NFTLogs[100].Approvals = []domain.ApprovalEvent{
		{TxID: "TX3", Round: 25, Timestamp: 1700000025, Owner: "ALICE", Spender: "CAROL", TokenID: "1"},
	}
	// The spender from the round 25 approval is stale after the round 35
	// transfer; the contract reports the current approved spender.
	st := store.NewMemoryStore()
	handler := indexer.NewNFTHandler(fake, st, newFetcher(), indexer.NFTConfig{})

	require.NoError(t, handler.Process(context.Background(), 100, 0, 50))

	token, err := st.GetToken(context.Background(), 100, "1")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, domain.ZeroAddress, token.Approved)
}

func TestNFTHandlerApprovalAuthoritativeRead(t *testing.T) {
	fake := nftFake()
	fake.NFTLogs[100].Transfers = fake.NFTLogs[100].Transfers[:1]
	fake.NFTLogs[100].Approvals = []domain.ApprovalEvent{
		{TxID: "TX3", Round: 25, Timestamp: 1700000025, Owner: "ALICE", Spender: "CAROL", TokenID: "1"},
	}
	fake.Approveds[chaintest.TokenKey(100, "1")] = "CAROL"
	st := store.NewMemoryStore()
	handler := indexer.NewNFTHandler(fake, st, newFetcher(), indexer.NFTConfig{})

	require.NoError(t, handler.Process(context.Background(), 100, 0, 50))

	token, err := st.GetToken(context.Background(), 100, "1")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "CAROL", token.Approved)
}

func TestNFTHandlerMetadataURIFailureDegrades(t *testing.T) {
	fake := nftFake()
	delete(fake.URIs, chaintest.TokenKey(100, "1"))
	st := store.NewMemoryStore()
	handler := indexer.NewNFTHandler(fake, st, newFetcher(), indexer.NFTConfig{})

	require.NoError(t, handler.Process(context.Background(), 100, 0, 50))

	token, err := st.GetToken(context.Background(), 100, "1")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "BOB", token.Owner)
	assert.Equal(t, "", token.MetadataURI)
	assert.JSONEq(t, `{}`, string(token.Metadata))
}

func TestNFTHandlerNameOverlay(t *testing.T) {
	fake := nftFake()
	fake.ResolvedNames = map[string]string{
		chaintest.TokenKey(77, "1"): "alice.voi\x00\x00",
	}
	st := store.NewMemoryStore()
	handler := indexer.NewNFTHandler(fake, st, newFetcher(), indexer.NFTConfig{ResolverID: 77})

	require.NoError(t, handler.Process(context.Background(), 100, 0, 50))

	token, err := st.GetToken(context.Background(), 100, "1")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.JSONEq(t, `{"name": "alice.voi"}`, string(token.Metadata))
}

func TestNFTHandlerNameOverlayReplacesOnly(t *testing.T) {
	// A resolved name replaces an existing one but is never injected into
	// a document that had none.
	fake := nftFake()
	fake.URIs[chaintest.TokenKey(100, "1")] = `{"description": "no name here"}`
	fake.ResolvedNames = map[string]string{
		chaintest.TokenKey(77, "1"): "alice.voi",
	}
	st := store.NewMemoryStore()
	handler := indexer.NewNFTHandler(fake, st, newFetcher(), indexer.NFTConfig{ResolverID: 77})

	require.NoError(t, handler.Process(context.Background(), 100, 0, 50))

	token, err := st.GetToken(context.Background(), 100, "1")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.JSONEq(t, `{"description": "no name here"}`, string(token.Metadata))
}

func TestNFTHandlerEventFetchFailureIsFatal(t *testing.T) {
	fake := nftFake()
	fake.Errors = map[string]error{"NFTEvents": assert.AnError}
	st := store.NewMemoryStore()
	handler := indexer.NewNFTHandler(fake, st, newFetcher(), indexer.NFTConfig{})

	err := handler.Process(context.Background(), 100, 0, 50)
	require.Error(t, err)
	assert.Equal(t, 0, st.CountTokenTransfers())
}
