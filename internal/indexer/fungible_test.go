package indexer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nautilusoss/voi-indexer/internal/chain"
	"github.com/nautilusoss/voi-indexer/internal/chain/chaintest"
	"github.com/nautilusoss/voi-indexer/internal/domain"
	"github.com/nautilusoss/voi-indexer/internal/indexer"
	"github.com/nautilusoss/voi-indexer/internal/store"
)

func fungibleFake() *chaintest.Fake {
	return &chaintest.Fake{
		Round: 100,
		Infos: map[uint64]*chain.ContractInfo{
			200: {ContractID: 200, Creator: "CREATOR", CreatedAtRound: 5},
		},
		Names:            map[uint64]string{200: "Voi Dollar\x00\x00"},
		Symbols:          map[uint64]string{200: "VUSD\x00"},
		DecimalsByID:     map[uint64]uint8{200: 6},
		FungibleSupplies: map[uint64]string{200: "1000000"},
		FungibleLogs:     map[uint64]*chain.FungibleEventLog{200: {}},
	}
}

func TestFungibleHandlerRefreshesContract(t *testing.T) {
	fake := fungibleFake()
	st := store.NewMemoryStore()
	handler := indexer.NewFungibleHandler(fake, st)

	require.NoError(t, handler.Process(context.Background(), 200, 0, 50))

	ft, err := st.GetFungibleToken(context.Background(), 200)
	require.NoError(t, err)
	require.NotNil(t, ft)
	assert.Equal(t, "Voi Dollar", ft.Name)
	assert.Equal(t, "VUSD", ft.Symbol)
	assert.Equal(t, uint8(6), ft.Decimals)
	assert.Equal(t, "1000000", ft.TotalSupply)
	assert.Equal(t, uint64(5), ft.CreateRound)
	assert.Equal(t, "CREATOR", ft.Creator)
}

func TestFungibleHandlerGenesisMint(t *testing.T) {
	fake := fungibleFake()
	fake.FungibleLogs[200].Transfers = []domain.TransferEvent{
		{TxID: "TX1", Round: 10, Timestamp: 1700000010, From: domain.ZeroAddress, To: "ALICE", Amount: "999"},
	}
	st := store.NewMemoryStore()
	handler := indexer.NewFungibleHandler(fake, st)

	require.NoError(t, handler.Process(context.Background(), 200, 0, 50))

	// The recipient is credited with the supply read from the contract,
	// not the event amount.
	balance, err := st.GetAccountBalance(context.Background(), 200, "ALICE")
	require.NoError(t, err)
	require.NotNil(t, balance)
	assert.Equal(t, "1000000", balance.Balance)
	assert.Equal(t, 1, st.CountFungibleTransfers())
}

func TestFungibleHandlerTransferRereadsBalances(t *testing.T) {
	fake := fungibleFake()
	fake.FungibleLogs[200].Transfers = []domain.TransferEvent{
		{TxID: "TX2", Round: 20, Timestamp: 1700000020, From: "ALICE", To: "BOB", Amount: "400"},
	}
	fake.Balances = map[string]string{
		chaintest.TokenKey(200, "ALICE"): "600000",
		chaintest.TokenKey(200, "BOB"):   "400000",
	}
	st := store.NewMemoryStore()
	handler := indexer.NewFungibleHandler(fake, st)

	require.NoError(t, handler.Process(context.Background(), 200, 0, 50))

	alice, err := st.GetAccountBalance(context.Background(), 200, "ALICE")
	require.NoError(t, err)
	require.NotNil(t, alice)
	assert.Equal(t, "600000", alice.Balance)

	bob, err := st.GetAccountBalance(context.Background(), 200, "BOB")
	require.NoError(t, err)
	require.NotNil(t, bob)
	assert.Equal(t, "400000", bob.Balance)
}

func TestFungibleHandlerIdempotentReplay(t *testing.T) {
	fake := fungibleFake()
	fake.FungibleLogs[200].Transfers = []domain.TransferEvent{
		{TxID: "TX2", Round: 20, Timestamp: 1700000020, From: "ALICE", To: "BOB", Amount: "400"},
	}
	fake.Balances = map[string]string{
		chaintest.TokenKey(200, "ALICE"): "600000",
		chaintest.TokenKey(200, "BOB"):   "400000",
	}
	st := store.NewMemoryStore()
	handler := indexer.NewFungibleHandler(fake, st)

	require.NoError(t, handler.Process(context.Background(), 200, 0, 50))
	require.NoError(t, handler.Process(context.Background(), 200, 0, 50))

	assert.Equal(t, 1, st.CountFungibleTransfers())
	bob, err := st.GetAccountBalance(context.Background(), 200, "BOB")
	require.NoError(t, err)
	require.NotNil(t, bob)
	assert.Equal(t, "400000", bob.Balance)
}

func TestFungibleHandlerApprovalsObservedOnly(t *testing.T) {
	fake := fungibleFake()
	fake.FungibleLogs[200].Approvals = []domain.ApprovalEvent{
		{TxID: "TX3", Round: 30, Timestamp: 1700000030, Owner: "ALICE", Spender: "CAROL", Amount: "50"},
	}
	st := store.NewMemoryStore()
	handler := indexer.NewFungibleHandler(fake, st)

	require.NoError(t, handler.Process(context.Background(), 200, 0, 50))
	assert.Equal(t, 0, st.CountFungibleTransfers())
}

func TestFungibleHandlerBalanceReadFailureIsFatal(t *testing.T) {
	fake := fungibleFake()
	fake.FungibleLogs[200].Transfers = []domain.TransferEvent{
		{TxID: "TX2", Round: 20, Timestamp: 1700000020, From: "ALICE", To: "BOB", Amount: "400"},
	}
	fake.Errors = map[string]error{"FungibleBalanceOf": assert.AnError}
	st := store.NewMemoryStore()
	handler := indexer.NewFungibleHandler(fake, st)

	err := handler.Process(context.Background(), 200, 0, 50)
	require.Error(t, err)
}
