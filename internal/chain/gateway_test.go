package chain_test

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nautilusoss/voi-indexer/internal/adapter"
	"github.com/nautilusoss/voi-indexer/internal/chain"
	"github.com/nautilusoss/voi-indexer/internal/logger"
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

type readonlyCall struct {
	Method  string            `json:"method"`
	Args    []json.RawMessage `json:"args"`
	Returns string            `json:"returns"`
}

// newGateway spins up a test server whose readonly endpoint is driven by
// the given handler; other endpoints serve fixed fixtures.
func newGateway(t *testing.T, readonly func(call readonlyCall) (interface{}, string), events string) (chain.Client, *httptest.Server) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/status", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"current-round": 4242}`)
	})
	mux.HandleFunc("/v1/contracts/100", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"contract-id": 100,
			"creator": "CREATORADDR",
			"created-at-round": 7,
			"global-state": [{"key": "ratio", "value": "123"}]
		}`)
	})
	mux.HandleFunc("/v1/contracts/100/assets", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"total-count": 3}`)
	})
	mux.HandleFunc("/v1/contracts/100/events", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10", r.URL.Query().Get("min-round"))
		assert.Equal(t, "50", r.URL.Query().Get("max-round"))
		fmt.Fprint(w, events)
	})
	mux.HandleFunc("/v1/contracts/100/readonly", func(w http.ResponseWriter, r *http.Request) {
		var call readonlyCall
		require.NoError(t, json.NewDecoder(r.Body).Decode(&call))

		if readonly == nil {
			fmt.Fprint(w, `{"success": false, "error": "unknown method"}`)
			return
		}
		ret, simErr := readonly(call)
		if simErr != "" {
			fmt.Fprintf(w, `{"success": false, "error": %q}`, simErr)
			return
		}
		payload, err := json.Marshal(ret)
		require.NoError(t, err)
		fmt.Fprintf(w, `{"success": true, "return": %s}`, payload)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := chain.NewGatewayClient(server.URL, adapter.NewHTTPClient(5*time.Second))
	return client, server
}

func TestGateway_CurrentRound(t *testing.T) {
	client, _ := newGateway(t, nil, "")

	round, err := client.CurrentRound(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(4242), round)
}

func TestGateway_ContractInfo(t *testing.T) {
	client, _ := newGateway(t, nil, "")

	info, err := client.ContractInfo(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), info.ContractID)
	assert.Equal(t, "CREATORADDR", info.Creator)
	assert.Equal(t, uint64(7), info.CreatedAtRound)

	ratio, ok := info.GlobalValue("ratio")
	assert.True(t, ok)
	assert.Equal(t, "123", ratio)

	_, ok = info.GlobalValue("missing")
	assert.False(t, ok)
}

func TestGateway_AccountAssetCount(t *testing.T) {
	client, _ := newGateway(t, nil, "")

	count, err := client.AccountAssetCount(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestGateway_SupportsInterface_BoolEncoding(t *testing.T) {
	client, _ := newGateway(t, func(call readonlyCall) (interface{}, string) {
		if call.Method == "supportsInterface" && call.Returns == "bool" {
			return true, ""
		}
		return nil, "unknown method"
	}, "")

	supported, err := client.SupportsInterface(context.Background(), 100, chain.SelectorNFT)
	require.NoError(t, err)
	assert.True(t, supported)
}

func TestGateway_SupportsInterface_ByteEncoding(t *testing.T) {
	// The bool encoding is rejected by the contract; the byte encoding
	// answers 1.
	client, _ := newGateway(t, func(call readonlyCall) (interface{}, string) {
		if call.Returns == "bool" {
			return nil, "invalid return type"
		}
		if call.Returns == "byte" {
			return 1, ""
		}
		return nil, "unknown method"
	}, "")

	supported, err := client.SupportsInterface(context.Background(), 100, chain.SelectorMarketplace)
	require.NoError(t, err)
	assert.True(t, supported)
}

func TestGateway_SupportsInterface_DeniedOnSimulationFailure(t *testing.T) {
	client, _ := newGateway(t, func(call readonlyCall) (interface{}, string) {
		return nil, "unknown method"
	}, "")

	supported, err := client.SupportsInterface(context.Background(), 100, chain.SelectorNFT)
	require.NoError(t, err)
	assert.False(t, supported)
}

func TestGateway_FungibleName_TrimsNullBytes(t *testing.T) {
	client, _ := newGateway(t, func(call readonlyCall) (interface{}, string) {
		if call.Method == "arc200_name" {
			return "Voi Token\x00\x00\x00", ""
		}
		return nil, "unknown method"
	}, "")

	name, err := client.FungibleName(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, "Voi Token", name)
}

func TestGateway_FungibleName_SimulationFailure(t *testing.T) {
	client, _ := newGateway(t, func(call readonlyCall) (interface{}, string) {
		return nil, "unknown method"
	}, "")

	_, err := client.FungibleName(context.Background(), 100)
	require.Error(t, err)
	assert.True(t, chain.IsSimulationFailure(err))
}

func TestGateway_FungibleDecimals_NumberAndString(t *testing.T) {
	for _, ret := range []interface{}{6, "6"} {
		client, _ := newGateway(t, func(call readonlyCall) (interface{}, string) {
			if call.Method == "arc200_decimals" {
				return ret, ""
			}
			return nil, "unknown method"
		}, "")

		decimals, err := client.FungibleDecimals(context.Background(), 100)
		require.NoError(t, err)
		assert.Equal(t, uint8(6), decimals)
	}
}

func TestGateway_NFTEvents_DecodeAndSort(t *testing.T) {
	// Transfers arrive out of round order and must come back sorted.
	events := `{"events": [
		{"name": "arc72_Transfer", "events": [
			["TX2", 35, 1700000200, "ALICE", "BOB", "1"],
			["TX1", 20, 1700000100, "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAY5HFKQ", "ALICE", "1"]
		]},
		{"name": "arc72_Approval", "events": [
			["TX3", 40, 1700000300, "BOB", "CAROL", "1"]
		]}
	]}`
	client, _ := newGateway(t, nil, events)

	log, err := client.NFTEvents(context.Background(), 100, 10, 50)
	require.NoError(t, err)

	require.Len(t, log.Transfers, 2)
	assert.Equal(t, "TX1", log.Transfers[0].TxID)
	assert.Equal(t, uint64(20), log.Transfers[0].Round)
	assert.True(t, log.Transfers[0].IsMint())
	assert.Equal(t, "1", log.Transfers[0].TokenID)
	assert.Empty(t, log.Transfers[0].Amount)

	assert.Equal(t, "TX2", log.Transfers[1].TxID)
	assert.Equal(t, "BOB", log.Transfers[1].To)

	require.Len(t, log.Approvals, 1)
	assert.Equal(t, "BOB", log.Approvals[0].Owner)
	assert.Equal(t, "CAROL", log.Approvals[0].Spender)
	assert.Equal(t, "1", log.Approvals[0].TokenID)
}

func TestGateway_FungibleEvents_Decode(t *testing.T) {
	events := `{"events": [
		{"name": "arc200_Transfer", "events": [
			["TXA", 12, 1700000000, "ALICE", "BOB", "2500000"]
		]}
	]}`
	client, _ := newGateway(t, nil, events)

	log, err := client.FungibleEvents(context.Background(), 100, 10, 50)
	require.NoError(t, err)

	require.Len(t, log.Transfers, 1)
	assert.Equal(t, "2500000", log.Transfers[0].Amount)
	assert.Empty(t, log.Transfers[0].TokenID)
}

func TestGateway_MarketEvents_Decode(t *testing.T) {
	price := make([]byte, 41)
	price[0] = 0x01
	price[8] = 0x2a  // currency 42
	price[40] = 0x64 // price 100
	priceHex := hex.EncodeToString(price)

	events := fmt.Sprintf(`{"events": [
		{"name": "e_offer_ListEvent", "events": [
			["TXL", 15, 1700000000, 7, 100, "3", "ALICE", "0x%s"]
		]},
		{"name": "e_offer_AcceptEvent", "events": [
			["TXC", 22, 1700000500, 7]
		]},
		{"name": "e_offer_DeleteListingEvent", "events": []}
	]}`, priceHex)
	client, _ := newGateway(t, nil, events)

	log, err := client.MarketEvents(context.Background(), 100, 10, 50)
	require.NoError(t, err)

	require.Len(t, log.Listings, 1)
	listing := log.Listings[0]
	assert.Equal(t, uint64(7), listing.ListingID)
	assert.Equal(t, uint64(100), listing.ContractID)
	assert.Equal(t, "3", listing.TokenID)
	assert.Equal(t, "ALICE", listing.Offerer)
	assert.Equal(t, uint64(42), listing.Price.Currency)
	assert.Equal(t, "100", listing.Price.Price.String())

	require.Len(t, log.Accepts, 1)
	assert.Equal(t, uint64(7), log.Accepts[0].ListingID)
	assert.Empty(t, log.Deletes)
}

func TestGateway_NFTEvents_MalformedTuple(t *testing.T) {
	events := `{"events": [
		{"name": "arc72_Transfer", "events": [
			["TX1", 20]
		]}
	]}`
	client, _ := newGateway(t, nil, events)

	_, err := client.NFTEvents(context.Background(), 100, 10, 50)
	require.Error(t, err)
}
