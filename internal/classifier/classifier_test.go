package classifier_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nautilusoss/voi-indexer/internal/chain"
	"github.com/nautilusoss/voi-indexer/internal/chain/chaintest"
	"github.com/nautilusoss/voi-indexer/internal/classifier"
	"github.com/nautilusoss/voi-indexer/internal/domain"
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

func TestClassify_NFT(t *testing.T) {
	fake := &chaintest.Fake{
		Selectors: map[uint64]map[[4]byte]bool{
			100: {chain.SelectorNFT: true},
		},
	}

	c := classifier.New(fake)
	assert.Equal(t, domain.KindNFT, c.Classify(context.Background(), 100))
}

func TestClassify_Marketplace(t *testing.T) {
	fake := &chaintest.Fake{
		Selectors: map[uint64]map[[4]byte]bool{
			200: {chain.SelectorMarketplace: true},
		},
	}

	c := classifier.New(fake)
	assert.Equal(t, domain.KindMarketplace, c.Classify(context.Background(), 200))
}

func TestClassify_NFTWinsOverMarketplace(t *testing.T) {
	// A contract answering both selectors is classified by probe order.
	fake := &chaintest.Fake{
		Selectors: map[uint64]map[[4]byte]bool{
			300: {chain.SelectorNFT: true, chain.SelectorMarketplace: true},
		},
	}

	c := classifier.New(fake)
	assert.Equal(t, domain.KindNFT, c.Classify(context.Background(), 300))
}

func TestClassify_Fungible(t *testing.T) {
	fake := &chaintest.Fake{
		Names: map[uint64]string{400: "Voi Token"},
	}

	c := classifier.New(fake)
	assert.Equal(t, domain.KindFungible, c.Classify(context.Background(), 400))
}

func TestClassify_LiquidityPool(t *testing.T) {
	fake := &chaintest.Fake{
		Names: map[uint64]string{500: "Pool Share"},
		Infos: map[uint64]*chain.ContractInfo{
			500: {
				ContractID:  500,
				GlobalState: []chain.GlobalStateEntry{{Key: "ratio", Value: "1000000"}},
			},
		},
		AssetCounts: map[uint64]int{500: 0},
	}

	c := classifier.New(fake)
	assert.Equal(t, domain.KindLiquidityPool, c.Classify(context.Background(), 500))
}

func TestClassify_FungibleWithRatioButEscrowAssets(t *testing.T) {
	// Holding external assets in escrow disqualifies the pool refinement.
	fake := &chaintest.Fake{
		Names: map[uint64]string{600: "Not A Pool"},
		Infos: map[uint64]*chain.ContractInfo{
			600: {
				ContractID:  600,
				GlobalState: []chain.GlobalStateEntry{{Key: "ratio", Value: "1"}},
			},
		},
		AssetCounts: map[uint64]int{600: 2},
	}

	c := classifier.New(fake)
	assert.Equal(t, domain.KindFungible, c.Classify(context.Background(), 600))
}

func TestClassify_Unknown(t *testing.T) {
	c := classifier.New(&chaintest.Fake{})
	assert.Equal(t, domain.KindUnknown, c.Classify(context.Background(), 700))
}

func TestClassify_TransportFailureDegradesToUnknown(t *testing.T) {
	fake := &chaintest.Fake{
		Errors: map[string]error{
			"SupportsInterface": errors.New("gateway unreachable"),
			"FungibleName":      errors.New("gateway unreachable"),
		},
	}

	c := classifier.New(fake)
	assert.Equal(t, domain.KindUnknown, c.Classify(context.Background(), 800))
}

func TestClassify_UnknownIsNotCached(t *testing.T) {
	fake := &chaintest.Fake{}
	c := classifier.New(fake)

	assert.Equal(t, domain.KindUnknown, c.Classify(context.Background(), 900))

	// The contract later starts answering the fungible probe.
	fake.Names = map[uint64]string{900: "Late Token"}
	assert.Equal(t, domain.KindFungible, c.Classify(context.Background(), 900))
}

func TestClassify_CachedResultSkipsProbes(t *testing.T) {
	fake := &chaintest.Fake{
		Selectors: map[uint64]map[[4]byte]bool{
			100: {chain.SelectorNFT: true},
		},
	}
	c := classifier.New(fake)

	assert.Equal(t, domain.KindNFT, c.Classify(context.Background(), 100))

	// Breaking the transport afterwards must not matter.
	fake.Errors = map[string]error{"SupportsInterface": errors.New("down")}
	assert.Equal(t, domain.KindNFT, c.Classify(context.Background(), 100))
}

func TestPrime(t *testing.T) {
	fake := &chaintest.Fake{
		Errors: map[string]error{"SupportsInterface": errors.New("down")},
	}
	c := classifier.New(fake)

	c.Prime(100, domain.KindMarketplace)
	assert.Equal(t, domain.KindMarketplace, c.Classify(context.Background(), 100))

	// Priming with Unknown is a no-op.
	c.Prime(200, domain.KindUnknown)
	fake.Errors = nil
	fake.Names = map[uint64]string{200: "Token"}
	assert.Equal(t, domain.KindFungible, c.Classify(context.Background(), 200))
}
