// Package chaintest provides a scriptable in-memory chain.Client for tests.
package chaintest

import (
	"context"
	"fmt"

	"github.com/nautilusoss/voi-indexer/internal/chain"
)

// Fake is a chain.Client backed by fixture maps. Zero-value maps behave as
// empty chain state; read-only calls on contracts without fixtures return a
// simulation failure, matching a contract that does not implement the
// method. Errors[method] forces a transport error for that method.
type Fake struct {
	Round uint64

	Infos       map[uint64]*chain.ContractInfo
	AssetCounts map[uint64]int
	Selectors   map[uint64]map[[4]byte]bool

	NFTLogs      map[uint64]*chain.NFTEventLog
	FungibleLogs map[uint64]*chain.FungibleEventLog
	MarketLogs   map[uint64]*chain.MarketEventLog

	NFTSupplies   map[uint64]string
	Owners        map[string]string
	Approveds     map[string]string
	URIs          map[string]string
	TokensByIndex map[uint64][]string

	Names            map[uint64]string
	Symbols          map[uint64]string
	DecimalsByID     map[uint64]uint8
	FungibleSupplies map[uint64]string
	Balances         map[string]string

	ResolvedNames map[string]string

	// Errors forces a transport error keyed by method name
	Errors map[string]error
}

// TokenKey builds the composite fixture key for per-token maps.
func TokenKey(contractID uint64, tokenID string) string {
	return fmt.Sprintf("%d:%s", contractID, tokenID)
}

func (f *Fake) forced(method string) error {
	if f.Errors == nil {
		return nil
	}
	return f.Errors[method]
}

func (f *Fake) CurrentRound(context.Context) (uint64, error) {
	if err := f.forced("CurrentRound"); err != nil {
		return 0, err
	}
	return f.Round, nil
}

func (f *Fake) ContractInfo(_ context.Context, contractID uint64) (*chain.ContractInfo, error) {
	if err := f.forced("ContractInfo"); err != nil {
		return nil, err
	}
	if info, ok := f.Infos[contractID]; ok {
		return info, nil
	}
	return &chain.ContractInfo{ContractID: contractID}, nil
}

func (f *Fake) AccountAssetCount(_ context.Context, contractID uint64) (int, error) {
	if err := f.forced("AccountAssetCount"); err != nil {
		return 0, err
	}
	return f.AssetCounts[contractID], nil
}

func (f *Fake) SupportsInterface(_ context.Context, contractID uint64, selector [4]byte) (bool, error) {
	if err := f.forced("SupportsInterface"); err != nil {
		return false, err
	}
	return f.Selectors[contractID][selector], nil
}

func (f *Fake) NFTEvents(_ context.Context, contractID, minRound, maxRound uint64) (*chain.NFTEventLog, error) {
	if err := f.forced("NFTEvents"); err != nil {
		return nil, err
	}
	log := f.NFTLogs[contractID]
	if log == nil {
		return &chain.NFTEventLog{}, nil
	}
	filtered := &chain.NFTEventLog{}
	for _, ev := range log.Transfers {
		if ev.Round >= minRound && ev.Round <= maxRound {
			filtered.Transfers = append(filtered.Transfers, ev)
		}
	}
	for _, ev := range log.Approvals {
		if ev.Round >= minRound && ev.Round <= maxRound {
			filtered.Approvals = append(filtered.Approvals, ev)
		}
	}
	return filtered, nil
}

func (f *Fake) FungibleEvents(_ context.Context, contractID, minRound, maxRound uint64) (*chain.FungibleEventLog, error) {
	if err := f.forced("FungibleEvents"); err != nil {
		return nil, err
	}
	log := f.FungibleLogs[contractID]
	if log == nil {
		return &chain.FungibleEventLog{}, nil
	}
	filtered := &chain.FungibleEventLog{}
	for _, ev := range log.Transfers {
		if ev.Round >= minRound && ev.Round <= maxRound {
			filtered.Transfers = append(filtered.Transfers, ev)
		}
	}
	for _, ev := range log.Approvals {
		if ev.Round >= minRound && ev.Round <= maxRound {
			filtered.Approvals = append(filtered.Approvals, ev)
		}
	}
	return filtered, nil
}

func (f *Fake) MarketEvents(_ context.Context, contractID, minRound, maxRound uint64) (*chain.MarketEventLog, error) {
	if err := f.forced("MarketEvents"); err != nil {
		return nil, err
	}
	log := f.MarketLogs[contractID]
	if log == nil {
		return &chain.MarketEventLog{}, nil
	}
	filtered := &chain.MarketEventLog{}
	for _, ev := range log.Listings {
		if ev.Round >= minRound && ev.Round <= maxRound {
			filtered.Listings = append(filtered.Listings, ev)
		}
	}
	for _, ev := range log.Accepts {
		if ev.Round >= minRound && ev.Round <= maxRound {
			filtered.Accepts = append(filtered.Accepts, ev)
		}
	}
	for _, ev := range log.Deletes {
		if ev.Round >= minRound && ev.Round <= maxRound {
			filtered.Deletes = append(filtered.Deletes, ev)
		}
	}
	return filtered, nil
}

func (f *Fake) NFTTotalSupply(_ context.Context, contractID uint64) (string, error) {
	if err := f.forced("NFTTotalSupply"); err != nil {
		return "", err
	}
	if supply, ok := f.NFTSupplies[contractID]; ok {
		return supply, nil
	}
	return "0", nil
}

func (f *Fake) NFTOwnerOf(_ context.Context, contractID uint64, tokenID string) (string, error) {
	if err := f.forced("NFTOwnerOf"); err != nil {
		return "", err
	}
	if owner, ok := f.Owners[TokenKey(contractID, tokenID)]; ok {
		return owner, nil
	}
	return "", &chain.SimulationError{Method: "arc72_ownerOf", Message: "no such token"}
}

func (f *Fake) NFTGetApproved(_ context.Context, contractID uint64, tokenID string) (string, error) {
	if err := f.forced("NFTGetApproved"); err != nil {
		return "", err
	}
	if approved, ok := f.Approveds[TokenKey(contractID, tokenID)]; ok {
		return approved, nil
	}
	return "", &chain.SimulationError{Method: "arc72_getApproved", Message: "no such token"}
}

func (f *Fake) NFTTokenURI(_ context.Context, contractID uint64, tokenID string) (string, error) {
	if err := f.forced("NFTTokenURI"); err != nil {
		return "", err
	}
	if uri, ok := f.URIs[TokenKey(contractID, tokenID)]; ok {
		return uri, nil
	}
	return "", &chain.SimulationError{Method: "arc72_tokenURI", Message: "no such token"}
}

func (f *Fake) NFTTokenByIndex(_ context.Context, contractID uint64, index uint64) (string, error) {
	if err := f.forced("NFTTokenByIndex"); err != nil {
		return "", err
	}
	tokens := f.TokensByIndex[contractID]
	if index >= uint64(len(tokens)) {
		return "", &chain.SimulationError{Method: "arc72_tokenByIndex", Message: "index out of range"}
	}
	return tokens[index], nil
}

func (f *Fake) FungibleName(_ context.Context, contractID uint64) (string, error) {
	if err := f.forced("FungibleName"); err != nil {
		return "", err
	}
	if name, ok := f.Names[contractID]; ok {
		return name, nil
	}
	return "", &chain.SimulationError{Method: "arc200_name", Message: "unknown method"}
}

func (f *Fake) FungibleSymbol(_ context.Context, contractID uint64) (string, error) {
	if err := f.forced("FungibleSymbol"); err != nil {
		return "", err
	}
	if symbol, ok := f.Symbols[contractID]; ok {
		return symbol, nil
	}
	return "", &chain.SimulationError{Method: "arc200_symbol", Message: "unknown method"}
}

func (f *Fake) FungibleDecimals(_ context.Context, contractID uint64) (uint8, error) {
	if err := f.forced("FungibleDecimals"); err != nil {
		return 0, err
	}
	return f.DecimalsByID[contractID], nil
}

func (f *Fake) FungibleTotalSupply(_ context.Context, contractID uint64) (string, error) {
	if err := f.forced("FungibleTotalSupply"); err != nil {
		return "", err
	}
	if supply, ok := f.FungibleSupplies[contractID]; ok {
		return supply, nil
	}
	return "0", nil
}

func (f *Fake) FungibleBalanceOf(_ context.Context, contractID uint64, account string) (string, error) {
	if err := f.forced("FungibleBalanceOf"); err != nil {
		return "", err
	}
	if balance, ok := f.Balances[TokenKey(contractID, account)]; ok {
		return balance, nil
	}
	return "0", nil
}

func (f *Fake) ResolveName(_ context.Context, resolverID uint64, tokenID string) (string, error) {
	if err := f.forced("ResolveName"); err != nil {
		return "", err
	}
	if name, ok := f.ResolvedNames[TokenKey(resolverID, tokenID)]; ok {
		return name, nil
	}
	return "", &chain.SimulationError{Method: "resolve", Message: "no name"}
}
