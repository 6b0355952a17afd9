package chain

import (
	"context"
	"fmt"
	"sort"

	"github.com/nautilusoss/voi-indexer/internal/adapter"
	"github.com/nautilusoss/voi-indexer/internal/domain"
)

// gatewayClient talks to the chain-data gateway service over REST.
type gatewayClient struct {
	baseURL    string
	httpClient adapter.HTTPClient
}

// NewGatewayClient creates a chain client backed by the gateway REST API.
func NewGatewayClient(baseURL string, httpClient adapter.HTTPClient) Client {
	return &gatewayClient{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

type statusResponse struct {
	CurrentRound uint64 `json:"current-round"`
}

// CurrentRound returns the latest finalized round
func (c *gatewayClient) CurrentRound(ctx context.Context) (uint64, error) {
	url := fmt.Sprintf("%s/v1/status", c.baseURL)

	var status statusResponse
	if err := c.httpClient.Get(ctx, url, &status); err != nil {
		return 0, fmt.Errorf("failed to get chain status: %w", err)
	}

	return status.CurrentRound, nil
}

// ContractInfo returns creator, creation round and decoded global state
func (c *gatewayClient) ContractInfo(ctx context.Context, contractID uint64) (*ContractInfo, error) {
	url := fmt.Sprintf("%s/v1/contracts/%d", c.baseURL, contractID)

	var info ContractInfo
	if err := c.httpClient.Get(ctx, url, &info); err != nil {
		return nil, fmt.Errorf("failed to get contract %d: %w", contractID, err)
	}

	return &info, nil
}

type accountAssetsResponse struct {
	TotalCount int `json:"total-count"`
}

// AccountAssetCount returns the number of external assets held by the
// contract's escrow account
func (c *gatewayClient) AccountAssetCount(ctx context.Context, contractID uint64) (int, error) {
	url := fmt.Sprintf("%s/v1/contracts/%d/assets", c.baseURL, contractID)

	var assets accountAssetsResponse
	if err := c.httpClient.Get(ctx, url, &assets); err != nil {
		return 0, fmt.Errorf("failed to get assets of contract %d: %w", contractID, err)
	}

	return assets.TotalCount, nil
}

// SupportsInterface probes a capability selector. Deployed contracts answer
// with either a bool or a byte return; both encodings are tried before the
// probe is considered denied.
func (c *gatewayClient) SupportsInterface(ctx context.Context, contractID uint64, selector [4]byte) (bool, error) {
	arg := fmt.Sprintf("0x%02x%02x%02x%02x", selector[0], selector[1], selector[2], selector[3])

	raw, err := c.call(ctx, contractID, "supportsInterface", []interface{}{arg}, "bool")
	if err == nil {
		supported, decodeErr := rawBool(raw)
		if decodeErr == nil {
			return supported, nil
		}
	} else if !IsSimulationFailure(err) {
		return false, err
	}

	raw, err = c.call(ctx, contractID, "supportsInterface", []interface{}{arg}, "byte")
	if err != nil {
		if IsSimulationFailure(err) {
			return false, nil
		}
		return false, err
	}

	value, err := rawUint64(raw)
	if err != nil {
		return false, fmt.Errorf("failed to decode supportsInterface return: %w", err)
	}
	return value != 0, nil
}

// NFTEvents returns the decoded NFT event log for [minRound, maxRound]
func (c *gatewayClient) NFTEvents(ctx context.Context, contractID, minRound, maxRound uint64) (*NFTEventLog, error) {
	groups, err := c.events(ctx, contractID, minRound, maxRound)
	if err != nil {
		return nil, err
	}

	log := &NFTEventLog{}
	for _, tuple := range groups[EventNFTTransfer] {
		event, err := decodeNFTTransfer(tuple)
		if err != nil {
			return nil, fmt.Errorf("contract %d: %w", contractID, err)
		}
		log.Transfers = append(log.Transfers, event)
	}
	for _, tuple := range groups[EventNFTApproval] {
		event, err := decodeNFTApproval(tuple)
		if err != nil {
			return nil, fmt.Errorf("contract %d: %w", contractID, err)
		}
		log.Approvals = append(log.Approvals, event)
	}

	sortTransfers(log.Transfers)
	sortApprovals(log.Approvals)
	return log, nil
}

// FungibleEvents returns the decoded fungible event log for [minRound, maxRound]
func (c *gatewayClient) FungibleEvents(ctx context.Context, contractID, minRound, maxRound uint64) (*FungibleEventLog, error) {
	groups, err := c.events(ctx, contractID, minRound, maxRound)
	if err != nil {
		return nil, err
	}

	log := &FungibleEventLog{}
	for _, tuple := range groups[EventFungibleTransfer] {
		event, err := decodeFungibleTransfer(tuple)
		if err != nil {
			return nil, fmt.Errorf("contract %d: %w", contractID, err)
		}
		log.Transfers = append(log.Transfers, event)
	}
	for _, tuple := range groups[EventFungibleApproval] {
		event, err := decodeFungibleApproval(tuple)
		if err != nil {
			return nil, fmt.Errorf("contract %d: %w", contractID, err)
		}
		log.Approvals = append(log.Approvals, event)
	}

	sortTransfers(log.Transfers)
	sortApprovals(log.Approvals)
	return log, nil
}

// MarketEvents returns the decoded marketplace event log for [minRound, maxRound]
func (c *gatewayClient) MarketEvents(ctx context.Context, contractID, minRound, maxRound uint64) (*MarketEventLog, error) {
	groups, err := c.events(ctx, contractID, minRound, maxRound)
	if err != nil {
		return nil, err
	}

	log := &MarketEventLog{}
	for _, tuple := range groups[EventMarketList] {
		event, err := decodeListing(tuple)
		if err != nil {
			return nil, fmt.Errorf("contract %d: %w", contractID, err)
		}
		log.Listings = append(log.Listings, event)
	}
	for _, tuple := range groups[EventMarketAccept] {
		event, err := decodeListingTerminal(tuple)
		if err != nil {
			return nil, fmt.Errorf("contract %d: %w", contractID, err)
		}
		log.Accepts = append(log.Accepts, event)
	}
	for _, tuple := range groups[EventMarketDelete] {
		event, err := decodeListingTerminal(tuple)
		if err != nil {
			return nil, fmt.Errorf("contract %d: %w", contractID, err)
		}
		log.Deletes = append(log.Deletes, event)
	}

	sortListings(log.Listings)
	sortTerminals(log.Accepts)
	sortTerminals(log.Deletes)
	return log, nil
}

// NFTTotalSupply returns arc72_totalSupply as a decimal string
func (c *gatewayClient) NFTTotalSupply(ctx context.Context, contractID uint64) (string, error) {
	return c.callString(ctx, contractID, "arc72_totalSupply", nil)
}

// NFTOwnerOf returns the current owner of a token
func (c *gatewayClient) NFTOwnerOf(ctx context.Context, contractID uint64, tokenID string) (string, error) {
	return c.callString(ctx, contractID, "arc72_ownerOf", []interface{}{tokenID})
}

// NFTGetApproved returns the approved spender of a token
func (c *gatewayClient) NFTGetApproved(ctx context.Context, contractID uint64, tokenID string) (string, error) {
	return c.callString(ctx, contractID, "arc72_getApproved", []interface{}{tokenID})
}

// NFTTokenURI returns the metadata URI of a token
func (c *gatewayClient) NFTTokenURI(ctx context.Context, contractID uint64, tokenID string) (string, error) {
	uri, err := c.callString(ctx, contractID, "arc72_tokenURI", []interface{}{tokenID})
	if err != nil {
		return "", err
	}
	return domain.TrimNull(uri), nil
}

// NFTTokenByIndex returns the token ID at the given index
func (c *gatewayClient) NFTTokenByIndex(ctx context.Context, contractID uint64, index uint64) (string, error) {
	return c.callString(ctx, contractID, "arc72_tokenByIndex", []interface{}{index})
}

// FungibleName returns arc200_name
func (c *gatewayClient) FungibleName(ctx context.Context, contractID uint64) (string, error) {
	name, err := c.callString(ctx, contractID, "arc200_name", nil)
	if err != nil {
		return "", err
	}
	return domain.TrimNull(name), nil
}

// FungibleSymbol returns arc200_symbol
func (c *gatewayClient) FungibleSymbol(ctx context.Context, contractID uint64) (string, error) {
	symbol, err := c.callString(ctx, contractID, "arc200_symbol", nil)
	if err != nil {
		return "", err
	}
	return domain.TrimNull(symbol), nil
}

// FungibleDecimals returns arc200_decimals
func (c *gatewayClient) FungibleDecimals(ctx context.Context, contractID uint64) (uint8, error) {
	raw, err := c.call(ctx, contractID, "arc200_decimals", nil, "")
	if err != nil {
		return 0, err
	}

	value, err := rawUint64(raw)
	if err != nil {
		return 0, fmt.Errorf("failed to decode arc200_decimals return: %w", err)
	}
	if value > 255 {
		return 0, fmt.Errorf("arc200_decimals out of range: %d", value)
	}
	return uint8(value), nil
}

// FungibleTotalSupply returns arc200_totalSupply as a decimal string
func (c *gatewayClient) FungibleTotalSupply(ctx context.Context, contractID uint64) (string, error) {
	return c.callString(ctx, contractID, "arc200_totalSupply", nil)
}

// FungibleBalanceOf returns arc200_balanceOf(account) as a decimal string
func (c *gatewayClient) FungibleBalanceOf(ctx context.Context, contractID uint64, account string) (string, error) {
	return c.callString(ctx, contractID, "arc200_balanceOf", []interface{}{account})
}

// ResolveName resolves a token's name through the auxiliary naming contract
func (c *gatewayClient) ResolveName(ctx context.Context, resolverID uint64, tokenID string) (string, error) {
	name, err := c.callString(ctx, resolverID, "name", []interface{}{tokenID})
	if err != nil {
		return "", err
	}
	return domain.TrimNull(name), nil
}

func sortTransfers(events []domain.TransferEvent) {
	sort.SliceStable(events, func(i, j int) bool { return events[i].Round < events[j].Round })
}

func sortApprovals(events []domain.ApprovalEvent) {
	sort.SliceStable(events, func(i, j int) bool { return events[i].Round < events[j].Round })
}

func sortListings(events []domain.ListingEvent) {
	sort.SliceStable(events, func(i, j int) bool { return events[i].Round < events[j].Round })
}

func sortTerminals(events []domain.ListingTerminalEvent) {
	sort.SliceStable(events, func(i, j int) bool { return events[i].Round < events[j].Round })
}
