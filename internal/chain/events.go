package chain

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nautilusoss/voi-indexer/internal/domain"
)

// readonlyRequest is a read-only method simulation against a contract.
// Returns selects the declared ABI return type when a method is deployed
// with more than one encoding.
type readonlyRequest struct {
	Method  string        `json:"method"`
	Args    []interface{} `json:"args,omitempty"`
	Returns string        `json:"returns,omitempty"`
}

type readonlyResponse struct {
	Success bool            `json:"success"`
	Return  json.RawMessage `json:"return"`
	Error   string          `json:"error,omitempty"`
}

// SimulationError marks a read-only call the contract itself rejected, as
// opposed to a transport failure reaching the gateway.
type SimulationError struct {
	Method  string
	Message string
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("simulation of %s failed: %s", e.Method, e.Message)
}

// IsSimulationFailure reports whether err is a contract-side simulation
// rejection rather than a transport failure.
func IsSimulationFailure(err error) bool {
	var simErr *SimulationError
	return errors.As(err, &simErr)
}

// call simulates a read-only method and returns the raw return value.
func (c *gatewayClient) call(ctx context.Context, contractID uint64, method string, args []interface{}, returns string) (json.RawMessage, error) {
	url := fmt.Sprintf("%s/v1/contracts/%d/readonly", c.baseURL, contractID)
	req := readonlyRequest{Method: method, Args: args, Returns: returns}

	var resp readonlyResponse
	if err := c.httpClient.PostJSON(ctx, url, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to call %s on contract %d: %w", method, contractID, err)
	}

	if !resp.Success {
		return nil, &SimulationError{Method: method, Message: resp.Error}
	}

	return resp.Return, nil
}

func (c *gatewayClient) callString(ctx context.Context, contractID uint64, method string, args []interface{}) (string, error) {
	raw, err := c.call(ctx, contractID, method, args, "")
	if err != nil {
		return "", err
	}

	value, err := rawString(raw)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s return: %w", method, err)
	}
	return value, nil
}

type eventGroup struct {
	Name   string              `json:"name"`
	Events [][]json.RawMessage `json:"events"`
}

type eventsResponse struct {
	Events []eventGroup `json:"events"`
}

// events fetches the raw event log for a round window, grouped by event name.
func (c *gatewayClient) events(ctx context.Context, contractID, minRound, maxRound uint64) (map[string][][]json.RawMessage, error) {
	url := fmt.Sprintf("%s/v1/contracts/%d/events?min-round=%d&max-round=%d", c.baseURL, contractID, minRound, maxRound)

	var resp eventsResponse
	if err := c.httpClient.Get(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("failed to get events of contract %d: %w", contractID, err)
	}

	groups := make(map[string][][]json.RawMessage, len(resp.Events))
	for _, group := range resp.Events {
		groups[group.Name] = group.Events
	}
	return groups, nil
}

// Positional tuple decoding. Event payloads arrive as heterogeneous JSON
// arrays; they are decoded into named-field records here, once, at the
// transport boundary.

func rawString(m json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(m))
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(m, &s); err != nil {
			return "", err
		}
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(m, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

func rawUint64(m json.RawMessage) (uint64, error) {
	s, err := rawString(m)
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(s, 10, 64)
}

func rawBool(m json.RawMessage) (bool, error) {
	var b bool
	if err := json.Unmarshal(m, &b); err != nil {
		return false, err
	}
	return b, nil
}

func rawBytes(m json.RawMessage) ([]byte, error) {
	s, err := rawString(m)
	if err != nil {
		return nil, err
	}
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}

func tupleString(tuple []json.RawMessage, i int) (string, error) {
	if i >= len(tuple) {
		return "", fmt.Errorf("%w: missing element %d", domain.ErrMalformedEvent, i)
	}
	s, err := rawString(tuple[i])
	if err != nil {
		return "", fmt.Errorf("%w: element %d: %v", domain.ErrMalformedEvent, i, err)
	}
	return s, nil
}

func tupleUint64(tuple []json.RawMessage, i int) (uint64, error) {
	if i >= len(tuple) {
		return 0, fmt.Errorf("%w: missing element %d", domain.ErrMalformedEvent, i)
	}
	v, err := rawUint64(tuple[i])
	if err != nil {
		return 0, fmt.Errorf("%w: element %d: %v", domain.ErrMalformedEvent, i, err)
	}
	return v, nil
}

func tupleBytes(tuple []json.RawMessage, i int) ([]byte, error) {
	if i >= len(tuple) {
		return nil, fmt.Errorf("%w: missing element %d", domain.ErrMalformedEvent, i)
	}
	b, err := rawBytes(tuple[i])
	if err != nil {
		return nil, fmt.Errorf("%w: element %d: %v", domain.ErrMalformedEvent, i, err)
	}
	return b, nil
}

// decodeEventHead decodes the (txid, round, timestamp) prefix common to all
// event tuples.
func decodeEventHead(tuple []json.RawMessage) (txID string, round, timestamp uint64, err error) {
	if txID, err = tupleString(tuple, 0); err != nil {
		return
	}
	if round, err = tupleUint64(tuple, 1); err != nil {
		return
	}
	timestamp, err = tupleUint64(tuple, 2)
	return
}

// [txid, round, timestamp, from, to, tokenId]
func decodeNFTTransfer(tuple []json.RawMessage) (domain.TransferEvent, error) {
	event, err := decodeTransferParts(tuple)
	if err != nil {
		return domain.TransferEvent{}, err
	}
	event.TokenID = event.Amount
	event.Amount = ""
	return event, nil
}

// [txid, round, timestamp, from, to, amount]
func decodeFungibleTransfer(tuple []json.RawMessage) (domain.TransferEvent, error) {
	return decodeTransferParts(tuple)
}

func decodeTransferParts(tuple []json.RawMessage) (domain.TransferEvent, error) {
	txID, round, timestamp, err := decodeEventHead(tuple)
	if err != nil {
		return domain.TransferEvent{}, err
	}

	from, err := tupleString(tuple, 3)
	if err != nil {
		return domain.TransferEvent{}, err
	}
	to, err := tupleString(tuple, 4)
	if err != nil {
		return domain.TransferEvent{}, err
	}
	value, err := tupleString(tuple, 5)
	if err != nil {
		return domain.TransferEvent{}, err
	}

	return domain.TransferEvent{
		TxID:      txID,
		Round:     round,
		Timestamp: timestamp,
		From:      from,
		To:        to,
		Amount:    value,
	}, nil
}

// [txid, round, timestamp, owner, approved, tokenId]
func decodeNFTApproval(tuple []json.RawMessage) (domain.ApprovalEvent, error) {
	event, err := decodeApprovalParts(tuple)
	if err != nil {
		return domain.ApprovalEvent{}, err
	}
	event.TokenID = event.Amount
	event.Amount = ""
	return event, nil
}

// [txid, round, timestamp, owner, spender, amount]
func decodeFungibleApproval(tuple []json.RawMessage) (domain.ApprovalEvent, error) {
	return decodeApprovalParts(tuple)
}

func decodeApprovalParts(tuple []json.RawMessage) (domain.ApprovalEvent, error) {
	txID, round, timestamp, err := decodeEventHead(tuple)
	if err != nil {
		return domain.ApprovalEvent{}, err
	}

	owner, err := tupleString(tuple, 3)
	if err != nil {
		return domain.ApprovalEvent{}, err
	}
	spender, err := tupleString(tuple, 4)
	if err != nil {
		return domain.ApprovalEvent{}, err
	}
	value, err := tupleString(tuple, 5)
	if err != nil {
		return domain.ApprovalEvent{}, err
	}

	return domain.ApprovalEvent{
		TxID:      txID,
		Round:     round,
		Timestamp: timestamp,
		Owner:     owner,
		Spender:   spender,
		Amount:    value,
	}, nil
}

// [txid, round, timestamp, listingId, collectionId, tokenId, listAddr, listPrice]
func decodeListing(tuple []json.RawMessage) (domain.ListingEvent, error) {
	txID, round, timestamp, err := decodeEventHead(tuple)
	if err != nil {
		return domain.ListingEvent{}, err
	}

	listingID, err := tupleUint64(tuple, 3)
	if err != nil {
		return domain.ListingEvent{}, err
	}
	contractID, err := tupleUint64(tuple, 4)
	if err != nil {
		return domain.ListingEvent{}, err
	}
	tokenID, err := tupleString(tuple, 5)
	if err != nil {
		return domain.ListingEvent{}, err
	}
	offerer, err := tupleString(tuple, 6)
	if err != nil {
		return domain.ListingEvent{}, err
	}
	priceBytes, err := tupleBytes(tuple, 7)
	if err != nil {
		return domain.ListingEvent{}, err
	}

	price, err := domain.DecodeListPrice(priceBytes)
	if err != nil {
		return domain.ListingEvent{}, fmt.Errorf("%w: %v", domain.ErrMalformedEvent, err)
	}

	return domain.ListingEvent{
		TxID:       txID,
		Round:      round,
		Timestamp:  timestamp,
		ListingID:  listingID,
		ContractID: contractID,
		TokenID:    tokenID,
		Offerer:    offerer,
		Price:      price,
	}, nil
}

// [txid, round, timestamp, listingId]
func decodeListingTerminal(tuple []json.RawMessage) (domain.ListingTerminalEvent, error) {
	txID, round, timestamp, err := decodeEventHead(tuple)
	if err != nil {
		return domain.ListingTerminalEvent{}, err
	}

	listingID, err := tupleUint64(tuple, 3)
	if err != nil {
		return domain.ListingTerminalEvent{}, err
	}

	return domain.ListingTerminalEvent{
		TxID:      txID,
		Round:     round,
		Timestamp: timestamp,
		ListingID: listingID,
	}, nil
}
