package store

import (
	"context"
	"sort"
	"sync"

	"github.com/nautilusoss/voi-indexer/internal/domain"
	"github.com/nautilusoss/voi-indexer/internal/store/schema"
)

// MemoryStore is an in-memory Store used by tests. It mirrors the
// PostgreSQL implementation's conflict semantics: natural-key upserts,
// tx_id deduplication, terminal-marker exclusivity and a monotonic
// watermark.
type MemoryStore struct {
	mu sync.Mutex

	collections map[uint64]*schema.Collection
	tokens      map[uint64]map[string]*schema.Token
	transfers   map[string]*schema.TokenTransfer
	approvals   map[string]*schema.TokenApproval

	fungibles         map[uint64]*schema.FungibleToken
	balances          map[uint64]map[string]*schema.AccountBalance
	fungibleTransfers map[string]*schema.FungibleTransfer

	listings map[uint64]map[uint64]*schema.OfferListing
	accepts  map[string]*schema.OfferAccept
	deletes  map[string]*schema.OfferDelete

	watermarks map[uint64]uint64
	tracked    map[uint64]*schema.TrackedContract
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections:       make(map[uint64]*schema.Collection),
		tokens:            make(map[uint64]map[string]*schema.Token),
		transfers:         make(map[string]*schema.TokenTransfer),
		approvals:         make(map[string]*schema.TokenApproval),
		fungibles:         make(map[uint64]*schema.FungibleToken),
		balances:          make(map[uint64]map[string]*schema.AccountBalance),
		fungibleTransfers: make(map[string]*schema.FungibleTransfer),
		listings:          make(map[uint64]map[uint64]*schema.OfferListing),
		accepts:           make(map[string]*schema.OfferAccept),
		deletes:           make(map[string]*schema.OfferDelete),
		watermarks:        make(map[uint64]uint64),
		tracked:           make(map[uint64]*schema.TrackedContract),
	}
}

func (s *MemoryStore) UpsertCollection(_ context.Context, collection *schema.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.collections[collection.ContractID]; ok {
		existing.TotalSupply = collection.TotalSupply
		existing.GlobalState = collection.GlobalState
		existing.LastSyncRound = collection.LastSyncRound
		return nil
	}
	c := *collection
	s.collections[collection.ContractID] = &c
	return nil
}

func (s *MemoryStore) UpdateCollectionTotalSupply(_ context.Context, contractID uint64, totalSupply string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.collections[contractID]; ok {
		c.TotalSupply = totalSupply
	}
	return nil
}

// GetCollection is a test helper not present on the Store interface
func (s *MemoryStore) GetCollection(_ context.Context, contractID uint64) (*schema.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[contractID]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) UpsertToken(_ context.Context, token *schema.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID, ok := s.tokens[token.ContractID]
	if !ok {
		byID = make(map[string]*schema.Token)
		s.tokens[token.ContractID] = byID
	}
	if existing, ok := byID[token.TokenID]; ok {
		if token.TokenIndex != 0 {
			existing.TokenIndex = token.TokenIndex
		}
		existing.Owner = token.Owner
		existing.Approved = token.Approved
		existing.MetadataURI = token.MetadataURI
		existing.Metadata = token.Metadata
		return nil
	}
	t := *token
	byID[token.TokenID] = &t
	return nil
}

func (s *MemoryStore) UpdateTokenOwner(_ context.Context, contractID uint64, tokenID, owner, approved string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tokens[contractID][tokenID]; ok {
		t.Owner = owner
		t.Approved = approved
	}
	return nil
}

func (s *MemoryStore) UpdateTokenApproved(_ context.Context, contractID uint64, tokenID, approved string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tokens[contractID][tokenID]; ok {
		t.Approved = approved
	}
	return nil
}

func (s *MemoryStore) GetToken(_ context.Context, contractID uint64, tokenID string) (*schema.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[contractID][tokenID]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (s *MemoryStore) InsertTokenTransfer(_ context.Context, transfer *schema.TokenTransfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transfers[transfer.TxID]; ok {
		return nil
	}
	t := *transfer
	s.transfers[transfer.TxID] = &t
	return nil
}

// CountTokenTransfers is a test helper not present on the Store interface
func (s *MemoryStore) CountTokenTransfers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transfers)
}

func (s *MemoryStore) InsertTokenApproval(_ context.Context, approval *schema.TokenApproval) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.approvals[approval.TxID]; ok {
		return nil
	}
	a := *approval
	s.approvals[approval.TxID] = &a
	return nil
}

func (s *MemoryStore) UpsertFungibleToken(_ context.Context, token *schema.FungibleToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.fungibles[token.ContractID]; ok {
		existing.Name = token.Name
		existing.Symbol = token.Symbol
		existing.Decimals = token.Decimals
		existing.TotalSupply = token.TotalSupply
		return nil
	}
	t := *token
	s.fungibles[token.ContractID] = &t
	return nil
}

// GetFungibleToken is a test helper not present on the Store interface
func (s *MemoryStore) GetFungibleToken(_ context.Context, contractID uint64) (*schema.FungibleToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.fungibles[contractID]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (s *MemoryStore) UpsertAccountBalance(_ context.Context, balance *schema.AccountBalance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byAccount, ok := s.balances[balance.ContractID]
	if !ok {
		byAccount = make(map[string]*schema.AccountBalance)
		s.balances[balance.ContractID] = byAccount
	}
	if existing, ok := byAccount[balance.AccountID]; ok {
		existing.Balance = balance.Balance
		return nil
	}
	b := *balance
	byAccount[balance.AccountID] = &b
	return nil
}

// GetAccountBalance is a test helper not present on the Store interface
func (s *MemoryStore) GetAccountBalance(_ context.Context, contractID uint64, accountID string) (*schema.AccountBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.balances[contractID][accountID]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (s *MemoryStore) InsertFungibleTransfer(_ context.Context, transfer *schema.FungibleTransfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.fungibleTransfers[transfer.TxID]; ok {
		return nil
	}
	t := *transfer
	s.fungibleTransfers[transfer.TxID] = &t
	return nil
}

// CountFungibleTransfers is a test helper not present on the Store interface
func (s *MemoryStore) CountFungibleTransfers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fungibleTransfers)
}

func (s *MemoryStore) UpsertOfferListing(_ context.Context, listing *schema.OfferListing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byListing, ok := s.listings[listing.MpContractID]
	if !ok {
		byListing = make(map[uint64]*schema.OfferListing)
		s.listings[listing.MpContractID] = byListing
	}
	if existing, ok := byListing[listing.MpListingID]; ok {
		existing.TxID = listing.TxID
		existing.ContractID = listing.ContractID
		existing.TokenID = listing.TokenID
		existing.Offerer = listing.Offerer
		existing.Currency = listing.Currency
		existing.Price = listing.Price
		existing.CreateRound = listing.CreateRound
		existing.CreateTimestamp = listing.CreateTimestamp
		return nil
	}
	l := *listing
	byListing[listing.MpListingID] = &l
	return nil
}

func (s *MemoryStore) GetOfferListing(_ context.Context, mpContractID, mpListingID uint64) (*schema.OfferListing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.listings[mpContractID][mpListingID]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (s *MemoryStore) AcceptOfferListing(_ context.Context, accept *schema.OfferAccept) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accepts[accept.TxID]; !ok {
		a := *accept
		s.accepts[accept.TxID] = &a
	}
	if l, ok := s.listings[accept.MpContractID][accept.MpListingID]; ok && !l.Terminal() {
		txID := accept.TxID
		l.AcceptTxID = &txID
	}
	return nil
}

func (s *MemoryStore) DeleteOfferListing(_ context.Context, del *schema.OfferDelete) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.deletes[del.TxID]; !ok {
		d := *del
		s.deletes[del.TxID] = &d
	}
	if l, ok := s.listings[del.MpContractID][del.MpListingID]; ok && !l.Terminal() {
		txID := del.TxID
		l.DeleteTxID = &txID
	}
	return nil
}

// CountOfferAccepts is a test helper not present on the Store interface
func (s *MemoryStore) CountOfferAccepts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accepts)
}

// CountOfferDeletes is a test helper not present on the Store interface
func (s *MemoryStore) CountOfferDeletes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.deletes)
}

func (s *MemoryStore) GetSyncWatermark(_ context.Context, contractID uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watermarks[contractID], nil
}

func (s *MemoryStore) SetSyncWatermark(_ context.Context, contractID uint64, round uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if round > s.watermarks[contractID] {
		s.watermarks[contractID] = round
	}
	return nil
}

func (s *MemoryStore) TrackContract(_ context.Context, contract *schema.TrackedContract) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.tracked[contract.ContractID]; ok {
		if contract.Kind != string(domain.KindUnknown) {
			existing.Kind = contract.Kind
		}
		return nil
	}
	c := *contract
	s.tracked[contract.ContractID] = &c
	return nil
}

func (s *MemoryStore) ListTrackedContracts(_ context.Context) ([]schema.TrackedContract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contracts := make([]schema.TrackedContract, 0, len(s.tracked))
	for _, c := range s.tracked {
		contracts = append(contracts, *c)
	}
	sort.Slice(contracts, func(i, j int) bool {
		return contracts[i].ContractID < contracts[j].ContractID
	})
	return contracts, nil
}
