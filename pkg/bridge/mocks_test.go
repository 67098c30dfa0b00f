package bridge

import (
	"context"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// fakeStore is a map-backed Store used by the unit tests. Behavior mirrors
// the Postgres implementation: copies out, duplicate-approval rejection,
// balance-guarded debits.
type fakeStore struct {
	mu sync.Mutex

	transfers  map[string]*Transfer
	approvals  map[string][]*Approval
	escrow     map[string]*big.Int
	validators map[string]bool
	mappings   map[string]*TokenMapping
	settings   map[string]string
	nonces     map[string]int64

	failDebit bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		transfers:  make(map[string]*Transfer),
		approvals:  make(map[string][]*Approval),
		escrow:     make(map[string]*big.Int),
		validators: make(map[string]bool),
		mappings:   make(map[string]*TokenMapping),
		settings:   make(map[string]string),
		nonces:     make(map[string]int64),
	}
}

func (s *fakeStore) RunInTx(_ context.Context, fn func(tx Store) error) error {
	return fn(s)
}

func (s *fakeStore) GetTransfer(_ context.Context, id string) (*Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transfers[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (s *fakeStore) CreateTransfer(_ context.Context, transfer *Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *transfer
	s.transfers[transfer.ID] = &cp
	return nil
}

func (s *fakeStore) UpdateTransferStatus(_ context.Context, id string, status Status, completedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transfers[id]
	if !ok {
		return ErrTransferNotFound
	}
	t.Status = status
	t.UpdatedAt = time.Now()
	if completedAt != nil {
		t.CompletedAt = completedAt
	}
	return nil
}

func (s *fakeStore) ListTransfers(_ context.Context, limit int) ([]*Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Transfer, 0, len(s.transfers))
	for _, t := range s.transfers {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) LastOutboundInitiation(_ context.Context, sender string) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var last *time.Time
	for _, t := range s.transfers {
		if t.Direction != DirectionOutbound || t.Sender != sender {
			continue
		}
		if last == nil || t.CreatedAt.After(*last) {
			at := t.CreatedAt
			last = &at
		}
	}
	return last, nil
}

func (s *fakeStore) NextNonce(_ context.Context, sender string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nonces[sender]++
	return s.nonces[sender], nil
}

func (s *fakeStore) AddApproval(_ context.Context, approval *Approval) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.approvals[approval.TransferID] {
		if a.Validator == approval.Validator {
			return ErrDuplicateApproval
		}
	}
	cp := *approval
	s.approvals[approval.TransferID] = append(s.approvals[approval.TransferID], &cp)
	return nil
}

func (s *fakeStore) GetApprovals(_ context.Context, transferID string) ([]*Approval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.approvals[transferID]
	out := make([]*Approval, len(src))
	for i, a := range src {
		cp := *a
		out[i] = &cp
	}
	return out, nil
}

func (s *fakeStore) CountApprovals(_ context.Context, transferID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.approvals[transferID]), nil
}

func (s *fakeStore) EscrowBalance(_ context.Context, token string) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.escrow[token]
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(b), nil
}

func (s *fakeStore) CreditEscrow(_ context.Context, token string, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.escrow[token]
	if !ok {
		b = big.NewInt(0)
		s.escrow[token] = b
	}
	b.Add(b, amount)
	return nil
}

func (s *fakeStore) DebitEscrow(_ context.Context, token string, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.escrow[token]
	if s.failDebit || !ok || b.Cmp(amount) < 0 {
		return ErrInsufficientEscrowLiquidity
	}
	b.Sub(b, amount)
	return nil
}

func (s *fakeStore) ListValidators(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.validators))
	for id := range s.validators {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (s *fakeStore) AddValidator(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.validators[id] = true
	return nil
}

func (s *fakeStore) RemoveValidator(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.validators, id)
	return nil
}

func (s *fakeStore) IsValidator(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validators[id], nil
}

func (s *fakeStore) GetMapping(_ context.Context, sourceToken string) (*TokenMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mappings[sourceToken]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (s *fakeStore) GetMappingByCounterpart(_ context.Context, counterpartToken string) (*TokenMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.mappings {
		if m.CounterpartToken == counterpartToken {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) UpsertMapping(_ context.Context, mapping *TokenMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *mapping
	s.mappings[mapping.SourceToken] = &cp
	return nil
}

func (s *fakeStore) GetSetting(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings[key], nil
}

func (s *fakeStore) SetSetting(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
	return nil
}

func (s *fakeStore) TransferStats(_ context.Context) (*TransferStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &TransferStats{}
	volume := big.NewInt(0)
	for _, t := range s.transfers {
		stats.TotalCount++
		switch t.Status {
		case StatusCompleted:
			stats.CompletedCount++
			if t.Amount != nil {
				volume.Add(volume, t.Amount)
			}
		case StatusCancelled:
			stats.CancelledCount++
		default:
			stats.PendingCount++
		}
	}
	stats.TotalVolume = decimal.NewFromBigInt(volume, 0)
	return stats, nil
}

func (s *fakeStore) TokenTransferStats(_ context.Context, token string) (*TokenTransferStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &TokenTransferStats{Token: token}
	volume := big.NewInt(0)
	for _, t := range s.transfers {
		local := t.SourceToken
		if t.Direction == DirectionInbound {
			local = t.TargetToken
		}
		if local != token {
			continue
		}
		stats.TransferCount++
		if t.Status == StatusCompleted {
			stats.CompletedCount++
			if t.Amount != nil {
				volume.Add(volume, t.Amount)
			}
		}
	}
	stats.Volume = decimal.NewFromBigInt(volume, 0)
	return stats, nil
}

// recordingSink captures published events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Publish(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) byType(typ EventType) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}
