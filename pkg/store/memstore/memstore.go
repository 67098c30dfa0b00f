// Package memstore is an in-memory bridge.Store for tests and local
// development without Postgres.
package memstore

import (
	"context"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dloop-protocol/bridge-engine/pkg/bridge"
)

// Store keeps all state in maps guarded by one mutex. RunInTx serializes on
// the same mutex, which gives the same effective isolation the engine relies
// on, though without rollback on error.
type Store struct {
	mu sync.Mutex

	transfers  map[string]*bridge.Transfer
	approvals  map[string][]*bridge.Approval
	escrow     map[string]*big.Int
	validators map[string]bool
	mappings   map[string]*bridge.TokenMapping
	settings   map[string]string
	nonces     map[string]int64
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		transfers:  make(map[string]*bridge.Transfer),
		approvals:  make(map[string][]*bridge.Approval),
		escrow:     make(map[string]*big.Int),
		validators: make(map[string]bool),
		mappings:   make(map[string]*bridge.TokenMapping),
		settings:   make(map[string]string),
		nonces:     make(map[string]int64),
	}
}

func (s *Store) RunInTx(_ context.Context, fn func(tx bridge.Store) error) error {
	return fn(s)
}

func (s *Store) GetTransfer(_ context.Context, id string) (*bridge.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transfers[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (s *Store) CreateTransfer(_ context.Context, transfer *bridge.Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *transfer
	s.transfers[transfer.ID] = &cp
	return nil
}

func (s *Store) UpdateTransferStatus(_ context.Context, id string, status bridge.Status, completedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transfers[id]
	if !ok {
		return bridge.ErrTransferNotFound
	}
	t.Status = status
	t.UpdatedAt = time.Now()
	if completedAt != nil {
		t.CompletedAt = completedAt
	}
	return nil
}

func (s *Store) ListTransfers(_ context.Context, limit int) ([]*bridge.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*bridge.Transfer, 0, len(s.transfers))
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

func (s *Store) LastOutboundInitiation(_ context.Context, sender string) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var last *time.Time
	for _, t := range s.transfers {
		if t.Direction != bridge.DirectionOutbound || t.Sender != sender {
			continue
		}
		if last == nil || t.CreatedAt.After(*last) {
			at := t.CreatedAt
			last = &at
		}
	}
	return last, nil
}

func (s *Store) NextNonce(_ context.Context, sender string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nonces[sender]++
	return s.nonces[sender], nil
}

func (s *Store) AddApproval(_ context.Context, approval *bridge.Approval) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.approvals[approval.TransferID] {
		if a.Validator == approval.Validator {
			return bridge.ErrDuplicateApproval
		}
	}
	cp := *approval
	s.approvals[approval.TransferID] = append(s.approvals[approval.TransferID], &cp)
	return nil
}

func (s *Store) GetApprovals(_ context.Context, transferID string) ([]*bridge.Approval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.approvals[transferID]
	out := make([]*bridge.Approval, len(src))
	for i, a := range src {
		cp := *a
		out[i] = &cp
	}
	return out, nil
}

func (s *Store) CountApprovals(_ context.Context, transferID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.approvals[transferID]), nil
}

func (s *Store) EscrowBalance(_ context.Context, token string) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.escrow[token]
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(b), nil
}

func (s *Store) CreditEscrow(_ context.Context, token string, amount *big.Int) error {
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

func (s *Store) DebitEscrow(_ context.Context, token string, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.escrow[token]
	if !ok || b.Cmp(amount) < 0 {
		return bridge.ErrInsufficientEscrowLiquidity
	}
	b.Sub(b, amount)
	return nil
}

func (s *Store) ListValidators(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.validators))
	for id := range s.validators {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) AddValidator(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.validators[id] = true
	return nil
}

func (s *Store) RemoveValidator(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.validators, id)
	return nil
}

func (s *Store) IsValidator(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validators[id], nil
}

func (s *Store) GetMapping(_ context.Context, sourceToken string) (*bridge.TokenMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mappings[sourceToken]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (s *Store) GetMappingByCounterpart(_ context.Context, counterpartToken string) (*bridge.TokenMapping, error) {
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

func (s *Store) UpsertMapping(_ context.Context, mapping *bridge.TokenMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *mapping
	s.mappings[mapping.SourceToken] = &cp
	return nil
}

func (s *Store) GetSetting(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings[key], nil
}

func (s *Store) SetSetting(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
	return nil
}

func (s *Store) TransferStats(_ context.Context) (*bridge.TransferStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &bridge.TransferStats{}
	volume := big.NewInt(0)
	for _, t := range s.transfers {
		stats.TotalCount++
		switch t.Status {
		case bridge.StatusCompleted:
			stats.CompletedCount++
			if t.Amount != nil {
				volume.Add(volume, t.Amount)
			}
		case bridge.StatusCancelled:
			stats.CancelledCount++
		default:
			stats.PendingCount++
		}
	}
	stats.TotalVolume = decimalFromBig(volume)
	return stats, nil
}

func (s *Store) TokenTransferStats(_ context.Context, token string) (*bridge.TokenTransferStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &bridge.TokenTransferStats{Token: token}
	volume := big.NewInt(0)
	for _, t := range s.transfers {
		local := t.SourceToken
		if t.Direction == bridge.DirectionInbound {
			local = t.TargetToken
		}
		if local != token {
			continue
		}
		stats.TransferCount++
		if t.Status == bridge.StatusCompleted {
			stats.CompletedCount++
			if t.Amount != nil {
				volume.Add(volume, t.Amount)
			}
		}
	}
	stats.Volume = decimalFromBig(volume)
	return stats, nil
}

func decimalFromBig(v *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(v, 0)
}
