package bridge

import (
	"context"
	"math/big"

	"go.uber.org/zap"
)

// TokenRegistry maps locally custodied tokens to their counterpart on the
// other chain. Mutations are admin-gated by the controller.
type TokenRegistry struct {
	store  Store
	logger *zap.Logger
}

// NewTokenRegistry creates a registry over the given store.
func NewTokenRegistry(store Store, logger *zap.Logger) *TokenRegistry {
	return &TokenRegistry{store: store, logger: logger}
}

// RegisterMapping records a new token pair. It rejects the mapping when
// either side is already bound to a different active counterpart, so a token
// cannot be silently redirected while liquidity is in flight.
func (r *TokenRegistry) RegisterMapping(ctx context.Context, sourceToken, counterpartToken string, limit *big.Int) error {
	if sourceToken == "" || counterpartToken == "" {
		return ErrUnsupportedToken
	}

	existing, err := r.store.GetMapping(ctx, sourceToken)
	if err != nil {
		return err
	}
	if existing != nil && existing.Active && existing.CounterpartToken != counterpartToken {
		return ErrMappingConflict
	}

	reverse, err := r.store.GetMappingByCounterpart(ctx, counterpartToken)
	if err != nil {
		return err
	}
	if reverse != nil && reverse.Active && reverse.SourceToken != sourceToken {
		return ErrMappingConflict
	}

	mapping := &TokenMapping{
		SourceToken:      sourceToken,
		CounterpartToken: counterpartToken,
		Active:           true,
		PerTransferLimit: limit,
	}
	if err := r.store.UpsertMapping(ctx, mapping); err != nil {
		return err
	}

	r.logger.Info("Registered token mapping",
		zap.String("source_token", sourceToken),
		zap.String("counterpart_token", counterpartToken))
	return nil
}

// UpdateLimit changes the per-transfer limit of an existing mapping. A nil or
// zero limit removes the timelock requirement.
func (r *TokenRegistry) UpdateLimit(ctx context.Context, sourceToken string, limit *big.Int) error {
	mapping, err := r.store.GetMapping(ctx, sourceToken)
	if err != nil {
		return err
	}
	if mapping == nil {
		return ErrMappingNotFound
	}

	mapping.PerTransferLimit = limit
	if err := r.store.UpsertMapping(ctx, mapping); err != nil {
		return err
	}

	r.logger.Info("Updated token transfer limit", zap.String("source_token", sourceToken))
	return nil
}

// Deactivate disables a mapping. In-flight transfers keep the tokens frozen
// on their records and are unaffected.
func (r *TokenRegistry) Deactivate(ctx context.Context, sourceToken string) error {
	mapping, err := r.store.GetMapping(ctx, sourceToken)
	if err != nil {
		return err
	}
	if mapping == nil {
		return ErrMappingNotFound
	}

	mapping.Active = false
	if err := r.store.UpsertMapping(ctx, mapping); err != nil {
		return err
	}

	r.logger.Info("Deactivated token mapping", zap.String("source_token", sourceToken))
	return nil
}

// Resolve returns the active mapping for a locally custodied token. Pure read.
func (r *TokenRegistry) Resolve(ctx context.Context, sourceToken string) (*TokenMapping, error) {
	mapping, err := r.store.GetMapping(ctx, sourceToken)
	if err != nil {
		return nil, err
	}
	if mapping == nil || !mapping.Active {
		return nil, ErrUnsupportedToken
	}
	return mapping, nil
}
