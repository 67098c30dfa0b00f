package bridge

import (
	"context"
	"strconv"

	"go.uber.org/zap"
)

// ValidatorSet manages the authorized validator identities and the quorum
// threshold. Membership changes never retroactively touch approvals already
// cast: quorum is evaluated incrementally at approval time, so removing a
// validator cannot flip a transfer that was legitimately quorate.
type ValidatorSet struct {
	store  Store
	logger *zap.Logger
}

// NewValidatorSet creates a validator set over the given store.
func NewValidatorSet(store Store, logger *zap.Logger) *ValidatorSet {
	return &ValidatorSet{store: store, logger: logger}
}

// Bootstrap seeds members and threshold on first start. It is a no-op when a
// threshold is already stored.
func (v *ValidatorSet) Bootstrap(ctx context.Context, members []string, threshold int) error {
	stored, err := v.store.GetSetting(ctx, SettingThreshold)
	if err != nil {
		return err
	}
	if stored != "" {
		return nil
	}

	for _, id := range members {
		if err := v.store.AddValidator(ctx, id); err != nil {
			return err
		}
	}
	if err := v.store.SetSetting(ctx, SettingThreshold, strconv.Itoa(threshold)); err != nil {
		return err
	}

	v.logger.Info("Bootstrapped validator set",
		zap.Int("members", len(members)),
		zap.Int("threshold", threshold))
	return nil
}

// Add registers a validator. Adding an existing member is a no-op so retried
// admin scripts stay simple.
func (v *ValidatorSet) Add(ctx context.Context, id string) error {
	if id == "" {
		return ErrUnauthorized
	}
	if err := v.store.AddValidator(ctx, id); err != nil {
		return err
	}
	v.logger.Info("Validator added", zap.String("validator", id))
	return nil
}

// Remove deregisters a validator; removing a non-member is a no-op. A removal
// that would leave the threshold above the member count is rejected.
func (v *ValidatorSet) Remove(ctx context.Context, id string) error {
	member, err := v.store.IsValidator(ctx, id)
	if err != nil {
		return err
	}
	if !member {
		return nil
	}

	members, err := v.store.ListValidators(ctx)
	if err != nil {
		return err
	}
	threshold, err := v.Threshold(ctx)
	if err != nil {
		return err
	}
	if threshold > len(members)-1 {
		return ErrInvalidThreshold
	}

	if err := v.store.RemoveValidator(ctx, id); err != nil {
		return err
	}
	v.logger.Info("Validator removed", zap.String("validator", id))
	return nil
}

// SetThreshold updates the quorum requirement, rejecting zero or anything
// above the current member count.
func (v *ValidatorSet) SetThreshold(ctx context.Context, n int) error {
	members, err := v.store.ListValidators(ctx)
	if err != nil {
		return err
	}
	if n < 1 || n > len(members) {
		return ErrInvalidThreshold
	}

	if err := v.store.SetSetting(ctx, SettingThreshold, strconv.Itoa(n)); err != nil {
		return err
	}
	v.logger.Info("Validator threshold updated", zap.Int("threshold", n))
	return nil
}

// Threshold returns the current quorum requirement.
func (v *ValidatorSet) Threshold(ctx context.Context) (int, error) {
	raw, err := v.store.GetSetting(ctx, SettingThreshold)
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// IsMember reports whether id is a current validator.
func (v *ValidatorSet) IsMember(ctx context.Context, id string) (bool, error) {
	return v.store.IsValidator(ctx, id)
}

// Members returns the current validator identities.
func (v *ValidatorSet) Members(ctx context.Context) ([]string, error) {
	return v.store.ListValidators(ctx)
}
