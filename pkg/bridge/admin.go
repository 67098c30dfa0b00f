package bridge

import (
	"context"
	"math/big"
	"time"

	"github.com/dloop-protocol/bridge-engine/internal/metrics"
	"go.uber.org/zap"
)

// Admin operations. All are gated on cfg.AdminID and remain available while
// the bridge is paused so an incident can actually be worked on.

func (c *Controller) requireAdmin(caller string) error {
	if caller != c.cfg.AdminID || caller == "" {
		return ErrUnauthorized
	}
	return nil
}

// Pause halts all state-changing transfer operations. Idempotent.
func (c *Controller) Pause(ctx context.Context, caller string) error {
	if err := c.requireAdmin(caller); err != nil {
		return c.opErr("pause", err)
	}
	if err := c.store.SetSetting(ctx, SettingPaused, "true"); err != nil {
		return err
	}

	c.mu.Lock()
	c.paused = true
	c.mu.Unlock()

	metrics.PausedState.Set(1)
	c.logger.Warn("Bridge paused", zap.String("caller", caller))
	c.sink.Publish(Event{Type: EventBridgePaused, At: c.now()})
	return nil
}

// Unpause resumes normal operation. Idempotent.
func (c *Controller) Unpause(ctx context.Context, caller string) error {
	if err := c.requireAdmin(caller); err != nil {
		return c.opErr("unpause", err)
	}
	if err := c.store.SetSetting(ctx, SettingPaused, "false"); err != nil {
		return err
	}

	c.mu.Lock()
	c.paused = false
	c.mu.Unlock()

	metrics.PausedState.Set(0)
	c.logger.Info("Bridge unpaused", zap.String("caller", caller))
	c.sink.Publish(Event{Type: EventBridgeUnpaused, At: c.now()})
	return nil
}

// AddValidator registers a validator identity.
func (c *Controller) AddValidator(ctx context.Context, caller, validator string) error {
	if err := c.requireAdmin(caller); err != nil {
		return c.opErr("add_validator", err)
	}
	return c.opWrap("add_validator", NewValidatorSet(c.store, c.logger).Add(ctx, validator))
}

// RemoveValidator deregisters a validator identity. Approvals it already cast
// keep counting; see ValidatorSet.
func (c *Controller) RemoveValidator(ctx context.Context, caller, validator string) error {
	if err := c.requireAdmin(caller); err != nil {
		return c.opErr("remove_validator", err)
	}
	return c.opWrap("remove_validator", NewValidatorSet(c.store, c.logger).Remove(ctx, validator))
}

// UpdateValidatorThreshold changes the quorum requirement for future quorum
// evaluations. Transfers already Validated stay Validated.
func (c *Controller) UpdateValidatorThreshold(ctx context.Context, caller string, threshold int) error {
	if err := c.requireAdmin(caller); err != nil {
		return c.opErr("update_threshold", err)
	}
	return c.opWrap("update_threshold", NewValidatorSet(c.store, c.logger).SetThreshold(ctx, threshold))
}

// RegisterTokenMapping binds a locally custodied token to its counterpart.
func (c *Controller) RegisterTokenMapping(ctx context.Context, caller, sourceToken, counterpartToken string, limit *big.Int) error {
	if err := c.requireAdmin(caller); err != nil {
		return c.opErr("register_mapping", err)
	}
	return c.opWrap("register_mapping", NewTokenRegistry(c.store, c.logger).RegisterMapping(ctx, sourceToken, counterpartToken, limit))
}

// SetTokenTransferLimit updates the per-transfer amount above which outbound
// transfers go under timelock. Applies to transfers initiated afterwards.
func (c *Controller) SetTokenTransferLimit(ctx context.Context, caller, sourceToken string, limit *big.Int) error {
	if err := c.requireAdmin(caller); err != nil {
		return c.opErr("set_transfer_limit", err)
	}
	return c.opWrap("set_transfer_limit", NewTokenRegistry(c.store, c.logger).UpdateLimit(ctx, sourceToken, limit))
}

// DeactivateTokenMapping disables new transfers of a token pair.
func (c *Controller) DeactivateTokenMapping(ctx context.Context, caller, sourceToken string) error {
	if err := c.requireAdmin(caller); err != nil {
		return c.opErr("deactivate_mapping", err)
	}
	return c.opWrap("deactivate_mapping", NewTokenRegistry(c.store, c.logger).Deactivate(ctx, sourceToken))
}

// SetCooldown tunes the per-sender initiation cooldown at runtime.
func (c *Controller) SetCooldown(ctx context.Context, caller string, d time.Duration) error {
	if err := c.requireAdmin(caller); err != nil {
		return c.opErr("set_cooldown", err)
	}
	if d < 0 {
		return c.opErr("set_cooldown", ErrInvalidAmount)
	}
	if err := c.store.SetSetting(ctx, SettingCooldown, d.String()); err != nil {
		return err
	}

	c.mu.Lock()
	c.cooldown = d
	c.mu.Unlock()

	c.logger.Info("Cooldown updated", zap.Duration("cooldown", d))
	return nil
}

// SetTimelockDuration tunes the timelock window applied to over-limit
// outbound transfers initiated afterwards.
func (c *Controller) SetTimelockDuration(ctx context.Context, caller string, d time.Duration) error {
	if err := c.requireAdmin(caller); err != nil {
		return c.opErr("set_timelock_duration", err)
	}
	if d < 0 {
		return c.opErr("set_timelock_duration", ErrInvalidAmount)
	}
	if err := c.store.SetSetting(ctx, SettingTimelockDuration, d.String()); err != nil {
		return err
	}

	c.mu.Lock()
	c.timelockDuration = d
	c.mu.Unlock()

	c.logger.Info("Timelock duration updated", zap.Duration("timelock_duration", d))
	return nil
}

// Validators returns the current validator identities.
func (c *Controller) Validators(ctx context.Context) ([]string, error) {
	return NewValidatorSet(c.store, c.logger).Members(ctx)
}

// ValidatorThreshold returns the current quorum requirement.
func (c *Controller) ValidatorThreshold(ctx context.Context) (int, error) {
	return NewValidatorSet(c.store, c.logger).Threshold(ctx)
}

// Paused reports the current pause flag.
func (c *Controller) Paused() bool {
	return c.isPaused()
}

// opWrap counts a failed delegated operation; nil errors pass through.
func (c *Controller) opWrap(op string, err error) error {
	if err != nil {
		return c.opErr(op, err)
	}
	return nil
}
