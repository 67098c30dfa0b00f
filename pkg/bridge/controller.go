package bridge

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/dloop-protocol/bridge-engine/internal/metrics"
	"go.uber.org/zap"
)

// Config carries the engine policy knobs. Cooldown and TimelockDuration seed
// the initial values; admin updates are persisted in settings and win after a
// restart.
type Config struct {
	// SourceNetwork is the ledger this deployment custodies escrow on;
	// TargetNetwork is its counterpart.
	SourceNetwork string
	TargetNetwork string

	// AdminID is the only identity allowed to call admin operations.
	AdminID string

	// MaxTransferAmount is a hard cap per transfer; nil means uncapped.
	MaxTransferAmount *big.Int

	Cooldown         time.Duration
	TimelockDuration time.Duration
	LivenessTimeout  time.Duration

	// BootstrapValidators/BootstrapThreshold seed the validator set on an
	// empty store.
	BootstrapValidators []string
	BootstrapThreshold  int
}

// Controller orchestrates the registry, validator set, vault and ledger. It
// owns policy enforcement (pause, cooldown, caps, capability checks) and the
// per-aggregate serialization described below.
//
// Concurrency model: operations on the same transfer id take that id's mutex,
// operations touching a token's escrow take that token's mutex (id lock
// first). Combined with the store transaction wrapping each operation, two
// validators approving the same id concurrently cannot both fire the quorum
// transition, and two releases cannot both pass a liquidity check the balance
// only covers once.
type Controller struct {
	store  Store
	cfg    Config
	logger *zap.Logger
	sink   Sink

	idLocks     *lockTable
	tokenLocks  *lockTable
	senderLocks *lockTable

	mu               sync.RWMutex
	paused           bool
	cooldown         time.Duration
	timelockDuration time.Duration

	now func() time.Time
}

// NewController builds the controller, bootstraps the validator set on first
// start and restores the persisted pause flag and duration overrides.
func NewController(ctx context.Context, store Store, cfg Config, sink Sink, logger *zap.Logger) (*Controller, error) {
	if sink == nil {
		sink = NopSink{}
	}
	c := &Controller{
		store:            store,
		cfg:              cfg,
		logger:           logger,
		sink:             sink,
		idLocks:          newLockTable(),
		tokenLocks:       newLockTable(),
		senderLocks:      newLockTable(),
		cooldown:         cfg.Cooldown,
		timelockDuration: cfg.TimelockDuration,
		now:              time.Now,
	}

	validators := NewValidatorSet(store, logger)
	if err := validators.Bootstrap(ctx, cfg.BootstrapValidators, cfg.BootstrapThreshold); err != nil {
		return nil, err
	}

	paused, err := store.GetSetting(ctx, SettingPaused)
	if err != nil {
		return nil, err
	}
	c.paused = paused == "true"
	if c.paused {
		metrics.PausedState.Set(1)
	}

	if raw, err := store.GetSetting(ctx, SettingCooldown); err != nil {
		return nil, err
	} else if raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			c.cooldown = d
		}
	}
	if raw, err := store.GetSetting(ctx, SettingTimelockDuration); err != nil {
		return nil, err
	} else if raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			c.timelockDuration = d
		}
	}

	return c, nil
}

// InitiateOutbound validates and locks an outbound transfer: funds move into
// escrow and a Pending record is created, or TimelockPending when the amount
// exceeds the token's per-transfer limit.
func (c *Controller) InitiateOutbound(ctx context.Context, sender, token string, amount *big.Int, recipient, targetNetwork string) (*Transfer, error) {
	if c.isPaused() {
		return nil, c.opErr("initiate_outbound", ErrBridgePaused)
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, c.opErr("initiate_outbound", ErrInvalidAmount)
	}
	if !validAddress(sender) {
		return nil, c.opErr("initiate_outbound", ErrUnauthorized)
	}
	if !validAddress(recipient) {
		return nil, c.opErr("initiate_outbound", ErrInvalidRecipient)
	}
	if targetNetwork == "" {
		targetNetwork = c.cfg.TargetNetwork
	}
	if c.cfg.MaxTransferAmount != nil && amount.Cmp(c.cfg.MaxTransferAmount) > 0 {
		return nil, c.opErr("initiate_outbound", ErrLimitExceeded)
	}

	mapping, err := NewTokenRegistry(c.store, c.logger).Resolve(ctx, token)
	if err != nil {
		return nil, c.opErr("initiate_outbound", err)
	}

	unlockSender := c.senderLocks.acquire(sender)
	defer unlockSender()

	last, err := c.store.LastOutboundInitiation(ctx, sender)
	if err != nil {
		return nil, err
	}
	if last != nil && c.now().Sub(*last) < c.cooldownValue() {
		return nil, c.opErr("initiate_outbound", ErrCooldownActive)
	}

	unlockToken := c.tokenLocks.acquire(token)
	defer unlockToken()

	var transfer *Transfer
	err = c.store.RunInTx(ctx, func(tx Store) error {
		nonce, err := tx.NextNonce(ctx, sender)
		if err != nil {
			return err
		}
		now := c.now()

		if err := NewEscrowVault(tx, c.logger).Lock(ctx, token, amount); err != nil {
			return err
		}

		status := StatusPending
		var releaseAt *time.Time
		if mapping.TimelockApplies(amount) {
			status = StatusTimelockPending
			t := now.Add(c.timelockValue())
			releaseAt = &t
		}

		transfer = &Transfer{
			ID:                deriveTransferID(sender, nonce, now),
			Direction:         DirectionOutbound,
			Status:            status,
			SourceToken:       token,
			TargetToken:       mapping.CounterpartToken,
			Amount:            new(big.Int).Set(amount),
			Sender:            sender,
			Recipient:         recipient,
			SourceNetwork:     c.cfg.SourceNetwork,
			TargetNetwork:     targetNetwork,
			CreatedAt:         now,
			TimelockReleaseAt: releaseAt,
		}
		return tx.CreateTransfer(ctx, transfer)
	})
	if err != nil {
		return nil, c.opErr("initiate_outbound", err)
	}

	c.logger.Info("Outbound transfer initiated",
		zap.String("id", transfer.ID),
		zap.String("token", token),
		zap.String("amount", amount.String()),
		zap.String("status", string(transfer.Status)))

	metrics.TransfersTotal.WithLabelValues(string(DirectionOutbound), string(transfer.Status)).Inc()
	metrics.PendingTransfers.WithLabelValues(string(DirectionOutbound)).Inc()
	observeAmount(DirectionOutbound, token, amount)
	trackEscrow(token, amount, 1)
	c.sink.Publish(transferEvent(EventTransferInitiated, transfer, transfer.CreatedAt))

	return transfer, nil
}

// ApproveInbound records one validator's approval of an inbound transfer.
// The first approval for an unseen id creates the Pending record with the
// approved tuple frozen; the quorum transition to Validated fires on the
// approval that reaches threshold.
func (c *Controller) ApproveInbound(ctx context.Context, validator, id, token string, amount *big.Int, recipient, sourceNetwork, sourceSender string) error {
	if c.isPaused() {
		return c.opErr("approve_inbound", ErrBridgePaused)
	}
	if id == "" {
		return c.opErr("approve_inbound", ErrInvalidTransferID)
	}
	if amount == nil || amount.Sign() <= 0 {
		return c.opErr("approve_inbound", ErrInvalidAmount)
	}
	if !validAddress(recipient) {
		return c.opErr("approve_inbound", ErrInvalidRecipient)
	}

	validators := NewValidatorSet(c.store, c.logger)
	member, err := validators.IsMember(ctx, validator)
	if err != nil {
		return err
	}
	if !member {
		metrics.ApprovalsTotal.WithLabelValues("unauthorized").Inc()
		return c.opErr("approve_inbound", ErrNotValidator)
	}
	threshold, err := validators.Threshold(ctx)
	if err != nil {
		return err
	}

	unlock := c.idLocks.acquire(id)
	defer unlock()

	var transfer *Transfer
	var quorum, created bool
	err = c.store.RunInTx(ctx, func(tx Store) error {
		mapping, err := NewTokenRegistry(tx, c.logger).Resolve(ctx, token)
		if err != nil {
			return err
		}
		existing, err := tx.GetTransfer(ctx, id)
		if err != nil {
			return err
		}
		created = existing == nil
		now := c.now()

		approval := &Approval{
			TransferID:    id,
			Validator:     validator,
			Token:         token,
			Amount:        new(big.Int).Set(amount),
			Recipient:     recipient,
			SourceNetwork: sourceNetwork,
			CreatedAt:     now,
		}
		create := &Transfer{
			ID:            id,
			Direction:     DirectionInbound,
			Status:        StatusPending,
			SourceToken:   mapping.CounterpartToken,
			TargetToken:   token,
			Amount:        new(big.Int).Set(amount),
			Sender:        sourceSender,
			Recipient:     recipient,
			SourceNetwork: sourceNetwork,
			TargetNetwork: c.cfg.SourceNetwork,
			CreatedAt:     now,
		}

		transfer, quorum, err = NewTransferLedger(tx, c.logger).RecordApproval(ctx, approval, create, threshold)
		return err
	})
	if err != nil {
		metrics.ApprovalsTotal.WithLabelValues("rejected").Inc()
		return c.opErr("approve_inbound", err)
	}

	metrics.ApprovalsTotal.WithLabelValues("accepted").Inc()
	if created {
		metrics.TransfersTotal.WithLabelValues(string(DirectionInbound), string(StatusPending)).Inc()
		metrics.PendingTransfers.WithLabelValues(string(DirectionInbound)).Inc()
		observeAmount(DirectionInbound, token, amount)
	}
	now := c.now()
	event := transferEvent(EventTransferApproved, transfer, now)
	event.Validator = validator
	c.sink.Publish(event)
	if quorum {
		metrics.TransfersTotal.WithLabelValues(string(transfer.Direction), string(StatusValidated)).Inc()
		c.sink.Publish(transferEvent(EventTransferValidated, transfer, now))
	}

	return nil
}

// Finalize completes a transfer. Inbound: requires Validated, atomically
// debits escrow and credits the recipient; insufficient liquidity leaves the
// transfer Validated for a later retry. Outbound: completes from Pending and
// publishes the completion event the counterpart chain acts on (the local
// validator set does not vote on exits). Callable by anyone.
//
// A transfer carrying an unexpired timelock cannot be finalized regardless of
// status: quorum never shortens the release time.
func (c *Controller) Finalize(ctx context.Context, id string) error {
	if c.isPaused() {
		return c.opErr("finalize", ErrBridgePaused)
	}

	unlock := c.idLocks.acquire(id)
	defer unlock()

	transfer, err := c.store.GetTransfer(ctx, id)
	if err != nil {
		return err
	}
	if transfer == nil {
		return c.opErr("finalize", ErrTransferNotFound)
	}
	switch transfer.Status {
	case StatusCompleted:
		return c.opErr("finalize", ErrAlreadyCompleted)
	case StatusCancelled:
		return c.opErr("finalize", ErrTransferAlreadyResolved)
	case StatusTimelockPending:
		return c.opErr("finalize", ErrTimelockActive)
	}
	if transfer.TimelockReleaseAt != nil && c.now().Before(*transfer.TimelockReleaseAt) {
		return c.opErr("finalize", ErrTimelockActive)
	}
	if transfer.Direction == DirectionInbound && transfer.Status != StatusValidated {
		return c.opErr("finalize", ErrNotQuorate)
	}

	token := localToken(transfer)
	unlockToken := c.tokenLocks.acquire(token)
	defer unlockToken()

	now := c.now()
	err = c.store.RunInTx(ctx, func(tx Store) error {
		if transfer.Direction == DirectionInbound {
			if err := NewEscrowVault(tx, c.logger).Release(ctx, token, transfer.Recipient, transfer.Amount); err != nil {
				return err
			}
		}
		return NewTransferLedger(tx, c.logger).Complete(ctx, id, now)
	})
	if err != nil {
		return c.opErr("finalize", err)
	}

	c.logger.Info("Transfer finalized",
		zap.String("id", id),
		zap.String("direction", string(transfer.Direction)),
		zap.String("amount", amountString(transfer.Amount)))

	transfer.Status = StatusCompleted
	metrics.TransfersTotal.WithLabelValues(string(transfer.Direction), string(StatusCompleted)).Inc()
	metrics.PendingTransfers.WithLabelValues(string(transfer.Direction)).Dec()
	if transfer.Direction == DirectionInbound {
		trackEscrow(token, transfer.Amount, -1)
	}
	c.sink.Publish(transferEvent(EventTransferCompleted, transfer, now))
	return nil
}

// Cancel aborts a Pending or TimelockPending transfer after the liveness
// timeout. The original sender may cancel their own outbound transfer;
// inbound records are admin-only since no local party locked funds. Outbound
// cancellation refunds the escrowed amount in the same transaction.
func (c *Controller) Cancel(ctx context.Context, caller, id string) error {
	if c.isPaused() {
		return c.opErr("cancel", ErrBridgePaused)
	}

	unlock := c.idLocks.acquire(id)
	defer unlock()

	transfer, err := c.store.GetTransfer(ctx, id)
	if err != nil {
		return err
	}
	if transfer == nil {
		return c.opErr("cancel", ErrTransferNotFound)
	}
	if transfer.Status.Terminal() {
		return c.opErr("cancel", ErrTransferAlreadyResolved)
	}
	if transfer.Status != StatusPending && transfer.Status != StatusTimelockPending {
		return c.opErr("cancel", ErrNotCancellable)
	}

	authorized := caller == c.cfg.AdminID ||
		(transfer.Direction == DirectionOutbound && caller == transfer.Sender)
	if !authorized {
		return c.opErr("cancel", ErrUnauthorized)
	}

	if c.now().Sub(transfer.CreatedAt) < c.cfg.LivenessTimeout {
		return c.opErr("cancel", ErrLivenessTimeoutActive)
	}

	token := localToken(transfer)
	unlockToken := c.tokenLocks.acquire(token)
	defer unlockToken()

	now := c.now()
	err = c.store.RunInTx(ctx, func(tx Store) error {
		if transfer.Direction == DirectionOutbound {
			if err := NewEscrowVault(tx, c.logger).Refund(ctx, token, transfer.Sender, transfer.Amount); err != nil {
				return err
			}
		}
		return NewTransferLedger(tx, c.logger).Cancel(ctx, id)
	})
	if err != nil {
		return c.opErr("cancel", err)
	}

	c.logger.Info("Transfer cancelled",
		zap.String("id", id),
		zap.String("caller", caller))

	transfer.Status = StatusCancelled
	metrics.TransfersTotal.WithLabelValues(string(transfer.Direction), string(StatusCancelled)).Inc()
	metrics.PendingTransfers.WithLabelValues(string(transfer.Direction)).Dec()
	if transfer.Direction == DirectionOutbound {
		trackEscrow(token, transfer.Amount, -1)
	}
	c.sink.Publish(transferEvent(EventTransferCancelled, transfer, now))
	return nil
}

// ExecuteTimelockTransfer completes a TimelockPending transfer once the
// release time has passed. Only over-limit outbound initiations enter
// TimelockPending, and outbound release happens on the counterpart chain
// against that chain's quorum, so elapsed time alone suffices; no local
// escrow moves.
func (c *Controller) ExecuteTimelockTransfer(ctx context.Context, id string) error {
	if c.isPaused() {
		return c.opErr("execute_timelock", ErrBridgePaused)
	}

	unlock := c.idLocks.acquire(id)
	defer unlock()

	transfer, err := c.store.GetTransfer(ctx, id)
	if err != nil {
		return err
	}
	if transfer == nil {
		return c.opErr("execute_timelock", ErrTransferNotFound)
	}
	switch transfer.Status {
	case StatusCompleted:
		return c.opErr("execute_timelock", ErrAlreadyCompleted)
	case StatusCancelled:
		return c.opErr("execute_timelock", ErrTransferAlreadyResolved)
	}
	if transfer.Status != StatusTimelockPending {
		return c.opErr("execute_timelock", ErrNotTimelocked)
	}
	if transfer.TimelockReleaseAt == nil || c.now().Before(*transfer.TimelockReleaseAt) {
		return c.opErr("execute_timelock", ErrTimelockActive)
	}

	now := c.now()
	err = c.store.RunInTx(ctx, func(tx Store) error {
		return NewTransferLedger(tx, c.logger).Complete(ctx, id, now)
	})
	if err != nil {
		return c.opErr("execute_timelock", err)
	}

	c.logger.Info("Timelocked transfer executed", zap.String("id", id))

	transfer.Status = StatusCompleted
	metrics.TransfersTotal.WithLabelValues(string(transfer.Direction), string(StatusCompleted)).Inc()
	metrics.PendingTransfers.WithLabelValues(string(transfer.Direction)).Dec()
	c.sink.Publish(transferEvent(EventTransferCompleted, transfer, now))
	return nil
}

func (c *Controller) isPaused() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.paused
}

func (c *Controller) cooldownValue() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cooldown
}

func (c *Controller) timelockValue() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.timelockDuration
}

// opErr counts an operation failure before surfacing it.
func (c *Controller) opErr(op string, err error) error {
	metrics.ErrorsTotal.WithLabelValues(op, categoryLabel(err)).Inc()
	return err
}

func observeAmount(direction Direction, token string, amount *big.Int) {
	f, _ := new(big.Float).SetInt(amount).Float64()
	metrics.TransferAmount.WithLabelValues(string(direction), token).Observe(f)
}

// trackEscrow moves the escrow gauge by sign*amount.
func trackEscrow(token string, amount *big.Int, sign int) {
	f, _ := new(big.Float).SetInt(amount).Float64()
	if sign < 0 {
		f = -f
	}
	metrics.EscrowBalance.WithLabelValues(token).Add(f)
}
