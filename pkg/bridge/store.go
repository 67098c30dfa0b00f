package bridge

import (
	"context"
	"math/big"
	"time"
)

// Store defines the durable state the engine operates on. The Postgres
// implementation lives in pkg/store; tests use an in-memory fake.
type Store interface {
	// RunInTx executes fn against a transaction-scoped view of the store.
	// Every mutation fn performs is committed atomically or not at all.
	RunInTx(ctx context.Context, fn func(tx Store) error) error

	// Transfers. GetTransfer returns (nil, nil) for an unknown id.
	GetTransfer(ctx context.Context, id string) (*Transfer, error)
	CreateTransfer(ctx context.Context, transfer *Transfer) error
	UpdateTransferStatus(ctx context.Context, id string, status Status, completedAt *time.Time) error
	ListTransfers(ctx context.Context, limit int) ([]*Transfer, error)
	LastOutboundInitiation(ctx context.Context, sender string) (*time.Time, error)

	// NextNonce increments and returns the per-sender nonce used for
	// outbound id derivation.
	NextNonce(ctx context.Context, sender string) (int64, error)

	// Approvals. The store enforces at most one row per (transfer, validator).
	AddApproval(ctx context.Context, approval *Approval) error
	GetApprovals(ctx context.Context, transferID string) ([]*Approval, error)
	CountApprovals(ctx context.Context, transferID string) (int, error)

	// Escrow. DebitEscrow fails with ErrInsufficientEscrowLiquidity rather
	// than driving a balance below zero.
	EscrowBalance(ctx context.Context, token string) (*big.Int, error)
	CreditEscrow(ctx context.Context, token string, amount *big.Int) error
	DebitEscrow(ctx context.Context, token string, amount *big.Int) error

	// Validators.
	ListValidators(ctx context.Context) ([]string, error)
	AddValidator(ctx context.Context, id string) error
	RemoveValidator(ctx context.Context, id string) error
	IsValidator(ctx context.Context, id string) (bool, error)

	// Token mappings, keyed by the locally custodied token.
	GetMapping(ctx context.Context, sourceToken string) (*TokenMapping, error)
	GetMappingByCounterpart(ctx context.Context, counterpartToken string) (*TokenMapping, error)
	UpsertMapping(ctx context.Context, mapping *TokenMapping) error

	// Settings is a small durable key-value table (threshold, paused flag,
	// admin-tuned durations). GetSetting returns "" for an unset key.
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// Statistics, computed from the transfers table.
	TransferStats(ctx context.Context) (*TransferStats, error)
	TokenTransferStats(ctx context.Context, token string) (*TokenTransferStats, error)
}

// Setting keys understood by the engine.
const (
	SettingThreshold        = "validator_threshold"
	SettingPaused           = "paused"
	SettingCooldown         = "cooldown"
	SettingTimelockDuration = "timelock_duration"
)
