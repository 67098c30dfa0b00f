// Package bridge implements the validator-threshold transfer engine: escrow
// custody, the transfer state machine, and the controller orchestrating them.
package bridge

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// Direction indicates which way a transfer moves value.
type Direction string

const (
	// DirectionOutbound locks funds locally for release on the counterpart chain.
	DirectionOutbound Direction = "outbound"
	// DirectionInbound releases locally escrowed funds against counterpart-chain events.
	DirectionInbound Direction = "inbound"
)

// Status represents the current state of a transfer.
type Status string

const (
	StatusPending         Status = "pending"
	StatusTimelockPending Status = "timelock_pending"
	StatusValidated       Status = "validated"
	StatusCompleted       Status = "completed"
	StatusCancelled       Status = "cancelled"
)

// Terminal reports whether no further transition may leave this status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Transfer is the central entity of the engine. Records are never deleted;
// terminal rows remain for audit and replay protection.
type Transfer struct {
	ID        string
	Direction Direction
	Status    Status

	// SourceToken/TargetToken are resolved via the registry at creation time
	// and frozen; later registry changes do not affect an in-flight transfer.
	SourceToken string
	TargetToken string

	// Amount is in the token's smallest unit, net of any upstream fee.
	Amount *big.Int

	Sender    string
	Recipient string

	SourceNetwork string
	TargetNetwork string

	CreatedAt         time.Time
	UpdatedAt         time.Time
	TimelockReleaseAt *time.Time
	CompletedAt       *time.Time
}

// Approval records a validator's vote on a transfer, with the exact tuple it
// approved against for front-run detection.
type Approval struct {
	TransferID    string
	Validator     string
	Token         string
	Amount        *big.Int
	Recipient     string
	SourceNetwork string
	CreatedAt     time.Time
}

// Matches reports whether the approval agrees with the parameters frozen on
// the transfer record.
func (a *Approval) Matches(t *Transfer) bool {
	return a.Token == t.TargetToken &&
		a.Amount != nil && t.Amount != nil && a.Amount.Cmp(t.Amount) == 0 &&
		a.Recipient == t.Recipient &&
		a.SourceNetwork == t.SourceNetwork
}

// TokenMapping pairs a locally custodied token with its counterpart on the
// other chain.
type TokenMapping struct {
	SourceToken      string
	CounterpartToken string
	Active           bool

	// PerTransferLimit places outbound transfers above it under timelock.
	// Nil or zero means unlimited.
	PerTransferLimit *big.Int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TimelockApplies reports whether amount exceeds the mapping's per-transfer limit.
func (m *TokenMapping) TimelockApplies(amount *big.Int) bool {
	if m.PerTransferLimit == nil || m.PerTransferLimit.Sign() == 0 {
		return false
	}
	return amount.Cmp(m.PerTransferLimit) > 0
}

// TransferStats aggregates activity across all transfers.
type TransferStats struct {
	TotalCount     int64           `json:"total_count"`
	CompletedCount int64           `json:"completed_count"`
	CancelledCount int64           `json:"cancelled_count"`
	PendingCount   int64           `json:"pending_count"`
	TotalVolume    decimal.Decimal `json:"total_volume"`
}

// TokenTransferStats aggregates activity for a single token.
type TokenTransferStats struct {
	Token          string          `json:"token"`
	TransferCount  int64           `json:"transfer_count"`
	CompletedCount int64           `json:"completed_count"`
	Volume         decimal.Decimal `json:"volume"`
	EscrowBalance  *big.Int        `json:"escrow_balance"`
}
