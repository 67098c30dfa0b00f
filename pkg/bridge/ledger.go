package bridge

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// TransferLedger owns transfer records and their state machine. All
// transitions run under the controller's per-id lock and inside the caller's
// store transaction, so a transition either lands with its side effects or
// not at all.
//
// Terminal states (Completed, Cancelled) admit no further transition under
// any code path; an id that resolved once can never re-enter Pending.
type TransferLedger struct {
	store  Store
	logger *zap.Logger
}

// NewTransferLedger creates a ledger over the given store.
func NewTransferLedger(store Store, logger *zap.Logger) *TransferLedger {
	return &TransferLedger{store: store, logger: logger}
}

// RecordApproval applies one validator approval to the transfer it
// references. When the id is unseen, create is inserted first: the first
// approval implicitly creates the Pending inbound record, freezing the
// approved (token, amount, recipient, sourceNetwork) tuple.
//
// Later approvals must match the frozen tuple exactly; a divergent approval
// fails with ErrParameterMismatch and never counts toward quorum. A validator
// may approve a given id once; duplicates fail with ErrDuplicateApproval.
// The quorum transition to Validated fires exactly once, on the approval that
// takes the distinct-validator count to threshold.
func (l *TransferLedger) RecordApproval(ctx context.Context, approval *Approval, create *Transfer, threshold int) (*Transfer, bool, error) {
	transfer, err := l.store.GetTransfer(ctx, approval.TransferID)
	if err != nil {
		return nil, false, err
	}

	if transfer == nil {
		if err := l.store.CreateTransfer(ctx, create); err != nil {
			return nil, false, err
		}
		transfer = create
		l.logger.Info("Transfer recorded from first approval",
			zap.String("id", transfer.ID),
			zap.String("token", transfer.TargetToken),
			zap.String("amount", amountString(transfer.Amount)))
	}

	if transfer.Status.Terminal() {
		return nil, false, ErrTransferAlreadyResolved
	}

	if !approval.Matches(transfer) {
		return nil, false, ErrParameterMismatch
	}

	existing, err := l.store.GetApprovals(ctx, transfer.ID)
	if err != nil {
		return nil, false, err
	}
	for _, a := range existing {
		if a.Validator == approval.Validator {
			return nil, false, ErrDuplicateApproval
		}
	}

	if err := l.store.AddApproval(ctx, approval); err != nil {
		return nil, false, err
	}

	count := len(existing) + 1
	l.logger.Info("Approval recorded",
		zap.String("id", transfer.ID),
		zap.String("validator", approval.Validator),
		zap.Int("approvals", count),
		zap.Int("threshold", threshold))

	quorum := false
	if count >= threshold && (transfer.Status == StatusPending || transfer.Status == StatusTimelockPending) {
		if err := l.store.UpdateTransferStatus(ctx, transfer.ID, StatusValidated, nil); err != nil {
			return nil, false, err
		}
		transfer.Status = StatusValidated
		quorum = true
		l.logger.Info("Transfer validated", zap.String("id", transfer.ID))
	}

	return transfer, quorum, nil
}

// Complete moves a transfer to Completed. Callers have already verified the
// transition is legal; the guard here is the terminal invariant.
func (l *TransferLedger) Complete(ctx context.Context, id string, at time.Time) error {
	transfer, err := l.store.GetTransfer(ctx, id)
	if err != nil {
		return err
	}
	if transfer == nil {
		return ErrTransferNotFound
	}
	if transfer.Status == StatusCompleted {
		return ErrAlreadyCompleted
	}
	if transfer.Status.Terminal() {
		return ErrTransferAlreadyResolved
	}
	return l.store.UpdateTransferStatus(ctx, id, StatusCompleted, &at)
}

// Cancel moves a Pending or TimelockPending transfer to Cancelled.
func (l *TransferLedger) Cancel(ctx context.Context, id string) error {
	transfer, err := l.store.GetTransfer(ctx, id)
	if err != nil {
		return err
	}
	if transfer == nil {
		return ErrTransferNotFound
	}
	if transfer.Status.Terminal() {
		return ErrTransferAlreadyResolved
	}
	if transfer.Status != StatusPending && transfer.Status != StatusTimelockPending {
		return ErrNotCancellable
	}
	return l.store.UpdateTransferStatus(ctx, id, StatusCancelled, nil)
}
