package bridge

import (
	"context"
	"math/big"
)

// Read-side operations. These are permissionless and available while paused.

// GetTransfer returns the transfer with the given id.
func (c *Controller) GetTransfer(ctx context.Context, id string) (*Transfer, error) {
	transfer, err := c.store.GetTransfer(ctx, id)
	if err != nil {
		return nil, err
	}
	if transfer == nil {
		return nil, ErrTransferNotFound
	}
	return transfer, nil
}

// GetTransferApprovalCount returns how many distinct validators have approved
// the transfer.
func (c *Controller) GetTransferApprovalCount(ctx context.Context, id string) (int, error) {
	transfer, err := c.store.GetTransfer(ctx, id)
	if err != nil {
		return 0, err
	}
	if transfer == nil {
		return 0, ErrTransferNotFound
	}
	return c.store.CountApprovals(ctx, id)
}

// GetTransferApprovals returns the individual approvals cast for the transfer.
func (c *Controller) GetTransferApprovals(ctx context.Context, id string) ([]*Approval, error) {
	transfer, err := c.store.GetTransfer(ctx, id)
	if err != nil {
		return nil, err
	}
	if transfer == nil {
		return nil, ErrTransferNotFound
	}
	return c.store.GetApprovals(ctx, id)
}

// IsTransferCompleted reports whether the transfer has reached Completed.
// Unknown ids report false rather than an error so relayers can poll ids they
// expect to appear.
func (c *Controller) IsTransferCompleted(ctx context.Context, id string) (bool, error) {
	transfer, err := c.store.GetTransfer(ctx, id)
	if err != nil {
		return false, err
	}
	return transfer != nil && transfer.Status == StatusCompleted, nil
}

// ListTransfers returns the most recent transfers, newest first.
func (c *Controller) ListTransfers(ctx context.Context, limit int) ([]*Transfer, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	return c.store.ListTransfers(ctx, limit)
}

// EscrowBalance returns the custodied balance for a token.
func (c *Controller) EscrowBalance(ctx context.Context, token string) (*big.Int, error) {
	return NewEscrowVault(c.store, c.logger).Balance(ctx, token)
}

// GetTransferStats returns aggregate activity across all transfers.
func (c *Controller) GetTransferStats(ctx context.Context) (*TransferStats, error) {
	return c.store.TransferStats(ctx)
}

// GetTokenTransferStats returns aggregate activity for one token, including
// its current escrow balance.
func (c *Controller) GetTokenTransferStats(ctx context.Context, token string) (*TokenTransferStats, error) {
	stats, err := c.store.TokenTransferStats(ctx, token)
	if err != nil {
		return nil, err
	}
	balance, err := c.store.EscrowBalance(ctx, token)
	if err != nil {
		return nil, err
	}
	stats.EscrowBalance = balance
	return stats, nil
}
