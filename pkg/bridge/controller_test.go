package bridge

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestController(t *testing.T) (*Controller, *fakeStore, *recordingSink) {
	t.Helper()
	store := newFakeStore()
	sink := &recordingSink{}
	cfg := Config{
		SourceNetwork:       "chain-a",
		TargetNetwork:       "chain-b",
		AdminID:             "admin",
		MaxTransferAmount:   big.NewInt(1_000_000),
		TimelockDuration:    time.Hour,
		LivenessTimeout:     time.Hour,
		BootstrapValidators: []string{"val-1", "val-2", "val-3"},
		BootstrapThreshold:  2,
	}
	c, err := NewController(context.Background(), store, cfg, sink, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.RegisterTokenMapping(context.Background(), "admin", "TOKA", "WTOKA", nil))
	return c, store, sink
}

// setClock pins the controller clock and returns a function that advances it.
func setClock(c *Controller, start time.Time) func(time.Duration) {
	now := start
	c.now = func() time.Time { return now }
	return func(d time.Duration) { now = now.Add(d) }
}

func approveTransfer(t *testing.T, c *Controller, validator, id string, amount int64) error {
	t.Helper()
	return c.ApproveInbound(context.Background(), validator, id, "TOKA",
		big.NewInt(amount), "recipient-1", "chain-b", "sender-b")
}

func TestInitiateOutbound(t *testing.T) {
	ctx := context.Background()
	c, store, sink := newTestController(t)

	transfer, err := c.InitiateOutbound(ctx, "alice", "TOKA", big.NewInt(100), "bob", "")
	require.NoError(t, err)

	assert.Equal(t, DirectionOutbound, transfer.Direction)
	assert.Equal(t, StatusPending, transfer.Status)
	assert.Equal(t, "TOKA", transfer.SourceToken)
	assert.Equal(t, "WTOKA", transfer.TargetToken)
	assert.Equal(t, "chain-b", transfer.TargetNetwork)
	assert.NotEmpty(t, transfer.ID)

	balance, err := store.EscrowBalance(ctx, "TOKA")
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance.Int64())

	initiated := sink.byType(EventTransferInitiated)
	require.Len(t, initiated, 1)
	assert.Equal(t, transfer.ID, initiated[0].TransferID)
	assert.Equal(t, "100", initiated[0].Amount)
}

func TestInitiateOutboundValidation(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)

	_, err := c.InitiateOutbound(ctx, "alice", "TOKA", big.NewInt(0), "bob", "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = c.InitiateOutbound(ctx, "alice", "TOKA", nil, "bob", "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = c.InitiateOutbound(ctx, "alice", "TOKA", big.NewInt(100), "", "")
	assert.ErrorIs(t, err, ErrInvalidRecipient)

	_, err = c.InitiateOutbound(ctx, "alice", "TOKA", big.NewInt(100), "0xZZ", "")
	assert.ErrorIs(t, err, ErrInvalidRecipient)

	_, err = c.InitiateOutbound(ctx, "alice", "UNKNOWN", big.NewInt(100), "bob", "")
	assert.ErrorIs(t, err, ErrUnsupportedToken)

	_, err = c.InitiateOutbound(ctx, "alice", "TOKA", big.NewInt(2_000_000), "bob", "")
	assert.ErrorIs(t, err, ErrLimitExceeded)
}

func TestInitiateOutboundCooldown(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)
	advance := setClock(c, time.Now())

	require.NoError(t, c.SetCooldown(ctx, "admin", time.Minute))

	_, err := c.InitiateOutbound(ctx, "alice", "TOKA", big.NewInt(10), "bob", "")
	require.NoError(t, err)

	_, err = c.InitiateOutbound(ctx, "alice", "TOKA", big.NewInt(10), "bob", "")
	assert.ErrorIs(t, err, ErrCooldownActive)

	// another sender is unaffected
	_, err = c.InitiateOutbound(ctx, "carol", "TOKA", big.NewInt(10), "bob", "")
	require.NoError(t, err)

	advance(2 * time.Minute)
	_, err = c.InitiateOutbound(ctx, "alice", "TOKA", big.NewInt(10), "bob", "")
	require.NoError(t, err)
}

func TestInitiateOutboundTimelock(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)
	start := time.Now()
	setClock(c, start)

	require.NoError(t, c.SetTokenTransferLimit(ctx, "admin", "TOKA", big.NewInt(100)))

	transfer, err := c.InitiateOutbound(ctx, "alice", "TOKA", big.NewInt(150), "bob", "")
	require.NoError(t, err)
	assert.Equal(t, StatusTimelockPending, transfer.Status)
	require.NotNil(t, transfer.TimelockReleaseAt)
	assert.Equal(t, start.Add(time.Hour), *transfer.TimelockReleaseAt)

	// at or below the limit stays on the fast path
	transfer, err = c.InitiateOutbound(ctx, "dave", "TOKA", big.NewInt(100), "bob", "")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, transfer.Status)
}

func TestApproveInboundQuorum(t *testing.T) {
	ctx := context.Background()
	c, store, sink := newTestController(t)

	require.NoError(t, approveTransfer(t, c, "val-1", "xfer-1", 100))

	transfer, err := store.GetTransfer(ctx, "xfer-1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, transfer.Status)
	assert.Equal(t, DirectionInbound, transfer.Direction)
	assert.Equal(t, "WTOKA", transfer.SourceToken)
	assert.Equal(t, "TOKA", transfer.TargetToken)

	require.NoError(t, approveTransfer(t, c, "val-2", "xfer-1", 100))

	transfer, err = store.GetTransfer(ctx, "xfer-1")
	require.NoError(t, err)
	assert.Equal(t, StatusValidated, transfer.Status)

	// a third approval is recorded but must not fire a second transition
	require.NoError(t, approveTransfer(t, c, "val-3", "xfer-1", 100))

	count, err := c.GetTransferApprovalCount(ctx, "xfer-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Len(t, sink.byType(EventTransferValidated), 1)
	assert.Len(t, sink.byType(EventTransferApproved), 3)
}

func TestApproveInboundDuplicate(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)

	require.NoError(t, approveTransfer(t, c, "val-1", "xfer-1", 100))
	err := approveTransfer(t, c, "val-1", "xfer-1", 100)
	assert.ErrorIs(t, err, ErrDuplicateApproval)

	count, err := c.GetTransferApprovalCount(ctx, "xfer-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestApproveInboundParameterMismatch(t *testing.T) {
	ctx := context.Background()
	c, store, _ := newTestController(t)

	require.NoError(t, approveTransfer(t, c, "val-1", "xfer-1", 100))

	// divergent amount must not count toward quorum
	err := approveTransfer(t, c, "val-2", "xfer-1", 999)
	assert.ErrorIs(t, err, ErrParameterMismatch)

	err = c.ApproveInbound(ctx, "val-2", "xfer-1", "TOKA",
		big.NewInt(100), "attacker", "chain-b", "sender-b")
	assert.ErrorIs(t, err, ErrParameterMismatch)

	count, err := c.GetTransferApprovalCount(ctx, "xfer-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	transfer, err := store.GetTransfer(ctx, "xfer-1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, transfer.Status)
}

func TestApproveInboundAuthorization(t *testing.T) {
	c, _, _ := newTestController(t)

	err := approveTransfer(t, c, "mallory", "xfer-1", 100)
	assert.ErrorIs(t, err, ErrNotValidator)
}

func TestApproveInboundValidation(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)

	err := c.ApproveInbound(ctx, "val-1", "", "TOKA", big.NewInt(100), "recipient-1", "chain-b", "sender-b")
	assert.ErrorIs(t, err, ErrInvalidTransferID)

	err = c.ApproveInbound(ctx, "val-1", "xfer-1", "TOKA", nil, "recipient-1", "chain-b", "sender-b")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	err = c.ApproveInbound(ctx, "val-1", "xfer-1", "TOKA", big.NewInt(0), "recipient-1", "chain-b", "sender-b")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestApproveInboundAfterResolution(t *testing.T) {
	ctx := context.Background()
	c, store, _ := newTestController(t)

	require.NoError(t, store.CreditEscrow(ctx, "TOKA", big.NewInt(1000)))
	require.NoError(t, approveTransfer(t, c, "val-1", "xfer-1", 100))
	require.NoError(t, approveTransfer(t, c, "val-2", "xfer-1", 100))
	require.NoError(t, c.Finalize(ctx, "xfer-1"))

	err := approveTransfer(t, c, "val-3", "xfer-1", 100)
	assert.ErrorIs(t, err, ErrTransferAlreadyResolved)
}

func TestFinalizeInbound(t *testing.T) {
	ctx := context.Background()
	c, store, sink := newTestController(t)

	require.NoError(t, store.CreditEscrow(ctx, "TOKA", big.NewInt(1000)))
	require.NoError(t, approveTransfer(t, c, "val-1", "xfer-1", 100))
	require.NoError(t, approveTransfer(t, c, "val-2", "xfer-1", 100))

	require.NoError(t, c.Finalize(ctx, "xfer-1"))

	transfer, err := store.GetTransfer(ctx, "xfer-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, transfer.Status)
	require.NotNil(t, transfer.CompletedAt)

	balance, err := store.EscrowBalance(ctx, "TOKA")
	require.NoError(t, err)
	assert.Equal(t, int64(900), balance.Int64())

	// finalizing again must not release twice
	err = c.Finalize(ctx, "xfer-1")
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	balance, err = store.EscrowBalance(ctx, "TOKA")
	require.NoError(t, err)
	assert.Equal(t, int64(900), balance.Int64())

	assert.Len(t, sink.byType(EventTransferCompleted), 1)
}

func TestFinalizeInboundRequiresQuorum(t *testing.T) {
	ctx := context.Background()
	c, store, _ := newTestController(t)

	require.NoError(t, store.CreditEscrow(ctx, "TOKA", big.NewInt(1000)))
	require.NoError(t, approveTransfer(t, c, "val-1", "xfer-1", 100))

	err := c.Finalize(ctx, "xfer-1")
	assert.ErrorIs(t, err, ErrNotQuorate)

	balance, err := store.EscrowBalance(ctx, "TOKA")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance.Int64())
}

func TestFinalizeInboundInsufficientLiquidity(t *testing.T) {
	ctx := context.Background()
	c, store, _ := newTestController(t)

	require.NoError(t, approveTransfer(t, c, "val-1", "xfer-1", 100))
	require.NoError(t, approveTransfer(t, c, "val-2", "xfer-1", 100))

	err := c.Finalize(ctx, "xfer-1")
	assert.ErrorIs(t, err, ErrInsufficientEscrowLiquidity)

	// the transfer stays Validated so a later retry can succeed
	transfer, err := store.GetTransfer(ctx, "xfer-1")
	require.NoError(t, err)
	assert.Equal(t, StatusValidated, transfer.Status)

	require.NoError(t, store.CreditEscrow(ctx, "TOKA", big.NewInt(100)))
	require.NoError(t, c.Finalize(ctx, "xfer-1"))
}

func TestFinalizeOutbound(t *testing.T) {
	ctx := context.Background()
	c, store, _ := newTestController(t)

	transfer, err := c.InitiateOutbound(ctx, "alice", "TOKA", big.NewInt(100), "bob", "")
	require.NoError(t, err)

	require.NoError(t, c.Finalize(ctx, transfer.ID))

	got, err := store.GetTransfer(ctx, transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)

	// outbound escrow stays custodied after completion
	balance, err := store.EscrowBalance(ctx, "TOKA")
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance.Int64())
}

func TestFinalizeTimelockPending(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)

	require.NoError(t, c.SetTokenTransferLimit(ctx, "admin", "TOKA", big.NewInt(10)))
	transfer, err := c.InitiateOutbound(ctx, "alice", "TOKA", big.NewInt(50), "bob", "")
	require.NoError(t, err)

	err = c.Finalize(ctx, transfer.ID)
	assert.ErrorIs(t, err, ErrTimelockActive)
}

func TestFinalizeUnknownTransfer(t *testing.T) {
	c, _, _ := newTestController(t)
	err := c.Finalize(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTransferNotFound)
}

func TestCancelOutbound(t *testing.T) {
	ctx := context.Background()
	c, store, sink := newTestController(t)
	advance := setClock(c, time.Now())

	transfer, err := c.InitiateOutbound(ctx, "alice", "TOKA", big.NewInt(100), "bob", "")
	require.NoError(t, err)

	// liveness timeout has not elapsed yet
	err = c.Cancel(ctx, "alice", transfer.ID)
	assert.ErrorIs(t, err, ErrLivenessTimeoutActive)

	advance(2 * time.Hour)

	err = c.Cancel(ctx, "mallory", transfer.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, c.Cancel(ctx, "alice", transfer.ID))

	got, err := store.GetTransfer(ctx, transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)

	// escrow refunded in full
	balance, err := store.EscrowBalance(ctx, "TOKA")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance.Int64())

	err = c.Cancel(ctx, "alice", transfer.ID)
	assert.ErrorIs(t, err, ErrTransferAlreadyResolved)

	assert.Len(t, sink.byType(EventTransferCancelled), 1)
}

func TestCancelInboundAdminOnly(t *testing.T) {
	ctx := context.Background()
	c, store, _ := newTestController(t)
	advance := setClock(c, time.Now())

	require.NoError(t, store.CreditEscrow(ctx, "TOKA", big.NewInt(500)))
	require.NoError(t, approveTransfer(t, c, "val-1", "xfer-1", 100))
	advance(2 * time.Hour)

	err := c.Cancel(ctx, "sender-b", "xfer-1")
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, c.Cancel(ctx, "admin", "xfer-1"))

	// no local party locked funds, so nothing is refunded
	balance, err := store.EscrowBalance(ctx, "TOKA")
	require.NoError(t, err)
	assert.Equal(t, int64(500), balance.Int64())
}

func TestCancelValidatedNotCancellable(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)
	advance := setClock(c, time.Now())

	require.NoError(t, approveTransfer(t, c, "val-1", "xfer-1", 100))
	require.NoError(t, approveTransfer(t, c, "val-2", "xfer-1", 100))
	advance(2 * time.Hour)

	err := c.Cancel(ctx, "admin", "xfer-1")
	assert.ErrorIs(t, err, ErrNotCancellable)
}

func TestExecuteTimelockTransfer(t *testing.T) {
	ctx := context.Background()
	c, store, _ := newTestController(t)
	advance := setClock(c, time.Now())

	require.NoError(t, c.SetTokenTransferLimit(ctx, "admin", "TOKA", big.NewInt(10)))
	transfer, err := c.InitiateOutbound(ctx, "alice", "TOKA", big.NewInt(50), "bob", "")
	require.NoError(t, err)

	err = c.ExecuteTimelockTransfer(ctx, transfer.ID)
	assert.ErrorIs(t, err, ErrTimelockActive)

	advance(2 * time.Hour)
	require.NoError(t, c.ExecuteTimelockTransfer(ctx, transfer.ID))

	got, err := store.GetTransfer(ctx, transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)

	err = c.ExecuteTimelockTransfer(ctx, transfer.ID)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestFinalizeQuorumKeepsTimelock(t *testing.T) {
	ctx := context.Background()
	c, store, _ := newTestController(t)
	advance := setClock(c, time.Now())

	// both directions of the pair are served locally, so validators can
	// approve the outbound id
	require.NoError(t, c.RegisterTokenMapping(ctx, "admin", "WTOKA", "TOKA", nil))
	require.NoError(t, c.SetTokenTransferLimit(ctx, "admin", "TOKA", big.NewInt(100)))

	transfer, err := c.InitiateOutbound(ctx, "alice", "TOKA", big.NewInt(150), "bob", "")
	require.NoError(t, err)
	require.Equal(t, StatusTimelockPending, transfer.Status)

	approve := func(validator string) error {
		return c.ApproveInbound(ctx, validator, transfer.ID, "WTOKA",
			big.NewInt(150), "bob", "chain-a", "alice")
	}
	require.NoError(t, approve("val-1"))
	require.NoError(t, approve("val-2"))

	got, err := store.GetTransfer(ctx, transfer.ID)
	require.NoError(t, err)
	require.Equal(t, StatusValidated, got.Status)

	// quorum does not shorten the release time
	err = c.Finalize(ctx, transfer.ID)
	assert.ErrorIs(t, err, ErrTimelockActive)

	got, err = store.GetTransfer(ctx, transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusValidated, got.Status)

	advance(2 * time.Hour)
	require.NoError(t, c.Finalize(ctx, transfer.ID))

	got, err = store.GetTransfer(ctx, transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
}

func TestExecuteTimelockRequiresTimelockState(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)

	transfer, err := c.InitiateOutbound(ctx, "alice", "TOKA", big.NewInt(50), "bob", "")
	require.NoError(t, err)

	err = c.ExecuteTimelockTransfer(ctx, transfer.ID)
	assert.ErrorIs(t, err, ErrNotTimelocked)
}

func TestPauseBlocksOperations(t *testing.T) {
	ctx := context.Background()
	c, store, sink := newTestController(t)

	err := c.Pause(ctx, "mallory")
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, c.Pause(ctx, "admin"))
	assert.True(t, c.Paused())

	_, err = c.InitiateOutbound(ctx, "alice", "TOKA", big.NewInt(100), "bob", "")
	assert.ErrorIs(t, err, ErrBridgePaused)
	err = approveTransfer(t, c, "val-1", "xfer-1", 100)
	assert.ErrorIs(t, err, ErrBridgePaused)
	err = c.Finalize(ctx, "xfer-1")
	assert.ErrorIs(t, err, ErrBridgePaused)
	err = c.Cancel(ctx, "admin", "xfer-1")
	assert.ErrorIs(t, err, ErrBridgePaused)

	// reads remain available
	_, err = c.ListTransfers(ctx, 10)
	require.NoError(t, err)

	require.NoError(t, c.Unpause(ctx, "admin"))
	_, err = c.InitiateOutbound(ctx, "alice", "TOKA", big.NewInt(100), "bob", "")
	require.NoError(t, err)

	paused, err := store.GetSetting(ctx, SettingPaused)
	require.NoError(t, err)
	assert.Equal(t, "false", paused)
	assert.Len(t, sink.byType(EventBridgePaused), 1)
	assert.Len(t, sink.byType(EventBridgeUnpaused), 1)
}

func TestPauseSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	c, store, _ := newTestController(t)

	require.NoError(t, c.Pause(ctx, "admin"))

	restarted, err := NewController(ctx, store, c.cfg, nil, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, restarted.Paused())
}

func TestValidatorAdministration(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)

	err := c.AddValidator(ctx, "mallory", "val-4")
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, c.AddValidator(ctx, "admin", "val-4"))
	validators, err := c.Validators(ctx)
	require.NoError(t, err)
	assert.Len(t, validators, 4)

	require.NoError(t, c.UpdateValidatorThreshold(ctx, "admin", 4))

	// removal would leave threshold above member count
	err = c.RemoveValidator(ctx, "admin", "val-4")
	assert.ErrorIs(t, err, ErrInvalidThreshold)

	require.NoError(t, c.UpdateValidatorThreshold(ctx, "admin", 2))
	require.NoError(t, c.RemoveValidator(ctx, "admin", "val-4"))

	err = c.UpdateValidatorThreshold(ctx, "admin", 0)
	assert.ErrorIs(t, err, ErrInvalidThreshold)
	err = c.UpdateValidatorThreshold(ctx, "admin", 10)
	assert.ErrorIs(t, err, ErrInvalidThreshold)
}

func TestRemovedValidatorApprovalsStillCount(t *testing.T) {
	ctx := context.Background()
	c, store, _ := newTestController(t)

	require.NoError(t, store.CreditEscrow(ctx, "TOKA", big.NewInt(1000)))
	require.NoError(t, approveTransfer(t, c, "val-1", "xfer-1", 100))
	require.NoError(t, c.RemoveValidator(ctx, "admin", "val-1"))

	// val-1's approval remains on record; one more reaches quorum
	require.NoError(t, approveTransfer(t, c, "val-2", "xfer-1", 100))

	transfer, err := store.GetTransfer(ctx, "xfer-1")
	require.NoError(t, err)
	assert.Equal(t, StatusValidated, transfer.Status)
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	c, store, _ := newTestController(t)

	_, err := c.GetTransfer(ctx, "missing")
	assert.ErrorIs(t, err, ErrTransferNotFound)

	completed, err := c.IsTransferCompleted(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, completed)

	require.NoError(t, store.CreditEscrow(ctx, "TOKA", big.NewInt(1000)))
	require.NoError(t, approveTransfer(t, c, "val-1", "xfer-1", 100))
	require.NoError(t, approveTransfer(t, c, "val-2", "xfer-1", 100))
	require.NoError(t, c.Finalize(ctx, "xfer-1"))

	completed, err = c.IsTransferCompleted(ctx, "xfer-1")
	require.NoError(t, err)
	assert.True(t, completed)

	_, err = c.InitiateOutbound(ctx, "alice", "TOKA", big.NewInt(40), "bob", "")
	require.NoError(t, err)

	stats, err := c.GetTransferStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalCount)
	assert.Equal(t, int64(1), stats.CompletedCount)
	assert.Equal(t, int64(1), stats.PendingCount)
	assert.Equal(t, "100", stats.TotalVolume.String())

	tokenStats, err := c.GetTokenTransferStats(ctx, "TOKA")
	require.NoError(t, err)
	assert.Equal(t, int64(2), tokenStats.TransferCount)
	assert.Equal(t, int64(1), tokenStats.CompletedCount)
	require.NotNil(t, tokenStats.EscrowBalance)
	assert.Equal(t, int64(940), tokenStats.EscrowBalance.Int64())
}

func TestTransferIDsAreUniquePerInitiation(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		transfer, err := c.InitiateOutbound(ctx, "alice", "TOKA", big.NewInt(10), "bob", "")
		require.NoError(t, err)
		assert.False(t, seen[transfer.ID])
		seen[transfer.ID] = true
	}
}
