// Package store is the PostgreSQL implementation of the engine's durable
// state, built on bun.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/dloop-protocol/bridge-engine/pkg/bridge"
)

// Store implements bridge.Store over a *bun.DB or, inside RunInTx, a bun.Tx.
type Store struct {
	db bun.IDB
}

// New creates a store over the given database handle.
func New(db bun.IDB) *Store {
	return &Store{db: db}
}

// RunInTx executes fn against a transaction-scoped store. Calling it on a
// store that is already transaction-scoped reuses the open transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(tx bridge.Store) error) error {
	if db, ok := s.db.(*bun.DB); ok {
		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			return fn(&Store{db: tx})
		})
	}
	return fn(s)
}

func (s *Store) GetTransfer(ctx context.Context, id string) (*bridge.Transfer, error) {
	dao := new(TransferDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transfer: %w", err)
	}
	return toTransfer(dao), nil
}

func (s *Store) CreateTransfer(ctx context.Context, transfer *bridge.Transfer) error {
	dao := toTransferDao(transfer)
	_, err := s.db.NewInsert().
		Model(dao).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create transfer: %w", err)
	}
	return nil
}

func (s *Store) UpdateTransferStatus(ctx context.Context, id string, status bridge.Status, completedAt *time.Time) error {
	q := s.db.NewUpdate().
		Model((*TransferDao)(nil)).
		Set("status = ?", string(status)).
		Set("updated_at = NOW()").
		Where("id = ?", id)
	if completedAt != nil {
		q = q.Set("completed_at = ?", *completedAt)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update transfer status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return bridge.ErrTransferNotFound
	}
	return nil
}

func (s *Store) ListTransfers(ctx context.Context, limit int) ([]*bridge.Transfer, error) {
	var daos []TransferDao
	err := s.db.NewSelect().
		Model(&daos).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	transfers := make([]*bridge.Transfer, len(daos))
	for i := range daos {
		transfers[i] = toTransfer(&daos[i])
	}
	return transfers, nil
}

func (s *Store) LastOutboundInitiation(ctx context.Context, sender string) (*time.Time, error) {
	dao := new(TransferDao)
	err := s.db.NewSelect().
		Model(dao).
		Column("created_at").
		Where("sender = ?", sender).
		Where("direction = ?", string(bridge.DirectionOutbound)).
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last outbound initiation: %w", err)
	}
	return &dao.CreatedAt, nil
}

func (s *Store) NextNonce(ctx context.Context, sender string) (int64, error) {
	var nonce int64
	err := s.db.NewRaw(
		`INSERT INTO transfer_nonces (sender, nonce, updated_at)
		 VALUES (?, 1, NOW())
		 ON CONFLICT (sender)
		 DO UPDATE SET nonce = transfer_nonces.nonce + 1, updated_at = NOW()
		 RETURNING nonce`,
		sender,
	).Scan(ctx, &nonce)
	if err != nil {
		return 0, fmt.Errorf("failed to advance nonce: %w", err)
	}
	return nonce, nil
}

func (s *Store) AddApproval(ctx context.Context, approval *bridge.Approval) error {
	dao := toApprovalDao(approval)
	_, err := s.db.NewInsert().
		Model(dao).
		Exec(ctx)
	if err != nil {
		// the unique (transfer_id, validator) index backstops the
		// application-level duplicate check
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.IntegrityViolation() {
			return bridge.ErrDuplicateApproval
		}
		return fmt.Errorf("failed to add approval: %w", err)
	}
	return nil
}

func (s *Store) GetApprovals(ctx context.Context, transferID string) ([]*bridge.Approval, error) {
	var daos []ApprovalDao
	err := s.db.NewSelect().
		Model(&daos).
		Where("transfer_id = ?", transferID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get approvals: %w", err)
	}
	approvals := make([]*bridge.Approval, len(daos))
	for i := range daos {
		approvals[i] = toApproval(&daos[i])
	}
	return approvals, nil
}

func (s *Store) CountApprovals(ctx context.Context, transferID string) (int, error) {
	count, err := s.db.NewSelect().
		Model((*ApprovalDao)(nil)).
		Where("transfer_id = ?", transferID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count approvals: %w", err)
	}
	return count, nil
}

func (s *Store) EscrowBalance(ctx context.Context, token string) (*big.Int, error) {
	dao := new(EscrowBalanceDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("token = ?", token).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return big.NewInt(0), nil
		}
		return nil, fmt.Errorf("failed to get escrow balance: %w", err)
	}
	balance, ok := new(big.Int).SetString(dao.Balance, 10)
	if !ok {
		return nil, fmt.Errorf("corrupt escrow balance for token %s: %q", token, dao.Balance)
	}
	return balance, nil
}

func (s *Store) CreditEscrow(ctx context.Context, token string, amount *big.Int) error {
	dao := &EscrowBalanceDao{Token: token, Balance: amount.String()}
	_, err := s.db.NewInsert().
		Model(dao).
		On("CONFLICT (token) DO UPDATE").
		Set("balance = escrow_balances.balance + EXCLUDED.balance").
		Set("updated_at = NOW()").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to credit escrow: %w", err)
	}
	return nil
}

// DebitEscrow decrements the balance only when it covers the amount; the
// guard in the WHERE clause makes concurrent over-releases impossible.
func (s *Store) DebitEscrow(ctx context.Context, token string, amount *big.Int) error {
	res, err := s.db.NewUpdate().
		Model((*EscrowBalanceDao)(nil)).
		Set("balance = balance - ?::NUMERIC", amount.String()).
		Set("updated_at = NOW()").
		Where("token = ?", token).
		Where("balance >= ?::NUMERIC", amount.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to debit escrow: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return bridge.ErrInsufficientEscrowLiquidity
	}
	return nil
}

func (s *Store) ListValidators(ctx context.Context) ([]string, error) {
	var daos []ValidatorDao
	err := s.db.NewSelect().
		Model(&daos).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list validators: %w", err)
	}
	ids := make([]string, len(daos))
	for i := range daos {
		ids[i] = daos[i].ID
	}
	return ids, nil
}

func (s *Store) AddValidator(ctx context.Context, id string) error {
	dao := &ValidatorDao{ID: id}
	_, err := s.db.NewInsert().
		Model(dao).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to add validator: %w", err)
	}
	return nil
}

func (s *Store) RemoveValidator(ctx context.Context, id string) error {
	_, err := s.db.NewDelete().
		Model((*ValidatorDao)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to remove validator: %w", err)
	}
	return nil
}

func (s *Store) IsValidator(ctx context.Context, id string) (bool, error) {
	exists, err := s.db.NewSelect().
		Model((*ValidatorDao)(nil)).
		Where("id = ?", id).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check validator: %w", err)
	}
	return exists, nil
}

func (s *Store) GetMapping(ctx context.Context, sourceToken string) (*bridge.TokenMapping, error) {
	dao := new(TokenMappingDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("source_token = ?", sourceToken).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get token mapping: %w", err)
	}
	return toTokenMapping(dao), nil
}

func (s *Store) GetMappingByCounterpart(ctx context.Context, counterpartToken string) (*bridge.TokenMapping, error) {
	dao := new(TokenMappingDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("counterpart_token = ?", counterpartToken).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get token mapping by counterpart: %w", err)
	}
	return toTokenMapping(dao), nil
}

func (s *Store) UpsertMapping(ctx context.Context, mapping *bridge.TokenMapping) error {
	dao := toTokenMappingDao(mapping)
	_, err := s.db.NewInsert().
		Model(dao).
		On("CONFLICT (source_token) DO UPDATE").
		Set("counterpart_token = EXCLUDED.counterpart_token").
		Set("active = EXCLUDED.active").
		Set("per_transfer_limit = EXCLUDED.per_transfer_limit").
		Set("updated_at = NOW()").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert token mapping: %w", err)
	}
	return nil
}

func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	dao := new(BridgeSettingDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("key = ?", key).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get setting: %w", err)
	}
	return dao.Value, nil
}

func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	dao := &BridgeSettingDao{Key: key, Value: value}
	_, err := s.db.NewInsert().
		Model(dao).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = NOW()").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}
	return nil
}

func (s *Store) TransferStats(ctx context.Context) (*bridge.TransferStats, error) {
	stats := new(bridge.TransferStats)
	var volume decimal.NullDecimal
	err := s.db.NewRaw(
		`SELECT count(*) AS total_count,
		        count(*) FILTER (WHERE status = 'completed') AS completed_count,
		        count(*) FILTER (WHERE status = 'cancelled') AS cancelled_count,
		        count(*) FILTER (WHERE status IN ('pending', 'timelock_pending', 'validated')) AS pending_count,
		        sum(amount) FILTER (WHERE status = 'completed') AS total_volume
		 FROM transfers`,
	).Scan(ctx, &stats.TotalCount, &stats.CompletedCount, &stats.CancelledCount, &stats.PendingCount, &volume)
	if err != nil {
		return nil, fmt.Errorf("failed to compute transfer stats: %w", err)
	}
	if volume.Valid {
		stats.TotalVolume = volume.Decimal
	}
	return stats, nil
}

func (s *Store) TokenTransferStats(ctx context.Context, token string) (*bridge.TokenTransferStats, error) {
	stats := &bridge.TokenTransferStats{Token: token}
	var volume decimal.NullDecimal
	err := s.db.NewRaw(
		`SELECT count(*) AS transfer_count,
		        count(*) FILTER (WHERE status = 'completed') AS completed_count,
		        sum(amount) FILTER (WHERE status = 'completed') AS volume
		 FROM transfers
		 WHERE (direction = 'outbound' AND source_token = ?)
		    OR (direction = 'inbound' AND target_token = ?)`,
		token, token,
	).Scan(ctx, &stats.TransferCount, &stats.CompletedCount, &volume)
	if err != nil {
		return nil, fmt.Errorf("failed to compute token transfer stats: %w", err)
	}
	if volume.Valid {
		stats.Volume = volume.Decimal
	}
	return stats, nil
}
