package store

import (
	"math/big"
	"time"

	"github.com/uptrace/bun"

	"github.com/dloop-protocol/bridge-engine/pkg/bridge"
)

// TransferDao is a data access object that maps directly to the 'transfers' table in PostgreSQL.
type TransferDao struct {
	bun.BaseModel     `bun:"table:transfers,alias:t"`
	ID                string     `bun:"id,pk,type:varchar(128)"`
	Direction         string     `bun:"direction,notnull,type:varchar(16)"`
	Status            string     `bun:"status,notnull,type:varchar(32)"`
	SourceToken       string     `bun:"source_token,notnull,type:varchar(128)"`
	TargetToken       string     `bun:"target_token,notnull,type:varchar(128)"`
	Amount            string     `bun:"amount,notnull,type:numeric(78,0)"`
	Sender            string     `bun:"sender,notnull,type:varchar(128)"`
	Recipient         string     `bun:"recipient,notnull,type:varchar(128)"`
	SourceNetwork     string     `bun:"source_network,notnull,type:varchar(64)"`
	TargetNetwork     string     `bun:"target_network,notnull,type:varchar(64)"`
	CreatedAt         time.Time  `bun:"created_at,nullzero,default:current_timestamp"`
	UpdatedAt         time.Time  `bun:"updated_at,nullzero,default:current_timestamp"`
	TimelockReleaseAt *time.Time `bun:"timelock_release_at"`
	CompletedAt       *time.Time `bun:"completed_at"`
}

// toTransferDao converts a bridge.Transfer to TransferDao.
func toTransferDao(t *bridge.Transfer) *TransferDao {
	dao := &TransferDao{
		ID:                t.ID,
		Direction:         string(t.Direction),
		Status:            string(t.Status),
		SourceToken:       t.SourceToken,
		TargetToken:       t.TargetToken,
		Amount:            "0",
		Sender:            t.Sender,
		Recipient:         t.Recipient,
		SourceNetwork:     t.SourceNetwork,
		TargetNetwork:     t.TargetNetwork,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
		TimelockReleaseAt: t.TimelockReleaseAt,
		CompletedAt:       t.CompletedAt,
	}
	if t.Amount != nil {
		dao.Amount = t.Amount.String()
	}
	return dao
}

// toTransfer converts a TransferDao to bridge.Transfer.
func toTransfer(dao *TransferDao) *bridge.Transfer {
	amount, _ := new(big.Int).SetString(dao.Amount, 10)
	return &bridge.Transfer{
		ID:                dao.ID,
		Direction:         bridge.Direction(dao.Direction),
		Status:            bridge.Status(dao.Status),
		SourceToken:       dao.SourceToken,
		TargetToken:       dao.TargetToken,
		Amount:            amount,
		Sender:            dao.Sender,
		Recipient:         dao.Recipient,
		SourceNetwork:     dao.SourceNetwork,
		TargetNetwork:     dao.TargetNetwork,
		CreatedAt:         dao.CreatedAt,
		UpdatedAt:         dao.UpdatedAt,
		TimelockReleaseAt: dao.TimelockReleaseAt,
		CompletedAt:       dao.CompletedAt,
	}
}

// ApprovalDao is a data access object that maps directly to the 'approvals' table in PostgreSQL.
// The unique (transfer_id, validator) index backs the one-approval-per-validator rule.
type ApprovalDao struct {
	bun.BaseModel `bun:"table:approvals,alias:a"`
	ID            int64     `bun:"id,pk,autoincrement"`
	TransferID    string    `bun:"transfer_id,notnull,type:varchar(128)"`
	Validator     string    `bun:"validator,notnull,type:varchar(128)"`
	Token         string    `bun:"token,notnull,type:varchar(128)"`
	Amount        string    `bun:"amount,notnull,type:numeric(78,0)"`
	Recipient     string    `bun:"recipient,notnull,type:varchar(128)"`
	SourceNetwork string    `bun:"source_network,notnull,type:varchar(64)"`
	CreatedAt     time.Time `bun:"created_at,nullzero,default:current_timestamp"`
}

func toApprovalDao(a *bridge.Approval) *ApprovalDao {
	dao := &ApprovalDao{
		TransferID:    a.TransferID,
		Validator:     a.Validator,
		Token:         a.Token,
		Amount:        "0",
		Recipient:     a.Recipient,
		SourceNetwork: a.SourceNetwork,
		CreatedAt:     a.CreatedAt,
	}
	if a.Amount != nil {
		dao.Amount = a.Amount.String()
	}
	return dao
}

func toApproval(dao *ApprovalDao) *bridge.Approval {
	amount, _ := new(big.Int).SetString(dao.Amount, 10)
	return &bridge.Approval{
		TransferID:    dao.TransferID,
		Validator:     dao.Validator,
		Token:         dao.Token,
		Amount:        amount,
		Recipient:     dao.Recipient,
		SourceNetwork: dao.SourceNetwork,
		CreatedAt:     dao.CreatedAt,
	}
}

// EscrowBalanceDao is a data access object that maps directly to the 'escrow_balances' table in PostgreSQL.
type EscrowBalanceDao struct {
	bun.BaseModel `bun:"table:escrow_balances,alias:e"`
	Token         string    `bun:"token,pk,type:varchar(128)"`
	Balance       string    `bun:"balance,notnull,type:numeric(78,0)"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,default:current_timestamp"`
}

// ValidatorDao is a data access object that maps directly to the 'validators' table in PostgreSQL.
type ValidatorDao struct {
	bun.BaseModel `bun:"table:validators,alias:v"`
	ID            string    `bun:"id,pk,type:varchar(128)"`
	CreatedAt     time.Time `bun:"created_at,nullzero,default:current_timestamp"`
}

// TokenMappingDao is a data access object that maps directly to the 'token_mappings' table in PostgreSQL.
type TokenMappingDao struct {
	bun.BaseModel    `bun:"table:token_mappings,alias:m"`
	SourceToken      string    `bun:"source_token,pk,type:varchar(128)"`
	CounterpartToken string    `bun:"counterpart_token,notnull,type:varchar(128)"`
	Active           bool      `bun:"active,notnull,default:true"`
	PerTransferLimit *string   `bun:"per_transfer_limit,type:numeric(78,0)"`
	CreatedAt        time.Time `bun:"created_at,nullzero,default:current_timestamp"`
	UpdatedAt        time.Time `bun:"updated_at,nullzero,default:current_timestamp"`
}

func toTokenMappingDao(m *bridge.TokenMapping) *TokenMappingDao {
	dao := &TokenMappingDao{
		SourceToken:      m.SourceToken,
		CounterpartToken: m.CounterpartToken,
		Active:           m.Active,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	if m.PerTransferLimit != nil {
		s := m.PerTransferLimit.String()
		dao.PerTransferLimit = &s
	}
	return dao
}

func toTokenMapping(dao *TokenMappingDao) *bridge.TokenMapping {
	m := &bridge.TokenMapping{
		SourceToken:      dao.SourceToken,
		CounterpartToken: dao.CounterpartToken,
		Active:           dao.Active,
		CreatedAt:        dao.CreatedAt,
		UpdatedAt:        dao.UpdatedAt,
	}
	if dao.PerTransferLimit != nil {
		m.PerTransferLimit, _ = new(big.Int).SetString(*dao.PerTransferLimit, 10)
	}
	return m
}

// BridgeSettingDao is a data access object that maps directly to the 'bridge_settings' table in PostgreSQL.
type BridgeSettingDao struct {
	bun.BaseModel `bun:"table:bridge_settings,alias:s"`
	Key           string    `bun:"key,pk,type:varchar(64)"`
	Value         string    `bun:"value,notnull,type:text"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,default:current_timestamp"`
}

// TransferNonceDao is a data access object that maps directly to the 'transfer_nonces' table in PostgreSQL.
type TransferNonceDao struct {
	bun.BaseModel `bun:"table:transfer_nonces,alias:n"`
	Sender        string    `bun:"sender,pk,type:varchar(128)"`
	Nonce         int64     `bun:"nonce,notnull,default:0"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,default:current_timestamp"`
}
