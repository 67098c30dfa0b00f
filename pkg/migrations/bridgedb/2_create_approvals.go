package bridgedb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	mghelper "github.com/dloop-protocol/bridge-engine/pkg/pgutil/migrations"
	"github.com/dloop-protocol/bridge-engine/pkg/store"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating approvals table...")
		if err := mghelper.CreateSchema(ctx, db, &store.ApprovalDao{}); err != nil {
			return err
		}
		// one approval per (transfer, validator)
		if err := mghelper.CreateUniqueIndex(ctx, db, &store.ApprovalDao{},
			"idx_approvals_transfer_id_validator", "transfer_id", "validator"); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &store.ApprovalDao{}, "transfer_id")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping approvals table...")
		return mghelper.DropTables(ctx, db, &store.ApprovalDao{})
	})
}
