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
		log.Println("creating transfer_nonces table...")
		return mghelper.CreateSchema(ctx, db, &store.TransferNonceDao{})
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping transfer_nonces table...")
		return mghelper.DropTables(ctx, db, &store.TransferNonceDao{})
	})
}
