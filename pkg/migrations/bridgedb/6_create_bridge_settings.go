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
		log.Println("creating bridge_settings table...")
		return mghelper.CreateSchema(ctx, db, &store.BridgeSettingDao{})
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping bridge_settings table...")
		return mghelper.DropTables(ctx, db, &store.BridgeSettingDao{})
	})
}
