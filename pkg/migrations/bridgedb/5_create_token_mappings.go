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
		log.Println("creating token_mappings table...")
		if err := mghelper.CreateSchema(ctx, db, &store.TokenMappingDao{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &store.TokenMappingDao{}, "counterpart_token")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping token_mappings table...")
		return mghelper.DropTables(ctx, db, &store.TokenMappingDao{})
	})
}
