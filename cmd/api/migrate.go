package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"userauth/api/internal/config"
	"userauth/api/internal/database"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Prepare the configured store",
		Long: `Run goose migrations against PostgreSQL, or create the user
collection indexes in MongoDB. The memory store needs neither.`,
		RunE: runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	switch cfg.Store.Driver {
	case config.StorePostgres:
		cmd.Println("Connecting to postgres...")
		pool, err := database.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			return oops.Code("DB_CONNECT_FAILED").With("driver", cfg.Store.Driver).Wrap(err)
		}
		defer pool.Close()

		cmd.Println("Running migrations...")
		if err := database.MigratePostgres(ctx, pool); err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
		}

	case config.StoreMongo:
		cmd.Println("Connecting to mongo...")
		client, err := database.NewMongoClient(ctx, cfg.Mongo)
		if err != nil {
			return oops.Code("DB_CONNECT_FAILED").With("driver", cfg.Store.Driver).Wrap(err)
		}
		defer func() { _ = client.Disconnect(ctx) }()

		cmd.Println("Creating indexes...")
		coll := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
		if err := database.EnsureMongoIndexes(ctx, coll); err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "create indexes").Wrap(err)
		}

	default:
		cmd.Printf("Store driver %q needs no migrations\n", cfg.Store.Driver)
		return nil
	}

	cmd.Println("Migrations completed successfully")
	return nil
}
