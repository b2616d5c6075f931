package main

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/samber/oops"

	"userauth/api/internal/config"
	"userauth/api/internal/database"
	"userauth/api/internal/repository"
)

// userStore is the configured Credential Store and its teardown.
type userStore struct {
	repository.UserStore
	close func(ctx context.Context) error
}

func openUserStore(ctx context.Context, cfg *config.AppConfig, logger zerolog.Logger) (userStore, error) {
	switch cfg.Store.Driver {
	case config.StoreMongo:
		client, err := database.NewMongoClient(ctx, cfg.Mongo)
		if err != nil {
			return userStore{}, oops.Code("DB_CONNECT_FAILED").With("driver", cfg.Store.Driver).Wrap(err)
		}
		coll := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
		if err := database.EnsureMongoIndexes(ctx, coll); err != nil {
			_ = client.Disconnect(ctx)
			return userStore{}, oops.Code("DB_INDEX_FAILED").With("collection", cfg.Mongo.Collection).Wrap(err)
		}
		logger.Info().Str("database", cfg.Mongo.Database).Msg("mongo store ready")
		return userStore{
			UserStore: repository.NewMongoUserRepository(coll),
			close:     client.Disconnect,
		}, nil

	case config.StorePostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			return userStore{}, oops.Code("DB_CONNECT_FAILED").With("driver", cfg.Store.Driver).Wrap(err)
		}
		logger.Info().Msg("postgres store ready")
		return userStore{
			UserStore: repository.NewPostgresUserRepository(pool),
			close: func(context.Context) error {
				pool.Close()
				return nil
			},
		}, nil

	default:
		logger.Warn().Msg("using in-memory store; data is lost on restart")
		return userStore{
			UserStore: repository.NewMemoryUserRepository(),
			close:     func(context.Context) error { return nil },
		}, nil
	}
}
