package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/carelink/healthcare-api/internal/core/ports"
	"github.com/carelink/healthcare-api/internal/infrastructure/db/memory"
	mongodb "github.com/carelink/healthcare-api/internal/infrastructure/db/mongo"
	"github.com/carelink/healthcare-api/internal/infrastructure/db/postgres"
	redisstore "github.com/carelink/healthcare-api/internal/infrastructure/db/redis"
	"github.com/carelink/healthcare-api/internal/infrastructure/http/handlers"
	"github.com/carelink/healthcare-api/internal/pkg/config"
)

// backend is the set of repositories chosen by STORAGE_DRIVER.
type backend struct {
	users    ports.AuthRepository
	patients ports.PatientRepository
	doctors  ports.DoctorRepository
	mappings ports.MappingRepository
	tokens   ports.TokenStore
	tx       ports.TxManager

	checks  []handlers.Check
	migrate func(ctx context.Context) error
	closers []func(ctx context.Context)
}

func (b *backend) close(ctx context.Context) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i](ctx)
	}
}

func openBackend(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*backend, error) {
	b := &backend{}

	switch cfg.StorageDriver {
	case config.DriverMemory:
		store := memory.NewStore()
		b.users, b.patients, b.doctors, b.mappings = store.Users(), store.Patients(), store.Doctors(), store.Mappings()
		b.tokens = store.Tokens()
		b.tx = store
		b.checks = append(b.checks, handlers.Check{Name: "memory", Pinger: store})
		b.migrate = func(context.Context) error {
			log.Info().Msg("memory storage needs no migrations")
			return nil
		}
		log.Warn().Msg("using in-memory storage; data is lost on restart")
		return b, nil

	case config.DriverMongo:
		client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func(ctx context.Context) { _ = client.Disconnect(ctx) })
		b.users = mongodb.NewUserRepository(db)
		b.patients = mongodb.NewPatientRepository(db)
		b.doctors = mongodb.NewDoctorRepository(db)
		b.mappings = mongodb.NewMappingRepository(db)
		b.tx = mongodb.NewTxManager(client)
		b.checks = append(b.checks, handlers.Check{
			Name:   "mongodb",
			Pinger: handlers.PingFunc(func(ctx context.Context) error { return client.Ping(ctx, nil) }),
		})
		b.migrate = func(ctx context.Context) error {
			if err := mongodb.EnsureIndexes(ctx, db); err != nil {
				return err
			}
			log.Info().Msg("mongodb indexes ensured")
			return nil
		}

	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, postgres.Config{
			URL:      cfg.Postgres.URL,
			MaxConns: cfg.Postgres.MaxConns,
			MinConns: cfg.Postgres.MinConns,
		})
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func(context.Context) { pool.Close() })
		b.users = postgres.NewUserRepository(pool)
		b.patients = postgres.NewPatientRepository(pool)
		b.doctors = postgres.NewDoctorRepository(pool)
		b.mappings = postgres.NewMappingRepository(pool)
		b.tx = postgres.NewTxManager(pool)
		b.checks = append(b.checks, handlers.Check{Name: "postgres", Pinger: pool})
		b.migrate = func(ctx context.Context) error {
			n, err := postgres.NewMigrator(pool, log).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			log.Info().Int("applied", n).Msg("postgres migrations complete")
			return nil
		}

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		b.close(context.Background())
		return nil, err
	}
	b.closers = append(b.closers, func(context.Context) { _ = rdb.Close() })
	store := redisstore.NewTokenStore(rdb)
	b.tokens = store
	b.checks = append(b.checks, handlers.Check{Name: "redis", Pinger: store})

	return b, nil
}
