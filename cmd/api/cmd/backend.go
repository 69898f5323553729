package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"eventdesk.org/internal/auth"
	"eventdesk.org/internal/config"
	"eventdesk.org/internal/migrate"
	"eventdesk.org/internal/store/pg"
)

var errNoDatabase = errors.New("DATABASE_URL is not set")

// backend bundles the stores selected by configuration.
type backend struct {
	identities  auth.IdentityStore
	roles       auth.RoleStore
	permissions auth.PermissionStore
	db          *sql.DB
	close       func() error
}

func (b *backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// openBackend connects to PostgreSQL when DATABASE_URL is set and falls back
// to the in-memory store otherwise.
func openBackend(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*backend, error) {
	if cfg.Database.URL == "" {
		logger.Warn().Msg("DATABASE_URL not set; using in-memory store, data is lost on restart")
		mem := auth.NewMemoryStore()
		return &backend{identities: mem, roles: mem, permissions: mem}, nil
	}
	store, err := openPostgres(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &backend{
		identities:  store,
		roles:       store,
		permissions: store,
		db:          store.DB(),
		close:       store.Close,
	}, nil
}

func openPostgres(ctx context.Context, cfg config.Config) (*pg.Store, error) {
	if cfg.Database.URL == "" {
		return nil, errNoDatabase
	}
	store, err := pg.Open(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.Database.MaxConnections > 0 {
		store.DB().SetMaxOpenConns(cfg.Database.MaxConnections)
	}
	if cfg.Database.MaxIdle > 0 {
		store.DB().SetMaxIdleConns(cfg.Database.MaxIdle)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return store, nil
}

func migrateUp(ctx context.Context, db *sql.DB, logger zerolog.Logger) error {
	applied, err := migrate.NewManager(db, migrate.WithLogger(logger)).Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	logger.Info().Int("applied", len(applied)).Msg("schema up to date")
	return nil
}

func adminAccount(cfg config.Config) auth.AdminAccount {
	return auth.AdminAccount{
		FirstName: cfg.Admin.FirstName,
		LastName:  cfg.Admin.LastName,
		Email:     cfg.Admin.Email,
		Password:  cfg.Admin.Password,
	}
}

func runSeed(ctx context.Context, b *backend, cfg config.Config, logger zerolog.Logger) error {
	seedCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return auth.NewSeeder(b.identities, b.roles, b.permissions, logger).Run(seedCtx, adminAccount(cfg))
}
