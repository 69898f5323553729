package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"eventdesk.org/internal/audit"
	"eventdesk.org/internal/auth"
	"eventdesk.org/internal/httpapi"
	"eventdesk.org/internal/obs"
)

func newServeCommand(flags *globalFlags) *cobra.Command {
	var (
		addr           string
		skipMigrations bool
		skipSeed       bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API and accept requests until SIGINT or SIGTERM.

On start the server applies pending migrations (PostgreSQL only) and seeds
the builtin permissions, roles and admin account.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			logger := obs.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
			if cfg.Auth.UsingDefaultSecret {
				logger.Warn().Msg("JWT_SECRET not set; signing tokens with the development fallback secret")
			}
			obs.Init()
			obs.InitBuildInfo(Version, GitCommit)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			b, err := openBackend(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = b.Close() }()

			if b.db != nil && !skipMigrations {
				if err := migrateUp(ctx, b.db, logger); err != nil {
					return err
				}
			}
			if !skipSeed {
				if err := runSeed(ctx, b, cfg, logger); err != nil {
					return fmt.Errorf("seed: %w", err)
				}
			}

			tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret,
				auth.WithTokenTTL(cfg.Auth.JWTTTL),
				auth.WithIssuer(cfg.Auth.Issuer),
			)
			if err != nil {
				return err
			}
			rbac, err := auth.NewRBACService(b.roles, b.permissions, b.identities, logger)
			if err != nil {
				return err
			}
			api, err := httpapi.New(httpapi.Deps{
				Auth:    auth.NewService(b.identities, tokens, logger),
				RBAC:    rbac,
				Gate:    auth.NewGate(tokens),
				Audit:   audit.New(logger),
				Logger:  logger,
				Ready:   httpapi.ReadyProbe{DB: b.db},
				Limiter: httpapi.NewRateLimiter(ctx, cfg.RateLimit.Burst, cfg.RateLimit.PerSecond,
					httpapi.WithTrustedProxies(cfg.RateLimit.TrustedProxies)),
				Version: Version,
			})
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           api.Handler(),
				ReadTimeout:       15 * time.Second,
				ReadHeaderTimeout: 5 * time.Second,
				WriteTimeout:      15 * time.Second,
				IdleTimeout:       60 * time.Second,
				MaxHeaderBytes:    1 << 20,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info().Str("addr", srv.Addr).Str("version", Version).Msg("starting eventdesk API")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("listen: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("shutdown error")
				return err
			}
			logger.Info().Msg("stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: $SERVER_ADDR or :8080)")
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply pending migrations on start")
	cmd.Flags().BoolVar(&skipSeed, "skip-seed", false, "do not seed builtin roles and the admin account on start")
	return cmd
}
