// @title                       Healthcare Records API
// @version                     1.0
// @description                 Patients, doctors and patient-doctor mappings behind bearer-token authentication.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the access token.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/carelink/healthcare-api/internal/api"
	"github.com/carelink/healthcare-api/internal/core/service"
	"github.com/carelink/healthcare-api/internal/pkg/config"
	"github.com/carelink/healthcare-api/pkg/logger"
)

const (
	serviceName    = "healthcare-api"
	serviceVersion = "1.0"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Healthcare records API server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply schema migrations or indexes before serving")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply Postgres migrations or MongoDB indexes for the configured driver",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			initLogger(cfg)

			b, err := openBackend(ctx, cfg, logger.Named("storage"))
			if err != nil {
				return err
			}
			defer b.close(context.Background())

			return b.migrate(ctx)
		},
	}
}

func initLogger(cfg *config.Config) zerolog.Logger {
	return logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: serviceName,
		Version: serviceVersion,
	})
}

func runServer(ctx context.Context, migrate bool) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := initLogger(cfg)

	b, err := openBackend(ctx, cfg, logger.Named("storage"))
	if err != nil {
		return err
	}
	defer b.close(context.Background())

	if migrate {
		if err := b.migrate(ctx); err != nil {
			return err
		}
	}

	tokens := service.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	e := api.NewRouter(api.Dependencies{
		Auth:     service.NewAuthService(b.users, tokens, b.tokens, log),
		Verifier: tokens,
		Patients: service.NewPatientService(b.patients, b.mappings, b.tx, log),
		Doctors:  service.NewDoctorService(b.doctors, b.mappings, b.tx, log),
		Mappings: service.NewMappingService(b.mappings, b.patients, b.doctors, b.tx, log),
		Checks:   b.checks,
		Logger:   logger.Named("http"),
	})

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("storage", cfg.StorageDriver).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}
