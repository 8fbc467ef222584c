package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fastygo/tasker/internal/config"
	"github.com/fastygo/tasker/internal/infrastructure/kv"
	"github.com/fastygo/tasker/pkg/logger"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tasker",
		Short:         "Single-user task manager with a simulated sign-in",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var (
		driver string
		addr   string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON API",
		Long: `Start the HTTP server over the configured storage backend.

Examples:
  tasker serve
  tasker serve --storage memory --addr 127.0.0.1:9000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if driver != "" {
				cfg.Storage.Driver = driver
			}
			if addr != "" {
				cfg.HTTP.Host, cfg.HTTP.Port, err = splitAddr(addr)
				if err != nil {
					return err
				}
			}

			zapLogger, err := logger.New(logger.Config{Level: cfg.Logger.Level, Encoding: cfg.Logger.Encoding})
			if err != nil {
				return fmt.Errorf("logger error: %w", err)
			}
			defer func() { _ = zapLogger.Sync() }()

			return serve(cmd.Context(), cfg, zapLogger)
		},
	}
	cmd.Flags().StringVar(&driver, "storage", "", "storage driver: memory, bolt, redis or postgres")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, host:port")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply postgres schema migrations",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			zapLogger, err := logger.New(logger.Config{Level: cfg.Logger.Level, Encoding: cfg.Logger.Encoding})
			if err != nil {
				return fmt.Errorf("logger error: %w", err)
			}
			defer func() { _ = zapLogger.Sync() }()

			cfg.Storage.Driver = config.DriverPostgres
			if err := kv.Migrate(cfg); err != nil {
				return err
			}
			zapLogger.Info("migrations applied", zap.String("path", cfg.Migrations.Path))
			return nil
		},
	}
}
