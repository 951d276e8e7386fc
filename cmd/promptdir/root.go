package main

import (
	"context"
	"fmt"

	"promptdir/internal/config"
	"promptdir/internal/db"
	"promptdir/internal/logger"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// Set with -ldflags "-X main.version=..." at build time.
var version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "promptdir",
	Short: "Shared directory of AI prompts",
	Long: `promptdir serves a community directory of AI prompts: search, star ratings,
likes, private prompts and threaded comments, as a JSON API.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.promptdir/config.yaml)",
	)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(versionCmd)
}

// bootstrap loads config, builds the logger and opens the database. Callers own the
// returned logger and connection.
func bootstrap(ctx context.Context) (*config.Config, *logger.Logger, *gorm.DB, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, nil, err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}
	conn, err := db.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Sync()
		return nil, nil, nil, err
	}
	return cfg, log, conn, nil
}

func closeDB(conn *gorm.DB, log *logger.Logger) {
	sqlDB, err := conn.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("Failed to close database", "error", err)
	}
}
