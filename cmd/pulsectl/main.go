// Command pulsectl runs one-off maintenance tasks against the ProjectPulse
// database without starting the HTTP server.
package main

import (
	"fmt"
	"os"

	"github.com/projectpulse/backend/internal/config"
	"github.com/projectpulse/backend/internal/models"
	"github.com/projectpulse/backend/pkg/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var Version = "dev"

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:          "pulsectl",
		Short:        "ProjectPulse administration tool",
		Version:      Version,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("CONFIG_PATH"), "path to config.yaml")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(installGuardsCmd())
	rootCmd.AddCommand(createAdminCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openDB loads the configuration and connects to its database.
func openDB() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Log.Level)

	db, err := models.Open(&cfg.Database, false)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
