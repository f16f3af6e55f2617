package main

import (
	"fmt"

	"github.com/projectpulse/backend/internal/models"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update all tables and install the task guards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			if err := models.Migrate(db, models.GuardOptions{GuardDelete: cfg.Tasks.GuardDelete}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %s database\n", cfg.Database.Driver)
			return nil
		},
	}
}

func installGuardsCmd() *cobra.Command {
	var guardDelete bool

	cmd := &cobra.Command{
		Use:   "install-guards",
		Short: "Reinstall the completed-project triggers on tasks",
		Long: `Drops and recreates the triggers that reject task writes on completed
projects. Insert and update are always guarded. Delete is guarded when
tasks.guard_delete is set in the config or --guard-delete is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			opts := models.GuardOptions{GuardDelete: cfg.Tasks.GuardDelete || guardDelete}
			if err := models.InstallTaskGuards(db, opts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task guards installed (delete guarded: %t)\n", opts.GuardDelete)
			return nil
		},
	}

	cmd.Flags().BoolVar(&guardDelete, "guard-delete", false, "also reject task deletes on completed projects")
	return cmd
}
