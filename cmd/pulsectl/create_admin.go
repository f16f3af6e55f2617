package main

import (
	"fmt"

	"github.com/projectpulse/backend/internal/cache"
	"github.com/projectpulse/backend/internal/services"
	"github.com/spf13/cobra"
)

func createAdminCmd() *cobra.Command {
	var name, username, password, email string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an active administrator account",
		Example: `  pulsectl create-admin --username root --password 'S3cret!' --email root@gmail.com
  pulsectl create-admin -c /etc/projectpulse/config.yaml --username ops --password x --email ops@gmail.com --name "Ops Team"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			// No mail is sent for admins created here
			auth := services.NewAuthService(db, cfg, services.NewSyncMailQueue(nil), cache.NewMemory())
			user, err := auth.CreateAdmin(name, username, password, email)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created admin %q (id %d)\n", user.Username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name (defaults to the username)")
	cmd.Flags().StringVar(&username, "username", "", "login name")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
