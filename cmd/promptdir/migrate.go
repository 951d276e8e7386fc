package main

import (
	"promptdir/internal/db"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, conn, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer log.Sync()
		defer closeDB(conn, log)

		if err := db.Migrate(conn); err != nil {
			return err
		}
		log.Info("Database migration completed")
		return nil
	},
}
