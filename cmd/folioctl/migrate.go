package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unclebandit/folio-backend/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	_, conn, _, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := db.Migrate(cmd.Context(), conn); err != nil {
		return err
	}
	fmt.Println("Schema applied")
	return nil
}
