package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unclebandit/folio-backend/internal/db"
)

var seedCmd = &cobra.Command{
	Use:   "seed [files...]",
	Short: "Execute SQL seed files in order",
	Long:  `Executes the given SQL files in order. Without arguments the bundled seed/ files are used.`,
	RunE:  runSeed,
}

var defaultSeedFiles = []string{
	"seed/subscribers.sql",
	"seed/settings.sql",
	"seed/campaigns.sql",
}

func runSeed(cmd *cobra.Command, args []string) error {
	_, conn, log, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer conn.Close()

	files := args
	if len(files) == 0 {
		files = defaultSeedFiles
	}
	if err := db.Seed(cmd.Context(), conn, files, log); err != nil {
		return err
	}
	fmt.Println("Database seeding completed successfully!")
	return nil
}
