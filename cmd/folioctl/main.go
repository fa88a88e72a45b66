package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/unclebandit/folio-backend/internal/config"
	"github.com/unclebandit/folio-backend/internal/db"
	"github.com/unclebandit/folio-backend/internal/logger"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:           "folioctl",
	Short:         "Folio backend maintenance commands",
	Long:          `folioctl applies the schema, seeds data and runs newsletter campaigns from the command line.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&envFile, "env-file", "e", ".env", "Path to an optional .env file")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(enqueueCmd)
	rootCmd.AddCommand(statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and opens the database for a subcommand.
func setup(ctx context.Context) (*config.Config, *sql.DB, zerolog.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, zerolog.Nop(), err
	}
	log := logger.New(cfg.Log.Level, "console")

	conn, err := db.Open(ctx, cfg.Database, log)
	if err != nil {
		return nil, nil, log, err
	}
	return cfg, conn, log, nil
}
