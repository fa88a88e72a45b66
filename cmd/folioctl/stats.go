package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/unclebandit/folio-backend/internal/app"
	"github.com/unclebandit/folio-backend/internal/service"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print page view statistics as JSON",
	RunE:  runStats,
}

var (
	statsDays  int
	statsDaily bool
)

func init() {
	statsCmd.Flags().IntVar(&statsDays, "days", 30, "Report the last N days")
	statsCmd.Flags().BoolVar(&statsDaily, "daily", false, "Print per-day counts instead of the summary")
}

func runStats(cmd *cobra.Command, args []string) error {
	_, conn, _, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer conn.Close()

	analytics := &service.AnalyticsService{Views: app.NewRepositories(conn).PageViews}

	var report any
	if statsDaily {
		report, err = analytics.DailyViewCounts(cmd.Context(), statsDays)
	} else {
		report, err = analytics.PageViewStats(cmd.Context(), service.DateRange{
			From: time.Now().AddDate(0, 0, -statsDays),
		})
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
