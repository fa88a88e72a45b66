package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unclebandit/folio-backend/internal/app"
	"github.com/unclebandit/folio-backend/internal/queue"
	"github.com/unclebandit/folio-backend/internal/service"
)

var sendCmd = &cobra.Command{
	Use:   "send [campaign-id]",
	Short: "Send a campaign now, in this process",
	Args:  cobra.ExactArgs(1),
	RunE:  runSend,
}

var enqueueCmd = &cobra.Command{
	Use:   "enqueue [campaign-id]",
	Short: "Queue a campaign for the worker",
	Args:  cobra.ExactArgs(1),
	RunE:  runEnqueue,
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, conn, log, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer conn.Close()

	sender, cleanup, err := app.NewSender(cmd.Context(), cfg, app.NewRepositories(conn), nil, log)
	if err != nil {
		return err
	}
	defer cleanup()

	summary, err := sender.Send(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("send campaign %s: %w", args[0], err)
	}
	fmt.Printf("Campaign %s: %d recipients, %d delivered, %d failed\n",
		args[0], summary.Total, summary.Delivered, summary.Failed)
	return nil
}

func runEnqueue(cmd *cobra.Command, args []string) error {
	cfg, conn, log, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer conn.Close()

	if cfg.Queue.AMQPURL == "" {
		return fmt.Errorf("AMQP_URL is not set")
	}
	broker, err := app.DialAMQP(cfg.Queue)
	if err != nil {
		return err
	}
	defer broker.Close()

	publisher, err := queue.NewCampaignPublisher(broker.Channel, cfg.Queue.CampaignQueue)
	if err != nil {
		return err
	}

	campaigns := &service.CampaignService{
		CampaignRepo: app.NewRepositories(conn).Campaigns,
		Queue:        publisher,
		Log:          log,
	}
	if err := campaigns.EnqueueSend(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("enqueue campaign %s: %w", args[0], err)
	}
	fmt.Printf("Campaign %s queued on %s\n", args[0], cfg.Queue.CampaignQueue)
	return nil
}
