package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/unclebandit/folio-backend/internal/app"
	"github.com/unclebandit/folio-backend/internal/config"
	"github.com/unclebandit/folio-backend/internal/db"
	"github.com/unclebandit/folio-backend/internal/logger"
	"github.com/unclebandit/folio-backend/internal/metrics"
	"github.com/unclebandit/folio-backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "json")
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format).With().Str("process", "worker").Logger()

	if cfg.Queue.AMQPURL == "" {
		log.Fatal().Msg("AMQP_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer conn.Close()

	sender, closeSender, err := app.NewSender(ctx, cfg, app.NewRepositories(conn), metrics.New(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("build sender")
	}
	defer closeSender()

	broker, err := app.DialAMQP(cfg.Queue)
	if err != nil {
		log.Fatal().Err(err).Msg("connect amqp")
	}
	defer broker.Close()

	// one campaign at a time per worker
	if err := broker.Channel.Qos(1, 0, false); err != nil {
		log.Fatal().Err(err).Msg("set qos")
	}

	msgs, err := broker.Channel.Consume(
		broker.Queue.Name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("register consumer")
	}

	log.Info().Str("queue", broker.Queue.Name).Msg("worker running, waiting for messages...")
	service.NewWorker(sender, msgs, log).Start(ctx)
	log.Info().Msg("worker stopped")
}
