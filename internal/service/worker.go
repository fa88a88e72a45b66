package service

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	appErrors "github.com/unclebandit/folio-backend/internal/errors"
	"github.com/unclebandit/folio-backend/internal/queue"
)

// Worker processes campaign send jobs from RabbitMQ.
type Worker struct {
	Sender     CampaignSenderInterface
	Deliveries <-chan amqp.Delivery
	Log        zerolog.Logger
}

// Constructor
func NewWorker(sender CampaignSenderInterface, deliveries <-chan amqp.Delivery, log zerolog.Logger) *Worker {
	return &Worker{
		Sender:     sender,
		Deliveries: deliveries,
		Log:        log,
	}
}

// Start consumes until the delivery channel closes or ctx is done.
func (w *Worker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-w.Deliveries:
			if !ok {
				return
			}
			w.Handle(ctx, d)
		}
	}
}

// Handle runs one job. Malformed and permanently failing jobs are acked and
// dropped; anything else is requeued once.
func (w *Worker) Handle(ctx context.Context, d amqp.Delivery) {
	var job queue.CampaignJob
	if err := json.Unmarshal(d.Body, &job); err != nil || job.CampaignID == "" {
		w.Log.Warn().Bytes("body", d.Body).Msg("invalid campaign job")
		w.ack(d)
		return
	}

	log := w.Log.With().Str("campaign_id", job.CampaignID).Logger()

	summary, err := w.Sender.Send(ctx, job.CampaignID)
	if err == nil {
		log.Info().
			Int("total", summary.Total).
			Int("delivered", summary.Delivered).
			Int("failed", summary.Failed).
			Msg("campaign job done")
		w.ack(d)
		return
	}

	if appErrors.IsPermanent(err) {
		log.Warn().Err(err).Msg("campaign job dropped")
		w.ack(d)
		return
	}

	requeue := !d.Redelivered
	log.Error().Err(err).Bool("requeue", requeue).Msg("campaign job failed")
	if nerr := d.Nack(false, requeue); nerr != nil {
		log.Error().Err(nerr).Msg("nack campaign job")
	}
}

func (w *Worker) ack(d amqp.Delivery) {
	if err := d.Ack(false); err != nil {
		w.Log.Error().Err(err).Msg("ack campaign job")
	}
}
