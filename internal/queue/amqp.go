package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
)

// CampaignJob is the body of a campaign_sends message.
type CampaignJob struct {
	CampaignID string `json:"campaign_id"`
}

// DeclareCampaignQueue declares the durable send queue.
func DeclareCampaignQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
}

type amqpPublisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// CampaignPublisher enqueues campaign send jobs on RabbitMQ.
type CampaignPublisher struct {
	ch    amqpPublisher
	queue string
}

func NewCampaignPublisher(ch *amqp.Channel, queueName string) (*CampaignPublisher, error) {
	if _, err := DeclareCampaignQueue(ch, queueName); err != nil {
		return nil, fmt.Errorf("declare queue %s: %w", queueName, err)
	}
	return &CampaignPublisher{ch: ch, queue: queueName}, nil
}

func (p *CampaignPublisher) Enqueue(ctx context.Context, campaignID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(CampaignJob{CampaignID: campaignID})
	if err != nil {
		return err
	}
	return p.ch.Publish("", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}
