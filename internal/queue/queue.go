package queue

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue is an in-process fan-out queue with bounded retry.
// Delivery is best effort: jobs are lost if the process exits.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
	wg       sync.WaitGroup

	maxRetries int
	backoff    time.Duration
	log        zerolog.Logger
}

// Option configures an InMemoryQueue.
type Option func(*InMemoryQueue)

// WithMaxRetries sets how many times a failed job is retried. Zero means the
// first failure is final.
func WithMaxRetries(n int) Option {
	return func(q *InMemoryQueue) { q.maxRetries = n }
}

// WithBackoff sets the base delay; attempt n waits n*base.
func WithBackoff(d time.Duration) Option {
	return func(q *InMemoryQueue) { q.backoff = d }
}

func WithLogger(log zerolog.Logger) Option {
	return func(q *InMemoryQueue) { q.log = log }
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		handlers:   make(map[string][]func(payload any) error),
		maxRetries: 3,
		backoff:    500 * time.Millisecond,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Topic      string
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish hands the payload to every subscriber of topic without blocking.
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	job := JobPayload{
		Topic:      topic,
		Payload:    payload,
		MaxRetries: q.maxRetries,
	}

	for _, handler := range handlers {
		q.wg.Add(1)
		go q.processJob(handler, job)
	}

	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(handler func(payload any) error, job JobPayload) {
	defer q.wg.Done()

	for {
		err := handler(job.Payload)
		if err == nil {
			return
		}

		job.RetryCount++
		if job.RetryCount > job.MaxRetries {
			q.log.Warn().Err(err).
				Str("topic", job.Topic).
				Int("attempts", job.RetryCount).
				Msg("job dropped")
			return
		}

		q.log.Debug().Err(err).
			Str("topic", job.Topic).
			Int("attempt", job.RetryCount).
			Msg("job failed, retrying")
		time.Sleep(time.Duration(job.RetryCount) * q.backoff)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Wait blocks until every published job has finished. Used on shutdown and in tests.
func (q *InMemoryQueue) Wait() {
	q.wg.Wait()
}
