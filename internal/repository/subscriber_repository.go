package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	appErrors "github.com/unclebandit/folio-backend/internal/errors"
	"github.com/unclebandit/folio-backend/internal/model"
)

// SubscriberRepositoryInterface defines methods used by the services
type SubscriberRepositoryInterface interface {
	GetByID(ctx context.Context, id string) (*model.Subscriber, error)
	ListActive(ctx context.Context) ([]model.Subscriber, error)
	MarkUnsubscribed(ctx context.Context, id string, at time.Time) error
}

// SubscriberRepository is the concrete implementation
type SubscriberRepository struct {
	DB *sql.DB
}

const subscriberColumns = `id, email, name, status, unsubscribed_at, created_at, deleted_at`

// GetByID fetches a subscriber, soft-deleted rows included
func (r *SubscriberRepository) GetByID(ctx context.Context, id string) (*model.Subscriber, error) {
	query := `SELECT ` + subscriberColumns + ` FROM newsletter_subscribers WHERE id = $1`

	var s model.Subscriber
	err := r.DB.QueryRowContext(ctx, query, id).
		Scan(&s.ID, &s.Email, &s.Name, &s.Status, &s.UnsubscribedAt, &s.CreatedAt, &s.DeletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("subscriber", id)
		}
		return nil, err
	}
	return &s, nil
}

// ListActive returns the campaign audience: active and not soft-deleted.
func (r *SubscriberRepository) ListActive(ctx context.Context) ([]model.Subscriber, error) {
	query := `
        SELECT ` + subscriberColumns + `
        FROM newsletter_subscribers
        WHERE status = $1 AND deleted_at IS NULL
        ORDER BY created_at
    `
	rows, err := r.DB.QueryContext(ctx, query, model.SubscriberActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subscribers := []model.Subscriber{}
	for rows.Next() {
		var s model.Subscriber
		if err := rows.Scan(&s.ID, &s.Email, &s.Name, &s.Status, &s.UnsubscribedAt, &s.CreatedAt, &s.DeletedAt); err != nil {
			return nil, err
		}
		subscribers = append(subscribers, s)
	}
	return subscribers, rows.Err()
}

func (r *SubscriberRepository) MarkUnsubscribed(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE newsletter_subscribers SET status = $1, unsubscribed_at = $2 WHERE id = $3 AND status = $4`
	_, err := r.DB.ExecContext(ctx, query, model.SubscriberUnsubscribed, at, id, model.SubscriberActive)
	return err
}

var _ SubscriberRepositoryInterface = (*SubscriberRepository)(nil)
