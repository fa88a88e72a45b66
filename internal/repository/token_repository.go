package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	appErrors "github.com/unclebandit/folio-backend/internal/errors"
	"github.com/unclebandit/folio-backend/internal/model"
)

type TokenRepositoryInterface interface {
	FindUnused(ctx context.Context, subscriberID string) (*model.UnsubscribeToken, error)
	Create(ctx context.Context, t *model.UnsubscribeToken) error
	FindValid(ctx context.Context, token string) (*model.UnsubscribeToken, *model.Subscriber, error)
	MarkUsed(ctx context.Context, id string, at time.Time) error
}

type TokenRepository struct {
	DB *sql.DB
}

// ErrTokenConflict is returned by Create when the subscriber already holds an
// unused token (unique partial index) or the token value collides.
var ErrTokenConflict = errors.New("unsubscribe token conflict")

// FindUnused returns the subscriber's live token, or nil when there is none.
func (r *TokenRepository) FindUnused(ctx context.Context, subscriberID string) (*model.UnsubscribeToken, error) {
	query := `
        SELECT id, subscriber_id, token, used_at, created_at
        FROM unsubscribe_tokens
        WHERE subscriber_id = $1 AND used_at IS NULL
        LIMIT 1
    `
	var t model.UnsubscribeToken
	err := r.DB.QueryRowContext(ctx, query, subscriberID).
		Scan(&t.ID, &t.SubscriberID, &t.Token, &t.UsedAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TokenRepository) Create(ctx context.Context, t *model.UnsubscribeToken) error {
	query := `
        INSERT INTO unsubscribe_tokens (subscriber_id, token)
        VALUES ($1, $2)
        RETURNING id, created_at
    `
	err := r.DB.QueryRowContext(ctx, query, t.SubscriberID, t.Token).Scan(&t.ID, &t.CreatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrTokenConflict
	}
	return err
}

// FindValid resolves an unused token together with its subscriber.
func (r *TokenRepository) FindValid(ctx context.Context, token string) (*model.UnsubscribeToken, *model.Subscriber, error) {
	query := `
        SELECT t.id, t.subscriber_id, t.token, t.used_at, t.created_at,
               s.id, s.email, s.name, s.status, s.unsubscribed_at, s.created_at, s.deleted_at
        FROM unsubscribe_tokens t
        JOIN newsletter_subscribers s ON s.id = t.subscriber_id
        WHERE t.token = $1 AND t.used_at IS NULL
    `
	var t model.UnsubscribeToken
	var s model.Subscriber
	err := r.DB.QueryRowContext(ctx, query, token).Scan(
		&t.ID, &t.SubscriberID, &t.Token, &t.UsedAt, &t.CreatedAt,
		&s.ID, &s.Email, &s.Name, &s.Status, &s.UnsubscribedAt, &s.CreatedAt, &s.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.NewNotFound("unsubscribe token", "")
		}
		return nil, nil, err
	}
	return &t, &s, nil
}

// MarkUsed consumes the token. A token already consumed by a concurrent
// request yields NotFoundError.
func (r *TokenRepository) MarkUsed(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE unsubscribe_tokens SET used_at = $1 WHERE id = $2 AND used_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, at, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewNotFound("unsubscribe token", id)
	}
	return nil
}

var _ TokenRepositoryInterface = (*TokenRepository)(nil)
