package repository

import (
	"context"
	"database/sql"

	"github.com/unclebandit/folio-backend/internal/model"
)

type SendLogRepositoryInterface interface {
	Insert(ctx context.Context, e *model.SendLogEntry) error
	ListByCampaign(ctx context.Context, campaignID string) ([]model.SendLogEntry, error)
}

// SendLogRepository writes the append-only delivery audit trail.
type SendLogRepository struct {
	DB *sql.DB
}

func (r *SendLogRepository) Insert(ctx context.Context, e *model.SendLogEntry) error {
	query := `
        INSERT INTO email_send_log
        (campaign_id, subscriber_id, email, status, message_id, sent_at, error_message)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at
    `
	return r.DB.QueryRowContext(
		ctx,
		query,
		e.CampaignID,
		e.SubscriberID,
		e.Email,
		e.Status,
		e.MessageID,
		e.SentAt,
		e.ErrorMessage,
	).Scan(&e.ID, &e.CreatedAt)
}

func (r *SendLogRepository) ListByCampaign(ctx context.Context, campaignID string) ([]model.SendLogEntry, error) {
	query := `
        SELECT id, campaign_id, subscriber_id, email, status, message_id, sent_at, error_message, created_at
        FROM email_send_log
        WHERE campaign_id = $1
        ORDER BY created_at
    `
	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []model.SendLogEntry{}
	for rows.Next() {
		var e model.SendLogEntry
		if err := rows.Scan(&e.ID, &e.CampaignID, &e.SubscriberID, &e.Email, &e.Status,
			&e.MessageID, &e.SentAt, &e.ErrorMessage, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

var _ SendLogRepositoryInterface = (*SendLogRepository)(nil)
