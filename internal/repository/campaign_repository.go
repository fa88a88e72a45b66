package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	appErrors "github.com/unclebandit/folio-backend/internal/errors"
	"github.com/unclebandit/folio-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	// Campaign CRUD
	ListCampaigns(ctx context.Context, offset, limit int, status string) ([]*model.Campaign, int, error)
	GetByID(ctx context.Context, id string) (*model.Campaign, error)
	Create(ctx context.Context, c *model.Campaign) error

	// Send lifecycle
	MarkSending(ctx context.Context, id string) (bool, error)
	Finish(ctx context.Context, id, status string, sentAt time.Time, total, delivered int) error
	GetSendStats(ctx context.Context, id string) (map[string]int, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, subject, html_content, text_content, status, total_recipients, delivered, sent_at, created_at, updated_at`

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	if c.Status == "" {
		c.Status = model.CampaignDraft
	}
	query := `
        INSERT INTO email_campaigns (subject, html_content, text_content, status)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at
    `
	return r.DB.QueryRowContext(ctx, query, c.Subject, c.HTMLContent, c.TextContent, c.Status).Scan(&c.ID, &c.CreatedAt)
}

func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM email_campaigns WHERE id=$1`
	c, err := scanCampaign(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) ListCampaigns(ctx context.Context, offset, limit int, status string) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	where := ` WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if status != "" {
		where += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}

	query := `SELECT ` + campaignColumns + ` FROM email_campaigns` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)

	rows, err := r.DB.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM email_campaigns`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

// ====================== Send lifecycle ======================

// MarkSending moves a draft or scheduled campaign to sending in a single
// conditional update. It returns false when another caller got there first
// or the campaign was not sendable.
func (r *CampaignRepository) MarkSending(ctx context.Context, id string) (bool, error) {
	query := `
        UPDATE email_campaigns
        SET status=$1, updated_at=NOW()
        WHERE id=$2 AND status = ANY($3)
    `
	res, err := r.DB.ExecContext(ctx, query, model.CampaignSending, id,
		pq.Array([]string{model.CampaignDraft, model.CampaignScheduled}))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *CampaignRepository) Finish(ctx context.Context, id, status string, sentAt time.Time, total, delivered int) error {
	query := `
        UPDATE email_campaigns
        SET status=$1, sent_at=$2, total_recipients=$3, delivered=$4, updated_at=NOW()
        WHERE id=$5
    `
	_, err := r.DB.ExecContext(ctx, query, status, sentAt, total, delivered, id)
	return err
}

func (r *CampaignRepository) GetSendStats(ctx context.Context, id string) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM email_send_log WHERE campaign_id=$1 GROUP BY status`
	rows, err := r.DB.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{"total": 0, model.SendStatusSent: 0, model.SendStatusFailed: 0}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
		stats["total"] += count
	}
	return stats, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (*model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(&c.ID, &c.Subject, &c.HTMLContent, &c.TextContent, &c.Status,
		&c.TotalRecipients, &c.Delivered, &c.SentAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
