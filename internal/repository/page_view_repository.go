package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/unclebandit/folio-backend/internal/model"
)

// PageViewFilter narrows page view reads. Zero values mean "no bound".
type PageViewFilter struct {
	From  time.Time
	To    time.Time
	Desc  bool
	Limit int
}

type PageViewRepositoryInterface interface {
	Insert(ctx context.Context, pv *model.PageView) error
	List(ctx context.Context, f PageViewFilter) ([]model.PageView, error)
}

type PageViewRepository struct {
	DB *sql.DB
}

func (r *PageViewRepository) Insert(ctx context.Context, pv *model.PageView) error {
	query := `
        INSERT INTO page_views (path, referrer, user_agent, device_type, session_id)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at
    `
	return r.DB.QueryRowContext(ctx, query, pv.Path, pv.Referrer, pv.UserAgent, pv.DeviceType, pv.SessionID).
		Scan(&pv.ID, &pv.CreatedAt)
}

func (r *PageViewRepository) List(ctx context.Context, f PageViewFilter) ([]model.PageView, error) {
	query := `SELECT id, path, referrer, user_agent, device_type, session_id, created_at FROM page_views WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if !f.From.IsZero() {
		query += fmt.Sprintf(" AND created_at >= $%d", argPos)
		args = append(args, f.From)
		argPos++
	}
	if !f.To.IsZero() {
		query += fmt.Sprintf(" AND created_at <= $%d", argPos)
		args = append(args, f.To)
		argPos++
	}

	if f.Desc {
		query += " ORDER BY created_at DESC, id DESC"
	} else {
		query += " ORDER BY created_at, id"
	}
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, f.Limit)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	views := []model.PageView{}
	for rows.Next() {
		var pv model.PageView
		if err := rows.Scan(&pv.ID, &pv.Path, &pv.Referrer, &pv.UserAgent, &pv.DeviceType, &pv.SessionID, &pv.CreatedAt); err != nil {
			return nil, err
		}
		views = append(views, pv)
	}
	return views, rows.Err()
}

var _ PageViewRepositoryInterface = (*PageViewRepository)(nil)
