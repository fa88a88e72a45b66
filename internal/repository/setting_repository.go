package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	appErrors "github.com/unclebandit/folio-backend/internal/errors"
	"github.com/unclebandit/folio-backend/internal/model"
)

// ErrDuplicateKey is returned when a live or deleted setting already owns the key.
var ErrDuplicateKey = errors.New("setting key already exists")

type SettingRepositoryInterface interface {
	List(ctx context.Context) ([]model.Setting, error)
	GetByKey(ctx context.Context, key string) (*model.Setting, error)
	GetByID(ctx context.Context, id string) (*model.Setting, error)
	Create(ctx context.Context, s *model.Setting) error
	Update(ctx context.Context, s *model.Setting) error
	SoftDelete(ctx context.Context, id string) error
}

type SettingRepository struct {
	DB *sql.DB
}

const settingColumns = `id, key, value_tr, value_en, type, created_at, updated_at, deleted_at`

func scanSetting(row rowScanner) (*model.Setting, error) {
	var s model.Setting
	if err := row.Scan(&s.ID, &s.Key, &s.ValueTR, &s.ValueEN, &s.Type, &s.CreatedAt, &s.UpdatedAt, &s.DeletedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SettingRepository) List(ctx context.Context) ([]model.Setting, error) {
	query := `SELECT ` + settingColumns + ` FROM settings WHERE deleted_at IS NULL ORDER BY key`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := []model.Setting{}
	for rows.Next() {
		s, err := scanSetting(rows)
		if err != nil {
			return nil, err
		}
		settings = append(settings, *s)
	}
	return settings, rows.Err()
}

func (r *SettingRepository) GetByKey(ctx context.Context, key string) (*model.Setting, error) {
	query := `SELECT ` + settingColumns + ` FROM settings WHERE key = $1 AND deleted_at IS NULL`
	s, err := scanSetting(r.DB.QueryRowContext(ctx, query, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.NewNotFound("setting", key)
	}
	return s, err
}

func (r *SettingRepository) GetByID(ctx context.Context, id string) (*model.Setting, error) {
	query := `SELECT ` + settingColumns + ` FROM settings WHERE id = $1 AND deleted_at IS NULL`
	s, err := scanSetting(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.NewNotFound("setting", id)
	}
	return s, err
}

func (r *SettingRepository) Create(ctx context.Context, s *model.Setting) error {
	query := `
        INSERT INTO settings (key, value_tr, value_en, type)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at
    `
	err := r.DB.QueryRowContext(ctx, query, s.Key, s.ValueTR, s.ValueEN, s.Type).Scan(&s.ID, &s.CreatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicateKey
	}
	return err
}

func (r *SettingRepository) Update(ctx context.Context, s *model.Setting) error {
	query := `
        UPDATE settings
        SET value_tr = $1, value_en = $2, type = $3, updated_at = NOW()
        WHERE id = $4 AND deleted_at IS NULL
        RETURNING updated_at
    `
	err := r.DB.QueryRowContext(ctx, query, s.ValueTR, s.ValueEN, s.Type, s.ID).Scan(&s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.NewNotFound("setting", s.ID)
	}
	return err
}

func (r *SettingRepository) SoftDelete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE settings SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewNotFound("setting", id)
	}
	return nil
}

var _ SettingRepositoryInterface = (*SettingRepository)(nil)
