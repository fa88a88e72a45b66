package repository

import (
	"context"
	"database/sql"
	"errors"

	appErrors "github.com/unclebandit/folio-backend/internal/errors"
	"github.com/unclebandit/folio-backend/internal/model"
)

type BackupRepositoryInterface interface {
	Insert(ctx context.Context, b *model.DataBackup) error
	GetByID(ctx context.Context, id string) (*model.DataBackup, error)
	ListForRecord(ctx context.Context, table, recordID string, limit int) ([]model.DataBackup, error)
}

// BackupRepository stores data_backups rows. Rows are never updated or deleted.
type BackupRepository struct {
	DB *sql.DB
}

func (r *BackupRepository) Insert(ctx context.Context, b *model.DataBackup) error {
	query := `
        INSERT INTO data_backups (table_name, record_id, operation, old_data, new_data)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, changed_at
    `
	return r.DB.QueryRowContext(ctx, query, b.TableName, b.RecordID, b.Operation,
		nullableJSON(b.OldData), nullableJSON(b.NewData)).Scan(&b.ID, &b.ChangedAt)
}

func (r *BackupRepository) GetByID(ctx context.Context, id string) (*model.DataBackup, error) {
	query := `
        SELECT id, table_name, record_id, operation, old_data, new_data, changed_at
        FROM data_backups WHERE id = $1
    `
	b, err := scanBackup(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.NewNotFound("backup", id)
	}
	return b, err
}

func (r *BackupRepository) ListForRecord(ctx context.Context, table, recordID string, limit int) ([]model.DataBackup, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
        SELECT id, table_name, record_id, operation, old_data, new_data, changed_at
        FROM data_backups
        WHERE table_name = $1 AND record_id = $2
        ORDER BY changed_at DESC
        LIMIT $3
    `
	rows, err := r.DB.QueryContext(ctx, query, table, recordID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	backups := []model.DataBackup{}
	for rows.Next() {
		b, err := scanBackup(rows)
		if err != nil {
			return nil, err
		}
		backups = append(backups, *b)
	}
	return backups, rows.Err()
}

func scanBackup(row rowScanner) (*model.DataBackup, error) {
	var b model.DataBackup
	var oldData, newData []byte
	if err := row.Scan(&b.ID, &b.TableName, &b.RecordID, &b.Operation, &oldData, &newData, &b.ChangedAt); err != nil {
		return nil, err
	}
	b.OldData = oldData
	b.NewData = newData
	return &b, nil
}

// nullableJSON keeps empty snapshots as SQL NULL instead of an invalid jsonb literal.
func nullableJSON(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

var _ BackupRepositoryInterface = (*BackupRepository)(nil)
