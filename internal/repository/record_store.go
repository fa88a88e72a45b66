package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lib/pq"
	"github.com/tidwall/gjson"

	appErrors "github.com/unclebandit/folio-backend/internal/errors"
)

// Table is a table identifier that backups may be restored into.
type Table string

// TableSettings is the only table whose rows are snapshotted on write.
const TableSettings Table = "settings"

var restorableTables = map[Table]bool{
	TableSettings: true,
}

// ParseTable maps a stored table name onto the restorable whitelist.
func ParseTable(name string) (Table, error) {
	t := Table(name)
	if !restorableTables[t] {
		return "", fmt.Errorf("table %q is not restorable", name)
	}
	return t, nil
}

// UpdatableRecordStore reads and patches single rows of whitelisted tables.
type UpdatableRecordStore interface {
	GetRecord(ctx context.Context, table Table, id string) (map[string]any, error)
	UpdateRecord(ctx context.Context, table Table, id string, changes map[string]any) error
}

type PostgresRecordStore struct {
	DB *sql.DB
}

func (s *PostgresRecordStore) GetRecord(ctx context.Context, table Table, id string) (map[string]any, error) {
	if !restorableTables[table] {
		return nil, fmt.Errorf("table %q is not restorable", table)
	}
	query := fmt.Sprintf(`SELECT row_to_json(t) FROM %s t WHERE t.id = $1`, pq.QuoteIdentifier(string(table)))

	var raw []byte
	if err := s.DB.QueryRowContext(ctx, query, id).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound(string(table), id)
		}
		return nil, err
	}

	record, ok := gjson.ParseBytes(raw).Value().(map[string]any)
	if !ok {
		return nil, fmt.Errorf("row of %s is not a JSON object", table)
	}
	return record, nil
}

// UpdateRecord writes the given columns. Column order is sorted so the
// generated statement is stable.
func (s *PostgresRecordStore) UpdateRecord(ctx context.Context, table Table, id string, changes map[string]any) error {
	if !restorableTables[table] {
		return fmt.Errorf("table %q is not restorable", table)
	}
	if len(changes) == 0 {
		return nil
	}

	columns := make([]string, 0, len(changes))
	for col := range changes {
		if col == "id" {
			continue
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	sets := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns)+1)
	for i, col := range columns {
		sets = append(sets, fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(col), i+1))
		args = append(args, columnValue(changes[col]))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d",
		pq.QuoteIdentifier(string(table)), strings.Join(sets, ", "), len(args))
	_, err := s.DB.ExecContext(ctx, query, args...)
	return err
}

// columnValue converts a decoded JSON value back into a driver value.
func columnValue(v any) interface{} {
	switch val := v.(type) {
	case map[string]any, []any:
		b, _ := json.Marshal(val)
		return string(b)
	default:
		return val
	}
}

var _ UpdatableRecordStore = (*PostgresRecordStore)(nil)
