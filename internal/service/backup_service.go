package service

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	appErrors "github.com/unclebandit/folio-backend/internal/errors"
	"github.com/unclebandit/folio-backend/internal/model"
	"github.com/unclebandit/folio-backend/internal/repository"
)

// RestoreResult describes what a restore touched.
type RestoreResult struct {
	BackupID string   `json:"backup_id"`
	Table    string   `json:"table"`
	RecordID string   `json:"record_id"`
	Changed  []string `json:"changed"`
}

// BackupService keeps the data_backups trail and restores rows from it.
type BackupService struct {
	Repo    repository.BackupRepositoryInterface
	Records repository.UpdatableRecordStore
	Log     zerolog.Logger

	// OnRestore runs after a row was rewritten, e.g. to drop caches.
	OnRestore func(table repository.Table)
}

// Snapshot returns the current row as JSON, or nil when it cannot be read.
func (s *BackupService) Snapshot(ctx context.Context, table repository.Table, id string) json.RawMessage {
	rec, err := s.Records.GetRecord(ctx, table, id)
	if err != nil {
		s.Log.Warn().Err(err).Str("table", string(table)).Str("record_id", id).Msg("snapshot failed")
		return nil
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil
	}
	return raw
}

// Record appends one backup row. Failures are logged, never returned: the
// mutation it describes has already happened.
func (s *BackupService) Record(ctx context.Context, table repository.Table, recordID, op string, oldData, newData json.RawMessage) {
	b := &model.DataBackup{
		TableName: string(table),
		RecordID:  recordID,
		Operation: op,
		OldData:   oldData,
		NewData:   newData,
	}
	if err := s.Repo.Insert(ctx, b); err != nil {
		s.Log.Error().Err(err).
			Str("table", string(table)).
			Str("record_id", recordID).
			Str("operation", op).
			Msg("write backup")
	}
}

func (s *BackupService) ListForRecord(ctx context.Context, table, recordID string, limit int) ([]model.DataBackup, error) {
	return s.Repo.ListForRecord(ctx, table, recordID, limit)
}

func (s *BackupService) Get(ctx context.Context, id string) (*model.DataBackup, error) {
	return s.Repo.GetByID(ctx, id)
}

// Restore rewrites the row a backup refers to with the backup's snapshot.
// Only columns that differ from the current row are written.
func (s *BackupService) Restore(ctx context.Context, backupID string) (*RestoreResult, error) {
	b, err := s.Repo.GetByID(ctx, backupID)
	if err != nil {
		return nil, err
	}

	snapshot := b.OldData
	if isEmptySnapshot(snapshot) {
		snapshot = b.NewData
	}
	if isEmptySnapshot(snapshot) {
		return nil, appErrors.NewInvalidState("backup", backupID, b.Operation, "no snapshot to restore")
	}

	table, err := repository.ParseTable(b.TableName)
	if err != nil {
		return nil, appErrors.NewInvalidState("backup", backupID, b.Operation, err.Error())
	}

	target, ok := gjson.ParseBytes(snapshot).Value().(map[string]any)
	if !ok {
		return nil, appErrors.NewInvalidState("backup", backupID, b.Operation, "snapshot is not an object")
	}

	current, err := s.Records.GetRecord(ctx, table, b.RecordID)
	if err != nil {
		return nil, err
	}

	changes := diffRecord(current, target)
	if len(changes) > 0 {
		if err := s.Records.UpdateRecord(ctx, table, b.RecordID, changes); err != nil {
			return nil, fmt.Errorf("restore %s/%s: %w", table, b.RecordID, err)
		}
	}

	if s.OnRestore != nil && len(changes) > 0 {
		s.OnRestore(table)
	}

	before, _ := json.Marshal(current)
	s.Record(ctx, table, b.RecordID, model.OpRestore, before, snapshot)

	changed := make([]string, 0, len(changes))
	for col := range changes {
		changed = append(changed, col)
	}
	sort.Strings(changed)

	s.Log.Info().
		Str("backup_id", backupID).
		Str("table", string(table)).
		Str("record_id", b.RecordID).
		Strs("changed", changed).
		Msg("record restored")

	return &RestoreResult{BackupID: backupID, Table: string(table), RecordID: b.RecordID, Changed: changed}, nil
}

// diffRecord returns the target columns whose value differs from current.
// Columns the current row no longer has are skipped, as is the primary key.
func diffRecord(current, target map[string]any) map[string]any {
	changes := map[string]any{}
	for col, want := range target {
		if col == "id" {
			continue
		}
		have, ok := current[col]
		if !ok {
			continue
		}
		if !reflect.DeepEqual(have, want) {
			changes[col] = want
		}
	}
	return changes
}

func isEmptySnapshot(raw json.RawMessage) bool {
	return len(raw) == 0 || gjson.ParseBytes(raw).Type == gjson.Null
}
