package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/folio-backend/internal/errors"
	"github.com/unclebandit/folio-backend/internal/model"
	"github.com/unclebandit/folio-backend/internal/repository"
	"github.com/unclebandit/folio-backend/internal/service"
)

func TestRestoreWritesOnlyChangedColumns(t *testing.T) {
	ctx := context.Background()
	store := &fakeRecordStore{rows: map[string]map[string]any{
		"settings/st1": {"id": "st1", "key": "hero", "value_tr": "Yeni", "value_en": "Hello", "type": "text"},
	}}
	backups := &fakeBackupRepo{}
	var restored []repository.Table
	svc := &service.BackupService{
		Repo:      backups,
		Records:   store,
		Log:       zerolog.Nop(),
		OnRestore: func(t repository.Table) { restored = append(restored, t) },
	}

	svc.Record(ctx, repository.TableSettings, "st1", model.OpUpdate,
		json.RawMessage(`{"id":"st1","key":"hero","value_tr":"Eski","value_en":"Hello","type":"text","dropped_col":"x"}`),
		json.RawMessage(`{"id":"st1","key":"hero","value_tr":"Yeni","value_en":"Hello","type":"text"}`))

	res, err := svc.Restore(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"value_tr"}, res.Changed)

	require.Len(t, store.updates, 1)
	assert.Equal(t, map[string]any{"value_tr": "Eski"}, store.updates[0])
	assert.Equal(t, "Eski", store.rows["settings/st1"]["value_tr"])
	assert.Equal(t, []string{model.OpUpdate, model.OpRestore}, backups.ops())
	assert.Equal(t, []repository.Table{repository.TableSettings}, restored)
}

func TestRestoreFallsBackToNewData(t *testing.T) {
	ctx := context.Background()
	store := &fakeRecordStore{rows: map[string]map[string]any{
		"settings/st1": {"id": "st1", "value_en": "changed"},
	}}
	backups := &fakeBackupRepo{}
	svc := &service.BackupService{Repo: backups, Records: store, Log: zerolog.Nop()}

	svc.Record(ctx, repository.TableSettings, "st1", model.OpInsert, nil, json.RawMessage(`{"id":"st1","value_en":"original"}`))

	res, err := svc.Restore(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"value_en"}, res.Changed)
	assert.Equal(t, "original", store.rows["settings/st1"]["value_en"])
}

func TestRestoreNoChangesSkipsUpdate(t *testing.T) {
	ctx := context.Background()
	store := &fakeRecordStore{rows: map[string]map[string]any{
		"settings/st1": {"id": "st1", "value_en": "same"},
	}}
	svc := &service.BackupService{Repo: &fakeBackupRepo{}, Records: store, Log: zerolog.Nop()}
	svc.Record(ctx, repository.TableSettings, "st1", model.OpUpdate, json.RawMessage(`{"value_en":"same"}`), nil)

	res, err := svc.Restore(ctx, "b-1")
	require.NoError(t, err)
	assert.Empty(t, res.Changed)
	assert.Empty(t, store.updates)
}

func TestRestoreErrors(t *testing.T) {
	ctx := context.Background()
	backups := &fakeBackupRepo{}
	svc := &service.BackupService{Repo: backups, Records: &fakeRecordStore{rows: map[string]map[string]any{}}, Log: zerolog.Nop()}

	_, err := svc.Restore(ctx, "missing")
	var nf *appErrors.NotFoundError
	assert.ErrorAs(t, err, &nf)

	svc.Record(ctx, repository.TableSettings, "st1", model.OpDelete, nil, json.RawMessage("null"))
	_, err = svc.Restore(ctx, "b-1")
	var stErr *appErrors.InvalidStateError
	assert.ErrorAs(t, err, &stErr)

	require.NoError(t, backups.Insert(ctx, &model.DataBackup{TableName: "users", RecordID: "u1", Operation: model.OpUpdate, OldData: json.RawMessage(`{"a":1}`)}))
	_, err = svc.Restore(ctx, "b-2")
	assert.ErrorAs(t, err, &stErr, "table outside the whitelist")
}
