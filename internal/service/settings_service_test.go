package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/folio-backend/internal/errors"
	"github.com/unclebandit/folio-backend/internal/model"
	"github.com/unclebandit/folio-backend/internal/service"
)

func strPtr(s string) *string { return &s }

func newSettingsFixture() (*service.SettingsService, *fakeSettingRepo, *fakeBackupRepo) {
	repo := newFakeSettingRepo()
	backups := &fakeBackupRepo{}
	bs := &service.BackupService{Repo: backups, Records: &fakeRecordStore{rows: map[string]map[string]any{}}, Log: zerolog.Nop()}
	return service.NewSettingsService(repo, bs, 5*time.Minute, zerolog.Nop()), repo, backups
}

func TestSettingsCacheAndInvalidation(t *testing.T) {
	svc, repo, _ := newSettingsFixture()
	ctx := context.Background()

	created, err := svc.Create(ctx, service.SettingInput{Key: "hero_title", ValueTR: strPtr("Merhaba"), ValueEN: strPtr("Hello")})
	require.NoError(t, err)
	assert.Equal(t, model.SettingText, created.Type)

	_, err = svc.Get(ctx, "hero_title")
	require.NoError(t, err)
	_, err = svc.Get(ctx, "hero_title")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.keyHits, "second read served from cache")

	_, err = svc.Update(ctx, created.ID, service.SettingInput{ValueTR: strPtr("Selam"), ValueEN: strPtr("Hi")})
	require.NoError(t, err)

	got, err := svc.Get(ctx, "hero_title")
	require.NoError(t, err)
	assert.Equal(t, "Selam", *got.ValueTR)
	assert.Equal(t, 2, repo.keyHits, "write invalidated the cached entry")
}

func TestSettingsListCached(t *testing.T) {
	svc, repo, _ := newSettingsFixture()
	ctx := context.Background()

	_, err := svc.List(ctx)
	require.NoError(t, err)
	_, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listHits)

	_, err = svc.Create(ctx, service.SettingInput{Key: "footer"})
	require.NoError(t, err)
	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 2, repo.listHits)
}

func TestSettingsMutationsWriteBackups(t *testing.T) {
	svc, _, backups := newSettingsFixture()
	ctx := context.Background()

	s, err := svc.Create(ctx, service.SettingInput{Key: "k"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, s.ID, service.SettingInput{ValueEN: strPtr("v")})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, s.ID))

	assert.Equal(t, []string{model.OpInsert, model.OpUpdate, model.OpDelete}, backups.ops())

	_, err = svc.Get(ctx, "k")
	var nf *appErrors.NotFoundError
	assert.ErrorAs(t, err, &nf, "soft-deleted settings are hidden")
}

func TestSettingsValidation(t *testing.T) {
	svc, _, _ := newSettingsFixture()
	ctx := context.Background()
	var vErr *appErrors.ValidationError

	_, err := svc.Create(ctx, service.SettingInput{Key: " "})
	assert.ErrorAs(t, err, &vErr)

	_, err = svc.Create(ctx, service.SettingInput{Key: "social", Type: model.SettingJSON, ValueTR: strPtr("{not json")})
	assert.ErrorAs(t, err, &vErr)

	_, err = svc.Create(ctx, service.SettingInput{Key: "social", Type: model.SettingJSON, ValueTR: strPtr(`{"x":1}`)})
	assert.NoError(t, err)

	_, err = svc.Create(ctx, service.SettingInput{Key: "social"})
	assert.ErrorAs(t, err, &vErr, "duplicate key")

	_, err = svc.Create(ctx, service.SettingInput{Key: "other", Type: "yaml"})
	assert.ErrorAs(t, err, &vErr)
}

func TestSettingsLocalizedFallback(t *testing.T) {
	svc, _, _ := newSettingsFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, service.SettingInput{Key: "only_tr", ValueTR: strPtr("Türkçe")})
	require.NoError(t, err)

	v, err := svc.Localized(ctx, "only_tr", "en")
	require.NoError(t, err)
	assert.Equal(t, "Türkçe", v)

	v, err = svc.Localized(ctx, "only_tr", "tr")
	require.NoError(t, err)
	assert.Equal(t, "Türkçe", v)
}
