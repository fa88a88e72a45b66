package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	appErrors "github.com/unclebandit/folio-backend/internal/errors"
	"github.com/unclebandit/folio-backend/internal/model"
	"github.com/unclebandit/folio-backend/internal/repository"
)

const settingsListKey = "settings:all"

// SettingInput is the writable part of a setting.
type SettingInput struct {
	Key     string  `json:"key"`
	ValueTR *string `json:"value_tr"`
	ValueEN *string `json:"value_en"`
	Type    string  `json:"type"`
}

type SettingsService struct {
	Repo    repository.SettingRepositoryInterface
	Backups *BackupService
	Cache   *cache.Cache
	Log     zerolog.Logger
}

func NewSettingsService(repo repository.SettingRepositoryInterface, backups *BackupService, ttl time.Duration, log zerolog.Logger) *SettingsService {
	return &SettingsService{
		Repo:    repo,
		Backups: backups,
		Cache:   cache.New(ttl, 2*ttl),
		Log:     log,
	}
}

func (s *SettingsService) List(ctx context.Context) ([]model.Setting, error) {
	if v, ok := s.Cache.Get(settingsListKey); ok {
		return v.([]model.Setting), nil
	}
	settings, err := s.Repo.List(ctx)
	if err != nil {
		return nil, err
	}
	s.Cache.SetDefault(settingsListKey, settings)
	return settings, nil
}

func (s *SettingsService) Get(ctx context.Context, key string) (*model.Setting, error) {
	if v, ok := s.Cache.Get("setting:" + key); ok {
		return v.(*model.Setting), nil
	}
	setting, err := s.Repo.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	s.Cache.SetDefault("setting:"+key, setting)
	return setting, nil
}

// Localized returns the value for lang ("tr" or "en"), falling back to the
// other language when the requested one is empty.
func (s *SettingsService) Localized(ctx context.Context, key, lang string) (string, error) {
	setting, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}
	first, second := setting.ValueTR, setting.ValueEN
	if strings.EqualFold(lang, "en") {
		first, second = second, first
	}
	if first != nil && *first != "" {
		return *first, nil
	}
	if second != nil {
		return *second, nil
	}
	return "", nil
}

func (s *SettingsService) Create(ctx context.Context, in SettingInput) (*model.Setting, error) {
	if err := validateSetting(&in, true); err != nil {
		return nil, err
	}
	setting := &model.Setting{Key: in.Key, ValueTR: in.ValueTR, ValueEN: in.ValueEN, Type: in.Type}
	if err := s.Repo.Create(ctx, setting); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, appErrors.NewValidation("key", "already exists")
		}
		return nil, err
	}
	s.invalidate(setting.Key)

	s.Backups.Record(ctx, repository.TableSettings, setting.ID, model.OpInsert, nil,
		s.Backups.Snapshot(ctx, repository.TableSettings, setting.ID))
	return setting, nil
}

func (s *SettingsService) Update(ctx context.Context, id string, in SettingInput) (*model.Setting, error) {
	if err := validateSetting(&in, false); err != nil {
		return nil, err
	}
	current, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := s.Backups.Snapshot(ctx, repository.TableSettings, id)

	current.ValueTR = in.ValueTR
	current.ValueEN = in.ValueEN
	current.Type = in.Type
	if err := s.Repo.Update(ctx, current); err != nil {
		return nil, err
	}
	s.invalidate(current.Key)

	s.Backups.Record(ctx, repository.TableSettings, id, model.OpUpdate, before,
		s.Backups.Snapshot(ctx, repository.TableSettings, id))
	return current, nil
}

// Delete soft-deletes the setting; the row stays for the backup trail.
func (s *SettingsService) Delete(ctx context.Context, id string) error {
	current, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	before := s.Backups.Snapshot(ctx, repository.TableSettings, id)

	if err := s.Repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.invalidate(current.Key)

	s.Backups.Record(ctx, repository.TableSettings, id, model.OpDelete, before, nil)
	return nil
}

// Invalidate drops every cached setting. Used after a restore.
func (s *SettingsService) Invalidate() {
	s.Cache.Flush()
}

func (s *SettingsService) invalidate(key string) {
	s.Cache.Delete(settingsListKey)
	s.Cache.Delete("setting:" + key)
}

func validateSetting(in *SettingInput, requireKey bool) error {
	in.Key = strings.TrimSpace(in.Key)
	if requireKey && in.Key == "" {
		return appErrors.NewValidation("key", "required")
	}
	if in.Type == "" {
		in.Type = model.SettingText
	}
	switch in.Type {
	case model.SettingText:
	case model.SettingJSON:
		for _, v := range []*string{in.ValueTR, in.ValueEN} {
			if v != nil && *v != "" && !json.Valid([]byte(*v)) {
				return appErrors.NewValidation("value", "not valid JSON")
			}
		}
	default:
		return appErrors.NewValidation("type", "must be text or json")
	}
	return nil
}
