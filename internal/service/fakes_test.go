package service_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	appErrors "github.com/unclebandit/folio-backend/internal/errors"
	"github.com/unclebandit/folio-backend/internal/lock"
	"github.com/unclebandit/folio-backend/internal/model"
	"github.com/unclebandit/folio-backend/internal/repository"
)

// --- Campaigns ---

type fakeCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[string]*model.Campaign
	stats     map[string]int
	claims    int
	loseClaim bool
	created   int
}

func newFakeCampaignRepo(cs ...*model.Campaign) *fakeCampaignRepo {
	r := &fakeCampaignRepo{campaigns: map[string]*model.Campaign{}}
	for _, c := range cs {
		r.campaigns[c.ID] = c
	}
	return r
}

func (r *fakeCampaignRepo) ListCampaigns(ctx context.Context, offset, limit int, status string) ([]*model.Campaign, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := []*model.Campaign{}
	for _, c := range r.campaigns {
		if status == "" || c.Status == status {
			all = append(all, c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if offset >= len(all) {
		return []*model.Campaign{}, len(all), nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func (r *fakeCampaignRepo) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCampaignRepo) Create(ctx context.Context, c *model.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created++
	c.ID = fmt.Sprintf("new-%d", r.created)
	c.CreatedAt = time.Now()
	r.campaigns[c.ID] = c
	return nil
}

func (r *fakeCampaignRepo) MarkSending(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.claims++
	c, ok := r.campaigns[id]
	if !ok || r.loseClaim || !c.Sendable() {
		return false, nil
	}
	c.Status = model.CampaignSending
	return true, nil
}

func (r *fakeCampaignRepo) Finish(ctx context.Context, id, status string, sentAt time.Time, total, delivered int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.campaigns[id]
	c.Status = status
	c.SentAt = &sentAt
	c.TotalRecipients = total
	c.Delivered = delivered
	return nil
}

func (r *fakeCampaignRepo) GetSendStats(ctx context.Context, id string) (map[string]int, error) {
	if r.stats == nil {
		return map[string]int{"total": 0, "sent": 0, "failed": 0}, nil
	}
	return r.stats, nil
}

func (r *fakeCampaignRepo) get(id string) model.Campaign {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.campaigns[id]
}

// --- Subscribers ---

type fakeSubscriberRepo struct {
	mu   sync.Mutex
	subs []*model.Subscriber
	err  error
}

func (r *fakeSubscriberRepo) GetByID(ctx context.Context, id string) (*model.Subscriber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subs {
		if s.ID == id {
			cp := *s
			return &cp, nil
		}
	}
	return nil, appErrors.NewNotFound("subscriber", id)
}

func (r *fakeSubscriberRepo) ListActive(ctx context.Context) ([]model.Subscriber, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Subscriber{}
	for _, s := range r.subs {
		if s.Status == model.SubscriberActive && s.DeletedAt == nil {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSubscriberRepo) MarkUnsubscribed(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subs {
		if s.ID == id && s.Status == model.SubscriberActive {
			s.Status = model.SubscriberUnsubscribed
			s.UnsubscribedAt = &at
		}
	}
	return nil
}

func activeSubscriber(id, email string) *model.Subscriber {
	return &model.Subscriber{ID: id, Email: email, Status: model.SubscriberActive}
}

// --- Tokens ---

type fakeTokenRepo struct {
	mu      sync.Mutex
	tokens  []*model.UnsubscribeToken
	created int
	subs    *fakeSubscriberRepo
}

func (r *fakeTokenRepo) FindUnused(ctx context.Context, subscriberID string) (*model.UnsubscribeToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.SubscriberID == subscriberID && t.UsedAt == nil {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeTokenRepo) Create(ctx context.Context, t *model.UnsubscribeToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.tokens {
		if existing.Token == t.Token || (existing.SubscriberID == t.SubscriberID && existing.UsedAt == nil) {
			return repository.ErrTokenConflict
		}
	}
	r.created++
	t.ID = fmt.Sprintf("tok-%d", r.created)
	cp := *t
	r.tokens = append(r.tokens, &cp)
	return nil
}

func (r *fakeTokenRepo) FindValid(ctx context.Context, token string) (*model.UnsubscribeToken, *model.Subscriber, error) {
	r.mu.Lock()
	var found *model.UnsubscribeToken
	for _, t := range r.tokens {
		if t.Token == token && t.UsedAt == nil {
			cp := *t
			found = &cp
		}
	}
	r.mu.Unlock()
	if found == nil {
		return nil, nil, appErrors.NewNotFound("unsubscribe token", "")
	}
	sub, err := r.subs.GetByID(ctx, found.SubscriberID)
	if err != nil {
		return nil, nil, err
	}
	return found, sub, nil
}

func (r *fakeTokenRepo) MarkUsed(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.ID == id && t.UsedAt == nil {
			t.UsedAt = &at
			return nil
		}
	}
	return appErrors.NewNotFound("unsubscribe token", id)
}

func (r *fakeTokenRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

// --- Send log ---

type fakeSendLog struct {
	mu      sync.Mutex
	entries []model.SendLogEntry
}

func (r *fakeSendLog) Insert(ctx context.Context, e *model.SendLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *e)
	return nil
}

func (r *fakeSendLog) ListByCampaign(ctx context.Context, campaignID string) ([]model.SendLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.SendLogEntry{}
	for _, e := range r.entries {
		if e.CampaignID == campaignID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeSendLog) countByStatus() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]int{}
	for _, e := range r.entries {
		out[e.Status]++
	}
	return out
}

// --- Locker ---

type heldLocker struct{}

func (heldLocker) TryLock(context.Context, string) (lock.Lock, bool, error) { return nil, false, nil }

// --- Page views ---

type fakePageViewRepo struct {
	mu        sync.Mutex
	views     []model.PageView
	insertErr error
	lastList  repository.PageViewFilter
	block     chan struct{}
}

func (r *fakePageViewRepo) Insert(ctx context.Context, pv *model.PageView) error {
	if r.block != nil {
		<-r.block
	}
	if r.insertErr != nil {
		return r.insertErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	pv.ID = int64(len(r.views) + 1)
	pv.CreatedAt = time.Now()
	r.views = append(r.views, *pv)
	return nil
}

func (r *fakePageViewRepo) List(ctx context.Context, f repository.PageViewFilter) ([]model.PageView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastList = f
	out := []model.PageView{}
	for _, v := range r.views {
		if !f.From.IsZero() && v.CreatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && v.CreatedAt.After(f.To) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// --- Settings ---

type fakeSettingRepo struct {
	mu       sync.Mutex
	settings map[string]*model.Setting
	listHits int
	keyHits  int
	seq      int
}

func newFakeSettingRepo() *fakeSettingRepo {
	return &fakeSettingRepo{settings: map[string]*model.Setting{}}
}

func (r *fakeSettingRepo) List(ctx context.Context) ([]model.Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listHits++
	out := []model.Setting{}
	for _, s := range r.settings {
		if s.DeletedAt == nil {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (r *fakeSettingRepo) GetByKey(ctx context.Context, key string) (*model.Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keyHits++
	for _, s := range r.settings {
		if s.Key == key && s.DeletedAt == nil {
			cp := *s
			return &cp, nil
		}
	}
	return nil, appErrors.NewNotFound("setting", key)
}

func (r *fakeSettingRepo) GetByID(ctx context.Context, id string) (*model.Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.settings[id]
	if !ok || s.DeletedAt != nil {
		return nil, appErrors.NewNotFound("setting", id)
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSettingRepo) Create(ctx context.Context, s *model.Setting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.settings {
		if existing.Key == s.Key {
			return repository.ErrDuplicateKey
		}
	}
	r.seq++
	s.ID = fmt.Sprintf("st-%d", r.seq)
	s.CreatedAt = time.Now()
	cp := *s
	r.settings[s.ID] = &cp
	return nil
}

func (r *fakeSettingRepo) Update(ctx context.Context, s *model.Setting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.settings[s.ID]
	if !ok {
		return appErrors.NewNotFound("setting", s.ID)
	}
	now := time.Now()
	s.UpdatedAt = &now
	existing.ValueTR, existing.ValueEN, existing.Type, existing.UpdatedAt = s.ValueTR, s.ValueEN, s.Type, &now
	return nil
}

func (r *fakeSettingRepo) SoftDelete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.settings[id]
	if !ok || s.DeletedAt != nil {
		return appErrors.NewNotFound("setting", id)
	}
	now := time.Now()
	s.DeletedAt = &now
	return nil
}

// --- Backups ---

type fakeBackupRepo struct {
	mu      sync.Mutex
	backups []model.DataBackup
}

func (r *fakeBackupRepo) Insert(ctx context.Context, b *model.DataBackup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.ID = fmt.Sprintf("b-%d", len(r.backups)+1)
	b.ChangedAt = time.Now()
	r.backups = append(r.backups, *b)
	return nil
}

func (r *fakeBackupRepo) GetByID(ctx context.Context, id string) (*model.DataBackup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.backups {
		if b.ID == id {
			cp := b
			return &cp, nil
		}
	}
	return nil, appErrors.NewNotFound("backup", id)
}

func (r *fakeBackupRepo) ListForRecord(ctx context.Context, table, recordID string, limit int) ([]model.DataBackup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.DataBackup{}
	for i := len(r.backups) - 1; i >= 0; i-- {
		b := r.backups[i]
		if b.TableName == table && b.RecordID == recordID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBackupRepo) ops() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []string{}
	for _, b := range r.backups {
		out = append(out, b.Operation)
	}
	return out
}

// fakeRecordStore serves rows as decoded JSON maps, the way row_to_json does.
type fakeRecordStore struct {
	mu      sync.Mutex
	rows    map[string]map[string]any
	updates []map[string]any
}

func (s *fakeRecordStore) GetRecord(ctx context.Context, table repository.Table, id string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[string(table)+"/"+id]
	if !ok {
		return nil, appErrors.NewNotFound(string(table), id)
	}
	cp := map[string]any{}
	for k, v := range row {
		cp[k] = v
	}
	return cp, nil
}

func (s *fakeRecordStore) UpdateRecord(ctx context.Context, table repository.Table, id string, changes map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.rows[string(table)+"/"+id]
	for k, v := range changes {
		row[k] = v
	}
	s.updates = append(s.updates, changes)
	return nil
}
