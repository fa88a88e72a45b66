package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	appErrors "github.com/unclebandit/folio-backend/internal/errors"
	"github.com/unclebandit/folio-backend/internal/lock"
	"github.com/unclebandit/folio-backend/internal/logger"
	"github.com/unclebandit/folio-backend/internal/mailer"
	"github.com/unclebandit/folio-backend/internal/metrics"
	"github.com/unclebandit/folio-backend/internal/model"
	"github.com/unclebandit/folio-backend/internal/repository"
)

// SendSummary is the outcome of one campaign run.
type SendSummary struct {
	Total     int `json:"total"`
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
}

// CampaignSenderInterface is what the HTTP endpoint, the worker and the CLI call.
type CampaignSenderInterface interface {
	Send(ctx context.Context, campaignID string) (*SendSummary, error)
}

// CampaignSender delivers one campaign to every active subscriber.
type CampaignSender struct {
	Campaigns   repository.CampaignRepositoryInterface
	Subscribers repository.SubscriberRepositoryInterface
	Tokens      repository.TokenRepositoryInterface
	SendLog     repository.SendLogRepositoryInterface
	Mailer      mailer.Mailer
	Locker      lock.Locker
	Metrics     *metrics.Metrics
	Log         zerolog.Logger

	// ConfigErr is the result of config.SenderError at startup. When set,
	// every Send fails with it before touching the database.
	ConfigErr error

	From       string
	SiteURL    string
	BatchSize  int
	BatchDelay time.Duration

	Now   func() time.Time
	Sleep func(time.Duration)
}

// Send runs the campaign to completion. Once the campaign has been claimed
// the run is detached from ctx cancellation so the final status is always written.
func (s *CampaignSender) Send(ctx context.Context, campaignID string) (*SendSummary, error) {
	if s.ConfigErr != nil {
		return nil, s.ConfigErr
	}
	if s.Mailer == nil {
		return nil, appErrors.NewConfigurationError("EMAIL_API_KEY")
	}

	campaign, err := s.Campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if !campaign.Sendable() {
		return nil, appErrors.NewInvalidState("campaign", campaignID, campaign.Status, "already sent or in progress")
	}

	locker := s.Locker
	if locker == nil {
		locker = lock.Noop{}
	}
	held, ok, err := locker.TryLock(ctx, "campaign-send:"+campaignID)
	if err != nil {
		return nil, fmt.Errorf("lock campaign: %w", err)
	}
	if !ok {
		return nil, appErrors.NewInvalidState("campaign", campaignID, campaign.Status, "another send holds the lock")
	}
	defer func() {
		if err := held.Release(context.Background()); err != nil {
			s.Log.Warn().Err(err).Str("campaign_id", campaignID).Msg("release send lock")
		}
	}()

	claimed, err := s.Campaigns.MarkSending(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("claim campaign: %w", err)
	}
	if !claimed {
		return nil, appErrors.NewInvalidState("campaign", campaignID, campaign.Status, "status changed concurrently")
	}

	runCtx := context.WithoutCancel(ctx)
	log := s.Log.With().Str("campaign_id", campaignID).Logger()

	subscribers, err := s.Subscribers.ListActive(runCtx)
	if err != nil {
		s.finish(runCtx, campaignID, &SendSummary{})
		s.Metrics.IncRun("error")
		return nil, fmt.Errorf("load subscribers: %w", err)
	}

	log.Info().Int("recipients", len(subscribers)).Msg("campaign send started")

	summary := &SendSummary{Total: len(subscribers)}
	batchSize := s.BatchSize
	if batchSize < 1 {
		batchSize = 10
	}

	for start := 0; start < len(subscribers); start += batchSize {
		if start > 0 && s.BatchDelay > 0 {
			s.sleep(s.BatchDelay)
		}
		end := start + batchSize
		if end > len(subscribers) {
			end = len(subscribers)
		}
		delivered := s.sendBatch(runCtx, campaign, subscribers[start:end])
		summary.Delivered += delivered
		summary.Failed += (end - start) - delivered
	}

	status := s.finish(runCtx, campaignID, summary)
	s.Metrics.IncRun(status)

	log.Info().
		Int("total", summary.Total).
		Int("delivered", summary.Delivered).
		Int("failed", summary.Failed).
		Str("status", status).
		Msg("campaign send finished")

	return summary, nil
}

// sendBatch delivers to every recipient concurrently and returns how many succeeded.
func (s *CampaignSender) sendBatch(ctx context.Context, campaign *model.Campaign, batch []model.Subscriber) int {
	var wg sync.WaitGroup
	var mu sync.Mutex
	delivered := 0

	for i := range batch {
		wg.Add(1)
		go func(sub model.Subscriber) {
			defer wg.Done()
			if s.deliver(ctx, campaign, sub) {
				mu.Lock()
				delivered++
				mu.Unlock()
			}
		}(batch[i])
	}
	wg.Wait()
	return delivered
}

// deliver handles one recipient end to end. It never returns an error: every
// outcome ends up as a send log row.
func (s *CampaignSender) deliver(ctx context.Context, campaign *model.Campaign, sub model.Subscriber) bool {
	entry := &model.SendLogEntry{
		CampaignID:   campaign.ID,
		SubscriberID: sub.ID,
		Email:        sub.Email,
	}

	messageID, err := s.sendTo(ctx, campaign, sub)
	if err != nil {
		msg := err.Error()
		var de *appErrors.RecipientDeliveryError
		if errors.As(err, &de) {
			msg = de.Err.Error()
		}
		entry.Status = model.SendStatusFailed
		entry.ErrorMessage = &msg
		s.Log.Warn().Err(err).
			Str("campaign_id", campaign.ID).
			Str("email", logger.RedactEmail(sub.Email)).
			Msg("recipient delivery failed")
	} else {
		sentAt := s.now()
		entry.Status = model.SendStatusSent
		entry.MessageID = &messageID
		entry.SentAt = &sentAt
	}
	s.Metrics.IncRecipient(entry.Status)

	if err := s.SendLog.Insert(ctx, entry); err != nil {
		s.Log.Error().Err(err).
			Str("campaign_id", campaign.ID).
			Str("subscriber_id", sub.ID).
			Msg("write send log")
	}
	return entry.Status == model.SendStatusSent
}

func (s *CampaignSender) sendTo(ctx context.Context, campaign *model.Campaign, sub model.Subscriber) (string, error) {
	token, err := s.tokenFor(ctx, sub.ID)
	if err != nil {
		return "", &appErrors.RecipientDeliveryError{SubscriberID: sub.ID, Stage: "token", Err: err}
	}

	unsubscribeURL := s.SiteURL + "/unsubscribe?token=" + url.QueryEscape(token)
	data := map[string]string{
		"unsubscribe_url": unsubscribeURL,
		"email":           sub.Email,
		"name":            sub.DisplayName(),
	}
	// subscriber supplied values must not become markup in the HTML body
	htmlData := map[string]string{
		"unsubscribe_url": unsubscribeURL,
		"email":           html.EscapeString(sub.Email),
		"name":            html.EscapeString(sub.DisplayName()),
	}
	msg := mailer.Message{
		From:    s.From,
		To:      sub.Email,
		Subject: campaign.Subject,
		HTML:    RenderTemplate(campaign.HTMLContent, htmlData),
	}
	if campaign.TextContent != nil {
		msg.Text = RenderTemplate(*campaign.TextContent, data)
	}

	id, err := s.Mailer.Send(ctx, msg)
	if err != nil {
		return "", &appErrors.RecipientDeliveryError{SubscriberID: sub.ID, Stage: "send", Err: err}
	}
	return id, nil
}

// tokenFor reuses the subscriber's unused token or mints one.
func (s *CampaignSender) tokenFor(ctx context.Context, subscriberID string) (string, error) {
	existing, err := s.Tokens.FindUnused(ctx, subscriberID)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.Token, nil
	}

	value, err := NewToken()
	if err != nil {
		return "", err
	}
	t := &model.UnsubscribeToken{SubscriberID: subscriberID, Token: value}
	err = s.Tokens.Create(ctx, t)
	if errors.Is(err, repository.ErrTokenConflict) {
		// a concurrent run minted one first
		existing, err = s.Tokens.FindUnused(ctx, subscriberID)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return "", repository.ErrTokenConflict
		}
		return existing.Token, nil
	}
	if err != nil {
		return "", err
	}
	return t.Token, nil
}

// finish writes the terminal status and returns it.
func (s *CampaignSender) finish(ctx context.Context, campaignID string, summary *SendSummary) string {
	status := model.CampaignSent
	if summary.Delivered == 0 {
		status = model.CampaignFailed
	}
	if err := s.Campaigns.Finish(ctx, campaignID, status, s.now(), summary.Total, summary.Delivered); err != nil {
		s.Log.Error().Err(err).Str("campaign_id", campaignID).Msg("write campaign result")
	}
	return status
}

func (s *CampaignSender) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *CampaignSender) sleep(d time.Duration) {
	if s.Sleep != nil {
		s.Sleep(d)
		return
	}
	time.Sleep(d)
}

// NewToken returns 32 random bytes, URL-safe base64 encoded.
func NewToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

var _ CampaignSenderInterface = (*CampaignSender)(nil)
