// Package app assembles the repositories and services shared by the
// server, the worker and folioctl.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"github.com/unclebandit/folio-backend/internal/config"
	"github.com/unclebandit/folio-backend/internal/lock"
	"github.com/unclebandit/folio-backend/internal/mailer"
	"github.com/unclebandit/folio-backend/internal/metrics"
	"github.com/unclebandit/folio-backend/internal/queue"
	"github.com/unclebandit/folio-backend/internal/repository"
	"github.com/unclebandit/folio-backend/internal/service"
)

type Repositories struct {
	Campaigns   *repository.CampaignRepository
	Subscribers *repository.SubscriberRepository
	Tokens      *repository.TokenRepository
	SendLog     *repository.SendLogRepository
	PageViews   *repository.PageViewRepository
	Settings    *repository.SettingRepository
	Backups     *repository.BackupRepository
	Records     *repository.PostgresRecordStore
}

func NewRepositories(conn *sql.DB) *Repositories {
	return &Repositories{
		Campaigns:   &repository.CampaignRepository{DB: conn},
		Subscribers: &repository.SubscriberRepository{DB: conn},
		Tokens:      &repository.TokenRepository{DB: conn},
		SendLog:     &repository.SendLogRepository{DB: conn},
		PageViews:   &repository.PageViewRepository{DB: conn},
		Settings:    &repository.SettingRepository{DB: conn},
		Backups:     &repository.BackupRepository{DB: conn},
		Records:     &repository.PostgresRecordStore{DB: conn},
	}
}

// NewSender builds the campaign sender. A missing credential does not fail
// startup; it is stored on the sender and returned by every Send. The
// returned cleanup closes the Redis client when one was opened.
func NewSender(ctx context.Context, cfg *config.Config, repos *Repositories, m *metrics.Metrics, log zerolog.Logger) (*service.CampaignSender, func(), error) {
	sender := &service.CampaignSender{
		Campaigns:   repos.Campaigns,
		Subscribers: repos.Subscribers,
		Tokens:      repos.Tokens,
		SendLog:     repos.SendLog,
		Locker:      lock.Noop{},
		Metrics:     m,
		Log:         log.With().Str("component", "sender").Logger(),
		ConfigErr:   cfg.SenderError(),
		From:        cfg.FromAddress(),
		SiteURL:     cfg.App.SiteURL,
		BatchSize:   cfg.Sender.BatchSize,
		BatchDelay:  cfg.Sender.BatchDelay,
	}

	if sender.ConfigErr == nil {
		ml, err := mailer.New(ctx, cfg.Email)
		if err != nil {
			return nil, nil, fmt.Errorf("build mailer: %w", err)
		}
		sender.Mailer = ml
	} else {
		log.Warn().Err(sender.ConfigErr).Msg("campaign sending disabled")
	}

	cleanup := func() {}
	if cfg.Redis.URL != "" {
		locker, err := lock.NewRedisLockerFromURL(ctx, cfg.Redis.URL, cfg.Sender.LockTTL)
		if err != nil {
			return nil, nil, err
		}
		sender.Locker = locker
		cleanup = func() { _ = locker.Close() }
	}

	return sender, cleanup, nil
}

// NewTracker subscribes a tracker to an in-process queue. Page views are
// best effort, so the queue never retries.
func NewTracker(repos *Repositories, m *metrics.Metrics, log zerolog.Logger) (*service.Tracker, *queue.InMemoryQueue, error) {
	q := queue.NewInMemoryQueue(queue.WithMaxRetries(0), queue.WithLogger(log))
	t := &service.Tracker{
		Queue:       q,
		Views:       repos.PageViews,
		Metrics:     m,
		Log:         log.With().Str("component", "tracker").Logger(),
		Timeout:     5 * time.Second,
		MaxInFlight: 64,
	}
	if err := t.Start(); err != nil {
		return nil, nil, err
	}
	return t, q, nil
}

// NewSettings wires the settings service to the backup trail. Restoring a
// settings row drops the read cache.
func NewSettings(repos *Repositories, log zerolog.Logger) (*service.SettingsService, *service.BackupService) {
	backups := &service.BackupService{
		Repo:    repos.Backups,
		Records: repos.Records,
		Log:     log.With().Str("component", "backups").Logger(),
	}
	settings := service.NewSettingsService(repos.Settings, backups, 5*time.Minute, log.With().Str("component", "settings").Logger())
	backups.OnRestore = func(table repository.Table) {
		if table == repository.TableSettings {
			settings.Invalidate()
		}
	}
	return settings, backups
}

// AMQP holds an open broker connection with the campaign queue declared.
type AMQP struct {
	Conn    *amqp.Connection
	Channel *amqp.Channel
	Queue   amqp.Queue
}

func DialAMQP(cfg config.QueueConfig) (*AMQP, error) {
	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	q, err := queue.DeclareCampaignQueue(ch, cfg.CampaignQueue)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", cfg.CampaignQueue, err)
	}
	return &AMQP{Conn: conn, Channel: ch, Queue: q}, nil
}

func (a *AMQP) Close() {
	_ = a.Channel.Close()
	_ = a.Conn.Close()
}
