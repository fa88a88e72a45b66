// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/unclebandit/folio-backend/internal/app"
	"github.com/unclebandit/folio-backend/internal/config"
	"github.com/unclebandit/folio-backend/internal/controller"
	"github.com/unclebandit/folio-backend/internal/db"
	"github.com/unclebandit/folio-backend/internal/handler"
	"github.com/unclebandit/folio-backend/internal/logger"
	"github.com/unclebandit/folio-backend/internal/metrics"
	"github.com/unclebandit/folio-backend/internal/queue"
	"github.com/unclebandit/folio-backend/internal/router"
	"github.com/unclebandit/folio-backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "json")
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer conn.Close()

	m := metrics.New()
	repos := app.NewRepositories(conn)

	sender, closeSender, err := app.NewSender(ctx, cfg, repos, m, log)
	if err != nil {
		log.Fatal().Err(err).Msg("build sender")
	}
	defer closeSender()

	tracker, trackQueue, err := app.NewTracker(repos, m, log)
	if err != nil {
		log.Fatal().Err(err).Msg("start tracker")
	}

	campaignService := &service.CampaignService{
		CampaignRepo: repos.Campaigns,
		Log:          log,
	}
	if cfg.Queue.AMQPURL != "" {
		broker, err := app.DialAMQP(cfg.Queue)
		if err != nil {
			log.Fatal().Err(err).Msg("connect amqp")
		}
		defer broker.Close()

		publisher, err := queue.NewCampaignPublisher(broker.Channel, cfg.Queue.CampaignQueue)
		if err != nil {
			log.Fatal().Err(err).Msg("build publisher")
		}
		campaignService.Queue = publisher
	} else {
		log.Warn().Msg("AMQP_URL not set, queued sends are disabled")
	}

	settings, backups := app.NewSettings(repos, log)

	h := router.New(router.Deps{
		Campaigns: &controller.CampaignController{
			CampaignService: campaignService,
			Sender:          sender,
			Log:             log,
		},
		Analytics: &controller.AnalyticsController{
			Analytics: &service.AnalyticsService{Views: repos.PageViews},
		},
		Settings: &controller.SettingsController{Settings: settings},
		Backups:  &controller.BackupController{Backups: backups},
		Unsubscribe: &handler.UnsubscribeHandler{
			Service: &service.UnsubscribeService{
				Tokens:      repos.Tokens,
				Subscribers: repos.Subscribers,
				Metrics:     m,
				Log:         log,
			},
			SiteURL: cfg.App.SiteURL,
			Log:     log,
		},
		Track: &handler.TrackHandler{
			Tracker:    tracker,
			CookieName: cfg.App.SessionCookie,
			Secure:     strings.HasPrefix(cfg.App.SiteURL, "https://"),
		},
		Metrics:    m,
		AdminToken: cfg.App.AdminToken,
		Health:     conn.PingContext,
		Log:        log,
	})

	srv := &http.Server{
		Addr:              cfg.App.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.App.Addr).Msg("🚀 server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	// let in-flight page views reach the database
	trackQueue.Wait()
}
