package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/unclebandit/folio-backend/internal/metrics"
	"github.com/unclebandit/folio-backend/internal/model"
	"github.com/unclebandit/folio-backend/internal/queue"
	"github.com/unclebandit/folio-backend/internal/repository"
)

const PageViewTopic = "page_views"

const defaultMaxInFlight = 64

// PageViewInput is one tracking call as received from the browser.
type PageViewInput struct {
	Path      string
	Referrer  *string
	UserAgent string
	SessionID string
}

// Tracker records page views off the request path. Track never blocks on
// the database and never reports failure to the caller. At most MaxInFlight
// views wait on the database at once; views beyond that are dropped.
type Tracker struct {
	Queue       queue.Queue
	Views       repository.PageViewRepositoryInterface
	Metrics     *metrics.Metrics
	Log         zerolog.Logger
	Timeout     time.Duration
	MaxInFlight int

	slotsOnce sync.Once
	slots     chan struct{}
}

func (t *Tracker) inFlight() chan struct{} {
	t.slotsOnce.Do(func() {
		n := t.MaxInFlight
		if n <= 0 {
			n = defaultMaxInFlight
		}
		t.slots = make(chan struct{}, n)
	})
	return t.slots
}

func (t *Tracker) release() {
	select {
	case <-t.inFlight():
	default:
	}
}

// Start subscribes the persisting handler to the page view topic.
func (t *Tracker) Start() error {
	return t.Queue.Subscribe(PageViewTopic, t.handle)
}

func (t *Tracker) Track(in PageViewInput) {
	if strings.TrimSpace(in.Path) == "" {
		in.Path = "/"
	}
	select {
	case t.inFlight() <- struct{}{}:
	default:
		t.Metrics.IncPageViewDropped()
		t.Log.Warn().Str("path", in.Path).Msg("page view dropped, tracker saturated")
		return
	}
	if err := t.Queue.Publish(PageViewTopic, in); err != nil {
		t.release()
		t.Metrics.IncPageViewDropped()
		t.Log.Warn().Err(err).Str("path", in.Path).Msg("page view not queued")
	}
}

func (t *Tracker) handle(payload any) error {
	defer t.release()

	in, ok := payload.(PageViewInput)
	if !ok {
		t.Log.Warn().Str("type", fmt.Sprintf("%T", payload)).Msg("unexpected page view payload")
		return nil
	}

	timeout := t.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	pv := &model.PageView{
		Path:       in.Path,
		Referrer:   in.Referrer,
		UserAgent:  in.UserAgent,
		DeviceType: ClassifyDevice(in.UserAgent),
		SessionID:  in.SessionID,
	}
	if err := t.Views.Insert(ctx, pv); err != nil {
		t.Metrics.IncPageViewDropped()
		t.Log.Warn().Err(err).Str("path", in.Path).Msg("page view insert failed")
		return nil
	}
	t.Metrics.IncPageViewTracked()
	return nil
}
