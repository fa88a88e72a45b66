package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	appErrors "github.com/unclebandit/folio-backend/internal/errors"
	"github.com/unclebandit/folio-backend/internal/metrics"
	"github.com/unclebandit/folio-backend/internal/model"
	"github.com/unclebandit/folio-backend/internal/repository"
)

type UnsubscribeService struct {
	Tokens      repository.TokenRepositoryInterface
	Subscribers repository.SubscriberRepositoryInterface
	Metrics     *metrics.Metrics
	Log         zerolog.Logger
	Now         func() time.Time
}

// Unsubscribe consumes a single-use token and opts its subscriber out.
// A missing token yields ErrMissingToken, an unknown or used one NotFoundError.
func (s *UnsubscribeService) Unsubscribe(ctx context.Context, token string) (*model.Subscriber, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		s.Metrics.IncUnsubscribe("missing")
		return nil, appErrors.ErrMissingToken
	}

	tok, sub, err := s.Tokens.FindValid(ctx, token)
	if err != nil {
		s.Metrics.IncUnsubscribe("invalid")
		return nil, err
	}

	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now()
	}

	if err := s.Subscribers.MarkUnsubscribed(ctx, sub.ID, now); err != nil {
		s.Metrics.IncUnsubscribe("error")
		return nil, fmt.Errorf("unsubscribe %s: %w", sub.ID, err)
	}
	if err := s.Tokens.MarkUsed(ctx, tok.ID, now); err != nil {
		var nf *appErrors.NotFoundError
		if errors.As(err, &nf) {
			// another request consumed the token first
			s.Metrics.IncUnsubscribe("invalid")
			return nil, err
		}
		s.Metrics.IncUnsubscribe("error")
		return nil, fmt.Errorf("consume token: %w", err)
	}

	sub.Status = model.SubscriberUnsubscribed
	sub.UnsubscribedAt = &now
	s.Metrics.IncUnsubscribe("ok")
	s.Log.Info().Str("subscriber_id", sub.ID).Msg("subscriber unsubscribed")
	return sub, nil
}
