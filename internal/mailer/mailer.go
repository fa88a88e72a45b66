package mailer

import (
	"context"
	"fmt"

	"github.com/unclebandit/folio-backend/internal/config"
)

// Message is one outbound email.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers a single message and returns the provider message id.
type Mailer interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// New picks the transport configured by EMAIL_PROVIDER.
func New(ctx context.Context, cfg config.EmailConfig) (Mailer, error) {
	switch cfg.Provider {
	case config.ProviderSES:
		return NewSESMailer(ctx, cfg.SESRegion, cfg.SESAccessKey, cfg.SESSecretKey)
	case config.ProviderHTTP, "":
		return NewHTTPMailer(cfg.APIURL, cfg.APIKey, nil), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}
