package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	appErrors "github.com/unclebandit/folio-backend/internal/errors"
)

const (
	ProviderHTTP = "http"
	ProviderSES  = "ses"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Email    EmailConfig
	Sender   SenderConfig
	Queue    QueueConfig
	Redis    RedisConfig
	Log      LogConfig
}

type AppConfig struct {
	Addr       string `envconfig:"APP_ADDR" default:":8080"`
	SiteURL    string `envconfig:"SITE_URL" default:"https://example.dev"`
	AdminToken string `envconfig:"ADMIN_TOKEN"`
	// Session cookie used to group page views per browser session.
	SessionCookie string `envconfig:"SESSION_COOKIE" default:"folio_sid"`
}

type DatabaseConfig struct {
	URL          string `envconfig:"DATABASE_URL"`
	MaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns int    `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
}

type EmailConfig struct {
	Provider  string `envconfig:"EMAIL_PROVIDER" default:"http"`
	APIKey    string `envconfig:"EMAIL_API_KEY"`
	APIURL    string `envconfig:"EMAIL_API_URL" default:"https://api.resend.com"`
	FromEmail string `envconfig:"FROM_EMAIL"`
	FromName  string `envconfig:"FROM_NAME" default:"Portfolio Newsletter"`

	SESRegion    string `envconfig:"SES_REGION" default:"eu-central-1"`
	SESAccessKey string `envconfig:"SES_ACCESS_KEY_ID"`
	SESSecretKey string `envconfig:"SES_SECRET_ACCESS_KEY"`
}

type SenderConfig struct {
	BatchSize  int           `envconfig:"SEND_BATCH_SIZE" default:"10"`
	BatchDelay time.Duration `envconfig:"SEND_BATCH_DELAY" default:"1s"`
	LockTTL    time.Duration `envconfig:"SEND_LOCK_TTL" default:"30m"`
}

type QueueConfig struct {
	AMQPURL       string `envconfig:"AMQP_URL"`
	CampaignQueue string `envconfig:"AMQP_CAMPAIGN_QUEUE" default:"campaign_sends"`
}

type RedisConfig struct {
	URL string `envconfig:"REDIS_URL"`
}

type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) (*Config, error) {
	// A missing .env is fine, the environment may already carry everything.
	_ = godotenv.Load(envFiles...)

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	cfg.applyFallbacks()
	return cfg, nil
}

func (c *Config) applyFallbacks() {
	c.App.SiteURL = strings.TrimRight(c.App.SiteURL, "/")
	if c.Email.FromEmail == "" {
		c.Email.FromEmail = "noreply@" + siteHost(c.App.SiteURL)
	}
	if c.Sender.BatchSize < 1 {
		c.Sender.BatchSize = 10
	}
}

func siteHost(siteURL string) string {
	u, err := url.Parse(siteURL)
	if err != nil || u.Hostname() == "" {
		return "example.dev"
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// FromAddress renders the RFC 5322 sender, e.g. `Name <noreply@site>`.
func (c *Config) FromAddress() string {
	if c.Email.FromName == "" {
		return c.Email.FromEmail
	}
	return fmt.Sprintf("%s <%s>", c.Email.FromName, c.Email.FromEmail)
}

// SenderError returns a ConfigurationError listing every credential the
// campaign sender needs but does not have, or nil.
func (c *Config) SenderError() error {
	var missing []string
	switch c.Email.Provider {
	case ProviderSES:
		if c.Email.SESAccessKey == "" {
			missing = append(missing, "SES_ACCESS_KEY_ID")
		}
		if c.Email.SESSecretKey == "" {
			missing = append(missing, "SES_SECRET_ACCESS_KEY")
		}
	default:
		if c.Email.APIKey == "" {
			missing = append(missing, "EMAIL_API_KEY")
		}
	}
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if len(missing) > 0 {
		return appErrors.NewConfigurationError(missing...)
	}
	return nil
}
