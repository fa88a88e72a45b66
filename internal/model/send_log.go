// internal/model/send_log.go
package model

import "time"

const (
    SendStatusSent   = "sent"
    SendStatusFailed = "failed"
)

// SendLogEntry is one append-only row per (campaign, subscriber) attempt.
type SendLogEntry struct {
    ID           string     `db:"id" json:"id"`
    CampaignID   string     `db:"campaign_id" json:"campaign_id"`
    SubscriberID string     `db:"subscriber_id" json:"subscriber_id"`
    Email        string     `db:"email" json:"email"`
    Status       string     `db:"status" json:"status"` // sent, failed
    MessageID    *string    `db:"message_id" json:"message_id,omitempty"`
    SentAt       *time.Time `db:"sent_at" json:"sent_at,omitempty"`
    ErrorMessage *string    `db:"error_message" json:"error_message,omitempty"`
    CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}
