// internal/model/campaign.go
package model

import "time"

const (
    CampaignDraft     = "draft"
    CampaignScheduled = "scheduled"
    CampaignSending   = "sending"
    CampaignSent      = "sent"
    CampaignFailed    = "failed"
)

// UnsubscribePlaceholder is replaced with the recipient-specific link.
const UnsubscribePlaceholder = "{{unsubscribe_url}}"

type Campaign struct {
    ID              string     `db:"id" json:"id"`
    Subject         string     `db:"subject" json:"subject"`
    HTMLContent     string     `db:"html_content" json:"html_content"`
    TextContent     *string    `db:"text_content" json:"text_content,omitempty"`
    Status          string     `db:"status" json:"status"`
    TotalRecipients int        `db:"total_recipients" json:"total_recipients"`
    Delivered       int        `db:"delivered" json:"delivered"`
    SentAt          *time.Time `db:"sent_at" json:"sent_at,omitempty"`
    CreatedAt       time.Time  `db:"created_at" json:"created_at"`
    UpdatedAt       *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// Sendable reports whether the campaign may enter the sending state.
func (c *Campaign) Sendable() bool {
    return c.Status == CampaignDraft || c.Status == CampaignScheduled
}
