// internal/service/campaign_service.go
package service

import (
    "context"
    "strings"
    "time"

    "github.com/rs/zerolog"

    appErrors "github.com/unclebandit/folio-backend/internal/errors"
    "github.com/unclebandit/folio-backend/internal/model"
    "github.com/unclebandit/folio-backend/internal/repository"
)

// CampaignEnqueuer hands a campaign to the send worker.
type CampaignEnqueuer interface {
    Enqueue(ctx context.Context, campaignID string) error
}

type CampaignService struct {
    CampaignRepo repository.CampaignRepositoryInterface
    Queue        CampaignEnqueuer
    Log          zerolog.Logger
}

type CampaignDetails struct {
    ID              string         `json:"id"`
    Subject         string         `json:"subject"`
    HTMLContent     string         `json:"html_content"`
    TextContent     *string        `json:"text_content,omitempty"`
    Status          string         `json:"status"`
    TotalRecipients int            `json:"total_recipients"`
    Delivered       int            `json:"delivered"`
    SentAt          *time.Time     `json:"sent_at,omitempty"`
    CreatedAt       time.Time      `json:"created_at"`
    UpdatedAt       *time.Time     `json:"updated_at"`
    Stats           map[string]int `json:"stats"`
}

func (s *CampaignService) CreateCampaign(ctx context.Context, subject, htmlContent string, textContent *string) (*model.Campaign, error) {
    subject = strings.TrimSpace(subject)
    if subject == "" {
        return nil, appErrors.NewValidation("subject", "required")
    }
    if strings.TrimSpace(htmlContent) == "" {
        return nil, appErrors.NewValidation("html_content", "required")
    }

    c := &model.Campaign{
        Subject:     subject,
        HTMLContent: htmlContent,
        TextContent: textContent,
        Status:      model.CampaignDraft,
    }

    if err := s.CampaignRepo.Create(ctx, c); err != nil {
        return nil, err
    }

    if !strings.Contains(htmlContent, model.UnsubscribePlaceholder) {
        s.Log.Warn().Str("campaign_id", c.ID).Msg("campaign html has no unsubscribe placeholder")
    }
    return c, nil
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(ctx context.Context, page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
    if page < 1 {
        page = 1
    }
    if pageSize < 1 {
        pageSize = 20
    }
    if pageSize > 100 {
        pageSize = 100
    }
    offset := (page - 1) * pageSize

    ptrs, total, err := s.CampaignRepo.ListCampaigns(ctx, offset, pageSize, status)
    if err != nil {
        return nil, nil, err
    }

    campaigns := make([]model.Campaign, len(ptrs))
    for i, c := range ptrs {
        campaigns[i] = *c
    }

    totalPages := (total + pageSize - 1) / pageSize
    pagination := map[string]int{
        "page":        page,
        "page_size":   pageSize,
        "total_count": total,
        "total_pages": totalPages,
    }

    return campaigns, pagination, nil
}

func (s *CampaignService) GetCampaignDetailsWithStats(ctx context.Context, campaignID string) (*CampaignDetails, error) {
    campaign, err := s.CampaignRepo.GetByID(ctx, campaignID)
    if err != nil {
        return nil, err
    }

    stats, err := s.CampaignRepo.GetSendStats(ctx, campaignID)
    if err != nil {
        return nil, err
    }

    return &CampaignDetails{
        ID:              campaign.ID,
        Subject:         campaign.Subject,
        HTMLContent:     campaign.HTMLContent,
        TextContent:     campaign.TextContent,
        Status:          campaign.Status,
        TotalRecipients: campaign.TotalRecipients,
        Delivered:       campaign.Delivered,
        SentAt:          campaign.SentAt,
        CreatedAt:       campaign.CreatedAt,
        UpdatedAt:       campaign.UpdatedAt,
        Stats:           stats,
    }, nil
}

// EnqueueSend queues a send for the worker. The state check here is only a
// fast rejection; the sender's status guard is authoritative.
func (s *CampaignService) EnqueueSend(ctx context.Context, campaignID string) error {
    if s.Queue == nil {
        return appErrors.NewConfigurationError("AMQP_URL")
    }

    campaign, err := s.CampaignRepo.GetByID(ctx, campaignID)
    if err != nil {
        return err
    }
    if !campaign.Sendable() {
        return appErrors.NewInvalidState("campaign", campaignID, campaign.Status, "already sent or in progress")
    }

    if err := s.Queue.Enqueue(ctx, campaignID); err != nil {
        return err
    }
    s.Log.Info().Str("campaign_id", campaignID).Msg("campaign send queued")
    return nil
}
