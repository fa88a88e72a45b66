// internal/controller/campaign_controller.go
package controller

import (
    "net/http"
    "strconv"
    "strings"

    "github.com/go-chi/chi/v5"
    "github.com/rs/zerolog"

    "github.com/unclebandit/folio-backend/internal/service"
)

type CampaignController struct {
    CampaignService *service.CampaignService
    Sender          service.CampaignSenderInterface
    Log             zerolog.Logger
}

// SendNewsletter is the function-style endpoint: {campaignId} in, summary out.
// Every failure before the run starts is reported as 400 with {error}.
func (c *CampaignController) SendNewsletter(w http.ResponseWriter, r *http.Request) {
    var body struct {
        CampaignID string `json:"campaignId"`
    }
    if err := decodeJSON(w, r, &body); err != nil {
        writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
        return
    }
    if strings.TrimSpace(body.CampaignID) == "" {
        writeJSON(w, http.StatusBadRequest, map[string]string{"error": "campaignId is required"})
        return
    }

    summary, err := c.Sender.Send(r.Context(), body.CampaignID)
    if err != nil {
        c.Log.Warn().Err(err).Str("campaign_id", body.CampaignID).Msg("send-newsletter rejected")
        writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
        return
    }

    writeJSON(w, http.StatusOK, map[string]interface{}{
        "success":   true,
        "total":     summary.Total,
        "delivered": summary.Delivered,
        "failed":    summary.Failed,
    })
}

// Preflight answers a bare OPTIONS request with "ok".
func (c *CampaignController) Preflight(w http.ResponseWriter, r *http.Request) {
    w.Header().Set("Content-Type", "text/plain; charset=utf-8")
    _, _ = w.Write([]byte("ok"))
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
    var body struct {
        Subject     string  `json:"subject"`
        HTMLContent string  `json:"html_content"`
        TextContent *string `json:"text_content"`
    }
    if err := decodeJSON(w, r, &body); err != nil {
        writeError(w, err)
        return
    }

    campaign, err := c.CampaignService.CreateCampaign(r.Context(), body.Subject, body.HTMLContent, body.TextContent)
    if err != nil {
        writeError(w, err)
        return
    }

    writeJSON(w, http.StatusCreated, campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
    // Parse query parameters
    page, _ := strconv.Atoi(r.URL.Query().Get("page"))
    pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
    status := r.URL.Query().Get("status")

    campaigns, pagination, err := c.CampaignService.ListCampaigns(r.Context(), page, pageSize, status)
    if err != nil {
        writeError(w, err)
        return
    }

    writeJSON(w, http.StatusOK, map[string]interface{}{
        "data":       campaigns,
        "pagination": pagination,
    })
}

func (c *CampaignController) GetCampaignDetails(w http.ResponseWriter, r *http.Request) {
    details, err := c.CampaignService.GetCampaignDetailsWithStats(r.Context(), chi.URLParam(r, "id"))
    if err != nil {
        writeError(w, err)
        return
    }

    writeJSON(w, http.StatusOK, details)
}

// SendCampaign queues the campaign for the worker and returns immediately.
func (c *CampaignController) SendCampaign(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    if err := c.CampaignService.EnqueueSend(r.Context(), id); err != nil {
        writeError(w, err)
        return
    }

    writeJSON(w, http.StatusAccepted, map[string]interface{}{
        "campaign_id": id,
        "status":      "queued",
    })
}
