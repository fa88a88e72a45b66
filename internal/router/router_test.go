package router

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/folio-backend/internal/controller"
	appErrors "github.com/unclebandit/folio-backend/internal/errors"
	"github.com/unclebandit/folio-backend/internal/metrics"
	"github.com/unclebandit/folio-backend/internal/service"
)

type stubSender struct {
	summary *service.SendSummary
	err     error
	got     string
}

func (s *stubSender) Send(_ context.Context, id string) (*service.SendSummary, error) {
	s.got = id
	return s.summary, s.err
}

func newTestRouter(t *testing.T, sender *stubSender, token string) (http.Handler, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	h := New(Deps{
		Campaigns: &controller.CampaignController{
			CampaignService: &service.CampaignService{Log: zerolog.Nop()},
			Sender:          sender,
			Log:             zerolog.Nop(),
		},
		Metrics:    m,
		AdminToken: token,
		Log:        zerolog.Nop(),
	})
	return h, m
}

func do(h http.Handler, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSendNewsletterRoute(t *testing.T) {
	sender := &stubSender{summary: &service.SendSummary{Total: 3, Delivered: 2, Failed: 1}}
	h, _ := newTestRouter(t, sender, "secret")

	rec := do(h, http.MethodPost, "/functions/send-newsletter", `{"campaignId":"c1"}`,
		map[string]string{"Content-Type": "application/json", "Origin": "https://example.dev"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "c1", sender.got)
	assert.JSONEq(t, `{"success":true,"total":3,"delivered":2,"failed":1}`, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSendNewsletterErrorsAre400(t *testing.T) {
	sender := &stubSender{err: appErrors.NewInvalidState("campaign", "c1", "sent", "draft")}
	h, _ := newTestRouter(t, sender, "secret")

	rec := do(h, http.MethodPost, "/functions/send-newsletter", `{"campaignId":"c1"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)

	rec = do(h, http.MethodPost, "/functions/send-newsletter", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "campaignId is required")
}

func TestBareOptionsAnswersOK(t *testing.T) {
	h, _ := newTestRouter(t, &stubSender{}, "secret")

	rec := do(h, http.MethodOptions, "/functions/send-newsletter", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newTestRouter(t, &stubSender{}, "secret")

	rec := do(h, http.MethodOptions, "/functions/send-newsletter", "", map[string]string{
		"Origin":                         "https://example.dev",
		"Access-Control-Request-Method":  "POST",
		"Access-Control-Request-Headers": "authorization, content-type",
	})
	assert.Less(t, rec.Code, 300)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestAdminRequiresBearerToken(t *testing.T) {
	h, _ := newTestRouter(t, &stubSender{}, "secret")

	rec := do(h, http.MethodPost, "/api/admin/campaigns/c1/send", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(h, http.MethodPost, "/api/admin/campaigns/c1/send", "", map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Authorized, but no queue is configured.
	rec = do(h, http.MethodPost, "/api/admin/campaigns/c1/send", "", map[string]string{"Authorization": "Bearer secret"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAdminLockedWithoutConfiguredToken(t *testing.T) {
	h, _ := newTestRouter(t, &stubSender{}, "")

	rec := do(h, http.MethodGet, "/api/admin/campaigns", "", map[string]string{"Authorization": "Bearer "})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealth(t *testing.T) {
	rec := do(New(Deps{Log: zerolog.Nop()}), http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	down := New(Deps{Log: zerolog.Nop(), Health: func(context.Context) error { return errors.New("db down") }})
	rec = do(down, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsRecordRoutePattern(t *testing.T) {
	h, _ := newTestRouter(t, &stubSender{summary: &service.SendSummary{}}, "secret")

	do(h, http.MethodPost, "/functions/send-newsletter", `{"campaignId":"c1"}`, nil)

	rec := do(h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `folio_http_requests_total{code="200",route="/functions/send-newsletter"} 1`)
}
