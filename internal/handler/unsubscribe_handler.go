package handler

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/rs/zerolog"

	appErrors "github.com/unclebandit/folio-backend/internal/errors"
	"github.com/unclebandit/folio-backend/internal/model"
)

//go:embed templates/unsubscribe.html
var templateFS embed.FS

var unsubscribeTmpl = template.Must(template.ParseFS(templateFS, "templates/unsubscribe.html"))

type pageContent struct {
	Icon    string
	Title   string
	Message string
	HomeURL string
}

var (
	pageSuccess = pageContent{
		Icon:    "✓",
		Title:   "Abonelikten çıkıldı",
		Message: "Bülten listemizden başarıyla çıkarıldınız. Artık bizden e-posta almayacaksınız.",
	}
	pageMissing = pageContent{
		Icon:    "!",
		Title:   "Eksik bağlantı",
		Message: "Abonelikten çıkma bağlantısı eksik. Lütfen e-postadaki bağlantıyı kullanın.",
	}
	pageInvalid = pageContent{
		Icon:    "!",
		Title:   "Geçersiz bağlantı",
		Message: "Bu bağlantı geçersiz veya daha önce kullanılmış.",
	}
	pageError = pageContent{
		Icon:    "×",
		Title:   "Bir hata oluştu",
		Message: "İsteğiniz işlenirken beklenmeyen bir hata oluştu. Lütfen daha sonra tekrar deneyin.",
	}
)

// Unsubscriber is satisfied by service.UnsubscribeService.
type Unsubscriber interface {
	Unsubscribe(ctx context.Context, token string) (*model.Subscriber, error)
}

// UnsubscribeHandler renders the Turkish confirmation page for email links.
type UnsubscribeHandler struct {
	Service Unsubscriber
	SiteURL string
	Log     zerolog.Logger
}

func (h *UnsubscribeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_, err := h.Service.Unsubscribe(r.Context(), r.URL.Query().Get("token"))

	var nf *appErrors.NotFoundError
	switch {
	case err == nil:
		h.render(w, http.StatusOK, pageSuccess)
	case errors.Is(err, appErrors.ErrMissingToken):
		h.render(w, http.StatusBadRequest, pageMissing)
	case errors.As(err, &nf):
		h.render(w, http.StatusBadRequest, pageInvalid)
	default:
		h.Log.Error().Err(err).Msg("unsubscribe failed")
		h.render(w, http.StatusInternalServerError, pageError)
	}
}

func (h *UnsubscribeHandler) render(w http.ResponseWriter, status int, page pageContent) {
	page.HomeURL = h.SiteURL
	if page.HomeURL == "" {
		page.HomeURL = "/"
	}

	var buf bytes.Buffer
	if err := unsubscribeTmpl.Execute(&buf, page); err != nil {
		h.Log.Error().Err(err).Msg("render unsubscribe page")
		http.Error(w, page.Title, status)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
