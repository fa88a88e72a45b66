package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/unclebandit/folio-backend/internal/service"
)

// PageViewTracker is satisfied by service.Tracker.
type PageViewTracker interface {
	Track(in service.PageViewInput)
}

// TrackHandler accepts {path, referrer?} and always answers 204. The session
// cookie carries no expiry so it lives as long as the browser session.
type TrackHandler struct {
	Tracker    PageViewTracker
	CookieName string
	Secure     bool
}

func (h *TrackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Path     string  `json:"path"`
		Referrer *string `json:"referrer"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10)).Decode(&body); err != nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if body.Referrer != nil && strings.TrimSpace(*body.Referrer) == "" {
		body.Referrer = nil
	}

	h.Tracker.Track(service.PageViewInput{
		Path:      body.Path,
		Referrer:  body.Referrer,
		UserAgent: r.UserAgent(),
		SessionID: h.sessionID(w, r),
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *TrackHandler) sessionID(w http.ResponseWriter, r *http.Request) string {
	name := h.CookieName
	if name == "" {
		name = "folio_sid"
	}
	if c, err := r.Cookie(name); err == nil && c.Value != "" {
		return c.Value
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
