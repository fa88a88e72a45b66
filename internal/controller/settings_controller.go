package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/folio-backend/internal/service"
)

type SettingsController struct {
	Settings *service.SettingsService
}

func (c *SettingsController) List(w http.ResponseWriter, r *http.Request) {
	settings, err := c.Settings.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// Get returns the full setting, or just the localized value when ?lang= is given.
func (c *SettingsController) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if lang := r.URL.Query().Get("lang"); lang != "" {
		value, err := c.Settings.Localized(r.Context(), key, lang)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"key": key, "lang": lang, "value": value})
		return
	}

	setting, err := c.Settings.Get(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, setting)
}

func (c *SettingsController) Create(w http.ResponseWriter, r *http.Request) {
	var in service.SettingInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	setting, err := c.Settings.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, setting)
}

// Update and Delete address the setting by key like Get and resolve it to
// its id first.
func (c *SettingsController) Update(w http.ResponseWriter, r *http.Request) {
	var in service.SettingInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	current, err := c.Settings.Get(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, err)
		return
	}
	setting, err := c.Settings.Update(r.Context(), current.ID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, setting)
}

func (c *SettingsController) Delete(w http.ResponseWriter, r *http.Request) {
	current, err := c.Settings.Get(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := c.Settings.Delete(r.Context(), current.ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
