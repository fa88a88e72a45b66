package controller

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/folio-backend/internal/service"
)

type BackupController struct {
	Backups *service.BackupService
}

// List returns the trail for one row: /backups?table=settings&record_id=...
func (c *BackupController) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	table, recordID := q.Get("table"), q.Get("record_id")
	if table == "" || recordID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "table and record_id are required"})
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	backups, err := c.Backups.ListForRecord(r.Context(), table, recordID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, backups)
}

func (c *BackupController) Get(w http.ResponseWriter, r *http.Request) {
	b, err := c.Backups.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (c *BackupController) Restore(w http.ResponseWriter, r *http.Request) {
	res, err := c.Backups.Restore(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
