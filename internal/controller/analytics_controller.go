package controller

import (
	"net/http"
	"strconv"
	"time"

	appErrors "github.com/unclebandit/folio-backend/internal/errors"
	"github.com/unclebandit/folio-backend/internal/service"
)

type AnalyticsController struct {
	Analytics *service.AnalyticsService
}

// Stats accepts optional from/to as RFC 3339 timestamps or YYYY-MM-DD dates.
func (c *AnalyticsController) Stats(w http.ResponseWriter, r *http.Request) {
	var rng service.DateRange
	var err error
	if rng.From, err = parseTimeParam(r, "from"); err != nil {
		writeError(w, err)
		return
	}
	if rng.To, err = parseTimeParam(r, "to"); err != nil {
		writeError(w, err)
		return
	}

	stats, err := c.Analytics.PageViewStats(r.Context(), rng)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (c *AnalyticsController) Recent(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	views, err := c.Analytics.RecentPageViews(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (c *AnalyticsController) Daily(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	counts, err := c.Analytics.DailyViewCounts(r.Context(), days)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func parseTimeParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, appErrors.NewValidation(name, "expected RFC 3339 or YYYY-MM-DD")
	}
	if name == "to" {
		// inclusive end of day
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
