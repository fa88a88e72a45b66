package service

import (
	"context"
	"sort"
	"time"

	"github.com/unclebandit/folio-backend/internal/model"
	"github.com/unclebandit/folio-backend/internal/repository"
)

const topPagesLimit = 10

// DateRange bounds a report. Zero times are open ends.
type DateRange struct {
	From time.Time
	To   time.Time
}

type PathCount struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

type DeviceCount struct {
	DeviceType string `json:"device_type"`
	Count      int    `json:"count"`
}

type PageViewStats struct {
	TotalViews      int           `json:"totalViews"`
	UniqueSessions  int           `json:"uniqueSessions"`
	TopPages        []PathCount   `json:"topPages"`
	DeviceBreakdown []DeviceCount `json:"deviceBreakdown"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// AnalyticsService reads raw page views and aggregates them in memory.
type AnalyticsService struct {
	Views repository.PageViewRepositoryInterface
	Now   func() time.Time
}

func (s *AnalyticsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *AnalyticsService) PageViewStats(ctx context.Context, r DateRange) (*PageViewStats, error) {
	views, err := s.Views.List(ctx, repository.PageViewFilter{From: r.From, To: r.To})
	if err != nil {
		return nil, err
	}
	return ComputeStats(views), nil
}

// RecentPageViews returns views from the last 24 hours, newest first.
func (s *AnalyticsService) RecentPageViews(ctx context.Context, limit int) ([]model.PageView, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.Views.List(ctx, repository.PageViewFilter{
		From:  s.now().Add(-24 * time.Hour),
		Desc:  true,
		Limit: limit,
	})
}

// DailyViewCounts groups the last days days of views by UTC date.
func (s *AnalyticsService) DailyViewCounts(ctx context.Context, days int) ([]DailyCount, error) {
	if days <= 0 {
		days = 30
	}
	views, err := s.Views.List(ctx, repository.PageViewFilter{From: s.now().AddDate(0, 0, -days)})
	if err != nil {
		return nil, err
	}
	return ComputeDaily(views), nil
}

// ComputeStats builds the summary for a set of views. Top pages are ordered
// by count descending; equal counts keep first-seen order.
func ComputeStats(views []model.PageView) *PageViewStats {
	stats := &PageViewStats{
		TotalViews:      len(views),
		TopPages:        []PathCount{},
		DeviceBreakdown: []DeviceCount{},
	}

	sessions := make(map[string]struct{})
	pageIdx := make(map[string]int)
	deviceIdx := make(map[string]int)

	for _, v := range views {
		sessions[v.SessionID] = struct{}{}

		if i, ok := pageIdx[v.Path]; ok {
			stats.TopPages[i].Count++
		} else {
			pageIdx[v.Path] = len(stats.TopPages)
			stats.TopPages = append(stats.TopPages, PathCount{Path: v.Path, Count: 1})
		}

		if i, ok := deviceIdx[v.DeviceType]; ok {
			stats.DeviceBreakdown[i].Count++
		} else {
			deviceIdx[v.DeviceType] = len(stats.DeviceBreakdown)
			stats.DeviceBreakdown = append(stats.DeviceBreakdown, DeviceCount{DeviceType: v.DeviceType, Count: 1})
		}
	}
	stats.UniqueSessions = len(sessions)

	sort.SliceStable(stats.TopPages, func(i, j int) bool {
		return stats.TopPages[i].Count > stats.TopPages[j].Count
	})
	if len(stats.TopPages) > topPagesLimit {
		stats.TopPages = stats.TopPages[:topPagesLimit]
	}
	return stats
}

// ComputeDaily counts views per UTC calendar date, ascending.
func ComputeDaily(views []model.PageView) []DailyCount {
	counts := make(map[string]int)
	for _, v := range views {
		counts[v.CreatedAt.UTC().Format("2006-01-02")]++
	}

	daily := make([]DailyCount, 0, len(counts))
	for date, n := range counts {
		daily = append(daily, DailyCount{Date: date, Count: n})
	}
	sort.Slice(daily, func(i, j int) bool { return daily[i].Date < daily[j].Date })
	return daily
}
