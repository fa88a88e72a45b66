package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/folio-backend/internal/model"
	"github.com/unclebandit/folio-backend/internal/service"
)

func view(path, session, device string, at time.Time) model.PageView {
	return model.PageView{Path: path, SessionID: session, DeviceType: device, CreatedAt: at}
}

func TestComputeStatsScenario(t *testing.T) {
	now := time.Now()
	stats := service.ComputeStats([]model.PageView{
		view("/home", "s1", "desktop", now),
		view("/home", "s1", "desktop", now),
		view("/about", "s2", "mobile", now),
	})

	assert.Equal(t, 3, stats.TotalViews)
	assert.Equal(t, 2, stats.UniqueSessions)
	assert.Equal(t, []service.PathCount{{Path: "/home", Count: 2}, {Path: "/about", Count: 1}}, stats.TopPages)
	assert.ElementsMatch(t, []service.DeviceCount{{DeviceType: "desktop", Count: 2}, {DeviceType: "mobile", Count: 1}}, stats.DeviceBreakdown)
}

func TestComputeStatsTopPagesOrderAndLimit(t *testing.T) {
	now := time.Now()
	views := []model.PageView{}
	// 12 distinct paths seen once, in order p0..p11
	for i := 0; i < 12; i++ {
		views = append(views, view(fmt.Sprintf("/p%d", i), "s", "desktop", now))
	}
	// p11 becomes the most visited
	views = append(views, view("/p11", "s", "desktop", now))

	stats := service.ComputeStats(views)
	require.Len(t, stats.TopPages, 10)
	assert.Equal(t, service.PathCount{Path: "/p11", Count: 2}, stats.TopPages[0])
	for i := 1; i < 10; i++ {
		assert.Equal(t, fmt.Sprintf("/p%d", i-1), stats.TopPages[i].Path, "ties keep first-seen order")
		assert.GreaterOrEqual(t, stats.TopPages[i-1].Count, stats.TopPages[i].Count)
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := service.ComputeStats(nil)
	assert.Equal(t, 0, stats.TotalViews)
	assert.Empty(t, stats.TopPages)
	assert.NotNil(t, stats.TopPages)
}

func TestComputeDailyGroupsByUTCDate(t *testing.T) {
	ist := time.FixedZone("TRT", 3*3600)
	views := []model.PageView{
		view("/", "s", "desktop", time.Date(2026, 5, 2, 1, 0, 0, 0, ist)), // 2026-05-01 22:00 UTC
		view("/", "s", "desktop", time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)),
		view("/", "s", "desktop", time.Date(2026, 5, 3, 9, 0, 0, 0, time.UTC)),
	}
	assert.Equal(t, []service.DailyCount{
		{Date: "2026-05-01", Count: 2},
		{Date: "2026-05-03", Count: 1},
	}, service.ComputeDaily(views))
}

func TestRecentPageViewsWindow(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	repo := &fakePageViewRepo{}
	svc := &service.AnalyticsService{Views: repo, Now: func() time.Time { return now }}

	_, err := svc.RecentPageViews(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-24*time.Hour), repo.lastList.From)
	assert.True(t, repo.lastList.Desc)
	assert.Equal(t, 5, repo.lastList.Limit)
}

func TestDailyViewCountsWindow(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	repo := &fakePageViewRepo{}
	svc := &service.AnalyticsService{Views: repo, Now: func() time.Time { return now }}

	_, err := svc.DailyViewCounts(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 5, 3, 12, 0, 0, 0, time.UTC), repo.lastList.From)
}
