package aggregate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radiusdt/vector-insights/internal/models"
)

type fakeLoader struct {
	docs  map[string]*models.AggregateDocument
	loads int
}

func (f *fakeLoader) LoadDocument(ctx context.Context, ref string) (*models.AggregateDocument, error) {
	f.loads++
	doc, ok := f.docs[ref]
	if !ok {
		return nil, errors.New("document not found")
	}
	return doc, nil
}

var aggNow = time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)

func newTestAggregator(loader *fakeLoader) *Aggregator {
	a := NewAggregator(loader, zap.NewNop(), nil)
	a.now = func() time.Time { return aggNow }
	return a
}

func reportsDoc(spend float64, campaigns ...string) *models.AggregateDocument {
	doc := &models.AggregateDocument{
		Category: models.CategoryReports,
		Overview: models.Overview{TotalSpend: spend},
	}
	for _, c := range campaigns {
		doc.TopCampaigns = append(doc.TopCampaigns, models.CampaignPerf{Name: c, Spend: spend})
	}
	return doc
}

func dailyDoc(date string, spend float64) *models.AggregateDocument {
	return &models.AggregateDocument{
		Category: models.CategoryInventoryDaily,
		DailyBreakdown: []models.DailyStat{
			{Date: date, Spend: spend},
		},
	}
}

func record(id int64, category models.ReportCategory, uploadTime, ref string) models.UploadRecord {
	return models.UploadRecord{
		ID:          id,
		Category:    category,
		UploadTime:  uploadTime,
		DocumentRef: ref,
		Filename:    ref + ".csv",
	}
}

func TestAggregateLatestReportWins(t *testing.T) {
	require := require.New(t)

	loader := &fakeLoader{docs: map[string]*models.AggregateDocument{
		"old": reportsDoc(100, "old-campaign"),
		"new": reportsDoc(200, "new-campaign"),
	}}
	agg := newTestAggregator(loader)

	uploads := []models.UploadRecord{
		record(1, models.CategoryReports, "2025-08-01T10:00:00Z", "old"),
		record(2, models.CategoryReports, "2025-08-02T10:00:00Z", "new"),
	}

	view := agg.Aggregate(context.Background(), uploads, Filters{})
	require.Equal(200.0, view.Overview.TotalSpend)
	require.Equal("new-campaign", view.TopCampaigns[0].Name)

	// Reordering the upload list must not change the winner.
	uploads[0], uploads[1] = uploads[1], uploads[0]
	view = agg.Aggregate(context.Background(), uploads, Filters{})
	require.Equal(200.0, view.Overview.TotalSpend)
}

func TestAggregateLegacyReportAlias(t *testing.T) {
	require := require.New(t)

	loader := &fakeLoader{docs: map[string]*models.AggregateDocument{
		"r": reportsDoc(50, "c"),
	}}
	agg := newTestAggregator(loader)

	uploads := []models.UploadRecord{
		record(1, models.ReportCategory("report"), "2025-08-01T10:00:00Z", "r"),
	}
	view := agg.Aggregate(context.Background(), uploads, Filters{})
	require.Equal(50.0, view.Overview.TotalSpend)
}

func TestAggregateDailyAdditive(t *testing.T) {
	require := require.New(t)

	loader := &fakeLoader{docs: map[string]*models.AggregateDocument{
		"d1": dailyDoc("2025-08-01", 10),
		"d2": dailyDoc("2025-08-02", 20),
		"d3": dailyDoc("2025-08-03", 30),
	}}
	agg := newTestAggregator(loader)

	uploads := []models.UploadRecord{
		record(1, models.CategoryInventoryDaily, "2025-08-01T10:00:00Z", "d1"),
		record(2, models.CategoryInventoryDaily, "2025-08-02T10:00:00Z", "d2"),
		record(3, models.CategoryInventoryDaily, "2025-08-03T10:00:00Z", "d3"),
	}

	view := agg.Aggregate(context.Background(), uploads, Filters{})
	require.Len(view.DailyBreakdown, 3)
}

func TestAggregateSyntheticFallback(t *testing.T) {
	require := require.New(t)

	doc := reportsDoc(100, "c")
	doc.Overview.TotalImpressions = 1000
	doc.Overview.TotalInstalls = 10
	doc.Overview.TotalActions = 5

	loader := &fakeLoader{docs: map[string]*models.AggregateDocument{"r": doc}}
	agg := newTestAggregator(loader)

	uploads := []models.UploadRecord{
		record(1, models.CategoryReports, "2025-08-01T10:00:00Z", "r"),
	}
	view := agg.Aggregate(context.Background(), uploads, Filters{})

	require.Len(view.DailyBreakdown, syntheticDays)
	first := view.DailyBreakdown[0]
	last := view.DailyBreakdown[syntheticDays-1]
	require.Equal("2025-08-16", first.Date)
	require.Equal("2025-08-20", last.Date)
	require.True(first.Synthetic)
	require.InDelta(20.0, first.Spend, 1e-9)
	require.InDelta(200.0, first.Impressions, 1e-9)
	require.InDelta(4.0, first.Clicks, 1e-9)
	require.InDelta(2.0, first.Installs, 1e-9)
	require.InDelta(30.0, first.Revenue, 1e-9)
}

func TestAggregateNoSyntheticWithoutReports(t *testing.T) {
	require := require.New(t)

	loader := &fakeLoader{docs: map[string]*models.AggregateDocument{}}
	agg := newTestAggregator(loader)

	view := agg.Aggregate(context.Background(), nil, Filters{})
	require.Empty(view.DailyBreakdown)
}

func TestAggregateSkipsUnreadableDocuments(t *testing.T) {
	require := require.New(t)

	loader := &fakeLoader{docs: map[string]*models.AggregateDocument{
		"good": dailyDoc("2025-08-01", 10),
	}}
	agg := newTestAggregator(loader)

	uploads := []models.UploadRecord{
		record(1, models.CategoryInventoryDaily, "2025-08-01T10:00:00Z", "missing"),
		record(2, models.CategoryInventoryDaily, "2025-08-02T10:00:00Z", "good"),
	}
	view := agg.Aggregate(context.Background(), uploads, Filters{})
	require.Len(view.DailyBreakdown, 1)
	require.Equal("2025-08-01", view.DailyBreakdown[0].Date)
}

func TestAggregateDateFilters(t *testing.T) {
	require := require.New(t)

	loader := &fakeLoader{docs: map[string]*models.AggregateDocument{
		"d1": dailyDoc("2025-08-01", 10),
		"d2": dailyDoc("2025-08-02", 20),
		"d3": dailyDoc("2025-08-03", 30),
	}}
	agg := newTestAggregator(loader)

	uploads := []models.UploadRecord{
		record(1, models.CategoryInventoryDaily, "2025-08-01T10:00:00Z", "d1"),
		record(2, models.CategoryInventoryDaily, "2025-08-02T10:00:00Z", "d2"),
		record(3, models.CategoryInventoryDaily, "2025-08-03T10:00:00Z", "d3"),
	}

	// Exact date
	view := agg.Aggregate(context.Background(), uploads, Filters{Date: "2025-08-02"})
	require.Len(view.DailyBreakdown, 1)
	require.Equal("2025-08-02", view.DailyBreakdown[0].Date)

	// Inclusive range
	view = agg.Aggregate(context.Background(), uploads, Filters{StartDate: "2025-08-02", EndDate: "2025-08-03"})
	require.Len(view.DailyBreakdown, 2)

	// Open-ended range
	view = agg.Aggregate(context.Background(), uploads, Filters{StartDate: "2025-08-03"})
	require.Len(view.DailyBreakdown, 1)
}

func TestAggregateCountryFilterCaseInsensitive(t *testing.T) {
	require := require.New(t)

	doc := reportsDoc(10, "c")
	doc.GeographicPerformance = []models.GeoPerf{
		{Country: "US", Spend: 5},
		{Country: "DE", Spend: 3},
	}
	loader := &fakeLoader{docs: map[string]*models.AggregateDocument{"r": doc}}
	agg := newTestAggregator(loader)

	uploads := []models.UploadRecord{
		record(1, models.CategoryReports, "2025-08-01T10:00:00Z", "r"),
	}
	view := agg.Aggregate(context.Background(), uploads, Filters{Country: "us"})
	require.Len(view.GeographicPerformance, 1)
	require.Equal("US", view.GeographicPerformance[0].Country)
}

func TestCapInventory(t *testing.T) {
	require := require.New(t)

	inv := &models.InventoryAppAnalysis{TotalApps: 4}
	for i, spend := range []float64{5, 20, 10, 1} {
		inv.Apps = append(inv.Apps, models.AppRow{Name: string(rune('a' + i)), Spend: spend})
	}

	doc := &models.AggregateDocument{
		Category:             models.CategoryInventoryOverall,
		InventoryAppAnalysis: inv,
	}
	loader := &fakeLoader{docs: map[string]*models.AggregateDocument{"o": doc}}
	agg := newTestAggregator(loader)
	agg.MaxApps = 2

	uploads := []models.UploadRecord{
		record(1, models.CategoryInventoryOverall, "2025-08-01T10:00:00Z", "o"),
	}
	view := agg.Aggregate(context.Background(), uploads, Filters{})
	require.Len(view.InventoryAppAnalysis.Apps, 2)
	require.Equal(20.0, view.InventoryAppAnalysis.Apps[0].Spend)
	require.Equal(4, view.InventoryAppAnalysis.TotalApps)
}

func TestFiltersEmptyAndString(t *testing.T) {
	require := require.New(t)

	require.True(Filters{}.Empty())
	require.False(Filters{Country: "US"}.Empty())
	require.Equal("date=|start=a|end=|country=", Filters{StartDate: "a"}.String())
}
