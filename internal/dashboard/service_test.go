package dashboard

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radiusdt/vector-insights/internal/aggregate"
	"github.com/radiusdt/vector-insights/internal/models"
	"github.com/radiusdt/vector-insights/internal/report"
	"github.com/radiusdt/vector-insights/internal/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	logger := zap.NewNop()
	docs := storage.NewInMemoryDocumentStore()
	agg := aggregate.NewAggregator(docs, logger, nil)
	// Zero TTL keeps every read fresh so list-after-write tests never
	// observe a stale slot.
	cache := aggregate.NewCache(agg, nil, 0)
	return NewService(
		logger,
		nil,
		report.NewProcessor(logger, nil),
		storage.NewInMemoryUploadRepo(),
		docs,
		cache,
		nil,
		Config{UploadDir: t.TempDir(), MaxBytes: 1 << 20, Workers: 2},
	)
}

const reportCSV = "Campaign,Spend,Impressions,Click,Install\nA,100,5000,100,10\nB,50,3000,50,5\n"

func TestProcessUploadReports(t *testing.T) {
	require := require.New(t)
	s := newTestService(t)

	result, err := s.ProcessUpload(context.Background(), "acct1", "report.csv", "", []byte(reportCSV))
	require.NoError(err)
	require.Equal(int64(1), result.ReportID)
	require.Equal(models.CategoryReports, result.Category)
	require.Equal(2, result.RowsProcessed)

	// The raw payload was kept on disk.
	entries, err := os.ReadDir(s.cfg.UploadDir)
	require.NoError(err)
	require.Len(entries, 1)
	require.True(strings.HasSuffix(entries[0].Name(), "_report.csv"))
}

func TestProcessUploadRejectsNonCSV(t *testing.T) {
	require := require.New(t)
	s := newTestService(t)

	_, err := s.ProcessUpload(context.Background(), "acct1", "report.xlsx", "", []byte(reportCSV))
	require.ErrorIs(err, ErrNotCSV)
}

func TestProcessUploadRejectsOversized(t *testing.T) {
	require := require.New(t)
	s := newTestService(t)
	s.cfg.MaxBytes = 10

	_, err := s.ProcessUpload(context.Background(), "acct1", "report.csv", "", []byte(reportCSV))
	require.ErrorIs(err, ErrTooLarge)
}

func TestProcessUploadTypeOverride(t *testing.T) {
	require := require.New(t)
	s := newTestService(t)

	result, err := s.ProcessUpload(context.Background(), "acct1", "data_20250817.csv", "inventory_daily", []byte(reportCSV))
	require.NoError(err)
	require.Equal(models.CategoryInventoryDaily, result.Category)

	// "auto" trusts detection.
	result, err = s.ProcessUpload(context.Background(), "acct1", "report.csv", "auto", []byte(reportCSV))
	require.NoError(err)
	require.Equal(models.CategoryReports, result.Category)
}

func TestListReports(t *testing.T) {
	require := require.New(t)
	s := newTestService(t)

	_, err := s.ProcessUpload(context.Background(), "acct1", "report.csv", "", []byte(reportCSV))
	require.NoError(err)

	list, err := s.ListReports(context.Background())
	require.NoError(err)
	require.Equal(1, list.TotalReports)
	require.Len(list.Reports, 1)
	require.Equal(150.0, list.View.Overview.TotalSpend)
	require.Equal("A", list.View.TopCampaigns[0].Name)
}

func TestListReportsRecentLimit(t *testing.T) {
	require := require.New(t)
	s := newTestService(t)

	for i := 0; i < recentReportsLimit+3; i++ {
		_, err := s.ProcessUpload(context.Background(), "acct1",
			fmt.Sprintf("report_%d.csv", i), "", []byte(reportCSV))
		require.NoError(err)
	}

	list, err := s.ListReports(context.Background())
	require.NoError(err)
	require.Equal(recentReportsLimit+3, list.TotalReports)
	require.Len(list.Reports, recentReportsLimit)
	// The window keeps the newest records.
	require.Equal(fmt.Sprintf("report_%d.csv", recentReportsLimit+2),
		list.Reports[len(list.Reports)-1].Filename)
}

func TestGetReport(t *testing.T) {
	require := require.New(t)
	s := newTestService(t)

	result, err := s.ProcessUpload(context.Background(), "acct1", "report.csv", "", []byte(reportCSV))
	require.NoError(err)

	rec, view, err := s.GetReport(context.Background(), result.ReportID)
	require.NoError(err)
	require.Equal("report.csv", rec.Filename)
	require.Equal("acct1", rec.Account)
	require.NotNil(view)

	_, _, err = s.GetReport(context.Background(), 999)
	require.ErrorIs(err, ErrNotFound)
}

func TestDeleteReport(t *testing.T) {
	require := require.New(t)
	s := newTestService(t)

	result, err := s.ProcessUpload(context.Background(), "acct1", "report.csv", "", []byte(reportCSV))
	require.NoError(err)

	require.NoError(s.DeleteReport(context.Background(), result.ReportID))

	_, _, err = s.GetReport(context.Background(), result.ReportID)
	require.ErrorIs(err, ErrNotFound)

	// Raw file is gone too.
	entries, err := os.ReadDir(s.cfg.UploadDir)
	require.NoError(err)
	require.Empty(entries)

	require.ErrorIs(s.DeleteReport(context.Background(), result.ReportID), ErrNotFound)
}

func TestClearReports(t *testing.T) {
	require := require.New(t)
	s := newTestService(t)

	for i := 0; i < 3; i++ {
		_, err := s.ProcessUpload(context.Background(), "acct1",
			fmt.Sprintf("report_%d.csv", i), "", []byte(reportCSV))
		require.NoError(err)
	}

	count, err := s.ClearReports(context.Background())
	require.NoError(err)
	require.Equal(3, count)

	list, err := s.ListReports(context.Background())
	require.NoError(err)
	require.Equal(0, list.TotalReports)
	require.Equal(0.0, list.View.Overview.TotalSpend)
}

func TestFilteredView(t *testing.T) {
	require := require.New(t)
	s := newTestService(t)

	_, err := s.ProcessUpload(context.Background(), "acct1", "daily_20250817.csv", "inventory_daily", []byte(reportCSV))
	require.NoError(err)
	_, err = s.ProcessUpload(context.Background(), "acct1", "daily_20250818.csv", "inventory_daily", []byte(reportCSV))
	require.NoError(err)

	view, err := s.FilteredView(context.Background(), aggregate.Filters{Date: "2025-08-17"})
	require.NoError(err)
	require.Len(view.DailyBreakdown, 1)
	require.Equal("2025-08-17", view.DailyBreakdown[0].Date)
}

const creativeCSV = "Campaign,Creative,Spend,Install\n" +
	"x,alpha,30,3\n" +
	"x,beta,10,9\n" +
	"x,gamma,20,6\n"

func TestCreativesSortingAndPaging(t *testing.T) {
	require := require.New(t)
	s := newTestService(t)

	_, err := s.ProcessUpload(context.Background(), "acct1", "report.csv", "", []byte(creativeCSV))
	require.NoError(err)

	page, err := s.Creatives(context.Background(), 1, 2, "spend", "desc")
	require.NoError(err)
	require.Equal(3, page.Total)
	require.Equal(2, page.TotalPages)
	require.True(page.HasNext)
	require.False(page.HasPrev)
	require.Len(page.Creatives, 2)
	require.Equal("alpha", page.Creatives[0].Name)
	require.Equal("gamma", page.Creatives[1].Name)

	page, err = s.Creatives(context.Background(), 2, 2, "spend", "desc")
	require.NoError(err)
	require.Len(page.Creatives, 1)
	require.Equal("beta", page.Creatives[0].Name)
	require.False(page.HasNext)
	require.True(page.HasPrev)

	page, err = s.Creatives(context.Background(), 1, 10, "installs", "asc")
	require.NoError(err)
	require.Equal("alpha", page.Creatives[0].Name)
	require.Equal("beta", page.Creatives[2].Name)

	page, err = s.Creatives(context.Background(), 1, 10, "creative_name", "asc")
	require.NoError(err)
	require.Equal("alpha", page.Creatives[0].Name)
	require.Equal("gamma", page.Creatives[2].Name)
}

func TestAvailableDatesMockFallback(t *testing.T) {
	require := require.New(t)
	s := newTestService(t)

	dates, err := s.AvailableDates(context.Background())
	require.NoError(err)
	require.Len(dates, mockDateSpan)
}

func TestAvailableDatesFromDailyUploads(t *testing.T) {
	require := require.New(t)
	s := newTestService(t)

	_, err := s.ProcessUpload(context.Background(), "acct1", "daily_20250817.csv", "inventory_daily", []byte(reportCSV))
	require.NoError(err)

	dates, err := s.AvailableDates(context.Background())
	require.NoError(err)
	require.Equal([]string{"2025-08-17"}, dates)
}

func TestAvailableCountries(t *testing.T) {
	require := require.New(t)
	s := newTestService(t)

	countries, err := s.AvailableCountries(context.Background())
	require.NoError(err)
	require.Equal(defaultCountries, countries)

	csv := "Campaign,Country,Spend\nx,US,1\nx,DE,2\n"
	_, err = s.ProcessUpload(context.Background(), "acct1", "geo.csv", "", []byte(csv))
	require.NoError(err)

	countries, err = s.AvailableCountries(context.Background())
	require.NoError(err)
	require.Equal([]string{"DE", "US"}, countries)
}

func TestOverview(t *testing.T) {
	require := require.New(t)
	s := newTestService(t)

	_, err := s.ProcessUpload(context.Background(), "beta", "one.csv", "", []byte(reportCSV))
	require.NoError(err)
	_, err = s.ProcessUpload(context.Background(), "alpha", "two.csv", "", []byte(reportCSV))
	require.NoError(err)
	_, err = s.ProcessUpload(context.Background(), "beta", "three.csv", "", []byte(reportCSV))
	require.NoError(err)

	overview, err := s.Overview(context.Background())
	require.NoError(err)
	require.Equal(3, overview.TotalReports)
	require.Equal([]string{"alpha", "beta"}, overview.Accounts)
	require.NotEmpty(overview.LatestUpload)
}
