package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radiusdt/vector-insights/internal/models"
)

func newTestProcessor() *Processor {
	return NewProcessor(zap.NewNop(), nil)
}

func TestProcessorClassify(t *testing.T) {
	require := require.New(t)
	p := newTestProcessor()

	tbl, category, err := p.Classify([]byte("Campaign,Spend,Impressions\nA,1,100\n"))
	require.NoError(err)
	require.Equal(models.CategoryReports, category)
	require.Equal(1, tbl.Len())
}

func TestProcessorClassifyHeaderOnlyTable(t *testing.T) {
	require := require.New(t)
	p := newTestProcessor()

	tbl, category, err := p.Classify([]byte("Campaign,Spend\n"))
	require.NoError(err)
	require.Equal(models.CategoryReports, category)
	require.Equal(0, tbl.Len())
}

func TestProcessorProcessHeaderOnlyInventory(t *testing.T) {
	require := require.New(t)
	p := newTestProcessor()

	doc, err := p.Process([]byte("App Title,Spend,Install,D1_ROAS\n"), "inventory.csv")
	require.NoError(err)
	require.Equal(models.CategoryInventoryOverall, doc.Category)
	require.Equal(0, doc.RowCount)
	require.NotNil(doc.InventoryAppAnalysis)
	require.Equal(0, doc.InventoryAppAnalysis.TotalApps)
	require.Empty(doc.InventoryAppAnalysis.Apps)
	require.Empty(doc.InventoryAppAnalysis.Categories)
}

func TestProcessorProcessHeaderOnlyReport(t *testing.T) {
	require := require.New(t)
	p := newTestProcessor()

	doc, err := p.Process([]byte("Campaign,Spend,Impressions\n"), "report.csv")
	require.NoError(err)
	require.Equal(models.CategoryReports, doc.Category)
	require.Equal(0, doc.RowCount)
	require.Equal(0.0, doc.Overview.TotalSpend)
	require.Equal(0, doc.Overview.TotalCampaigns)
	require.Empty(doc.TopCampaigns)
}

func TestProcessorProcessUnknownLayout(t *testing.T) {
	require := require.New(t)
	p := newTestProcessor()

	_, err := p.Process([]byte("foo,bar\n1,2\n"), "weird.csv")
	require.ErrorIs(err, ErrUnknownCategory)
}

func TestProcessorProcessAsOverride(t *testing.T) {
	require := require.New(t)
	p := newTestProcessor()

	// The layout detects as a report, but the caller forces the daily
	// inventory routine.
	data := []byte(strings.Join([]string{
		"Campaign,Spend,Impressions",
		"A,10,100",
	}, "\n"))

	doc, err := p.ProcessAs(data, "forced_20250817.csv", models.CategoryInventoryDaily)
	require.NoError(err)
	require.Equal(models.CategoryInventoryDaily, doc.Category)
	require.Len(doc.DailyBreakdown, 1)
	require.Equal("2025-08-17", doc.DailyBreakdown[0].Date)
}

func TestProcessorProcessReportsEndToEnd(t *testing.T) {
	require := require.New(t)
	p := newTestProcessor()

	doc, err := p.Process([]byte("Campaign,Spend,Impressions\nA,10,100\n"), "report.csv")
	require.NoError(err)
	require.Equal(models.CategoryReports, doc.Category)
	require.Equal(1, doc.RowCount)
	require.Equal(10.0, doc.Overview.TotalSpend)
}
