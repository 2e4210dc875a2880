package aggregate

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/radiusdt/vector-insights/internal/metrics"
	"github.com/radiusdt/vector-insights/internal/models"
)

// syntheticDays is how many placeholder days the fallback breakdown
// fabricates when no daily files exist. The click and revenue factors
// are illustrative constants carried over for chart continuity, not
// measured values.
const (
	syntheticDays          = 5
	syntheticClickFraction = 0.02
	syntheticRevenueFactor = 1.5
)

// DocumentLoader reads a persisted aggregate document by its reference.
type DocumentLoader interface {
	LoadDocument(ctx context.Context, ref string) (*models.AggregateDocument, error)
}

// Filters restricts an aggregated view after assembly. Filters never
// change which upload is selected as latest, only how its output is
// sliced.
type Filters struct {
	Date      string
	StartDate string
	EndDate   string
	Country   string
}

// Empty reports whether no filter is set.
func (f Filters) Empty() bool {
	return f.Date == "" && f.StartDate == "" && f.EndDate == "" && f.Country == ""
}

// Aggregator assembles the unified view from the latest upload of each
// category. MaxApps and MaxCategories cap the inventory lists for
// response size when positive; the real app count is preserved either
// way.
type Aggregator struct {
	loader        DocumentLoader
	logger        *zap.Logger
	metrics       *metrics.Metrics
	now           func() time.Time
	MaxApps       int
	MaxCategories int
}

func NewAggregator(loader DocumentLoader, logger *zap.Logger, m *metrics.Metrics) *Aggregator {
	return &Aggregator{
		loader:  loader,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// Aggregate builds a unified view across all uploads. Rankings and
// overview come from the single latest campaign report; the app
// analysis from the latest overall inventory snapshot; daily rows are
// concatenated from every daily file, newest list order preserved.
// Unreadable documents are skipped, never fatal.
func (a *Aggregator) Aggregate(ctx context.Context, uploads []models.UploadRecord, filters Filters) *models.UnifiedView {
	start := a.now()
	view := models.EmptyUnifiedView()

	var latestReports, latestOverall *models.UploadRecord
	var dailyRecords []models.UploadRecord

	for i := range uploads {
		u := &uploads[i]
		switch {
		case u.Category.IsReports():
			if latestReports == nil || u.UploadTime > latestReports.UploadTime {
				latestReports = u
			}
		case u.Category == models.CategoryInventoryOverall:
			if latestOverall == nil || u.UploadTime > latestOverall.UploadTime {
				latestOverall = u
			}
		case u.Category == models.CategoryInventoryDaily:
			dailyRecords = append(dailyRecords, *u)
		}
	}

	if latestReports != nil {
		if doc := a.load(ctx, latestReports); doc != nil {
			view.Overview = doc.Overview
			view.TopCampaigns = doc.TopCampaigns
			view.CreativePerformance = doc.CreativePerformance
			view.ExchangePerformance = doc.ExchangePerformance
			view.GeographicPerformance = doc.GeographicPerformance
			view.GamblingInsights = doc.GamblingInsights
		}
	}

	if latestOverall != nil {
		if doc := a.load(ctx, latestOverall); doc != nil && doc.InventoryAppAnalysis != nil {
			view.InventoryAppAnalysis = a.capInventory(*doc.InventoryAppAnalysis)
		}
	}

	// Daily files are additive: every upload contributes its rows,
	// recency never overwrites.
	for i := range dailyRecords {
		if doc := a.load(ctx, &dailyRecords[i]); doc != nil {
			view.DailyBreakdown = append(view.DailyBreakdown, doc.DailyBreakdown...)
		}
	}

	if len(view.DailyBreakdown) == 0 && latestReports != nil {
		view.DailyBreakdown = a.syntheticBreakdown(view.Overview)
	}

	applyFilters(view, filters)
	view.Sanitize()

	if a.metrics != nil {
		a.metrics.RecordAggregation(a.now().Sub(start))
	}
	a.logger.Debug("aggregated uploads",
		zap.Int("uploads", len(uploads)),
		zap.Int("daily_rows", len(view.DailyBreakdown)),
		zap.Int("campaigns", len(view.TopCampaigns)))
	return view
}

func (a *Aggregator) load(ctx context.Context, u *models.UploadRecord) *models.AggregateDocument {
	doc, err := a.loader.LoadDocument(ctx, u.DocumentRef)
	if err != nil {
		a.logger.Warn("skipping unreadable document",
			zap.String("filename", u.Filename),
			zap.String("ref", u.DocumentRef),
			zap.Error(err))
		return nil
	}
	return doc
}

// capInventory truncates the app and category lists when caps are
// configured. TotalApps keeps the untruncated count.
func (a *Aggregator) capInventory(inv models.InventoryAppAnalysis) models.InventoryAppAnalysis {
	if a.MaxApps > 0 && len(inv.Apps) > a.MaxApps {
		apps := make([]models.AppRow, len(inv.Apps))
		copy(apps, inv.Apps)
		sort.SliceStable(apps, func(i, j int) bool { return apps[i].Spend > apps[j].Spend })
		inv.Apps = apps[:a.MaxApps]
	}
	if a.MaxCategories > 0 && len(inv.Categories) > a.MaxCategories {
		cats := make([]models.CategoryStat, len(inv.Categories))
		copy(cats, inv.Categories)
		sort.SliceStable(cats, func(i, j int) bool { return cats[i].Spend > cats[j].Spend })
		inv.Categories = cats[:a.MaxCategories]
	}
	return inv
}

// syntheticBreakdown fabricates a small daily series from overview
// totals so chart consumers always receive a non-empty series. Rows
// carry the Synthetic marker to keep them distinguishable from real
// per-day data.
func (a *Aggregator) syntheticBreakdown(o models.Overview) []models.DailyStat {
	days := make([]models.DailyStat, 0, syntheticDays)
	first := a.now().AddDate(0, 0, -(syntheticDays - 1))
	for i := 0; i < syntheticDays; i++ {
		days = append(days, models.DailyStat{
			Date:        first.AddDate(0, 0, i).Format("2006-01-02"),
			Spend:       o.TotalSpend / syntheticDays,
			Impressions: float64(o.TotalImpressions) / syntheticDays,
			Clicks:      float64(o.TotalImpressions) * syntheticClickFraction / syntheticDays,
			Installs:    float64(o.TotalInstalls) / syntheticDays,
			Actions:     float64(o.TotalActions) / syntheticDays,
			Revenue:     o.TotalSpend * syntheticRevenueFactor / syntheticDays,
			CPI:         o.AvgCPI,
			ROAS:        o.AvgROAS,
			CTR:         o.AvgCTR,
			Synthetic:   true,
		})
	}
	return days
}

// applyFilters slices the assembled view in place. Date comparisons
// are inclusive string comparisons on the YYYY-MM-DD field.
func applyFilters(view *models.UnifiedView, f Filters) {
	if f.Empty() {
		return
	}

	if f.Date != "" || f.StartDate != "" || f.EndDate != "" {
		kept := view.DailyBreakdown[:0]
		for _, day := range view.DailyBreakdown {
			if f.Date != "" && day.Date != f.Date {
				continue
			}
			if f.StartDate != "" && day.Date < f.StartDate {
				continue
			}
			if f.EndDate != "" && day.Date > f.EndDate {
				continue
			}
			kept = append(kept, day)
		}
		view.DailyBreakdown = kept
	}

	if f.Country != "" {
		kept := view.GeographicPerformance[:0]
		for _, geo := range view.GeographicPerformance {
			if strings.EqualFold(geo.Country, f.Country) {
				kept = append(kept, geo)
			}
		}
		view.GeographicPerformance = kept
	}
}

// String renders the filters for fingerprinting and logs.
func (f Filters) String() string {
	return fmt.Sprintf("date=%s|start=%s|end=%s|country=%s", f.Date, f.StartDate, f.EndDate, f.Country)
}
