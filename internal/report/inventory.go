package report

import (
	"regexp"
	"strings"
	"time"

	"github.com/radiusdt/vector-insights/internal/models"
)

// Filename date patterns, in priority order. Daily inventory exports
// carry their reporting date in the filename, not in a column.
var (
	datePatternCompact = regexp.MustCompile(`(\d{4})(\d{2})(\d{2})`)
	datePatternDMY     = regexp.MustCompile(`(\d{2})-(\d{2})-(\d{4})`)
	datePatternISO     = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
)

// extractDateFromFilename pulls a YYYY-MM-DD date out of a filename.
// Falls back to the supplied processing date when nothing matches.
func extractDateFromFilename(filename string, now time.Time) string {
	if m := datePatternCompact.FindStringSubmatch(filename); m != nil {
		return m[1] + "-" + m[2] + "-" + m[3]
	}
	if m := datePatternDMY.FindStringSubmatch(filename); m != nil {
		return m[3] + "-" + m[2] + "-" + m[1]
	}
	if m := datePatternISO.FindStringSubmatch(filename); m != nil {
		return m[1] + "-" + m[2] + "-" + m[3]
	}
	return now.Format("2006-01-02")
}

// processInventory computes the aggregate document for a table
// classified as either inventory category. filename feeds the daily
// breakdown date for daily files; now supplies the fallback date.
func processInventory(t *RawTable, category models.ReportCategory, filename string, now time.Time) *models.AggregateDocument {
	cols := Resolve(t.Columns)

	sum := func(f Field) float64 {
		col, ok := cols.Lookup(f)
		if !ok {
			return 0
		}
		var total float64
		for _, row := range t.Rows {
			total += parseNumber(row[col])
		}
		return total
	}

	totalSpend := sum(FieldSpend)
	totalImpressions := sum(FieldImpressions)
	totalClicks := sum(FieldClicks)
	totalInstalls := sum(FieldInstalls)
	totalActions := sum(FieldActions)
	totalRevenue := sum(FieldRevenue)

	overview := models.Overview{
		TotalSpend:       totalSpend,
		TotalImpressions: int64(totalImpressions),
		TotalClicks:      int64(totalClicks),
		TotalInstalls:    int64(totalInstalls),
		TotalActions:     int64(totalActions),
		TotalRevenue:     totalRevenue,
	}
	if totalInstalls > 0 {
		overview.AvgCPI = clamp(totalSpend / totalInstalls)
	}
	if totalSpend > 0 {
		overview.AvgROAS = clamp(totalRevenue / totalSpend)
	}
	if totalImpressions > 0 {
		overview.AvgCTR = clamp(totalClicks / totalImpressions * 100)
	}
	if campaignCol, ok := cols.Lookup(FieldCampaign); ok {
		seen := make(map[string]struct{})
		for _, row := range t.Rows {
			seen[row[campaignCol]] = struct{}{}
		}
		overview.TotalCampaigns = len(seen)
	}

	doc := &models.AggregateDocument{
		Category:              category,
		RowCount:              t.Len(),
		Columns:               t.Columns,
		Overview:              overview,
		TopCampaigns:          []models.CampaignPerf{},
		CreativePerformance:   models.CreativePerformance{TopPerformers: []models.CreativePerf{}},
		ExchangePerformance:   []models.ExchangePerf{},
		GeographicPerformance: []models.GeoPerf{},
		DailyBreakdown:        []models.DailyStat{},
	}

	// Daily files collapse into a single breakdown row dated from the
	// filename. Overall snapshots carry no time axis.
	if category == models.CategoryInventoryDaily && filename != "" {
		doc.DailyBreakdown = append(doc.DailyBreakdown, models.DailyStat{
			Date:        extractDateFromFilename(filename, now),
			Spend:       totalSpend,
			Impressions: totalImpressions,
			Clicks:      totalClicks,
			Installs:    totalInstalls,
			Actions:     totalActions,
			Revenue:     totalRevenue,
			CPI:         overview.AvgCPI,
			ROAS:        overview.AvgROAS,
			CTR:         overview.AvgCTR,
		})
	}

	doc.InventoryAppAnalysis = &models.InventoryAppAnalysis{
		Apps:       inventoryApps(t, cols),
		Categories: inventoryCategories(t, cols, totalSpend),
		TotalApps:  t.Len(),
	}

	doc.Sanitize()
	return doc
}

// inventoryApps builds the per-row app list with store links derived
// from the bundle id and the OS column when present.
func inventoryApps(t *RawTable, cols *Columns) []models.AppRow {
	apps := make([]models.AppRow, 0, t.Len())

	get := func(row map[string]string, f Field) float64 {
		col, ok := cols.Lookup(f)
		if !ok {
			return 0
		}
		return parseNumber(row[col])
	}
	text := func(row map[string]string, f Field) string {
		col, ok := cols.Lookup(f)
		if !ok {
			return ""
		}
		return strings.TrimSpace(row[col])
	}

	for _, row := range t.Rows {
		bundle := text(row, FieldBundle)
		platform := text(row, FieldOS)

		app := models.AppRow{
			Name:        text(row, FieldAppTitle),
			Bundle:      bundle,
			OS:          platform,
			Spend:       get(row, FieldSpend),
			Impressions: int64(get(row, FieldImpressions)),
			Clicks:      int64(get(row, FieldClicks)),
			Installs:    int64(get(row, FieldInstalls)),
			Actions:     int64(get(row, FieldActions)),
			Revenue:     get(row, FieldRevenue),
			StoreLinks:  StoreLinks(bundle, platform),
		}
		apps = append(apps, app)
	}
	return apps
}

// inventoryCategories groups rows by category column, falling back to
// the app title as a category surrogate, then to a single Unknown
// bucket covering the whole file.
func inventoryCategories(t *RawTable, cols *Columns, totalSpend float64) []models.CategoryStat {
	keyCol, ok := cols.Lookup(FieldCategory)
	if !ok {
		keyCol, ok = cols.Lookup(FieldAppTitle)
	}
	if !ok {
		if t.Len() == 0 {
			return []models.CategoryStat{}
		}
		return []models.CategoryStat{{
			Category: "Unknown",
			Spend:    totalSpend,
			RowCount: t.Len(),
		}}
	}

	type catAgg struct {
		spend    float64
		installs float64
		actions  float64
		rows     int
	}
	byKey := make(map[string]*catAgg)
	var order []string

	get := func(row map[string]string, f Field) float64 {
		col, ok := cols.Lookup(f)
		if !ok {
			return 0
		}
		return parseNumber(row[col])
	}

	for _, row := range t.Rows {
		key := row[keyCol]
		agg, seen := byKey[key]
		if !seen {
			agg = &catAgg{}
			byKey[key] = agg
			order = append(order, key)
		}
		agg.spend += get(row, FieldSpend)
		agg.installs += get(row, FieldInstalls)
		agg.actions += get(row, FieldActions)
		agg.rows++
	}

	stats := make([]models.CategoryStat, 0, len(order))
	for _, key := range order {
		agg := byKey[key]
		stats = append(stats, models.CategoryStat{
			Category: key,
			Spend:    agg.spend,
			Installs: int64(agg.installs),
			Actions:  int64(agg.actions),
			RowCount: agg.rows,
		})
	}
	return stats
}
