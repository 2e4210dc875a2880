package report

import (
	"math"
	"sort"
	"strings"

	"github.com/radiusdt/vector-insights/internal/models"
)

const (
	topCampaignsCap = 10
	topCreativesCap = 20
	topExchangesCap = 15
	topCountriesCap = 10
)

// gameKeywords maps campaign-name substrings to game types. Ordered:
// the first keyword detected decides the primary game type.
var gameKeywords = []struct {
	keyword string
	game    string
}{
	{"chick", "Chicken"},
	{"plinko", "Plinko"},
	{"slot", "Slots"},
	{"poker", "Poker"},
	{"blackjack", "Blackjack"},
	{"roulette", "Roulette"},
	{"crash", "Crash"},
}

// clamp zeroes non-finite ratios so zero denominators can never leak
// Inf or NaN into a document.
func clamp(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// groupAgg accumulates per-group sums during a grouping pass.
type groupAgg struct {
	key         string
	spend       float64
	impressions float64
	clicks      float64
	installs    float64
	actions     float64
	revenue     float64
	completed   float64
}

// groupBy sums metric columns per distinct value of keyCol, preserving
// first-seen order. Unresolved fields contribute 0.
func groupBy(t *RawTable, keyCol string, cols *Columns) []*groupAgg {
	byKey := make(map[string]*groupAgg)
	var order []*groupAgg

	get := func(row map[string]string, f Field) float64 {
		col, ok := cols.Lookup(f)
		if !ok {
			return 0
		}
		return parseNumber(row[col])
	}

	for _, row := range t.Rows {
		key := row[keyCol]
		g, ok := byKey[key]
		if !ok {
			g = &groupAgg{key: key}
			byKey[key] = g
			order = append(order, g)
		}
		g.spend += get(row, FieldSpend)
		g.impressions += get(row, FieldImpressions)
		g.clicks += get(row, FieldClicks)
		g.installs += get(row, FieldInstalls)
		g.actions += get(row, FieldActions)
		g.revenue += get(row, FieldRevenue)
		g.completed += get(row, FieldCompletedViews)
	}
	return order
}

// sortBySpendDesc orders groups by spend descending, keeping the
// original order for ties, and truncates to cap.
func sortBySpendDesc(groups []*groupAgg, cap int) []*groupAgg {
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].spend > groups[j].spend
	})
	if len(groups) > cap {
		groups = groups[:cap]
	}
	return groups
}

// cpiFor computes spend / max(installs, 1), but only when an installs
// column actually resolved; a missing column yields 0, not a division
// by the substituted 1.
func cpiFor(g *groupAgg, cols *Columns) float64 {
	if !cols.Has(FieldInstalls) {
		return 0
	}
	denom := g.installs
	if denom < 1 {
		denom = 1
	}
	return clamp(g.spend / denom)
}

// cpaFor is a hard zero when the group has no actions. Unlike CPI
// there is no 1-substitution: no actions means no cost per action.
func cpaFor(g *groupAgg, cols *Columns) float64 {
	if !cols.Has(FieldActions) || g.actions <= 0 {
		return 0
	}
	return clamp(g.spend / g.actions)
}

func ctrFor(g *groupAgg, cols *Columns) float64 {
	if !cols.Has(FieldClicks) || !cols.Has(FieldImpressions) || g.impressions <= 0 {
		return 0
	}
	return clamp(g.clicks / g.impressions * 100)
}

func roasFor(g *groupAgg) float64 {
	if g.spend <= 0 {
		return 0
	}
	return clamp(g.revenue / g.spend)
}

// performanceTier buckets revenue per action into coarse tiers.
func performanceTier(revenuePerAction float64) string {
	switch {
	case revenuePerAction >= 130 && revenuePerAction <= 189:
		return "Tier 1"
	case revenuePerAction >= 70 && revenuePerAction <= 129:
		return "Tier 2"
	case revenuePerAction >= 20 && revenuePerAction <= 69:
		return "Tier 3"
	default:
		return "Low"
	}
}

// processReports computes the aggregate document for a table
// classified as a campaign report.
func processReports(t *RawTable) *models.AggregateDocument {
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

	doc := &models.AggregateDocument{
		Category:              models.CategoryReports,
		RowCount:              t.Len(),
		Columns:               t.Columns,
		Overview:              overview,
		TopCampaigns:          []models.CampaignPerf{},
		CreativePerformance:   models.CreativePerformance{TopPerformers: []models.CreativePerf{}},
		ExchangePerformance:   []models.ExchangePerf{},
		GeographicPerformance: []models.GeoPerf{},
		DailyBreakdown:        []models.DailyStat{},
	}

	// Campaigns
	if campaignCol, ok := cols.Lookup(FieldCampaign); ok {
		groups := groupBy(t, campaignCol, cols)
		doc.Overview.TotalCampaigns = len(groups)
		for _, g := range sortBySpendDesc(groups, topCampaignsCap) {
			doc.TopCampaigns = append(doc.TopCampaigns, models.CampaignPerf{
				Name:        g.key,
				Spend:       g.spend,
				Impressions: int64(g.impressions),
				Clicks:      int64(g.clicks),
				Installs:    int64(g.installs),
				Actions:     int64(g.actions),
				Revenue:     g.revenue,
				CPI:         cpiFor(g, cols),
				CTR:         ctrFor(g, cols),
				CPA:         cpaFor(g, cols),
				ROAS:        roasFor(g),
			})
		}
	}

	// Creatives
	if creativeCol, ok := cols.Lookup(FieldCreative); ok {
		groups := groupBy(t, creativeCol, cols)

		// Revenue-per-action tiers need nonzero revenue and action
		// sums across the whole table; otherwise the tier is Unknown.
		tierable := cols.Has(FieldRevenue) && cols.Has(FieldActions) &&
			totalRevenue > 0 && totalActions > 0

		for _, g := range sortBySpendDesc(groups, topCreativesCap) {
			perf := models.CreativePerf{
				Name:        g.key,
				Spend:       g.spend,
				Impressions: int64(g.impressions),
				Clicks:      int64(g.clicks),
				Installs:    int64(g.installs),
				Actions:     int64(g.actions),
				Revenue:     g.revenue,
				CPI:         cpiFor(g, cols),
				CTR:         ctrFor(g, cols),
				CPA:         cpaFor(g, cols),
				Performance: "Unknown",
			}
			if cols.Has(FieldCompletedViews) && cols.Has(FieldImpressions) && g.impressions > 0 {
				perf.VideoCompletionRate = clamp(g.completed / g.impressions * 100)
			}
			if tierable {
				denom := g.actions
				if denom < 1 {
					denom = 1
				}
				perf.RevenuePerAction = clamp(g.revenue / denom)
				perf.Performance = performanceTier(perf.RevenuePerAction)
			}
			doc.CreativePerformance.TopPerformers = append(doc.CreativePerformance.TopPerformers, perf)
		}
	}

	// Exchanges
	if exchangeCol, ok := cols.Lookup(FieldExchange); ok {
		groups := groupBy(t, exchangeCol, cols)
		for _, g := range sortBySpendDesc(groups, topExchangesCap) {
			perf := models.ExchangePerf{
				Name:        g.key,
				Spend:       g.spend,
				Impressions: int64(g.impressions),
				Clicks:      int64(g.clicks),
				Installs:    int64(g.installs),
				Actions:     int64(g.actions),
				CPI:         cpiFor(g, cols),
				CPA:         cpaFor(g, cols),
				CTR:         ctrFor(g, cols),
				ROAS:        roasFor(g),
			}
			if cols.Has(FieldImpressions) && g.impressions > 0 {
				perf.IPM = clamp(g.installs / g.impressions * 1000)
			}
			doc.ExchangePerformance = append(doc.ExchangePerformance, perf)
		}
	}

	// Geography and game-type insights
	if countryCol, ok := cols.Lookup(FieldCountry); ok {
		groups := groupBy(t, countryCol, cols)
		distinctCountries := len(groups)
		for _, g := range sortBySpendDesc(groups, topCountriesCap) {
			doc.GeographicPerformance = append(doc.GeographicPerformance, models.GeoPerf{
				Country:  g.key,
				Spend:    g.spend,
				Installs: int64(g.installs),
				CPI:      cpiFor(g, cols),
			})
		}
		doc.GamblingInsights = detectGameTypes(t, cols, distinctCountries)
	}

	doc.Sanitize()
	return doc
}

// detectGameTypes scans lower-cased campaign names for known game
// keywords.
func detectGameTypes(t *RawTable, cols *Columns, totalCountries int) *models.GamblingInsights {
	insights := &models.GamblingInsights{
		DetectedGameTypes: []string{},
		PrimaryGameType:   "Unknown",
		TotalCountries:    totalCountries,
	}

	campaignCol, ok := cols.Lookup(FieldCampaign)
	if !ok {
		return insights
	}

	for _, kw := range gameKeywords {
		for _, row := range t.Rows {
			if strings.Contains(strings.ToLower(row[campaignCol]), kw.keyword) {
				insights.DetectedGameTypes = append(insights.DetectedGameTypes, kw.game)
				break
			}
		}
	}
	if len(insights.DetectedGameTypes) > 0 {
		insights.PrimaryGameType = insights.DetectedGameTypes[0]
	}
	return insights
}
