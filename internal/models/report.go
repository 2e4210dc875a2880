package models

import "strings"

// ReportCategory identifies which aggregation routine applies to an
// uploaded table and which output shape downstream consumers expect.
type ReportCategory string

const (
	CategoryReports          ReportCategory = "reports"
	CategoryInventoryOverall ReportCategory = "inventory_overall"
	CategoryInventoryDaily   ReportCategory = "inventory_daily"
	CategoryUnknown          ReportCategory = "unknown"
)

// ParseCategory normalizes an externally supplied category string.
// The frontend historically sent the singular "report".
func ParseCategory(s string) ReportCategory {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reports", "report":
		return CategoryReports
	case "inventory_overall":
		return CategoryInventoryOverall
	case "inventory_daily":
		return CategoryInventoryDaily
	default:
		return CategoryUnknown
	}
}

// IsReports reports whether the category is the campaign-report kind,
// accepting the legacy singular alias stored by older uploads.
func (c ReportCategory) IsReports() bool {
	return c == CategoryReports || c == "report"
}

// Overview holds the whole-table totals and average ratios.
type Overview struct {
	TotalSpend       float64 `json:"total_spend"`
	TotalImpressions int64   `json:"total_impressions"`
	TotalClicks      int64   `json:"total_clicks"`
	TotalInstalls    int64   `json:"total_installs"`
	TotalActions     int64   `json:"total_actions"`
	TotalRevenue     float64 `json:"total_revenue"`
	AvgCPI           float64 `json:"avg_cpi"`
	AvgCTR           float64 `json:"avg_ctr"`
	AvgROAS          float64 `json:"avg_roas"`
	TotalCampaigns   int     `json:"total_campaigns"`
}

// CampaignPerf is one row of the top-campaigns ranking.
type CampaignPerf struct {
	Name        string  `json:"campaign"`
	Spend       float64 `json:"spend"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Installs    int64   `json:"installs"`
	Actions     int64   `json:"actions"`
	Revenue     float64 `json:"revenue"`
	CPI         float64 `json:"cpi"`
	CTR         float64 `json:"ctr"`
	CPA         float64 `json:"cpa"`
	ROAS        float64 `json:"roas"`
}

// CreativePerf is one row of the creative ranking. Performance is a
// coarse tier derived from revenue per action; "Unknown" when revenue
// or action data is missing.
type CreativePerf struct {
	Name                string  `json:"creative_name"`
	Spend               float64 `json:"spend"`
	Impressions         int64   `json:"impressions"`
	Clicks              int64   `json:"clicks"`
	Installs            int64   `json:"installs"`
	Actions             int64   `json:"actions"`
	Revenue             float64 `json:"revenue"`
	CPI                 float64 `json:"cpi"`
	CTR                 float64 `json:"ctr"`
	CPA                 float64 `json:"cpa"`
	VideoCompletionRate float64 `json:"video_completion_rate"`
	RevenuePerAction    float64 `json:"revenue_per_action"`
	Performance         string  `json:"performance"`
}

// CreativePerformance wraps the creative ranking for response shape
// compatibility with the dashboard frontend.
type CreativePerformance struct {
	TopPerformers []CreativePerf `json:"top_performers"`
}

// ExchangePerf is one row of the per-exchange breakdown.
type ExchangePerf struct {
	Name        string  `json:"exchange"`
	Spend       float64 `json:"spend"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Installs    int64   `json:"installs"`
	Actions     int64   `json:"actions"`
	CPI         float64 `json:"cpi"`
	CPA         float64 `json:"cpa"`
	IPM         float64 `json:"ipm"`
	CTR         float64 `json:"ctr"`
	ROAS        float64 `json:"roas"`
}

// GeoPerf is one row of the per-country breakdown.
type GeoPerf struct {
	Country  string  `json:"country"`
	Spend    float64 `json:"spend"`
	Installs int64   `json:"installs"`
	CPI      float64 `json:"cpi"`
}

// GamblingInsights records game types detected from campaign names.
type GamblingInsights struct {
	DetectedGameTypes []string `json:"detected_game_types"`
	PrimaryGameType   string   `json:"primary_game_type"`
	TotalCountries    int      `json:"total_countries"`
}

// DailyStat is one point of the daily time series. Values are floats
// because synthesized days split totals fractionally. Synthetic marks
// rows fabricated from overview totals rather than real per-day data.
type DailyStat struct {
	Date        string  `json:"date"`
	Spend       float64 `json:"spend"`
	Impressions float64 `json:"impressions"`
	Clicks      float64 `json:"clicks"`
	Installs    float64 `json:"installs"`
	Actions     float64 `json:"actions"`
	Revenue     float64 `json:"revenue"`
	CPI         float64 `json:"cpi"`
	ROAS        float64 `json:"roas"`
	CTR         float64 `json:"ctr"`
	Synthetic   bool    `json:"synthetic,omitempty"`
}

// StoreLinks holds app-store URLs derived from a bundle identifier.
// Nil means the link could not be derived.
type StoreLinks struct {
	AppStore  *string `json:"app_store"`
	PlayStore *string `json:"google_play"`
}

// AppRow is one inventory app with its metrics and store links.
type AppRow struct {
	Name        string     `json:"app_name"`
	Bundle      string     `json:"app_bundle"`
	OS          string     `json:"os"`
	Spend       float64    `json:"spend"`
	Impressions int64      `json:"impressions"`
	Clicks      int64      `json:"clicks"`
	Installs    int64      `json:"installs"`
	Actions     int64      `json:"actions"`
	Revenue     float64    `json:"revenue"`
	StoreLinks  StoreLinks `json:"store_links"`
}

// CategoryStat aggregates inventory rows by app category.
type CategoryStat struct {
	Category string  `json:"category"`
	Spend    float64 `json:"spend"`
	Installs int64   `json:"installs"`
	Actions  int64   `json:"actions"`
	RowCount int     `json:"count"`
}

// InventoryAppAnalysis holds the per-app and per-category views of an
// inventory upload. TotalApps is the real app count even when Apps has
// been truncated for response size.
type InventoryAppAnalysis struct {
	Apps       []AppRow       `json:"apps"`
	Categories []CategoryStat `json:"categories"`
	TotalApps  int            `json:"total_apps"`
}

// AggregateDocument is the canonical output of processing one upload.
type AggregateDocument struct {
	Category              ReportCategory        `json:"csv_type"`
	RowCount              int                   `json:"total_rows"`
	Columns               []string              `json:"columns"`
	Overview              Overview              `json:"overview"`
	TopCampaigns          []CampaignPerf        `json:"top_campaigns"`
	CreativePerformance   CreativePerformance   `json:"creative_performance"`
	ExchangePerformance   []ExchangePerf        `json:"exchange_performance"`
	GeographicPerformance []GeoPerf             `json:"geographic_performance"`
	GamblingInsights      *GamblingInsights     `json:"gambling_insights,omitempty"`
	DailyBreakdown        []DailyStat           `json:"daily_breakdown"`
	InventoryAppAnalysis  *InventoryAppAnalysis `json:"inventory_app_analysis,omitempty"`
}

// UnifiedView has the same body as AggregateDocument but is assembled
// from the latest document of each category across all uploads.
type UnifiedView struct {
	Overview              Overview              `json:"overview"`
	TopCampaigns          []CampaignPerf        `json:"top_campaigns"`
	CreativePerformance   CreativePerformance   `json:"creative_performance"`
	ExchangePerformance   []ExchangePerf        `json:"exchange_performance"`
	GeographicPerformance []GeoPerf             `json:"geographic_performance"`
	GamblingInsights      *GamblingInsights     `json:"gambling_insights,omitempty"`
	DailyBreakdown        []DailyStat           `json:"daily_breakdown"`
	InventoryAppAnalysis  InventoryAppAnalysis  `json:"inventory_app_analysis"`
}

// EmptyUnifiedView returns a view with every field at its empty default.
func EmptyUnifiedView() *UnifiedView {
	return &UnifiedView{
		TopCampaigns:          []CampaignPerf{},
		CreativePerformance:   CreativePerformance{TopPerformers: []CreativePerf{}},
		ExchangePerformance:   []ExchangePerf{},
		GeographicPerformance: []GeoPerf{},
		DailyBreakdown:        []DailyStat{},
		InventoryAppAnalysis:  InventoryAppAnalysis{Apps: []AppRow{}, Categories: []CategoryStat{}},
	}
}

// UploadRecord is the metadata envelope for one processed upload.
// UploadTime is kept as an RFC 3339 string: recency comparisons are
// lexicographic and the ingestion path always writes this format.
type UploadRecord struct {
	ID          int64          `json:"id"`
	Account     string         `json:"account"`
	Filename    string         `json:"filename"`
	StoredName  string         `json:"stored_name,omitempty"`
	UploadTime  string         `json:"upload_time"`
	Category    ReportCategory `json:"csv_type"`
	RowCount    int            `json:"rows"`
	Columns     []string       `json:"columns"`
	DocumentRef string         `json:"report_path"`
}
