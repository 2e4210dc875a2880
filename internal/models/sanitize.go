package models

import "math"

// finite replaces NaN and +/-Inf with 0 so that no unsanitized numeric
// ever reaches storage or callers.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func (o *Overview) sanitize() {
	o.TotalSpend = finite(o.TotalSpend)
	o.TotalRevenue = finite(o.TotalRevenue)
	o.AvgCPI = finite(o.AvgCPI)
	o.AvgCTR = finite(o.AvgCTR)
	o.AvgROAS = finite(o.AvgROAS)
}

func (c *CampaignPerf) sanitize() {
	c.Spend = finite(c.Spend)
	c.Revenue = finite(c.Revenue)
	c.CPI = finite(c.CPI)
	c.CTR = finite(c.CTR)
	c.CPA = finite(c.CPA)
	c.ROAS = finite(c.ROAS)
}

func (c *CreativePerf) sanitize() {
	c.Spend = finite(c.Spend)
	c.Revenue = finite(c.Revenue)
	c.CPI = finite(c.CPI)
	c.CTR = finite(c.CTR)
	c.CPA = finite(c.CPA)
	c.VideoCompletionRate = finite(c.VideoCompletionRate)
	c.RevenuePerAction = finite(c.RevenuePerAction)
}

func (e *ExchangePerf) sanitize() {
	e.Spend = finite(e.Spend)
	e.CPI = finite(e.CPI)
	e.CPA = finite(e.CPA)
	e.IPM = finite(e.IPM)
	e.CTR = finite(e.CTR)
	e.ROAS = finite(e.ROAS)
}

func (g *GeoPerf) sanitize() {
	g.Spend = finite(g.Spend)
	g.CPI = finite(g.CPI)
}

func (d *DailyStat) sanitize() {
	d.Spend = finite(d.Spend)
	d.Impressions = finite(d.Impressions)
	d.Clicks = finite(d.Clicks)
	d.Installs = finite(d.Installs)
	d.Actions = finite(d.Actions)
	d.Revenue = finite(d.Revenue)
	d.CPI = finite(d.CPI)
	d.ROAS = finite(d.ROAS)
	d.CTR = finite(d.CTR)
}

func (a *AppRow) sanitize() {
	a.Spend = finite(a.Spend)
	a.Revenue = finite(a.Revenue)
}

func (c *CategoryStat) sanitize() {
	c.Spend = finite(c.Spend)
}

func (ia *InventoryAppAnalysis) sanitize() {
	for i := range ia.Apps {
		ia.Apps[i].sanitize()
	}
	for i := range ia.Categories {
		ia.Categories[i].sanitize()
	}
}

// Sanitize walks the whole document and clamps every non-finite float
// to 0. The output shape is fixed, so the walk is typed rather than a
// reflective traversal over arbitrary values.
func (d *AggregateDocument) Sanitize() {
	d.Overview.sanitize()
	for i := range d.TopCampaigns {
		d.TopCampaigns[i].sanitize()
	}
	for i := range d.CreativePerformance.TopPerformers {
		d.CreativePerformance.TopPerformers[i].sanitize()
	}
	for i := range d.ExchangePerformance {
		d.ExchangePerformance[i].sanitize()
	}
	for i := range d.GeographicPerformance {
		d.GeographicPerformance[i].sanitize()
	}
	for i := range d.DailyBreakdown {
		d.DailyBreakdown[i].sanitize()
	}
	if d.InventoryAppAnalysis != nil {
		d.InventoryAppAnalysis.sanitize()
	}
}

// Sanitize clamps every non-finite float in the view to 0.
func (v *UnifiedView) Sanitize() {
	v.Overview.sanitize()
	for i := range v.TopCampaigns {
		v.TopCampaigns[i].sanitize()
	}
	for i := range v.CreativePerformance.TopPerformers {
		v.CreativePerformance.TopPerformers[i].sanitize()
	}
	for i := range v.ExchangePerformance {
		v.ExchangePerformance[i].sanitize()
	}
	for i := range v.GeographicPerformance {
		v.GeographicPerformance[i].sanitize()
	}
	for i := range v.DailyBreakdown {
		v.DailyBreakdown[i].sanitize()
	}
	v.InventoryAppAnalysis.sanitize()
}
