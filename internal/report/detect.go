package report

import "github.com/radiusdt/vector-insights/internal/models"

// detectRule is one entry of the classification decision table.
type detectRule struct {
	name     string
	match    func(c *Columns) bool
	category models.ReportCategory
}

// detectRules is evaluated top to bottom; the first matching rule
// decides the category. The ordering favors the richer signal
// (a campaign column) over the weaker one (an app-title column) and
// must not be rearranged: downstream routines are selected solely from
// this label.
var detectRules = []detectRule{
	{
		name:     "campaign+app_title",
		match:    func(c *Columns) bool { return c.Has(FieldCampaign) && c.Has(FieldAppTitle) },
		category: models.CategoryInventoryDaily,
	},
	{
		name:     "campaign+spend+impressions",
		match:    func(c *Columns) bool { return c.Has(FieldCampaign) && c.Has(FieldSpend) && c.Has(FieldImpressions) },
		category: models.CategoryReports,
	},
	{
		name:     "campaign",
		match:    func(c *Columns) bool { return c.Has(FieldCampaign) },
		category: models.CategoryReports,
	},
	{
		name:     "app_title+roas",
		match:    func(c *Columns) bool { return c.Has(FieldAppTitle) && c.Has(FieldROAS) },
		category: models.CategoryInventoryOverall,
	},
	{
		name:     "app_title",
		match:    func(c *Columns) bool { return c.Has(FieldAppTitle) },
		category: models.CategoryInventoryDaily,
	},
	{
		name:     "spend+installs",
		match:    func(c *Columns) bool { return c.Has(FieldSpend) && c.Has(FieldInstalls) },
		category: models.CategoryReports,
	},
	{
		name:     "app_title_or_bundle",
		match:    func(c *Columns) bool { return c.Has(FieldAppTitle) || c.Has(FieldBundle) },
		category: models.CategoryInventoryOverall,
	},
}

// Detect classifies a table into a report category. Total and
// deterministic: every table maps to exactly one category.
func Detect(t *RawTable) models.ReportCategory {
	cols := Resolve(t.Columns)
	for _, rule := range detectRules {
		if rule.match(cols) {
			return rule.category
		}
	}
	return models.CategoryUnknown
}
