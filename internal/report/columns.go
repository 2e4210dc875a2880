package report

import "strings"

// Field names a canonical semantic column the engine understands.
type Field string

const (
	FieldSpend          Field = "spend"
	FieldImpressions    Field = "impressions"
	FieldClicks         Field = "clicks"
	FieldInstalls       Field = "installs"
	FieldActions        Field = "actions"
	FieldRevenue        Field = "revenue"
	FieldCampaign       Field = "campaign"
	FieldCreative       Field = "creative"
	FieldExchange       Field = "exchange"
	FieldCountry        Field = "country"
	FieldBundle         Field = "bundle"
	FieldOS             Field = "os"
	FieldAppTitle       Field = "app_title"
	FieldCategory       Field = "category"
	FieldCompletedViews Field = "completed_views"
	FieldROAS           Field = "roas"
)

// aliasTable maps each canonical field to its accepted column names in
// rank order; the first alias present in the table wins. Partner
// exports rename columns between uploads, hence the breadth.
var aliasTable = map[Field][]string{
	FieldSpend:          {"Spend"},
	FieldImpressions:    {"Impressions", "Impression"},
	FieldClicks:         {"Click", "Clicks"},
	FieldInstalls:       {"Install", "Installs"},
	FieldActions:        {"Action", "Actions"},
	FieldRevenue:        {"Revenue", "D1 Revenue", "D7 Revenue", "D30 Revenue", "Purchase", "D1 Purchase"},
	FieldBundle:         {"Inventory - App Bundle", "App Bundle", "Bundle ID", "iOS Bundle ID", "Android Bundle ID", "Bundle_ID", "App_Bundle"},
	FieldOS:             {"OS", "Platform"},
	FieldAppTitle:       {"Inventory - App Title", "App Title"},
	FieldCategory:       {"Category", "Inventory - App Category", "App Category", "App_Category"},
	FieldCompletedViews: {"Completed View", "Completed Views"},
	FieldROAS:           {"D1_ROAS", "ROAS"},
}

// keywordTable lists fields matched by substring rather than exact
// alias: the first column whose normalized name contains the keyword
// resolves the field.
var keywordTable = []struct {
	field   Field
	keyword string
}{
	{FieldCampaign, "campaign"},
	{FieldCreative, "creative"},
	{FieldExchange, "exchange"},
	{FieldCountry, "country"},
}

// aliasOrder fixes the resolution order for exact-alias fields so that
// claimed columns are deterministic.
var aliasOrder = []Field{
	FieldSpend, FieldImpressions, FieldClicks, FieldInstalls, FieldActions,
	FieldRevenue, FieldBundle, FieldOS, FieldAppTitle, FieldCategory,
	FieldCompletedViews, FieldROAS,
}

// normalizeColumn lowercases and strips whitespace so matching is
// case- and whitespace-insensitive.
func normalizeColumn(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// Columns is the result of resolving a table's header against the
// alias tables: canonical field -> actual column name present.
type Columns struct {
	byField map[Field]string
}

// Resolve maps the given column names to canonical fields. Pure: the
// same header always yields the same mapping, and no source column is
// claimed by more than one field.
func Resolve(names []string) *Columns {
	normalized := make([]string, len(names))
	for i, n := range names {
		normalized[i] = normalizeColumn(n)
	}

	c := &Columns{byField: make(map[Field]string)}
	claimed := make(map[string]bool)

	for _, f := range aliasOrder {
		for _, alias := range aliasTable[f] {
			want := normalizeColumn(alias)
			for i, n := range normalized {
				if n == want && !claimed[names[i]] {
					c.byField[f] = names[i]
					claimed[names[i]] = true
					break
				}
			}
			if _, ok := c.byField[f]; ok {
				break
			}
		}
	}

	for _, kw := range keywordTable {
		for i, n := range normalized {
			if strings.Contains(n, kw.keyword) && !claimed[names[i]] {
				c.byField[kw.field] = names[i]
				claimed[names[i]] = true
				break
			}
		}
	}

	return c
}

// Lookup returns the source column resolved for the field, if any.
func (c *Columns) Lookup(f Field) (string, bool) {
	name, ok := c.byField[f]
	return name, ok
}

// Has reports whether the field resolved to a column.
func (c *Columns) Has(f Field) bool {
	_, ok := c.byField[f]
	return ok
}
