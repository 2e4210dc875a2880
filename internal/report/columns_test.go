package report

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveAliasRankOrder(t *testing.T) {
	require := require.New(t)

	// "Revenue" outranks "D7 Revenue" even when both are present.
	c := Resolve([]string{"D7 Revenue", "Revenue", "Spend"})
	col, ok := c.Lookup(FieldRevenue)
	require.True(ok)
	require.Equal("Revenue", col)

	// With only the lower-ranked alias present it still resolves.
	c = Resolve([]string{"D7 Revenue", "Spend"})
	col, ok = c.Lookup(FieldRevenue)
	require.True(ok)
	require.Equal("D7 Revenue", col)
}

func TestResolveCaseAndWhitespaceInsensitive(t *testing.T) {
	require := require.New(t)

	c := Resolve([]string{"  spend ", "IMPRESSIONS"})
	require.True(c.Has(FieldSpend))
	require.True(c.Has(FieldImpressions))
}

func TestResolveKeywordFields(t *testing.T) {
	require := require.New(t)

	c := Resolve([]string{"Campaign Name", "Creative Asset", "Exchange ID", "Country Code"})
	for _, f := range []Field{FieldCampaign, FieldCreative, FieldExchange, FieldCountry} {
		require.True(c.Has(f), "field %s should resolve", f)
	}

	col, _ := c.Lookup(FieldCampaign)
	require.Equal("Campaign Name", col)
}

func TestResolveNoDoubleClaim(t *testing.T) {
	require := require.New(t)

	// A single column cannot satisfy two fields. "Category" is claimed
	// by the exact alias before the keyword pass runs, so a column
	// containing "country" elsewhere still resolves independently.
	c := Resolve([]string{"Campaign", "Country"})
	campaignCol, _ := c.Lookup(FieldCampaign)
	countryCol, _ := c.Lookup(FieldCountry)
	require.NotEqual(campaignCol, countryCol)
	require.Equal("Campaign", campaignCol)
	require.Equal("Country", countryCol)
}

func TestResolveMissingFields(t *testing.T) {
	require := require.New(t)

	c := Resolve([]string{"Spend"})
	require.False(c.Has(FieldInstalls))
	_, ok := c.Lookup(FieldCampaign)
	require.False(ok)
}

func TestResolveDeterministic(t *testing.T) {
	require := require.New(t)

	names := []string{"Campaign", "Spend", "Impressions", "Click", "Install", "Country"}
	first := Resolve(names)
	for i := 0; i < 10; i++ {
		again := Resolve(names)
		for _, f := range aliasOrder {
			a, aok := first.Lookup(f)
			b, bok := again.Lookup(f)
			require.Equal(aok, bok)
			require.Equal(a, b)
		}
	}
}
