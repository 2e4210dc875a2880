package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/radiusdt/vector-insights/internal/models"
)

var fixedNow = time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)

func TestExtractDateFromFilename(t *testing.T) {
	require := require.New(t)

	// Compact YYYYMMDD wins first.
	require.Equal("2025-08-17", extractDateFromFilename("inventory_20250817.csv", fixedNow))
	// DD-MM-YYYY next.
	require.Equal("2025-08-17", extractDateFromFilename("inventory_17-08-2025.csv", fixedNow))
	// ISO last.
	require.Equal("2025-08-17", extractDateFromFilename("inventory_2025-08-17.csv", fixedNow))
	// Nothing matches: processing date.
	require.Equal("2025-08-20", extractDateFromFilename("inventory.csv", fixedNow))
}

func TestProcessInventoryDailySingleRow(t *testing.T) {
	require := require.New(t)

	tbl := mustParse(t, strings.Join([]string{
		"Campaign,App Title,Spend,Impressions,Click,Install",
		"c1,Game One,60,4000,80,6",
		"c1,Game Two,40,2000,40,4",
	}, "\n"))

	doc := processInventory(tbl, models.CategoryInventoryDaily, "daily_20250817.csv", fixedNow)
	require.Equal(models.CategoryInventoryDaily, doc.Category)

	// Many rows collapse into exactly one dated breakdown row.
	require.Len(doc.DailyBreakdown, 1)
	day := doc.DailyBreakdown[0]
	require.Equal("2025-08-17", day.Date)
	require.Equal(100.0, day.Spend)
	require.Equal(6000.0, day.Impressions)
	require.Equal(10.0, day.Installs)
	require.False(day.Synthetic)

	require.Equal(1, doc.Overview.TotalCampaigns)
}

func TestProcessInventoryOverallNoBreakdown(t *testing.T) {
	require := require.New(t)

	tbl := mustParse(t, strings.Join([]string{
		"App Title,App Bundle,OS,Spend",
		"Game One,com.example.one,android,10",
	}, "\n"))

	doc := processInventory(tbl, models.CategoryInventoryOverall, "overall_20250817.csv", fixedNow)
	require.Empty(doc.DailyBreakdown)
	require.NotNil(doc.InventoryAppAnalysis)
	require.Equal(1, doc.InventoryAppAnalysis.TotalApps)
}

func TestProcessInventoryAppsAndStoreLinks(t *testing.T) {
	require := require.New(t)

	tbl := mustParse(t, strings.Join([]string{
		"App Title,App Bundle,OS,Spend,Install",
		"Droid Game,com.example.game,android,10,2",
		"Apple Game,997700435,ios,20,3",
	}, "\n"))

	doc := processInventory(tbl, models.CategoryInventoryOverall, "", fixedNow)
	apps := doc.InventoryAppAnalysis.Apps
	require.Len(apps, 2)

	require.Equal("Droid Game", apps[0].Name)
	require.NotNil(apps[0].StoreLinks.PlayStore)
	require.Nil(apps[0].StoreLinks.AppStore)

	require.NotNil(apps[1].StoreLinks.AppStore)
	require.Equal("https://apps.apple.com/app/id997700435", *apps[1].StoreLinks.AppStore)
}

func TestProcessInventoryCategoriesFromCategoryColumn(t *testing.T) {
	require := require.New(t)

	tbl := mustParse(t, strings.Join([]string{
		"App Title,Category,Spend,Install",
		"a,Casino,10,1",
		"b,Casino,20,2",
		"c,Puzzle,5,1",
	}, "\n"))

	doc := processInventory(tbl, models.CategoryInventoryOverall, "", fixedNow)
	cats := doc.InventoryAppAnalysis.Categories
	require.Len(cats, 2)
	require.Equal("Casino", cats[0].Category)
	require.Equal(30.0, cats[0].Spend)
	require.Equal(2, cats[0].RowCount)
	require.Equal("Puzzle", cats[1].Category)
}

func TestProcessInventoryCategoriesAppTitleSurrogate(t *testing.T) {
	require := require.New(t)

	tbl := mustParse(t, strings.Join([]string{
		"App Title,Spend",
		"Game One,10",
		"Game One,5",
		"Game Two,1",
	}, "\n"))

	doc := processInventory(tbl, models.CategoryInventoryOverall, "", fixedNow)
	cats := doc.InventoryAppAnalysis.Categories
	require.Len(cats, 2)
	require.Equal("Game One", cats[0].Category)
	require.Equal(15.0, cats[0].Spend)
}

func TestProcessInventoryCategoriesUnknownBucket(t *testing.T) {
	require := require.New(t)

	tbl := mustParse(t, strings.Join([]string{
		"App Bundle,Spend",
		"com.example.one,10",
		"com.example.two,20",
	}, "\n"))

	doc := processInventory(tbl, models.CategoryInventoryOverall, "", fixedNow)
	cats := doc.InventoryAppAnalysis.Categories
	require.Len(cats, 1)
	require.Equal("Unknown", cats[0].Category)
	require.Equal(30.0, cats[0].Spend)
	require.Equal(2, cats[0].RowCount)
}
