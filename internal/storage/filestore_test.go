package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/radiusdt/vector-insights/internal/models"
)

func TestFileDocumentStoreRoundTrip(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	store, err := NewFileDocumentStore(t.TempDir())
	require.NoError(err)

	ref := NewDocumentRef()
	require.True(strings.HasPrefix(ref, "report_"))
	require.True(strings.HasSuffix(ref, ".json"))

	doc := &models.AggregateDocument{
		Category: models.CategoryInventoryDaily,
		RowCount: 2,
		DailyBreakdown: []models.DailyStat{
			{Date: "2025-08-17", Spend: 10},
		},
	}
	require.NoError(store.SaveDocument(ctx, ref, doc))

	loaded, err := store.LoadDocument(ctx, ref)
	require.NoError(err)
	require.Equal(doc.Category, loaded.Category)
	require.Len(loaded.DailyBreakdown, 1)
	require.Equal("2025-08-17", loaded.DailyBreakdown[0].Date)

	require.NoError(store.DeleteDocument(ctx, ref))
	_, err = store.LoadDocument(ctx, ref)
	require.ErrorIs(err, ErrNotFound)
}

func TestFileDocumentStoreRejectsTraversal(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	store, err := NewFileDocumentStore(t.TempDir())
	require.NoError(err)

	doc := &models.AggregateDocument{}
	require.Error(store.SaveDocument(ctx, "../escape.json", doc))
	_, err = store.LoadDocument(ctx, "../../etc/passwd")
	require.Error(err)
	require.Error(store.DeleteDocument(ctx, "a/b.json"))
}

func TestFileDocumentStoreMissing(t *testing.T) {
	require := require.New(t)

	store, err := NewFileDocumentStore(t.TempDir())
	require.NoError(err)

	_, err = store.LoadDocument(context.Background(), "report_missing.json")
	require.ErrorIs(err, ErrNotFound)
}
