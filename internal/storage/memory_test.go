package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/radiusdt/vector-insights/internal/models"
)

func TestInMemoryUploadRepoLifecycle(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	repo := NewInMemoryUploadRepo()

	first, err := repo.Append(ctx, models.UploadRecord{Filename: "a.csv"})
	require.NoError(err)
	require.Equal(int64(1), first.ID)

	second, err := repo.Append(ctx, models.UploadRecord{Filename: "b.csv"})
	require.NoError(err)
	require.Equal(int64(2), second.ID)

	records, err := repo.List(ctx)
	require.NoError(err)
	require.Len(records, 2)

	n, err := repo.Count(ctx)
	require.NoError(err)
	require.Equal(2, n)

	got, err := repo.Get(ctx, first.ID)
	require.NoError(err)
	require.Equal("a.csv", got.Filename)

	_, err = repo.Get(ctx, 99)
	require.ErrorIs(err, ErrNotFound)

	deleted, err := repo.Delete(ctx, first.ID)
	require.NoError(err)
	require.Equal("a.csv", deleted.Filename)
	_, err = repo.Delete(ctx, first.ID)
	require.ErrorIs(err, ErrNotFound)

	removed, err := repo.Clear(ctx)
	require.NoError(err)
	require.Len(removed, 1)
	n, _ = repo.Count(ctx)
	require.Equal(0, n)
}

func TestInMemoryUploadRepoListIsSnapshot(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	repo := NewInMemoryUploadRepo()

	_, err := repo.Append(ctx, models.UploadRecord{Filename: "a.csv"})
	require.NoError(err)

	snapshot, err := repo.List(ctx)
	require.NoError(err)

	_, err = repo.Append(ctx, models.UploadRecord{Filename: "b.csv"})
	require.NoError(err)
	require.Len(snapshot, 1)
}

func TestInMemoryDocumentStoreRoundTrip(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	store := NewInMemoryDocumentStore()

	doc := &models.AggregateDocument{
		Category: models.CategoryReports,
		RowCount: 3,
		Overview: models.Overview{TotalSpend: 42.5},
		TopCampaigns: []models.CampaignPerf{
			{Name: "c1", Spend: 42.5},
		},
	}

	require.NoError(store.SaveDocument(ctx, "ref-1", doc))

	loaded, err := store.LoadDocument(ctx, "ref-1")
	require.NoError(err)
	require.Equal(doc.RowCount, loaded.RowCount)
	require.Equal(doc.Overview.TotalSpend, loaded.Overview.TotalSpend)
	require.Equal("c1", loaded.TopCampaigns[0].Name)

	// Loads return independent copies.
	loaded.TopCampaigns[0].Name = "mutated"
	again, err := store.LoadDocument(ctx, "ref-1")
	require.NoError(err)
	require.Equal("c1", again.TopCampaigns[0].Name)

	require.NoError(store.DeleteDocument(ctx, "ref-1"))
	_, err = store.LoadDocument(ctx, "ref-1")
	require.ErrorIs(err, ErrNotFound)
}
