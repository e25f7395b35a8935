package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rohanj-dev/skystash/internal/models"
)

func seedFile(t *testing.T, store *FileStore, owner uuid.UUID, name string, category models.Category, size int64, createdAt time.Time) *models.File {
	t.Helper()

	file := &models.File{
		OwnerID:   owner,
		Name:      name,
		URL:       "https://cdn.example.com/" + name,
		ObjectKey: "uploads/" + name,
		Size:      size,
		Category:  category,
		CreatedAt: createdAt,
	}
	require.NoError(t, store.CreateFile(context.Background(), file))
	return file
}

func TestListFilesIsScopedToOwner(t *testing.T) {
	store := NewFileStore(newTestDB(t))
	ctx := context.Background()

	userA := uuid.New()
	userB := uuid.New()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	seedFile(t, store, userA, "a1.png", models.CategoryImage, 100, base)
	seedFile(t, store, userA, "a2.png", models.CategoryImage, 100, base.Add(time.Minute))
	seedFile(t, store, userB, "b1.png", models.CategoryImage, 100, base.Add(2*time.Minute))

	files, err := store.ListFilesByCategory(ctx, userA, models.CategoryImage, 1, 10)
	require.NoError(t, err)
	require.Len(t, files, 2)
	for _, f := range files {
		require.Equal(t, userA, f.OwnerID)
	}

	// Newest first.
	require.Equal(t, "a2.png", files[0].Name)
	require.Equal(t, "a1.png", files[1].Name)
}

func TestListFilesPagination(t *testing.T) {
	store := NewFileStore(newTestDB(t))
	ctx := context.Background()

	owner := uuid.New()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		seedFile(t, store, owner, fmt.Sprintf("doc-%02d.pdf", i), models.CategoryDocument, 10, base.Add(time.Duration(i)*time.Minute))
	}

	page1, err := store.ListFilesByCategory(ctx, owner, models.CategoryDocument, 1, 10)
	require.NoError(t, err)
	require.Len(t, page1, 10)
	require.Equal(t, "doc-24.pdf", page1[0].Name)

	page3, err := store.ListFilesByCategory(ctx, owner, models.CategoryDocument, 3, 10)
	require.NoError(t, err)
	require.Len(t, page3, 5)
	require.Equal(t, "doc-00.pdf", page3[4].Name)

	// Out-of-range values fall back to the defaults.
	fallback, err := store.ListFilesByCategory(ctx, owner, models.CategoryDocument, 0, -1)
	require.NoError(t, err)
	require.Len(t, fallback, 10)
	require.Equal(t, page1[0].ID, fallback[0].ID)
}

func TestRenameFile(t *testing.T) {
	store := NewFileStore(newTestDB(t))
	ctx := context.Background()

	owner := uuid.New()
	file := seedFile(t, store, owner, "old.pdf", models.CategoryDocument, 10, time.Now().UTC())

	renamed, err := store.RenameFile(ctx, file.ID, owner, "  new name.pdf  ")
	require.NoError(t, err)
	require.Equal(t, "new name.pdf", renamed.Name)

	_, err = store.RenameFile(ctx, uuid.New(), owner, "whatever")
	require.ErrorIs(t, err, ErrNotFound)

	// Another user cannot rename the file, and the name is untouched.
	_, err = store.RenameFile(ctx, file.ID, uuid.New(), "stolen")
	require.ErrorIs(t, err, ErrNotFound)

	got, err := store.FindFileByIDForOwner(ctx, file.ID, owner)
	require.NoError(t, err)
	require.Equal(t, "new name.pdf", got.Name)
}

func TestDeleteFile(t *testing.T) {
	store := NewFileStore(newTestDB(t))
	ctx := context.Background()

	owner := uuid.New()
	file := seedFile(t, store, owner, "gone.pdf", models.CategoryDocument, 10, time.Now().UTC())

	// Foreign owners get not-found, and the record survives.
	_, err := store.DeleteFile(ctx, file.ID, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)

	deleted, err := store.DeleteFile(ctx, file.ID, owner)
	require.NoError(t, err)
	require.Equal(t, "uploads/gone.pdf", deleted.ObjectKey)

	// Deleting twice is a clean not-found, never a crash.
	_, err = store.DeleteFile(ctx, file.ID, owner)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUsageSummaryEmpty(t *testing.T) {
	store := NewFileStore(newTestDB(t))

	usage, err := store.UsageSummary(context.Background(), uuid.New())
	require.NoError(t, err)

	require.Zero(t, usage.TotalBytes)
	require.Empty(t, usage.Recent)
	for _, cu := range usage.ByCategory {
		require.Zero(t, cu.Count)
		require.Nil(t, cu.LatestUpload)
	}
}

func TestUsageSummary(t *testing.T) {
	store := NewFileStore(newTestDB(t))
	ctx := context.Background()

	owner := uuid.New()
	other := uuid.New()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	seedFile(t, store, owner, "a.png", models.CategoryImage, 1000, base)
	seedFile(t, store, owner, "b.png", models.CategoryImage, 2000, base.Add(time.Minute))
	seedFile(t, store, owner, "c.pdf", models.CategoryDocument, 4000, base.Add(2*time.Minute))
	for i := 0; i < 4; i++ {
		seedFile(t, store, owner, fmt.Sprintf("clip-%d.mp4", i), models.CategoryVideoOrAudio, 500, base.Add(time.Duration(3+i)*time.Minute))
	}
	seedFile(t, store, other, "not-mine.png", models.CategoryImage, 1<<20, base)

	usage, err := store.UsageSummary(ctx, owner)
	require.NoError(t, err)

	require.Equal(t, int64(1000+2000+4000+4*500), usage.TotalBytes)

	require.Equal(t, int64(2), usage.ByCategory[models.CategoryImage].Count)
	require.Equal(t, int64(1), usage.ByCategory[models.CategoryDocument].Count)
	require.Equal(t, int64(4), usage.ByCategory[models.CategoryVideoOrAudio].Count)
	require.Equal(t, int64(0), usage.ByCategory[models.CategoryOther].Count)
	require.Nil(t, usage.ByCategory[models.CategoryOther].LatestUpload)

	images := usage.ByCategory[models.CategoryImage]
	require.NotNil(t, images.LatestUpload)
	require.True(t, images.LatestUpload.Equal(base.Add(time.Minute)))

	// Five most recent, newest first, owner-scoped.
	require.Len(t, usage.Recent, 5)
	require.Equal(t, "clip-3.mp4", usage.Recent[0].Name)
	require.Equal(t, "clip-0.mp4", usage.Recent[3].Name)
	require.Equal(t, "c.pdf", usage.Recent[4].Name)
}
