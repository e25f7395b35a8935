package repositories

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/rohanj-dev/skystash/internal/models"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	recentCount  = 5
)

// FileStore persists file metadata. Every query is scoped to an owner: a user
// can never observe or mutate another user's files through this store.
type FileStore struct {
	db *gorm.DB
}

func NewFileStore(db *gorm.DB) *FileStore {
	return &FileStore{db: db}
}

func (s *FileStore) CreateFile(ctx context.Context, file *models.File) error {
	return s.db.WithContext(ctx).Create(file).Error
}

// ListFilesByCategory returns the owner's files in one category, newest
// first. Page and limit fall back to 1/10 when out of range.
func (s *FileStore) ListFilesByCategory(ctx context.Context, ownerID uuid.UUID, category models.Category, page, limit int) ([]models.File, error) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}

	var files []models.File
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND category = ?", ownerID, category).
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&files).Error
	if err != nil {
		return nil, err
	}
	return files, nil
}

// FindFileByIDForOwner looks up a file by id, visible only to its owner.
// A foreign or unknown id both yield ErrNotFound.
func (s *FileStore) FindFileByIDForOwner(ctx context.Context, id, ownerID uuid.UUID) (*models.File, error) {
	var file models.File
	err := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&file).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// RenameFile updates the display name of an owned file.
func (s *FileStore) RenameFile(ctx context.Context, id, ownerID uuid.UUID, newName string) (*models.File, error) {
	file, err := s.FindFileByIDForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	file.Name = strings.TrimSpace(newName)
	if err := s.db.WithContext(ctx).Save(file).Error; err != nil {
		return nil, err
	}
	return file, nil
}

// DeleteFile removes the metadata record and returns it so the caller can
// purge the blob object afterwards.
func (s *FileStore) DeleteFile(ctx context.Context, id, ownerID uuid.UUID) (*models.File, error) {
	file, err := s.FindFileByIDForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Delete(file).Error; err != nil {
		return nil, err
	}
	return file, nil
}

// CategoryUsage is one category's slice of the dashboard.
type CategoryUsage struct {
	Count        int64
	LatestUpload *time.Time
}

// RecentFile is a dashboard entry for a recently uploaded file.
type RecentFile struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// Usage aggregates a user's storage consumption.
type Usage struct {
	TotalBytes int64
	ByCategory map[models.Category]CategoryUsage
	Recent     []RecentFile
}

// Categories enumerated on the dashboard, in response order.
var dashboardCategories = []models.Category{
	models.CategoryDocument,
	models.CategoryImage,
	models.CategoryVideoOrAudio,
	models.CategoryOther,
}

// UsageSummary computes total bytes used, a per-category breakdown and the
// most recent uploads for one owner. The independent aggregate queries run
// concurrently. A user with no files yields zero counts, never an error.
func (s *FileStore) UsageSummary(ctx context.Context, ownerID uuid.UUID) (*Usage, error) {
	usage := &Usage{ByCategory: make(map[models.Category]CategoryUsage, len(dashboardCategories))}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var total int64
		err := s.db.WithContext(gctx).Model(&models.File{}).
			Where("owner_id = ?", ownerID).
			Select("COALESCE(SUM(size), 0)").
			Scan(&total).Error
		if err != nil {
			return err
		}
		mu.Lock()
		usage.TotalBytes = total
		mu.Unlock()
		return nil
	})

	for _, category := range dashboardCategories {
		g.Go(func() error {
			var count int64
			err := s.db.WithContext(gctx).Model(&models.File{}).
				Where("owner_id = ? AND category = ?", ownerID, category).
				Count(&count).Error
			if err != nil {
				return err
			}

			cu := CategoryUsage{Count: count}
			if count > 0 {
				var latest models.File
				err = s.db.WithContext(gctx).
					Where("owner_id = ? AND category = ?", ownerID, category).
					Order("created_at DESC").
					First(&latest).Error
				if err != nil {
					return err
				}
				cu.LatestUpload = &latest.CreatedAt
			}

			mu.Lock()
			usage.ByCategory[category] = cu
			mu.Unlock()
			return nil
		})
	}

	g.Go(func() error {
		var files []models.File
		err := s.db.WithContext(gctx).
			Where("owner_id = ?", ownerID).
			Order("created_at DESC").
			Limit(recentCount).
			Find(&files).Error
		if err != nil {
			return err
		}

		recent := make([]RecentFile, 0, len(files))
		for _, f := range files {
			recent = append(recent, RecentFile{ID: f.ID, Name: f.Name, CreatedAt: f.CreatedAt})
		}
		mu.Lock()
		usage.Recent = recent
		mu.Unlock()
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return usage, nil
}
