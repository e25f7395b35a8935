package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type File struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	OwnerID   uuid.UUID `json:"ownerId" gorm:"type:uuid;index:idx_files_owner_category;not null"` // immutable after creation
	Name      string    `json:"name" gorm:"not null"`
	URL       string    `json:"url" gorm:"not null"`
	ObjectKey string    `json:"objectKey" gorm:"not null"` // blob store identifier
	Size      int64     `json:"size" gorm:"not null"`      // bytes, as reported by the blob store
	Category  Category  `json:"category" gorm:"index:idx_files_owner_category;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (f *File) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
