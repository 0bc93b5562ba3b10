package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ContentStatus string

const (
	StatusDraft     ContentStatus = "draft"
	StatusPublished ContentStatus = "published"
	StatusArchived  ContentStatus = "archived"
)

func EnsureEnum(db *gorm.DB) error {
	return db.Exec(`
		DO $$
		BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'content_status') THEN
				CREATE TYPE content_status AS ENUM (
					'draft',
					'published',
					'archived'
				);
			END IF;
		END
		$$;
	`).Error
}

type Collection struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:100;uniqueIndex" json:"name"`
	Slug      string         `gorm:"size:100;uniqueIndex" json:"slug"`
	Schema    datatypes.JSON `json:"schema"`
	Settings  datatypes.JSON `json:"settings,omitempty"`
	CreatedBy uint           `gorm:"index" json:"created_by,omitempty"`
	Creator   *User          `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

type Content struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	CollectionID       uint           `gorm:"index;uniqueIndex:idx_collection_slug" json:"collection_id"`
	Collection         *Collection    `gorm:"foreignKey:CollectionID" json:"collection,omitempty"`
	Title              string         `gorm:"size:255" json:"title"`
	Slug               string         `gorm:"size:255;uniqueIndex:idx_collection_slug" json:"slug"`
	Status             ContentStatus  `gorm:"type:content_status;default:'draft';index" json:"status"`
	CurrentVersion     int            `gorm:"default:0" json:"current_version"`
	PublishedVersionID *uint          `json:"published_version_id,omitempty"`
	Elements           datatypes.JSON `json:"elements"`
	Metadata           datatypes.JSON `json:"metadata,omitempty"`
	Editions           datatypes.JSON `json:"editions,omitempty"`
	CreatedBy          uint           `gorm:"index" json:"created_by,omitempty"`
	UpdatedBy          uint           `gorm:"index" json:"updated_by,omitempty"`
	Creator            *User          `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Updater            *User          `gorm:"foreignKey:UpdatedBy" json:"updater,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	PublishedAt        *time.Time     `json:"published_at,omitempty"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

// ContentVersion rows are immutable once created: never updated or
// deleted, only appended. Restore produces a new row.
type ContentVersion struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	ContentID     uint           `gorm:"index;uniqueIndex:idx_content_version" json:"content_id"`
	Content       *Content       `gorm:"foreignKey:ContentID" json:"content,omitempty"`
	VersionNumber int            `gorm:"uniqueIndex:idx_content_version" json:"version_number"`
	Elements      datatypes.JSON `json:"elements"`
	Snapshot      datatypes.JSON `json:"snapshot"`
	ChangeNote    string         `gorm:"type:text" json:"change_note,omitempty"`
	CreatedBy     uint           `gorm:"index" json:"created_by"`
	Creator       *User          `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}
