package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MediaFile is one asset in the media library. Kind mirrors the media
// element's kind vocabulary (image, video, audio, file) so a library
// row can be dropped straight into an element tree.
type MediaFile struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	FileName   string         `gorm:"size:255" json:"file_name"`
	URL        string         `gorm:"size:500" json:"url"`
	Kind       string         `gorm:"size:20;index" json:"kind"`
	MIME       string         `gorm:"size:100" json:"mime"`
	Size       int64          `json:"size"`
	Width      *int           `json:"width,omitempty"`
	Height     *int           `json:"height,omitempty"`
	Folder     string         `gorm:"size:255;index" json:"folder"`
	Tags       datatypes.JSON `json:"tags,omitempty"`
	Alt        string         `gorm:"size:255" json:"alt"`
	Caption    string         `gorm:"type:text" json:"caption"`
	UploadedBy uint           `gorm:"index" json:"uploaded_by"`
	Uploader   *User          `gorm:"foreignKey:UploadedBy" json:"uploader,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// MediaFolder organizes the library. Path is the materialized ancestry
// so listing can sort the whole tree in one query.
type MediaFolder struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:100" json:"name"`
	Path      string         `gorm:"size:255;uniqueIndex" json:"path"`
	ParentID  *uint          `json:"parent_id,omitempty"`
	Parent    *MediaFolder   `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	CreatedBy uint           `json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
