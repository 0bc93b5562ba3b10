package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CustomElementDefinition struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Type            string         `gorm:"size:100;uniqueIndex" json:"type"`
	Label           string         `gorm:"size:100" json:"label"`
	Description     string         `gorm:"type:text" json:"description,omitempty"`
	Icon            string         `gorm:"size:100" json:"icon,omitempty"`
	Category        string         `gorm:"size:50;index" json:"category"`
	CanHaveChildren bool           `json:"can_have_children"`
	Fields          datatypes.JSON `json:"fields"`
	DefaultData     datatypes.JSON `json:"default_data,omitempty"`
	PreviewTemplate string         `gorm:"size:255" json:"preview_template,omitempty"`
	CSSClass        string         `gorm:"size:255" json:"css_class,omitempty"`
	IsSystem        bool           `gorm:"default:false" json:"is_system"`
	Position        int            `gorm:"default:0" json:"position"`
	CreatedBy       uint           `gorm:"index" json:"created_by,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}
