package customelement

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/strata-cms/strata/internal/database"
	"github.com/strata-cms/strata/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrDuplicateType          = errors.New("custom element type already exists")
	ErrSystemElementProtected = errors.New("system element definitions cannot be deleted")
	ErrDefinitionNotFound     = errors.New("custom element definition not found")
)

// registry is the process-wide cache. Handlers and services go through
// it; tests build isolated instances with NewRegistry.
var registry *Registry

func Init(loader Loader) {
	registry = NewRegistry(loader)
}

func DefaultRegistry() *Registry {
	if registry == nil {
		registry = NewRegistry(&DatabaseLoader{})
	}
	return registry
}

// systemLockedFields names the definition fields a system-flagged
// definition refuses to change. Updates touching them are ignored field
// by field, not rejected wholesale; everything else stays editable.
var systemLockedFields = map[string]bool{
	"category": true,
}

func CreateDefinition(def *Definition, actor uint) (*models.CustomElementDefinition, error) {
	if !IsValidType(def.Type) {
		return nil, fmt.Errorf("invalid custom element type %q, must match %s", def.Type, TypePattern.String())
	}
	if !IsValidCategory(def.Category) {
		return nil, fmt.Errorf("invalid category %q", def.Category)
	}

	var count int64
	if err := database.DB.Model(&models.CustomElementDefinition{}).
		Where("type = ?", def.Type).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicateType
	}

	row := models.CustomElementDefinition{
		Type:            def.Type,
		Label:           def.Label,
		Description:     def.Description,
		Icon:            def.Icon,
		Category:        def.Category,
		CanHaveChildren: def.CanHaveChildren,
		PreviewTemplate: def.PreviewTemplate,
		CSSClass:        def.CSSClass,
		IsSystem:        def.IsSystem,
		Position:        def.Position,
		CreatedBy:       actor,
	}

	if err := marshalInto(&row, def); err != nil {
		return nil, err
	}

	if err := database.DB.Create(&row).Error; err != nil {
		return nil, err
	}

	DefaultRegistry().Invalidate()
	return &row, nil
}

// UpdateDefinition applies the editable fields of in to the stored
// definition. For system definitions the locked fields are silently
// kept as-is while the rest of the update still lands.
func UpdateDefinition(elementType string, in *Definition) (*models.CustomElementDefinition, error) {
	var row models.CustomElementDefinition
	if err := database.DB.Where("type = ?", elementType).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDefinitionNotFound
		}
		return nil, err
	}

	locked := map[string]bool{}
	if row.IsSystem {
		locked = systemLockedFields
	}

	row.Label = in.Label
	row.Description = in.Description
	row.Icon = in.Icon
	row.CanHaveChildren = in.CanHaveChildren
	row.PreviewTemplate = in.PreviewTemplate
	row.CSSClass = in.CSSClass

	if !locked["category"] && in.Category != "" {
		if !IsValidCategory(in.Category) {
			return nil, fmt.Errorf("invalid category %q", in.Category)
		}
		row.Category = in.Category
	}

	if err := marshalInto(&row, in); err != nil {
		return nil, err
	}

	if err := database.DB.Save(&row).Error; err != nil {
		return nil, err
	}

	DefaultRegistry().Invalidate()
	return &row, nil
}

func DeleteDefinition(elementType string) error {
	var row models.CustomElementDefinition
	if err := database.DB.Where("type = ?", elementType).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDefinitionNotFound
		}
		return err
	}

	if row.IsSystem {
		return ErrSystemElementProtected
	}

	// Content may still reference this type; orphaned references are
	// tolerated at render time, so deletion stays legal.
	if err := database.DB.Delete(&row).Error; err != nil {
		return err
	}

	DefaultRegistry().Invalidate()
	return nil
}

func ReorderDefinitions(orderedTypes []string) error {
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		for position, elementType := range orderedTypes {
			result := tx.Model(&models.CustomElementDefinition{}).
				Where("type = ?", elementType).
				Update("position", position)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrDefinitionNotFound
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	DefaultRegistry().Invalidate()
	return nil
}

// SeedSystemDefinitions loads definitions from a JSON file and inserts
// the ones not present yet. Existing rows are left untouched so local
// edits to editable fields survive restarts.
func SeedSystemDefinitions(path string) error {
	loader := &FileLoader{Path: path}
	defs, err := loader.LoadDefinitions()
	if err != nil {
		return err
	}

	for _, def := range defs {
		def.IsSystem = true
		if _, err := CreateDefinition(def, 0); err != nil {
			if errors.Is(err, ErrDuplicateType) {
				continue
			}
			return err
		}
	}
	return nil
}

func GetDefinition(elementType string) (*models.CustomElementDefinition, error) {
	var row models.CustomElementDefinition
	if err := database.DB.Where("type = ?", elementType).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDefinitionNotFound
		}
		return nil, err
	}
	return &row, nil
}

func ListDefinitions(category string) ([]models.CustomElementDefinition, error) {
	query := database.DB.Order("position asc, type asc")
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var rows []models.CustomElementDefinition
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func marshalInto(row *models.CustomElementDefinition, def *Definition) error {
	fields := def.Fields
	if fields == nil {
		fields = []Field{}
	}
	rawFields, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	row.Fields = datatypes.JSON(rawFields)

	if def.DefaultData != nil {
		rawDefaults, err := json.Marshal(def.DefaultData)
		if err != nil {
			return err
		}
		row.DefaultData = datatypes.JSON(rawDefaults)
	}
	return nil
}
