package collection

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/strata-cms/strata/internal/database"
	"github.com/strata-cms/strata/internal/models"
	"github.com/strata-cms/strata/internal/schema"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrSlugImmutable guards collection identity: once contents
	// reference a collection its slug never changes.
	ErrSlugImmutable = errors.New("collection slug cannot change while contents reference it")
	// ErrHasContents refuses implicit cascade: a collection holding
	// contents is only deleted when the caller explicitly confirms.
	ErrHasContents = errors.New("collection still has contents")
	// ErrInvalidSlug marks a slug that fails the lowercase kebab-case rule.
	ErrInvalidSlug = errors.New("invalid slug")
)

var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

func CreateCollection(name, slug string, rawSchema []byte, actor uint) (*models.Collection, error) {
	if !slugRegex.MatchString(slug) {
		return nil, fmt.Errorf("%w '%s': lowercase letters, numbers and hyphens only", ErrInvalidSlug, slug)
	}

	row := models.Collection{
		Name:      name,
		Slug:      slug,
		Schema:    datatypes.JSON(rawSchema),
		CreatedBy: actor,
	}
	if err := database.DB.Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func UpdateCollection(collectionID uint, name, slug string, rawSchema []byte) (*models.Collection, error) {
	var row models.Collection
	if err := database.DB.First(&row, collectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCollectionNotFound
		}
		return nil, err
	}

	if slug != "" && slug != row.Slug {
		if !slugRegex.MatchString(slug) {
			return nil, fmt.Errorf("%w '%s': lowercase letters, numbers and hyphens only", ErrInvalidSlug, slug)
		}
		count, err := contentCount(collectionID)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrSlugImmutable
		}
		row.Slug = slug
	}

	if name != "" {
		row.Name = name
	}
	if rawSchema != nil {
		row.Schema = datatypes.JSON(rawSchema)
	}

	if err := database.DB.Save(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func DeleteCollection(collectionID uint, confirmed bool) error {
	var row models.Collection
	if err := database.DB.First(&row, collectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCollectionNotFound
		}
		return err
	}

	count, err := contentCount(collectionID)
	if err != nil {
		return err
	}
	if count > 0 && !confirmed {
		return fmt.Errorf("%w: %d contents, pass confirm to delete them too", ErrHasContents, count)
	}

	return database.DB.Transaction(func(tx *gorm.DB) error {
		if count > 0 {
			if err := tx.Where("collection_id = ?", collectionID).Delete(&models.Content{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&row).Error
	})
}

func GetCollection(collectionID uint) (*models.Collection, error) {
	var row models.Collection
	if err := database.DB.First(&row, collectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCollectionNotFound
		}
		return nil, err
	}
	return &row, nil
}

func GetCollectionBySlug(slug string) (*models.Collection, error) {
	var row models.Collection
	if err := database.DB.Where("slug = ?", slug).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCollectionNotFound
		}
		return nil, err
	}
	return &row, nil
}

func ListCollections() ([]models.Collection, error) {
	var rows []models.Collection
	err := database.DB.Order("name asc").Find(&rows).Error
	return rows, err
}

// ResolvedSchema returns the collection's schema with all defaults
// applied, the form every validator consumes.
func ResolvedSchema(collectionID uint) (*schema.CollectionSchema, error) {
	row, err := GetCollection(collectionID)
	if err != nil {
		return nil, err
	}
	return schema.Resolve(row.Schema), nil
}

func contentCount(collectionID uint) (int64, error) {
	var count int64
	err := database.DB.Model(&models.Content{}).
		Where("collection_id = ?", collectionID).
		Count(&count).Error
	return count, err
}
