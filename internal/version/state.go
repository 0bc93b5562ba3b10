package version

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/strata-cms/strata/internal/database"
	"github.com/strata-cms/strata/internal/element"
	"github.com/strata-cms/strata/internal/models"
	"github.com/strata-cms/strata/internal/schema"
	"gorm.io/gorm"
)

var ErrInvalidTransition = errors.New("invalid status transition")

var transitions = map[models.ContentStatus][]models.ContentStatus{
	models.StatusDraft:     {models.StatusPublished, models.StatusArchived},
	models.StatusPublished: {models.StatusDraft, models.StatusArchived},
	models.StatusArchived:  {},
}

func CanTransition(from, to models.ContentStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Publish validates the full element tree against the current collection
// schema, then saves a new version with status published and points
// published_version_id at it.
func Publish(contentID uint, actor uint, defs element.Lookup) (*models.Content, error) {
	content, tree, sch, err := loadForTransition(contentID)
	if err != nil {
		return nil, err
	}

	if !CanTransition(content.Status, models.StatusPublished) {
		return nil, fmt.Errorf("%w: %s -> published", ErrInvalidTransition, content.Status)
	}

	if err := element.ValidateTree(tree, sch, defs); err != nil {
		return nil, err
	}

	state, err := stateFromContent(content, tree, models.StatusPublished)
	if err != nil {
		return nil, err
	}

	// The version insert and the published pointer move commit together
	// so a failure between them cannot leave a published version without
	// the content row pointing at it.
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		created, err := createVersion(tx, contentID, state, "Published", actor, nil)
		if err != nil {
			return err
		}
		updates := map[string]any{
			"published_version_id": created.ID,
			"published_at":         time.Now(),
		}
		return tx.Model(&models.Content{}).Where("id = ?", contentID).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	return reload(contentID)
}

// Unpublish moves published content back to draft. The published
// snapshot reference is kept so the last published version stays known.
func Unpublish(contentID uint, actor uint) (*models.Content, error) {
	content, tree, _, err := loadForTransition(contentID)
	if err != nil {
		return nil, err
	}

	if content.Status != models.StatusPublished {
		return nil, fmt.Errorf("%w: %s -> draft", ErrInvalidTransition, content.Status)
	}

	state, err := stateFromContent(content, tree, models.StatusDraft)
	if err != nil {
		return nil, err
	}
	if _, err := CreateVersion(contentID, state, "Unpublished", actor, nil); err != nil {
		return nil, err
	}

	return reload(contentID)
}

// Archive is terminal for editing but not for deletion: archived content
// can still be explicitly deleted.
func Archive(contentID uint, actor uint) (*models.Content, error) {
	content, tree, _, err := loadForTransition(contentID)
	if err != nil {
		return nil, err
	}

	if !CanTransition(content.Status, models.StatusArchived) {
		return nil, fmt.Errorf("%w: %s -> archived", ErrInvalidTransition, content.Status)
	}

	state, err := stateFromContent(content, tree, models.StatusArchived)
	if err != nil {
		return nil, err
	}
	if _, err := CreateVersion(contentID, state, "Archived", actor, nil); err != nil {
		return nil, err
	}

	return reload(contentID)
}

func loadForTransition(contentID uint) (*models.Content, []element.BlockElement, *schema.CollectionSchema, error) {
	var content models.Content
	if err := database.DB.Preload("Collection").First(&content, contentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, ErrContentNotFound
		}
		return nil, nil, nil, err
	}

	var tree []element.BlockElement
	if len(content.Elements) > 0 {
		if err := json.Unmarshal(content.Elements, &tree); err != nil {
			return nil, nil, nil, err
		}
	}

	var sch *schema.CollectionSchema
	if content.Collection != nil {
		sch = schema.Resolve(content.Collection.Schema)
	} else {
		sch = schema.Default()
	}

	return &content, tree, sch, nil
}

func stateFromContent(content *models.Content, tree []element.BlockElement, status models.ContentStatus) (SaveState, error) {
	state := SaveState{
		Title:    content.Title,
		Slug:     content.Slug,
		Status:   status,
		Elements: tree,
	}
	if len(content.Metadata) > 0 {
		if err := json.Unmarshal(content.Metadata, &state.Metadata); err != nil {
			return SaveState{}, fmt.Errorf("content %d has corrupt metadata: %w", content.ID, err)
		}
	}
	if len(content.Editions) > 0 {
		if err := json.Unmarshal(content.Editions, &state.Editions); err != nil {
			return SaveState{}, fmt.Errorf("content %d has corrupt editions: %w", content.ID, err)
		}
	}
	return state, nil
}

func reload(contentID uint) (*models.Content, error) {
	var content models.Content
	if err := database.DB.First(&content, contentID).Error; err != nil {
		return nil, err
	}
	return &content, nil
}
