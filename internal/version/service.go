package version

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/strata-cms/strata/internal/database"
	"github.com/strata-cms/strata/internal/element"
	"github.com/strata-cms/strata/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrVersionNotFound = errors.New("version not found")
	ErrContentNotFound = errors.New("content not found")
	// ErrConflict is returned when a caller supplies the version it
	// last saw and another write landed in between.
	ErrConflict = errors.New("content was modified by another write")
)

// SaveState is the full new state of a content at save time: the element
// tree plus the scalar fields that get snapshotted alongside it.
type SaveState struct {
	Title    string                 `json:"title"`
	Slug     string                 `json:"slug"`
	Status   models.ContentStatus   `json:"status"`
	Elements []element.BlockElement `json:"elements"`
	Metadata map[string]any         `json:"metadata,omitempty"`
	Editions []string               `json:"editions,omitempty"`
}

// Snapshot is the scalar part persisted on every version row.
type Snapshot struct {
	Title    string               `json:"title"`
	Slug     string               `json:"slug"`
	Status   models.ContentStatus `json:"status"`
	Metadata map[string]any       `json:"metadata,omitempty"`
	Editions []string             `json:"editions,omitempty"`
}

// CreateVersion snapshots the new state as the next version and moves
// the content's current_version pointer, all in one transaction, so the
// pointer and the version rows can never disagree. When expectedVersion
// is non-nil a mismatch against the stored pointer fails with
// ErrConflict before anything is written.
func CreateVersion(contentID uint, state SaveState, changeNote string, actor uint, expectedVersion *int) (*models.ContentVersion, error) {
	var created *models.ContentVersion
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		created, err = createVersion(tx, contentID, state, changeNote, actor, expectedVersion)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// createVersion is the transactional core of CreateVersion. It runs on
// the caller's transaction so status transitions can bundle further
// writes with the version insert.
func createVersion(tx *gorm.DB, contentID uint, state SaveState, changeNote string, actor uint, expectedVersion *int) (*models.ContentVersion, error) {
	// Saves always persist a normalized tree: every node carries a
	// stable id and sibling order values are contiguous.
	state.Elements = element.NormalizeOrder(element.AssignStableIDs(state.Elements))

	var content models.Content
	if err := tx.First(&content, contentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContentNotFound
		}
		return nil, err
	}

	if expectedVersion != nil && *expectedVersion != content.CurrentVersion {
		return nil, fmt.Errorf("%w: expected version %d, current is %d",
			ErrConflict, *expectedVersion, content.CurrentVersion)
	}

	var maxVersion int
	if err := tx.Model(&models.ContentVersion{}).
		Where("content_id = ?", contentID).
		Select("COALESCE(MAX(version_number), 0)").
		Scan(&maxVersion).Error; err != nil {
		return nil, err
	}
	next := maxVersion + 1

	elementsJSON, err := json.Marshal(state.Elements)
	if err != nil {
		return nil, err
	}
	snapshotJSON, err := json.Marshal(Snapshot{
		Title:    state.Title,
		Slug:     state.Slug,
		Status:   state.Status,
		Metadata: state.Metadata,
		Editions: state.Editions,
	})
	if err != nil {
		return nil, err
	}

	created := models.ContentVersion{
		ContentID:     contentID,
		VersionNumber: next,
		Elements:      datatypes.JSON(elementsJSON),
		Snapshot:      datatypes.JSON(snapshotJSON),
		ChangeNote:    changeNote,
		CreatedBy:     actor,
	}
	if err := tx.Create(&created).Error; err != nil {
		return nil, err
	}

	content.Title = state.Title
	content.Slug = state.Slug
	content.Status = state.Status
	content.Elements = datatypes.JSON(elementsJSON)
	content.CurrentVersion = next
	content.UpdatedBy = actor

	if state.Metadata != nil {
		metadataJSON, err := json.Marshal(state.Metadata)
		if err != nil {
			return nil, err
		}
		content.Metadata = datatypes.JSON(metadataJSON)
	}
	if state.Editions != nil {
		editionsJSON, err := json.Marshal(state.Editions)
		if err != nil {
			return nil, err
		}
		content.Editions = datatypes.JSON(editionsJSON)
	}

	if err := tx.Save(&content).Error; err != nil {
		return nil, err
	}
	return &created, nil
}

// RestoreVersion creates a new version whose tree and scalars equal the
// target version's. Append-only: nothing is rewound or deleted and the
// result always carries a higher version number.
func RestoreVersion(contentID uint, versionNumber int, actor uint) (*models.ContentVersion, error) {
	target, err := GetVersion(contentID, versionNumber)
	if err != nil {
		return nil, err
	}

	state, err := stateFromVersion(target)
	if err != nil {
		return nil, err
	}

	note := fmt.Sprintf("Restored from version %d", versionNumber)
	return CreateVersion(contentID, *state, note, actor, nil)
}

func GetVersion(contentID uint, versionNumber int) (*models.ContentVersion, error) {
	var row models.ContentVersion
	err := database.DB.
		Where("content_id = ? AND version_number = ?", contentID, versionNumber).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVersionNotFound
		}
		return nil, err
	}
	return &row, nil
}

func ListVersions(contentID uint) ([]models.ContentVersion, error) {
	var rows []models.ContentVersion
	err := database.DB.
		Where("content_id = ?", contentID).
		Preload("Creator").
		Order("version_number DESC").
		Find(&rows).Error
	return rows, err
}

func stateFromVersion(v *models.ContentVersion) (*SaveState, error) {
	var tree []element.BlockElement
	if len(v.Elements) > 0 {
		if err := json.Unmarshal(v.Elements, &tree); err != nil {
			return nil, err
		}
	}

	var snap Snapshot
	if len(v.Snapshot) > 0 {
		if err := json.Unmarshal(v.Snapshot, &snap); err != nil {
			return nil, err
		}
	}

	return &SaveState{
		Title:    snap.Title,
		Slug:     snap.Slug,
		Status:   snap.Status,
		Elements: tree,
		Metadata: snap.Metadata,
		Editions: snap.Editions,
	}, nil
}
