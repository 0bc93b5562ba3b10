package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/microcosm-cc/bluemonday"
	"github.com/strata-cms/strata/internal/database"
	"github.com/strata-cms/strata/internal/element"
	"github.com/strata-cms/strata/internal/filter"
	"github.com/strata-cms/strata/internal/models"
	"github.com/strata-cms/strata/internal/schema"
	"github.com/strata-cms/strata/internal/version"
	"gorm.io/gorm"
)

var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

var htmlPolicy = bluemonday.UGCPolicy()

// SaveRequest carries everything a content save needs. ExpectedVersion
// is the optimistic-concurrency guard: when set, the save fails with
// Conflict if another write advanced the content since the caller read it.
type SaveRequest struct {
	Title           string                 `json:"title"`
	Slug            string                 `json:"slug"`
	Elements        []element.BlockElement `json:"elements"`
	Metadata        map[string]any         `json:"metadata,omitempty"`
	Editions        []string               `json:"editions,omitempty"`
	ChangeNote      string                 `json:"change_note,omitempty"`
	ExpectedVersion *int                   `json:"expected_version,omitempty"`
}

func CreateContent(collectionID uint, req SaveRequest, actor uint, defs element.Lookup) (*models.Content, error) {
	var collection models.Collection
	if err := database.DB.First(&collection, collectionID).Error; err != nil {
		return nil, err
	}

	sch := schema.Resolve(collection.Schema)
	if err := validateSave(sch, &req, defs); err != nil {
		return nil, err
	}

	row := models.Content{
		CollectionID: collectionID,
		Title:        req.Title,
		Slug:         req.Slug,
		Status:       models.StatusDraft,
		CreatedBy:    actor,
	}
	if err := database.DB.Create(&row).Error; err != nil {
		return nil, err
	}

	if _, err := version.CreateVersion(row.ID, saveState(&req, models.StatusDraft), req.ChangeNote, actor, nil); err != nil {
		// The content row exists but carries no version; remove it so a
		// failed create leaves nothing behind.
		database.DB.Unscoped().Delete(&row)
		return nil, err
	}

	return GetContent(row.ID)
}

func UpdateContent(contentID uint, req SaveRequest, actor uint, defs element.Lookup) (*models.Content, error) {
	var row models.Content
	if err := database.DB.Preload("Collection").First(&row, contentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, version.ErrContentNotFound
		}
		return nil, err
	}

	if row.Status == models.StatusArchived {
		return nil, fmt.Errorf("%w: archived content cannot be edited", version.ErrInvalidTransition)
	}

	sch := schema.Default()
	if row.Collection != nil {
		sch = schema.Resolve(row.Collection.Schema)
	}
	if err := validateSave(sch, &req, defs); err != nil {
		return nil, err
	}

	// Editing published content drops it back to draft until the next
	// explicit publish.
	status := row.Status
	if status == models.StatusPublished {
		status = models.StatusDraft
	}

	if _, err := version.CreateVersion(contentID, saveState(&req, status), req.ChangeNote, actor, req.ExpectedVersion); err != nil {
		return nil, err
	}

	return GetContent(contentID)
}

// MoveElement reparents one element inside the content tree and saves
// the result as a new version.
func MoveElement(contentID uint, nodeID, newParentID string, newOrder int, actor uint, defs element.Lookup) (*models.Content, error) {
	var row models.Content
	if err := database.DB.First(&row, contentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, version.ErrContentNotFound
		}
		return nil, err
	}

	var tree []element.BlockElement
	if len(row.Elements) > 0 {
		if err := json.Unmarshal(row.Elements, &tree); err != nil {
			return nil, err
		}
	}

	moved, err := element.Move(tree, nodeID, newParentID, newOrder, defs)
	if err != nil {
		return nil, err
	}

	state := version.SaveState{
		Title:    row.Title,
		Slug:     row.Slug,
		Status:   row.Status,
		Elements: moved,
	}
	if len(row.Metadata) > 0 {
		_ = json.Unmarshal(row.Metadata, &state.Metadata)
	}
	if len(row.Editions) > 0 {
		_ = json.Unmarshal(row.Editions, &state.Editions)
	}

	note := fmt.Sprintf("Moved element %s", nodeID)
	if _, err := version.CreateVersion(contentID, state, note, actor, nil); err != nil {
		return nil, err
	}

	return GetContent(contentID)
}

func GetContent(contentID uint) (*models.Content, error) {
	var row models.Content
	err := database.DB.Preload("Creator").Preload("Updater").First(&row, contentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, version.ErrContentNotFound
		}
		return nil, err
	}
	return &row, nil
}

func DeleteContent(contentID uint) error {
	result := database.DB.Delete(&models.Content{}, contentID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return version.ErrContentNotFound
	}
	return nil
}

type ListParams struct {
	Filter *filter.Group     `json:"filter,omitempty"`
	Sort   []filter.SortRule `json:"sort,omitempty"`
	Status string            `json:"status,omitempty"`
	Page   int               `json:"page"`
	Limit  int               `json:"limit"`
}

type ListResult struct {
	Contents []models.Content `json:"contents"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
}

// ListContents pages through a collection's contents, filtering on the
// metadata fields the collection schema declares.
func ListContents(collectionID uint, params ListParams) (*ListResult, error) {
	var collection models.Collection
	if err := database.DB.First(&collection, collectionID).Error; err != nil {
		return nil, err
	}
	sch := schema.Resolve(collection.Schema)

	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Limit <= 0 {
		params.Limit = sch.ListView.PageSize
	}
	if params.Limit > 100 {
		params.Limit = 100
	}

	query := database.DB.Model(&models.Content{}).Where("collection_id = ?", collectionID)

	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}

	if params.Filter != nil {
		fields := metadataFieldTypes(sch)
		dialect := database.DB.Dialector.Name()
		filtered, err := filter.ApplyToQuery(query, params.Filter, fields, dialect)
		if err != nil {
			return nil, err
		}
		query = filtered
	}

	if err := filter.ValidateSortRules(params.Sort); err != nil {
		return nil, err
	}
	query = applySort(query, params.Sort, sch)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	offset := (params.Page - 1) * params.Limit
	var rows []models.Content
	if err := query.Offset(offset).Limit(params.Limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	return &ListResult{Contents: rows, Total: total, Page: params.Page, Limit: params.Limit}, nil
}

func applySort(query *gorm.DB, rules []filter.SortRule, sch *schema.CollectionSchema) *gorm.DB {
	if len(rules) == 0 {
		return query.Order(sch.ListView.DefaultSort + " " + sch.ListView.SortOrder)
	}

	dialect := database.DB.Dialector.Name()
	metaFields := metadataFieldTypes(sch)

	for _, rule := range rules {
		switch rule.Field {
		case "title", "slug", "status", "created_at", "updated_at", "published_at", "current_version":
			query = query.Order(rule.Field + " " + rule.Direction)
		default:
			if _, ok := metaFields[rule.Field]; !ok {
				continue
			}
			if dialect == "postgres" {
				query = query.Order(fmt.Sprintf("metadata->>'%s' %s", rule.Field, rule.Direction))
			} else {
				query = query.Order(fmt.Sprintf("json_extract(metadata, '$.%s') %s", rule.Field, rule.Direction))
			}
		}
	}
	return query
}

// metadataFieldTypes exposes the schema's content metadata fields to the
// filter engine.
func metadataFieldTypes(sch *schema.CollectionSchema) map[string]filter.FieldType {
	fields := make(map[string]filter.FieldType)
	for _, mf := range sch.GetContentMetaFields() {
		switch mf.Type {
		case "number":
			fields[mf.Name] = filter.FieldNumber
		case "boolean":
			fields[mf.Name] = filter.FieldBoolean
		case "date":
			fields[mf.Name] = filter.FieldDate
		case "select":
			fields[mf.Name] = filter.FieldSelect
		default:
			fields[mf.Name] = filter.FieldText
		}
	}
	return fields
}

func validateSave(sch *schema.CollectionSchema, req *SaveRequest, defs element.Lookup) error {
	verr := &element.ValidationError{}

	if req.Title == "" {
		verr.Errors = append(verr.Errors, element.FieldError{Path: "content", Field: "title", Message: "title is required"})
	}
	if !slugRegex.MatchString(req.Slug) {
		verr.Errors = append(verr.Errors, element.FieldError{
			Path: "content", Field: "slug",
			Message: "slug must be lowercase letters, numbers and hyphens",
		})
	}
	for _, edition := range req.Editions {
		if !sch.IsEditionAllowed(edition) {
			verr.Errors = append(verr.Errors, element.FieldError{
				Path: "content", Field: "editions",
				Message: fmt.Sprintf("edition '%s' is not allowed", edition),
			})
		}
	}

	if sch.MetaOnlyContent && len(req.Elements) > 0 {
		verr.Errors = append(verr.Errors, element.FieldError{
			Path: "content", Field: "elements",
			Message: "this collection holds metadata-only contents and accepts no elements",
		})
	}

	validateMetadata(sch, req.Metadata, verr)

	if len(verr.Errors) > 0 {
		return verr
	}

	req.Elements = element.AssignStableIDs(req.Elements)
	if err := element.ValidateTree(req.Elements, sch, defs); err != nil {
		return err
	}

	sanitizeTree(req.Elements)
	return nil
}

func validateMetadata(sch *schema.CollectionSchema, metadata map[string]any, verr *element.ValidationError) {
	for _, field := range sch.GetContentMetaFields() {
		value, exists := metadata[field.Name]
		if !exists || value == nil || value == "" {
			if field.Required {
				verr.Errors = append(verr.Errors, element.FieldError{
					Path: "metadata", Field: field.Name,
					Message: fmt.Sprintf("field '%s' is required", field.Name),
				})
			}
			continue
		}

		ok := true
		switch field.Type {
		case "number":
			switch value.(type) {
			case float64, float32, int, int64:
			default:
				ok = false
			}
		case "boolean":
			_, ok = value.(bool)
		case "select":
			str, isString := value.(string)
			ok = isString
			if isString && len(field.Options) > 0 {
				ok = false
				for _, opt := range field.Options {
					if opt == str {
						ok = true
						break
					}
				}
			}
		default:
			_, ok = value.(string)
		}

		if !ok {
			verr.Errors = append(verr.Errors, element.FieldError{
				Path: "metadata", Field: field.Name,
				Message: fmt.Sprintf("field '%s' must be %s", field.Name, field.Type),
			})
		}
	}
}

// sanitizeTree runs HTML-bearing element payloads through the shared
// bluemonday policy before persisting. Validation never mutates; this
// runs after it.
func sanitizeTree(tree []element.BlockElement) {
	for i := range tree {
		el := &tree[i]
		switch el.Type {
		case string(element.TypeHTML), string(element.TypeSVG):
			if content, ok := el.Data["content"].(string); ok {
				el.Data["content"] = htmlPolicy.Sanitize(content)
			}
		case string(element.TypeText):
			if format, _ := el.Data["format"].(string); format == "html" {
				if content, ok := el.Data["content"].(string); ok {
					el.Data["content"] = htmlPolicy.Sanitize(content)
				}
			}
		}
		sanitizeTree(el.Children)
	}
}

func saveState(req *SaveRequest, status models.ContentStatus) version.SaveState {
	return version.SaveState{
		Title:    req.Title,
		Slug:     req.Slug,
		Status:   status,
		Elements: req.Elements,
		Metadata: req.Metadata,
		Editions: req.Editions,
	}
}
