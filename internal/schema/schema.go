package schema

import (
	"encoding/json"
)

// CollectionSchema is the fully resolved configuration for a collection.
// Always obtained through Resolve, never unmarshalled directly, so every
// accessor can assume defaults are in place.
type CollectionSchema struct {
	AllowedElements      []string                  `json:"allowed_elements"`
	ElementConfigs       map[string]map[string]any `json:"element_configs,omitempty"`
	ContentMetaFields    []MetaField               `json:"content_meta_fields,omitempty"`
	ElementMetaFields    map[string][]MetaField    `json:"element_meta_fields,omitempty"`
	CollectionMetaFields []MetaField               `json:"collection_meta_fields,omitempty"`
	AllowedEditions      []string                  `json:"allowed_editions"`
	MetaOnlyContent      bool                      `json:"meta_only_content"`
	ListView             ListViewSettings          `json:"list_view"`
}

type MetaField struct {
	Name     string   `json:"name"`
	Label    string   `json:"label,omitempty"`
	Type     string   `json:"type"` // string, number, boolean, date, select
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
	Default  any      `json:"default,omitempty"`
}

type ListViewSettings struct {
	Columns     []string `json:"columns"`
	PageSize    int      `json:"page_size"`
	DefaultSort string   `json:"default_sort"`
	SortOrder   string   `json:"sort_order"`
}

var defaultListView = ListViewSettings{
	Columns:     []string{"title", "slug", "status", "updated_at"},
	PageSize:    25,
	DefaultSort: "updated_at",
	SortOrder:   "desc",
}

var defaultAllowedElements = []string{
	"text", "media", "html", "svg", "xml", "katex", "wrapper", "reference",
}

var defaultElementConfigs = map[string]map[string]any{
	"text":      {"formats": []any{"plain", "markdown", "html"}},
	"media":     {"kinds": []any{"image", "video", "audio", "file"}, "max_size": float64(52428800)},
	"html":      {"sanitize": true},
	"svg":       {"sanitize": true},
	"xml":       {},
	"katex":     {"display_mode": false},
	"wrapper":   {"layouts": []any{"stack", "grid", "columns"}},
	"reference": {"collections": []any{}},
}

// rawSchema mirrors CollectionSchema with pointer fields so Resolve can
// tell a missing key from an explicit empty value.
type rawSchema struct {
	AllowedElements      *[]string                 `json:"allowed_elements"`
	ElementConfigs       map[string]map[string]any `json:"element_configs"`
	ContentMetaFields    *[]MetaField              `json:"content_meta_fields"`
	ElementMetaFields    map[string][]MetaField    `json:"element_meta_fields"`
	CollectionMetaFields *[]MetaField              `json:"collection_meta_fields"`
	AllowedEditions      *[]string                 `json:"allowed_editions"`
	MetaOnlyContent      *bool                     `json:"meta_only_content"`
	ListView             *ListViewSettings         `json:"list_view"`
}

// Default returns the schema a collection gets with no configuration at all.
func Default() *CollectionSchema {
	return Resolve(nil)
}

// Resolve merges a raw schema document onto the built-in defaults. It is
// deliberately tolerant: unknown keys are ignored, missing keys are
// defaulted, and malformed input falls back to the full default schema.
// Strict rejection of invalid content happens downstream in element
// validation, not here.
func Resolve(raw []byte) *CollectionSchema {
	resolved := &CollectionSchema{
		AllowedElements: append([]string{}, defaultAllowedElements...),
		ListView:        defaultListView,
	}

	if len(raw) == 0 {
		return resolved
	}

	var rs rawSchema
	if err := json.Unmarshal(raw, &rs); err != nil {
		return resolved
	}

	if rs.AllowedElements != nil {
		resolved.AllowedElements = *rs.AllowedElements
	}
	if rs.ElementConfigs != nil {
		resolved.ElementConfigs = rs.ElementConfigs
	}
	if rs.ContentMetaFields != nil {
		resolved.ContentMetaFields = *rs.ContentMetaFields
	}
	if rs.ElementMetaFields != nil {
		resolved.ElementMetaFields = rs.ElementMetaFields
	}
	if rs.CollectionMetaFields != nil {
		resolved.CollectionMetaFields = *rs.CollectionMetaFields
	}
	if rs.AllowedEditions != nil {
		// An explicit empty list means "no editions allowed", which is
		// distinct from the nil default meaning "all allowed".
		editions := make([]string, 0, len(*rs.AllowedEditions))
		editions = append(editions, *rs.AllowedEditions...)
		resolved.AllowedEditions = editions
	}
	if rs.MetaOnlyContent != nil {
		resolved.MetaOnlyContent = *rs.MetaOnlyContent
	}
	if rs.ListView != nil {
		lv := *rs.ListView
		if len(lv.Columns) == 0 {
			lv.Columns = defaultListView.Columns
		}
		if lv.PageSize <= 0 {
			lv.PageSize = defaultListView.PageSize
		}
		if lv.DefaultSort == "" {
			lv.DefaultSort = defaultListView.DefaultSort
		}
		if lv.SortOrder != "asc" && lv.SortOrder != "desc" {
			lv.SortOrder = defaultListView.SortOrder
		}
		resolved.ListView = lv
	}

	return resolved
}

func (s *CollectionSchema) IsElementAllowed(elementType string) bool {
	for _, t := range s.AllowedElements {
		if t == elementType {
			return true
		}
	}
	return false
}

// IsEditionAllowed is true for every slug when no allow-list was
// configured. A configured empty list allows nothing.
func (s *CollectionSchema) IsEditionAllowed(slug string) bool {
	if s.AllowedEditions == nil {
		return true
	}
	for _, e := range s.AllowedEditions {
		if e == slug {
			return true
		}
	}
	return false
}

// GetElementConfig returns the built-in default config for the type with
// any per-key overrides applied on top. Unknown types yield an empty map.
func (s *CollectionSchema) GetElementConfig(elementType string) map[string]any {
	config := make(map[string]any)
	for k, v := range defaultElementConfigs[elementType] {
		config[k] = v
	}
	for k, v := range s.ElementConfigs[elementType] {
		config[k] = v
	}
	return config
}

func (s *CollectionSchema) GetContentMetaFields() []MetaField {
	if s.ContentMetaFields == nil {
		return []MetaField{}
	}
	return s.ContentMetaFields
}

func (s *CollectionSchema) GetElementMetaFields(elementType string) []MetaField {
	if fields, ok := s.ElementMetaFields[elementType]; ok {
		return fields
	}
	return []MetaField{}
}

func (s *CollectionSchema) GetCollectionMetaFields() []MetaField {
	if s.CollectionMetaFields == nil {
		return []MetaField{}
	}
	return s.CollectionMetaFields
}
