package customelement

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/strata-cms/strata/internal/models"
)

// TypePattern is the shape every custom element type string must have:
// the custom_ prefix, a letter, then letters/digits/underscores.
var TypePattern = regexp.MustCompile(`^custom_[a-z][a-z0-9_]*$`)

var Categories = []string{"content", "layout", "media", "interactive", "data", "embed"}

type Field struct {
	Name       string         `json:"name"`
	Label      string         `json:"label,omitempty"`
	Input      string         `json:"input"` // string, text, number, boolean, select, multiselect, media, url
	Required   bool           `json:"required"`
	Default    any            `json:"default,omitempty"`
	Options    []string       `json:"options,omitempty"`
	Validation map[string]any `json:"validation,omitempty"`
}

type Definition struct {
	Type            string         `json:"type"`
	Label           string         `json:"label"`
	Description     string         `json:"description,omitempty"`
	Icon            string         `json:"icon,omitempty"`
	Category        string         `json:"category"`
	CanHaveChildren bool           `json:"can_have_children"`
	Fields          []Field        `json:"fields"`
	DefaultData     map[string]any `json:"default_data,omitempty"`
	PreviewTemplate string         `json:"preview_template,omitempty"`
	CSSClass        string         `json:"css_class,omitempty"`
	IsSystem        bool           `json:"is_system"`
	Position        int            `json:"position"`
}

// SemanticType maps a field input kind to the value type element
// validation enforces: string, number, boolean or array.
func (f Field) SemanticType() string {
	switch f.Input {
	case "number":
		return "number"
	case "boolean":
		return "boolean"
	case "multiselect", "tags":
		return "array"
	default:
		return "string"
	}
}

func IsValidType(t string) bool {
	return TypePattern.MatchString(t)
}

func IsValidCategory(c string) bool {
	for _, cat := range Categories {
		if cat == c {
			return true
		}
	}
	return false
}

// GenerateType derives a type slug from a human label: lowercased,
// stripped to letters/digits/underscore, prefixed with custom_. Leading
// characters that cannot start a type are stripped, not renumbered.
func GenerateType(label string) string {
	lower := strings.ToLower(label)

	var b strings.Builder
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('_')
		}
	}

	slug := b.String()
	for strings.Contains(slug, "__") {
		slug = strings.ReplaceAll(slug, "__", "_")
	}
	slug = strings.Trim(slug, "_")

	// The first character after the prefix must be a letter.
	for len(slug) > 0 && (slug[0] < 'a' || slug[0] > 'z') {
		slug = strings.TrimLeft(slug[1:], "_")
	}

	if slug == "" {
		return "custom_element"
	}
	return "custom_" + slug
}

// ComputeDefaultData seeds element data for a new instance of the
// definition. Explicit default_data entries take precedence; field-level
// defaults only fill names absent from that map.
func ComputeDefaultData(def *Definition) map[string]any {
	data := make(map[string]any)
	for k, v := range def.DefaultData {
		data[k] = v
	}
	for _, field := range def.Fields {
		if _, ok := data[field.Name]; ok {
			continue
		}
		if field.Default != nil {
			data[field.Name] = field.Default
		}
	}
	return data
}

func FromModel(m *models.CustomElementDefinition) (*Definition, error) {
	def := &Definition{
		Type:            m.Type,
		Label:           m.Label,
		Description:     m.Description,
		Icon:            m.Icon,
		Category:        m.Category,
		CanHaveChildren: m.CanHaveChildren,
		PreviewTemplate: m.PreviewTemplate,
		CSSClass:        m.CSSClass,
		IsSystem:        m.IsSystem,
		Position:        m.Position,
	}

	if len(m.Fields) > 0 {
		if err := json.Unmarshal(m.Fields, &def.Fields); err != nil {
			return nil, err
		}
	}
	if len(m.DefaultData) > 0 {
		if err := json.Unmarshal(m.DefaultData, &def.DefaultData); err != nil {
			return nil, err
		}
	}

	return def, nil
}
