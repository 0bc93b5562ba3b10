package element

import (
	"strings"

	"github.com/strata-cms/strata/internal/customelement"
)

// ElementType is one of the built-in block element types. User-defined
// types live outside this enumeration and carry the custom_ prefix.
type ElementType string

const (
	TypeText      ElementType = "text"
	TypeMedia     ElementType = "media"
	TypeHTML      ElementType = "html"
	TypeSVG       ElementType = "svg"
	TypeXML       ElementType = "xml"
	TypeKaTeX     ElementType = "katex"
	TypeWrapper   ElementType = "wrapper"
	TypeReference ElementType = "reference"
)

var BuiltinTypes = []ElementType{
	TypeText, TypeMedia, TypeHTML, TypeSVG, TypeXML, TypeKaTeX, TypeWrapper, TypeReference,
}

// BlockElement is one node of a content tree. The shape of Data depends
// on Type; Children is only legal on container-capable types. Sibling
// Order values define traversal order and are resequenced on save.
type BlockElement struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Order    int            `json:"order"`
	Data     map[string]any `json:"data"`
	Editions []string       `json:"editions,omitempty"`
	Children []BlockElement `json:"children,omitempty"`
}

// DataField declares one data payload field and its semantic type:
// string, number, boolean or array. Type checks are coercion-free.
type DataField struct {
	Name string
	Type string
}

var requiredFields = map[ElementType][]DataField{
	TypeText:      {{Name: "content", Type: "string"}},
	TypeMedia:     {{Name: "url", Type: "string"}},
	TypeHTML:      {{Name: "content", Type: "string"}},
	TypeSVG:       {{Name: "content", Type: "string"}},
	TypeXML:       {{Name: "content", Type: "string"}},
	TypeKaTeX:     {{Name: "expression", Type: "string"}},
	TypeWrapper:   {},
	TypeReference: {{Name: "collection", Type: "string"}, {Name: "slug", Type: "string"}},
}

var optionalFields = map[ElementType][]DataField{
	TypeText:      {{Name: "format", Type: "string"}},
	TypeMedia:     {{Name: "kind", Type: "string"}, {Name: "alt", Type: "string"}, {Name: "caption", Type: "string"}},
	TypeHTML:      {},
	TypeSVG:       {},
	TypeXML:       {},
	TypeKaTeX:     {{Name: "display_mode", Type: "boolean"}},
	TypeWrapper:   {{Name: "layout", Type: "string"}, {Name: "css_class", Type: "string"}},
	TypeReference: {{Name: "display", Type: "string"}},
}

func (t ElementType) RequiredFields() []DataField {
	return requiredFields[t]
}

func (t ElementType) OptionalFields() []DataField {
	return optionalFields[t]
}

// CanHaveChildren reports whether the built-in type is a container.
// Wrapper is the only built-in container.
func (t ElementType) CanHaveChildren() bool {
	return t == TypeWrapper
}

func IsBuiltinType(elementType string) bool {
	for _, t := range BuiltinTypes {
		if string(t) == elementType {
			return true
		}
	}
	return false
}

func IsCustomType(elementType string) bool {
	return strings.HasPrefix(elementType, "custom_")
}

// Lookup resolves custom element definitions during validation and tree
// manipulation. *customelement.Registry satisfies it.
type Lookup interface {
	Definition(elementType string) (*customelement.Definition, bool)
}

// canHaveChildren resolves the container capability for any type string,
// built-in or custom. Unknown types cannot hold children.
func canHaveChildren(elementType string, defs Lookup) bool {
	if IsBuiltinType(elementType) {
		return ElementType(elementType).CanHaveChildren()
	}
	if defs != nil {
		if def, ok := defs.Definition(elementType); ok {
			return def.CanHaveChildren
		}
	}
	return false
}
