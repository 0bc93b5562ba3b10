package element

import (
	"fmt"
	"strings"

	"github.com/strata-cms/strata/internal/schema"
)

// ValidationError collects every shape violation found in a tree, each
// with the path of the offending element so the UI can attach messages
// to fields.
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

type FieldError struct {
	Path    string `json:"path"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		messages[i] = fe.Path + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(messages, "; ")
}

func (e *ValidationError) add(path, field, message string) {
	e.Errors = append(e.Errors, FieldError{Path: path, Field: field, Message: message})
}

// ValidateTree validates every root element and its descendants against
// the resolved collection schema and the custom element registry.
func ValidateTree(tree []BlockElement, sch *schema.CollectionSchema, defs Lookup) error {
	verr := &ValidationError{}
	for i := range tree {
		validateElement(&tree[i], sch, defs, fmt.Sprintf("elements[%d]", i), verr)
	}
	if len(verr.Errors) > 0 {
		return verr
	}
	return nil
}

// ValidateElement validates a single element and its subtree.
func ValidateElement(el *BlockElement, sch *schema.CollectionSchema, defs Lookup) error {
	verr := &ValidationError{}
	validateElement(el, sch, defs, "element", verr)
	if len(verr.Errors) > 0 {
		return verr
	}
	return nil
}

func validateElement(el *BlockElement, sch *schema.CollectionSchema, defs Lookup, path string, verr *ValidationError) {
	allowed := false
	var required, optional []DataField

	switch {
	case IsBuiltinType(el.Type):
		allowed = sch.IsElementAllowed(el.Type)
		required = ElementType(el.Type).RequiredFields()
		optional = ElementType(el.Type).OptionalFields()
	case IsCustomType(el.Type) && defs != nil:
		if def, ok := defs.Definition(el.Type); ok {
			allowed = true
			for _, f := range def.Fields {
				df := DataField{Name: f.Name, Type: f.SemanticType()}
				if f.Required {
					required = append(required, df)
				} else {
					optional = append(optional, df)
				}
			}
		}
	}

	if !allowed {
		verr.add(path, "type", fmt.Sprintf("element type '%s' is not allowed", el.Type))
		return
	}

	for _, field := range required {
		value, exists := el.Data[field.Name]
		if !exists || value == nil {
			verr.add(path, field.Name, fmt.Sprintf("field '%s' is required", field.Name))
			continue
		}
		if got := semanticTypeOf(value); got != field.Type {
			verr.add(path, field.Name, fmt.Sprintf("field '%s' must be %s, got %s", field.Name, field.Type, got))
		}
	}

	for _, field := range optional {
		value, exists := el.Data[field.Name]
		if !exists || value == nil {
			continue
		}
		if got := semanticTypeOf(value); got != field.Type {
			verr.add(path, field.Name, fmt.Sprintf("field '%s' must be %s, got %s", field.Name, field.Type, got))
		}
	}

	for _, edition := range el.Editions {
		if !sch.IsEditionAllowed(edition) {
			verr.add(path, "editions", fmt.Sprintf("edition '%s' is not allowed", edition))
		}
	}

	if len(el.Children) > 0 && !canHaveChildren(el.Type, defs) {
		verr.add(path, "children", fmt.Sprintf("element type '%s' cannot have children", el.Type))
		return
	}

	for i := range el.Children {
		validateElement(&el.Children[i], sch, defs, fmt.Sprintf("%s.children[%d]", path, i), verr)
	}
}

// semanticTypeOf classifies a decoded JSON value. No coercion: "5" is a
// string, not a number.
func semanticTypeOf(value any) string {
	switch value.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, uint:
		return "number"
	case []any, []string:
		return "array"
	default:
		return "object"
	}
}
