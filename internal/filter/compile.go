package filter

import (
	"strings"
	"time"
)

// Predicate evaluates a compiled filter against one document, typically
// a decoded metadata map.
type Predicate func(doc map[string]any) bool

// Compile validates the group against the available fields and turns it
// into a predicate. Unknown fields, operators outside the field type's
// table and wrongly shaped values all fail compilation; nothing is
// silently dropped.
func Compile(group *Group, fields map[string]FieldType) (Predicate, error) {
	if group == nil {
		return func(map[string]any) bool { return true }, nil
	}
	return compileGroup(group, fields)
}

func compileGroup(group *Group, fields map[string]FieldType) (Predicate, error) {
	children := make([]Predicate, 0, len(group.Children))
	for i := range group.Children {
		node := group.Children[i]
		switch {
		case node.Group != nil:
			p, err := compileGroup(node.Group, fields)
			if err != nil {
				return nil, err
			}
			children = append(children, p)
		case node.Condition != nil:
			p, err := compileCondition(node.Condition, fields)
			if err != nil {
				return nil, err
			}
			children = append(children, p)
		}
	}

	if group.Operator == GroupOr {
		return func(doc map[string]any) bool {
			if len(children) == 0 {
				return true
			}
			for _, p := range children {
				if p(doc) {
					return true
				}
			}
			return false
		}, nil
	}

	return func(doc map[string]any) bool {
		for _, p := range children {
			if !p(doc) {
				return false
			}
		}
		return true
	}, nil
}

func compileCondition(cond *Condition, fields map[string]FieldType) (Predicate, error) {
	fieldType, ok := fields[cond.Field]
	if !ok {
		return nil, &InvalidConditionError{Field: cond.Field, Operator: cond.Operator, Reason: "unknown field"}
	}
	if !IsOperatorAllowed(fieldType, cond.Operator) {
		return nil, &InvalidConditionError{
			Field: cond.Field, Operator: cond.Operator,
			Reason: "operator not allowed for field type " + string(fieldType),
		}
	}

	if RequiresArrayValue(cond.Operator) && !isArrayValue(cond.Value) {
		return nil, &InvalidConditionError{Field: cond.Field, Operator: cond.Operator, Reason: "operator requires an array value"}
	}
	if RequiresValue(cond.Operator) && cond.Value == nil {
		return nil, &InvalidConditionError{Field: cond.Field, Operator: cond.Operator, Reason: "operator requires a value"}
	}

	field, op, want := cond.Field, cond.Operator, cond.Value

	switch op {
	case OpExists:
		return func(doc map[string]any) bool {
			v, ok := doc[field]
			return ok && v != nil
		}, nil
	case OpNotExists:
		return func(doc map[string]any) bool {
			v, ok := doc[field]
			return !ok || v == nil
		}, nil
	case OpIsEmpty:
		return func(doc map[string]any) bool { return isEmptyValue(doc[field]) }, nil
	case OpIsNotEmpty:
		return func(doc map[string]any) bool { return !isEmptyValue(doc[field]) }, nil
	case OpIn:
		members := arrayMembers(want)
		return func(doc map[string]any) bool { return containsValue(members, doc[field]) }, nil
	case OpNotIn:
		members := arrayMembers(want)
		return func(doc map[string]any) bool { return !containsValue(members, doc[field]) }, nil
	}

	switch fieldType {
	case FieldNumber:
		return compileNumber(field, op, want)
	case FieldDate:
		return compileDate(field, op, want)
	case FieldBoolean:
		return func(doc map[string]any) bool {
			got, gok := doc[field].(bool)
			w, wok := want.(bool)
			if !gok || !wok {
				return false
			}
			if op == OpNotEquals {
				return got != w
			}
			return got == w
		}, nil
	default: // text, select
		return compileText(field, op, want)
	}
}

func compileText(field string, op Operator, want any) (Predicate, error) {
	w, ok := want.(string)
	if !ok {
		return nil, &InvalidConditionError{Field: field, Operator: op, Reason: "operator requires a string value"}
	}

	return func(doc map[string]any) bool {
		got, ok := doc[field].(string)
		if !ok {
			return false
		}
		switch op {
		case OpEquals:
			return got == w
		case OpNotEquals:
			return got != w
		case OpContains:
			return strings.Contains(got, w)
		case OpNotContains:
			return !strings.Contains(got, w)
		case OpStartsWith:
			return strings.HasPrefix(got, w)
		case OpEndsWith:
			return strings.HasSuffix(got, w)
		}
		return false
	}, nil
}

func compileNumber(field string, op Operator, want any) (Predicate, error) {
	w, ok := toFloat(want)
	if !ok {
		return nil, &InvalidConditionError{Field: field, Operator: op, Reason: "operator requires a numeric value"}
	}

	return func(doc map[string]any) bool {
		got, ok := toFloat(doc[field])
		if !ok {
			return false
		}
		switch op {
		case OpEquals:
			return got == w
		case OpNotEquals:
			return got != w
		case OpGt:
			return got > w
		case OpGte:
			return got >= w
		case OpLt:
			return got < w
		case OpLte:
			return got <= w
		}
		return false
	}, nil
}

func compileDate(field string, op Operator, want any) (Predicate, error) {
	raw, ok := want.(string)
	if !ok {
		return nil, &InvalidConditionError{Field: field, Operator: op, Reason: "operator requires a date string"}
	}
	w, err := parseDate(raw)
	if err != nil {
		return nil, &InvalidConditionError{Field: field, Operator: op, Reason: "invalid date value"}
	}

	return func(doc map[string]any) bool {
		rawGot, ok := doc[field].(string)
		if !ok {
			return false
		}
		got, err := parseDate(rawGot)
		if err != nil {
			return false
		}
		switch op {
		case OpEquals:
			return got.Equal(w)
		case OpNotEquals:
			return !got.Equal(w)
		case OpBefore:
			return got.Before(w)
		case OpAfter:
			return got.After(w)
		}
		return false
	}, nil
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func isEmptyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	}
	return false
}

func arrayMembers(value any) []any {
	switch v := value.(type) {
	case []any:
		return v
	case []string:
		members := make([]any, len(v))
		for i, s := range v {
			members[i] = s
		}
		return members
	}
	return nil
}

func containsValue(members []any, got any) bool {
	for _, m := range members {
		if equalValues(m, got) {
			return true
		}
	}
	return false
}

func equalValues(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
	}
	return a == b
}
