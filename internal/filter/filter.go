package filter

import (
	"encoding/json"
	"errors"
	"fmt"
)

type FieldType string

const (
	FieldText    FieldType = "text"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldDate    FieldType = "date"
	FieldSelect  FieldType = "select"
)

type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
	OpStartsWith  Operator = "starts_with"
	OpEndsWith    Operator = "ends_with"
	OpGt          Operator = "gt"
	OpGte         Operator = "gte"
	OpLt          Operator = "lt"
	OpLte         Operator = "lte"
	OpBefore      Operator = "before"
	OpAfter       Operator = "after"
	OpIn          Operator = "in"
	OpNotIn       Operator = "not_in"
	OpExists      Operator = "exists"
	OpNotExists   Operator = "not_exists"
	OpIsEmpty     Operator = "is_empty"
	OpIsNotEmpty  Operator = "is_not_empty"
)

// operatorsByFieldType is the fixed table of which operators each field
// type supports. Order matters: the first entry is the operator a
// condition falls back to when its field changes type.
var operatorsByFieldType = map[FieldType][]Operator{
	FieldText: {
		OpEquals, OpNotEquals, OpContains, OpNotContains, OpStartsWith,
		OpEndsWith, OpIn, OpNotIn, OpExists, OpNotExists, OpIsEmpty, OpIsNotEmpty,
	},
	FieldNumber: {
		OpEquals, OpNotEquals, OpGt, OpGte, OpLt, OpLte, OpIn, OpNotIn,
		OpExists, OpNotExists,
	},
	FieldBoolean: {
		OpEquals, OpNotEquals, OpExists, OpNotExists,
	},
	FieldDate: {
		OpEquals, OpNotEquals, OpBefore, OpAfter, OpExists, OpNotExists,
	},
	FieldSelect: {
		OpEquals, OpNotEquals, OpIn, OpNotIn, OpExists, OpNotExists,
		OpIsEmpty, OpIsNotEmpty,
	},
}

func OperatorsFor(fieldType FieldType) []Operator {
	return operatorsByFieldType[fieldType]
}

func IsOperatorAllowed(fieldType FieldType, op Operator) bool {
	for _, allowed := range operatorsByFieldType[fieldType] {
		if allowed == op {
			return true
		}
	}
	return false
}

// RequiresValue is false only for presence/emptiness checks.
func RequiresValue(op Operator) bool {
	switch op {
	case OpExists, OpNotExists, OpIsEmpty, OpIsNotEmpty:
		return false
	}
	return true
}

// RequiresArrayValue is true only for set-membership operators.
func RequiresArrayValue(op Operator) bool {
	return op == OpIn || op == OpNotIn
}

type GroupOperator string

const (
	GroupAnd GroupOperator = "and"
	GroupOr  GroupOperator = "or"
)

type Condition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value,omitempty"`
}

// Group is a recursive boolean expression: and/or over an ordered list
// of conditions and nested groups.
type Group struct {
	Operator GroupOperator `json:"operator"`
	Children []Node        `json:"children"`
}

// Node is either a condition or a nested group, distinguished in JSON
// by the presence of a children key.
type Node struct {
	Condition *Condition
	Group     *Group
}

func (n *Node) UnmarshalJSON(raw []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}

	if _, isGroup := fields["children"]; isGroup {
		n.Group = &Group{}
		return json.Unmarshal(raw, n.Group)
	}
	n.Condition = &Condition{}
	return json.Unmarshal(raw, n.Condition)
}

func (n Node) MarshalJSON() ([]byte, error) {
	if n.Group != nil {
		return json.Marshal(n.Group)
	}
	if n.Condition != nil {
		return json.Marshal(n.Condition)
	}
	return nil, errors.New("empty filter node")
}

// ErrInvalidCondition is the sentinel every compile-time condition
// failure matches via errors.Is.
var ErrInvalidCondition = errors.New("invalid filter condition")

type InvalidConditionError struct {
	Field    string
	Operator Operator
	Reason   string
}

func (e *InvalidConditionError) Error() string {
	return fmt.Sprintf("invalid filter condition on field '%s' (%s): %s", e.Field, e.Operator, e.Reason)
}

func (e *InvalidConditionError) Is(target error) bool {
	return target == ErrInvalidCondition
}

type SortRule struct {
	Field     string `json:"field"`
	Direction string `json:"direction"` // asc | desc
}

var ErrInvalidSort = errors.New("invalid sort rule")

// ValidateSortRules checks directions and that no field appears twice.
func ValidateSortRules(rules []SortRule) error {
	seen := make(map[string]bool, len(rules))
	for _, rule := range rules {
		if rule.Direction != "asc" && rule.Direction != "desc" {
			return fmt.Errorf("%w: invalid direction '%s' for field '%s'", ErrInvalidSort, rule.Direction, rule.Field)
		}
		if seen[rule.Field] {
			return fmt.Errorf("%w: duplicate field '%s'", ErrInvalidSort, rule.Field)
		}
		seen[rule.Field] = true
	}
	return nil
}

// SetField repoints a condition at a new field. The operator is kept
// when the new field type still allows it, otherwise it falls back to
// the first operator of the new type; the value is reshaped to match.
func (c *Condition) SetField(field string, fieldType FieldType) {
	c.Field = field
	if !IsOperatorAllowed(fieldType, c.Operator) {
		c.SetOperator(operatorsByFieldType[fieldType][0])
	}
}

// SetOperator changes the operator, resetting the value whenever its
// required shape changes: array operators get an empty array, scalar
// operators an empty string, valueless operators nil.
func (c *Condition) SetOperator(op Operator) {
	previous := c.Operator
	c.Operator = op

	switch {
	case !RequiresValue(op):
		c.Value = nil
	case RequiresArrayValue(op) && !isArrayValue(c.Value):
		c.Value = []any{}
	case !RequiresArrayValue(op) && (RequiresArrayValue(previous) || isArrayValue(c.Value)):
		c.Value = ""
	}
}

func isArrayValue(value any) bool {
	switch value.(type) {
	case []any, []string:
		return true
	}
	return false
}
