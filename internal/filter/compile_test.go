package filter_test

import (
	"testing"

	"github.com/strata-cms/strata/internal/filter"
	"github.com/stretchr/testify/assert"
)

var testFields = map[string]filter.FieldType{
	"author":    filter.FieldText,
	"rating":    filter.FieldNumber,
	"published": filter.FieldBoolean,
	"date":      filter.FieldDate,
	"section":   filter.FieldSelect,
}

func cond(field string, op filter.Operator, value any) filter.Node {
	return filter.Node{Condition: &filter.Condition{Field: field, Operator: op, Value: value}}
}

func TestCompileText(t *testing.T) {
	cases := []struct {
		name  string
		op    filter.Operator
		value string
		doc   map[string]any
		want  bool
	}{
		{"equals match", filter.OpEquals, "kim", map[string]any{"author": "kim"}, true},
		{"equals miss", filter.OpEquals, "kim", map[string]any{"author": "sam"}, false},
		{"contains", filter.OpContains, "im", map[string]any{"author": "kim"}, true},
		{"not contains", filter.OpNotContains, "im", map[string]any{"author": "sam"}, true},
		{"starts with", filter.OpStartsWith, "ki", map[string]any{"author": "kim"}, true},
		{"ends with", filter.OpEndsWith, "am", map[string]any{"author": "sam"}, true},
		{"missing field never matches", filter.OpEquals, "kim", map[string]any{}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			group := &filter.Group{Operator: filter.GroupAnd, Children: []filter.Node{
				cond("author", tc.op, tc.value),
			}}

			pred, err := filter.Compile(group, testFields)
			assert.NoError(t, err)
			assert.Equal(t, tc.want, pred(tc.doc))
		})
	}
}

func TestCompileNumberAndDate(t *testing.T) {
	t.Run("Numeric comparisons", func(t *testing.T) {
		group := &filter.Group{Operator: filter.GroupAnd, Children: []filter.Node{
			cond("rating", filter.OpGte, float64(3)),
			cond("rating", filter.OpLt, float64(5)),
		}}

		pred, err := filter.Compile(group, testFields)
		assert.NoError(t, err)
		assert.True(t, pred(map[string]any{"rating": float64(4)}))
		assert.False(t, pred(map[string]any{"rating": float64(5)}))
		assert.False(t, pred(map[string]any{"rating": "4"})) // strings are not numbers
	})

	t.Run("Date before and after", func(t *testing.T) {
		group := &filter.Group{Operator: filter.GroupAnd, Children: []filter.Node{
			cond("date", filter.OpAfter, "2026-01-01"),
			cond("date", filter.OpBefore, "2026-12-31"),
		}}

		pred, err := filter.Compile(group, testFields)
		assert.NoError(t, err)
		assert.True(t, pred(map[string]any{"date": "2026-06-15"}))
		assert.False(t, pred(map[string]any{"date": "2025-06-15"}))
		assert.False(t, pred(map[string]any{"date": "not a date"}))
	})
}

func TestCompilePresence(t *testing.T) {
	group := &filter.Group{Operator: filter.GroupAnd, Children: []filter.Node{
		cond("author", filter.OpExists, nil),
	}}

	pred, err := filter.Compile(group, testFields)
	assert.NoError(t, err)
	assert.True(t, pred(map[string]any{"author": "kim"}))
	assert.False(t, pred(map[string]any{}))
	assert.False(t, pred(map[string]any{"author": nil}))

	empty := &filter.Group{Operator: filter.GroupAnd, Children: []filter.Node{
		cond("author", filter.OpIsEmpty, nil),
	}}
	pred, err = filter.Compile(empty, testFields)
	assert.NoError(t, err)
	assert.True(t, pred(map[string]any{"author": ""}))
	assert.True(t, pred(map[string]any{}))
	assert.False(t, pred(map[string]any{"author": "kim"}))
}

func TestCompileMembership(t *testing.T) {
	group := &filter.Group{Operator: filter.GroupAnd, Children: []filter.Node{
		cond("section", filter.OpIn, []any{"news", "sport"}),
	}}

	pred, err := filter.Compile(group, testFields)
	assert.NoError(t, err)
	assert.True(t, pred(map[string]any{"section": "news"}))
	assert.False(t, pred(map[string]any{"section": "culture"}))
}

func TestCompileGroups(t *testing.T) {
	t.Run("Nested or inside and", func(t *testing.T) {
		group := &filter.Group{Operator: filter.GroupAnd, Children: []filter.Node{
			cond("published", filter.OpEquals, true),
			{Group: &filter.Group{Operator: filter.GroupOr, Children: []filter.Node{
				cond("section", filter.OpEquals, "news"),
				cond("rating", filter.OpGte, float64(4)),
			}}},
		}}

		pred, err := filter.Compile(group, testFields)
		assert.NoError(t, err)
		assert.True(t, pred(map[string]any{"published": true, "section": "news"}))
		assert.True(t, pred(map[string]any{"published": true, "rating": float64(5)}))
		assert.False(t, pred(map[string]any{"published": false, "section": "news"}))
		assert.False(t, pred(map[string]any{"published": true, "section": "culture"}))
	})

	t.Run("Empty group matches everything", func(t *testing.T) {
		pred, err := filter.Compile(&filter.Group{Operator: filter.GroupAnd}, testFields)
		assert.NoError(t, err)
		assert.True(t, pred(map[string]any{}))

		pred, err = filter.Compile(nil, testFields)
		assert.NoError(t, err)
		assert.True(t, pred(map[string]any{}))
	})
}

func TestCompileRejections(t *testing.T) {
	t.Run("Unknown field", func(t *testing.T) {
		group := &filter.Group{Operator: filter.GroupAnd, Children: []filter.Node{
			cond("ghost", filter.OpEquals, "x"),
		}}
		_, err := filter.Compile(group, testFields)
		assert.ErrorIs(t, err, filter.ErrInvalidCondition)
	})

	t.Run("Operator not in field type table", func(t *testing.T) {
		group := &filter.Group{Operator: filter.GroupAnd, Children: []filter.Node{
			cond("published", filter.OpContains, "tr"),
		}}
		_, err := filter.Compile(group, testFields)
		assert.ErrorIs(t, err, filter.ErrInvalidCondition)
	})

	t.Run("Scalar value for membership operator", func(t *testing.T) {
		group := &filter.Group{Operator: filter.GroupAnd, Children: []filter.Node{
			cond("section", filter.OpIn, "news"),
		}}
		_, err := filter.Compile(group, testFields)
		assert.ErrorIs(t, err, filter.ErrInvalidCondition)

		var details *filter.InvalidConditionError
		assert.ErrorAs(t, err, &details)
		assert.Contains(t, details.Reason, "array value")
	})

	t.Run("Missing value for comparison operator", func(t *testing.T) {
		group := &filter.Group{Operator: filter.GroupAnd, Children: []filter.Node{
			cond("author", filter.OpEquals, nil),
		}}
		_, err := filter.Compile(group, testFields)
		assert.ErrorIs(t, err, filter.ErrInvalidCondition)
	})

	t.Run("Error inside nested group surfaces", func(t *testing.T) {
		group := &filter.Group{Operator: filter.GroupAnd, Children: []filter.Node{
			{Group: &filter.Group{Operator: filter.GroupOr, Children: []filter.Node{
				cond("rating", filter.OpStartsWith, "4"),
			}}},
		}}
		_, err := filter.Compile(group, testFields)
		assert.ErrorIs(t, err, filter.ErrInvalidCondition)
	})
}
