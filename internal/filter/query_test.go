package filter_test

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/strata-cms/strata/internal/filter"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type filterRow struct {
	ID       uint `gorm:"primaryKey"`
	Title    string
	Metadata datatypes.JSON
}

func (filterRow) TableName() string { return "filter_rows" }

func queryDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&filterRow{}))

	rows := []filterRow{
		{Title: "first", Metadata: datatypes.JSON(`{"author": "kim", "rating": 4, "section": "news"}`)},
		{Title: "second", Metadata: datatypes.JSON(`{"author": "sam", "rating": 2, "section": "sport"}`)},
		{Title: "third", Metadata: datatypes.JSON(`{"author": "kim", "rating": 5}`)},
	}
	assert.NoError(t, db.Create(&rows).Error)
	return db
}

func TestApplyToQuery(t *testing.T) {
	db := queryDB(t)

	t.Run("Text equality over metadata", func(t *testing.T) {
		group := &filter.Group{Operator: filter.GroupAnd, Children: []filter.Node{
			cond("author", filter.OpEquals, "kim"),
		}}

		query, err := filter.ApplyToQuery(db.Model(&filterRow{}), group, testFields, "sqlite")
		assert.NoError(t, err)

		var rows []filterRow
		assert.NoError(t, query.Find(&rows).Error)
		assert.Equal(t, 2, len(rows))
	})

	t.Run("Numeric comparison casts the JSON value", func(t *testing.T) {
		group := &filter.Group{Operator: filter.GroupAnd, Children: []filter.Node{
			cond("rating", filter.OpGte, float64(4)),
		}}

		query, err := filter.ApplyToQuery(db.Model(&filterRow{}), group, testFields, "sqlite")
		assert.NoError(t, err)

		var rows []filterRow
		assert.NoError(t, query.Find(&rows).Error)
		assert.Equal(t, 2, len(rows))
	})

	t.Run("Or group", func(t *testing.T) {
		group := &filter.Group{Operator: filter.GroupOr, Children: []filter.Node{
			cond("section", filter.OpEquals, "sport"),
			cond("rating", filter.OpEquals, float64(5)),
		}}

		query, err := filter.ApplyToQuery(db.Model(&filterRow{}), group, testFields, "sqlite")
		assert.NoError(t, err)

		var rows []filterRow
		assert.NoError(t, query.Find(&rows).Error)
		assert.Equal(t, 2, len(rows))
	})

	t.Run("Presence check", func(t *testing.T) {
		group := &filter.Group{Operator: filter.GroupAnd, Children: []filter.Node{
			cond("section", filter.OpNotExists, nil),
		}}

		query, err := filter.ApplyToQuery(db.Model(&filterRow{}), group, testFields, "sqlite")
		assert.NoError(t, err)

		var rows []filterRow
		assert.NoError(t, query.Find(&rows).Error)
		assert.Equal(t, 1, len(rows))
		assert.Equal(t, "third", rows[0].Title)
	})

	t.Run("Membership", func(t *testing.T) {
		group := &filter.Group{Operator: filter.GroupAnd, Children: []filter.Node{
			cond("section", filter.OpIn, []any{"news", "sport"}),
		}}

		query, err := filter.ApplyToQuery(db.Model(&filterRow{}), group, testFields, "sqlite")
		assert.NoError(t, err)

		var rows []filterRow
		assert.NoError(t, query.Find(&rows).Error)
		assert.Equal(t, 2, len(rows))
	})

	t.Run("Invalid expression rejected before touching SQL", func(t *testing.T) {
		group := &filter.Group{Operator: filter.GroupAnd, Children: []filter.Node{
			cond("ghost", filter.OpEquals, "x"),
		}}

		_, err := filter.ApplyToQuery(db.Model(&filterRow{}), group, testFields, "sqlite")
		assert.ErrorIs(t, err, filter.ErrInvalidCondition)
	})

	t.Run("Nil group is a no-op", func(t *testing.T) {
		query, err := filter.ApplyToQuery(db.Model(&filterRow{}), nil, testFields, "sqlite")
		assert.NoError(t, err)

		var rows []filterRow
		assert.NoError(t, query.Find(&rows).Error)
		assert.Equal(t, 3, len(rows))
	})
}
