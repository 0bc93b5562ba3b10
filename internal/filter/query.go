package filter

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ApplyToQuery translates a compiled-validated group into a WHERE clause
// over the content metadata JSON column. Postgres gets -> operators,
// anything else (sqlite in tests) json_extract.
func ApplyToQuery(query *gorm.DB, group *Group, fields map[string]FieldType, dialect string) (*gorm.DB, error) {
	if group == nil || len(group.Children) == 0 {
		return query, nil
	}

	// Validation reuses the compiler so SQL and in-memory evaluation
	// reject exactly the same expressions.
	if _, err := Compile(group, fields); err != nil {
		return nil, err
	}

	clause, args := buildGroupSQL(group, fields, dialect)
	if clause == "" {
		return query, nil
	}
	return query.Where(clause, args...), nil
}

func buildGroupSQL(group *Group, fields map[string]FieldType, dialect string) (string, []any) {
	var clauses []string
	var args []any

	for i := range group.Children {
		node := group.Children[i]
		var clause string
		var childArgs []any

		switch {
		case node.Group != nil:
			clause, childArgs = buildGroupSQL(node.Group, fields, dialect)
		case node.Condition != nil:
			clause, childArgs = buildConditionSQL(node.Condition, fields[node.Condition.Field], dialect)
		}

		if clause != "" {
			clauses = append(clauses, clause)
			args = append(args, childArgs...)
		}
	}

	if len(clauses) == 0 {
		return "", nil
	}

	joiner := " AND "
	if group.Operator == GroupOr {
		joiner = " OR "
	}
	return "(" + strings.Join(clauses, joiner) + ")", args
}

func buildConditionSQL(cond *Condition, fieldType FieldType, dialect string) (string, []any) {
	var column, numeric string
	if dialect == "postgres" {
		column = fmt.Sprintf("metadata->>'%s'", cond.Field)
		numeric = fmt.Sprintf("(metadata->>'%s')::numeric", cond.Field)
	} else {
		column = fmt.Sprintf("json_extract(metadata, '$.%s')", cond.Field)
		numeric = fmt.Sprintf("CAST(json_extract(metadata, '$.%s') AS REAL)", cond.Field)
	}

	like := "LIKE"
	if dialect == "postgres" {
		like = "ILIKE"
	}

	switch cond.Operator {
	case OpEquals:
		if fieldType == FieldNumber {
			return numeric + " = ?", []any{cond.Value}
		}
		return column + " = ?", []any{cond.Value}
	case OpNotEquals:
		if fieldType == FieldNumber {
			return numeric + " != ?", []any{cond.Value}
		}
		return column + " != ?", []any{cond.Value}
	case OpContains:
		return fmt.Sprintf("%s %s ?", column, like), []any{"%" + fmt.Sprint(cond.Value) + "%"}
	case OpNotContains:
		return fmt.Sprintf("%s NOT %s ?", column, like), []any{"%" + fmt.Sprint(cond.Value) + "%"}
	case OpStartsWith:
		return fmt.Sprintf("%s %s ?", column, like), []any{fmt.Sprint(cond.Value) + "%"}
	case OpEndsWith:
		return fmt.Sprintf("%s %s ?", column, like), []any{"%" + fmt.Sprint(cond.Value)}
	case OpGt:
		return numeric + " > ?", []any{cond.Value}
	case OpGte:
		return numeric + " >= ?", []any{cond.Value}
	case OpLt:
		return numeric + " < ?", []any{cond.Value}
	case OpLte:
		return numeric + " <= ?", []any{cond.Value}
	case OpBefore:
		return column + " < ?", []any{cond.Value}
	case OpAfter:
		return column + " > ?", []any{cond.Value}
	case OpIn:
		return column + " IN ?", []any{arrayMembers(cond.Value)}
	case OpNotIn:
		return column + " NOT IN ?", []any{arrayMembers(cond.Value)}
	case OpExists:
		return column + " IS NOT NULL", nil
	case OpNotExists:
		return column + " IS NULL", nil
	case OpIsEmpty:
		return fmt.Sprintf("(%s IS NULL OR %s = '')", column, column), nil
	case OpIsNotEmpty:
		return fmt.Sprintf("(%s IS NOT NULL AND %s != '')", column, column), nil
	}
	return "", nil
}
