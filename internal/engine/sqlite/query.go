package sqlite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/RichardKnop/ajxgate/internal/engine"
)

const defaultPrimaryKey = "id"

var (
	errNoColumns           = errors.New("at least one column is required")
	errNoValues            = errors.New("at least one value is required")
	errColumnValueMismatch = errors.New("number of columns does not match number of values")
	errUnknownOperator     = errors.New("unknown operator")
)

var comparisonOperators = map[string]string{
	"=":  "=",
	"!=": "!=",
	">":  ">",
	"<":  "<",
	">=": ">=",
	"<=": "<=",
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteIdentifiers(names []string) []string {
	quoted := make([]string, 0, len(names))
	for _, name := range names {
		quoted = append(quoted, quoteIdentifier(name))
	}
	return quoted
}

func createTableQuery(req engine.CreateTableRequest) string {
	primaryKey := req.PrimaryKey
	if primaryKey == "" {
		primaryKey = defaultPrimaryKey
	}

	definitions := make([]string, 0, len(req.Columns)+1)
	if primaryKey == defaultPrimaryKey {
		definitions = append(definitions, quoteIdentifier(primaryKey)+" INTEGER PRIMARY KEY")
	} else {
		definitions = append(definitions, quoteIdentifier(primaryKey)+" PRIMARY KEY NOT NULL")
	}
	for _, column := range req.Columns {
		if column == primaryKey {
			continue
		}
		definitions = append(definitions, quoteIdentifier(column))
	}

	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdentifier(req.TableName), strings.Join(definitions, ", "))
}

func insertQuery(req engine.InsertRequest) (string, []any, error) {
	if len(req.Values) == 0 {
		return "", nil, errNoValues
	}
	if len(req.Columns) > 0 && len(req.Columns) != len(req.Values) {
		return "", nil, errColumnValueMismatch
	}

	args := make([]any, 0, len(req.Values))
	for _, v := range req.Values {
		args = append(args, bindValue(v))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")

	var query strings.Builder
	query.WriteString("INSERT INTO ")
	query.WriteString(quoteIdentifier(req.TableName))
	if len(req.Columns) > 0 {
		query.WriteString(" (")
		query.WriteString(strings.Join(quoteIdentifiers(req.Columns), ", "))
		query.WriteString(")")
	}
	query.WriteString(" VALUES (")
	query.WriteString(placeholders)
	query.WriteString(")")

	return query.String(), args, nil
}

type selectParts struct {
	table     string
	distinct  bool
	columns   []string
	condition string
	operator  string
	value     any
	offset    *int
	limit     *int
}

func selectQuery(parts selectParts) (string, []any, error) {
	var (
		query strings.Builder
		args  []any
	)

	query.WriteString("SELECT ")
	if parts.distinct {
		query.WriteString("DISTINCT ")
	}
	if len(parts.columns) == 0 {
		query.WriteString("*")
	} else {
		query.WriteString(strings.Join(quoteIdentifiers(parts.columns), ", "))
	}
	query.WriteString(" FROM ")
	query.WriteString(quoteIdentifier(parts.table))

	if parts.condition != "" {
		where, whereArgs, err := whereClause(parts.condition, parts.operator, parts.value)
		if err != nil {
			return "", nil, err
		}
		query.WriteString(where)
		args = append(args, whereArgs...)
	}

	switch {
	case parts.limit != nil:
		query.WriteString(" LIMIT ?")
		args = append(args, *parts.limit)
	case parts.offset != nil:
		query.WriteString(" LIMIT -1")
	}
	if parts.offset != nil {
		query.WriteString(" OFFSET ?")
		args = append(args, *parts.offset)
	}

	return query.String(), args, nil
}

func updateQuery(req engine.UpdateRequest) (string, []any, error) {
	if len(req.Set) == 0 {
		return "", nil, errNoColumns
	}
	if len(req.Set) != len(req.SetValues) {
		return "", nil, errColumnValueMismatch
	}

	assignments := make([]string, 0, len(req.Set))
	args := make([]any, 0, len(req.Set)+1)
	for i, column := range req.Set {
		assignments = append(assignments, quoteIdentifier(column)+" = ?")
		args = append(args, bindValue(req.SetValues[i]))
	}

	where, whereArgs, err := whereClause(req.Condition, req.Operator, req.ConditionValue)
	if err != nil {
		return "", nil, err
	}
	args = append(args, whereArgs...)

	return fmt.Sprintf("UPDATE %s SET %s%s", quoteIdentifier(req.TableName), strings.Join(assignments, ", "), where), args, nil
}

func deleteQuery(req engine.DeleteRequest) (string, []any, error) {
	where, args, err := whereClause(req.Condition, req.Operator, req.ConditionValue)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("DELETE FROM %s%s", quoteIdentifier(req.TableName), where), args, nil
}

// whereClause compares against NULL with IS / IS NOT since = NULL never
// matches in sqlite.
func whereClause(field, operator string, value any) (string, []any, error) {
	if operator == "" {
		operator = "="
	}
	sqlOperator, ok := comparisonOperators[operator]
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", errUnknownOperator, operator)
	}

	if value == nil {
		switch sqlOperator {
		case "=":
			return fmt.Sprintf(" WHERE %s IS NULL", quoteIdentifier(field)), nil, nil
		case "!=":
			return fmt.Sprintf(" WHERE %s IS NOT NULL", quoteIdentifier(field)), nil, nil
		}
	}

	return fmt.Sprintf(" WHERE %s %s ?", quoteIdentifier(field), sqlOperator), []any{bindValue(value)}, nil
}
