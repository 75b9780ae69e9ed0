package parser

import (
	"github.com/RichardKnop/ajxgate/internal/command"
)

var (
	errInsertExpectedInto       = command.NewSyntaxError(-1, "at INSERT: expected INTO")
	errInsertNoValues           = command.NewSyntaxError(-1, "at INSERT: expected a parenthesized column or value list")
	errInsertValuesRequired     = command.NewSyntaxError(-1, "INSERT command requires a VALUES clause with parameters.")
	errEmptyListItem            = command.NewSyntaxError(-1, "empty item in list")
	errNestedParens             = command.NewSyntaxError(-1, "nested parentheses are not allowed in a list")
	errUnterminatedList         = command.NewSyntaxError(-1, "expected closing parens at end of list")
	errInsertColumnNotIdentifer = command.NewSyntaxError(-1, "at INSERT: column names must be identifiers")
)

/*
INSERT INTO table ( value [, ...] )
INSERT INTO table VALUES ( value [, ...] )
INSERT INTO table ( column [, ...] ) VALUES ( value [, ...] )
*/
func (p *parser) doParseInsert() error {
	switch p.step {
	case stepInsertInto:
		if !p.popKeywords("INTO") {
			return errInsertExpectedInto
		}
		p.step = stepInsertTable
	case stepInsertTable:
		name, err := p.popName("table")
		if err != nil {
			return err
		}
		p.Table = name
		p.step = stepInsertFirstGroup
	case stepInsertFirstGroup:
		if p.peekKeywords("VALUES") {
			p.step = stepInsertValuesRWord
			return nil
		}
		if !p.peek().is(tokenPunct, "(") {
			return errInsertNoValues
		}
		items, err := p.popList()
		if err != nil {
			return err
		}
		p.firstGroup = items
		p.step = stepInsertValuesRWord
	case stepInsertValuesRWord:
		if !p.popKeywords("VALUES") {
			// Positional form, the engine infers the columns.
			p.Values = coerceAll(p.firstGroup)
			p.step = stepStatementEnd
			return nil
		}
		if !p.peek().is(tokenPunct, "(") {
			return errInsertValuesRequired
		}
		p.step = stepInsertValues
	case stepInsertValues:
		items, err := p.popList()
		if err != nil {
			return err
		}
		p.Values = coerceAll(items)
		if p.firstGroup != nil {
			columns, err := p.insertColumns(p.firstGroup)
			if err != nil {
				return err
			}
			if len(columns) != len(p.Values) {
				return p.errorf("at INSERT: %d columns but %d values", len(columns), len(p.Values))
			}
			p.Columns = columns
		}
		p.step = stepStatementEnd
	}
	return nil
}

// popList consumes a parenthesized, comma separated list and returns the raw
// text of each item. Quoted strings are single tokens so commas inside them
// never split an item.
func (p *parser) popList() ([]string, error) {
	p.pop() // (
	var items []string
	for {
		item := p.rawUntil(func(t token) bool {
			return t.kind == tokenPunct && t.text != "*"
		})
		next := p.pop()
		switch {
		case next.is(tokenPunct, "("):
			return nil, errNestedParens
		case next.kind == tokenEOF, next.is(tokenPunct, ";"):
			return nil, errUnterminatedList
		case item == "":
			return nil, errEmptyListItem
		}
		items = append(items, item)
		if next.is(tokenPunct, ")") {
			return items, nil
		}
	}
}

func (p *parser) insertColumns(items []string) ([]string, error) {
	columns := make([]string, 0, len(items))
	for _, item := range items {
		column, ok := command.Coerce(item).(string)
		if !ok || !identifierRegexp.MatchString(column) {
			return nil, errInsertColumnNotIdentifer
		}
		columns = append(columns, column)
	}
	return columns, nil
}

func coerceAll(items []string) []any {
	values := make([]any, 0, len(items))
	for _, item := range items {
		values = append(values, command.Coerce(item))
	}
	return values
}
