package parser

import (
	"strings"

	"github.com/RichardKnop/ajxgate/internal/command"
)

var (
	errFindWithoutColumns     = command.NewSyntaxError(-1, "at FIND: expected * or column list")
	errFindCannotCombineStar  = command.NewSyntaxError(-1, `at FIND: cannot combine "*" with other columns`)
	errFindExpectedIn         = command.NewSyntaxError(-1, "at FIND: expected IN")
	errFindExpectedOrderField = command.NewSyntaxError(-1, "at ORDER BY: expected field")
	errFindDuplicateLimit     = command.NewSyntaxError(-1, "at FIND: LIMIT specified more than once")
	errFindDuplicateOffset    = command.NewSyntaxError(-1, "at FIND: OFFSET specified more than once")
	errFindClauseOrder        = command.NewSyntaxError(-1, "at FIND: WHERE and ORDER BY must come before LIMIT / OFFSET")
)

/*
FIND [ DISTINCT ] { * | column [, ...] } IN table

	[ WHERE field operator value ]
	[ ORDER BY field [ ASC | DESC ] ]
	[ LIMIT count ]
	[ OFFSET start ]
*/
func (p *parser) doParseFind() error {
	switch p.step {
	case stepFindDistinct:
		if p.popKeywords("DISTINCT") {
			p.Modifiers.Distinct = true
		}
		p.step = stepFindColumn
	case stepFindColumn:
		column := p.peek()
		if column.is(tokenPunct, "*") {
			if len(p.Columns) > 0 {
				return errFindCannotCombineStar
			}
			p.pop()
			if p.peek().is(tokenPunct, ",") {
				return errFindCannotCombineStar
			}
			if !p.peekKeywords("IN") {
				return errFindExpectedIn
			}
			p.step = stepFindCommaOrIn
			return nil
		}
		if !isIdentifier(column) || column.isKeyword("IN") {
			return errFindWithoutColumns
		}
		p.pop()
		p.Columns = append(p.Columns, column.text)
		p.step = stepFindCommaOrIn
	case stepFindCommaOrIn:
		if p.peek().is(tokenPunct, ",") {
			p.pop()
			if p.peek().is(tokenPunct, "*") {
				return errFindCannotCombineStar
			}
			p.step = stepFindColumn
			return nil
		}
		if !p.popKeywords("IN") {
			return errFindExpectedIn
		}
		p.step = stepFindTable
	case stepFindTable:
		name, err := p.popName("table")
		if err != nil {
			return err
		}
		p.Table = name
		p.afterWhere = stepFindClause
		p.step = stepFindClause
	case stepFindClause:
		switch {
		case p.peek().kind == tokenEOF:
			p.step = stepStatementEnd
		case p.peekKeywords("WHERE"):
			if p.Condition != nil {
				return p.errorf("at WHERE: multiple WHERE clauses are not supported")
			}
			if p.OrderBy != nil || p.Modifiers.Limit != nil || p.Modifiers.Offset != nil {
				return p.errorf("at WHERE: WHERE must come before ORDER BY, LIMIT and OFFSET")
			}
			p.step = stepWhere
		case p.popKeywords("ORDER", "BY"):
			if p.Modifiers.Limit != nil || p.Modifiers.Offset != nil {
				return errFindClauseOrder
			}
			p.step = stepFindOrderByField
		case p.popKeywords("LIMIT"):
			if p.Modifiers.Limit != nil {
				return errFindDuplicateLimit
			}
			p.step = stepFindLimit
		case p.popKeywords("OFFSET"):
			if p.Modifiers.Offset != nil {
				return errFindDuplicateOffset
			}
			p.step = stepFindOffset
		default:
			return p.errorf("at FIND: unexpected %q", p.peek().text)
		}
	case stepFindOrderByField:
		field := p.peek()
		if !isIdentifier(field) {
			return errFindExpectedOrderField
		}
		p.pop()
		p.OrderBy = &command.OrderBy{Field: field.text}
		switch strings.ToUpper(p.peek().text) {
		case "DESC":
			p.OrderBy.Desc = true
			p.pop()
		case "ASC":
			p.pop()
		}
		p.step = stepFindClause
	case stepFindLimit:
		limit, err := p.popInt("LIMIT")
		if err != nil {
			return err
		}
		p.Modifiers.Limit = &limit
		p.step = stepFindClause
	case stepFindOffset:
		offset, err := p.popInt("OFFSET")
		if err != nil {
			return err
		}
		p.Modifiers.Offset = &offset
		p.step = stepFindClause
	}
	return nil
}

func isFindClauseKeyword(t token) bool {
	return t.isKeyword("ORDER") || t.isKeyword("LIMIT") || t.isKeyword("OFFSET")
}
