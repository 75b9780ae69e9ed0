package parser

import (
	"github.com/RichardKnop/ajxgate/internal/command"
)

var (
	errWhereExpectedField    = command.NewSyntaxError(-1, "at WHERE: expected field")
	errWhereUnknownOperator  = command.NewSyntaxError(-1, "at WHERE: unknown operator")
	errWhereExpectedValue    = command.NewSyntaxError(-1, "at WHERE: expected value")
	errWhereExpectedList     = command.NewSyntaxError(-1, "at WHERE: IN expects a parenthesized list")
	errWhereMultipleCriteria = command.NewSyntaxError(-1, "at WHERE: only a single condition is supported")
)

func (p *parser) doParseWhere() error {
	switch p.step {
	case stepWhere:
		if !p.popKeywords("WHERE") {
			return p.errorf("expected WHERE")
		}
		p.step = stepWhereField
	case stepWhereField:
		field := p.peek()
		if !isIdentifier(field) {
			return errWhereExpectedField
		}
		p.pop()
		p.Condition = &command.Condition{Field: field.text}
		p.step = stepWhereOperator
	case stepWhereOperator:
		operator := p.peek()
		switch {
		case operator.kind == tokenOperator:
			p.Condition.Operator = command.Operator(operator.text)
			p.pop()
		case p.popKeywords("NOT", "LIKE"):
			p.Condition.Operator = command.NotLike
		case p.popKeywords("NOT", "IN"):
			p.Condition.Operator = command.NotIn
		case p.popKeywords("LIKE"):
			p.Condition.Operator = command.Like
		case p.popKeywords("IN"):
			p.Condition.Operator = command.In
		default:
			return errWhereUnknownOperator
		}
		p.step = stepWhereValue
	case stepWhereValue:
		if p.Condition.Operator == command.In || p.Condition.Operator == command.NotIn {
			if !p.peek().is(tokenPunct, "(") {
				return errWhereExpectedList
			}
			items, err := p.popList()
			if err != nil {
				return err
			}
			p.Condition.Value = coerceAll(items)
			p.step = p.afterWhere
			return nil
		}
		raw := p.rawUntil(func(t token) bool {
			if p.afterWhere == stepFindClause && isFindClauseKeyword(t) {
				return true
			}
			return t.kind == tokenPunct || t.isKeyword("AND") || t.isKeyword("OR")
		})
		if raw == "" {
			return errWhereExpectedValue
		}
		p.Condition.Value = command.Coerce(raw)
		if next := p.peek(); next.isKeyword("AND") || next.isKeyword("OR") {
			return errWhereMultipleCriteria
		}
		p.step = p.afterWhere
	}
	return nil
}
