package parser

import (
	"github.com/RichardKnop/ajxgate/internal/command"
)

var (
	errUpdateExpectedSet    = command.NewSyntaxError(-1, "at UPDATE: expected SET")
	errUpdateExpectedField  = command.NewSyntaxError(-1, "at UPDATE: expected field to SET")
	errUpdateExpectedEquals = command.NewSyntaxError(-1, "at UPDATE: expected =")
	errUpdateExpectedValue  = command.NewSyntaxError(-1, "at UPDATE: expected value after =")
	errUpdateRequiresWhere  = command.NewSyntaxError(-1, "UPDATE requires a WHERE clause")
)

/*
UPDATE table SET field = value [, ...] WHERE field operator value
*/
func (p *parser) doParseUpdate() error {
	switch p.step {
	case stepUpdateTable:
		name, err := p.popName("table")
		if err != nil {
			return err
		}
		p.Table = name
		p.step = stepUpdateSet
	case stepUpdateSet:
		if !p.popKeywords("SET") {
			return errUpdateExpectedSet
		}
		p.step = stepUpdateField
	case stepUpdateField:
		field := p.peek()
		if !isIdentifier(field) || field.isKeyword("WHERE") {
			return errUpdateExpectedField
		}
		p.pop()
		p.Set = append(p.Set, field.text)
		p.step = stepUpdateEquals
	case stepUpdateEquals:
		if !p.peek().is(tokenOperator, "=") {
			return errUpdateExpectedEquals
		}
		p.pop()
		p.step = stepUpdateValue
	case stepUpdateValue:
		raw := p.rawUntil(func(t token) bool {
			return t.is(tokenPunct, ",") || t.isKeyword("WHERE")
		})
		if raw == "" {
			return errUpdateExpectedValue
		}
		value := command.Coerce(raw)
		if s, ok := value.(string); ok {
			value = command.StripQuotes(s)
		}
		p.SetValues = append(p.SetValues, value)
		switch {
		case p.peek().is(tokenPunct, ","):
			p.pop()
			p.step = stepUpdateField
		case p.peekKeywords("WHERE"):
			p.afterWhere = stepStatementEnd
			p.step = stepWhere
		default:
			return errUpdateRequiresWhere
		}
	}
	return nil
}
