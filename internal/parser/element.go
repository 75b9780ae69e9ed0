package parser

import (
	"strings"

	"github.com/RichardKnop/ajxgate/internal/command"
)

/*
DESCRIBE DATABASE | TABLE name
DROP DATABASE | TABLE name
*/
func (p *parser) doParseElement() error {
	switch p.step {
	case stepElementKind:
		element := p.peek()
		if element.kind == tokenEOF {
			return p.errorf("Not enough arguments for the %s command.", p.Action)
		}
		switch strings.ToUpper(element.text) {
		case string(command.Database):
			p.Element = command.Database
		case string(command.Table):
			p.Element = command.Table
		default:
			return p.errorf("Element: %s does not support the %s command.", element.text, p.Action)
		}
		p.pop()
		p.step = stepElementName
	case stepElementName:
		name, err := p.popName(strings.ToLower(string(p.Element)))
		if err != nil {
			return err
		}
		p.Name = name
		if p.Element == command.Table {
			p.Table = name
		}
		if p.peek().kind != tokenEOF {
			return p.errorf("2 arguments expected (database or table name) but got: %d", p.remainingArgs())
		}
		p.step = stepDone
	}
	return nil
}
