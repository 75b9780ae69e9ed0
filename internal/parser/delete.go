package parser

import (
	"github.com/RichardKnop/ajxgate/internal/command"
)

var (
	errDeleteExpectedFrom  = command.NewSyntaxError(-1, "at DELETE: expected FROM")
	errDeleteRequiresWhere = command.NewSyntaxError(-1, "DELETE requires a WHERE clause")
)

/*
DELETE FROM table WHERE field operator value
*/
func (p *parser) doParseDelete() error {
	switch p.step {
	case stepDeleteFrom:
		if !p.popKeywords("FROM") {
			return errDeleteExpectedFrom
		}
		p.step = stepDeleteTable
	case stepDeleteTable:
		name, err := p.popName("table")
		if err != nil {
			return err
		}
		p.Table = name
		if !p.peekKeywords("WHERE") {
			return errDeleteRequiresWhere
		}
		p.afterWhere = stepStatementEnd
		p.step = stepWhere
	}
	return nil
}
