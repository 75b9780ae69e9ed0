package parser

import (
	"unicode"

	"github.com/RichardKnop/ajxgate/internal/command"
)

var errSaveTakesNoArguments = command.NewSyntaxError(-1, "SAVE does not take any arguments")

func (p *parser) doParseInit() error {
	switch p.step {
	case stepInitName:
		name := p.peek()
		if name.kind == tokenEOF {
			return p.errorf("1 argument expected (database name) but got: 0")
		}
		if !isDatabaseName(name) {
			return p.errorf("Invalid database name -> %s", name.text)
		}
		p.Name = name.text
		p.pop()
		// Anything after a semicolon is discarded.
		if p.peek().is(tokenPunct, ";") {
			p.i = len(p.tokens)
		}
		if next := p.peek(); next.kind != tokenEOF {
			return p.errorf("1 argument expected (database name) but got: %d", p.remainingArgs())
		}
		p.step = stepDone
	case stepSaveEnd:
		if p.peek().kind != tokenEOF {
			return errSaveTakesNoArguments
		}
		p.step = stepDone
	}
	return nil
}

// isDatabaseName rejects anything that reads as a number, including names
// with a leading numeric part such as "12shop".
func isDatabaseName(t token) bool {
	if t.kind != tokenIdentifier {
		return false
	}
	return !unicode.IsDigit(rune(t.text[0]))
}
