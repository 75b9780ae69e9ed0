package parser

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/RichardKnop/ajxgate/internal/command"
)

var errEmptyCommand = command.NewSyntaxError(-1, "empty command")

type step int

const (
	stepBeginning step = iota + 1
	stepInitName
	stepSaveEnd
	stepCreateElement
	stepCreateName
	stepCreateOpeningParens
	stepCreateColumn
	stepCreateColumnPrimaryKey
	stepCreateCommaOrClosingParens
	stepInsertInto
	stepInsertTable
	stepInsertFirstGroup
	stepInsertValuesRWord
	stepInsertValues
	stepElementKind
	stepElementName
	stepFindDistinct
	stepFindColumn
	stepFindCommaOrIn
	stepFindTable
	stepFindClause
	stepFindOrderByField
	stepFindLimit
	stepFindOffset
	stepDeleteFrom
	stepDeleteTable
	stepUpdateTable
	stepUpdateSet
	stepUpdateField
	stepUpdateEquals
	stepUpdateValue
	stepWhere
	stepWhereField
	stepWhereOperator
	stepWhereValue
	stepStatementEnd
	stepDone
)

type parser struct {
	command.Command
	logger *zap.Logger
	sql    string
	tokens []token
	i      int // where we are in the token stream
	step   step
	// afterWhere is the step to continue with once a WHERE clause is parsed.
	afterWhere  step
	primaryKeys int
	firstGroup  []string
}

// New returns a parser. A parser keeps state between steps and must not be
// used by more than one goroutine at a time.
func New(logger *zap.Logger) *parser {
	return &parser{logger: logger}
}

// Validate checks the grammar of a command without producing a descriptor.
// It runs the same grammar as Parse, so the two cannot drift apart.
func (p *parser) Validate(ctx context.Context, sql string) error {
	_, err := p.Parse(ctx, sql)
	return err
}

func (p *parser) Parse(ctx context.Context, sql string) (command.Command, error) {
	p.reset()
	p.sql = strings.TrimSpace(sql)

	aCommand, err := p.doParse()

	p.logError(err)
	return aCommand, err
}

func (p *parser) reset() {
	p.Command = command.Command{}
	p.sql = ""
	p.tokens = nil
	p.i = 0
	p.step = stepBeginning
	p.afterWhere = stepStatementEnd
	p.primaryKeys = 0
	p.firstGroup = nil
}

func (p *parser) doParse() (command.Command, error) {
	tokens, err := lex(p.sql)
	if err != nil {
		return command.Command{}, err
	}
	p.tokens = tokens
	p.Raw = p.sql

	for p.step != stepDone {
		if err := p.doStep(); err != nil {
			return command.Command{}, err
		}
	}

	return p.Command, nil
}

func (p *parser) doStep() error {
	switch p.step {
	// -----------------
	// ACTION
	//------------------
	case stepBeginning:
		first := p.peek()
		if first.kind == tokenEOF {
			return errEmptyCommand
		}
		action, ok := command.ParseAction(first.text)
		if !ok || first.kind != tokenIdentifier {
			return p.errorf("Invalid command action: %q", first.text)
		}
		p.Action = action
		p.pop()
		switch action {
		case command.Init:
			p.step = stepInitName
		case command.Save:
			p.step = stepSaveEnd
		case command.Create:
			p.step = stepCreateElement
		case command.Insert:
			p.step = stepInsertInto
		case command.Describe, command.Drop:
			p.step = stepElementKind
		case command.Find:
			p.step = stepFindDistinct
		case command.Delete:
			p.step = stepDeleteFrom
		case command.Update:
			p.step = stepUpdateTable
		}
	case stepInitName, stepSaveEnd:
		return p.doParseInit()
	case stepCreateElement,
		stepCreateName,
		stepCreateOpeningParens,
		stepCreateColumn,
		stepCreateColumnPrimaryKey,
		stepCreateCommaOrClosingParens:
		return p.doParseCreate()
	case stepInsertInto,
		stepInsertTable,
		stepInsertFirstGroup,
		stepInsertValuesRWord,
		stepInsertValues:
		return p.doParseInsert()
	case stepElementKind, stepElementName:
		return p.doParseElement()
	case stepFindDistinct,
		stepFindColumn,
		stepFindCommaOrIn,
		stepFindTable,
		stepFindClause,
		stepFindOrderByField,
		stepFindLimit,
		stepFindOffset:
		return p.doParseFind()
	case stepDeleteFrom, stepDeleteTable:
		return p.doParseDelete()
	case stepUpdateTable,
		stepUpdateSet,
		stepUpdateField,
		stepUpdateEquals,
		stepUpdateValue:
		return p.doParseUpdate()
	case stepWhere,
		stepWhereField,
		stepWhereOperator,
		stepWhereValue:
		return p.doParseWhere()
	case stepStatementEnd:
		if next := p.peek(); next.kind != tokenEOF {
			return p.errorf("unexpected %q after end of %s command", next.text, p.Action)
		}
		p.step = stepDone
	}
	return nil
}

func (p *parser) peek() token {
	return p.peekAt(0)
}

func (p *parser) peekAt(offset int) token {
	idx := p.i + offset
	if idx >= len(p.tokens) {
		return token{kind: tokenEOF, pos: len(p.sql), end: len(p.sql)}
	}
	// A trailing semicolon terminates the command.
	if idx == len(p.tokens)-1 && p.tokens[idx].is(tokenPunct, ";") {
		return token{kind: tokenEOF, pos: p.tokens[idx].pos, end: p.tokens[idx].pos}
	}
	return p.tokens[idx]
}

func (p *parser) pop() token {
	aToken := p.peek()
	if aToken.kind != tokenEOF {
		p.i++
	}
	return aToken
}

// peekKeywords reports whether the next tokens are the given keywords in order.
func (p *parser) peekKeywords(keywords ...string) bool {
	for offset, keyword := range keywords {
		if !p.peekAt(offset).isKeyword(keyword) {
			return false
		}
	}
	return true
}

func (p *parser) popKeywords(keywords ...string) bool {
	if !p.peekKeywords(keywords...) {
		return false
	}
	p.i += len(keywords)
	return true
}

// rawUntil consumes tokens until stop returns true or the command ends and
// returns the command text they span.
func (p *parser) rawUntil(stop func(token) bool) string {
	start := p.peek()
	end := start.pos
	for next := p.peek(); next.kind != tokenEOF && !stop(next); next = p.peek() {
		end = next.end
		p.pop()
	}
	return strings.TrimSpace(p.sql[start.pos:end])
}

// remainingArgs counts whitespace separated arguments after the action.
func (p *parser) remainingArgs() int {
	return len(strings.Fields(p.sql)) - 1
}

func (p *parser) popName(what string) (string, error) {
	name := p.peek()
	switch name.kind {
	case tokenIdentifier:
		p.pop()
		return name.text, nil
	case tokenString:
		p.pop()
		return command.StripQuotes(name.text), nil
	case tokenEOF:
		return "", p.errorf("expected %s name", what)
	default:
		return "", p.errorf("expected %s name but got %q", what, name.text)
	}
}

func (p *parser) popInt(clause string) (int, error) {
	aToken := p.peek()
	if aToken.kind != tokenNumber {
		return 0, p.errorf("%s expects a non-negative integer but got %q", clause, aToken.String())
	}
	n, err := strconv.Atoi(aToken.text)
	if err != nil || n < 0 {
		return 0, p.errorf("%s expects a non-negative integer but got %q", clause, aToken.text)
	}
	p.pop()
	return n, nil
}

func (p *parser) errorf(format string, args ...any) error {
	return command.NewSyntaxError(p.peek().pos, format, args...)
}

func (p *parser) logError(err error) {
	if err == nil || p.logger == nil {
		return
	}
	fields := []zap.Field{zap.String("command", p.sql), zap.Error(err)}
	if syntaxErr, ok := err.(*command.SyntaxError); ok && syntaxErr.Pos >= 0 {
		fields = append(fields, zap.String("at", p.sql+"\n"+strings.Repeat(" ", syntaxErr.Pos)+"^"))
	}
	p.logger.Debug("rejected command", fields...)
}

func isIdentifier(t token) bool {
	return t.kind == tokenIdentifier
}
