package parser

import (
	"strings"

	"github.com/RichardKnop/ajxgate/internal/command"
)

const (
	primaryKeyKeyword = "PRIMARY_KEY"
	defaultPrimaryKey = "id"
)

var (
	errCreateMultiplePrimaryKeys = command.NewSyntaxError(-1, "at CREATE TABLE: multiple PRIMARY_KEY columns specified")
	errCreateExpectedColumn      = command.NewSyntaxError(-1, "at CREATE TABLE: expected column name")
)

/*
CREATE DATABASE name
CREATE TABLE name [ ( column [ [as] PRIMARY_KEY ] [, ...] ) ]
*/
func (p *parser) doParseCreate() error {
	switch p.step {
	case stepCreateElement:
		element := p.peek()
		switch strings.ToUpper(element.text) {
		case string(command.Database):
			p.Element = command.Database
		case string(command.Table):
			p.Element = command.Table
			p.PrimaryKey = defaultPrimaryKey
		default:
			if element.kind == tokenEOF {
				return p.errorf("Not enough arguments for the CREATE command.")
			}
			return p.errorf("Element: %s does not support the CREATE command.", element.text)
		}
		p.pop()
		p.step = stepCreateName
	case stepCreateName:
		if p.Element == command.Database {
			name := p.peek()
			if !isDatabaseName(name) {
				return p.errorf("Invalid database name -> %s", name.String())
			}
			p.Name = name.text
			p.pop()
			p.step = stepStatementEnd
			return nil
		}
		name, err := p.popName("table")
		if err != nil {
			return err
		}
		p.Name = name
		p.Table = name
		p.step = stepCreateOpeningParens
	case stepCreateOpeningParens:
		if !p.peek().is(tokenPunct, "(") {
			p.step = stepStatementEnd
			return nil
		}
		p.pop()
		p.Columns = make([]string, 0, 4)
		p.step = stepCreateColumn
	case stepCreateColumn:
		column := p.peek()
		if !isIdentifier(column) {
			return errCreateExpectedColumn
		}
		p.pop()
		p.Columns = append(p.Columns, column.text)
		p.step = stepCreateColumnPrimaryKey
	case stepCreateColumnPrimaryKey:
		p.step = stepCreateCommaOrClosingParens
		if !p.popKeywords("AS", primaryKeyKeyword) && !p.popKeywords(primaryKeyKeyword) {
			if p.peekKeywords("AS") {
				p.pop()
				return p.errorf("at CREATE TABLE: expected PRIMARY_KEY after AS")
			}
			return nil
		}
		p.primaryKeys++
		if p.primaryKeys > 1 {
			return errCreateMultiplePrimaryKeys
		}
		// The primary key travels separately from the ordinary columns.
		last := len(p.Columns) - 1
		p.PrimaryKey = p.Columns[last]
		p.Columns = p.Columns[:last]
	case stepCreateCommaOrClosingParens:
		next := p.pop()
		switch {
		case next.is(tokenPunct, ","):
			p.step = stepCreateColumn
		case next.is(tokenPunct, ")"):
			p.step = stepStatementEnd
		default:
			return p.errorf("at CREATE TABLE: expected , or ) but got %q", next.String())
		}
	}
	return nil
}
