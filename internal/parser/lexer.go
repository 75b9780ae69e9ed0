package parser

import (
	"regexp"
	"strings"

	"github.com/RichardKnop/ajxgate/internal/command"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenIdentifier
	tokenNumber
	tokenString
	tokenWord
	tokenPunct
	tokenOperator
)

func (k tokenKind) String() string {
	switch k {
	case tokenIdentifier:
		return "identifier"
	case tokenNumber:
		return "number"
	case tokenString:
		return "quoted string"
	case tokenWord:
		return "word"
	case tokenPunct, tokenOperator:
		return "symbol"
	default:
		return "end of command"
	}
}

type token struct {
	kind tokenKind
	// text is the token exactly as written, quotes included.
	text string
	pos  int
	end  int
}

func (t token) is(kind tokenKind, text string) bool {
	return t.kind == kind && t.text == text
}

// isKeyword compares an identifier token to a keyword case-insensitively.
func (t token) isKeyword(keyword string) bool {
	return t.kind == tokenIdentifier && strings.EqualFold(t.text, keyword)
}

func (t token) String() string {
	if t.kind == tokenEOF {
		return "end of command"
	}
	return t.text
}

var identifierRegexp = regexp.MustCompile(`^\w+(\.\w+)?$`)

const delimiters = `'"(),;=<>!*`

func lex(sql string) ([]token, error) {
	var (
		tokens []token
		i      int
	)
	for i < len(sql) {
		c := sql[i]
		switch {
		case isSpace(c):
			i++
		case c == '\'' || c == '"':
			end, ok := scanQuoted(sql, i)
			if !ok {
				return nil, command.NewSyntaxError(i, "unterminated quoted string starting at position %d", i)
			}
			tokens = append(tokens, token{kind: tokenString, text: sql[i:end], pos: i, end: end})
			i = end
		case c == '(' || c == ')' || c == ',' || c == ';' || c == '*':
			tokens = append(tokens, token{kind: tokenPunct, text: sql[i : i+1], pos: i, end: i + 1})
			i++
		case c == '=' || c == '<' || c == '>' || c == '!':
			ln := 1
			if i+1 < len(sql) {
				switch sql[i : i+2] {
				case "!=", "<=", ">=", "<>":
					ln = 2
				}
			}
			if c == '!' && ln == 1 {
				return nil, command.NewSyntaxError(i, "unexpected character %q at position %d", c, i)
			}
			text := sql[i : i+ln]
			if text == "<>" {
				text = string(command.Ne)
			}
			tokens = append(tokens, token{kind: tokenOperator, text: text, pos: i, end: i + ln})
			i += ln
		default:
			end := scanWord(sql, i)
			tokens = append(tokens, classifyWord(sql[i:end], i, end))
			i = end
		}
	}
	return tokens, nil
}

func scanQuoted(sql string, start int) (int, bool) {
	quote := sql[start]
	for i := start + 1; i < len(sql); i++ {
		switch sql[i] {
		case '\\':
			i++
		case quote:
			return i + 1, true
		}
	}
	return 0, false
}

func scanWord(sql string, start int) int {
	i := start
	for i < len(sql) && !isSpace(sql[i]) && !strings.ContainsRune(delimiters, rune(sql[i])) {
		i++
	}
	return i
}

func classifyWord(text string, pos, end int) token {
	aToken := token{kind: tokenWord, text: text, pos: pos, end: end}
	if _, ok := command.ParseNumber(text); ok {
		aToken.kind = tokenNumber
	} else if identifierRegexp.MatchString(text) {
		aToken.kind = tokenIdentifier
	}
	return aToken
}

// isSpace matches ASCII whitespace only, multi-byte UTF-8 sequences are
// never split.
func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
