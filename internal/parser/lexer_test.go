package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLex(t *testing.T) {
	t.Parallel()

	tokens, err := lex(`FIND a.b, * IN t WHERE x>=-2 AND y<>'it\'s' OR z != "q"`)
	require.NoError(t, err)

	type kindText struct {
		Kind tokenKind
		Text string
	}
	actual := make([]kindText, 0, len(tokens))
	for _, aToken := range tokens {
		actual = append(actual, kindText{aToken.kind, aToken.text})
	}

	assert.Equal(t, []kindText{
		{tokenIdentifier, "FIND"},
		{tokenIdentifier, "a.b"},
		{tokenPunct, ","},
		{tokenPunct, "*"},
		{tokenIdentifier, "IN"},
		{tokenIdentifier, "t"},
		{tokenIdentifier, "WHERE"},
		{tokenIdentifier, "x"},
		{tokenOperator, ">="},
		{tokenNumber, "-2"},
		{tokenIdentifier, "AND"},
		{tokenIdentifier, "y"},
		{tokenOperator, "!="},
		{tokenString, `'it\'s'`},
		{tokenIdentifier, "OR"},
		{tokenIdentifier, "z"},
		{tokenOperator, "!="},
		{tokenString, `"q"`},
	}, actual)
}

func TestLex_Spans(t *testing.T) {
	t.Parallel()

	sql := "INSERT INTO t (john@example.com, 'a b')"
	tokens, err := lex(sql)
	require.NoError(t, err)
	require.Len(t, tokens, 8)

	assert.Equal(t, tokenWord, tokens[4].kind)
	assert.Equal(t, "john@example.com", sql[tokens[4].pos:tokens[4].end])
	assert.Equal(t, tokenString, tokens[6].kind)
	assert.Equal(t, "'a b'", sql[tokens[6].pos:tokens[6].end])
}

func TestLex_Errors(t *testing.T) {
	t.Parallel()

	_, err := lex("FIND * IN t WHERE a ! 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unexpected character '!' at position 20`)

	_, err = lex(`INSERT INTO t ("abc)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unterminated quoted string starting at position 15")
}

func TestLex_MultiByteWords(t *testing.T) {
	t.Parallel()

	// "à" is C3 A0 and "Ņ" is C5 85, their second bytes are not spaces.
	sql := "INSERT INTO t (voilà, Ņame)"
	tokens, err := lex(sql)
	require.NoError(t, err)
	require.Len(t, tokens, 8)

	assert.Equal(t, tokenWord, tokens[4].kind)
	assert.Equal(t, "voilà", tokens[4].text)
	assert.Equal(t, "Ņame", tokens[6].text)
}
