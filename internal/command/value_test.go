package command

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
)

func TestCoerce(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		Name     string
		Token    string
		Expected any
	}{
		{"NULL becomes nil", "NULL", nil},
		{"null is case insensitive", "null", nil},
		{"single quoted string", "'abc'", "abc"},
		{"double quoted string", `"abc"`, "abc"},
		{"quoted number stays a string", "'42'", "42"},
		{"quoted NULL stays a string", "'NULL'", "NULL"},
		{"escaped quote is unescaped", `'it\'s'`, "it's"},
		{"escaped backslash is unescaped", `'a\\b'`, `a\b`},
		{"other quote kind is kept", `'say "hi"'`, `say "hi"`},
		{"integer", "42", float64(42)},
		{"negative float", "-3.75", float64(-3.75)},
		{"exponent", "1e3", float64(1000)},
		{"bare word falls back to string", "abc", "abc"},
		{"surrounding whitespace is trimmed", "  abc  ", "abc"},
		{"mismatched quotes fall back to string", `'abc"`, `'abc"`},
		{"number prefix is not a number", "12abc", "12abc"},
		{"hex is not a number", "0x10", "0x10"},
		{"NaN is not a number", "NaN", "NaN"},
		{"lone quote is a string", "'", "'"},
	}

	for _, aTestCase := range testCases {
		t.Run(aTestCase.Name, func(t *testing.T) {
			assert.Equal(t, aTestCase.Expected, Coerce(aTestCase.Token))
		})
	}
}

func TestLiteral_RoundTrip(t *testing.T) {
	t.Parallel()

	faker := gofakeit.New(uint64(time.Now().Unix()))

	values := []any{nil, "", "NULL", "it's", `back\slash`, " padded ", float64(0), float64(-1.5)}
	for i := 0; i < 200; i++ {
		values = append(values,
			faker.Email(),
			faker.Word(),
			faker.Name(),
			faker.Float64Range(-1e9, 1e9),
			float64(faker.IntRange(-100000, 100000)),
			faker.Regex(`[a-z'"\\ ]{1,12}`),
		)
	}

	for _, aValue := range values {
		assert.Equal(t, aValue, Coerce(Literal(aValue)), "literal %q", Literal(aValue))
	}
}

func TestStripQuotes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc", StripQuotes(`"abc"`))
	assert.Equal(t, "abc", StripQuotes("'abc'"))
	assert.Equal(t, `a"b`, StripQuotes(`"a\"b"`))
	assert.Equal(t, "abc", StripQuotes("abc"))
	assert.Equal(t, `'abc"`, StripQuotes(`'abc"`))
}

func TestCommand_RequiresSession(t *testing.T) {
	t.Parallel()

	assert.False(t, Command{Action: Init}.RequiresSession())
	assert.False(t, Command{Action: Drop, Element: Database}.RequiresSession())
	assert.False(t, Command{Action: Describe, Element: Database}.RequiresSession())
	assert.True(t, Command{Action: Create, Element: Database}.RequiresSession())
	assert.True(t, Command{Action: Drop, Element: Table}.RequiresSession())
	assert.True(t, Command{Action: Describe, Element: Table}.RequiresSession())
	assert.True(t, Command{Action: Create, Element: Table}.RequiresSession())
	assert.True(t, Command{Action: Find}.RequiresSession())
	assert.True(t, Command{Action: Insert}.RequiresSession())
	assert.True(t, Command{Action: Update}.RequiresSession())
	assert.True(t, Command{Action: Delete}.RequiresSession())
}

func TestErrors(t *testing.T) {
	t.Parallel()

	err := NewSyntaxError(3, "Invalid database name -> %s", "12")
	assert.Equal(t, "You have an error on your command syntax: Invalid database name -> 12", err.Error())
	assert.True(t, IsSyntaxError(err))
	assert.False(t, IsSyntaxError(ErrNoActiveSession))
	assert.Equal(t, "ORDER BY is not supported", (&UnsupportedError{Feature: "ORDER BY"}).Error())
}
