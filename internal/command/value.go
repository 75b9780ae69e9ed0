package command

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var numberRegexp = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?$`)

// Coerce converts a literal token into a typed value: nil for NULL, the
// unwrapped string for a quoted token, float64 for a number and the trimmed
// token itself otherwise.
func Coerce(token string) any {
	token = strings.TrimSpace(token)
	if strings.EqualFold(token, "NULL") {
		return nil
	}
	if quote, ok := wrappedIn(token); ok {
		return unescape(token[1:len(token)-1], quote)
	}
	if number, ok := ParseNumber(token); ok {
		return number
	}
	return token
}

func ParseNumber(s string) (float64, bool) {
	if !numberRegexp.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Literal renders a typed value back into command text. Coerce(Literal(v))
// yields v again.
func Literal(v any) string {
	switch value := v.(type) {
	case nil:
		return "NULL"
	case float64:
		return strconv.FormatFloat(value, 'g', -1, 64)
	case int:
		return strconv.Itoa(value)
	case string:
		escaped := strings.ReplaceAll(value, `\`, `\\`)
		escaped = strings.ReplaceAll(escaped, `'`, `\'`)
		return "'" + escaped + "'"
	default:
		return "NULL"
	}
}

// StripQuotes removes one matching pair of surrounding quotes and unescapes
// the same quote character inside. Anything else is returned unchanged.
func StripQuotes(s string) string {
	quote, ok := wrappedIn(s)
	if !ok {
		return s
	}
	return strings.ReplaceAll(s[1:len(s)-1], `\`+string(quote), string(quote))
}

func wrappedIn(s string) (byte, bool) {
	if len(s) < 2 {
		return 0, false
	}
	first, last := s[0], s[len(s)-1]
	if (first == '\'' || first == '"') && first == last {
		return first, true
	}
	return 0, false
}

func unescape(s string, quote byte) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == quote || s[i+1] == '\\') {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
