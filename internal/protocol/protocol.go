package protocol

import (
	"bytes"
	"encoding/json"
)

// Two flavors share the main port. An envelope connection starts with Marker
// and carries one command per frame, every response is followed by
// Terminator. Anything starting with an HTTP method is served as HTTP with
// the command in the request body.
const (
	Marker     = "AJX\r\n\r\n"
	Terminator = "END_OF_RESPONSE"
)

type Flavor int

const (
	FlavorUnknown Flavor = iota
	FlavorEnvelope
	FlavorHTTP
)

func (f Flavor) String() string {
	switch f {
	case FlavorEnvelope:
		return "envelope"
	case FlavorHTTP:
		return "http"
	default:
		return "unknown"
	}
}

var httpMethods = []string{
	"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "CONNECT", "TRACE",
}

// Sniff classifies the first bytes of a connection. When done is false the
// prefix is still ambiguous and more bytes are needed.
func Sniff(prefix []byte) (flavor Flavor, done bool) {
	marker := []byte(Marker)
	if bytes.HasPrefix(prefix, marker) {
		return FlavorEnvelope, true
	}

	needMore := len(prefix) < len(marker) && bytes.HasPrefix(marker, prefix)
	for _, method := range httpMethods {
		token := []byte(method + " ")
		if bytes.HasPrefix(prefix, token) {
			return FlavorHTTP, true
		}
		if len(prefix) < len(token) && bytes.HasPrefix(token, prefix) {
			needMore = true
		}
	}

	return FlavorUnknown, !needMore
}

// ErrorBody is the body written for failed commands.
type ErrorBody struct {
	Error string `json:"error"`
}

// ParseError reports whether a response body is an error body.
func ParseError(body []byte) (string, bool) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return "", false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || len(fields) != 1 {
		return "", false
	}
	var anError ErrorBody
	if _, ok := fields["error"]; !ok {
		return "", false
	}
	if err := json.Unmarshal(body, &anError); err != nil {
		return "", false
	}
	return anError.Error, true
}
