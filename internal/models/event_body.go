package models

import (
	"bytes"
	"encoding/json"

	"github.com/valyala/fastjson"
)

// emptyObject is stored when a script event body cannot be parsed.
var emptyObject = json.RawMessage(`{}`)

// EventBody is the outcome of parsing a client-submitted event payload:
// either a parsed JSON value or a parse failure.
type EventBody struct {
	value  json.RawMessage
	parsed bool
	err    error
}

// ParseEventBody parses data as JSON. It never fails; inspect Parsed and Err
// to tell the two cases apart.
func ParseEventBody(data []byte) EventBody {
	// The parser alone accepts NaN, leading zeros and bad escapes
	if err := fastjson.ValidateBytes(data); err != nil {
		return EventBody{err: err}
	}

	// Compact keeps escapes as the client wrote them; fastjson's MarshalTo
	// would re-quote control characters Go-style, which is not JSON.
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return EventBody{err: err}
	}
	return EventBody{value: json.RawMessage(buf.Bytes()), parsed: true}
}

// Parsed reports whether the payload was valid JSON.
func (b EventBody) Parsed() bool { return b.parsed }

// Err returns the parse error, if any.
func (b EventBody) Err() error { return b.err }

// JSON returns the value to persist; parse failures collapse to {}.
func (b EventBody) JSON() json.RawMessage {
	if !b.parsed {
		return emptyObject
	}
	return b.value
}
