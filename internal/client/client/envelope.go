package client

import (
	"bytes"
	"encoding/json"
)

// maxEnvelopeDepth is how many nested "data" wrappers Unwrap will peel.
const maxEnvelopeDepth = 2

var jsonNull = []byte("null")

// Unwrap returns the payload of a response body.
//
// Precedence: body.data.data, then body.data, then the body itself. Descent
// stops at the first level that is not a JSON object or whose "data" member
// is absent or null.
func Unwrap(body []byte) json.RawMessage {
	cur := bytes.TrimSpace(body)
	for i := 0; i < maxEnvelopeDepth; i++ {
		if len(cur) == 0 || cur[0] != '{' {
			break
		}
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(cur, &env); err != nil {
			break
		}
		inner := bytes.TrimSpace(env.Data)
		if len(inner) == 0 || bytes.Equal(inner, jsonNull) {
			break
		}
		cur = inner
	}
	return json.RawMessage(cur)
}

// decodePayload unwraps body and decodes the payload into v.
func decodePayload(body []byte, v any) error {
	return json.Unmarshal(Unwrap(body), v)
}
