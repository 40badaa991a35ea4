package adapterhub

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
)

// Result is a well-formed hub reply, success or business failure alike.
// It is an immutable value object: every accessor reads the mapping decoded
// once at construction, and Raw preserves the exact response text for
// debugging and audit.
type Result struct {
	code    int
	message string
	data    any
	raw     string
	fields  map[string]any
}

// ParseResult decodes a raw hub reply. It fails when the text is not a JSON
// object or when the object lacks an integer "code" or a string "message",
// the minimum shape every hub reply must carry.
func ParseResult(raw string) (*Result, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}

	code, ok := intField(fields, "code")
	if !ok {
		return nil, errors.New(`decode reply: missing or non-integer "code" field`)
	}
	message, ok := fields["message"].(string)
	if !ok {
		return nil, errors.New(`decode reply: missing "message" field`)
	}

	return &Result{
		code:    code,
		message: message,
		data:    fields["data"],
		raw:     raw,
		fields:  fields,
	}, nil
}

// Code is the business status code; 200 denotes success.
func (r *Result) Code() int { return r.code }

// Message is the human-readable status text.
func (r *Result) Message() string { return r.message }

// Data is the reply payload, nil when the server sent none.
func (r *Result) Data() any { return r.data }

// Raw is the exact JSON text received from the server.
func (r *Result) Raw() string { return r.raw }

// IsSuccess reports whether the hub accepted the message.
func (r *Result) IsSuccess() bool { return r.code == 200 }

// IsError reports an application-level failure. It is always the negation
// of IsSuccess.
func (r *Result) IsError() bool { return r.code != 200 }

// Get reads an arbitrary key from the decoded reply mapping, returning def
// when the key is absent. It keeps extra server-provided fields reachable
// without widening the Result type.
func (r *Result) Get(key string, def any) any {
	if v, ok := r.fields[key]; ok {
		return v
	}
	return def
}

// ToMap returns a copy of the decoded reply mapping.
func (r *Result) ToMap() map[string]any {
	return maps.Clone(r.fields)
}

func (r *Result) String() string {
	return fmt.Sprintf("Result(code=%d, message=%q, error=%t)", r.code, r.message, r.IsError())
}

// intField extracts an integral JSON number. encoding/json decodes numbers
// into float64, so the value is accepted only when it has no fraction.
func intField(fields map[string]any, key string) (int, bool) {
	v, ok := fields[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}
