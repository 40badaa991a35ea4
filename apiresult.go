package adapterhub

import (
	"encoding/json"
	"fmt"
	"maps"
)

// APIResult is a decoded WEB API reply. Unlike the RPC Result it is keyed on
// a status string plus the HTTP status code, matching the hub's WEB API
// envelope `{"status": "success"|"error", "message": ...}`.
type APIResult struct {
	statusCode int
	raw        string
	fields     map[string]any
}

// ParseAPIResult decodes a raw WEB API reply together with the HTTP status
// code of the exchange. It fails only on invalid JSON; missing envelope
// fields fall back to the error defaults.
func ParseAPIResult(raw string, statusCode int) (*APIResult, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	return &APIResult{statusCode: statusCode, raw: raw, fields: fields}, nil
}

// Status is the business status string, "success" or "error".
func (r *APIResult) Status() string {
	if s, ok := r.fields["status"].(string); ok {
		return s
	}
	return "error"
}

// Message is the human-readable status text.
func (r *APIResult) Message() string {
	if m, ok := r.fields["message"].(string); ok {
		return m
	}
	return "unknown error"
}

// StatusCode is the HTTP status code of the exchange.
func (r *APIResult) StatusCode() int { return r.statusCode }

// IsSuccess requires both HTTP 200 and a "success" business status.
func (r *APIResult) IsSuccess() bool {
	return r.statusCode == 200 && r.Status() == "success"
}

// Raw is the exact JSON text received from the server.
func (r *APIResult) Raw() string { return r.raw }

// Get reads an arbitrary key from the decoded reply mapping, returning def
// when the key is absent.
func (r *APIResult) Get(key string, def any) any {
	if v, ok := r.fields[key]; ok {
		return v
	}
	return def
}

// ToMap returns a copy of the decoded reply mapping.
func (r *APIResult) ToMap() map[string]any {
	return maps.Clone(r.fields)
}

func (r *APIResult) String() string {
	return fmt.Sprintf("APIResult(status=%q, message=%q, status_code=%d)", r.Status(), r.Message(), r.statusCode)
}
