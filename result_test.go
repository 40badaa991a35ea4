package adapterhub_test

import (
	"encoding/json"
	"reflect"
	"testing"

	adapterhub "github.com/9kl/lsyiot-adapter-hub-sdk"
)

func TestParseResultMinimumShape(t *testing.T) {
	invalid := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"not json", "plain text"},
		{"array", `[{"code":200}]`},
		{"missing code", `{"message":"ok"}`},
		{"string code", `{"code":"200","message":"ok"}`},
		{"fractional code", `{"code":200.25,"message":"ok"}`},
		{"missing message", `{"code":200}`},
		{"non-string message", `{"code":200,"message":42}`},
	}

	for _, tc := range invalid {
		if _, err := adapterhub.ParseResult(tc.raw); err == nil {
			t.Fatalf("%s: expected parse error for %q", tc.name, tc.raw)
		}
	}
}

func TestParseResultFields(t *testing.T) {
	raw := `{"code":200,"message":"ok","data":{"value":25.5},"trace_id":"abc"}`
	result, err := adapterhub.ParseResult(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if result.Code() != 200 || result.Message() != "ok" {
		t.Fatalf("unexpected envelope: code=%d message=%q", result.Code(), result.Message())
	}
	if !result.IsSuccess() || result.IsError() {
		t.Fatalf("expected success")
	}
	if result.Raw() != raw {
		t.Fatalf("raw not preserved: %q", result.Raw())
	}
	if got := result.Get("trace_id", nil); got != "abc" {
		t.Fatalf("expected extra field via Get, got %v", got)
	}
	if got := result.Get("missing", "fallback"); got != "fallback" {
		t.Fatalf("expected default for missing key, got %v", got)
	}
}

func TestResultErrorDerivation(t *testing.T) {
	for _, code := range []int{200, -1, 0, 500, 201} {
		raw, err := json.Marshal(map[string]any{"code": code, "message": "m"})
		if err != nil {
			t.Fatalf("marshal fixture: %v", err)
		}
		result, err := adapterhub.ParseResult(string(raw))
		if err != nil {
			t.Fatalf("parse code %d: %v", code, err)
		}
		if result.IsError() == result.IsSuccess() {
			t.Fatalf("code %d: IsError must be the negation of IsSuccess", code)
		}
		if result.IsSuccess() != (code == 200) {
			t.Fatalf("code %d: unexpected success derivation", code)
		}
	}
}

func TestResultRoundTrip(t *testing.T) {
	raw := `{"code":-1,"message":"rule not found","data":[1,2,3]}`
	result, err := adapterhub.ParseResult(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	m := result.ToMap()
	if m["code"] != float64(-1) || m["message"] != "rule not found" {
		t.Fatalf("round-trip mismatch: %#v", m)
	}
	if !reflect.DeepEqual(m["data"], []any{1.0, 2.0, 3.0}) {
		t.Fatalf("data mismatch: %#v", m["data"])
	}

	// Raw must itself be JSON that decodes to the same structure.
	var decoded map[string]any
	if err := json.Unmarshal([]byte(result.Raw()), &decoded); err != nil {
		t.Fatalf("raw is not valid json: %v", err)
	}
	if !reflect.DeepEqual(decoded, m) {
		t.Fatalf("raw decodes to %#v, ToMap is %#v", decoded, m)
	}

	// Mutating the copy must not leak into the result.
	m["message"] = "mutated"
	if result.Message() != "rule not found" {
		t.Fatalf("ToMap must return a copy")
	}
}
