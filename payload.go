package adapterhub

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

type payloadKind int

const (
	payloadNone payloadKind = iota
	payloadText
	payloadObject
	payloadList
)

// Payload is the body of a topic message: exactly one of a raw text value,
// a structured object, or an ordered list. It marshals to the underlying
// JSON value, so a text payload is transmitted as a JSON string and the
// structured shapes keep arbitrary nesting intact.
type Payload struct {
	kind  payloadKind
	text  string
	value any
}

// Text builds a payload carrying the string as-is.
func Text(s string) Payload {
	return Payload{kind: payloadText, text: s}
}

// Object builds a payload from a structured mapping.
func Object(m map[string]any) Payload {
	return Payload{kind: payloadObject, value: m}
}

// List builds a payload from an ordered list.
func List(l []any) Payload {
	return Payload{kind: payloadList, value: l}
}

// NewPayload converts an arbitrary value into a Payload. Strings, maps,
// structs, slices and arrays are accepted; everything else is rejected so
// the wire shape stays within the supported string/object/list contract.
func NewPayload(v any) (Payload, error) {
	switch t := v.(type) {
	case nil:
		return Payload{}, errors.New("adapter hub: payload value is required")
	case Payload:
		return t, nil
	case string:
		return Text(t), nil
	case map[string]any:
		return Object(t), nil
	case []any:
		return List(t), nil
	}

	switch reflect.TypeOf(v).Kind() {
	case reflect.Map, reflect.Struct:
		return Payload{kind: payloadObject, value: v}, nil
	case reflect.Slice, reflect.Array:
		return Payload{kind: payloadList, value: v}, nil
	case reflect.Pointer:
		elem := reflect.ValueOf(v)
		if elem.IsNil() {
			return Payload{}, errors.New("adapter hub: payload value is required")
		}
		return NewPayload(elem.Elem().Interface())
	default:
		return Payload{}, fmt.Errorf("adapter hub: unsupported payload type %T", v)
	}
}

// IsZero reports whether the payload was never assigned a value.
func (p Payload) IsZero() bool {
	return p.kind == payloadNone
}

// MarshalJSON implements json.Marshaler.
func (p Payload) MarshalJSON() ([]byte, error) {
	switch p.kind {
	case payloadText:
		return json.Marshal(p.text)
	case payloadObject, payloadList:
		return json.Marshal(p.value)
	default:
		return nil, errors.New("adapter hub: payload is empty")
	}
}
