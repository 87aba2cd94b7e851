package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

type Kind int

const (
	Null Kind = iota
	Bool
	Integer
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Integer:
		return "integer"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Value is a decoded JSON value that remembers object key order.
type Value struct {
	Kind Kind

	Bool bool
	Num  json.Number
	Str  string

	Items []Value

	// Keys holds object keys in first-seen order; Fields holds their values.
	Keys   []string
	Fields map[string]Value
}

// Field returns the value stored under key and whether it exists.
func (v Value) Field(key string) (Value, bool) {
	f, ok := v.Fields[key]
	return f, ok
}

// Decode parses a single JSON document.
func Decode(raw []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, errors.New("schema: trailing data after JSON value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case nil:
		return Value{Kind: Null}, nil
	case bool:
		return Value{Kind: Bool, Bool: t}, nil
	case string:
		return Value{Kind: String, Str: t}, nil
	case json.Number:
		if strings.ContainsAny(t.String(), ".eE") {
			return Value{Kind: Number, Num: t}, nil
		}
		return Value{Kind: Integer, Num: t}, nil
	case json.Delim:
		switch t {
		case '[':
			return decodeArray(dec)
		case '{':
			return decodeObject(dec)
		}
	}
	return Value{}, fmt.Errorf("schema: unexpected token %v", tok)
}

func decodeArray(dec *json.Decoder) (Value, error) {
	out := Value{Kind: Array, Items: []Value{}}
	for dec.More() {
		item, err := decodeValue(dec)
		if err != nil {
			return Value{}, err
		}
		out.Items = append(out.Items, item)
	}
	if _, err := dec.Token(); err != nil { // ]
		return Value{}, err
	}
	return out, nil
}

func decodeObject(dec *json.Decoder) (Value, error) {
	out := Value{Kind: Object, Keys: []string{}, Fields: map[string]Value{}}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return Value{}, fmt.Errorf("schema: object key %v is not a string", tok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return Value{}, err
		}
		if _, seen := out.Fields[key]; !seen {
			out.Keys = append(out.Keys, key)
		}
		out.Fields[key] = val
	}
	if _, err := dec.Token(); err != nil { // }
		return Value{}, err
	}
	return out, nil
}
