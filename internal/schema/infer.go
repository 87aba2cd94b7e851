// Package schema derives JSON Schemas from example values and builds the
// structured-output descriptors sent upstream.
package schema

import (
	"github.com/sashabaranov/go-openai/jsonschema"
)

// Infer describes the shape of v. Every key of every object becomes required.
// Arrays are described by their first element; an empty array is treated as
// an array of strings.
func Infer(v Value) jsonschema.Definition {
	switch v.Kind {
	case Object:
		props := make(map[string]jsonschema.Definition, len(v.Keys))
		required := make([]string, 0, len(v.Keys))
		for _, k := range v.Keys {
			props[k] = Infer(v.Fields[k])
			required = append(required, k)
		}
		return jsonschema.Definition{
			Type:       jsonschema.Object,
			Properties: props,
			Required:   required,
		}
	case Array:
		items := jsonschema.Definition{Type: jsonschema.String}
		if len(v.Items) > 0 {
			first := v.Items[0]
			if first.Kind == Object {
				items = Infer(first)
			} else {
				items = jsonschema.Definition{Type: scalarType(first.Kind)}
			}
		}
		// Items is a pointer, so go-openai's MarshalJSON runs on it and emits
		// "properties":{} even for scalar items. The upstream ignores it.
		return jsonschema.Definition{Type: jsonschema.Array, Items: &items}
	default:
		return jsonschema.Definition{Type: scalarType(v.Kind)}
	}
}

func scalarType(k Kind) jsonschema.DataType {
	switch k {
	case String:
		return jsonschema.String
	case Integer:
		return jsonschema.Integer
	case Number:
		return jsonschema.Number
	case Bool:
		return jsonschema.Boolean
	default:
		return jsonschema.String
	}
}
