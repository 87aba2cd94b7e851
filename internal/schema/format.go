package schema

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

const exampleSchemaName = "response_schema"

var ErrExampleNotObject = errors.New("schema: output example must be a JSON object")

// ResponseFormatFromExample infers a schema from an example document and
// wraps it as a json_schema response format.
func ResponseFormatFromExample(raw json.RawMessage) (*openai.ChatCompletionResponseFormat, error) {
	v, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("schema: decode output example: %w", err)
	}
	if v.Kind != Object {
		return nil, fmt.Errorf("%w, got %s", ErrExampleNotObject, v.Kind)
	}
	def := Infer(v)
	return &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:   exampleSchemaName,
			Schema: &def,
			Strict: false,
		},
	}, nil
}

type formatDescriptor struct {
	Type       string `json:"type"`
	JSONSchema *struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Schema      json.RawMessage `json:"schema"`
		Strict      bool            `json:"strict"`
	} `json:"json_schema"`
}

// ParseResponseFormat converts a caller-built descriptor such as
// {"type":"json_schema","json_schema":{"name":"x","schema":{...}}}.
// The schema body is forwarded untouched.
func ParseResponseFormat(raw json.RawMessage) (*openai.ChatCompletionResponseFormat, error) {
	var d formatDescriptor
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("schema: decode response_format: %w", err)
	}
	typ := openai.ChatCompletionResponseFormatType(d.Type)
	switch typ {
	case openai.ChatCompletionResponseFormatTypeJSONSchema:
		if d.JSONSchema == nil || len(d.JSONSchema.Schema) == 0 {
			return nil, errors.New("schema: response_format json_schema.schema is required")
		}
		name := d.JSONSchema.Name
		if name == "" {
			name = exampleSchemaName
		}
		return &openai.ChatCompletionResponseFormat{
			Type: typ,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        name,
				Description: d.JSONSchema.Description,
				Schema:      d.JSONSchema.Schema,
				Strict:      d.JSONSchema.Strict,
			},
		}, nil
	case openai.ChatCompletionResponseFormatTypeJSONObject, openai.ChatCompletionResponseFormatTypeText:
		return &openai.ChatCompletionResponseFormat{Type: typ}, nil
	default:
		return nil, fmt.Errorf("schema: unsupported response_format type %q", d.Type)
	}
}

// IsStructured reports whether f asks the upstream for JSON output.
func IsStructured(f *openai.ChatCompletionResponseFormat) bool {
	return f != nil && f.Type != openai.ChatCompletionResponseFormatTypeText
}
