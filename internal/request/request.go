// Package request turns an inbound /process payload into validated parameters.
package request

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"github.com/yourorg/llm-message-processor/internal/schema"
)

// Params are the normalized fields of one request.
type Params struct {
	Text     string
	ImageURL string // empty when absent
	Token    string
	Model    string

	OutputExample  json.RawMessage // nil when absent
	ResponseFormat json.RawMessage // nil when absent
}

// FieldError names the first missing required field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Message }

// Extract never fails: missing or mistyped string fields come back empty and
// optional fields come back absent.
func Extract(payload map[string]json.RawMessage) Params {
	return Params{
		Text:           stringField(payload, "text"),
		ImageURL:       stringField(payload, "image_url"),
		Token:          stringField(payload, "token"),
		Model:          stringField(payload, "model"),
		OutputExample:  rawField(payload, "output_example"),
		ResponseFormat: rawField(payload, "response_format"),
	}
}

// Validate checks text, token and model in that order and stops at the first
// failure.
func Validate(p Params) error {
	if p.Text == "" {
		return &FieldError{Field: "text", Message: "Field 'text' is required and cannot be empty"}
	}
	if p.Token == "" {
		return &FieldError{Field: "token", Message: "Field 'token' is required"}
	}
	if p.Model == "" {
		return &FieldError{Field: "model", Message: "Field 'model' is required"}
	}
	return nil
}

func (p Params) HasImage() bool { return p.ImageURL != "" }

// EffectiveResponseFormat picks the structured-output descriptor for the request.
// An output example wins over a pre-built descriptor; if the example cannot
// be converted the descriptor is used instead.
func (p Params) EffectiveResponseFormat(log zerolog.Logger) *openai.ChatCompletionResponseFormat {
	if p.OutputExample != nil {
		f, err := schema.ResponseFormatFromExample(p.OutputExample)
		if err == nil {
			return f
		}
		log.Debug().Err(err).Msg("output_example ignored")
	}
	if p.ResponseFormat != nil {
		f, err := schema.ParseResponseFormat(p.ResponseFormat)
		if err != nil {
			log.Warn().Err(err).Msg("response_format ignored")
			return nil
		}
		return f
	}
	return nil
}

func stringField(payload map[string]json.RawMessage, key string) string {
	raw, ok := payload[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func rawField(payload map[string]json.RawMessage, key string) json.RawMessage {
	raw, ok := payload[key]
	if !ok {
		return nil
	}
	if t := bytes.TrimSpace(raw); len(t) == 0 || bytes.Equal(t, []byte("null")) {
		return nil
	}
	return raw
}
