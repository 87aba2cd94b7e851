package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/llm-message-processor/internal/completion"
	"github.com/yourorg/llm-message-processor/internal/request"
)

var usage = completion.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}

func encode(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestNewSuccess_PlainText(t *testing.T) {
	s := NewSuccess(completion.Result{Content: `{"a":1}`, Usage: usage}, "gpt-4o", false, false)
	assert.JSONEq(t, `{
		"success": true,
		"response": "{\"a\":1}",
		"model_used": "gpt-4o",
		"has_image": false,
		"usage": {"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}
	}`, encode(t, s))
}

func TestNewSuccess_StructuredParsed(t *testing.T) {
	s := NewSuccess(completion.Result{Content: ` {"city":"Oslo","temps":[1,2]} `, Usage: usage}, "gpt-4o", true, true)
	assert.JSONEq(t, `{
		"success": true,
		"response": {"city":"Oslo","temps":[1,2]},
		"model_used": "gpt-4o",
		"has_image": true,
		"usage": {"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}
	}`, encode(t, s))
}

func TestNewSuccess_StructuredFallsBackToString(t *testing.T) {
	for _, content := range []string{"not json", "", `{"open":`} {
		s := NewSuccess(completion.Result{Content: content}, "m", false, true)
		assert.Equal(t, content, s.Response)
	}
}

func TestFromError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"field", &request.FieldError{Field: "token", Message: "Field 'token' is required"}, http.StatusBadRequest, "Field 'token' is required"},
		{"precondition", &completion.PreconditionError{Message: "Model parameter is required"}, http.StatusBadRequest, "Model parameter is required"},
		{"upstream", &completion.UpstreamError{Err: errors.New("boom")}, http.StatusInternalServerError, "Error during processing: Error during OpenAI communication: boom"},
		{"wrapped field", fmt.Errorf("ctx: %w", &request.FieldError{Message: "Field 'text' is required and cannot be empty"}), http.StatusBadRequest, "Field 'text' is required and cannot be empty"},
		{"other", errors.New("disk on fire"), http.StatusInternalServerError, "Error during processing: disk on fire"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := FromError(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.msg, body.Error)
		})
	}
}

func TestFixedBodies(t *testing.T) {
	body := NotFound()
	assert.Equal(t, "Endpoint not found", body.Error)
	assert.Len(t, body.AvailableEndpoints, 3)

	assert.JSONEq(t, `{"error":"HTTP method not allowed for this endpoint"}`, encode(t, MethodNotAllowed()))
	assert.JSONEq(t, `{"error":"No JSON data in request"}`, encode(t, Message("No JSON data in request")))
}
