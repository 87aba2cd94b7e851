// Package envelope shapes invoker results and failures into the JSON bodies
// the service returns.
package envelope

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/yourorg/llm-message-processor/internal/completion"
	"github.com/yourorg/llm-message-processor/internal/request"
)

type Success struct {
	Success   bool             `json:"success"`
	Response  any              `json:"response"`
	ModelUsed string           `json:"model_used"`
	HasImage  bool             `json:"has_image"`
	Usage     completion.Usage `json:"usage"`
}

type Error struct {
	Error              string   `json:"error"`
	AvailableEndpoints []string `json:"available_endpoints,omitempty"`
}

// NewSuccess wraps a completion. For structured requests, content that parses
// as JSON is returned as that JSON value; anything else stays a string.
func NewSuccess(res completion.Result, model string, hasImage, structured bool) Success {
	var response any = res.Content
	if structured {
		if b := []byte(strings.TrimSpace(res.Content)); len(b) > 0 && json.Valid(b) {
			response = json.RawMessage(b)
		}
	}
	return Success{
		Success:   true,
		Response:  response,
		ModelUsed: model,
		HasImage:  hasImage,
		Usage:     res.Usage,
	}
}

// FromError maps a pipeline failure to a status and body. Field and
// precondition errors are the caller's fault; everything else is ours.
func FromError(err error) (int, Error) {
	var fe *request.FieldError
	if errors.As(err, &fe) {
		return http.StatusBadRequest, Error{Error: fe.Error()}
	}
	var pe *completion.PreconditionError
	if errors.As(err, &pe) {
		return http.StatusBadRequest, Error{Error: pe.Error()}
	}
	return http.StatusInternalServerError, Error{Error: "Error during processing: " + err.Error()}
}

// Message is an error body with a fixed message.
func Message(msg string) Error {
	return Error{Error: msg}
}

// NotFound is the 404 body.
func NotFound() Error {
	return Error{
		Error: "Endpoint not found",
		AvailableEndpoints: []string{
			"GET /health - server health check",
			"POST /process - process messages",
			"GET /models - available models",
		},
	}
}

// MethodNotAllowed is the 405 body.
func MethodNotAllowed() Error {
	return Error{Error: "HTTP method not allowed for this endpoint"}
}
