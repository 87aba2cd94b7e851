package completion

// PreconditionError is a local input problem detected before any network call.
type PreconditionError struct {
	Message string
}

func (e *PreconditionError) Error() string { return e.Message }

var (
	errNoToken = &PreconditionError{Message: "Authorization token is required"}
	errNoText  = &PreconditionError{Message: "Message text is required"}
	errNoModel = &PreconditionError{Message: "Model parameter is required"}
)

// UpstreamError wraps any failure talking to the completion API.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return "Error during OpenAI communication: " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error { return e.Err }
