package http

import (
	"net/http"

	"github.com/go-chi/render"
)

// Error codes returned in APIError.ErrorCode.
const (
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeValidationFailed  = "VALIDATION_FAILED"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeConvergenceFailed = "CONVERGENCE_FAILED"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeRateLimited       = "RATE_LIMITED"
	CodeInternal          = "INTERNAL_ERROR"
)

// APIError is the JSON body of every non-2xx response from the /v1 routes.
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer.
func (e *APIError) Render(_ http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	if e.RequestID == "" {
		e.RequestID = GetRequestID(r.Context())
	}
	return nil
}

// FieldError names one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func newAPIError(status int, code, message string) *APIError {
	return &APIError{StatusCode: status, ErrorCode: code, Message: message}
}

func writeError(w http.ResponseWriter, r *http.Request, e *APIError) {
	render.Render(w, r, e) //nolint:errcheck // Render never fails for APIError
}
