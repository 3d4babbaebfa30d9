package openai

import (
	"net/http"

	"github.com/vajain-rhods/openvino-model-server/api"
)

// Error is the OpenAI-compatible error body nested under "error" in an
// ErrorResponse.
type Error struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   any    `json:"param"`
	Code    any    `json:"code"`
}

// ErrorResponse is what the HTTP surface writes when an invocation aborts.
type ErrorResponse struct {
	Error Error `json:"error"`
}

// statusForKind maps a core error Kind to an HTTP status.
func statusForKind(k api.Kind) int {
	switch k {
	case api.BadRequest:
		return http.StatusBadRequest
	case api.NotFound:
		return http.StatusNotFound
	case api.InvariantViolation:
		return http.StatusInternalServerError
	case api.EngineFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorType mirrors the OpenAI convention of naming the error type after
// its HTTP status class.
func errorType(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "invalid_request_error"
	case http.StatusNotFound:
		return "not_found_error"
	default:
		return "api_error"
	}
}

// NewErrorResponse builds the wire error body for a *api.StatusError.
func NewErrorResponse(err *api.StatusError) (int, ErrorResponse) {
	code := statusForKind(err.Kind)
	return code, ErrorResponse{Error: Error{
		Message: err.Message,
		Type:    errorType(code),
	}}
}
