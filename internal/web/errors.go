package web

// errors.go turns handler errors into responses.
//
// The data layer has already logged the technical detail of any database
// failure under an op_id; here the error is logged once more with the
// request id and mapped to a status and a user message:
//
//	ValidationErrors  400
//	ErrNotFound       404
//	ErrInsertFailed   422
//	ErrUpdateFailed   422
//	deadline exceeded 504
//	anything else     500

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/carbot/internal/core"
	"github.com/JonMunkholm/carbot/internal/logging"
	"github.com/JonMunkholm/carbot/internal/schema"
)

// errBadRequest marks malformed input that is not a field validation error.
var errBadRequest = errors.New("bad request")

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Action  string            `json:"action,omitempty"`
	Code    string            `json:"code"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var verrs schema.ValidationErrors
	switch {
	case errors.As(err, &verrs), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInsertFailed), errors.Is(err, core.ErrUpdateFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err with the request context and writes a user-facing
// response in JSON for API routes and plain text otherwise.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", resp.Code,
		"error", err.Error(),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Info("request error", attrs...)
	}

	if wantsJSON(r) {
		writeJSONStatus(w, status, resp)
		return
	}
	http.Error(w, resp.Message+" ("+resp.Code+")", status)
}

func errorResponse(err error) ErrorResponse {
	var verrs schema.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, v := range verrs {
			fields[v.Field] = v.Message
		}
		return ErrorResponse{
			Error:   "validation failed",
			Message: "Some values are invalid",
			Action:  "Correct the listed fields and try again",
			Code:    "REQ400",
			Fields:  fields,
		}
	}

	if errors.Is(err, errBadRequest) {
		return ErrorResponse{
			Error:   err.Error(),
			Message: "The request could not be read",
			Action:  "Send a JSON object with string values",
			Code:    "REQ400",
		}
	}

	msg := core.MapError(err)
	return ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
}

// wantsJSON checks if the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
