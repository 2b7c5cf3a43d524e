package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ValidationIssue is one entry of a FastAPI validation error array.
type ValidationIssue struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// Location joins the location path with dots, e.g. "files.0.code".
func (v ValidationIssue) Location() string {
	parts := make([]string, len(v.Loc))
	for i, p := range v.Loc {
		parts[i] = fmt.Sprint(p)
	}
	return strings.Join(parts, ".")
}

// APIError is a non-2xx response from the backend or the identity provider.
type APIError struct {
	Status    int
	Detail    string
	Issues    []ValidationIssue
	RequestID string
}

func (e *APIError) Error() string {
	msg := e.Message()
	if msg == "" {
		msg = "no detail"
	}
	return fmt.Sprintf("backend: http %d: %s", e.Status, msg)
}

// Message renders the detail for display. Validation arrays become
// "Validation Error: loc: msg; loc: msg". Empty when the response carried no
// usable detail.
func (e *APIError) Message() string {
	if len(e.Issues) > 0 {
		parts := make([]string, len(e.Issues))
		for i, issue := range e.Issues {
			parts[i] = issue.Location() + ": " + issue.Msg
		}
		return "Validation Error: " + strings.Join(parts, "; ")
	}
	return e.Detail
}

// IsValidation reports whether the response carried structured field errors.
func (e *APIError) IsValidation() bool {
	return len(e.Issues) > 0
}

// DetailOr returns the rendered backend detail carried by err, or fallback
// when err is not an APIError or has no detail.
func DetailOr(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if msg := apiErr.Message(); msg != "" {
			return msg
		}
	}
	return fallback
}

func parseAPIError(status int, body []byte, requestID string) *APIError {
	apiErr := &APIError{Status: status, RequestID: requestID}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return apiErr
	}

	var detail string
	if err := json.Unmarshal(envelope.Detail, &detail); err == nil {
		apiErr.Detail = detail
		return apiErr
	}

	var issues []ValidationIssue
	if err := json.Unmarshal(envelope.Detail, &issues); err == nil {
		apiErr.Issues = issues
	}
	return apiErr
}
