package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAuthExpired matches a 401 that survived the refresh cycle.
	ErrAuthExpired = errors.New("authentication expired")
	// ErrRefreshInvalid is terminal: the session could not be renewed and
	// was cleared.
	ErrRefreshInvalid = errors.New("session refresh rejected")
	// ErrNetwork wraps transport failures. These never trigger a refresh.
	ErrNetwork = errors.New("network failure")
	// ErrValidation matches 400 and 422 answers.
	ErrValidation = errors.New("validation failed")
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api: status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrAuthExpired:
		return e.StatusCode == http.StatusUnauthorized
	case ErrValidation:
		return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity
	}
	return false
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func apiErrorFrom(resp *Response) *APIError {
	e := &APIError{StatusCode: resp.StatusCode}
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(resp.Body, &body) == nil {
		e.Message = body.Message
		if e.Message == "" {
			e.Message = body.Error
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}
	return e
}
