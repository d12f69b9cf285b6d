package eventsvc

import (
	"errors"
	"fmt"
)

// ErrNetwork marks transport-level failures: the service could not be
// reached or the response could not be read. The cache is left in its
// prior state; the caller decides how to surface it.
var ErrNetwork = errors.New("event service unreachable")

// ErrNotFound is the decoded NOT_FOUND rejection, split out because
// callers routinely branch on it.
var ErrNotFound = errors.New("event not found")

// ServiceError is a structured rejection returned by the event service
// (validation failure, conflict, ...). The server-provided detail is
// preserved verbatim.
type ServiceError struct {
	StatusCode int
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Fields     map[string]any `json:"fields,omitempty"`
}

func (e *ServiceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("event service: %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("event service: HTTP %d: %s", e.StatusCode, e.Message)
}

// Is makes NOT_FOUND rejections match ErrNotFound via errors.Is.
func (e *ServiceError) Is(target error) bool {
	return target == ErrNotFound && e.Code == "NOT_FOUND"
}
