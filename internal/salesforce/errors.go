package salesforce

import (
	"fmt"
	"strings"
)

// AuthError indicates the token endpoint rejected the client credentials,
// or an authenticated call kept failing after a fresh token was acquired.
type AuthError struct {
	Status int
	Body   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("salesforce auth failed (status %d): %s", e.Status, e.Body)
}

// TransportError wraps a network-level failure or timeout. Calls that fail
// this way are not retried; the remote operation may or may not have run.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("salesforce %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NotFoundError indicates the referenced record does not exist.
type NotFoundError struct {
	Object string
	Ref    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s found for %q", e.Object, e.Ref)
}

// RemoteValidationError carries field-level rejections from a 400 response,
// with the remote field names and messages verbatim.
type RemoteValidationError struct {
	Errors []APIErrorDetail
}

// APIErrorDetail is one element of Salesforce's structured error array.
type APIErrorDetail struct {
	Message   string   `json:"message"`
	ErrorCode string   `json:"errorCode"`
	Fields    []string `json:"fields"`
}

func (e *RemoteValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, d := range e.Errors {
		if len(d.Fields) > 0 {
			msgs = append(msgs, fmt.Sprintf("%s (%s)", d.Message, strings.Join(d.Fields, ", ")))
		} else {
			msgs = append(msgs, d.Message)
		}
	}
	return "salesforce rejected the request: " + strings.Join(msgs, "; ")
}

// FieldNames returns every field named across the error details.
func (e *RemoteValidationError) FieldNames() []string {
	var fields []string
	for _, d := range e.Errors {
		fields = append(fields, d.Fields...)
	}
	return fields
}

// RemoteError covers any other non-success response (5xx and the like).
type RemoteError struct {
	Status int
	Body   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("salesforce error (status %d): %s", e.Status, e.Body)
}
