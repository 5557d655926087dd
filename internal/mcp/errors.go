package mcp

import (
	"errors"
	"fmt"
	"time"

	"github.com/mwhitt/impltrack-mcp/internal/access"
	"github.com/mwhitt/impltrack-mcp/internal/domain/identity"
	"github.com/mwhitt/impltrack-mcp/internal/domain/implementation"
	"github.com/mwhitt/impltrack-mcp/internal/ratelimit"
	"github.com/mwhitt/impltrack-mcp/internal/salesforce"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes. Every error leaving a
// tool handler goes through here; an unmapped error becomes REMOTE_ERROR
// rather than leaking internals.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}

	var authErr *salesforce.AuthError
	var transportErr *salesforce.TransportError
	var notFoundErr *salesforce.NotFoundError
	var remoteValErr *salesforce.RemoteValidationError
	var remoteErr *salesforce.RemoteError
	var identityErr *identity.Error
	var validationErr *implementation.ValidationError
	var ambiguousErr *implementation.AmbiguousNameError
	var unknownQueryErr *implementation.UnknownQueryError
	var rateErr *ratelimit.Error
	var deniedErr *access.DeniedError

	switch {
	case errors.As(err, &rateErr):
		return &APIError{
			Code:         "RATE_LIMITED",
			Message:      rateErr.Error(),
			RecoveryHint: fmt.Sprintf("Wait %s and try again", rateErr.RetryAfter.Round(time.Second)),
		}
	case errors.As(err, &validationErr):
		return &APIError{
			Code:         "VALIDATION_FAILED",
			Message:      validationErr.Error(),
			Details:      validationErr.Problems,
			RecoveryHint: "Correct the listed fields and retry",
		}
	case errors.As(err, &deniedErr):
		return &APIError{
			Code:    "ACCESS_DENIED",
			Message: deniedErr.Error(),
		}
	case errors.As(err, &identityErr):
		return &APIError{
			Code:         "IDENTITY_UNRESOLVED",
			Message:      identityErr.Error(),
			RecoveryHint: "Check that SF_USER_EMAIL matches an active Salesforce user",
		}
	case errors.As(err, &ambiguousErr):
		return &APIError{
			Code:         "AMBIGUOUS_NAME",
			Message:      ambiguousErr.Error(),
			RecoveryHint: "Retry with the 15- or 18-character record ID",
		}
	case errors.As(err, &unknownQueryErr):
		return &APIError{
			Code:    "VALIDATION_FAILED",
			Message: unknownQueryErr.Error(),
		}
	case errors.As(err, &notFoundErr):
		return &APIError{
			Code:         "NOT_FOUND",
			Message:      notFoundErr.Error(),
			RecoveryHint: "Check the record name or ID spelling",
		}
	case errors.As(err, &remoteValErr):
		return &APIError{
			Code:    "VALIDATION_FAILED",
			Message: remoteValErr.Error(),
			Details: remoteValErr.Errors,
		}
	case errors.As(err, &authErr):
		return &APIError{
			Code:         "AUTH_FAILED",
			Message:      "Salesforce authentication failed",
			RecoveryHint: "Check SF_CLIENT_ID and SF_CLIENT_SECRET",
		}
	case errors.As(err, &transportErr):
		return &APIError{
			Code:         "TRANSPORT_ERROR",
			Message:      transportErr.Error(),
			RecoveryHint: "Check connectivity to the Salesforce instance and retry",
		}
	case errors.As(err, &remoteErr):
		return &APIError{
			Code:    "REMOTE_ERROR",
			Message: remoteErr.Error(),
		}
	default:
		return &APIError{Code: "REMOTE_ERROR", Message: err.Error()}
	}
}
