package errors

import (
	"fmt"
	"net/http"
)

// StatusReason Machine-readable classification of a failed operation
type StatusReason string

const (
	// StatusFailure Value of Status.Status for every error produced here
	StatusFailure = "Failure"

	// StatusReasonTransport The server answered with a non-success status
	StatusReasonTransport StatusReason = "Transport"

	// StatusReasonValidation The caller supplied invalid input
	StatusReasonValidation StatusReason = "Validation"

	// StatusReasonNotInitialized A job type was used before its schema was resolved
	StatusReasonNotInitialized StatusReason = "NotInitialized"

	// StatusReasonStateMismatch The operation is not valid for the job's current state
	StatusReasonStateMismatch StatusReason = "StateMismatch"

	// StatusReasonNotFound The requested resource does not exist on the cluster
	StatusReasonNotFound StatusReason = "NotFound"

	// StatusReasonUnknown Anything that fits no other reason
	StatusReasonUnknown StatusReason = "Unknown"
)

// Status Describes a failed operation
type Status struct {
	Status  string       `json:"status"`
	Reason  StatusReason `json:"reason"`
	Code    int          `json:"code"`
	Message string       `json:"message"`

	// Body Raw response body of a transport failure; the server has no
	// structured error schema, so the text is carried as-is
	Body string `json:"body,omitempty"`
}

// APIStatus Errors that carry a Status
type APIStatus interface {
	Status() *Status
}

// StatusError Error implementation wrapping a Status
type StatusError struct {
	ErrStatus Status
}

var _ error = &StatusError{}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return e.ErrStatus.Message
}

// Status implements the APIStatus interface.
func (e *StatusError) Status() *Status {
	return &e.ErrStatus
}

// NewTransport A non-success response from the cluster; body is the raw
// response text
func NewTransport(code int, body string) *StatusError {
	return &StatusError{
		Status{
			Status:  StatusFailure,
			Reason:  StatusReasonTransport,
			Code:    code,
			Message: fmt.Sprintf("server responded with status %d", code),
			Body:    body,
		},
	}
}

// NewNotFound A 404 from the cluster; body is the raw response text
func NewNotFound(body string) *StatusError {
	return &StatusError{
		Status{
			Status:  StatusFailure,
			Reason:  StatusReasonNotFound,
			Code:    http.StatusNotFound,
			Message: "requested resource not found",
			Body:    body,
		},
	}
}

// NewValidation Invalid caller input, detected before any request is sent
func NewValidation(message string) *StatusError {
	return &StatusError{
		Status{
			Status:  StatusFailure,
			Reason:  StatusReasonValidation,
			Code:    http.StatusUnprocessableEntity,
			Message: message,
		},
	}
}

// NewValidationf NewValidation with a format string
func NewValidationf(format string, args ...any) *StatusError {
	return NewValidation(fmt.Sprintf(format, args...))
}

// NewNotInitialized A job type was used before Initialize resolved its schema
func NewNotInitialized(kind string) *StatusError {
	return &StatusError{
		Status{
			Status:  StatusFailure,
			Reason:  StatusReasonNotInitialized,
			Code:    http.StatusPreconditionFailed,
			Message: fmt.Sprintf("%s is not initialized, call Initialize() first", kind),
		},
	}
}

// NewStateMismatch The operation requires a job state other than the current one
func NewStateMismatch(wanted, actual string) *StatusError {
	return &StatusError{
		Status{
			Status:  StatusFailure,
			Reason:  StatusReasonStateMismatch,
			Code:    http.StatusConflict,
			Message: fmt.Sprintf("operation requires job state %s, current state is %s", wanted, actual),
		},
	}
}

// NewUnknown Any other failure
func NewUnknown(err error) *StatusError {
	return &StatusError{
		Status{
			Status:  StatusFailure,
			Reason:  StatusReasonUnknown,
			Code:    http.StatusInternalServerError,
			Message: err.Error(),
		},
	}
}

// NewFromError Coerces any error into a StatusError
func NewFromError(err error) *StatusError {
	switch t := err.(type) {
	case *StatusError:
		return t
	case APIStatus:
		return &StatusError{ErrStatus: *t.Status()}
	default:
		return NewUnknown(err)
	}
}

// ReasonForError The StatusReason of err, or StatusReasonUnknown
func ReasonForError(err error) StatusReason {
	switch t := err.(type) {
	case APIStatus:
		return t.Status().Reason
	default:
		return StatusReasonUnknown
	}
}
