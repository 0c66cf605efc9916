// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// Described is implemented by errors that carry a user-facing message and remediation hint.
type Described interface {
	error
	Describe() (message, action string)
}

// Error pairs a sentinel kind with the text shown to API clients.
type Error struct {
	Kind    error
	Message string
	Action  string
}

// NewError builds an Error of the given sentinel kind.
func NewError(kind error, message, action string) *Error {
	return &Error{Kind: kind, Message: message, Action: action}
}

func (e *Error) Error() string {
	if e.Kind == nil {
		return e.Message
	}
	return e.Kind.Error() + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Kind }

// Describe implements Described.
func (e *Error) Describe() (string, string) { return e.Message, e.Action }

// Common client-facing errors.
var (
	errForbiddenDefault = NewError(ErrForbidden,
		"You do not have permission to perform this action.",
		"Check that your user holds the required feature.")
	errInternalDefault = NewError(nil,
		"An unexpected internal error occurred.",
		"Contact support.")
)

// Forbidden builds the standard permission error naming the missing feature.
func Forbidden(feature string) *Error {
	return NewError(ErrForbidden,
		"You do not have permission to perform this action.",
		`Check that your user holds the feature "`+feature+`".`)
}

// ForbiddenEither builds the permission error for a check with an ownership escalation.
func ForbiddenEither(feature, alternative string) *Error {
	return NewError(ErrForbidden,
		"You do not have permission to perform this action.",
		`Check the feature "`+feature+`" or "`+alternative+`".`)
}

// RespondError maps domain errors to HTTP responses.
func RespondError(w http.ResponseWriter, err error) {
	status, name := classify(err)
	message, action := describe(err, status)
	JSON(w, status, ErrorBody{
		Name:       name,
		Message:    message,
		Action:     action,
		StatusCode: status,
	})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "NotFoundError"
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict, "ConflictError"
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, "ValidationError"
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, "ForbiddenError"
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "UnauthorizedError"
	default:
		return http.StatusInternalServerError, "InternalServerError"
	}
}

func describe(err error, status int) (string, string) {
	var d Described
	if status != http.StatusInternalServerError && errors.As(err, &d) {
		return d.Describe()
	}
	switch status {
	case http.StatusForbidden:
		return errForbiddenDefault.Describe()
	case http.StatusInternalServerError:
		return errInternalDefault.Describe()
	default:
		return err.Error(), ""
	}
}
