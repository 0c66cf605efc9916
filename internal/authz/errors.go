package authz

import (
	"errors"
	"strings"

	"github.com/rentdesk/rentdesk/internal/platform/httpx"
)

// Kind classifies an authorization failure.
type Kind int

const (
	// KindMissingContext means the principal or its feature list was absent.
	KindMissingContext Kind = iota + 1
	// KindUnknownFeature means the feature is empty or not in the catalog.
	KindUnknownFeature
	// KindInvalidInput means the input map was empty or carried a forbidden field.
	KindInvalidInput
	// KindForbidden means the input carried a field the principal may not set.
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindMissingContext:
		return "missing_context"
	case KindUnknownFeature:
		return "unknown_feature"
	case KindInvalidInput:
		return "invalid_input"
	case KindForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Sentinels matched by errors.Is against any *Error of the same kind.
var (
	ErrMissingContext = errors.New("authz: missing principal context")
	ErrUnknownFeature = errors.New("authz: unknown feature")
	ErrInvalidInput   = errors.New("authz: invalid input")
	ErrForbidden      = errors.New("authz: forbidden")
)

// Error is returned by Engine operations.
type Error struct {
	Kind    Kind
	Feature string
	Field   string
	Message string
	Action  string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("authz: ")
	b.WriteString(e.Kind.String())
	if e.Feature != "" {
		b.WriteString(" feature=")
		b.WriteString(e.Feature)
	}
	if e.Field != "" {
		b.WriteString(" field=")
		b.WriteString(e.Field)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is matches the kind sentinel and the httpx sentinel used for the response status.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindMissingContext:
		return target == ErrMissingContext || target == httpx.ErrValidation
	case KindUnknownFeature:
		return target == ErrUnknownFeature || target == httpx.ErrValidation
	case KindInvalidInput:
		return target == ErrInvalidInput || target == httpx.ErrValidation
	case KindForbidden:
		return target == ErrForbidden || target == httpx.ErrForbidden
	}
	return false
}

// Describe implements httpx.Described.
func (e *Error) Describe() (string, string) {
	return e.Message, e.Action
}

// KindOf extracts the Kind of err, or zero when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func missingContext(feature, detail string) *Error {
	return &Error{
		Kind:    KindMissingContext,
		Feature: feature,
		Message: detail,
		Action:  "Make sure the request carries an authenticated or anonymous user.",
	}
}

func unknownFeature(feature, detail string) *Error {
	return &Error{
		Kind:    KindUnknownFeature,
		Feature: feature,
		Message: detail,
		Action:  "Use a feature declared in the catalog.",
	}
}

func emptyInput(feature string) *Error {
	return &Error{
		Kind:    KindInvalidInput,
		Feature: feature,
		Message: "No value was provided.",
		Action:  "Send at least one valid field to perform this operation.",
	}
}

func forbiddenField(feature, field string) *Error {
	return &Error{
		Kind:    KindInvalidInput,
		Feature: feature,
		Field:   field,
		Message: `Updating the field "` + field + `" is not allowed.`,
		Action:  `Remove the field "` + field + `" and try again.`,
	}
}

func guardedField(feature, field, guard string) *Error {
	return &Error{
		Kind:    KindForbidden,
		Feature: feature,
		Field:   field,
		Message: `You do not have permission to set the field "` + field + `".`,
		Action:  `Remove the field "` + field + `" or request the feature "` + guard + `".`,
	}
}

func mixedFields(feature, field, extra string) *Error {
	return &Error{
		Kind:    KindForbidden,
		Feature: feature,
		Field:   extra,
		Message: `The field "` + field + `" must be updated on its own.`,
		Action:  `Remove the field "` + extra + `" or request a broader feature.`,
	}
}
