package httpx

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// NewValidator returns a validator reporting fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateStruct runs v against s and converts the first failure into a client-facing Error.
func ValidateStruct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	return NewError(ErrValidation, fieldMessage(fe), `Check the field "`+fe.Field()+`" and try again.`)
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return `The field "` + field + `" is required.`
	case "oneof":
		return `The field "` + field + `" must be one of: ` + strings.ReplaceAll(fe.Param(), " ", ", ") + "."
	case "email":
		return `The field "` + field + `" must be a valid email.`
	case "gte", "lte", "min", "max":
		return `The field "` + field + `" is out of range.`
	case "uuid", "uuid4":
		return `The field "` + field + `" must be a valid id.`
	default:
		return `The field "` + field + `" is invalid.`
	}
}

// PathUUID reads a chi URL parameter and validates it as a UUID.
func PathUUID(r *http.Request, name, resource string) (string, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", NewError(ErrValidation,
			"The "+resource+" id is invalid.",
			"Check the "+resource+" id and try again.")
	}
	return id.String(), nil
}

// IsUUID reports whether s parses as a UUID.
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// RejectNulls fails when a field outside nullable is present with a JSON null value.
func RejectNulls(fields map[string]any, nullable ...string) error {
	for key, value := range fields {
		if value != nil {
			continue
		}
		allowed := false
		for _, n := range nullable {
			if n == key {
				allowed = true
				break
			}
		}
		if !allowed {
			return NewError(ErrValidation,
				`The field "`+key+`" cannot be null.`,
				`Send a value for "`+key+`" or remove it.`)
		}
	}
	return nil
}
