package validation

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/emre/registrar/internal/app/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report violations under the JSON field name, not the Go field name
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Treat models.Date as its underlying time.Time so "required"
	// observes the zero value instead of diving into the struct
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(models.Date); ok {
			return d.Time
		}
		return nil
	}, models.Date{})

	return v
}

// FieldError names one offending field and a human-readable reason.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Student validates a full student record against the enrollment
// schema. Every rule is evaluated and every violation is returned, so
// a client sees all problems at once. A nil slice means the record is
// valid. Create and update run exactly the same checks.
func Student(student *models.Student) []FieldError {
	err := validate.Struct(student)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []FieldError{{Field: "", Message: "invalid payload"}}
	}

	fieldErrors := make([]FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fieldErrors = append(fieldErrors, FieldError{
			Field:   fe.Field(),
			Message: formatFieldError(fe),
		})
	}
	return fieldErrors
}

// DecodeStudent unmarshals a student payload and runs the full schema
// validation. A malformed birth date is not a decode failure: the rest
// of the payload is still validated and the format violation joins the
// field-error list, so the client sees every problem at once. The
// returned error is reserved for payloads that are not decodable at
// all.
func DecodeStudent(data []byte) (*models.Student, []FieldError, error) {
	var student models.Student
	err := json.Unmarshal(data, &student)
	if err == nil {
		return &student, Student(&student), nil
	}

	var dateErr *models.DateParseError
	if !errors.As(err, &dateErr) {
		return nil, nil, err
	}

	// Drop the malformed date and decode the remaining fields so they
	// still get the full validation pass.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, nil, err
	}
	delete(fields, "birthDate")
	rest, err := json.Marshal(fields)
	if err != nil {
		return nil, nil, err
	}
	if err := json.Unmarshal(rest, &student); err != nil {
		return nil, nil, err
	}

	fieldErrors := []FieldError{{Field: "birthDate", Message: dateErr.Error()}}
	for _, fe := range Student(&student) {
		// The zero date reads as a missing birthDate; the format
		// violation supersedes that report.
		if fe.Field == "birthDate" {
			continue
		}
		fieldErrors = append(fieldErrors, fe)
	}
	return nil, fieldErrors, nil
}

// formatFieldError creates a human-readable validation error message
func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "oneof":
		return fe.Field() + " must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	case "max":
		return fe.Field() + " must be at most " + fe.Param()
	default:
		return fe.Field() + " validation failed on rule: " + fe.Tag()
	}
}

// ParseBirthDate normalizes a raw birth date string to a Date value.
// Kept next to the schema rules so the accepted wire format has one
// definition.
func ParseBirthDate(value string) (models.Date, error) {
	t, err := time.Parse(models.DateFormat, value)
	if err != nil {
		return models.Date{}, err
	}
	return models.Date{Time: t}, nil
}
