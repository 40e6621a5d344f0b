// Package validation checks request payloads against declarative schemas.
//
// A schema is a struct type whose fields carry `validate` tags
// (github.com/go-playground/validator/v10 syntax) and, for path parameters,
// `param` tags. A schema may implement Defaulter to fill optional fields
// before the constraints run.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"habit_tracker/internal/common"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError is one failed constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error lists every failed constraint of a payload.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *Error) Unwrap() error { return common.ErrValidation }

// Details exposes the field list to the HTTP error responder.
func (e *Error) Details() any { return e.Fields }

// Defaulter is implemented by schemas with optional fields that have defaults.
type Defaulter interface {
	ApplyDefaults()
}

// OptionalBody is implemented by schemas whose fields are all optional. An
// empty request body then decodes as an empty object instead of failing.
type OptionalBody interface {
	OptionalBody()
}

// Validator is safe for concurrent use; build one per process.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(fieldName)
	return &Validator{v: v}
}

// fieldName reports fields by their wire name: json tag for bodies, param
// tag for path parameters.
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "param"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// DecodeJSON decodes a request body into dst (a pointer to a schema) and
// validates it. Malformed JSON and type mismatches are reported as
// validation errors, not as server errors.
func (v *Validator) DecodeJSON(r io.Reader, dst any) error {
	dec := json.NewDecoder(r)
	if err := dec.Decode(dst); err != nil {
		if _, ok := dst.(OptionalBody); !ok || !errors.Is(err, io.EOF) {
			return decodeError(err)
		}
	}
	return v.Struct(dst)
}

// Struct applies declared defaults and then every constraint on dst.
func (v *Validator) Struct(dst any) error {
	if d, ok := dst.(Defaulter); ok {
		d.ApplyDefaults()
	}
	err := v.v.Struct(dst)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate %T: %w", dst, err)
	}
	out := &Error{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   namespace(fe),
			Message: message(fe),
		})
	}
	return out
}

// Params fills the `param`-tagged string fields of dst from values and
// validates the result. Missing parameters stay empty and fail `required`.
func (v *Validator) Params(values map[string]string, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("params target must be a pointer to struct, got %T", dst)
	}
	rv = rv.Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		name := rt.Field(i).Tag.Get("param")
		if name == "" {
			continue
		}
		field := rv.Field(i)
		if field.Kind() != reflect.String || !field.CanSet() {
			return fmt.Errorf("param field %s must be an exported string", rt.Field(i).Name)
		}
		field.SetString(values[name])
	}
	return v.Struct(dst)
}

// namespace strips the root struct name: "createHabitRequest.tagIds[0]"
// becomes "tagIds[0]".
func namespace(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "Required"
	case "email":
		return "Invalid email"
	case "uuid", "uuid4":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "min":
		if isString {
			return fmt.Sprintf("Must be at least %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Must contain at least %s item(s)", fe.Param())
		}
		return "Must be at least " + fe.Param()
	case "max":
		if isString {
			return fmt.Sprintf("Must be at most %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Must contain at most %s item(s)", fe.Param())
		}
		return "Must be at most " + fe.Param()
	case "gt":
		return "Must be greater than " + fe.Param()
	case "hexcolor":
		return "Must be a hex color"
	}
	return "Failed on " + fe.Tag()
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return &Error{Fields: []FieldError{{
			Field:   field,
			Message: fmt.Sprintf("Expected %s, received %s", typeErr.Type.Kind(), typeErr.Value),
		}}}
	}
	if errors.Is(err, io.EOF) {
		return &Error{Fields: []FieldError{{Field: "body", Message: "Request body is required"}}}
	}
	return &Error{Fields: []FieldError{{Field: "body", Message: "Malformed JSON"}}}
}
