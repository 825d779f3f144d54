package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(jsonName)
	return v
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// ValidateBody decodes body into schema (a pointer to a tagged struct) and returns every
// violated constraint. A nil result means the body is acceptable.
func ValidateBody(body []byte, schema any) []string {
	var out []string
	mistyped := map[string]bool{}
	if len(bytes.TrimSpace(body)) > 0 {
		if !json.Valid(body) {
			return []string{invalidJSON}
		}
		if err := json.Unmarshal(body, schema); err != nil {
			var ok bool
			out, mistyped, ok = decodeFields(body, schema)
			if !ok {
				return []string{invalidJSON}
			}
		}
	}
	err := validate.Struct(schema)
	if err == nil {
		return out
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return append(out, err.Error())
	}
	for _, fe := range verrs {
		if mistyped[fe.Field()] {
			continue
		}
		out = append(out, describe(fe))
	}
	return out
}

const invalidJSON = "request body must be a valid JSON object"

// decodeFields fills schema one field at a time so a field of the wrong JSON type is
// reported without hiding the rest. It returns false when body is not a JSON object.
func decodeFields(body []byte, schema any) ([]string, map[string]bool, bool) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, nil, false
	}
	v := reflect.ValueOf(schema)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return nil, nil, false
	}
	v = v.Elem()
	v.Set(reflect.Zero(v.Type()))

	var out []string
	mistyped := map[string]bool{}
	for i := 0; i < v.NumField(); i++ {
		f := v.Type().Field(i)
		name := jsonName(f)
		msg, present := raw[name]
		if !f.IsExported() || name == "" || !present {
			continue
		}
		target := reflect.New(f.Type)
		if err := json.Unmarshal(msg, target.Interface()); err != nil {
			out = append(out, fmt.Sprintf("%q must be a %s", name, jsonType(f.Type)))
			mistyped[name] = true
			continue
		}
		v.Field(i).Set(target.Elem())
	}
	return out, mistyped, true
}

func jsonType(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	default:
		return "object"
	}
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%q is required", field)
	case "email":
		return fmt.Sprintf("%q must be a valid email", field)
	case "min":
		if isString {
			return fmt.Sprintf("%q length must be at least %s characters long", field, fe.Param())
		}
		return fmt.Sprintf("%q must be greater than or equal to %s", field, fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("%q length must be less than or equal to %s characters long", field, fe.Param())
		}
		return fmt.Sprintf("%q must be less than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%q failed on %s", field, fe.Tag())
	}
}

// Validate checks the request body against a fresh T before the handler runs. Rejected
// requests get a 400 listing every violation; accepted ones see the original body.
func Validate[T any]() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body []byte
			if r.Body != nil {
				b, err := io.ReadAll(r.Body)
				r.Body.Close()
				if err != nil {
					writeMessage(w, http.StatusBadRequest, "Validation failed", "request body could not be read")
					return
				}
				body = b
			}
			if violations := ValidateBody(body, new(T)); len(violations) > 0 {
				writeMessage(w, http.StatusBadRequest, "Validation failed", violations...)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}
