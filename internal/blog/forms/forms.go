// Package forms declares the HTML form schemas and their validation rules.
package forms

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/aussiebroadwan/billboard/pkg/billboardsdk"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// DefaultMaxMemory bounds the in-memory part of a multipart form.
const DefaultMaxMemory = 8 << 20

// Errors maps a form field name to a human readable message.
type Errors map[string]string

func (e Errors) Get(field string) string { return e[field] }

// Add records msg for field unless one is already present.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

func (e Errors) Any() bool { return len(e) > 0 }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their form name so messages line up with inputs.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Decode parses the request body (urlencoded or multipart), checks the csrf
// token and copies the values into the `form` tagged fields of dst.
func Decode(r *http.Request, dst any) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(DefaultMaxMemory); err != nil {
			return fmt.Errorf("parse multipart form: %w", err)
		}
	} else if err := r.ParseForm(); err != nil {
		return fmt.Errorf("parse form: %w", err)
	}

	sent := r.Header.Get(billboardsdk.CSRFHeader)
	if sent == "" {
		sent = r.PostForm.Get(billboardsdk.CSRFField)
	}
	if err := compareCSRF(r.Context(), sent); err != nil {
		return err
	}

	return binding.MapFormWithTag(dst, r.PostForm, "form")
}

// check runs the struct rules and converts failures into Errors, nil when
// everything passed.
func check(schema any) Errors {
	err := validate.Struct(schema)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Errors{"_form": err.Error()}
	}

	errs := Errors{}
	for _, fe := range verrs {
		errs.Add(fe.Field(), message(fe))
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "This field is required."
	case "email":
		return "Invalid email address."
	case "min":
		return fmt.Sprintf("Field must be at least %s characters long.", fe.Param())
	case "max":
		return fmt.Sprintf("Field cannot be longer than %s characters.", fe.Param())
	case "eqfield":
		return "Field must be equal to password."
	case "datetime":
		return "Not a valid date value."
	default:
		return "Invalid value."
	}
}

// merge returns a non-nil Errors holding both sets, or nil when both are empty.
func merge(a, b Errors) Errors {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := Errors{}
	for k, v := range a {
		out.Add(k, v)
	}
	for k, v := range b {
		out.Add(k, v)
	}
	return out
}
