package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

const codeInvalidRequest = "invalid_request"

// requestValidator adapts go-playground/validator to echo.Validator. Field
// names in messages are the JSON names the client sent.
type requestValidator struct {
	v *validator.Validate
}

// NewValidator returns the validator to assign to echo.Echo.Validator.
func NewValidator() echo.Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	// notblank rejects strings that are empty once trimmed.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return &requestValidator{v: v}
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

// fieldErrors lists every rule a request broke, in field order.
type fieldErrors []string

func (fe fieldErrors) Error() string { return strings.Join(fe, "; ") }

func (rv *requestValidator) Validate(i any) error {
	err := rv.v.Struct(i)
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	out := make(fieldErrors, 0, len(ve))
	for _, fe := range ve {
		out = append(out, describe(fe))
	}
	return out
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}

// bindAndValidate decodes the body into req and checks its shape. Failures
// are 400 with code invalid_request; business rules are left to the domain.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errorBody{Error: "malformed JSON body", Code: codeInvalidRequest}).SetInternal(err)
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errorBody{Error: err.Error(), Code: codeInvalidRequest})
	}
	return nil
}
