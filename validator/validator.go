package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	TagJSON = "json"
	TagYAML = "yaml"
)

var (
	symbolPattern   = regexp.MustCompile(`^[A-Z0-9$.\-]{1,20}$`)
	currencyPattern = regexp.MustCompile(`^[A-Z]{3,10}$`)
)

type Validator struct {
	Validator *validator.Validate
	tagName   string
}

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, err := range v {
		msgs = append(msgs, err.Message)
	}

	return strings.Join(msgs, "; ")
}

// Fields returns the names of the fields that failed, in report order.
func (v ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(v))
	for _, err := range v {
		fields = append(fields, err.Field)
	}

	return fields
}

// New returns a validator reporting fields by the given struct tag (json or yaml).
// Decimal fields compare numerically, and the "symbol" and "currency" tags check
// ticker and fiat codes.
func New(tagName string) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		const maxSplits = 2
		name := strings.SplitN(fld.Tag.Get(tagName), ",", maxSplits)[0]

		if name == "-" {
			return ""
		}

		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if val, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := val.Float64()

			return f
		}

		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("symbol", func(fl validator.FieldLevel) bool {
		return symbolPattern.MatchString(fl.Field().String())
	})

	_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return currencyPattern.MatchString(fl.Field().String())
	})

	return &Validator{Validator: v, tagName: tagName}
}

// Payload validates decoded API responses.
func Payload() *Validator {
	return New(TagJSON)
}

// Config validates configuration loaded from YAML.
func Config() *Validator {
	return New(TagYAML)
}

func (v *Validator) TagName() string {
	return v.tagName
}

func (v *Validator) Validate(i any) error {
	if err := v.Validator.Struct(i); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.formatValidationErrors(validationErrs)
		}

		return err
	}

	return nil
}

// ValidateAll validates every element and prefixes field names with the element index.
func ValidateAll[T any](v *Validator, items []T) error {
	var all ValidationErrors

	for i, item := range items {
		err := v.Validate(item)
		if err == nil {
			continue
		}

		var errs ValidationErrors
		if !errors.As(err, &errs) {
			return fmt.Errorf("item %d: %w", i, err)
		}

		for _, e := range errs {
			e.Field = fmt.Sprintf("[%d].%s", i, e.Field)
			all = append(all, e)
		}
	}

	if len(all) > 0 {
		return all
	}

	return nil
}

func (v *Validator) formatValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	validationErrs := make(ValidationErrors, 0, len(errs))

	for _, err := range errs {
		field := fieldPath(err)

		validationErrs = append(validationErrs, ValidationError{
			Field:   field,
			Tag:     err.Tag(),
			Value:   fmt.Sprintf("%v", err.Value()),
			Message: v.generateErrorMessage(field, err),
		})
	}

	return validationErrs
}

// fieldPath drops the root struct name from the namespace, so nested fields read
// as "api.base_url" rather than "Config.api.base_url".
func fieldPath(err validator.FieldError) string {
	ns := err.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		ns = ns[idx+1:]
	}

	if ns == "" {
		ns = err.Field()
	}

	if ns == "" {
		ns = err.StructField()
	}

	return ns
}

func (v *Validator) generateErrorMessage(field string, err validator.FieldError) string {
	msg := v.getSimpleErrorMessage(field, err.Tag())
	if msg != "" {
		return msg
	}

	return v.getParameterizedErrorMessage(field, err)
}

func (v *Validator) getSimpleErrorMessage(field, tag string) string {
	switch tag {
	case "required":
		return field + " is required"
	case "url":
		return field + " must be a valid URL"
	case "http_url":
		return field + " must be a valid HTTP URL"
	case "hostname_rfc1123":
		return field + " must be a valid hostname"
	case "symbol":
		return field + " must be an upper-case ticker symbol"
	case "currency":
		return field + " must be an upper-case currency code"
	case "dive":
		return field + " has an invalid element"
	default:
		return ""
	}
}

func (v *Validator) getParameterizedErrorMessage(field string, err validator.FieldError) string {
	param := err.Param()
	tag := err.Tag()

	switch tag {
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, param)
	default:
		return fmt.Sprintf("%s failed validation on '%s'", field, err.Tag())
	}
}

func (v *Validator) RegisterCustomValidation(tag string, fn validator.Func) error {
	return v.Validator.RegisterValidation(tag, fn)
}
