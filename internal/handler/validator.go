package handler

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shopspring/decimal"
)

// custom validation tags
const (
	decimalGtTag    = "decimal_gt"
	decimalGteTag   = "decimal_gte"
	decimalScaleTag = "decimal_scale"
)

// Validator checks request DTOs and renders failures keyed by JSON field name
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func NewValidator() *Validator {
	validate := validator.New()

	// Register the english error messages for validation errors.
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// decimal.Decimal is validated through its string form
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	_ = validate.RegisterValidation(decimalGtTag, decimalCompare(func(d, limit decimal.Decimal) bool { return d.GreaterThan(limit) }))
	_ = validate.RegisterValidation(decimalGteTag, decimalCompare(func(d, limit decimal.Decimal) bool { return d.GreaterThanOrEqual(limit) }))

	_ = validate.RegisterValidation(decimalScaleTag, decimalScale)

	v := &Validator{validate: validate, translator: translator}
	v.registerCustomTranslations(decimalGtTag, decimalGteTag, decimalScaleTag)
	return v
}

// registerCustomTranslations registers error messages for the custom tags.
// The default translations are already in place so the register func is a noop.
func (v *Validator) registerCustomTranslations(tags ...string) {
	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range tags {
		_ = v.validate.RegisterTranslation(tag, v.translator, registerFn, translateCustomValidationErrs)
	}
}

func translateCustomValidationErrs(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case decimalGtTag:
		return fe.Field() + " must be greater than " + fe.Param()
	case decimalGteTag:
		return fe.Field() + " must be greater than or equal to " + fe.Param()
	case decimalScaleTag:
		return fe.Field() + " must have at most " + fe.Param() + " decimal places"
	default:
		return ""
	}
}

func decimalCompare(cmp func(d, limit decimal.Decimal) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		limit, err := decimal.NewFromString(fl.Param())
		if err != nil {
			return false
		}
		return cmp(d, limit)
	}
}

// decimalScale rejects values with more significant decimal places than the param
func decimalScale(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	places, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return d.Equal(d.Truncate(int32(places)))
}

// Struct validates s and returns per-field messages, or nil when s is valid
func (v *Validator) Struct(s interface{}) map[string]string {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return map[string]string{"request": err.Error()}
	}

	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fieldPath(fe)] = fe.Translate(v.translator)
	}
	return details
}

// fieldPath drops the top-level struct name: "CreateStructureRequest.items[0].amount" -> "items[0].amount"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
