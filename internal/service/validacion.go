package service

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/es"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	es_translations "github.com/go-playground/validator/v10/translations/es"
	"github.com/shopspring/decimal"
)

const (
	enteroPositivoTag  = "entero_positivo"
	enteroPositivoText = "{0} debe ser un número entero positivo"
)

var (
	validate  = validator.New()
	traductor ut.Translator
)

func init() {
	locale := es.New()
	traductor, _ = ut.New(locale, locale).GetTranslator("es")
	_ = es_translations.RegisterDefaultTranslations(validate, traductor)

	// Field names in errors are the JSON names the forms use.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// decimal.Decimal validates as its float value so required/gt work on it.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	_ = validate.RegisterValidation(enteroPositivoTag, func(fl validator.FieldLevel) bool {
		switch fl.Field().Kind() {
		case reflect.Float32, reflect.Float64:
			return esEnteroPositivo(fl.Field().Float())
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return fl.Field().Int() > 0
		}
		return false
	})
	_ = validate.RegisterTranslation(enteroPositivoTag, traductor,
		func(t ut.Translator) error { return t.Add(enteroPositivoTag, enteroPositivoText, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(enteroPositivoTag, fe.Field())
			return s
		},
	)
}

func esEnteroPositivo(f float64) bool {
	return f > 0 && f == float64(int64(f))
}

// ValidationError is a client-detected error: no request is sent when one is returned.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Detail
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}
	return e.Detail + ": " + strings.Join(parts, "; ")
}

// NewValidationError builds a single-field validation error.
func NewValidationError(campo, mensaje string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: map[string]string{campo: mensaje}}
}

// Validar runs the validator tags of req and translates failures to Spanish.
func Validar(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return &ValidationError{Detail: err.Error()}
	}
	fields := make(map[string]string, len(ves))
	for _, fe := range ves {
		fields[fieldPath(fe)] = fe.Translate(traductor)
	}
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}

// fieldPath drops the struct name prefix: "CrearCreditoRequest.debtAmount" → "debtAmount".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}
