// Package bind decodes and validates json request bodies into project errors
package bind

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	perr "covidsignal/internal/platform/errors"
	"covidsignal/internal/platform/logger"
)

// FieldLevel aliases validator.FieldLevel
type FieldLevel = validator.FieldLevel

// DefaultMaxBytes caps a request body
const DefaultMaxBytes = 1 << 20

// Options controls ParseJSON
type Options struct {
	// MaxBytes caps the body, 0 means DefaultMaxBytes
	MaxBytes int64
	// AllowUnknown accepts keys T does not declare
	AllowUnknown bool
	// AllowEmpty returns the zero T for an empty body on any method
	AllowEmpty bool
}

type validatorSvc struct {
	v  *validator.Validate
	tr ut.Translator
}

// messages override the english defaults for the tags the api uses
var messages = map[string]string{
	"min":   "{0} must be at least {1}",
	"max":   "{0} must be at most {1}",
	"gt":    "{0} must be greater than {1}",
	"lt":    "{0} must be less than {1}",
	"ratio": "{0} must be in (0,1)",
}

var svc = sync.OnceValue(func() *validatorSvc {
	loc := en.New()
	tr, _ := ut.New(loc, loc).GetTranslator("en")

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("ratio", func(fl FieldLevel) bool {
		x := fl.Field().Float()
		return x > 0 && x < 1
	})
	_ = en_translations.RegisterDefaultTranslations(v, tr)
	for tag, text := range messages {
		_ = v.RegisterTranslation(tag, tr,
			func(t ut.Translator) error { return t.Add(tag, text, true) },
			func(t ut.Translator, fe validator.FieldError) string {
				msg, _ := t.T(tag, fe.Field(), fe.Param())
				return msg
			},
		)
	}
	return &validatorSvc{v: v, tr: tr}
})

// RegisterValidation adds or replaces a custom validation tag
func RegisterValidation(tag string, fn validator.Func) error {
	return svc().v.RegisterValidation(tag, fn)
}

// Validate checks v's validate tags. The first failing field becomes a
// validation error carrying the field's json name
func Validate(v any) error {
	err := svc().v.Struct(v)
	if err == nil {
		return nil
	}
	var inv *validator.InvalidValidationError
	if errors.As(err, &inv) {
		logger.Get().Error().Err(inv).Msg("validator misuse")
		return perr.JSONErrf("body must be a json object")
	}
	field, msg := FieldAndMessage(err)
	return perr.WithField(perr.Newf(perr.ErrorCodeValidation, "%s", msg), field)
}

// FieldAndMessage returns the first failing field and its translated message
func FieldAndMessage(err error) (field, msg string) {
	if err == nil {
		return "", ""
	}
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		return ves[0].Field(), ves[0].Translate(svc().tr)
	}
	return "", err.Error()
}

var (
	strict = sonic.Config{DisallowUnknownFields: true}.Froze()
	lax    = sonic.ConfigStd
)

// ParseJSON reads one json value into T and validates it. Empty bodies on
// GET, HEAD, DELETE and OPTIONS give the zero T
func ParseJSON[T any](r *http.Request, opts ...Options) (T, error) {
	var dst T
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.MaxBytes <= 0 {
		o.MaxBytes = DefaultMaxBytes
	}
	defer func() { _ = r.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(r.Body, o.MaxBytes+1))
	if err != nil {
		return dst, perr.JSONErrf("read body: %v", err)
	}
	if int64(len(body)) > o.MaxBytes {
		return dst, perr.JSONErrf("body exceeds %d bytes", o.MaxBytes)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		if o.AllowEmpty || bodyless(r.Method) {
			return dst, nil
		}
		return dst, perr.JSONErrf("empty body")
	}

	api := strict
	if o.AllowUnknown {
		api = lax
	}
	dec := api.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&dst); err != nil {
		var zero T
		return zero, perr.JSONErrf("invalid JSON: %v", err)
	}
	if dec.More() {
		var zero T
		return zero, perr.JSONErrf("unexpected trailing data")
	}
	if err := Validate(dst); err != nil {
		var zero T
		return zero, err
	}
	return dst, nil
}

func bodyless(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodDelete, http.MethodOptions:
		return true
	}
	return false
}
