// Package bind decodes and validates JSON payloads for the API and for JSON lines input
package bind

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	perr "vdyp/internal/platform/errors"
	"vdyp/internal/platform/logger"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// FieldLevel aliases validator.FieldLevel
type FieldLevel = validator.FieldLevel

// ValidatorSvc holds a singleton validator and translator
type ValidatorSvc struct {
	Validator  *validator.Validate
	Translator ut.Translator
}

var (
	vOnce    sync.Once
	vSvc     *ValidatorSvc
	jsonMore = func(dec *json.Decoder) bool { return dec.More() } // seam
)

// Get returns the validator singleton with english messages and json field names
func Get() *ValidatorSvc {
	vOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})
		_ = en_translations.RegisterDefaultTranslations(v, trans)

		registerShort(v, trans, "min", "{0} must be at least {1}")
		registerShort(v, trans, "max", "{0} must be at most {1}")
		registerGenus(v, trans)

		vSvc = &ValidatorSvc{Validator: v, Translator: trans}
	})
	return vSvc
}

// Options controls decoding
type Options struct {
	MaxBytes        int64 // default 4MB
	DisallowUnknown bool  // default true
}

func defaultOptions() Options {
	return Options{MaxBytes: 4 << 20, DisallowUnknown: true}
}

// ParseJSON decodes the request body into T and validates it. Malformed bodies are
// ErrorCodeJSON; rule violations are ErrorCodeValidation with the offending field
func ParseJSON[T any](r *http.Request, opts ...Options) (T, error) {
	var zero T
	o := defaultOptions()
	if len(opts) > 0 {
		o = opts[0]
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			logger.Get().Error().Err(err).Msg("failed to close request body")
		}
	}()

	var body io.Reader = r.Body
	if o.MaxBytes > 0 {
		body = io.LimitReader(r.Body, o.MaxBytes)
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return zero, perr.Wrap(err, perr.ErrorCodeJSON, "read body")
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return zero, perr.JSONErrf("empty body")
	}
	return Unmarshal[T](b, o)
}

// Unmarshal decodes one JSON document into T and validates it. When only validation
// fails the decoded value comes back with the error
func Unmarshal[T any](b []byte, opts ...Options) (T, error) {
	var zero T
	o := defaultOptions()
	if len(opts) > 0 {
		o = opts[0]
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	if o.DisallowUnknown {
		dec.DisallowUnknownFields()
	}
	var dst T
	if err := dec.Decode(&dst); err != nil {
		return zero, perr.JSONErrf("invalid JSON: %v", err)
	}
	if jsonMore(dec) {
		return zero, perr.JSONErrf("unexpected trailing data")
	}
	return dst, Struct(dst)
}

// Struct validates v against its validate tags
func Struct(v any) error {
	err := Get().Validator.Struct(v)
	if err == nil {
		return nil
	}
	var inv *validator.InvalidValidationError
	if errors.As(err, &inv) {
		logger.Get().Error().Err(inv).Msg("validator internal error")
		return perr.JSONErrf("validation error")
	}
	field, msg := FieldAndMessage(err)
	return perr.WithField(perr.Newf(perr.ErrorCodeValidation, "%s", msg), field)
}

// FieldAndMessage returns the path of the first failing field below the root struct
// and its translated message
func FieldAndMessage(err error) (field, message string) {
	if err == nil {
		return "", ""
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		ns := verrs[0].Namespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}
		return ns, verrs[0].Translate(Get().Translator)
	}
	return "", err.Error()
}

func registerShort(v *validator.Validate, trans ut.Translator, tag, text string) {
	_ = v.RegisterTranslation(tag, trans,
		func(ut ut.Translator) error { return ut.Add(tag, text, true) },
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T(tag, fe.Field(), fe.Param())
			return msg
		},
	)
}

// genus codes are one or two upper case letters
func isGenus(fl FieldLevel) bool {
	s := fl.Field().String()
	if len(s) == 0 || len(s) > 2 {
		return false
	}
	for _, c := range s {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

func registerGenus(v *validator.Validate, trans ut.Translator) {
	_ = v.RegisterValidation("genus", isGenus)
	_ = v.RegisterTranslation("genus", trans,
		func(ut ut.Translator) error { return ut.Add("genus", "{0} must be a one or two letter genus code", true) },
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T("genus", fe.Field())
			return msg
		},
	)
}
