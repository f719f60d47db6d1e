package internal

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

var setupOnce sync.Once

// VPA format: word, dot or hyphen characters, "@", then word or hyphen characters.
var vpaPattern = regexp.MustCompile(`^[\w.\-]+@[\w\-]+$`)

const minCardDigits = 12

// SetupValidator registers the custom tags used by request structs.
// prefix v = validate, Ex. vupi validates a UPI address.
func SetupValidator() {
	setupOnce.Do(func() {
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		validate.RegisterCustomTypeFunc(func(v reflect.Value) interface{} {
			d, ok := v.Interface().(decimal.Decimal)
			if !ok {
				return nil
			}
			f, _ := d.Float64()
			return f
		}, decimal.Decimal{})

		rules := map[string]validator.Func{
			"vupi": func(fl validator.FieldLevel) bool {
				return vpaPattern.MatchString(fl.Field().String())
			},
			"vcard": func(fl validator.FieldLevel) bool {
				return len(onlyDigits(fl.Field().String())) >= minCardDigits
			},
			"vrole": func(fl validator.FieldLevel) bool {
				return Role(fl.Field().String()).IsValid()
			},
			"vcountry": func(fl validator.FieldLevel) bool {
				return Country(fl.Field().String()).IsValid()
			},
			"vpayment_method": func(fl validator.FieldLevel) bool {
				return PaymentOption(fl.Field().String()).IsValid()
			},
			"vmethod_type": func(fl validator.FieldLevel) bool {
				return MethodType(fl.Field().String()).IsValid()
			},
		}
		for tag, fn := range rules {
			if err := validate.RegisterValidation(tag, fn); err != nil {
				log.Fatalf("unable to register %s: %v", tag, err)
			}
		}

		slog.Info("validator initialized")
	})
}

type myValidatorErrs []myValidatorErr

func (m myValidatorErrs) Error() string {
	var s []string
	for _, err := range m {
		s = append(s, err.Error())
	}
	return strings.Join(s, ", ")
}

type myValidatorErr struct {
	Field string
	Msg   string
}

func (m myValidatorErr) Error() string {
	return fmt.Sprintf("%s %s", m.Field, m.Msg)
}

func ValidateStruct(in any) error {
	if err := validate.Struct(in); err != nil {

		var valErrs validator.ValidationErrors
		if !errors.As(err, &valErrs) {
			return err
		}

		var errs myValidatorErrs
		for _, valErr := range valErrs {
			errs = append(errs, buildMyValidatorErr(valErr))
		}
		return errs
	}
	return nil
}

func buildMyValidatorErr(f validator.FieldError) myValidatorErr {
	switch f.Tag() {
	case "required":
		return myValidatorErr{Field: f.Field(), Msg: "is required"}
	case "email":
		return myValidatorErr{Field: f.Field(), Msg: "must be a valid email address"}
	case "min":
		return myValidatorErr{Field: f.Field(), Msg: fmt.Sprintf("must be at least %s", f.Param())}
	case "max":
		return myValidatorErr{Field: f.Field(), Msg: fmt.Sprintf("must be at most %s", f.Param())}
	case "gte":
		return myValidatorErr{Field: f.Field(), Msg: fmt.Sprintf("must be greater than or equal to %s", f.Param())}
	case "len":
		return myValidatorErr{Field: f.Field(), Msg: fmt.Sprintf("must be exactly %s characters", f.Param())}
	case "numeric":
		return myValidatorErr{Field: f.Field(), Msg: "must contain digits only"}
	case "vupi":
		return myValidatorErr{Field: f.Field(), Msg: "must be a valid UPI ID (name@handle)"}
	case "vcard":
		return myValidatorErr{Field: f.Field(), Msg: fmt.Sprintf("must contain at least %d digits", minCardDigits)}
	case "vrole":
		return myValidatorErr{Field: f.Field(), Msg: "must be one of ADMIN, MANAGER, MEMBER"}
	case "vcountry":
		return myValidatorErr{Field: f.Field(), Msg: "must be one of India, America"}
	case "vpayment_method":
		return myValidatorErr{Field: f.Field(), Msg: "must be one of COD, CARD, UPI"}
	case "vmethod_type":
		return myValidatorErr{Field: f.Field(), Msg: "must be one of CARD, UPI, BANK"}
	default:
		return myValidatorErr{Field: f.Field(), Msg: fmt.Sprintf("invalid value tag %s", f.Tag())}
	}
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
