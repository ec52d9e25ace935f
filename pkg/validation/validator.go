package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	personNameRe  = regexp.MustCompile(`^[a-zA-Z\s-]{2,50}$`)
	nationalityRe = regexp.MustCompile(`^[a-zA-Z\s-]{0,100}$`)
	bookTitleRe   = regexp.MustCompile(`^[a-zA-Z0-9\s-]{1,200}$`)
)

const pwdSpecials = "@$!%*?&"

var initOnce sync.Once

// Init configures the global validator used by Gin's binding.
// - Uses JSON tag names in errors.
// - Registers the library tags: personname, nationality, booktitle, userrole, pwd.
func Init() {
	initOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			register(v)
		}
	})
}

// New returns a standalone validator with the same configuration as Init.
func New() *validator.Validate {
	v := validator.New()
	register(v)
	return v
}

func register(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("personname", regexTag(personNameRe))
	_ = v.RegisterValidation("nationality", regexTag(nationalityRe))
	_ = v.RegisterValidation("booktitle", regexTag(bookTitleRe))
	_ = v.RegisterValidation("pwd", func(fl validator.FieldLevel) bool { return IsPassword(fl.Field().String()) })
	v.RegisterAlias("userrole", "oneof=USER ADMIN")
}

func regexTag(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool { return re.MatchString(fl.Field().String()) }
}

// IsPersonName reports whether s is 2..50 letters, spaces or hyphens.
func IsPersonName(s string) bool { return personNameRe.MatchString(s) }

// IsSearchTitle reports whether s is a valid 1..200 character title query.
func IsSearchTitle(s string) bool { return bookTitleRe.MatchString(s) }

// IsPassword requires 8..50 characters with a letter, a digit and one of @$!%*?&,
// drawn only from letters, digits and those specials.
func IsPassword(s string) bool {
	if len(s) < 8 || len(s) > 50 {
		return false
	}
	var letter, digit, special bool
	for _, r := range s {
		switch {
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			letter = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(pwdSpecials, r):
			special = true
		default:
			return false
		}
	}
	return letter && digit && special
}

// ToDetails converts validation/binding errors into a map[field]message suitable for API error.details.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	// Invalid JSON payloads
	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		if ute != nil && ute.Field != "" {
			return map[string]string{ute.Field: "has the wrong type"}
		}
		return map[string]string{"payload": "invalid json"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = formatFieldError(fe)
		}
		return out
	}

	return map[string]string{"payload": "invalid payload"}
}

func formatFieldError(fe validator.FieldError) string {
	tag := fe.Tag()
	param := fe.Param()

	switch tag {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		if isNumberKind(fe.Kind()) {
			return "must be at least " + param
		}
		return "must be at least " + param + " characters long"
	case "max":
		if isNumberKind(fe.Kind()) {
			return "must be at most " + param
		}
		return "must be at most " + param + " characters long"
	case "gte":
		return "must be greater than or equal to " + param
	case "lte":
		return "must be less than or equal to " + param
	case "gt":
		return "must be greater than " + param
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")
	case "ltefield":
		return "must be less than or equal to " + param + " field"

	case "personname":
		return "must be 2-50 letters, spaces or hyphens"
	case "nationality":
		return "must be at most 100 letters, spaces or hyphens"
	case "booktitle":
		return "must be 1-200 letters, digits, spaces or hyphens"
	case "userrole":
		return "must be USER or ADMIN"
	case "pwd":
		return "must be 8-50 characters with a letter, a digit and one of " + pwdSpecials

	default:
		if param != "" {
			return fmt.Sprintf("validation failed for '%s' with parameter '%s'", tag, param)
		}
		return fmt.Sprintf("validation failed for '%s'", tag)
	}
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
