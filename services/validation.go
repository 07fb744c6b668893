package services

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/rpupo63/foodgram-backend/errs"
)

const minPasswordLength = 8

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	colorPattern    = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

	reservedUsernames = map[string]bool{
		"me":            true,
		"set_password":  true,
		"subscriptions": true,
		"subscribe":     true,
	}
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report json names so errors line up with request fields
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return usernamePattern.MatchString(s) && !reservedUsernames[strings.ToLower(s)]
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return checkPasswordRules(fl.Field().String()) == ""
	})
	_ = v.RegisterValidation("hexcolor6", func(fl validator.FieldLevel) bool {
		return colorPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	return v
}

// validateStruct runs struct tag validation and turns the first failure into
// a field-keyed 400.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errs.NewBadRequestError(err.Error())
	}

	fe := fieldErrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return errs.NewMissingRequiredFieldError(field)
	case "email":
		return errs.NewInvalidFieldError(field, "enter a valid email address")
	case "max":
		return errs.NewInvalidFieldError(field, "ensure this field has no more than "+fe.Param()+" characters")
	case "min", "gte":
		return errs.NewInvalidFieldError(field, "ensure this value is at least "+fe.Param())
	case "username":
		return errs.NewInvalidFieldError(field, "letters, digits and @/./+/-/_ only; me, set_password, subscriptions and subscribe are reserved")
	case "password":
		return errs.NewInvalidFieldError(field, checkPasswordRules(fe.Value().(string)))
	case "hexcolor6":
		return errs.NewInvalidFieldError(field, "expected a #RRGGBB color")
	case "slug":
		return errs.NewInvalidFieldError(field, "letters, digits, hyphens and underscores only")
	default:
		return errs.NewInvalidFieldError(field, "failed "+fe.Tag()+" validation")
	}
}

// checkPasswordRules returns the reason a password is rejected, or "".
func checkPasswordRules(password string) string {
	if len(password) < minPasswordLength {
		return "this password is too short, it must contain at least 8 characters"
	}
	if strings.Trim(password, "0123456789") == "" {
		return "this password is entirely numeric"
	}
	return ""
}

func hashPassword(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
