package web

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/notekeeper/notekeeper/internal/common"
	"github.com/notekeeper/notekeeper/internal/server/auth"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

type loginForm struct {
	Username   string `form:"username" validate:"required,min=3,max=20,username"`
	Password   string `form:"password" validate:"required,min=8,max=50"`
	RedirectTo string `form:"redirectTo"`
	Remember   bool   `form:"remember"`
}

type signupForm struct {
	Email string `form:"email" validate:"required,email,max=100"`
}

type onboardingForm struct {
	Username        string `form:"username" validate:"required,min=3,max=20,username"`
	Name            string `form:"name" validate:"required,min=3,max=40"`
	Password        string `form:"password" validate:"required,min=8,max=50,bcryptlen"`
	ConfirmPassword string `form:"confirmPassword" validate:"required,eqfield=Password"`
	AgreeToTerms    bool   `form:"agreeToTermsOfServiceAndPrivacyPolicy" validate:"required"`
	RedirectTo      string `form:"redirectTo"`
	Remember        bool   `form:"remember"`
}

type changePasswordForm struct {
	CurrentPassword    string `form:"currentPassword" validate:"required,min=8,max=50"`
	NewPassword        string `form:"newPassword" validate:"required,min=8,max=50,bcryptlen"`
	ConfirmNewPassword string `form:"confirmNewPassword" validate:"required,eqfield=NewPassword"`
}

type noteForm struct {
	Title   string `form:"title" validate:"required,min=1,max=100"`
	Content string `form:"content" validate:"required,min=1,max=10000"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	// bcrypt only sees the first 72 bytes; max counts runes.
	_ = v.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= auth.MaxPasswordBytes
	})
	return v
}

// decodeForm fills the string and bool fields of dst from values using the
// form struct tags. Checkboxes count as true when sent as "on" or "true".
func decodeForm(values url.Values, dst any) {
	rv := reflect.ValueOf(dst).Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		name := rt.Field(i).Tag.Get("form")
		if name == "" {
			continue
		}
		raw := values.Get(name)
		switch f := rv.Field(i); f.Kind() {
		case reflect.String:
			f.SetString(raw)
		case reflect.Bool:
			f.SetBool(raw == "on" || raw == "true")
		}
	}
}

// bindForm decodes and validates values into dst, returning a
// *common.ValidationError keyed by form field name.
func (h *Handler) bindForm(values url.Values, dst any) error {
	decodeForm(values, dst)

	err := h.validate.Struct(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := common.NewValidationError()
	for _, fe := range verrs {
		out.Add(fe.Field(), fieldMessage(fe))
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToUpper(fe.Field()[:1]) + fe.Field()[1:]
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s is too short", field)
	case "max", "bcryptlen":
		return fmt.Sprintf("%s is too long", field)
	case "email":
		return "Email is invalid"
	case "username":
		return "Username can only include letters, numbers, and underscores"
	case "eqfield":
		return "The passwords must match"
	default:
		return field + " is invalid"
	}
}
