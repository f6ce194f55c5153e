package user

import (
	"fmt"
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/kursly/backend/core"
)

var (
	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to user attributes"
)

// InitValidators registers user-specific validations and translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(newUserStructValidation, NewUser{})
	validate.RegisterStructValidation(updateUserStructValidation, UpdateUser{})

	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(validate, translator, pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
}

func newUserStructValidation(sl validator.StructLevel) {
	if nu, ok := sl.Current().Interface().(NewUser); ok {
		validatePassword(sl, nu.Password, nu.Username, nu.Email)
	}
}

func updateUserStructValidation(sl validator.StructLevel) {
	if uu, ok := sl.Current().Interface().(UpdateUser); ok {
		if uu.Password != "" {
			validatePassword(sl, uu.Password, uu.Username, uu.Email)
		}
	}
}

func validatePassword(sl validator.StructLevel, pwd string, attrs ...string) {
	report := func(tag string) {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}

	if len(pwd) < pwdMinLen {
		report(pwdMinLenTag)
	}
	if strings.ContainsAny(pwd, " \t\n") {
		report(pwdNoSpaceTag)
	}

	allNum := true
	for _, r := range pwd {
		if !unicode.IsDigit(r) {
			allNum = false
			break
		}
	}
	if allNum && pwd != "" {
		report(pwdNotAllNumTag)
	}

	// too similar to username/email ?
	lowPwd := strings.Split(strings.ToLower(pwd), "")
	for _, attr := range attrs {
		if attr == "" {
			continue
		}
		matcher := difflib.NewMatcher(lowPwd, strings.Split(strings.ToLower(attr), ""))
		if matcher.Ratio() > pwdMaxSim {
			report(pwdAttrSimTag)
			break
		}
	}
}
