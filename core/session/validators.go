package session

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/studai/backend/core"
)

var (
	roleTag  = "role"
	roleText = "invalid role"

	kindTag  = "artifactkind"
	kindText = "invalid artifact kind"

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

func init() {
	// register validators
	_ = core.Validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(roleTag, roleText)

	_ = core.Validate.RegisterValidation(kindTag, kindValidation)
	core.RegisterCustomTranslation(kindTag, kindText)

	core.Validate.RegisterStructValidation(signupStructValidation, SignupCredentials{})
	core.RegisterCustomTranslation(pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(pwdAttrSimTag, pwdAttrSimText)
}

// LoginCredentials is the login payload. The stub Authenticator accepts any
// well-formed pair; a real one checks them.
type LoginCredentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,role"`
}

func (c *LoginCredentials) Validate() error {
	c.Email = core.CleanString(c.Email, true /* lower */)
	c.Role = core.CleanString(c.Role, true /* lower */)
	return core.Validate.Struct(c)
}

// SignupCredentials is the signup payload; Name is optional and falls back
// to the email's local part.
type SignupCredentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name"`
	Role     string `json:"role" validate:"required,role"`
}

func (c *SignupCredentials) Validate() error {
	c.Email = core.CleanString(c.Email, true /* lower */)
	c.Name = core.CleanString(c.Name)
	c.Role = core.CleanString(c.Role, true /* lower */)
	return core.Validate.Struct(c)
}

// Validate cleans and checks the onboarding profile: grade and at least one
// subject are required, age must be positive.
func (p *Profile) Validate() error {
	p.Grade = core.CleanString(p.Grade)
	p.Division = core.CleanString(p.Division)
	p.RollNo = core.CleanString(p.RollNo)
	subjects := p.Subjects[:0]
	for _, s := range p.Subjects {
		if s = core.CleanString(s); s != "" {
			subjects = append(subjects, s)
		}
	}
	p.Subjects = subjects
	return core.Validate.Struct(p)
}

// Custom Validators

// roleValidation checks that the provided role is in AllRoles.
func roleValidation(fl validator.FieldLevel) bool {
	return IsValidRole(fl.Field().String())
}

// kindValidation checks that the provided artifact kind is known.
func kindValidation(fl validator.FieldLevel) bool {
	return IsValidArtifactKind(fl.Field().String())
}

// signupStructValidation applies the password policy to SignupCredentials.
func signupStructValidation(sl validator.StructLevel) {
	if creds, ok := sl.Current().Interface().(SignupCredentials); ok {
		validatePassword(creds.Password, creds.Name, creds.Email, sl)
	}
}

// validatePassword applies the password policy:
// - minLen: 8
// - no whitespace
// - no all numeric
// - no user attrs similarity
func validatePassword(pwd, name, email string, sl validator.StructLevel) {
	reportErr := func(tag string) {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}

	pwdLen := len(pwd)
	if pwdLen < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}

	var digitCount int
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag)
			return
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
	}
	if digitCount == pwdLen {
		reportErr(pwdNotAllNumTag)
		return
	}

	// - no user attrs similarity
	getRatio := func(pass, attr string) float64 {
		if attr == "" {
			return 0
		}
		return difflib.NewMatcher(strings.Split(pass, ""), strings.Split(attr, "")).QuickRatio()
	}
	if getRatio(pwd, name) >= pwdMaxSim || getRatio(pwd, email) >= pwdMaxSim {
		reportErr(pwdAttrSimTag)
		return
	}
}
