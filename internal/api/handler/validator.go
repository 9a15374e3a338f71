package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/animalguardian/platform/internal/core/domain"
)

var knownRoles = map[domain.Role]bool{
	domain.RoleFarmer:       true,
	domain.RoleLocalVet:     true,
	domain.RoleSectorVet:    true,
	domain.RoleAdmin:        true,
	domain.RoleFieldOfficer: true,
}

// requestValidator plugs go-playground/validator into echo. Besides the
// built-in tags it knows case_status, urgency and user_role.
type requestValidator struct {
	v *validator.Validate
}

func NewValidator() *requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)

	must := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register %s: %v", tag, err))
		}
	}
	must("case_status", func(fl validator.FieldLevel) bool {
		return domain.CaseStatus(fl.Field().String()).Valid()
	})
	must("urgency", func(fl validator.FieldLevel) bool {
		return domain.Urgency(fl.Field().String()).Valid()
	})
	must("user_role", func(fl validator.FieldLevel) bool {
		return knownRoles[domain.Role(fl.Field().String())]
	})

	return &requestValidator{v: v}
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// Validate joins every failing field into one message so a client sees all
// problems at once.
func (rv *requestValidator) Validate(i any) error {
	err := rv.v.Struct(i)
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return err
	}
	msgs := make([]string, len(fields))
	for n, fe := range fields {
		msgs[n] = describe(fe)
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	f := fe.Field()
	switch fe.Tag() {
	case "required":
		return f + " is required"
	case "email":
		return f + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", f, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", f, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", f, fe.Param())
	case "case_status":
		return fmt.Sprintf("%s %q is not a valid case status", f, fe.Value())
	case "urgency":
		return f + " must be one of: low medium high urgent"
	case "user_role":
		return fmt.Sprintf("%s %q is not a valid user type", f, fe.Value())
	}
	return fmt.Sprintf("%s is invalid (%s)", f, fe.Tag())
}
