package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"CreditScore/internal/domain/models"
)

// MinLoanTermMonths is the shortest loan the bank will underwrite.
const MinLoanTermMonths = 4

// Validator enforces range and business rules on raw applications.
// Categorical labels are not checked here; the normalizer owns them.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// registration only fails on an empty tag or nil func
	_ = v.RegisterValidation("loanterm", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() >= MinLoanTermMonths
	})
	return &Validator{v: v}
}

// Validate returns nil or a *models.ValidationError for the first field, in
// wire order, that breaks a rule.
func (v *Validator) Validate(raw *models.RawApplication) error {
	if raw == nil {
		return &models.ValidationError{Constraint: "required", Message: "application is required"}
	}
	if f := raw.MissingField(); f != "" {
		return &models.ValidationError{Field: f, Constraint: "required", Message: f + " is required"}
	}
	err := v.v.Struct(raw)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate application: %w", err)
	}
	fe := fieldErrs[0]
	return &models.ValidationError{
		Field:      fe.Field(),
		Constraint: constraint(fe),
		Message:    message(fe),
	}
}

func constraint(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "loanterm":
		return fmt.Sprintf("Duration too short (min %d months)", MinLoanTermMonths)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
