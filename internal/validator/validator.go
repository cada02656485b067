// internal/validator/validator.go
package validator

import (
	"paycheck-tracker/internal/domain"
	"paycheck-tracker/internal/finance"
	"paycheck-tracker/internal/period"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

var Validate *validator.Validate

var nonSpace = regexp.MustCompile(`\S`)

func init() {
	Validate = validator.New()

	// month as "2024-12"
	_ = Validate.RegisterValidation("yearmonth", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("2006-01", fl.Field().String())
		return err == nil
	})

	_ = Validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return nonSpace.MatchString(fl.Field().String())
	})

	_ = Validate.RegisterValidation("dayofmonth", func(fl validator.FieldLevel) bool {
		return domain.ValidDay(int(fl.Field().Int()))
	})

	// free-text money amount, see finance.ParseAmount
	_ = Validate.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		_, err := finance.ParseAmount(fl.Field().String())
		return err == nil
	})

	_ = Validate.RegisterValidation("period", func(fl validator.FieldLevel) bool {
		_, err := period.Parse(fl.Field().String())
		return err == nil
	})
}
