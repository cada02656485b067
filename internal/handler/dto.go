// internal/handler/dto.go
package handler

import (
	"errors"
	"fmt"
	"paycheck-tracker/internal/domain"
	"paycheck-tracker/internal/finance"
	"strings"
	"time"

	val "paycheck-tracker/internal/validator"

	"github.com/go-playground/validator/v10"
)

type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6,max=72"`
	DisplayName string `json:"display_name" validate:"omitempty,notblank"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type PaycheckRequest struct {
	Amount string     `json:"amount" validate:"required,amount"`
	Date   *time.Time `json:"date"`
}

type ExpenseRequest struct {
	Name   string     `json:"name" validate:"required,notblank"`
	Amount string     `json:"amount" validate:"required,amount"`
	Date   *time.Time `json:"date"`
}

type FixedExpenseRequest struct {
	Name       string `json:"name" validate:"required,notblank"`
	Amount     string `json:"amount" validate:"required,amount"`
	DayOfMonth int    `json:"day_of_month" validate:"required,dayofmonth"`
}

type CreditCardRequest struct {
	Name          string `json:"name" validate:"required,notblank"`
	CurrentDebt   string `json:"current_debt" validate:"required,amount"`
	ClosingDay    int    `json:"closing_day" validate:"required,dayofmonth"`
	PaymentDueDay int    `json:"payment_due_day" validate:"required,dayofmonth"`
}

type SavingRequest struct {
	Amount string     `json:"amount" validate:"required,amount"`
	Date   *time.Time `json:"date"`
}

type SetSavingsRequest struct {
	Amount string `json:"amount" validate:"required,amount"`
}

type PeriodQuery struct {
	Period string `form:"period" validate:"omitempty,period"`
}

type MonthURI struct {
	Month string `uri:"month" validate:"required,yearmonth"`
}

// === DTO -> domain ===

func dateOf(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func (r PaycheckRequest) toDomain(id string) (domain.Paycheck, error) {
	amount, err := finance.ParseAmount(r.Amount)
	return domain.Paycheck{ID: id, Amount: amount, Date: dateOf(r.Date)}, err
}

func (r ExpenseRequest) toDomain(id string) (domain.Expense, error) {
	amount, err := finance.ParseAmount(r.Amount)
	return domain.Expense{ID: id, Name: strings.TrimSpace(r.Name), Amount: amount, Date: dateOf(r.Date)}, err
}

func (r FixedExpenseRequest) toDomain(id string) (domain.FixedExpense, error) {
	amount, err := finance.ParseAmount(r.Amount)
	return domain.FixedExpense{ID: id, Name: strings.TrimSpace(r.Name), Amount: amount, DayOfMonth: r.DayOfMonth}, err
}

func (r CreditCardRequest) toDomain(id string) (domain.CreditCard, error) {
	debt, err := finance.ParseAmount(r.CurrentDebt)
	return domain.CreditCard{
		ID:            id,
		Name:          strings.TrimSpace(r.Name),
		CurrentDebt:   debt,
		ClosingDay:    r.ClosingDay,
		PaymentDueDay: r.PaymentDueDay,
	}, err
}

func (r SavingRequest) toDomain(id string) (domain.Saving, error) {
	amount, err := finance.ParseAmount(r.Amount)
	return domain.Saving{ID: id, Amount: amount, Date: dateOf(r.Date)}, err
}

// === validation ===

func validateStruct(v any) error {
	err := val.Validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid input: %w", err)
	}
	var msgs []string
	for _, e := range verrs {
		msgs = append(msgs, fieldErrorToString(e))
	}
	return fmt.Errorf("invalid input: %s", strings.Join(msgs, "; "))
}

func fieldErrorToString(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "yearmonth":
		return fmt.Sprintf("%s must be in YYYY-MM format", e.Field())
	case "notblank":
		return fmt.Sprintf("%s must not be blank", e.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", e.Field())
	case "min":
		return fmt.Sprintf("%s must have at least %s characters", e.Field(), e.Param())
	case "max":
		return fmt.Sprintf("%s must have at most %s characters", e.Field(), e.Param())
	case "amount":
		return fmt.Sprintf("%s must be a non-negative number like 1234.56", e.Field())
	case "dayofmonth":
		return fmt.Sprintf("%s must be a day between 1 and 31", e.Field())
	case "period":
		return fmt.Sprintf("%s must be first or second", e.Field())
	default:
		return fmt.Sprintf("%s is invalid", e.Field())
	}
}
