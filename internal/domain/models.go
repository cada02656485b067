// internal/domain/models.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Paycheck is one income event.
type Paycheck struct {
	ID     string          `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
	UserID string          `json:"user_id"`
}

// Expense is an ad-hoc (variable) expense.
type Expense struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
	UserID string          `json:"user_id"`
}

// FixedExpense recurs in every period that contains DayOfMonth.
type FixedExpense struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	DayOfMonth int             `json:"day_of_month"`
	UserID     string          `json:"user_id"`
}

// CreditCard carries a manually entered running debt, not one computed from transactions.
type CreditCard struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	CurrentDebt   decimal.Decimal `json:"current_debt"`
	ClosingDay    int             `json:"closing_day"`
	PaymentDueDay int             `json:"payment_due_day"`
	UserID        string          `json:"user_id"`
}

// Saving is a savings balance update; the most recent one is the current balance.
type Saving struct {
	ID     string          `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
	UserID string          `json:"user_id"`
}

// Collection names one per-user sub-collection.
type Collection string

const (
	Paychecks     Collection = "paychecks"
	Expenses      Collection = "expenses"
	FixedExpenses Collection = "fixed_expenses"
	CreditCards   Collection = "credit_cards"
	Savings       Collection = "savings"
)

func Collections() []Collection {
	return []Collection{Paychecks, Expenses, FixedExpenses, CreditCards, Savings}
}

func (c Collection) Valid() bool {
	switch c {
	case Paychecks, Expenses, FixedExpenses, CreditCards, Savings:
		return true
	}
	return false
}

func (c Collection) String() string {
	return string(c)
}
