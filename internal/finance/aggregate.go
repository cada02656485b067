// Package finance turns the per-user record collections into pay period
// balances and a monthly history.
package finance

import (
	"paycheck-tracker/internal/domain"
	"paycheck-tracker/internal/period"
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is the latest full content of every collection of one user.
type Snapshot struct {
	Paychecks     []domain.Paycheck
	Expenses      []domain.Expense
	FixedExpenses []domain.FixedExpense
	CreditCards   []domain.CreditCard
	Savings       []domain.Saving
}

// Summary is the balance of one pay period as of a reference instant.
type Summary struct {
	Period     period.Period `json:"period"`
	PeriodName string        `json:"period_name"`
	Range      *period.Range `json:"range,omitempty"`

	Paycheck decimal.Decimal `json:"paycheck"`
	Savings  decimal.Decimal `json:"savings"`

	FixedExpenses []domain.FixedExpense `json:"fixed_expenses"`
	Expenses      []domain.Expense      `json:"expenses"`
	CreditCards   []domain.CreditCard   `json:"credit_cards"`

	TotalFixed    decimal.Decimal `json:"total_fixed"`
	TotalVariable decimal.Decimal `json:"total_variable"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	TotalCardDebt decimal.Decimal `json:"total_card_debt"`
	Remaining     decimal.Decimal `json:"remaining"`
}

// Summarize computes the balance of p. Variable expenses are picked by the
// date range of p relative to now; fixed expenses and cards by their day of month.
func Summarize(s Snapshot, p period.Period, now time.Time) Summary {
	sum := Summary{
		Period:        p,
		PeriodName:    p.DisplayName(),
		Paycheck:      CurrentPaycheck(s.Paychecks),
		Savings:       CurrentSavings(s.Savings),
		FixedExpenses: FixedForPeriod(s.FixedExpenses, p),
		CreditCards:   CardsForPeriod(s.CreditCards, p),
		Expenses:      []domain.Expense{},
	}
	if r, ok := period.RangeFor(p, now); ok {
		sum.Range = &r
		sum.Expenses = VariableInRange(s.Expenses, r)
	}

	sum.TotalFixed = SumFixed(sum.FixedExpenses)
	sum.TotalVariable = SumExpenses(sum.Expenses)
	sum.TotalExpenses = sum.TotalFixed.Add(sum.TotalVariable)
	sum.TotalCardDebt = SumDebt(sum.CreditCards)
	sum.Remaining = sum.Paycheck.Sub(sum.TotalExpenses).Sub(sum.TotalCardDebt)
	return sum
}

// CurrentPaycheck returns the amount of the most recent paycheck, or zero.
func CurrentPaycheck(ps []domain.Paycheck) decimal.Decimal {
	var latest *domain.Paycheck
	for i := range ps {
		if latest == nil || ps[i].Date.After(latest.Date) {
			latest = &ps[i]
		}
	}
	if latest == nil {
		return decimal.Zero
	}
	return latest.Amount
}

// LatestSaving returns the most recent savings record, or nil.
func LatestSaving(ss []domain.Saving) *domain.Saving {
	var latest *domain.Saving
	for i := range ss {
		if latest == nil || ss[i].Date.After(latest.Date) {
			latest = &ss[i]
		}
	}
	return latest
}

func CurrentSavings(ss []domain.Saving) decimal.Decimal {
	if s := LatestSaving(ss); s != nil {
		return s.Amount
	}
	return decimal.Zero
}

func FixedForPeriod(fs []domain.FixedExpense, p period.Period) []domain.FixedExpense {
	out := []domain.FixedExpense{}
	for _, f := range fs {
		if p.Contains(f.DayOfMonth) {
			out = append(out, f)
		}
	}
	return out
}

func VariableInRange(es []domain.Expense, r period.Range) []domain.Expense {
	out := []domain.Expense{}
	for _, e := range es {
		if r.Contains(e.Date) {
			out = append(out, e)
		}
	}
	return out
}

// CardsForPeriod selects cards whose payment is due inside p.
func CardsForPeriod(cs []domain.CreditCard, p period.Period) []domain.CreditCard {
	out := []domain.CreditCard{}
	for _, c := range cs {
		if p.Contains(c.PaymentDueDay) {
			out = append(out, c)
		}
	}
	return out
}

func SumFixed(fs []domain.FixedExpense) decimal.Decimal {
	total := decimal.Zero
	for _, f := range fs {
		total = total.Add(f.Amount)
	}
	return total
}

func SumExpenses(es []domain.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range es {
		total = total.Add(e.Amount)
	}
	return total
}

func SumDebt(cs []domain.CreditCard) decimal.Decimal {
	total := decimal.Zero
	for _, c := range cs {
		total = total.Add(c.CurrentDebt)
	}
	return total
}
