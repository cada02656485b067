package finance

import (
	"fmt"
	"paycheck-tracker/internal/domain"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const monthLayout = "2006-01"

// MonthKey identifies a calendar month.
type MonthKey struct {
	Year  int
	Month time.Month
}

func monthOf(t time.Time, loc *time.Location) MonthKey {
	y, m, _ := t.In(loc).Date()
	return MonthKey{Year: y, Month: m}
}

func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

// ParseMonthKey parses "YYYY-MM".
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return MonthKey{}, fmt.Errorf("parse month %q: %w", s, err)
	}
	return MonthKey{Year: t.Year(), Month: t.Month()}, nil
}

// MonthlyBalance is one row of the history. Month is "YYYY-MM", so rows sort
// chronologically as strings.
type MonthlyBalance struct {
	Month            string          `json:"month"`
	Income           decimal.Decimal `json:"income"`
	VariableExpenses decimal.Decimal `json:"variable_expenses"`
	FixedExpenses    decimal.Decimal `json:"fixed_expenses"`
	TotalExpenses    decimal.Decimal `json:"total_expenses"`
	Balance          decimal.Decimal `json:"balance"`
}

// MonthlyHistory groups paychecks and variable expenses by calendar month in loc
// and returns one balance per month that has any of them, newest first.
//
// The fixed expense total is the sum of every fixed expense the user has, so it
// is the same for every month.
func MonthlyHistory(s Snapshot, loc *time.Location) []MonthlyBalance {
	if loc == nil {
		loc = time.Local
	}

	income := map[MonthKey]decimal.Decimal{}
	variable := map[MonthKey]decimal.Decimal{}
	keys := map[MonthKey]struct{}{}

	for _, p := range s.Paychecks {
		k := monthOf(p.Date, loc)
		income[k] = income[k].Add(p.Amount)
		keys[k] = struct{}{}
	}
	for _, e := range s.Expenses {
		k := monthOf(e.Date, loc)
		variable[k] = variable[k].Add(e.Amount)
		keys[k] = struct{}{}
	}

	fixed := SumFixed(s.FixedExpenses)
	out := make([]MonthlyBalance, 0, len(keys))
	for k := range keys {
		out = append(out, balanceFor(k, income[k], variable[k], fixed))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Month > out[j].Month
	})
	return out
}

func balanceFor(k MonthKey, income, variable, fixed decimal.Decimal) MonthlyBalance {
	total := variable.Add(fixed)
	return MonthlyBalance{
		Month:            k.String(),
		Income:           income,
		VariableExpenses: variable,
		FixedExpenses:    fixed,
		TotalExpenses:    total,
		Balance:          income.Sub(total),
	}
}

// MonthDetail is everything recorded for one calendar month.
type MonthDetail struct {
	Balance       MonthlyBalance        `json:"balance"`
	Paychecks     []domain.Paycheck     `json:"paychecks"`
	Expenses      []domain.Expense      `json:"expenses"`
	Savings       []domain.Saving       `json:"savings"`
	FixedExpenses []domain.FixedExpense `json:"fixed_expenses"`
	CreditCards   []domain.CreditCard   `json:"credit_cards"`
}

// DetailFor filters the dated records of s down to month k. Fixed expenses and
// credit cards are not dated and are always included in full.
func DetailFor(s Snapshot, k MonthKey, loc *time.Location) MonthDetail {
	if loc == nil {
		loc = time.Local
	}

	d := MonthDetail{
		Paychecks:     []domain.Paycheck{},
		Expenses:      []domain.Expense{},
		Savings:       []domain.Saving{},
		FixedExpenses: append([]domain.FixedExpense{}, s.FixedExpenses...),
		CreditCards:   append([]domain.CreditCard{}, s.CreditCards...),
	}
	income := decimal.Zero
	for _, p := range s.Paychecks {
		if monthOf(p.Date, loc) == k {
			d.Paychecks = append(d.Paychecks, p)
			income = income.Add(p.Amount)
		}
	}
	variable := decimal.Zero
	for _, e := range s.Expenses {
		if monthOf(e.Date, loc) == k {
			d.Expenses = append(d.Expenses, e)
			variable = variable.Add(e.Amount)
		}
	}
	for _, sv := range s.Savings {
		if monthOf(sv.Date, loc) == k {
			d.Savings = append(d.Savings, sv)
		}
	}
	d.Balance = balanceFor(k, income, variable, SumFixed(s.FixedExpenses))
	return d
}
