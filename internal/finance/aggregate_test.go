package finance

import (
	"paycheck-tracker/internal/domain"
	"paycheck-tracker/internal/period"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func at(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}

func assertAmount(t *testing.T, want int64, got decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, got.Equal(d(want)), "%s: want %d, got %s", msg, want, got)
}

// Reference instant: 20 March 2025, inside the first period.
var refNow = at(2025, time.March, 20)

func sampleSnapshot() Snapshot {
	return Snapshot{
		Paychecks: []domain.Paycheck{
			{ID: "p-old", Amount: d(8000), Date: at(2025, time.February, 14)},
			{ID: "p-new", Amount: d(10000), Date: at(2025, time.March, 14)},
		},
		FixedExpenses: []domain.FixedExpense{
			{ID: "rent", Name: "Rent", Amount: d(2000), DayOfMonth: 15},
			{ID: "phone", Name: "Phone", Amount: d(1000), DayOfMonth: 28},
			{ID: "gym", Name: "Gym", Amount: d(400), DayOfMonth: 1},
		},
		Expenses: []domain.Expense{
			{ID: "e1", Name: "Groceries", Amount: d(1000), Date: at(2025, time.March, 16)},
			{ID: "e2", Name: "Fuel", Amount: d(500), Date: time.Date(2025, time.March, 28, 23, 59, 59, 0, time.UTC)},
			{ID: "e3", Name: "Dinner", Amount: d(700), Date: time.Date(2025, time.March, 29, 0, 0, 0, 0, time.UTC)},
			{ID: "e4", Name: "Books", Amount: d(300), Date: at(2025, time.March, 13)},
		},
		CreditCards: []domain.CreditCard{
			{ID: "visa", Name: "Visa", CurrentDebt: d(2000), ClosingDay: 5, PaymentDueDay: 20},
			{ID: "amex", Name: "Amex", CurrentDebt: d(900), ClosingDay: 20, PaymentDueDay: 5},
		},
		Savings: []domain.Saving{
			{ID: "s1", Amount: d(100), Date: at(2025, time.January, 1)},
			{ID: "s2", Amount: d(250), Date: at(2025, time.March, 1)},
		},
	}
}

func TestSummarizeRemainingBalance(t *testing.T) {
	sum := Summarize(sampleSnapshot(), period.First, refNow)

	assert.Equal(t, period.First, sum.Period)
	require.NotNil(t, sum.Range)
	assertAmount(t, 10000, sum.Paycheck, "paycheck")
	assertAmount(t, 250, sum.Savings, "savings")
	assertAmount(t, 3000, sum.TotalFixed, "fixed")
	assertAmount(t, 1500, sum.TotalVariable, "variable")
	assertAmount(t, 4500, sum.TotalExpenses, "expenses")
	assertAmount(t, 2000, sum.TotalCardDebt, "card debt")
	assertAmount(t, 3500, sum.Remaining, "remaining")

	assert.Len(t, sum.FixedExpenses, 2)
	assert.Len(t, sum.Expenses, 2)
	require.Len(t, sum.CreditCards, 1)
	assert.Equal(t, "visa", sum.CreditCards[0].ID)
}

func TestSummarizeSecondPeriod(t *testing.T) {
	now := at(2025, time.March, 30)
	sum := Summarize(sampleSnapshot(), period.Second, now)

	assertAmount(t, 400, sum.TotalFixed, "fixed")
	assertAmount(t, 700, sum.TotalVariable, "variable")
	assertAmount(t, 900, sum.TotalCardDebt, "card debt")
	assertAmount(t, 10000-400-700-900, sum.Remaining, "remaining")
}

func TestSummarizeEmpty(t *testing.T) {
	sum := Summarize(Snapshot{}, period.Second, refNow)

	assert.True(t, sum.Paycheck.IsZero())
	assert.True(t, sum.Savings.IsZero())
	assert.True(t, sum.Remaining.IsZero())
	assert.NotNil(t, sum.Expenses)
	assert.NotNil(t, sum.FixedExpenses)
	assert.NotNil(t, sum.CreditCards)
}

func TestSummarizeIsIdempotent(t *testing.T) {
	s := sampleSnapshot()
	first := Summarize(s, period.First, refNow)
	second := Summarize(s, period.First, refNow)

	assert.Equal(t, first, second)
}

func TestSummarizeCanGoNegative(t *testing.T) {
	s := Snapshot{
		Paychecks:     []domain.Paycheck{{Amount: d(100), Date: refNow}},
		FixedExpenses: []domain.FixedExpense{{Amount: d(250), DayOfMonth: 20}},
	}
	sum := Summarize(s, period.First, refNow)
	assertAmount(t, -150, sum.Remaining, "remaining")
}

func TestCurrentPaycheckPicksLatestDate(t *testing.T) {
	ps := []domain.Paycheck{
		{Amount: d(1), Date: at(2025, time.January, 1)},
		{Amount: d(3), Date: at(2025, time.March, 1)},
		{Amount: d(2), Date: at(2025, time.February, 1)},
	}
	assertAmount(t, 3, CurrentPaycheck(ps), "paycheck")
	assertAmount(t, 0, CurrentPaycheck(nil), "no paychecks")
}

func TestFixedExpenseOnDay31IsSecondPeriod(t *testing.T) {
	fs := []domain.FixedExpense{{ID: "x", DayOfMonth: 31, Amount: d(10)}}
	assert.Len(t, FixedForPeriod(fs, period.Second), 1)
	assert.Empty(t, FixedForPeriod(fs, period.First))
}
