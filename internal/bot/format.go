// internal/bot/format.go
package bot

import (
	"fmt"
	"paycheck-tracker/internal/finance"
	"strings"
	"unicode"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

type formatter struct {
	group   string
	decimal string
}

// newFormatter takes the separators from how the locale prints a sample
// amount, so amounts themselves never pass through float64.
func newFormatter(tag language.Tag) formatter {
	f := formatter{group: ",", decimal: "."}

	sample := message.NewPrinter(tag).Sprint(number.Decimal(1234.5, number.Scale(2)))
	if len(sample) < len("1234.50") {
		return f
	}
	if r, _ := utf8.DecodeRuneInString(sample[1:]); unicode.IsDigit(r) {
		f.group = ""
	} else {
		f.group = string(r)
	}
	if r, _ := utf8.DecodeLastRuneInString(sample[:len(sample)-2]); !unicode.IsDigit(r) {
		f.decimal = string(r)
	}
	return f
}

func (f formatter) money(d decimal.Decimal) string {
	d = d.Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	whole, frac, _ := strings.Cut(d.Abs().StringFixed(2), ".")

	var b strings.Builder
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteString(f.group)
		}
		b.WriteRune(digit)
	}
	return sign + "$" + b.String() + f.decimal + frac
}

// escape keeps user supplied text from being read as Markdown entities.
func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func (f formatter) summary(s finance.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💰 *%s*\n", s.PeriodName)
	if s.Range != nil {
		fmt.Fprintf(&b, "%s - %s\n", s.Range.Start.Format("Jan 2"), s.Range.End.Format("Jan 2"))
	}
	fmt.Fprintf(&b, "\nPaycheck: %s\n", f.money(s.Paycheck))
	fmt.Fprintf(&b, "Fixed: %s\n", f.money(s.TotalFixed))
	for _, fe := range s.FixedExpenses {
		fmt.Fprintf(&b, "  - %s (day %d): %s\n", escape(fe.Name), fe.DayOfMonth, f.money(fe.Amount))
	}
	fmt.Fprintf(&b, "Variable: %s\n", f.money(s.TotalVariable))
	fmt.Fprintf(&b, "Cards due: %s\n", f.money(s.TotalCardDebt))
	for _, c := range s.CreditCards {
		fmt.Fprintf(&b, "  - %s (due %d): %s\n", escape(c.Name), c.PaymentDueDay, f.money(c.CurrentDebt))
	}
	fmt.Fprintf(&b, "\n*Remaining: %s*\n", f.money(s.Remaining))
	fmt.Fprintf(&b, "Savings: %s", f.money(s.Savings))
	return b.String()
}

func (f formatter) history(rows []finance.MonthlyBalance) string {
	if len(rows) == 0 {
		return "📭 No history yet"
	}
	lines := []string{"📅 *Monthly balance*"}
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("%s: %s (in %s, out %s)", r.Month, f.money(r.Balance), f.money(r.Income), f.money(r.TotalExpenses)))
	}
	return strings.Join(lines, "\n")
}
