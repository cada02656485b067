// Package period maps calendar days onto the two semi-monthly pay periods.
//
// The first paycheck (paid on the 14th) covers expenses due on days 14-28.
// The second one (paid on the 29th) covers days 29-31 and 1-13, wrapping the month end.
package period

import (
	"fmt"
	"strings"
	"time"
)

type Period int

const (
	First Period = iota + 1
	Second
)

const (
	firstStartDay  = 14
	firstEndDay    = 28
	secondStartDay = 29
	secondEndDay   = 13
)

// Classify returns the period a day of month belongs to. It only looks at the
// integer, so 28 is First even in a month that has no 29th.
func Classify(day int) Period {
	if day >= firstStartDay && day <= firstEndDay {
		return First
	}
	return Second
}

// Default picks the period shown when a tracker starts: the one today's day falls in.
func Default(now time.Time) Period {
	return Classify(now.Day())
}

func (p Period) Contains(day int) bool {
	switch p {
	case First:
		return day >= firstStartDay && day <= firstEndDay
	case Second:
		return day >= secondStartDay || day <= secondEndDay
	}
	return false
}

func (p Period) Valid() bool {
	return p == First || p == Second
}

func (p Period) String() string {
	switch p {
	case First:
		return "first"
	case Second:
		return "second"
	}
	return fmt.Sprintf("period(%d)", int(p))
}

func (p Period) DisplayName() string {
	switch p {
	case First:
		return "Pay 1 (expenses 14-28)"
	case Second:
		return "Pay 2 (expenses 29-13)"
	}
	return p.String()
}

// Parse accepts "first"/"second", "a"/"b" and "1"/"2", case-insensitively.
func Parse(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "first", "a", "1":
		return First, nil
	case "second", "b", "2":
		return Second, nil
	}
	return 0, fmt.Errorf("unknown period %q", s)
}

func (p Period) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid period %d", int(p))
	}
	return []byte(p.String()), nil
}

func (p *Period) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
