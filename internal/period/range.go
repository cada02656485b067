package period

import "time"

// Range is the spending window of a period, inclusive on both ends.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains compares at second resolution so consecutive ranges (one ending at
// 23:59:59, the next starting at 00:00:00) leave no gap between them.
func (r Range) Contains(t time.Time) bool {
	t = t.Truncate(time.Second)
	return !t.Before(r.Start) && !t.After(r.End)
}

// RangeFor resolves the concrete window of p relative to ref, in ref's location.
//
// First is [14, 28] of ref's month once the 14th has arrived, else of the previous month.
// Second is [29, 13 of the next month] once the 29th has arrived, else it started on
// the 29th of the previous month. A 29th that does not exist rolls into the next
// month, which keeps the two ranges back to back.
func RangeFor(p Period, ref time.Time) (Range, bool) {
	year, month, day := ref.Date()
	loc := ref.Location()

	switch p {
	case First:
		if day < firstStartDay {
			month--
		}
		return Range{
			Start: startOfDay(year, month, firstStartDay, loc),
			End:   endOfDay(year, month, firstEndDay, loc),
		}, true
	case Second:
		if day < secondStartDay {
			month--
		}
		return Range{
			Start: startOfDay(year, month, secondStartDay, loc),
			End:   endOfDay(year, month+1, secondEndDay, loc),
		}, true
	}
	return Range{}, false
}

func startOfDay(year int, month time.Month, day int, loc *time.Location) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

func endOfDay(year int, month time.Month, day int, loc *time.Location) time.Time {
	return time.Date(year, month, day, 23, 59, 59, 0, loc)
}
