package finance

import (
	"context"
	"fmt"
	"paycheck-tracker/internal/domain"
	"paycheck-tracker/internal/period"
	"paycheck-tracker/internal/storage"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Tracker keeps the live balance of one user. It follows every collection
// of the user and recomputes the summary and history on each change.
type Tracker struct {
	store  storage.RecordStorage
	userID string
	now    func() time.Time
	loc    *time.Location

	mu      sync.RWMutex
	snap    Snapshot
	period  period.Period
	summary Summary
	history []MonthlyBalance
	updates chan Summary

	loaded map[domain.Collection]bool
	ready  chan struct{}
}

type TrackerOption func(*Tracker)

func WithTrackerClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) { t.now = now }
}

// WithLocation sets the time zone used for periods and calendar months.
func WithLocation(loc *time.Location) TrackerOption {
	return func(t *Tracker) {
		if loc != nil {
			t.loc = loc
		}
	}
}

// NewTracker starts on the period that today's day of month falls in.
func NewTracker(store storage.RecordStorage, userID string, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		store:   store,
		userID:  userID,
		now:     time.Now,
		loc:     time.Local,
		updates: make(chan Summary, 1),
		loaded:  make(map[domain.Collection]bool),
		ready:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.period = period.Default(t.clock())
	t.mu.Lock()
	t.recomputeLocked()
	t.mu.Unlock()
	return t
}

func (t *Tracker) clock() time.Time {
	return t.now().In(t.loc)
}

// Run follows the five collections until ctx is done or one of the
// subscriptions fails.
func (t *Tracker) Run(ctx context.Context) error {
	if err := checkOwner(t.userID); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return follow(ctx, t, domain.Paychecks, t.store.ListPaychecks) })
	g.Go(func() error { return follow(ctx, t, domain.Expenses, t.store.ListExpenses) })
	g.Go(func() error { return follow(ctx, t, domain.FixedExpenses, t.store.ListFixedExpenses) })
	g.Go(func() error { return follow(ctx, t, domain.CreditCards, t.store.ListCreditCards) })
	g.Go(func() error { return follow(ctx, t, domain.Savings, t.store.ListSavings) })
	g.Go(func() error { return t.followClock(ctx) })
	return g.Wait()
}

// followClock refreshes the summary at every midnight, the only moments a
// period's date range can move.
func (t *Tracker) followClock(ctx context.Context) error {
	for {
		now := t.clock()
		y, m, d := now.Date()
		next := time.Date(y, m, d+1, 0, 0, 0, 0, t.loc)

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
			t.Refresh()
		}
	}
}

func follow[T any](ctx context.Context, t *Tracker, c domain.Collection, list storage.ListFunc[T]) error {
	for snap := range storage.Subscribe(ctx, t.store, t.userID, c, list) {
		if snap.Err != nil {
			return fmt.Errorf("follow %s: %w", c, snap.Err)
		}
		if err := t.Apply(c, snap.Records); err != nil {
			return err
		}
	}
	return nil
}

// Apply replaces the content of one collection and recomputes. records must
// be the slice type of the collection.
func (t *Tracker) Apply(c domain.Collection, records any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var ok bool
	switch c {
	case domain.Paychecks:
		t.snap.Paychecks, ok = assign(t.snap.Paychecks, records)
	case domain.Expenses:
		t.snap.Expenses, ok = assign(t.snap.Expenses, records)
	case domain.FixedExpenses:
		t.snap.FixedExpenses, ok = assign(t.snap.FixedExpenses, records)
	case domain.CreditCards:
		t.snap.CreditCards, ok = assign(t.snap.CreditCards, records)
	case domain.Savings:
		t.snap.Savings, ok = assign(t.snap.Savings, records)
	default:
		return fmt.Errorf("apply: unknown collection %q", c)
	}
	if !ok {
		return fmt.Errorf("apply %s: unexpected records %T", c, records)
	}
	t.recomputeLocked()

	if !t.loaded[c] {
		t.loaded[c] = true
		if len(t.loaded) == len(domain.Collections()) {
			close(t.ready)
		}
	}
	return nil
}

// assign returns records as a []T, or cur and false if it is another type.
func assign[T any](cur []T, records any) ([]T, bool) {
	rs, ok := records.([]T)
	if !ok {
		return cur, false
	}
	return rs, true
}

// Ready is closed once every collection has delivered its first snapshot.
func (t *Tracker) Ready() <-chan struct{} {
	return t.ready
}

// SetPeriod switches the displayed period.
func (t *Tracker) SetPeriod(p period.Period) error {
	if !p.Valid() {
		return fmt.Errorf("set period: invalid period %d", int(p))
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.period = p
	t.recomputeLocked()
	return nil
}

func (t *Tracker) recomputeLocked() {
	t.summary = Summarize(t.snap, t.period, t.clock())
	t.history = MonthlyHistory(t.snap, t.loc)

	// keep only the latest summary for a reader that has fallen behind
	select {
	case <-t.updates:
	default:
	}
	t.updates <- t.summary
}

// Updates delivers the summary after every recompute. Unread summaries are
// replaced by newer ones.
func (t *Tracker) Updates() <-chan Summary {
	return t.updates
}

func (t *Tracker) Period() period.Period {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.period
}

// Summary returns the balance as of now. A summary computed before the
// period's date range moved is recomputed first.
func (t *Tracker) Summary() Summary {
	t.Refresh()
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.summary
}

// Refresh recomputes the summary when the date range of the period differs
// from the one it was computed with, and reports whether it did.
func (t *Tracker) Refresh() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := period.RangeFor(t.period, t.clock())
	if !ok || t.summary.Range != nil && r.Start.Equal(t.summary.Range.Start) && r.End.Equal(t.summary.Range.End) {
		return false
	}
	t.recomputeLocked()
	return true
}

func (t *Tracker) History() []MonthlyBalance {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]MonthlyBalance, len(t.history))
	copy(out, t.history)
	return out
}

func (t *Tracker) MonthDetail(year int, month time.Month) MonthDetail {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return DetailFor(t.snap, MonthKey{Year: year, Month: month}, t.loc)
}

// LoadSnapshot lists the five collections of a user concurrently.
func LoadSnapshot(ctx context.Context, store storage.RecordStorage, userID string) (Snapshot, error) {
	if err := checkOwner(userID); err != nil {
		return Snapshot{}, err
	}

	var s Snapshot
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		s.Paychecks, err = store.ListPaychecks(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		s.Expenses, err = store.ListExpenses(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		s.FixedExpenses, err = store.ListFixedExpenses(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		s.CreditCards, err = store.ListCreditCards(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		s.Savings, err = store.ListSavings(ctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	return s, nil
}
