package finance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"paycheck-tracker/internal/domain"
	"paycheck-tracker/internal/events"
	"paycheck-tracker/internal/storage"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Service is the write path: it checks input, scopes every record to its
// owner, stores it and announces the change.
type Service struct {
	store  storage.RecordStorage
	events events.Publisher
	now    func() time.Time
}

type ServiceOption func(*Service)

// WithClock replaces time.Now for default record dates.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func NewService(store storage.RecordStorage, pub events.Publisher, opts ...ServiceOption) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	s := &Service{store: store, events: pub, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// publish never fails the write that triggered it.
func (s *Service) publish(ctx context.Context, action events.Action, c domain.Collection, userID, recordID string, record any) {
	if err := s.events.Publish(ctx, events.New(action, c, userID, recordID, record)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change event", "error", err, "user_id", userID, "collection", c, "action", action)
	}
}

func checkOwner(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return domain.ErrUnauthorized
	}
	return nil
}

func checkAmount(d decimal.Decimal) error {
	if d.IsNegative() {
		return domain.ErrInvalidAmount
	}
	return nil
}

func checkName(name string) error {
	if strings.TrimSpace(name) == "" {
		return domain.ErrMissingName
	}
	return nil
}

func checkDays(days ...int) error {
	for _, d := range days {
		if !domain.ValidDay(d) {
			return domain.ErrInvalidDay
		}
	}
	return nil
}

func (s *Service) dateOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return s.now()
	}
	return t
}

// === Paychecks ===

func (s *Service) AddPaycheck(ctx context.Context, userID string, p domain.Paycheck) (*domain.Paycheck, error) {
	if err := checkOwner(userID); err != nil {
		return nil, err
	}
	if err := checkAmount(p.Amount); err != nil {
		return nil, err
	}
	p.ID = uuid.NewString()
	p.UserID = userID
	p.Date = s.dateOrNow(p.Date)

	if err := s.store.CreatePaycheck(ctx, &p); err != nil {
		return nil, fmt.Errorf("create paycheck: %w", err)
	}
	s.publish(ctx, events.Created, domain.Paychecks, userID, p.ID, p)
	return &p, nil
}

func (s *Service) UpdatePaycheck(ctx context.Context, userID string, p domain.Paycheck) (*domain.Paycheck, error) {
	if err := checkOwner(userID); err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, domain.ErrMissingID
	}
	if err := checkAmount(p.Amount); err != nil {
		return nil, err
	}
	p.UserID = userID
	p.Date = s.dateOrNow(p.Date)

	if err := s.store.UpdatePaycheck(ctx, &p); err != nil {
		return nil, fmt.Errorf("update paycheck: %w", err)
	}
	s.publish(ctx, events.Updated, domain.Paychecks, userID, p.ID, p)
	return &p, nil
}

// === Variable expenses ===

func (s *Service) AddExpense(ctx context.Context, userID string, e domain.Expense) (*domain.Expense, error) {
	if err := checkOwner(userID); err != nil {
		return nil, err
	}
	if err := errors.Join(checkName(e.Name), checkAmount(e.Amount)); err != nil {
		return nil, err
	}
	e.ID = uuid.NewString()
	e.UserID = userID
	e.Name = strings.TrimSpace(e.Name)
	e.Date = s.dateOrNow(e.Date)

	if err := s.store.CreateExpense(ctx, &e); err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}
	s.publish(ctx, events.Created, domain.Expenses, userID, e.ID, e)
	return &e, nil
}

func (s *Service) UpdateExpense(ctx context.Context, userID string, e domain.Expense) (*domain.Expense, error) {
	if err := checkOwner(userID); err != nil {
		return nil, err
	}
	if e.ID == "" {
		return nil, domain.ErrMissingID
	}
	if err := errors.Join(checkName(e.Name), checkAmount(e.Amount)); err != nil {
		return nil, err
	}
	e.UserID = userID
	e.Name = strings.TrimSpace(e.Name)
	e.Date = s.dateOrNow(e.Date)

	if err := s.store.UpdateExpense(ctx, &e); err != nil {
		return nil, fmt.Errorf("update expense: %w", err)
	}
	s.publish(ctx, events.Updated, domain.Expenses, userID, e.ID, e)
	return &e, nil
}

// === Fixed expenses ===

func (s *Service) AddFixedExpense(ctx context.Context, userID string, f domain.FixedExpense) (*domain.FixedExpense, error) {
	if err := checkOwner(userID); err != nil {
		return nil, err
	}
	if err := errors.Join(checkName(f.Name), checkAmount(f.Amount), checkDays(f.DayOfMonth)); err != nil {
		return nil, err
	}
	f.ID = uuid.NewString()
	f.UserID = userID
	f.Name = strings.TrimSpace(f.Name)

	if err := s.store.CreateFixedExpense(ctx, &f); err != nil {
		return nil, fmt.Errorf("create fixed expense: %w", err)
	}
	s.publish(ctx, events.Created, domain.FixedExpenses, userID, f.ID, f)
	return &f, nil
}

func (s *Service) UpdateFixedExpense(ctx context.Context, userID string, f domain.FixedExpense) (*domain.FixedExpense, error) {
	if err := checkOwner(userID); err != nil {
		return nil, err
	}
	if f.ID == "" {
		return nil, domain.ErrMissingID
	}
	if err := errors.Join(checkName(f.Name), checkAmount(f.Amount), checkDays(f.DayOfMonth)); err != nil {
		return nil, err
	}
	f.UserID = userID
	f.Name = strings.TrimSpace(f.Name)

	if err := s.store.UpdateFixedExpense(ctx, &f); err != nil {
		return nil, fmt.Errorf("update fixed expense: %w", err)
	}
	s.publish(ctx, events.Updated, domain.FixedExpenses, userID, f.ID, f)
	return &f, nil
}

// === Credit cards ===

func (s *Service) AddCreditCard(ctx context.Context, userID string, c domain.CreditCard) (*domain.CreditCard, error) {
	if err := checkOwner(userID); err != nil {
		return nil, err
	}
	if err := errors.Join(checkName(c.Name), checkAmount(c.CurrentDebt), checkDays(c.ClosingDay, c.PaymentDueDay)); err != nil {
		return nil, err
	}
	c.ID = uuid.NewString()
	c.UserID = userID
	c.Name = strings.TrimSpace(c.Name)

	if err := s.store.CreateCreditCard(ctx, &c); err != nil {
		return nil, fmt.Errorf("create credit card: %w", err)
	}
	s.publish(ctx, events.Created, domain.CreditCards, userID, c.ID, c)
	return &c, nil
}

func (s *Service) UpdateCreditCard(ctx context.Context, userID string, c domain.CreditCard) (*domain.CreditCard, error) {
	if err := checkOwner(userID); err != nil {
		return nil, err
	}
	if c.ID == "" {
		return nil, domain.ErrMissingID
	}
	if err := errors.Join(checkName(c.Name), checkAmount(c.CurrentDebt), checkDays(c.ClosingDay, c.PaymentDueDay)); err != nil {
		return nil, err
	}
	c.UserID = userID
	c.Name = strings.TrimSpace(c.Name)

	if err := s.store.UpdateCreditCard(ctx, &c); err != nil {
		return nil, fmt.Errorf("update credit card: %w", err)
	}
	s.publish(ctx, events.Updated, domain.CreditCards, userID, c.ID, c)
	return &c, nil
}

// === Savings ===

func (s *Service) AddSaving(ctx context.Context, userID string, sv domain.Saving) (*domain.Saving, error) {
	if err := checkOwner(userID); err != nil {
		return nil, err
	}
	if err := checkAmount(sv.Amount); err != nil {
		return nil, err
	}
	sv.ID = uuid.NewString()
	sv.UserID = userID
	sv.Date = s.dateOrNow(sv.Date)

	if err := s.store.CreateSaving(ctx, &sv); err != nil {
		return nil, fmt.Errorf("create saving: %w", err)
	}
	s.publish(ctx, events.Created, domain.Savings, userID, sv.ID, sv)
	return &sv, nil
}

func (s *Service) UpdateSaving(ctx context.Context, userID string, sv domain.Saving) (*domain.Saving, error) {
	if err := checkOwner(userID); err != nil {
		return nil, err
	}
	if sv.ID == "" {
		return nil, domain.ErrMissingID
	}
	if err := checkAmount(sv.Amount); err != nil {
		return nil, err
	}
	sv.UserID = userID
	sv.Date = s.dateOrNow(sv.Date)

	if err := s.store.UpdateSaving(ctx, &sv); err != nil {
		return nil, fmt.Errorf("update saving: %w", err)
	}
	s.publish(ctx, events.Updated, domain.Savings, userID, sv.ID, sv)
	return &sv, nil
}

// SetSavings records the current savings balance. The most recent savings
// record is overwritten and re-dated to now; a first record is created if
// there is none.
func (s *Service) SetSavings(ctx context.Context, userID string, amount decimal.Decimal) (*domain.Saving, error) {
	if err := checkOwner(userID); err != nil {
		return nil, err
	}
	existing, err := s.store.ListSavings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list savings: %w", err)
	}
	if latest := LatestSaving(existing); latest != nil {
		return s.UpdateSaving(ctx, userID, domain.Saving{ID: latest.ID, Amount: amount, Date: s.now()})
	}
	return s.AddSaving(ctx, userID, domain.Saving{Amount: amount})
}

// === Deletes ===

// Delete removes one record of collection c.
func (s *Service) Delete(ctx context.Context, userID string, c domain.Collection, id string) error {
	if err := checkOwner(userID); err != nil {
		return err
	}
	if id == "" {
		return domain.ErrMissingID
	}

	var err error
	switch c {
	case domain.Paychecks:
		err = s.store.DeletePaycheck(ctx, userID, id)
	case domain.Expenses:
		err = s.store.DeleteExpense(ctx, userID, id)
	case domain.FixedExpenses:
		err = s.store.DeleteFixedExpense(ctx, userID, id)
	case domain.CreditCards:
		err = s.store.DeleteCreditCard(ctx, userID, id)
	case domain.Savings:
		err = s.store.DeleteSaving(ctx, userID, id)
	default:
		return fmt.Errorf("unknown collection %q", c)
	}
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", c, id, err)
	}
	s.publish(ctx, events.Deleted, c, userID, id, nil)
	return nil
}

// DeleteMany deletes every id independently and concurrently. A failed
// delete does not stop the others; all failures are joined in the result.
func (s *Service) DeleteMany(ctx context.Context, userID string, c domain.Collection, ids []string) error {
	if err := checkOwner(userID); err != nil {
		return err
	}

	errs := make([]error, len(ids))
	var g errgroup.Group
	g.SetLimit(8)
	for i, id := range ids {
		g.Go(func() error {
			errs[i] = s.Delete(ctx, userID, c, id)
			return nil
		})
	}
	_ = g.Wait()

	if err := errors.Join(errs...); err != nil {
		slog.WarnContext(ctx, "Batch delete partly failed", "user_id", userID, "collection", c, "requested", len(ids), "error", err)
		return err
	}
	return nil
}
