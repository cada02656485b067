// internal/storage/memory/store.go
package memory

import (
	"context"
	"paycheck-tracker/internal/domain"
	"paycheck-tracker/internal/realtime"
	"paycheck-tracker/internal/storage"
	"sort"
	"strings"
	"sync"
	"time"
)

// Store keeps everything in process memory. Records of a user are kept in
// insertion order; List applies the collection's ordering on a copy.
type Store struct {
	mu  sync.RWMutex
	hub *realtime.Hub

	paychecks     map[string][]domain.Paycheck
	expenses      map[string][]domain.Expense
	fixedExpenses map[string][]domain.FixedExpense
	creditCards   map[string][]domain.CreditCard
	savings       map[string][]domain.Saving

	users   map[string]domain.User
	revoked map[string]time.Time
}

func NewStore(hub *realtime.Hub) *Store {
	if hub == nil {
		hub = realtime.NewHub()
	}
	return &Store{
		hub:           hub,
		paychecks:     make(map[string][]domain.Paycheck),
		expenses:      make(map[string][]domain.Expense),
		fixedExpenses: make(map[string][]domain.FixedExpense),
		creditCards:   make(map[string][]domain.CreditCard),
		savings:       make(map[string][]domain.Saving),
		users:         make(map[string]domain.User),
		revoked:       make(map[string]time.Time),
	}
}

func (s *Store) Watch(userID string, c domain.Collection) (<-chan struct{}, func()) {
	return s.hub.Subscribe(userID, c)
}

// replace overwrites the record matching id in place.
func replace[T any](rows []T, id string, idOf func(T) string, v T) bool {
	for i := range rows {
		if idOf(rows[i]) == id {
			rows[i] = v
			return true
		}
	}
	return false
}

func remove[T any](rows []T, id string, idOf func(T) string) ([]T, bool) {
	for i := range rows {
		if idOf(rows[i]) == id {
			return append(rows[:i:i], rows[i+1:]...), true
		}
	}
	return rows, false
}

func clone[T any](rows []T) []T {
	out := make([]T, len(rows))
	copy(out, rows)
	return out
}

// === PaycheckStorage ===

func (s *Store) CreatePaycheck(ctx context.Context, p *domain.Paycheck) error {
	s.mu.Lock()
	s.paychecks[p.UserID] = append(s.paychecks[p.UserID], *p)
	s.mu.Unlock()
	s.hub.Notify(p.UserID, domain.Paychecks)
	return nil
}

func (s *Store) ListPaychecks(ctx context.Context, userID string) ([]domain.Paycheck, error) {
	s.mu.RLock()
	out := clone(s.paychecks[userID])
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *Store) UpdatePaycheck(ctx context.Context, p *domain.Paycheck) error {
	s.mu.Lock()
	ok := replace(s.paychecks[p.UserID], p.ID, func(r domain.Paycheck) string { return r.ID }, *p)
	s.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}
	s.hub.Notify(p.UserID, domain.Paychecks)
	return nil
}

func (s *Store) DeletePaycheck(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	rows, ok := remove(s.paychecks[userID], id, func(r domain.Paycheck) string { return r.ID })
	s.paychecks[userID] = rows
	s.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}
	s.hub.Notify(userID, domain.Paychecks)
	return nil
}

// === ExpenseStorage ===

func (s *Store) CreateExpense(ctx context.Context, e *domain.Expense) error {
	s.mu.Lock()
	s.expenses[e.UserID] = append(s.expenses[e.UserID], *e)
	s.mu.Unlock()
	s.hub.Notify(e.UserID, domain.Expenses)
	return nil
}

func (s *Store) ListExpenses(ctx context.Context, userID string) ([]domain.Expense, error) {
	s.mu.RLock()
	out := clone(s.expenses[userID])
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *Store) UpdateExpense(ctx context.Context, e *domain.Expense) error {
	s.mu.Lock()
	ok := replace(s.expenses[e.UserID], e.ID, func(r domain.Expense) string { return r.ID }, *e)
	s.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}
	s.hub.Notify(e.UserID, domain.Expenses)
	return nil
}

func (s *Store) DeleteExpense(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	rows, ok := remove(s.expenses[userID], id, func(r domain.Expense) string { return r.ID })
	s.expenses[userID] = rows
	s.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}
	s.hub.Notify(userID, domain.Expenses)
	return nil
}

// === FixedExpenseStorage ===

func (s *Store) CreateFixedExpense(ctx context.Context, f *domain.FixedExpense) error {
	s.mu.Lock()
	s.fixedExpenses[f.UserID] = append(s.fixedExpenses[f.UserID], *f)
	s.mu.Unlock()
	s.hub.Notify(f.UserID, domain.FixedExpenses)
	return nil
}

func (s *Store) ListFixedExpenses(ctx context.Context, userID string) ([]domain.FixedExpense, error) {
	s.mu.RLock()
	out := clone(s.fixedExpenses[userID])
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].DayOfMonth < out[j].DayOfMonth })
	return out, nil
}

func (s *Store) UpdateFixedExpense(ctx context.Context, f *domain.FixedExpense) error {
	s.mu.Lock()
	ok := replace(s.fixedExpenses[f.UserID], f.ID, func(r domain.FixedExpense) string { return r.ID }, *f)
	s.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}
	s.hub.Notify(f.UserID, domain.FixedExpenses)
	return nil
}

func (s *Store) DeleteFixedExpense(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	rows, ok := remove(s.fixedExpenses[userID], id, func(r domain.FixedExpense) string { return r.ID })
	s.fixedExpenses[userID] = rows
	s.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}
	s.hub.Notify(userID, domain.FixedExpenses)
	return nil
}

// === CreditCardStorage ===

func (s *Store) CreateCreditCard(ctx context.Context, c *domain.CreditCard) error {
	s.mu.Lock()
	s.creditCards[c.UserID] = append(s.creditCards[c.UserID], *c)
	s.mu.Unlock()
	s.hub.Notify(c.UserID, domain.CreditCards)
	return nil
}

// ListCreditCards keeps insertion order.
func (s *Store) ListCreditCards(ctx context.Context, userID string) ([]domain.CreditCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.creditCards[userID]), nil
}

func (s *Store) UpdateCreditCard(ctx context.Context, c *domain.CreditCard) error {
	s.mu.Lock()
	ok := replace(s.creditCards[c.UserID], c.ID, func(r domain.CreditCard) string { return r.ID }, *c)
	s.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}
	s.hub.Notify(c.UserID, domain.CreditCards)
	return nil
}

func (s *Store) DeleteCreditCard(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	rows, ok := remove(s.creditCards[userID], id, func(r domain.CreditCard) string { return r.ID })
	s.creditCards[userID] = rows
	s.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}
	s.hub.Notify(userID, domain.CreditCards)
	return nil
}

// === SavingStorage ===

func (s *Store) CreateSaving(ctx context.Context, sv *domain.Saving) error {
	s.mu.Lock()
	s.savings[sv.UserID] = append(s.savings[sv.UserID], *sv)
	s.mu.Unlock()
	s.hub.Notify(sv.UserID, domain.Savings)
	return nil
}

func (s *Store) ListSavings(ctx context.Context, userID string) ([]domain.Saving, error) {
	s.mu.RLock()
	out := clone(s.savings[userID])
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *Store) UpdateSaving(ctx context.Context, sv *domain.Saving) error {
	s.mu.Lock()
	ok := replace(s.savings[sv.UserID], sv.ID, func(r domain.Saving) string { return r.ID }, *sv)
	s.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}
	s.hub.Notify(sv.UserID, domain.Savings)
	return nil
}

func (s *Store) DeleteSaving(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	rows, ok := remove(s.savings[userID], id, func(r domain.Saving) string { return r.ID })
	s.savings[userID] = rows
	s.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}
	s.hub.Notify(userID, domain.Savings)
	return nil
}

// === UserStorage ===

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return domain.ErrConflict
		}
	}
	s.users[u.ID] = *u
	return nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// === TokenStorage ===

func (s *Store) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, exp := range s.revoked {
		if exp.Before(now) {
			delete(s.revoked, id)
		}
	}
	s.revoked[tokenID] = expiresAt
	return nil
}

func (s *Store) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.revoked[tokenID]
	return ok, nil
}

var _ storage.Store = (*Store)(nil)
