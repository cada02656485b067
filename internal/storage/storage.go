// internal/storage/storage.go
package storage

import (
	"context"
	"paycheck-tracker/internal/domain"
	"time"
)

// Every record method is scoped to userID. Update and Delete return
// domain.ErrNotFound when the user has no record with that id.

type PaycheckStorage interface {
	CreatePaycheck(ctx context.Context, p *domain.Paycheck) error
	ListPaychecks(ctx context.Context, userID string) ([]domain.Paycheck, error)
	UpdatePaycheck(ctx context.Context, p *domain.Paycheck) error
	DeletePaycheck(ctx context.Context, userID, id string) error
}

type ExpenseStorage interface {
	CreateExpense(ctx context.Context, e *domain.Expense) error
	ListExpenses(ctx context.Context, userID string) ([]domain.Expense, error)
	UpdateExpense(ctx context.Context, e *domain.Expense) error
	DeleteExpense(ctx context.Context, userID, id string) error
}

type FixedExpenseStorage interface {
	CreateFixedExpense(ctx context.Context, f *domain.FixedExpense) error
	ListFixedExpenses(ctx context.Context, userID string) ([]domain.FixedExpense, error)
	UpdateFixedExpense(ctx context.Context, f *domain.FixedExpense) error
	DeleteFixedExpense(ctx context.Context, userID, id string) error
}

type CreditCardStorage interface {
	CreateCreditCard(ctx context.Context, c *domain.CreditCard) error
	ListCreditCards(ctx context.Context, userID string) ([]domain.CreditCard, error)
	UpdateCreditCard(ctx context.Context, c *domain.CreditCard) error
	DeleteCreditCard(ctx context.Context, userID, id string) error
}

type SavingStorage interface {
	CreateSaving(ctx context.Context, s *domain.Saving) error
	ListSavings(ctx context.Context, userID string) ([]domain.Saving, error)
	UpdateSaving(ctx context.Context, s *domain.Saving) error
	DeleteSaving(ctx context.Context, userID, id string) error
}

// UserStorage finds return nil, nil when nothing matches.
// CreateUser returns domain.ErrConflict for a taken email.
type UserStorage interface {
	CreateUser(ctx context.Context, u *domain.User) error
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByID(ctx context.Context, id string) (*domain.User, error)
}

type TokenStorage interface {
	RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Watcher delivers a signal after every change to a collection of one user.
type Watcher interface {
	Watch(userID string, c domain.Collection) (<-chan struct{}, func())
}

type RecordStorage interface {
	PaycheckStorage
	ExpenseStorage
	FixedExpenseStorage
	CreditCardStorage
	SavingStorage
	Watcher
}

type Store interface {
	RecordStorage
	UserStorage
	TokenStorage
}
