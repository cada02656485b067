// internal/storage/postgres/postgres.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"paycheck-tracker/internal/domain"
	"paycheck-tracker/internal/realtime"
	"paycheck-tracker/internal/storage"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Storage reads and writes through a pgx pool. Change signals reach Watch
// subscribers through the hub, which a Listener feeds from the database
// triggers; writes here do not signal the hub themselves.
type Storage struct {
	db  *pgxpool.Pool
	hub *realtime.Hub
}

func NewStorage(db *pgxpool.Pool, hub *realtime.Hub) *Storage {
	return &Storage{db: db, hub: hub}
}

func (s *Storage) Watch(userID string, c domain.Collection) (<-chan struct{}, func()) {
	return s.hub.Subscribe(userID, c)
}

// Amounts travel as text so NUMERIC keeps full precision.
func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return d, nil
}

// affected maps an UPDATE or DELETE that matched no row of the user to ErrNotFound.
func affected(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return fmt.Errorf("exec statement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// === PaycheckStorage ===

func (s *Storage) CreatePaycheck(ctx context.Context, p *domain.Paycheck) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO paychecks (id, user_id, amount, date)
		VALUES ($1, $2, $3::numeric, $4)
	`, p.ID, p.UserID, p.Amount.String(), p.Date)
	if err != nil {
		return fmt.Errorf("insert paycheck: %w", err)
	}
	return nil
}

func (s *Storage) ListPaychecks(ctx context.Context, userID string) ([]domain.Paycheck, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, amount::text, date
		FROM paychecks
		WHERE user_id = $1
		ORDER BY date DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query paychecks: %w", err)
	}
	defer rows.Close()

	paychecks := []domain.Paycheck{}
	for rows.Next() {
		var p domain.Paycheck
		var amount string
		if err := rows.Scan(&p.ID, &p.UserID, &amount, &p.Date); err != nil {
			return nil, fmt.Errorf("scan paycheck: %w", err)
		}
		if p.Amount, err = parseAmount(amount); err != nil {
			return nil, err
		}
		paychecks = append(paychecks, p)
	}
	return paychecks, rows.Err()
}

func (s *Storage) UpdatePaycheck(ctx context.Context, p *domain.Paycheck) error {
	return affected(s.db.Exec(ctx, `
		UPDATE paychecks SET amount = $3::numeric, date = $4
		WHERE user_id = $1 AND id = $2
	`, p.UserID, p.ID, p.Amount.String(), p.Date))
}

func (s *Storage) DeletePaycheck(ctx context.Context, userID, id string) error {
	return affected(s.db.Exec(ctx, `DELETE FROM paychecks WHERE user_id = $1 AND id = $2`, userID, id))
}

// === ExpenseStorage ===

func (s *Storage) CreateExpense(ctx context.Context, e *domain.Expense) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO expenses (id, user_id, name, amount, date)
		VALUES ($1, $2, $3, $4::numeric, $5)
	`, e.ID, e.UserID, e.Name, e.Amount.String(), e.Date)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

func (s *Storage) ListExpenses(ctx context.Context, userID string) ([]domain.Expense, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, name, amount::text, date
		FROM expenses
		WHERE user_id = $1
		ORDER BY date DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	expenses := []domain.Expense{}
	for rows.Next() {
		var e domain.Expense
		var amount string
		if err := rows.Scan(&e.ID, &e.UserID, &e.Name, &amount, &e.Date); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if e.Amount, err = parseAmount(amount); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (s *Storage) UpdateExpense(ctx context.Context, e *domain.Expense) error {
	return affected(s.db.Exec(ctx, `
		UPDATE expenses SET name = $3, amount = $4::numeric, date = $5
		WHERE user_id = $1 AND id = $2
	`, e.UserID, e.ID, e.Name, e.Amount.String(), e.Date))
}

func (s *Storage) DeleteExpense(ctx context.Context, userID, id string) error {
	return affected(s.db.Exec(ctx, `DELETE FROM expenses WHERE user_id = $1 AND id = $2`, userID, id))
}

// === FixedExpenseStorage ===

func (s *Storage) CreateFixedExpense(ctx context.Context, f *domain.FixedExpense) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO fixed_expenses (id, user_id, name, amount, day_of_month)
		VALUES ($1, $2, $3, $4::numeric, $5)
	`, f.ID, f.UserID, f.Name, f.Amount.String(), f.DayOfMonth)
	if err != nil {
		return fmt.Errorf("insert fixed expense: %w", err)
	}
	return nil
}

func (s *Storage) ListFixedExpenses(ctx context.Context, userID string) ([]domain.FixedExpense, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, name, amount::text, day_of_month
		FROM fixed_expenses
		WHERE user_id = $1
		ORDER BY day_of_month ASC, created_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query fixed expenses: %w", err)
	}
	defer rows.Close()

	fixed := []domain.FixedExpense{}
	for rows.Next() {
		var f domain.FixedExpense
		var amount string
		if err := rows.Scan(&f.ID, &f.UserID, &f.Name, &amount, &f.DayOfMonth); err != nil {
			return nil, fmt.Errorf("scan fixed expense: %w", err)
		}
		if f.Amount, err = parseAmount(amount); err != nil {
			return nil, err
		}
		fixed = append(fixed, f)
	}
	return fixed, rows.Err()
}

func (s *Storage) UpdateFixedExpense(ctx context.Context, f *domain.FixedExpense) error {
	return affected(s.db.Exec(ctx, `
		UPDATE fixed_expenses SET name = $3, amount = $4::numeric, day_of_month = $5
		WHERE user_id = $1 AND id = $2
	`, f.UserID, f.ID, f.Name, f.Amount.String(), f.DayOfMonth))
}

func (s *Storage) DeleteFixedExpense(ctx context.Context, userID, id string) error {
	return affected(s.db.Exec(ctx, `DELETE FROM fixed_expenses WHERE user_id = $1 AND id = $2`, userID, id))
}

// === CreditCardStorage ===

func (s *Storage) CreateCreditCard(ctx context.Context, c *domain.CreditCard) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO credit_cards (id, user_id, name, current_debt, closing_day, payment_due_day)
		VALUES ($1, $2, $3, $4::numeric, $5, $6)
	`, c.ID, c.UserID, c.Name, c.CurrentDebt.String(), c.ClosingDay, c.PaymentDueDay)
	if err != nil {
		return fmt.Errorf("insert credit card: %w", err)
	}
	return nil
}

// ListCreditCards returns cards in the order they were added.
func (s *Storage) ListCreditCards(ctx context.Context, userID string) ([]domain.CreditCard, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, name, current_debt::text, closing_day, payment_due_day
		FROM credit_cards
		WHERE user_id = $1
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query credit cards: %w", err)
	}
	defer rows.Close()

	cards := []domain.CreditCard{}
	for rows.Next() {
		var c domain.CreditCard
		var debt string
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &debt, &c.ClosingDay, &c.PaymentDueDay); err != nil {
			return nil, fmt.Errorf("scan credit card: %w", err)
		}
		if c.CurrentDebt, err = parseAmount(debt); err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

func (s *Storage) UpdateCreditCard(ctx context.Context, c *domain.CreditCard) error {
	return affected(s.db.Exec(ctx, `
		UPDATE credit_cards SET name = $3, current_debt = $4::numeric, closing_day = $5, payment_due_day = $6
		WHERE user_id = $1 AND id = $2
	`, c.UserID, c.ID, c.Name, c.CurrentDebt.String(), c.ClosingDay, c.PaymentDueDay))
}

func (s *Storage) DeleteCreditCard(ctx context.Context, userID, id string) error {
	return affected(s.db.Exec(ctx, `DELETE FROM credit_cards WHERE user_id = $1 AND id = $2`, userID, id))
}

// === SavingStorage ===

func (s *Storage) CreateSaving(ctx context.Context, sv *domain.Saving) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO savings (id, user_id, amount, date)
		VALUES ($1, $2, $3::numeric, $4)
	`, sv.ID, sv.UserID, sv.Amount.String(), sv.Date)
	if err != nil {
		return fmt.Errorf("insert saving: %w", err)
	}
	return nil
}

func (s *Storage) ListSavings(ctx context.Context, userID string) ([]domain.Saving, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, amount::text, date
		FROM savings
		WHERE user_id = $1
		ORDER BY date DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query savings: %w", err)
	}
	defer rows.Close()

	savings := []domain.Saving{}
	for rows.Next() {
		var sv domain.Saving
		var amount string
		if err := rows.Scan(&sv.ID, &sv.UserID, &amount, &sv.Date); err != nil {
			return nil, fmt.Errorf("scan saving: %w", err)
		}
		if sv.Amount, err = parseAmount(amount); err != nil {
			return nil, err
		}
		savings = append(savings, sv)
	}
	return savings, rows.Err()
}

func (s *Storage) UpdateSaving(ctx context.Context, sv *domain.Saving) error {
	return affected(s.db.Exec(ctx, `
		UPDATE savings SET amount = $3::numeric, date = $4
		WHERE user_id = $1 AND id = $2
	`, sv.UserID, sv.ID, sv.Amount.String(), sv.Date))
}

func (s *Storage) DeleteSaving(ctx context.Context, userID, id string) error {
	return affected(s.db.Exec(ctx, `DELETE FROM savings WHERE user_id = $1 AND id = $2`, userID, id))
}

// === UserStorage ===

const uniqueViolation = "23505"

func (s *Storage) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO users (id, email, display_name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, u.ID, u.Email, u.DisplayName, u.PasswordHash, u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Storage) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findUser(ctx, `WHERE lower(email) = lower($1)`, email)
}

func (s *Storage) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.findUser(ctx, `WHERE id = $1`, id)
}

func (s *Storage) findUser(ctx context.Context, where string, arg string) (*domain.User, error) {
	var u domain.User
	err := s.db.QueryRow(ctx, `
		SELECT id, email, display_name, password_hash, created_at
		FROM users `+where, arg).Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

// === TokenStorage ===

func (s *Storage) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO revoked_tokens (token_id, expires_at) VALUES ($1, $2)
		ON CONFLICT (token_id) DO NOTHING
	`, tokenID, expiresAt)
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM revoked_tokens WHERE expires_at < now()`)
	if err != nil {
		slog.Warn("Failed to prune revoked tokens", "error", err)
	} else if n := tag.RowsAffected(); n > 0 {
		slog.Debug("Pruned revoked tokens", "count", n)
	}
	return nil
}

func (s *Storage) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	var revoked bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token_id = $1)`, tokenID).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return revoked, nil
}

var _ storage.Store = (*Storage)(nil)
