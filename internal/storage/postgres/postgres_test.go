package postgres

import (
	"context"
	"os"
	"paycheck-tracker/internal/domain"
	"paycheck-tracker/internal/realtime"
	"paycheck-tracker/internal/storage"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// Runs against a throwaway database named by TEST_DATABASE_URL.
type PostgresTestSuite struct {
	suite.Suite
	dsn   string
	pool  *pgxpool.Pool
	hub   *realtime.Hub
	store *Storage
	ctx   context.Context
	user  domain.User
}

func (suite *PostgresTestSuite) SetupSuite() {
	suite.ctx = context.Background()
	require.NoError(suite.T(), Migrate(suite.ctx, suite.dsn))

	pool, err := pgxpool.New(suite.ctx, suite.dsn)
	require.NoError(suite.T(), err)
	suite.pool = pool
}

func (suite *PostgresTestSuite) TearDownSuite() {
	suite.pool.Close()
}

func (suite *PostgresTestSuite) SetupTest() {
	_, err := suite.pool.Exec(suite.ctx, `
		TRUNCATE savings, credit_cards, fixed_expenses, expenses, paychecks, revoked_tokens, users
	`)
	require.NoError(suite.T(), err)

	suite.hub = realtime.NewHub()
	suite.store = NewStorage(suite.pool, suite.hub)
	suite.user = domain.User{ID: uuid.NewString(), Email: "Ana@Example.com", DisplayName: "Ana", PasswordHash: "x", CreatedAt: time.Now().UTC()}
	require.NoError(suite.T(), suite.store.CreateUser(suite.ctx, &suite.user))
}

func (suite *PostgresTestSuite) TestUsers() {
	u, err := suite.store.FindUserByEmail(suite.ctx, "ana@example.com")
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), u)
	assert.Equal(suite.T(), suite.user.ID, u.ID)

	dup := domain.User{ID: uuid.NewString(), Email: "ANA@example.com", PasswordHash: "y", CreatedAt: time.Now()}
	assert.ErrorIs(suite.T(), suite.store.CreateUser(suite.ctx, &dup), domain.ErrConflict)

	missing, err := suite.store.FindUserByID(suite.ctx, uuid.NewString())
	require.NoError(suite.T(), err)
	assert.Nil(suite.T(), missing)
}

func (suite *PostgresTestSuite) TestExpenseRoundTripKeepsPrecision() {
	e := domain.Expense{
		ID:     uuid.NewString(),
		UserID: suite.user.ID,
		Name:   "Groceries",
		Amount: decimal.RequireFromString("1234.567"),
		Date:   time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(suite.T(), suite.store.CreateExpense(suite.ctx, &e))

	list, err := suite.store.ListExpenses(suite.ctx, suite.user.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), list, 1)
	assert.True(suite.T(), e.Amount.Equal(list[0].Amount))
	assert.True(suite.T(), e.Date.Equal(list[0].Date))

	e.Name = "Market"
	require.NoError(suite.T(), suite.store.UpdateExpense(suite.ctx, &e))
	require.NoError(suite.T(), suite.store.DeleteExpense(suite.ctx, suite.user.ID, e.ID))
	assert.ErrorIs(suite.T(), suite.store.DeleteExpense(suite.ctx, suite.user.ID, e.ID), domain.ErrNotFound)
}

func (suite *PostgresTestSuite) TestOtherUsersRecordsAreInvisible() {
	p := domain.Paycheck{ID: uuid.NewString(), UserID: suite.user.ID, Amount: decimal.NewFromInt(5000), Date: time.Now()}
	require.NoError(suite.T(), suite.store.CreatePaycheck(suite.ctx, &p))

	list, err := suite.store.ListPaychecks(suite.ctx, uuid.NewString())
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), list)
	assert.ErrorIs(suite.T(), suite.store.DeletePaycheck(suite.ctx, "someone-else", p.ID), domain.ErrNotFound)
}

func (suite *PostgresTestSuite) TestRevokedTokens() {
	revoked, err := suite.store.IsTokenRevoked(suite.ctx, "jti-1")
	require.NoError(suite.T(), err)
	assert.False(suite.T(), revoked)

	require.NoError(suite.T(), suite.store.RevokeToken(suite.ctx, "jti-1", time.Now().Add(time.Hour)))
	require.NoError(suite.T(), suite.store.RevokeToken(suite.ctx, "jti-1", time.Now().Add(time.Hour)))

	revoked, err = suite.store.IsTokenRevoked(suite.ctx, "jti-1")
	require.NoError(suite.T(), err)
	assert.True(suite.T(), revoked)
}

func (suite *PostgresTestSuite) TestListenerDeliversTriggerNotifications() {
	ctx, cancel := context.WithCancel(suite.ctx)
	defer cancel()

	listener := NewListener(suite.dsn, suite.hub)
	done := make(chan error, 1)
	go func() { done <- listener.Run(ctx) }()

	snaps := storage.Subscribe(ctx, suite.store, suite.user.ID, domain.Savings, suite.store.ListSavings)
	first := <-snaps
	require.NoError(suite.T(), first.Err)
	assert.Empty(suite.T(), first.Records)

	sv := domain.Saving{ID: uuid.NewString(), UserID: suite.user.ID, Amount: decimal.NewFromInt(800), Date: time.Now()}
	require.Eventually(suite.T(), func() bool {
		// The listener may not be subscribed yet; retry the insert until a snapshot shows it.
		_ = suite.store.CreateSaving(suite.ctx, &sv)
		select {
		case snap := <-snaps:
			return snap.Err == nil && len(snap.Records) > 0
		case <-time.After(200 * time.Millisecond):
			return false
		}
	}, 10*time.Second, 50*time.Millisecond)

	cancel()
	assert.NoError(suite.T(), <-done)
}

func TestPostgresTestSuite(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	suite.Run(t, &PostgresTestSuite{dsn: dsn})
}
