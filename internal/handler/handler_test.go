package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"paycheck-tracker/internal/auth"
	"paycheck-tracker/internal/config"
	"paycheck-tracker/internal/domain"
	"paycheck-tracker/internal/events"
	"paycheck-tracker/internal/finance"
	"paycheck-tracker/internal/period"
	"paycheck-tracker/internal/storage/memory"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type HandlerTestSuite struct {
	suite.Suite
	store    *memory.Store
	recorder *events.Recorder
	router   *gin.Engine
	token    string
}

func (suite *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.store = memory.NewStore(nil)
	suite.recorder = &events.Recorder{}

	authSvc := auth.NewService(suite.store, suite.store, auth.NewTokenService(config.Config{JWTSecret: "test", JWTExpiresIn: time.Hour}))
	suite.router = NewRouter(Deps{
		Auth:     authSvc,
		Finance:  finance.NewService(suite.store, suite.recorder),
		Store:    suite.store,
		Location: time.UTC,
	})

	w := suite.do(http.MethodPost, "/api/v1/auth/register", `{"email":"ana@b.io","password":"123456","display_name":"Ana"}`, "")
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())
	var resp tokenResponse
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	suite.token = resp.Token
}

func (suite *HandlerTestSuite) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlerTestSuite) authed(method, path, body string) *httptest.ResponseRecorder {
	return suite.do(method, path, body, suite.token)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (suite *HandlerTestSuite) TestAuthFlow() {
	w := suite.do(http.MethodPost, "/api/v1/auth/register", `{"email":"ANA@b.io","password":"123456"}`, "")
	assert.Equal(suite.T(), http.StatusConflict, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/auth/register", `{"email":"bo@b.io","password":"123"}`, "")
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "Password must have at least 6 characters")

	w = suite.do(http.MethodPost, "/api/v1/auth/register", `{"email":"bo@b.io","password":"`+strings.Repeat("x", 73)+`"}`, "")
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "Password must have at most 72 characters")

	w = suite.do(http.MethodPost, "/api/v1/auth/register", `{"email":"bo@b.io","password":"`+strings.Repeat("é", 40)+`"}`, "")
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "The password must be at most 72 bytes long.")

	w = suite.do(http.MethodPost, "/api/v1/auth/login", `{"email":"ana@b.io","password":"nope-nope"}`, "")
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "Wrong email or password.")

	w = suite.do(http.MethodPost, "/api/v1/auth/login", `{"email":"ana@b.io","password":"123456"}`, "")
	require.Equal(suite.T(), http.StatusOK, w.Code)
	second := decode[tokenResponse](suite.T(), w).Token

	w = suite.do(http.MethodGet, "/api/v1/auth/me", "", second)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	me := decode[auth.Identity](suite.T(), w)
	assert.Equal(suite.T(), "ana@b.io", me.Email)
	assert.Equal(suite.T(), "Ana", me.DisplayName)

	w = suite.do(http.MethodPost, "/api/v1/auth/logout", "", second)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	w = suite.do(http.MethodGet, "/api/v1/auth/me", "", second)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	// the first session is unaffected
	w = suite.authed(http.MethodGet, "/api/v1/auth/me", "")
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func (suite *HandlerTestSuite) TestRoutesRequireToken() {
	for _, path := range []string{"/api/v1/expenses", "/api/v1/summary", "/api/v1/history", "/api/v1/auth/me"} {
		w := suite.do(http.MethodGet, path, "", "")
		assert.Equal(suite.T(), http.StatusUnauthorized, w.Code, path)
	}
	w := suite.do(http.MethodGet, "/health", "", "")
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func (suite *HandlerTestSuite) TestExpenseCRUD() {
	w := suite.authed(http.MethodPost, "/api/v1/expenses", `{"name":"Coffee","amount":"-5"}`)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	w = suite.authed(http.MethodPost, "/api/v1/expenses", `{"name":"  ","amount":"5"}`)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "Name must not be blank")

	w = suite.authed(http.MethodPost, "/api/v1/expenses", `{"name":"Coffee","amount":"12,50","date":"2025-03-20T10:00:00Z"}`)
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())
	created := decode[domain.Expense](suite.T(), w)
	assert.NotEmpty(suite.T(), created.ID)
	assert.True(suite.T(), decimal.RequireFromString("12.5").Equal(created.Amount))

	w = suite.authed(http.MethodGet, "/api/v1/expenses", "")
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Len(suite.T(), decode[[]domain.Expense](suite.T(), w), 1)

	w = suite.authed(http.MethodPut, "/api/v1/expenses/"+created.ID, `{"name":"Tea","amount":"3","date":"2025-03-21T10:00:00Z"}`)
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())
	assert.Equal(suite.T(), "Tea", decode[domain.Expense](suite.T(), w).Name)

	w = suite.authed(http.MethodPut, "/api/v1/expenses/missing", `{"name":"Tea","amount":"3"}`)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	w = suite.authed(http.MethodDelete, "/api/v1/expenses/"+created.ID, "")
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	w = suite.authed(http.MethodDelete, "/api/v1/expenses/"+created.ID, "")
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	w = suite.authed(http.MethodGet, "/api/v1/expenses", "")
	assert.JSONEq(suite.T(), `[]`, w.Body.String())
	assert.Len(suite.T(), suite.recorder.Events(), 3)
}

func (suite *HandlerTestSuite) TestCreditCardValidation() {
	w := suite.authed(http.MethodPost, "/api/v1/credit-cards", `{"name":"Visa","current_debt":"100","closing_day":40,"payment_due_day":5}`)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "ClosingDay must be a day between 1 and 31")

	w = suite.authed(http.MethodPost, "/api/v1/credit-cards", `{"name":"Visa","current_debt":"100","closing_day":25,"payment_due_day":5}`)
	assert.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())
}

func (suite *HandlerTestSuite) TestBatchDeleteReportsFailures() {
	var ids []string
	for _, day := range []int{1, 14} {
		w := suite.authed(http.MethodPost, "/api/v1/fixed-expenses", `{"name":"Rent","amount":"1000","day_of_month":`+strconv.Itoa(day)+`}`)
		require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())
		ids = append(ids, decode[domain.FixedExpense](suite.T(), w).ID)
	}

	w := suite.authed(http.MethodDelete, "/api/v1/fixed-expenses", "")
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	w = suite.authed(http.MethodDelete, "/api/v1/fixed-expenses?id="+ids[0]+"&id=missing&id="+ids[1], "")
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	resp := decode[struct {
		Failed []string `json:"failed"`
	}](suite.T(), w)
	require.Len(suite.T(), resp.Failed, 1)
	assert.Contains(suite.T(), resp.Failed[0], "missing")

	w = suite.authed(http.MethodGet, "/api/v1/fixed-expenses", "")
	assert.JSONEq(suite.T(), `[]`, w.Body.String())
}

func (suite *HandlerTestSuite) TestSetCurrentSavingsOverwritesLatest() {
	w := suite.authed(http.MethodPut, "/api/v1/savings/current", `{"amount":"100"}`)
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())
	w = suite.authed(http.MethodPut, "/api/v1/savings/current", `{"amount":"250.75"}`)
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())

	w = suite.authed(http.MethodGet, "/api/v1/savings", "")
	savings := decode[[]domain.Saving](suite.T(), w)
	require.Len(suite.T(), savings, 1)
	assert.True(suite.T(), decimal.RequireFromString("250.75").Equal(savings[0].Amount))

	w = suite.authed(http.MethodPut, "/api/v1/savings/current", `{"amount":"abc"}`)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestSummaryOfCurrentPeriod() {
	p := period.Default(time.Now().UTC())
	suite.authed(http.MethodPost, "/api/v1/paychecks", `{"amount":"5000"}`)
	suite.authed(http.MethodPost, "/api/v1/fixed-expenses", `{"name":"Rent","amount":"1000","day_of_month":14}`)
	suite.authed(http.MethodPost, "/api/v1/fixed-expenses", `{"name":"Gym","amount":"300","day_of_month":1}`)
	suite.authed(http.MethodPost, "/api/v1/expenses", `{"name":"Food","amount":"200"}`)

	w := suite.authed(http.MethodGet, "/api/v1/summary?period="+p.String(), "")
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())
	sum := decode[finance.Summary](suite.T(), w)

	fixed := decimal.NewFromInt(300)
	if p == period.First {
		fixed = decimal.NewFromInt(1000)
	}
	assert.Equal(suite.T(), p, sum.Period)
	assert.True(suite.T(), fixed.Equal(sum.TotalFixed), sum.TotalFixed.String())
	assert.True(suite.T(), decimal.NewFromInt(200).Equal(sum.TotalVariable), sum.TotalVariable.String())
	assert.True(suite.T(), decimal.NewFromInt(4800).Sub(fixed).Equal(sum.Remaining), sum.Remaining.String())

	w = suite.authed(http.MethodGet, "/api/v1/summary?period=third", "")
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "Period must be first or second")

	w = suite.authed(http.MethodGet, "/api/v1/summary?period=B", "")
	assert.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())
	assert.Equal(suite.T(), period.Second, decode[finance.Summary](suite.T(), w).Period)
}

func (suite *HandlerTestSuite) TestHistory() {
	suite.authed(http.MethodPost, "/api/v1/paychecks", `{"amount":"5000","date":"2025-01-14T12:00:00Z"}`)
	suite.authed(http.MethodPost, "/api/v1/paychecks", `{"amount":"4000","date":"2025-02-14T12:00:00Z"}`)
	suite.authed(http.MethodPost, "/api/v1/expenses", `{"name":"Food","amount":"250","date":"2025-02-20T12:00:00Z"}`)

	w := suite.authed(http.MethodGet, "/api/v1/history", "")
	require.Equal(suite.T(), http.StatusOK, w.Code)
	rows := decode[[]finance.MonthlyBalance](suite.T(), w)
	require.Len(suite.T(), rows, 2)
	assert.Equal(suite.T(), "2025-02", rows[0].Month)
	assert.True(suite.T(), decimal.NewFromInt(3750).Equal(rows[0].Balance))

	w = suite.authed(http.MethodGet, "/api/v1/history/2025-02", "")
	require.Equal(suite.T(), http.StatusOK, w.Code)
	detail := decode[finance.MonthDetail](suite.T(), w)
	assert.Len(suite.T(), detail.Paychecks, 1)
	assert.Len(suite.T(), detail.Expenses, 1)

	w = suite.authed(http.MethodGet, "/api/v1/history/2025-13", "")
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "Month must be in YYYY-MM format")
}

func (suite *HandlerTestSuite) TestStreamPushesSummaries() {
	p := period.Default(time.Now().UTC())
	suite.authed(http.MethodPost, "/api/v1/paychecks", `{"amount":"5000"}`)
	suite.authed(http.MethodPost, "/api/v1/fixed-expenses", `{"name":"Rent","amount":"1000","day_of_month":14}`)
	suite.authed(http.MethodPost, "/api/v1/fixed-expenses", `{"name":"Gym","amount":"300","day_of_month":1}`)
	fixed := decimal.NewFromInt(300)
	if p == period.First {
		fixed = decimal.NewFromInt(1000)
	}

	srv := httptest.NewServer(suite.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/stream?token="+suite.token, nil)
	require.NoError(suite.T(), err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(suite.T(), err)
	defer resp.Body.Close()
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	assert.Contains(suite.T(), resp.Header.Get("Content-Type"), "text/event-stream")

	scanner := bufio.NewScanner(resp.Body)
	next := func() finance.Summary {
		for scanner.Scan() {
			line := scanner.Text()
			if data, ok := strings.CutPrefix(line, "data:"); ok {
				var s finance.Summary
				require.NoError(suite.T(), json.Unmarshal([]byte(data), &s))
				return s
			}
		}
		suite.T().Fatalf("stream ended: %v", scanner.Err())
		return finance.Summary{}
	}

	// the first event already reflects everything stored
	first := next()
	assert.Equal(suite.T(), p, first.Period)
	assert.True(suite.T(), decimal.NewFromInt(5000).Equal(first.Paycheck), first.Paycheck.String())
	assert.True(suite.T(), fixed.Equal(first.TotalFixed), first.TotalFixed.String())
	assert.True(suite.T(), decimal.NewFromInt(5000).Sub(fixed).Equal(first.Remaining), first.Remaining.String())

	w := suite.authed(http.MethodPost, "/api/v1/expenses", `{"name":"Food","amount":"200"}`)
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	for {
		s := next()
		if s.TotalVariable.Equal(decimal.NewFromInt(200)) {
			assert.True(suite.T(), decimal.NewFromInt(4800).Sub(fixed).Equal(s.Remaining), s.Remaining.String())
			break
		}
	}
}

func (suite *HandlerTestSuite) TestStreamRejectsUnknownPeriod() {
	w := suite.authed(http.MethodGet, "/api/v1/stream?period=third", "")
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "Period must be first or second")
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}
