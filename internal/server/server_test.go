package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/teller/internal/ledger"
	"github.com/cleared-dev/teller/internal/logging"
	"github.com/cleared-dev/teller/internal/model"
	"github.com/cleared-dev/teller/internal/report"
	"github.com/cleared-dev/teller/internal/store/memory"
)

type testAPI struct {
	t      *testing.T
	router http.Handler
	store  *memory.Store
	branch int64
	user   int64
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	st := memory.New()
	user := st.AddUser(model.User{FirstName: "Emma", LastName: "Clark"})
	branch := st.AddBranch(model.Branch{Name: "Branch 1"})
	log := logging.Discard()
	router := NewRouter(log, Dependencies{
		Ledger:  ledger.NewService(st, ledger.WithLogger(log)),
		Reports: report.NewService(st),
	})
	return &testAPI{t: t, router: router, store: st, branch: branch, user: user}
}

func (a *testAPI) do(method, path, body string) *httptest.ResponseRecorder {
	a.t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func (a *testAPI) open(balance string) int64 {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/accounts",
		`{"customer_id": 1, "type": "checking", "initial_balance": "`+balance+`"}`)
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return int64(decode(a.t, w)["account_id"].(float64))
}

func TestOpenAndShowAccount(t *testing.T) {
	api := newTestAPI(t)
	id := api.open("100.00")

	w := api.do(http.MethodGet, "/api/accounts/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, id, body["id"])
	assert.Equal(t, "Checking", body["type"])
	assert.Equal(t, "100.00", body["balance"])
	assert.Nil(t, body["branch_id"])
}

func TestDepositWithdrawTransfer(t *testing.T) {
	api := newTestAPI(t)
	a := api.open("100")
	b := api.open("0")
	require.Equal(t, int64(1), a)
	require.Equal(t, int64(2), b)

	w := api.do(http.MethodPost, "/api/accounts/1/deposit", `{"amount": "25.50"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "125.50", decode(t, w)["balance"])

	w = api.do(http.MethodPost, "/api/accounts/1/withdraw", `{"amount": 5.5}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "120.00", decode(t, w)["balance"])

	w = api.do(http.MethodPost, "/api/transfers", `{"from": 1, "to": 2, "amount": "20"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "100.00", body["from"].(map[string]any)["balance"])
	assert.Equal(t, "20.00", body["to"].(map[string]any)["balance"])

	w = api.do(http.MethodGet, "/api/accounts/1/transactions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["transactions"], 4)
}

func TestStatementCSV(t *testing.T) {
	api := newTestAPI(t)
	api.open("10")

	w := api.do(http.MethodGet, "/api/accounts/1/transactions?format=csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), report.StatementHeader+"\n"))
	assert.Contains(t, w.Body.String(), ",1,")
}

func TestErrorStatuses(t *testing.T) {
	api := newTestAPI(t)
	api.open("50")
	api.open("0")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		kind   ledger.Kind
	}{
		{"missing account", http.MethodGet, "/api/accounts/99", "", http.StatusNotFound, ledger.KindNotFound},
		{"bad id", http.MethodGet, "/api/accounts/abc", "", http.StatusBadRequest, ledger.KindInvalidArgument},
		{"malformed body", http.MethodPost, "/api/accounts/1/deposit", `{"amount":`, http.StatusBadRequest, ledger.KindInvalidArgument},
		{"negative deposit", http.MethodPost, "/api/accounts/1/deposit", `{"amount": "-1"}`, http.StatusBadRequest, ledger.KindInvalidArgument},
		{"huge exponent deposit", http.MethodPost, "/api/accounts/1/deposit", `{"amount": "1e999999999"}`, http.StatusBadRequest, ledger.KindInvalidArgument},
		{"huge negative credit", http.MethodPost, "/api/branches/1/credit", `{"amount": "-1e30000000"}`, http.StatusBadRequest, ledger.KindInvalidArgument},
		{"opening balance too large", http.MethodPost, "/api/accounts", `{"customer_id": 1, "type": "Savings", "initial_balance": "10000000000000.00"}`, http.StatusBadRequest, ledger.KindInvalidArgument},
		{"unknown type", http.MethodPost, "/api/accounts", `{"customer_id": 1, "type": "gold"}`, http.StatusBadRequest, ledger.KindInvalidArgument},
		{"missing customer", http.MethodPost, "/api/accounts", `{"customer_id": 9, "type": "Savings"}`, http.StatusNotFound, ledger.KindNotFound},
		{"close funded account", http.MethodDelete, "/api/accounts/1", "", http.StatusConflict, ledger.KindPreconditionFailed},
		{"overdraw", http.MethodPost, "/api/transfers", `{"from": 1, "to": 2, "amount": "50.01"}`, http.StatusUnprocessableEntity, ledger.KindInsufficientFunds},
		{"missing target", http.MethodPost, "/api/transfers", `{"from": 1, "to": 9, "amount": "1"}`, http.StatusNotFound, ledger.KindNotFound},
		{"bad since", http.MethodGet, "/api/reports/active-customers?since=yesterday", "", http.StatusBadRequest, ledger.KindInvalidArgument},
		{"missing since", http.MethodGet, "/api/reports/active-customers", "", http.StatusBadRequest, ledger.KindInvalidArgument},
		{"bad limit", http.MethodGet, "/api/reports/top-customers?limit=-2", "", http.StatusBadRequest, ledger.KindInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(tt.method, tt.path, tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			body := decode(t, w)
			assert.Equal(t, string(tt.kind), body["kind"])
			assert.NotEmpty(t, body["request_id"])
		})
	}

	// Nothing above changed any balance.
	w := api.do(http.MethodGet, "/api/accounts/1", "")
	assert.Equal(t, "50.00", decode(t, w)["balance"])
}

func TestCloseAndBranchEndpoints(t *testing.T) {
	api := newTestAPI(t)
	api.open("0")
	api.open("100")

	w := api.do(http.MethodPut, "/api/accounts/2/branch", `{"branch_id": 1}`)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = api.do(http.MethodPost, "/api/branches/1/credit", `{"amount": "50"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 1, body["credited"])

	w = api.do(http.MethodDelete, "/api/accounts/2/branch", "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = api.do(http.MethodPost, "/api/branches/1/credit", `{"amount": "50"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.EqualValues(t, 0, body["credited"])
	assert.Empty(t, body["accounts"])

	w = api.do(http.MethodDelete, "/api/accounts/1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = api.do(http.MethodGet, "/api/accounts/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReports(t *testing.T) {
	api := newTestAPI(t)
	api.open("100")
	api.open("300")

	w := api.do(http.MethodGet, "/api/reports/top-customers?limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	customers := decode(t, w)["customers"].([]any)
	require.Len(t, customers, 1)
	assert.Equal(t, "400.00", customers[0].(map[string]any)["total_balance"])

	w = api.do(http.MethodGet, "/api/reports/above-average", "")
	require.Equal(t, http.StatusOK, w.Code)
	accounts := decode(t, w)["accounts"].([]any)
	require.Len(t, accounts, 1)
	assert.EqualValues(t, 2, accounts[0].(map[string]any)["account_id"])

	w = api.do(http.MethodGet, "/api/reports/active-customers?since=2000-01-01&min=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["customers"], 1)

	w = api.do(http.MethodGet, "/api/loans", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["loans"])
}

func TestRequestID(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)

	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	r.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, r)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealthzDegraded(t *testing.T) {
	st := memory.New()
	router := NewRouter(logging.Discard(), Dependencies{
		Ledger:  ledger.NewService(st),
		Reports: report.NewService(st),
		Health:  downPinger{},
	})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", bytes.NewReader(nil)))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(ledger.KindNotFound))
	assert.Equal(t, http.StatusBadRequest, statusFor(ledger.KindInvalidArgument))
	assert.Equal(t, http.StatusConflict, statusFor(ledger.KindPreconditionFailed))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(ledger.KindInsufficientFunds))
	assert.Equal(t, http.StatusInternalServerError, statusFor(ledger.KindInternal))
}
