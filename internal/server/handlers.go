package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/teller/internal/id"
	"github.com/cleared-dev/teller/internal/ledger"
	"github.com/cleared-dev/teller/internal/model"
	"github.com/cleared-dev/teller/internal/report"
)

type handlers struct {
	ledger  *ledger.Service
	reports *report.Service
	health  Pinger
	log     *slog.Logger
}

type accountResponse struct {
	ID         int64  `json:"id"`
	CustomerID int64  `json:"customer_id"`
	BranchID   *int64 `json:"branch_id"`
	Type       string `json:"type"`
	Balance    string `json:"balance"`
	DateOpened string `json:"date_opened"`
}

func newAccountResponse(a model.Account) accountResponse {
	return accountResponse{
		ID:         a.ID,
		CustomerID: a.CustomerID,
		BranchID:   a.BranchID,
		Type:       string(a.Type),
		Balance:    a.Balance.StringFixed(2),
		DateOpened: a.DateOpened.Format(ledger.DateLayout),
	}
}

type transactionResponse struct {
	ID        int64     `json:"id"`
	AccountID int64     `json:"account_id"`
	Type      string    `json:"type"`
	Amount    string    `json:"amount"`
	Date      time.Time `json:"date"`
}

type balanceResponse struct {
	AccountID int64  `json:"account_id"`
	Balance   string `json:"balance"`
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// bind decodes the JSON body; malformed input is an invalid argument.
func bind(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return fmt.Errorf("invalid request body: %v: %w", err, ledger.ErrInvalidArgument)
	}
	return nil
}

func pathID(c *gin.Context, what string) (int64, error) {
	return id.Parse(what, c.Param("id"))
}

func (h *handlers) healthz(c *gin.Context) {
	if h.health != nil {
		if err := h.health.Ping(c.Request.Context()); err != nil {
			h.log.Error("health probe failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type openAccountRequest struct {
	CustomerID     int64           `json:"customer_id"`
	Type           string          `json:"type"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	DateOpened     string          `json:"date_opened"`
}

func (h *handlers) openAccount(c *gin.Context) {
	var req openAccountRequest
	if err := bind(c, &req); err != nil {
		writeError(c, err)
		return
	}
	typ, ok := model.ParseAccountType(req.Type)
	if !ok {
		writeError(c, fmt.Errorf("unknown account type %q: %w", req.Type, ledger.ErrInvalidArgument))
		return
	}
	p := ledger.OpenAccountParams{CustomerID: req.CustomerID, Type: typ, InitialBalance: req.InitialBalance}
	if req.DateOpened != "" {
		d, err := ledger.ParseDate(req.DateOpened)
		if err != nil {
			writeError(c, err)
			return
		}
		p.DateOpened = d
	}

	accountID, err := h.ledger.OpenAccount(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"account_id": accountID})
}

func (h *handlers) getAccount(c *gin.Context) {
	accountID, err := pathID(c, "account")
	if err != nil {
		writeError(c, err)
		return
	}
	acct, err := h.reports.Account(c.Request.Context(), accountID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newAccountResponse(acct))
}

func (h *handlers) closeAccount(c *gin.Context) {
	accountID, err := pathID(c, "account")
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.ledger.CloseAccount(c.Request.Context(), accountID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) statement(c *gin.Context) {
	accountID, err := pathID(c, "account")
	if err != nil {
		writeError(c, err)
		return
	}
	txns, err := h.reports.Statement(c.Request.Context(), accountID)
	if err != nil {
		writeError(c, err)
		return
	}

	if c.Query("format") == "csv" {
		c.Header("Content-Type", "text/csv")
		c.Status(http.StatusOK)
		if err := report.WriteStatement(c.Writer, txns); err != nil {
			_ = c.Error(err)
		}
		return
	}

	out := make([]transactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, transactionResponse{
			ID:        t.ID,
			AccountID: t.AccountID,
			Type:      string(t.Type),
			Amount:    t.Amount.StringFixed(2),
			Date:      t.Date,
		})
	}
	c.JSON(http.StatusOK, gin.H{"account_id": accountID, "transactions": out})
}

type postFunc func(ctx context.Context, accountID int64, amount decimal.Decimal) (decimal.Decimal, error)

func (h *handlers) deposit(c *gin.Context) {
	h.post(c, h.ledger.Deposit)
}

func (h *handlers) withdraw(c *gin.Context) {
	h.post(c, h.ledger.Withdraw)
}

// post runs a single-account balance change.
func (h *handlers) post(c *gin.Context, op postFunc) {
	accountID, err := pathID(c, "account")
	if err != nil {
		writeError(c, err)
		return
	}
	var req amountRequest
	if err := bind(c, &req); err != nil {
		writeError(c, err)
		return
	}
	balance, err := op(c.Request.Context(), accountID, req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, balanceResponse{AccountID: accountID, Balance: balance.StringFixed(2)})
}

type assignBranchRequest struct {
	BranchID int64 `json:"branch_id"`
}

func (h *handlers) assignBranch(c *gin.Context) {
	accountID, err := pathID(c, "account")
	if err != nil {
		writeError(c, err)
		return
	}
	var req assignBranchRequest
	if err := bind(c, &req); err != nil {
		writeError(c, err)
		return
	}
	if err := h.ledger.AssignToBranch(c.Request.Context(), accountID, req.BranchID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) detachBranch(c *gin.Context) {
	accountID, err := pathID(c, "account")
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.ledger.DetachFromBranch(c.Request.Context(), accountID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type transferRequest struct {
	From   int64           `json:"from"`
	To     int64           `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

func (h *handlers) transfer(c *gin.Context) {
	var req transferRequest
	if err := bind(c, &req); err != nil {
		writeError(c, err)
		return
	}
	res, err := h.ledger.Transfer(c.Request.Context(), ledger.TransferParams{From: req.From, To: req.To, Amount: req.Amount})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"from": balanceResponse{AccountID: req.From, Balance: res.FromBalance.StringFixed(2)},
		"to":   balanceResponse{AccountID: req.To, Balance: res.ToBalance.StringFixed(2)},
	})
}

func (h *handlers) creditBranch(c *gin.Context) {
	branchID, err := pathID(c, "branch")
	if err != nil {
		writeError(c, err)
		return
	}
	var req amountRequest
	if err := bind(c, &req); err != nil {
		writeError(c, err)
		return
	}
	res, err := h.ledger.CreditBranch(c.Request.Context(), branchID, req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	accounts := res.Accounts
	if accounts == nil {
		accounts = []int64{}
	}
	c.JSON(http.StatusOK, gin.H{
		"branch_id": branchID,
		"credited":  res.Credited(),
		"accounts":  accounts,
	})
}

// queryInt reads an optional non-negative integer query parameter.
func queryInt(c *gin.Context, key string) (int, error) {
	v := c.Query(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("query parameter %s=%q must be a non-negative integer: %w", key, v, ledger.ErrInvalidArgument)
	}
	return n, nil
}

type customerBalanceResponse struct {
	CustomerID   int64  `json:"customer_id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	TotalBalance string `json:"total_balance"`
}

func (h *handlers) topCustomers(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		writeError(c, err)
		return
	}
	rows, err := h.reports.TopCustomers(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]customerBalanceResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, customerBalanceResponse{
			CustomerID:   r.CustomerID,
			FirstName:    r.FirstName,
			LastName:     r.LastName,
			TotalBalance: r.TotalBalance.StringFixed(2),
		})
	}
	c.JSON(http.StatusOK, gin.H{"customers": out})
}

type customerActivityResponse struct {
	CustomerID   int64  `json:"customer_id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Transactions int    `json:"transactions"`
}

func (h *handlers) activeCustomers(c *gin.Context) {
	var p report.ActiveParams
	if v := c.Query("since"); v != "" {
		since, err := ledger.ParseDate(v)
		if err != nil {
			writeError(c, err)
			return
		}
		p.Since = since
	}
	var err error
	if p.MinCount, err = queryInt(c, "min"); err != nil {
		writeError(c, err)
		return
	}
	if p.Limit, err = queryInt(c, "limit"); err != nil {
		writeError(c, err)
		return
	}

	rows, err := h.reports.ActiveCustomers(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]customerActivityResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, customerActivityResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{"customers": out})
}

type accountBalanceResponse struct {
	AccountID  int64  `json:"account_id"`
	CustomerID int64  `json:"customer_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Balance    string `json:"balance"`
}

func (h *handlers) aboveAverage(c *gin.Context) {
	rows, err := h.reports.AboveAverage(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]accountBalanceResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, accountBalanceResponse{
			AccountID:  r.AccountID,
			CustomerID: r.CustomerID,
			FirstName:  r.FirstName,
			LastName:   r.LastName,
			Balance:    r.Balance.StringFixed(2),
		})
	}
	c.JSON(http.StatusOK, gin.H{"accounts": out})
}

type loanResponse struct {
	ID           int64  `json:"id"`
	CustomerID   int64  `json:"customer_id"`
	AmountDue    string `json:"amount_due"`
	InterestRate string `json:"interest_rate"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
}

func (h *handlers) loans(c *gin.Context) {
	loans, err := h.reports.Loans(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]loanResponse, 0, len(loans))
	for _, l := range loans {
		out = append(out, loanResponse{
			ID:           l.ID,
			CustomerID:   l.CustomerID,
			AmountDue:    l.AmountDue.StringFixed(2),
			InterestRate: l.InterestRate.String(),
			StartDate:    l.StartDate.Format(ledger.DateLayout),
			EndDate:      l.EndDate.Format(ledger.DateLayout),
		})
	}
	c.JSON(http.StatusOK, gin.H{"loans": out})
}
