package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cleared-dev/teller/internal/ledger"
	"github.com/cleared-dev/teller/internal/report"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies collects what the handlers need.
type Dependencies struct {
	Ledger  *ledger.Service
	Reports *report.Service
	Health  Pinger // optional
}

// NewRouter wires the API routes.
func NewRouter(log *slog.Logger, deps Dependencies) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLogger(log))

	h := &handlers{ledger: deps.Ledger, reports: deps.Reports, health: deps.Health, log: log}

	r.GET("/healthz", h.healthz)

	api := r.Group("/api")
	api.POST("/accounts", h.openAccount)
	api.GET("/accounts/:id", h.getAccount)
	api.DELETE("/accounts/:id", h.closeAccount)
	api.GET("/accounts/:id/transactions", h.statement)
	api.POST("/accounts/:id/deposit", h.deposit)
	api.POST("/accounts/:id/withdraw", h.withdraw)
	api.PUT("/accounts/:id/branch", h.assignBranch)
	api.DELETE("/accounts/:id/branch", h.detachBranch)
	api.POST("/transfers", h.transfer)
	api.POST("/branches/:id/credit", h.creditBranch)
	api.GET("/reports/top-customers", h.topCustomers)
	api.GET("/reports/active-customers", h.activeCustomers)
	api.GET("/reports/above-average", h.aboveAverage)
	api.GET("/loans", h.loans)

	return r
}

// requestID tags each request with an ID, reusing one supplied by the client.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Header(RequestIDHeader, rid)
		c.Next()
	}
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString(requestIDKey),
		}
		if err := c.Errors.Last(); err != nil {
			attrs = append(attrs, "error", err.Err)
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Error("request failed", attrs...)
			return
		}
		log.Info("request completed", attrs...)
	}
}
