package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cleared-dev/teller/internal/ledger"
)

type errorResponse struct {
	Error     string      `json:"error"`
	Kind      ledger.Kind `json:"kind"`
	RequestID string      `json:"request_id,omitempty"`
}

// statusFor maps a ledger error kind to an HTTP status.
func statusFor(kind ledger.Kind) int {
	switch kind {
	case ledger.KindNotFound:
		return http.StatusNotFound
	case ledger.KindInvalidArgument:
		return http.StatusBadRequest
	case ledger.KindPreconditionFailed:
		return http.StatusConflict
	case ledger.KindInsufficientFunds:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	kind := ledger.KindOf(err)
	msg := err.Error()
	if kind == ledger.KindInternal {
		msg = "internal error"
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(statusFor(kind), errorResponse{
		Error:     msg,
		Kind:      kind,
		RequestID: c.GetString(requestIDKey),
	})
}
