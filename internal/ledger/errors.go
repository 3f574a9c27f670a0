package ledger

import "errors"

// Error kinds returned by ledger operations. Callers test them with errors.Is;
// the wrapped message names the entity involved.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrInsufficientFunds  = errors.New("insufficient funds")
)

// Kind is a stable, client-facing name for an error kind.
type Kind string

const (
	KindNotFound           Kind = "not_found"
	KindInvalidArgument    Kind = "invalid_argument"
	KindPreconditionFailed Kind = "precondition_failed"
	KindInsufficientFunds  Kind = "insufficient_funds"
	KindInternal           Kind = "internal"
)

// KindOf classifies err. Errors that carry none of the ledger kinds, such as
// store connectivity failures, are KindInternal. A nil error has no kind.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	case errors.Is(err, ErrPreconditionFailed):
		return KindPreconditionFailed
	case errors.Is(err, ErrInsufficientFunds):
		return KindInsufficientFunds
	default:
		return KindInternal
	}
}
