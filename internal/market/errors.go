package market

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/obiora-dev/taskhive/internal/wallet"
)

// Core error taxonomy. Every mutating handler detects these before any write
// so a failed call leaves no partial state behind.
var (
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrInvalidState      = errors.New("operation not allowed in current state")
	ErrInvalidInput      = errors.New("invalid input")
	ErrAlreadyContracted = errors.New("a contract already exists for this task")
	ErrDuplicateOffer    = errors.New("an offer from this worker already exists for this task")
)

// Status maps a taxonomy error to its HTTP status code.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound), errors.Is(err, wallet.ErrWalletNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrAlreadyContracted),
		errors.Is(err, ErrDuplicateOffer),
		errors.Is(err, wallet.ErrInsufficientFunds),
		errors.Is(err, wallet.ErrInvalidAmount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// failure. Pre-checks give friendly errors, but under a race this is the
// signal the loser actually sees.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
