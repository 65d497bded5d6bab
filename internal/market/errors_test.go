package market

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/obiora-dev/taskhive/internal/wallet"
)

func TestStatus_Mapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrForbidden, http.StatusForbidden},
		{ErrNotFound, http.StatusNotFound},
		{wallet.ErrWalletNotFound, http.StatusNotFound},
		{ErrInvalidState, http.StatusBadRequest},
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrAlreadyContracted, http.StatusBadRequest},
		{ErrDuplicateOffer, http.StatusBadRequest},
		{wallet.ErrInsufficientFunds, http.StatusBadRequest},
		{wallet.ErrInvalidAmount, http.StatusBadRequest},
		{errors.New("pq: connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := Status(tc.err); got != tc.want {
			t.Fatalf("Status(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestStatus_WrappedErrors(t *testing.T) {
	err := fmt.Errorf("accept offer: %w", ErrAlreadyContracted)
	if got := Status(err); got != http.StatusBadRequest {
		t.Fatalf("Status(wrapped) = %d, want %d", got, http.StatusBadRequest)
	}
}

func TestValidComponentType(t *testing.T) {
	for _, ct := range []string{"Backend", "Frontend", "Database", "Deployment", "Full Stack"} {
		if !ValidComponentType(ct) {
			t.Fatalf("%q should be a valid component type", ct)
		}
	}
	for _, ct := range []string{"", "backend", "Design", "full stack"} {
		if ValidComponentType(ct) {
			t.Fatalf("%q should not be a valid component type", ct)
		}
	}
}
