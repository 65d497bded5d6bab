package wallet

import (
	"context"
	"errors"
	"testing"
)

// Amount validation happens before the ledger touches the transaction, so a
// nil tx is safe here.
func TestLedger_RejectsNonPositiveAmounts(t *testing.T) {
	ctx := context.Background()
	for _, amount := range []int64{0, -1, -500} {
		if err := Debit(ctx, nil, "u-1", amount, "test", ""); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("Debit(%d): expected ErrInvalidAmount, got %v", amount, err)
		}
		if err := Credit(ctx, nil, "u-1", amount, "test", ""); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("Credit(%d): expected ErrInvalidAmount, got %v", amount, err)
		}
		if err := Fund(ctx, nil, "u-1", amount); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("Fund(%d): expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}
