package wallet

import "time"

type Wallet struct {
	UserID    string    `json:"user_id"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

// Transaction is one append-only ledger entry.
type Transaction struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Type           string    `json:"type"`
	Amount         int64     `json:"amount"`
	Reason         string    `json:"reason"`
	CounterpartyID *string   `json:"counterparty_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
