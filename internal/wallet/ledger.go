package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Transaction types recorded in the append-only log.
const (
	TxDebit   = "debit"
	TxCredit  = "credit"
	TxFunding = "funding"
)

var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrWalletNotFound    = errors.New("wallet not found")
)

// Debit locks the wallet row, checks cover, decreases the balance and appends
// a log entry. It must run inside the caller's transaction so a failed debit
// leaves neither a balance change nor a log row behind.
func Debit(ctx context.Context, tx pgx.Tx, userID string, amount int64, reason, counterpartyID string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	var balance int64
	err := tx.QueryRow(ctx, `SELECT balance FROM wallets WHERE user_id = $1 FOR UPDATE`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrWalletNotFound
		}
		return err
	}
	if balance < amount {
		return ErrInsufficientFunds
	}

	if _, err := tx.Exec(ctx,
		`UPDATE wallets SET balance = balance - $1 WHERE user_id = $2`,
		amount, userID,
	); err != nil {
		return err
	}

	return appendEntry(ctx, tx, userID, TxDebit, amount, reason, counterpartyID)
}

// Credit locks the wallet row, increases the balance and appends a log entry.
func Credit(ctx context.Context, tx pgx.Tx, userID string, amount int64, reason, counterpartyID string) error {
	return credit(ctx, tx, userID, TxCredit, amount, reason, counterpartyID)
}

// Fund is an external top-up: same as a credit but tagged 'funding'.
func Fund(ctx context.Context, tx pgx.Tx, userID string, amount int64) error {
	return credit(ctx, tx, userID, TxFunding, amount, "Wallet top-up", "")
}

func credit(ctx context.Context, tx pgx.Tx, userID, txType string, amount int64, reason, counterpartyID string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	var balance int64
	err := tx.QueryRow(ctx, `SELECT balance FROM wallets WHERE user_id = $1 FOR UPDATE`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrWalletNotFound
		}
		return err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE wallets SET balance = balance + $1 WHERE user_id = $2`,
		amount, userID,
	); err != nil {
		return err
	}

	return appendEntry(ctx, tx, userID, txType, amount, reason, counterpartyID)
}

func appendEntry(ctx context.Context, tx pgx.Tx, userID, txType string, amount int64, reason, counterpartyID string) error {
	var counterparty *string
	if counterpartyID != "" {
		counterparty = &counterpartyID
	}
	_, err := tx.Exec(ctx,
		`INSERT INTO transactions (id, user_id, type, amount, reason, counterparty_id, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New().String(), userID, txType, amount, reason, counterparty, time.Now(),
	)
	return err
}
