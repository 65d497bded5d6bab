package wallet

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/obiora-dev/taskhive/internal/db"
)

// AdminGetAllTransactions returns the full platform ledger, newest first.
func AdminGetAllTransactions(c echo.Context) error {
	rows, err := db.Conn.Query(context.Background(),
		`SELECT id, user_id, type, amount, reason, counterparty_id, created_at
         FROM transactions
         ORDER BY created_at DESC
         LIMIT 500`)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch transactions"})
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Reason, &t.CounterpartyID, &t.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "scan error"})
		}
		txs = append(txs, t)
	}

	return c.JSON(http.StatusOK, echo.Map{"transactions": txs})
}

// AdminGetUserTransactions returns one user's ledger for support review.
func AdminGetUserTransactions(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing user id"})
	}

	rows, err := db.Conn.Query(context.Background(),
		`SELECT id, user_id, type, amount, reason, counterparty_id, created_at
         FROM transactions
         WHERE user_id = $1
         ORDER BY created_at DESC`, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch transactions"})
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Reason, &t.CounterpartyID, &t.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "scan error"})
		}
		txs = append(txs, t)
	}

	return c.JSON(http.StatusOK, echo.Map{"transactions": txs})
}
