package wallet

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/obiora-dev/taskhive/internal/db"
)

// GetUserTransactions returns the authenticated user's ledger entries,
// newest first.
func GetUserTransactions(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
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
