package wallet

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/obiora-dev/taskhive/internal/db"
)

// Balance returns the authenticated user's wallet balance
func Balance(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var w Wallet
	err := db.Conn.QueryRow(context.Background(),
		`SELECT user_id, balance, created_at FROM wallets WHERE user_id = $1`, userID).
		Scan(&w.UserID, &w.Balance, &w.CreatedAt)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "wallet not found"})
	}

	return c.JSON(http.StatusOK, w)
}
