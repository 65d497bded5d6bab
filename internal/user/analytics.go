package user

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/obiora-dev/taskhive/internal/db"
)

// GET /user/analytics - dashboard metrics derived from the caller's data
func Analytics(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx := context.Background()

	var balance int64
	if err := db.Conn.QueryRow(ctx,
		`SELECT balance FROM wallets WHERE user_id = $1`, userID).Scan(&balance); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "wallet not found"})
	}

	var taskCount, offerCount, acceptedOffers int
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM tasks WHERE posted_by = $1`, userID).Scan(&taskCount)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM offers WHERE worker_id = $1`, userID).Scan(&offerCount)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM offers WHERE worker_id = $1 AND status = 'accepted'`, userID).Scan(&acceptedOffers)

	var totalEarned, totalSpent int64
	_ = db.Conn.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE user_id = $1 AND type = 'credit'`, userID).Scan(&totalEarned)
	_ = db.Conn.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE user_id = $1 AND type = 'debit'`, userID).Scan(&totalSpent)

	return c.JSON(http.StatusOK, echo.Map{
		"wallet_balance":  balance,
		"task_count":      taskCount,
		"offer_count":     offerCount,
		"accepted_offers": acceptedOffers,
		"total_earned":    totalEarned,
		"total_spent":     totalSpent,
	})
}
