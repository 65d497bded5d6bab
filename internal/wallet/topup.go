package wallet

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/obiora-dev/taskhive/internal/db"
	"github.com/obiora-dev/taskhive/internal/metrics"
)

type TopupRequest struct {
	Amount int64 `json:"amount" validate:"required,min=1"`
}

// Topup credits the authenticated user's wallet with external funds.
// The credit and its log entry commit together.
func Topup(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(TopupRequest)
	if err := c.Bind(req); err != nil || req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid amount"})
	}

	ctx := context.Background()
	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction start failed"})
	}
	defer tx.Rollback(ctx)

	if err := Fund(ctx, tx, userID, req.Amount); err != nil {
		if errors.Is(err, ErrInvalidAmount) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid amount"})
		}
		if errors.Is(err, ErrWalletNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "wallet not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "top-up failed"})
	}

	var balance int64
	if err := tx.QueryRow(ctx, `SELECT balance FROM wallets WHERE user_id = $1`, userID).Scan(&balance); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read balance"})
	}

	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	metrics.TopupsTotal.Inc()

	return c.JSON(http.StatusOK, echo.Map{
		"balance": balance,
		"message": "Top-up successful",
	})
}
