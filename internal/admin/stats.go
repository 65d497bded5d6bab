package admin

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/obiora-dev/taskhive/internal/db"
)

// GET /admin/stats
func Stats(c echo.Context) error {
	ctx := context.Background()

	var users, tasks, offers, contracts, transactions, openTickets int

	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&users)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&tasks)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM offers`).Scan(&offers)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM contracts`).Scan(&contracts)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&transactions)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM support_tickets WHERE status = 'open'`).Scan(&openTickets)

	return c.JSON(http.StatusOK, echo.Map{
		"users":        users,
		"tasks":        tasks,
		"offers":       offers,
		"contracts":    contracts,
		"transactions": transactions,
		"open_tickets": openTickets,
	})
}
