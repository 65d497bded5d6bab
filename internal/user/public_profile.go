package user

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/obiora-dev/taskhive/internal/db"
)

// GET /user/:id/profile
func GetPublicProfile(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing user id"})
	}

	var (
		id        string
		name      string
		skills    []string
		createdAt time.Time
	)
	err := db.Conn.QueryRow(context.Background(),
		`SELECT id, name, skills, created_at FROM users WHERE id = $1`, userID,
	).Scan(&id, &name, &skills, &createdAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch user"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":         id,
		"name":       name,
		"skills":     skills,
		"created_at": createdAt.Format(time.RFC3339),
	})
}
