package auth

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/obiora-dev/taskhive/internal/db"
)

// Me returns the currently authenticated user's profile
func Me(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var (
		id, name, email string
		skills          []string
		isAdmin         bool
	)
	err := db.Conn.QueryRow(context.Background(),
		`SELECT id, name, email, skills, is_admin FROM users WHERE id = $1`, userID).
		Scan(&id, &name, &email, &skills, &isAdmin)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":       id,
		"name":     name,
		"email":    email,
		"skills":   skills,
		"is_admin": isAdmin,
	})
}
