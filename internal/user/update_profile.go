package user

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/obiora-dev/taskhive/internal/db"
)

type UpdateProfileRequest struct {
	Name   string   `json:"name"`
	Skills []string `json:"skills"`
}

// PATCH /user/profile
func UpdateProfile(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(UpdateProfileRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Name == "" && req.Skills == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	ctx := context.Background()
	if req.Name != "" {
		if _, err := db.Conn.Exec(ctx,
			`UPDATE users SET name = $1 WHERE id = $2`, req.Name, userID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update profile"})
		}
	}
	if req.Skills != nil {
		if _, err := db.Conn.Exec(ctx,
			`UPDATE users SET skills = $1 WHERE id = $2`, req.Skills, userID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update profile"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Profile updated"})
}
