package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func signTestToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func runProtected(authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := JWTMiddleware(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	_ = handler(c)
	return rec, c
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	tok := signTestToken(t, "test-secret", jwt.MapClaims{
		"user_id":  "u-123",
		"is_admin": true,
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	rec, c := runProtected("Bearer " + tok)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if got, _ := c.Get("user_id").(string); got != "u-123" {
		t.Fatalf("expected user_id u-123 in context, got %q", got)
	}
	if isAdmin, _ := c.Get("is_admin").(bool); !isAdmin {
		t.Fatalf("expected is_admin true in context")
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	rec, _ := runProtected("")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestJWTMiddleware_BadScheme(t *testing.T) {
	rec, _ := runProtected("Basic dXNlcjpwYXNz")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestJWTMiddleware_WrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "real-secret")
	tok := signTestToken(t, "other-secret", jwt.MapClaims{
		"user_id": "u-123",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	rec, _ := runProtected("Bearer " + tok)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	tok := signTestToken(t, "test-secret", jwt.MapClaims{
		"user_id": "u-123",
		"exp":     time.Now().Add(-time.Minute).Unix(),
	})

	rec, _ := runProtected("Bearer " + tok)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestJWTMiddleware_MissingUserID(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	tok := signTestToken(t, "test-secret", jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	rec, _ := runProtected("Bearer " + tok)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAdminGuard(t *testing.T) {
	e := echo.New()
	handler := AdminGuard(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	cases := []struct {
		name    string
		isAdmin interface{}
		want    int
	}{
		{"admin", true, http.StatusOK},
		{"non-admin", false, http.StatusForbidden},
		{"unset", nil, http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if tc.isAdmin != nil {
			c.Set("is_admin", tc.isAdmin)
		}
		_ = handler(c)
		if rec.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, rec.Code)
		}
	}
}
