package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/obiora-dev/taskhive/internal/admin"
	"github.com/obiora-dev/taskhive/internal/alerts"
	"github.com/obiora-dev/taskhive/internal/auth"
	"github.com/obiora-dev/taskhive/internal/db"
	"github.com/obiora-dev/taskhive/internal/market"
	mware "github.com/obiora-dev/taskhive/internal/middleware"
	"github.com/obiora-dev/taskhive/internal/support"
	"github.com/obiora-dev/taskhive/internal/user"
	"github.com/obiora-dev/taskhive/internal/wallet"
)

func main() {
	// .env is optional; real deployments use the environment directly
	_ = godotenv.Load()

	// Init subsystems
	db.Init()
	alerts.Init()
	defer alerts.Close()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Health and root routes
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "taskhive"})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/ready", func(c echo.Context) error {
		if db.Conn == nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db not initialized"})
		}
		if err := db.Conn.Ping(context.Background()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db unreachable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Public routes
	// Auth routes with per-IP rate limiting to protect signup/login from abuse
	authGroup := e.Group("/auth")
	authGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)))
	authGroup.POST("/signup", auth.Signup)
	authGroup.POST("/login", auth.Login)

	e.GET("/user/:id/profile", user.GetPublicProfile)
	e.GET("/tasks", market.GetAllTasks)
	e.GET("/tasks/open", market.GetOpenTasks)

	// Protected routes
	api := e.Group("")
	api.Use(mware.JWTMiddleware)

	api.GET("/me", auth.Me)
	api.GET("/auth/me", auth.Me)
	api.PATCH("/user/profile", user.UpdateProfile)
	api.GET("/user/analytics", user.Analytics)

	api.GET("/wallet/balance", wallet.Balance)
	api.GET("/wallet/transactions", wallet.GetUserTransactions)
	api.POST("/wallet/topup", wallet.Topup)

	api.POST("/tasks", market.CreateTask)
	api.GET("/tasks/mine", market.GetMyTasks)
	api.GET("/tasks/:id", market.GetTask)

	api.POST("/tasks/:id/offers", market.ApplyOffer)
	api.GET("/tasks/:id/offers", market.ListTaskOffers)
	api.POST("/offers/:id/accept", market.AcceptOffer)
	api.POST("/offers/:id/reject", market.RejectOffer)
	api.POST("/offers/:id/withdraw", market.WithdrawOffer)

	api.GET("/contracts/mine", market.MyContracts)
	api.GET("/contracts/posted", market.MyPostedContracts)
	api.GET("/contracts/milestone-requests", market.MyMilestoneRequests)
	api.GET("/contracts/:id", market.GetContract)
	api.POST("/contracts/:id/milestones/:index/request", market.RequestMilestoneCompletion)
	api.POST("/contracts/:id/milestones/:index/approve", market.ApproveMilestone)
	api.POST("/contracts/:id/milestones/:index/reject", market.RejectMilestone)
	api.POST("/contracts/:id/complete", market.CompleteContract)
	api.POST("/contracts/:id/dispute", market.RaiseDispute)

	api.GET("/support/tickets/mine", support.MyTickets)
	api.POST("/support/tickets", support.OpenTicket)

	// Admin routes
	adm := e.Group("/admin")
	adm.Use(mware.JWTMiddleware)
	adm.Use(mware.AdminGuard)

	adm.GET("/stats", admin.Stats)
	adm.GET("/transactions", wallet.AdminGetAllTransactions)
	adm.GET("/transactions/user/:id", wallet.AdminGetUserTransactions)
	adm.GET("/tickets", support.AdminListTickets)
	adm.POST("/tickets/:id/resolve", support.AdminResolveTicket)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := e.Start(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
