package market

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/obiora-dev/taskhive/internal/db"
)

type CreateTaskRequest struct {
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	ComponentType    string    `json:"component_type"`
	ParticipationFee int64     `json:"participation_fee"`
	Budget           int64     `json:"budget"`
	Deadline         time.Time `json:"deadline"`
}

// =========================
// CreateTask - Poster publishes a task
// =========================
func CreateTask(c echo.Context) error {
	posterID, ok := c.Get("user_id").(string)
	if !ok || posterID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(CreateTaskRequest)
	if err := c.Bind(req); err != nil || req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if !ValidComponentType(req.ComponentType) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid component type"})
	}
	if req.ParticipationFee < 0 || req.Budget < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "fee and budget must not be negative"})
	}
	if req.Deadline.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "deadline required"})
	}

	t := Task{
		ID:               uuid.New().String(),
		Title:            req.Title,
		Description:      req.Description,
		ComponentType:    req.ComponentType,
		ParticipationFee: req.ParticipationFee,
		Budget:           req.Budget,
		Deadline:         req.Deadline,
		PostedBy:         posterID,
		Status:           TaskOpen,
	}

	err := db.Conn.QueryRow(context.Background(),
		`INSERT INTO tasks (id, title, description, component_type, participation_fee, budget, deadline, posted_by, status)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
         RETURNING created_at, updated_at`,
		t.ID, t.Title, t.Description, t.ComponentType, t.ParticipationFee, t.Budget, t.Deadline, t.PostedBy, t.Status,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create task"})
	}

	return c.JSON(http.StatusCreated, t)
}

// expireOverdueTasks flips open tasks whose deadline passed to expired.
// Called lazily from the listing handlers, as the read path is the only
// place expiry is observable.
func expireOverdueTasks(ctx context.Context, posterID string) {
	if posterID == "" {
		_, _ = db.Conn.Exec(ctx,
			`UPDATE tasks SET status = 'expired', updated_at = NOW() WHERE status = 'open' AND deadline < NOW()`)
		return
	}
	_, _ = db.Conn.Exec(ctx,
		`UPDATE tasks SET status = 'expired', updated_at = NOW() WHERE posted_by = $1 AND status = 'open' AND deadline < NOW()`,
		posterID)
}

func scanTasks(rows pgx.Rows) ([]Task, error) {
	defer rows.Close()
	var tasks []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.ComponentType, &t.ParticipationFee,
			&t.Budget, &t.Deadline, &t.PostedBy, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

const taskColumns = `id, title, description, component_type, participation_fee, budget, deadline, posted_by, status, created_at, updated_at`

// =========================
// GetAllTasks - Public listing of every task
// =========================
func GetAllTasks(c echo.Context) error {
	rows, err := db.Conn.Query(context.Background(),
		`SELECT `+taskColumns+` FROM tasks ORDER BY created_at DESC`)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch tasks"})
	}

	tasks, err := scanTasks(rows)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
	}

	return c.JSON(http.StatusOK, echo.Map{"tasks": tasks})
}

// =========================
// GetOpenTasks - Public listing of open tasks (expires overdue ones first)
// =========================
func GetOpenTasks(c echo.Context) error {
	ctx := context.Background()
	expireOverdueTasks(ctx, "")

	rows, err := db.Conn.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE status = 'open' ORDER BY created_at DESC`)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch tasks"})
	}

	tasks, err := scanTasks(rows)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
	}

	return c.JSON(http.StatusOK, echo.Map{"tasks": tasks})
}

// =========================
// GetMyTasks - Poster's own tasks
// =========================
func GetMyTasks(c echo.Context) error {
	posterID, ok := c.Get("user_id").(string)
	if !ok || posterID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx := context.Background()
	expireOverdueTasks(ctx, posterID)

	rows, err := db.Conn.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE posted_by = $1 ORDER BY created_at DESC`, posterID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch tasks"})
	}

	tasks, err := scanTasks(rows)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
	}

	return c.JSON(http.StatusOK, echo.Map{"tasks": tasks})
}

// =========================
// GetTask - Full task detail with offers and contract
// =========================
func GetTask(c echo.Context) error {
	taskID := c.Param("id")
	if taskID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing task id"})
	}

	ctx := context.Background()

	var t Task
	err := db.Conn.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, taskID,
	).Scan(&t.ID, &t.Title, &t.Description, &t.ComponentType, &t.ParticipationFee,
		&t.Budget, &t.Deadline, &t.PostedBy, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch task"})
	}

	rows, err := db.Conn.Query(ctx,
		`SELECT id, task_id, worker_id, proposed_fee, message, status, created_at, updated_at
         FROM offers WHERE task_id = $1 ORDER BY created_at ASC`, taskID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch offers"})
	}
	offers, err := scanOffers(rows)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
	}

	resp := echo.Map{"task": t, "offers": offers}

	contract, err := fetchContractByTask(ctx, taskID)
	if err == nil {
		resp["contract"] = contract
	} else if err != pgx.ErrNoRows {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch contract"})
	}

	return c.JSON(http.StatusOK, resp)
}
