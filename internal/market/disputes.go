package market

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/obiora-dev/taskhive/internal/alerts"
	"github.com/obiora-dev/taskhive/internal/db"
)

type DisputeRequest struct {
	Reason   string `json:"reason"`
	Evidence string `json:"evidence"`
}

// Arbitration outcomes applied through support ticket resolution.
const (
	ResolveForceComplete = "force-complete"
	ResolveForceCancel   = "force-cancel"
)

// =========================
// RaiseDispute - Either contract party flags the contract
// =========================
func RaiseDispute(c echo.Context) error {
	requesterID, ok := c.Get("user_id").(string)
	if !ok || requesterID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	contractID := c.Param("id")
	if contractID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing contract id"})
	}

	req := new(DisputeRequest)
	if err := c.Bind(req); err != nil || req.Reason == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload: reason required"})
	}

	ctx := context.Background()
	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction start failed"})
	}
	defer tx.Rollback(ctx)

	row, err := lockContract(ctx, tx, contractID)
	if err != nil {
		if err == ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "contract not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch contract"})
	}

	var party string
	switch requesterID {
	case row.PostedBy:
		party = PartyPoster
	case row.WorkerID:
		party = PartyWorker
	default:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not a party to this contract"})
	}

	if err := row.Contract.RaiseDispute(req.Reason, party); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "dispute already raised or contract not active"})
	}

	if _, err := tx.Exec(ctx,
		`UPDATE contracts SET dispute_raised = TRUE, dispute_reason = $1, dispute_by = $2, updated_at = NOW() WHERE id = $3`,
		req.Reason, party, contractID,
	); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update contract"})
	}
	if _, err := tx.Exec(ctx,
		`UPDATE tasks SET status = 'disputed', updated_at = NOW() WHERE id = $1`, row.TaskID,
	); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update task"})
	}

	// The dispute itself moves no money; arbitration goes through support
	ticketID := uuid.New().String()
	if _, err := tx.Exec(ctx,
		`INSERT INTO support_tickets (id, task_id, contract_id, raised_by, description, evidence)
         VALUES ($1, $2, $3, $4, $5, $6)`,
		ticketID, row.TaskID, contractID, requesterID, req.Reason, req.Evidence,
	); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to open support ticket"})
	}

	if err = tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	// Notify the other party (best-effort)
	otherID := row.PostedBy
	if requesterID == row.PostedBy {
		otherID = row.WorkerID
	}
	var otherEmail string
	_ = db.Conn.QueryRow(ctx, `SELECT email FROM users WHERE id = $1`, otherID).Scan(&otherEmail)
	if otherEmail != "" {
		_ = alerts.EnqueueDisputeOpened(contractID, row.TaskTitle, otherEmail, req.Reason)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message":   "Dispute raised",
		"ticket_id": ticketID,
		"contract":  row.Contract,
	})
}

// ForceResolve applies an arbitration outcome to a disputed contract inside
// the caller's transaction. It closes state only; per-milestone payouts that
// already happened stay as they are.
func ForceResolve(ctx context.Context, tx pgx.Tx, contractID, action string) error {
	var (
		status string
		taskID string
	)
	err := tx.QueryRow(ctx,
		`SELECT status, task_id FROM contracts WHERE id = $1 FOR UPDATE`, contractID,
	).Scan(&status, &taskID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrNotFound
		}
		return err
	}
	if status != ContractActive {
		return ErrInvalidState
	}

	var contractStatus, taskStatus string
	switch action {
	case ResolveForceComplete:
		contractStatus, taskStatus = ContractCompleted, TaskCompleted
	case ResolveForceCancel:
		contractStatus, taskStatus = ContractCancelled, TaskClosed
	default:
		return ErrInvalidInput
	}

	if _, err := tx.Exec(ctx,
		`UPDATE contracts SET status = $1, updated_at = NOW() WHERE id = $2`,
		contractStatus, contractID,
	); err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`UPDATE tasks SET status = $1, updated_at = NOW() WHERE id = $2`,
		taskStatus, taskID,
	)
	return err
}
