package market

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/obiora-dev/taskhive/internal/alerts"
	"github.com/obiora-dev/taskhive/internal/db"
	"github.com/obiora-dev/taskhive/internal/metrics"
	"github.com/obiora-dev/taskhive/internal/wallet"
)

// contractRow is a contract loaded together with its parties, locked for the
// duration of the enclosing transaction.
type contractRow struct {
	Contract
	WorkerID    string
	ProposedFee int64
	PostedBy    string
	TaskTitle   string
}

// lockContract loads the contract row FOR UPDATE so concurrent milestone
// operations on the same contract serialize: the loser re-reads state the
// winner already committed and fails its own precondition check.
func lockContract(ctx context.Context, tx pgx.Tx, contractID string) (*contractRow, error) {
	var (
		row        contractRow
		milestones []byte
	)
	err := tx.QueryRow(ctx,
		`SELECT c.id, c.task_id, c.accepted_offer_id, c.payment_terms, c.milestones, c.status,
                c.dispute_raised, c.dispute_reason, c.dispute_by, c.created_at, c.updated_at,
                o.worker_id, o.proposed_fee, t.posted_by, t.title
         FROM contracts c
         JOIN offers o ON o.id = c.accepted_offer_id
         JOIN tasks t ON t.id = c.task_id
         WHERE c.id = $1
         FOR UPDATE OF c`, contractID,
	).Scan(&row.ID, &row.TaskID, &row.AcceptedOfferID, &row.PaymentTerms, &milestones, &row.Status,
		&row.DisputeRaised, &row.DisputeReason, &row.DisputeBy, &row.CreatedAt, &row.UpdatedAt,
		&row.WorkerID, &row.ProposedFee, &row.PostedBy, &row.TaskTitle)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(milestones, &row.Milestones); err != nil {
		return nil, err
	}
	return &row, nil
}

func saveMilestones(ctx context.Context, tx pgx.Tx, contractID string, milestones []Milestone) error {
	encoded, err := json.Marshal(milestones)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`UPDATE contracts SET milestones = $1, updated_at = NOW() WHERE id = $2`,
		encoded, contractID)
	return err
}

func milestoneIndex(c echo.Context) (int, bool) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}

// =========================
// RequestMilestoneCompletion - Worker asks the poster to review a milestone
// =========================
func RequestMilestoneCompletion(c echo.Context) error {
	requesterID, ok := c.Get("user_id").(string)
	if !ok || requesterID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	contractID := c.Param("id")
	idx, ok := milestoneIndex(c)
	if contractID == "" || !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid milestone index"})
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

	if requesterID != row.WorkerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only the contract's worker can request completion"})
	}
	if row.Status != ContractActive {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "contract is not active"})
	}

	m, err := row.Milestone(idx)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid milestone index"})
	}
	if err := m.RequestCompletion(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "milestone already completed or completion already requested"})
	}

	if err := saveMilestones(ctx, tx, contractID, row.Milestones); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update contract"})
	}
	if err = tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Milestone completion requested", "contract": row.Contract})
}

// =========================
// ApproveMilestone - Poster approves and pays out; the only place money moves
// =========================
func ApproveMilestone(c echo.Context) error {
	requesterID, ok := c.Get("user_id").(string)
	if !ok || requesterID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	contractID := c.Param("id")
	idx, ok := milestoneIndex(c)
	if contractID == "" || !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid milestone index"})
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

	if requesterID != row.PostedBy {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only the task poster can approve milestones"})
	}
	if row.Status != ContractActive {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "contract is not active"})
	}

	m, err := row.Milestone(idx)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid milestone index"})
	}
	if err := m.Approve(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no pending completion request for this milestone"})
	}

	// Flat fraction of the total fee per stage, same for every milestone
	amount := PayoutAmount(row.ProposedFee, row.PaymentTerms)

	if err := wallet.Debit(ctx, tx, row.PostedBy, amount,
		"Milestone payment for task: "+row.TaskTitle, row.WorkerID); err != nil {
		return c.JSON(Status(err), echo.Map{"error": err.Error()})
	}
	if err := wallet.Credit(ctx, tx, row.WorkerID, amount,
		"Milestone payment for task: "+row.TaskTitle, row.PostedBy); err != nil {
		return c.JSON(Status(err), echo.Map{"error": err.Error()})
	}

	if err := saveMilestones(ctx, tx, contractID, row.Milestones); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update contract"})
	}
	if err = tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	metrics.PayoutsTotal.Inc()
	metrics.PayoutAmountTotal.Add(float64(amount))

	// Notify worker of the payout (best-effort)
	var workerEmail string
	_ = db.Conn.QueryRow(ctx, `SELECT email FROM users WHERE id = $1`, row.WorkerID).Scan(&workerEmail)
	if workerEmail != "" {
		_ = alerts.EnqueueMilestoneApproved(contractID, row.TaskTitle, workerEmail, m.Stage, amount)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Milestone approved and paid", "contract": row.Contract})
}

// =========================
// RejectMilestone - Poster sends a completion request back to the worker
// =========================
func RejectMilestone(c echo.Context) error {
	requesterID, ok := c.Get("user_id").(string)
	if !ok || requesterID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	contractID := c.Param("id")
	idx, ok := milestoneIndex(c)
	if contractID == "" || !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid milestone index"})
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

	if requesterID != row.PostedBy {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only the task poster can reject milestones"})
	}
	if row.Status != ContractActive {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "contract is not active"})
	}

	m, err := row.Milestone(idx)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid milestone index"})
	}
	if err := m.RejectRequest(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no pending completion request to reject"})
	}

	if err := saveMilestones(ctx, tx, contractID, row.Milestones); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update contract"})
	}
	if err = tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Milestone completion request rejected", "contract": row.Contract})
}

// =========================
// CompleteContract - Poster closes the contract once every milestone is paid
// =========================
func CompleteContract(c echo.Context) error {
	requesterID, ok := c.Get("user_id").(string)
	if !ok || requesterID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	contractID := c.Param("id")
	if contractID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing contract id"})
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

	if requesterID != row.PostedBy {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only the task poster can complete the contract"})
	}

	// Payouts already happened per milestone; this only closes state, so a
	// repeat call fails here without touching any balance.
	if err := row.Contract.Complete(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "contract is not active or has unfinished milestones"})
	}

	if _, err := tx.Exec(ctx,
		`UPDATE contracts SET status = 'completed', updated_at = NOW() WHERE id = $1`, contractID,
	); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update contract"})
	}
	if _, err := tx.Exec(ctx,
		`UPDATE tasks SET status = 'completed', updated_at = NOW() WHERE id = $1`, row.TaskID,
	); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update task"})
	}

	if err = tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	// Notify worker (best-effort)
	var workerEmail string
	_ = db.Conn.QueryRow(ctx, `SELECT email FROM users WHERE id = $1`, row.WorkerID).Scan(&workerEmail)
	if workerEmail != "" {
		_ = alerts.EnqueueContractCompleted(contractID, row.TaskTitle, workerEmail)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Contract completed", "contract": row.Contract})
}
