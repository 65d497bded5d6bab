package market

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/obiora-dev/taskhive/internal/alerts"
	"github.com/obiora-dev/taskhive/internal/db"
	"github.com/obiora-dev/taskhive/internal/metrics"
	"github.com/obiora-dev/taskhive/internal/wallet"
)

type ApplyOfferRequest struct {
	ProposedFee int64  `json:"proposed_fee"`
	Message     string `json:"message"`
}

type AcceptOfferRequest struct {
	PaymentTerms string `json:"payment_terms"`
}

func scanOffers(rows pgx.Rows) ([]Offer, error) {
	defer rows.Close()
	var offers []Offer
	for rows.Next() {
		var o Offer
		if err := rows.Scan(&o.ID, &o.TaskID, &o.WorkerID, &o.ProposedFee, &o.Message, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

// =========================
// ApplyOffer - Worker applies to a task (participation fee goes out here)
// =========================
func ApplyOffer(c echo.Context) error {
	workerID, ok := c.Get("user_id").(string)
	if !ok || workerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	taskID := c.Param("id")
	if taskID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing task id"})
	}

	req := new(ApplyOfferRequest)
	if err := c.Bind(req); err != nil || req.ProposedFee <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "proposed fee must be positive"})
	}

	ctx := context.Background()

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction start failed"})
	}
	defer tx.Rollback(ctx)

	var (
		title            string
		postedBy         string
		participationFee int64
		status           string
		deadline         time.Time
	)
	// The task row lock pins the open status until the offer commits; a
	// concurrent acceptance flips it to in-progress under the same lock.
	err = tx.QueryRow(ctx,
		`SELECT title, posted_by, participation_fee, status, deadline FROM tasks WHERE id = $1 FOR UPDATE`, taskID,
	).Scan(&title, &postedBy, &participationFee, &status, &deadline)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch task"})
	}

	if workerID == postedBy {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "cannot apply an offer on your own task"})
	}

	if TaskIsExpired(status, deadline, time.Now()) {
		_, _ = tx.Exec(ctx,
			`UPDATE tasks SET status = 'expired', updated_at = NOW() WHERE id = $1 AND status = 'open'`, taskID)
		_ = tx.Commit(ctx)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "task is not open for offers"})
	}
	if !TaskAcceptsOffers(status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "task is not open for offers"})
	}

	var exists bool
	_ = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM offers WHERE task_id = $1 AND worker_id = $2)`,
		taskID, workerID).Scan(&exists)
	if exists {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ErrDuplicateOffer.Error()})
	}

	// Zero-fee tasks skip the wallet entirely
	if participationFee > 0 {
		if err := wallet.Debit(ctx, tx, workerID, participationFee,
			"Participation fee for applying to task: "+title, postedBy); err != nil {
			return c.JSON(Status(err), echo.Map{"error": err.Error()})
		}
	}

	o := Offer{
		ID:          uuid.New().String(),
		TaskID:      taskID,
		WorkerID:    workerID,
		ProposedFee: req.ProposedFee,
		Message:     req.Message,
		Status:      OfferPending,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO offers (id, task_id, worker_id, proposed_fee, message, status)
         VALUES ($1, $2, $3, $4, $5, $6)
         RETURNING created_at, updated_at`,
		o.ID, o.TaskID, o.WorkerID, o.ProposedFee, o.Message, o.Status,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": ErrDuplicateOffer.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create offer"})
	}

	if err = tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	metrics.OffersAppliedTotal.Inc()

	// Notify poster (best-effort)
	var posterEmail string
	_ = db.Conn.QueryRow(ctx, `SELECT email FROM users WHERE id = $1`, postedBy).Scan(&posterEmail)
	if posterEmail != "" {
		_ = alerts.EnqueueOfferApplied(o.ID, taskID, title, posterEmail, req.ProposedFee)
	}

	return c.JSON(http.StatusCreated, echo.Map{"message": "Offer applied successfully", "offer": o})
}

// =========================
// ListTaskOffers - Poster views all offers on their task
// =========================
func ListTaskOffers(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	taskID := c.Param("id")
	if taskID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing task id"})
	}

	ctx := context.Background()

	var postedBy string
	err := db.Conn.QueryRow(ctx, `SELECT posted_by FROM tasks WHERE id = $1`, taskID).Scan(&postedBy)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch task"})
	}
	if postedBy != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not authorized to view offers for this task"})
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

	return c.JSON(http.StatusOK, echo.Map{"offers": offers})
}

// terminateOffer handles the shared reject/withdraw path: refund the
// participation fee and move a pending offer to its terminal status, all in
// one transaction.
func terminateOffer(c echo.Context, newStatus string) error {
	requesterID, ok := c.Get("user_id").(string)
	if !ok || requesterID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	offerID := c.Param("id")
	if offerID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing offer id"})
	}

	ctx := context.Background()
	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction start failed"})
	}
	defer tx.Rollback(ctx)

	var (
		workerID         string
		offerStatus      string
		postedBy         string
		taskTitle        string
		participationFee int64
	)
	err = tx.QueryRow(ctx,
		`SELECT o.worker_id, o.status, t.posted_by, t.title, t.participation_fee
         FROM offers o JOIN tasks t ON t.id = o.task_id
         WHERE o.id = $1
         FOR UPDATE OF o`, offerID,
	).Scan(&workerID, &offerStatus, &postedBy, &taskTitle, &participationFee)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "offer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch offer"})
	}

	switch newStatus {
	case OfferRejected:
		if requesterID != postedBy {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "only the task poster can reject offers"})
		}
	case OfferWithdrawn:
		if requesterID != workerID {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "only the offer's worker can withdraw it"})
		}
	}

	if offerStatus != OfferPending {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "only pending offers can be " + newStatus})
	}

	// Refund the participation fee; it is a deposit, not a charge
	if participationFee > 0 {
		reason := "Refund for rejected offer on task: " + taskTitle
		if newStatus == OfferWithdrawn {
			reason = "Refund for withdrawn offer on task: " + taskTitle
		}
		if err := wallet.Credit(ctx, tx, workerID, participationFee, reason, postedBy); err != nil {
			return c.JSON(Status(err), echo.Map{"error": err.Error()})
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE offers SET status = $1, updated_at = NOW() WHERE id = $2`,
		newStatus, offerID,
	); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update offer"})
	}

	if err = tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	if newStatus == OfferRejected {
		// Notify worker of the rejection and refund (best-effort)
		var workerEmail string
		_ = db.Conn.QueryRow(ctx, `SELECT email FROM users WHERE id = $1`, workerID).Scan(&workerEmail)
		if workerEmail != "" {
			_ = alerts.EnqueueOfferRejected(offerID, taskTitle, workerEmail, participationFee)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Offer " + newStatus, "status": newStatus})
}

// =========================
// RejectOffer - Poster rejects a pending offer (refunds the worker)
// =========================
func RejectOffer(c echo.Context) error {
	return terminateOffer(c, OfferRejected)
}

// =========================
// WithdrawOffer - Worker withdraws their own pending offer
// =========================
func WithdrawOffer(c echo.Context) error {
	return terminateOffer(c, OfferWithdrawn)
}

// =========================
// AcceptOffer - Poster accepts an offer; contract is materialized here
// =========================
func AcceptOffer(c echo.Context) error {
	requesterID, ok := c.Get("user_id").(string)
	if !ok || requesterID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	offerID := c.Param("id")
	if offerID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing offer id"})
	}

	req := new(AcceptOfferRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	schedule, err := MilestoneSchedule(req.PaymentTerms)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment terms must be quarter, half or full"})
	}

	ctx := context.Background()

	milestonesJSON, err := json.Marshal(schedule)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to encode milestones"})
	}

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction start failed"})
	}
	defer tx.Rollback(ctx)

	var (
		taskID      string
		workerID    string
		offerStatus string
		postedBy    string
		taskStatus  string
		taskTitle   string
	)
	// Locking both rows serializes acceptance against a concurrent reject or
	// withdraw on the offer and against expiry on the task; the loser reads
	// the winner's committed state and fails the checks below.
	err = tx.QueryRow(ctx,
		`SELECT o.task_id, o.worker_id, o.status, t.posted_by, t.status, t.title
         FROM offers o JOIN tasks t ON t.id = o.task_id
         WHERE o.id = $1
         FOR UPDATE OF o, t`, offerID,
	).Scan(&taskID, &workerID, &offerStatus, &postedBy, &taskStatus, &taskTitle)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "offer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch offer"})
	}

	if requesterID != postedBy {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only the task poster can accept offers"})
	}
	if err := AcceptableOffer(offerStatus, taskStatus); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "offer is not pending or its task is not open"})
	}

	var contracted bool
	_ = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM contracts WHERE task_id = $1)`, taskID).Scan(&contracted)
	if contracted {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ErrAlreadyContracted.Error()})
	}

	ct := Contract{
		ID:              uuid.New().String(),
		TaskID:          taskID,
		AcceptedOfferID: offerID,
		PaymentTerms:    req.PaymentTerms,
		Milestones:      schedule,
		Status:          ContractActive,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO contracts (id, task_id, accepted_offer_id, payment_terms, milestones, status)
         VALUES ($1, $2, $3, $4, $5, $6)
         RETURNING created_at, updated_at`,
		ct.ID, ct.TaskID, ct.AcceptedOfferID, ct.PaymentTerms, milestonesJSON, ct.Status,
	).Scan(&ct.CreatedAt, &ct.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": ErrAlreadyContracted.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create contract"})
	}

	if _, err := tx.Exec(ctx,
		`UPDATE offers SET status = 'accepted', updated_at = NOW() WHERE id = $1`, offerID,
	); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update offer"})
	}

	// Sibling pending offers stay pending; rejection (and its refund) is an
	// explicit poster action.
	if _, err := tx.Exec(ctx,
		`UPDATE tasks SET status = 'in-progress', updated_at = NOW() WHERE id = $1`, taskID,
	); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update task"})
	}

	if err = tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	metrics.ContractsCreatedTotal.Inc()

	// Notify worker (best-effort)
	var workerEmail string
	_ = db.Conn.QueryRow(ctx, `SELECT email FROM users WHERE id = $1`, workerID).Scan(&workerEmail)
	if workerEmail != "" {
		_ = alerts.EnqueueOfferAccepted(offerID, taskTitle, workerEmail, req.PaymentTerms)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Offer accepted and contract created", "contract": ct})
}
