package market

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/obiora-dev/taskhive/internal/db"
)

const contractColumns = `id, task_id, accepted_offer_id, payment_terms, milestones, status, dispute_raised, dispute_reason, dispute_by, created_at, updated_at`

func scanContract(row pgx.Row) (*Contract, error) {
	var (
		ct         Contract
		milestones []byte
	)
	err := row.Scan(&ct.ID, &ct.TaskID, &ct.AcceptedOfferID, &ct.PaymentTerms, &milestones, &ct.Status,
		&ct.DisputeRaised, &ct.DisputeReason, &ct.DisputeBy, &ct.CreatedAt, &ct.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(milestones, &ct.Milestones); err != nil {
		return nil, err
	}
	return &ct, nil
}

func fetchContractByTask(ctx context.Context, taskID string) (*Contract, error) {
	return scanContract(db.Conn.QueryRow(ctx,
		`SELECT `+contractColumns+` FROM contracts WHERE task_id = $1`, taskID))
}

// =========================
// GetContract - Either contract party views the contract
// =========================
func GetContract(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	contractID := c.Param("id")
	if contractID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing contract id"})
	}

	ctx := context.Background()

	ct, err := scanContract(db.Conn.QueryRow(ctx,
		`SELECT `+contractColumns+` FROM contracts WHERE id = $1`, contractID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "contract not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch contract"})
	}

	var postedBy, workerID string
	err = db.Conn.QueryRow(ctx,
		`SELECT t.posted_by, o.worker_id
         FROM contracts c JOIN tasks t ON t.id = c.task_id JOIN offers o ON o.id = c.accepted_offer_id
         WHERE c.id = $1`, contractID,
	).Scan(&postedBy, &workerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch contract parties"})
	}

	if userID != postedBy && userID != workerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not authorized to view this contract"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"contract":  ct,
		"poster_id": postedBy,
		"worker_id": workerID,
	})
}

// ContractSummary is the listing shape for both contract views.
type ContractSummary struct {
	ID         string      `json:"id"`
	TaskTitle  string      `json:"task_title"`
	Status     string      `json:"status"`
	Milestones []Milestone `json:"milestones"`
}

func listContracts(c echo.Context, where string) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	rows, err := db.Conn.Query(context.Background(),
		`SELECT c.id, t.title, c.status, c.milestones
         FROM contracts c
         JOIN tasks t ON t.id = c.task_id
         JOIN offers o ON o.id = c.accepted_offer_id
         WHERE `+where+`
         ORDER BY c.created_at DESC`, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch contracts"})
	}
	defer rows.Close()

	var contracts []ContractSummary
	for rows.Next() {
		var (
			cs         ContractSummary
			milestones []byte
		)
		if err := rows.Scan(&cs.ID, &cs.TaskTitle, &cs.Status, &milestones); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		if err := json.Unmarshal(milestones, &cs.Milestones); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse milestones"})
		}
		contracts = append(contracts, cs)
	}

	return c.JSON(http.StatusOK, echo.Map{"contracts": contracts})
}

// =========================
// MyContracts - Contracts where the caller is the worker
// =========================
func MyContracts(c echo.Context) error {
	return listContracts(c, `o.worker_id = $1`)
}

// =========================
// MyPostedContracts - Contracts on tasks the caller posted
// =========================
func MyPostedContracts(c echo.Context) error {
	return listContracts(c, `t.posted_by = $1`)
}

// MilestoneRequest is one row of the worker's review-status view.
type MilestoneRequest struct {
	TaskTitle      string `json:"task_title"`
	ContractID     string `json:"contract_id"`
	MilestoneIndex int    `json:"milestone_index"`
	Stage          string `json:"stage"`
	Description    string `json:"description"`
	Status         string `json:"status"`
}

// =========================
// MyMilestoneRequests - Worker's requested and approved milestones
// =========================
func MyMilestoneRequests(c echo.Context) error {
	workerID, ok := c.Get("user_id").(string)
	if !ok || workerID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	rows, err := db.Conn.Query(context.Background(),
		`SELECT c.id, t.title, c.milestones
         FROM contracts c
         JOIN tasks t ON t.id = c.task_id
         JOIN offers o ON o.id = c.accepted_offer_id
         WHERE o.worker_id = $1
         ORDER BY c.created_at DESC`, workerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch contracts"})
	}
	defer rows.Close()

	var requests []MilestoneRequest
	for rows.Next() {
		var (
			contractID string
			title      string
			encoded    []byte
			milestones []Milestone
		)
		if err := rows.Scan(&contractID, &title, &encoded); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
		}
		if err := json.Unmarshal(encoded, &milestones); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse milestones"})
		}
		for i, m := range milestones {
			if !m.CompletionRequested && !m.Completed {
				continue
			}
			status := "Pending Approval"
			if m.Completed {
				status = "Approved"
			}
			requests = append(requests, MilestoneRequest{
				TaskTitle:      title,
				ContractID:     contractID,
				MilestoneIndex: i,
				Stage:          m.Stage,
				Description:    m.Description,
				Status:         status,
			})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"requests": requests})
}
