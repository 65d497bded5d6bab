package support

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/obiora-dev/taskhive/internal/db"
	"github.com/obiora-dev/taskhive/internal/market"
)

// Ticket is a support request, optionally linked to a task or contract.
type Ticket struct {
	ID            string     `json:"id"`
	TaskID        *string    `json:"task_id,omitempty"`
	ContractID    *string    `json:"contract_id,omitempty"`
	RaisedBy      string     `json:"raised_by"`
	Description   string     `json:"description"`
	Evidence      string     `json:"evidence,omitempty"`
	Status        string     `json:"status"`
	AdminDecision string     `json:"admin_decision,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
}

type OpenTicketRequest struct {
	TaskID      string `json:"task_id"`
	ContractID  string `json:"contract_id"`
	Description string `json:"description"`
	Evidence    string `json:"evidence"`
}

type ResolveTicketRequest struct {
	Decision string `json:"decision"`
	// Optional arbitration outcome for the linked contract:
	// "force-complete" or "force-cancel"
	Action string `json:"action"`
}

// OpenTicket lets any authenticated user raise a support request.
func OpenTicket(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(OpenTicketRequest)
	if err := c.Bind(req); err != nil || req.Description == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload: description required"})
	}

	var taskID, contractID *string
	if req.TaskID != "" {
		taskID = &req.TaskID
	}
	if req.ContractID != "" {
		contractID = &req.ContractID
	}

	ticketID := uuid.New().String()
	var createdAt time.Time
	err := db.Conn.QueryRow(context.Background(),
		`INSERT INTO support_tickets (id, task_id, contract_id, raised_by, description, evidence)
         VALUES ($1, $2, $3, $4, $5, $6)
         RETURNING created_at`,
		ticketID, taskID, contractID, userID, req.Description, req.Evidence,
	).Scan(&createdAt)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not open ticket"})
	}

	return c.JSON(http.StatusCreated, echo.Map{"ticket_id": ticketID, "created_at": createdAt})
}

func scanTickets(rows pgx.Rows) ([]Ticket, error) {
	defer rows.Close()
	var tickets []Ticket
	for rows.Next() {
		var t Ticket
		if err := rows.Scan(&t.ID, &t.TaskID, &t.ContractID, &t.RaisedBy, &t.Description,
			&t.Evidence, &t.Status, &t.AdminDecision, &t.CreatedAt, &t.ResolvedAt); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

const ticketColumns = `id, task_id, contract_id, raised_by, description, evidence, status, admin_decision, created_at, resolved_at`

// MyTickets lists the caller's tickets, newest first.
func MyTickets(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	rows, err := db.Conn.Query(context.Background(),
		`SELECT `+ticketColumns+` FROM support_tickets WHERE raised_by = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch tickets"})
	}

	tickets, err := scanTickets(rows)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
	}

	return c.JSON(http.StatusOK, echo.Map{"tickets": tickets})
}

// AdminListTickets lists every ticket for the support desk.
func AdminListTickets(c echo.Context) error {
	rows, err := db.Conn.Query(context.Background(),
		`SELECT `+ticketColumns+` FROM support_tickets ORDER BY created_at DESC`)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch tickets"})
	}

	tickets, err := scanTickets(rows)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse record"})
	}

	return c.JSON(http.StatusOK, echo.Map{"tickets": tickets})
}

// AdminResolveTicket records the decision and optionally applies an
// arbitration outcome to the linked contract, all in one transaction.
func AdminResolveTicket(c echo.Context) error {
	ticketID := c.Param("id")
	if ticketID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing ticket id"})
	}

	req := new(ResolveTicketRequest)
	if err := c.Bind(req); err != nil || req.Decision == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload: decision required"})
	}
	if req.Action != "" && req.Action != market.ResolveForceComplete && req.Action != market.ResolveForceCancel {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "action must be force-complete or force-cancel"})
	}

	ctx := context.Background()
	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction start failed"})
	}
	defer tx.Rollback(ctx)

	var (
		status     string
		contractID *string
	)
	err = tx.QueryRow(ctx,
		`SELECT status, contract_id FROM support_tickets WHERE id = $1 FOR UPDATE`, ticketID,
	).Scan(&status, &contractID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch ticket"})
	}
	if status != "open" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket already resolved"})
	}

	if req.Action != "" {
		if contractID == nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket has no linked contract"})
		}
		if err := market.ForceResolve(ctx, tx, *contractID, req.Action); err != nil {
			return c.JSON(market.Status(err), echo.Map{"error": err.Error()})
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE support_tickets SET status = 'resolved', admin_decision = $1, resolved_at = NOW() WHERE id = $2`,
		req.Decision, ticketID,
	); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update ticket"})
	}

	if err = tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Ticket resolved"})
}
