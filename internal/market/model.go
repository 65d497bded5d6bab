package market

import "time"

// Task statuses
const (
	TaskOpen       = "open"
	TaskInProgress = "in-progress"
	TaskCompleted  = "completed"
	TaskDisputed   = "disputed"
	TaskClosed     = "closed"
	TaskExpired    = "expired"
)

// Offer statuses. pending is the only non-terminal state.
const (
	OfferPending   = "pending"
	OfferAccepted  = "accepted"
	OfferRejected  = "rejected"
	OfferWithdrawn = "withdrawn"
)

// Contract statuses
const (
	ContractActive    = "active"
	ContractCompleted = "completed"
	ContractCancelled = "cancelled"
)

// Payment terms chosen by the poster at acceptance time
const (
	TermsQuarter = "quarter"
	TermsHalf    = "half"
	TermsFull    = "full"
)

// Dispute parties
const (
	PartyPoster = "poster"
	PartyWorker = "worker"
)

// Task is a paid piece of work published by a poster.
type Task struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	ComponentType    string    `json:"component_type"`
	ParticipationFee int64     `json:"participation_fee"`
	Budget           int64     `json:"budget"`
	Deadline         time.Time `json:"deadline"`
	PostedBy         string    `json:"posted_by"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Offer is a worker's priced proposal against a task.
type Offer struct {
	ID          string    `json:"id"`
	TaskID      string    `json:"task_id"`
	WorkerID    string    `json:"worker_id"`
	ProposedFee int64     `json:"proposed_fee"`
	Message     string    `json:"message"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Milestone is one stage of a contract. The stage/description pair is fixed
// at contract creation; only the two flags ever change.
type Milestone struct {
	Stage               string `json:"stage"`
	Description         string `json:"description"`
	Completed           bool   `json:"completed"`
	CompletionRequested bool   `json:"completionRequested"`
}

// Contract binds exactly one accepted offer to its task.
type Contract struct {
	ID              string      `json:"id"`
	TaskID          string      `json:"task_id"`
	AcceptedOfferID string      `json:"accepted_offer_id"`
	PaymentTerms    string      `json:"payment_terms"`
	Milestones      []Milestone `json:"milestones"`
	Status          string      `json:"status"`
	DisputeRaised   bool        `json:"dispute_raised"`
	DisputeReason   string      `json:"dispute_reason,omitempty"`
	DisputeBy       *string     `json:"dispute_by,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

var componentTypes = map[string]bool{
	"Backend":    true,
	"Frontend":   true,
	"Database":   true,
	"Deployment": true,
	"Full Stack": true,
}

// ValidComponentType reports whether s is one of the allowed task categories.
func ValidComponentType(s string) bool {
	return componentTypes[s]
}
