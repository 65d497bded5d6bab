package alerts

import "time"

// Task type constants
const (
	TaskOfferApplied      = "email:offer_applied"
	TaskOfferRejected     = "email:offer_rejected"
	TaskOfferAccepted     = "email:offer_accepted"
	TaskMilestoneApproved = "email:milestone_approved"
	TaskContractCompleted = "email:contract_completed"
	TaskDisputeOpened     = "email:dispute_opened"
)

// Common envelope for email-like notifications
type EmailEnvelope struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Offer applied payload (sent to poster)
type OfferAppliedPayload struct {
	OfferID     string        `json:"offer_id"`
	TaskID      string        `json:"task_id"`
	TaskTitle   string        `json:"task_title"`
	Email       string        `json:"email"`
	ProposedFee int64         `json:"proposed_fee"`
	Envelope    EmailEnvelope `json:"envelope"`
	SentAt      time.Time     `json:"sent_at"`
}

// Offer rejected payload (sent to worker, refund mention included)
type OfferRejectedPayload struct {
	OfferID   string        `json:"offer_id"`
	TaskTitle string        `json:"task_title"`
	Email     string        `json:"email"`
	Refund    int64         `json:"refund"`
	Envelope  EmailEnvelope `json:"envelope"`
	SentAt    time.Time     `json:"sent_at"`
}

// Offer accepted payload (sent to worker)
type OfferAcceptedPayload struct {
	OfferID      string        `json:"offer_id"`
	TaskTitle    string        `json:"task_title"`
	Email        string        `json:"email"`
	PaymentTerms string        `json:"payment_terms"`
	Envelope     EmailEnvelope `json:"envelope"`
	SentAt       time.Time     `json:"sent_at"`
}

// Milestone approved payload (sent to worker after payout)
type MilestoneApprovedPayload struct {
	ContractID string        `json:"contract_id"`
	TaskTitle  string        `json:"task_title"`
	Email      string        `json:"email"`
	Stage      string        `json:"stage"`
	Amount     int64         `json:"amount"`
	Envelope   EmailEnvelope `json:"envelope"`
	SentAt     time.Time     `json:"sent_at"`
}

// Contract completed payload (sent to worker)
type ContractCompletedPayload struct {
	ContractID string        `json:"contract_id"`
	TaskTitle  string        `json:"task_title"`
	Email      string        `json:"email"`
	Envelope   EmailEnvelope `json:"envelope"`
	SentAt     time.Time     `json:"sent_at"`
}

// Dispute opened payload (sent to the other contract party)
type DisputeOpenedPayload struct {
	ContractID string        `json:"contract_id"`
	TaskTitle  string        `json:"task_title"`
	Email      string        `json:"email"`
	Reason     string        `json:"reason"`
	Envelope   EmailEnvelope `json:"envelope"`
	SentAt     time.Time     `json:"sent_at"`
}
