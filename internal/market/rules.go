package market

import "time"

// Milestone transitions. A completed milestone never goes back, and a
// pending request blocks a second one; rejecting a request makes the
// milestone requestable again.

// RequestCompletion marks the milestone as awaiting poster review.
func (m *Milestone) RequestCompletion() error {
	if m.Completed {
		return ErrInvalidState
	}
	if m.CompletionRequested {
		return ErrInvalidState
	}
	m.CompletionRequested = true
	return nil
}

// Approve completes the milestone. Only legal while a completion request is
// pending, which also rules out approving the same milestone twice.
func (m *Milestone) Approve() error {
	if !m.CompletionRequested {
		return ErrInvalidState
	}
	m.Completed = true
	m.CompletionRequested = false
	return nil
}

// RejectRequest sends the milestone back to the requestable state.
func (m *Milestone) RejectRequest() error {
	if !m.CompletionRequested {
		return ErrInvalidState
	}
	m.CompletionRequested = false
	return nil
}

// Milestone returns the milestone at index i.
func (ct *Contract) Milestone(i int) (*Milestone, error) {
	if i < 0 || i >= len(ct.Milestones) {
		return nil, ErrInvalidInput
	}
	return &ct.Milestones[i], nil
}

// AllCompleted reports whether every milestone has been approved.
func (ct *Contract) AllCompleted() bool {
	for i := range ct.Milestones {
		if !ct.Milestones[i].Completed {
			return false
		}
	}
	return true
}

// Complete closes out an active contract once every milestone is approved.
// A second call finds the contract no longer active and fails, which is what
// makes the operation idempotent with respect to money.
func (ct *Contract) Complete() error {
	if ct.Status != ContractActive {
		return ErrInvalidState
	}
	if !ct.AllCompleted() {
		return ErrInvalidState
	}
	ct.Status = ContractCompleted
	return nil
}

// RaiseDispute flags the contract. It moves no money; arbitration happens
// through support tickets.
func (ct *Contract) RaiseDispute(reason, by string) error {
	if ct.Status != ContractActive {
		return ErrInvalidState
	}
	if ct.DisputeRaised {
		return ErrInvalidState
	}
	if reason == "" || (by != PartyPoster && by != PartyWorker) {
		return ErrInvalidInput
	}
	ct.DisputeRaised = true
	ct.DisputeReason = reason
	ct.DisputeBy = &by
	return nil
}

// TaskIsExpired reports whether an open task's deadline has passed. Expiry
// is applied lazily when open tasks are listed or offered against.
func TaskIsExpired(status string, deadline, now time.Time) bool {
	return status == TaskOpen && deadline.Before(now)
}

// TaskAcceptsOffers reports whether new offers may be applied to a task in
// the given status.
func TaskAcceptsOffers(status string) bool {
	return status == TaskOpen
}

// AcceptableOffer guards contract creation: only a pending offer on an open
// task can be accepted. Callers must evaluate it against rows read under
// lock, or a concurrent withdraw or reject can land between the check and
// the commit.
func AcceptableOffer(offerStatus, taskStatus string) error {
	if offerStatus != OfferPending || taskStatus != TaskOpen {
		return ErrInvalidState
	}
	return nil
}
