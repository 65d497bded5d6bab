package market

import (
	"errors"
	"testing"
	"time"
)

func TestMilestone_RequestApproveCycle(t *testing.T) {
	m := Milestone{Stage: "50%", Description: "First half"}

	if err := m.RequestCompletion(); err != nil {
		t.Fatalf("request on fresh milestone: %v", err)
	}
	if !m.CompletionRequested {
		t.Fatalf("expected completionRequested set")
	}

	// A second request while one is pending is rejected.
	if err := m.RequestCompletion(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}

	if err := m.Approve(); err != nil {
		t.Fatalf("approve pending request: %v", err)
	}
	if !m.Completed || m.CompletionRequested {
		t.Fatalf("approve must set completed and clear the request flag")
	}

	// Completed is terminal: no re-request, no re-approve.
	if err := m.RequestCompletion(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState after completion, got %v", err)
	}
	if err := m.Approve(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on double approve, got %v", err)
	}
}

func TestMilestone_RejectReopensRequest(t *testing.T) {
	m := Milestone{Stage: "100%"}

	if err := m.RejectRequest(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("reject with nothing pending: expected ErrInvalidState, got %v", err)
	}

	if err := m.RequestCompletion(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.RejectRequest(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Completed || m.CompletionRequested {
		t.Fatalf("rejected milestone must be back in the requestable state")
	}

	// And it can be requested again afterwards.
	if err := m.RequestCompletion(); err != nil {
		t.Fatalf("re-request after rejection: %v", err)
	}
}

func TestMilestone_ApproveRequiresPendingRequest(t *testing.T) {
	m := Milestone{Stage: "25%"}
	if err := m.Approve(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestContract_MilestoneIndexBounds(t *testing.T) {
	ms, _ := MilestoneSchedule(TermsHalf)
	ct := Contract{Status: ContractActive, Milestones: ms}

	if _, err := ct.Milestone(-1); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative index, got %v", err)
	}
	if _, err := ct.Milestone(2); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput past the end, got %v", err)
	}
	m, err := ct.Milestone(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Stage != "100%" {
		t.Fatalf("expected final stage, got %s", m.Stage)
	}
}

func TestContract_CompleteRequiresAllMilestones(t *testing.T) {
	ms, _ := MilestoneSchedule(TermsQuarter)
	ct := Contract{Status: ContractActive, Milestones: ms}

	if err := ct.Complete(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState with open milestones, got %v", err)
	}

	for i := range ct.Milestones {
		m := &ct.Milestones[i]
		if err := m.RequestCompletion(); err != nil {
			t.Fatalf("milestone %d request: %v", i, err)
		}
		if err := m.Approve(); err != nil {
			t.Fatalf("milestone %d approve: %v", i, err)
		}
	}
	if !ct.AllCompleted() {
		t.Fatalf("expected all milestones completed")
	}
	if err := ct.Complete(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ct.Status != ContractCompleted {
		t.Fatalf("expected completed contract, got %s", ct.Status)
	}

	// Completing again fails cleanly; the caller treats that as already done.
	if err := ct.Complete(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on second complete, got %v", err)
	}
}

func TestContract_RaiseDispute(t *testing.T) {
	ms, _ := MilestoneSchedule(TermsFull)
	ct := Contract{Status: ContractActive, Milestones: ms}

	if err := ct.RaiseDispute("", PartyPoster); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty reason: expected ErrInvalidInput, got %v", err)
	}
	if err := ct.RaiseDispute("work abandoned", "stranger"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown party: expected ErrInvalidInput, got %v", err)
	}

	if err := ct.RaiseDispute("work abandoned", PartyWorker); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ct.DisputeRaised || ct.DisputeReason != "work abandoned" || ct.DisputeBy == nil || *ct.DisputeBy != PartyWorker {
		t.Fatalf("dispute fields not recorded: %+v", ct)
	}

	if err := ct.RaiseDispute("again", PartyPoster); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on second dispute, got %v", err)
	}

	ct2 := Contract{Status: ContractCompleted, Milestones: ms}
	if err := ct2.RaiseDispute("too late", PartyPoster); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on completed contract, got %v", err)
	}
}

func TestAcceptableOffer_TerminalOfferStatesAreFinal(t *testing.T) {
	// A withdrawn or rejected offer already had its participation fee
	// refunded; accepting one afterwards would put a contract on top of
	// refunded money.
	for _, status := range []string{OfferWithdrawn, OfferRejected, OfferAccepted} {
		if err := AcceptableOffer(status, TaskOpen); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("%s offer: expected ErrInvalidState, got %v", status, err)
		}
	}
	if err := AcceptableOffer(OfferPending, TaskOpen); err != nil {
		t.Fatalf("pending offer on open task: %v", err)
	}
}

func TestAcceptableOffer_TaskMustBeOpen(t *testing.T) {
	for _, status := range []string{TaskInProgress, TaskCompleted, TaskDisputed, TaskClosed, TaskExpired} {
		if err := AcceptableOffer(OfferPending, status); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("task %s: expected ErrInvalidState, got %v", status, err)
		}
	}
}

func TestTaskAcceptsOffers(t *testing.T) {
	if !TaskAcceptsOffers(TaskOpen) {
		t.Fatalf("open task must accept offers")
	}
	for _, status := range []string{TaskInProgress, TaskCompleted, TaskDisputed, TaskClosed, TaskExpired} {
		if TaskAcceptsOffers(status) {
			t.Fatalf("%s task must not accept offers", status)
		}
	}
}

func TestTaskIsExpired(t *testing.T) {
	now := time.Now()
	cases := []struct {
		status   string
		deadline time.Time
		want     bool
	}{
		{TaskOpen, now.Add(-time.Hour), true},
		{TaskOpen, now.Add(time.Hour), false},
		{TaskInProgress, now.Add(-time.Hour), false},
		{TaskCompleted, now.Add(-time.Hour), false},
		{TaskExpired, now.Add(-time.Hour), false},
	}
	for _, tc := range cases {
		if got := TaskIsExpired(tc.status, tc.deadline, now); got != tc.want {
			t.Fatalf("TaskIsExpired(%s, %v) = %v, want %v", tc.status, tc.deadline, got, tc.want)
		}
	}
}
