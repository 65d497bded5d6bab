package alerts

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// ensureClient returns a usable client instance
func ensureClient() *asynq.Client {
	if client == nil {
		Init()
	}
	return client
}

// EnqueueOfferApplied notifies the poster that a worker applied to their task
func EnqueueOfferApplied(offerID, taskID, taskTitle, posterEmail string, proposedFee int64) error {
	env := EmailEnvelope{
		To:      posterEmail,
		Subject: "New offer on your task",
		Body:    fmt.Sprintf("A worker has applied to %q with a proposed fee of %d. Review the offer to accept or reject it.", taskTitle, proposedFee),
	}
	payload := OfferAppliedPayload{OfferID: offerID, TaskID: taskID, TaskTitle: taskTitle, Email: posterEmail, ProposedFee: proposedFee, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskOfferApplied, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueOfferRejected notifies the worker that their offer was rejected and the fee refunded
func EnqueueOfferRejected(offerID, taskTitle, workerEmail string, refund int64) error {
	env := EmailEnvelope{
		To:      workerEmail,
		Subject: "Your offer was rejected",
		Body:    fmt.Sprintf("Your offer on %q was rejected. Your participation fee of %d has been refunded to your wallet.", taskTitle, refund),
	}
	payload := OfferRejectedPayload{OfferID: offerID, TaskTitle: taskTitle, Email: workerEmail, Refund: refund, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskOfferRejected, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueOfferAccepted notifies the worker that their offer became a contract
func EnqueueOfferAccepted(offerID, taskTitle, workerEmail, paymentTerms string) error {
	env := EmailEnvelope{
		To:      workerEmail,
		Subject: "Your offer was accepted",
		Body:    fmt.Sprintf("Your offer on %q was accepted with %s payment terms. A contract with its milestone schedule is now active.", taskTitle, paymentTerms),
	}
	payload := OfferAcceptedPayload{OfferID: offerID, TaskTitle: taskTitle, Email: workerEmail, PaymentTerms: paymentTerms, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskOfferAccepted, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueMilestoneApproved notifies the worker that a milestone was approved and paid
func EnqueueMilestoneApproved(contractID, taskTitle, workerEmail, stage string, amount int64) error {
	env := EmailEnvelope{
		To:      workerEmail,
		Subject: "Milestone approved and paid",
		Body:    fmt.Sprintf("The %s milestone on %q was approved. %d has been credited to your wallet.", stage, taskTitle, amount),
	}
	payload := MilestoneApprovedPayload{ContractID: contractID, TaskTitle: taskTitle, Email: workerEmail, Stage: stage, Amount: amount, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskMilestoneApproved, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueContractCompleted notifies the worker that the contract is closed out
func EnqueueContractCompleted(contractID, taskTitle, workerEmail string) error {
	env := EmailEnvelope{
		To:      workerEmail,
		Subject: "Contract completed",
		Body:    fmt.Sprintf("The contract for %q is complete. All milestone payments have been released.", taskTitle),
	}
	payload := ContractCompletedPayload{ContractID: contractID, TaskTitle: taskTitle, Email: workerEmail, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskContractCompleted, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueDisputeOpened notifies the other contract party that a dispute was raised
func EnqueueDisputeOpened(contractID, taskTitle, otherEmail, reason string) error {
	env := EmailEnvelope{
		To:      otherEmail,
		Subject: "Dispute opened on your contract",
		Body:    fmt.Sprintf("A dispute was opened on the contract for %q: %s\n\nSupport will review the ticket and follow up.", taskTitle, reason),
	}
	payload := DisputeOpenedPayload{ContractID: contractID, TaskTitle: taskTitle, Email: otherEmail, Reason: reason, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskDisputeOpened, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("alerts"))
	return err
}
