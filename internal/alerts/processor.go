package alerts

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/hibiken/asynq"
)

var (
	client *asynq.Client
	server *asynq.Server
)

// Init starts the Asynq server and initializes a shared client.
func Init() {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		// Prefer docker hostname, fallback to localhost
		if host := os.Getenv("REDIS_HOST"); host != "" {
			port := os.Getenv("REDIS_PORT")
			if port == "" {
				port = "6379"
			}
			redisAddr = host + ":" + port
		} else {
			// Default to docker-compose service name if running in container; otherwise localhost
			redisAddr = "redis:6379"
			if os.Getenv("RUN_LOCAL") == "true" {
				redisAddr = "127.0.0.1:6379"
			}
		}
	}

	opts := asynq.RedisClientOpt{Addr: redisAddr}
	client = asynq.NewClient(opts)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskOfferApplied, handleOfferApplied)
	mux.HandleFunc(TaskOfferRejected, handleOfferRejected)
	mux.HandleFunc(TaskOfferAccepted, handleOfferAccepted)
	mux.HandleFunc(TaskMilestoneApproved, handleMilestoneApproved)
	mux.HandleFunc(TaskContractCompleted, handleContractCompleted)
	mux.HandleFunc(TaskDisputeOpened, handleDisputeOpened)

	server = asynq.NewServer(opts, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			"emails": 10,
			"alerts": 5,
		},
	})
	go func() {
		if err := server.Run(mux); err != nil {
			log.Printf("Asynq server stopped: %v", err)
		}
	}()

	log.Printf("Asynq initialized (addr=%s)", redisAddr)
}

// Close releases client and stops server.
func Close() {
	if client != nil {
		_ = client.Close()
	}
	if server != nil {
		server.Shutdown()
	}
}

// Handlers below parse payloads and deliver via the configured mailer.

func handleOfferApplied(_ context.Context, t *asynq.Task) error {
	var p OfferAppliedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := SendEmail(p.Email, p.Envelope.Subject, p.Envelope.Body); err != nil {
		log.Printf("[notify][ERROR] OfferApplied send failed: %v", err)
		return err
	}
	log.Printf("[notify] OfferApplied sent -> offer=%s task=%s to=%s", p.OfferID, p.TaskID, p.Email)
	return nil
}

func handleOfferRejected(_ context.Context, t *asynq.Task) error {
	var p OfferRejectedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := SendEmail(p.Email, p.Envelope.Subject, p.Envelope.Body); err != nil {
		log.Printf("[notify][ERROR] OfferRejected send failed: %v", err)
		return err
	}
	log.Printf("[notify] OfferRejected sent -> offer=%s to=%s refund=%d", p.OfferID, p.Email, p.Refund)
	return nil
}

func handleOfferAccepted(_ context.Context, t *asynq.Task) error {
	var p OfferAcceptedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := SendEmail(p.Email, p.Envelope.Subject, p.Envelope.Body); err != nil {
		log.Printf("[notify][ERROR] OfferAccepted send failed: %v", err)
		return err
	}
	log.Printf("[notify] OfferAccepted sent -> offer=%s to=%s terms=%s", p.OfferID, p.Email, p.PaymentTerms)
	return nil
}

func handleMilestoneApproved(_ context.Context, t *asynq.Task) error {
	var p MilestoneApprovedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := SendEmail(p.Email, p.Envelope.Subject, p.Envelope.Body); err != nil {
		log.Printf("[notify][ERROR] MilestoneApproved send failed: %v", err)
		return err
	}
	log.Printf("[notify] MilestoneApproved sent -> contract=%s stage=%s amount=%d", p.ContractID, p.Stage, p.Amount)
	return nil
}

func handleContractCompleted(_ context.Context, t *asynq.Task) error {
	var p ContractCompletedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := SendEmail(p.Email, p.Envelope.Subject, p.Envelope.Body); err != nil {
		log.Printf("[notify][ERROR] ContractCompleted send failed: %v", err)
		return err
	}
	log.Printf("[notify] ContractCompleted sent -> contract=%s to=%s", p.ContractID, p.Email)
	return nil
}

func handleDisputeOpened(_ context.Context, t *asynq.Task) error {
	var p DisputeOpenedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := SendEmail(p.Email, p.Envelope.Subject, p.Envelope.Body); err != nil {
		log.Printf("[notify][ERROR] DisputeOpened send failed: %v", err)
		return err
	}
	log.Printf("[notify] DisputeOpened sent -> contract=%s to=%s", p.ContractID, p.Email)
	return nil
}
