package domain

import (
	"context"
	"net/http"

	"github.com/bwmarrin/snowflake"
)

// InitiateCommand is the caller-facing initiation request.
type InitiateCommand struct {
	CandidateID       snowflake.ID `json:"candidate_id,string"`
	Purpose           string       `json:"purpose"`
	Amount            int64        `json:"amount"`
	Currency          string       `json:"currency"`
	Session           string       `json:"session"`
	Email             string       `json:"email"`
	Phone             string       `json:"phone"`
	PreferredProvider string       `json:"preferred_provider"`
	IdempotencyKey    string       `json:"idempotency_key"`
}

// InitiateResponse is returned for both fresh initiations and replays.
type InitiateResponse struct {
	PaymentID   snowflake.ID `json:"payment_id,string"`
	Provider    string       `json:"provider"`
	ProviderRef string       `json:"provider_ref"`
	PaymentURL  string       `json:"payment_url"`
	Status      Status       `json:"status"`
	Amount      int64        `json:"amount"`
	Currency    string       `json:"currency"`
	Replayed    bool         `json:"replayed"`
}

// Service is the payment transaction lifecycle entrypoint.
type Service interface {
	Initiate(ctx context.Context, cmd InitiateCommand) (*InitiateResponse, error)
	Status(ctx context.Context, paymentID snowflake.ID) (*Transaction, error)
	Verify(ctx context.Context, paymentID snowflake.ID) (*Transaction, error)
	Refund(ctx context.Context, paymentID snowflake.ID, reason string) (*Transaction, error)
}

// WebhookService reconciles asynchronous gateway callbacks.
type WebhookService interface {
	HandleWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) error
}

// ReceiptService produces durable proof-of-payment artifacts.
type ReceiptService interface {
	Generate(ctx context.Context, paymentID snowflake.ID) (string, error)
}
