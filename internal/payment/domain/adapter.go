package domain

import (
	"context"
	"net/http"
	"time"
)

// InitiateRequest is the generic shape handed to a gateway adapter.
type InitiateRequest struct {
	Reference   string
	Amount      int64 // minor units
	Currency    string
	Email       string
	Phone       string
	CandidateID string
	Purpose     Purpose
	Session     string

	// IdempotencyToken is forwarded to the gateway so that a retried
	// initiate after a lost response lands on the same gateway-side
	// attempt instead of minting a second payment link.
	IdempotencyToken string
}

// InitiateResult is what a gateway returned for a new payment attempt.
type InitiateResult struct {
	ProviderRef string
	PaymentURL  string
	ExpiresAt   *time.Time
	Metadata    map[string]any
	RawPayload  []byte
}

// VerifyResult is the gateway-side status from an active poll.
type VerifyResult struct {
	Status       Status
	ProviderData []byte
}

// WebhookResult is the generic shape parsed from a provider callback body.
type WebhookResult struct {
	ProviderEventID string
	ProviderRef     string
	Status          Status
	ProviderData    []byte
}

// Adapter translates generic operations into one vendor's wire protocol.
// Implementations are read-only after construction and safe for concurrent
// use. Initiate and Verify must bound their network calls with a timeout.
type Adapter interface {
	Name() string
	Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error)
	Verify(ctx context.Context, providerRef string) (*VerifyResult, error)
	ProcessWebhook(payload []byte) (*WebhookResult, error)
	VerifySignature(payload []byte, headers http.Header) error
}
