package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Status is the lifecycle state of one payment attempt. Transitions are
// monotonic along the graph in CanTransition; refunded is reachable only
// from success and only by an operator.
type Status string

const (
	StatusInitiated Status = "initiated"
	StatusPending   Status = "pending"
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
	StatusExpired   Status = "expired"
)

// CanTransition reports whether a transaction may move from one status to
// another. Gateways frequently report a terminal status in the first
// callback, so initiated may jump straight to a terminal state.
func CanTransition(from, to Status) bool {
	if from == to {
		return false
	}
	switch from {
	case StatusInitiated:
		switch to {
		case StatusPending, StatusSuccess, StatusFailed, StatusExpired:
			return true
		}
	case StatusPending:
		switch to {
		case StatusSuccess, StatusFailed, StatusExpired:
			return true
		}
	case StatusSuccess:
		return to == StatusRefunded
	}
	return false
}

func (s Status) Terminal() bool {
	switch s {
	case StatusFailed, StatusRefunded, StatusExpired:
		return true
	default:
		return false
	}
}

// Purpose enumerates the reason a candidate is paying.
type Purpose string

const (
	PurposeApplicationFee Purpose = "application_fee"
	PurposeAcceptanceFee  Purpose = "acceptance_fee"
	PurposeSchoolFee      Purpose = "school_fee"
)

func ParsePurpose(raw string) (Purpose, bool) {
	switch Purpose(strings.ToLower(strings.TrimSpace(raw))) {
	case PurposeApplicationFee:
		return PurposeApplicationFee, true
	case PurposeAcceptanceFee:
		return PurposeAcceptanceFee, true
	case PurposeSchoolFee:
		return PurposeSchoolFee, true
	default:
		return "", false
	}
}

// Transaction is one row per distinct payment attempt. Rows are created only
// by Initiate on a genuinely new fingerprint and are never deleted.
type Transaction struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	CandidateID snowflake.ID `json:"candidate_id" gorm:"not null;index"`
	Purpose     Purpose      `json:"purpose" gorm:"type:text;not null"`
	Amount      int64        `json:"amount" gorm:"not null"`
	Currency    string       `json:"currency" gorm:"type:text;not null"`
	Session     string       `json:"session" gorm:"type:text;not null"`

	Provider    string `json:"provider" gorm:"type:text;not null"`
	ProviderRef string `json:"provider_ref" gorm:"type:text;not null"`
	Status      Status `json:"status" gorm:"type:text;not null"`

	IdempotencyKey string `json:"idempotency_key" gorm:"type:text;not null"`
	RequestHash    string `json:"request_hash" gorm:"type:text;not null"`

	FirstRequestAt time.Time `json:"first_request_at" gorm:"not null"`
	LastRequestAt  time.Time `json:"last_request_at" gorm:"not null"`
	ReplayCount    int64     `json:"replay_count" gorm:"not null;default:0"`

	ExternalReference string         `json:"external_reference" gorm:"type:text"`
	PaymentURL        string         `json:"payment_url" gorm:"type:text"`
	Metadata          datatypes.JSON `json:"metadata" gorm:"type:jsonb"`
	ExpiresAt         *time.Time     `json:"expires_at"`
	RawPayload        datatypes.JSON `json:"raw_payload" gorm:"type:jsonb"`

	WebhookReceivedAt *time.Time `json:"webhook_received_at"`
	VerifiedAt        *time.Time `json:"verified_at"`
	ReceiptRef        *string    `json:"receipt_ref" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`
}

func (Transaction) TableName() string { return "payment_transactions" }

// Event types recorded in the append-only payment_events ledger.
const (
	EventTypeInitiated       = "initiated"
	EventTypeWebhookReceived = "webhook_received"
	EventTypeStatusChanged   = "status_changed"
	EventTypeVerified        = "verified"
)

// Event is one append-only audit row per state-affecting occurrence.
// Rows are immutable once written.
type Event struct {
	ID              snowflake.ID   `json:"id" gorm:"primaryKey"`
	PaymentID       snowflake.ID   `json:"payment_id" gorm:"not null;index"`
	EventType       string         `json:"event_type" gorm:"type:text;not null"`
	FromStatus      Status         `json:"from_status" gorm:"type:text"`
	ToStatus        Status         `json:"to_status" gorm:"type:text"`
	ProviderEventID string         `json:"provider_event_id" gorm:"type:text"`
	SignatureHash   string         `json:"signature_hash" gorm:"type:text"`
	ProviderData    datatypes.JSON `json:"provider_data" gorm:"type:jsonb"`
	Metadata        datatypes.JSON `json:"metadata" gorm:"type:jsonb"`
	CreatedAt       time.Time      `json:"created_at" gorm:"not null"`
}

func (Event) TableName() string { return "payment_events" }
