package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository persists transactions and their append-only event ledger.
// Insert operations use insert-if-absent semantics so that the database's
// unique constraints, not application reads, arbitrate concurrent writers.
type Repository interface {
	// InsertTransaction inserts a new attempt. Returns false without error
	// when a live row with the same idempotency key (or provider ref)
	// already exists.
	InsertTransaction(ctx context.Context, db *gorm.DB, txn *Transaction) (bool, error)
	FindLiveByIdempotencyKey(ctx context.Context, db *gorm.DB, key string) (*Transaction, error)
	FindByProviderRef(ctx context.Context, db *gorm.DB, provider, providerRef string) (*Transaction, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Transaction, error)

	// RecordReplay bumps replay bookkeeping for a served duplicate request.
	RecordReplay(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error

	// UpdateStatus moves a transaction to a new status only if it is still
	// in the expected one; returns false if another writer got there first.
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to Status, update StatusUpdate) (bool, error)

	// ClaimReceipt sets the receipt reference only if none is present.
	ClaimReceipt(ctx context.Context, db *gorm.DB, id snowflake.ID, receiptRef string, at time.Time) (bool, error)

	// InsertEvent appends a ledger row. Returns false without error when the
	// provider event id is already recorded (webhook dedup point).
	InsertEvent(ctx context.Context, db *gorm.DB, event *Event) (bool, error)
	FindEventByProviderEventID(ctx context.Context, db *gorm.DB, providerEventID string) (*Event, error)
	ListEvents(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) ([]*Event, error)
}

// StatusUpdate carries the optional columns written alongside a transition.
type StatusUpdate struct {
	RawPayload        []byte
	WebhookReceivedAt *time.Time
	VerifiedAt        *time.Time
	At                time.Time
}
