package repository

import (
	"context"
	"time"

	"github.com/admitworks/matricula/internal/payment/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertTransaction(ctx context.Context, db *gorm.DB, txn *domain.Transaction) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`INSERT INTO payment_transactions (
			id, candidate_id, purpose, amount, currency, session,
			provider, provider_ref, status, idempotency_key, request_hash,
			first_request_at, last_request_at, replay_count,
			external_reference, payment_url, metadata, expires_at, raw_payload,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`,
		txn.ID,
		txn.CandidateID,
		txn.Purpose,
		txn.Amount,
		txn.Currency,
		txn.Session,
		txn.Provider,
		txn.ProviderRef,
		txn.Status,
		txn.IdempotencyKey,
		txn.RequestHash,
		txn.FirstRequestAt,
		txn.LastRequestAt,
		txn.ReplayCount,
		txn.ExternalReference,
		txn.PaymentURL,
		txn.Metadata,
		txn.ExpiresAt,
		txn.RawPayload,
		txn.CreatedAt,
		txn.UpdatedAt,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) FindLiveByIdempotencyKey(ctx context.Context, db *gorm.DB, key string) (*domain.Transaction, error) {
	var item domain.Transaction
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM payment_transactions
		 WHERE idempotency_key = ? AND status <> ?
		 LIMIT 1`,
		key,
		domain.StatusExpired,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindByProviderRef(ctx context.Context, db *gorm.DB, provider, providerRef string) (*domain.Transaction, error) {
	var item domain.Transaction
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM payment_transactions
		 WHERE provider = ? AND provider_ref = ?
		 LIMIT 1`,
		provider,
		providerRef,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Transaction, error) {
	var item domain.Transaction
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM payment_transactions WHERE id = ? LIMIT 1`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) RecordReplay(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payment_transactions
		 SET replay_count = replay_count + 1, last_request_at = ?, updated_at = ?
		 WHERE id = ?`,
		at,
		at,
		id,
	).Error
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to domain.Status, update domain.StatusUpdate) (bool, error) {
	at := update.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	stmt := `UPDATE payment_transactions SET status = ?, updated_at = ?`
	args := []any{to, at}
	if update.RawPayload != nil {
		stmt += `, raw_payload = ?`
		args = append(args, update.RawPayload)
	}
	if update.WebhookReceivedAt != nil {
		stmt += `, webhook_received_at = ?`
		args = append(args, *update.WebhookReceivedAt)
	}
	if update.VerifiedAt != nil {
		stmt += `, verified_at = ?`
		args = append(args, *update.VerifiedAt)
	}
	stmt += ` WHERE id = ? AND status = ?`
	args = append(args, id, from)

	res := db.WithContext(ctx).Exec(stmt, args...)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) ClaimReceipt(ctx context.Context, db *gorm.DB, id snowflake.ID, receiptRef string, at time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE payment_transactions
		 SET receipt_ref = ?, updated_at = ?
		 WHERE id = ? AND receipt_ref IS NULL`,
		receiptRef,
		at,
		id,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) InsertEvent(ctx context.Context, db *gorm.DB, event *domain.Event) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`INSERT INTO payment_events (
			id, payment_id, event_type, from_status, to_status,
			provider_event_id, signature_hash, provider_data, metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`,
		event.ID,
		event.PaymentID,
		event.EventType,
		event.FromStatus,
		event.ToStatus,
		event.ProviderEventID,
		event.SignatureHash,
		event.ProviderData,
		event.Metadata,
		event.CreatedAt,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) FindEventByProviderEventID(ctx context.Context, db *gorm.DB, providerEventID string) (*domain.Event, error) {
	var item domain.Event
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM payment_events
		 WHERE event_type = ? AND provider_event_id = ?
		 LIMIT 1`,
		domain.EventTypeWebhookReceived,
		providerEventID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) ListEvents(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) ([]*domain.Event, error) {
	var events []*domain.Event
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM payment_events
		 WHERE payment_id = ?
		 ORDER BY id ASC`,
		paymentID,
	).Scan(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
