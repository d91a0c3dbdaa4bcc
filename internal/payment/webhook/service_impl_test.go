package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/admitworks/matricula/internal/payment/adapters"
	"github.com/admitworks/matricula/internal/payment/adapters/paystack"
	"github.com/admitworks/matricula/internal/payment/domain"
	paymentrepo "github.com/admitworks/matricula/internal/payment/repository"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testSecret = "sk_test_webhook_secret"

type receiptStub struct {
	mu    sync.Mutex
	calls int
}

func (r *receiptStub) Generate(ctx context.Context, paymentID snowflake.ID) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return "RCP-TEST", nil
}

func (r *receiptStub) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestWebhookAppliesTransition(t *testing.T) {
	fixture := setupWebhookService(t)
	ctx := context.Background()

	payload := []byte(`{"event":"charge.success","data":{"id":9001,"status":"success","reference":"MAT-TEST01","amount":500000,"currency":"NGN"}}`)

	err := fixture.svc.HandleWebhook(ctx, "paystack", payload, signedHeaders(payload))
	if err != nil {
		t.Fatalf("handle webhook: %v", err)
	}

	txn := findTransaction(t, fixture.db, fixture.paymentID)
	if txn.Status != domain.StatusSuccess {
		t.Fatalf("expected success, got %s", txn.Status)
	}
	if txn.WebhookReceivedAt == nil {
		t.Fatal("webhook_received_at not set")
	}
	if fixture.receipts.Calls() != 1 {
		t.Fatalf("expected one receipt, got %d", fixture.receipts.Calls())
	}
	if count := countEvents(t, fixture.db, fixture.paymentID); count != 2 {
		t.Fatalf("expected webhook_received + status_changed events, got %d", count)
	}
}

func TestWebhookDuplicateDeliveryIsNoOp(t *testing.T) {
	fixture := setupWebhookService(t)
	ctx := context.Background()

	payload := []byte(`{"event":"charge.success","data":{"id":9002,"status":"success","reference":"MAT-TEST01","amount":500000,"currency":"NGN"}}`)
	headers := signedHeaders(payload)

	if err := fixture.svc.HandleWebhook(ctx, "paystack", payload, headers); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	eventsAfterFirst := countEvents(t, fixture.db, fixture.paymentID)

	if err := fixture.svc.HandleWebhook(ctx, "paystack", payload, headers); err != nil {
		t.Fatalf("redelivery: %v", err)
	}

	if count := countEvents(t, fixture.db, fixture.paymentID); count != eventsAfterFirst {
		t.Fatalf("redelivery wrote events: %d vs %d", count, eventsAfterFirst)
	}
	if fixture.receipts.Calls() != 1 {
		t.Fatalf("redelivery generated another receipt")
	}
}

// blindReadRepo hides recorded webhook events from the redelivery
// pre-read, the way a rival delivery still in flight would not see
// them. Dedup then rests entirely on the unique constraint at insert.
type blindReadRepo struct {
	domain.Repository
}

func (r *blindReadRepo) FindEventByProviderEventID(ctx context.Context, db *gorm.DB, providerEventID string) (*domain.Event, error) {
	return nil, nil
}

func TestWebhookConcurrentDuplicateCollapsesOnInsert(t *testing.T) {
	fixture := setupWebhookService(t)
	ctx := context.Background()

	svc := New(Params{
		DB:       fixture.db,
		Log:      zap.NewNop(),
		GenID:    fixture.node,
		Repo:     &blindReadRepo{paymentrepo.Provide()},
		Registry: fixture.registry,
		Receipts: fixture.receipts,
	})

	payload := []byte(`{"event":"charge.success","data":{"id":9008,"status":"success","reference":"MAT-TEST01","amount":500000,"currency":"NGN"}}`)
	headers := signedHeaders(payload)

	if err := svc.HandleWebhook(ctx, "paystack", payload, headers); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if count := countEvents(t, fixture.db, fixture.paymentID); count != 2 {
		t.Fatalf("expected webhook_received + status_changed events, got %d", count)
	}

	// Both deliveries miss the pre-read; the second must lose the event
	// insert and change nothing.
	if err := svc.HandleWebhook(ctx, "paystack", payload, headers); err != nil {
		t.Fatalf("racing redelivery: %v", err)
	}

	if count := countEvents(t, fixture.db, fixture.paymentID); count != 2 {
		t.Fatalf("racing redelivery wrote events: got %d", count)
	}
	if fixture.receipts.Calls() != 1 {
		t.Fatalf("racing redelivery generated another receipt")
	}
	txn := findTransaction(t, fixture.db, fixture.paymentID)
	if txn.Status != domain.StatusSuccess {
		t.Fatalf("expected success, got %s", txn.Status)
	}
}

func TestWebhookStaleDeliveryDoesNotRegress(t *testing.T) {
	fixture := setupWebhookService(t)
	ctx := context.Background()

	success := []byte(`{"event":"charge.success","data":{"id":9003,"status":"success","reference":"MAT-TEST01","amount":500000,"currency":"NGN"}}`)
	if err := fixture.svc.HandleWebhook(ctx, "paystack", success, signedHeaders(success)); err != nil {
		t.Fatalf("success delivery: %v", err)
	}

	// A late failure callback for the same payment must not move it.
	failed := []byte(`{"event":"charge.failed","data":{"id":9004,"status":"failed","reference":"MAT-TEST01","amount":500000,"currency":"NGN"}}`)
	if err := fixture.svc.HandleWebhook(ctx, "paystack", failed, signedHeaders(failed)); err != nil {
		t.Fatalf("stale delivery: %v", err)
	}

	txn := findTransaction(t, fixture.db, fixture.paymentID)
	if txn.Status != domain.StatusSuccess {
		t.Fatalf("stale webhook regressed status to %s", txn.Status)
	}
}

func TestWebhookTamperedSignatureRejected(t *testing.T) {
	fixture := setupWebhookService(t)

	payload := []byte(`{"event":"charge.success","data":{"id":9005,"status":"success","reference":"MAT-TEST01","amount":500000,"currency":"NGN"}}`)
	headers := http.Header{}
	headers.Set("X-Paystack-Signature", "deadbeef")

	err := fixture.svc.HandleWebhook(context.Background(), "paystack", payload, headers)
	if !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}
	if count := countEvents(t, fixture.db, fixture.paymentID); count != 0 {
		t.Fatalf("tampered webhook left %d events", count)
	}

	txn := findTransaction(t, fixture.db, fixture.paymentID)
	if txn.Status != domain.StatusInitiated {
		t.Fatalf("tampered webhook moved status to %s", txn.Status)
	}
}

func TestWebhookUnknownTransaction(t *testing.T) {
	fixture := setupWebhookService(t)

	payload := []byte(`{"event":"charge.success","data":{"id":9006,"status":"success","reference":"MAT-NOBODY","amount":500000,"currency":"NGN"}}`)
	err := fixture.svc.HandleWebhook(context.Background(), "paystack", payload, signedHeaders(payload))
	if !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Fatalf("expected payment not found, got %v", err)
	}
}

func TestWebhookIgnoredEventType(t *testing.T) {
	fixture := setupWebhookService(t)

	payload := []byte(`{"event":"subscription.create","data":{"id":9007,"reference":"MAT-TEST01"}}`)
	if err := fixture.svc.HandleWebhook(context.Background(), "paystack", payload, signedHeaders(payload)); err != nil {
		t.Fatalf("ignored event should be acknowledged: %v", err)
	}
	if count := countEvents(t, fixture.db, fixture.paymentID); count != 0 {
		t.Fatalf("ignored event wrote %d events", count)
	}
}

type webhookFixture struct {
	svc       domain.WebhookService
	db        *gorm.DB
	receipts  *receiptStub
	registry  *adapters.Registry
	node      *snowflake.Node
	paymentID snowflake.ID
}

func setupWebhookService(t *testing.T) *webhookFixture {
	t.Helper()

	node := mustNode(t)
	db := openTestDB(t)
	prepareWebhookSchema(t, db)

	repo := paymentrepo.Provide()
	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:             node.Generate(),
		CandidateID:    node.Generate(),
		Purpose:        domain.PurposeApplicationFee,
		Amount:         500000,
		Currency:       "NGN",
		Session:        "2026/2027",
		Provider:       "paystack",
		ProviderRef:    "MAT-TEST01",
		Status:         domain.StatusInitiated,
		IdempotencyKey: "whk-fixture-key",
		RequestHash:    "whk-fixture-hash",
		FirstRequestAt: now,
		LastRequestAt:  now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	inserted, err := repo.InsertTransaction(context.Background(), db, txn)
	if err != nil || !inserted {
		t.Fatalf("seed transaction: inserted=%v err=%v", inserted, err)
	}

	receipts := &receiptStub{}
	registry := adapters.NewRegistry(adapters.Entry{
		Adapter: paystack.New(testSecret, "", "https://api.paystack.test"),
		Enabled: true,
		Primary: true,
	})

	svc := New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Repo:     repo,
		Registry: registry,
		Receipts: receipts,
	})

	return &webhookFixture{
		svc:       svc,
		db:        db,
		receipts:  receipts,
		registry:  registry,
		node:      node,
		paymentID: txn.ID,
	}
}

func signedHeaders(payload []byte) http.Header {
	mac := hmac.New(sha512.New, []byte(testSecret))
	mac.Write(payload)

	headers := http.Header{}
	headers.Set("X-Paystack-Signature", hex.EncodeToString(mac.Sum(nil)))
	return headers
}

func findTransaction(t *testing.T, db *gorm.DB, id snowflake.ID) *domain.Transaction {
	t.Helper()
	var txn domain.Transaction
	if err := db.Raw(`SELECT * FROM payment_transactions WHERE id = ?`, id).Scan(&txn).Error; err != nil {
		t.Fatalf("find transaction: %v", err)
	}
	return &txn
}

func countEvents(t *testing.T, db *gorm.DB, paymentID snowflake.ID) int64 {
	t.Helper()
	var count int64
	if err := db.Raw(`SELECT COUNT(*) FROM payment_events WHERE payment_id = ?`, paymentID).Scan(&count).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	return count
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	_ = db.Exec("PRAGMA busy_timeout = 5000").Error
	return db
}

func prepareWebhookSchema(t *testing.T, db *gorm.DB) {
	t.Helper()

	stmts := []string{
		`CREATE TABLE payment_transactions (
			id INTEGER PRIMARY KEY,
			candidate_id INTEGER NOT NULL,
			purpose TEXT NOT NULL,
			amount INTEGER NOT NULL,
			currency TEXT NOT NULL,
			session TEXT NOT NULL,
			provider TEXT NOT NULL,
			provider_ref TEXT NOT NULL,
			status TEXT NOT NULL,
			idempotency_key TEXT NOT NULL,
			request_hash TEXT NOT NULL,
			first_request_at DATETIME NOT NULL,
			last_request_at DATETIME NOT NULL,
			replay_count INTEGER NOT NULL DEFAULT 0,
			external_reference TEXT NOT NULL DEFAULT '',
			payment_url TEXT NOT NULL DEFAULT '',
			metadata TEXT,
			expires_at DATETIME,
			raw_payload TEXT,
			webhook_received_at DATETIME,
			verified_at DATETIME,
			receipt_ref TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX idx_payment_transactions_idem_key
			ON payment_transactions (idempotency_key)
			WHERE status <> 'expired'`,
		`CREATE UNIQUE INDEX idx_payment_transactions_provider_ref
			ON payment_transactions (provider, provider_ref)`,
		`CREATE TABLE payment_events (
			id INTEGER PRIMARY KEY,
			payment_id INTEGER NOT NULL,
			event_type TEXT NOT NULL,
			from_status TEXT NOT NULL DEFAULT '',
			to_status TEXT NOT NULL DEFAULT '',
			provider_event_id TEXT NOT NULL DEFAULT '',
			signature_hash TEXT NOT NULL DEFAULT '',
			provider_data TEXT,
			metadata TEXT,
			created_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX idx_payment_events_provider_event
			ON payment_events (provider_event_id)
			WHERE event_type = 'webhook_received' AND provider_event_id <> ''`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("prepare schema: %v", err)
		}
	}
}

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(2)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return node
}
