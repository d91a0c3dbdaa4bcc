package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	candidatedomain "github.com/admitworks/matricula/internal/candidate/domain"
	candidaterepo "github.com/admitworks/matricula/internal/candidate/repository"
	candidateservice "github.com/admitworks/matricula/internal/candidate/service"
	"github.com/admitworks/matricula/internal/config"
	feedomain "github.com/admitworks/matricula/internal/feeschedule/domain"
	feerepo "github.com/admitworks/matricula/internal/feeschedule/repository"
	feeservice "github.com/admitworks/matricula/internal/feeschedule/service"
	"github.com/admitworks/matricula/internal/payment/adapters"
	"github.com/admitworks/matricula/internal/payment/domain"
	paymentrepo "github.com/admitworks/matricula/internal/payment/repository"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type adapterStub struct {
	mu            sync.Mutex
	initiateCalls int
	initiateErr   error
	verifyStatus  domain.Status
}

func (a *adapterStub) Name() string { return "sandbox" }

func (a *adapterStub) Initiate(ctx context.Context, req domain.InitiateRequest) (*domain.InitiateResult, error) {
	a.mu.Lock()
	a.initiateCalls++
	a.mu.Unlock()
	if a.initiateErr != nil {
		return nil, a.initiateErr
	}
	return &domain.InitiateResult{
		ProviderRef: "SB-" + req.Reference,
		PaymentURL:  "https://pay.sandbox.test/" + req.Reference,
		RawPayload:  []byte(`{"status":true}`),
	}, nil
}

func (a *adapterStub) Verify(ctx context.Context, providerRef string) (*domain.VerifyResult, error) {
	return &domain.VerifyResult{
		Status:       a.verifyStatus,
		ProviderData: []byte(`{"source":"verify"}`),
	}, nil
}

func (a *adapterStub) ProcessWebhook(payload []byte) (*domain.WebhookResult, error) {
	return nil, domain.ErrEventIgnored
}

func (a *adapterStub) VerifySignature(payload []byte, headers http.Header) error {
	return nil
}

func (a *adapterStub) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.initiateCalls
}

type receiptStub struct {
	mu    sync.Mutex
	calls []snowflake.ID
}

func (r *receiptStub) Generate(ctx context.Context, paymentID snowflake.ID) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, paymentID)
	return "RCP-TEST", nil
}

func (r *receiptStub) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestInitiateReplaysStoredResponse(t *testing.T) {
	fixture := setupPaymentService(t)
	ctx := context.Background()

	cmd := domain.InitiateCommand{
		CandidateID: fixture.candidateID,
		Purpose:     "application_fee",
		Session:     "2026/2027",
	}

	first, err := fixture.svc.Initiate(ctx, cmd)
	if err != nil {
		t.Fatalf("initiate first: %v", err)
	}
	if first.Replayed {
		t.Fatal("first initiation reported as replay")
	}
	if first.Amount != 5000_00 {
		t.Fatalf("expected fee schedule amount, got %d", first.Amount)
	}

	second, err := fixture.svc.Initiate(ctx, cmd)
	if err != nil {
		t.Fatalf("initiate second: %v", err)
	}
	if !second.Replayed {
		t.Fatal("second initiation not reported as replay")
	}
	if first.PaymentID != second.PaymentID {
		t.Fatalf("replay returned a different payment: %s vs %s", first.PaymentID, second.PaymentID)
	}
	if calls := fixture.adapter.Calls(); calls != 1 {
		t.Fatalf("expected exactly one gateway call, got %d", calls)
	}
	if count := countTransactions(t, fixture.db); count != 1 {
		t.Fatalf("expected 1 transaction row, got %d", count)
	}

	txn, err := fixture.svc.Status(ctx, first.PaymentID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if txn.ReplayCount != 1 {
		t.Fatalf("expected replay_count 1, got %d", txn.ReplayCount)
	}
}

func TestInitiateRejectsReusedKeyWithDifferentRequest(t *testing.T) {
	fixture := setupPaymentService(t)
	ctx := context.Background()

	cmd := domain.InitiateCommand{
		CandidateID:    fixture.candidateID,
		Purpose:        "application_fee",
		Session:        "2026/2027",
		IdempotencyKey: "operator-supplied-key",
	}
	if _, err := fixture.svc.Initiate(ctx, cmd); err != nil {
		t.Fatalf("initiate: %v", err)
	}

	cmd.Purpose = "acceptance_fee"
	_, err := fixture.svc.Initiate(ctx, cmd)
	if !errors.Is(err, domain.ErrIdempotencyConflict) {
		t.Fatalf("expected idempotency conflict, got %v", err)
	}
	if count := countTransactions(t, fixture.db); count != 1 {
		t.Fatalf("expected 1 transaction row, got %d", count)
	}
}

func TestInitiateShortExplicitKey(t *testing.T) {
	fixture := setupPaymentService(t)
	ctx := context.Background()

	cmd := domain.InitiateCommand{
		CandidateID:    fixture.candidateID,
		Purpose:        "application_fee",
		Session:        "2026/2027",
		IdempotencyKey: "K1",
	}

	first, err := fixture.svc.Initiate(ctx, cmd)
	if err != nil {
		t.Fatalf("initiate with short key: %v", err)
	}
	// The stub echoes the merchant reference back as "SB-"+reference.
	if want := "SB-" + MerchantReference("K1"); first.ProviderRef != want {
		t.Fatalf("provider ref = %q, want %q", first.ProviderRef, want)
	}

	second, err := fixture.svc.Initiate(ctx, cmd)
	if err != nil {
		t.Fatalf("retry with short key: %v", err)
	}
	if !second.Replayed || second.PaymentID != first.PaymentID {
		t.Fatalf("retry did not replay: replayed=%v id=%s vs %s", second.Replayed, second.PaymentID, first.PaymentID)
	}
}

func TestMerchantReferenceShapeIsKeyIndependent(t *testing.T) {
	for _, key := range []string{"K", "K1", "operator-supplied-key", DeriveKey("42", domain.PurposeApplicationFee, "2026/2027")} {
		ref := MerchantReference(key)
		if len(ref) != len("MAT-")+16 {
			t.Fatalf("reference %q for key %q has unexpected length", ref, key)
		}
		if ref != MerchantReference(key) {
			t.Fatalf("reference for key %q not deterministic", key)
		}
	}
	if MerchantReference("K1") == MerchantReference("K2") {
		t.Fatal("distinct keys collapsed to one reference")
	}
}

func TestInitiateUnknownPurpose(t *testing.T) {
	fixture := setupPaymentService(t)

	_, err := fixture.svc.Initiate(context.Background(), domain.InitiateCommand{
		CandidateID: fixture.candidateID,
		Purpose:     "library_fine",
		Session:     "2026/2027",
	})
	if !errors.Is(err, domain.ErrUnsupportedPurpose) {
		t.Fatalf("expected unsupported purpose, got %v", err)
	}
}

func TestInitiateAmountMismatch(t *testing.T) {
	fixture := setupPaymentService(t)

	_, err := fixture.svc.Initiate(context.Background(), domain.InitiateCommand{
		CandidateID: fixture.candidateID,
		Purpose:     "application_fee",
		Session:     "2026/2027",
		Amount:      1,
	})
	if !errors.Is(err, domain.ErrAmountMismatch) {
		t.Fatalf("expected amount mismatch, got %v", err)
	}
	if count := countTransactions(t, fixture.db); count != 0 {
		t.Fatalf("expected no rows, got %d", count)
	}
}

func TestInitiateCurrencyMismatch(t *testing.T) {
	fixture := setupPaymentService(t)
	ctx := context.Background()

	_, err := fixture.svc.Initiate(ctx, domain.InitiateCommand{
		CandidateID: fixture.candidateID,
		Purpose:     "application_fee",
		Session:     "2026/2027",
		Currency:    "USD",
	})
	if !errors.Is(err, domain.ErrCurrencyMismatch) {
		t.Fatalf("expected currency mismatch, got %v", err)
	}
	if count := countTransactions(t, fixture.db); count != 0 {
		t.Fatalf("expected no rows, got %d", count)
	}

	// Matching currency is accepted regardless of case.
	resp, err := fixture.svc.Initiate(ctx, domain.InitiateCommand{
		CandidateID: fixture.candidateID,
		Purpose:     "application_fee",
		Session:     "2026/2027",
		Currency:    "ngn",
	})
	if err != nil {
		t.Fatalf("initiate with matching currency: %v", err)
	}
	if resp.Currency != "NGN" {
		t.Fatalf("expected normalized NGN, got %q", resp.Currency)
	}
}

func TestInitiateGatewayFailureLeavesNoRow(t *testing.T) {
	fixture := setupPaymentService(t)
	fixture.adapter.initiateErr = fmt.Errorf("%w: connection refused", domain.ErrProviderUnavailable)

	_, err := fixture.svc.Initiate(context.Background(), domain.InitiateCommand{
		CandidateID: fixture.candidateID,
		Purpose:     "application_fee",
		Session:     "2026/2027",
	})
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected provider unavailable, got %v", err)
	}
	if count := countTransactions(t, fixture.db); count != 0 {
		t.Fatalf("expected no rows after gateway failure, got %d", count)
	}

	// A retry after the gateway recovers starts clean.
	fixture.adapter.initiateErr = nil
	resp, err := fixture.svc.Initiate(context.Background(), domain.InitiateCommand{
		CandidateID: fixture.candidateID,
		Purpose:     "application_fee",
		Session:     "2026/2027",
	})
	if err != nil {
		t.Fatalf("retry initiate: %v", err)
	}
	if resp.Replayed {
		t.Fatal("clean retry should not be a replay")
	}
}

func TestVerifyAppliesTransitionAndReceipt(t *testing.T) {
	fixture := setupPaymentService(t)
	fixture.adapter.verifyStatus = domain.StatusSuccess
	ctx := context.Background()

	resp, err := fixture.svc.Initiate(ctx, domain.InitiateCommand{
		CandidateID: fixture.candidateID,
		Purpose:     "application_fee",
		Session:     "2026/2027",
	})
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	txn, err := fixture.svc.Verify(ctx, resp.PaymentID)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if txn.Status != domain.StatusSuccess {
		t.Fatalf("expected success after verify, got %s", txn.Status)
	}
	if txn.VerifiedAt == nil {
		t.Fatal("verified_at not set")
	}
	if fixture.receipts.Calls() != 1 {
		t.Fatalf("expected one receipt generation, got %d", fixture.receipts.Calls())
	}

	// A second verify on a settled payment is a no-op.
	again, err := fixture.svc.Verify(ctx, resp.PaymentID)
	if err != nil {
		t.Fatalf("verify again: %v", err)
	}
	if again.Status != domain.StatusSuccess {
		t.Fatalf("status changed on repeat verify: %s", again.Status)
	}
	if fixture.receipts.Calls() != 1 {
		t.Fatalf("repeat verify generated another receipt")
	}
}

func TestRefundOnlyFromSuccess(t *testing.T) {
	fixture := setupPaymentService(t)
	fixture.adapter.verifyStatus = domain.StatusSuccess
	ctx := context.Background()

	resp, err := fixture.svc.Initiate(ctx, domain.InitiateCommand{
		CandidateID: fixture.candidateID,
		Purpose:     "application_fee",
		Session:     "2026/2027",
	})
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	if _, err := fixture.svc.Refund(ctx, resp.PaymentID, "test"); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("refund before success should fail, got %v", err)
	}

	if _, err := fixture.svc.Verify(ctx, resp.PaymentID); err != nil {
		t.Fatalf("verify: %v", err)
	}

	txn, err := fixture.svc.Refund(ctx, resp.PaymentID, "duplicate charge")
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if txn.Status != domain.StatusRefunded {
		t.Fatalf("expected refunded, got %s", txn.Status)
	}

	if _, err := fixture.svc.Refund(ctx, resp.PaymentID, "again"); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("second refund should fail, got %v", err)
	}
}

type paymentFixture struct {
	svc         domain.Service
	db          *gorm.DB
	adapter     *adapterStub
	receipts    *receiptStub
	candidateID snowflake.ID
}

func setupPaymentService(t *testing.T) *paymentFixture {
	t.Helper()

	node := mustNode(t)
	db := openTestDB(t)
	preparePaymentSchema(t, db)

	cfg := config.Config{DefaultCurrency: "NGN"}
	log := zap.NewNop()

	candidateSvc := candidateservice.New(candidateservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Repo:  candidaterepo.Provide(),
	})
	feeSvc := feeservice.New(feeservice.Params{
		Config: cfg,
		DB:     db,
		Log:    log,
		GenID:  node,
		Repo:   feerepo.Provide(),
	})

	ctx := context.Background()
	candidate, err := candidateSvc.Register(ctx, candidatedomain.RegisterCommand{
		RegNumber: "2026/00114",
		FirstName: "Amara",
		LastName:  "Okafor",
		Email:     "amara.okafor@example.com",
		Session:   "2026/2027",
	})
	if err != nil {
		t.Fatalf("register candidate: %v", err)
	}

	for purpose, amount := range map[string]int64{
		"application_fee": 5000_00,
		"acceptance_fee":  30000_00,
	} {
		if _, err := feeSvc.Create(ctx, feedomain.UpsertCommand{
			Purpose: purpose,
			Session: "2026/2027",
			Amount:  amount,
		}); err != nil {
			t.Fatalf("create fee schedule: %v", err)
		}
	}

	adapter := &adapterStub{verifyStatus: domain.StatusPending}
	receipts := &receiptStub{}

	svc := New(Params{
		Config: cfg,
		DB:     db,
		Log:    log,
		GenID:  node,
		Repo:   paymentrepo.Provide(),
		Registry: adapters.NewRegistry(adapters.Entry{
			Adapter: adapter,
			Enabled: true,
			Primary: true,
		}),
		Candidates: candidateSvc,
		Fees:       feeSvc,
		Receipts:   receipts,
	})

	return &paymentFixture{
		svc:         svc,
		db:          db,
		adapter:     adapter,
		receipts:    receipts,
		candidateID: candidate.ID,
	}
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

func preparePaymentSchema(t *testing.T, db *gorm.DB) {
	t.Helper()

	stmts := []string{
		`CREATE TABLE candidates (
			id INTEGER PRIMARY KEY,
			reg_number TEXT NOT NULL UNIQUE,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			email TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			department_id INTEGER,
			programme_id INTEGER,
			session TEXT NOT NULL,
			level TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE fee_schedules (
			id INTEGER PRIMARY KEY,
			purpose TEXT NOT NULL,
			session TEXT NOT NULL,
			department_id INTEGER,
			level TEXT NOT NULL DEFAULT '',
			amount INTEGER NOT NULL,
			currency TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
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

func countTransactions(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	if err := db.Raw(`SELECT COUNT(*) FROM payment_transactions`).Scan(&count).Error; err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	return count
}

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return node
}
