package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	candidatedomain "github.com/admitworks/matricula/internal/candidate/domain"
	"github.com/admitworks/matricula/internal/config"
	feedomain "github.com/admitworks/matricula/internal/feeschedule/domain"
	"github.com/admitworks/matricula/internal/observability/metrics"
	"github.com/admitworks/matricula/internal/payment/adapters"
	"github.com/admitworks/matricula/internal/payment/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const gatewayTimeout = 20 * time.Second

type Params struct {
	fx.In

	Config     config.Config
	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       domain.Repository
	Registry   *adapters.Registry
	Candidates candidatedomain.Service
	Fees       feedomain.Service
	Receipts   domain.ReceiptService
	Metrics    *metrics.Metrics
}

type service struct {
	cfg        config.Config
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	registry   *adapters.Registry
	candidates candidatedomain.Service
	fees       feedomain.Service
	receipts   domain.ReceiptService
	metrics    *metrics.Metrics
}

func New(p Params) domain.Service {
	return &service{
		cfg:        p.Config,
		db:         p.DB,
		log:        p.Log.Named("payment.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		registry:   p.Registry,
		candidates: p.Candidates,
		fees:       p.Fees,
		receipts:   p.Receipts,
		metrics:    p.Metrics,
	}
}

func (s *service) Initiate(ctx context.Context, cmd domain.InitiateCommand) (*domain.InitiateResponse, error) {
	purpose, ok := domain.ParsePurpose(cmd.Purpose)
	if !ok {
		return nil, domain.ErrUnsupportedPurpose
	}
	if cmd.CandidateID == 0 || cmd.Session == "" {
		return nil, domain.ErrInvalidRequest
	}

	candidate, err := s.candidates.GetByID(ctx, cmd.CandidateID)
	if err != nil {
		if err == candidatedomain.ErrNotFound {
			return nil, domain.ErrInvalidRequest
		}
		return nil, err
	}

	schedule, err := s.fees.AmountFor(ctx, feedomain.MatchFilter{
		Purpose:      string(purpose),
		Session:      cmd.Session,
		DepartmentID: candidate.DepartmentID,
		Level:        candidate.Level,
	})
	if err != nil {
		if err == feedomain.ErrNotFound {
			return nil, domain.ErrUnsupportedPurpose
		}
		return nil, err
	}
	if cmd.Amount != 0 && cmd.Amount != schedule.Amount {
		return nil, domain.ErrAmountMismatch
	}
	currency := schedule.Currency
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}
	if cmd.Currency != "" && !strings.EqualFold(cmd.Currency, currency) {
		return nil, domain.ErrCurrencyMismatch
	}

	// Normalize before fingerprinting so that a retry that omits the
	// server-resolved fields still hashes identically.
	cmd.Purpose = string(purpose)
	cmd.Amount = schedule.Amount
	cmd.Currency = currency

	key := strings.TrimSpace(cmd.IdempotencyKey)
	if key == "" {
		key = DeriveKey(cmd.CandidateID.String(), purpose, cmd.Session)
	}
	requestHash := RequestHash(cmd)

	existing, err := s.repo.FindLiveByIdempotencyKey(ctx, s.db, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.replay(ctx, existing, requestHash, cmd.Purpose)
	}

	adapter, err := s.registry.Resolve(cmd.PreferredProvider)
	if err != nil {
		return nil, err
	}

	email := strings.TrimSpace(cmd.Email)
	if email == "" {
		email = candidate.Email
	}
	phone := cmd.Phone
	if phone == "" {
		phone = candidate.Phone
	}

	// The merchant reference is derived from the idempotency key so that
	// a retry after a lost response reuses the same gateway-side attempt.
	reference := MerchantReference(key)

	gatewayCtx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	result, err := adapter.Initiate(gatewayCtx, domain.InitiateRequest{
		Reference:        reference,
		Amount:           cmd.Amount,
		Currency:         cmd.Currency,
		Email:            email,
		Phone:            phone,
		CandidateID:      cmd.CandidateID.String(),
		Purpose:          purpose,
		Session:          cmd.Session,
		IdempotencyToken: key,
	})
	if err != nil {
		s.log.Warn("gateway initiate failed",
			zap.String("provider", adapter.Name()),
			zap.String("idempotency_key", key),
			zap.Error(err),
		)
		return nil, err
	}

	now := time.Now().UTC()
	metadata, _ := json.Marshal(map[string]string{
		"reg_number": candidate.RegNumber,
		"email":      email,
	})

	txn := &domain.Transaction{
		ID:                s.genID.Generate(),
		CandidateID:       cmd.CandidateID,
		Purpose:           purpose,
		Amount:            cmd.Amount,
		Currency:          cmd.Currency,
		Session:           cmd.Session,
		Provider:          adapter.Name(),
		ProviderRef:       result.ProviderRef,
		Status:            domain.StatusInitiated,
		IdempotencyKey:    key,
		RequestHash:       requestHash,
		FirstRequestAt:    now,
		LastRequestAt:     now,
		ExternalReference: reference,
		PaymentURL:        result.PaymentURL,
		Metadata:          metadata,
		ExpiresAt:         result.ExpiresAt,
		RawPayload:        result.RawPayload,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	inserted, err := s.repo.InsertTransaction(ctx, s.db, txn)
	if err != nil {
		return nil, err
	}
	if !inserted {
		// A concurrent request with the same key won the insert race.
		winner, err := s.repo.FindLiveByIdempotencyKey(ctx, s.db, key)
		if err != nil {
			return nil, err
		}
		if winner == nil {
			return nil, domain.ErrIdempotencyConflict
		}
		return s.replay(ctx, winner, requestHash, cmd.Purpose)
	}

	s.appendEvent(ctx, &domain.Event{
		ID:        s.genID.Generate(),
		PaymentID: txn.ID,
		EventType: domain.EventTypeInitiated,
		ToStatus:  domain.StatusInitiated,
		CreatedAt: now,
	})
	s.metrics.RecordInitiated(adapter.Name(), cmd.Purpose)

	return response(txn, false), nil
}

// replay serves a stored response for a duplicate initiation, or rejects
// the request when the parameters no longer match the original.
func (s *service) replay(ctx context.Context, txn *domain.Transaction, requestHash, purpose string) (*domain.InitiateResponse, error) {
	if txn.RequestHash != requestHash {
		return nil, domain.ErrIdempotencyConflict
	}
	if err := s.repo.RecordReplay(ctx, s.db, txn.ID, time.Now().UTC()); err != nil {
		s.log.Warn("record replay", zap.Int64("payment_id", int64(txn.ID)), zap.Error(err))
	}
	s.metrics.RecordReplay(purpose)
	return response(txn, true), nil
}

func (s *service) Status(ctx context.Context, paymentID snowflake.ID) (*domain.Transaction, error) {
	txn, err := s.repo.FindByID(ctx, s.db, paymentID)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, domain.ErrPaymentNotFound
	}
	return txn, nil
}

// Verify actively polls the gateway for transactions whose webhook never
// arrived. It applies the same guarded transition the webhook path uses.
func (s *service) Verify(ctx context.Context, paymentID snowflake.ID) (*domain.Transaction, error) {
	txn, err := s.Status(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if txn.Status.Terminal() || txn.Status == domain.StatusSuccess {
		return txn, nil
	}

	adapter, ok := s.registry.Get(txn.Provider)
	if !ok {
		return nil, domain.ErrUnknownProvider
	}

	gatewayCtx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	result, err := adapter.Verify(gatewayCtx, txn.ProviderRef)
	if err != nil {
		return nil, err
	}

	if result.Status == txn.Status || !domain.CanTransition(txn.Status, result.Status) {
		return txn, nil
	}

	now := time.Now().UTC()
	moved, err := s.repo.UpdateStatus(ctx, s.db, txn.ID, txn.Status, result.Status, domain.StatusUpdate{
		RawPayload: result.ProviderData,
		VerifiedAt: &now,
		At:         now,
	})
	if err != nil {
		return nil, err
	}
	if moved {
		s.appendEvent(ctx, &domain.Event{
			ID:           s.genID.Generate(),
			PaymentID:    txn.ID,
			EventType:    domain.EventTypeVerified,
			FromStatus:   txn.Status,
			ToStatus:     result.Status,
			ProviderData: result.ProviderData,
			CreatedAt:    now,
		})
		s.metrics.RecordTransition(string(result.Status))

		if result.Status == domain.StatusSuccess {
			if _, err := s.receipts.Generate(ctx, txn.ID); err != nil {
				s.log.Warn("receipt after verify", zap.Int64("payment_id", int64(txn.ID)), zap.Error(err))
			}
		}
	}

	return s.Status(ctx, paymentID)
}

// Refund marks a successful payment refunded. The money movement itself
// happens on the gateway dashboard; this records the operator's decision.
func (s *service) Refund(ctx context.Context, paymentID snowflake.ID, reason string) (*domain.Transaction, error) {
	txn, err := s.Status(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(txn.Status, domain.StatusRefunded) {
		return nil, domain.ErrInvalidState
	}

	now := time.Now().UTC()
	moved, err := s.repo.UpdateStatus(ctx, s.db, txn.ID, txn.Status, domain.StatusRefunded, domain.StatusUpdate{At: now})
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, domain.ErrInvalidState
	}

	meta, _ := json.Marshal(map[string]string{"reason": reason})
	s.appendEvent(ctx, &domain.Event{
		ID:         s.genID.Generate(),
		PaymentID:  txn.ID,
		EventType:  domain.EventTypeStatusChanged,
		FromStatus: txn.Status,
		ToStatus:   domain.StatusRefunded,
		Metadata:   meta,
		CreatedAt:  now,
	})
	s.metrics.RecordTransition(string(domain.StatusRefunded))

	return s.Status(ctx, paymentID)
}

func (s *service) appendEvent(ctx context.Context, event *domain.Event) {
	if _, err := s.repo.InsertEvent(ctx, s.db, event); err != nil {
		s.log.Warn("append payment event",
			zap.Int64("payment_id", int64(event.PaymentID)),
			zap.String("event_type", event.EventType),
			zap.Error(err),
		)
	}
}

func response(txn *domain.Transaction, replayed bool) *domain.InitiateResponse {
	return &domain.InitiateResponse{
		PaymentID:   txn.ID,
		Provider:    txn.Provider,
		ProviderRef: txn.ProviderRef,
		PaymentURL:  txn.PaymentURL,
		Status:      txn.Status,
		Amount:      txn.Amount,
		Currency:    txn.Currency,
		Replayed:    replayed,
	}
}
