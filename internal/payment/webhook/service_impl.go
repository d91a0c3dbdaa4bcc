package webhook

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/admitworks/matricula/internal/observability/metrics"
	"github.com/admitworks/matricula/internal/payment/adapters"
	"github.com/admitworks/matricula/internal/payment/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Registry *adapters.Registry
	Receipts domain.ReceiptService
	Metrics  *metrics.Metrics
}

type service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	registry *adapters.Registry
	receipts domain.ReceiptService
	metrics  *metrics.Metrics
}

func New(p Params) domain.WebhookService {
	return &service{
		db:       p.DB,
		log:      p.Log.Named("payment.webhook"),
		genID:    p.GenID,
		repo:     p.Repo,
		registry: p.Registry,
		receipts: p.Receipts,
		metrics:  p.Metrics,
	}
}

// HandleWebhook reconciles one provider callback. Providers deliver
// at-least-once; effectively-once processing is enforced by the unique
// constraint on the recorded provider event id, not by the pre-read.
func (s *service) HandleWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	adapter, ok := s.registry.Get(provider)
	if !ok {
		s.metrics.RecordWebhook(provider, "unknown_provider")
		return domain.ErrUnknownProvider
	}

	if err := adapter.VerifySignature(payload, headers); err != nil {
		s.log.Warn("webhook signature rejected", zap.String("provider", provider))
		s.metrics.RecordWebhook(provider, "invalid_signature")
		return domain.ErrInvalidSignature
	}

	result, err := adapter.ProcessWebhook(payload)
	if err != nil {
		if err == domain.ErrEventIgnored {
			s.metrics.RecordWebhook(provider, "ignored")
			return nil
		}
		s.metrics.RecordWebhook(provider, "invalid_payload")
		return domain.ErrInvalidPayload
	}

	eventID := result.ProviderEventID
	if eventID == "" {
		// Providers without a native event id get a payload digest so
		// redeliveries of the same body still collapse to one event.
		sum := sha256.Sum256(payload)
		eventID = provider + ":" + hex.EncodeToString(sum[:])
	}

	// Fast path: a redelivered event we already recorded.
	seen, err := s.repo.FindEventByProviderEventID(ctx, s.db, eventID)
	if err != nil {
		return err
	}
	if seen != nil {
		s.metrics.RecordWebhook(provider, "duplicate")
		return nil
	}

	txn, err := s.repo.FindByProviderRef(ctx, s.db, provider, result.ProviderRef)
	if err != nil {
		return err
	}
	if txn == nil {
		s.log.Error("webhook for unknown transaction",
			zap.String("provider", provider),
			zap.String("provider_ref", result.ProviderRef),
			zap.String("provider_event_id", eventID),
		)
		s.metrics.RecordWebhook(provider, "orphan")
		return domain.ErrPaymentNotFound
	}

	now := time.Now().UTC()
	sigHash := sha256.Sum256(payload)

	recorded, err := s.repo.InsertEvent(ctx, s.db, &domain.Event{
		ID:              s.genID.Generate(),
		PaymentID:       txn.ID,
		EventType:       domain.EventTypeWebhookReceived,
		FromStatus:      txn.Status,
		ToStatus:        result.Status,
		ProviderEventID: eventID,
		SignatureHash:   hex.EncodeToString(sigHash[:]),
		ProviderData:    result.ProviderData,
		CreatedAt:       now,
	})
	if err != nil {
		return err
	}
	if !recorded {
		// A concurrent delivery of the same event won the insert race.
		s.metrics.RecordWebhook(provider, "duplicate")
		return nil
	}

	if result.Status == txn.Status || !domain.CanTransition(txn.Status, result.Status) {
		// Stale or out-of-order delivery; the event is on the ledger but
		// the transaction does not move.
		s.metrics.RecordWebhook(provider, "stale")
		return nil
	}

	moved, err := s.repo.UpdateStatus(ctx, s.db, txn.ID, txn.Status, result.Status, domain.StatusUpdate{
		RawPayload:        result.ProviderData,
		WebhookReceivedAt: &now,
		At:                now,
	})
	if err != nil {
		return err
	}
	if !moved {
		s.metrics.RecordWebhook(provider, "stale")
		return nil
	}

	s.appendEvent(ctx, &domain.Event{
		ID:         s.genID.Generate(),
		PaymentID:  txn.ID,
		EventType:  domain.EventTypeStatusChanged,
		FromStatus: txn.Status,
		ToStatus:   result.Status,
		CreatedAt:  now,
	})
	s.metrics.RecordTransition(string(result.Status))
	s.metrics.RecordWebhook(provider, "processed")

	if result.Status == domain.StatusSuccess {
		if _, err := s.receipts.Generate(ctx, txn.ID); err != nil {
			s.log.Warn("receipt after webhook", zap.Int64("payment_id", int64(txn.ID)), zap.Error(err))
		}
	}

	return nil
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
