package receipt

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	candidatedomain "github.com/admitworks/matricula/internal/candidate/domain"
	"github.com/admitworks/matricula/internal/config"
	"github.com/admitworks/matricula/internal/observability/metrics"
	"github.com/admitworks/matricula/internal/payment/domain"
	"github.com/admitworks/matricula/internal/providers/email"
	"github.com/admitworks/matricula/internal/providers/pdf"
	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Config        config.Config
	DB            *gorm.DB
	Log           *zap.Logger
	Repo          domain.Repository
	CandidateRepo candidatedomain.Repository
	PDF           pdf.Generator
	Mailer        email.Sender
	Metrics       *metrics.Metrics
}

type service struct {
	cfg           config.Config
	db            *gorm.DB
	log           *zap.Logger
	repo          domain.Repository
	candidateRepo candidatedomain.Repository
	pdf           pdf.Generator
	mailer        email.Sender
	metrics       *metrics.Metrics
}

func New(p Params) domain.ReceiptService {
	return &service{
		cfg:           p.Config,
		db:            p.DB,
		log:           p.Log.Named("payment.receipt"),
		repo:          p.Repo,
		candidateRepo: p.CandidateRepo,
		pdf:           p.PDF,
		mailer:        p.Mailer,
		metrics:       p.Metrics,
	}
}

// Generate renders the receipt for a successful payment exactly once. A
// second call, or a concurrent one, returns the already claimed reference.
func (s *service) Generate(ctx context.Context, paymentID snowflake.ID) (string, error) {
	txn, err := s.repo.FindByID(ctx, s.db, paymentID)
	if err != nil {
		return "", err
	}
	if txn == nil {
		return "", domain.ErrPaymentNotFound
	}
	if txn.Status != domain.StatusSuccess {
		return "", domain.ErrInvalidState
	}
	if txn.ReceiptRef != nil && *txn.ReceiptRef != "" {
		return *txn.ReceiptRef, nil
	}

	candidate, err := s.candidateRepo.FindByID(ctx, s.db, txn.CandidateID)
	if err != nil {
		return "", err
	}

	receiptRef := "RCP-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	now := time.Now().UTC()

	data := pdf.ReceiptData{
		ReceiptRef:  receiptRef,
		Purpose:     string(txn.Purpose),
		Session:     txn.Session,
		Provider:    txn.Provider,
		ProviderRef: txn.ProviderRef,
		Amount:      formatAmount(txn.Currency, txn.Amount),
		PaidAt:      now.Format("02 Jan 2006 15:04 MST"),
		Institution: s.cfg.AppName,
	}
	var recipient string
	if candidate != nil {
		data.RegNumber = candidate.RegNumber
		data.CandidateName = candidate.FirstName + " " + candidate.LastName
		recipient = candidate.Email
	}

	doc, err := s.pdf.GenerateReceipt(ctx, data)
	if err != nil {
		return "", err
	}

	path, err := s.store(receiptRef, doc)
	if err != nil {
		return "", err
	}

	claimed, err := s.repo.ClaimReceipt(ctx, s.db, txn.ID, receiptRef, now)
	if err != nil {
		return "", err
	}
	if !claimed {
		// Another writer claimed the receipt first; drop our artifact.
		os.Remove(path)
		current, err := s.repo.FindByID(ctx, s.db, paymentID)
		if err != nil {
			return "", err
		}
		if current != nil && current.ReceiptRef != nil {
			return *current.ReceiptRef, nil
		}
		return "", domain.ErrInvalidState
	}

	s.metrics.RecordReceipt()

	if recipient != "" {
		go s.notify(recipient, receiptRef, data)
	}

	return receiptRef, nil
}

func (s *service) store(receiptRef string, doc io.Reader) (string, error) {
	if err := os.MkdirAll(s.cfg.ReceiptDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(s.cfg.ReceiptDir, receiptRef+".pdf")
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer out.Close()
	if _, err := io.Copy(out, doc); err != nil {
		return "", err
	}
	return path, nil
}

func (s *service) notify(recipient, receiptRef string, data pdf.ReceiptData) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	body := fmt.Sprintf(
		"<p>Dear %s,</p><p>Your payment of %s for %s (%s session) was received.</p><p>Receipt number: <b>%s</b></p>",
		data.CandidateName, data.Amount, data.Purpose, data.Session, receiptRef,
	)
	if err := s.mailer.Send(ctx, []string{recipient}, "Payment receipt "+receiptRef, body); err != nil {
		s.log.Warn("receipt email", zap.String("receipt_ref", receiptRef), zap.Error(err))
	}
}

func formatAmount(currency string, minor int64) string {
	return fmt.Sprintf("%s %.2f", currency, float64(minor)/100)
}
