package remita

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/admitworks/matricula/internal/payment/domain"
)

const providerName = "remita"

type Adapter struct {
	apiKey        string
	webhookSecret string
	baseURL       string
	client        *http.Client
}

func New(apiKey, webhookSecret, baseURL string) *Adapter {
	return &Adapter{
		apiKey:        strings.TrimSpace(apiKey),
		webhookSecret: strings.TrimSpace(webhookSecret),
		baseURL:       strings.TrimRight(baseURL, "/"),
		client:        &http.Client{Timeout: 12 * time.Second},
	}
}

func (a *Adapter) Name() string { return providerName }

type invoiceRequest struct {
	OrderID     string `json:"orderId"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	PayerEmail  string `json:"payerEmail"`
	PayerPhone  string `json:"payerPhone"`
	Description string `json:"description"`
}

type invoiceResponse struct {
	StatusCode string `json:"statuscode"`
	Status     string `json:"status"`
	RRR        string `json:"RRR"`
	PaymentURL string `json:"paymentUrl"`
}

func (a *Adapter) Initiate(ctx context.Context, req domain.InitiateRequest) (*domain.InitiateResult, error) {
	if a.apiKey == "" {
		return nil, domain.ErrProviderUnavailable
	}

	body, err := json.Marshal(invoiceRequest{
		OrderID:     req.Reference,
		Amount:      req.Amount,
		Currency:    strings.ToUpper(req.Currency),
		PayerEmail:  req.Email,
		PayerPhone:  req.Phone,
		Description: fmt.Sprintf("%s %s", req.Purpose, req.Session),
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/invoice/create", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	if req.IdempotencyToken != "" {
		httpReq.Header.Set("Idempotency-Key", req.IdempotencyToken)
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	raw := new(bytes.Buffer)
	var decoded invoiceResponse
	if err := json.NewDecoder(io.TeeReader(resp.Body, raw)).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decode invoice response", domain.ErrProviderUnavailable)
	}
	if resp.StatusCode >= http.StatusBadRequest || decoded.RRR == "" {
		return nil, fmt.Errorf("%w: invoice_create_failed", domain.ErrProviderUnavailable)
	}

	return &domain.InitiateResult{
		ProviderRef: decoded.RRR,
		PaymentURL:  decoded.PaymentURL,
		RawPayload:  raw.Bytes(),
	}, nil
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (a *Adapter) Verify(ctx context.Context, providerRef string) (*domain.VerifyResult, error) {
	if a.apiKey == "" {
		return nil, domain.ErrProviderUnavailable
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/invoice/status/"+providerRef, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	raw := new(bytes.Buffer)
	var decoded statusResponse
	if err := json.NewDecoder(io.TeeReader(resp.Body, raw)).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decode status response", domain.ErrProviderUnavailable)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: status_check_failed", domain.ErrProviderUnavailable)
	}

	return &domain.VerifyResult{
		Status:       mapStatus(decoded.Status),
		ProviderData: raw.Bytes(),
	}, nil
}

type notification struct {
	RRR       string `json:"rrr"`
	OrderRef  string `json:"orderRef"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
	PaymentID string `json:"transactionId"`
}

func (a *Adapter) ProcessWebhook(payload []byte) (*domain.WebhookResult, error) {
	var event notification
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	if strings.TrimSpace(event.RRR) == "" {
		return nil, domain.ErrInvalidPayload
	}

	providerEventID := ""
	if strings.TrimSpace(event.PaymentID) != "" {
		providerEventID = providerName + ":" + strings.TrimSpace(event.PaymentID)
	}

	return &domain.WebhookResult{
		ProviderEventID: providerEventID,
		ProviderRef:     event.RRR,
		Status:          mapStatus(event.Status),
		ProviderData:    payload,
	}, nil
}

// VerifySignature checks the X-Remita-Signature header, an HMAC-SHA512 hex
// digest of the raw body keyed with the merchant webhook secret.
func (a *Adapter) VerifySignature(payload []byte, headers http.Header) error {
	signature := strings.TrimSpace(headers.Get("X-Remita-Signature"))
	if signature == "" || a.webhookSecret == "" {
		return domain.ErrInvalidSignature
	}

	mac := hmac.New(sha512.New, []byte(a.webhookSecret))
	_, _ = mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(strings.ToLower(signature)), []byte(expected)) {
		return domain.ErrInvalidSignature
	}
	return nil
}

func mapStatus(raw string) domain.Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "00", "paid", "success", "successful":
		return domain.StatusSuccess
	case "failed", "rejected":
		return domain.StatusFailed
	case "expired":
		return domain.StatusExpired
	default:
		return domain.StatusPending
	}
}
