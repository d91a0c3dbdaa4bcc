package flutterwave

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/admitworks/matricula/internal/payment/domain"
)

const providerName = "flutterwave"

type Adapter struct {
	secretKey string
	verifHash string
	baseURL   string
	client    *http.Client
}

func New(secretKey, verifHash, baseURL string) *Adapter {
	return &Adapter{
		secretKey: strings.TrimSpace(secretKey),
		verifHash: strings.TrimSpace(verifHash),
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: 12 * time.Second},
	}
}

func (a *Adapter) Name() string { return providerName }

type paymentRequest struct {
	TxRef    string         `json:"tx_ref"`
	Amount   string         `json:"amount"`
	Currency string         `json:"currency"`
	Customer map[string]any `json:"customer"`
	Meta     map[string]any `json:"meta,omitempty"`
}

type paymentResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Link string `json:"link"`
	} `json:"data"`
}

func (a *Adapter) Initiate(ctx context.Context, req domain.InitiateRequest) (*domain.InitiateResult, error) {
	if a.secretKey == "" {
		return nil, domain.ErrProviderUnavailable
	}

	// Flutterwave amounts are in major units.
	major := float64(req.Amount) / 100
	body, err := json.Marshal(paymentRequest{
		TxRef:    req.Reference,
		Amount:   strconv.FormatFloat(major, 'f', 2, 64),
		Currency: strings.ToUpper(req.Currency),
		Customer: map[string]any{
			"email":       req.Email,
			"phonenumber": req.Phone,
		},
		Meta: map[string]any{
			"candidate_id": req.CandidateID,
			"purpose":      string(req.Purpose),
			"session":      req.Session,
		},
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.secretKey)
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
	var decoded paymentResponse
	if err := json.NewDecoder(io.TeeReader(resp.Body, raw)).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decode payments response", domain.ErrProviderUnavailable)
	}
	if resp.StatusCode >= http.StatusBadRequest || decoded.Status != "success" {
		message := strings.TrimSpace(decoded.Message)
		if message == "" {
			message = "payment_create_failed"
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrProviderUnavailable, message)
	}

	return &domain.InitiateResult{
		// Flutterwave keys the attempt by the merchant tx_ref.
		ProviderRef: req.Reference,
		PaymentURL:  decoded.Data.Link,
		RawPayload:  raw.Bytes(),
	}, nil
}

type verifyResponse struct {
	Status string `json:"status"`
	Data   struct {
		Status   string `json:"status"`
		TxRef    string `json:"tx_ref"`
		FlwRef   string `json:"flw_ref"`
		Amount   float64 `json:"amount"`
		Currency string `json:"currency"`
	} `json:"data"`
}

func (a *Adapter) Verify(ctx context.Context, providerRef string) (*domain.VerifyResult, error) {
	if a.secretKey == "" {
		return nil, domain.ErrProviderUnavailable
	}

	endpoint := a.baseURL + "/transactions/verify_by_reference?tx_ref=" + providerRef
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.secretKey)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	raw := new(bytes.Buffer)
	var decoded verifyResponse
	if err := json.NewDecoder(io.TeeReader(resp.Body, raw)).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decode verify response", domain.ErrProviderUnavailable)
	}
	if resp.StatusCode >= http.StatusBadRequest || decoded.Status != "success" {
		return nil, fmt.Errorf("%w: verify_failed", domain.ErrProviderUnavailable)
	}

	return &domain.VerifyResult{
		Status:       mapStatus(decoded.Data.Status),
		ProviderData: raw.Bytes(),
	}, nil
}

type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		ID       int64   `json:"id"`
		TxRef    string  `json:"tx_ref"`
		FlwRef   string  `json:"flw_ref"`
		Status   string  `json:"status"`
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
	} `json:"data"`
}

func (a *Adapter) ProcessWebhook(payload []byte) (*domain.WebhookResult, error) {
	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	if strings.TrimSpace(event.Data.TxRef) == "" {
		return nil, domain.ErrInvalidPayload
	}

	switch strings.TrimSpace(event.Event) {
	case "charge.completed", "transfer.completed":
	default:
		return nil, domain.ErrEventIgnored
	}

	providerEventID := ""
	if event.Data.ID != 0 {
		providerEventID = fmt.Sprintf("%s:%d", providerName, event.Data.ID)
	}

	return &domain.WebhookResult{
		ProviderEventID: providerEventID,
		ProviderRef:     event.Data.TxRef,
		Status:          mapStatus(event.Data.Status),
		ProviderData:    payload,
	}, nil
}

// VerifySignature checks the verif-hash header against the configured
// secret hash using a constant-time comparison.
func (a *Adapter) VerifySignature(payload []byte, headers http.Header) error {
	_ = payload
	signature := strings.TrimSpace(headers.Get("verif-hash"))
	if signature == "" || a.verifHash == "" {
		return domain.ErrInvalidSignature
	}
	if subtle.ConstantTimeCompare([]byte(signature), []byte(a.verifHash)) != 1 {
		return domain.ErrInvalidSignature
	}
	return nil
}

func mapStatus(raw string) domain.Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "successful", "success":
		return domain.StatusSuccess
	case "failed":
		return domain.StatusFailed
	case "cancelled", "expired":
		return domain.StatusExpired
	default:
		return domain.StatusPending
	}
}
