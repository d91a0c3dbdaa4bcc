package paystack

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

const providerName = "paystack"

type Adapter struct {
	secretKey     string
	webhookSecret string
	baseURL       string
	client        *http.Client
}

func New(secretKey, webhookSecret, baseURL string) *Adapter {
	webhookSecret = strings.TrimSpace(webhookSecret)
	if webhookSecret == "" {
		// Paystack signs callbacks with the account secret key.
		webhookSecret = strings.TrimSpace(secretKey)
	}
	return &Adapter{
		secretKey:     strings.TrimSpace(secretKey),
		webhookSecret: webhookSecret,
		baseURL:       strings.TrimRight(baseURL, "/"),
		client:        &http.Client{Timeout: 12 * time.Second},
	}
}

func (a *Adapter) Name() string { return providerName }

type initializeRequest struct {
	Email     string         `json:"email"`
	Amount    int64          `json:"amount"`
	Currency  string         `json:"currency"`
	Reference string         `json:"reference"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type initializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

func (a *Adapter) Initiate(ctx context.Context, req domain.InitiateRequest) (*domain.InitiateResult, error) {
	if a.secretKey == "" {
		return nil, domain.ErrProviderUnavailable
	}

	body, err := json.Marshal(initializeRequest{
		Email:     req.Email,
		Amount:    req.Amount,
		Currency:  strings.ToUpper(req.Currency),
		Reference: req.Reference,
		Metadata: map[string]any{
			"candidate_id": req.CandidateID,
			"purpose":      string(req.Purpose),
			"session":      req.Session,
		},
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/transaction/initialize", bytes.NewReader(body))
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

	var decoded initializeResponse
	raw := new(bytes.Buffer)
	if err := json.NewDecoder(io.TeeReader(resp.Body, raw)).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decode initialize response", domain.ErrProviderUnavailable)
	}
	if resp.StatusCode >= http.StatusBadRequest || !decoded.Status {
		message := strings.TrimSpace(decoded.Message)
		if message == "" {
			message = "initialize_failed"
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrProviderUnavailable, message)
	}
	if decoded.Data.Reference == "" {
		return nil, fmt.Errorf("%w: missing reference", domain.ErrProviderUnavailable)
	}

	return &domain.InitiateResult{
		ProviderRef: decoded.Data.Reference,
		PaymentURL:  decoded.Data.AuthorizationURL,
		Metadata:    map[string]any{"access_code": decoded.Data.AccessCode},
		RawPayload:  raw.Bytes(),
	}, nil
}

type verifyResponse struct {
	Status bool `json:"status"`
	Data   struct {
		Status    string `json:"status"`
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		Currency  string `json:"currency"`
	} `json:"data"`
}

func (a *Adapter) Verify(ctx context.Context, providerRef string) (*domain.VerifyResult, error) {
	if a.secretKey == "" {
		return nil, domain.ErrProviderUnavailable
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/transaction/verify/"+providerRef, nil)
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
	if resp.StatusCode >= http.StatusBadRequest || !decoded.Status {
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
		ID        int64  `json:"id"`
		Status    string `json:"status"`
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		Currency  string `json:"currency"`
	} `json:"data"`
}

func (a *Adapter) ProcessWebhook(payload []byte) (*domain.WebhookResult, error) {
	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	if strings.TrimSpace(event.Data.Reference) == "" {
		return nil, domain.ErrInvalidPayload
	}

	var status domain.Status
	switch strings.TrimSpace(event.Event) {
	case "charge.success":
		status = domain.StatusSuccess
	case "charge.failed":
		status = domain.StatusFailed
	case "refund.processed":
		status = domain.StatusRefunded
	case "paymentrequest.pending":
		status = domain.StatusPending
	default:
		return nil, domain.ErrEventIgnored
	}

	providerEventID := ""
	if event.Data.ID != 0 {
		providerEventID = fmt.Sprintf("%s:%s:%d", providerName, event.Event, event.Data.ID)
	}

	return &domain.WebhookResult{
		ProviderEventID: providerEventID,
		ProviderRef:     event.Data.Reference,
		Status:          status,
		ProviderData:    payload,
	}, nil
}

// VerifySignature checks the X-Paystack-Signature header, an HMAC-SHA512
// hex digest of the raw body keyed with the webhook secret.
func (a *Adapter) VerifySignature(payload []byte, headers http.Header) error {
	signature := strings.TrimSpace(headers.Get("X-Paystack-Signature"))
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
	case "success":
		return domain.StatusSuccess
	case "failed":
		return domain.StatusFailed
	case "abandoned":
		return domain.StatusExpired
	case "reversed":
		return domain.StatusRefunded
	default:
		return domain.StatusPending
	}
}
