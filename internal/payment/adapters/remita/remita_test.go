package remita

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/admitworks/matricula/internal/payment/domain"
)

func TestInitiateReturnsRRR(t *testing.T) {
	var gotAuth, gotIdem string
	var gotBody invoiceRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotIdem = r.Header.Get("Idempotency-Key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"statuscode": "025",
			"status":     "Payment Reference Generated",
			"RRR":        "290019681818",
			"paymentUrl": "https://remitademo.net/pay/290019681818",
		})
	}))
	defer server.Close()

	adapter := New("rmt_key", "whsec", server.URL)
	result, err := adapter.Initiate(context.Background(), domain.InitiateRequest{
		Reference:        "MAT-ABC",
		Amount:           2500000,
		Currency:         "ngn",
		Email:            "amara.okafor@example.com",
		Purpose:          domain.PurposeAcceptanceFee,
		Session:          "2026/2027",
		IdempotencyToken: "idem-token-9",
	})
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	if gotAuth != "Bearer rmt_key" {
		t.Fatalf("authorization header = %q", gotAuth)
	}
	if gotIdem != "idem-token-9" {
		t.Fatalf("idempotency header = %q", gotIdem)
	}
	if gotBody.Currency != "NGN" {
		t.Fatalf("currency not uppercased: %q", gotBody.Currency)
	}
	if result.ProviderRef != "290019681818" {
		t.Fatalf("provider ref = %q", result.ProviderRef)
	}
	if result.PaymentURL != "https://remitademo.net/pay/290019681818" {
		t.Fatalf("payment url = %q", result.PaymentURL)
	}
}

func TestInitiateMissingRRR(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"statuscode": "400",
			"status":     "Invalid merchant credentials",
		})
	}))
	defer server.Close()

	adapter := New("rmt_bad", "", server.URL)
	_, err := adapter.Initiate(context.Background(), domain.InitiateRequest{
		Reference: "MAT-ABC",
		Amount:    2500000,
		Currency:  "NGN",
		Email:     "x@example.com",
	})
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected provider unavailable, got %v", err)
	}
}

func TestVerifyMapsGatewayStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/invoice/status/290019681818" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "00",
			"message": "Transaction Successful",
		})
	}))
	defer server.Close()

	adapter := New("rmt_key", "", server.URL)
	result, err := adapter.Verify(context.Background(), "290019681818")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.Status != domain.StatusSuccess {
		t.Fatalf("status = %s", result.Status)
	}
}

func TestProcessWebhook(t *testing.T) {
	adapter := New("rmt_key", "whsec", "")

	payload := []byte(`{"rrr":"290019681818","orderRef":"MAT-ABC","status":"paid","amount":2500000,"transactionId":"TX-551"}`)
	result, err := adapter.ProcessWebhook(payload)
	if err != nil {
		t.Fatalf("process webhook: %v", err)
	}
	if result.Status != domain.StatusSuccess {
		t.Fatalf("status = %s", result.Status)
	}
	if result.ProviderRef != "290019681818" {
		t.Fatalf("provider ref = %s", result.ProviderRef)
	}
	if result.ProviderEventID != "remita:TX-551" {
		t.Fatalf("provider event id = %s", result.ProviderEventID)
	}

	if _, err := adapter.ProcessWebhook([]byte(`{"status":"paid"}`)); !errors.Is(err, domain.ErrInvalidPayload) {
		t.Fatalf("expected invalid payload for missing rrr, got %v", err)
	}
	if _, err := adapter.ProcessWebhook([]byte(`not json`)); !errors.Is(err, domain.ErrInvalidPayload) {
		t.Fatalf("expected invalid payload, got %v", err)
	}
}

func TestVerifySignature(t *testing.T) {
	adapter := New("rmt_key", "whsec", "")
	payload := []byte(`{"rrr":"290019681818","status":"paid"}`)

	mac := hmac.New(sha512.New, []byte("whsec"))
	mac.Write(payload)
	headers := http.Header{}
	headers.Set("X-Remita-Signature", hex.EncodeToString(mac.Sum(nil)))

	if err := adapter.VerifySignature(payload, headers); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}

	headers.Set("X-Remita-Signature", "deadbeef")
	if err := adapter.VerifySignature(payload, headers); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}

	if err := adapter.VerifySignature(payload, http.Header{}); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected invalid signature for missing header, got %v", err)
	}
}
