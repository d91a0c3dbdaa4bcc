package domain

import "errors"

var (
	ErrIdempotencyConflict   = errors.New("idempotency_conflict")
	ErrProviderUnavailable   = errors.New("provider_unavailable")
	ErrUnknownProvider       = errors.New("unknown_provider")
	ErrUnsupportedPurpose    = errors.New("unsupported_purpose")
	ErrAmountMismatch        = errors.New("amount_mismatch")
	ErrCurrencyMismatch      = errors.New("currency_mismatch")
	ErrInvalidSignature      = errors.New("invalid_signature")
	ErrPaymentNotFound       = errors.New("payment_not_found")
	ErrInvalidState          = errors.New("invalid_state")
	ErrInvalidRequest        = errors.New("invalid_request")
	ErrInvalidPayload        = errors.New("invalid_payload")
	ErrInvalidTransition     = errors.New("invalid_transition")
	ErrEventIgnored          = errors.New("event_ignored")
	ErrEventAlreadyProcessed = errors.New("event_already_processed")
)
