package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/admitworks/matricula/internal/payment/domain"
)

// DeriveKey produces the deterministic idempotency key for a candidate,
// purpose and session. Two initiations with the same triple are the same
// logical payment attempt no matter how many times the client retries.
func DeriveKey(candidateID string, purpose domain.Purpose, session string) string {
	sum := sha256.Sum256([]byte(candidateID + "|" + string(purpose) + "|" + session))
	return hex.EncodeToString(sum[:])
}

// MerchantReference derives the gateway-facing reference for an
// idempotency key. Hashing first keeps the reference fixed-width for
// any key the client supplied, including keys shorter than the digest
// prefix.
func MerchantReference(key string) string {
	sum := sha256.Sum256([]byte(key))
	return "MAT-" + strings.ToUpper(hex.EncodeToString(sum[:8]))
}

// RequestHash fingerprints the material fields of an initiation so that a
// replayed key carrying different parameters is detected as a conflict.
// The idempotency key itself is excluded; field order is canonical.
func RequestHash(cmd domain.InitiateCommand) string {
	fields := map[string]string{
		"amount":       fmt.Sprintf("%d", cmd.Amount),
		"candidate_id": cmd.CandidateID.String(),
		"currency":     strings.ToUpper(cmd.Currency),
		"purpose":      strings.ToLower(cmd.Purpose),
		"session":      cmd.Session,
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(fields[k])
		b.WriteByte(';')
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
