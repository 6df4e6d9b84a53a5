package provider

import (
	"strings"

	"github.com/soko-platform/ms-go-settlement/app/types"
)

// NormalizeStatus maps a provider's free-text status onto the four-value
// outcome enum. Matching is deliberately permissive substring matching
// because providers are inconsistent about exact values. Failure and cancel
// tokens are checked before success tokens, and negated success forms
// (UNSUCCESSFUL, NOT_COMPLETED) count as failures, so a failure status can
// never normalize to a false SUCCESS; anything unrecognized stays PENDING.
func NormalizeStatus(raw string) int32 {
	status := strings.ToUpper(strings.TrimSpace(raw))
	if status == "" {
		return int32(types.OutcomePending)
	}

	for _, token := range []string{"CANCEL", "EXPIRE"} {
		if strings.Contains(status, token) {
			return int32(types.OutcomeCancelled)
		}
	}
	for _, token := range []string{"FAIL", "REJECT", "DECLIN", "INSUFFICIENT", "DENIED", "ERROR"} {
		if strings.Contains(status, token) {
			return int32(types.OutcomeFailed)
		}
	}
	for _, token := range []string{"SUCCESS", "SUCCEEDED", "SUCCESSFUL", "COMPLETED", "PAID"} {
		idx := strings.Index(status, token)
		if idx < 0 {
			continue
		}
		if negatedAt(status, idx) {
			return int32(types.OutcomeFailed)
		}
		return int32(types.OutcomeSuccess)
	}

	return int32(types.OutcomePending)
}

// negatedAt reports whether the token match at idx is a negated form such as
// "UNSUCCESSFUL" or "NOT_COMPLETED".
func negatedAt(status string, idx int) bool {
	prefix := strings.TrimRight(status[:idx], "_- ")
	return strings.HasSuffix(prefix, "UN") || strings.HasSuffix(prefix, "NOT")
}
