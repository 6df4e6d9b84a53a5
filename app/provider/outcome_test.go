package provider

import (
	"testing"

	"github.com/soko-platform/ms-go-settlement/app/types"
)

func TestNormalizeStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want types.Outcome
	}{
		{"SUCCESSFUL", types.OutcomeSuccess},
		{"succeeded", types.OutcomeSuccess},
		{"payment.completed", types.OutcomeSuccess},
		{"PAID", types.OutcomeSuccess},
		{"FAILED", types.OutcomeFailed},
		{"PAYER_REJECTED", types.OutcomeFailed},
		{"card_declined", types.OutcomeFailed},
		{"NOT_ENOUGH_FUNDS insufficient", types.OutcomeFailed},
		{"UNSUCCESSFUL", types.OutcomeFailed},
		{"PAYMENT_UNSUCCESSFUL", types.OutcomeFailed},
		{"NOT_COMPLETED", types.OutcomeFailed},
		{"NOT PAID", types.OutcomeFailed},
		{"UNPAID", types.OutcomeFailed},
		{"CANCELLED", types.OutcomeCancelled},
		{"checkout.session.expired", types.OutcomeCancelled},
		{"PENDING", types.OutcomePending},
		{"INITIATED", types.OutcomePending},
		{"", types.OutcomePending},
		{"SOMETHING_NEW", types.OutcomePending},
	}

	for _, tc := range cases {
		if got := NormalizeStatus(tc.raw); got != int32(tc.want) {
			t.Errorf("NormalizeStatus(%q) = %d, want %d", tc.raw, got, tc.want)
		}
	}
}
