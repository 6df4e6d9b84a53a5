package types

import (
	"testing"
)

func TestValidPhone(t *testing.T) {
	cases := []struct {
		phone string
		want  bool
	}{
		{"+237670000001", true},
		{"237670000001", true},
		{"67000001", true},
		{"+3361234567890123", false},
		{"1234567", false},
		{"+2376700a0001", false},
		{"", false},
		{"+", false},
	}

	for _, tc := range cases {
		if got := ValidPhone(tc.phone); got != tc.want {
			t.Errorf("ValidPhone(%q) = %v, want %v", tc.phone, got, tc.want)
		}
	}
}

func TestInitiatePaymentRequestValidate(t *testing.T) {
	valid := InitiatePaymentRequest{
		Provider:     "MTN",
		ProductType:  "CREDIT_PACK",
		ProductRefID: "PACK_S",
		Country:      "CM",
		Phone:        "+237670000001",
	}

	if err := valid.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	noPhone := valid
	noPhone.Phone = ""
	if err := noPhone.Validate(); err != ErrInvalidPhone {
		t.Fatalf("mobile money without phone: got %v, want ErrInvalidPhone", err)
	}

	stripeNoPhone := valid
	stripeNoPhone.Provider = "STRIPE"
	stripeNoPhone.Phone = ""
	if err := stripeNoPhone.Validate(); err != nil {
		t.Fatalf("stripe without phone rejected: %v", err)
	}

	badProvider := valid
	badProvider.Provider = "PAYPAL"
	if err := badProvider.Validate(); err == nil {
		t.Fatal("unknown provider accepted")
	}

	badProduct := valid
	badProduct.ProductType = "GIFT_CARD"
	if err := badProduct.Validate(); err == nil {
		t.Fatal("unknown product type accepted")
	}

	badCountry := valid
	badCountry.Country = "CMR"
	if err := badCountry.Validate(); err == nil {
		t.Fatal("3-letter country accepted")
	}

	noRef := valid
	noRef.ProductRefID = ""
	if err := noRef.Validate(); err == nil {
		t.Fatal("empty product ref accepted")
	}
}

func TestSpendCreditsRequestValidate(t *testing.T) {
	valid := SpendCreditsRequest{Amount: 5, Reason: "AD_PUBLISH"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	zero := SpendCreditsRequest{Amount: 0, Reason: "AD_PUBLISH"}
	if err := zero.Validate(); err == nil {
		t.Fatal("zero amount accepted")
	}

	adminReason := SpendCreditsRequest{Amount: 5, Reason: "ADMIN_ADJUST"}
	if err := adminReason.Validate(); err == nil {
		t.Fatal("admin reason accepted on spend endpoint")
	}
}

func TestAdminListIntentsRequestValidate(t *testing.T) {
	if err := (&AdminListIntentsRequest{Limit: 100}).Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
	if err := (&AdminListIntentsRequest{Limit: 0}).Validate(); err == nil {
		t.Fatal("zero limit accepted")
	}
	if err := (&AdminListIntentsRequest{Limit: 501}).Validate(); err == nil {
		t.Fatal("oversized limit accepted")
	}
	if err := (&AdminListIntentsRequest{Limit: 10, Offset: -1}).Validate(); err == nil {
		t.Fatal("negative offset accepted")
	}
}

func TestParseStatusParam(t *testing.T) {
	status, err := parseStatusParam("success")
	if err != nil || status != StatusSuccess {
		t.Fatalf("parseStatusParam(success) = %v, %v", status, err)
	}
	if _, err := parseStatusParam("DONE"); err == nil {
		t.Fatal("unknown status accepted")
	}
}
