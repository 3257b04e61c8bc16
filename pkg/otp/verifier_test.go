package otp

import (
	"testing"

	"github.com/ledovalley/storefront-backend/pkg/config"
)

func testTwilioConfig(sid, token, verifySID string) config.TwilioConfig {
	return config.TwilioConfig{AccountSID: sid, AuthToken: token, VerifySID: verifySID}
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"9876543210", "+919876543210"},
		{"+919876543210", "+919876543210"},
		{"+14155550100", "+14155550100"},
		{"  9876543210 ", "+919876543210"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizePhone(tc.in); got != tc.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNewVerifierRequiresCredentials(t *testing.T) {
	if _, err := NewVerifier(testTwilioConfig("", "tok", "vs")); err == nil {
		t.Fatal("expected error for missing account sid")
	}
	if _, err := NewVerifier(testTwilioConfig("sid", "", "vs")); err == nil {
		t.Fatal("expected error for missing auth token")
	}
	if _, err := NewVerifier(testTwilioConfig("sid", "tok", "")); err == nil {
		t.Fatal("expected error for missing verify sid")
	}
	if _, err := NewVerifier(testTwilioConfig("sid", "tok", "vs")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
