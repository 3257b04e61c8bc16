package payu

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ledovalley/storefront-backend/pkg/config"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func testConfig() config.PayUConfig {
	return config.PayUConfig{
		Key:         "merchant-key",
		Salt:        "merchant-salt",
		BaseURL:     "http://payu.test",
		ProductInfo: "Ledo Valley Order",
	}
}

func manualSHA512(s string) string {
	sum := sha512.Sum512([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestForwardHashFormat(t *testing.T) {
	got := ForwardHash("k", "LV123", "1274.40", "Ledo Valley Order", "Asha", "asha@example.com", "s")
	want := manualSHA512("k|LV123|1274.40|Ledo Valley Order|Asha|asha@example.com|||||||||||s")
	if got != want {
		t.Fatalf("forward hash mismatch\n got %s\nwant %s", got, want)
	}
}

func TestReturnHashFormat(t *testing.T) {
	got := ReturnHash("k", "LV123", "1274.40", "Ledo Valley Order", "Asha", "asha@example.com", "success", "s")
	want := manualSHA512("s|success|||||||||||asha@example.com|Asha|Ledo Valley Order|1274.40|LV123|k")
	if got != want {
		t.Fatalf("return hash mismatch\n got %s\nwant %s", got, want)
	}
}

func TestBuildAndVerifyRoundTrip(t *testing.T) {
	client, err := NewClient(testConfig())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	req := client.BuildPaymentRequest("LV1700000000000123", decimal.RequireFromString("1274.4"),
		"Asha", "asha@example.com", "9876543210", "http://base/api/payment/success", "http://base/api/payment/failure")

	if req.Amount != "1274.40" {
		t.Fatalf("expected two-decimal amount, got %q", req.Amount)
	}
	if req.ProductInfo != "Ledo Valley Order" {
		t.Fatalf("unexpected productinfo %q", req.ProductInfo)
	}

	// Simulate the gateway echoing the transaction back on success.
	ret := ReturnPayload{
		TxnID:     req.TxnID,
		Status:    "success",
		Email:     req.Email,
		Firstname: req.Firstname,
		Amount:    req.Amount,
		Hash:      ReturnHash("merchant-key", req.TxnID, req.Amount, "Ledo Valley Order", req.Firstname, req.Email, "success", "merchant-salt"),
	}
	if err := client.VerifyReturn(ret); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}

	ret.Amount = "0.01"
	if err := client.VerifyReturn(ret); err == nil {
		t.Fatal("expected tampered payload to fail verification")
	}
}

func TestVerifyReturnRejectsMissingFields(t *testing.T) {
	client, err := NewClient(testConfig())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := client.VerifyReturn(ReturnPayload{Status: "success"}); err == nil {
		t.Fatal("expected error for missing txnid/hash")
	}
}

func TestRefundRequestAndResponse(t *testing.T) {
	var capturedForm map[string][]string
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.String() != "http://payu.test/merchant/postservice?form=2" {
			t.Fatalf("unexpected URL %s", req.URL)
		}
		if err := req.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		capturedForm = req.PostForm
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"status":1,"msg":"Refund Request Queued","request_id":991}`)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient(testConfig(), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	result, err := client.Refund(context.Background(), "pay_555", decimal.NewFromInt(1274), "REF1700000000000")
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if !result.Succeeded {
		t.Fatal("expected refund success")
	}
	if result.RequestID != "991" {
		t.Fatalf("unexpected request id %q", result.RequestID)
	}

	if got := capturedForm["command"][0]; got != "cancel_refund_transaction" {
		t.Fatalf("unexpected command %q", got)
	}
	if got := capturedForm["var1"][0]; got != "pay_555" {
		t.Fatalf("unexpected var1 %q", got)
	}
	if got := capturedForm["var2"][0]; got != "1274.00" {
		t.Fatalf("unexpected var2 %q", got)
	}
	wantHash := manualSHA512("merchant-key|cancel_refund_transaction|pay_555|merchant-salt")
	if got := capturedForm["hash"][0]; got != wantHash {
		t.Fatalf("unexpected refund hash %q", got)
	}
}

func TestRefundFailureStatus(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"status":0,"msg":"Invalid payment id"}`)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient(testConfig(), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	result, err := client.Refund(context.Background(), "pay_bad", decimal.NewFromInt(10), "REF1")
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if result.Succeeded {
		t.Fatal("expected refund failure")
	}
	if result.Message != "Invalid payment id" {
		t.Fatalf("unexpected message %q", result.Message)
	}
}
