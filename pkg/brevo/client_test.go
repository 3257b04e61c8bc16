package brevo

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/ledovalley/storefront-backend/pkg/config"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func testConfig() config.BrevoConfig {
	return config.BrevoConfig{
		APIKey:      "brevo-key",
		BaseURL:     "http://brevo.test",
		SenderName:  "Ledo Valley",
		SenderEmail: "orders@ledovalley.example",
	}
}

func TestSendEmailRequest(t *testing.T) {
	var captured Email
	var capturedKey string

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.String() != "http://brevo.test/v3/smtp/email" {
			t.Fatalf("unexpected URL %s", req.URL)
		}
		capturedKey = req.Header.Get("api-key")
		if err := json.NewDecoder(req.Body).Decode(&captured); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return &http.Response{
			StatusCode: http.StatusCreated,
			Body:       io.NopCloser(strings.NewReader(`{"messageId":"<abc@smtp-relay>"}`)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient(testConfig(), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	err = client.SendEmail(context.Background(), Email{
		Subject:     "Order Confirmed - LV123",
		To:          []Contact{{Email: "asha@example.com"}},
		HTMLContent: "<p>thanks</p>",
	})
	if err != nil {
		t.Fatalf("send email: %v", err)
	}

	if capturedKey != "brevo-key" {
		t.Fatalf("api key header missing, got %q", capturedKey)
	}
	if captured.Sender.Email != "orders@ledovalley.example" {
		t.Fatalf("expected default sender applied, got %+v", captured.Sender)
	}
	if captured.To[0].Email != "asha@example.com" {
		t.Fatalf("unexpected recipient %+v", captured.To)
	}
}

func TestSendEmailSkipsEmptyRecipient(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request expected for empty recipient")
		return nil, nil
	})

	client, err := NewClient(testConfig(), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := client.SendEmail(context.Background(), Email{Subject: "x"}); err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}
}

func TestSendEmailSurfacesAPIErrors(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusBadRequest,
			Body:       io.NopCloser(strings.NewReader(`{"code":"invalid_parameter"}`)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient(testConfig(), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	err = client.SendEmail(context.Background(), Email{
		To: []Contact{{Email: "asha@example.com"}},
	})
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
}
