package brevo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ledovalley/storefront-backend/pkg/config"
	pkgerrors "github.com/ledovalley/storefront-backend/pkg/errors"
)

const (
	sendEmailPath         = "/v3/smtp/email"
	responseBodyReadLimit = 2048
	defaultTimeout        = 15 * time.Second
)

var errAPIKeyRequired = errors.New("brevo api key is required")

// Contact is an email address with an optional display name.
type Contact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// Email is a transactional message payload.
type Email struct {
	Subject     string    `json:"subject"`
	Sender      Contact   `json:"sender"`
	To          []Contact `json:"to"`
	HTMLContent string    `json:"htmlContent"`
}

// Client wraps the Brevo transactional email API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	sender     Contact
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the Brevo client from the configured credentials.
func NewClient(cfg config.BrevoConfig, opts ...Option) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     apiKey,
		sender: Contact{
			Name:  cfg.SenderName,
			Email: cfg.SenderEmail,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Sender returns the configured default sender identity.
func (c *Client) Sender() Contact {
	return c.sender
}

// SendEmail delivers a transactional email. An empty recipient is a no-op
// so callers can pass through customers without an email on file.
func (c *Client) SendEmail(ctx context.Context, email Email) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "brevo client not configured")
	}
	if len(email.To) == 0 || email.To[0].Email == "" {
		return nil
	}
	if email.Sender.Email == "" {
		email.Sender = c.sender
	}

	payload, err := json.Marshal(email)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal email payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+sendEmailPath, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build email request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute email request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "email send failed")
	}
	return nil
}
