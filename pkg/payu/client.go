package payu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledovalley/storefront-backend/pkg/config"
	pkgerrors "github.com/ledovalley/storefront-backend/pkg/errors"
)

const (
	refundCommand             = "cancel_refund_transaction"
	postServicePath           = "/merchant/postservice"
	responseBodyReadLimit     = 4096
	defaultTimeout            = 15 * time.Second
	refundSucceededStatusCode = "1"
)

var (
	errKeyRequired  = errors.New("payu merchant key is required")
	errSaltRequired = errors.New("payu merchant salt is required")
)

// Client wraps the PayU merchant APIs and checksum helpers.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	key         string
	salt        string
	productInfo string
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

// NewClient builds the PayU client from merchant credentials.
func NewClient(cfg config.PayUConfig, opts ...Option) (*Client, error) {
	key := strings.TrimSpace(cfg.Key)
	if key == "" {
		return nil, errKeyRequired
	}
	salt := strings.TrimSpace(cfg.Salt)
	if salt == "" {
		return nil, errSaltRequired
	}

	client := &Client{
		httpClient:  &http.Client{Timeout: defaultTimeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		key:         key,
		salt:        salt,
		productInfo: cfg.ProductInfo,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// ProductInfo returns the fixed product descriptor used in checksums.
func (c *Client) ProductInfo() string {
	return c.productInfo
}

// PaymentRequest carries every field the frontend posts to the hosted
// payment page, including the forward checksum.
type PaymentRequest struct {
	Key         string `json:"key"`
	TxnID       string `json:"txnid"`
	Amount      string `json:"amount"`
	ProductInfo string `json:"productinfo"`
	Firstname   string `json:"firstname"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	SuccessURL  string `json:"surl"`
	FailureURL  string `json:"furl"`
	Hash        string `json:"hash"`
}

// BuildPaymentRequest assembles and signs the hosted-form payload.
func (c *Client) BuildPaymentRequest(txnID string, amount decimal.Decimal, firstname, email, phone, successURL, failureURL string) PaymentRequest {
	amt := amount.StringFixed(2)
	return PaymentRequest{
		Key:         c.key,
		TxnID:       txnID,
		Amount:      amt,
		ProductInfo: c.productInfo,
		Firstname:   firstname,
		Email:       email,
		Phone:       phone,
		SuccessURL:  successURL,
		FailureURL:  failureURL,
		Hash:        ForwardHash(c.key, txnID, amt, c.productInfo, firstname, email, c.salt),
	}
}

// ReturnPayload is the subset of the gateway's redirect parameters needed
// to authenticate and apply a payment result.
type ReturnPayload struct {
	TxnID     string
	PaymentID string
	Status    string
	Hash      string
	Email     string
	Firstname string
	Amount    string
	Mode      string
	ErrorMsg  string
}

// VerifyReturn recomputes the return checksum and compares it against the
// one the gateway sent. A mismatch means the payload cannot be trusted.
func (c *Client) VerifyReturn(p ReturnPayload) error {
	if p.TxnID == "" || p.Hash == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment payload")
	}
	expected := ReturnHash(c.key, p.TxnID, p.Amount, c.productInfo, p.Firstname, p.Email, p.Status, c.salt)
	if !HashEqual(expected, strings.ToLower(strings.TrimSpace(p.Hash))) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid payment signature")
	}
	return nil
}

// RefundResult is the normalized refund response.
type RefundResult struct {
	Succeeded bool
	RequestID string
	Message   string
}

type refundResponse struct {
	Status    json.Number `json:"status"`
	Message   string      `json:"msg"`
	RequestID json.Number `json:"request_id"`
}

// Refund issues a cancel/refund request for a captured payment. The
// gateway reports success with status "1"; anything else is a failure.
func (c *Client) Refund(ctx context.Context, paymentID string, amount decimal.Decimal, refundRef string) (*RefundResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payu client not configured")
	}
	if strings.TrimSpace(paymentID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway payment id is required")
	}

	form := url.Values{}
	form.Set("key", c.key)
	form.Set("command", refundCommand)
	form.Set("var1", paymentID)
	form.Set("var2", amount.StringFixed(2))
	form.Set("var3", refundRef)
	form.Set("hash", refundHash(c.key, refundCommand, paymentID, c.salt))

	endpoint := c.baseURL + postServicePath + "?form=2"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build refund request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute refund request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "refund request failed")
	}

	var decoded refundResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, responseBodyReadLimit)).Decode(&decoded); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode refund response")
	}

	return &RefundResult{
		Succeeded: decoded.Status.String() == refundSucceededStatusCode,
		RequestID: decoded.RequestID.String(),
		Message:   decoded.Message,
	}, nil
}
