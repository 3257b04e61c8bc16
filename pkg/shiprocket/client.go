package shiprocket

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/ledovalley/storefront-backend/pkg/config"
	pkgerrors "github.com/ledovalley/storefront-backend/pkg/errors"
	"github.com/ledovalley/storefront-backend/pkg/logger"
	"github.com/ledovalley/storefront-backend/pkg/redis"
)

const (
	carrierName = "shiprocket"

	loginPath       = "/v1/external/auth/login"
	createOrderPath = "/v1/external/orders/create/adhoc"
	assignAWBPath   = "/v1/external/courier/assign/awb"
	pickupPath      = "/v1/external/courier/generate/pickup"

	responseBodyReadLimit = 8192
	defaultTimeout        = 20 * time.Second
)

var (
	errCredentialsRequired = errors.New("shiprocket credentials are required")

	// The carrier rejects a second AWB request with a free-text error that
	// embeds the existing waybill number.
	alreadyAssignedAWBPattern = regexp.MustCompile(`(?i)awb - (\d+)`)
)

// TokenCache stores the short-lived carrier auth token between calls.
type TokenCache interface {
	GetCarrierToken(ctx context.Context, carrier string) (string, error)
	StoreCarrierToken(ctx context.Context, carrier, token string, ttl time.Duration) error
	DropCarrierToken(ctx context.Context, carrier string) error
}

// Client wraps the Shiprocket external API used for order fulfillment.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	email          string
	password       string
	pickupLocation string
	tokenTTL       time.Duration
	tokenRefresh   time.Duration
	cache          TokenCache
	logger         *logger.Logger
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

// NewClient builds the Shiprocket client. The cache is required so that
// auth tokens survive process restarts and are shared across replicas.
func NewClient(cfg config.ShiprocketConfig, cache TokenCache, logg *logger.Logger, opts ...Option) (*Client, error) {
	email := strings.TrimSpace(cfg.Email)
	password := strings.TrimSpace(cfg.Password)
	if email == "" || password == "" {
		return nil, errCredentialsRequired
	}
	if cache == nil {
		return nil, errors.New("shiprocket token cache is required")
	}

	client := &Client{
		httpClient:     &http.Client{Timeout: defaultTimeout},
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		email:          email,
		password:       password,
		pickupLocation: cfg.PickupLocation,
		tokenTTL:       cfg.TokenTTL,
		tokenRefresh:   cfg.TokenRefresh,
		cache:          cache,
		logger:         logg,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// PickupLocation returns the configured warehouse pickup label.
func (c *Client) PickupLocation() string {
	return c.pickupLocation
}

func (c *Client) token(ctx context.Context) (string, error) {
	cached, err := c.cache.GetCarrierToken(ctx, carrierName)
	if err == nil && cached != "" {
		return cached, nil
	}
	if err != nil && !redis.IsNil(err) {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read carrier token cache")
	}

	body, err := json.Marshal(map[string]string{
		"email":    c.email,
		"password": c.password,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal login request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, bytes.NewReader(body))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build login request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute login request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "carrier authentication failed")
	}

	var decoded struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, responseBodyReadLimit)).Decode(&decoded); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode login response")
	}
	if decoded.Token == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "carrier token missing from login response")
	}

	// Cache for slightly less than the real lifetime so the entry expires
	// before the carrier invalidates the token.
	ttl := c.tokenTTL - c.tokenRefresh
	if ttl <= 0 {
		ttl = c.tokenTTL
	}
	if storeErr := c.cache.StoreCarrierToken(ctx, carrierName, decoded.Token, ttl); storeErr != nil && c.logger != nil {
		c.logger.Warn(c.logger.WithField(ctx, "error", storeErr.Error()), "failed to cache carrier token")
	}

	return decoded.Token, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal carrier request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build carrier request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute carrier request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		_ = c.cache.DropCarrierToken(ctx, carrierName)
		return pkgerrors.New(pkgerrors.CodeDependency, "carrier token rejected")
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "carrier request failed")
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, responseBodyReadLimit)).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode carrier response")
	}
	return nil
}

// OrderItem is a line entry on the carrier order.
type OrderItem struct {
	Name         string `json:"name"`
	SKU          string `json:"sku"`
	Units        int    `json:"units"`
	SellingPrice string `json:"selling_price"`
}

// CreateOrderRequest is the adhoc order payload. Billing doubles as the
// shipping address since the storefront only collects one.
type CreateOrderRequest struct {
	OrderID           string      `json:"order_id"`
	OrderDate         string      `json:"order_date"`
	PickupLocation    string      `json:"pickup_location"`
	BillingFirstName  string      `json:"billing_customer_name"`
	BillingLastName   string      `json:"billing_last_name"`
	BillingAddress    string      `json:"billing_address"`
	BillingAddress2   string      `json:"billing_address_2"`
	BillingCity       string      `json:"billing_city"`
	BillingPincode    string      `json:"billing_pincode"`
	BillingState      string      `json:"billing_state"`
	BillingCountry    string      `json:"billing_country"`
	BillingEmail      string      `json:"billing_email"`
	BillingPhone      string      `json:"billing_phone"`
	ShippingIsBilling bool        `json:"shipping_is_billing"`
	Items             []OrderItem `json:"order_items"`
	PaymentMethod     string      `json:"payment_method"`
	SubTotal          string      `json:"sub_total"`
	Length            float64     `json:"length"`
	Breadth           float64     `json:"breadth"`
	Height            float64     `json:"height"`
	WeightKg          float64     `json:"weight"`
}

// Shipment identifies the carrier-side order created for fulfillment.
type Shipment struct {
	CarrierOrderID string
	ShipmentID     string
}

// CreateOrder registers the order with the carrier and returns its
// shipment identifiers.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Shipment, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shiprocket client not configured")
	}
	if req.PickupLocation == "" {
		req.PickupLocation = c.pickupLocation
	}
	if req.BillingCountry == "" {
		req.BillingCountry = "India"
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = "Prepaid"
	}

	var decoded struct {
		OrderID    json.Number `json:"order_id"`
		ShipmentID json.Number `json:"shipment_id"`
		Message    string      `json:"message"`
	}
	if err := c.postJSON(ctx, createOrderPath, req, &decoded); err != nil {
		return nil, err
	}
	if decoded.ShipmentID.String() == "" || decoded.ShipmentID.String() == "0" {
		msg := decoded.Message
		if msg == "" {
			msg = "carrier order creation failed"
		}
		return nil, pkgerrors.New(pkgerrors.CodeDependency, msg)
	}

	return &Shipment{
		CarrierOrderID: decoded.OrderID.String(),
		ShipmentID:     decoded.ShipmentID.String(),
	}, nil
}

// AWBResult holds the waybill assignment outcome.
type AWBResult struct {
	AWBCode     string
	CourierName string
}

type awbResponse struct {
	AssignStatus json.Number `json:"awb_assign_status"`
	Message      string      `json:"message"`
	Response     struct {
		AWBCode     string `json:"awb_code"`
		CourierName string `json:"courier_name"`
		Data        struct {
			AWBCode        string `json:"awb_code"`
			CourierName    string `json:"courier_name"`
			AWBAssignError string `json:"awb_assign_error"`
		} `json:"data"`
	} `json:"response"`
}

// AssignAWB generates a waybill for the shipment. A shipment that already
// carries a waybill is treated as success: the carrier embeds the existing
// number in its error text and we recover it from there.
func (c *Client) AssignAWB(ctx context.Context, shipmentID string) (*AWBResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shiprocket client not configured")
	}

	var decoded awbResponse
	payload := map[string]string{"shipment_id": shipmentID}
	if err := c.postJSON(ctx, assignAWBPath, payload, &decoded); err != nil {
		return nil, err
	}

	if decoded.AssignStatus.String() == "1" {
		result := &AWBResult{
			AWBCode:     decoded.Response.AWBCode,
			CourierName: decoded.Response.CourierName,
		}
		if result.AWBCode == "" {
			result.AWBCode = decoded.Response.Data.AWBCode
		}
		if result.CourierName == "" {
			result.CourierName = decoded.Response.Data.CourierName
		}
		return result, nil
	}

	assignError := decoded.Response.Data.AWBAssignError
	if strings.Contains(assignError, "AWB is already assigned") {
		result := &AWBResult{CourierName: "Already Assigned"}
		if m := alreadyAssignedAWBPattern.FindStringSubmatch(assignError); len(m) == 2 {
			result.AWBCode = m[1]
		}
		return result, nil
	}

	msg := assignError
	if msg == "" {
		msg = decoded.Message
	}
	if msg == "" {
		msg = "waybill assignment failed"
	}
	return nil, pkgerrors.New(pkgerrors.CodeDependency, msg)
}

type pickupResponse struct {
	PickupStatus json.Number `json:"pickup_status"`
	Message      string      `json:"message"`
	Response     struct {
		Data json.RawMessage `json:"data"`
	} `json:"response"`
}

// RequestPickup schedules the warehouse pickup for a shipment. A pickup
// that was already scheduled is treated as success.
func (c *Client) RequestPickup(ctx context.Context, shipmentID string) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "shiprocket client not configured")
	}

	var decoded pickupResponse
	payload := map[string]string{"shipment_id": shipmentID}
	if err := c.postJSON(ctx, pickupPath, payload, &decoded); err != nil {
		return err
	}

	if decoded.PickupStatus.String() == "1" {
		return nil
	}

	msg := decoded.Message
	var data string
	if len(decoded.Response.Data) > 0 && json.Unmarshal(decoded.Response.Data, &data) == nil && data != "" {
		msg = data
	}
	if strings.Contains(strings.ToLower(msg), "already") {
		return nil
	}
	if msg == "" {
		msg = "pickup scheduling failed"
	}
	return pkgerrors.New(pkgerrors.CodeDependency, msg)
}
