package authn

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ledovalley/storefront-backend/pkg/auth"
	"github.com/ledovalley/storefront-backend/pkg/config"
	"github.com/ledovalley/storefront-backend/pkg/db/models"
	"github.com/ledovalley/storefront-backend/pkg/enums"
	pkgerrors "github.com/ledovalley/storefront-backend/pkg/errors"
	"github.com/ledovalley/storefront-backend/pkg/logger"
	"github.com/ledovalley/storefront-backend/pkg/otp"
)

// Service handles phone-number login with one-time passcodes.
type Service interface {
	RequestOTP(ctx context.Context, input RequestOTPInput) error
	VerifyOTP(ctx context.Context, input VerifyOTPInput) (*LoginResult, error)
}

// RequestOTPInput carries the phone asking for a code and the caller's IP
// for rate limiting.
type RequestOTPInput struct {
	Phone    string
	ClientIP string
}

// VerifyOTPInput carries the phone and the code typed back.
type VerifyOTPInput struct {
	Phone string
	Code  string
	Name  string
}

// LoginResult is the outcome of a successful verification.
type LoginResult struct {
	Token       string     `json:"token"`
	Customer    Customer   `json:"customer"`
	NewCustomer bool       `json:"newCustomer"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

// Customer is the slim account view returned at login.
type Customer struct {
	ID    uuid.UUID `json:"id"`
	Phone string    `json:"phone"`
	Name  string    `json:"name"`
	Email *string   `json:"email,omitempty"`
}

// customerStore is the slice of the customers repository login needs.
type customerStore interface {
	FindByPhone(ctx context.Context, phone string) (*models.Customer, error)
	Create(ctx context.Context, customer *models.Customer) (*models.Customer, error)
	Save(ctx context.Context, customer *models.Customer) error
}

// codeVerifier abstracts the SMS OTP provider.
type codeVerifier interface {
	Send(phone string) error
	Check(phone, code string) (bool, error)
}

// rateLimiter is the redis fixed-window counter.
type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type service struct {
	customers customerStore
	verifier  codeVerifier
	limiter   rateLimiter
	jwtCfg    config.JWTConfig
	limitCfg  config.OTPRateLimitConfig
	logger    *logger.Logger
	now       func() time.Time
}

// NewService constructs the login service.
func NewService(
	customers customerStore,
	verifier codeVerifier,
	limiter rateLimiter,
	jwtCfg config.JWTConfig,
	limitCfg config.OTPRateLimitConfig,
	logg *logger.Logger,
) (Service, error) {
	if customers == nil {
		return nil, fmt.Errorf("customer store required")
	}
	if verifier == nil {
		return nil, fmt.Errorf("otp verifier required")
	}
	if limiter == nil {
		return nil, fmt.Errorf("rate limiter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		customers: customers,
		verifier:  verifier,
		limiter:   limiter,
		jwtCfg:    jwtCfg,
		limitCfg:  limitCfg,
		logger:    logg,
		now:       time.Now,
	}, nil
}

func (s *service) RequestOTP(ctx context.Context, input RequestOTPInput) error {
	phone := otp.NormalizePhone(input.Phone)
	if phone == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}

	if err := s.allow(ctx, "otp:phone:"+phone, int64(s.limitCfg.PhoneLimit)); err != nil {
		return err
	}
	if ip := strings.TrimSpace(input.ClientIP); ip != "" {
		if err := s.allow(ctx, "otp:ip:"+ip, int64(s.limitCfg.IPLimit)); err != nil {
			return err
		}
	}

	if err := s.verifier.Send(phone); err != nil {
		return err
	}
	s.logger.Info(s.logger.WithField(ctx, "phone", phone), "otp sent")
	return nil
}

func (s *service) VerifyOTP(ctx context.Context, input VerifyOTPInput) (*LoginResult, error) {
	phone := otp.NormalizePhone(input.Phone)
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}
	code := strings.TrimSpace(input.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "otp code is required")
	}

	approved, err := s.verifier.Check(phone, code)
	if err != nil {
		return nil, err
	}
	if !approved {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired otp")
	}

	customer, created, err := s.findOrCreateCustomer(ctx, phone, input.Name)
	if err != nil {
		return nil, err
	}

	now := s.now()
	token, err := auth.MintAccessToken(s.jwtCfg, now, auth.AccessTokenPayload{
		CustomerID: customer.ID,
		Phone:      customer.Phone,
		Role:       enums.ActorRoleCustomer,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	expiresAt := now.Add(time.Duration(s.jwtCfg.ExpirationMinutes) * time.Minute)
	s.logger.Info(s.logger.WithCustomerID(ctx, customer.ID.String()), "customer logged in")

	return &LoginResult{
		Token: token,
		Customer: Customer{
			ID:    customer.ID,
			Phone: customer.Phone,
			Name:  customer.Name,
			Email: customer.Email,
		},
		NewCustomer: created,
		ExpiresAt:   &expiresAt,
	}, nil
}

func (s *service) allow(ctx context.Context, scope string, limit int64) error {
	if limit <= 0 {
		return nil
	}
	allowed, _, err := s.limiter.FixedWindowAllow(ctx, scope, limit, s.limitCfg.Window)
	if err != nil {
		// A broken limiter should not lock everyone out of login.
		s.logger.Warn(s.logger.WithField(ctx, "error", err.Error()), "otp rate limiter unavailable")
		return nil
	}
	if !allowed {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many otp requests, try again later")
	}
	return nil
}

func (s *service) findOrCreateCustomer(ctx context.Context, phone, name string) (*models.Customer, bool, error) {
	now := s.now()

	customer, err := s.customers.FindByPhone(ctx, phone)
	switch {
	case err == nil:
		customer.LastLoginAt = &now
		if err := s.customers.Save(ctx, customer); err != nil {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save customer")
		}
		return customer, false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		displayName := strings.TrimSpace(name)
		if displayName == "" {
			displayName = "Customer"
		}
		created, err := s.customers.Create(ctx, &models.Customer{
			Phone:       phone,
			Name:        displayName,
			LastLoginAt: &now,
		})
		if err != nil {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create customer")
		}
		return created, true, nil
	default:
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find customer by phone")
	}
}
