package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	OTPRateLimit OTPRateLimitConfig
	Checkout     CheckoutConfig
	Returns      ReturnsConfig
	PayU         PayUConfig
	Shiprocket   ShiprocketConfig
	Twilio       TwilioConfig
	Brevo        BrevoConfig
	Invoices     InvoicesConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LEDOVALLEY_APP_ENV" required:"true"`
	Port         string `envconfig:"LEDOVALLEY_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"LEDOVALLEY_BASE_URL" required:"true"`
	FrontendURL  string `envconfig:"LEDOVALLEY_FRONTEND_URL" required:"true"`
	LogLevel     string `envconfig:"LEDOVALLEY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LEDOVALLEY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LEDOVALLEY_DB_DSN"`
	Driver string `envconfig:"LEDOVALLEY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LEDOVALLEY_DB_HOST"`
	LegacyPort     int    `envconfig:"LEDOVALLEY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LEDOVALLEY_DB_USER"`
	LegacyPassword string `envconfig:"LEDOVALLEY_DB_PASSWORD"`
	LegacyName     string `envconfig:"LEDOVALLEY_DB_NAME"`
	LegacySSLMode  string `envconfig:"LEDOVALLEY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LEDOVALLEY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LEDOVALLEY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LEDOVALLEY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LEDOVALLEY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LEDOVALLEY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LEDOVALLEY_REDIS_ADDR"`
	Password     string        `envconfig:"LEDOVALLEY_REDIS_PASSWORD"`
	DB           int           `envconfig:"LEDOVALLEY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LEDOVALLEY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LEDOVALLEY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LEDOVALLEY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LEDOVALLEY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LEDOVALLEY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"LEDOVALLEY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"LEDOVALLEY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"LEDOVALLEY_JWT_EXPIRATION_MINUTES" required:"true"`
}

type OTPRateLimitConfig struct {
	Window     time.Duration `envconfig:"LEDOVALLEY_OTP_RATE_LIMIT_WINDOW" default:"1m"`
	PhoneLimit int           `envconfig:"LEDOVALLEY_OTP_RATE_LIMIT_PHONE_LIMIT" default:"3"`
	IPLimit    int           `envconfig:"LEDOVALLEY_OTP_RATE_LIMIT_IP_LIMIT" default:"10"`
}

// CheckoutConfig holds the pricing constants applied at checkout time.
type CheckoutConfig struct {
	GSTPercent     int `envconfig:"LEDOVALLEY_CHECKOUT_GST_PERCENT" default:"8"`
	ShippingCharge int `envconfig:"LEDOVALLEY_CHECKOUT_SHIPPING_CHARGE" default:"60"`
}

// GSTRate returns the GST percentage as a decimal rate (8 -> 0.08).
func (c CheckoutConfig) GSTRate() decimal.Decimal {
	return decimal.NewFromInt(int64(c.GSTPercent)).Div(decimal.NewFromInt(100))
}

// ShippingAmount returns the flat shipping charge as a decimal.
func (c CheckoutConfig) ShippingAmount() decimal.Decimal {
	return decimal.NewFromInt(int64(c.ShippingCharge))
}

type ReturnsConfig struct {
	WindowDays int `envconfig:"LEDOVALLEY_RETURN_WINDOW_DAYS" default:"7"`
}

// Window returns the configured return window as a duration.
func (r ReturnsConfig) Window() time.Duration {
	return time.Duration(r.WindowDays) * 24 * time.Hour
}

type PayUConfig struct {
	Key         string `envconfig:"LEDOVALLEY_PAYU_KEY" required:"true"`
	Salt        string `envconfig:"LEDOVALLEY_PAYU_SALT" required:"true"`
	BaseURL     string `envconfig:"LEDOVALLEY_PAYU_BASE_URL" default:"https://info.payu.in"`
	ProductInfo string `envconfig:"LEDOVALLEY_PAYU_PRODUCT_INFO" default:"Ledo Valley Order"`
}

type ShiprocketConfig struct {
	Email          string        `envconfig:"LEDOVALLEY_SHIPROCKET_EMAIL" required:"true"`
	Password       string        `envconfig:"LEDOVALLEY_SHIPROCKET_PASSWORD" required:"true"`
	BaseURL        string        `envconfig:"LEDOVALLEY_SHIPROCKET_BASE_URL" default:"https://apiv2.shiprocket.in"`
	PickupLocation string        `envconfig:"LEDOVALLEY_SHIPROCKET_PICKUP_LOCATION" default:"Home"`
	TokenTTL       time.Duration `envconfig:"LEDOVALLEY_SHIPROCKET_TOKEN_TTL" default:"220m"`
	TokenRefresh   time.Duration `envconfig:"LEDOVALLEY_SHIPROCKET_TOKEN_REFRESH_MARGIN" default:"2m"`
}

type TwilioConfig struct {
	AccountSID string `envconfig:"LEDOVALLEY_TWILIO_ACCOUNT_SID"`
	AuthToken  string `envconfig:"LEDOVALLEY_TWILIO_AUTH_TOKEN"`
	VerifySID  string `envconfig:"LEDOVALLEY_TWILIO_VERIFY_SID"`
}

type BrevoConfig struct {
	APIKey      string `envconfig:"LEDOVALLEY_BREVO_API_KEY"`
	BaseURL     string `envconfig:"LEDOVALLEY_BREVO_BASE_URL" default:"https://api.brevo.com"`
	SenderName  string `envconfig:"LEDOVALLEY_BREVO_SENDER_NAME" default:"Ledo Valley"`
	SenderEmail string `envconfig:"LEDOVALLEY_BREVO_SENDER_EMAIL"`
}

type InvoicesConfig struct {
	Dir string `envconfig:"LEDOVALLEY_INVOICES_DIR" default:"invoices"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LEDOVALLEY_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
