package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/ledovalley/storefront-backend/api/routes"
	"github.com/ledovalley/storefront-backend/internal/authn"
	"github.com/ledovalley/storefront-backend/internal/catalog"
	checkoutsvc "github.com/ledovalley/storefront-backend/internal/checkout"
	"github.com/ledovalley/storefront-backend/internal/coupons"
	"github.com/ledovalley/storefront-backend/internal/customers"
	"github.com/ledovalley/storefront-backend/internal/fulfillment"
	"github.com/ledovalley/storefront-backend/internal/invoices"
	"github.com/ledovalley/storefront-backend/internal/notifications"
	"github.com/ledovalley/storefront-backend/internal/orders"
	"github.com/ledovalley/storefront-backend/internal/payments"
	shippingwebhook "github.com/ledovalley/storefront-backend/internal/webhooks/shipping"
	"github.com/ledovalley/storefront-backend/pkg/brevo"
	"github.com/ledovalley/storefront-backend/pkg/config"
	"github.com/ledovalley/storefront-backend/pkg/db"
	"github.com/ledovalley/storefront-backend/pkg/logger"
	"github.com/ledovalley/storefront-backend/pkg/migrate"
	"github.com/ledovalley/storefront-backend/pkg/otp"
	"github.com/ledovalley/storefront-backend/pkg/payu"
	"github.com/ledovalley/storefront-backend/pkg/redis"
	"github.com/ledovalley/storefront-backend/pkg/shiprocket"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	payuClient, err := payu.NewClient(cfg.PayU)
	if err != nil {
		logg.Error(context.Background(), "failed to create payu client", err)
		os.Exit(1)
	}

	shiprocketClient, err := shiprocket.NewClient(cfg.Shiprocket, redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create shiprocket client", err)
		os.Exit(1)
	}

	brevoClient, err := brevo.NewClient(cfg.Brevo)
	if err != nil {
		logg.Error(context.Background(), "failed to create brevo client", err)
		os.Exit(1)
	}

	otpVerifier, err := otp.NewVerifier(cfg.Twilio)
	if err != nil {
		logg.Error(context.Background(), "failed to create otp verifier", err)
		os.Exit(1)
	}

	customersRepo := customers.NewRepository(dbClient.DB())
	catalogRepo := catalog.NewRepository(dbClient.DB())
	couponsRepo := coupons.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())

	notifier, err := notifications.NewService(brevoClient, cfg.Returns, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	invoiceGen, err := invoices.NewGenerator(cfg.Invoices, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create invoice generator", err)
		os.Exit(1)
	}

	authService, err := authn.NewService(customersRepo, otpVerifier, redisClient, cfg.JWT, cfg.OTPRateLimit, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalogRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	couponsService, err := coupons.NewService(couponsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create coupons service", err)
		os.Exit(1)
	}

	customersService, err := customers.NewService(customersRepo, catalogRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create customers service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(
		customersRepo, catalogRepo, couponsRepo, ordersRepo,
		payuClient, dbClient, cfg.Checkout, cfg.App, logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(ordersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	paymentsService, err := payments.NewService(
		ordersRepo, catalogRepo, customersRepo, couponsRepo,
		payuClient, notifier, invoiceGen, dbClient, cfg.App, logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	fulfillmentService, err := fulfillment.NewService(
		ordersRepo, catalogRepo, shiprocketClient, payuClient,
		notifier, dbClient, cfg.Returns, logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create fulfillment service", err)
		os.Exit(1)
	}

	shippingWebhookService, err := shippingwebhook.NewService(ordersRepo, notifier, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipping webhook service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg, logg, dbClient, redisClient,
			authService, catalogService, couponsService, customersService,
			checkoutService, ordersService, paymentsService, fulfillmentService,
			shippingWebhookService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
