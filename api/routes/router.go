package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ledovalley/storefront-backend/api/controllers"
	"github.com/ledovalley/storefront-backend/api/middleware"
	"github.com/ledovalley/storefront-backend/internal/authn"
	"github.com/ledovalley/storefront-backend/internal/catalog"
	checkoutsvc "github.com/ledovalley/storefront-backend/internal/checkout"
	"github.com/ledovalley/storefront-backend/internal/coupons"
	"github.com/ledovalley/storefront-backend/internal/customers"
	"github.com/ledovalley/storefront-backend/internal/fulfillment"
	"github.com/ledovalley/storefront-backend/internal/orders"
	"github.com/ledovalley/storefront-backend/internal/payments"
	shippingwebhook "github.com/ledovalley/storefront-backend/internal/webhooks/shipping"
	"github.com/ledovalley/storefront-backend/pkg/config"
	"github.com/ledovalley/storefront-backend/pkg/enums"
	"github.com/ledovalley/storefront-backend/pkg/logger"
)

type pinger interface {
	Ping(context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP pinger,
	redisP pinger,
	authService authn.Service,
	catalogService catalog.Service,
	couponsService coupons.Service,
	customersService customers.Service,
	checkoutService checkoutsvc.Service,
	ordersService orders.Service,
	paymentsService payments.Service,
	fulfillmentService fulfillment.Service,
	shippingWebhookService *shippingwebhook.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.FrontendURL),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Route("/api/auth/otp", func(r chi.Router) {
		r.Post("/request", controllers.AuthRequestOTP(authService, logg))
		r.Post("/verify", controllers.AuthVerifyOTP(authService, logg))
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", controllers.ProductsList(catalogService, logg))
		r.Get("/{slug}", controllers.ProductGet(catalogService, logg))
	})

	r.Route("/api/coupons", func(r chi.Router) {
		r.Get("/", controllers.CouponsList(couponsService, logg))
		r.Post("/validate", controllers.CouponValidate(couponsService, logg))
	})

	// PayU posts the browser back to these after the hosted payment page.
	// GET is registered too because some gateway modes redirect instead.
	r.Route("/api/payment", func(r chi.Router) {
		r.Post("/success", controllers.PaymentSuccess(paymentsService, logg))
		r.Get("/success", controllers.PaymentSuccess(paymentsService, logg))
		r.Post("/failure", controllers.PaymentFailure(paymentsService, logg))
		r.Get("/failure", controllers.PaymentFailure(paymentsService, logg))
	})

	r.Post("/api/shipping/webhook", controllers.ShippingWebhook(shippingWebhookService, logg))

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.ActorRoleCustomer, logg))

			r.Route("/me", func(r chi.Router) {
				r.Get("/", controllers.ProfileGet(customersService, logg))
				r.Put("/", controllers.ProfileUpdate(customersService, logg))
				r.Route("/addresses", func(r chi.Router) {
					r.Get("/", controllers.AddressesList(customersService, logg))
					r.Post("/", controllers.AddressAdd(customersService, logg))
					r.Put("/{addressID}", controllers.AddressUpdate(customersService, logg))
					r.Delete("/{addressID}", controllers.AddressDelete(customersService, logg))
					r.Post("/{addressID}/default", controllers.AddressSetDefault(customersService, logg))
				})
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(customersService, logg))
				r.Post("/items", controllers.CartAdd(customersService, logg))
				r.Patch("/items/{itemID}", controllers.CartUpdateItem(customersService, logg))
				r.Delete("/items/{itemID}", controllers.CartRemoveItem(customersService, logg))
				r.Delete("/", controllers.CartClear(customersService, logg))
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", controllers.WishlistGet(customersService, logg))
				r.Post("/", controllers.WishlistAdd(customersService, logg))
				r.Delete("/{productID}", controllers.WishlistRemove(customersService, logg))
			})

			r.Post("/checkout", controllers.Checkout(checkoutService, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrdersList(ordersService, logg))
				r.Get("/{orderID}", controllers.OrderGet(ordersService, logg))
				r.Post("/{orderID}/cancel", controllers.OrderCancel(fulfillmentService, logg))
				r.Post("/{orderID}/retry-payment", controllers.OrderRetryPayment(paymentsService, logg))
				r.Post("/{orderID}/return", controllers.OrderRequestReturn(fulfillmentService, logg))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.ActorRoleAdmin, logg))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.AdminProductsList(catalogService, logg))
				r.Post("/", controllers.AdminProductCreate(catalogService, logg))
				r.Patch("/{productID}", controllers.AdminProductUpdate(catalogService, logg))
				r.Delete("/{productID}", controllers.AdminProductDelete(catalogService, logg))
				r.Post("/{productID}/variants", controllers.AdminVariantAdd(catalogService, logg))
				r.Patch("/{productID}/variants/{variantID}", controllers.AdminVariantUpdate(catalogService, logg))
				r.Delete("/{productID}/variants/{variantID}", controllers.AdminVariantDelete(catalogService, logg))
			})

			r.Route("/coupons", func(r chi.Router) {
				r.Get("/", controllers.AdminCouponsList(couponsService, logg))
				r.Post("/", controllers.AdminCouponCreate(couponsService, logg))
				r.Patch("/{couponID}", controllers.AdminCouponUpdate(couponsService, logg))
				r.Delete("/{couponID}", controllers.AdminCouponDelete(couponsService, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminOrdersList(ordersService, logg))
				r.Get("/{orderID}", controllers.AdminOrderGet(ordersService, logg))
				r.Patch("/{orderID}/status", controllers.AdminOrderChangeStatus(fulfillmentService, logg))
				r.Post("/{orderID}/approve-return", controllers.AdminOrderApproveReturn(fulfillmentService, logg))
				r.Post("/{orderID}/complete-refund", controllers.AdminOrderCompleteRefund(fulfillmentService, logg))
			})
		})
	})

	return r
}
