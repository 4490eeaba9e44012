package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/erijustudio/storefront-backend/api/controllers"
	"github.com/erijustudio/storefront-backend/api/middleware"
	"github.com/erijustudio/storefront-backend/internal/adminauth"
	cartsvc "github.com/erijustudio/storefront-backend/internal/cart"
	checkoutsvc "github.com/erijustudio/storefront-backend/internal/checkout"
	notifysvc "github.com/erijustudio/storefront-backend/internal/notify"
	ordersvc "github.com/erijustudio/storefront-backend/internal/orders"
	productsvc "github.com/erijustudio/storefront-backend/internal/products"
	"github.com/erijustudio/storefront-backend/pkg/auth/session"
	"github.com/erijustudio/storefront-backend/pkg/config"
	"github.com/erijustudio/storefront-backend/pkg/logger"
)

// Deps carries everything the HTTP surface needs. Nil services degrade to
// 500s on their routes instead of panics.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    controllers.Pinger
	Sessions session.Checker

	Products   productsvc.Service
	Cart       cartsvc.Service
	Checkout   checkoutsvc.Service
	Orders     ordersvc.Service
	AdminAuth  adminauth.Service
	Dispatcher notifysvc.Dispatcher
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/catalog", controllers.Catalog(deps.Products, logg))
		r.Get("/catalog/{productId}", controllers.CatalogProduct(deps.Products, logg))
		r.Post("/notify", controllers.NotifyRelay(deps.Dispatcher, logg))
		r.Post("/store-reply", controllers.StoreReply(cfg, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Get("/cart", controllers.CartGet(deps.Cart, logg))
			r.Put("/cart/items/{productId}", controllers.CartSetItem(deps.Cart, logg))
			r.Delete("/cart/items/{productId}", controllers.CartRemoveItem(deps.Cart, logg))

			r.Post("/checkout", controllers.Checkout(deps.Checkout, logg))

			r.Get("/orders", controllers.OrdersMine(deps.Orders, logg))
			r.Post("/orders/{orderId}/cancel", controllers.OrderRequestCancel(deps.Orders, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Post("/auth/login", controllers.AdminLogin(deps.AdminAuth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminAuth(cfg.JWT, deps.Sessions, logg))

			r.Post("/auth/logout", controllers.AdminLogout(deps.AdminAuth, logg))

			r.Get("/orders", controllers.AdminOrdersList(deps.Orders, logg))
			r.Post("/orders/{orderId}/status", controllers.AdminOrderSetStatus(deps.Orders, logg))

			r.Get("/products", controllers.AdminProductsList(deps.Products, logg))
			r.Post("/products", controllers.AdminProductCreate(deps.Products, logg))
			r.Patch("/products/{productId}", controllers.AdminProductUpdate(deps.Products, logg))
			r.Delete("/products/{productId}", controllers.AdminProductDelete(deps.Products, logg))
		})
	})

	return r
}
