package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tradepost-labs/tradepost-backend/api/controllers"
	"github.com/tradepost-labs/tradepost-backend/api/middleware"
	"github.com/tradepost-labs/tradepost-backend/internal/auth"
	"github.com/tradepost-labs/tradepost-backend/internal/categories"
	"github.com/tradepost-labs/tradepost-backend/internal/products"
	"github.com/tradepost-labs/tradepost-backend/internal/storerequests"
	"github.com/tradepost-labs/tradepost-backend/internal/stores"
	"github.com/tradepost-labs/tradepost-backend/internal/users"
	"github.com/tradepost-labs/tradepost-backend/pkg/config"
	"github.com/tradepost-labs/tradepost-backend/pkg/enums"
	"github.com/tradepost-labs/tradepost-backend/pkg/logger"
	"github.com/tradepost-labs/tradepost-backend/pkg/redis"
)

// Services bundles the domain services the router exposes.
type Services struct {
	Auth          auth.Service
	StoreRequests storerequests.Service
	Stores        stores.Service
	Users         users.Service
	Products      products.Service
	Categories    categories.Service
}

// Dependencies carries the infrastructure the router and its middleware need.
type Dependencies struct {
	DB    controllers.Pinger
	Redis *redis.Client
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies, svcs Services) http.Handler {
	var limiter middleware.RateLimiterStore
	var idemStore middleware.IdempotencyStore
	if deps.Redis != nil {
		limiter = deps.Redis
		idemStore = deps.Redis
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	signupPolicy := middleware.NewAuthRateLimitPolicy(
		"signup",
		cfg.AuthRateLimit.SignupWindow,
		cfg.AuthRateLimit.SignupIPLimit,
		cfg.AuthRateLimit.SignupEmailLimit,
	)

	healthDeps := map[string]controllers.Pinger{}
	if deps.DB != nil {
		healthDeps["database"] = deps.DB
	}
	if deps.Redis != nil {
		healthDeps["redis"] = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, healthDeps))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(signupPolicy, limiter, logg)).Post("/signup", controllers.Signup(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).Post("/login", controllers.Login(svcs.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/store-requests", func(r chi.Router) {
			r.Post("/", controllers.StoreRequestCreate(svcs.StoreRequests, logg))
			r.Get("/by-store-requestor", controllers.StoreRequestsByRequestor(svcs.StoreRequests, logg))
			r.Put("/{storeRequestId}", controllers.StoreRequestUpdate(svcs.StoreRequests, logg))
			r.Delete("/{storeRequestId}", controllers.StoreRequestDelete(svcs.StoreRequests, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
				r.Get("/", controllers.StoreRequestList(svcs.StoreRequests, logg))
				r.Get("/{storeRequestId}", controllers.StoreRequestGet(svcs.StoreRequests, logg))
				r.Post("/{storeRequestId}/approve", controllers.StoreRequestApprove(svcs.StoreRequests, logg))
				r.Post("/{storeRequestId}/reject", controllers.StoreRequestReject(svcs.StoreRequests, logg))
			})
		})

		r.Route("/stores", func(r chi.Router) {
			r.Get("/", controllers.StoreList(svcs.Stores, logg))
			r.Get("/{storeId}", controllers.StoreGet(svcs.Stores, logg))
			r.Get("/{storeId}/products", controllers.StoreProducts(svcs.Products, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
				r.Post("/", controllers.StoreCreate(svcs.Stores, logg))
				r.Put("/{storeId}", controllers.StoreUpdate(svcs.Stores, logg))
				r.Delete("/{storeId}", controllers.StoreDelete(svcs.Stores, logg))
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(svcs.Products, logg))
			r.Get("/{productId}", controllers.ProductGet(svcs.Products, logg))
			r.Post("/", controllers.ProductCreate(svcs.Products, logg))
			r.Put("/{productId}", controllers.ProductUpdate(svcs.Products, logg))
			r.Delete("/{productId}", controllers.ProductDelete(svcs.Products, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.CategoryList(svcs.Categories, logg))
			r.Get("/{categoryId}", controllers.CategoryGet(svcs.Categories, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
				r.Post("/", controllers.CategoryCreate(svcs.Categories, logg))
				r.Delete("/{categoryId}", controllers.CategoryDelete(svcs.Categories, logg))
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
			r.Get("/", controllers.UserList(svcs.Users, logg))
			r.Get("/{userId}", controllers.UserGet(svcs.Users, logg))
			r.Put("/{userId}", controllers.UserUpdate(svcs.Users, logg))
			r.Put("/{userId}/role", controllers.UserUpdateRole(svcs.Users, logg))
			r.Delete("/{userId}", controllers.UserDelete(svcs.Users, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
			r.Get("/admin/ping", controllers.AdminPing())
		})
	})

	return r
}
