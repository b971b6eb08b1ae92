package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/lensretail-backend/api/controllers"
	"github.com/angelmondragon/lensretail-backend/api/middleware"
	"github.com/angelmondragon/lensretail-backend/internal/audit"
	"github.com/angelmondragon/lensretail-backend/internal/auth"
	"github.com/angelmondragon/lensretail-backend/internal/catalog"
	"github.com/angelmondragon/lensretail-backend/internal/customers"
	"github.com/angelmondragon/lensretail-backend/internal/locations"
	"github.com/angelmondragon/lensretail-backend/internal/pricing"
	"github.com/angelmondragon/lensretail-backend/internal/saleorders"
	"github.com/angelmondragon/lensretail-backend/internal/trays"
	"github.com/angelmondragon/lensretail-backend/internal/users"
	"github.com/angelmondragon/lensretail-backend/internal/vendors"
	"github.com/angelmondragon/lensretail-backend/pkg/auth/session"
	"github.com/angelmondragon/lensretail-backend/pkg/config"
	"github.com/angelmondragon/lensretail-backend/pkg/enums"
	"github.com/angelmondragon/lensretail-backend/pkg/logger"
	"github.com/angelmondragon/lensretail-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/lensretail-backend/pkg/redis"
)

// RedisStore covers the Redis operations the HTTP edge needs directly.
type RedisStore interface {
	pkgredis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(policy, dimension, subject string) string
	Ping(ctx context.Context) error
}

// Dependencies bundles everything the router mounts.
type Dependencies struct {
	DB          controllers.Pinger
	Redis       RedisStore
	Sessions    session.AccessSessionChecker
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics

	Auth       auth.Service
	Users      users.Service
	Pricing    pricing.Service
	Catalog    catalog.Service
	Locations  locations.Service
	Trays      trays.Service
	Vendors    vendors.Service
	Customers  customers.Service
	SaleOrders saleorders.Service
	Audit      audit.Service
}

// catalogResources maps URL segments to catalog kinds.
var catalogResources = []struct {
	path string
	kind catalog.Kind
}{
	{"/brands", catalog.KindBrand},
	{"/products", catalog.KindProduct},
	{"/coatings", catalog.KindCoating},
	{"/materials", catalog.KindMaterial},
	{"/tintings", catalog.KindTinting},
	{"/price-records", catalog.KindPriceRecord},
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.Metrics(deps.HTTPMetrics),
	)
	if deps.Audit != nil {
		r.Use(middleware.Audit(deps.Audit))
	}

	var redisStore RedisStore
	var idempotency pkgredis.IdempotencyStore
	if deps.Redis != nil {
		redisStore = deps.Redis
		idempotency = deps.Redis
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	guard := middleware.NewIdempotencyGuard(idempotency, logg)
	idem := guard.Within(middleware.ReplayWindowDay)
	idemCritical := guard.Within(middleware.ReplayWindowWeek)

	readiness := map[string]controllers.Pinger{}
	if deps.DB != nil {
		readiness["database"] = deps.DB
	}
	if redisStore != nil {
		readiness["redis"] = redisStore
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	authenticate := middleware.Auth(cfg.JWT, deps.Sessions, logg)
	writers := middleware.RequireRoles(logg, enums.UserRoleAdmin, enums.UserRoleManager)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			if redisStore != nil {
				r.With(middleware.AuthRateLimit(loginPolicy, redisStore, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
			} else {
				r.Post("/login", controllers.AuthLogin(deps.Auth, logg))
			}
			r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
			r.With(authenticate).Post("/logout", controllers.AuthLogout(deps.Auth, logg))
			r.With(authenticate).Get("/me", controllers.AuthMe(deps.Auth, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Route("/price-mappings", func(r chi.Router) {
				r.Get("/customers/{customerId}/hierarchy", controllers.PriceHierarchy(deps.Pricing, logg))
				r.Get("/customers/{customerId}", controllers.ListPriceOverrides(deps.Pricing, logg))
				r.With(writers).Delete("/customers/{customerId}", controllers.ClearPriceOverrides(deps.Pricing, logg))
				r.With(writers, idem).Post("/apply", controllers.ApplyDiscounts(deps.Pricing, logg))
			})

			r.Route("/catalog", func(r chi.Router) {
				for _, res := range catalogResources {
					r.Route(res.path, func(r chi.Router) {
						r.Get("/", controllers.CatalogList(deps.Catalog, res.kind, logg))
						r.Get("/{id}", controllers.CatalogGet(deps.Catalog, res.kind, logg))
						r.With(writers).Post("/", controllers.CatalogCreate(deps.Catalog, res.kind, logg))
						r.With(writers).Put("/{id}", controllers.CatalogUpdate(deps.Catalog, res.kind, logg))
						r.With(writers).Delete("/{id}", controllers.CatalogDelete(deps.Catalog, res.kind, logg))
					})
				}
			})

			r.Route("/locations", func(r chi.Router) {
				r.Get("/", controllers.LocationList(deps.Locations, logg))
				r.Get("/{id}", controllers.LocationGet(deps.Locations, logg))
				r.With(writers).Post("/", controllers.LocationCreate(deps.Locations, logg))
				r.With(writers).Put("/{id}", controllers.LocationUpdate(deps.Locations, logg))
				r.With(writers).Delete("/{id}", controllers.LocationDelete(deps.Locations, logg))
			})

			r.Route("/trays", func(r chi.Router) {
				r.Get("/", controllers.TrayList(deps.Trays, logg))
				r.Get("/{id}", controllers.TrayGet(deps.Trays, logg))
				r.With(writers).Post("/", controllers.TrayCreate(deps.Trays, logg))
				r.With(writers).Put("/{id}", controllers.TrayUpdate(deps.Trays, logg))
				r.With(writers).Delete("/{id}", controllers.TrayDelete(deps.Trays, logg))
			})

			r.Route("/vendors", func(r chi.Router) {
				r.Get("/", controllers.VendorList(deps.Vendors, logg))
				r.Get("/{id}", controllers.VendorGet(deps.Vendors, logg))
				r.With(writers).Post("/", controllers.VendorCreate(deps.Vendors, logg))
				r.With(writers).Put("/{id}", controllers.VendorUpdate(deps.Vendors, logg))
				r.With(writers).Delete("/{id}", controllers.VendorDelete(deps.Vendors, logg))
			})

			r.Route("/customers", func(r chi.Router) {
				customerWriters := middleware.RequireRoles(logg, enums.UserRoleAdmin, enums.UserRoleManager, enums.UserRoleSales)
				r.Get("/", controllers.CustomerList(deps.Customers, logg))
				r.Get("/{id}", controllers.CustomerGet(deps.Customers, logg))
				r.With(customerWriters, idem).Post("/", controllers.CustomerCreate(deps.Customers, logg))
				r.With(customerWriters).Put("/{id}", controllers.CustomerUpdate(deps.Customers, logg))
				r.With(writers).Delete("/{id}", controllers.CustomerDelete(deps.Customers, logg))
			})

			r.Route("/sale-orders", func(r chi.Router) {
				r.Get("/", controllers.SaleOrderList(deps.SaleOrders, logg))
				r.Get("/{id}", controllers.SaleOrderGet(deps.SaleOrders, logg))
				r.With(idemCritical).Post("/", controllers.SaleOrderCreate(deps.SaleOrders, logg))
				r.With(idem).Post("/{id}/status", controllers.SaleOrderUpdateStatus(deps.SaleOrders, logg))
				r.With(idemCritical).Post("/{id}/cancel", controllers.SaleOrderCancel(deps.SaleOrders, logg))
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRoles(logg, enums.UserRoleAdmin))

				r.Route("/users", func(r chi.Router) {
					r.Get("/", controllers.AdminUserList(deps.Users, logg))
					r.With(idem).Post("/", controllers.AdminUserCreate(deps.Users, logg))
					r.Get("/{id}", controllers.AdminUserGet(deps.Users, logg))
					r.Put("/{id}", controllers.AdminUserUpdate(deps.Users, logg))
					r.Post("/{id}/reset-password", controllers.AdminUserResetPassword(deps.Users, logg))
				})
				r.Get("/audit-logs", controllers.AdminAuditLogs(deps.Audit, logg))
				r.Get("/error-logs", controllers.AdminErrorLogs(deps.Audit, logg))
			})
		})
	})

	return r
}
