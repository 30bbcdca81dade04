package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/stn-picking/api/controllers"
	analyticscontrollers "github.com/angelmondragon/stn-picking/api/controllers/analytics"
	"github.com/angelmondragon/stn-picking/api/middleware"
	"github.com/angelmondragon/stn-picking/internal/analytics"
	"github.com/angelmondragon/stn-picking/internal/catalog"
	"github.com/angelmondragon/stn-picking/internal/picklists"
	"github.com/angelmondragon/stn-picking/pkg/config"
	"github.com/angelmondragon/stn-picking/pkg/logger"
	"github.com/angelmondragon/stn-picking/pkg/metrics"
	pkgredis "github.com/angelmondragon/stn-picking/pkg/redis"
)

// Dependencies are the services and infrastructure the HTTP surface needs.
// Idempotency and Gatherer may be nil.
type Dependencies struct {
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Idempotency pkgredis.ResponseStore
	Gatherer    prometheus.Gatherer

	PickLists picklists.Service
	Catalog   catalog.Service
	Analytics analytics.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Recoverer(logg),
		middleware.Operator(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.HTTP.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readinessChecks(deps)))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Idempotency(deps.Idempotency, cfg.Picking.IdempotencyTTL, logg))

		r.Post("/scan/validate", controllers.ValidateScan(deps.PickLists, logg))

		r.Route("/picklist", func(r chi.Router) {
			r.Post("/", controllers.CreatePickList(deps.PickLists, logg))
			r.Get("/", controllers.ListPickLists(deps.PickLists, logg))
			r.Get("/{id}", controllers.GetPickList(deps.PickLists, logg))
			r.Get("/{id}/status", controllers.PickListStatus(deps.PickLists, logg))
			r.Post("/{id}/cancel", controllers.CancelPickList(deps.PickLists, logg))
			r.Delete("/{id}/item/{productCode}/scan", controllers.UndoScan(deps.PickLists, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(deps.Catalog, logg))
			r.Post("/", controllers.CreateProduct(deps.Catalog, logg))
			r.Get("/categories", controllers.ListCategories(deps.Catalog, logg))
			r.Get("/barcode/{barcode}", controllers.LookupBarcode(deps.Catalog, logg))
			r.Get("/{id}", controllers.GetProduct(deps.Catalog, logg))
			r.Put("/{id}", controllers.UpdateProduct(deps.Catalog, logg))
		})

		r.Route("/barcodes", func(r chi.Router) {
			r.Post("/generate", controllers.GenerateBarcode(deps.Catalog, logg))
			r.Get("/unassigned", controllers.ListUnassignedBarcodes(deps.Catalog, logg))
			r.Get("/product/{productCode}", controllers.ListProductBarcodes(deps.Catalog, logg))
			r.Post("/{code}/print", controllers.MarkBarcodePrinted(deps.Catalog, logg))
		})

		r.Get("/branches", controllers.ListBranches(deps.Catalog, logg))
		r.Post("/branches", controllers.CreateBranch(deps.Catalog, logg))
		r.Get("/racks", controllers.ListRacks(deps.Catalog, logg))
		r.Post("/racks", controllers.CreateRack(deps.Catalog, logg))

		r.Post("/import/products", controllers.ImportProducts(deps.Catalog, cfg.HTTP.MaxImportMB, logg))

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/summary", analyticscontrollers.Summary(deps.Analytics, logg))
			r.Get("/branch-wise", analyticscontrollers.BranchWise(deps.Analytics, logg))
			r.Get("/product-wise", analyticscontrollers.ProductWise(deps.Analytics, logg))
			r.Get("/daily-summary", analyticscontrollers.DailySummary(deps.Analytics, logg))
			r.Get("/error-analysis", analyticscontrollers.ErrorAnalysis(deps.Analytics, logg))
			r.Get("/recent-scans", analyticscontrollers.RecentScans(deps.Analytics, logg))
			r.Get("/category-stats", analyticscontrollers.CategoryStats(deps.Analytics, logg))
			r.Get("/brand-stats", analyticscontrollers.BrandStats(deps.Analytics, logg))
			r.Get("/trends", analyticscontrollers.Trends(deps.Analytics, logg))
		})
	})

	return r
}

func readinessChecks(deps Dependencies) map[string]controllers.Pinger {
	checks := map[string]controllers.Pinger{}
	if deps.DB != nil {
		checks["database"] = deps.DB
	}
	if deps.Redis != nil {
		checks["redis"] = deps.Redis
	}
	return checks
}
