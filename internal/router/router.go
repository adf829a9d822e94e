package router

import (
	"time"

	"itineramio/internal/config"
	"itineramio/internal/handler"
	"itineramio/internal/middleware"
	"itineramio/internal/repository"
	"itineramio/internal/service"
	"itineramio/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services is the service layer shared by the HTTP router and the workers.
type Services struct {
	Properties   service.PropertyService
	Configs      service.BillingConfigService
	Imports      service.ImportService
	Liquidations service.LiquidationService
	Invoices     service.InvoiceService
}

// NewServices builds every repository and service on top of db.
// Dependency graph: Handler ← Service ← Repository ← DB
func NewServices(cfg *config.Config, db *gorm.DB) *Services {
	reservationRepo := repository.NewReservationRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	configRepo := repository.NewBillingConfigRepository(db)
	liquidationRepo := repository.NewLiquidationRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	templateRepo := repository.NewImportTemplateRepository(db)

	configs := service.NewBillingConfigService(configRepo, propertyRepo, invoiceRepo)
	liquidations := service.NewLiquidationService(liquidationRepo, reservationRepo, expenseRepo, propertyRepo, configs)
	return &Services{
		Properties:   service.NewPropertyService(propertyRepo),
		Configs:      configs,
		Imports:      service.NewImportService(reservationRepo, templateRepo, configs, cfg),
		Liquidations: liquidations,
		Invoices:     service.NewInvoiceService(invoiceRepo, liquidationRepo, reservationRepo, liquidations, cfg),
	}
}

// New returns a configured Gin engine.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, svc *Services) *gin.Engine {
	return build(cfg, svc, worker.NewDispatcher(rdb), handler.Health(db, rdb))
}

// build is split from New so tests can swap the job queue and health check.
func build(cfg *config.Config, svc *Services, jobs *worker.Dispatcher, health gin.HandlerFunc) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter("api", 1000, time.Minute))

	// ── Handlers ─────────────────────────────────────────────────────────────
	propertiesH := handler.NewPropertiesHandler(svc.Properties, svc.Configs)
	importsH := handler.NewImportsHandler(svc.Imports, jobs)
	liquidationsH := handler.NewLiquidationsHandler(svc.Liquidations, jobs)
	invoicesH := handler.NewInvoicesHandler(svc.Invoices)
	queuesH := handler.NewQueuesHandler(jobs)

	// ── Routes ───────────────────────────────────────────────────────────────

	r.GET("/health", health)

	// Public invoice page: the token is the credential, so it gets a tight limit
	r.GET("/public/invoices/:token", middleware.RateLimiter("public", 60, time.Minute), invoicesH.GetPublic)

	// Email parser webhook (machine to machine)
	r.POST("/v1/integrations/email-reservations", middleware.WebhookToken(cfg.WebhookToken), importsH.EnqueueEmailReservations)

	read := middleware.RequireRole(middleware.RoleAdmin, middleware.RoleAccountant, middleware.RoleViewer)
	write := middleware.RequireRole(middleware.RoleAdmin, middleware.RoleAccountant)
	admin := middleware.RequireRole(middleware.RoleAdmin)

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		v1.POST("/owners", write, propertiesH.CreateOwner)
		v1.GET("/properties", read, propertiesH.List)
		v1.POST("/properties", write, propertiesH.CreateProperty)

		props := v1.Group("/properties/:id")
		{
			props.GET("/billing-config", read, propertiesH.GetBillingConfig)
			props.PUT("/billing-config", admin, propertiesH.PutBillingConfig)

			props.POST("/reservations/import", write, importsH.ImportReservations)
			props.POST("/reservations/import/upload", write, importsH.UploadReservations)
			props.DELETE("/reservations", write, liquidationsH.DeleteReservations)

			props.POST("/expenses", write, liquidationsH.CreateExpense)
			props.DELETE("/expenses", write, liquidationsH.DeleteExpenses)

			props.GET("/liquidations", read, liquidationsH.ListByProperty)
			props.POST("/liquidations", write, liquidationsH.Aggregate)
		}

		liq := v1.Group("/liquidations")
		{
			liq.POST("/batch", admin, liquidationsH.EnqueueBatch)
			liq.GET("/:id", read, liquidationsH.Get)
			liq.POST("/:id/invoice", write, invoicesH.CreateFromLiquidation)
		}

		inv := v1.Group("/invoices")
		{
			inv.POST("", write, invoicesH.Create)
			inv.GET("/:id", read, invoicesH.Get)
			inv.PATCH("/:id/status", write, invoicesH.UpdateStatus)
			inv.POST("/:id/issue", write, invoicesH.Issue)
		}

		tpl := v1.Group("/import-templates")
		{
			tpl.GET("", read, importsH.ListTemplates)
			tpl.POST("", write, importsH.SaveTemplate)
			tpl.DELETE("/:id", write, importsH.DeleteTemplate)
		}

		v1.GET("/admin/queues", admin, queuesH.Stats)
		v1.POST("/admin/queues/:queue/redrive", admin, queuesH.Redrive)
	}

	// Swagger UI only outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
