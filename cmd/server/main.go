package main

import (
	"errors"
	"log"
	"strings"

	"bakkal-backend/internal/admin"
	"bakkal-backend/internal/audit"
	"bakkal-backend/internal/auth"
	"bakkal-backend/internal/config"
	"bakkal-backend/internal/database"
	"bakkal-backend/internal/inventory"
	"bakkal-backend/internal/models"
	"bakkal-backend/internal/notification"
	"bakkal-backend/internal/purchase"
	"bakkal-backend/internal/report"
	"bakkal-backend/internal/sale"
	"bakkal-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)
	stock.Init(database.DB)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Yetersiz stok hatası detaylarıyla döner, istemci hangi ürünün
			// yetmediğini gösterebilsin
			var ie *stock.InsufficientStockError
			if errors.As(err, &ie) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"error":        ie.Error(),
					"product_id":   ie.ProductID,
					"product_name": ie.ProductName,
					"requested":    ie.Requested,
					"available":    ie.Available,
				})
			}
			if code := stock.StatusCode(err); code != 0 {
				return c.Status(code).JSON(fiber.Map{
					"error": err.Error(),
				})
			}
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register", auth.RegisterHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Owner routes
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleOwner))

	adminRoutes.Get("/organization", admin.GetOrganizationHandler())
	adminRoutes.Put("/organization", admin.UpdateOrganizationHandler())
	adminRoutes.Get("/users", admin.ListUsersHandler())
	adminRoutes.Post("/users", admin.CreateUserHandler())
	adminRoutes.Put("/users/:id", admin.UpdateUserHandler())

	// Ürün ve kategori yönetimi
	protected.Get("/products", inventory.ListProductsHandler())
	protected.Get("/products/:id", inventory.GetProductHandler())
	protected.Post("/products", auth.RequireRole(models.RoleOwner, models.RoleManager), inventory.CreateProductHandler())
	protected.Put("/products/:id", auth.RequireRole(models.RoleOwner, models.RoleManager), inventory.UpdateProductHandler())
	protected.Delete("/products/:id", auth.RequireRole(models.RoleOwner, models.RoleManager), inventory.DeleteProductHandler())

	protected.Get("/categories", inventory.ListCategoriesHandler())
	protected.Post("/categories", auth.RequireRole(models.RoleOwner, models.RoleManager), inventory.CreateCategoryHandler())
	protected.Put("/categories/:id", auth.RequireRole(models.RoleOwner, models.RoleManager), inventory.UpdateCategoryHandler())
	protected.Delete("/categories/:id", auth.RequireRole(models.RoleOwner, models.RoleManager), inventory.DeleteCategoryHandler())

	// Tedarikçiler
	protected.Get("/suppliers", purchase.ListSuppliersHandler())
	protected.Post("/suppliers", auth.RequireRole(models.RoleOwner, models.RoleManager), purchase.CreateSupplierHandler())
	protected.Put("/suppliers/:id", auth.RequireRole(models.RoleOwner, models.RoleManager), purchase.UpdateSupplierHandler())
	protected.Delete("/suppliers/:id", auth.RequireRole(models.RoleOwner, models.RoleManager), purchase.DeleteSupplierHandler())

	// Satışlar (kasiyer dahil herkes satış yapabilir)
	protected.Post("/sales", sale.CreateSaleHandler())
	protected.Get("/sales", sale.ListSalesHandler())
	protected.Get("/sales/:id", sale.GetSaleHandler())
	protected.Post("/sales/:id/return", auth.RequireRole(models.RoleOwner, models.RoleManager), sale.ReturnSaleHandler())

	// Alımlar
	protected.Get("/purchases", purchase.ListPurchasesHandler())
	protected.Get("/purchases/:id", purchase.GetPurchaseHandler())
	protected.Post("/purchases", auth.RequireRole(models.RoleOwner, models.RoleManager), purchase.CreatePurchaseHandler())
	protected.Post("/purchases/:id/receive", auth.RequireRole(models.RoleOwner, models.RoleManager), purchase.ReceivePurchaseHandler())
	protected.Post("/purchases/:id/pay", auth.RequireRole(models.RoleOwner, models.RoleManager), purchase.PayPurchaseHandler())

	// Stok
	protected.Get("/stock/current", inventory.CurrentStockHandler())
	protected.Get("/stock/current/:product_id", inventory.ProductStockHandler())
	protected.Get("/stock-movements", inventory.ListMovementsHandler())
	protected.Post("/stock-adjustments", auth.RequireRole(models.RoleOwner, models.RoleManager), inventory.AdjustStockHandler())

	// Raporlar
	protected.Get("/reports/sales", report.SalesReportHandler())
	protected.Get("/reports/sales/export", report.ExportSalesReportHandler())
	protected.Get("/reports/top-products", report.TopProductsHandler())
	protected.Get("/reports/inventory", report.InventoryStatsHandler())

	// Bildirimler
	protected.Get("/notifications", notification.ListNotificationsHandler())
	protected.Get("/notifications/unread-count", notification.UnreadCountHandler())
	protected.Put("/notifications/:id/read", notification.MarkReadHandler())
	protected.Put("/notifications/read-all", notification.MarkAllReadHandler())

	// Audit loglar (sadece owner)
	protected.Get("/audit-logs", auth.RequireRole(models.RoleOwner), audit.ListAuditLogsHandler())

	log.Printf("Sunucu :%s portunda başlatılıyor", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatalf("Sunucu başlatılamadı: %v", err)
	}
}
