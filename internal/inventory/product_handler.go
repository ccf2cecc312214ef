package inventory

import (
	"strings"

	"bakkal-backend/internal/audit"
	"bakkal-backend/internal/auth"
	"bakkal-backend/internal/database"
	"bakkal-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductResponse struct {
	ID                uuid.UUID       `json:"id"`
	SKU               string          `json:"sku"`
	Barcode           string          `json:"barcode"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	CategoryID        *uuid.UUID      `json:"category_id"`
	CategoryName      string          `json:"category_name"`
	Unit              string          `json:"unit"`
	CostPrice         decimal.Decimal `json:"cost_price"`
	SellingPrice      decimal.Decimal `json:"selling_price"`
	CurrentStock      int             `json:"current_stock"`
	MinStockThreshold int             `json:"min_stock_threshold"`
	IsActive          bool            `json:"is_active"`
}

type CreateProductRequest struct {
	SKU               string          `json:"sku"`
	Barcode           string          `json:"barcode"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	CategoryID        *uuid.UUID      `json:"category_id"`
	Unit              string          `json:"unit"`
	CostPrice         decimal.Decimal `json:"cost_price"`
	SellingPrice      decimal.Decimal `json:"selling_price"`
	MinStockThreshold int             `json:"min_stock_threshold"`
}

type UpdateProductRequest struct {
	Barcode           *string          `json:"barcode"`
	Name              *string          `json:"name"`
	Description       *string          `json:"description"`
	CategoryID        *uuid.UUID       `json:"category_id"`
	Unit              *string          `json:"unit"`
	CostPrice         *decimal.Decimal `json:"cost_price"`
	SellingPrice      *decimal.Decimal `json:"selling_price"`
	MinStockThreshold *int             `json:"min_stock_threshold"`
	IsActive          *bool            `json:"is_active"`
}

func toProductResponse(p *models.Product) ProductResponse {
	res := ProductResponse{
		ID:                p.ID,
		SKU:               p.SKU,
		Barcode:           p.Barcode,
		Name:              p.Name,
		Description:       p.Description,
		CategoryID:        p.CategoryID,
		Unit:              p.Unit,
		CostPrice:         p.CostPrice,
		SellingPrice:      p.SellingPrice,
		CurrentStock:      p.CurrentStock,
		MinStockThreshold: p.MinStockThreshold,
		IsActive:          p.IsActive,
	}
	if p.Category != nil {
		res.CategoryName = p.Category.Name
	}
	return res
}

// GET /api/products?search=&category_id=&low_stock=true&include_inactive=true
func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)

		dbq := database.DB.Model(&models.Product{}).
			Preload("Category").
			Where("organization_id = ?", orgID)

		if c.Query("include_inactive") != "true" {
			dbq = dbq.Where("is_active = ?", true)
		}
		if search := strings.TrimSpace(c.Query("search")); search != "" {
			like := "%" + strings.ToLower(search) + "%"
			dbq = dbq.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ? OR barcode = ?", like, like, search)
		}
		if cidStr := c.Query("category_id"); cidStr != "" {
			if cid, err := uuid.Parse(cidStr); err == nil {
				dbq = dbq.Where("category_id = ?", cid)
			}
		}
		if c.Query("low_stock") == "true" {
			dbq = dbq.Where("min_stock_threshold > 0 AND current_stock <= min_stock_threshold")
		}

		var products []models.Product
		if err := dbq.Order("name asc").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürünler listelenemedi")
		}

		res := make([]ProductResponse, 0, len(products))
		for i := range products {
			res = append(res, toProductResponse(&products[i]))
		}
		return c.JSON(res)
	}
}

// GET /api/products/:id
func GetProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)

		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ürün ID")
		}

		var p models.Product
		if err := database.DB.Preload("Category").
			First(&p, "id = ? AND organization_id = ?", id, orgID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}
		return c.JSON(toProductResponse(&p))
	}
}

// POST /api/products (owner, manager)
func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)
		userID := auth.CurrentUserID(c)

		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		body.SKU = strings.TrimSpace(body.SKU)
		body.Name = strings.TrimSpace(body.Name)
		body.Unit = strings.TrimSpace(body.Unit)

		if body.SKU == "" || body.Name == "" || body.Unit == "" {
			return fiber.NewError(fiber.StatusBadRequest, "SKU, isim ve birim zorunlu")
		}
		if body.CostPrice.IsNegative() || body.SellingPrice.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "Fiyatlar negatif olamaz")
		}
		if body.MinStockThreshold < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Minimum stok eşiği negatif olamaz")
		}

		// SKU organizasyon içinde benzersiz olmalı
		var count int64
		database.DB.Model(&models.Product{}).
			Where("organization_id = ? AND sku = ?", orgID, body.SKU).
			Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "Bu SKU zaten kullanılıyor")
		}

		if body.CategoryID != nil {
			var cat models.Category
			if err := database.DB.First(&cat, "id = ? AND organization_id = ?", *body.CategoryID, orgID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Kategori bulunamadı")
			}
		}

		p := models.Product{
			OrganizationID:    orgID,
			SKU:               body.SKU,
			Barcode:           strings.TrimSpace(body.Barcode),
			Name:              body.Name,
			Description:       body.Description,
			CategoryID:        body.CategoryID,
			Unit:              body.Unit,
			CostPrice:         body.CostPrice,
			SellingPrice:      body.SellingPrice,
			MinStockThreshold: body.MinStockThreshold,
			IsActive:          true,
			CreatedBy:         &userID,
		}

		if err := database.DB.Create(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün oluşturulamadı")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: orgID,
			UserID:         userID,
			UserName:       auth.CurrentUserName(c),
			EntityType:     "product",
			EntityID:       p.ID,
			Action:         models.AuditActionCreate,
			Description:    "Ürün oluşturuldu: " + p.Name,
			After:          p,
		})

		return c.Status(fiber.StatusCreated).JSON(toProductResponse(&p))
	}
}

// PUT /api/products/:id (owner, manager)
func UpdateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)
		userID := auth.CurrentUserID(c)

		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ürün ID")
		}

		var p models.Product
		if err := database.DB.First(&p, "id = ? AND organization_id = ?", id, orgID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		before := p

		var body UpdateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "İsim boş olamaz")
			}
			p.Name = name
		}
		if body.Barcode != nil {
			p.Barcode = strings.TrimSpace(*body.Barcode)
		}
		if body.Description != nil {
			p.Description = *body.Description
		}
		if body.CategoryID != nil {
			var cat models.Category
			if err := database.DB.First(&cat, "id = ? AND organization_id = ?", *body.CategoryID, orgID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Kategori bulunamadı")
			}
			p.CategoryID = body.CategoryID
		}
		if body.Unit != nil {
			unit := strings.TrimSpace(*body.Unit)
			if unit == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Birim boş olamaz")
			}
			p.Unit = unit
		}
		if body.CostPrice != nil {
			if body.CostPrice.IsNegative() {
				return fiber.NewError(fiber.StatusBadRequest, "Maliyet fiyatı negatif olamaz")
			}
			p.CostPrice = *body.CostPrice
		}
		if body.SellingPrice != nil {
			if body.SellingPrice.IsNegative() {
				return fiber.NewError(fiber.StatusBadRequest, "Satış fiyatı negatif olamaz")
			}
			p.SellingPrice = *body.SellingPrice
		}
		if body.MinStockThreshold != nil {
			if *body.MinStockThreshold < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Minimum stok eşiği negatif olamaz")
			}
			p.MinStockThreshold = *body.MinStockThreshold
		}
		if body.IsActive != nil {
			p.IsActive = *body.IsActive
		}

		// CurrentStock bu endpoint'ten asla güncellenmez; stok değişiklikleri
		// sadece satış/alım/düzeltme üzerinden yapılır.
		if err := database.DB.Model(&p).Select(
			"barcode", "name", "description", "category_id", "unit",
			"cost_price", "selling_price", "min_stock_threshold", "is_active",
		).Updates(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün güncellenemedi")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: orgID,
			UserID:         userID,
			UserName:       auth.CurrentUserName(c),
			EntityType:     "product",
			EntityID:       p.ID,
			Action:         models.AuditActionUpdate,
			Description:    "Ürün güncellendi: " + p.Name,
			Before:         before,
			After:          p,
		})

		return c.JSON(toProductResponse(&p))
	}
}

// DELETE /api/products/:id (owner, manager) — soft delete, ürün pasife çekilir.
// Hareket defteri geçmişi bozulmasın diye kayıt fiziksel silinmez.
func DeleteProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)
		userID := auth.CurrentUserID(c)

		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ürün ID")
		}

		var p models.Product
		if err := database.DB.First(&p, "id = ? AND organization_id = ?", id, orgID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		if err := database.DB.Model(&p).Update("is_active", false).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün silinemedi")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: orgID,
			UserID:         userID,
			UserName:       auth.CurrentUserName(c),
			EntityType:     "product",
			EntityID:       p.ID,
			Action:         models.AuditActionDelete,
			Description:    "Ürün pasife alındı: " + p.Name,
			Before:         p,
		})

		return c.JSON(fiber.Map{"message": "Ürün pasife alındı"})
	}
}
