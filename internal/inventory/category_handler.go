package inventory

import (
	"strings"

	"bakkal-backend/internal/auth"
	"bakkal-backend/internal/database"
	"bakkal-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// GET /api/categories
func ListCategoriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)

		var categories []models.Category
		if err := database.DB.Where("organization_id = ?", orgID).
			Order("name asc").Find(&categories).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategoriler listelenemedi")
		}
		return c.JSON(categories)
	}
}

// POST /api/categories (owner, manager)
func CreateCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)

		var body CategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Kategori adı zorunlu")
		}

		var count int64
		database.DB.Model(&models.Category{}).
			Where("organization_id = ? AND name = ?", orgID, body.Name).
			Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "Bu isimde kategori zaten var")
		}

		cat := models.Category{
			OrganizationID: orgID,
			Name:           body.Name,
			Description:    body.Description,
		}
		if err := database.DB.Create(&cat).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori oluşturulamadı")
		}
		return c.Status(fiber.StatusCreated).JSON(cat)
	}
}

// PUT /api/categories/:id (owner, manager)
func UpdateCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)

		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kategori ID")
		}

		var cat models.Category
		if err := database.DB.First(&cat, "id = ? AND organization_id = ?", id, orgID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kategori bulunamadı")
		}

		var body CategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Kategori adı zorunlu")
		}

		cat.Name = body.Name
		cat.Description = body.Description
		if err := database.DB.Save(&cat).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori güncellenemedi")
		}
		return c.JSON(cat)
	}
}

// DELETE /api/categories/:id (owner, manager)
func DeleteCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)

		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kategori ID")
		}

		var cat models.Category
		if err := database.DB.First(&cat, "id = ? AND organization_id = ?", id, orgID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kategori bulunamadı")
		}

		// Kategoriye bağlı ürün varsa silinemez
		var count int64
		database.DB.Model(&models.Product{}).Where("category_id = ?", cat.ID).Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "Bu kategoriye bağlı ürünler var, önce onları taşıyın")
		}

		if err := database.DB.Delete(&cat).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori silinemedi")
		}
		return c.JSON(fiber.Map{"message": "Kategori silindi"})
	}
}
