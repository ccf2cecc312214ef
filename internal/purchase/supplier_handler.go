package purchase

import (
	"strings"

	"bakkal-backend/internal/auth"
	"bakkal-backend/internal/database"
	"bakkal-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type SupplierRequest struct {
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	TaxID         string `json:"tax_id"`
	Notes         string `json:"notes"`
}

// GET /api/suppliers
func ListSuppliersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)

		dbq := database.DB.Where("organization_id = ?", orgID)
		if c.Query("include_inactive") != "true" {
			dbq = dbq.Where("is_active = ?", true)
		}

		var suppliers []models.Supplier
		if err := dbq.Order("name asc").Find(&suppliers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçiler listelenemedi")
		}
		return c.JSON(suppliers)
	}
}

// POST /api/suppliers (owner, manager)
func CreateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)

		var body SupplierRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Tedarikçi adı zorunlu")
		}

		s := models.Supplier{
			OrganizationID: orgID,
			Name:           body.Name,
			ContactPerson:  body.ContactPerson,
			Email:          strings.TrimSpace(strings.ToLower(body.Email)),
			Phone:          body.Phone,
			Address:        body.Address,
			TaxID:          body.TaxID,
			Notes:          body.Notes,
			IsActive:       true,
		}
		if err := database.DB.Create(&s).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçi oluşturulamadı")
		}
		return c.Status(fiber.StatusCreated).JSON(s)
	}
}

// PUT /api/suppliers/:id (owner, manager)
func UpdateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)

		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz tedarikçi ID")
		}

		var s models.Supplier
		if err := database.DB.First(&s, "id = ? AND organization_id = ?", id, orgID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Tedarikçi bulunamadı")
		}

		var body SupplierRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Tedarikçi adı zorunlu")
		}

		s.Name = body.Name
		s.ContactPerson = body.ContactPerson
		s.Email = strings.TrimSpace(strings.ToLower(body.Email))
		s.Phone = body.Phone
		s.Address = body.Address
		s.TaxID = body.TaxID
		s.Notes = body.Notes

		if err := database.DB.Save(&s).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçi güncellenemedi")
		}
		return c.JSON(s)
	}
}

// DELETE /api/suppliers/:id (owner, manager) — soft delete.
func DeleteSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)

		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz tedarikçi ID")
		}

		res := database.DB.Model(&models.Supplier{}).
			Where("id = ? AND organization_id = ?", id, orgID).
			Update("is_active", false)
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçi silinemedi")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "Tedarikçi bulunamadı")
		}
		return c.JSON(fiber.Map{"message": "Tedarikçi pasife alındı"})
	}
}
