package admin

import (
	"strings"

	"bakkal-backend/internal/auth"
	"bakkal-backend/internal/database"
	"bakkal-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type UpdateOrganizationRequest struct {
	Name               *string          `json:"name"`
	Address            *string          `json:"address"`
	Phone              *string          `json:"phone"`
	Currency           *string          `json:"currency"`
	LargeSaleThreshold *decimal.Decimal `json:"large_sale_threshold"`
}

// GET /api/admin/organization (owner)
func GetOrganizationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)

		var org models.Organization
		if err := database.DB.First(&org, "id = ?", orgID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Organizasyon bulunamadı")
		}
		return c.JSON(org)
	}
}

// PUT /api/admin/organization (owner)
func UpdateOrganizationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)

		var org models.Organization
		if err := database.DB.First(&org, "id = ?", orgID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Organizasyon bulunamadı")
		}

		var body UpdateOrganizationRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Dükkan adı boş olamaz")
			}
			org.Name = name
		}
		if body.Address != nil {
			org.Address = *body.Address
		}
		if body.Phone != nil {
			org.Phone = *body.Phone
		}
		if body.Currency != nil {
			currency := strings.TrimSpace(strings.ToUpper(*body.Currency))
			if len(currency) != 3 {
				return fiber.NewError(fiber.StatusBadRequest, "Para birimi 3 harfli kod olmalı (TRY, USD vs.)")
			}
			org.Currency = currency
		}
		if body.LargeSaleThreshold != nil {
			if body.LargeSaleThreshold.IsNegative() {
				return fiber.NewError(fiber.StatusBadRequest, "Büyük satış eşiği negatif olamaz")
			}
			org.LargeSaleThreshold = *body.LargeSaleThreshold
		}

		if err := database.DB.Save(&org).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Organizasyon güncellenemedi")
		}
		return c.JSON(org)
	}
}
