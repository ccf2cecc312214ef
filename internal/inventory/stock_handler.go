package inventory

import (
	"bakkal-backend/internal/auth"
	"bakkal-backend/internal/database"
	"bakkal-backend/internal/models"
	"bakkal-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type StockStatusResponse struct {
	ProductID         uuid.UUID `json:"product_id"`
	SKU               string    `json:"sku"`
	Name              string    `json:"name"`
	Unit              string    `json:"unit"`
	CurrentStock      int       `json:"current_stock"`
	MinStockThreshold int       `json:"min_stock_threshold"`
	Status            string    `json:"status"` // ok | low | out
}

func stockStatus(current, threshold int) string {
	switch {
	case current <= 0:
		return "out"
	case threshold > 0 && current <= threshold:
		return "low"
	default:
		return "ok"
	}
}

// GET /api/stock/current?status=low
func CurrentStockHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)

		var products []models.Product
		if err := database.DB.Where("organization_id = ? AND is_active = ?", orgID, true).
			Order("name asc").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok durumu listelenemedi")
		}

		filter := c.Query("status")
		res := make([]StockStatusResponse, 0, len(products))
		for _, p := range products {
			status := stockStatus(p.CurrentStock, p.MinStockThreshold)
			if filter != "" && filter != status {
				continue
			}
			res = append(res, StockStatusResponse{
				ProductID:         p.ID,
				SKU:               p.SKU,
				Name:              p.Name,
				Unit:              p.Unit,
				CurrentStock:      p.CurrentStock,
				MinStockThreshold: p.MinStockThreshold,
				Status:            status,
			})
		}
		return c.JSON(res)
	}
}

// GET /api/stock/current/:product_id
func ProductStockHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)

		id, err := uuid.Parse(c.Params("product_id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ürün ID")
		}

		current, err := stock.Default().Read(orgID, id)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"product_id":    id,
			"current_stock": current,
		})
	}
}
