package inventory

import (
	"bakkal-backend/internal/audit"
	"bakkal-backend/internal/auth"
	"bakkal-backend/internal/database"
	"bakkal-backend/internal/models"
	"bakkal-backend/internal/notification"
	"bakkal-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AdjustStockRequest struct {
	ProductID      uuid.UUID `json:"product_id"`
	Quantity       int       `json:"quantity"`
	AdjustmentType string    `json:"adjustment_type"` // increase | decrease
	Reason         string    `json:"reason"`
	Notes          string    `json:"notes"`
	IdempotencyKey string    `json:"idempotency_key"`
}

// POST /api/stock-adjustments (owner, manager)
func AdjustStockHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)
		userID := auth.CurrentUserID(c)

		var body AdjustStockRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		result, err := stock.Default().AdjustStock(orgID, userID, stock.AdjustInput{
			ProductID:      body.ProductID,
			Quantity:       body.Quantity,
			AdjustmentType: body.AdjustmentType,
			Reason:         models.AdjustmentReason(body.Reason),
			Notes:          body.Notes,
			IdempotencyKey: body.IdempotencyKey,
		})
		if err != nil {
			return err
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: orgID,
			UserID:         userID,
			UserName:       auth.CurrentUserName(c),
			EntityType:     "stock_adjustment",
			EntityID:       result.MovementID,
			Action:         models.AuditActionCreate,
			Description:    "Stok düzeltmesi: " + body.Reason,
			After:          result,
		})

		// Düşüşlerde stok seviyesi bildirimi kontrol edilir
		var p models.Product
		if err := database.DB.First(&p, "id = ?", body.ProductID).Error; err == nil {
			notification.CheckStockLevel(orgID, &p, result.NewStock)
		}

		return c.Status(fiber.StatusCreated).JSON(result)
	}
}
