package inventory

import (
	"time"

	"bakkal-backend/internal/auth"
	"bakkal-backend/internal/database"
	"bakkal-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type MovementResponse struct {
	ID            uuid.UUID               `json:"id"`
	ProductID     uuid.UUID               `json:"product_id"`
	ProductName   string                  `json:"product_name"`
	MovementType  models.MovementType     `json:"movement_type"`
	Quantity      int                     `json:"quantity"`
	PreviousStock int                     `json:"previous_stock"`
	NewStock      int                     `json:"new_stock"`
	UnitCost      *decimal.Decimal        `json:"unit_cost"`
	ReferenceID   *uuid.UUID              `json:"reference_id"`
	Reason        models.AdjustmentReason `json:"reason,omitempty"`
	Notes         string                  `json:"notes,omitempty"`
	PerformedBy   uuid.UUID               `json:"performed_by"`
	CreatedAt     string                  `json:"created_at"`
}

// GET /api/stock-movements?product_id=&movement_type=&from=&to=
func ListMovementsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)

		dbq := database.DB.Model(&models.StockMovement{}).
			Preload("Product").
			Where("organization_id = ?", orgID)

		if pidStr := c.Query("product_id"); pidStr != "" {
			pid, err := uuid.Parse(pidStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ürün ID")
			}
			dbq = dbq.Where("product_id = ?", pid)
		}
		if mt := c.Query("movement_type"); mt != "" {
			if !models.ValidMovementType(models.MovementType(mt)) {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz hareket tipi")
			}
			dbq = dbq.Where("movement_type = ?", mt)
		}
		if fromStr := c.Query("from"); fromStr != "" {
			from, err := time.Parse("2006-01-02", fromStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz başlangıç tarihi (YYYY-MM-DD)")
			}
			dbq = dbq.Where("created_at >= ?", from)
		}
		if toStr := c.Query("to"); toStr != "" {
			to, err := time.Parse("2006-01-02", toStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz bitiş tarihi (YYYY-MM-DD)")
			}
			dbq = dbq.Where("created_at < ?", to.AddDate(0, 0, 1))
		}

		var movements []models.StockMovement
		if err := dbq.Order("created_at DESC").Limit(500).Find(&movements).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Hareketler listelenemedi")
		}

		res := make([]MovementResponse, 0, len(movements))
		for _, m := range movements {
			res = append(res, MovementResponse{
				ID:            m.ID,
				ProductID:     m.ProductID,
				ProductName:   m.Product.Name,
				MovementType:  m.MovementType,
				Quantity:      m.Quantity,
				PreviousStock: m.PreviousStock,
				NewStock:      m.NewStock,
				UnitCost:      m.UnitCost,
				ReferenceID:   m.ReferenceID,
				Reason:        m.Reason,
				Notes:         m.Notes,
				PerformedBy:   m.PerformedBy,
				CreatedAt:     m.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		return c.JSON(res)
	}
}
