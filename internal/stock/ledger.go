package stock

import (
	"bakkal-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// movementIntent: Deftere yazılacak tek bir stok hareketi. previous/new
// değerlerini koordinatör hesaplar; defter sadece kaydeder.
type movementIntent struct {
	OrganizationID uuid.UUID
	ProductID      uuid.UUID
	Type           models.MovementType
	Quantity       int // işaretli: pozitif giriş, negatif çıkış
	PreviousStock  int
	NewStock       int
	UnitCost       *decimal.Decimal
	ReferenceID    *uuid.UUID
	Reason         models.AdjustmentReason
	Notes          string
	PerformedBy    uuid.UUID
}

// appendMovement: Deftere tek bir değişmez satır ekler.
func appendMovement(tx *gorm.DB, intent movementIntent) (*models.StockMovement, error) {
	if intent.Quantity == 0 {
		return nil, validationErrorf("stok hareketi miktarı sıfır olamaz")
	}
	if !models.ValidMovementType(intent.Type) {
		return nil, validationErrorf("geçersiz hareket tipi: %s", intent.Type)
	}

	movement := models.StockMovement{
		OrganizationID: intent.OrganizationID,
		ProductID:      intent.ProductID,
		MovementType:   intent.Type,
		Quantity:       intent.Quantity,
		PreviousStock:  intent.PreviousStock,
		NewStock:       intent.NewStock,
		UnitCost:       intent.UnitCost,
		ReferenceID:    intent.ReferenceID,
		Reason:         intent.Reason,
		Notes:          intent.Notes,
		PerformedBy:    intent.PerformedBy,
	}

	if err := tx.Create(&movement).Error; err != nil {
		return nil, &TransientError{Err: err}
	}
	return &movement, nil
}
