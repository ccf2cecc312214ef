package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MovementType string

const (
	MovementPurchase   MovementType = "purchase"
	MovementSale       MovementType = "sale"
	MovementAdjustment MovementType = "adjustment"
	MovementReturn     MovementType = "return"
)

type AdjustmentReason string

const (
	ReasonDamaged AdjustmentReason = "damaged" // hasarlı
	ReasonTheft   AdjustmentReason = "theft"   // çalıntı
	ReasonCount   AdjustmentReason = "count"   // sayım düzeltmesi
	ReasonFound   AdjustmentReason = "found"   // fazla çıktı
	ReasonExpired AdjustmentReason = "expired" // son kullanma tarihi geçti
	ReasonOther   AdjustmentReason = "other"   // diğer (not zorunlu)
)

// StockMovement: Stok hareket defteri satırı. Bir kez yazılır, asla
// güncellenmez ve silinmez; previous/new anlık görüntüleri sayesinde
// ürünün stok geçmişi bağımsız olarak yeniden hesaplanabilir.
type StockMovement struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null"`
	ProductID      uuid.UUID `gorm:"type:uuid;index;not null"`
	Product        Product
	MovementType   MovementType `gorm:"size:20;index;not null"`
	// İşaretli miktar: pozitif = stok girişi, negatif = stok çıkışı
	Quantity      int `gorm:"not null"`
	PreviousStock int `gorm:"not null"`
	NewStock      int `gorm:"not null"`
	// Alımlarda birim maliyet anlık görüntüsü
	UnitCost *decimal.Decimal `gorm:"type:numeric(12,2)"`
	// Kaynak belge (satış veya alım)
	ReferenceID *uuid.UUID       `gorm:"type:uuid;index"`
	Reason      AdjustmentReason `gorm:"size:20"` // sadece adjustment için
	Notes       string           `gorm:"size:500"`
	PerformedBy uuid.UUID        `gorm:"type:uuid;not null"`
	CreatedAt   time.Time
}

func (m *StockMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func ValidMovementType(t MovementType) bool {
	switch t {
	case MovementPurchase, MovementSale, MovementAdjustment, MovementReturn:
		return true
	}
	return false
}

func ValidAdjustmentReason(r AdjustmentReason) bool {
	switch r {
	case ReasonDamaged, ReasonTheft, ReasonCount, ReasonFound, ReasonExpired, ReasonOther:
		return true
	}
	return false
}
