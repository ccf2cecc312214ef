package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Purchase: Tedarikçi alımı. Oluşturulduğunda stok değişmez;
// mal teslim alındığında (IsReceived) stok koordinatörü girişleri yazar.
type Purchase struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_purchases_org_number"`
	PurchaseNumber string    `gorm:"size:20;not null;uniqueIndex:idx_purchases_org_number"` // AL-000001
	SupplierID     *uuid.UUID `gorm:"type:uuid;index"`
	Supplier       *Supplier
	TotalAmount    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	PaymentStatus  PaymentStatus   `gorm:"size:20;not null"`
	AmountPaid     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	InvoiceNumber  string          `gorm:"size:50"`
	IsReceived     bool            `gorm:"not null;default:false"` // stoka işlendi mi?
	ReceivedAt     *time.Time
	Notes          string    `gorm:"size:500"`
	CreatedBy      uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Items []PurchaseItem `gorm:"foreignKey:PurchaseID;constraint:OnDelete:CASCADE"`
}

func (p *Purchase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type PurchaseItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	PurchaseID uuid.UUID `gorm:"type:uuid;index;not null"`
	ProductID  uuid.UUID `gorm:"type:uuid;index;not null"`
	Product    Product
	Quantity   int             `gorm:"not null"`
	UnitCost   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Subtotal   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	CreatedAt  time.Time
}

func (pi *PurchaseItem) BeforeCreate(tx *gorm.DB) error {
	if pi.ID == uuid.Nil {
		pi.ID = uuid.New()
	}
	return nil
}
