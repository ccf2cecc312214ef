package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentCredit   PaymentMethod = "credit" // veresiye
)

type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPartial PaymentStatus = "partial"
)

// Sale: Kasa satışı. Stok düşümleri StockMovement satırlarıyla aynı
// transaction içinde yazılır.
type Sale struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_sales_org_number"`
	SaleNumber     string    `gorm:"size:20;not null;uniqueIndex:idx_sales_org_number"` // ST-000001
	TotalAmount    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	FinalAmount    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	PaymentMethod  PaymentMethod   `gorm:"size:20;not null"`
	PaymentStatus  PaymentStatus   `gorm:"size:20;not null"`
	CustomerName   string          `gorm:"size:100"`
	Notes          string          `gorm:"size:500"`
	SoldBy         uuid.UUID       `gorm:"type:uuid;not null"`
	CreatedAt      time.Time

	Items []SaleItem `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
}

func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type SaleItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	SaleID    uuid.UUID `gorm:"type:uuid;index;not null"`
	ProductID uuid.UUID `gorm:"type:uuid;index;not null"`
	// Ürün adı satış anında sabitlenir; ürün sonradan değişse de fiş aynı kalır
	ProductName string          `gorm:"size:100;not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Subtotal    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	CreatedAt   time.Time
}

func (si *SaleItem) BeforeCreate(tx *gorm.DB) error {
	if si.ID == uuid.Nil {
		si.ID = uuid.New()
	}
	return nil
}
