package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Category struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_categories_org_name"`
	Name           string    `gorm:"size:100;not null;uniqueIndex:idx_categories_org_name"`
	Description    string    `gorm:"size:255"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Product struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_products_org_sku"`
	SKU            string    `gorm:"size:50;not null;uniqueIndex:idx_products_org_sku"`
	Barcode        string    `gorm:"size:50;index"`
	Name           string    `gorm:"size:100;not null"`
	Description    string    `gorm:"size:500"`
	CategoryID     *uuid.UUID `gorm:"type:uuid;index"`
	Category       *Category
	Unit           string          `gorm:"size:20;not null"` // adet, kg, koli vs.
	CostPrice      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	SellingPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	// CurrentStock: stok hareket defterinin toplamı. Sadece stok koordinatörü yazar.
	CurrentStock      int  `gorm:"not null;default:0"`
	MinStockThreshold int  `gorm:"not null;default:0"` // düşük stok uyarı eşiği
	IsActive          bool `gorm:"not null;default:true"`
	CreatedBy         *uuid.UUID `gorm:"type:uuid"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
