package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Organization: Her dükkan kendi organizasyonu altında çalışır; tüm
// kayıtlar organization_id ile ayrışır.
type Organization struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name     string    `gorm:"size:100;not null"`
	Address  string    `gorm:"size:255"`
	Phone    string    `gorm:"size:50"`
	Currency string    `gorm:"size:10;not null;default:'TRY'"`
	// LargeSaleThreshold: Bu tutarı aşan satışlar bildirim üretir. 0 = kapalı.
	LargeSaleThreshold decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
