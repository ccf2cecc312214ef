package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationLowStock   NotificationType = "low_stock"
	NotificationOutOfStock NotificationType = "out_of_stock"
	NotificationLargeSale  NotificationType = "large_sale"
	NotificationSystem     NotificationType = "system"
)

type Notification struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID        `gorm:"type:uuid;index;not null" json:"organization_id"`
	Type           NotificationType `gorm:"size:20;index;not null" json:"type"`
	Title          string           `gorm:"size:100;not null" json:"title"`
	Message        string           `gorm:"size:255" json:"message"`
	// İlgili kayıt (ürün, satış vs.)
	ReferenceID *uuid.UUID `gorm:"type:uuid;index" json:"reference_id"`
	IsRead      bool       `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
