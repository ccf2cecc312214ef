package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Supplier struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null"`
	Name           string    `gorm:"size:100;not null"`
	ContactPerson  string    `gorm:"size:100"`
	Email          string    `gorm:"size:100"`
	Phone          string    `gorm:"size:50"`
	Address        string    `gorm:"size:255"`
	TaxID          string    `gorm:"size:50"` // vergi no
	Notes          string    `gorm:"size:500"`
	IsActive       bool      `gorm:"not null;default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (s *Supplier) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
