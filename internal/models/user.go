package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleOwner    UserRole = "owner"    // dükkan sahibi
	RoleManager  UserRole = "manager"  // yönetici
	RoleEmployee UserRole = "employee" // kasiyer/personel
)

type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null"`
	Organization   Organization
	Name           string   `gorm:"size:100;not null"`
	Email          string   `gorm:"size:100;uniqueIndex;not null"`
	PasswordHash   string   `gorm:"size:255;not null"`
	Role           UserRole `gorm:"size:20;not null"`
	IsActive       bool     `gorm:"not null;default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
