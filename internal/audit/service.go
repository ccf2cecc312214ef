package audit

import (
	"encoding/json"
	"fmt"

	"bakkal-backend/internal/database"
	"bakkal-backend/internal/models"

	"github.com/google/uuid"
)

type LogOptions struct {
	OrganizationID uuid.UUID
	UserID         uuid.UUID
	UserName       string
	EntityType     string
	EntityID       uuid.UUID
	Action         models.AuditAction
	Description    string
	Before         any
	After          any
}

func WriteLog(opts LogOptions) error {
	// PostgreSQL jsonb için boş string yerine "null" JSON string'i kullanmalıyız
	beforeStr := "null"
	afterStr := "null"

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	log := models.AuditLog{
		OrganizationID: opts.OrganizationID,
		UserID:         opts.UserID,
		UserName:       opts.UserName,
		EntityType:     opts.EntityType,
		EntityID:       opts.EntityID,
		Action:         opts.Action,
		Description:    opts.Description,
		BeforeData:     beforeStr,
		AfterData:      afterStr,
	}

	if err := database.DB.Create(&log).Error; err != nil {
		return fmt.Errorf("audit log kaydedilemedi: %w", err)
	}

	return nil
}
