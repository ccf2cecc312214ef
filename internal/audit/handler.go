package audit

import (
	"bakkal-backend/internal/auth"
	"bakkal-backend/internal/database"
	"bakkal-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AuditLogResponse struct {
	ID          uuid.UUID          `json:"id"`
	CreatedAt   string             `json:"created_at"`
	UserID      uuid.UUID          `json:"user_id"`
	UserName    string             `json:"user_name"`
	EntityType  string             `json:"entity_type"`
	EntityID    uuid.UUID          `json:"entity_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
	BeforeData  string             `json:"before_data"`
	AfterData   string             `json:"after_data"`
}

// GET /api/audit-logs?entity_type=product&entity_id=<uuid>&user_id=<uuid>
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)

		dbq := database.DB.Model(&models.AuditLog{}).Where("organization_id = ?", orgID)

		if entityType := c.Query("entity_type"); entityType != "" {
			dbq = dbq.Where("entity_type = ?", entityType)
		}
		if eidStr := c.Query("entity_id"); eidStr != "" {
			if eid, err := uuid.Parse(eidStr); err == nil {
				dbq = dbq.Where("entity_id = ?", eid)
			}
		}
		if uidStr := c.Query("user_id"); uidStr != "" {
			if uid, err := uuid.Parse(uidStr); err == nil {
				dbq = dbq.Where("user_id = ?", uid)
			}
		}

		var logs []models.AuditLog
		if err := dbq.Order("created_at DESC").Limit(200).Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Loglar listelenemedi")
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, log := range logs {
			resp = append(resp, AuditLogResponse{
				ID:          log.ID,
				CreatedAt:   log.CreatedAt.Format("2006-01-02 15:04:05"),
				UserID:      log.UserID,
				UserName:    log.UserName,
				EntityType:  log.EntityType,
				EntityID:    log.EntityID,
				Action:      log.Action,
				Description: log.Description,
				BeforeData:  log.BeforeData,
				AfterData:   log.AfterData,
			})
		}

		return c.JSON(resp)
	}
}
