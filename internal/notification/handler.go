package notification

import (
	"bakkal-backend/internal/auth"
	"bakkal-backend/internal/database"
	"bakkal-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// GET /api/notifications?unread_only=true
func ListNotificationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)

		dbq := database.DB.Model(&models.Notification{}).Where("organization_id = ?", orgID)
		if c.Query("unread_only") == "true" {
			dbq = dbq.Where("is_read = ?", false)
		}
		if t := c.Query("type"); t != "" {
			dbq = dbq.Where("type = ?", t)
		}

		var notifications []models.Notification
		if err := dbq.Order("created_at DESC").Limit(100).Find(&notifications).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bildirimler listelenemedi")
		}
		return c.JSON(notifications)
	}
}

// GET /api/notifications/unread-count
func UnreadCountHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)

		var count int64
		if err := database.DB.Model(&models.Notification{}).
			Where("organization_id = ? AND is_read = ?", orgID, false).
			Count(&count).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bildirim sayısı alınamadı")
		}
		return c.JSON(fiber.Map{"count": count})
	}
}

// PUT /api/notifications/:id/read
func MarkReadHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)

		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz bildirim ID")
		}

		res := database.DB.Model(&models.Notification{}).
			Where("id = ? AND organization_id = ?", id, orgID).
			Update("is_read", true)
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bildirim güncellenemedi")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "Bildirim bulunamadı")
		}
		return c.JSON(fiber.Map{"message": "Bildirim okundu olarak işaretlendi"})
	}
}

// PUT /api/notifications/read-all
func MarkAllReadHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)

		if err := database.DB.Model(&models.Notification{}).
			Where("organization_id = ? AND is_read = ?", orgID, false).
			Update("is_read", true).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bildirimler güncellenemedi")
		}
		return c.JSON(fiber.Map{"message": "Tüm bildirimler okundu olarak işaretlendi"})
	}
}
