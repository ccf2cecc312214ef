package auth

import (
	"strings"

	"bakkal-backend/internal/config"
	"bakkal-backend/internal/database"
	"bakkal-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterRequest struct {
	OrganizationName string `json:"organization_name"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterHandler: Yeni dükkan kaydı. Organizasyon ve owner kullanıcı
// tek transaction'da oluşturulur.
func RegisterHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		body.Name = strings.TrimSpace(body.Name)
		body.OrganizationName = strings.TrimSpace(body.OrganizationName)

		if body.OrganizationName == "" || body.Name == "" || body.Email == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Dükkan adı, isim, email ve şifre zorunlu")
		}
		if len(body.Password) < 8 {
			return fiber.NewError(fiber.StatusBadRequest, "Şifre en az 8 karakter olmalı")
		}

		var count int64
		database.DB.Model(&models.User{}).Where("email = ?", body.Email).Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "Bu email ile kayıtlı kullanıcı zaten var")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şifre hashlenemedi")
		}

		org := models.Organization{Name: body.OrganizationName}
		user := models.User{
			Name:         body.Name,
			Email:        body.Email,
			PasswordHash: string(hash),
			Role:         models.RoleOwner,
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&org).Error; err != nil {
				return err
			}
			user.OrganizationID = org.ID
			return tx.Create(&user).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kayıt oluşturulamadı")
		}

		token, err := GenerateToken(cfg.JWTSecret, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Token oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"token": token,
			"user": fiber.Map{
				"id":              user.ID,
				"name":            user.Name,
				"email":           user.Email,
				"role":            user.Role,
				"organization_id": org.ID,
			},
			"organization": fiber.Map{
				"id":   org.ID,
				"name": org.Name,
			},
		})
	}
}

func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var user models.User
		if err := database.DB.Where("email = ?", body.Email).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Email veya şifre hatalı")
		}

		if !user.IsActive {
			return fiber.NewError(fiber.StatusUnauthorized, "Hesabınız devre dışı bırakılmış")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Email veya şifre hatalı")
		}

		token, err := GenerateToken(cfg.JWTSecret, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Token oluşturulamadı")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user": fiber.Map{
				"id":              user.ID,
				"name":            user.Name,
				"email":           user.Email,
				"role":            user.Role,
				"organization_id": user.OrganizationID,
			},
		})
	}
}

func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := CurrentUserID(c)

		var user models.User
		if err := database.DB.Preload("Organization").First(&user, "id = ?", userID).Error; err != nil {
			// Fallback: veritabanından çekilemezse locals'dan döndür
			return c.JSON(fiber.Map{
				"user_id":         userID,
				"role":            c.Locals(CtxUserRoleKey),
				"organization_id": c.Locals(CtxOrgIDKey),
			})
		}

		return c.JSON(fiber.Map{
			"user_id":         user.ID,
			"name":            user.Name,
			"email":           user.Email,
			"role":            user.Role,
			"organization_id": user.OrganizationID,
			"organization": fiber.Map{
				"id":       user.Organization.ID,
				"name":     user.Organization.Name,
				"currency": user.Organization.Currency,
			},
		})
	}
}
