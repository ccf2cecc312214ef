package admin

import (
	"strings"

	"bakkal-backend/internal/auth"
	"bakkal-backend/internal/database"
	"bakkal-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"` // manager | employee
}

type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
	Password *string `json:"password"`
}

type UserResponse struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Role     models.UserRole `json:"role"`
	IsActive bool            `json:"is_active"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Role:     u.Role,
		IsActive: u.IsActive,
	}
}

// GET /api/admin/users (owner)
func ListUsersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)

		var users []models.User
		if err := database.DB.Where("organization_id = ?", orgID).
			Order("created_at asc").Find(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcılar listelenemedi")
		}

		res := make([]UserResponse, 0, len(users))
		for i := range users {
			res = append(res, toUserResponse(&users[i]))
		}
		return c.JSON(res)
	}
}

// POST /api/admin/users (owner) — owner yeni owner oluşturamaz.
func CreateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)

		var body CreateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		body.Name = strings.TrimSpace(body.Name)
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		if body.Name == "" || body.Email == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "İsim, email ve şifre zorunlu")
		}
		if len(body.Password) < 8 {
			return fiber.NewError(fiber.StatusBadRequest, "Şifre en az 8 karakter olmalı")
		}

		role := models.UserRole(body.Role)
		if role != models.RoleManager && role != models.RoleEmployee {
			return fiber.NewError(fiber.StatusBadRequest, "Rol manager veya employee olmalı")
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

		user := models.User{
			OrganizationID: orgID,
			Name:           body.Name,
			Email:          body.Email,
			PasswordHash:   string(hash),
			Role:           role,
			IsActive:       true,
		}
		if err := database.DB.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(toUserResponse(&user))
	}
}

// PUT /api/admin/users/:id (owner)
func UpdateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)
		currentUserID := auth.CurrentUserID(c)

		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kullanıcı ID")
		}

		var user models.User
		if err := database.DB.First(&user, "id = ? AND organization_id = ?", id, orgID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kullanıcı bulunamadı")
		}

		var body UpdateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "İsim boş olamaz")
			}
			user.Name = name
		}
		if body.Role != nil {
			if user.Role == models.RoleOwner {
				return fiber.NewError(fiber.StatusBadRequest, "Owner rolü değiştirilemez")
			}
			role := models.UserRole(*body.Role)
			if role != models.RoleManager && role != models.RoleEmployee {
				return fiber.NewError(fiber.StatusBadRequest, "Rol manager veya employee olmalı")
			}
			user.Role = role
		}
		if body.IsActive != nil {
			if user.ID == currentUserID && !*body.IsActive {
				return fiber.NewError(fiber.StatusBadRequest, "Kendi hesabınızı devre dışı bırakamazsınız")
			}
			if user.Role == models.RoleOwner && !*body.IsActive {
				return fiber.NewError(fiber.StatusBadRequest, "Owner hesabı devre dışı bırakılamaz")
			}
			user.IsActive = *body.IsActive
		}
		if body.Password != nil {
			if len(*body.Password) < 8 {
				return fiber.NewError(fiber.StatusBadRequest, "Şifre en az 8 karakter olmalı")
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(*body.Password), bcrypt.DefaultCost)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Şifre hashlenemedi")
			}
			user.PasswordHash = string(hash)
		}

		if err := database.DB.Save(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı güncellenemedi")
		}
		return c.JSON(toUserResponse(&user))
	}
}
