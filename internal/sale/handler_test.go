package sale

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"bakkal-backend/internal/auth"
	"bakkal-backend/internal/config"
	"bakkal-backend/internal/database"
	"bakkal-backend/internal/models"
	"bakkal-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBCounter int64

type testEnv struct {
	app  *fiber.App
	db   *gorm.DB
	cfg  *config.Config
	org  *models.Organization
	user *models.User
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	n := atomic.AddInt64(&testDBCounter, 1)
	dsn := fmt.Sprintf("file:saletest%d?mode=memory&cache=shared", n)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })
	stock.Init(db)

	cfg := &config.Config{JWTSecret: "test-secret-test-secret-test-secret!"}

	org := &models.Organization{Name: "Test Bakkal", Currency: "TRY"}
	require.NoError(t, db.Create(org).Error)

	user := &models.User{
		OrganizationID: org.ID,
		Name:           "Kasiyer",
		Email:          fmt.Sprintf("kasiyer-%d@test.local", n),
		PasswordHash:   "x",
		Role:           models.RoleEmployee,
		IsActive:       true,
	}
	require.NoError(t, db.Create(user).Error)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var ie *stock.InsufficientStockError
			if errors.As(err, &ie) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"error":        ie.Error(),
					"product_id":   ie.ProductID,
					"product_name": ie.ProductName,
					"requested":    ie.Requested,
					"available":    ie.Available,
				})
			}
			if code := stock.StatusCode(err); code != 0 {
				return c.Status(code).JSON(fiber.Map{"error": err.Error()})
			}
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Beklenmeyen sunucu hatası"})
		},
	})

	api := app.Group("/api")
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))
	protected.Post("/sales", CreateSaleHandler())
	protected.Get("/sales", ListSalesHandler())
	protected.Get("/sales/:id", GetSaleHandler())
	protected.Post("/sales/:id/return", auth.RequireRole(models.RoleOwner, models.RoleManager), ReturnSaleHandler())

	return &testEnv{app: app, db: db, cfg: cfg, org: org, user: user}
}

func (e *testEnv) newProduct(t *testing.T, name string, stockQty int) *models.Product {
	t.Helper()
	p := &models.Product{
		OrganizationID: e.org.ID,
		SKU:            fmt.Sprintf("SKU-%s", name),
		Name:           name,
		Unit:           "adet",
		CostPrice:      decimal.NewFromInt(10),
		SellingPrice:   decimal.NewFromInt(25),
		CurrentStock:   stockQty,
		IsActive:       true,
	}
	require.NoError(t, e.db.Create(p).Error)
	return p
}

func (e *testEnv) request(t *testing.T, method, path string, body any, user *models.User) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		token, err := auth.GenerateToken(e.cfg.JWTSecret, user)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestCreateSaleEndpoint(t *testing.T) {
	env := setupTestEnv(t)
	product := env.newProduct(t, "Süt", 10)

	resp := env.request(t, "POST", "/api/sales", fiber.Map{
		"items":          []fiber.Map{{"product_id": product.ID, "quantity": 4}},
		"payment_method": "cash",
	}, env.user)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body SaleResponse
	decodeJSON(t, resp, &body)
	assert.Equal(t, "ST-000001", body.SaleNumber)
	assert.True(t, body.FinalAmount.Equal(decimal.NewFromInt(100)))
	require.Len(t, body.Items, 1)
	assert.Equal(t, "Süt", body.Items[0].ProductName)

	var p models.Product
	require.NoError(t, env.db.First(&p, "id = ?", product.ID).Error)
	assert.Equal(t, 6, p.CurrentStock)
}

func TestCreateSaleEndpointInsufficientStock(t *testing.T) {
	env := setupTestEnv(t)
	product := env.newProduct(t, "Ekmek", 2)

	resp := env.request(t, "POST", "/api/sales", fiber.Map{
		"items":          []fiber.Map{{"product_id": product.ID, "quantity": 5}},
		"payment_method": "cash",
	}, env.user)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var body map[string]any
	decodeJSON(t, resp, &body)
	assert.Equal(t, "Ekmek", body["product_name"])
	assert.EqualValues(t, 5, body["requested"])
	assert.EqualValues(t, 2, body["available"])

	var p models.Product
	require.NoError(t, env.db.First(&p, "id = ?", product.ID).Error)
	assert.Equal(t, 2, p.CurrentStock)
}

func TestCreateSaleEndpointInvalidPaymentMethod(t *testing.T) {
	env := setupTestEnv(t)
	product := env.newProduct(t, "Su", 10)

	resp := env.request(t, "POST", "/api/sales", fiber.Map{
		"items":          []fiber.Map{{"product_id": product.ID, "quantity": 1}},
		"payment_method": "gold",
	}, env.user)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCreateSaleEndpointRequiresAuth(t *testing.T) {
	env := setupTestEnv(t)
	resp := env.request(t, "POST", "/api/sales", fiber.Map{}, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestReturnSaleEndpointRequiresManagerRole(t *testing.T) {
	env := setupTestEnv(t)
	product := env.newProduct(t, "Kola", 10)

	var created SaleResponse
	resp := env.request(t, "POST", "/api/sales", fiber.Map{
		"items":          []fiber.Map{{"product_id": product.ID, "quantity": 2}},
		"payment_method": "card",
	}, env.user)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	decodeJSON(t, resp, &created)

	// employee iade yapamaz
	resp = env.request(t, "POST", "/api/sales/"+created.ID.String()+"/return", fiber.Map{
		"items": []fiber.Map{{"product_id": product.ID, "quantity": 1}},
	}, env.user)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	manager := &models.User{
		OrganizationID: env.org.ID,
		Name:           "Müdür",
		Email:          fmt.Sprintf("mudur-%s@test.local", created.ID.String()[:8]),
		PasswordHash:   "x",
		Role:           models.RoleManager,
		IsActive:       true,
	}
	require.NoError(t, env.db.Create(manager).Error)

	resp = env.request(t, "POST", "/api/sales/"+created.ID.String()+"/return", fiber.Map{
		"items": []fiber.Map{{"product_id": product.ID, "quantity": 1}},
	}, manager)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var p models.Product
	require.NoError(t, env.db.First(&p, "id = ?", product.ID).Error)
	assert.Equal(t, 9, p.CurrentStock)
}

func TestGetSaleEndpointOrgIsolation(t *testing.T) {
	env := setupTestEnv(t)
	product := env.newProduct(t, "Makarna", 10)

	var created SaleResponse
	resp := env.request(t, "POST", "/api/sales", fiber.Map{
		"items":          []fiber.Map{{"product_id": product.ID, "quantity": 1}},
		"payment_method": "cash",
	}, env.user)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	decodeJSON(t, resp, &created)

	otherOrg := &models.Organization{Name: "Başka Bakkal", Currency: "TRY"}
	require.NoError(t, env.db.Create(otherOrg).Error)
	otherUser := &models.User{
		OrganizationID: otherOrg.ID,
		Name:           "Yabancı",
		Email:          fmt.Sprintf("yabanci-%s@test.local", created.ID.String()[:8]),
		PasswordHash:   "x",
		Role:           models.RoleOwner,
		IsActive:       true,
	}
	require.NoError(t, env.db.Create(otherUser).Error)

	resp = env.request(t, "GET", "/api/sales/"+created.ID.String(), nil, otherUser)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = env.request(t, "GET", "/api/sales/"+created.ID.String(), nil, env.user)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
