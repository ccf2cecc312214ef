package stock

import (
	"fmt"
	"sync/atomic"
	"testing"

	"bakkal-backend/internal/database"
	"bakkal-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBCounter int64

// newTestDB: Her test için izole in-memory sqlite. Tek bağlantıya
// sabitlenir; eşzamanlılık koordinatörün kilitleriyle test edilir,
// sqlite'ın kendi kilidiyle değil.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := atomic.AddInt64(&testDBCounter, 1)
	dsn := fmt.Sprintf("file:stocktest%d?mode=memory&cache=shared", n)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func newTestOrg(t *testing.T, db *gorm.DB) *models.Organization {
	t.Helper()
	org := &models.Organization{Name: "Test Bakkal", Currency: "TRY"}
	require.NoError(t, db.Create(org).Error)
	return org
}

func newTestUser(t *testing.T, db *gorm.DB, orgID uuid.UUID) *models.User {
	t.Helper()
	user := &models.User{
		OrganizationID: orgID,
		Name:           "Test Kasiyer",
		Email:          fmt.Sprintf("kasiyer-%s@test.local", uuid.NewString()[:8]),
		PasswordHash:   "x",
		Role:           models.RoleEmployee,
		IsActive:       true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func newTestProduct(t *testing.T, db *gorm.DB, orgID uuid.UUID, name string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		OrganizationID: orgID,
		SKU:            fmt.Sprintf("SKU-%s", uuid.NewString()[:8]),
		Name:           name,
		Unit:           "adet",
		CostPrice:      decimal.NewFromInt(10),
		SellingPrice:   decimal.NewFromInt(15),
		CurrentStock:   stock,
		IsActive:       true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func currentStock(t *testing.T, db *gorm.DB, productID uuid.UUID) int {
	t.Helper()
	var p models.Product
	require.NoError(t, db.First(&p, "id = ?", productID).Error)
	return p.CurrentStock
}

// ledgerSum: Ürünün defterindeki işaretli miktarların toplamı.
func ledgerSum(t *testing.T, db *gorm.DB, productID uuid.UUID) int {
	t.Helper()
	var sum int64
	require.NoError(t, db.Model(&models.StockMovement{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&sum).Error)
	return int(sum)
}

func movementCount(t *testing.T, db *gorm.DB, productID uuid.UUID) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.StockMovement{}).
		Where("product_id = ?", productID).
		Count(&count).Error)
	return count
}
