package database

import (
	"log"

	"bakkal-backend/internal/config"
	"bakkal-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	// TranslateError: unique index ihlalleri sürücüden bağımsız olarak
	// gorm.ErrDuplicatedKey'e çevrilir (belge numarası çakışmalarında gerekli)
	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("AutoMigrate hatası: %v", err)
	}

	log.Println("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
}

// Migrate: Tüm tabloları oluşturur/günceller. Testler aynı listeyi
// sqlite üzerinde kullanır.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Organization{},
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.Supplier{},
		&models.Sale{},
		&models.SaleItem{},
		&models.Purchase{},
		&models.PurchaseItem{},
		&models.StockMovement{},
		&models.Notification{},
		&models.AuditLog{},
		&models.IdempotencyKey{},
	)
}
