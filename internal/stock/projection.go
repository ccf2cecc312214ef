package stock

import (
	"errors"

	"bakkal-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// loadProduct: Ürünü yükler ve organizasyon sınırını doğrular. Başka
// organizasyonun ürünü ForbiddenError ile reddedilir.
func loadProduct(tx *gorm.DB, orgID, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := tx.First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{What: "ürün"}
		}
		return nil, &TransientError{Err: err}
	}
	if product.OrganizationID != orgID {
		return nil, &ForbiddenError{Message: "bu ürüne erişim yetkiniz yok"}
	}
	return &product, nil
}

// compareAndSetStock: current_stock değerini yalnızca hala expected ise
// günceller. Kilit altında expected her zaman tutmalı; tutmuyorsa başka bir
// yazar araya girmiş demektir ve işlem sessiz veri kaybı yerine
// ConflictError ile iptal edilir.
func compareAndSetStock(tx *gorm.DB, productID uuid.UUID, expected, next int) error {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND current_stock = ?", productID, expected).
		Update("current_stock", next)
	if res.Error != nil {
		return &TransientError{Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return &ConflictError{Message: "stok eşzamanlı olarak değişti, işlem uygulanmadı"}
	}
	return nil
}
