package notification

import (
	"fmt"
	"log"

	"bakkal-backend/internal/database"
	"bakkal-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckStockLevel: Stok değiştiren işlemden SONRA çağrılır; yeni stok
// seviyesine göre low_stock / out_of_stock bildirimi üretir. Aynı ürün için
// okunmamış aynı tip bildirim varsa tekrar üretilmez.
func CheckStockLevel(orgID uuid.UUID, product *models.Product, newStock int) {
	var (
		ntype   models.NotificationType
		title   string
		message string
	)

	switch {
	case newStock <= 0:
		ntype = models.NotificationOutOfStock
		title = "Stok tükendi"
		message = fmt.Sprintf("%s stokta kalmadı", product.Name)
	case product.MinStockThreshold > 0 && newStock <= product.MinStockThreshold:
		ntype = models.NotificationLowStock
		title = "Düşük stok uyarısı"
		message = fmt.Sprintf("%s stoğu %d adede düştü (eşik: %d)", product.Name, newStock, product.MinStockThreshold)
	default:
		return
	}

	// Okunmamış aynı bildirim varsa çoğaltma
	var count int64
	database.DB.Model(&models.Notification{}).
		Where("organization_id = ? AND type = ? AND reference_id = ? AND is_read = ?", orgID, ntype, product.ID, false).
		Count(&count)
	if count > 0 {
		return
	}

	n := models.Notification{
		OrganizationID: orgID,
		Type:           ntype,
		Title:          title,
		Message:        message,
		ReferenceID:    &product.ID,
	}
	if err := database.DB.Create(&n).Error; err != nil {
		log.Printf("[WARN] Bildirim kaydedilemedi: %v", err)
	}
}

// CheckLargeSale: Organizasyonun eşiğini aşan satışlar için bildirim üretir.
// Eşik 0 ise özellik kapalıdır.
func CheckLargeSale(orgID uuid.UUID, sale *models.Sale) {
	var org models.Organization
	if err := database.DB.First(&org, "id = ?", orgID).Error; err != nil {
		return
	}
	if org.LargeSaleThreshold.LessThanOrEqual(decimal.Zero) {
		return
	}
	if sale.FinalAmount.LessThan(org.LargeSaleThreshold) {
		return
	}

	n := models.Notification{
		OrganizationID: orgID,
		Type:           models.NotificationLargeSale,
		Title:          "Büyük satış",
		Message:        fmt.Sprintf("%s numaralı satış %s %s tutarında", sale.SaleNumber, sale.FinalAmount.StringFixed(2), org.Currency),
		ReferenceID:    &sale.ID,
	}
	if err := database.DB.Create(&n).Error; err != nil {
		log.Printf("[WARN] Bildirim kaydedilemedi: %v", err)
	}
}
