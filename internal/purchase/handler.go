package purchase

import (
	"errors"
	"strings"
	"time"

	"bakkal-backend/internal/audit"
	"bakkal-backend/internal/auth"
	"bakkal-backend/internal/database"
	"bakkal-backend/internal/models"
	"bakkal-backend/internal/notification"
	"bakkal-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PurchaseItemRequest struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

type CreatePurchaseRequest struct {
	SupplierID    *uuid.UUID            `json:"supplier_id"`
	InvoiceNumber string                `json:"invoice_number"`
	PaymentStatus string                `json:"payment_status"`
	Notes         string                `json:"notes"`
	Items         []PurchaseItemRequest `json:"items"`
}

type PayPurchaseRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type PurchaseItemResponse struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type PurchaseResponse struct {
	ID             uuid.UUID              `json:"id"`
	PurchaseNumber string                 `json:"purchase_number"`
	SupplierID     *uuid.UUID             `json:"supplier_id"`
	SupplierName   string                 `json:"supplier_name,omitempty"`
	TotalAmount    decimal.Decimal        `json:"total_amount"`
	AmountPaid     decimal.Decimal        `json:"amount_paid"`
	PaymentStatus  models.PaymentStatus   `json:"payment_status"`
	InvoiceNumber  string                 `json:"invoice_number,omitempty"`
	IsReceived     bool                   `json:"is_received"`
	ReceivedAt     *string                `json:"received_at"`
	Notes          string                 `json:"notes,omitempty"`
	CreatedAt      string                 `json:"created_at"`
	Items          []PurchaseItemResponse `json:"items"`
}

func toPurchaseResponse(p *models.Purchase) PurchaseResponse {
	items := make([]PurchaseItemResponse, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, PurchaseItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.Product.Name,
			Quantity:    it.Quantity,
			UnitCost:    it.UnitCost,
			Subtotal:    it.Subtotal,
		})
	}
	res := PurchaseResponse{
		ID:             p.ID,
		PurchaseNumber: p.PurchaseNumber,
		SupplierID:     p.SupplierID,
		TotalAmount:    p.TotalAmount,
		AmountPaid:     p.AmountPaid,
		PaymentStatus:  p.PaymentStatus,
		InvoiceNumber:  p.InvoiceNumber,
		IsReceived:     p.IsReceived,
		Notes:          p.Notes,
		CreatedAt:      p.CreatedAt.Format("2006-01-02 15:04:05"),
		Items:          items,
	}
	if p.Supplier != nil {
		res.SupplierName = p.Supplier.Name
	}
	if p.ReceivedAt != nil {
		formatted := p.ReceivedAt.Format("2006-01-02 15:04:05")
		res.ReceivedAt = &formatted
	}
	return res
}

// POST /api/purchases (owner, manager) — alım belgesi oluşturur, stok DEĞİŞMEZ.
// Stok girişi mal teslim alındığında /receive ile yapılır.
func CreatePurchaseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)
		userID := auth.CurrentUserID(c)

		var body CreatePurchaseRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		if len(body.Items) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "En az bir alım kalemi gerekli")
		}

		paymentStatus := models.PaymentStatus(body.PaymentStatus)
		if paymentStatus == "" {
			paymentStatus = models.PaymentStatusPending
		}
		switch paymentStatus {
		case models.PaymentStatusPaid, models.PaymentStatusPending, models.PaymentStatusPartial:
		default:
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ödeme durumu")
		}

		if body.SupplierID != nil {
			var supplier models.Supplier
			if err := database.DB.First(&supplier, "id = ? AND organization_id = ?", *body.SupplierID, orgID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tedarikçi bulunamadı")
			}
		}

		total := decimal.Zero
		items := make([]models.PurchaseItem, 0, len(body.Items))
		for _, it := range body.Items {
			if it.Quantity <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Alım miktarı pozitif tam sayı olmalı")
			}
			if it.UnitCost.IsNegative() {
				return fiber.NewError(fiber.StatusBadRequest, "Birim maliyet negatif olamaz")
			}
			var product models.Product
			if err := database.DB.First(&product, "id = ? AND organization_id = ?", it.ProductID, orgID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Ürün bulunamadı")
			}
			subtotal := it.UnitCost.Mul(decimal.NewFromInt(int64(it.Quantity)))
			total = total.Add(subtotal)
			items = append(items, models.PurchaseItem{
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				UnitCost:  it.UnitCost,
				Subtotal:  subtotal,
			})
		}

		amountPaid := decimal.Zero
		if paymentStatus == models.PaymentStatusPaid {
			amountPaid = total
		}

		var p models.Purchase
		var err error
		// Eşzamanlı iki alım aynı numarayı üretebilir; unique index ihlalinde
		// numara yeniden üretilir
		for attempt := 0; attempt < 3; attempt++ {
			err = database.DB.Transaction(func(tx *gorm.DB) error {
				number, numErr := stock.NextDocumentNumber(tx, &models.Purchase{}, "purchase_number", orgID, "AL")
				if numErr != nil {
					return numErr
				}
				p = models.Purchase{
					OrganizationID: orgID,
					PurchaseNumber: number,
					SupplierID:     body.SupplierID,
					TotalAmount:    total,
					PaymentStatus:  paymentStatus,
					AmountPaid:     amountPaid,
					InvoiceNumber:  strings.TrimSpace(body.InvoiceNumber),
					Notes:          body.Notes,
					CreatedBy:      userID,
					Items:          items,
				}
				return tx.Create(&p).Error
			})
			if err == nil || !errors.Is(err, gorm.ErrDuplicatedKey) {
				break
			}
			p.ID = uuid.Nil // yeniden denemede taze kayıt
			for i := range items {
				items[i].ID = uuid.Nil
			}
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Alım oluşturulamadı")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: orgID,
			UserID:         userID,
			UserName:       auth.CurrentUserName(c),
			EntityType:     "purchase",
			EntityID:       p.ID,
			Action:         models.AuditActionCreate,
			Description:    "Alım oluşturuldu: " + p.PurchaseNumber,
			After:          p,
		})

		database.DB.Preload("Items.Product").Preload("Supplier").First(&p, "id = ?", p.ID)
		return c.Status(fiber.StatusCreated).JSON(toPurchaseResponse(&p))
	}
}

// POST /api/purchases/:id/receive (owner, manager) — mal teslim alındı,
// stok girişleri koordinatör üzerinden yazılır.
func ReceivePurchaseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)
		userID := auth.CurrentUserID(c)

		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz alım ID")
		}

		movements, err := stock.Default().ReceivePurchase(orgID, userID, id)
		if err != nil {
			return err
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: orgID,
			UserID:         userID,
			UserName:       auth.CurrentUserName(c),
			EntityType:     "purchase",
			EntityID:       id,
			Action:         models.AuditActionUpdate,
			Description:    "Alım stoka işlendi",
			After:          movements,
		})

		// Stok artışı okunmamış düşük stok bildirimini geçersiz kılmaz;
		// sadece yeni durumu kontrol ederiz (found reason gibi artışlarda
		// genelde bildirim üretilmez)
		for _, m := range movements {
			var p models.Product
			if err := database.DB.First(&p, "id = ?", m.ProductID).Error; err == nil {
				notification.CheckStockLevel(orgID, &p, m.NewStock)
			}
		}

		return c.JSON(fiber.Map{
			"purchase_id": id,
			"movements":   movements,
		})
	}
}

// POST /api/purchases/:id/pay (owner, manager) — ödeme kaydı.
func PayPurchaseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)
		userID := auth.CurrentUserID(c)

		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz alım ID")
		}

		var body PayPurchaseRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		if body.Amount.LessThanOrEqual(decimal.Zero) {
			return fiber.NewError(fiber.StatusBadRequest, "Ödeme tutarı pozitif olmalı")
		}

		var p models.Purchase
		if err := database.DB.First(&p, "id = ? AND organization_id = ?", id, orgID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Alım bulunamadı")
		}

		newPaid := p.AmountPaid.Add(body.Amount)
		if newPaid.GreaterThan(p.TotalAmount) {
			return fiber.NewError(fiber.StatusBadRequest, "Ödeme tutarı kalan borcu aşıyor")
		}

		status := models.PaymentStatusPartial
		if newPaid.Equal(p.TotalAmount) {
			status = models.PaymentStatusPaid
		}

		if err := database.DB.Model(&p).Updates(map[string]interface{}{
			"amount_paid":    newPaid,
			"payment_status": status,
		}).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ödeme kaydedilemedi")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: orgID,
			UserID:         userID,
			UserName:       auth.CurrentUserName(c),
			EntityType:     "purchase",
			EntityID:       p.ID,
			Action:         models.AuditActionUpdate,
			Description:    "Alım ödemesi: " + body.Amount.StringFixed(2),
		})

		return c.JSON(fiber.Map{
			"purchase_id":    p.ID,
			"amount_paid":    newPaid,
			"payment_status": status,
		})
	}
}

// GET /api/purchases?received=false&supplier_id=&from=&to=
func ListPurchasesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)

		dbq := database.DB.Model(&models.Purchase{}).
			Preload("Items.Product").
			Preload("Supplier").
			Where("organization_id = ?", orgID)

		if r := c.Query("received"); r == "true" || r == "false" {
			dbq = dbq.Where("is_received = ?", r == "true")
		}
		if sidStr := c.Query("supplier_id"); sidStr != "" {
			if sid, err := uuid.Parse(sidStr); err == nil {
				dbq = dbq.Where("supplier_id = ?", sid)
			}
		}
		if fromStr := c.Query("from"); fromStr != "" {
			from, err := time.Parse("2006-01-02", fromStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz başlangıç tarihi (YYYY-MM-DD)")
			}
			dbq = dbq.Where("created_at >= ?", from)
		}
		if toStr := c.Query("to"); toStr != "" {
			to, err := time.Parse("2006-01-02", toStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz bitiş tarihi (YYYY-MM-DD)")
			}
			dbq = dbq.Where("created_at < ?", to.AddDate(0, 0, 1))
		}

		var purchases []models.Purchase
		if err := dbq.Order("created_at DESC").Limit(200).Find(&purchases).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Alımlar listelenemedi")
		}

		res := make([]PurchaseResponse, 0, len(purchases))
		for i := range purchases {
			res = append(res, toPurchaseResponse(&purchases[i]))
		}
		return c.JSON(res)
	}
}

// GET /api/purchases/:id
func GetPurchaseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)

		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz alım ID")
		}

		var p models.Purchase
		if err := database.DB.Preload("Items.Product").Preload("Supplier").
			First(&p, "id = ? AND organization_id = ?", id, orgID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Alım bulunamadı")
		}
		return c.JSON(toPurchaseResponse(&p))
	}
}
