package sale

import (
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
)

type SaleLineRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type CreateSaleRequest struct {
	Items          []SaleLineRequest `json:"items"`
	DiscountAmount decimal.Decimal   `json:"discount_amount"`
	PaymentMethod  string            `json:"payment_method"`
	PaymentStatus  string            `json:"payment_status"`
	CustomerName   string            `json:"customer_name"`
	Notes          string            `json:"notes"`
	IdempotencyKey string            `json:"idempotency_key"`
}

type ReturnRequest struct {
	Items []SaleLineRequest `json:"items"`
}

type SaleItemResponse struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type SaleResponse struct {
	ID             uuid.UUID            `json:"id"`
	SaleNumber     string               `json:"sale_number"`
	TotalAmount    decimal.Decimal      `json:"total_amount"`
	DiscountAmount decimal.Decimal      `json:"discount_amount"`
	FinalAmount    decimal.Decimal      `json:"final_amount"`
	PaymentMethod  models.PaymentMethod `json:"payment_method"`
	PaymentStatus  models.PaymentStatus `json:"payment_status"`
	CustomerName   string               `json:"customer_name,omitempty"`
	Notes          string               `json:"notes,omitempty"`
	SoldBy         uuid.UUID            `json:"sold_by"`
	CreatedAt      string               `json:"created_at"`
	Items          []SaleItemResponse   `json:"items"`
	// Replayed: İstek idempotency anahtarıyla tekrarlandı, stok yeniden düşülmedi
	Replayed bool `json:"replayed,omitempty"`
}

func toSaleResponse(s *models.Sale, replayed bool) SaleResponse {
	items := make([]SaleItemResponse, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, SaleItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.Subtotal,
		})
	}
	return SaleResponse{
		ID:             s.ID,
		SaleNumber:     s.SaleNumber,
		TotalAmount:    s.TotalAmount,
		DiscountAmount: s.DiscountAmount,
		FinalAmount:    s.FinalAmount,
		PaymentMethod:  s.PaymentMethod,
		PaymentStatus:  s.PaymentStatus,
		CustomerName:   s.CustomerName,
		Notes:          s.Notes,
		SoldBy:         s.SoldBy,
		CreatedAt:      s.CreatedAt.Format("2006-01-02 15:04:05"),
		Items:          items,
		Replayed:       replayed,
	}
}

// POST /api/sales — kasa satışı. Stok düşümü koordinatör üzerinden, ya hep ya hiç.
func CreateSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)
		userID := auth.CurrentUserID(c)

		var body CreateSaleRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		lines := make([]stock.SaleLine, 0, len(body.Items))
		for _, it := range body.Items {
			lines = append(lines, stock.SaleLine{ProductID: it.ProductID, Quantity: it.Quantity})
		}

		paymentStatus := body.PaymentStatus
		if paymentStatus == "" {
			paymentStatus = string(models.PaymentStatusPaid)
		}

		result, err := stock.Default().RecordSale(orgID, userID, stock.SaleInput{
			Lines:          lines,
			DiscountAmount: body.DiscountAmount,
			PaymentMethod:  models.PaymentMethod(body.PaymentMethod),
			PaymentStatus:  models.PaymentStatus(paymentStatus),
			CustomerName:   body.CustomerName,
			Notes:          body.Notes,
			IdempotencyKey: body.IdempotencyKey,
		})
		if err != nil {
			return err
		}

		if !result.Replayed {
			_ = audit.WriteLog(audit.LogOptions{
				OrganizationID: orgID,
				UserID:         userID,
				UserName:       auth.CurrentUserName(c),
				EntityType:     "sale",
				EntityID:       result.Sale.ID,
				Action:         models.AuditActionCreate,
				Description:    "Satış: " + result.Sale.SaleNumber,
				After:          result.Sale,
			})

			// Bildirimler satış tamamlandıktan sonra, koordinatörün döndürdüğü
			// yeni stok değerleriyle kontrol edilir
			for _, m := range result.Movements {
				var p models.Product
				if err := database.DB.First(&p, "id = ?", m.ProductID).Error; err == nil {
					notification.CheckStockLevel(orgID, &p, m.NewStock)
				}
			}
			notification.CheckLargeSale(orgID, result.Sale)
		}

		return c.Status(fiber.StatusCreated).JSON(toSaleResponse(result.Sale, result.Replayed))
	}
}

// GET /api/sales?from=&to=&payment_method=
func ListSalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)

		dbq := database.DB.Model(&models.Sale{}).
			Preload("Items").
			Where("organization_id = ?", orgID)

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
		if pm := c.Query("payment_method"); pm != "" {
			dbq = dbq.Where("payment_method = ?", pm)
		}

		var sales []models.Sale
		if err := dbq.Order("created_at DESC").Limit(200).Find(&sales).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satışlar listelenemedi")
		}

		res := make([]SaleResponse, 0, len(sales))
		for i := range sales {
			res = append(res, toSaleResponse(&sales[i], false))
		}
		return c.JSON(res)
	}
}

// GET /api/sales/:id
func GetSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)

		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz satış ID")
		}

		var s models.Sale
		if err := database.DB.Preload("Items").
			First(&s, "id = ? AND organization_id = ?", id, orgID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Satış bulunamadı")
		}
		return c.JSON(toSaleResponse(&s, false))
	}
}

// POST /api/sales/:id/return (owner, manager) — satış iadesi, stok geri girer.
func ReturnSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)
		userID := auth.CurrentUserID(c)

		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz satış ID")
		}

		var body ReturnRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		lines := make([]stock.SaleLine, 0, len(body.Items))
		for _, it := range body.Items {
			lines = append(lines, stock.SaleLine{ProductID: it.ProductID, Quantity: it.Quantity})
		}

		movements, err := stock.Default().RecordReturn(orgID, userID, id, lines)
		if err != nil {
			return err
		}

		_ = audit.WriteLog(audit.LogOptions{
			OrganizationID: orgID,
			UserID:         userID,
			UserName:       auth.CurrentUserName(c),
			EntityType:     "sale_return",
			EntityID:       id,
			Action:         models.AuditActionCreate,
			Description:    "Satış iadesi",
			After:          movements,
		})

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"sale_id":   id,
			"movements": movements,
		})
	}
}
