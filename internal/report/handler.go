package report

import (
	"fmt"
	"time"

	"bakkal-backend/internal/auth"
	"bakkal-backend/internal/database"
	"bakkal-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type SalesSummaryRow struct {
	Period      string          `json:"period"` // 2026-08-31 veya 2026-08
	SaleCount   int64           `json:"sale_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Cash        decimal.Decimal `json:"cash"`
	Card        decimal.Decimal `json:"card"`
	Transfer    decimal.Decimal `json:"transfer"`
	Credit      decimal.Decimal `json:"credit"`
}

type TopProductRow struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	QuantitySold int             `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
}

type InventoryStatsResponse struct {
	TotalProducts   int64           `json:"total_products"`
	LowStockCount   int64           `json:"low_stock_count"`
	OutOfStockCount int64           `json:"out_of_stock_count"`
	TotalStockValue decimal.Decimal `json:"total_stock_value"` // maliyet fiyatı üzerinden
	RetailValue     decimal.Decimal `json:"retail_value"`      // satış fiyatı üzerinden
}

func parseDateRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	now := time.Now()
	from := now.AddDate(0, -1, 0)
	to := now

	if fromStr := c.Query("from"); fromStr != "" {
		parsed, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return from, to, fiber.NewError(fiber.StatusBadRequest, "Geçersiz başlangıç tarihi (YYYY-MM-DD)")
		}
		from = parsed
	}
	if toStr := c.Query("to"); toStr != "" {
		parsed, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return from, to, fiber.NewError(fiber.StatusBadRequest, "Geçersiz bitiş tarihi (YYYY-MM-DD)")
		}
		to = parsed.AddDate(0, 0, 1)
	}
	return from, to, nil
}

func salesSummary(orgID uuid.UUID, from, to time.Time, monthly bool) ([]SalesSummaryRow, error) {
	var sales []models.Sale
	if err := database.DB.
		Where("organization_id = ? AND created_at >= ? AND created_at < ?", orgID, from, to).
		Order("created_at asc").
		Find(&sales).Error; err != nil {
		return nil, err
	}

	layout := "2006-01-02"
	if monthly {
		layout = "2006-01"
	}

	// Dönemlere grupla; toplamlar decimal ile, float'a hiç düşmeden
	byPeriod := make(map[string]*SalesSummaryRow)
	order := make([]string, 0)
	for _, s := range sales {
		period := s.CreatedAt.Format(layout)
		row, ok := byPeriod[period]
		if !ok {
			row = &SalesSummaryRow{
				Period:      period,
				TotalAmount: decimal.Zero,
				Cash:        decimal.Zero,
				Card:        decimal.Zero,
				Transfer:    decimal.Zero,
				Credit:      decimal.Zero,
			}
			byPeriod[period] = row
			order = append(order, period)
		}
		row.SaleCount++
		row.TotalAmount = row.TotalAmount.Add(s.FinalAmount)
		switch s.PaymentMethod {
		case models.PaymentCash:
			row.Cash = row.Cash.Add(s.FinalAmount)
		case models.PaymentCard:
			row.Card = row.Card.Add(s.FinalAmount)
		case models.PaymentTransfer:
			row.Transfer = row.Transfer.Add(s.FinalAmount)
		case models.PaymentCredit:
			row.Credit = row.Credit.Add(s.FinalAmount)
		}
	}

	rows := make([]SalesSummaryRow, 0, len(order))
	for _, period := range order {
		rows = append(rows, *byPeriod[period])
	}
	return rows, nil
}

// GET /api/reports/sales?from=&to=&group=daily|monthly
func SalesReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)

		from, to, err := parseDateRange(c)
		if err != nil {
			return err
		}

		rows, err := salesSummary(orgID, from, to, c.Query("group") == "monthly")
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satış raporu oluşturulamadı")
		}
		return c.JSON(rows)
	}
}

// GET /api/reports/top-products?from=&to=&limit=10
func TopProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)

		from, to, err := parseDateRange(c)
		if err != nil {
			return err
		}

		limit := c.QueryInt("limit", 10)
		if limit <= 0 || limit > 100 {
			limit = 10
		}

		type aggRow struct {
			ProductID   uuid.UUID       `gorm:"column:product_id"`
			ProductName string          `gorm:"column:product_name"`
			Quantity    int             `gorm:"column:quantity"`
			Revenue     decimal.Decimal `gorm:"column:revenue"`
		}
		var aggRows []aggRow
		if err := database.DB.Model(&models.SaleItem{}).
			Select("sale_items.product_id, sale_items.product_name, SUM(sale_items.quantity) as quantity, SUM(sale_items.subtotal) as revenue").
			Joins("JOIN sales ON sales.id = sale_items.sale_id").
			Where("sales.organization_id = ? AND sales.created_at >= ? AND sales.created_at < ?", orgID, from, to).
			Group("sale_items.product_id, sale_items.product_name").
			Order("quantity DESC").
			Limit(limit).
			Scan(&aggRows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Rapor oluşturulamadı")
		}

		res := make([]TopProductRow, 0, len(aggRows))
		for _, r := range aggRows {
			res = append(res, TopProductRow{
				ProductID:    r.ProductID,
				ProductName:  r.ProductName,
				QuantitySold: r.Quantity,
				Revenue:      r.Revenue,
			})
		}
		return c.JSON(res)
	}
}

// GET /api/reports/inventory
func InventoryStatsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)

		var products []models.Product
		if err := database.DB.Where("organization_id = ? AND is_active = ?", orgID, true).
			Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Envanter raporu oluşturulamadı")
		}

		stats := InventoryStatsResponse{
			TotalStockValue: decimal.Zero,
			RetailValue:     decimal.Zero,
		}
		for _, p := range products {
			stats.TotalProducts++
			if p.CurrentStock <= 0 {
				stats.OutOfStockCount++
			} else if p.MinStockThreshold > 0 && p.CurrentStock <= p.MinStockThreshold {
				stats.LowStockCount++
			}
			if p.CurrentStock > 0 {
				qty := decimal.NewFromInt(int64(p.CurrentStock))
				stats.TotalStockValue = stats.TotalStockValue.Add(p.CostPrice.Mul(qty))
				stats.RetailValue = stats.RetailValue.Add(p.SellingPrice.Mul(qty))
			}
		}
		return c.JSON(stats)
	}
}

// GET /api/reports/sales/export?from=&to= — Excel çıktısı
func ExportSalesReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID := auth.CurrentOrgID(c)

		from, to, err := parseDateRange(c)
		if err != nil {
			return err
		}

		rows, err := salesSummary(orgID, from, to, c.Query("group") == "monthly")
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satış raporu oluşturulamadı")
		}

		f := excelize.NewFile()
		defer f.Close()

		sheet := "Satış Raporu"
		f.SetSheetName("Sheet1", sheet)

		headers := []string{"Dönem", "Satış Adedi", "Toplam", "Nakit", "Kart", "Havale", "Veresiye"}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheet, cell, h)
		}

		for i, row := range rows {
			values := []interface{}{
				row.Period,
				row.SaleCount,
				row.TotalAmount.StringFixed(2),
				row.Cash.StringFixed(2),
				row.Card.StringFixed(2),
				row.Transfer.StringFixed(2),
				row.Credit.StringFixed(2),
			}
			for j, v := range values {
				cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
				f.SetCellValue(sheet, cell, v)
			}
		}
		f.SetColWidth(sheet, "A", "G", 15)

		buf, err := f.WriteToBuffer()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Excel dosyası oluşturulamadı")
		}

		filename := fmt.Sprintf("satis-raporu-%s.xlsx", time.Now().Format("2006-01-02"))
		c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		return c.Send(buf.Bytes())
	}
}
