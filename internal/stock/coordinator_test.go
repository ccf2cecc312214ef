package stock

import (
	"errors"
	"sync"
	"testing"

	"bakkal-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func saleInput(lines ...SaleLine) SaleInput {
	return SaleInput{
		Lines:         lines,
		PaymentMethod: models.PaymentCash,
		PaymentStatus: models.PaymentStatusPaid,
	}
}

func TestRecordSaleDecreasesStockAndWritesLedger(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	org := newTestOrg(t, db)
	user := newTestUser(t, db, org.ID)
	product := newTestProduct(t, db, org.ID, "Süt", 20)

	result, err := co.RecordSale(org.ID, user.ID, saleInput(SaleLine{ProductID: product.ID, Quantity: 3}))
	require.NoError(t, err)
	require.Len(t, result.Movements, 1)

	assert.Equal(t, 17, result.Movements[0].NewStock)
	assert.Equal(t, 17, currentStock(t, db, product.ID))
	assert.Equal(t, "ST-000001", result.Sale.SaleNumber)
	assert.True(t, result.Sale.TotalAmount.Equal(decimal.NewFromInt(45)))

	var movement models.StockMovement
	require.NoError(t, db.First(&movement, "product_id = ?", product.ID).Error)
	assert.Equal(t, models.MovementSale, movement.MovementType)
	assert.Equal(t, -3, movement.Quantity)
	assert.Equal(t, 20, movement.PreviousStock)
	assert.Equal(t, 17, movement.NewStock)
	require.NotNil(t, movement.ReferenceID)
	assert.Equal(t, result.Sale.ID, *movement.ReferenceID)
}

func TestRecordSaleInsufficientStock(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	org := newTestOrg(t, db)
	user := newTestUser(t, db, org.ID)
	product := newTestProduct(t, db, org.ID, "Ekmek", 2)

	_, err := co.RecordSale(org.ID, user.ID, saleInput(SaleLine{ProductID: product.ID, Quantity: 5}))
	require.Error(t, err)

	var ie *InsufficientStockError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, product.ID, ie.ProductID)
	assert.Equal(t, 5, ie.Requested)
	assert.Equal(t, 2, ie.Available)

	// Hiçbir yan etki oluşmamalı
	assert.Equal(t, 2, currentStock(t, db, product.ID))
	assert.EqualValues(t, 0, movementCount(t, db, product.ID))
	var saleCount int64
	db.Model(&models.Sale{}).Count(&saleCount)
	assert.EqualValues(t, 0, saleCount)
}

func TestRecordSaleAllOrNothing(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	org := newTestOrg(t, db)
	user := newTestUser(t, db, org.ID)
	productA := newTestProduct(t, db, org.ID, "Çay", 50)
	productB := newTestProduct(t, db, org.ID, "Şeker", 5)

	// İkinci kalem geçemez; ilk kalemin düşümü de uygulanmamalı
	_, err := co.RecordSale(org.ID, user.ID, saleInput(
		SaleLine{ProductID: productA.ID, Quantity: 3},
		SaleLine{ProductID: productB.ID, Quantity: 100},
	))
	require.Error(t, err)

	var ie *InsufficientStockError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, productB.ID, ie.ProductID)

	assert.Equal(t, 50, currentStock(t, db, productA.ID))
	assert.Equal(t, 5, currentStock(t, db, productB.ID))
	assert.EqualValues(t, 0, movementCount(t, db, productA.ID))
	assert.EqualValues(t, 0, movementCount(t, db, productB.ID))
}

func TestRecordSaleDuplicateLinesShareStock(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	org := newTestOrg(t, db)
	user := newTestUser(t, db, org.ID)
	product := newTestProduct(t, db, org.ID, "Yumurta", 10)

	// 6+6 = 12 > 10; ikinci kalem toplamda stoğu aşar
	_, err := co.RecordSale(org.ID, user.ID, saleInput(
		SaleLine{ProductID: product.ID, Quantity: 6},
		SaleLine{ProductID: product.ID, Quantity: 6},
	))
	require.Error(t, err)

	var ie *InsufficientStockError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 4, ie.Available) // ilk kalemden sonra kalan

	assert.Equal(t, 10, currentStock(t, db, product.ID))
}

func TestRecordSaleValidation(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	org := newTestOrg(t, db)
	user := newTestUser(t, db, org.ID)
	product := newTestProduct(t, db, org.ID, "Su", 10)

	var ve *ValidationError

	_, err := co.RecordSale(org.ID, user.ID, saleInput())
	require.ErrorAs(t, err, &ve)

	_, err = co.RecordSale(org.ID, user.ID, saleInput(SaleLine{ProductID: product.ID, Quantity: 0}))
	require.ErrorAs(t, err, &ve)

	_, err = co.RecordSale(org.ID, user.ID, saleInput(SaleLine{ProductID: product.ID, Quantity: -2}))
	require.ErrorAs(t, err, &ve)

	in := saleInput(SaleLine{ProductID: product.ID, Quantity: 1})
	in.PaymentMethod = "bitcoin"
	_, err = co.RecordSale(org.ID, user.ID, in)
	require.ErrorAs(t, err, &ve)

	assert.Equal(t, 10, currentStock(t, db, product.ID))
}

func TestRecordSaleInactiveProduct(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	org := newTestOrg(t, db)
	user := newTestUser(t, db, org.ID)
	product := newTestProduct(t, db, org.ID, "Eski Ürün", 10)
	require.NoError(t, db.Model(product).Update("is_active", false).Error)

	_, err := co.RecordSale(org.ID, user.ID, saleInput(SaleLine{ProductID: product.ID, Quantity: 1}))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestRecordSaleCrossOrganization(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	org := newTestOrg(t, db)
	otherOrg := newTestOrg(t, db)
	user := newTestUser(t, db, org.ID)
	product := newTestProduct(t, db, otherOrg.ID, "Başkasının Ürünü", 10)

	_, err := co.RecordSale(org.ID, user.ID, saleInput(SaleLine{ProductID: product.ID, Quantity: 1}))
	var fe *ForbiddenError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 10, currentStock(t, db, product.ID))
}

func TestConcurrentSalesSameProduct(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	org := newTestOrg(t, db)
	user := newTestUser(t, db, org.ID)
	product := newTestProduct(t, db, org.ID, "Son Kalan", 1)

	// Stokta 1 adet var, iki kasiyer aynı anda satmaya çalışıyor.
	// Tam olarak biri başarılı olmalı.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = co.RecordSale(org.ID, user.ID, saleInput(SaleLine{ProductID: product.ID, Quantity: 1}))
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			var ie *InsufficientStockError
			require.ErrorAs(t, err, &ie)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 0, currentStock(t, db, product.ID))
	assert.EqualValues(t, 1, movementCount(t, db, product.ID))
}

func TestAdjustStockRoundTrip(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	org := newTestOrg(t, db)
	user := newTestUser(t, db, org.ID)
	product := newTestProduct(t, db, org.ID, "Makarna", 30)

	up, err := co.AdjustStock(org.ID, user.ID, AdjustInput{
		ProductID:      product.ID,
		Quantity:       10,
		AdjustmentType: AdjustIncrease,
		Reason:         models.ReasonFound,
	})
	require.NoError(t, err)
	assert.Equal(t, 40, up.NewStock)

	down, err := co.AdjustStock(org.ID, user.ID, AdjustInput{
		ProductID:      product.ID,
		Quantity:       10,
		AdjustmentType: AdjustDecrease,
		Reason:         models.ReasonDamaged,
	})
	require.NoError(t, err)
	assert.Equal(t, 30, down.NewStock)

	// İki hareket de defterde; projeksiyon başlangıca döndü
	assert.Equal(t, 30, currentStock(t, db, product.ID))
	assert.EqualValues(t, 2, movementCount(t, db, product.ID))
	assert.Equal(t, 0, ledgerSum(t, db, product.ID))
}

func TestAdjustStockCannotGoNegative(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	org := newTestOrg(t, db)
	user := newTestUser(t, db, org.ID)
	product := newTestProduct(t, db, org.ID, "Peynir", 4)

	_, err := co.AdjustStock(org.ID, user.ID, AdjustInput{
		ProductID:      product.ID,
		Quantity:       5,
		AdjustmentType: AdjustDecrease,
		Reason:         models.ReasonCount,
	})
	var ie *InsufficientStockError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 4, ie.Available)
	assert.Equal(t, 4, currentStock(t, db, product.ID))
}

func TestAdjustStockOtherReasonRequiresNotes(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	org := newTestOrg(t, db)
	user := newTestUser(t, db, org.ID)
	product := newTestProduct(t, db, org.ID, "Deterjan", 10)

	var ve *ValidationError

	_, err := co.AdjustStock(org.ID, user.ID, AdjustInput{
		ProductID:      product.ID,
		Quantity:       1,
		AdjustmentType: AdjustDecrease,
		Reason:         models.ReasonOther,
	})
	require.ErrorAs(t, err, &ve)

	_, err = co.AdjustStock(org.ID, user.ID, AdjustInput{
		ProductID:      product.ID,
		Quantity:       1,
		AdjustmentType: AdjustDecrease,
		Reason:         models.ReasonOther,
		Notes:          "  x ", // trim sonrası tek karakter
	})
	require.ErrorAs(t, err, &ve)

	_, err = co.AdjustStock(org.ID, user.ID, AdjustInput{
		ProductID:      product.ID,
		Quantity:       1,
		AdjustmentType: AdjustDecrease,
		Reason:         models.ReasonOther,
		Notes:          "raf arkasına düşmüş",
	})
	require.NoError(t, err)
}

func TestAdjustStockIdempotentReplay(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	org := newTestOrg(t, db)
	user := newTestUser(t, db, org.ID)
	product := newTestProduct(t, db, org.ID, "Pirinç", 20)

	in := AdjustInput{
		ProductID:      product.ID,
		Quantity:       5,
		AdjustmentType: AdjustDecrease,
		Reason:         models.ReasonCount,
		IdempotencyKey: "adj-123",
	}

	first, err := co.AdjustStock(org.ID, user.ID, in)
	require.NoError(t, err)
	assert.Equal(t, 15, first.NewStock)

	// Aynı anahtarla tekrar: stok yeniden düşmez, ilk sonuç döner
	second, err := co.AdjustStock(org.ID, user.ID, in)
	require.NoError(t, err)
	assert.Equal(t, first.MovementID, second.MovementID)
	assert.Equal(t, 15, currentStock(t, db, product.ID))
	assert.EqualValues(t, 1, movementCount(t, db, product.ID))
}

func TestRecordSaleIdempotentReplay(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	org := newTestOrg(t, db)
	user := newTestUser(t, db, org.ID)
	product := newTestProduct(t, db, org.ID, "Kola", 12)

	in := saleInput(SaleLine{ProductID: product.ID, Quantity: 2})
	in.IdempotencyKey = "sale-abc"

	first, err := co.RecordSale(org.ID, user.ID, in)
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	second, err := co.RecordSale(org.ID, user.ID, in)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Sale.ID, second.Sale.ID)
	assert.Equal(t, first.Movements, second.Movements)

	assert.Equal(t, 10, currentStock(t, db, product.ID))
	assert.EqualValues(t, 1, movementCount(t, db, product.ID))
}

func TestReceivePurchaseIncreasesStock(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	org := newTestOrg(t, db)
	user := newTestUser(t, db, org.ID)
	product := newTestProduct(t, db, org.ID, "Un", 5)

	cost := decimal.NewFromInt(8)
	purchase := &models.Purchase{
		OrganizationID: org.ID,
		PurchaseNumber: "AL-000001",
		TotalAmount:    cost.Mul(decimal.NewFromInt(10)),
		PaymentStatus:  models.PaymentStatusPending,
		CreatedBy:      user.ID,
		Items: []models.PurchaseItem{
			{ProductID: product.ID, Quantity: 10, UnitCost: cost, Subtotal: cost.Mul(decimal.NewFromInt(10))},
		},
	}
	require.NoError(t, db.Create(purchase).Error)

	// Belge oluşturuldu ama stok henüz değişmedi
	assert.Equal(t, 5, currentStock(t, db, product.ID))

	movements, err := co.ReceivePurchase(org.ID, user.ID, purchase.ID)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, 15, movements[0].NewStock)
	assert.Equal(t, 15, currentStock(t, db, product.ID))

	var movement models.StockMovement
	require.NoError(t, db.First(&movement, "product_id = ?", product.ID).Error)
	assert.Equal(t, models.MovementPurchase, movement.MovementType)
	assert.Equal(t, 10, movement.Quantity)
	require.NotNil(t, movement.UnitCost)
	assert.True(t, movement.UnitCost.Equal(cost))

	var fresh models.Purchase
	require.NoError(t, db.First(&fresh, "id = ?", purchase.ID).Error)
	assert.True(t, fresh.IsReceived)
	require.NotNil(t, fresh.ReceivedAt)
}

func TestReceivePurchaseTwiceRejected(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	org := newTestOrg(t, db)
	user := newTestUser(t, db, org.ID)
	product := newTestProduct(t, db, org.ID, "Tuz", 0)

	cost := decimal.NewFromInt(3)
	purchase := &models.Purchase{
		OrganizationID: org.ID,
		PurchaseNumber: "AL-000001",
		TotalAmount:    cost,
		PaymentStatus:  models.PaymentStatusPaid,
		CreatedBy:      user.ID,
		Items: []models.PurchaseItem{
			{ProductID: product.ID, Quantity: 1, UnitCost: cost, Subtotal: cost},
		},
	}
	require.NoError(t, db.Create(purchase).Error)

	_, err := co.ReceivePurchase(org.ID, user.ID, purchase.ID)
	require.NoError(t, err)

	_, err = co.ReceivePurchase(org.ID, user.ID, purchase.ID)
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 1, currentStock(t, db, product.ID))
	assert.EqualValues(t, 1, movementCount(t, db, product.ID))
}

func TestRecordReturnCappedBySoldQuantity(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	org := newTestOrg(t, db)
	user := newTestUser(t, db, org.ID)
	product := newTestProduct(t, db, org.ID, "Bisküvi", 20)

	result, err := co.RecordSale(org.ID, user.ID, saleInput(SaleLine{ProductID: product.ID, Quantity: 5}))
	require.NoError(t, err)
	saleID := result.Sale.ID

	// Satılandan fazlası iade edilemez
	_, err = co.RecordReturn(org.ID, user.ID, saleID, []SaleLine{{ProductID: product.ID, Quantity: 6}})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	// Kısmi iade
	movements, err := co.RecordReturn(org.ID, user.ID, saleID, []SaleLine{{ProductID: product.ID, Quantity: 3}})
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, 18, movements[0].NewStock)

	// Kalan 2'den fazlası reddedilir
	_, err = co.RecordReturn(org.ID, user.ID, saleID, []SaleLine{{ProductID: product.ID, Quantity: 3}})
	require.ErrorAs(t, err, &ve)

	// Kalanın tamamı iade edilebilir
	_, err = co.RecordReturn(org.ID, user.ID, saleID, []SaleLine{{ProductID: product.ID, Quantity: 2}})
	require.NoError(t, err)
	assert.Equal(t, 20, currentStock(t, db, product.ID))
}

func TestRecordReturnUnknownProductInSale(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	org := newTestOrg(t, db)
	user := newTestUser(t, db, org.ID)
	product := newTestProduct(t, db, org.ID, "Çikolata", 10)
	other := newTestProduct(t, db, org.ID, "Gofret", 10)

	result, err := co.RecordSale(org.ID, user.ID, saleInput(SaleLine{ProductID: product.ID, Quantity: 1}))
	require.NoError(t, err)

	_, err = co.RecordReturn(org.ID, user.ID, result.Sale.ID, []SaleLine{{ProductID: other.ID, Quantity: 1}})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestConcurrentReturnsCannotExceedSoldQuantity(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	org := newTestOrg(t, db)
	user := newTestUser(t, db, org.ID)
	product := newTestProduct(t, db, org.ID, "Ayran", 20)

	result, err := co.RecordSale(org.ID, user.ID, saleInput(SaleLine{ProductID: product.ID, Quantity: 5}))
	require.NoError(t, err)
	saleID := result.Sale.ID

	// İki kasiyer aynı anda satılan miktarın tamamını iade etmeye çalışıyor.
	// Üst sınır kilit altında doğrulandığı için tam olarak biri geçmeli.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = co.RecordReturn(org.ID, user.ID, saleID, []SaleLine{{ProductID: product.ID, Quantity: 5}})
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
		}
	}
	assert.Equal(t, 1, successes)

	var returnTotal int64
	require.NoError(t, db.Model(&models.StockMovement{}).
		Where("reference_id = ? AND movement_type = ?", saleID, models.MovementReturn).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&returnTotal).Error)
	assert.EqualValues(t, 5, returnTotal)
	assert.Equal(t, 20, currentStock(t, db, product.ID))
}

func TestSaleNumberContinuesFromHighestExisting(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	org := newTestOrg(t, db)
	user := newTestUser(t, db, org.ID)
	product := newTestProduct(t, db, org.ID, "Limon", 10)

	// Numaralandırma satır sayısına değil en büyük mevcut numaraya dayanır;
	// aradaki boşluklar (iptal, geri alınmış transaction) sıralamayı bozmaz
	existing := &models.Sale{
		OrganizationID: org.ID,
		SaleNumber:     "ST-000007",
		TotalAmount:    decimal.NewFromInt(15),
		FinalAmount:    decimal.NewFromInt(15),
		PaymentMethod:  models.PaymentCash,
		PaymentStatus:  models.PaymentStatusPaid,
		SoldBy:         user.ID,
	}
	require.NoError(t, db.Create(existing).Error)

	result, err := co.RecordSale(org.ID, user.ID, saleInput(SaleLine{ProductID: product.ID, Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, "ST-000008", result.Sale.SaleNumber)

	// (organization_id, sale_number) unique index'i aynı numaranın ikinci
	// kez yazılmasını engeller
	duplicate := &models.Sale{
		OrganizationID: org.ID,
		SaleNumber:     "ST-000008",
		TotalAmount:    decimal.NewFromInt(15),
		FinalAmount:    decimal.NewFromInt(15),
		PaymentMethod:  models.PaymentCash,
		PaymentStatus:  models.PaymentStatusPaid,
		SoldBy:         user.ID,
	}
	err = db.Create(duplicate).Error
	require.Error(t, err)
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))

	// Farklı organizasyon aynı numarayı kullanabilir
	otherOrg := newTestOrg(t, db)
	otherUser := newTestUser(t, db, otherOrg.ID)
	foreign := &models.Sale{
		OrganizationID: otherOrg.ID,
		SaleNumber:     "ST-000008",
		TotalAmount:    decimal.NewFromInt(15),
		FinalAmount:    decimal.NewFromInt(15),
		PaymentMethod:  models.PaymentCash,
		PaymentStatus:  models.PaymentStatusPaid,
		SoldBy:         otherUser.ID,
	}
	require.NoError(t, db.Create(foreign).Error)
}

func TestRecordSaleIdempotencyKeyDifferentPayloadRejected(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	org := newTestOrg(t, db)
	user := newTestUser(t, db, org.ID)
	product := newTestProduct(t, db, org.ID, "Salça", 20)

	in := saleInput(SaleLine{ProductID: product.ID, Quantity: 2})
	in.IdempotencyKey = "sale-xyz"

	_, err := co.RecordSale(org.ID, user.ID, in)
	require.NoError(t, err)

	// Aynı anahtar, farklı gövde: eski cevap körlemesine dönmez, çakışma döner
	changed := in
	changed.Lines = []SaleLine{{ProductID: product.ID, Quantity: 7}}
	_, err = co.RecordSale(org.ID, user.ID, changed)
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)

	assert.Equal(t, 18, currentStock(t, db, product.ID))
	assert.EqualValues(t, 1, movementCount(t, db, product.ID))
}

func TestAdjustStockIdempotencyKeyDifferentPayloadRejected(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	org := newTestOrg(t, db)
	user := newTestUser(t, db, org.ID)
	product := newTestProduct(t, db, org.ID, "Mercimek", 30)

	in := AdjustInput{
		ProductID:      product.ID,
		Quantity:       5,
		AdjustmentType: AdjustDecrease,
		Reason:         models.ReasonCount,
		IdempotencyKey: "adj-xyz",
	}
	_, err := co.AdjustStock(org.ID, user.ID, in)
	require.NoError(t, err)

	changed := in
	changed.Quantity = 9
	_, err = co.AdjustStock(org.ID, user.ID, changed)
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)

	assert.Equal(t, 25, currentStock(t, db, product.ID))
	assert.EqualValues(t, 1, movementCount(t, db, product.ID))
}

func TestLedgerSumMatchesProjection(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	org := newTestOrg(t, db)
	user := newTestUser(t, db, org.ID)
	product := newTestProduct(t, db, org.ID, "Zeytin", 0)

	cost := decimal.NewFromInt(20)
	purchase := &models.Purchase{
		OrganizationID: org.ID,
		PurchaseNumber: "AL-000001",
		TotalAmount:    cost.Mul(decimal.NewFromInt(30)),
		PaymentStatus:  models.PaymentStatusPaid,
		CreatedBy:      user.ID,
		Items: []models.PurchaseItem{
			{ProductID: product.ID, Quantity: 30, UnitCost: cost, Subtotal: cost.Mul(decimal.NewFromInt(30))},
		},
	}
	require.NoError(t, db.Create(purchase).Error)

	_, err := co.ReceivePurchase(org.ID, user.ID, purchase.ID)
	require.NoError(t, err)

	result, err := co.RecordSale(org.ID, user.ID, saleInput(SaleLine{ProductID: product.ID, Quantity: 12}))
	require.NoError(t, err)

	_, err = co.RecordReturn(org.ID, user.ID, result.Sale.ID, []SaleLine{{ProductID: product.ID, Quantity: 2}})
	require.NoError(t, err)

	_, err = co.AdjustStock(org.ID, user.ID, AdjustInput{
		ProductID:      product.ID,
		Quantity:       4,
		AdjustmentType: AdjustDecrease,
		Reason:         models.ReasonExpired,
	})
	require.NoError(t, err)

	// Defter toplamı projeksiyonla her zaman eşit: 30 - 12 + 2 - 4 = 16
	assert.Equal(t, 16, currentStock(t, db, product.ID))
	assert.Equal(t, 16, ledgerSum(t, db, product.ID))

	stockValue, err := co.Read(org.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 16, stockValue)
}
