package stock

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"bakkal-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Coordinator: Stok değiştiren üç giriş noktasının (satış, alım teslimi,
// manuel düzeltme) tek sahibi. Her çağrı aynı şablonu izler:
// ürün kilitlerini sıralı al → transaction içinde stoğu yeniden oku →
// doğrula → defter satırlarını yaz → current_stock'u CAS ile güncelle.
// Hata yolunda hiçbir satır yazılmaz; kısmi uygulanmış durum yoktur.
type Coordinator struct {
	db    *gorm.DB
	locks *productLocks
}

func NewCoordinator(db *gorm.DB) *Coordinator {
	return &Coordinator{db: db, locks: newProductLocks()}
}

var std *Coordinator

// Init: Paket seviyesindeki koordinatörü kurar (main'de, database.Init sonrası).
func Init(db *gorm.DB) {
	std = NewCoordinator(db)
}

func Default() *Coordinator {
	if std == nil {
		panic("stock: Init çağrılmadan Default kullanıldı")
	}
	return std
}

// MovementResult: Yazılan defter satırı ve kilit altında hesaplanan yeni stok.
type MovementResult struct {
	MovementID uuid.UUID `json:"movement_id"`
	ProductID  uuid.UUID `json:"product_id"`
	NewStock   int       `json:"new_stock"`
}

type SaleLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type SaleInput struct {
	Lines          []SaleLine
	DiscountAmount decimal.Decimal
	PaymentMethod  models.PaymentMethod
	PaymentStatus  models.PaymentStatus
	CustomerName   string
	Notes          string
	// Opsiyonel: aynı anahtarla tekrarlanan istek stoğa ikinci kez işlenmez
	IdempotencyKey string
}

type SaleResult struct {
	Sale      *models.Sale
	Movements []MovementResult
	// Replayed: Sonuç idempotency kaydından geri okundu, yeni hareket yazılmadı
	Replayed bool
}

type AdjustInput struct {
	ProductID      uuid.UUID
	Quantity       int // her zaman pozitif; yön AdjustmentType'tan türetilir
	AdjustmentType string
	Reason         models.AdjustmentReason
	Notes          string
	IdempotencyKey string
}

const (
	AdjustIncrease = "increase"
	AdjustDecrease = "decrease"
)

func validPaymentMethod(m models.PaymentMethod) bool {
	switch m {
	case models.PaymentCash, models.PaymentCard, models.PaymentTransfer, models.PaymentCredit:
		return true
	}
	return false
}

func validPaymentStatus(s models.PaymentStatus) bool {
	switch s {
	case models.PaymentStatusPaid, models.PaymentStatusPending, models.PaymentStatusPartial:
		return true
	}
	return false
}

func productIDs(lines []SaleLine) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	return ids
}

// NextDocumentNumber: Organizasyon içinde sıralı belge numarası (ST-000001
// gibi). En büyük mevcut numaradan türetilir; sıfır dolgulu format sayesinde
// MAX sözlük sırasıyla sayısal sıra aynıdır. (organization_id, numara) unique
// index'i eşzamanlı çakışmayı yakalar, çağıran ErrDuplicatedKey'de yeniden dener.
func NextDocumentNumber(tx *gorm.DB, model any, column string, orgID uuid.UUID, prefix string) (string, error) {
	var last string
	if err := tx.Model(model).
		Where("organization_id = ?", orgID).
		Select("COALESCE(MAX(" + column + "), '')").
		Scan(&last).Error; err != nil {
		return "", &TransientError{Err: err}
	}
	n := 0
	if last != "" {
		fmt.Sscanf(last, prefix+"-%d", &n)
	}
	return fmt.Sprintf("%s-%06d", prefix, n+1), nil
}

// documentNumberRetries: Ayrık ürün kümelerine dokunan iki eşzamanlı satış
// aynı numarayı üretebilir; unique index ihlalinde bu kadar kez yeniden denenir.
const documentNumberRetries = 3

// RecordSale: Kasa satışı. Sale + SaleItem satırları, kalem başına bir
// defter hareketi ve stok düşümleri tek transaction'da yazılır.
// Herhangi bir kalemde stok yetersizse hiçbir şey yazılmaz (ya hep ya hiç).
func (co *Coordinator) RecordSale(orgID, actorID uuid.UUID, in SaleInput) (*SaleResult, error) {
	if len(in.Lines) == 0 {
		return nil, validationErrorf("en az bir satış kalemi gerekli")
	}
	for _, line := range in.Lines {
		if line.Quantity <= 0 {
			return nil, validationErrorf("satış miktarı pozitif tam sayı olmalı")
		}
	}
	if in.DiscountAmount.IsNegative() {
		return nil, validationErrorf("indirim tutarı negatif olamaz")
	}
	if !validPaymentMethod(in.PaymentMethod) {
		return nil, validationErrorf("geçersiz ödeme yöntemi: %s", in.PaymentMethod)
	}
	if !validPaymentStatus(in.PaymentStatus) {
		return nil, validationErrorf("geçersiz ödeme durumu: %s", in.PaymentStatus)
	}

	if in.IdempotencyKey != "" {
		result, err := co.replaySale(orgID, in.IdempotencyKey, requestFingerprint(in))
		if err != nil {
			return nil, err
		}
		if result != nil {
			return result, nil
		}
	}

	unlock := co.locks.lockAll(productIDs(in.Lines))
	defer unlock()

	var (
		sale      models.Sale
		movements []MovementResult
		err       error
	)

	// Ayrık ürün kümeleri ayrı kilitlerle ilerlediği için satış numarası
	// çakışabilir; unique index ihlalinde numara yeniden üretilir
	for attempt := 0; attempt < documentNumberRetries; attempt++ {
		err = co.runSaleTransaction(orgID, actorID, in, &sale, &movements)
		if err == nil || !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	return &SaleResult{Sale: &sale, Movements: movements}, nil
}

func (co *Coordinator) runSaleTransaction(orgID, actorID uuid.UUID, in SaleInput, saleOut *models.Sale, movementsOut *[]MovementResult) error {
	var (
		sale      models.Sale
		movements []MovementResult
	)

	err := co.db.Transaction(func(tx *gorm.DB) error {
		products := make(map[uuid.UUID]*models.Product)
		running := make(map[uuid.UUID]int) // kalemler işlendikçe kalan stok

		for _, line := range in.Lines {
			if _, ok := products[line.ProductID]; ok {
				continue
			}
			product, err := loadProduct(tx, orgID, line.ProductID)
			if err != nil {
				return err
			}
			if !product.IsActive {
				return validationErrorf("pasif ürün satılamaz: %s", product.Name)
			}
			products[line.ProductID] = product
			running[line.ProductID] = product.CurrentStock
		}

		// Önce tüm kalemleri doğrula; tek kalem bile geçemezse hiçbir satır yazılmaz
		totalAmount := decimal.Zero
		for _, line := range in.Lines {
			available := running[line.ProductID]
			if line.Quantity > available {
				p := products[line.ProductID]
				return &InsufficientStockError{
					ProductID:   p.ID,
					ProductName: p.Name,
					Requested:   line.Quantity,
					Available:   available,
				}
			}
			running[line.ProductID] = available - line.Quantity
			price := products[line.ProductID].SellingPrice
			totalAmount = totalAmount.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}

		finalAmount := totalAmount.Sub(in.DiscountAmount)
		if finalAmount.IsNegative() {
			return validationErrorf("indirim tutarı satış toplamını aşamaz")
		}

		number, err := NextDocumentNumber(tx, &models.Sale{}, "sale_number", orgID, "ST")
		if err != nil {
			return err
		}

		items := make([]models.SaleItem, 0, len(in.Lines))
		for _, line := range in.Lines {
			p := products[line.ProductID]
			qty := decimal.NewFromInt(int64(line.Quantity))
			items = append(items, models.SaleItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    line.Quantity,
				UnitPrice:   p.SellingPrice,
				Subtotal:    p.SellingPrice.Mul(qty),
			})
		}

		sale = models.Sale{
			OrganizationID: orgID,
			SaleNumber:     number,
			TotalAmount:    totalAmount,
			DiscountAmount: in.DiscountAmount,
			FinalAmount:    finalAmount,
			PaymentMethod:  in.PaymentMethod,
			PaymentStatus:  in.PaymentStatus,
			CustomerName:   strings.TrimSpace(in.CustomerName),
			Notes:          in.Notes,
			SoldBy:         actorID,
			Items:          items,
		}
		if err := tx.Create(&sale).Error; err != nil {
			return &TransientError{Err: err}
		}

		// Doğrulama geçti; kalem başına defter satırı + stok düşümü
		stockNow := make(map[uuid.UUID]int, len(products))
		for id, p := range products {
			stockNow[id] = p.CurrentStock
		}
		movements = make([]MovementResult, 0, len(in.Lines))
		for _, line := range in.Lines {
			prev := stockNow[line.ProductID]
			next := prev - line.Quantity

			movement, err := appendMovement(tx, movementIntent{
				OrganizationID: orgID,
				ProductID:      line.ProductID,
				Type:           models.MovementSale,
				Quantity:       -line.Quantity,
				PreviousStock:  prev,
				NewStock:       next,
				ReferenceID:    &sale.ID,
				PerformedBy:    actorID,
			})
			if err != nil {
				return err
			}
			if err := compareAndSetStock(tx, line.ProductID, prev, next); err != nil {
				return err
			}
			stockNow[line.ProductID] = next
			movements = append(movements, MovementResult{
				MovementID: movement.ID,
				ProductID:  line.ProductID,
				NewStock:   next,
			})
		}

		if in.IdempotencyKey != "" {
			return co.storeIdempotencyKey(tx, orgID, in.IdempotencyKey, "record_sale", requestFingerprint(in), saleReplay{
				SaleID:    sale.ID,
				Movements: movements,
			})
		}
		return nil
	})
	if err != nil {
		return err
	}

	*saleOut = sale
	*movementsOut = movements
	return nil
}

// RecordReturn: Satış iadesi. İade edilen miktar, satılan miktardan daha
// önce iade edilenler düşüldükten sonra kalanı aşamaz.
func (co *Coordinator) RecordReturn(orgID, actorID, saleID uuid.UUID, lines []SaleLine) ([]MovementResult, error) {
	if len(lines) == 0 {
		return nil, validationErrorf("en az bir iade kalemi gerekli")
	}
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, validationErrorf("iade miktarı pozitif tam sayı olmalı")
		}
	}

	unlock := co.locks.lockAll(productIDs(lines))
	defer unlock()

	var movements []MovementResult
	err := co.db.Transaction(func(tx *gorm.DB) error {
		// Satılan ve daha önce iade edilen miktarlar kilit altında okunur;
		// eşzamanlı iki iade üst sınırı birlikte aşamaz
		var sale models.Sale
		if err := tx.Preload("Items").First(&sale, "id = ?", saleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{What: "satış"}
			}
			return &TransientError{Err: err}
		}
		if sale.OrganizationID != orgID {
			return &ForbiddenError{Message: "bu satışa erişim yetkiniz yok"}
		}

		sold := make(map[uuid.UUID]int)
		for _, item := range sale.Items {
			sold[item.ProductID] += item.Quantity
		}

		// Daha önce iade edilen miktarlar defterin kendisinden okunur
		type returnedRow struct {
			ProductID uuid.UUID `gorm:"column:product_id"`
			Total     int       `gorm:"column:total"`
		}
		var returnedRows []returnedRow
		if err := tx.Model(&models.StockMovement{}).
			Select("product_id, COALESCE(SUM(quantity), 0) as total").
			Where("reference_id = ? AND movement_type = ?", saleID, models.MovementReturn).
			Group("product_id").
			Scan(&returnedRows).Error; err != nil {
			return &TransientError{Err: err}
		}
		returned := make(map[uuid.UUID]int)
		for _, r := range returnedRows {
			returned[r.ProductID] = r.Total
		}

		requested := make(map[uuid.UUID]int)
		for _, line := range lines {
			requested[line.ProductID] += line.Quantity
		}
		for productID, qty := range requested {
			remaining := sold[productID] - returned[productID]
			if sold[productID] == 0 {
				return validationErrorf("ürün bu satışta yer almıyor")
			}
			if qty > remaining {
				return validationErrorf("iade miktarı satılan miktarı aşıyor (kalan: %d)", remaining)
			}
		}

		stockNow := make(map[uuid.UUID]int)
		for _, line := range lines {
			if _, ok := stockNow[line.ProductID]; ok {
				continue
			}
			product, err := loadProduct(tx, orgID, line.ProductID)
			if err != nil {
				return err
			}
			stockNow[line.ProductID] = product.CurrentStock
		}

		movements = make([]MovementResult, 0, len(lines))
		for _, line := range lines {
			prev := stockNow[line.ProductID]
			next := prev + line.Quantity

			movement, err := appendMovement(tx, movementIntent{
				OrganizationID: orgID,
				ProductID:      line.ProductID,
				Type:           models.MovementReturn,
				Quantity:       line.Quantity,
				PreviousStock:  prev,
				NewStock:       next,
				ReferenceID:    &sale.ID,
				PerformedBy:    actorID,
			})
			if err != nil {
				return err
			}
			if err := compareAndSetStock(tx, line.ProductID, prev, next); err != nil {
				return err
			}
			stockNow[line.ProductID] = next
			movements = append(movements, MovementResult{
				MovementID: movement.ID,
				ProductID:  line.ProductID,
				NewStock:   next,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return movements, nil
}

// ReceivePurchase: Alım teslim alındığında kalem başına bir giriş hareketi
// yazar ve alımı stoklanmış olarak işaretler. Üst sınır doğrulaması yoktur;
// stok her zaman artabilir. Aynı alım ikinci kez işlenemez.
func (co *Coordinator) ReceivePurchase(orgID, actorID, purchaseID uuid.UUID) ([]MovementResult, error) {
	var purchase models.Purchase
	if err := co.db.Preload("Items").First(&purchase, "id = ?", purchaseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{What: "alım"}
		}
		return nil, &TransientError{Err: err}
	}
	if purchase.OrganizationID != orgID {
		return nil, &ForbiddenError{Message: "bu alıma erişim yetkiniz yok"}
	}
	if purchase.IsReceived {
		return nil, &ConflictError{Message: "bu alım zaten stoka işlendi"}
	}
	if len(purchase.Items) == 0 {
		return nil, validationErrorf("alımda ürün kalemi yok")
	}

	ids := make([]uuid.UUID, 0, len(purchase.Items))
	for _, item := range purchase.Items {
		ids = append(ids, item.ProductID)
	}
	unlock := co.locks.lockAll(ids)
	defer unlock()

	var movements []MovementResult
	err := co.db.Transaction(func(tx *gorm.DB) error {
		// Kilit alındıktan sonra alım durumu tekrar kontrol edilir
		var fresh models.Purchase
		if err := tx.First(&fresh, "id = ?", purchaseID).Error; err != nil {
			return &TransientError{Err: err}
		}
		if fresh.IsReceived {
			return &ConflictError{Message: "bu alım zaten stoka işlendi"}
		}

		stockNow := make(map[uuid.UUID]int)
		for _, item := range purchase.Items {
			if _, ok := stockNow[item.ProductID]; ok {
				continue
			}
			product, err := loadProduct(tx, orgID, item.ProductID)
			if err != nil {
				return err
			}
			stockNow[item.ProductID] = product.CurrentStock
		}

		movements = make([]MovementResult, 0, len(purchase.Items))
		for _, item := range purchase.Items {
			prev := stockNow[item.ProductID]
			next := prev + item.Quantity
			unitCost := item.UnitCost

			movement, err := appendMovement(tx, movementIntent{
				OrganizationID: orgID,
				ProductID:      item.ProductID,
				Type:           models.MovementPurchase,
				Quantity:       item.Quantity,
				PreviousStock:  prev,
				NewStock:       next,
				UnitCost:       &unitCost,
				ReferenceID:    &purchase.ID,
				PerformedBy:    actorID,
			})
			if err != nil {
				return err
			}
			if err := compareAndSetStock(tx, item.ProductID, prev, next); err != nil {
				return err
			}
			stockNow[item.ProductID] = next
			movements = append(movements, MovementResult{
				MovementID: movement.ID,
				ProductID:  item.ProductID,
				NewStock:   next,
			})
		}

		now := time.Now()
		if err := tx.Model(&models.Purchase{}).
			Where("id = ?", purchase.ID).
			Updates(map[string]interface{}{"is_received": true, "received_at": now}).Error; err != nil {
			return &TransientError{Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return movements, nil
}

// AdjustStock: Sebep kodlu manuel stok düzeltmesi. Yön adjustment_type'tan
// türetilir; istemciden asla işaretli miktar kabul edilmez.
func (co *Coordinator) AdjustStock(orgID, actorID uuid.UUID, in AdjustInput) (*MovementResult, error) {
	if in.Quantity <= 0 {
		return nil, validationErrorf("düzeltme miktarı pozitif tam sayı olmalı")
	}
	if in.AdjustmentType != AdjustIncrease && in.AdjustmentType != AdjustDecrease {
		return nil, validationErrorf("geçersiz düzeltme tipi: %s", in.AdjustmentType)
	}
	if !models.ValidAdjustmentReason(in.Reason) {
		return nil, validationErrorf("geçersiz düzeltme sebebi: %s", in.Reason)
	}
	if in.Reason == models.ReasonOther && len(strings.TrimSpace(in.Notes)) < 2 {
		return nil, validationErrorf("sebep 'other' için açıklama notu zorunlu (en az 2 karakter)")
	}

	if in.IdempotencyKey != "" {
		result, err := co.replayAdjustment(orgID, in.IdempotencyKey, requestFingerprint(in))
		if err != nil {
			return nil, err
		}
		if result != nil {
			return result, nil
		}
	}

	unlock := co.locks.lockAll([]uuid.UUID{in.ProductID})
	defer unlock()

	var result MovementResult
	err := co.db.Transaction(func(tx *gorm.DB) error {
		product, err := loadProduct(tx, orgID, in.ProductID)
		if err != nil {
			return err
		}

		prev := product.CurrentStock
		delta := in.Quantity
		if in.AdjustmentType == AdjustDecrease {
			delta = -in.Quantity
		}
		next := prev + delta
		if next < 0 {
			return &InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   in.Quantity,
				Available:   prev,
			}
		}

		movement, err := appendMovement(tx, movementIntent{
			OrganizationID: orgID,
			ProductID:      in.ProductID,
			Type:           models.MovementAdjustment,
			Quantity:       delta,
			PreviousStock:  prev,
			NewStock:       next,
			Reason:         in.Reason,
			Notes:          in.Notes,
			PerformedBy:    actorID,
		})
		if err != nil {
			return err
		}
		if err := compareAndSetStock(tx, in.ProductID, prev, next); err != nil {
			return err
		}

		result = MovementResult{
			MovementID: movement.ID,
			ProductID:  in.ProductID,
			NewStock:   next,
		}

		if in.IdempotencyKey != "" {
			return co.storeIdempotencyKey(tx, orgID, in.IdempotencyKey, "adjust_stock", requestFingerprint(in), adjustReplay{Movement: result})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Read: Ürünün güncel stok projeksiyonunu okur. Araya yazma girmedikçe
// ardışık okumalar aynı değeri döner.
func (co *Coordinator) Read(orgID, productID uuid.UUID) (int, error) {
	product, err := loadProduct(co.db, orgID, productID)
	if err != nil {
		return 0, err
	}
	return product.CurrentStock, nil
}

// ---- idempotency ----

type saleReplay struct {
	SaleID    uuid.UUID        `json:"sale_id"`
	Movements []MovementResult `json:"movements"`
}

type adjustReplay struct {
	Movement MovementResult `json:"movement"`
}

// requestFingerprint: İstek gövdesinin SHA-256 özeti. Aynı anahtar farklı
// bir gövdeyle tekrar kullanılırsa eski cevap körlemesine dönmez.
func requestFingerprint(payload any) string {
	data, _ := json.Marshal(payload)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (co *Coordinator) storeIdempotencyKey(tx *gorm.DB, orgID uuid.UUID, key, operation, fingerprint string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return &TransientError{Err: err}
	}
	record := models.IdempotencyKey{
		OrganizationID: orgID,
		Key:            key,
		Operation:      operation,
		RequestHash:    fingerprint,
		ResponseData:   string(data),
	}
	if err := tx.Create(&record).Error; err != nil {
		// Unique index ihlali: aynı anahtar eşzamanlı ikinci istekle yazıldı.
		// Transaction geri alınır, stok iki kez düşmez.
		return &ConflictError{Message: "bu işlem anahtarı zaten kullanıldı"}
	}
	return nil
}

// lookupIdempotencyKey: Kayıt yoksa ("", nil) döner. Kayıt var ama istek
// gövdesi ilk kullanımla aynı değilse ConflictError döner.
func (co *Coordinator) lookupIdempotencyKey(orgID uuid.UUID, key, operation, fingerprint string) (string, error) {
	var record models.IdempotencyKey
	err := co.db.First(&record, "organization_id = ? AND key = ? AND operation = ?", orgID, key, operation).Error
	if err != nil {
		return "", nil
	}
	if record.RequestHash != fingerprint {
		return "", &ConflictError{Message: "bu işlem anahtarı farklı bir istek gövdesiyle kullanılmış"}
	}
	return record.ResponseData, nil
}

func (co *Coordinator) replaySale(orgID uuid.UUID, key, fingerprint string) (*SaleResult, error) {
	data, err := co.lookupIdempotencyKey(orgID, key, "record_sale", fingerprint)
	if err != nil {
		return nil, err
	}
	if data == "" {
		return nil, nil
	}
	var replay saleReplay
	if err := json.Unmarshal([]byte(data), &replay); err != nil {
		return nil, nil
	}
	var sale models.Sale
	if err := co.db.Preload("Items").First(&sale, "id = ?", replay.SaleID).Error; err != nil {
		return nil, nil
	}
	return &SaleResult{Sale: &sale, Movements: replay.Movements, Replayed: true}, nil
}

func (co *Coordinator) replayAdjustment(orgID uuid.UUID, key, fingerprint string) (*MovementResult, error) {
	data, err := co.lookupIdempotencyKey(orgID, key, "adjust_stock", fingerprint)
	if err != nil {
		return nil, err
	}
	if data == "" {
		return nil, nil
	}
	var replay adjustReplay
	if err := json.Unmarshal([]byte(data), &replay); err != nil {
		return nil, nil
	}
	result := replay.Movement
	return &result, nil
}
