package stock

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ValidationError: İstek gövdesi hatalı (sıfır/negatif miktar, geçersiz enum,
// eksik not vs.). Hiçbir yan etki oluşmadan reddedilir.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// InsufficientStockError: İşlem stoğu eksiye düşürecekti. Kilit anındaki
// gerçek stok değerini taşır.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("yetersiz stok: %s (istenen %d, mevcut %d)", e.ProductName, e.Requested, e.Available)
}

type NotFoundError struct {
	What string // "ürün", "satış", "alım"
}

func (e *NotFoundError) Error() string { return e.What + " bulunamadı" }

// ForbiddenError: Başka organizasyona ait kayda erişim denemesi.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

// ConflictError: Kayıt beklenen durumda değil (zaten stoklanmış alım,
// eşzamanlı stok değişikliği, kullanılmış idempotency anahtarı).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// TransientError: Depolama katmanı hatası; istek güvenle tekrarlanabilir.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "geçici depolama hatası: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// StatusCode: Tipli stok hatasını HTTP koduna çevirir. Stok hatası değilse 0 döner.
func StatusCode(err error) int {
	var (
		ve *ValidationError
		ie *InsufficientStockError
		ne *NotFoundError
		fe *ForbiddenError
		ce *ConflictError
		te *TransientError
	)
	switch {
	case errors.As(err, &ve):
		return fiber.StatusBadRequest
	case errors.As(err, &ie):
		return fiber.StatusConflict
	case errors.As(err, &ne):
		return fiber.StatusNotFound
	case errors.As(err, &fe):
		return fiber.StatusForbidden
	case errors.As(err, &ce):
		return fiber.StatusConflict
	case errors.As(err, &te):
		return fiber.StatusServiceUnavailable
	}
	return 0
}
