package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IdempotencyKey: İstemcinin tekrar denediği satış/düzeltme isteklerinin
// stoğa ikinci kez işlenmesini engeller. İlk başarılı cevabın kopyası
// saklanır, aynı anahtarla gelen istek o cevabı geri alır.
type IdempotencyKey struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_idempotency_org_key"`
	Key            string    `gorm:"size:100;not null;uniqueIndex:idx_idempotency_org_key"`
	Operation      string    `gorm:"size:30;not null"` // "record_sale" | "adjust_stock"
	// İlk isteğin gövde özeti; aynı anahtar farklı gövdeyle reddedilir
	RequestHash  string `gorm:"size:64;not null;default:''"`
	ResponseData string `gorm:"type:jsonb;not null"`
	CreatedAt    time.Time
}

func (k *IdempotencyKey) BeforeCreate(tx *gorm.DB) error {
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	return nil
}
