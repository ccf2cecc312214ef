package stock

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestLockAllSameMutexForSameProduct(t *testing.T) {
	pl := newProductLocks()
	id := uuid.New()
	assert.Same(t, pl.get(id), pl.get(id))
	assert.NotSame(t, pl.get(id), pl.get(uuid.New()))
}

func TestLockAllDeduplicates(t *testing.T) {
	pl := newProductLocks()
	id := uuid.New()

	// Aynı ID iki kez verildiğinde tek kilit alınır; ikinci Lock
	// kendi kendini beklemeye düşmemeli
	unlock := pl.lockAll([]uuid.UUID{id, id})
	unlock()

	// Kilit gerçekten bırakıldı
	m := pl.get(id)
	m.Lock()
	m.Unlock()
}

func TestLockAllNoDeadlockOnOppositeOrder(t *testing.T) {
	pl := newProductLocks()
	a, b := uuid.New(), uuid.New()

	// İki işlem aynı ürünleri ters sırayla istiyor. Sıralı alma sayesinde
	// kilitlenme olmadan ikisi de tamamlanmalı.
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unlock := pl.lockAll([]uuid.UUID{a, b})
			unlock()
		}()
		go func() {
			defer wg.Done()
			unlock := pl.lockAll([]uuid.UUID{b, a})
			unlock()
		}()
	}
	wg.Wait()
}

func TestLockAllSerializesCriticalSection(t *testing.T) {
	pl := newProductLocks()
	id := uuid.New()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := pl.lockAll([]uuid.UUID{id})
			defer unlock()
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}
