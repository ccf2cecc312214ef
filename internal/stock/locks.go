package stock

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// productLocks: Ürün başına yazma kilidi. Aynı ürüne dokunan iki stok
// işlemi oku-doğrula-yaz döngüsünü asla iç içe geçiremez; farklı ürünler
// paralel ilerler. Kilitler her zaman ID sırasıyla alınır, böylece aynı
// ürünleri farklı sırayla içeren iki çok kalemli satış kilitlenmeye giremez.
type productLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newProductLocks() *productLocks {
	return &productLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (pl *productLocks) get(id uuid.UUID) *sync.Mutex {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	if m, ok := pl.locks[id]; ok {
		return m
	}
	m := &sync.Mutex{}
	pl.locks[id] = m
	return m
}

// lockAll: Verilen ürünlerin kilitlerini sıralı ve tekilleştirilmiş olarak
// alır; ters sırada bırakan unlock fonksiyonu döner.
func (pl *productLocks) lockAll(ids []uuid.UUID) func() {
	seen := make(map[uuid.UUID]bool, len(ids))
	unique := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	sort.Slice(unique, func(i, j int) bool {
		return unique[i].String() < unique[j].String()
	})

	held := make([]*sync.Mutex, 0, len(unique))
	for _, id := range unique {
		m := pl.get(id)
		m.Lock()
		held = append(held, m)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
