package render

import (
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/vuongle2609/Minecraft/internal/world/block"
)

// BatchStats агрегированные показатели батча
type BatchStats struct {
	Live       int
	DirtyMarks uint64
}

// Upload описывает изменения батча, которые рендерер должен выгрузить
type Upload struct {
	Class      block.TextureClass
	Count      int
	Slots      []int
	Transforms []mgl32.Mat4 // по одному на каждый индекс из Slots
}

// Allocator распределяет видимые грани по батчам инстансов, по одному на класс текстуры.
// Все мутации выполняются в первичном контексте; мьютекс нужен только для
// чтения статистики из экспортера метрик.
type Allocator struct {
	mu      sync.RWMutex
	batches map[block.TextureClass]*Batch
}

// NewAllocator создаёт пустой распределитель
func NewAllocator() *Allocator {
	return &Allocator{
		batches: make(map[block.TextureClass]*Batch),
	}
}

// AddFace регистрирует грань в батче класса и возвращает дескриптор слота
func (a *Allocator) AddFace(class block.TextureClass, transform mgl32.Mat4) *Instance {
	a.mu.Lock()
	defer a.mu.Unlock()

	b, ok := a.batches[class]
	if !ok {
		b = newBatch(class)
		a.batches[class] = b
	}
	return b.add(transform)
}

// RemoveFace освобождает слот. Повторное освобождение ничего не делает.
func (a *Allocator) RemoveFace(inst *Instance) bool {
	if inst == nil || inst.batch == nil {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	return inst.batch.remove(inst)
}

// Count возвращает число живых слотов класса
func (a *Allocator) Count(class block.TextureClass) int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if b, ok := a.batches[class]; ok {
		return b.Count()
	}
	return 0
}

// Batch возвращает батч класса, если он создан
func (a *Allocator) Batch(class block.TextureClass) (*Batch, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	b, ok := a.batches[class]
	return b, ok
}

// Classes возвращает классы всех созданных батчей
func (a *Allocator) Classes() []block.TextureClass {
	a.mu.RLock()
	defer a.mu.RUnlock()

	classes := make([]block.TextureClass, 0, len(a.batches))
	for c := range a.batches {
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })
	return classes
}

// Flush собирает изменения всех грязных батчей для выгрузки рендереру
func (a *Allocator) Flush() []Upload {
	a.mu.Lock()
	defer a.mu.Unlock()

	var uploads []Upload
	for class, b := range a.batches {
		if !b.Dirty() {
			continue
		}
		slots := b.TakeDirty()
		up := Upload{
			Class:      class,
			Count:      b.Count(),
			Slots:      slots,
			Transforms: make([]mgl32.Mat4, len(slots)),
		}
		for i, s := range slots {
			up.Transforms[i] = b.transforms[s]
		}
		uploads = append(uploads, up)
	}
	sort.Slice(uploads, func(i, j int) bool { return uploads[i].Class < uploads[j].Class })
	return uploads
}

// Stats возвращает снимок показателей по всем классам
func (a *Allocator) Stats() map[block.TextureClass]BatchStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := make(map[block.TextureClass]BatchStats, len(a.batches))
	for c, b := range a.batches {
		stats[c] = BatchStats{Live: b.Count(), DirtyMarks: b.marks}
	}
	return stats
}
