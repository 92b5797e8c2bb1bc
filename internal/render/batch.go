package render

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/vuongle2609/Minecraft/internal/world/block"
)

// Instance дескриптор занятого слота в батче.
// Индекс слота переписывается при swap-remove, поэтому владелец грани
// хранит указатель на Instance, а не сам индекс.
type Instance struct {
	batch *Batch
	index int
}

// Index возвращает текущий индекс слота или -1, если слот освобождён
func (i *Instance) Index() int {
	if i == nil || i.batch == nil {
		return -1
	}
	return i.index
}

// Class возвращает класс текстуры батча, которому принадлежит слот
func (i *Instance) Class() block.TextureClass {
	if i == nil || i.batch == nil {
		return ""
	}
	return i.batch.class
}

// Batch растущий буфер трансформаций граней одного класса текстуры.
// Живые слоты всегда занимают префикс [0, Count()).
type Batch struct {
	class      block.TextureClass
	transforms []mgl32.Mat4
	owners     []*Instance
	dirty      map[int]struct{}
	needsCount bool
	marks      uint64
}

func newBatch(class block.TextureClass) *Batch {
	return &Batch{
		class: class,
		dirty: make(map[int]struct{}),
	}
}

// Class возвращает класс текстуры батча
func (b *Batch) Class() block.TextureClass {
	return b.class
}

// Count возвращает число живых слотов
func (b *Batch) Count() int {
	return len(b.owners)
}

// add занимает следующий свободный слот
func (b *Batch) add(m mgl32.Mat4) *Instance {
	inst := &Instance{batch: b, index: len(b.owners)}
	b.transforms = append(b.transforms, m)
	b.owners = append(b.owners, inst)
	b.mark(inst.index)
	b.needsCount = true
	return inst
}

// remove освобождает слот: последний живой слот переносится на место удалённого
func (b *Batch) remove(inst *Instance) bool {
	if inst == nil || inst.batch != b {
		return false
	}
	idx := inst.index
	if idx < 0 || idx >= len(b.owners) || b.owners[idx] != inst {
		return false
	}

	last := len(b.owners) - 1
	if idx != last {
		moved := b.owners[last]
		b.owners[idx] = moved
		b.transforms[idx] = b.transforms[last]
		moved.index = idx
		b.mark(idx)
	}
	b.owners[last] = nil
	b.owners = b.owners[:last]
	b.transforms = b.transforms[:last]
	delete(b.dirty, last)
	b.needsCount = true

	inst.batch = nil
	inst.index = -1
	return true
}

func (b *Batch) mark(idx int) {
	if _, ok := b.dirty[idx]; ok {
		return
	}
	b.dirty[idx] = struct{}{}
	b.marks++
}

// Transform возвращает трансформацию слота
func (b *Batch) Transform(idx int) (mgl32.Mat4, bool) {
	if idx < 0 || idx >= len(b.transforms) {
		return mgl32.Mat4{}, false
	}
	return b.transforms[idx], true
}

// Transforms возвращает копию трансформаций живых слотов
func (b *Batch) Transforms() []mgl32.Mat4 {
	out := make([]mgl32.Mat4, len(b.transforms))
	copy(out, b.transforms)
	return out
}

// Dirty проверяет, есть ли изменения, не выгруженные рендереру
func (b *Batch) Dirty() bool {
	return len(b.dirty) > 0 || b.needsCount
}

// TakeDirty возвращает отсортированные индексы изменённых слотов и сбрасывает отметки
func (b *Batch) TakeDirty() []int {
	idx := make([]int, 0, len(b.dirty))
	for i := range b.dirty {
		if i < len(b.owners) {
			idx = append(idx, i)
		}
	}
	sort.Ints(idx)
	b.dirty = make(map[int]struct{})
	b.needsCount = false
	return idx
}
