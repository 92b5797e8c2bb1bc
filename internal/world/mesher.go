package world

import (
	"fmt"

	"github.com/vuongle2609/Minecraft/internal/render"
	"github.com/vuongle2609/Minecraft/internal/vec"
	"github.com/vuongle2609/Minecraft/internal/world/block"
)

// Mesher поддерживает видимость граней: грань показана тогда и только тогда,
// когда соседняя ячейка по её нормали пуста.
type Mesher struct {
	grid  *Grid
	alloc *render.Allocator
}

// NewMesher подключает мешер к решётке
func NewMesher(grid *Grid, alloc *render.Allocator) *Mesher {
	m := &Mesher{grid: grid, alloc: alloc}
	grid.hooks = m
	return m
}

// Allocator возвращает аллокатор батчей граней
func (m *Mesher) Allocator() *render.Allocator {
	return m.alloc
}

// inserted скрывает касающиеся грани соседей и выставляет собственные открытые грани
func (m *Mesher) inserted(b *Block) {
	for _, f := range vec.Faces {
		if n, ok := m.grid.blocks[b.Pos.Neighbor(f)]; ok {
			m.hide(n, f.Opposite())
			continue
		}
		m.show(b, f)
	}
}

// removing снимает собственные грани и открывает грани соседей.
// Запись ещё присутствует в решётке в момент вызова.
func (m *Mesher) removing(b *Block) {
	for _, f := range vec.Faces {
		m.hide(b, f)
	}
	for _, f := range vec.Faces {
		if n, ok := m.grid.blocks[b.Pos.Neighbor(f)]; ok {
			m.show(n, f.Opposite())
		}
	}
}

func (m *Mesher) show(b *Block, f vec.Face) {
	if b.faces[f] != nil {
		return
	}
	class := TextureClass(b.Type, f)
	b.faces[f] = m.alloc.AddFace(class, render.FaceTransform(b.Pos, f))
}

func (m *Mesher) hide(b *Block, f vec.Face) {
	inst := b.faces[f]
	if inst == nil {
		return
	}
	m.alloc.RemoveFace(inst)
	b.faces[f] = nil
}

// TextureClass возвращает класс текстуры грани.
// Незарегистрированный тип получает класс по своему имени.
func TextureClass(t block.Type, f vec.Face) block.TextureClass {
	if k, ok := block.Get(t); ok {
		if c := k.TextureFor(f); c != "" {
			return c
		}
	}
	return block.TextureClass(t.String())
}

// Verify проверяет согласованность граней с решёткой и батчами.
// Возвращает первое найденное нарушение.
func (m *Mesher) Verify() error {
	perClass := make(map[block.TextureClass]int)
	for _, pos := range m.grid.Positions() {
		b := m.grid.blocks[pos]
		for _, f := range vec.Faces {
			_, neighbour := m.grid.blocks[pos.Neighbor(f)]
			inst := b.faces[f]
			switch {
			case neighbour && inst != nil:
				return fmt.Errorf("грань %s блока %s видима при занятом соседе", f, pos.Key())
			case !neighbour && inst == nil:
				return fmt.Errorf("грань %s блока %s скрыта при пустом соседе", f, pos.Key())
			case inst != nil:
				if inst.Index() < 0 {
					return fmt.Errorf("грань %s блока %s ссылается на освобождённый слот", f, pos.Key())
				}
				batch, ok := m.alloc.Batch(inst.Class())
				if !ok {
					return fmt.Errorf("нет батча %s для грани %s", inst.Class(), b.FaceKey(f))
				}
				want := render.FaceTransform(pos, f)
				got, ok := batch.Transform(inst.Index())
				if !ok || got != want {
					return fmt.Errorf("слот %d батча %s не совпадает с гранью %s", inst.Index(), inst.Class(), b.FaceKey(f))
				}
				perClass[inst.Class()]++
			}
		}
	}
	for _, class := range m.alloc.Classes() {
		if got := m.alloc.Count(class); got != perClass[class] {
			return fmt.Errorf("батч %s: count=%d, видимых граней %d", class, got, perClass[class])
		}
	}
	return nil
}
