package world

import (
	"sort"

	"github.com/vuongle2609/Minecraft/internal/render"
	"github.com/vuongle2609/Minecraft/internal/vec"
	"github.com/vuongle2609/Minecraft/internal/world/block"
)

// Block представляет занятую позицию решётки вместе с её видимыми гранями
type Block struct {
	Type  block.Type
	Pos   vec.Vec3
	faces [vec.FaceCount]*render.Instance
}

// HasFace сообщает, отрисована ли грань
func (b *Block) HasFace(f vec.Face) bool {
	return f.Valid() && b.faces[f] != nil
}

// Face возвращает слот грани или nil
func (b *Block) Face(f vec.Face) *render.Instance {
	if !f.Valid() {
		return nil
	}
	return b.faces[f]
}

// VisibleFaces возвращает список видимых граней
func (b *Block) VisibleFaces() []vec.Face {
	out := make([]vec.Face, 0, vec.FaceCount)
	for _, f := range vec.Faces {
		if b.faces[f] != nil {
			out = append(out, f)
		}
	}
	return out
}

// FaceKey возвращает ключ грани "x_y_z_type_face"
func (b *Block) FaceKey(f vec.Face) string {
	return vec.FaceName(b.Pos, b.Type.String(), f)
}

// gridHooks получает уведомления о вставке и удалении блоков
type gridHooks interface {
	inserted(b *Block)
	removing(b *Block)
}

// Grid разреженная решётка блоков. Отсутствие записи означает воздух.
// Не потокобезопасна: владеет ею основной контекст.
type Grid struct {
	blocks map[vec.Vec3]*Block
	hooks  gridHooks
}

// NewGrid создаёт пустую решётку
func NewGrid() *Grid {
	return &Grid{blocks: make(map[vec.Vec3]*Block)}
}

// Get возвращает тип блока в позиции или Air
func (g *Grid) Get(pos vec.Vec3) block.Type {
	if b, ok := g.blocks[pos]; ok {
		return b.Type
	}
	return block.Air
}

// Block возвращает запись блока в позиции
func (g *Grid) Block(pos vec.Vec3) (*Block, bool) {
	b, ok := g.blocks[pos]
	return b, ok
}

// Occupied сообщает, занята ли позиция
func (g *Grid) Occupied(pos vec.Vec3) bool {
	_, ok := g.blocks[pos]
	return ok
}

// Len возвращает количество занятых позиций
func (g *Grid) Len() int {
	return len(g.blocks)
}

// Set записывает тип в позицию и возвращает предыдущий тип.
// Занятая позиция сначала освобождается, затем заполняется заново.
// Air эквивалентен Remove. Позиция приводится к решётке.
func (g *Grid) Set(pos vec.Vec3, t block.Type) block.Type {
	pos = vec.SnapInts(pos.X, pos.Y, pos.Z)
	if t == block.Air {
		return g.Remove(pos)
	}

	prev := block.Air
	if old, ok := g.blocks[pos]; ok {
		prev = old.Type
		g.erase(old)
	}

	b := &Block{Type: t, Pos: pos}
	g.blocks[pos] = b
	if g.hooks != nil {
		g.hooks.inserted(b)
	}
	return prev
}

// Remove освобождает позицию и возвращает удалённый тип.
// Для пустой позиции ничего не делает и возвращает Air.
func (g *Grid) Remove(pos vec.Vec3) block.Type {
	pos = vec.SnapInts(pos.X, pos.Y, pos.Z)
	b, ok := g.blocks[pos]
	if !ok {
		return block.Air
	}
	g.erase(b)
	return b.Type
}

func (g *Grid) erase(b *Block) {
	if g.hooks != nil {
		g.hooks.removing(b)
	}
	delete(g.blocks, b.Pos)
}

// Positions возвращает занятые позиции в детерминированном порядке
func (g *Grid) Positions() []vec.Vec3 {
	out := make([]vec.Vec3, 0, len(g.blocks))
	for p := range g.blocks {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	return out
}

// ForEach обходит все блоки решётки
func (g *Grid) ForEach(fn func(b *Block)) {
	for _, b := range g.blocks {
		fn(b)
	}
}
