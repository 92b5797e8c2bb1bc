package world

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vuongle2609/Minecraft/internal/render"
	"github.com/vuongle2609/Minecraft/internal/vec"
	"github.com/vuongle2609/Minecraft/internal/world/block"
)

func newTestGrid() (*Grid, *Mesher) {
	g := NewGrid()
	m := NewMesher(g, render.NewAllocator())
	return g, m
}

// faceState видимые грани каждой позиции решётки
func faceState(g *Grid) map[vec.Vec3][]vec.Face {
	out := make(map[vec.Vec3][]vec.Face, g.Len())
	g.ForEach(func(b *Block) {
		out[b.Pos] = b.VisibleFaces()
	})
	return out
}

func classCounts(a *render.Allocator) map[block.TextureClass]int {
	out := make(map[block.TextureClass]int)
	for _, c := range a.Classes() {
		if n := a.Count(c); n > 0 {
			out[c] = n
		}
	}
	return out
}

func TestMesher_LinearWall(t *testing.T) {
	g, m := newTestGrid()
	left, middle, right := vec.Vec3{X: 0}, vec.Vec3{X: 2}, vec.Vec3{X: 4}
	g.Set(left, block.Stone)
	g.Set(middle, block.Stone)
	g.Set(right, block.Stone)

	mid, ok := g.Block(middle)
	require.True(t, ok)
	assert.False(t, mid.HasFace(vec.FaceFront), "средний блок: front закрыт соседом")
	assert.False(t, mid.HasFace(vec.FaceBack), "средний блок: back закрыт соседом")
	for _, f := range []vec.Face{vec.FaceTop, vec.FaceBottom, vec.FaceLeft, vec.FaceRight} {
		assert.True(t, mid.HasFace(f), "средний блок: грань %s должна быть видна", f)
	}

	l, _ := g.Block(left)
	assert.Equal(t, []vec.Face{vec.FaceBack, vec.FaceLeft, vec.FaceRight, vec.FaceTop, vec.FaceBottom}, l.VisibleFaces())
	r, _ := g.Block(right)
	assert.Equal(t, []vec.Face{vec.FaceFront, vec.FaceLeft, vec.FaceRight, vec.FaceTop, vec.FaceBottom}, r.VisibleFaces())

	assert.Equal(t, 14, m.Allocator().Count("stone"))
	require.NoError(t, m.Verify())
}

func TestMesher_BreakRestoresNeighbours(t *testing.T) {
	g, m := newTestGrid()
	for _, x := range []int{0, 2, 4} {
		g.Set(vec.Vec3{X: x}, block.Stone)
	}

	removed := g.Remove(vec.Vec3{X: 2})
	assert.Equal(t, block.Stone, removed)
	assert.False(t, g.Occupied(vec.Vec3{X: 2}), "позиция должна исчезнуть из решётки")

	l, _ := g.Block(vec.Vec3{X: 0})
	r, _ := g.Block(vec.Vec3{X: 4})
	assert.True(t, l.HasFace(vec.FaceFront), "левый блок вернул грань к разрушенному")
	assert.True(t, r.HasFace(vec.FaceBack), "правый блок вернул грань к разрушенному")
	assert.Len(t, l.VisibleFaces(), 6)
	assert.Len(t, r.VisibleFaces(), 6)

	assert.Equal(t, 12, m.Allocator().Count("stone"))
	require.NoError(t, m.Verify())
}

func TestMesher_PlacementOrderIndependent(t *testing.T) {
	a, b := vec.Vec3{X: 0, Y: 2, Z: 0}, vec.Vec3{X: 0, Y: 2, Z: 2}

	g1, m1 := newTestGrid()
	g1.Set(a, block.Grass)
	g1.Set(b, block.OakLog)

	g2, m2 := newTestGrid()
	g2.Set(b, block.OakLog)
	g2.Set(a, block.Grass)

	assert.Equal(t, faceState(g1), faceState(g2))
	assert.Equal(t, classCounts(m1.Allocator()), classCounts(m2.Allocator()))
	require.NoError(t, m1.Verify())
	require.NoError(t, m2.Verify())
}

func TestMesher_PlaceThenBreakRoundTrip(t *testing.T) {
	g, m := newTestGrid()
	for x := 0; x <= 4; x += 2 {
		for z := 0; z <= 4; z += 2 {
			g.Set(vec.Vec3{X: x, Z: z}, block.Grass)
		}
	}
	g.Set(vec.Vec3{X: 2, Y: 2, Z: 4}, block.Brick)

	beforeFaces := faceState(g)
	beforeCounts := classCounts(m.Allocator())

	p := vec.Vec3{X: 2, Y: 2, Z: 2}
	assert.Equal(t, block.Air, g.Set(p, block.Glass))
	require.NoError(t, m.Verify())
	assert.Equal(t, block.Glass, g.Remove(p))

	assert.Equal(t, beforeFaces, faceState(g))
	assert.Equal(t, beforeCounts, classCounts(m.Allocator()))
	require.NoError(t, m.Verify())
}

func TestMesher_OverwriteRecomputesFaces(t *testing.T) {
	g, m := newTestGrid()
	p := vec.Vec3{X: 0, Y: 2, Z: 0}
	g.Set(vec.Vec3{X: 0, Y: 0, Z: 0}, block.Stone)
	g.Set(p, block.Stone)

	prev := g.Set(p, block.Grass)
	assert.Equal(t, block.Stone, prev)
	assert.Equal(t, block.Grass, g.Get(p))

	top, _ := g.Block(p)
	assert.Equal(t, block.TextureClass("grass_top"), top.Face(vec.FaceTop).Class())
	assert.False(t, top.HasFace(vec.FaceBottom))

	counts := classCounts(m.Allocator())
	assert.Equal(t, 5, counts["stone"], "нижний блок без верхней грани")
	assert.Equal(t, 4, counts["grass_side"])
	assert.Equal(t, 1, counts["grass_top"])
	require.NoError(t, m.Verify())
}

func TestGrid_AbsenceIsState(t *testing.T) {
	g, m := newTestGrid()
	assert.Equal(t, block.Air, g.Get(vec.Vec3{X: 10}))
	assert.Equal(t, block.Air, g.Remove(vec.Vec3{X: 10}), "удаление пустой позиции - не ошибка")
	assert.Equal(t, block.Air, g.Set(vec.Vec3{X: 10}, block.Air))
	assert.Equal(t, 0, g.Len())
	assert.Empty(t, m.Allocator().Classes())
}

func TestGrid_SnapsOffLatticePositions(t *testing.T) {
	g, m := newTestGrid()
	g.Set(vec.Vec3{X: 3, Y: 0, Z: -1}, block.Sand)

	assert.Equal(t, block.Sand, g.Get(vec.Vec3{X: 4, Y: 0, Z: -2}))
	g.Set(vec.Vec3{X: 2, Y: 0, Z: -2}, block.Sand)
	b, _ := g.Block(vec.Vec3{X: 4, Y: 0, Z: -2})
	assert.False(t, b.HasFace(vec.FaceBack), "соседи находятся по точному ключу решётки")
	require.NoError(t, m.Verify())
}

func TestMesher_RandomEditsKeepInvariants(t *testing.T) {
	g, m := newTestGrid()
	rng := rand.New(rand.NewSource(7))
	types := []block.Type{block.Grass, block.Stone, block.OakLog, block.Glass, block.Sand}

	randomPos := func() vec.Vec3 {
		return vec.Vec3{
			X: (rng.Intn(6) - 3) * vec.BlockWidth,
			Y: rng.Intn(4) * vec.BlockWidth,
			Z: (rng.Intn(6) - 3) * vec.BlockWidth,
		}
	}

	model := make(map[vec.Vec3]block.Type)
	for i := 0; i < 3000; i++ {
		p := randomPos()
		if rng.Intn(3) == 0 {
			assert.Equal(t, model[p], g.Remove(p))
			delete(model, p)
		} else {
			tp := types[rng.Intn(len(types))]
			assert.Equal(t, model[p], g.Set(p, tp))
			model[p] = tp
		}
		if i%100 == 0 {
			require.NoError(t, m.Verify(), "шаг %d", i)
		}
	}
	require.NoError(t, m.Verify())

	assert.Equal(t, len(model), g.Len())
	for p, tp := range model {
		assert.Equal(t, tp, g.Get(p))
	}

	// После удаления всего не остаётся ни одного живого слота
	positions := g.Positions()
	sort.Slice(positions, func(i, j int) bool { return positions[i].Y > positions[j].Y })
	for _, p := range positions {
		g.Remove(p)
	}
	assert.Empty(t, classCounts(m.Allocator()))
}
