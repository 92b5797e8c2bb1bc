package physics

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vuongle2609/Minecraft/internal/vec"
	"github.com/vuongle2609/Minecraft/internal/world/block"
)

const frame = 1.0 / 60

// plane плоскость травы на y=0 в квадрате [-n, n]
func plane(n int) BulkAddBlock {
	blocks := make(map[vec.Vec3]block.Type)
	for x := -n; x <= n; x += vec.BlockWidth {
		for z := -n; z <= n; z += vec.BlockWidth {
			blocks[vec.Vec3{X: x, Y: 0, Z: z}] = block.Grass
		}
	}
	return BulkAddBlock{Blocks: blocks}
}

func testParams() Params {
	p := DefaultParams()
	p.Warmup = 0
	return p
}

func step(t *testing.T, e *Engine, pos, dir mgl64.Vec3, delta float64) UpdatePosition {
	t.Helper()
	replies := e.Handle(CalculateMovement{
		Forward:   mgl64.Vec3{0, 0, 1},
		Direction: dir,
		Position:  pos,
		Delta:     delta,
	})
	require.Len(t, replies, 1)
	up, ok := replies[0].(UpdatePosition)
	require.True(t, ok, "ожидался updatePosition, получено %T", replies[0])
	return up
}

// fall шагает без намерения, пока персонаж не коснётся земли
func fall(t *testing.T, e *Engine, pos mgl64.Vec3) UpdatePosition {
	t.Helper()
	for i := 0; i < 600; i++ {
		up := step(t, e, pos, mgl64.Vec3{}, frame)
		pos = up.Position
		if up.OnGround {
			return up
		}
	}
	t.Fatal("персонаж не приземлился")
	return UpdatePosition{}
}

func TestEngine_VelocityStartsAtTerminal(t *testing.T) {
	e := NewEngine(testParams())
	assert.Equal(t, -25.0, e.VelocityY())
	assert.False(t, e.Enabled())
}

func TestEngine_GroundedJump(t *testing.T) {
	e := NewEngine(testParams())
	replies := e.Handle(plane(8))
	assert.Equal(t, []Reply{GridReady{}}, replies, "без задержки прогрева готовность сразу после первого чанка")

	landed := fall(t, e, mgl64.Vec3{0, 8, 0})
	assert.True(t, landed.OnGround)
	assert.Equal(t, block.Grass, landed.Collided)
	assert.InDelta(t, 2.5, landed.Position.Y(), 1e-9, "ступни на верхней грани блока y=0")

	e.Handle(JumpCharacter{})
	assert.Equal(t, 12.0, e.VelocityY())

	pos := landed.Position
	heights := []float64{pos.Y()}
	for i := 0; i < 600; i++ {
		up := step(t, e, pos, mgl64.Vec3{}, frame)
		pos = up.Position
		heights = append(heights, pos.Y())
		if up.OnGround {
			break
		}
	}
	require.True(t, e.OnGround(), "персонаж вернулся на землю")

	peak := 0
	for i, h := range heights {
		if h > heights[peak] {
			peak = i
		}
	}
	require.Greater(t, peak, 0)
	assert.Greater(t, heights[peak], 2.5+3.0, "прыжок поднимает выше трёх единиц")
	for i := 0; i < peak; i++ {
		assert.Greater(t, heights[i+1], heights[i], "подъём, кадр %d", i)
	}
	for i := peak; i < len(heights)-1; i++ {
		assert.Less(t, heights[i+1], heights[i], "спуск, кадр %d", i)
	}
	assert.InDelta(t, 2.5, heights[len(heights)-1], 1e-9)
}

func TestEngine_JumpWhileAirborneIsNoop(t *testing.T) {
	e := NewEngine(testParams())
	e.Handle(plane(4))

	up := step(t, e, mgl64.Vec3{0, 20, 0}, mgl64.Vec3{}, frame)
	require.False(t, up.OnGround)
	e.Handle(JumpCharacter{})
	assert.Equal(t, -25.0, e.VelocityY())
}

func TestEngine_SpawnHeight(t *testing.T) {
	e := NewEngine(testParams())
	e.Handle(BulkAddBlock{Blocks: map[vec.Vec3]block.Type{
		{X: 8, Y: 0, Z: 8}: block.Stone,
		{X: 8, Y: 2, Z: 8}: block.Dirt,
	}})

	replies := e.Handle(RequestSpawnHeight{})
	require.Len(t, replies, 1)
	cp, ok := replies[0].(ChangePosition)
	require.True(t, ok)
	assert.Equal(t, mgl64.Vec3{8, 5, 8}, cp.Position)
	assert.Greater(t, cp.Position.Y(), 2.0)
	assert.LessOrEqual(t, cp.Position.Y(), 4.0+SpawnClearance)
}

func TestEngine_SpawnWaitsForBulkAfterSingleEdits(t *testing.T) {
	e := NewEngine(testParams())
	e.Handle(AddBlock{Position: vec.Vec3{X: 8, Y: 0, Z: 8}, Type: block.Stone})

	assert.Empty(t, e.Handle(RequestSpawnHeight{}), "одиночные правки не заменяют загрузку чанка")

	column := map[vec.Vec3]block.Type{}
	for y := 0; y <= 6; y += vec.BlockWidth {
		column[vec.Vec3{X: 8, Y: y, Z: 8}] = block.Stone
	}
	replies := e.Handle(BulkAddBlock{Blocks: column})
	require.Len(t, replies, 2)
	assert.Equal(t, GridReady{}, replies[0])
	assert.Equal(t, ChangePosition{Position: mgl64.Vec3{8, 9, 8}}, replies[1])
}

func TestEngine_SpawnDeferredUntilBulkLoad(t *testing.T) {
	e := NewEngine(testParams())
	assert.Empty(t, e.Handle(RequestSpawnHeight{}), "пустая реплика: ответ откладывается")

	replies := e.Handle(plane(8))
	require.Len(t, replies, 2)
	assert.Equal(t, GridReady{}, replies[0])
	assert.Equal(t, ChangePosition{Position: mgl64.Vec3{8, 3, 8}}, replies[1])

	assert.Empty(t, e.Handle(plane(8)), "отложенный запрос отвечен один раз")
}

func TestEngine_WarmupGatesMovement(t *testing.T) {
	params := testParams()
	params.Warmup = 500 * time.Millisecond
	e := NewEngine(params)
	now := time.Unix(1000, 0)
	e.SetClock(func() time.Time { return now })

	move := CalculateMovement{Forward: mgl64.Vec3{0, 0, 1}, Position: mgl64.Vec3{0, 4, 0}, Delta: frame}
	assert.Empty(t, e.Handle(move), "до загрузки движение не считается")
	assert.Empty(t, e.Handle(plane(4)), "задержка ещё не истекла")
	assert.Equal(t, 500*time.Millisecond, e.WarmupRemaining())
	assert.Empty(t, e.Handle(move))

	now = now.Add(500 * time.Millisecond)
	replies := e.Handle(move)
	require.Len(t, replies, 2)
	assert.Equal(t, GridReady{}, replies[0])
	assert.IsType(t, UpdatePosition{}, replies[1])
	assert.Equal(t, uint64(2), e.Stats().Gated)
}

func TestEngine_UnknownMessageIgnored(t *testing.T) {
	e := NewEngine(testParams())
	assert.Empty(t, e.HandleRaw([]byte(`{"type":"teleport","data":{"x":1}}`)))
	assert.Empty(t, e.HandleRaw([]byte(`not json`)))
	assert.Empty(t, e.HandleRaw([]byte(`{"type":"addBlock"}`)), "сообщение без данных")
	assert.Equal(t, uint64(3), e.Stats().Ignored)
	assert.Zero(t, e.Stats().Handled)

	replies := e.HandleRaw([]byte(`{"type":"addBlock","data":{"position":[8,0,8],"type":"stone"}}`))
	assert.Empty(t, replies)
	assert.Equal(t, block.Stone, e.Occupied(vec.Vec3{X: 8, Y: 0, Z: 8}))
}

func TestEngine_WallStopsHorizontalMove(t *testing.T) {
	e := NewEngine(testParams())
	floor := plane(8)
	floor.Blocks[vec.Vec3{X: 4, Y: 2, Z: 0}] = block.Brick
	floor.Blocks[vec.Vec3{X: 4, Y: 4, Z: 0}] = block.Brick
	e.Handle(floor)

	pos := fall(t, e, mgl64.Vec3{0, 4, 0}).Position
	left := mgl64.Vec3{1, 0, 0}
	for i := 0; i < 20; i++ {
		pos = step(t, e, pos, left, 0.1).Position
	}
	assert.InDelta(t, 4-1-0.4, pos.X(), 1e-9, "упор в грань стены")
	assert.InDelta(t, 0, pos.Z(), 1e-9)
	assert.InDelta(t, 2.5, pos.Y(), 1e-9)
}

func TestEngine_RemovedBlockNoLongerCollides(t *testing.T) {
	e := NewEngine(testParams())
	e.Handle(plane(4))
	landed := fall(t, e, mgl64.Vec3{0, 4, 0})

	e.Handle(RemoveBlock{Position: vec.Vec3{X: 0, Y: 0, Z: 0}})
	up := step(t, e, landed.Position, mgl64.Vec3{}, frame)
	assert.False(t, up.OnGround, "под ногами пусто")
	assert.Less(t, up.Position.Y(), landed.Position.Y())
}

func TestEngine_HeadBumpStopsAscent(t *testing.T) {
	e := NewEngine(testParams())
	floor := plane(4)
	floor.Blocks[vec.Vec3{X: 0, Y: 6, Z: 0}] = block.Stone // низ на y=5
	e.Handle(floor)

	pos := fall(t, e, mgl64.Vec3{0, 3, 0}).Position
	e.Handle(JumpCharacter{})
	for i := 0; i < 10; i++ {
		pos = step(t, e, pos, mgl64.Vec3{}, frame).Position
		assert.LessOrEqual(t, pos.Y()+1.5, 5.0+1e-9, "голова не проходит сквозь потолок")
	}
	assert.LessOrEqual(t, e.VelocityY(), 0.0)
}

func TestHorizontalMove(t *testing.T) {
	fwd := mgl64.Vec3{0, -0.7, 1} // наклон камеры не влияет на движение
	left := horizontalMove(fwd, mgl64.Vec3{1, 0, 0})
	assert.InDelta(t, 1, left.X(), 1e-9)
	assert.InDelta(t, 0, left.Y(), 1e-9)

	back := horizontalMove(fwd, mgl64.Vec3{0, 0, -1})
	assert.InDelta(t, -1, back.Z(), 1e-9)

	diag := horizontalMove(fwd, mgl64.Vec3{1, 0, 1})
	assert.InDelta(t, 1, diag.Len(), 1e-9)

	assert.Equal(t, mgl64.Vec3{}, horizontalMove(fwd, mgl64.Vec3{}))
	assert.Equal(t, mgl64.Vec3{}, horizontalMove(mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0, 1}))
}
