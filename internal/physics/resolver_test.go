package physics

import (
	"context"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vuongle2609/Minecraft/internal/vec"
	"github.com/vuongle2609/Minecraft/internal/world/block"
)

func startResolver(t *testing.T, params Params, outbox int) *Resolver {
	t.Helper()
	r := NewResolver(params, 64, outbox)
	ctx, cancel := context.WithCancel(context.Background())
	go r.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-r.Done()
	})
	return r
}

func expectReply(t *testing.T, r *Resolver) Reply {
	t.Helper()
	select {
	case rep := <-r.Replies():
		return rep
	case <-time.After(2 * time.Second):
		t.Fatal("нет ответа резолвера")
		return nil
	}
}

func TestResolver_BulkLoadThenSpawnAndMove(t *testing.T) {
	r := startResolver(t, testParams(), 8)
	ctx := context.Background()

	require.NoError(t, r.Send(ctx, RequestSpawnHeight{}))
	r.BulkAddBlock(plane(8).Blocks)

	assert.Equal(t, GridReady{}, expectReply(t, r))
	spawn, ok := expectReply(t, r).(ChangePosition)
	require.True(t, ok)
	assert.Equal(t, mgl64.Vec3{8, 3, 8}, spawn.Position)

	require.NoError(t, r.Send(ctx, CalculateMovement{Forward: mgl64.Vec3{0, 0, 1}, Position: spawn.Position, Delta: frame}))
	up, ok := expectReply(t, r).(UpdatePosition)
	require.True(t, ok)
	assert.Less(t, up.Position.Y(), spawn.Position.Y())
}

func TestResolver_MirrorsEditsInOrder(t *testing.T) {
	r := startResolver(t, testParams(), 8)
	ctx := context.Background()

	r.BulkAddBlock(plane(4).Blocks)
	expectReply(t, r) // gridReady

	// Колонна 8,0..2,8 за пределами плоскости
	r.AddBlock(vec.Vec3{X: 8, Y: 0, Z: 8}, block.Stone)
	r.AddBlock(vec.Vec3{X: 8, Y: 2, Z: 8}, block.Stone)
	r.RemoveBlock(vec.Vec3{X: 8, Y: 2, Z: 8})
	require.NoError(t, r.Send(ctx, RequestSpawnHeight{}))

	cp, ok := expectReply(t, r).(ChangePosition)
	require.True(t, ok)
	assert.Equal(t, 3.0, cp.Position.Y(), "удаление применено до запроса")
}

func TestResolver_RawUnknownIgnored(t *testing.T) {
	r := startResolver(t, testParams(), 8)
	ctx := context.Background()

	require.NoError(t, r.SendRaw(ctx, []byte(`{"type":"unknownThing","data":1}`)))
	require.NoError(t, r.SendRaw(ctx, []byte(`{"type":"bulkAddBlock","data":{"blocks":{"8_0_8":"stone"}}}`)))
	assert.Equal(t, GridReady{}, expectReply(t, r))

	assert.Eventually(t, func() bool { return r.Stats().Ignored == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, uint64(1), r.Stats().Handled)
}

func TestResolver_LatestReplyWins(t *testing.T) {
	r := startResolver(t, testParams(), 1)
	ctx := context.Background()

	r.BulkAddBlock(plane(4).Blocks)
	for i := 1; i <= 5; i++ {
		require.NoError(t, r.Send(ctx, CalculateMovement{Forward: mgl64.Vec3{0, 0, 1}, Position: mgl64.Vec3{0, float64(100 + i), 0}, Delta: frame}))
	}

	assert.Eventually(t, func() bool { return r.Stats().Handled == 6 }, time.Second, 10*time.Millisecond)
	up, ok := expectReply(t, r).(UpdatePosition)
	require.True(t, ok)
	assert.Greater(t, up.Position.Y(), 104.0, "в канале остался последний ответ")
	assert.Equal(t, uint64(5), r.Stats().RepliesDropped, "gridReady и четыре шага вытеснены")
}

func TestResolver_WarmupTimerEnablesMovement(t *testing.T) {
	params := testParams()
	params.Warmup = 50 * time.Millisecond
	r := startResolver(t, params, 8)

	r.BulkAddBlock(plane(4).Blocks)
	assert.Equal(t, GridReady{}, expectReply(t, r), "таймер прогрева включает движение без новых команд")
}

func TestResolver_SendAfterStop(t *testing.T) {
	r := NewResolver(testParams(), 1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	go r.Run(ctx)
	cancel()
	<-r.Done()

	require.True(t, r.TrySend(JumpCharacter{}), "буфер ещё свободен")
	assert.Error(t, r.Send(context.Background(), JumpCharacter{}))
}
