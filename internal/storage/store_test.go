package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vuongle2609/Minecraft/internal/config"
	"github.com/vuongle2609/Minecraft/internal/vec"
	"github.com/vuongle2609/Minecraft/internal/world/block"
)

func sampleRecords() Records {
	return RecordsFromCells(map[vec.Vec3]block.Type{
		{X: 0, Y: 2, Z: 0}:  block.Stone,
		{X: 2, Y: 2, Z: 0}:  block.OakPlanks,
		{X: 4, Y: 0, Z: -2}: block.Air,
	})
}

// exerciseStore общий сценарий для всех backend'ов
func exerciseStore(t *testing.T, store ChunkStore) {
	ctx := context.Background()
	coord := vec.Vec2{X: -1, Z: 3}

	_, found, err := store.LoadChunk(ctx, coord)
	require.NoError(t, err)
	assert.False(t, found, "несохранённый чанк не должен находиться")

	require.NoError(t, store.SaveChunk(ctx, coord, sampleRecords()))
	require.NoError(t, store.SaveChunk(ctx, vec.Vec2{X: 2, Z: 0}, Records{}))

	got, found, err := store.LoadChunk(ctx, coord)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, sampleRecords(), got)
	assert.True(t, got["4_0_-2"].Tombstone(), "надгробие должно сохраниться")

	coords, err := store.ListChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []vec.Vec2{{X: -1, Z: 3}, {X: 2, Z: 0}}, coords)

	// Повторное сохранение заменяет записи
	require.NoError(t, store.SaveChunk(ctx, coord, Records{"0_2_0": Record(block.Glass)}))
	got, _, err = store.LoadChunk(ctx, coord)
	require.NoError(t, err)
	assert.Equal(t, Records{"0_2_0": Record(block.Glass)}, got)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	exerciseStore(t, store)

	require.NoError(t, store.Close())
	_, _, err := store.LoadChunk(context.Background(), vec.Vec2{})
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	rec := sampleRecords()
	require.NoError(t, store.SaveChunk(ctx, vec.Vec2{}, rec))
	rec["0_2_0"] = Record(block.Sand)

	got, _, _ := store.LoadChunk(ctx, vec.Vec2{})
	assert.Equal(t, Record(block.Stone), got["0_2_0"], "хранилище не должно разделять карту с вызывающим")
}

func TestBadgerStore(t *testing.T) {
	store, err := NewBadgerStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewBadgerStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.SaveChunk(ctx, vec.Vec2{X: 5, Z: 5}, sampleRecords()))
	require.NoError(t, store.Close())

	reopened, err := NewBadgerStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, found, err := reopened.LoadChunk(ctx, vec.Vec2{X: 5, Z: 5})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, sampleRecords(), got)
}

func TestBadgerStore_ClosedIsNotReady(t *testing.T) {
	store, err := NewBadgerStore("")
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close(), "повторное закрытие не ошибка")

	err = store.SaveChunk(context.Background(), vec.Vec2{}, Records{})
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("SANDBOX_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	store, err := NewRedisStore(&RedisConfig{Addr: addr, DB: 15, Hash: "chunks_test"})
	if err != nil {
		t.Skipf("Redis not available, skipping test: %v", err)
	}
	defer store.Close()
	require.NoError(t, store.Drop(context.Background()))
	defer store.Drop(context.Background())

	exerciseStore(t, store)
}

func TestOpen_Backends(t *testing.T) {
	store, err := Open(config.StorageConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = Open(config.StorageConfig{Backend: "badger", Path: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &BadgerStore{}, store)
	require.NoError(t, store.Close())

	_, err = Open(config.StorageConfig{Backend: "tape"})
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestRecordJSON(t *testing.T) {
	data, err := json.Marshal(Records{"0_0_0": Record(block.Grass), "2_0_0": Record(block.Air)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"0_0_0":"grass","2_0_0":0}`, string(data))

	var back Records
	require.NoError(t, json.Unmarshal([]byte(`{"0_0_0":"oak_log","2_0_0":0,"4_0_0":3}`), &back))
	assert.Equal(t, Record(block.OakLog), back["0_0_0"])
	assert.True(t, back["2_0_0"].Tombstone())
	assert.Equal(t, Record(block.Stone), back["4_0_0"], "числовой ID тоже принимается")

	assert.Error(t, json.Unmarshal([]byte(`{"0_0_0":"unobtainium"}`), &back))
}

func TestRecordsCells(t *testing.T) {
	cells, err := sampleRecords().Cells()
	require.NoError(t, err)
	assert.Equal(t, block.OakPlanks, cells[vec.Vec3{X: 2, Y: 2, Z: 0}])
	assert.Equal(t, block.Air, cells[vec.Vec3{X: 4, Y: 0, Z: -2}])

	_, err = Records{"not_a_key": Record(block.Stone)}.Cells()
	assert.Error(t, err)
}

func TestSnapshotExportImport(t *testing.T) {
	ctx := context.Background()
	src := NewMemoryStore()
	require.NoError(t, src.SaveChunk(ctx, vec.Vec2{X: 0, Z: 0}, sampleRecords()))
	require.NoError(t, src.SaveChunk(ctx, vec.Vec2{X: -2, Z: 1}, Records{"-64_0_32": Record(block.Air)}))

	snap, err := ExportSnapshot(ctx, src)
	require.NoError(t, err)
	assert.Len(t, snap, 2)
	assert.Contains(t, snap, "-2_1")

	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, snap))
	assert.Contains(t, buf.String(), `"-64_0_32": 0`)

	decoded, err := ReadSnapshot(&buf)
	require.NoError(t, err)

	dst := NewMemoryStore()
	require.NoError(t, ImportSnapshot(ctx, dst, decoded))
	again, err := ExportSnapshot(ctx, dst)
	require.NoError(t, err)
	assert.Equal(t, snap, again)
}
