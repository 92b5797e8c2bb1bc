package world

import (
	"context"
	"fmt"

	"github.com/vuongle2609/Minecraft/internal/eventbus"
	"github.com/vuongle2609/Minecraft/internal/logging"
	"github.com/vuongle2609/Minecraft/internal/render"
	"github.com/vuongle2609/Minecraft/internal/vec"
	"github.com/vuongle2609/Minecraft/internal/world/block"
)

// ReplicaSink получает зеркальные правки для реплики занятости резолвера.
// Каждой мутации решётки соответствует ровно одно сообщение.
type ReplicaSink interface {
	AddBlock(pos vec.Vec3, t block.Type)
	RemoveBlock(pos vec.Vec3)
	BulkAddBlock(blocks map[vec.Vec3]block.Type)
}

type nopReplica struct{}

func (nopReplica) AddBlock(vec.Vec3, block.Type)        {}
func (nopReplica) RemoveBlock(vec.Vec3)                 {}
func (nopReplica) BulkAddBlock(map[vec.Vec3]block.Type) {}

// World точка входа правок мира: решётка, мешер, индекс чанков и зеркалирование.
// Все методы вызываются из основного контекста.
type World struct {
	grid    *Grid
	mesher  *Mesher
	index   *ChunkIndex
	replica ReplicaSink
	bus     eventbus.EventBus
	logger  *logging.Logger
}

// NewWorld создаёт мир поверх индекса чанков и аллокатора граней
func NewWorld(index *ChunkIndex, alloc *render.Allocator) *World {
	if alloc == nil {
		alloc = render.NewAllocator()
	}
	if index == nil {
		index = NewChunkIndex(nil, nil)
	}
	grid := NewGrid()
	return &World{
		grid:    grid,
		mesher:  NewMesher(grid, alloc),
		index:   index,
		replica: nopReplica{},
		logger:  logging.GetWorldLogger(),
	}
}

// SetReplica подключает получателя зеркальных правок
func (w *World) SetReplica(sink ReplicaSink) {
	if sink == nil {
		sink = nopReplica{}
	}
	w.replica = sink
}

// SetEventBus подключает шину для событий block.placed / block.broken
func (w *World) SetEventBus(bus eventbus.EventBus) {
	w.bus = bus
}

func (w *World) Grid() *Grid                  { return w.grid }
func (w *World) Index() *ChunkIndex           { return w.index }
func (w *World) Allocator() *render.Allocator { return w.mesher.alloc }

// Get возвращает тип блока в позиции
func (w *World) Get(pos vec.Vec3) block.Type {
	return w.grid.Get(vec.SnapInts(pos.X, pos.Y, pos.Z))
}

// Verify проверяет согласованность граней
func (w *World) Verify() error {
	return w.mesher.Verify()
}

// PlaceBlock размещает блок по запросу игрока
func (w *World) PlaceBlock(pos vec.Vec3, t block.Type) bool {
	return w.UpdateBlock(pos, t, false)
}

// BreakBlock удаляет блок по запросу игрока и оставляет надгробие
func (w *World) BreakBlock(pos vec.Vec3) block.Type {
	return w.RemoveBlock(pos, false)
}

// UpdateBlock записывает тип в позицию.
// При isRenderChunk позиция с надгробием пропускается, правка не фиксируется
// в индексе и не зеркалируется: реплика получит весь чанк одним сообщением.
func (w *World) UpdateBlock(pos vec.Vec3, t block.Type, isRenderChunk bool) bool {
	pos = vec.SnapInts(pos.X, pos.Y, pos.Z)
	if t == block.Air {
		if isRenderChunk {
			return false
		}
		return w.RemoveBlock(pos, false) != block.Air
	}
	if isRenderChunk && w.index.IsTombstoned(pos) {
		return false
	}
	if !isRenderChunk && !w.ensureActive(pos) {
		return false
	}

	prev := w.grid.Set(pos, t)
	if isRenderChunk {
		return true
	}

	w.index.Record(pos, t)
	w.replica.AddBlock(pos, t)
	w.publish(eventbus.TypeBlockPlaced, pos, t, prev)
	return true
}

// RemoveBlock освобождает позицию. Постоянное удаление оставляет надгробие,
// временное (выгрузка чанка) только снимает блок с решётки и реплики.
func (w *World) RemoveBlock(pos vec.Vec3, temporary bool) block.Type {
	pos = vec.SnapInts(pos.X, pos.Y, pos.Z)
	if !temporary && !w.ensureActive(pos) {
		return block.Air
	}
	removed := w.grid.Remove(pos)
	if removed == block.Air {
		return block.Air
	}

	w.replica.RemoveBlock(pos)
	if !temporary {
		w.index.Tombstone(pos)
		w.publish(eventbus.TypeBlockBroken, pos, removed, block.Air)
	}
	return removed
}

// ensureActive активирует чанк позиции перед правкой игрока, чтобы правка
// попадала под выгрузку. false если чанк не удалось активировать.
func (w *World) ensureActive(pos vec.Vec3) bool {
	coord := pos.ToChunkCoords()
	if c, ok := w.index.Get(coord); ok {
		c.Mu.RLock()
		active := c.Active
		c.Mu.RUnlock()
		if active {
			return true
		}
	}
	if _, err := w.ActivateChunk(context.Background(), coord); err != nil {
		w.logger.Warn("правка в %s отклонена: %v", pos.Key(), err)
		return false
	}
	return true
}

// ActivateChunk выставляет содержимое чанка на решётку и отправляет его реплике
// одним сообщением. Возвращает число выставленных блоков.
func (w *World) ActivateChunk(ctx context.Context, coord vec.Vec2) (int, error) {
	c, err := w.index.Ensure(ctx, coord)
	if err != nil {
		return 0, fmt.Errorf("активация чанка %s: %w", coord.Key(), err)
	}
	c.Mu.RLock()
	active := c.Active
	c.Mu.RUnlock()
	if active {
		return 0, nil
	}

	blocks := c.Blocks()
	rendered := make(map[vec.Vec3]block.Type, len(blocks))
	for pos, t := range blocks {
		if w.UpdateBlock(pos, t, true) {
			rendered[pos] = t
		}
	}
	w.index.SetActive(coord, true)
	w.replica.BulkAddBlock(rendered)

	logging.LogChunkLoad(w.logger, coord.X, coord.Z, len(rendered))
	return len(rendered), nil
}

// DeactivateChunk снимает блоки чанка с решётки и реплики, не трогая записи
func (w *World) DeactivateChunk(coord vec.Vec2) int {
	c, ok := w.index.Get(coord)
	if !ok {
		return 0
	}
	c.Mu.RLock()
	active := c.Active
	c.Mu.RUnlock()
	if !active {
		return 0
	}

	removed := 0
	for pos := range c.Blocks() {
		if w.RemoveBlock(pos, true) != block.Air {
			removed++
		}
	}
	w.index.SetActive(coord, false)

	logging.LogChunkUnload(w.logger, coord.X, coord.Z, removed)
	return removed
}

func (w *World) publish(eventType string, pos vec.Vec3, t, prev block.Type) {
	if w.bus == nil {
		return
	}
	previous := ""
	if prev != block.Air {
		previous = prev.String()
	}
	ev, err := eventbus.NewBlockEvent("world", eventType, pos, t.String(), previous)
	if err != nil {
		w.logger.Warn("событие %s: %v", eventType, err)
		return
	}
	if err := w.bus.Publish(context.Background(), ev); err != nil {
		w.logger.Debug("событие %s не опубликовано: %v", eventType, err)
	}
}
