package world

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vuongle2609/Minecraft/internal/logging"
	"github.com/vuongle2609/Minecraft/internal/storage"
	"github.com/vuongle2609/Minecraft/internal/vec"
	"github.com/vuongle2609/Minecraft/internal/world/block"
)

// Chunk группирует записи блоков участка ChunkSize x ChunkSize.
// Сгенерированное содержимое не сохраняется; в хранилище уходят только правки.
// Правка со значением Air - надгробие явно удалённого блока.
type Chunk struct {
	Coords vec.Vec2

	generated map[vec.Vec3]block.Type
	edits     map[vec.Vec3]block.Type

	Active        bool
	ChangeCounter int // Правок с последнего сохранения
	Mu            sync.RWMutex
}

// NewChunk создаёт пустой чанк
func NewChunk(coords vec.Vec2) *Chunk {
	return &Chunk{
		Coords:    coords,
		generated: make(map[vec.Vec3]block.Type),
		edits:     make(map[vec.Vec3]block.Type),
	}
}

// Record фиксирует размещение блока
func (c *Chunk) Record(pos vec.Vec3, t block.Type) {
	c.Mu.Lock()
	c.edits[pos] = t
	c.ChangeCounter++
	c.Mu.Unlock()
}

// Tombstone фиксирует явное удаление блока
func (c *Chunk) Tombstone(pos vec.Vec3) {
	c.Record(pos, block.Air)
}

// IsTombstoned сообщает, удалён ли блок в позиции игроком
func (c *Chunk) IsTombstoned(pos vec.Vec3) bool {
	c.Mu.RLock()
	defer c.Mu.RUnlock()
	t, ok := c.edits[pos]
	return ok && t == block.Air
}

// Lookup возвращает действующий тип в позиции: правка важнее генерации
func (c *Chunk) Lookup(pos vec.Vec3) block.Type {
	c.Mu.RLock()
	defer c.Mu.RUnlock()
	if t, ok := c.edits[pos]; ok {
		return t
	}
	return c.generated[pos]
}

// Blocks возвращает действующее содержимое чанка без надгробий
func (c *Chunk) Blocks() map[vec.Vec3]block.Type {
	c.Mu.RLock()
	defer c.Mu.RUnlock()

	out := make(map[vec.Vec3]block.Type, len(c.generated)+len(c.edits))
	for pos, t := range c.generated {
		out[pos] = t
	}
	for pos, t := range c.edits {
		if t == block.Air {
			delete(out, pos)
			continue
		}
		out[pos] = t
	}
	return out
}

// Edits возвращает копию правок, включая надгробия
func (c *Chunk) Edits() map[vec.Vec3]block.Type {
	c.Mu.RLock()
	defer c.Mu.RUnlock()
	out := make(map[vec.Vec3]block.Type, len(c.edits))
	for pos, t := range c.edits {
		out[pos] = t
	}
	return out
}

// ClearChanges сбрасывает счётчик после сохранения
func (c *Chunk) ClearChanges() {
	c.Mu.Lock()
	c.ChangeCounter = 0
	c.Mu.Unlock()
}

// ChunkIndex хранит чанки по координатам. Чанки создаются по требованию и
// никогда не удаляются, только деактивируются.
type ChunkIndex struct {
	mu     sync.RWMutex
	chunks map[vec.Vec2]*Chunk
	gen    Generator
	store  storage.ChunkStore
	logger *logging.Logger
}

// NewChunkIndex создаёт индекс. store может быть nil: тогда правки живут только в памяти.
func NewChunkIndex(gen Generator, store storage.ChunkStore) *ChunkIndex {
	if gen == nil {
		gen = NewFlatGenerator()
	}
	return &ChunkIndex{
		chunks: make(map[vec.Vec2]*Chunk),
		gen:    gen,
		store:  store,
		logger: logging.GetWorldLogger(),
	}
}

// Get возвращает существующий чанк
func (ci *ChunkIndex) Get(coord vec.Vec2) (*Chunk, bool) {
	ci.mu.RLock()
	defer ci.mu.RUnlock()
	c, ok := ci.chunks[coord]
	return c, ok
}

// Ensure возвращает чанк, создавая его генерацией и загрузкой правок из хранилища.
// Генерация и чтение хранилища идут без блокировки индекса; при гонке
// побеждает чанк, вставленный первым.
func (ci *ChunkIndex) Ensure(ctx context.Context, coord vec.Vec2) (*Chunk, error) {
	if c, ok := ci.Get(coord); ok {
		return c, nil
	}

	c := NewChunk(coord)
	c.generated = ci.gen.Generate(coord)

	if ci.store != nil {
		records, found, err := ci.store.LoadChunk(ctx, coord)
		if err != nil {
			return nil, fmt.Errorf("загрузка чанка %s: %w", coord.Key(), err)
		}
		if found {
			cells, err := records.Cells()
			if err != nil {
				return nil, fmt.Errorf("разбор чанка %s: %w", coord.Key(), err)
			}
			c.edits = cells
			ci.logger.Debug("Chunk %s: загружено %d правок", coord.Key(), len(cells))
		}
	}

	return ci.insert(c), nil
}

// insert кладёт чанк в индекс, если координаты ещё свободны, и возвращает действующий
func (ci *ChunkIndex) insert(c *Chunk) *Chunk {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	if existing, ok := ci.chunks[c.Coords]; ok {
		return existing
	}
	ci.chunks[c.Coords] = c
	return c
}

// chunkFor возвращает чанк позиции. Ошибка хранилища не блокирует правку:
// чанк создаётся без сохранённых правок.
func (ci *ChunkIndex) chunkFor(pos vec.Vec3) *Chunk {
	coord := pos.ToChunkCoords()
	c, err := ci.Ensure(context.Background(), coord)
	if err != nil {
		ci.logger.Warn("Chunk %s: %v", coord.Key(), err)
		c = NewChunk(coord)
		c.generated = ci.gen.Generate(coord)
		c = ci.insert(c)
	}
	return c
}

// Record фиксирует размещение блока в его чанке
func (ci *ChunkIndex) Record(pos vec.Vec3, t block.Type) {
	ci.chunkFor(pos).Record(pos, t)
}

// Tombstone фиксирует удаление блока в его чанке
func (ci *ChunkIndex) Tombstone(pos vec.Vec3) {
	ci.chunkFor(pos).Tombstone(pos)
}

// IsTombstoned сообщает, удалён ли блок игроком
func (ci *ChunkIndex) IsTombstoned(pos vec.Vec3) bool {
	c, ok := ci.Get(pos.ToChunkCoords())
	return ok && c.IsTombstoned(pos)
}

// SetActive отмечает чанк активным или неактивным
func (ci *ChunkIndex) SetActive(coord vec.Vec2, active bool) {
	if c, ok := ci.Get(coord); ok {
		c.Mu.Lock()
		c.Active = active
		c.Mu.Unlock()
	}
}

// ActiveCoords возвращает активные чанки в детерминированном порядке
func (ci *ChunkIndex) ActiveCoords() []vec.Vec2 {
	ci.mu.RLock()
	out := make([]vec.Vec2, 0, len(ci.chunks))
	for coord, c := range ci.chunks {
		c.Mu.RLock()
		if c.Active {
			out = append(out, coord)
		}
		c.Mu.RUnlock()
	}
	ci.mu.RUnlock()
	sortCoords(out)
	return out
}

// Coords возвращает все известные чанки
func (ci *ChunkIndex) Coords() []vec.Vec2 {
	ci.mu.RLock()
	out := make([]vec.Vec2, 0, len(ci.chunks))
	for coord := range ci.chunks {
		out = append(out, coord)
	}
	ci.mu.RUnlock()
	sortCoords(out)
	return out
}

// Save сохраняет чанки с несохранёнными правками
func (ci *ChunkIndex) Save(ctx context.Context) (int, error) {
	if ci.store == nil {
		return 0, nil
	}

	saved := 0
	for _, coord := range ci.Coords() {
		c, _ := ci.Get(coord)
		c.Mu.RLock()
		changed := c.ChangeCounter > 0
		c.Mu.RUnlock()
		if !changed {
			continue
		}

		if err := ci.store.SaveChunk(ctx, coord, storage.RecordsFromCells(c.Edits())); err != nil {
			return saved, fmt.Errorf("сохранение чанка %s: %w", coord.Key(), err)
		}
		c.ClearChanges()
		saved++
	}
	if saved > 0 {
		ci.logger.Info("Сохранено чанков: %d", saved)
	}
	return saved, nil
}

func sortCoords(coords []vec.Vec2) {
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].X != coords[j].X {
			return coords[i].X < coords[j].X
		}
		return coords[i].Z < coords[j].Z
	})
}
