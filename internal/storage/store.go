package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/vuongle2609/Minecraft/internal/config"
	"github.com/vuongle2609/Minecraft/internal/vec"
)

var (
	// ErrNotReady хранилище закрыто или не открыто
	ErrNotReady = errors.New("хранилище не готово")
	// ErrUnknownBackend в конфигурации указан неизвестный backend
	ErrUnknownBackend = errors.New("неизвестный backend хранилища")
)

// ChunkStore хранит правки чанков (размещённые блоки и надгробия)
type ChunkStore interface {
	// SaveChunk полностью заменяет записи чанка
	SaveChunk(ctx context.Context, coord vec.Vec2, records Records) error
	// LoadChunk возвращает записи чанка; found=false если чанк не сохранялся
	LoadChunk(ctx context.Context, coord vec.Vec2) (Records, bool, error)
	// ListChunks возвращает координаты всех сохранённых чанков
	ListChunks(ctx context.Context) ([]vec.Vec2, error)
	Close() error
}

// Open создаёт хранилище по конфигурации
func Open(cfg config.StorageConfig) (ChunkStore, error) {
	switch cfg.Backend {
	case "memory", "":
		return NewMemoryStore(), nil
	case "badger":
		return NewBadgerStore(cfg.Path)
	case "redis":
		return NewRedisStore(&RedisConfig{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

func chunkKey(coord vec.Vec2) string {
	return fmt.Sprintf("chunk:%d:%d", coord.X, coord.Z)
}

func parseChunkKey(key string) (vec.Vec2, error) {
	var coord vec.Vec2
	if _, err := fmt.Sscanf(key, "chunk:%d:%d", &coord.X, &coord.Z); err != nil {
		return vec.Vec2{}, fmt.Errorf("некорректный ключ чанка %q: %w", key, err)
	}
	return coord, nil
}
