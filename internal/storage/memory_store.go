package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/vuongle2609/Minecraft/internal/vec"
)

// MemoryStore хранилище в памяти для тестов и сессий без сохранения
type MemoryStore struct {
	mu     sync.RWMutex
	chunks map[vec.Vec2]Records
	closed bool
}

// NewMemoryStore создаёт пустое хранилище в памяти
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{chunks: make(map[vec.Vec2]Records)}
}

func (s *MemoryStore) SaveChunk(_ context.Context, coord vec.Vec2, records Records) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrNotReady
	}
	s.chunks[coord] = records.Clone()
	return nil
}

func (s *MemoryStore) LoadChunk(_ context.Context, coord vec.Vec2) (Records, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, ErrNotReady
	}
	rec, ok := s.chunks[coord]
	if !ok {
		return nil, false, nil
	}
	return rec.Clone(), true, nil
}

func (s *MemoryStore) ListChunks(_ context.Context) ([]vec.Vec2, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrNotReady
	}
	out := make([]vec.Vec2, 0, len(s.chunks))
	for c := range s.chunks {
		out = append(out, c)
	}
	sortCoords(out)
	return out, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func sortCoords(coords []vec.Vec2) {
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].X != coords[j].X {
			return coords[i].X < coords[j].X
		}
		return coords[i].Z < coords[j].Z
	})
}
