package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/vuongle2609/Minecraft/internal/vec"
)

// ExportSnapshot собирает все сохранённые чанки в один снимок
func ExportSnapshot(ctx context.Context, store ChunkStore) (Snapshot, error) {
	coords, err := store.ListChunks(ctx)
	if err != nil {
		return nil, err
	}

	snap := make(Snapshot, len(coords))
	for _, c := range coords {
		records, found, err := store.LoadChunk(ctx, c)
		if err != nil {
			return nil, err
		}
		if found {
			snap[c.Key()] = records
		}
	}
	return snap, nil
}

// ImportSnapshot записывает каждый чанк снимка в хранилище
func ImportSnapshot(ctx context.Context, store ChunkStore, snap Snapshot) error {
	for key, records := range snap {
		coord, err := vec.ParseChunkKey(key)
		if err != nil {
			return err
		}
		if err := store.SaveChunk(ctx, coord, records); err != nil {
			return err
		}
	}
	return nil
}

// WriteSnapshot пишет снимок в JSON
func WriteSnapshot(w io.Writer, snap Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("ошибка записи снимка: %w", err)
	}
	return nil
}

// ReadSnapshot читает снимок из JSON
func ReadSnapshot(r io.Reader) (Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("ошибка чтения снимка: %w", err)
	}
	return snap, nil
}
