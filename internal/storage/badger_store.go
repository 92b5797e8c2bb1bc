package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/zstd"

	"github.com/vuongle2609/Minecraft/internal/logging"
	"github.com/vuongle2609/Minecraft/internal/vec"
)

const chunkPrefix = "chunk:"

// BadgerStore хранит записи чанков в BadgerDB.
// Значение ключа "chunk:cx:cz" - JSON записей, сжатый zstd.
type BadgerStore struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool

	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewBadgerStore открывает хранилище в каталоге dataPath/world.
// Пустой dataPath открывает базу в памяти.
func NewBadgerStore(dataPath string) (*BadgerStore, error) {
	var opts badger.Options
	dbPath := ""
	if dataPath == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		dbPath = filepath.Join(dataPath, "world")
		opts = badger.DefaultOptions(dbPath)
	}
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, fmt.Errorf("не удалось создать zstd decoder: %w", err)
	}

	logging.GetStorageLogger().Info("BadgerDB открыта: %q", dbPath)
	return &BadgerStore{
		db:      db,
		dbPath:  dbPath,
		isReady: true,
		enc:     enc,
		dec:     dec,
	}, nil
}

// Close закрывает хранилище данных
func (s *BadgerStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isReady {
		return nil
	}

	s.isReady = false
	s.enc.Close()
	s.dec.Close()
	return s.db.Close()
}

// SaveChunk сохраняет записи чанка
func (s *BadgerStore) SaveChunk(_ context.Context, coord vec.Vec2, records Records) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isReady {
		return ErrNotReady
	}

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("ошибка сериализации чанка %s: %w", coord.Key(), err)
	}
	packed := s.enc.EncodeAll(data, nil)

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(chunkKey(coord)), packed)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	return nil
}

// LoadChunk загружает записи чанка
func (s *BadgerStore) LoadChunk(_ context.Context, coord vec.Vec2) (Records, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isReady {
		return nil, false, ErrNotReady
	}

	var packed []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(chunkKey(coord)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			packed = append([]byte{}, val...)
			return nil
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	data, err := s.dec.DecodeAll(packed, nil)
	if err != nil {
		return nil, false, fmt.Errorf("ошибка распаковки чанка %s: %w", coord.Key(), err)
	}

	var records Records
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false, fmt.Errorf("ошибка десериализации чанка %s: %w", coord.Key(), err)
	}
	if records == nil {
		records = Records{}
	}
	return records, true, nil
}

// ListChunks перечисляет сохранённые чанки
func (s *BadgerStore) ListChunks(_ context.Context) ([]vec.Vec2, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isReady {
		return nil, ErrNotReady
	}

	var coords []vec.Vec2
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(chunkPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			coord, err := parseChunkKey(string(it.Item().Key()))
			if err != nil {
				return err
			}
			coords = append(coords, coord)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка обхода BadgerDB: %w", err)
	}
	sortCoords(coords)
	return coords, nil
}
