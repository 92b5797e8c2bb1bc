package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"

	"github.com/vuongle2609/Minecraft/internal/vec"
)

// RedisStore хранит записи чанков в хеше Redis: поле "cx_cz" -> JSON записей
type RedisStore struct {
	client *redis.Client
	hash   string
	mu     sync.RWMutex
	closed bool
}

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr     string // Адрес Redis сервера
	Password string // Пароль (пустой если не требуется)
	DB       int    // Номер базы данных
	Hash     string // Имя хеша с чанками
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr: "localhost:6379",
		Hash: "chunks",
	}
}

// NewRedisStore подключается к Redis и проверяет соединение
func NewRedisStore(config *RedisConfig) (*RedisStore, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}
	if config.Hash == "" {
		config.Hash = "chunks"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, hash: config.Hash}, nil
}

func (s *RedisStore) SaveChunk(ctx context.Context, coord vec.Vec2, records Records) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrNotReady
	}

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("ошибка сериализации чанка %s: %w", coord.Key(), err)
	}
	if err := s.client.HSet(ctx, s.hash, coord.Key(), data).Err(); err != nil {
		return fmt.Errorf("ошибка записи чанка %s в Redis: %w", coord.Key(), err)
	}
	return nil
}

func (s *RedisStore) LoadChunk(ctx context.Context, coord vec.Vec2) (Records, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, ErrNotReady
	}

	data, err := s.client.HGet(ctx, s.hash, coord.Key()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ошибка чтения чанка %s из Redis: %w", coord.Key(), err)
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

func (s *RedisStore) ListChunks(ctx context.Context) ([]vec.Vec2, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrNotReady
	}

	keys, err := s.client.HKeys(ctx, s.hash).Result()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения списка чанков из Redis: %w", err)
	}
	coords := make([]vec.Vec2, 0, len(keys))
	for _, k := range keys {
		coord, err := vec.ParseChunkKey(k)
		if err != nil {
			return nil, err
		}
		coords = append(coords, coord)
	}
	sortCoords(coords)
	return coords, nil
}

// Drop удаляет хеш целиком
func (s *RedisStore) Drop(ctx context.Context) error {
	return s.client.Del(ctx, s.hash).Err()
}

func (s *RedisStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.client.Close()
}
