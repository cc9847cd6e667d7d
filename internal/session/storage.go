// Package session хранит состояние сеанса браузера: вошедшего пользователя,
// токен хранилища и предыдущий маршрут. Ключи и значения строковые.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Ключи хранилища сеанса.
const (
	KeyUser             = "user"
	KeyJWT              = "jwt"
	KeyPreviousLocation = "previousLocation"
)

// Storage ключ-значение хранилище одного сеанса.
type Storage interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// RedisStorage хранит сеанс в хэше redis "session:<sid>" с общим TTL.
type RedisStorage struct {
	db  *redis.Client
	key string
	ttl time.Duration
}

// NewRedisStorage создает хранилище для сеанса sid.
func NewRedisStorage(db *redis.Client, sid string, ttl time.Duration) *RedisStorage {
	return &RedisStorage{db: db, key: "session:" + sid, ttl: ttl}
}

// GetItem возвращает значение ключа; ok=false, если ключа нет.
func (s *RedisStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	const op = "session.RedisStorage.GetItem"
	val, err := s.db.HGet(ctx, s.key, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	return val, true, nil
}

// SetItem записывает значение и продлевает сеанс.
func (s *RedisStorage) SetItem(ctx context.Context, key, value string) error {
	const op = "session.RedisStorage.SetItem"
	pipe := s.db.TxPipeline()
	pipe.HSet(ctx, s.key, key, value)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RemoveItem удаляет ключ.
func (s *RedisStorage) RemoveItem(ctx context.Context, key string) error {
	const op = "session.RedisStorage.RemoveItem"
	if err := s.db.HDel(ctx, s.key, key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// MemoryStorage хранилище в памяти процесса.
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewMemoryStorage создает пустое хранилище в памяти.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string)}
}

func (s *MemoryStorage) GetItem(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok, nil
}

func (s *MemoryStorage) SetItem(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
	return nil
}

func (s *MemoryStorage) RemoveItem(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}
