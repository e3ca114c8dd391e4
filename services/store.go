package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"casicasi/models"

	"github.com/redis/go-redis/v9"
)

// SnapshotStore persists the room table after every registry mutation so a
// restarted server can recover in-flight rooms. Best-effort: a failed save
// must never roll back the in-memory change that triggered it.
type SnapshotStore interface {
	Save(rooms map[string]*models.Room) error
	Load() (map[string]*models.Room, error)
}

// FileStore writes the room table to a flat JSON file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Save(rooms map[string]*models.Room) error {
	data, err := json.MarshalIndent(rooms, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling room snapshot: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing room snapshot: %w", err)
	}
	return nil
}

func (s *FileStore) Load() (map[string]*models.Room, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]*models.Room{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading room snapshot: %w", err)
	}
	rooms := map[string]*models.Room{}
	if err := json.Unmarshal(data, &rooms); err != nil {
		return nil, fmt.Errorf("parsing room snapshot: %w", err)
	}
	return rooms, nil
}

const (
	redisSnapshotKey = "casicasi:rooms"
	redisSnapshotTTL = 2 * time.Hour
)

// RedisStore keeps the room snapshot in Redis instead of the local disk,
// for deployments where the working directory is ephemeral.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(rooms map[string]*models.Room) error {
	data, err := json.Marshal(rooms)
	if err != nil {
		return fmt.Errorf("marshaling room snapshot: %w", err)
	}
	if err := s.client.Set(context.Background(), redisSnapshotKey, data, redisSnapshotTTL).Err(); err != nil {
		return fmt.Errorf("storing room snapshot in redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Load() (map[string]*models.Room, error) {
	data, err := s.client.Get(context.Background(), redisSnapshotKey).Result()
	if err == redis.Nil {
		return map[string]*models.Room{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading room snapshot from redis: %w", err)
	}
	rooms := map[string]*models.Room{}
	if err := json.Unmarshal([]byte(data), &rooms); err != nil {
		return nil, fmt.Errorf("parsing room snapshot: %w", err)
	}
	return rooms, nil
}
