package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SchemaVersion is written into every persisted cart envelope.
const SchemaVersion = 1

// ErrSlotEmpty signals that nothing has been persisted yet.
var ErrSlotEmpty = errors.New("cart slot empty")

// ErrUnsupportedVersion is returned when a persisted envelope comes from a
// newer schema than this build understands.
var ErrUnsupportedVersion = errors.New("unsupported cart schema version")

// Storage is a single persistence slot for one cart.
type Storage interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, raw []byte) error
}

type envelope struct {
	Version int        `json:"version"`
	Items   []LineItem `json:"items"`
}

func encodeItems(items []LineItem) ([]byte, error) {
	if items == nil {
		items = []LineItem{}
	}
	raw, err := json.Marshal(envelope{Version: SchemaVersion, Items: items})
	if err != nil {
		return nil, fmt.Errorf("encode cart: %w", err)
	}
	return raw, nil
}

func decodeItems(raw []byte) ([]LineItem, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	if env.Version != SchemaVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
	}
	items := make([]LineItem, 0, len(env.Items))
	for _, it := range env.Items {
		if it.Quantity < 1 {
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

type kvStore interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CartKey(sessionID string) string
}

// RedisStorage keeps a cart under warung:cart:<session> without expiry.
type RedisStorage struct {
	kv  kvStore
	key string
}

// NewRedisStorage binds a storage slot to sessionID.
func NewRedisStorage(kv kvStore, sessionID string) *RedisStorage {
	return &RedisStorage{kv: kv, key: kv.CartKey(sessionID)}
}

// Key returns the redis key of the slot.
func (r *RedisStorage) Key() string { return r.key }

func (r *RedisStorage) Load(ctx context.Context) ([]byte, error) {
	raw, err := r.kv.GetBytes(ctx, r.key)
	if errors.Is(err, redis.Nil) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("redis get cart: %w", err)
	}
	return raw, nil
}

func (r *RedisStorage) Save(ctx context.Context, raw []byte) error {
	if err := r.kv.Set(ctx, r.key, raw, 0); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

// MemoryStorage holds the slot in process memory.
type MemoryStorage struct {
	mu   sync.Mutex
	data []byte
	set  bool
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Load(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return nil, ErrSlotEmpty
	}
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out, nil
}

func (m *MemoryStorage) Save(_ context.Context, raw []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append(m.data[:0], raw...)
	m.set = true
	return nil
}
