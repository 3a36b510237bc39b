// internal/minio/memory.go
//
// Хранилище в памяти: для тестов и для запуска без MinIO

package minio

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

type memoryObject struct {
	data     []byte
	modified time.Time
}

// MemoryStore: ObjectStore в памяти процесса.
type MemoryStore struct {
	mu      sync.RWMutex
	buckets map[string]map[string]memoryObject
	now     func() time.Time
}

// NewMemoryStore создаёт пустое хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		buckets: make(map[string]map[string]memoryObject),
		now:     time.Now,
	}
}

func (m *MemoryStore) PutObject(_ context.Context, bucket, key string, data []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.buckets[bucket]
	if !ok {
		b = make(map[string]memoryObject)
		m.buckets[bucket] = b
	}
	b[key] = memoryObject{data: append([]byte(nil), data...), modified: m.now()}
	return nil
}

func (m *MemoryStore) GetObject(_ context.Context, bucket, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.buckets[bucket][key]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", bucket, key, ErrNotFound)
	}
	return append([]byte(nil), obj.data...), nil
}

func (m *MemoryStore) ListObjects(_ context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var objects []ObjectInfo
	for key, obj := range m.buckets[bucket] {
		if strings.HasPrefix(key, prefix) {
			objects = append(objects, ObjectInfo{Key: key, LastModified: obj.modified, Size: int64(len(obj.data))})
		}
	}
	sortNewestFirst(objects)
	return objects, nil
}

func (m *MemoryStore) RemoveObject(_ context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.buckets[bucket], key)
	return nil
}
