package storage

import (
	"context"
	"fmt"
	"sync"

	"lifeshare/pkg/types"
)

// MemoryStorage keeps uploaded objects in process.
type MemoryStorage struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]types.Photo
}

func NewMemoryStorage(baseURL string) *MemoryStorage {
	return &MemoryStorage{
		baseURL: baseURL,
		objects: make(map[string]types.Photo),
	}
}

func (m *MemoryStorage) Upload(_ context.Context, key string, photo *types.Photo) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	body := make([]byte, len(photo.Body))
	copy(body, photo.Body)
	m.objects[key] = types.Photo{ContentType: photo.ContentType, Size: int64(len(body)), Body: body}

	return m.PublicURL(key), nil
}

func (m *MemoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.objects, key)
	return nil
}

func (m *MemoryStorage) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s", m.baseURL, key)
}

// Object returns a stored object, for handlers serving memory mode uploads.
func (m *MemoryStorage) Object(key string) (types.Photo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	photo, ok := m.objects[key]
	return photo, ok
}
