package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// DefaultQuotaBytes повторяет типичную квоту localStorage браузера
const DefaultQuotaBytes = 5 * 1024 * 1024

// Memory хранит записи в памяти процесса
type Memory struct {
	mu         sync.RWMutex
	records    map[string]Record
	size       int
	seq        int64
	quotaBytes int
}

// NewMemory создаёт хранилище в памяти. quotaBytes <= 0 отключает квоту.
func NewMemory(quotaBytes int) *Memory {
	return &Memory{
		records:    make(map[string]Record),
		quotaBytes: quotaBytes,
	}
}

func (m *Memory) Get(_ context.Context, key string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[key]
	if !ok {
		return Record{}, ErrNotFound
	}
	value := make([]byte, len(rec.Value))
	copy(value, rec.Value)
	return Record{Value: value, Version: rec.Version}, nil
}

func (m *Memory) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0)
	for k := range m.records {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Memory) Commit(_ context.Context, writes ...Write) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Сначала проверяем версии и квоту, затем применяем всё разом
	size := m.size
	for _, w := range writes {
		cur := m.records[w.Key]
		if !versionMatches(w, cur.Version) {
			return ErrConflict
		}
		if w.Check {
			continue
		}
		if cur.Version > 0 {
			size -= len(w.Key) + len(cur.Value)
		}
		if !w.Delete {
			size += len(w.Key) + len(w.Value)
		}
	}
	if m.quotaBytes > 0 && size > m.quotaBytes {
		return ErrQuotaExceeded
	}

	for _, w := range writes {
		if w.Check {
			continue
		}
		if w.Delete {
			delete(m.records, w.Key)
			continue
		}
		value := make([]byte, len(w.Value))
		copy(value, w.Value)
		// Версии берутся из общего счётчика, чтобы удалённый и заново
		// созданный ключ не получил прежнюю версию
		m.seq++
		m.records[w.Key] = Record{Value: value, Version: m.seq}
	}
	m.size = size
	return nil
}

func (m *Memory) Close() error {
	return nil
}
