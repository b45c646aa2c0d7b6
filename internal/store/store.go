// Package store реализует хранилище JSON-записей по строковым ключам.
//
// Каждая запись имеет версию: 0 означает отсутствие ключа, при каждой записи
// версия растёт. Commit применяет пакет изменений атомарно и только если
// версии всех затронутых ключей совпадают с ожидаемыми.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// AnyVersion отключает проверку версии для записи
const AnyVersion int64 = -1

var (
	// ErrNotFound возвращается, если ключ отсутствует
	ErrNotFound = errors.New("store: key not found")

	// ErrConflict возвращается, если версия ключа изменилась с момента чтения
	ErrConflict = errors.New("store: version conflict")

	// ErrQuotaExceeded возвращается, если запись превышает квоту хранилища
	ErrQuotaExceeded = errors.New("store: quota exceeded")
)

// Record представляет сохранённое значение и его версию
type Record struct {
	Value   []byte
	Version int64
}

// Write описывает одно изменение в пакете Commit
type Write struct {
	Key           string
	Value         []byte
	Delete        bool
	Check         bool // только проверка версии, без изменения
	ExpectVersion int64
}

// Store: общее хранилище, поверх которого работают все репозитории
type Store interface {
	Get(ctx context.Context, key string) (Record, error)
	Keys(ctx context.Context, prefix string) ([]string, error)
	Commit(ctx context.Context, writes ...Write) error
	Close() error
}

// GetJSON читает ключ и декодирует его в dst. Возвращает false, если ключа нет.
func GetJSON(ctx context.Context, s Store, key string, dst any) (bool, error) {
	rec, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(rec.Value, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Put целиком заменяет значение ключа
func Put(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Commit(ctx, Write{Key: key, Value: data, ExpectVersion: AnyVersion})
}

// Delete удаляет ключ; отсутствие ключа не ошибка
func Delete(ctx context.Context, s Store, key string) error {
	return s.Commit(ctx, Write{Key: key, Delete: true, ExpectVersion: AnyVersion})
}

// versionMatches проверяет ожидаемую версию
func versionMatches(w Write, current int64) bool {
	return w.ExpectVersion == AnyVersion || w.ExpectVersion == current
}
