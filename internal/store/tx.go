package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rajivgeraev/sudak-api/internal/metrics"
	"github.com/rajivgeraev/sudak-api/internal/pkg/apperrors"
)

// maxAttempts: сколько раз Run повторяет транзакцию при конфликте версий.
// Конфликтная попытка ничего не записывает.
const maxAttempts = 3

// Tx: оптимистичная транзакция: чтения запоминают версии, записи
// буферизуются и применяются одним Commit.
type Tx struct {
	s      Store
	reads  map[string]int64
	writes map[string]Write
	order  []string
}

func newTx(s Store) *Tx {
	return &Tx{
		s:      s,
		reads:  make(map[string]int64),
		writes: make(map[string]Write),
	}
}

// Get читает ключ с учётом ещё не зафиксированных записей транзакции
func (tx *Tx) Get(ctx context.Context, key string, dst any) (bool, error) {
	if w, ok := tx.writes[key]; ok {
		if w.Delete {
			return false, nil
		}
		return true, json.Unmarshal(w.Value, dst)
	}

	rec, err := tx.s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		tx.reads[key] = 0
		return false, nil
	}
	if err != nil {
		return false, err
	}
	tx.reads[key] = rec.Version
	if err := json.Unmarshal(rec.Value, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Put буферизует запись значения
func (tx *Tx) Put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return apperrors.NewStoreWriteFailure(fmt.Errorf("encode %s: %w", key, err))
	}
	tx.stage(Write{Key: key, Value: data})
	return nil
}

// Delete буферизует удаление ключа
func (tx *Tx) Delete(key string) {
	tx.stage(Write{Key: key, Delete: true})
}

func (tx *Tx) stage(w Write) {
	if _, ok := tx.writes[w.Key]; !ok {
		tx.order = append(tx.order, w.Key)
	}
	tx.writes[w.Key] = w
}

// batch собирает итоговый пакет: записи и проверки прочитанных ключей.
// Пакет упорядочен по ключу, чтобы блокировки строк брались в одном порядке.
func (tx *Tx) batch() []Write {
	var out []Write
	for _, key := range tx.order {
		w := tx.writes[key]
		w.ExpectVersion = AnyVersion
		if v, ok := tx.reads[key]; ok {
			w.ExpectVersion = v
		}
		out = append(out, w)
	}
	for key, v := range tx.reads {
		if _, written := tx.writes[key]; written {
			continue
		}
		out = append(out, Write{Key: key, Check: true, ExpectVersion: v})
	}
	slices.SortFunc(out, func(a, b Write) int {
		return strings.Compare(a.Key, b.Key)
	})
	return out
}

// Run выполняет fn в транзакции. Ошибки fn возвращаются как есть,
// ошибки фиксации оборачиваются в apperrors.ErrStoreWriteFailure.
func Run(ctx context.Context, s Store, fn func(ctx context.Context, tx *Tx) error) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		tx := newTx(s)
		if err := fn(ctx, tx); err != nil {
			return err
		}
		if len(tx.writes) == 0 {
			return nil
		}

		err := s.Commit(ctx, tx.batch()...)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrConflict) {
			metrics.StoreFailure("commit")
			return apperrors.NewStoreWriteFailure(err)
		}
		metrics.StoreConflict()
		lastErr = err
	}
	return apperrors.NewStoreWriteFailure(lastErr)
}
