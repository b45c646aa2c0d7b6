package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaSQL = []string{
	`CREATE SEQUENCE IF NOT EXISTS kv_records_version_seq`,
	`CREATE TABLE IF NOT EXISTS kv_records (
		key        TEXT PRIMARY KEY,
		value      JSONB NOT NULL,
		version    BIGINT NOT NULL DEFAULT nextval('kv_records_version_seq'),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Postgres хранит записи в таблице kv_records
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres создаёт хранилище и таблицу, если её ещё нет
func NewPostgres(ctx context.Context, pool *pgxpool.Pool) (*Postgres, error) {
	for _, stmt := range schemaSQL {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return nil, fmt.Errorf("ошибка создания таблицы kv_records: %w", err)
		}
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Get(ctx context.Context, key string) (Record, error) {
	var rec Record
	err := p.pool.QueryRow(ctx, `
		SELECT value, version FROM kv_records WHERE key = $1
	`, key).Scan(&rec.Value, &rec.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("ошибка чтения %s: %w", key, err)
	}
	return rec, nil
}

func (p *Postgres) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT key FROM kv_records
		WHERE left(key, length($1)) = $1
		ORDER BY key
	`, prefix)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса ключей: %w", err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Коды SQLSTATE, после которых транзакцию можно повторить
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// Commit применяет пакет; взаимоблокировка и сбой сериализации
// возвращаются как ErrConflict, чтобы Run повторил транзакцию
func (p *Postgres) Commit(ctx context.Context, writes ...Write) error {
	err := p.commit(ctx, writes)
	if isRetryable(err) {
		return ErrConflict
	}
	return err
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == sqlStateSerializationFailure || pgErr.Code == sqlStateDeadlockDetected
}

func (p *Postgres) commit(ctx context.Context, writes []Write) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, w := range writes {
		var current int64
		err := tx.QueryRow(ctx, `
			SELECT version FROM kv_records WHERE key = $1 FOR UPDATE
		`, w.Key).Scan(&current)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("ошибка чтения версии %s: %w", w.Key, err)
		}
		if !versionMatches(w, current) {
			return ErrConflict
		}

		switch {
		case w.Check:
			continue
		case w.Delete:
			_, err = tx.Exec(ctx, `DELETE FROM kv_records WHERE key = $1`, w.Key)
		case current == 0:
			// Строки нет: параллельная вставка даст 0 затронутых строк
			var tag pgconn.CommandTag
			tag, err = tx.Exec(ctx, `
				INSERT INTO kv_records (key, value) VALUES ($1, $2)
				ON CONFLICT (key) DO NOTHING
			`, w.Key, w.Value)
			if err == nil && tag.RowsAffected() == 0 {
				return ErrConflict
			}
		default:
			_, err = tx.Exec(ctx, `
				UPDATE kv_records
				SET value = $2, version = nextval('kv_records_version_seq'), updated_at = NOW()
				WHERE key = $1
			`, w.Key, w.Value)
		}
		if err != nil {
			return fmt.Errorf("ошибка записи %s: %w", w.Key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
