package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

// versionSeqKey: счётчик версий, общий для всех ключей
const versionSeqKey = "__kv_version_seq"

// Redis хранит каждую запись в hash с полями value и version
type Redis struct {
	client *redis.Client
}

// NewRedis создаёт хранилище поверх готового клиента
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string) (Record, error) {
	vals, err := r.client.HMGet(ctx, key, "value", "version").Result()
	if err != nil {
		return Record{}, fmt.Errorf("ошибка чтения %s: %w", key, err)
	}
	return parseHash(key, vals)
}

func (r *Redis) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)
	var cursor uint64
	for {
		batch, next, err := r.client.Scan(ctx, cursor, escapePattern(prefix)+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("ошибка запроса ключей: %w", err)
		}
		for _, k := range batch {
			if k != versionSeqKey {
				keys = append(keys, k)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (r *Redis) Commit(ctx context.Context, writes ...Write) error {
	keys := make([]string, 0, len(writes))
	for _, w := range writes {
		keys = append(keys, w.Key)
	}

	txf := func(tx *redis.Tx) error {
		changes := 0
		for _, w := range writes {
			vals, err := tx.HMGet(ctx, w.Key, "value", "version").Result()
			if err != nil {
				return err
			}
			current := int64(0)
			if rec, err := parseHash(w.Key, vals); err == nil {
				current = rec.Version
			} else if !errors.Is(err, ErrNotFound) {
				return err
			}
			if !versionMatches(w, current) {
				return ErrConflict
			}
			if !w.Check && !w.Delete {
				changes++
			}
		}

		var seq int64
		if changes > 0 {
			top, err := tx.IncrBy(ctx, versionSeqKey, int64(changes)).Result()
			if err != nil {
				return err
			}
			seq = top - int64(changes)
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, w := range writes {
				switch {
				case w.Check:
				case w.Delete:
					pipe.Del(ctx, w.Key)
				default:
					seq++
					pipe.HSet(ctx, w.Key, "value", string(w.Value), "version", seq)
				}
			}
			return nil
		})
		return err
	}

	err := r.client.Watch(ctx, txf, keys...)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrConflict
	}
	return err
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func parseHash(key string, vals []interface{}) (Record, error) {
	if len(vals) != 2 || vals[0] == nil || vals[1] == nil {
		return Record{}, ErrNotFound
	}
	value, _ := vals[0].(string)
	rawVersion, _ := vals[1].(string)
	version, err := strconv.ParseInt(rawVersion, 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("повреждённая версия %s: %w", key, err)
	}
	return Record{Value: []byte(value), Version: version}, nil
}

// escapePattern экранирует спецсимволы glob-шаблона SCAN
func escapePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return r.Replace(s)
}
