// Package idgen выдаёт идентификаторы записей.
package idgen

import (
	"crypto/rand"
	"strconv"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu   sync.Mutex
	last int64

	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex
)

// Timestamp возвращает идентификатор-метку времени в миллисекундах.
// Значения строго возрастают в пределах процесса, даже если часы стоят
// или идут назад.
func Timestamp(now time.Time) int64 {
	mu.Lock()
	defer mu.Unlock()

	id := now.UnixMilli()
	if id <= last {
		id = last + 1
	}
	last = id
	return id
}

// TimestampString то же, что Timestamp, в строковом виде
func TimestampString(now time.Time) string {
	return strconv.FormatInt(Timestamp(now), 10)
}

// ULID генерирует монотонный ULID для момента now
func ULID(now time.Time) string {
	entropyLock.Lock()
	defer entropyLock.Unlock()

	return ulid.MustNew(ulid.Timestamp(now), entropy).String()
}
