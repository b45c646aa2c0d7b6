package store

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// Breaker защищает удалённое хранилище автоматическим выключателем:
// после серии сбоев запросы сразу отклоняются, пока хранилище не оживёт.
type Breaker struct {
	next Store
	cb   *gobreaker.CircuitBreaker
}

// WithBreaker оборачивает хранилище выключателем
func WithBreaker(next Store, name string, logger *logrus.Logger) *Breaker {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Изменилось состояние выключателя хранилища")
		},
		// Отсутствие ключа и конфликт версий не считаются сбоями
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict)
		},
	}
	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *Breaker) Get(ctx context.Context, key string) (Record, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Get(ctx, key)
	})
	if err != nil {
		return Record{}, err
	}
	return res.(Record), nil
}

func (b *Breaker) Keys(ctx context.Context, prefix string) ([]string, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Keys(ctx, prefix)
	})
	if err != nil {
		return nil, err
	}
	return res.([]string), nil
}

func (b *Breaker) Commit(ctx context.Context, writes ...Write) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Commit(ctx, writes...)
	})
	return err
}

func (b *Breaker) Close() error {
	return b.next.Close()
}
