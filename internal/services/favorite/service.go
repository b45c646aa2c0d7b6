// Package favorite хранит избранные объявления пользователей.
package favorite

import (
	"context"
	"slices"

	"github.com/rajivgeraev/sudak-api/internal/models"
	"github.com/rajivgeraev/sudak-api/internal/pkg/apperrors"
	"github.com/rajivgeraev/sudak-api/internal/store"
)

// Service работает со списками избранного
type Service struct {
	store store.Store
}

// NewService создаёт новый экземпляр Service
func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// Add добавляет объявление в избранное
func (s *Service) Add(ctx context.Context, userID string, listingID int64) error {
	return store.Run(ctx, s.store, func(ctx context.Context, tx *store.Tx) error {
		var listings []models.Listing
		if _, err := tx.Get(ctx, store.KeyListings, &listings); err != nil {
			return err
		}
		exists := slices.ContainsFunc(listings, func(l models.Listing) bool { return l.ID == listingID })
		if !exists {
			return apperrors.NewNotFound("Объявление не найдено")
		}

		var ids []int64
		if _, err := tx.Get(ctx, store.FavoritesKey(userID), &ids); err != nil {
			return err
		}
		if slices.Contains(ids, listingID) {
			return apperrors.ErrConflict.WithMessage("Объявление уже добавлено в избранное")
		}
		return tx.Put(store.FavoritesKey(userID), append(ids, listingID))
	})
}

// Remove удаляет объявление из избранного
func (s *Service) Remove(ctx context.Context, userID string, listingID int64) error {
	return store.Run(ctx, s.store, func(ctx context.Context, tx *store.Tx) error {
		var ids []int64
		if _, err := tx.Get(ctx, store.FavoritesKey(userID), &ids); err != nil {
			return err
		}
		idx := slices.Index(ids, listingID)
		if idx < 0 {
			return apperrors.NewNotFound("Объявление не найдено в избранном")
		}
		ids = slices.Delete(ids, idx, idx+1)
		if len(ids) == 0 {
			tx.Delete(store.FavoritesKey(userID))
			return nil
		}
		return tx.Put(store.FavoritesKey(userID), ids)
	})
}

// Contains проверяет, сохранено ли объявление
func (s *Service) Contains(ctx context.Context, userID string, listingID int64) (bool, error) {
	var ids []int64
	if _, err := store.GetJSON(ctx, s.store, store.FavoritesKey(userID), &ids); err != nil {
		return false, err
	}
	return slices.Contains(ids, listingID), nil
}

// List возвращает избранные объявления в порядке добавления;
// удалённые объявления пропускаются
func (s *Service) List(ctx context.Context, userID string) ([]models.Listing, error) {
	var ids []int64
	if _, err := store.GetJSON(ctx, s.store, store.FavoritesKey(userID), &ids); err != nil {
		return nil, err
	}
	var listings []models.Listing
	if _, err := store.GetJSON(ctx, s.store, store.KeyListings, &listings); err != nil {
		return nil, err
	}

	byID := make(map[int64]models.Listing, len(listings))
	for _, l := range listings {
		byID[l.ID] = l
	}
	out := []models.Listing{}
	for _, id := range ids {
		if l, ok := byID[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}
