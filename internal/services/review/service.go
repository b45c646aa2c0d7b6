// Package review добавляет отзывы и пересчитывает рейтинг объявления.
package review

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rajivgeraev/sudak-api/internal/metrics"
	"github.com/rajivgeraev/sudak-api/internal/models"
	"github.com/rajivgeraev/sudak-api/internal/pkg/apperrors"
	"github.com/rajivgeraev/sudak-api/internal/pkg/idgen"
	"github.com/rajivgeraev/sudak-api/internal/store"
)

const dateLayout = "02.01.2006"

// Publisher оповещает об изменении объявлений
type Publisher interface {
	ListingsChanged(listingID int64) int64
}

// Service работает с отзывами
type Service struct {
	store     store.Store
	publisher Publisher
	logger    *logrus.Logger

	Now func() time.Time
}

// NewService создаёт новый экземпляр Service
func NewService(s store.Store, publisher Publisher, logger *logrus.Logger) *Service {
	return &Service{
		store:     s,
		publisher: publisher,
		logger:    logger,
		Now:       time.Now,
	}
}

// Rating среднее оценок, округлённое до одного знака; 0 без отзывов
func Rating(reviews []models.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	avg := float64(sum) / float64(len(reviews))
	return math.Round(avg*10) / 10
}

// AddReview добавляет отзыв и обновляет рейтинг объявления одной транзакцией
func (s *Service) AddReview(ctx context.Context, listingID int64, reviewerName string, rating int, comment string) (models.Review, models.Listing, error) {
	reviewerName = strings.TrimSpace(reviewerName)
	comment = strings.TrimSpace(comment)

	if reviewerName == "" {
		return models.Review{}, models.Listing{}, apperrors.ErrUnauthorized
	}
	if rating < 1 || rating > 5 {
		return models.Review{}, models.Listing{}, apperrors.NewValidationError("rating", "Оценка должна быть от 1 до 5")
	}
	if comment == "" {
		return models.Review{}, models.Listing{}, apperrors.ErrEmptyComment
	}

	var (
		added   models.Review
		updated models.Listing
	)
	err := store.Run(ctx, s.store, func(ctx context.Context, tx *store.Tx) error {
		var listings []models.Listing
		if _, err := tx.Get(ctx, store.KeyListings, &listings); err != nil {
			return err
		}
		idx := -1
		for i := range listings {
			if listings[i].ID == listingID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return apperrors.NewNotFound("Объявление не найдено")
		}

		var reviews []models.Review
		if _, err := tx.Get(ctx, store.ReviewsKey(listingID), &reviews); err != nil {
			return err
		}

		now := s.Now()
		added = models.Review{
			ID:       idgen.Timestamp(now),
			UserName: reviewerName,
			Rating:   rating,
			Comment:  comment,
			Date:     now.Format(dateLayout),
		}
		reviews = append(reviews, added)

		listings[idx].Rating = Rating(reviews)
		listings[idx].Reviews = len(reviews)
		updated = listings[idx]

		if err := tx.Put(store.ReviewsKey(listingID), reviews); err != nil {
			return err
		}
		return tx.Put(store.KeyListings, listings)
	})
	if err != nil {
		return models.Review{}, models.Listing{}, err
	}

	metrics.ReviewAdded()
	s.logger.WithFields(logrus.Fields{
		"listing_id": listingID,
		"rating":     updated.Rating,
	}).Info("Добавлен отзыв")
	s.publisher.ListingsChanged(listingID)
	return added, updated, nil
}

// ListReviews возвращает отзывы объявления в порядке добавления
func (s *Service) ListReviews(ctx context.Context, listingID int64) ([]models.Review, error) {
	var reviews []models.Review
	if _, err := store.GetJSON(ctx, s.store, store.ReviewsKey(listingID), &reviews); err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	return reviews, nil
}
