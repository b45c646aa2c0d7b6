// Package listing хранит объявления и проверяет условия размещения.
package listing

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rajivgeraev/sudak-api/internal/metrics"
	"github.com/rajivgeraev/sudak-api/internal/models"
	"github.com/rajivgeraev/sudak-api/internal/pkg/apperrors"
	"github.com/rajivgeraev/sudak-api/internal/pkg/idgen"
	"github.com/rajivgeraev/sudak-api/internal/pkg/validate"
	"github.com/rajivgeraev/sudak-api/internal/store"
)

const dateLayout = "2006-01-02"

// Publisher оповещает об изменении списка объявлений
type Publisher interface {
	ListingsChanged(listingID int64) int64
}

// CreateInput данные нового объявления
type CreateInput struct {
	Title         string                      `json:"title" validate:"required"`
	Description   string                      `json:"description"`
	Type          string                      `json:"type" validate:"required,oneof=apartment house villa studio room"`
	Location      string                      `json:"location" validate:"required"`
	Price         int                         `json:"price" validate:"gt=0"`
	Guests        int                         `json:"guests" validate:"min=1"`
	Rooms         int                         `json:"rooms" validate:"min=1"`
	Bathrooms     int                         `json:"bathrooms" validate:"min=1"`
	Area          *int                        `json:"area" validate:"omitempty,gt=0"`
	DistanceToSea *models.Meters              `json:"distanceToSea" validate:"omitempty,gte=0,lte=100000"`
	Amenities     []string                    `json:"amenities"`
	Images        []string                    `json:"images"`
	Availability  []models.AvailabilityPeriod `json:"availability"`
}

// Repository работает с таблицей объявлений
type Repository struct {
	store     store.Store
	publisher Publisher
	logger    *logrus.Logger

	Now func() time.Time
}

// NewRepository создаёт новый экземпляр Repository
func NewRepository(s store.Store, publisher Publisher, logger *logrus.Logger) *Repository {
	return &Repository{
		store:     s,
		publisher: publisher,
		logger:    logger,
		Now:       time.Now,
	}
}

// Create размещает объявление и списывает плату с владельца
func (r *Repository) Create(ctx context.Context, ownerID string, in CreateInput) (models.Listing, int, error) {
	listing, balance, err := r.create(ctx, ownerID, in)
	if err != nil {
		metrics.ListingRejected(apperrors.As(err).Code)
		return models.Listing{}, 0, err
	}

	metrics.ListingCreated()
	r.logger.WithFields(logrus.Fields{
		"listing_id": listing.ID,
		"owner_id":   ownerID,
	}).Info("Объявление размещено")
	r.publisher.ListingsChanged(listing.ID)
	return listing, balance, nil
}

func (r *Repository) create(ctx context.Context, ownerID string, in CreateInput) (models.Listing, int, error) {
	if ownerID == "" {
		return models.Listing{}, 0, apperrors.ErrUnauthorized
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Location = strings.TrimSpace(in.Location)
	if err := validate.Struct(in); err != nil {
		return models.Listing{}, 0, err
	}
	if len(in.Images) < models.MinImages {
		return models.Listing{}, 0, apperrors.ErrInsufficientImages
	}
	if len(in.Images) > models.MaxImages {
		return models.Listing{}, 0, apperrors.NewValidationError("images", "Максимум 20 фотографий")
	}

	var (
		created models.Listing
		balance int
	)
	err := store.Run(ctx, r.store, func(ctx context.Context, tx *store.Tx) error {
		var users []models.User
		if _, err := tx.Get(ctx, store.KeyUsers, &users); err != nil {
			return err
		}
		idx := -1
		for i := range users {
			if users[i].ID == ownerID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return apperrors.ErrUnauthorized.WithMessage("Пользователь не найден")
		}
		owner := &users[idx]

		if owner.Balance < models.ListingFee {
			return apperrors.ErrInsufficientBalance
		}

		var listings []models.Listing
		if _, err := tx.Get(ctx, store.KeyListings, &listings); err != nil {
			return err
		}

		now := r.Now()
		if last, ok := lastListingOf(listings, ownerID); ok {
			next := last.CreatedAt.Add(models.PostingCooldown)
			if now.Before(next) {
				return apperrors.NewPostingCooldown(next)
			}
		}

		for _, p := range in.Availability {
			if err := ValidateAvailability(p); err != nil {
				return err
			}
		}

		created = models.Listing{
			ID:            idgen.Timestamp(now),
			Title:         in.Title,
			Description:   in.Description,
			Type:          in.Type,
			Location:      in.Location,
			Price:         in.Price,
			Guests:        in.Guests,
			Rooms:         in.Rooms,
			Bathrooms:     in.Bathrooms,
			Area:          in.Area,
			DistanceToSea: in.DistanceToSea,
			Amenities:     nonNil(in.Amenities),
			Images:        in.Images,
			Availability:  in.Availability,
			OwnerID:       owner.ID,
			OwnerName:     owner.Name,
			OwnerPhone:    owner.Phone,
			CreatedAt:     now,
		}
		if created.Availability == nil {
			created.Availability = []models.AvailabilityPeriod{}
		}

		owner.Balance -= models.ListingFee
		balance = owner.Balance

		if err := tx.Put(store.KeyListings, append(listings, created)); err != nil {
			return err
		}
		if err := tx.Put(store.KeyUsers, users); err != nil {
			return err
		}

		var session models.SessionUser
		found, err := tx.Get(ctx, store.KeySession, &session)
		if err != nil {
			return err
		}
		if found && session.ID == ownerID {
			session.Balance = owner.Balance
			return tx.Put(store.KeySession, session)
		}
		return nil
	})
	if err != nil {
		return models.Listing{}, 0, err
	}
	return created, balance, nil
}

// lastListingOf возвращает последнее по порядку вставки объявление владельца
func lastListingOf(listings []models.Listing, ownerID string) (models.Listing, bool) {
	for i := len(listings) - 1; i >= 0; i-- {
		if listings[i].OwnerID == ownerID {
			return listings[i], true
		}
	}
	return models.Listing{}, false
}

// NextAllowedPosting возвращает момент, с которого владелец может разместить
// объявление; нулевое время означает "уже можно"
func (r *Repository) NextAllowedPosting(ctx context.Context, ownerID string) (time.Time, error) {
	listings, err := r.List(ctx)
	if err != nil {
		return time.Time{}, err
	}
	last, ok := lastListingOf(listings, ownerID)
	if !ok {
		return time.Time{}, nil
	}
	next := last.CreatedAt.Add(models.PostingCooldown)
	if !r.Now().Before(next) {
		return time.Time{}, nil
	}
	return next, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ValidateAvailability проверяет период доступности
func ValidateAvailability(p models.AvailabilityPeriod) error {
	if p.StartDate == "" {
		return apperrors.NewValidationError("startDate", "Укажите дату начала")
	}
	if p.EndDate == "" {
		return apperrors.NewValidationError("endDate", "Укажите дату окончания")
	}

	start, err := time.Parse(dateLayout, p.StartDate)
	if err != nil {
		return apperrors.NewValidationError("startDate", "Неверный формат даты начала")
	}
	end, err := time.Parse(dateLayout, p.EndDate)
	if err != nil {
		return apperrors.NewValidationError("endDate", "Неверный формат даты окончания")
	}
	if !end.After(start) {
		return apperrors.ErrDateRangeInvalid
	}

	if p.Price <= 0 {
		return apperrors.NewValidationError("price", "Укажите цену за период")
	}
	return nil
}

// List возвращает все объявления в порядке размещения
func (r *Repository) List(ctx context.Context) ([]models.Listing, error) {
	var listings []models.Listing
	if _, err := store.GetJSON(ctx, r.store, store.KeyListings, &listings); err != nil {
		return nil, err
	}
	if listings == nil {
		listings = []models.Listing{}
	}
	return listings, nil
}

// ListByOwner возвращает объявления пользователя
func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]models.Listing, error) {
	listings, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.Listing{}
	for _, l := range listings {
		if l.OwnerID == ownerID {
			out = append(out, l)
		}
	}
	return out, nil
}

// Get возвращает объявление по идентификатору
func (r *Repository) Get(ctx context.Context, id int64) (models.Listing, error) {
	listings, err := r.List(ctx)
	if err != nil {
		return models.Listing{}, err
	}
	for _, l := range listings {
		if l.ID == id {
			return l, nil
		}
	}
	return models.Listing{}, errListingNotFound
}

var errListingNotFound = apperrors.NewNotFound("Объявление не найдено")

// RecordView увеличивает счётчик просмотров и возвращает объявление
func (r *Repository) RecordView(ctx context.Context, id int64) (models.Listing, error) {
	var viewed models.Listing
	err := store.Run(ctx, r.store, func(ctx context.Context, tx *store.Tx) error {
		var listings []models.Listing
		if _, err := tx.Get(ctx, store.KeyListings, &listings); err != nil {
			return err
		}
		for i := range listings {
			if listings[i].ID == id {
				listings[i].Views++
				viewed = listings[i]
				return tx.Put(store.KeyListings, listings)
			}
		}
		return errListingNotFound
	})
	if err != nil {
		return models.Listing{}, err
	}
	return viewed, nil
}

// Delete удаляет объявление вместе с его отзывами. Права владельца
// проверяет вызывающая сторона.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	err := store.Run(ctx, r.store, func(ctx context.Context, tx *store.Tx) error {
		var listings []models.Listing
		if _, err := tx.Get(ctx, store.KeyListings, &listings); err != nil {
			return err
		}

		kept := make([]models.Listing, 0, len(listings))
		for _, l := range listings {
			if l.ID != id {
				kept = append(kept, l)
			}
		}
		if len(kept) == len(listings) {
			return errListingNotFound
		}

		if err := tx.Put(store.KeyListings, kept); err != nil {
			return err
		}
		tx.Delete(store.ReviewsKey(id))
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.WithField("listing_id", id).Info("Объявление удалено")
	r.publisher.ListingsChanged(id)
	return nil
}
