// Package filter отбирает объявления по критериям поиска.
package filter

import (
	"strconv"
	"strings"

	"github.com/rajivgeraev/sudak-api/internal/models"
	"github.com/rajivgeraev/sudak-api/internal/pkg/apperrors"
)

// Метки интервалов расстояния до моря
const (
	Within100 = "До 100м"
	Within300 = "До 300м"
	Within500 = "До 500м"
	Beyond500 = "Более 500м"
)

// bucket: полуинтервал (min, max] в метрах; max < 0 означает бесконечность
type bucket struct {
	min, max       models.Meters
	includeMinimum bool
}

var buckets = map[string]bucket{
	Within100: {min: 0, max: 100, includeMinimum: true},
	Within300: {min: 100, max: 300},
	Within500: {min: 300, max: 500},
	Beyond500: {min: 500, max: -1},
}

func (b bucket) contains(d models.Meters) bool {
	if d < b.min || (d == b.min && !b.includeMinimum) {
		return false
	}
	return b.max < 0 || d <= b.max
}

// Criteria критерии фильтрации; пустые поля не ограничивают выборку
type Criteria struct {
	Type          string   `json:"type,omitempty"`
	PriceMin      *int     `json:"priceMin,omitempty"`
	PriceMax      *int     `json:"priceMax,omitempty"`
	Amenities     []string `json:"amenities,omitempty"`
	DistanceToSea string   `json:"distanceToSea,omitempty"`
}

// Apply возвращает объявления, удовлетворяющие всем критериям, в исходном порядке
func Apply(listings []models.Listing, c Criteria) []models.Listing {
	out := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if c.Match(l) {
			out = append(out, l)
		}
	}
	return out
}

// Match проверяет одно объявление
func (c Criteria) Match(l models.Listing) bool {
	if c.Type != "" && l.Type != c.Type {
		return false
	}
	if c.PriceMin != nil && l.Price < *c.PriceMin {
		return false
	}
	if c.PriceMax != nil && l.Price > *c.PriceMax {
		return false
	}
	for _, a := range c.Amenities {
		if !l.HasAmenity(a) {
			return false
		}
	}

	if c.DistanceToSea == "" {
		return true
	}
	b, known := buckets[c.DistanceToSea]
	if !known {
		return true
	}
	return l.DistanceToSea != nil && b.contains(*l.DistanceToSea)
}

// ParseCriteria собирает критерии из параметров запроса.
// Удобства передаются через запятую: amenities=wifi,parking
func ParseCriteria(query map[string]string) (Criteria, error) {
	c := Criteria{
		Type:          strings.TrimSpace(query["type"]),
		DistanceToSea: strings.TrimSpace(query["distanceToSea"]),
	}
	if c.Type == "all" {
		c.Type = ""
	}

	var err error
	if c.PriceMin, err = parsePrice(query, "priceMin"); err != nil {
		return Criteria{}, err
	}
	if c.PriceMax, err = parsePrice(query, "priceMax"); err != nil {
		return Criteria{}, err
	}

	for _, a := range strings.Split(query["amenities"], ",") {
		if a = strings.TrimSpace(a); a != "" {
			c.Amenities = append(c.Amenities, a)
		}
	}
	return c, nil
}

func parsePrice(query map[string]string, field string) (*int, error) {
	raw := strings.TrimSpace(query[field])
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperrors.NewValidationError(field, "Цена должна быть целым числом")
	}
	return &v, nil
}
