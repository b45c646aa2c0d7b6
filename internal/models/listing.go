package models

import (
	"time"
)

// Стоимость и ограничения размещения объявления
const (
	ListingFee      = 1500
	MinImages       = 10
	MaxImages       = 20
	PostingCooldown = 72 * time.Hour
)

// Типы жилья
const (
	TypeApartment = "apartment"
	TypeHouse     = "house"
	TypeVilla     = "villa"
	TypeStudio    = "studio"
	TypeRoom      = "room"
)

// Listing представляет объявление о сдаче жилья
type Listing struct {
	ID            int64                `json:"id"`
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	Type          string               `json:"type"`
	Location      string               `json:"location"`
	Price         int                  `json:"price"`
	Guests        int                  `json:"guests"`
	Rooms         int                  `json:"rooms"`
	Bathrooms     int                  `json:"bathrooms"`
	Area          *int                 `json:"area"`
	DistanceToSea *Meters              `json:"distanceToSea,omitempty"`
	Amenities     []string             `json:"amenities"`
	Images        []string             `json:"images"`
	Availability  []AvailabilityPeriod `json:"availability"`
	OwnerID       string               `json:"ownerId"`
	OwnerName     string               `json:"ownerName"`
	OwnerPhone    string               `json:"ownerPhone"`
	Rating        float64              `json:"rating"`
	Reviews       int                  `json:"reviews"`
	Views         int                  `json:"views"`
	CreatedAt     time.Time            `json:"createdAt"`
}

// HasAmenity проверяет наличие удобства
func (l Listing) HasAmenity(tag string) bool {
	for _, a := range l.Amenities {
		if a == tag {
			return true
		}
	}
	return false
}

// AvailabilityPeriod: период доступности с ценой; даты в формате YYYY-MM-DD
type AvailabilityPeriod struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Price     int    `json:"price"`
	Available bool   `json:"available"`
}

// Review представляет отзыв об объявлении
type Review struct {
	ID       int64  `json:"id"`
	UserName string `json:"userName"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment"`
	Date     string `json:"date"`
}
