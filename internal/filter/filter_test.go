package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/sudak-api/internal/models"
	"github.com/rajivgeraev/sudak-api/internal/pkg/apperrors"
)

func meters(v int) *models.Meters {
	m := models.Meters(v)
	return &m
}

func intPtr(v int) *int { return &v }

func sample() []models.Listing {
	return []models.Listing{
		{ID: 1, Type: models.TypeApartment, Price: 3000, Amenities: []string{"wifi", "parking"}, DistanceToSea: meters(50)},
		{ID: 2, Type: models.TypeHouse, Price: 5000, Amenities: []string{"wifi"}, DistanceToSea: meters(100)},
		{ID: 3, Type: models.TypeApartment, Price: 2500, Amenities: []string{"parking"}, DistanceToSea: meters(300)},
		{ID: 4, Type: models.TypeVilla, Price: 12000, Amenities: []string{"wifi", "parking", "pool"}, DistanceToSea: meters(1000)},
		{ID: 5, Type: models.TypeStudio, Price: 1800},
	}
}

func ids(listings []models.Listing) []int64 {
	out := make([]int64, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.ID)
	}
	return out
}

func TestEmptyCriteriaKeepsEverything(t *testing.T) {
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(Apply(sample(), Criteria{})))
}

func TestAmenitiesUseAndSemantics(t *testing.T) {
	got := Apply(sample(), Criteria{Amenities: []string{"wifi", "parking"}})
	assert.Equal(t, []int64{1, 4}, ids(got))
}

func TestTypeAndPriceBoundsAreInclusive(t *testing.T) {
	got := Apply(sample(), Criteria{Type: models.TypeApartment, PriceMin: intPtr(2500), PriceMax: intPtr(3000)})
	assert.Equal(t, []int64{1, 3}, ids(got))

	got = Apply(sample(), Criteria{PriceMax: intPtr(2499)})
	assert.Equal(t, []int64{5}, ids(got))
}

func TestDistanceBuckets(t *testing.T) {
	cases := map[string][]int64{
		Within100: {1, 2},
		Within300: {3},
		Within500: {},
		Beyond500: {4},
		"рядом":   {1, 2, 3, 4, 5},
	}
	for label, want := range cases {
		assert.Equal(t, want, ids(Apply(sample(), Criteria{DistanceToSea: label})), label)
	}
}

func TestBucketBoundaries(t *testing.T) {
	listings := []models.Listing{
		{ID: 100, DistanceToSea: meters(100)},
		{ID: 101, DistanceToSea: meters(101)},
		{ID: 500, DistanceToSea: meters(500)},
		{ID: 501, DistanceToSea: meters(501)},
	}
	assert.Equal(t, []int64{100}, ids(Apply(listings, Criteria{DistanceToSea: Within100})))
	assert.Equal(t, []int64{101}, ids(Apply(listings, Criteria{DistanceToSea: Within300})))
	assert.Equal(t, []int64{500}, ids(Apply(listings, Criteria{DistanceToSea: Within500})))
	assert.Equal(t, []int64{501}, ids(Apply(listings, Criteria{DistanceToSea: Beyond500})))
}

func TestParseCriteria(t *testing.T) {
	c, err := ParseCriteria(map[string]string{
		"type":          "all",
		"priceMin":      "1000",
		"amenities":     "wifi, parking,,",
		"distanceToSea": Within300,
	})
	require.NoError(t, err)

	assert.Empty(t, c.Type)
	require.NotNil(t, c.PriceMin)
	assert.Equal(t, 1000, *c.PriceMin)
	assert.Nil(t, c.PriceMax)
	assert.Equal(t, []string{"wifi", "parking"}, c.Amenities)
	assert.Equal(t, Within300, c.DistanceToSea)

	_, err = ParseCriteria(map[string]string{"priceMax": "дорого"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
