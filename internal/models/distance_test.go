package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMeters(t *testing.T) {
	cases := map[string]Meters{
		"50м":    50,
		"100 м":  100,
		"1км":    1000,
		"1,5 км": 1500,
		"300m":   300,
		"2km":    2000,
		"250":    250,
	}
	for in, want := range cases {
		got, err := ParseMeters(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"близко", "nan", "inf", "-inf", "1e30м", "-5м", "101км", ""} {
		_, err := ParseMeters(in)
		assert.Error(t, err, in)
	}
}

func TestListingDistanceRejectsOutOfRange(t *testing.T) {
	for _, raw := range []string{`-50`, `1e30`, `100001`, `"nan"`, `"1e300км"`} {
		var l Listing
		err := json.Unmarshal([]byte(`{"id":1,"distanceToSea":`+raw+`}`), &l)
		assert.Error(t, err, raw)
	}

	var edge Listing
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"distanceToSea":100000}`), &edge))
	assert.Equal(t, Meters(MaxMeters), *edge.DistanceToSea)
}

func TestListingDistanceDecoding(t *testing.T) {
	var legacy Listing
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"distanceToSea":"1км"}`), &legacy))
	require.NotNil(t, legacy.DistanceToSea)
	assert.Equal(t, Meters(1000), *legacy.DistanceToSea)

	var numeric Listing
	require.NoError(t, json.Unmarshal([]byte(`{"id":2,"distanceToSea":120}`), &numeric))
	require.NotNil(t, numeric.DistanceToSea)
	assert.Equal(t, Meters(120), *numeric.DistanceToSea)

	var missing Listing
	require.NoError(t, json.Unmarshal([]byte(`{"id":3,"distanceToSea":null}`), &missing))
	assert.Nil(t, missing.DistanceToSea)

	out, err := json.Marshal(numeric)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"distanceToSea":120`)
}
