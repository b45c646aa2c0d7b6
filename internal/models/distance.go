package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Meters: расстояние в метрах.
//
// Старые записи хранят расстояние строкой ("50м", "1км", "1.5 km"),
// такие значения переводятся в метры при чтении.
type Meters int

// MaxMeters: верхняя граница расстояния до моря
const MaxMeters = 100_000

// UnmarshalJSON принимает число или строку с единицами измерения
func (m *Meters) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] != '"' {
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("неверное расстояние %s: %w", data, err)
		}
		v, err := toMeters(n)
		if err != nil {
			return err
		}
		*m = v
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseMeters(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ParseMeters разбирает строковую запись расстояния
func ParseMeters(s string) (Meters, error) {
	s = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	s = strings.ReplaceAll(s, ",", ".")

	multiplier := 1.0
	switch {
	case strings.HasSuffix(s, "км"):
		s, multiplier = strings.TrimSuffix(s, "км"), 1000
	case strings.HasSuffix(s, "km"):
		s, multiplier = strings.TrimSuffix(s, "km"), 1000
	case strings.HasSuffix(s, "м"):
		s = strings.TrimSuffix(s, "м")
	case strings.HasSuffix(s, "m"):
		s = strings.TrimSuffix(s, "m")
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("неверное расстояние %q", s)
	}
	return toMeters(n * multiplier)
}

// toMeters отсекает NaN, бесконечности и значения вне [0, MaxMeters]
func toMeters(n float64) (Meters, error) {
	if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 || n > MaxMeters {
		return 0, fmt.Errorf("расстояние %v вне допустимого диапазона 0..%d м", n, MaxMeters)
	}
	return Meters(math.Round(n)), nil
}
