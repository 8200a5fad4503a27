package eta

import (
	"math"

	"github.com/DevanshVerma21/SafeNow/internal/models"
)

const (
	// EarthRadiusMeters радиус Земли для формулы гаверсинуса
	EarthRadiusMeters = 6371000.0
	// AverageSpeedMPS средняя скорость движения, ~40 км/ч
	AverageSpeedMPS = 11.11
)

// Haversine возвращает расстояние по дуге большого круга в метрах
func Haversine(from, to models.Location) float64 {
	phi1 := from.Latitude * math.Pi / 180
	phi2 := to.Latitude * math.Pi / 180
	dPhi := (to.Latitude - from.Latitude) * math.Pi / 180
	dLambda := (to.Longitude - from.Longitude) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// FallbackSeconds оценка времени пути по прямой при средней скорости
func FallbackSeconds(from, to models.Location) int {
	return int(math.Floor(Haversine(from, to) / AverageSpeedMPS))
}

// ValidLocation проверяет, что координаты конечны и лежат в допустимых пределах
func ValidLocation(l models.Location) bool {
	if math.IsNaN(l.Latitude) || math.IsNaN(l.Longitude) ||
		math.IsInf(l.Latitude, 0) || math.IsInf(l.Longitude, 0) {
		return false
	}
	return l.Latitude >= -90 && l.Latitude <= 90 && l.Longitude >= -180 && l.Longitude <= 180
}
