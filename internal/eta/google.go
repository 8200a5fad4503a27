package eta

import (
	"context"
	"fmt"
	"time"

	"github.com/DevanshVerma21/SafeNow/internal/models"
	"googlemaps.github.io/maps"
)

// GoogleRouter провайдер времени в пути через Google Distance Matrix
type GoogleRouter struct {
	client *maps.Client
}

// NewGoogleRouter без ключа возвращает ErrNoCredential; вызывающий работает без провайдера
func NewGoogleRouter(apiKey string, opts ...maps.ClientOption) (*GoogleRouter, error) {
	if apiKey == "" {
		return nil, ErrNoCredential
	}

	client, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return &GoogleRouter{client: client}, nil
}

// DrivingDuration время в пути на автомобиле между двумя точками
func (g *GoogleRouter) DrivingDuration(ctx context.Context, origin, destination models.Location) (time.Duration, error) {
	req := &maps.DistanceMatrixRequest{
		Origins:      []string{latLng(origin)},
		Destinations: []string{latLng(destination)},
		Mode:         maps.TravelModeDriving,
		Units:        maps.UnitsMetric,
	}

	resp, err := g.client.DistanceMatrix(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("distance matrix request failed: %w", err)
	}

	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return 0, fmt.Errorf("distance matrix returned no elements")
	}

	element := resp.Rows[0].Elements[0]
	if element.Status != "OK" {
		return 0, fmt.Errorf("distance matrix element status %s", element.Status)
	}

	return element.Duration, nil
}

func latLng(l models.Location) string {
	return fmt.Sprintf("%f,%f", l.Latitude, l.Longitude)
}
