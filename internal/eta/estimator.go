package eta

import (
	"context"
	"errors"
	"time"

	"github.com/DevanshVerma21/SafeNow/internal/metrics"
	"github.com/DevanshVerma21/SafeNow/internal/models"
	"github.com/sirupsen/logrus"
)

var (
	// ErrUnavailable оценка не может быть получена
	ErrUnavailable = errors.New("eta: estimate unavailable")
	// ErrNoCredential провайдер маршрутов не настроен
	ErrNoCredential = errors.New("eta: routing provider credential missing")
)

// Source откуда получена оценка
type Source string

const (
	SourceCache     Source = "cache"
	SourceProvider  Source = "provider"
	SourceHaversine Source = "haversine"
)

// Result явный результат оценки: либо секунды, либо Unavailable с причиной.
type Result struct {
	Seconds int
	Source  Source
	Err     error
}

func (r Result) Available() bool {
	return r.Err == nil
}

func unavailable(cause error) Result {
	return Result{Err: errors.Join(ErrUnavailable, cause)}
}

// RoutingProvider внешний сервис маршрутов
type RoutingProvider interface {
	DrivingDuration(ctx context.Context, origin, destination models.Location) (time.Duration, error)
}

// Estimator оценивает время в пути: кеш, затем провайдер, затем гаверсинус.
type Estimator struct {
	cache    *Cache
	provider RoutingProvider
	timeout  time.Duration
	logger   *logrus.Logger
	metrics  *metrics.Metrics
}

// NewEstimator provider может быть nil: тогда используется только формула
func NewEstimator(cache *Cache, provider RoutingProvider, timeout time.Duration, logger *logrus.Logger, m *metrics.Metrics) *Estimator {
	return &Estimator{
		cache:    cache,
		provider: provider,
		timeout:  timeout,
		logger:   logger,
		metrics:  m,
	}
}

// Estimate никогда не возвращает ошибку вызывающему: недоступность выражена в Result.
func (e *Estimator) Estimate(ctx context.Context, origin, destination models.Location) Result {
	if !ValidLocation(origin) || !ValidLocation(destination) {
		return unavailable(errors.New("invalid coordinates"))
	}

	key := e.cache.Key(origin, destination)
	if seconds, ok := e.cache.Get(ctx, key); ok {
		e.metrics.ETALookup(string(SourceCache))
		return Result{Seconds: seconds, Source: SourceCache}
	}

	res := e.fromProvider(ctx, origin, destination)
	if !res.Available() {
		res = Result{Seconds: FallbackSeconds(origin, destination), Source: SourceHaversine}
	}

	e.cache.Set(ctx, key, res.Seconds)
	e.metrics.ETALookup(string(res.Source))
	return res
}

func (e *Estimator) fromProvider(ctx context.Context, origin, destination models.Location) Result {
	if e.provider == nil {
		return unavailable(ErrNoCredential)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	d, err := e.provider.DrivingDuration(ctx, origin, destination)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"component": "eta",
			"method":    "Estimate",
		}).WithError(err).Debug("Routing provider failed, falling back to haversine")
		return unavailable(err)
	}
	if d < 0 {
		return unavailable(errors.New("negative duration from provider"))
	}

	return Result{Seconds: int(d / time.Second), Source: SourceProvider}
}
