package eta

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/DevanshVerma21/SafeNow/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const DefaultTTL = 60 * time.Second

// localPruneThreshold размер локальной карты, после которого запись вычищает просроченное
const localPruneThreshold = 1024

type localEntry struct {
	seconds   int
	expiresAt time.Time
}

// Cache двухуровневый кеш ETA: локальная карта процесса и общий Redis.
// Ошибки Redis не выходят наружу: кеш деградирует до локального уровня.
type Cache struct {
	mu        sync.Mutex
	local     map[string]localEntry
	redis     redis.Cmdable
	ttl       time.Duration
	precision int
	logger    *logrus.Logger
	now       func() time.Time
}

// NewCache rdb может быть nil (режим одного инстанса)
func NewCache(rdb redis.Cmdable, ttl time.Duration, precision int, logger *logrus.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if precision < 0 {
		precision = 5
	}
	return &Cache{
		local:     make(map[string]localEntry),
		redis:     rdb,
		ttl:       ttl,
		precision: precision,
		logger:    logger,
		now:       time.Now,
	}
}

// Key детерминированный ключ пары округленных координат
func (c *Cache) Key(origin, destination models.Location) string {
	return fmt.Sprintf("eta:%s,%s:%s,%s",
		c.round(origin.Latitude), c.round(origin.Longitude),
		c.round(destination.Latitude), c.round(destination.Longitude))
}

func (c *Cache) round(v float64) string {
	p := math.Pow10(c.precision)
	r := math.Round(v*p) / p
	if r == 0 {
		r = 0 // убираем -0
	}
	return strconv.FormatFloat(r, 'f', c.precision, 64)
}

// Get локальный уровень, затем Redis с заполнением локального при попадании
func (c *Cache) Get(ctx context.Context, key string) (int, bool) {
	if v, ok := c.getLocal(key); ok {
		return v, true
	}

	if c.redis == nil {
		return 0, false
	}

	v, err := c.redis.Get(ctx, key).Int()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithField("component", "eta_cache").WithError(err).Debug("Shared ETA cache read failed")
		}
		return 0, false
	}

	c.setLocal(key, v)
	return v, true
}

// Set записывает значение в оба уровня
func (c *Cache) Set(ctx context.Context, key string, seconds int) {
	c.setLocal(key, seconds)

	if c.redis == nil {
		return
	}
	if err := c.redis.Set(ctx, key, seconds, c.ttl).Err(); err != nil {
		c.logger.WithField("component", "eta_cache").WithError(err).Debug("Shared ETA cache write failed")
	}
}

func (c *Cache) getLocal(key string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.local[key]
	if !ok {
		return 0, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.local, key)
		return 0, false
	}
	return e.seconds, true
}

func (c *Cache) setLocal(key string, seconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if len(c.local) >= localPruneThreshold {
		for k, e := range c.local {
			if now.After(e.expiresAt) {
				delete(c.local, k)
			}
		}
	}
	c.local[key] = localEntry{seconds: seconds, expiresAt: now.Add(c.ttl)}
}
