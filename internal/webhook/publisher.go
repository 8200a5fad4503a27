package webhook

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	webhookQueueKey = "safenow:webhook_events"
)

// RedisPublisher ставит сериализованные события алертов в очередь Redis для воркера
type RedisPublisher struct {
	redisClient redis.Cmdable
	queueKey    string
}

// NewRedisPublisher создает новый RedisPublisher
func NewRedisPublisher(client redis.Cmdable) *RedisPublisher {
	return &RedisPublisher{
		redisClient: client,
		queueKey:    webhookQueueKey,
	}
}

// Publish публикует событие в очередь. Тело не меняется: воркер подписывает и отправляет те же байты.
func (p *RedisPublisher) Publish(ctx context.Context, payload []byte) error {
	// LPUSH в левую часть списка, воркер забирает справа
	if err := p.redisClient.LPush(ctx, p.queueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish webhook event to Redis: %w", err)
	}
	return nil
}
