package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/DevanshVerma21/SafeNow/internal/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const DefaultChannel = "alerts"

// PubSubClient часть клиента Redis, нужная ретранслятору
type PubSubClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// relayEnvelope поля, которые ретранслятор читает из чужого сообщения
type relayEnvelope struct {
	Origin string `json:"origin"`
}

// RedisRelay пересылает события между инстансами через канал Redis
type RedisRelay struct {
	client     PubSubClient
	channel    string
	instanceID string
	logger     *logrus.Logger
	metrics    *metrics.Metrics

	readyOnce sync.Once
	ready     chan struct{}
}

func NewRedisRelay(client PubSubClient, channel, instanceID string, logger *logrus.Logger, m *metrics.Metrics) *RedisRelay {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisRelay{
		client:     client,
		channel:    channel,
		instanceID: instanceID,
		logger:     logger,
		metrics:    m,
		ready:      make(chan struct{}),
	}
}

// Publish отправляет уже сериализованное событие соседям
func (r *RedisRelay) Publish(ctx context.Context, payload []byte) error {
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		r.metrics.Relay("out", "error")
		return fmt.Errorf("relay: failed to publish to %s: %w", r.channel, err)
	}
	r.metrics.Relay("out", "ok")
	return nil
}

// Ready закрывается, когда подписка подтверждена
func (r *RedisRelay) Ready() <-chan struct{} {
	return r.ready
}

// Run держит подписку до отмены ctx. Сообщения от этого же инстанса пропускаются,
// некорректные отбрасываются, остальные передаются в deliver без изменений.
// Полученное никогда не публикуется повторно.
func (r *RedisRelay) Run(ctx context.Context, deliver func(payload []byte)) error {
	log := r.logger.WithFields(logrus.Fields{
		"component": "relay",
		"channel":   r.channel,
	})

	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("relay: failed to subscribe to %s: %w", r.channel, err)
	}
	r.readyOnce.Do(func() { close(r.ready) })
	log.Info("Subscribed to relay channel")

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping relay subscriber.")
			return nil
		case msg, ok := <-messages:
			if !ok {
				log.Warn("Relay subscription closed")
				return nil
			}
			r.handle(log, []byte(msg.Payload), deliver)
		}
	}
}

func (r *RedisRelay) handle(log *logrus.Entry, payload []byte, deliver func([]byte)) {
	var env relayEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		log.WithError(err).Debug("Dropping malformed relay message")
		r.metrics.Relay("in", "malformed")
		return
	}
	if env.Origin == r.instanceID {
		r.metrics.Relay("in", "self")
		return
	}

	deliver(payload)
	r.metrics.Relay("in", "ok")
}
