package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/DevanshVerma21/SafeNow/internal/config"
	"github.com/DevanshVerma21/SafeNow/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	signatureHeader = "X-SafeNow-Signature"
	popTimeout      = 5 * time.Second
)

// Worker забирает события из очереди и доставляет их во внешний диспетчерский центр
type Worker struct {
	redisClient redis.Cmdable
	logger      *logrus.Logger
	cfg         *config.Config
	httpClient  *http.Client
	queueKey    string
}

// NewWorker создает новый Worker
func NewWorker(redisClient redis.Cmdable, logger *logrus.Logger, cfg *config.Config) *Worker {
	return &Worker{
		redisClient: redisClient,
		logger:      logger,
		cfg:         cfg,
		httpClient: &http.Client{
			Timeout: cfg.WebhookTimeout,
		},
		queueKey: webhookQueueKey,
	}
}

// Start запускает горутину обработки очереди; она завершается вместе с ctx
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Starting webhook worker...")
	go func() {
		for {
			select {
			case <-ctx.Done():
				w.logger.Info("Stopping webhook worker.")
				return
			default:
			}

			// BRPOP блокирующее извлечение из правой части списка с таймаутом,
			// чтобы регулярно проверять отмену контекста
			result, err := w.redisClient.BRPop(ctx, popTimeout, w.queueKey).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
					continue
				}
				w.logger.WithError(err).Error("Failed to pop webhook event from Redis")
				sleepCtx(ctx, w.cfg.WebhookTimeout)
				continue
			}

			// result[0] - ключ, result[1] - значение
			w.Deliver(ctx, []byte(result[1]))
		}
	}()
}

// Deliver отправляет одно событие с повторами и экспоненциальной задержкой
func (w *Worker) Deliver(ctx context.Context, payload []byte) bool {
	log := w.logger.WithField("component", "webhook")

	var event models.AlertEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		log.WithError(err).Error("Failed to unmarshal webhook event from Redis")
		return false
	}
	log = log.WithFields(logrus.Fields{"alert_id": event.AlertID, "action": event.Action})

	if w.cfg.WebhookURL == "" {
		log.Warn("Webhook URL is not configured. Skipping webhook delivery.")
		return false
	}

	maxRetries := w.cfg.WebhookMaxRetries
	delay := w.cfg.WebhookBaseDelay

	for i := 0; i < maxRetries; i++ {
		err := w.send(ctx, payload)
		if err == nil {
			log.Info("Webhook delivered successfully.")
			return true
		}

		retriesLeft := maxRetries - 1 - i
		log.WithError(err).Warnf("Webhook delivery failed. Retries left: %d", retriesLeft)
		if retriesLeft == 0 || !sleepCtx(ctx, delay) {
			break
		}
		delay *= 2 // Экспоненциальная задержка
	}

	log.Errorf("Failed to deliver webhook after %d attempts.", maxRetries)
	return false
}

func (w *Worker) send(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// Добавляем HMAC подпись, если WEBHOOK_SECRET задан
	if w.cfg.WebhookSecret != "" {
		req.Header.Set(signatureHeader, Sign(payload, w.cfg.WebhookSecret))
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}
	return nil
}

// Sign генерирует HMAC-SHA256 подпись тела
func Sign(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// sleepCtx возвращает false, если ctx отменен раньше
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
