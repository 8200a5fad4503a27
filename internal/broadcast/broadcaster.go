package broadcast

import (
	"context"
	"encoding/json"

	"github.com/DevanshVerma21/SafeNow/internal/models"
	"github.com/sirupsen/logrus"
)

// Publisher внешний получатель уже сериализованных событий
type Publisher interface {
	Publish(ctx context.Context, payload []byte) error
}

// Broadcaster рассылка событий: локальные клиенты, соседние инстансы, вебхук
type Broadcaster struct {
	hub        *Hub
	enricher   *Enricher
	relay      Publisher
	webhooks   Publisher
	instanceID string
	logger     *logrus.Logger
}

// NewBroadcaster relay и webhooks могут быть nil: тогда рассылка только локальная
func NewBroadcaster(hub *Hub, enricher *Enricher, relay, webhooks Publisher, instanceID string, logger *logrus.Logger) *Broadcaster {
	return &Broadcaster{
		hub:        hub,
		enricher:   enricher,
		relay:      relay,
		webhooks:   webhooks,
		instanceID: instanceID,
		logger:     logger,
	}
}

// Broadcast обогащает событие, сериализует его один раз и отправляет одни и те же байты
// локальным клиентам, в канал ретрансляции и в очередь вебхуков. Ошибки доставки только логируются.
func (b *Broadcaster) Broadcast(ctx context.Context, event *models.AlertEvent) {
	log := b.logger.WithFields(logrus.Fields{
		"component": "broadcaster",
		"action":    event.Action,
		"alert_id":  event.AlertID,
	})

	if b.enricher != nil {
		b.enricher.Enrich(ctx, event)
	}
	event.Origin = b.instanceID

	payload, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).Error("Failed to marshal alert event")
		return
	}

	delivered := b.hub.Deliver(payload)

	if b.relay != nil {
		if err := b.relay.Publish(ctx, payload); err != nil {
			log.WithError(err).Warn("Relay publish failed, event delivered locally only")
		}
	}
	if b.webhooks != nil {
		if err := b.webhooks.Publish(ctx, payload); err != nil {
			log.WithError(err).Warn("Failed to enqueue webhook event")
		}
	}

	log.WithField("delivered", delivered).Debug("Alert event broadcast")
}

// DeliverRemote доставляет локальным клиентам событие, пришедшее от соседнего инстанса
func (b *Broadcaster) DeliverRemote(payload []byte) {
	b.hub.Deliver(payload)
}
