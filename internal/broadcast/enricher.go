package broadcast

import (
	"context"

	"github.com/DevanshVerma21/SafeNow/internal/dispatch"
	"github.com/DevanshVerma21/SafeNow/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ResponderSource чтение исполнителей для обогащения событий
type ResponderSource interface {
	GetResponder(ctx context.Context, id uuid.UUID) (*models.Responder, error)
	AvailableNear(ctx context.Context, near models.Location, limit int) ([]*models.Responder, error)
}

// Selector выбор ближайшего исполнителя
type Selector interface {
	Select(ctx context.Context, target models.Location, pool []*models.Responder) (dispatch.Selection, bool)
}

// Enricher добавляет к событию ETA. Любая неудача только оставляет поля пустыми.
type Enricher struct {
	responders ResponderSource
	estimator  dispatch.Estimator
	selector   Selector
	poolSize   int
	logger     *logrus.Logger
}

func NewEnricher(responders ResponderSource, estimator dispatch.Estimator, selector Selector, poolSize int, logger *logrus.Logger) *Enricher {
	return &Enricher{
		responders: responders,
		estimator:  estimator,
		selector:   selector,
		poolSize:   poolSize,
		logger:     logger,
	}
}

// Enrich назначенный алерт получает eta_seconds от исполнителя до алерта,
// неназначенный открытый алерт получает ближайшего исполнителя и его ETA.
func (e *Enricher) Enrich(ctx context.Context, event *models.AlertEvent) {
	if event == nil || event.Alert == nil {
		return
	}
	alert := event.Alert
	log := e.logger.WithFields(logrus.Fields{
		"component": "enricher",
		"alert_id":  alert.ID,
	})

	switch {
	case alert.Status.HasAssignee() && alert.AssignedTo != nil:
		responder, err := e.responders.GetResponder(ctx, *alert.AssignedTo)
		if err != nil {
			log.WithError(err).Debug("Assigned responder not readable, ETA omitted")
			return
		}
		if responder.LastLocation == nil {
			return
		}
		res := e.estimator.Estimate(ctx, *responder.LastLocation, alert.Location)
		if !res.Available() {
			log.WithError(res.Err).Debug("ETA unavailable for assigned responder")
			return
		}
		seconds := res.Seconds
		event.ETASeconds = &seconds

	case alert.Status.Open():
		pool, err := e.responders.AvailableNear(ctx, alert.Location, e.poolSize)
		if err != nil {
			log.WithError(err).Debug("Responder pool not readable, nearest responder omitted")
			return
		}
		selection, ok := e.selector.Select(ctx, alert.Location, pool)
		if !ok {
			return
		}
		id := selection.Responder.ID
		event.NearestResponderID = &id
		if selection.ETASeconds != nil {
			seconds := *selection.ETASeconds
			event.NearestResponderETA = &seconds
		}
	}
}
