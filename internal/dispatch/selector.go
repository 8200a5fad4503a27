package dispatch

import (
	"context"

	"github.com/DevanshVerma21/SafeNow/internal/eta"
	"github.com/DevanshVerma21/SafeNow/internal/models"
	"github.com/sirupsen/logrus"
)

// Estimator источник оценки времени в пути
type Estimator interface {
	Estimate(ctx context.Context, origin, destination models.Location) eta.Result
}

// Selection выбранный исполнитель и значение, по которому он победил
type Selection struct {
	Responder *models.Responder
	// ETASeconds заполнен, если выбор сделан по ETA
	ETASeconds *int
	// DistanceMeters заполнен, если ни одна оценка ETA не была доступна
	DistanceMeters *float64
}

// ByDistance выбор сделан по расстоянию, а не по ETA
func (s Selection) ByDistance() bool {
	return s.ETASeconds == nil && s.DistanceMeters != nil
}

// Selector выбирает ближайшего по времени исполнителя
type Selector struct {
	estimator Estimator
	logger    *logrus.Logger
}

func NewSelector(estimator Estimator, logger *logrus.Logger) *Selector {
	return &Selector{estimator: estimator, logger: logger}
}

// Select возвращает false, если кандидатов нет или ни у одного нет координат.
// При равенстве побеждает первый встреченный кандидат.
func (s *Selector) Select(ctx context.Context, target models.Location, pool []*models.Responder) (Selection, bool) {
	log := s.logger.WithFields(logrus.Fields{
		"component": "selector",
		"method":    "Select",
		"pool_size": len(pool),
	})

	var (
		bestETA     *models.Responder
		bestSeconds int
		bestDist    *models.Responder
		bestMeters  float64
	)

	for _, r := range pool {
		if r == nil || r.LastLocation == nil {
			continue
		}

		res := s.estimator.Estimate(ctx, *r.LastLocation, target)
		if res.Available() {
			if bestETA == nil || res.Seconds < bestSeconds {
				bestETA, bestSeconds = r, res.Seconds
			}
			continue
		}

		if !eta.ValidLocation(*r.LastLocation) {
			continue
		}
		meters := eta.Haversine(*r.LastLocation, target)
		if bestDist == nil || meters < bestMeters {
			bestDist, bestMeters = r, meters
		}
	}

	if bestETA != nil {
		seconds := bestSeconds
		log.WithFields(logrus.Fields{"responder_id": bestETA.ID, "eta_seconds": seconds}).Debug("Candidate selected by ETA")
		return Selection{Responder: bestETA, ETASeconds: &seconds}, true
	}

	if bestDist != nil {
		meters := bestMeters
		log.WithFields(logrus.Fields{"responder_id": bestDist.ID, "distance_m": meters}).Debug("Candidate selected by distance")
		return Selection{Responder: bestDist, DistanceMeters: &meters}, true
	}

	log.Debug("No eligible candidate")
	return Selection{}, false
}
