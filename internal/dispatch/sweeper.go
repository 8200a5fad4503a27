package dispatch

import (
	"context"
	"time"

	"github.com/DevanshVerma21/SafeNow/internal/metrics"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	SweepReasonExpired   = "expired"
	SweepReasonRetention = "retention"
)

// ExpiryStore хранилище, умеющее удалять просроченные алерты
type ExpiryStore interface {
	// DeleteExpired удаляет алерты, у которых auto_delete_at <= now
	DeleteExpired(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	// DeleteTerminalBefore удаляет resolved/done алерты, обновленные раньше cutoff
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
}

// DeletedFunc получает идентификаторы удаленных за проход алертов
type DeletedFunc func(ctx context.Context, reason string, ids []uuid.UUID)

// Sweeper периодическая очистка: подбирает все, что пропустили таймеры автоудаления
type Sweeper struct {
	store     ExpiryStore
	interval  time.Duration
	retention time.Duration
	onDeleted DeletedFunc
	logger    *logrus.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewSweeper(store ExpiryStore, interval, retention time.Duration, onDeleted DeletedFunc, logger *logrus.Logger, m *metrics.Metrics) *Sweeper {
	return &Sweeper{
		store:     store,
		interval:  interval,
		retention: retention,
		onDeleted: onDeleted,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

// Start запускает горутину очистки; она завершается вместе с ctx
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.WithField("interval", s.interval.String()).Info("Starting alert sweeper...")
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("Stopping alert sweeper.")
				return
			case <-ticker.C:
				s.SweepOnce(ctx)
			}
		}
	}()
}

// SweepOnce один проход очистки. Ошибки хранилища логируются, следующий проход повторит попытку.
func (s *Sweeper) SweepOnce(ctx context.Context) int {
	log := s.logger.WithFields(logrus.Fields{
		"component": "sweeper",
		"method":    "SweepOnce",
	})

	now := s.now()
	total := 0

	expired, err := s.store.DeleteExpired(ctx, now)
	if err != nil {
		log.WithError(err).Error("Failed to delete expired alerts")
	} else {
		total += s.report(ctx, SweepReasonExpired, expired)
	}

	if s.retention > 0 {
		stale, err := s.store.DeleteTerminalBefore(ctx, now.Add(-s.retention))
		if err != nil {
			log.WithError(err).Error("Failed to delete alerts past retention")
		} else {
			total += s.report(ctx, SweepReasonRetention, stale)
		}
	}

	if total > 0 {
		log.WithField("deleted", total).Info("Sweep completed")
	}
	return total
}

func (s *Sweeper) report(ctx context.Context, reason string, ids []uuid.UUID) int {
	if len(ids) == 0 {
		return 0
	}
	s.metrics.Swept(reason, len(ids))
	if s.onDeleted != nil {
		s.onDeleted(ctx, reason, ids)
	}
	return len(ids)
}
