package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Action отложенное действие. Состояние алерта перечитывается внутри действия,
// в момент срабатывания.
type Action func(ctx context.Context, alertID uuid.UUID)

// Scheduler запускает отложенные действия по алертам. Отмены нет: действие
// само решает, актуально ли оно.
type Scheduler struct {
	mu      sync.Mutex
	timers  map[uint64]*time.Timer
	nextID  uint64
	stopped bool
	wg      sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
	logger *logrus.Logger
}

func NewScheduler(logger *logrus.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		timers: make(map[uint64]*time.Timer),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// Schedule планирует action через delay. После Stop вызов игнорируется.
func (s *Scheduler) Schedule(delay time.Duration, alertID uuid.UUID, name string, action Action) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	id := s.nextID
	s.nextID++
	s.wg.Add(1)

	s.timers[id] = time.AfterFunc(delay, func() {
		defer s.wg.Done()

		s.mu.Lock()
		delete(s.timers, id)
		s.mu.Unlock()

		log := s.logger.WithFields(logrus.Fields{
			"component": "scheduler",
			"task":      name,
			"alert_id":  alertID,
		})

		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", r).Error("Scheduled task panicked")
			}
		}()

		log.Debug("Running scheduled task")
		action(s.ctx, alertID)
	})

	s.logger.WithFields(logrus.Fields{
		"component": "scheduler",
		"task":      name,
		"alert_id":  alertID,
		"delay":     delay.String(),
	}).Debug("Task scheduled")
}

// Pending число таймеров, которые еще не сработали
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop сбрасывает несработавшие таймеры и ждет завершения уже запущенных действий
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	dropped := 0
	for id, t := range s.timers {
		if t.Stop() {
			s.wg.Done()
			dropped++
		}
		delete(s.timers, id)
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()

	s.logger.WithField("dropped", dropped).Info("Scheduler stopped")
}
