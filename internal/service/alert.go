package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DevanshVerma21/SafeNow/internal/config"
	"github.com/DevanshVerma21/SafeNow/internal/dispatch"
	"github.com/DevanshVerma21/SafeNow/internal/metrics"
	"github.com/DevanshVerma21/SafeNow/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

//go:generate mockgen -source=alert.go -destination=mocks/mock_alert.go -package=mocks

// AlertRepository определяет контракт хранилища алертов
type AlertRepository interface {
	Create(ctx context.Context, alert *models.Alert) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Alert, error)
	// List не возвращает алерты, у которых auto_delete_at <= now
	List(ctx context.Context, filter models.AlertFilter, now time.Time) ([]*models.Alert, error)
	// UpdateStatus сравнение с обменом: запись применяется, только если текущий статус
	// в хранилище равен expected, иначе ErrStatusConflict. Так два инстанса, одновременно
	// увидевшие pending, не назначат алерт дважды.
	UpdateStatus(ctx context.Context, alert *models.Alert, expected models.AlertStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteIfStatus(ctx context.Context, id uuid.UUID, status models.AlertStatus) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
}

// AlertMirror копия алертов в памяти для чтения при недоступном хранилище
type AlertMirror interface {
	AlertRepository
	Put(alert *models.Alert)
	Remove(id uuid.UUID)
}

// Scheduler откладывает действие по алерту
type Scheduler interface {
	Schedule(delay time.Duration, alertID uuid.UUID, name string, action dispatch.Action)
}

// CandidateSelector выбирает исполнителя для алерта
type CandidateSelector interface {
	Select(ctx context.Context, target models.Location, pool []*models.Responder) (dispatch.Selection, bool)
}

// Notifier доставляет события об изменениях алертов
type Notifier interface {
	Broadcast(ctx context.Context, event *models.AlertEvent)
}

// AlertService определяет контракт жизненного цикла алертов
type AlertService interface {
	CreateAlert(ctx context.Context, actor models.Actor, in models.NewAlert) (*models.Alert, error)
	GetAlert(ctx context.Context, id uuid.UUID) (*models.Alert, error)
	ListAlerts(ctx context.Context, filter models.AlertFilter) ([]*models.Alert, error)
	Transition(ctx context.Context, actor models.Actor, cmd models.TransitionCommand) (*models.Alert, error)
	MarkDone(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Alert, error)
	DeleteAlert(ctx context.Context, actor models.Actor, id uuid.UUID) error
	RespondToAssignment(ctx context.Context, actor models.Actor, responderID, alertID uuid.UUID, decision models.AssignmentDecision) (*models.Alert, error)
	HandleSwept(ctx context.Context, reason string, ids []uuid.UUID)
}

const (
	taskAutoAssign = "auto_assign"
	taskAutoDelete = "auto_delete"
)

type alertService struct {
	repo       AlertRepository
	mirror     AlertMirror
	responders ResponderService
	selector   CandidateSelector
	scheduler  Scheduler
	notifier   Notifier
	logger     *logrus.Logger
	cfg        *config.Config
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewAlertService mirror может быть nil, если основное хранилище уже в памяти
func NewAlertService(
	repo AlertRepository,
	mirror AlertMirror,
	responders ResponderService,
	selector CandidateSelector,
	scheduler Scheduler,
	notifier Notifier,
	logger *logrus.Logger,
	cfg *config.Config,
	m *metrics.Metrics,
) AlertService {
	return &alertService{
		repo:       repo,
		mirror:     mirror,
		responders: responders,
		selector:   selector,
		scheduler:  scheduler,
		notifier:   notifier,
		logger:     logger,
		cfg:        cfg,
		metrics:    m,
		now:        time.Now,
	}
}

// CreateAlert сохраняет алерт в статусе pending и запускает таймер автоназначения
func (s *alertService) CreateAlert(ctx context.Context, actor models.Actor, in models.NewAlert) (*models.Alert, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "alert",
		"method":  "CreateAlert",
		"user_id": actor.ID,
		"type":    in.Type,
	})
	log.Info("Attempting to create a new alert")

	now := s.now().UTC()
	severity := in.Severity
	if severity == 0 {
		severity = models.DefaultSeverity
	}

	alert := &models.Alert{
		ID:          uuid.New(),
		UserID:      actor.ID,
		Type:        in.Type,
		Note:        in.Note,
		Location:    in.Location,
		Severity:    severity,
		Attachments: in.Attachments,
		Status:      models.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, alert); err != nil {
		log.WithError(err).Error("Failed to create alert in repository")
		return nil, fmt.Errorf("service: could not create alert: %w", err)
	}
	s.mirrorPut(alert)

	s.scheduler.Schedule(s.cfg.AutoAssignDelay, alert.ID, taskAutoAssign, s.autoAssign)
	s.notifier.Broadcast(ctx, models.NewAlertEvent(models.ActionCreated, alert, now))

	log.WithField("alert_id", alert.ID).Info("Alert created successfully")
	return alert.Clone(), nil
}

// GetAlert возвращает алерт; при недоступном хранилище читает из зеркала
func (s *alertService) GetAlert(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "alert",
		"method":   "GetAlert",
		"alert_id": id,
	})
	log.Debug("Fetching alert by ID")

	alert, err := s.load(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to get alert")
		return nil, fmt.Errorf("service: could not get alert: %w", err)
	}
	if alert.Expired(s.now()) {
		return nil, fmt.Errorf("service: alert %s: %w", id, models.ErrNotFound)
	}
	return alert, nil
}

// ListAlerts выборка по фильтру; просроченные алерты не возвращаются
func (s *alertService) ListAlerts(ctx context.Context, filter models.AlertFilter) ([]*models.Alert, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "alert",
		"method":   "ListAlerts",
		"statuses": filter.Statuses,
	})
	log.Debug("Listing alerts")

	now := s.now()
	alerts, err := s.repo.List(ctx, filter, now)
	if err != nil && errors.Is(err, models.ErrStorageUnavailable) && s.mirror != nil {
		log.WithError(err).Warn("Storage unavailable, listing alerts from memory mirror")
		alerts, err = s.mirror.List(ctx, filter, now)
	}
	if err != nil {
		log.WithError(err).Error("Failed to list alerts")
		return nil, fmt.Errorf("service: could not list alerts: %w", err)
	}

	log.WithField("count", len(alerts)).Debug("Alerts listed successfully")
	return alerts, nil
}

// Transition явный запрос смены статуса от пользователя или диспетчера
func (s *alertService) Transition(ctx context.Context, actor models.Actor, cmd models.TransitionCommand) (*models.Alert, error) {
	requested := models.ParseAlertStatus(string(cmd.Status))
	log := s.logger.WithFields(logrus.Fields{
		"service":   "alert",
		"method":    "Transition",
		"alert_id":  cmd.AlertID,
		"actor_id":  actor.ID,
		"requested": requested,
	})
	log.Info("Attempting to transition alert")

	current, err := s.load(ctx, cmd.AlertID)
	if err != nil {
		log.WithError(err).Warn("Attempted to transition a non-readable alert")
		return nil, fmt.Errorf("service: could not transition alert: %w", err)
	}

	action := models.ActionStatusUpdated
	switch requested {
	case models.StatusDone:
		action = models.ActionMarkedDone
	case models.StatusDeclined:
		action = models.ActionDeclined
	}

	updated, err := s.apply(ctx, current, requested, cmd.ResponderID, cmd.Note, action)
	if err != nil {
		log.WithError(err).Warn("Alert transition rejected")
		return nil, fmt.Errorf("service: could not transition alert: %w", err)
	}

	log.WithField("status", updated.Status).Info("Alert transitioned successfully")
	return updated, nil
}

// MarkDone перевод в устаревший терминальный статус done с коротким автоудалением
func (s *alertService) MarkDone(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Alert, error) {
	return s.Transition(ctx, actor, models.TransitionCommand{AlertID: id, Status: models.StatusDone})
}

// DeleteAlert удаляет алерт сразу, не дожидаясь таймеров
func (s *alertService) DeleteAlert(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "alert",
		"method":   "DeleteAlert",
		"alert_id": id,
		"actor_id": actor.ID,
	})
	log.Info("Attempting to delete alert")

	if err := s.repo.Delete(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to delete alert")
		return fmt.Errorf("service: could not delete alert: %w", err)
	}
	s.mirrorRemove(id)

	s.notifier.Broadcast(ctx, models.NewDeletedEvent(models.ActionDeleted, id, s.now()))
	log.Info("Alert deleted successfully")
	return nil
}

// RespondToAssignment ответ назначенного исполнителя. Отвечать может только
// пользователь, которому принадлежит запись исполнителя. Отказ возвращает алерт
// в pending и перезапускает автоназначение с короткой задержкой.
func (s *alertService) RespondToAssignment(ctx context.Context, actor models.Actor, responderID, alertID uuid.UUID, decision models.AssignmentDecision) (*models.Alert, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":      "alert",
		"method":       "RespondToAssignment",
		"alert_id":     alertID,
		"responder_id": responderID,
		"actor_id":     actor.ID,
		"decision":     decision,
	})
	log.Info("Processing responder decision")

	responder, err := s.responders.GetResponder(ctx, responderID)
	if err != nil {
		log.WithError(err).Warn("Failed to load responder for decision")
		return nil, fmt.Errorf("service: could not respond to assignment: %w", err)
	}
	if responder.UserID != actor.ID {
		log.WithField("owner_id", responder.UserID).Warn("Actor does not own the responder record")
		return nil, fmt.Errorf("service: could not respond to assignment: %w", models.ErrForbidden)
	}

	requested, action := models.StatusAccepted, models.ActionAccepted
	if decision == models.DecisionDecline {
		requested, action = models.StatusDeclined, models.ActionDeclined
	}

	current, err := s.load(ctx, alertID)
	if err != nil {
		log.WithError(err).Warn("Failed to load alert for responder decision")
		return nil, fmt.Errorf("service: could not respond to assignment: %w", err)
	}

	if current.Status != models.StatusAssigned {
		err := &models.InvalidTransitionError{From: current.Status, To: requested}
		log.WithError(err).Warn("Alert is not awaiting a responder decision")
		return nil, fmt.Errorf("service: could not respond to assignment: %w", err)
	}
	if current.AssignedTo == nil || *current.AssignedTo != responderID {
		log.Warn("Responder is not the assignee")
		return nil, fmt.Errorf("service: could not respond to assignment: %w", models.ErrNotAssignee)
	}

	updated, err := s.apply(ctx, current, requested, nil, nil, action)
	if err != nil {
		log.WithError(err).Warn("Responder decision rejected")
		return nil, fmt.Errorf("service: could not respond to assignment: %w", err)
	}

	log.WithField("status", updated.Status).Info("Responder decision applied")
	return updated, nil
}

// HandleSwept вызывается периодической очисткой для удаленных алертов
func (s *alertService) HandleSwept(ctx context.Context, reason string, ids []uuid.UUID) {
	now := s.now()
	for _, id := range ids {
		s.mirrorRemove(id)
		s.notifier.Broadcast(ctx, models.NewDeletedEvent(models.ActionAutoDeleted, id, now))
	}
	s.logger.WithFields(logrus.Fields{
		"service": "alert",
		"method":  "HandleSwept",
		"reason":  reason,
		"count":   len(ids),
	}).Info("Swept alerts removed")
}

// apply проверяет переход по таблице, выполняет побочные эффекты статуса,
// сохраняет результат сравнением с обменом и рассылает событие.
func (s *alertService) apply(
	ctx context.Context,
	current *models.Alert,
	requested models.AlertStatus,
	responderID *uuid.UUID,
	note *string,
	action string,
) (*models.Alert, error) {
	if !models.CanTransition(current.Status, requested) {
		return nil, &models.InvalidTransitionError{From: current.Status, To: requested}
	}

	now := s.now().UTC()
	target := requested.Resolve()

	next := current.Clone()
	next.Status = target
	next.UpdatedAt = now
	if note != nil {
		next.Note = *note
	}

	switch target {
	case models.StatusAssigned:
		if responderID == nil {
			return nil, models.ErrResponderRequired
		}
		next.AssignedTo = cloneID(responderID)
	case models.StatusInProgress:
		if next.AssignedTo == nil {
			if responderID == nil {
				return nil, models.ErrResponderRequired
			}
			next.AssignedTo = cloneID(responderID)
		}
	case models.StatusPending:
		next.AssignedTo = nil
	case models.StatusResolved:
		next.AssignedTo = nil
		next.ResolvedAt = &now
		next.AutoDeleteAt = timePtr(now.Add(s.cfg.ResolvedRetention))
	case models.StatusDone:
		next.AssignedTo = nil
		next.MarkedDoneAt = &now
		next.AutoDeleteAt = timePtr(now.Add(s.cfg.DoneDeleteDelay))
	case models.StatusCancelled:
		next.AssignedTo = nil
		next.AutoDeleteAt = timePtr(now.Add(s.cfg.DoneDeleteDelay))
	}

	if err := s.repo.UpdateStatus(ctx, next, current.Status); err != nil {
		return nil, err
	}
	s.mirrorPut(next)
	s.metrics.Transition(string(current.Status), string(target))

	if target.Terminal() && next.AutoDeleteAt != nil {
		s.scheduler.Schedule(next.AutoDeleteAt.Sub(now), next.ID, taskAutoDelete, s.autoDelete(target))
	}
	if requested == models.StatusDeclined {
		s.scheduler.Schedule(s.cfg.ReassignDelay, next.ID, taskAutoAssign, s.autoAssign)
	}

	s.notifier.Broadcast(ctx, models.NewAlertEvent(action, next, now))
	return next.Clone(), nil
}

// autoAssign срабатывает по таймеру. Состояние перечитывается: если алерт уже
// не pending или кандидатов нет, ничего не происходит и повтора нет.
func (s *alertService) autoAssign(ctx context.Context, alertID uuid.UUID) {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "alert",
		"method":   "autoAssign",
		"alert_id": alertID,
	})

	alert, err := s.load(ctx, alertID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.metrics.AutoAssign("skipped")
			return
		}
		log.WithError(err).Error("Failed to load alert for auto-assign")
		s.metrics.AutoAssign("error")
		return
	}
	if !alert.Status.Open() {
		log.WithField("status", alert.Status).Debug("Alert no longer eligible for auto-assign")
		s.metrics.AutoAssign("skipped")
		return
	}

	pool, err := s.responders.AvailableNear(ctx, alert.Location, s.cfg.CandidatePoolSize)
	if err != nil {
		log.WithError(err).Error("Failed to gather candidate responders")
		s.metrics.AutoAssign("error")
		return
	}

	selection, ok := s.selector.Select(ctx, alert.Location, pool)
	if !ok {
		log.WithField("pool_size", len(pool)).Info("No responder available for auto-assign")
		s.metrics.AutoAssign("no_candidate")
		return
	}

	responderID := selection.Responder.ID
	if _, err := s.apply(ctx, alert, models.StatusAssigned, &responderID, nil, models.ActionAssigned); err != nil {
		if errors.Is(err, models.ErrStatusConflict) || errors.Is(err, models.ErrNotFound) {
			log.WithError(err).Debug("Alert changed before auto-assign could persist")
			s.metrics.AutoAssign("conflict")
			return
		}
		log.WithError(err).Error("Failed to auto-assign alert")
		s.metrics.AutoAssign("error")
		return
	}

	log.WithFields(logrus.Fields{
		"responder_id": responderID,
		"eta_seconds":  selection.ETASeconds,
		"by_distance":  selection.ByDistance(),
	}).Info("Alert auto-assigned")
	s.metrics.AutoAssign("assigned")
}

// autoDelete удаляет алерт, только если он все еще в статусе, который запланировал удаление
func (s *alertService) autoDelete(status models.AlertStatus) dispatch.Action {
	return func(ctx context.Context, alertID uuid.UUID) {
		log := s.logger.WithFields(logrus.Fields{
			"service":  "alert",
			"method":   "autoDelete",
			"alert_id": alertID,
			"status":   status,
		})

		deleted, err := s.repo.DeleteIfStatus(ctx, alertID, status)
		if err != nil {
			log.WithError(err).Error("Failed to auto-delete alert")
			return
		}
		if !deleted {
			log.Debug("Alert already removed or changed, auto-delete skipped")
			return
		}
		s.mirrorRemove(alertID)

		s.notifier.Broadcast(ctx, models.NewDeletedEvent(models.ActionAutoDeleted, alertID, s.now()))
		log.Info("Alert auto-deleted")
	}
}

// load читает алерт из хранилища, при его недоступности из зеркала
func (s *alertService) load(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	alert, err := s.repo.GetByID(ctx, id)
	if err != nil && errors.Is(err, models.ErrStorageUnavailable) && s.mirror != nil {
		s.logger.WithField("alert_id", id).WithError(err).Warn("Storage unavailable, reading alert from memory mirror")
		return s.mirror.GetByID(ctx, id)
	}
	return alert, err
}

func (s *alertService) mirrorPut(alert *models.Alert) {
	if s.mirror != nil {
		s.mirror.Put(alert)
	}
}

func (s *alertService) mirrorRemove(id uuid.UUID) {
	if s.mirror != nil {
		s.mirror.Remove(id)
	}
}

func cloneID(id *uuid.UUID) *uuid.UUID {
	v := *id
	return &v
}

func timePtr(t time.Time) *time.Time {
	return &t
}
