package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DevanshVerma21/SafeNow/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

//go:generate mockgen -source=responder.go -destination=mocks/mock_responder.go -package=mocks

// ResponderRepository определяет контракт хранилища исполнителей
type ResponderRepository interface {
	Upsert(ctx context.Context, responder *models.Responder) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Responder, error)
	GetByUserID(ctx context.Context, userID string) (*models.Responder, error)
	// ListAvailable доступные исполнители с известной позицией, ближайшие первыми
	ListAvailable(ctx context.Context, near models.Location, limit int) ([]*models.Responder, error)
}

// ResponderService присутствие исполнителей и выборка кандидатов
type ResponderService interface {
	RecordHeartbeat(ctx context.Context, actor models.Actor, hb models.Heartbeat) (*models.Responder, error)
	GetResponder(ctx context.Context, id uuid.UUID) (*models.Responder, error)
	AvailableNear(ctx context.Context, near models.Location, limit int) ([]*models.Responder, error)
}

type responderService struct {
	repo   ResponderRepository
	mirror ResponderRepository
	logger *logrus.Logger
	now    func() time.Time
}

// NewResponderService mirror может быть nil, если основное хранилище уже в памяти
func NewResponderService(repo, mirror ResponderRepository, logger *logrus.Logger) ResponderService {
	return &responderService{
		repo:   repo,
		mirror: mirror,
		logger: logger,
		now:    time.Now,
	}
}

// RecordHeartbeat идемпотентный upsert исполнителя. Без responder_id запись ищется
// по user_id, а если ее нет, создается новая. Запись с чужим user_id не меняется.
// Зеркало обновляется всегда, поэтому при недоступной базе исполнитель остается
// виден диспетчеризации.
func (s *responderService) RecordHeartbeat(ctx context.Context, actor models.Actor, hb models.Heartbeat) (*models.Responder, error) {
	// Проверенная личность важнее поля из запроса
	userID := actor.ID
	if userID == "" {
		userID = hb.UserID
	}
	log := s.logger.WithFields(logrus.Fields{
		"service": "responder",
		"method":  "RecordHeartbeat",
		"user_id": userID,
	})

	id, err := s.resolveID(ctx, hb.ResponderID, userID)
	if err != nil {
		log.WithError(err).Warn("Failed to resolve responder id")
		return nil, fmt.Errorf("service: could not record heartbeat: %w", err)
	}

	now := s.now().UTC()
	responder := &models.Responder{
		ID:            id,
		UserID:        userID,
		Type:          hb.Type,
		Status:        hb.Status,
		LastHeartbeat: now,
		UpdatedAt:     now,
	}
	if responder.Type == "" {
		responder.Type = models.ResponderVolunteer
	}
	if responder.Status == "" {
		responder.Status = models.ResponderAvailable
	}
	if hb.Location != nil {
		loc := *hb.Location
		responder.LastLocation = &loc
	}

	if s.mirror != nil {
		mirrored := responder.Clone()
		if err := s.mirror.Upsert(ctx, mirrored); err != nil {
			log.WithError(err).Warn("Failed to mirror responder heartbeat")
		}
	}

	if err := s.repo.Upsert(ctx, responder); err != nil {
		if errors.Is(err, models.ErrStorageUnavailable) && s.mirror != nil {
			log.WithError(err).Warn("Storage unavailable, heartbeat kept in memory mirror only")
			return s.mirror.GetByID(ctx, id)
		}
		log.WithError(err).Error("Failed to upsert responder")
		return nil, fmt.Errorf("service: could not record heartbeat: %w", err)
	}

	log.WithFields(logrus.Fields{"responder_id": responder.ID, "status": responder.Status}).Debug("Heartbeat recorded")
	return responder, nil
}

// resolveID выбирает id записи, которую обновит heartbeat. Переданный id должен
// принадлежать тому же пользователю; новый id допустим, только если у пользователя
// еще нет записи.
func (s *responderService) resolveID(ctx context.Context, requested *uuid.UUID, userID string) (uuid.UUID, error) {
	existing, err := s.withFallback(ctx, func(repo ResponderRepository) (*models.Responder, error) {
		return repo.GetByUserID(ctx, userID)
	})
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return uuid.Nil, err
	}
	owned := err == nil

	if requested == nil || *requested == uuid.Nil {
		if owned {
			return existing.ID, nil
		}
		return uuid.New(), nil
	}

	if owned {
		if existing.ID != *requested {
			return uuid.Nil, models.ErrResponderConflict
		}
		return existing.ID, nil
	}

	other, err := s.withFallback(ctx, func(repo ResponderRepository) (*models.Responder, error) {
		return repo.GetByID(ctx, *requested)
	})
	switch {
	case err == nil && other.UserID != userID:
		return uuid.Nil, models.ErrForbidden
	case err == nil, errors.Is(err, models.ErrNotFound):
		return *requested, nil
	default:
		return uuid.Nil, err
	}
}

// GetResponder при недоступном хранилище читает из зеркала
func (s *responderService) GetResponder(ctx context.Context, id uuid.UUID) (*models.Responder, error) {
	responder, err := s.withFallback(ctx, func(repo ResponderRepository) (*models.Responder, error) {
		return repo.GetByID(ctx, id)
	})
	if err != nil {
		return nil, fmt.Errorf("service: could not get responder: %w", err)
	}
	return responder, nil
}

// AvailableNear пул кандидатов для автоназначения
func (s *responderService) AvailableNear(ctx context.Context, near models.Location, limit int) ([]*models.Responder, error) {
	responders, err := s.repo.ListAvailable(ctx, near, limit)
	if err != nil && errors.Is(err, models.ErrStorageUnavailable) && s.mirror != nil {
		s.logger.WithError(err).Warn("Storage unavailable, listing responders from memory mirror")
		responders, err = s.mirror.ListAvailable(ctx, near, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("service: could not list available responders: %w", err)
	}
	return responders, nil
}

func (s *responderService) withFallback(ctx context.Context, get func(ResponderRepository) (*models.Responder, error)) (*models.Responder, error) {
	responder, err := get(s.repo)
	if err != nil && errors.Is(err, models.ErrStorageUnavailable) && s.mirror != nil {
		s.logger.WithError(err).Warn("Storage unavailable, reading responder from memory mirror")
		return get(s.mirror)
	}
	return responder, err
}
