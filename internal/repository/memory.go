package repository

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/DevanshVerma21/SafeNow/internal/eta"
	"github.com/DevanshVerma21/SafeNow/internal/models"
	"github.com/google/uuid"
)

// MemoryAlertStore хранилище алертов в памяти процесса. Используется, когда база
// не настроена, и как зеркало для чтения при недоступной базе.
// Наружу всегда отдаются копии.
type MemoryAlertStore struct {
	mu     sync.RWMutex
	alerts map[uuid.UUID]*models.Alert
}

func NewMemoryAlertStore() *MemoryAlertStore {
	return &MemoryAlertStore{alerts: make(map[uuid.UUID]*models.Alert)}
}

func (s *MemoryAlertStore) Create(ctx context.Context, alert *models.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.alerts[alert.ID]; ok {
		return fmt.Errorf("repository: alert %s already exists", alert.ID)
	}
	s.alerts[alert.ID] = alert.Clone()
	return nil
}

func (s *MemoryAlertStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alert, ok := s.alerts[id]
	if !ok {
		return nil, fmt.Errorf("repository: alert %s: %w", id, models.ErrNotFound)
	}
	return alert.Clone(), nil
}

func (s *MemoryAlertStore) List(ctx context.Context, filter models.AlertFilter, now time.Time) ([]*models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alerts := make([]*models.Alert, 0, len(s.alerts))
	for _, a := range s.alerts {
		if a.Expired(now) {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, a.Status) {
			continue
		}
		alerts = append(alerts, a.Clone())
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].CreatedAt.After(alerts[j].CreatedAt)
	})

	if limit := listLimit(filter.Limit); len(alerts) > limit {
		alerts = alerts[:limit]
	}
	return alerts, nil
}

// UpdateStatus сравнение с обменом по статусу, как и у хранилища в PostgreSQL
func (s *MemoryAlertStore) UpdateStatus(ctx context.Context, alert *models.Alert, expected models.AlertStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.alerts[alert.ID]
	if !ok {
		return fmt.Errorf("repository: alert %s: %w", alert.ID, models.ErrNotFound)
	}
	if current.Status != expected {
		return fmt.Errorf("repository: alert %s is no longer %s: %w", alert.ID, expected, models.ErrStatusConflict)
	}

	// Меняются только поля жизненного цикла, остальное берется из хранилища
	updated := alert.Clone()
	updated.UserID = current.UserID
	updated.Type = current.Type
	updated.Location = current.Location
	updated.Severity = current.Severity
	updated.Attachments = current.Attachments
	updated.CreatedAt = current.CreatedAt

	s.alerts[alert.ID] = updated
	*alert = *updated.Clone()
	return nil
}

func (s *MemoryAlertStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.alerts[id]; !ok {
		return fmt.Errorf("repository: alert %s: %w", id, models.ErrNotFound)
	}
	delete(s.alerts, id)
	return nil
}

func (s *MemoryAlertStore) DeleteIfStatus(ctx context.Context, id uuid.UUID, status models.AlertStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.alerts[id]
	if !ok || a.Status != status {
		return false, nil
	}
	delete(s.alerts, id)
	return true, nil
}

func (s *MemoryAlertStore) DeleteExpired(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	return s.deleteWhere(func(a *models.Alert) bool { return a.Expired(now) }), nil
}

func (s *MemoryAlertStore) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	return s.deleteWhere(func(a *models.Alert) bool {
		if a.Status != models.StatusResolved && a.Status != models.StatusDone {
			return false
		}
		finished := a.UpdatedAt
		switch {
		case a.ResolvedAt != nil:
			finished = *a.ResolvedAt
		case a.MarkedDoneAt != nil:
			finished = *a.MarkedDoneAt
		}
		return finished.Before(cutoff)
	}), nil
}

func (s *MemoryAlertStore) deleteWhere(match func(*models.Alert) bool) []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []uuid.UUID
	for id, a := range s.alerts {
		if match(a) {
			delete(s.alerts, id)
			ids = append(ids, id)
		}
	}
	return ids
}

// Put записывает снимок алерта как есть (зеркалирование)
func (s *MemoryAlertStore) Put(alert *models.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts[alert.ID] = alert.Clone()
}

// Remove убирает алерт из зеркала
func (s *MemoryAlertStore) Remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.alerts, id)
}

// MemoryResponderStore хранилище исполнителей в памяти процесса
type MemoryResponderStore struct {
	mu         sync.RWMutex
	responders map[uuid.UUID]*models.Responder
}

func NewMemoryResponderStore() *MemoryResponderStore {
	return &MemoryResponderStore{responders: make(map[uuid.UUID]*models.Responder)}
}

func (s *MemoryResponderStore) Upsert(ctx context.Context, responder *models.Responder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, r := range s.responders {
		if id != responder.ID && r.UserID == responder.UserID {
			return fmt.Errorf("repository: responder for user %s: %w", responder.UserID, models.ErrResponderConflict)
		}
	}

	saved := responder.Clone()
	if existing, ok := s.responders[responder.ID]; ok {
		if existing.UserID != responder.UserID {
			return fmt.Errorf("repository: responder %s: %w", responder.ID, models.ErrForbidden)
		}
		saved.CreatedAt = existing.CreatedAt
		if saved.LastLocation == nil && existing.LastLocation != nil {
			loc := *existing.LastLocation
			saved.LastLocation = &loc
		}
	} else if saved.CreatedAt.IsZero() {
		saved.CreatedAt = saved.LastHeartbeat
	}
	if saved.UpdatedAt.IsZero() {
		saved.UpdatedAt = saved.LastHeartbeat
	}

	s.responders[responder.ID] = saved
	*responder = *saved.Clone()
	return nil
}

func (s *MemoryResponderStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Responder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.responders[id]
	if !ok {
		return nil, fmt.Errorf("repository: responder %s: %w", id, models.ErrNotFound)
	}
	return r.Clone(), nil
}

func (s *MemoryResponderStore) GetByUserID(ctx context.Context, userID string) (*models.Responder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.responders {
		if r.UserID == userID {
			return r.Clone(), nil
		}
	}
	return nil, fmt.Errorf("repository: responder for user %s: %w", userID, models.ErrNotFound)
}

func (s *MemoryResponderStore) ListAvailable(ctx context.Context, near models.Location, limit int) ([]*models.Responder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type candidate struct {
		r *models.Responder
		d float64
	}
	candidates := make([]candidate, 0, len(s.responders))
	for _, r := range s.responders {
		if r.Status != models.ResponderAvailable || r.LastLocation == nil {
			continue
		}
		candidates = append(candidates, candidate{r: r.Clone(), d: eta.Haversine(*r.LastLocation, near)})
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].d < candidates[j].d })

	limit = listLimit(limit)
	out := make([]*models.Responder, 0, min(limit, len(candidates)))
	for i := 0; i < len(candidates) && i < limit; i++ {
		out = append(out, candidates[i].r)
	}
	return out, nil
}
