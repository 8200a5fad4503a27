package dispatch

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DevanshVerma21/SafeNow/internal/eta"
	"github.com/DevanshVerma21/SafeNow/internal/metrics"
	"github.com/DevanshVerma21/SafeNow/internal/models"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	return logger
}

// tableEstimator отдает заранее заданные секунды по широте исполнителя
type tableEstimator map[float64]int

func (t tableEstimator) Estimate(ctx context.Context, origin, destination models.Location) eta.Result {
	if s, ok := t[origin.Latitude]; ok {
		return eta.Result{Seconds: s, Source: eta.SourceProvider}
	}
	return eta.Result{Err: eta.ErrUnavailable}
}

func responderAt(lat, lng float64) *models.Responder {
	return &models.Responder{
		ID:           uuid.New(),
		Status:       models.ResponderAvailable,
		LastLocation: &models.Location{Latitude: lat, Longitude: lng},
	}
}

var target = models.Location{Latitude: 12.9716, Longitude: 77.5946}

func TestSelector_PicksMinimumETA(t *testing.T) {
	r1, r2, r3 := responderAt(1, 0), responderAt(2, 0), responderAt(3, 0)
	s := NewSelector(tableEstimator{1: 300, 2: 120, 3: 450}, newTestLogger())

	sel, ok := s.Select(context.Background(), target, []*models.Responder{r1, r2, r3})

	require.True(t, ok)
	assert.Equal(t, r2.ID, sel.Responder.ID)
	require.NotNil(t, sel.ETASeconds)
	assert.Equal(t, 120, *sel.ETASeconds)
	assert.False(t, sel.ByDistance())
}

func TestSelector_TieKeepsFirstSeen(t *testing.T) {
	r1, r2 := responderAt(1, 0), responderAt(2, 0)
	s := NewSelector(tableEstimator{1: 60, 2: 60}, newTestLogger())

	sel, ok := s.Select(context.Background(), target, []*models.Responder{r1, r2})

	require.True(t, ok)
	assert.Equal(t, r1.ID, sel.Responder.ID)
}

func TestSelector_FallsBackToDistance(t *testing.T) {
	far := responderAt(13.5, 77.5946)
	near := responderAt(12.9717, 77.5947)
	s := NewSelector(tableEstimator{}, newTestLogger())

	sel, ok := s.Select(context.Background(), target, []*models.Responder{far, near})

	require.True(t, ok)
	assert.Equal(t, near.ID, sel.Responder.ID)
	assert.True(t, sel.ByDistance())
	assert.Nil(t, sel.ETASeconds)
}

func TestSelector_AnyETABeatsDistance(t *testing.T) {
	near := responderAt(12.9717, 77.5947)
	farWithETA := responderAt(14, 77)
	s := NewSelector(tableEstimator{14: 900}, newTestLogger())

	sel, ok := s.Select(context.Background(), target, []*models.Responder{near, farWithETA})

	require.True(t, ok)
	assert.Equal(t, farWithETA.ID, sel.Responder.ID)
}

func TestSelector_EmptyOrLocationlessPool(t *testing.T) {
	s := NewSelector(tableEstimator{}, newTestLogger())

	_, ok := s.Select(context.Background(), target, nil)
	assert.False(t, ok)

	_, ok = s.Select(context.Background(), target, []*models.Responder{{ID: uuid.New()}, nil})
	assert.False(t, ok)
}

func TestScheduler_RunsAfterDelay(t *testing.T) {
	s := NewScheduler(newTestLogger())
	defer s.Stop()

	id := uuid.New()
	got := make(chan uuid.UUID, 1)
	s.Schedule(10*time.Millisecond, id, "test", func(ctx context.Context, alertID uuid.UUID) {
		got <- alertID
	})

	select {
	case v := <-got:
		assert.Equal(t, id, v)
	case <-time.After(time.Second):
		t.Fatal("scheduled action did not run")
	}
	assert.Eventually(t, func() bool { return s.Pending() == 0 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_StopDropsPendingTimers(t *testing.T) {
	s := NewScheduler(newTestLogger())

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		s.Schedule(time.Hour, uuid.New(), "test", func(ctx context.Context, alertID uuid.UUID) {
			ran.Add(1)
		})
	}
	assert.Equal(t, 5, s.Pending())

	s.Stop()
	assert.Equal(t, 0, s.Pending())

	s.Schedule(time.Millisecond, uuid.New(), "after-stop", func(ctx context.Context, alertID uuid.UUID) {
		ran.Add(1)
	})
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), ran.Load())
}

func TestScheduler_RecoversFromPanic(t *testing.T) {
	s := NewScheduler(newTestLogger())
	defer s.Stop()

	done := make(chan struct{})
	s.Schedule(time.Millisecond, uuid.New(), "boom", func(ctx context.Context, alertID uuid.UUID) {
		panic("boom")
	})
	s.Schedule(5*time.Millisecond, uuid.New(), "ok", func(ctx context.Context, alertID uuid.UUID) {
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler stopped working after panic")
	}
}

type fakeExpiryStore struct {
	mu        sync.Mutex
	expired   []uuid.UUID
	stale     []uuid.UUID
	failFirst bool
	gotNow    time.Time
	gotCutoff time.Time
}

func (f *fakeExpiryStore) DeleteExpired(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotNow = now
	if f.failFirst {
		return nil, errors.New("db down")
	}
	ids := f.expired
	f.expired = nil
	return ids, nil
}

func (f *fakeExpiryStore) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotCutoff = cutoff
	ids := f.stale
	f.stale = nil
	return ids, nil
}

func TestSweeper_SweepOnceReportsDeletions(t *testing.T) {
	expired := []uuid.UUID{uuid.New(), uuid.New()}
	stale := []uuid.UUID{uuid.New()}
	store := &fakeExpiryStore{expired: expired, stale: stale}

	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)

	reported := map[string][]uuid.UUID{}
	s := NewSweeper(store, time.Minute, 24*time.Hour, func(ctx context.Context, reason string, ids []uuid.UUID) {
		reported[reason] = append(reported[reason], ids...)
	}, newTestLogger(), m)
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	n := s.SweepOnce(context.Background())

	assert.Equal(t, 3, n)
	assert.Equal(t, expired, reported[SweepReasonExpired])
	assert.Equal(t, stale, reported[SweepReasonRetention])
	assert.Equal(t, now, store.gotNow)
	assert.Equal(t, now.Add(-24*time.Hour), store.gotCutoff)

	assert.Zero(t, s.SweepOnce(context.Background()))
}

func TestSweeper_StorageErrorDoesNotStopRetentionPass(t *testing.T) {
	stale := []uuid.UUID{uuid.New()}
	store := &fakeExpiryStore{stale: stale, failFirst: true}

	var calls int
	s := NewSweeper(store, time.Minute, time.Hour, func(ctx context.Context, reason string, ids []uuid.UUID) {
		calls++
		assert.Equal(t, SweepReasonRetention, reason)
	}, newTestLogger(), nil)

	assert.Equal(t, 1, s.SweepOnce(context.Background()))
	assert.Equal(t, 1, calls)
}

func TestSweeper_StartTicks(t *testing.T) {
	id := uuid.New()
	store := &fakeExpiryStore{expired: []uuid.UUID{id}}

	got := make(chan uuid.UUID, 1)
	s := NewSweeper(store, 10*time.Millisecond, 0, func(ctx context.Context, reason string, ids []uuid.UUID) {
		got <- ids[0]
	}, newTestLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	select {
	case v := <-got:
		assert.Equal(t, id, v)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not tick")
	}
}

func TestSweeper_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	store := &fakeExpiryStore{expired: []uuid.UUID{uuid.New(), uuid.New()}}
	s := NewSweeper(store, time.Minute, 0, nil, newTestLogger(), m)
	s.SweepOnce(context.Background())

	count, err := testutil.GatherAndCount(reg, "safenow_sweep_deleted_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
