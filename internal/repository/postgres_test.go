package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/DevanshVerma21/SafeNow/internal/models"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostGIS поднимает одноразовый PostGIS и применяет миграции
func startPostGIS(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if os.Getenv("DOCKER_AVAILABLE") != "true" && os.Getenv("DOCKER_AVAILABLE") != "1" {
		t.Skip("docker not available")
	}
	ctx := context.Background()

	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgis/postgis:16-3.4",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "safenow",
				"POSTGRES_PASSWORD": "safenow",
				"POSTGRES_DB":       "safenow",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	dsn := fmt.Sprintf("safenow:safenow@%s:%s/safenow?sslmode=disable", host, port.Port())

	m, err := migrate.New("file://../../migrations", "pgx5://"+dsn)
	require.NoError(t, err)
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("failed to run migrations: %v", err)
	}
	m.Close()

	pool, err := pgxpool.New(ctx, "postgres://"+dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestPostgres_AlertUpdateStatusIsCompareAndSet(t *testing.T) {
	pool := startPostGIS(t)
	repo := NewAlertRepository(pool)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	alert := newAlert(models.StatusPending, now)
	require.NoError(t, repo.Create(ctx, alert))

	// Два инстанса одновременно видят pending и назначают разных исполнителей
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []error
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			next := alert.Clone()
			responder := uuid.New()
			next.Status = models.StatusAssigned
			next.AssignedTo = &responder
			next.UpdatedAt = now.Add(time.Second)
			err := repo.UpdateStatus(ctx, next, models.StatusPending)
			mu.Lock()
			results = append(results, err)
			mu.Unlock()
		}()
	}
	wg.Wait()

	var won, lost int
	for _, err := range results {
		switch {
		case err == nil:
			won++
		case errors.Is(err, models.ErrStatusConflict):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, lost)

	stored, err := repo.GetByID(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, stored.Status)
	require.NotNil(t, stored.AssignedTo)

	missing := newAlert(models.StatusAssigned, now)
	assert.ErrorIs(t, repo.UpdateStatus(ctx, missing, models.StatusPending), models.ErrNotFound)
}

func TestPostgres_ResponderUpsertKeepsOwner(t *testing.T) {
	pool := startPostGIS(t)
	repo := NewResponderRepository(pool)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	owned := &models.Responder{
		ID:            uuid.New(),
		UserID:        "responder-A",
		Type:          models.ResponderMedical,
		Status:        models.ResponderAvailable,
		LastLocation:  &models.Location{Latitude: 12.9717, Longitude: 77.5947},
		LastHeartbeat: now,
	}
	require.NoError(t, repo.Upsert(ctx, owned.Clone()))

	// Повторный heartbeat без позиции сохраняет прежнюю
	again := owned.Clone()
	again.LastLocation = nil
	again.LastHeartbeat = now.Add(time.Second)
	require.NoError(t, repo.Upsert(ctx, again))
	require.NotNil(t, again.LastLocation)
	assert.InDelta(t, 12.9717, again.LastLocation.Latitude, 1e-9)

	takeover := owned.Clone()
	takeover.UserID = "intruder-B"
	takeover.Status = models.ResponderOffline
	err := repo.Upsert(ctx, takeover)
	assert.ErrorIs(t, err, models.ErrForbidden)
	assert.NotErrorIs(t, err, models.ErrStorageUnavailable)

	second := &models.Responder{ID: uuid.New(), UserID: "responder-A", Type: models.ResponderMedical, Status: models.ResponderAvailable, LastHeartbeat: now}
	err = repo.Upsert(ctx, second)
	assert.ErrorIs(t, err, models.ErrResponderConflict)
	assert.NotErrorIs(t, err, models.ErrStorageUnavailable)

	stored, err := repo.GetByID(ctx, owned.ID)
	require.NoError(t, err)
	assert.Equal(t, "responder-A", stored.UserID)
	assert.Equal(t, models.ResponderAvailable, stored.Status)

	nearby, err := repo.ListAvailable(ctx, models.Location{Latitude: 12.9716, Longitude: 77.5946}, 5)
	require.NoError(t, err)
	require.Len(t, nearby, 1)
	assert.Equal(t, owned.ID, nearby[0].ID)
}
