package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/DevanshVerma21/SafeNow/internal/models"
	"github.com/DevanshVerma21/SafeNow/internal/service"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const responderColumns = `
	id,
	user_id,
	responder_type,
	status,
	ST_Y(last_location::geometry) AS latitude,
	ST_X(last_location::geometry) AS longitude,
	last_heartbeat,
	created_at,
	updated_at`

type ResponderRepository struct {
	db *pgxpool.Pool
}

func NewResponderRepository(db *pgxpool.Pool) service.ResponderRepository {
	return &ResponderRepository{db: db}
}

// Upsert создает или обновляет исполнителя по id. Повторный heartbeat с теми же
// данными оставляет одну запись. Владелец записи не меняется: при чужом user_id
// возвращается ErrForbidden, при второй записи того же пользователя ErrResponderConflict.
func (r *ResponderRepository) Upsert(ctx context.Context, responder *models.Responder) error {
	var lng, lat *float64
	if responder.LastLocation != nil {
		lng, lat = &responder.LastLocation.Longitude, &responder.LastLocation.Latitude
	}

	query := `
		INSERT INTO responders (id, user_id, responder_type, status, last_location, last_heartbeat, created_at, updated_at)
		VALUES (
			$1, $2, $3, $4,
			CASE WHEN $5::float8 IS NULL THEN NULL ELSE ST_SetSRID(ST_MakePoint($5, $6), 4326)::geography END,
			$7, $7, $7
		)
		ON CONFLICT (id) DO UPDATE SET
			responder_type = EXCLUDED.responder_type,
			status = EXCLUDED.status,
			last_location = COALESCE(EXCLUDED.last_location, responders.last_location),
			last_heartbeat = EXCLUDED.last_heartbeat,
			updated_at = EXCLUDED.updated_at
		WHERE responders.user_id = EXCLUDED.user_id
		RETURNING ` + responderColumns + `;
	`
	saved, err := scanResponder(r.db.QueryRow(ctx, query,
		responder.ID,
		responder.UserID,
		responder.Type,
		responder.Status,
		lng,
		lat,
		responder.LastHeartbeat,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			// Строка с таким id есть, но принадлежит другому пользователю
			return fmt.Errorf("repository: responder %s: %w", responder.ID, models.ErrForbidden)
		case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation:
			return fmt.Errorf("repository: responder for user %s: %w", responder.UserID, models.ErrResponderConflict)
		}
		return storageError("upsert responder", err)
	}
	*responder = *saved
	return nil
}

func (r *ResponderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Responder, error) {
	query := `SELECT ` + responderColumns + ` FROM responders WHERE id = $1;`
	return r.getOne(ctx, query, id, fmt.Sprintf("responder %s", id))
}

func (r *ResponderRepository) GetByUserID(ctx context.Context, userID string) (*models.Responder, error) {
	query := `SELECT ` + responderColumns + ` FROM responders WHERE user_id = $1;`
	return r.getOne(ctx, query, userID, fmt.Sprintf("responder for user %s", userID))
}

func (r *ResponderRepository) getOne(ctx context.Context, query string, arg any, what string) (*models.Responder, error) {
	responder, err := scanResponder(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("repository: %s: %w", what, models.ErrNotFound)
		}
		return nil, storageError("get responder", err)
	}
	return responder, nil
}

// ListAvailable доступные исполнители с известной позицией, ближайшие к точке первыми
func (r *ResponderRepository) ListAvailable(ctx context.Context, near models.Location, limit int) ([]*models.Responder, error) {
	query := `
		SELECT ` + responderColumns + `
		FROM responders
		WHERE status = 'available' AND last_location IS NOT NULL
		ORDER BY ST_Distance(last_location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography)
		LIMIT $3;
	`
	rows, err := r.db.Query(ctx, query, near.Longitude, near.Latitude, listLimit(limit))
	if err != nil {
		return nil, storageError("list available responders", err)
	}
	defer rows.Close()

	responders := make([]*models.Responder, 0)
	for rows.Next() {
		responder, err := scanResponder(rows)
		if err != nil {
			return nil, storageError("scan responder row", err)
		}
		responders = append(responders, responder)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("responder list iteration", err)
	}
	return responders, nil
}

func scanResponder(row pgx.Row) (*models.Responder, error) {
	responder := &models.Responder{}
	var lat, lng *float64
	err := row.Scan(
		&responder.ID,
		&responder.UserID,
		&responder.Type,
		&responder.Status,
		&lat,
		&lng,
		&responder.LastHeartbeat,
		&responder.CreatedAt,
		&responder.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lat != nil && lng != nil {
		responder.LastLocation = &models.Location{Latitude: *lat, Longitude: *lng}
	}
	return responder, nil
}
