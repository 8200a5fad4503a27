package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DevanshVerma21/SafeNow/internal/models"
	"github.com/DevanshVerma21/SafeNow/internal/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const alertColumns = `
	id,
	user_id,
	type,
	note,
	ST_Y(location::geometry) AS latitude,
	ST_X(location::geometry) AS longitude,
	accuracy,
	address,
	severity,
	attachments,
	status,
	assigned_to,
	created_at,
	updated_at,
	resolved_at,
	marked_done_at,
	auto_delete_at`

type AlertRepository struct {
	db *pgxpool.Pool
}

func NewAlertRepository(db *pgxpool.Pool) service.AlertRepository {
	return &AlertRepository{db: db}
}

// Create сохраняет новый алерт. ID и временные метки задает сервис.
func (r *AlertRepository) Create(ctx context.Context, alert *models.Alert) error {
	query := `
		INSERT INTO alerts (id, user_id, type, note, location, accuracy, address, severity, attachments,
			status, assigned_to, created_at, updated_at)
		VALUES ($1, $2, $3, $4, ST_SetSRID(ST_MakePoint($5, $6), 4326), $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err := r.db.Exec(ctx, query,
		alert.ID,
		alert.UserID,
		alert.Type,
		alert.Note,
		alert.Location.Longitude,
		alert.Location.Latitude,
		alert.Location.Accuracy,
		alert.Location.Address,
		alert.Severity,
		attachmentsOrEmpty(alert.Attachments),
		alert.Status,
		alert.AssignedTo,
		alert.CreatedAt,
		alert.UpdatedAt,
	)
	if err != nil {
		return storageError("create alert", err)
	}
	return nil
}

// GetByID возвращает алерт по UUID
func (r *AlertRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1;`

	alert, err := scanAlert(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("repository: alert %s: %w", id, models.ErrNotFound)
		}
		return nil, storageError("get alert by id", err)
	}
	return alert, nil
}

// List возвращает алерты по фильтру, новые первыми. Алерты с наступившим
// auto_delete_at не возвращаются, даже если очистка их еще не удалила.
func (r *AlertRepository) List(ctx context.Context, filter models.AlertFilter, now time.Time) ([]*models.Alert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE (auto_delete_at IS NULL OR auto_delete_at > $1)
			AND ($2::text[] IS NULL OR status = ANY($2))
		ORDER BY created_at DESC
		LIMIT $3;
	`
	var statuses []string
	for _, s := range filter.Statuses {
		statuses = append(statuses, string(s))
	}

	rows, err := r.db.Query(ctx, query, now, statuses, listLimit(filter.Limit))
	if err != nil {
		return nil, storageError("list alerts", err)
	}
	defer rows.Close()

	alerts := make([]*models.Alert, 0)
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, storageError("scan alert row", err)
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("alert list iteration", err)
	}
	return alerts, nil
}

// UpdateStatus сравнение с обменом: изменяемые поля алерта записываются, только если
// текущий статус в базе равен expected. При успехе alert заполняется сохраненной строкой.
// Если статус уже другой, возвращается ErrStatusConflict.
func (r *AlertRepository) UpdateStatus(ctx context.Context, alert *models.Alert, expected models.AlertStatus) error {
	query := `
		UPDATE alerts SET
			status = $2,
			assigned_to = $3,
			note = $4,
			updated_at = $5,
			resolved_at = $6,
			marked_done_at = $7,
			auto_delete_at = $8
		WHERE id = $1 AND status = $9
		RETURNING ` + alertColumns + `;
	`
	saved, err := scanAlert(r.db.QueryRow(ctx, query,
		alert.ID,
		alert.Status,
		alert.AssignedTo,
		alert.Note,
		alert.UpdatedAt,
		alert.ResolvedAt,
		alert.MarkedDoneAt,
		alert.AutoDeleteAt,
		expected,
	))
	if err == nil {
		*alert = *saved
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return storageError("update alert status", err)
	}

	// Строка не обновилась: либо алерта нет, либо статус уже сменил кто-то другой
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM alerts WHERE id = $1);`, alert.ID).Scan(&exists); err != nil {
		return storageError("check alert existence", err)
	}
	if !exists {
		return fmt.Errorf("repository: alert %s: %w", alert.ID, models.ErrNotFound)
	}
	return fmt.Errorf("repository: alert %s is no longer %s: %w", alert.ID, expected, models.ErrStatusConflict)
}

// Delete удаляет алерт безусловно
func (r *AlertRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM alerts WHERE id = $1;`, id)
	if err != nil {
		return storageError("delete alert", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("repository: alert %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// DeleteIfStatus удаляет алерт, только если он все еще в указанном статусе
func (r *AlertRepository) DeleteIfStatus(ctx context.Context, id uuid.UUID, status models.AlertStatus) (bool, error) {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM alerts WHERE id = $1 AND status = $2;`, id, status)
	if err != nil {
		return false, storageError("conditional delete alert", err)
	}
	return cmdTag.RowsAffected() > 0, nil
}

func (r *AlertRepository) DeleteExpired(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	query := `
		DELETE FROM alerts
		WHERE auto_delete_at IS NOT NULL AND auto_delete_at <= $1
		RETURNING id;
	`
	return r.deleteReturning(ctx, "delete expired alerts", query, now)
}

func (r *AlertRepository) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	query := `
		DELETE FROM alerts
		WHERE status IN ('resolved', 'done')
			AND COALESCE(resolved_at, marked_done_at, updated_at) < $1
		RETURNING id;
	`
	return r.deleteReturning(ctx, "delete alerts past retention", query, cutoff)
}

func (r *AlertRepository) deleteReturning(ctx context.Context, op, query string, arg time.Time) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, storageError(op, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, storageError(op, err)
	}
	return ids, nil
}

func scanAlert(row pgx.Row) (*models.Alert, error) {
	alert := &models.Alert{}
	err := row.Scan(
		&alert.ID,
		&alert.UserID,
		&alert.Type,
		&alert.Note,
		&alert.Location.Latitude,
		&alert.Location.Longitude,
		&alert.Location.Accuracy,
		&alert.Location.Address,
		&alert.Severity,
		&alert.Attachments,
		&alert.Status,
		&alert.AssignedTo,
		&alert.CreatedAt,
		&alert.UpdatedAt,
		&alert.ResolvedAt,
		&alert.MarkedDoneAt,
		&alert.AutoDeleteAt,
	)
	if err != nil {
		return nil, err
	}
	if len(alert.Attachments) == 0 {
		alert.Attachments = nil
	}
	return alert, nil
}

func attachmentsOrEmpty(a []string) []string {
	if a == nil {
		return []string{}
	}
	return a
}
