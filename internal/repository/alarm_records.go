// Package repository archives alarms in PostgreSQL.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/August1314/nicehouse/internal/models"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// ErrAlarmNotFound no archived alarm with that id.
var ErrAlarmNotFound = errors.New("archived alarm not found")

const schema = `
CREATE TABLE IF NOT EXISTS alarm_records (
	alarm_id     TEXT PRIMARY KEY,
	alarm_type   TEXT NOT NULL,
	alarm_level  TEXT NOT NULL,
	room_id      TEXT NOT NULL,
	message      TEXT NOT NULL DEFAULT '',
	triggered_at TIMESTAMPTZ NOT NULL,
	handled      BOOLEAN NOT NULL DEFAULT FALSE,
	handled_at   TIMESTAMPTZ
)`

// AlarmRecordsRepository alarm_records table access.
type AlarmRecordsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAlarmRecordsRepository wraps an open pool.
func NewAlarmRecordsRepository(db *sql.DB, logger *zap.Logger) *AlarmRecordsRepository {
	return &AlarmRecordsRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the table when missing.
func (r *AlarmRecordsRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create alarm_records: %w", err)
	}
	return nil
}

// Create inserts ev; an already archived id is left untouched.
func (r *AlarmRecordsRepository) Create(ctx context.Context, ev models.AlarmEvent) error {
	if ev.ID == "" {
		return fmt.Errorf("alarm_id is required")
	}
	query := `
		INSERT INTO alarm_records (
			alarm_id, alarm_type, alarm_level, room_id, message, triggered_at, handled
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (alarm_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query,
		ev.ID,
		string(ev.Type),
		ev.Level,
		ev.RoomID,
		ev.Message,
		ev.TriggeredAt,
		ev.Handled,
	)
	if err != nil {
		return fmt.Errorf("failed to insert alarm record: %w", err)
	}
	r.logger.Debug("Alarm archived",
		zap.String("alarm_id", ev.ID),
		zap.String("type", string(ev.Type)),
	)
	return nil
}

// MarkHandled sets handled and handled_at.
func (r *AlarmRecordsRepository) MarkHandled(ctx context.Context, alarmID string, at time.Time) error {
	query := `
		UPDATE alarm_records
		SET handled = TRUE, handled_at = $2
		WHERE alarm_id = $1
	`
	res, err := r.db.ExecContext(ctx, query, alarmID, at)
	if err != nil {
		return fmt.Errorf("failed to update alarm record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrAlarmNotFound, alarmID)
	}
	return nil
}

const selectColumns = `alarm_id, alarm_type, alarm_level, room_id, message, triggered_at, handled`

func scanEvents(rows *sql.Rows) ([]models.AlarmEvent, error) {
	var out []models.AlarmEvent
	for rows.Next() {
		var ev models.AlarmEvent
		var alarmType string
		if err := rows.Scan(&ev.ID, &alarmType, &ev.Level, &ev.RoomID, &ev.Message, &ev.TriggeredAt, &ev.Handled); err != nil {
			return nil, fmt.Errorf("failed to scan alarm record: %w", err)
		}
		ev.Type = models.AlarmType(alarmType)
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alarm records: %w", err)
	}
	return out, nil
}

// ListRecent newest archived alarms.
func (r *AlarmRecordsRepository) ListRecent(ctx context.Context, limit int) ([]models.AlarmEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + selectColumns + `
		FROM alarm_records
		ORDER BY triggered_at DESC
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alarm records: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListByTypes newest archived alarms of the given types.
func (r *AlarmRecordsRepository) ListByTypes(ctx context.Context, types []models.AlarmType, limit int) ([]models.AlarmEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	query := `SELECT ` + selectColumns + `
		FROM alarm_records
		WHERE alarm_type = ANY($1)
		ORDER BY triggered_at DESC
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(names), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alarm records by type: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// CountByType alarms per type triggered at or after since.
func (r *AlarmRecordsRepository) CountByType(ctx context.Context, since time.Time) (map[models.AlarmType]int, error) {
	query := `
		SELECT alarm_type, COUNT(*)
		FROM alarm_records
		WHERE triggered_at >= $1
		GROUP BY alarm_type`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count alarm records: %w", err)
	}
	defer rows.Close()

	out := make(map[models.AlarmType]int)
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("failed to scan alarm count: %w", err)
		}
		out[models.AlarmType(t)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alarm counts: %w", err)
	}
	return out, nil
}
