package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kestrel-nms/netmon/pkg/models"
)

// AlarmRepository is the narrow CRUD surface over the alarms table.
// On failure, Create propagates an error so the Orchestrator can skip
// mirroring to the upstream API; every other mutator returns false.
type AlarmRepository struct {
	pool *pgxpool.Pool
}

func NewAlarmRepository(pool *pgxpool.Pool) *AlarmRepository {
	return &AlarmRepository{pool: pool}
}

func (r *AlarmRepository) Create(ctx context.Context, a models.Alarm) (models.Alarm, error) {
	metadata, err := json.Marshal(a.Metadata)
	if err != nil {
		metadata = []byte("{}")
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO alarms (device_id, device_name, type, severity, message, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		a.DeviceID, a.DeviceName, string(a.Type), string(a.Severity), a.Message, metadata, a.CreatedAt)

	var id int64
	if err := row.Scan(&id); err != nil {
		return models.Alarm{}, fmt.Errorf("repository: create alarm: %w", err)
	}

	a.ID = &id

	return a, nil
}

func (r *AlarmRepository) GetByID(ctx context.Context, id int64) (models.Alarm, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, device_id, device_name, type, severity, message, acknowledged,
		acknowledged_at, acknowledged_by, resolved, resolved_at, metadata, created_at FROM alarms WHERE id = $1`, id)

	return scanAlarm(row)
}

// GetActive returns unresolved alarms, newest-first, optionally filtered
// by device and/or severity.
func (r *AlarmRepository) GetActive(ctx context.Context, deviceID *int64, severity *models.AlarmSeverity, limit int) ([]models.Alarm, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, device_id, device_name, type, severity, message, acknowledged,
		acknowledged_at, acknowledged_by, resolved, resolved_at, metadata, created_at
		FROM alarms WHERE resolved = false`
	args := []interface{}{}
	i := 1

	if deviceID != nil {
		i++
		query += fmt.Sprintf(" AND device_id = $%d", i-1)
		args = append(args, *deviceID)
	}

	if severity != nil {
		i++
		query += fmt.Sprintf(" AND severity = $%d", i-1)
		args = append(args, string(*severity))
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", i)
	args = append(args, limit)

	return r.queryAlarms(ctx, query, args...)
}

// GetRecent returns alarms from the last `days` days, optionally
// filtered by device, newest-first.
func (r *AlarmRepository) GetRecent(ctx context.Context, days int, deviceID *int64, limit int) ([]models.Alarm, error) {
	if days <= 0 {
		days = 7
	}

	if limit <= 0 {
		limit = 500
	}

	since := time.Now().UTC().AddDate(0, 0, -days)

	query := `SELECT id, device_id, device_name, type, severity, message, acknowledged,
		acknowledged_at, acknowledged_by, resolved, resolved_at, metadata, created_at
		FROM alarms WHERE created_at >= $1`
	args := []interface{}{since}

	if deviceID != nil {
		query += " AND device_id = $2"
		args = append(args, *deviceID)
		query += " ORDER BY created_at DESC LIMIT $3"
	} else {
		query += " ORDER BY created_at DESC LIMIT $2"
	}

	args = append(args, limit)

	return r.queryAlarms(ctx, query, args...)
}

func (r *AlarmRepository) GetActiveByType(ctx context.Context, alarmType models.AlarmType) ([]models.Alarm, error) {
	return r.queryAlarms(ctx, `SELECT id, device_id, device_name, type, severity, message, acknowledged,
		acknowledged_at, acknowledged_by, resolved, resolved_at, metadata, created_at
		FROM alarms WHERE resolved = false AND type = $1 ORDER BY created_at DESC`, string(alarmType))
}

func (r *AlarmRepository) Acknowledge(ctx context.Context, alarmID int64, actor string) bool {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `UPDATE alarms SET acknowledged = true, acknowledged_at = $1, acknowledged_by = $2 WHERE id = $3`,
		now, actor, alarmID)

	return err == nil
}

func (r *AlarmRepository) Resolve(ctx context.Context, alarmID int64) bool {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `UPDATE alarms SET resolved = true, resolved_at = $1 WHERE id = $2`, now, alarmID)

	return err == nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAlarm(row rowScanner) (models.Alarm, error) {
	var a models.Alarm
	var alarmType, severity string
	var metadata []byte

	err := row.Scan(&a.ID, &a.DeviceID, &a.DeviceName, &alarmType, &severity, &a.Message, &a.Acknowledged,
		&a.AcknowledgedAt, &a.AcknowledgedBy, &a.Resolved, &a.ResolvedAt, &metadata, &a.CreatedAt)
	if err != nil {
		return models.Alarm{}, fmt.Errorf("repository: scan alarm: %w", err)
	}

	a.Type = models.AlarmType(alarmType)
	a.Severity = models.AlarmSeverity(severity)

	if len(metadata) > 0 {
		_ = json.Unmarshal(metadata, &a.Metadata)
	}

	return a, nil
}

func (r *AlarmRepository) queryAlarms(ctx context.Context, query string, args ...interface{}) ([]models.Alarm, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: query alarms: %w", err)
	}
	defer rows.Close()

	var out []models.Alarm

	for rows.Next() {
		a, err := scanAlarm(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, a)
	}

	return out, rows.Err()
}
