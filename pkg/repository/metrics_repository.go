package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kestrel-nms/netmon/pkg/models"
)

// MetricsRepository appends time-series rows for interface observations
// (in one batch) and health observations, and upserts the per-device
// inventory row.
type MetricsRepository struct {
	pool *pgxpool.Pool
}

func NewMetricsRepository(pool *pgxpool.Pool) *MetricsRepository {
	return &MetricsRepository{pool: pool}
}

// SaveInterfaceMetrics appends one row per metric in a single batch.
func (r *MetricsRepository) SaveInterfaceMetrics(ctx context.Context, metrics []models.InterfaceMetric) error {
	if len(metrics) == 0 {
		return nil
	}

	batch := &pgx.Batch{}

	for _, m := range metrics {
		batch.Queue(`INSERT INTO interface_metrics
			(device_id, interface_index, interface_name, admin_status, oper_status, speed, in_octets, out_octets, in_errors, out_errors, mtu, collected_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			m.DeviceID, m.InterfaceIndex, m.InterfaceName, string(m.AdminStatus), string(m.OperStatus),
			m.Speed, m.InOctets, m.OutOctets, m.InErrors, m.OutErrors, m.MTU, m.Timestamp)

		batch.Queue(`INSERT INTO interfaces (device_id, name, status, in_octets, out_octets, last_updated)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (device_id, name) DO UPDATE SET
				status = EXCLUDED.status,
				in_octets = EXCLUDED.in_octets,
				out_octets = EXCLUDED.out_octets,
				last_updated = EXCLUDED.last_updated`,
			m.DeviceID, m.InterfaceName, string(m.OperStatus), m.InOctets, m.OutOctets, m.Timestamp)
	}

	return r.runBatch(ctx, batch, batch.Len())
}

// SaveHealthMetrics appends one device_health_metrics row.
func (r *MetricsRepository) SaveHealthMetrics(ctx context.Context, m models.DeviceHealthMetric) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO device_health_metrics
		(device_id, uptime_seconds, cpu_usage, memory_usage, temperature, collected_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		m.DeviceID, m.UptimeSeconds, m.CPUUsage, m.MemoryUsage, m.Temperature, m.Timestamp)
	if err != nil {
		return fmt.Errorf("repository: save health metrics: %w", err)
	}

	return nil
}

// SaveInventory upserts the single device_inventory row for a device.
func (r *MetricsRepository) SaveInventory(ctx context.Context, inv models.DeviceInventory) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO device_inventory
		(device_id, sys_descr, serial_number, firmware_version, vendor, model, collected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (device_id) DO UPDATE SET
			sys_descr = EXCLUDED.sys_descr,
			serial_number = COALESCE(NULLIF(EXCLUDED.serial_number, ''), device_inventory.serial_number),
			firmware_version = COALESCE(NULLIF(EXCLUDED.firmware_version, ''), device_inventory.firmware_version),
			vendor = EXCLUDED.vendor,
			model = COALESCE(NULLIF(EXCLUDED.model, ''), device_inventory.model),
			collected_at = EXCLUDED.collected_at`,
		inv.DeviceID, inv.SysDescr, inv.SerialNumber, inv.FirmwareVersion, inv.Vendor, inv.Model, inv.Timestamp)
	if err != nil {
		return fmt.Errorf("repository: save inventory: %w", err)
	}

	return nil
}

// GetLatestHealth returns device_health_metrics rows from the last
// `hours` hours for a device, for UI queries.
func (r *MetricsRepository) GetLatestHealth(ctx context.Context, deviceID int64, hours int) ([]models.DeviceHealthMetric, error) {
	if hours <= 0 {
		hours = 24
	}

	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)

	rows, err := r.pool.Query(ctx, `SELECT device_id, uptime_seconds, cpu_usage, memory_usage, temperature, collected_at
		FROM device_health_metrics WHERE device_id = $1 AND collected_at >= $2 ORDER BY collected_at DESC`, deviceID, since)
	if err != nil {
		return nil, fmt.Errorf("repository: get latest health: %w", err)
	}
	defer rows.Close()

	var out []models.DeviceHealthMetric

	for rows.Next() {
		var m models.DeviceHealthMetric

		if err := rows.Scan(&m.DeviceID, &m.UptimeSeconds, &m.CPUUsage, &m.MemoryUsage, &m.Temperature, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("repository: scan health metric: %w", err)
		}

		out = append(out, m)
	}

	return out, rows.Err()
}

func (r *MetricsRepository) runBatch(ctx context.Context, batch *pgx.Batch, count int) error {
	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < count; i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("repository: batch insert: %w", err)
		}
	}

	return nil
}
