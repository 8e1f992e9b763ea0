package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// InitSchema creates every table netmon needs if it does not already
// exist. Safe to call on every startup.
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("repository: applying schema: %w", err)
		}
	}

	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS devices (
		id BIGSERIAL PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		ip_address TEXT NOT NULL,
		vendor TEXT NOT NULL DEFAULT 'generic',
		snmp_version TEXT NOT NULL DEFAULT '2c',
		snmp_port INTEGER NOT NULL DEFAULT 161,
		community_string TEXT,
		polling_enabled BOOLEAN NOT NULL DEFAULT true,
		connection_status TEXT NOT NULL DEFAULT 'unknown',
		last_polled TIMESTAMPTZ,
		last_online TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS alarms (
		id BIGSERIAL PRIMARY KEY,
		device_id BIGINT NOT NULL REFERENCES devices(id),
		device_name TEXT NOT NULL,
		type TEXT NOT NULL,
		severity TEXT NOT NULL,
		message TEXT NOT NULL,
		acknowledged BOOLEAN NOT NULL DEFAULT false,
		acknowledged_at TIMESTAMPTZ,
		acknowledged_by TEXT,
		resolved BOOLEAN NOT NULL DEFAULT false,
		resolved_at TIMESTAMPTZ,
		metadata JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_alarms_device_severity_created
		ON alarms (device_id, severity, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_alarms_status
		ON alarms (resolved, acknowledged)`,
	`CREATE TABLE IF NOT EXISTS interfaces (
		device_id BIGINT NOT NULL REFERENCES devices(id),
		name TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'unknown',
		in_octets BIGINT NOT NULL DEFAULT 0,
		out_octets BIGINT NOT NULL DEFAULT 0,
		last_updated TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (device_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS interface_metrics (
		id BIGSERIAL PRIMARY KEY,
		device_id BIGINT NOT NULL REFERENCES devices(id),
		interface_index INTEGER NOT NULL,
		interface_name TEXT NOT NULL,
		admin_status TEXT NOT NULL,
		oper_status TEXT NOT NULL,
		speed BIGINT NOT NULL DEFAULT 0,
		in_octets BIGINT NOT NULL DEFAULT 0,
		out_octets BIGINT NOT NULL DEFAULT 0,
		in_errors BIGINT,
		out_errors BIGINT,
		mtu INTEGER,
		collected_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_interface_metrics_device_index_time
		ON interface_metrics (device_id, interface_index, collected_at)`,
	`CREATE TABLE IF NOT EXISTS device_health_metrics (
		id BIGSERIAL PRIMARY KEY,
		device_id BIGINT NOT NULL REFERENCES devices(id),
		uptime_seconds BIGINT NOT NULL DEFAULT 0,
		cpu_usage DOUBLE PRECISION,
		memory_usage DOUBLE PRECISION,
		temperature DOUBLE PRECISION,
		collected_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_health_metrics_device_time
		ON device_health_metrics (device_id, collected_at)`,
	`CREATE TABLE IF NOT EXISTS device_inventory (
		device_id BIGINT PRIMARY KEY REFERENCES devices(id),
		sys_descr TEXT NOT NULL,
		serial_number TEXT,
		firmware_version TEXT,
		vendor TEXT NOT NULL,
		model TEXT,
		collected_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}
