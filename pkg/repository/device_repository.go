package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kestrel-nms/netmon/pkg/models"
)

// DeviceRepository is the narrow CRUD surface over the devices table.
// It shares the process-wide pool; each call acquires its own connection,
// and nothing scopes its calls to a single polling cycle.
type DeviceRepository struct {
	pool *pgxpool.Pool
}

// NewDeviceRepository wraps pool for device queries.
func NewDeviceRepository(pool *pgxpool.Pool) *DeviceRepository {
	return &DeviceRepository{pool: pool}
}

func (r *DeviceRepository) Create(ctx context.Context, d models.Device) (models.Device, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO devices (name, ip_address, vendor, snmp_version, snmp_port, community_string, polling_enabled, connection_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		d.Name, d.IPAddress, string(d.Vendor), string(d.SNMP.Version), d.SNMP.Port, d.SNMP.CommunityString, d.PollingEnabled, string(d.ConnectionStatus))

	if err := row.Scan(&d.ID); err != nil {
		return models.Device{}, fmt.Errorf("repository: create device: %w", err)
	}

	return d, nil
}

func (r *DeviceRepository) GetByID(ctx context.Context, id int64) (models.Device, error) {
	return r.scanOne(ctx, `SELECT id, name, ip_address, vendor, snmp_version, snmp_port, community_string,
		polling_enabled, connection_status, last_polled, last_online FROM devices WHERE id = $1`, id)
}

func (r *DeviceRepository) GetByName(ctx context.Context, name string) (models.Device, error) {
	return r.scanOne(ctx, `SELECT id, name, ip_address, vendor, snmp_version, snmp_port, community_string,
		polling_enabled, connection_status, last_polled, last_online FROM devices WHERE name = $1`, name)
}

func (r *DeviceRepository) scanOne(ctx context.Context, query string, arg interface{}) (models.Device, error) {
	row := r.pool.QueryRow(ctx, query, arg)

	var d models.Device
	var vendor, version, status string

	err := row.Scan(&d.ID, &d.Name, &d.IPAddress, &vendor, &version, &d.SNMP.Port, &d.SNMP.CommunityString,
		&d.PollingEnabled, &status, &d.LastPolled, &d.LastOnline)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Device{}, fmt.Errorf("repository: device not found: %w", err)
	}

	if err != nil {
		return models.Device{}, fmt.Errorf("repository: get device: %w", err)
	}

	d.Vendor = models.Vendor(vendor)
	d.SNMP.Version = models.SNMPVersion(version)
	d.ConnectionStatus = models.ConnectionStatus(status)

	return d, nil
}

// GetAllEnabled returns every device with polling enabled, for
// Orchestrator initialization.
func (r *DeviceRepository) GetAllEnabled(ctx context.Context) ([]models.Device, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, ip_address, vendor, snmp_version, snmp_port, community_string,
		polling_enabled, connection_status, last_polled, last_online FROM devices WHERE polling_enabled = true`)
	if err != nil {
		return nil, fmt.Errorf("repository: get enabled devices: %w", err)
	}
	defer rows.Close()

	var out []models.Device

	for rows.Next() {
		var d models.Device
		var vendor, version, status string

		if err := rows.Scan(&d.ID, &d.Name, &d.IPAddress, &vendor, &version, &d.SNMP.Port, &d.SNMP.CommunityString,
			&d.PollingEnabled, &status, &d.LastPolled, &d.LastOnline); err != nil {
			return nil, fmt.Errorf("repository: scan device: %w", err)
		}

		d.Vendor = models.Vendor(vendor)
		d.SNMP.Version = models.SNMPVersion(version)
		d.ConnectionStatus = models.ConnectionStatus(status)

		out = append(out, d)
	}

	return out, rows.Err()
}

// UpdateStatus stamps connection_status and last_polled (and, on
// online, last_online). Returns false rather than an error on failure,
// matching the repository's mutator contract.
func (r *DeviceRepository) UpdateStatus(ctx context.Context, deviceID int64, status models.ConnectionStatus) bool {
	now := time.Now().UTC()

	var err error
	if status == models.StatusOnline {
		_, err = r.pool.Exec(ctx, `UPDATE devices SET connection_status = $1, last_polled = $2, last_online = $2 WHERE id = $3`,
			string(status), now, deviceID)
	} else {
		_, err = r.pool.Exec(ctx, `UPDATE devices SET connection_status = $1, last_polled = $2 WHERE id = $3`,
			string(status), now, deviceID)
	}

	return err == nil
}
