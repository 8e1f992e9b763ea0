package models

import (
	"strings"
	"time"
)

// LinkStatus is the admin/oper status of an interface as reported by
// ifAdminStatus/ifOperStatus. Only "up" and "down" are produced by the
// poller: non-1 status codes (including 3=testing) are coerced to "down"
// per the deliberate simplification in spec.md (Open Question 2).
type LinkStatus string

const (
	LinkUp   LinkStatus = "up"
	LinkDown LinkStatus = "down"
)

// InterfaceMetric is one sample per interface per polling cycle.
type InterfaceMetric struct {
	DeviceID      int64      `json:"device_id"`
	InterfaceIndex int       `json:"interface_index"`
	InterfaceName string     `json:"interface_name"`
	Description   string     `json:"description"`
	AdminStatus   LinkStatus `json:"admin_status"`
	OperStatus    LinkStatus `json:"oper_status"`
	Speed         int64      `json:"speed"`
	InOctets      uint64     `json:"in_octets"`
	OutOctets     uint64     `json:"out_octets"`
	InErrors      *uint64    `json:"in_errors,omitempty"`
	OutErrors     *uint64    `json:"out_errors,omitempty"`
	MTU           *int       `json:"mtu,omitempty"`
	Timestamp     time.Time  `json:"timestamp"`
}

// IsPortDown implements the derived predicate from spec.md §3: the
// interface is administratively up but operationally down. Comparison is
// case-insensitive, matching Invariant 3 in spec.md §8.
func (m InterfaceMetric) IsPortDown() bool {
	return strings.EqualFold(string(m.AdminStatus), string(LinkUp)) &&
		strings.EqualFold(string(m.OperStatus), string(LinkDown))
}

// DeviceHealthMetric is one sample per device per health-polling cycle.
type DeviceHealthMetric struct {
	DeviceID      int64     `json:"device_id"`
	DeviceName    string    `json:"device_name"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	CPUUsage      *float64  `json:"cpu_usage,omitempty"`
	MemoryUsage   *float64  `json:"memory_usage,omitempty"`
	Temperature   *float64  `json:"temperature,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// DeviceInventory is a slower-changing snapshot of device identity.
type DeviceInventory struct {
	DeviceID        int64     `json:"device_id"`
	SysDescr        string    `json:"sys_descr"`
	SerialNumber    string    `json:"serial_number,omitempty"`
	FirmwareVersion string    `json:"firmware_version,omitempty"`
	Vendor          string    `json:"vendor"`
	Model           string    `json:"model,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}
