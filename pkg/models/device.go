// Package models holds the domain types shared across the polling engine,
// alarm engine, repository layer, and upstream API client.
package models

import "time"

// Vendor identifies which OID set and health-gathering strategy a device uses.
type Vendor string

const (
	VendorGeneric  Vendor = "generic"
	VendorCisco    Vendor = "cisco"
	VendorFortinet Vendor = "fortinet"
	VendorMikrotik Vendor = "mikrotik"
)

// SNMPVersion is the supported SNMP protocol version for a device.
type SNMPVersion string

const (
	SNMPv2c SNMPVersion = "2c"
	SNMPv3  SNMPVersion = "3"
)

// ConnectionStatus is the last-observed reachability of a device.
type ConnectionStatus string

const (
	StatusOnline  ConnectionStatus = "online"
	StatusOffline ConnectionStatus = "offline"
	StatusUnknown ConnectionStatus = "unknown"
)

// SNMPCredentials carries the transport and auth parameters for a device's
// SNMP session. Only v2c fields are populated today; v3 fields are reserved
// for the unimplemented user-security-model (spec Non-goals).
type SNMPCredentials struct {
	Version         SNMPVersion `json:"version"`
	Port            int         `json:"port"`
	CommunityString string      `json:"community_string,omitempty"`
	V3Username      string      `json:"v3_username,omitempty"`
	V3AuthProtocol  string      `json:"v3_auth_protocol,omitempty"`
	V3AuthPassword  string      `json:"v3_auth_password,omitempty"`
	V3PrivProtocol  string      `json:"v3_priv_protocol,omitempty"`
	V3PrivPassword  string      `json:"v3_priv_password,omitempty"`
}

// Device is a monitored endpoint, owned by an external admin for
// configuration and by the Orchestrator for status/timestamp fields.
type Device struct {
	ID               int64            `json:"id"`
	Name             string           `json:"name"`
	IPAddress        string           `json:"ip_address"`
	Vendor           Vendor           `json:"vendor"`
	SNMP             SNMPCredentials  `json:"snmp"`
	PollingEnabled   bool             `json:"polling_enabled"`
	ConnectionStatus ConnectionStatus `json:"connection_status"`
	LastPolled       *time.Time       `json:"last_polled,omitempty"`
	LastOnline       *time.Time       `json:"last_online,omitempty"`
}
