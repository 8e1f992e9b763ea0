// Package snmpsession wraps a single device's SNMP transport: reachability
// probing, scalar/multi gets, subtree walks, and value normalization.
// One Session exists per registered device and is not safe for
// concurrent use — callers serialize operations on a given device.
package snmpsession

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/kestrel-nms/netmon/pkg/logger"
)

// Config carries the per-device transport parameters plus the global
// tunables (timeout, retries, bulk-walk preference) that apply to every
// session.
type Config struct {
	Address         string
	Port            int
	CommunityString string
	Timeout         time.Duration
	Retries         int
	BulkWalkEnabled bool
}

// Session is one device's SNMP connection abstraction. The underlying
// gosnmp.GoSNMP client is lazily connected on first use.
type Session struct {
	cfg    Config
	log    logger.Logger
	client *gosnmp.GoSNMP
}

// New constructs a Session for one device. No network I/O happens here;
// the transport is established lazily by the first operation.
func New(cfg Config, log logger.Logger) *Session {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	if cfg.Retries < 0 {
		cfg.Retries = 3
	}

	if cfg.Port == 0 {
		cfg.Port = 161
	}

	return &Session{cfg: cfg, log: log}
}

// Probe attempts a TCP connection to (address, port) solely to classify
// reachability before firing SNMP at the device. Only the configured
// port is dialled, so a host with no TCP listener on that port fails
// the probe.
func (s *Session) Probe() bool {
	addr := net.JoinHostPort(s.cfg.Address, strconv.Itoa(s.cfg.Port))

	conn, err := net.DialTimeout("tcp", addr, s.cfg.Timeout)
	if err != nil {
		s.log.Warn().Str("address", s.cfg.Address).Err(err).Msg("snmp probe failed")
		return false
	}

	_ = conn.Close()

	return true
}

// ErrUnreachable is returned by Get/GetMultiple/Walk when Probe fails
// before any SNMP traffic is sent.
var ErrUnreachable = fmt.Errorf("snmpsession: device unreachable")

func (s *Session) ensureClient() (*gosnmp.GoSNMP, error) {
	if s.client != nil {
		return s.client, nil
	}

	client := &gosnmp.GoSNMP{
		Target:    s.cfg.Address,
		Port:      uint16(s.cfg.Port),
		Community: s.cfg.CommunityString,
		Version:   gosnmp.Version2c,
		Timeout:   s.cfg.Timeout,
		Retries:   s.cfg.Retries,
	}

	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("snmpsession: connect: %w", err)
	}

	s.client = client

	return client, nil
}

// Get fetches a single OID. Returns nil with no error on an SNMP
// error-status (logged), ErrUnreachable if Probe fails, or a wrapped
// error on transport/engine failure.
func (s *Session) Get(oid string) (interface{}, error) {
	if !s.Probe() {
		return nil, ErrUnreachable
	}

	client, err := s.ensureClient()
	if err != nil {
		return nil, err
	}

	result, err := client.Get([]string{oid})
	if err != nil {
		return nil, fmt.Errorf("snmpsession: get %s: %w", oid, err)
	}

	if len(result.Variables) == 0 {
		return nil, nil
	}

	pdu := result.Variables[0]
	if pdu.Type == gosnmp.NoSuchObject || pdu.Type == gosnmp.NoSuchInstance || pdu.Type == gosnmp.EndOfMibView {
		s.log.Warn().Str("oid", oid).Msg("snmp error-status on get")
		return nil, nil
	}

	return normalizeValue(pdu)
}

// GetMultiple fetches several OIDs in a single PDU. A failed Probe
// returns ErrUnreachable; on any later error it returns a map with every
// requested OID mapped to nil rather than propagating the error, so that
// per-interface fetches continue.
func (s *Session) GetMultiple(oids []string) (map[string]interface{}, error) {
	if !s.Probe() {
		return nil, ErrUnreachable
	}

	allNil := func() map[string]interface{} {
		out := make(map[string]interface{}, len(oids))
		for _, o := range oids {
			out[o] = nil
		}

		return out
	}

	client, err := s.ensureClient()
	if err != nil {
		return allNil(), nil
	}

	result, err := client.Get(oids)
	if err != nil {
		s.log.Warn().Strs("oids", oids).Err(err).Msg("snmp get_multiple failed")
		return allNil(), nil
	}

	out := allNil()
	for _, pdu := range result.Variables {
		if pdu.Type == gosnmp.NoSuchObject || pdu.Type == gosnmp.NoSuchInstance || pdu.Type == gosnmp.EndOfMibView {
			continue
		}

		v, err := normalizeValue(pdu)
		if err != nil {
			continue
		}

		out[pdu.Name] = v
	}

	return out, nil
}

// Walk iterates a subtree, preferring GETBULK (non-repeaters=0,
// max-repetitions=25) when BulkWalkEnabled is set, otherwise GETNEXT.
// It terminates cleanly on the first out-of-subtree OID, empty
// response, or any error, returning what was gathered so far.
func (s *Session) Walk(rootOID string) (map[string]interface{}, error) {
	if !s.Probe() {
		return nil, ErrUnreachable
	}

	client, err := s.ensureClient()
	if err != nil {
		return map[string]interface{}{}, nil
	}

	out := make(map[string]interface{})

	walkFn := func(pdu gosnmp.SnmpPDU) error {
		if !strings.HasPrefix(pdu.Name, rootOID) {
			return fmt.Errorf("snmpsession: out of subtree")
		}

		v, err := normalizeValue(pdu)
		if err != nil {
			return nil
		}

		out[pdu.Name] = v

		return nil
	}

	if s.cfg.BulkWalkEnabled {
		client.MaxRepetitions = 25
		client.NonRepeaters = 0
		_ = client.BulkWalk(rootOID, walkFn)
	} else {
		_ = client.Walk(rootOID, walkFn)
	}

	return out, nil
}

// Close releases the underlying transport. Safe to call on a Session
// that never connected.
func (s *Session) Close() error {
	if s.client == nil {
		return nil
	}

	conn := s.client.Conn
	s.client = nil

	if conn == nil {
		return nil
	}

	return conn.Close()
}

// normalizeValue converts a gosnmp PDU value into an integer, float, or
// string, robust to whatever wrapper type the underlying library
// returns. It never returns an error to the caller in a way that aborts
// the surrounding poll: failures stringify the raw value.
func normalizeValue(pdu gosnmp.SnmpPDU) (interface{}, error) {
	switch pdu.Type {
	case gosnmp.Integer, gosnmp.Counter32, gosnmp.Gauge32, gosnmp.TimeTicks, gosnmp.Counter64, gosnmp.Uinteger32:
		return gosnmp.ToBigInt(pdu.Value).Int64(), nil
	case gosnmp.OctetString:
		b, ok := pdu.Value.([]byte)
		if !ok {
			return fmt.Sprintf("%v", pdu.Value), nil
		}

		s := string(b)
		if iv, err := strconv.ParseInt(s, 10, 64); err == nil {
			return iv, nil
		}

		if fv, err := strconv.ParseFloat(s, 64); err == nil {
			return fv, nil
		}

		return s, nil
	case gosnmp.ObjectIdentifier, gosnmp.IPAddress:
		return fmt.Sprintf("%v", pdu.Value), nil
	default:
		return fmt.Sprintf("%v", pdu.Value), nil
	}
}

// SafeInt coerces value to an int, rejecting anything containing
// letters outside ".-eE" and treating nil/empty as fallback.
func SafeInt(value interface{}, fallback int) int {
	switch v := value.(type) {
	case nil:
		return fallback
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if v == "" || !isNumericLike(v) {
			return fallback
		}

		if iv, err := strconv.Atoi(v); err == nil {
			return iv
		}

		if fv, err := strconv.ParseFloat(v, 64); err == nil {
			return int(fv)
		}

		return fallback
	default:
		return fallback
	}
}

// SafeFloat coerces value to a float64, rejecting anything containing
// letters outside ".-eE" and treating nil/empty as fallback.
func SafeFloat(value interface{}, fallback float64) float64 {
	switch v := value.(type) {
	case nil:
		return fallback
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if v == "" || !isNumericLike(v) {
			return fallback
		}

		if fv, err := strconv.ParseFloat(v, 64); err == nil {
			return fv
		}

		return fallback
	default:
		return fallback
	}
}

func isNumericLike(s string) bool {
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' || r == 'e' || r == 'E' || r == '+' {
			continue
		}

		return false
	}

	return true
}
