// Package poller orchestrates SNMP session calls to produce the three
// typed observations the rest of the system consumes: interface
// metrics, device health, and device inventory. It owns vendor dispatch
// for health gathering.
package poller

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kestrel-nms/netmon/pkg/logger"
	"github.com/kestrel-nms/netmon/pkg/models"
	"github.com/kestrel-nms/netmon/pkg/snmpsession"
)

const (
	oidIfIndex        = "1.3.6.1.2.1.2.2.1.1"
	oidIfDescrBase    = "1.3.6.1.2.1.2.2.1.2"
	oidIfTypeBase     = "1.3.6.1.2.1.2.2.1.3"
	oidIfMtuBase      = "1.3.6.1.2.1.2.2.1.4"
	oidIfSpeedBase    = "1.3.6.1.2.1.2.2.1.5"
	oidIfAdminBase    = "1.3.6.1.2.1.2.2.1.7"
	oidIfOperBase     = "1.3.6.1.2.1.2.2.1.8"
	oidIfInOctBase    = "1.3.6.1.2.1.2.2.1.10"
	oidIfInErrBase    = "1.3.6.1.2.1.2.2.1.14"
	oidIfOutOctBase   = "1.3.6.1.2.1.2.2.1.16"
	oidIfOutErrBase   = "1.3.6.1.2.1.2.2.1.20"

	oidSysDescr  = "1.3.6.1.2.1.1.1.0"
	oidSysName   = "1.3.6.1.2.1.1.5.0"
	oidSysUptime = "1.3.6.1.2.1.1.3.0"

	oidEntPhysicalSerial = "1.3.6.1.4.1.9.9.47.1.1.1.1.11"
	oidEntPhysicalModel  = "1.3.6.1.4.1.9.9.47.1.1.1.1.13"
	oidFortinetSerial    = "1.3.6.1.4.1.12356.100.1.1.1.0"
	oidMikrotikFirmware  = "1.3.6.1.4.1.14988.1.1.4.4.0"
)

var firmwareVersionRe = regexp.MustCompile(`Version ([^,\s]+)`)

// Session is the subset of snmpsession.Session the poller depends on.
// Declaring it here (rather than importing the concrete type at every
// call site) keeps the poller testable against a fake.
type Session interface {
	Probe() bool
	Get(oid string) (interface{}, error)
	GetMultiple(oids []string) (map[string]interface{}, error)
	Walk(rootOID string) (map[string]interface{}, error)
	Close() error
}

// SessionFactory builds a Session for a device. Production code passes
// snmpsession.New; tests inject a fake.
type SessionFactory func(device models.Device) Session

type registeredDevice struct {
	device  models.Device
	session Session
}

// Poller registers devices and produces observations for each,
// exclusively owning one Session per device.
type Poller struct {
	log     logger.Logger
	factory SessionFactory

	mu        sync.Mutex
	sessions  map[int64]*registeredDevice
}

// New builds a Poller. factory is how a Session is constructed for a
// newly registered device.
func New(factory SessionFactory, log logger.Logger) *Poller {
	return &Poller{
		log:      log,
		factory:  factory,
		sessions: make(map[int64]*registeredDevice),
	}
}

// Register adds device to the poller's session table. Disabled devices
// are silently skipped, matching the Device Poller's registration
// contract.
func (p *Poller) Register(device models.Device) {
	if !device.PollingEnabled {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.sessions[device.ID] = &registeredDevice{
		device:  device,
		session: p.factory(device),
	}
}

// Unregister closes and removes a device's session, used when a device
// is deregistered.
func (p *Poller) Unregister(deviceID int64) {
	p.mu.Lock()
	rd, ok := p.sessions[deviceID]
	delete(p.sessions, deviceID)
	p.mu.Unlock()

	if ok {
		_ = rd.session.Close()
	}
}

// CloseAll releases every registered session, used on shutdown.
func (p *Poller) CloseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, rd := range p.sessions {
		_ = rd.session.Close()
		delete(p.sessions, id)
	}
}

func (p *Poller) lookup(deviceID int64) (*registeredDevice, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	rd, ok := p.sessions[deviceID]
	return rd, ok
}

// PollInterfaces walks the interface table and issues one multi-get per
// index to build an InterfaceMetric list. A parse failure on one index
// logs and skips only that index.
func (p *Poller) PollInterfaces(deviceID int64) ([]models.InterfaceMetric, error) {
	rd, ok := p.lookup(deviceID)
	if !ok {
		return nil, fmt.Errorf("poller: device %d not registered", deviceID)
	}

	indices, err := rd.session.Walk(oidIfIndex)
	if err != nil {
		return nil, err
	}

	metrics := make([]models.InterfaceMetric, 0, len(indices))
	now := time.Now().UTC()

	for oid, raw := range indices {
		idx := snmpsession.SafeInt(raw, -1)
		if idx < 0 {
			idx = lastOIDSegmentAsInt(oid, oidIfIndex)
		}

		if idx < 0 {
			continue
		}

		m, err := p.pollOneInterface(rd, idx, now)
		if err != nil {
			p.log.Warn().Int64("device_id", deviceID).Int("interface_index", idx).Err(err).Msg("interface poll failed for index")
			continue
		}

		metrics = append(metrics, m)
	}

	return metrics, nil
}

func (p *Poller) pollOneInterface(rd *registeredDevice, idx int, now time.Time) (models.InterfaceMetric, error) {
	suffix := "." + strconv.Itoa(idx)
	oids := []string{
		oidIfDescrBase + suffix,
		oidIfTypeBase + suffix,
		oidIfMtuBase + suffix,
		oidIfSpeedBase + suffix,
		oidIfAdminBase + suffix,
		oidIfOperBase + suffix,
		oidIfInOctBase + suffix,
		oidIfInErrBase + suffix,
		oidIfOutOctBase + suffix,
		oidIfOutErrBase + suffix,
	}

	values, err := rd.session.GetMultiple(oids)
	if err != nil {
		return models.InterfaceMetric{}, err
	}

	descr, _ := values[oids[0]].(string)
	mtu := snmpsession.SafeInt(values[oids[2]], 1500)
	speed := int64(snmpsession.SafeInt(values[oids[3]], 0))
	admin := statusCode(values[oids[4]])
	oper := statusCode(values[oids[5]])
	inOctets := uint64(snmpsession.SafeInt(values[oids[6]], 0))
	inErrVal := uint64(snmpsession.SafeInt(values[oids[7]], 0))
	outOctets := uint64(snmpsession.SafeInt(values[oids[8]], 0))
	outErrVal := uint64(snmpsession.SafeInt(values[oids[9]], 0))

	return models.InterfaceMetric{
		DeviceID:       rd.device.ID,
		InterfaceIndex: idx,
		InterfaceName:  fmt.Sprintf("if%d", idx),
		Description:    descr,
		AdminStatus:    admin,
		OperStatus:     oper,
		Speed:          speed,
		InOctets:       inOctets,
		OutOctets:      outOctets,
		InErrors:       &inErrVal,
		OutErrors:      &outErrVal,
		MTU:            &mtu,
		Timestamp:      now,
	}, nil
}

// statusCode translates the ifAdminStatus/ifOperStatus integer codes:
// 1 means up, everything else (including 3=testing) is surfaced as
// down. This is a deliberate simplification carried from the original
// poller.
func statusCode(raw interface{}) models.LinkStatus {
	if snmpsession.SafeInt(raw, 0) == 1 {
		return models.LinkUp
	}

	return models.LinkDown
}

func lastOIDSegmentAsInt(oid, root string) int {
	trimmed := strings.TrimPrefix(oid, root+".")
	v, err := strconv.Atoi(trimmed)
	if err != nil {
		return -1
	}

	return v
}

// PollHealth always fetches sysName and sysUpTime, then dispatches to
// the vendor-specific gatherer for CPU/memory/temperature. A missing
// sysUpTime fails the whole health poll.
func (p *Poller) PollHealth(deviceID int64) (*models.DeviceHealthMetric, error) {
	rd, ok := p.lookup(deviceID)
	if !ok {
		return nil, fmt.Errorf("poller: device %d not registered", deviceID)
	}

	uptimeRaw, err := rd.session.Get(oidSysUptime)
	if err != nil {
		return nil, err
	}

	if uptimeRaw == nil {
		return nil, nil
	}

	ticks := snmpsession.SafeFloat(uptimeRaw, 0)
	uptimeSeconds := int64(math.Floor(ticks * 0.01))

	nameRaw, _ := rd.session.Get(oidSysName)
	deviceName, _ := nameRaw.(string)
	if deviceName == "" {
		deviceName = rd.device.Name
	}

	gatherer := gathererFor(rd.device.Vendor)
	cpu, mem, temp := gatherer.gather(rd.session)

	return &models.DeviceHealthMetric{
		DeviceID:      deviceID,
		DeviceName:    deviceName,
		UptimeSeconds: uptimeSeconds,
		CPUUsage:      cpu,
		MemoryUsage:   mem,
		Temperature:   temp,
		Timestamp:     time.Now().UTC(),
	}, nil
}

// PollInventory fetches sys_descr (mandatory), classifies the vendor by
// substring match, then extracts per-vendor serial/model/firmware
// fields. sysName is not fetched; DeviceInventory has no field for it.
func (p *Poller) PollInventory(deviceID int64) (*models.DeviceInventory, error) {
	rd, ok := p.lookup(deviceID)
	if !ok {
		return nil, fmt.Errorf("poller: device %d not registered", deviceID)
	}

	descrRaw, err := rd.session.Get(oidSysDescr)
	if err != nil {
		return nil, err
	}

	sysDescr, _ := descrRaw.(string)
	if sysDescr == "" {
		return nil, nil
	}

	vendor := classifyVendor(sysDescr)

	inv := &models.DeviceInventory{
		DeviceID:  deviceID,
		SysDescr:  sysDescr,
		Vendor:    string(vendor),
		Timestamp: time.Now().UTC(),
	}

	switch vendor {
	case models.VendorCisco:
		inv.SerialNumber = firstNonEmptyWalk(rd.session, oidEntPhysicalSerial)
		inv.Model = firstNonEmptyWalk(rd.session, oidEntPhysicalModel)

		if match := firmwareVersionRe.FindStringSubmatch(sysDescr); len(match) == 2 {
			inv.FirmwareVersion = match[1]
		}
	case models.VendorFortinet:
		if v, err := rd.session.Get(oidFortinetSerial); err == nil {
			if s, ok := v.(string); ok {
				inv.SerialNumber = s
			}
		}
	case models.VendorMikrotik:
		if v, err := rd.session.Get(oidMikrotikFirmware); err == nil {
			if s, ok := v.(string); ok {
				inv.FirmwareVersion = s
			}
		}
	}

	return inv, nil
}

func classifyVendor(sysDescr string) models.Vendor {
	lower := strings.ToLower(sysDescr)

	switch {
	case strings.Contains(lower, "cisco"):
		return models.VendorCisco
	case strings.Contains(lower, "fortinet"), strings.Contains(lower, "fortigate"):
		return models.VendorFortinet
	case strings.Contains(lower, "mikrotik"):
		return models.VendorMikrotik
	default:
		return models.VendorGeneric
	}
}

func firstNonEmptyWalk(sess Session, rootOID string) string {
	values, err := sess.Walk(rootOID)
	if err != nil {
		return ""
	}

	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}

	return ""
}
