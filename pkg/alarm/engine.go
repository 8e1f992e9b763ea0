// Package alarm implements the stateful, edge-triggered alarm engine:
// a per-(device, metric-key) state map that turns the current
// observation plus the last-known state into alarm events. Evaluation
// itself is a pure function of its inputs; only the state map held by
// Engine is mutated, guarded by a mutex so callers working different
// devices concurrently never race on it.
package alarm

import (
	"fmt"
	"sync"
	"time"

	"github.com/kestrel-nms/netmon/pkg/models"
)

// Thresholds holds the evaluation cutoffs, all compared with ≥.
type Thresholds struct {
	CPU         float64
	Memory      float64
	Temperature float64
}

// DefaultThresholds matches the documented defaults (80% / 80% / 80°C).
func DefaultThresholds() Thresholds {
	return Thresholds{CPU: 80, Memory: 80, Temperature: 80}
}

// Engine holds PreviousState exclusively. No other component may read
// or write it directly.
type Engine struct {
	mu         sync.Mutex
	thresholds Thresholds
	state      map[stateKey]models.PreviousState
}

type stateKey struct {
	deviceID int64
	key      string
}

// New builds an Engine with no prior state.
func New(thresholds Thresholds) *Engine {
	return &Engine{
		thresholds: thresholds,
		state:      make(map[stateKey]models.PreviousState),
	}
}

func metricKeyForInterface(ifaceIndex int) string {
	return fmt.Sprintf("iface_%d", ifaceIndex)
}

const (
	keyDeviceHealth       = "device_health"
	keyDeviceReachability = "device_reachability"
)

func (e *Engine) previous(k stateKey) models.PreviousState {
	if p, ok := e.state[k]; ok {
		return p
	}

	return models.PreviousState{
		DeviceID: k.deviceID,
		Key:      k.key,
		Flags:    map[string]bool{},
		Values:   map[string]float64{},
	}
}

// EvaluateInterfaceMetric compares the current interface observation
// against PreviousState["iface_<index>"] and emits port_down/port_up on
// transitions.
func (e *Engine) EvaluateInterfaceMetric(m models.InterfaceMetric) []models.Alarm {
	e.mu.Lock()
	defer e.mu.Unlock()

	k := stateKey{deviceID: m.DeviceID, key: metricKeyForInterface(m.InterfaceIndex)}
	prev := e.previous(k)

	isDown := m.IsPortDown()
	wasDown := prev.Flags["is_port_down"]

	var alarms []models.Alarm

	if isDown && !wasDown {
		alarms = append(alarms, models.Alarm{
			DeviceID: m.DeviceID,
			Type:     models.AlarmPortDown,
			Severity: models.SeverityCritical,
			Message:  fmt.Sprintf("Port %s (%s) is down", m.InterfaceName, m.Description),
			Metadata: map[string]interface{}{
				"interface_index": m.InterfaceIndex,
				"interface_name":  m.InterfaceName,
				"admin_status":    m.AdminStatus,
				"oper_status":     m.OperStatus,
			},
			CreatedAt: time.Now().UTC(),
		})
	} else if !isDown && wasDown {
		alarms = append(alarms, models.Alarm{
			DeviceID: m.DeviceID,
			Type:     models.AlarmPortUp,
			Severity: models.SeverityInfo,
			Message:  fmt.Sprintf("Port %s (%s) is up", m.InterfaceName, m.Description),
			Metadata: map[string]interface{}{
				"interface_index": m.InterfaceIndex,
				"interface_name":  m.InterfaceName,
				"admin_status":    m.AdminStatus,
				"oper_status":     m.OperStatus,
			},
			CreatedAt: time.Now().UTC(),
		})
	}

	e.state[k] = models.PreviousState{
		DeviceID:  m.DeviceID,
		Key:       k.key,
		Flags:     map[string]bool{"is_port_down": isDown},
		Values:    map[string]float64{},
		Timestamp: m.Timestamp,
	}

	return alarms
}

// EvaluateDeviceHealth checks cpu/memory/temperature against thresholds.
// Resource alarms are edge-triggered false→true only: the original
// system has no recovery alarm type for cpu_high/memory_high/
// temperature_high, so a true→false transition clears state silently.
// A nil measurement leaves the previous flag untouched and emits
// nothing.
func (e *Engine) EvaluateDeviceHealth(m models.DeviceHealthMetric) []models.Alarm {
	e.mu.Lock()
	defer e.mu.Unlock()

	k := stateKey{deviceID: m.DeviceID, key: keyDeviceHealth}
	prev := e.previous(k)

	var alarms []models.Alarm

	newFlags := map[string]bool{
		"cpu_high":         prev.Flags["cpu_high"],
		"memory_high":      prev.Flags["memory_high"],
		"temperature_high": prev.Flags["temperature_high"],
	}
	newValues := map[string]float64{}

	if m.CPUUsage != nil {
		newValues["cpu_usage"] = *m.CPUUsage
		isHigh := *m.CPUUsage >= e.thresholds.CPU
		newFlags["cpu_high"] = isHigh

		if isHigh && !prev.Flags["cpu_high"] {
			alarms = append(alarms, models.Alarm{
				DeviceID: m.DeviceID,
				DeviceName: m.DeviceName,
				Type:     models.AlarmCPUHigh,
				Severity: models.SeverityWarning,
				Message:  fmt.Sprintf("CPU usage %.1f%% exceeded threshold %.1f%%", *m.CPUUsage, e.thresholds.CPU),
				Metadata: map[string]interface{}{"value": *m.CPUUsage, "threshold": e.thresholds.CPU},
				CreatedAt: time.Now().UTC(),
			})
		}
	}

	if m.MemoryUsage != nil {
		newValues["memory_usage"] = *m.MemoryUsage
		isHigh := *m.MemoryUsage >= e.thresholds.Memory
		newFlags["memory_high"] = isHigh

		if isHigh && !prev.Flags["memory_high"] {
			alarms = append(alarms, models.Alarm{
				DeviceID: m.DeviceID,
				DeviceName: m.DeviceName,
				Type:     models.AlarmMemoryHigh,
				Severity: models.SeverityWarning,
				Message:  fmt.Sprintf("Memory usage %.1f%% exceeded threshold %.1f%%", *m.MemoryUsage, e.thresholds.Memory),
				Metadata: map[string]interface{}{"value": *m.MemoryUsage, "threshold": e.thresholds.Memory},
				CreatedAt: time.Now().UTC(),
			})
		}
	}

	if m.Temperature != nil {
		newValues["temperature"] = *m.Temperature
		isHigh := *m.Temperature >= e.thresholds.Temperature
		newFlags["temperature_high"] = isHigh

		if isHigh && !prev.Flags["temperature_high"] {
			alarms = append(alarms, models.Alarm{
				DeviceID: m.DeviceID,
				DeviceName: m.DeviceName,
				Type:     models.AlarmTemperatureHigh,
				Severity: models.SeverityCritical,
				Message:  fmt.Sprintf("Temperature %.1f°C exceeded threshold %.1f°C", *m.Temperature, e.thresholds.Temperature),
				Metadata: map[string]interface{}{"value": *m.Temperature, "threshold": e.thresholds.Temperature},
				CreatedAt: time.Now().UTC(),
			})
		}
	}

	e.state[k] = models.PreviousState{
		DeviceID:  m.DeviceID,
		Key:       keyDeviceHealth,
		Flags:     newFlags,
		Values:    newValues,
		Timestamp: m.Timestamp,
	}

	return alarms
}

// DeviceUnreachable emits device_unreachable only on the false→true
// transition.
func (e *Engine) DeviceUnreachable(deviceID int64, deviceName string) *models.Alarm {
	e.mu.Lock()
	defer e.mu.Unlock()

	k := stateKey{deviceID: deviceID, key: keyDeviceReachability}
	prev := e.previous(k)
	wasUnreachable := prev.Flags["unreachable"]

	e.state[k] = models.PreviousState{
		DeviceID:  deviceID,
		Key:       keyDeviceReachability,
		Flags:     map[string]bool{"unreachable": true},
		Values:    map[string]float64{},
		Timestamp: time.Now().UTC(),
	}

	if wasUnreachable {
		return nil
	}

	return &models.Alarm{
		DeviceID:   deviceID,
		DeviceName: deviceName,
		Type:       models.AlarmDeviceUnreachable,
		Severity:   models.SeverityCritical,
		Message:    fmt.Sprintf("Device %s is unreachable", deviceName),
		CreatedAt:  time.Now().UTC(),
	}
}

// DeviceRecovered emits device_reachable only if the device was
// previously marked unreachable.
func (e *Engine) DeviceRecovered(deviceID int64, deviceName string) *models.Alarm {
	e.mu.Lock()
	defer e.mu.Unlock()

	k := stateKey{deviceID: deviceID, key: keyDeviceReachability}
	prev := e.previous(k)
	wasUnreachable := prev.Flags["unreachable"]

	e.state[k] = models.PreviousState{
		DeviceID:  deviceID,
		Key:       keyDeviceReachability,
		Flags:     map[string]bool{"unreachable": false},
		Values:    map[string]float64{},
		Timestamp: time.Now().UTC(),
	}

	if !wasUnreachable {
		return nil
	}

	return &models.Alarm{
		DeviceID:   deviceID,
		DeviceName: deviceName,
		Type:       models.AlarmDeviceReachable,
		Severity:   models.SeverityInfo,
		Message:    fmt.Sprintf("Device %s has recovered", deviceName),
		CreatedAt:  time.Now().UTC(),
	}
}

// ClearDeviceState removes every state key belonging to deviceID, used
// when a device is deregistered.
func (e *Engine) ClearDeviceState(deviceID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for k := range e.state {
		if k.deviceID == deviceID {
			delete(e.state, k)
		}
	}
}

// State returns a defensive copy of the current state for deviceID/key,
// for test assertions.
func (e *Engine) State(deviceID int64, key string) (models.PreviousState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.state[stateKey{deviceID: deviceID, key: key}]
	if !ok {
		return models.PreviousState{}, false
	}

	return p.Clone(), true
}
