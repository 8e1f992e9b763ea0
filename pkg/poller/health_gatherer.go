package poller

import (
	"math"
	"strconv"
	"strings"

	"github.com/kestrel-nms/netmon/pkg/models"
	"github.com/kestrel-nms/netmon/pkg/snmpsession"
)

// healthGatherer is the sum-type interface for vendor-specific
// CPU/memory/temperature collection. Each vendor gets exactly one
// implementation; gathererFor dispatches on models.Vendor.
type healthGatherer interface {
	gather(sess Session) (cpu, mem, temp *float64)
}

func gathererFor(vendor models.Vendor) healthGatherer {
	switch vendor {
	case models.VendorCisco:
		return ciscoGatherer{}
	case models.VendorFortinet:
		return fortinetGatherer{}
	case models.VendorMikrotik:
		return mikrotikGatherer{}
	default:
		return genericGatherer{}
	}
}

// firstValue tries each OID in order and returns the first one the
// safe-float helper parses as non-null.
func firstValue(sess Session, oids ...string) *float64 {
	for _, oid := range oids {
		v, err := sess.Get(oid)
		if err != nil || v == nil {
			continue
		}

		f := snmpsession.SafeFloat(v, math.NaN())
		if math.IsNaN(f) {
			continue
		}

		return &f
	}

	return nil
}

func ptr(f float64) *float64 { return &f }

// ciscoGatherer implements the CISCO-PROCESS-MIB / CISCO-MEMORY-POOL-MIB
// / CISCO-ENVMON-MIB fallback chains.
type ciscoGatherer struct{}

func (ciscoGatherer) gather(sess Session) (cpu, mem, temp *float64) {
	cpu = firstValue(sess,
		"1.3.6.1.4.1.9.9.109.1.1.1.1.5.1",
		"1.3.6.1.4.1.9.9.109.1.1.1.1.5",
		"1.3.6.1.4.1.9.2.1.58.0",
	)

	usedRaw := firstValue(sess, "1.3.6.1.4.1.9.9.48.1.1.1.5.1", "1.3.6.1.4.1.9.9.48.1.1.1.5")
	freeRaw := firstValue(sess, "1.3.6.1.4.1.9.9.48.1.1.1.6.1", "1.3.6.1.4.1.9.9.48.1.1.1.6")

	if usedRaw != nil && freeRaw != nil && (*usedRaw+*freeRaw) > 0 {
		mem = ptr(*usedRaw / (*usedRaw + *freeRaw) * 100)
	}

	temp = firstValue(sess,
		"1.3.6.1.4.1.9.9.13.1.3.1.3.1",
		"1.3.6.1.4.1.9.9.13.1.3.1.3.1004",
		"1.3.6.1.4.1.9.9.13.1.3.1.3.1001",
	)

	if temp == nil {
		temp = ciscoEntitySensorTemperature(sess)
	}

	if temp == nil {
		temp = ciscoWalkTemperature(sess)
	}

	if temp != nil {
		scaled := scaleCiscoTemperature(*temp)
		temp = &scaled
	}

	return cpu, mem, temp
}

// scaleCiscoTemperature applies the raw-value scaling rule: values over
// 1000 are millidegrees, over 150 are tenths-of-a-degree, otherwise
// already Celsius.
func scaleCiscoTemperature(raw float64) float64 {
	switch {
	case raw > 1000:
		return raw / 1000.0
	case raw > 150:
		return raw / 10.0
	default:
		return raw
	}
}

// ciscoEntitySensorTemperature walks the entity-sensor type table
// looking for Celsius sensors (type 8) and reads their values.
func ciscoEntitySensorTemperature(sess Session) *float64 {
	const sensorTypeOID = "1.3.6.1.4.1.9.9.91.1.1.1.1.1"
	const sensorValueBase = "1.3.6.1.4.1.9.9.91.1.1.1.1.4"

	types, err := sess.Walk(sensorTypeOID)
	if err != nil {
		return nil
	}

	for oid, v := range types {
		if snmpsession.SafeInt(v, -1) != 8 {
			continue
		}

		idx := strings.TrimPrefix(oid, sensorTypeOID+".")
		if _, err := strconv.Atoi(idx); err != nil {
			continue
		}

		val, err := sess.Get(sensorValueBase + "." + idx)
		if err != nil || val == nil {
			continue
		}

		f := snmpsession.SafeFloat(val, 0)
		return &f
	}

	return nil
}

func ciscoWalkTemperature(sess Session) *float64 {
	values, err := sess.Walk("1.3.6.1.4.1.9.9.13.1.3.1.3")
	if err != nil {
		return nil
	}

	for _, v := range values {
		f := snmpsession.SafeFloat(v, 0)
		return &f
	}

	return nil
}

// fortinetGatherer reads FORTINET-FORTIGATE-MIB scalars, already
// expressed as percentages.
type fortinetGatherer struct{}

func (fortinetGatherer) gather(sess Session) (cpu, mem, temp *float64) {
	cpu = firstValue(sess, "1.3.6.1.4.1.12356.101.13.2.1.1.2")
	mem = firstValue(sess, "1.3.6.1.4.1.12356.101.13.2.1.2.1")
	temp = firstValue(sess, "1.3.6.1.4.1.12356.101.13.2.1.3.1")

	return cpu, mem, temp
}

// mikrotikGatherer reads MIKROTIK-MIB health counters. Temperature is
// not exposed by RouterOS devices.
type mikrotikGatherer struct{}

func (mikrotikGatherer) gather(sess Session) (cpu, mem, temp *float64) {
	cpu = firstValue(sess, "1.3.6.1.4.1.14988.1.1.3.2")

	total := firstValue(sess, "1.3.6.1.4.1.14988.1.1.3.3")
	free := firstValue(sess, "1.3.6.1.4.1.14988.1.1.3.4")

	if total != nil && free != nil && *total > 0 {
		mem = ptr((*total - *free) / *total * 100)
	}

	return cpu, mem, nil
}

// genericGatherer falls back to HOST-RESOURCES-MIB for vendors without
// a dedicated private MIB.
type genericGatherer struct{}

func (genericGatherer) gather(sess Session) (cpu, mem, temp *float64) {
	const hrProcessorLoad = "1.3.6.1.2.1.25.3.3.1.2"
	const hrStorageType = "1.3.6.1.2.1.25.2.3.1.2"
	const hrStorageUsed = "1.3.6.1.2.1.25.2.3.1.6"
	const hrStorageSize = "1.3.6.1.2.1.25.2.3.1.5"
	const hrStorageRAM = "1.3.6.1.2.1.25.2.1.2"

	if loads, err := sess.Walk(hrProcessorLoad); err == nil && len(loads) > 0 {
		sum := 0.0
		for _, v := range loads {
			sum += snmpsession.SafeFloat(v, 0)
		}

		avg := sum / float64(len(loads))
		cpu = &avg
	}

	types, err := sess.Walk(hrStorageType)
	if err == nil {
		for oid, v := range types {
			s, ok := v.(string)
			if !ok || !strings.Contains(s, hrStorageRAM) {
				continue
			}

			idx := strings.TrimPrefix(oid, hrStorageType+".")

			usedRaw, err := sess.Get(hrStorageUsed + "." + idx)
			if err != nil || usedRaw == nil {
				continue
			}

			sizeRaw, err := sess.Get(hrStorageSize + "." + idx)
			if err != nil || sizeRaw == nil {
				continue
			}

			used := snmpsession.SafeFloat(usedRaw, 0)
			size := snmpsession.SafeFloat(sizeRaw, 0)

			if size > 0 {
				mem = ptr(used / size * 100)
			}

			break
		}
	}

	return cpu, mem, nil
}
