package oidcatalog

import "github.com/kestrel-nms/netmon/pkg/models"

func mapping(oid, name, desc string, mt models.MetricType, unit string, vendor models.Vendor, factor float64) models.OIDMapping {
	return models.OIDMapping{
		OID:              oid,
		Name:             name,
		Description:      desc,
		MetricType:       mt,
		Unit:             unit,
		Vendor:           vendor,
		ConversionFactor: factor,
	}
}

// genericOIDs covers the RFC 1213 / IF-MIB scalars and interface table
// columns used by every vendor.
func genericOIDs() []models.OIDMapping {
	return []models.OIDMapping{
		mapping("1.3.6.1.2.1.1.1.0", "sysDescr", "System description", models.MetricString, "", models.VendorGeneric, 1.0),
		mapping("1.3.6.1.2.1.1.3.0", "sysUpTime", "Time since last reinitialization", models.MetricCounter, "seconds", models.VendorGeneric, 0.01),
		mapping("1.3.6.1.2.1.1.5.0", "sysName", "Administratively assigned name", models.MetricString, "", models.VendorGeneric, 1.0),
		mapping("1.3.6.1.2.1.2.2.1.1", "ifIndex", "Interface index", models.MetricGauge, "", models.VendorGeneric, 1.0),
		mapping("1.3.6.1.2.1.2.2.1.2", "ifDescr", "Interface description", models.MetricString, "", models.VendorGeneric, 1.0),
		mapping("1.3.6.1.2.1.2.2.1.3", "ifType", "Interface type", models.MetricGauge, "", models.VendorGeneric, 1.0),
		mapping("1.3.6.1.2.1.2.2.1.4", "ifMtu", "Interface MTU", models.MetricGauge, "bytes", models.VendorGeneric, 1.0),
		mapping("1.3.6.1.2.1.2.2.1.5", "ifSpeed", "Interface speed", models.MetricGauge, "bps", models.VendorGeneric, 1.0),
		mapping("1.3.6.1.2.1.2.2.1.7", "ifAdminStatus", "Interface administrative status", models.MetricGauge, "", models.VendorGeneric, 1.0),
		mapping("1.3.6.1.2.1.2.2.1.8", "ifOperStatus", "Interface operational status", models.MetricGauge, "", models.VendorGeneric, 1.0),
		mapping("1.3.6.1.2.1.2.2.1.10", "ifInOctets", "Interface inbound octet counter", models.MetricCounter, "bytes", models.VendorGeneric, 1.0),
		mapping("1.3.6.1.2.1.2.2.1.14", "ifInErrors", "Interface inbound error counter", models.MetricCounter, "", models.VendorGeneric, 1.0),
		mapping("1.3.6.1.2.1.2.2.1.16", "ifOutOctets", "Interface outbound octet counter", models.MetricCounter, "bytes", models.VendorGeneric, 1.0),
		mapping("1.3.6.1.2.1.2.2.1.20", "ifOutErrors", "Interface outbound error counter", models.MetricCounter, "", models.VendorGeneric, 1.0),
	}
}

// ciscoOIDs covers CISCO-PROCESS-MIB, CISCO-MEMORY-POOL-MIB, and
// CISCO-ENVMON-MIB entries used by the health gatherer.
func ciscoOIDs() []models.OIDMapping {
	return []models.OIDMapping{
		mapping("1.3.6.1.4.1.9.9.109.1.1.1.1.3", "cpmCPUTotal5sec", "5 second CPU utilization", models.MetricGauge, "percent", models.VendorCisco, 1.0),
		mapping("1.3.6.1.4.1.9.9.109.1.1.1.1.5", "cpmCPUTotal1min", "1 minute CPU utilization", models.MetricGauge, "percent", models.VendorCisco, 1.0),
		mapping("1.3.6.1.4.1.9.9.48.1.1.1.5", "ciscoMemoryPoolUsed", "Memory pool bytes used", models.MetricGauge, "bytes", models.VendorCisco, 1.0),
		mapping("1.3.6.1.4.1.9.9.48.1.1.1.6", "ciscoMemoryPoolFree", "Memory pool bytes free", models.MetricGauge, "bytes", models.VendorCisco, 1.0),
		mapping("1.3.6.1.4.1.9.9.13.1.3.1.3", "ciscoEnvMonTemperatureValue", "Temperature sensor value", models.MetricGauge, "celsius", models.VendorCisco, 1.0),
		mapping("1.3.6.1.4.1.9.2.1.58.0", "avgBusy5", "Legacy 5 minute CPU busy percentage", models.MetricGauge, "percent", models.VendorCisco, 1.0),
		mapping("1.3.6.1.4.1.9.9.47.1.1.1.1.11", "entPhysicalSerialNum", "Entity physical serial number table", models.MetricString, "", models.VendorCisco, 1.0),
		mapping("1.3.6.1.4.1.9.9.47.1.1.1.1.13", "entPhysicalModelName", "Entity physical model name table", models.MetricString, "", models.VendorCisco, 1.0),
		mapping("1.3.6.1.4.1.9.9.91.1.1.1.1.1", "entSensorType", "Entity sensor type table", models.MetricGauge, "", models.VendorCisco, 1.0),
		mapping("1.3.6.1.4.1.9.9.91.1.1.1.1.4", "entSensorValue", "Entity sensor value table", models.MetricGauge, "", models.VendorCisco, 1.0),
	}
}

// fortinetOIDs covers the FORTINET-FORTIGATE-MIB system resource
// entries.
func fortinetOIDs() []models.OIDMapping {
	return []models.OIDMapping{
		mapping("1.3.6.1.4.1.12356.101.13.2.1.1.2", "fgSysCpuUsage", "CPU usage", models.MetricGauge, "percent", models.VendorFortinet, 1.0),
		mapping("1.3.6.1.4.1.12356.101.13.2.1.2.1", "fgSysMemUsage", "Memory usage", models.MetricGauge, "percent", models.VendorFortinet, 1.0),
		mapping("1.3.6.1.4.1.12356.101.13.2.1.3.1", "fgSysTemperature", "Chassis temperature", models.MetricGauge, "celsius", models.VendorFortinet, 1.0),
		mapping("1.3.6.1.4.1.12356.100.1.1.1.0", "fgSysSerial", "Device serial number", models.MetricString, "", models.VendorFortinet, 1.0),
	}
}

// mikrotikOIDs covers the MIKROTIK-MIB health counters.
func mikrotikOIDs() []models.OIDMapping {
	return []models.OIDMapping{
		mapping("1.3.6.1.4.1.14988.1.1.3.2", "mtxrHlCpuLoad", "CPU load", models.MetricGauge, "percent", models.VendorMikrotik, 1.0),
		mapping("1.3.6.1.4.1.14988.1.1.3.3", "mtxrHlMemSize", "Total memory size", models.MetricGauge, "bytes", models.VendorMikrotik, 1.0),
		mapping("1.3.6.1.4.1.14988.1.1.3.4", "mtxrHlMemFree", "Free memory", models.MetricGauge, "bytes", models.VendorMikrotik, 1.0),
		mapping("1.3.6.1.4.1.14988.1.1.4.4.0", "mtxrFirmwareVersion", "RouterOS firmware version", models.MetricString, "", models.VendorMikrotik, 1.0),
	}
}
