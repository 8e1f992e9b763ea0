package models

// MetricType classifies how an OID's value should be interpreted.
type MetricType string

const (
	MetricGauge   MetricType = "gauge"
	MetricCounter MetricType = "counter"
	MetricString  MetricType = "string"
	MetricBits    MetricType = "bits"
)

// OIDMapping is one catalog entry: a numeric OID plus its semantic name,
// type, and (for vendor extensions) unit-conversion metadata. Immutable
// after process start.
type OIDMapping struct {
	OID               string     `json:"oid"`
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	MetricType        MetricType `json:"metric_type"`
	Unit              string     `json:"unit,omitempty"`
	Vendor            Vendor     `json:"vendor,omitempty"`
	ConversionFactor  float64    `json:"conversion_factor"`
}
