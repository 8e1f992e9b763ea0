// Package upstream is the best-effort HTTP client mirroring alarms,
// metrics, and device status to a collaborating backend. It is never on
// the critical path: the database is the authoritative store, and every
// call here swallows its own errors after logging them.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kestrel-nms/netmon/pkg/logger"
	"github.com/kestrel-nms/netmon/pkg/models"
)

// Client talks to <base>/api. The underlying http.Client's connection
// pool is shared and safe for concurrent use by multiple orchestrator
// workers.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logger.Logger
}

// New builds a Client against baseURL with the given per-request
// timeout.
func New(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

type alarmPayload struct {
	DeviceID   int64                  `json:"device_id"`
	DeviceName string                 `json:"device_name"`
	Type       models.AlarmType       `json:"type"`
	Severity   models.AlarmSeverity   `json:"severity"`
	Message    string                 `json:"message"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// PushAlarm mirrors an alarm via POST /alarms. Best-effort: errors are
// logged and swallowed.
func (c *Client) PushAlarm(ctx context.Context, a models.Alarm) {
	payload := alarmPayload{
		DeviceID:   a.DeviceID,
		DeviceName: a.DeviceName,
		Type:       a.Type,
		Severity:   a.Severity,
		Message:    a.Message,
		Metadata:   a.Metadata,
	}

	c.post(ctx, "/alarms", payload)
}

// GetAlarms fetches unresolved alarms via GET /alarms, optionally scoped
// to one device. Best-effort: a transport or non-2xx response returns
// nil rather than an error.
func (c *Client) GetAlarms(ctx context.Context, deviceID *int64) []models.Alarm {
	q := url.Values{}
	q.Set("resolved", "false")

	if deviceID != nil {
		q.Set("device_id", strconv.FormatInt(*deviceID, 10))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/alarms?"+q.Encode(), nil)
	if err != nil {
		c.log.Warn().Err(err).Msg("upstream: build get alarms request failed")
		return nil
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Msg("upstream: get alarms failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn().Int("status", resp.StatusCode).Msg("upstream: get alarms non-2xx response")
		return nil
	}

	var alarms []models.Alarm
	if err := json.NewDecoder(resp.Body).Decode(&alarms); err != nil {
		c.log.Warn().Err(err).Msg("upstream: decoding alarms response failed")
		return nil
	}

	return alarms
}

// AcknowledgeAlarm mirrors an acknowledgement via PATCH /alarms/{id}/acknowledge.
func (c *Client) AcknowledgeAlarm(ctx context.Context, alarmID int64, actor string) {
	body := map[string]string{"acknowledged_by": actor}
	c.patch(ctx, fmt.Sprintf("/alarms/%d/acknowledge", alarmID), body)
}

// UpdateDeviceStatus mirrors a reachability change via PATCH /devices/{id}.
func (c *Client) UpdateDeviceStatus(ctx context.Context, deviceID int64, status models.ConnectionStatus) {
	body := map[string]string{"connection_status": string(status)}
	c.patch(ctx, fmt.Sprintf("/devices/%d", deviceID), body)
}

type metricsPayload struct {
	DeviceID  int64       `json:"device_id"`
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// PushInterfaceMetrics mirrors interface observations via POST /metrics.
func (c *Client) PushInterfaceMetrics(ctx context.Context, deviceID int64, metrics []models.InterfaceMetric) {
	c.post(ctx, "/metrics", metricsPayload{DeviceID: deviceID, Type: "interface", Data: metrics, Timestamp: time.Now().UTC()})
}

// PushHealthMetrics mirrors a health observation via POST /metrics.
func (c *Client) PushHealthMetrics(ctx context.Context, m models.DeviceHealthMetric) {
	c.post(ctx, "/metrics", metricsPayload{DeviceID: m.DeviceID, Type: "health", Data: m, Timestamp: m.Timestamp})
}

// PushInventory mirrors an inventory observation via POST /metrics.
func (c *Client) PushInventory(ctx context.Context, inv models.DeviceInventory) {
	c.post(ctx, "/metrics", metricsPayload{DeviceID: inv.DeviceID, Type: "inventory", Data: inv, Timestamp: inv.Timestamp})
}

// HealthCheck probes GET /health with a bounded 5s timeout. The
// client's configured per-request timeout still applies, so the shorter
// of the two bounds the probe.
func (c *Client) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Msg("upstream health check failed")
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (c *Client) post(ctx context.Context, path string, body interface{}) {
	c.send(ctx, http.MethodPost, path, body)
}

func (c *Client) patch(ctx context.Context, path string, body interface{}) {
	c.send(ctx, http.MethodPatch, path, body)
}

func (c *Client) send(ctx context.Context, method, path string, body interface{}) {
	data, err := json.Marshal(body)
	if err != nil {
		c.log.Warn().Str("path", path).Err(err).Msg("upstream: marshal request body failed")
		return
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api"+path, bytes.NewReader(data))
	if err != nil {
		c.log.Warn().Str("path", path).Err(err).Msg("upstream: build request failed")
		return
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Str("path", path).Err(err).Msg("upstream: request failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn().Str("path", path).Int("status", resp.StatusCode).Msg("upstream: non-2xx response")
	}
}
