package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-nms/netmon/pkg/logger"
	"github.com/kestrel-nms/netmon/pkg/models"
)

func TestPushAlarmSendsExpectedBody(t *testing.T) {
	var mu sync.Mutex
	var received map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/alarms", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		mu.Lock()
		_ = json.NewDecoder(r.Body).Decode(&received)
		mu.Unlock()

		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, logger.NewNop())
	c.PushAlarm(context.Background(), models.Alarm{DeviceID: 1, DeviceName: "router1", Type: models.AlarmPortDown, Severity: models.SeverityCritical, Message: "down"})

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, received)
	assert.Equal(t, "router1", received["device_name"])
	assert.Equal(t, "port_down", received["type"])
}

func TestNon2xxResponseDoesNotPanicOrError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, logger.NewNop())

	assert.NotPanics(t, func() {
		c.PushAlarm(context.Background(), models.Alarm{DeviceID: 1})
	})
}

func TestTransportErrorDoesNotPanicOrError(t *testing.T) {
	c := New("http://127.0.0.1:1", 50*time.Millisecond, logger.NewNop())

	assert.NotPanics(t, func() {
		c.UpdateDeviceStatus(context.Background(), 1, models.StatusOffline)
	})
}

func TestHealthCheckReturnsTrueOn2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, logger.NewNop())
	assert.True(t, c.HealthCheck(context.Background()))
}

func TestHealthCheckReturnsFalseOnUnreachable(t *testing.T) {
	c := New("http://127.0.0.1:1", 50*time.Millisecond, logger.NewNop())
	assert.False(t, c.HealthCheck(context.Background()))
}

func TestGetAlarmsSendsExpectedQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/alarms", r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("resolved"))
		assert.Equal(t, "7", r.URL.Query().Get("device_id"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]models.Alarm{{DeviceID: 7, Type: models.AlarmPortDown}})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, logger.NewNop())
	deviceID := int64(7)
	alarms := c.GetAlarms(context.Background(), &deviceID)

	require.Len(t, alarms, 1)
	assert.Equal(t, models.AlarmPortDown, alarms[0].Type)
}

func TestGetAlarmsReturnsNilOnTransportError(t *testing.T) {
	c := New("http://127.0.0.1:1", 50*time.Millisecond, logger.NewNop())
	assert.Nil(t, c.GetAlarms(context.Background(), nil))
}
