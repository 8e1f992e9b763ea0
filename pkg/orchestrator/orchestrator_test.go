package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-nms/netmon/pkg/logger"
	"github.com/kestrel-nms/netmon/pkg/models"
)

type fakePoller struct {
	mu         sync.Mutex
	registered []models.Device
	ifaceFn    func(deviceID int64) ([]models.InterfaceMetric, error)
	healthFn   func(deviceID int64) (*models.DeviceHealthMetric, error)
	invFn      func(deviceID int64) (*models.DeviceInventory, error)
	closed     bool
}

func (f *fakePoller) Register(d models.Device) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, d)
}

func (f *fakePoller) Unregister(int64) {}
func (f *fakePoller) CloseAll()        { f.closed = true }

func (f *fakePoller) PollInterfaces(id int64) ([]models.InterfaceMetric, error) {
	if f.ifaceFn != nil {
		return f.ifaceFn(id)
	}
	return nil, nil
}

func (f *fakePoller) PollHealth(id int64) (*models.DeviceHealthMetric, error) {
	if f.healthFn != nil {
		return f.healthFn(id)
	}
	return nil, nil
}

func (f *fakePoller) PollInventory(id int64) (*models.DeviceInventory, error) {
	if f.invFn != nil {
		return f.invFn(id)
	}
	return nil, nil
}

type fakeEngine struct {
	unreachableCalls int
	recoveredCalls   int
}

func (f *fakeEngine) EvaluateInterfaceMetric(models.InterfaceMetric) []models.Alarm { return nil }
func (f *fakeEngine) EvaluateDeviceHealth(models.DeviceHealthMetric) []models.Alarm { return nil }

func (f *fakeEngine) DeviceUnreachable(deviceID int64, name string) *models.Alarm {
	f.unreachableCalls++
	return &models.Alarm{DeviceID: deviceID, DeviceName: name, Type: models.AlarmDeviceUnreachable}
}

func (f *fakeEngine) DeviceRecovered(deviceID int64, name string) *models.Alarm {
	f.recoveredCalls++
	return nil
}

type fakeDeviceRepo struct {
	fleet        []models.Device
	statusCalls  map[int64]models.ConnectionStatus
	mu           sync.Mutex
}

func (f *fakeDeviceRepo) GetAllEnabled(context.Context) ([]models.Device, error) {
	return f.fleet, nil
}

func (f *fakeDeviceRepo) UpdateStatus(_ context.Context, deviceID int64, status models.ConnectionStatus) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusCalls == nil {
		f.statusCalls = map[int64]models.ConnectionStatus{}
	}
	f.statusCalls[deviceID] = status
	return true
}

type fakeAlarmRepo struct {
	mu      sync.Mutex
	created []models.Alarm
}

func (f *fakeAlarmRepo) Create(_ context.Context, a models.Alarm) (models.Alarm, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := int64(len(f.created) + 1)
	a.ID = &id
	f.created = append(f.created, a)
	return a, nil
}

type fakeMetricsRepo struct{}

func (f *fakeMetricsRepo) SaveInterfaceMetrics(context.Context, []models.InterfaceMetric) error { return nil }
func (f *fakeMetricsRepo) SaveHealthMetrics(context.Context, models.DeviceHealthMetric) error     { return nil }
func (f *fakeMetricsRepo) SaveInventory(context.Context, models.DeviceInventory) error            { return nil }

type fakeUpstream struct {
	mu           sync.Mutex
	pushedAlarms []models.Alarm
}

func (f *fakeUpstream) PushAlarm(_ context.Context, a models.Alarm) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushedAlarms = append(f.pushedAlarms, a)
}

func (f *fakeUpstream) UpdateDeviceStatus(context.Context, int64, models.ConnectionStatus)           {}
func (f *fakeUpstream) PushInterfaceMetrics(context.Context, int64, []models.InterfaceMetric)        {}
func (f *fakeUpstream) PushHealthMetrics(context.Context, models.DeviceHealthMetric)                 {}
func (f *fakeUpstream) PushInventory(context.Context, models.DeviceInventory)                        {}

func TestInitializeRegistersEnabledFleet(t *testing.T) {
	devices := &fakeDeviceRepo{fleet: []models.Device{{ID: 1, Name: "r1", PollingEnabled: true}}}
	p := &fakePoller{}
	o := New(DefaultConfig(), p, &fakeEngine{}, devices, &fakeAlarmRepo{}, &fakeMetricsRepo{}, &fakeUpstream{}, logger.NewNop())

	require.NoError(t, o.Initialize(context.Background()))
	assert.Len(t, p.registered, 1)
}

func TestRunCycleMarksOfflineWhenBothPollsEmpty(t *testing.T) {
	devices := &fakeDeviceRepo{fleet: []models.Device{{ID: 1, Name: "r1", PollingEnabled: true}}}
	p := &fakePoller{}
	engine := &fakeEngine{}
	o := New(DefaultConfig(), p, engine, devices, &fakeAlarmRepo{}, &fakeMetricsRepo{}, &fakeUpstream{}, logger.NewNop())

	require.NoError(t, o.Initialize(context.Background()))
	require.NoError(t, o.RunCycle(context.Background()))

	assert.Equal(t, models.StatusOffline, devices.statusCalls[1])
	assert.Equal(t, 1, engine.unreachableCalls)
}

func TestRunCycleMarksOnlineWhenInterfacesReturned(t *testing.T) {
	devices := &fakeDeviceRepo{fleet: []models.Device{{ID: 1, Name: "r1", PollingEnabled: true}}}
	p := &fakePoller{
		ifaceFn: func(int64) ([]models.InterfaceMetric, error) {
			return []models.InterfaceMetric{{DeviceID: 1, InterfaceIndex: 1}}, nil
		},
	}
	engine := &fakeEngine{}
	o := New(DefaultConfig(), p, engine, devices, &fakeAlarmRepo{}, &fakeMetricsRepo{}, &fakeUpstream{}, logger.NewNop())

	require.NoError(t, o.Initialize(context.Background()))
	require.NoError(t, o.RunCycle(context.Background()))

	assert.Equal(t, models.StatusOnline, devices.statusCalls[1])
	assert.Equal(t, 0, engine.unreachableCalls)
	assert.Equal(t, 1, engine.recoveredCalls)
}

func TestOneDeviceFailureDoesNotStallOthers(t *testing.T) {
	devices := &fakeDeviceRepo{fleet: []models.Device{
		{ID: 1, Name: "bad", PollingEnabled: true},
		{ID: 2, Name: "good", PollingEnabled: true},
	}}

	p := &fakePoller{
		ifaceFn: func(id int64) ([]models.InterfaceMetric, error) {
			if id == 1 {
				panic("simulated poller panic")
			}
			return []models.InterfaceMetric{{DeviceID: id, InterfaceIndex: 1}}, nil
		},
	}

	o := New(DefaultConfig(), p, &fakeEngine{}, devices, &fakeAlarmRepo{}, &fakeMetricsRepo{}, &fakeUpstream{}, logger.NewNop())

	require.NoError(t, o.Initialize(context.Background()))
	require.NoError(t, o.RunCycle(context.Background()))

	assert.Equal(t, models.StatusOnline, devices.statusCalls[2], "device 2 must complete despite device 1 panicking")
}

func TestShutdownClosesPoller(t *testing.T) {
	p := &fakePoller{}
	o := New(DefaultConfig(), p, &fakeEngine{}, &fakeDeviceRepo{}, &fakeAlarmRepo{}, &fakeMetricsRepo{}, &fakeUpstream{}, logger.NewNop())

	o.Shutdown()
	assert.True(t, p.closed)
}

func TestRunExitsPromptlyOnContextCancellation(t *testing.T) {
	devices := &fakeDeviceRepo{}
	o := New(DefaultConfig(), &fakePoller{}, &fakeEngine{}, devices, &fakeAlarmRepo{}, &fakeMetricsRepo{}, &fakeUpstream{}, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		o.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not exit after context cancellation")
	}
}
