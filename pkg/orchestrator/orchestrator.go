// Package orchestrator owns the polling cycle: it fans the fleet out to
// the poller, drains results into the alarm engine, commits records to
// storage, mirrors to the upstream API, and propagates reachability.
// Per-device work is isolated behind a fault barrier so one bad device
// never stalls the fleet.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kestrel-nms/netmon/pkg/logger"
	"github.com/kestrel-nms/netmon/pkg/models"
)

// Poller is the subset of pkg/poller.Poller the orchestrator depends on.
type Poller interface {
	Register(device models.Device)
	Unregister(deviceID int64)
	CloseAll()
	PollInterfaces(deviceID int64) ([]models.InterfaceMetric, error)
	PollHealth(deviceID int64) (*models.DeviceHealthMetric, error)
	PollInventory(deviceID int64) (*models.DeviceInventory, error)
}

// AlarmEngine is the subset of pkg/alarm.Engine the orchestrator depends on.
type AlarmEngine interface {
	EvaluateInterfaceMetric(m models.InterfaceMetric) []models.Alarm
	EvaluateDeviceHealth(m models.DeviceHealthMetric) []models.Alarm
	DeviceUnreachable(deviceID int64, deviceName string) *models.Alarm
	DeviceRecovered(deviceID int64, deviceName string) *models.Alarm
}

// DeviceRepo is the subset of pkg/repository.DeviceRepository the
// orchestrator depends on.
type DeviceRepo interface {
	GetAllEnabled(ctx context.Context) ([]models.Device, error)
	UpdateStatus(ctx context.Context, deviceID int64, status models.ConnectionStatus) bool
}

// AlarmRepo is the subset of pkg/repository.AlarmRepository the
// orchestrator depends on.
type AlarmRepo interface {
	Create(ctx context.Context, a models.Alarm) (models.Alarm, error)
}

// MetricsRepo is the subset of pkg/repository.MetricsRepository the
// orchestrator depends on.
type MetricsRepo interface {
	SaveInterfaceMetrics(ctx context.Context, metrics []models.InterfaceMetric) error
	SaveHealthMetrics(ctx context.Context, m models.DeviceHealthMetric) error
	SaveInventory(ctx context.Context, inv models.DeviceInventory) error
}

// UpstreamAPI is the subset of pkg/upstream.Client the orchestrator
// depends on.
type UpstreamAPI interface {
	PushAlarm(ctx context.Context, a models.Alarm)
	UpdateDeviceStatus(ctx context.Context, deviceID int64, status models.ConnectionStatus)
	PushInterfaceMetrics(ctx context.Context, deviceID int64, metrics []models.InterfaceMetric)
	PushHealthMetrics(ctx context.Context, m models.DeviceHealthMetric)
	PushInventory(ctx context.Context, inv models.DeviceInventory)
}

// Config holds the cycle's timing and concurrency tunables.
type Config struct {
	MaxConcurrentPollers        int
	InterfacePollInterval       time.Duration
	InventoryPollInterval       time.Duration
	CycleErrorBackoff           time.Duration
}

// DefaultConfig matches the documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentPollers:  20,
		InterfacePollInterval: 30 * time.Second,
		InventoryPollInterval: 3600 * time.Second,
		CycleErrorBackoff:     5 * time.Second,
	}
}

// Orchestrator runs the polling cycle against a registered fleet.
type Orchestrator struct {
	log     logger.Logger
	cfg     Config
	poller  Poller
	engine  AlarmEngine
	devices DeviceRepo
	alarms  AlarmRepo
	metrics MetricsRepo
	api     UpstreamAPI

	mu                sync.Mutex
	fleet             []models.Device
	lastInventoryPoll map[int64]time.Time
}

// New builds an Orchestrator from its collaborators. All are injected
// explicitly; there is no package-level state.
func New(cfg Config, poller Poller, engine AlarmEngine, devices DeviceRepo, alarms AlarmRepo, metrics MetricsRepo, api UpstreamAPI, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		log:               log,
		cfg:               cfg,
		poller:            poller,
		engine:            engine,
		devices:           devices,
		alarms:            alarms,
		metrics:           metrics,
		api:               api,
		lastInventoryPoll: make(map[int64]time.Time),
	}
}

// Initialize loads every polling-enabled device and registers it with
// the poller.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	fleet, err := o.devices.GetAllEnabled(ctx)
	if err != nil {
		return err
	}

	o.mu.Lock()
	o.fleet = fleet
	o.mu.Unlock()

	for _, d := range fleet {
		o.poller.Register(d)
	}

	o.log.Info().Int("device_count", len(fleet)).Msg("registered fleet for polling")

	return nil
}

// Run executes cycles until ctx is cancelled. A top-level cancellation
// exits gracefully after the in-flight cycle completes; any error
// escaping RunCycle sleeps briefly and continues rather than exiting.
func (o *Orchestrator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			o.log.Info().Msg("orchestrator stopping: context cancelled")
			return
		default:
		}

		if err := o.RunCycle(ctx); err != nil {
			o.log.Error().Err(err).Msg("polling cycle failed, backing off")

			select {
			case <-ctx.Done():
				return
			case <-time.After(o.cfg.CycleErrorBackoff):
			}

			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(o.cfg.InterfacePollInterval):
		}
	}
}

// RunCycle fans the fleet out to the poller with bounded concurrency,
// isolating every device behind its own fault barrier. Every log record
// emitted over the course of the cycle carries a fresh cycle_id so a
// single iteration's device-by-device trail can be correlated in the
// log sink.
func (o *Orchestrator) RunCycle(ctx context.Context) error {
	cycleID := uuid.New().String()
	cycleLog := o.log.WithFields(map[string]interface{}{"cycle_id": cycleID})

	o.mu.Lock()
	fleet := make([]models.Device, len(o.fleet))
	copy(fleet, o.fleet)
	o.mu.Unlock()

	cycleLog.Debug().Int("device_count", len(fleet)).Msg("polling cycle starting")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.MaxConcurrentPollers)

	for _, device := range fleet {
		device := device

		g.Go(func() error {
			o.processDevice(gctx, device, cycleLog)
			return nil
		})
	}

	return g.Wait()
}

// processDevice implements the per-cycle, per-device sequence from the
// orchestration design: interface poll, conditional inventory poll,
// health poll, and reachability fallback. Any panic or error here is
// contained to this device and logged with device context.
func (o *Orchestrator) processDevice(ctx context.Context, device models.Device, cycleLog logger.Logger) {
	log := cycleLog.WithFields(map[string]interface{}{"device_id": device.ID, "device_name": device.Name})

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("device poll cycle panicked")
		}
	}()

	deviceOnline := false

	ifaceMetrics, err := o.poller.PollInterfaces(device.ID)
	if err != nil {
		log.Warn().Err(err).Msg("interface poll failed")
	} else if len(ifaceMetrics) > 0 {
		deviceOnline = true
		o.markOnline(ctx, device)

		if o.inventoryDue(device.ID) {
			o.pollAndPersistInventory(ctx, device, log)
		}

		for _, m := range ifaceMetrics {
			for _, a := range o.engine.EvaluateInterfaceMetric(m) {
				o.persistAndMirrorAlarm(ctx, a, log)
			}
		}

		if err := o.metrics.SaveInterfaceMetrics(ctx, ifaceMetrics); err != nil {
			log.Warn().Err(err).Msg("persisting interface metrics failed")
		}

		o.api.PushInterfaceMetrics(ctx, device.ID, ifaceMetrics)
	}

	health, err := o.poller.PollHealth(device.ID)
	if err != nil {
		log.Warn().Err(err).Msg("health poll failed")
	} else if health != nil {
		deviceOnline = true
		o.markOnline(ctx, device)

		for _, a := range o.engine.EvaluateDeviceHealth(*health) {
			o.persistAndMirrorAlarm(ctx, a, log)
		}

		if err := o.metrics.SaveHealthMetrics(ctx, *health); err != nil {
			log.Warn().Err(err).Msg("persisting health metrics failed")
		}

		o.api.PushHealthMetrics(ctx, *health)
	}

	if !deviceOnline {
		o.markOffline(ctx, device, log)
		return
	}

	if a := o.engine.DeviceRecovered(device.ID, device.Name); a != nil {
		o.persistAndMirrorAlarm(ctx, *a, log)
	}
}

func (o *Orchestrator) markOnline(ctx context.Context, device models.Device) {
	o.devices.UpdateStatus(ctx, device.ID, models.StatusOnline)
	o.api.UpdateDeviceStatus(ctx, device.ID, models.StatusOnline)
}

func (o *Orchestrator) markOffline(ctx context.Context, device models.Device, log logger.Logger) {
	o.devices.UpdateStatus(ctx, device.ID, models.StatusOffline)
	o.api.UpdateDeviceStatus(ctx, device.ID, models.StatusOffline)

	if a := o.engine.DeviceUnreachable(device.ID, device.Name); a != nil {
		o.persistAndMirrorAlarm(ctx, *a, log)
	}
}

func (o *Orchestrator) persistAndMirrorAlarm(ctx context.Context, a models.Alarm, log logger.Logger) {
	created, err := o.alarms.Create(ctx, a)
	if err != nil {
		log.Error().Err(err).Msg("persisting alarm failed, skipping upstream mirror")
		return
	}

	o.api.PushAlarm(ctx, created)
}

func (o *Orchestrator) pollAndPersistInventory(ctx context.Context, device models.Device, log logger.Logger) {
	inv, err := o.poller.PollInventory(device.ID)
	if err != nil {
		log.Warn().Err(err).Msg("inventory poll failed")
		return
	}

	if inv == nil {
		return
	}

	if err := o.metrics.SaveInventory(ctx, *inv); err != nil {
		log.Warn().Err(err).Msg("persisting inventory failed")
		return
	}

	o.api.PushInventory(ctx, *inv)

	o.mu.Lock()
	o.lastInventoryPoll[device.ID] = time.Now().UTC()
	o.mu.Unlock()
}

func (o *Orchestrator) inventoryDue(deviceID int64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	last, ok := o.lastInventoryPoll[deviceID]
	if !ok {
		return true
	}

	return time.Since(last) > o.cfg.InventoryPollInterval
}

// Shutdown releases every poller session. Called once the final cycle
// completes.
func (o *Orchestrator) Shutdown() {
	o.poller.CloseAll()
}
