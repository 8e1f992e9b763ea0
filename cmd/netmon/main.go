// Command netmon runs the network monitoring service: it polls a fleet
// of SNMP-speaking devices, evaluates alarms, and persists both
// time-series observations and alarm events.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kestrel-nms/netmon/pkg/alarm"
	"github.com/kestrel-nms/netmon/pkg/config"
	"github.com/kestrel-nms/netmon/pkg/logger"
	"github.com/kestrel-nms/netmon/pkg/models"
	"github.com/kestrel-nms/netmon/pkg/oidcatalog"
	"github.com/kestrel-nms/netmon/pkg/orchestrator"
	"github.com/kestrel-nms/netmon/pkg/poller"
	"github.com/kestrel-nms/netmon/pkg/repository"
	"github.com/kestrel-nms/netmon/pkg/snmpsession"
	"github.com/kestrel-nms/netmon/pkg/upstream"
)

func main() {
	configPath := flag.String("config", "/etc/netmon/config.json", "path to an optional JSON config override")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		os.Stderr.WriteString("netmon: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		os.Stderr.WriteString("netmon: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(&logger.Config{Level: cfg.LogLevel, Debug: cfg.Debug}, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("netmon exited with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	catalog, err := loadCatalog(cfg, log)
	if err != nil {
		return err
	}

	log.Info().Int("oid_count", catalog.Len()).Msg("loaded oid catalog")

	pool, err := repository.NewPool(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := repository.InitSchema(ctx, pool); err != nil {
		return err
	}

	deviceRepo := repository.NewDeviceRepository(pool)
	alarmRepo := repository.NewAlarmRepository(pool)
	metricsRepo := repository.NewMetricsRepository(pool)

	apiClient := upstream.New(cfg.BackendAPIURL, time.Duration(cfg.APITimeoutSeconds)*time.Second, log.WithComponent("upstream"))

	pollerLog := log.WithComponent("poller")
	p := poller.New(newSessionFactory(cfg, pollerLog), pollerLog)

	engine := alarm.New(alarm.Thresholds{
		CPU:         cfg.CPUThreshold,
		Memory:      cfg.MemoryThreshold,
		Temperature: cfg.TemperatureThreshold,
	})

	orchCfg := orchestrator.Config{
		MaxConcurrentPollers:  cfg.MaxConcurrentPollers,
		InterfacePollInterval: time.Duration(cfg.InterfacePollIntervalSeconds) * time.Second,
		InventoryPollInterval: time.Duration(cfg.InventoryPollIntervalSeconds) * time.Second,
		CycleErrorBackoff:     5 * time.Second,
	}

	orch := orchestrator.New(orchCfg, p, engine, deviceRepo, alarmRepo, metricsRepo, apiClient, log.WithComponent("orchestrator"))

	if err := orch.Initialize(ctx); err != nil {
		return err
	}

	orch.Run(ctx)
	orch.Shutdown()

	log.Info().Msg("netmon shut down cleanly")

	return nil
}

func newSessionFactory(cfg *config.Config, log logger.Logger) poller.SessionFactory {
	return func(device models.Device) poller.Session {
		return snmpsession.New(snmpsession.Config{
			Address:         device.IPAddress,
			Port:            device.SNMP.Port,
			CommunityString: device.SNMP.CommunityString,
			Timeout:         time.Duration(cfg.SNMPTimeoutSeconds) * time.Second,
			Retries:         cfg.SNMPRetries,
			BulkWalkEnabled: true,
		}, log)
	}
}

func loadCatalog(cfg *config.Config, log logger.Logger) (*oidcatalog.Catalog, error) {
	if cfg.VendorOIDConfigPath == "" {
		return oidcatalog.New(), nil
	}

	if _, err := os.Stat(cfg.VendorOIDConfigPath); err != nil {
		log.Warn().Str("path", cfg.VendorOIDConfigPath).Msg("vendor oid override not found, using built-in catalog")
		return oidcatalog.New(), nil
	}

	return oidcatalog.LoadOverride(cfg.VendorOIDConfigPath)
}
