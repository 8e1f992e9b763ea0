// Package config loads netmon's runtime configuration by precedence:
// built-in defaults, then environment variables, then an optional JSON
// file. There is no nested-struct reflection loader here: the variable
// table is small and flat, so each field is read directly.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Config is the complete set of tunables netmon needs at startup.
type Config struct {
	Env      string `json:"env"`
	Debug    bool   `json:"debug"`
	LogLevel string `json:"log_level"`

	DBHost     string `json:"db_host"`
	DBPort     int    `json:"db_port"`
	DBUser     string `json:"db_user"`
	DBPassword string `json:"db_password"`
	DBName     string `json:"db_name"`
	DBPoolSize int    `json:"db_pool_size"`

	SNMPTimeoutSeconds int `json:"snmp_timeout_seconds"`
	SNMPRetries        int `json:"snmp_retries"`
	MaxConcurrentPollers int `json:"max_concurrent_pollers"`

	InterfacePollIntervalSeconds   int `json:"interface_poll_interval_seconds"`
	CPUMemoryPollIntervalSeconds   int `json:"cpu_memory_poll_interval_seconds"`
	InventoryPollIntervalSeconds   int `json:"inventory_poll_interval_seconds"`

	CPUThreshold         float64 `json:"cpu_threshold"`
	MemoryThreshold      float64 `json:"memory_threshold"`
	TemperatureThreshold float64 `json:"temperature_threshold"`

	BackendAPIURL     string `json:"backend_api_url"`
	APITimeoutSeconds int    `json:"api_timeout_seconds"`

	VendorOIDConfigPath string `json:"vendor_oid_config_path"`
}

// Validator is implemented by types that can check their own invariants
// after loading. Config implements it; callers run Validate after Load
// to enforce the production-password rule.
type Validator interface {
	Validate() error
}

// Default returns the built-in defaults from spec section 6, before any
// environment or file overrides are applied.
func Default() *Config {
	return &Config{
		Env:      "development",
		Debug:    false,
		LogLevel: "INFO",

		DBHost:     "localhost",
		DBPort:     5432,
		DBUser:     "nms_user",
		DBPassword: "",
		DBName:     "nms_db",
		DBPoolSize: 10,

		SNMPTimeoutSeconds:    5,
		SNMPRetries:           3,
		MaxConcurrentPollers:  20,

		InterfacePollIntervalSeconds: 30,
		CPUMemoryPollIntervalSeconds: 300,
		InventoryPollIntervalSeconds: 3600,

		CPUThreshold:         80.0,
		MemoryThreshold:      80.0,
		TemperatureThreshold: 80.0,

		BackendAPIURL:     "http://localhost:3000",
		APITimeoutSeconds: 10,

		VendorOIDConfigPath: "",
	}
}

// envLookup abstracts os.LookupEnv so tests can inject a fixed table
// instead of mutating process environment.
type envLookup func(key string) (string, bool)

// Load builds a Config starting from Default(), applying environment
// variables, then applying filePath (if non-empty and the file exists).
func Load(filePath string) (*Config, error) {
	return load(filePath, os.LookupEnv)
}

func load(filePath string, lookup envLookup) (*Config, error) {
	cfg := Default()
	applyEnv(cfg, lookup)

	if filePath != "" {
		if _, err := os.Stat(filePath); err == nil {
			if err := applyFile(cfg, filePath); err != nil {
				return nil, fmt.Errorf("config: loading override file %q: %w", filePath, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: checking override file %q: %w", filePath, err)
		}
	}

	return cfg, nil
}

func applyFile(cfg *Config, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, cfg)
}

func applyEnv(cfg *Config, lookup envLookup) {
	str(lookup, "NMS_ENV", &cfg.Env)
	boolean(lookup, "NMS_DEBUG", &cfg.Debug)
	str(lookup, "NMS_LOG_LEVEL", &cfg.LogLevel)

	str(lookup, "DB_HOST", &cfg.DBHost)
	integer(lookup, "DB_PORT", &cfg.DBPort)
	str(lookup, "DB_USER", &cfg.DBUser)
	str(lookup, "DB_PASSWORD", &cfg.DBPassword)
	str(lookup, "DB_NAME", &cfg.DBName)
	integer(lookup, "DB_POOL_SIZE", &cfg.DBPoolSize)

	integer(lookup, "SNMP_TIMEOUT", &cfg.SNMPTimeoutSeconds)
	integer(lookup, "SNMP_RETRIES", &cfg.SNMPRetries)
	integer(lookup, "MAX_CONCURRENT_POLLERS", &cfg.MaxConcurrentPollers)

	integer(lookup, "INTERFACE_POLL_INTERVAL", &cfg.InterfacePollIntervalSeconds)
	integer(lookup, "CPU_MEMORY_POLL_INTERVAL", &cfg.CPUMemoryPollIntervalSeconds)
	integer(lookup, "INVENTORY_POLL_INTERVAL", &cfg.InventoryPollIntervalSeconds)

	float(lookup, "CPU_THRESHOLD", &cfg.CPUThreshold)
	float(lookup, "MEMORY_THRESHOLD", &cfg.MemoryThreshold)
	float(lookup, "TEMPERATURE_THRESHOLD", &cfg.TemperatureThreshold)

	str(lookup, "BACKEND_API_URL", &cfg.BackendAPIURL)
	integer(lookup, "API_TIMEOUT", &cfg.APITimeoutSeconds)

	str(lookup, "VENDOR_OID_CONFIG_PATH", &cfg.VendorOIDConfigPath)
}

func str(lookup envLookup, key string, dst *string) {
	if v, ok := lookup(key); ok && v != "" {
		*dst = v
	}
}

func boolean(lookup envLookup, key string, dst *bool) {
	v, ok := lookup(key)
	if !ok || v == "" {
		return
	}

	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return
	}

	*dst = parsed
}

func integer(lookup envLookup, key string, dst *int) {
	v, ok := lookup(key)
	if !ok || v == "" {
		return
	}

	parsed, err := strconv.Atoi(v)
	if err != nil {
		return
	}

	*dst = parsed
}

func float(lookup envLookup, key string, dst *float64) {
	v, ok := lookup(key)
	if !ok || v == "" {
		return
	}

	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return
	}

	*dst = parsed
}

// Validate enforces the one hard startup invariant: a production
// deployment must carry a database password.
func (c *Config) Validate() error {
	if c.Env == "production" && c.DBPassword == "" {
		return fmt.Errorf("config: DB_PASSWORD is required when NMS_ENV=production")
	}

	return nil
}
