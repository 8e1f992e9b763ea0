// Package oidcatalog is the static, shared-immutable registry mapping
// numeric SNMP object identifiers to semantic names, types, units, and
// vendors. It is populated from built-in tables at construction and can
// be entirely replaced (never merged) by a JSON override file.
package oidcatalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/kestrel-nms/netmon/pkg/models"
)

// Catalog is safe for concurrent read access once built; it is never
// mutated after construction, matching the "shared-immutable" ownership
// rule for OIDMapping.
type Catalog struct {
	mu      sync.RWMutex
	byOID   map[string]models.OIDMapping
	byName  map[string]models.OIDMapping
}

// New builds a Catalog from the four built-in vendor tables.
func New() *Catalog {
	c := &Catalog{
		byOID:  make(map[string]models.OIDMapping),
		byName: make(map[string]models.OIDMapping),
	}

	for _, m := range genericOIDs() {
		c.register(m)
	}

	for _, m := range ciscoOIDs() {
		c.register(m)
	}

	for _, m := range fortinetOIDs() {
		c.register(m)
	}

	for _, m := range mikrotikOIDs() {
		c.register(m)
	}

	return c
}

// LoadOverride builds a Catalog entirely from the JSON file at path,
// replacing (not merging with) the built-in tables, per the
// VENDOR_OID_CONFIG_PATH contract.
func LoadOverride(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("oidcatalog: reading override %q: %w", path, err)
	}

	var raw map[string]models.OIDMapping
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("oidcatalog: parsing override %q: %w", path, err)
	}

	c := &Catalog{
		byOID:  make(map[string]models.OIDMapping),
		byName: make(map[string]models.OIDMapping),
	}

	for oid, m := range raw {
		if m.OID == "" {
			m.OID = oid
		}

		if m.ConversionFactor == 0 {
			m.ConversionFactor = 1.0
		}

		c.register(m)
	}

	return c, nil
}

func (c *Catalog) register(m models.OIDMapping) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.byOID[m.OID] = m
	c.byName[m.Name] = m
}

// ByOID looks up a mapping by its numeric identifier.
func (c *Catalog) ByOID(oid string) (models.OIDMapping, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.byOID[oid]
	return m, ok
}

// ByName looks up a mapping by its semantic name.
func (c *Catalog) ByName(name string) (models.OIDMapping, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.byName[name]
	return m, ok
}

// ForVendor returns every mapping registered for vendor.
func (c *Catalog) ForVendor(vendor models.Vendor) []models.OIDMapping {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.OIDMapping, 0)
	for _, m := range c.byOID {
		if m.Vendor == vendor {
			out = append(out, m)
		}
	}

	return out
}

// InterfaceOIDs returns the generic-vendor mappings whose name contains
// "if", i.e. the interface-table columns.
func (c *Catalog) InterfaceOIDs() []models.OIDMapping {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.OIDMapping, 0)
	for _, m := range c.byOID {
		if m.Vendor == models.VendorGeneric && strings.Contains(strings.ToLower(m.Name), "if") {
			out = append(out, m)
		}
	}

	return out
}

// HealthOIDs returns the mappings for vendor whose name suggests a
// health metric (cpu/mem/temperature).
func (c *Catalog) HealthOIDs(vendor models.Vendor) []models.OIDMapping {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.OIDMapping, 0)
	for _, m := range c.byOID {
		if m.Vendor != vendor {
			continue
		}

		lower := strings.ToLower(m.Name)
		if strings.Contains(lower, "cpu") || strings.Contains(lower, "mem") || strings.Contains(lower, "temp") {
			out = append(out, m)
		}
	}

	return out
}

// ToJSON exports the full catalog (keyed by OID) for round-tripping
// through LoadOverride.
func (c *Catalog) ToJSON() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return json.MarshalIndent(c.byOID, "", "  ")
}

// Len returns the number of distinct OIDs registered.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.byOID)
}
