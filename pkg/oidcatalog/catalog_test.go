package oidcatalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-nms/netmon/pkg/models"
)

func TestNewPopulatesAllVendorTables(t *testing.T) {
	c := New()
	assert.Equal(t, len(genericOIDs())+len(ciscoOIDs())+len(fortinetOIDs())+len(mikrotikOIDs()), c.Len())
}

func TestLookupsAreInverseBijections(t *testing.T) {
	c := New()

	c.mu.RLock()
	defer c.mu.RUnlock()

	for oid, m := range c.byOID {
		byName, ok := c.byName[m.Name]
		require.True(t, ok, "name %q missing from byName index", m.Name)
		assert.Equal(t, oid, byName.OID)
	}

	for name, m := range c.byName {
		byOID, ok := c.byOID[m.OID]
		require.True(t, ok, "oid %q missing from byOID index", m.OID)
		assert.Equal(t, name, byOID.Name)
	}
}

func TestSysDescrAndSysUpTimeKnownValues(t *testing.T) {
	c := New()

	m, ok := c.ByName("sysDescr")
	require.True(t, ok)
	assert.Equal(t, "1.3.6.1.2.1.1.1.0", m.OID)

	m, ok = c.ByName("sysUpTime")
	require.True(t, ok)
	assert.Equal(t, "1.3.6.1.2.1.1.3.0", m.OID)
	assert.Equal(t, 0.01, m.ConversionFactor)
}

func TestForVendorFiltersByVendor(t *testing.T) {
	c := New()

	cisco := c.ForVendor(models.VendorCisco)
	for _, m := range cisco {
		assert.Equal(t, models.VendorCisco, m.Vendor)
	}
	assert.Len(t, cisco, len(ciscoOIDs()))
}

func TestHealthOIDsFiltersByNameSubstring(t *testing.T) {
	c := New()

	health := c.HealthOIDs(models.VendorFortinet)
	assert.Len(t, health, 3)
}

func TestJSONRoundTripReconstructsEqualCatalog(t *testing.T) {
	c := New()

	data, err := c.ToJSON()
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	reloaded, err := LoadOverride(path)
	require.NoError(t, err)

	assert.Equal(t, c.Len(), reloaded.Len())

	c.mu.RLock()
	defer c.mu.RUnlock()

	for oid, m := range c.byOID {
		got, ok := reloaded.ByOID(oid)
		require.True(t, ok)
		assert.Equal(t, m, got)
	}
}

func TestLoadOverrideReplacesNotMerges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"1.2.3.4": {"oid": "1.2.3.4", "name": "customThing", "metric_type": "gauge"}
	}`), 0o600))

	c, err := LoadOverride(path)
	require.NoError(t, err)

	assert.Equal(t, 1, c.Len())
	_, ok := c.ByName("sysDescr")
	assert.False(t, ok, "override must replace built-ins, not merge with them")

	m, ok := c.ByName("customThing")
	require.True(t, ok)
	assert.Equal(t, 1.0, m.ConversionFactor, "missing conversion_factor defaults to 1.0")
}
