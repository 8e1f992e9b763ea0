package poller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-nms/netmon/pkg/logger"
	"github.com/kestrel-nms/netmon/pkg/models"
)

// fakeSession is a hand-written test double; the poller depends only on
// the narrow Session interface so no network or gosnmp machinery is
// needed to exercise it.
type fakeSession struct {
	walkResults  map[string]map[string]interface{}
	getResults   map[string]interface{}
	multiResults map[string]interface{}
	closed       bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		walkResults:  make(map[string]map[string]interface{}),
		getResults:   make(map[string]interface{}),
		multiResults: make(map[string]interface{}),
	}
}

func (f *fakeSession) Probe() bool { return true }

func (f *fakeSession) Get(oid string) (interface{}, error) {
	return f.getResults[oid], nil
}

func (f *fakeSession) GetMultiple(oids []string) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(oids))
	for _, o := range oids {
		out[o] = f.multiResults[o]
	}

	return out, nil
}

func (f *fakeSession) Walk(rootOID string) (map[string]interface{}, error) {
	return f.walkResults[rootOID], nil
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

func testPoller(sess Session) *Poller {
	return New(func(models.Device) Session { return sess }, logger.NewNop())
}

func TestRegisterSkipsDisabledDevices(t *testing.T) {
	sess := newFakeSession()
	p := testPoller(sess)

	p.Register(models.Device{ID: 1, PollingEnabled: false})

	_, err := p.PollInterfaces(1)
	assert.Error(t, err)
}

func TestPollInterfacesBuildsOneMetricPerIndex(t *testing.T) {
	sess := newFakeSession()
	sess.walkResults[oidIfIndex] = map[string]interface{}{
		oidIfIndex + ".1": 1,
		oidIfIndex + ".2": 2,
	}
	sess.multiResults = map[string]interface{}{
		oidIfDescrBase + ".1": "Gi0/1",
		oidIfAdminBase + ".1": 1,
		oidIfOperBase + ".1":  2,
		oidIfDescrBase + ".2": "Gi0/2",
		oidIfAdminBase + ".2": 1,
		oidIfOperBase + ".2":  1,
	}

	p := testPoller(sess)
	p.Register(models.Device{ID: 1, PollingEnabled: true})

	metrics, err := p.PollInterfaces(1)
	require.NoError(t, err)
	require.Len(t, metrics, 2)

	byIndex := map[int]models.InterfaceMetric{}
	for _, m := range metrics {
		byIndex[m.InterfaceIndex] = m
	}

	assert.Equal(t, models.LinkDown, byIndex[1].OperStatus)
	assert.True(t, byIndex[1].IsPortDown())
	assert.Equal(t, models.LinkUp, byIndex[2].OperStatus)
	assert.False(t, byIndex[2].IsPortDown())
	assert.Equal(t, 1500, *byIndex[1].MTU)
}

func TestPollHealthReturnsNilWhenUptimeMissing(t *testing.T) {
	sess := newFakeSession()
	p := testPoller(sess)
	p.Register(models.Device{ID: 1, PollingEnabled: true, Vendor: models.VendorGeneric})

	m, err := p.PollHealth(1)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestPollHealthComputesUptimeSeconds(t *testing.T) {
	sess := newFakeSession()
	sess.getResults[oidSysUptime] = 123456
	sess.getResults[oidSysName] = "router1"

	p := testPoller(sess)
	p.Register(models.Device{ID: 1, PollingEnabled: true, Vendor: models.VendorGeneric})

	m, err := p.PollHealth(1)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, int64(1234), m.UptimeSeconds)
	assert.Equal(t, "router1", m.DeviceName)
}

func TestPollHealthCiscoMemoryUsage(t *testing.T) {
	sess := newFakeSession()
	sess.getResults[oidSysUptime] = 100
	sess.getResults["1.3.6.1.4.1.9.9.48.1.1.1.5.1"] = 75.0
	sess.getResults["1.3.6.1.4.1.9.9.48.1.1.1.6.1"] = 25.0

	p := testPoller(sess)
	p.Register(models.Device{ID: 1, PollingEnabled: true, Vendor: models.VendorCisco})

	m, err := p.PollHealth(1)
	require.NoError(t, err)
	require.NotNil(t, m.MemoryUsage)
	assert.InDelta(t, 75.0, *m.MemoryUsage, 0.001)
}

func TestScaleCiscoTemperature(t *testing.T) {
	assert.Equal(t, 25.0, scaleCiscoTemperature(25))
	assert.Equal(t, 25.0, scaleCiscoTemperature(250))
	assert.Equal(t, 25.0, scaleCiscoTemperature(25000))
}

func TestPollInventoryClassifiesVendorAndExtractsFirmware(t *testing.T) {
	sess := newFakeSession()
	sess.getResults[oidSysDescr] = "Cisco IOS Software, Version 15.2(4)M3, RELEASE SOFTWARE"
	sess.walkResults[oidEntPhysicalSerial] = map[string]interface{}{oidEntPhysicalSerial + ".1": "FTX1234"}

	p := testPoller(sess)
	p.Register(models.Device{ID: 1, PollingEnabled: true})

	inv, err := p.PollInventory(1)
	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.Equal(t, string(models.VendorCisco), inv.Vendor)
	assert.Equal(t, "FTX1234", inv.SerialNumber)
	assert.Equal(t, "15.2(4)M3", inv.FirmwareVersion)
}

func TestPollInventoryAbortsOnMissingSysDescr(t *testing.T) {
	sess := newFakeSession()
	p := testPoller(sess)
	p.Register(models.Device{ID: 1, PollingEnabled: true})

	inv, err := p.PollInventory(1)
	require.NoError(t, err)
	assert.Nil(t, inv)
}

func TestUnregisterClosesSession(t *testing.T) {
	sess := newFakeSession()
	p := testPoller(sess)
	p.Register(models.Device{ID: 1, PollingEnabled: true})

	p.Unregister(1)
	assert.True(t, sess.closed)

	_, err := p.PollInterfaces(1)
	assert.Error(t, err)
}
