package snmpsession

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-nms/netmon/pkg/logger"
)

func TestProbeSucceedsAgainstOpenPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	s := New(Config{Address: "127.0.0.1", Port: addr.Port, Timeout: time.Second}, logger.NewNop())

	assert.True(t, s.Probe())
}

func TestProbeFailsAgainstClosedPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	s := New(Config{Address: "127.0.0.1", Port: port, Timeout: 100 * time.Millisecond}, logger.NewNop())

	assert.False(t, s.Probe())
}

func TestGetMultipleReturnsUnreachableWithoutProbe(t *testing.T) {
	s := New(Config{Address: "127.0.0.1", Port: 1, Timeout: 50 * time.Millisecond}, logger.NewNop())

	_, err := s.GetMultiple([]string{"1.3.6.1.2.1.1.1.0"})
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestSafeIntCoercion(t *testing.T) {
	assert.Equal(t, 5, SafeInt(5, 0))
	assert.Equal(t, 5, SafeInt("5", 0))
	assert.Equal(t, 0, SafeInt(nil, 0))
	assert.Equal(t, 1500, SafeInt("garbage123", 1500))
	assert.Equal(t, 1500, SafeInt("", 1500))
	assert.Equal(t, -3, SafeInt("-3", 0))
}

func TestSafeFloatCoercion(t *testing.T) {
	assert.Equal(t, 3.14, SafeFloat("3.14", 0))
	assert.Equal(t, 0.0, SafeFloat(nil, 0))
	assert.Equal(t, 42.0, SafeFloat("42e0", 0))
	assert.Equal(t, 80.0, SafeFloat("abc", 80.0))
}

func TestCloseWithoutConnectIsNoop(t *testing.T) {
	s := New(Config{Address: "127.0.0.1", Port: 161}, logger.NewNop())
	assert.NoError(t, s.Close())
}
