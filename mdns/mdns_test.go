package mdns

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	a := New(&Config{Address: net.IPv4(8, 8, 8, 8)})

	assert.Equal(t, "smart", a.hostname)
	assert.Equal(t, "smart", a.instance)
	assert.Equal(t, "_http._tcp", a.service)
	assert.Equal(t, "local.", a.domain)
	assert.Equal(t, 80, a.port)
	assert.Equal(t, []string{"path=/"}, a.text)
	assert.Equal(t, "smart.local", a.Host())
}

func TestCustomHostname(t *testing.T) {
	a := New(&Config{
		Hostname: "portal.",
		Instance: "Portal Setup",
		Port:     8080,
		Address:  net.IPv4(192, 168, 4, 1),
		TTL:      time.Minute,
	})

	assert.Equal(t, "portal.local", a.Host())
	assert.Equal(t, "Portal Setup", a.instance)
	assert.Equal(t, 8080, a.port)
}

func TestIps(t *testing.T) {
	a := New(&Config{Address: net.IPv4(8, 8, 8, 8)})

	ips, err := a.ips()
	require.NoError(t, err)
	assert.Equal(t, []string{"8.8.8.8"}, ips)

	a = New(&Config{Address: net.ParseIP("fe80::1")})

	_, err = a.ips()
	assert.Error(t, err)
}

func TestAllInterfacesWhenUnset(t *testing.T) {
	a := New(&Config{Address: net.IPv4(8, 8, 8, 8)})

	ifaces, err := a.interfaces()
	require.NoError(t, err)
	assert.Nil(t, ifaces)
}

func TestStartFailsForUnknownInterface(t *testing.T) {
	a := New(&Config{
		Address:   net.IPv4(8, 8, 8, 8),
		Interface: "does-not-exist0",
	})

	assert.Error(t, a.Start())
	assert.Nil(t, a.server)
}

func TestStopWithoutStart(t *testing.T) {
	a := New(&Config{Address: net.IPv4(8, 8, 8, 8)})

	assert.NoError(t, a.Stop())
}
