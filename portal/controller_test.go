package portal

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/the-lightning-land/smartd/connectivity"
	"github.com/the-lightning-land/smartd/network"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestController(t *testing.T, timeout time.Duration, ssids ...string) (*Controller, *network.MockNetwork, *fakeClock) {
	t.Helper()

	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	net := network.NewMockNetwork(&network.MockConfig{Ssids: ssids})

	c := New(&Config{
		Network:        net,
		Address:        []byte{8, 8, 8, 8},
		ConnectTimeout: timeout,
		Now:            clock.Now,
	})

	return c, net, clock
}

func TestIsForeignHost(t *testing.T) {
	c, _, _ := newTestController(t, 0)

	tests := []struct {
		host    string
		foreign bool
	}{
		{"", false},
		{"8.8.8.8", false},
		{"8.8.8.8:80", false},
		{"192.168.4.1", false},
		{"[fe80::1]", false},
		{"[fe80::1]:80", false},
		{"smart.local", false},
		{"SMART.local", false},
		{"smart.local.", false},
		{"smart.local:80", false},
		{"connectivitycheck.gstatic.com", true},
		{"www.msftconnecttest.com", true},
		{"smart", true},
		{"other.local", true},
		{"smart.local.example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.foreign, c.IsForeignHost(tt.host))
		})
	}
}

func TestIsForeignHostCustomHostname(t *testing.T) {
	c := New(&Config{Network: network.NewMockNetwork(&network.MockConfig{}), Hostname: "Kitchen"})

	assert.False(t, c.IsForeignHost("kitchen.local"))
	assert.True(t, c.IsForeignHost("smart.local"))
}

func TestRedirectURL(t *testing.T) {
	c, _, _ := newTestController(t, 0)

	assert.Equal(t, "http://8.8.8.8/", c.RedirectURL(nil))
	assert.Equal(t, "http://10.0.0.1/", c.RedirectURL(net.ParseIP("10.0.0.1")))
	assert.Equal(t, "http://8.8.8.8/", c.RedirectURL(net.IPv4zero))
	assert.Equal(t, "http://8.8.8.8/", c.RedirectURL(net.ParseIP("fe80::1")))
}

func TestConnectionsBeforeScan(t *testing.T) {
	c, _, _ := newTestController(t, 0)

	assert.JSONEq(t, `[]`, string(c.Connections()))
}

func TestRefreshScanCacheKeepsDiscoveryOrder(t *testing.T) {
	c, _, _ := newTestController(t, 0, "A", "B")

	require.True(t, c.RefreshScanCache(context.Background()))

	assert.Equal(t, `[{"name":"A"},{"name":"B"}]`, string(c.Connections()))
}

func TestRefreshScanCacheKeepsDuplicatesAndEscapes(t *testing.T) {
	c, _, _ := newTestController(t, 0, "A", `quote"d`, "A")

	require.True(t, c.RefreshScanCache(context.Background()))

	assert.JSONEq(t, `[{"name":"A"},{"name":"quote\"d"},{"name":"A"}]`, string(c.Connections()))
}

func TestRefreshScanCacheAtMostOncePerInterval(t *testing.T) {
	c, net, clock := newTestController(t, 0, "A")
	ctx := context.Background()

	assert.True(t, c.RefreshScanCache(ctx))

	for i := 0; i < 10; i++ {
		clock.Advance(2 * time.Second)
		assert.False(t, c.RefreshScanCache(ctx))
	}

	assert.Equal(t, 1, net.Scans())

	clock.Advance(10 * time.Second)
	assert.True(t, c.RefreshScanCache(ctx))
	assert.Equal(t, 2, net.Scans())
}

func TestRefreshScanCacheFailureKeepsCacheAndTimestamp(t *testing.T) {
	c, net, clock := newTestController(t, 0, "A", "B")
	ctx := context.Background()

	require.True(t, c.RefreshScanCache(ctx))

	net.SetScanError(errors.New("radio busy"))
	clock.Advance(ScanInterval)
	assert.True(t, c.RefreshScanCache(ctx))
	assert.Equal(t, `[{"name":"A"},{"name":"B"}]`, string(c.Connections()))

	// the failed attempt still counts against the interval
	net.SetScanError(nil)
	clock.Advance(ScanInterval / 2)
	assert.False(t, c.RefreshScanCache(ctx))
	assert.Equal(t, 2, net.Scans())
}

func TestRefreshScanCacheEmptyScanKeepsCache(t *testing.T) {
	c, net, clock := newTestController(t, 0, "A")
	ctx := context.Background()

	require.True(t, c.RefreshScanCache(ctx))

	net.SetSsids()
	clock.Advance(ScanInterval)
	assert.True(t, c.RefreshScanCache(ctx))
	assert.Equal(t, `[{"name":"A"}]`, string(c.Connections()))
}

func TestConnectDisablesScanningUntilTerminalStatus(t *testing.T) {
	c, net, clock := newTestController(t, 0, "A")
	ctx := context.Background()

	require.NoError(t, c.Connect("A", "secret"))
	assert.False(t, c.ScanningEnabled())
	assert.Equal(t, []network.Connection{&network.WpaPskConnection{Ssid: "A", Psk: "secret"}}, net.Connections())

	clock.Advance(time.Hour)
	assert.False(t, c.RefreshScanCache(ctx))
	assert.Equal(t, 0, net.Scans())

	assert.Equal(t, VerdictWait, c.PollConnection())
	assert.False(t, c.ScanningEnabled())

	net.SetStatus(network.StatusConnected)
	assert.Equal(t, VerdictOk, c.PollConnection())
	assert.True(t, c.ScanningEnabled())
	assert.Equal(t, connectivity.Connected, c.Connectivity().CurrentState())

	assert.True(t, c.RefreshScanCache(ctx))
	assert.Equal(t, 1, net.Scans())
}

func TestPollConnectionFailureReenablesScanning(t *testing.T) {
	c, net, _ := newTestController(t, 0, "A")

	require.NoError(t, c.Connect("A", "wrong"))

	net.SetStatus(network.StatusIdle)
	assert.Equal(t, VerdictWait, c.PollConnection())
	assert.False(t, c.ScanningEnabled())

	net.SetStatus(network.StatusFailed)
	assert.Equal(t, VerdictFail, c.PollConnection())
	assert.True(t, c.ScanningEnabled())

	// a failed attempt stays failed until the next submit
	net.SetStatus(network.StatusDisconnected)
	assert.Equal(t, VerdictFail, c.PollConnection())

	require.NoError(t, c.Connect("A", "right"))
	assert.Equal(t, VerdictWait, c.PollConnection())
}

func TestPollConnectionWithoutAttempt(t *testing.T) {
	c, net, _ := newTestController(t, 0)

	assert.Equal(t, VerdictWait, c.PollConnection())
	assert.True(t, c.ScanningEnabled())

	net.SetStatus(network.StatusConnected)
	assert.Equal(t, VerdictOk, c.PollConnection())
}

func TestConnectTimeoutFailsAttempt(t *testing.T) {
	c, _, clock := newTestController(t, time.Minute, "A")

	require.NoError(t, c.Connect("A", "secret"))

	clock.Advance(59 * time.Second)
	assert.Equal(t, VerdictWait, c.PollConnection())
	assert.False(t, c.ScanningEnabled())

	clock.Advance(time.Second)
	assert.Equal(t, VerdictFail, c.PollConnection())
	assert.True(t, c.ScanningEnabled())
	assert.Equal(t, connectivity.Failed, c.Connectivity().CurrentState())
}

func TestConnectWithoutTimeoutWaitsForever(t *testing.T) {
	c, _, clock := newTestController(t, 0, "A")

	require.NoError(t, c.Connect("A", "secret"))

	clock.Advance(24 * time.Hour)
	assert.Equal(t, VerdictWait, c.PollConnection())
	assert.False(t, c.ScanningEnabled())
}

type failingNetwork struct {
	*network.MockNetwork
}

func (failingNetwork) Connect(network.Connection) error {
	return errors.New("no such interface")
}

func TestConnectDriverErrorFailsAttempt(t *testing.T) {
	c := New(&Config{
		Network: failingNetwork{network.NewMockNetwork(&network.MockConfig{})},
	})

	assert.Error(t, c.Connect("A", ""))
	assert.Equal(t, connectivity.Failed, c.Connectivity().CurrentState())
	assert.True(t, c.ScanningEnabled())
	assert.Equal(t, VerdictFail, c.PollConnection())
}

// blockingNetwork holds connection requests until released.
type blockingNetwork struct {
	*network.MockNetwork
	entered chan struct{}
	release chan struct{}
}

func (n *blockingNetwork) Connect(connection network.Connection) error {
	close(n.entered)
	<-n.release
	return n.MockNetwork.Connect(connection)
}

func TestPollWaitsForConnectionRequest(t *testing.T) {
	mock := network.NewMockNetwork(&network.MockConfig{Ssids: []string{"A", "B"}})
	c := New(&Config{Network: mock})

	require.NoError(t, c.Connect("A", "secret"))
	mock.SetStatus(network.StatusConnected)
	require.Equal(t, VerdictOk, c.PollConnection())

	slow := &blockingNetwork{
		MockNetwork: mock,
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	c.network = slow

	connected := make(chan error, 1)
	go func() {
		connected <- c.Connect("B", "secret")
	}()

	<-slow.entered

	verdicts := make(chan Verdict, 1)
	go func() {
		verdicts <- c.PollConnection()
	}()

	select {
	case v := <-verdicts:
		require.Failf(t, "poll returned during connection request", "verdict %v", v)
	case <-time.After(50 * time.Millisecond):
	}

	assert.False(t, c.ScanningEnabled())

	close(slow.release)
	require.NoError(t, <-connected)

	assert.Equal(t, VerdictWait, <-verdicts)
	assert.Equal(t, connectivity.Connecting, c.Connectivity().CurrentState())
	assert.False(t, c.ScanningEnabled())
}

func TestConnectedStaysOkWhenRadioDrops(t *testing.T) {
	c, net, _ := newTestController(t, 0, "A")

	require.NoError(t, c.Connect("A", "secret"))

	net.SetStatus(network.StatusConnected)
	assert.Equal(t, VerdictOk, c.PollConnection())

	for _, status := range []network.Status{network.StatusDisconnected, network.StatusIdle} {
		net.SetStatus(status)
		assert.Equal(t, VerdictOk, c.PollConnection(), status.String())
		assert.True(t, c.ScanningEnabled())
	}

	require.NoError(t, c.Connect("A", "other"))
	assert.Equal(t, VerdictWait, c.PollConnection())
}

func TestRunScansAndStops(t *testing.T) {
	net := network.NewMockNetwork(&network.MockConfig{Ssids: []string{"A"}})
	c := New(&Config{Network: net})

	done := make(chan error)
	go func() {
		done <- c.Run()
	}()

	assert.Eventually(t, func() bool {
		return net.Scans() == 1
	}, time.Second, 5*time.Millisecond)

	c.Shutdown()
	c.Shutdown()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		require.Fail(t, "controller did not stop")
	}

	assert.Equal(t, `[{"name":"A"}]`, string(c.Connections()))
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "WAIT", VerdictWait.String())
	assert.Equal(t, "OK", VerdictOk.String())
	assert.Equal(t, "FAIL", VerdictFail.String())
}
