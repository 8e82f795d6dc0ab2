package network

import (
	"context"
	"sync"
	"time"

	"github.com/go-errors/errors"
)

var _ Network = (*MockNetwork)(nil)

type MockConfig struct {
	// Ssids are returned by every scan, in order.
	Ssids []string
	// ConnectDelay is the time a connection attempt takes to settle. A zero
	// delay leaves the status at StatusDisconnected until SetStatus is called.
	ConnectDelay time.Duration
	Logger       Logger
}

// MockNetwork is an in-memory radio. An attempt to a network that was part
// of the scan results succeeds after ConnectDelay, others fail.
type MockNetwork struct {
	log          Logger
	mu           sync.Mutex
	wifis        []*Wifi
	status       Status
	scanErr      error
	scans        int
	connectDelay time.Duration
	connections  []Connection
	timer        *time.Timer
}

func NewMockNetwork(config *MockConfig) *MockNetwork {
	n := &MockNetwork{
		status:       StatusIdle,
		connectDelay: config.ConnectDelay,
	}

	if config.Logger != nil {
		n.log = config.Logger
	} else {
		n.log = noopLogger{}
	}

	n.SetSsids(config.Ssids...)

	return n
}

func (n *MockNetwork) Start() error {
	n.log.Infof("Started mock network with %v networks", len(n.wifis))
	return nil
}

func (n *MockNetwork) Stop() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.timer != nil {
		n.timer.Stop()
	}

	return nil
}

func (n *MockNetwork) Status() (Status, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.status, nil
}

func (n *MockNetwork) Connect(connection Connection) error {
	var ssid string

	switch conn := connection.(type) {
	case *WpaPskConnection:
		ssid = conn.Ssid
	case *WpaConnection:
		ssid = conn.Ssid
	default:
		return errors.Errorf("unsupported connection type %T", connection)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.connections = append(n.connections, connection)
	n.status = StatusDisconnected

	if n.timer != nil {
		n.timer.Stop()
	}

	if n.connectDelay <= 0 {
		return nil
	}

	known := false
	for _, wifi := range n.wifis {
		if wifi.Ssid == ssid {
			known = true
			break
		}
	}

	n.timer = time.AfterFunc(n.connectDelay, func() {
		if known {
			n.SetStatus(StatusConnected)
		} else {
			n.SetStatus(StatusFailed)
		}
	})

	return nil
}

func (n *MockNetwork) Scan(ctx context.Context) ([]*Wifi, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.scans++

	if n.scanErr != nil {
		return nil, n.scanErr
	}

	wifis := make([]*Wifi, len(n.wifis))
	copy(wifis, n.wifis)

	return wifis, nil
}

func (n *MockNetwork) SetStatus(status Status) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.log.Debugf("Mock network status is now %v", status)

	n.status = status
}

func (n *MockNetwork) SetSsids(ssids ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.wifis = make([]*Wifi, 0, len(ssids))
	for _, ssid := range ssids {
		n.wifis = append(n.wifis, &Wifi{Ssid: ssid})
	}
}

func (n *MockNetwork) SetScanError(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.scanErr = err
}

// Scans returns the number of scans performed so far.
func (n *MockNetwork) Scans() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.scans
}

// Connections returns all connection requests received so far.
func (n *MockNetwork) Connections() []Connection {
	n.mu.Lock()
	defer n.mu.Unlock()

	connections := make([]Connection, len(n.connections))
	copy(connections, n.connections)

	return connections
}
