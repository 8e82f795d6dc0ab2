package ap

import (
	"net"
	"sync"
)

var _ Ap = (*MockAp)(nil)

type MockApConfig struct {
	Ssid    string
	Address net.IP
	Logger  Logger
}

// MockAp pretends to run an access point, for running the portal on a
// machine without a spare radio.
type MockAp struct {
	log     Logger
	ssid    string
	address net.IP
	mu      sync.Mutex
	started bool
}

func NewMockAp(config *MockApConfig) *MockAp {
	a := &MockAp{
		ssid:    config.Ssid,
		address: config.Address,
	}

	if config.Logger != nil {
		a.log = config.Logger
	} else {
		a.log = noopLogger{}
	}

	if a.ssid == "" {
		a.ssid = DefaultSsid
	}

	if a.address == nil {
		a.address = DefaultAddress
	}

	return a
}

func (a *MockAp) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.started = true
	a.log.Infof("Started mock access point %v at %v", a.ssid, a.address)

	return nil
}

func (a *MockAp) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.started = false

	return nil
}

func (a *MockAp) Started() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.started
}

func (a *MockAp) Address() net.IP {
	return a.address.To4()
}

func (a *MockAp) Ssid() string {
	return a.ssid
}
