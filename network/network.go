package network

import "context"

// Status is the station-mode connection status reported by the radio driver.
type Status int

const (
	// StatusIdle means no connection attempt is configured.
	StatusIdle Status = iota
	// StatusDisconnected means the driver is not associated yet, which
	// includes every intermediate step of an ongoing association.
	StatusDisconnected
	// StatusConnected means the station is associated and authenticated.
	StatusConnected
	// StatusFailed means the driver gave up or cannot operate the radio.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "IDLE"
	case StatusDisconnected:
		return "DISCONNECTED"
	case StatusConnected:
		return "CONNECTED"
	case StatusFailed:
		return "FAILED"
	default:
		return "INVALID STATUS"
	}
}

type Connection interface{}

type WpaPskConnection struct {
	Ssid string
	Psk  string
}

type WpaConnection struct {
	Ssid string
}

// NewConnection returns a protected connection for a non-empty psk and an
// open one otherwise.
func NewConnection(ssid string, psk string) Connection {
	if psk == "" {
		return &WpaConnection{Ssid: ssid}
	}

	return &WpaPskConnection{Ssid: ssid, Psk: psk}
}

type Wifi struct {
	Ssid   string
	Bssid  string
	Signal int
}

// Network is the station side of the radio.
type Network interface {
	Start() error
	Stop() error
	Status() (Status, error)
	// Connect issues a connection request and returns without waiting for
	// its outcome, which is observed through Status.
	Connect(Connection) error
	// Scan blocks until the radio completed a scan and returns the networks
	// in the order the driver reported them.
	Scan(ctx context.Context) ([]*Wifi, error)
}
