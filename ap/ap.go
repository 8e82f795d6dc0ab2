// Package ap brings up the soft access point clients join to reach the
// portal.
package ap

import "net"

const (
	DefaultSsid = "SMART"
	// DefaultFrequency is channel 1.
	DefaultFrequency uint32 = 2412
)

var (
	DefaultAddress = net.IPv4(8, 8, 8, 8)
	DefaultNetmask = net.IPv4Mask(255, 255, 255, 0)
)

type Ap interface {
	Start() error
	Stop() error
	// Address is the address of the access point on its own network.
	Address() net.IP
	Ssid() string
}
