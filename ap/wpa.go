package ap

import (
	"net"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/smartd/network/wpa"
)

// check WpaAp compliance to its interface during compile time
var _ Ap = (*WpaAp)(nil)

type WpaApConfig struct {
	Wpa       *wpa.Wpa
	Interface string
	Ssid      string
	// Psk protects the access point, which is open when empty.
	Psk       string
	Address   net.IP
	Netmask   net.IPMask
	Frequency uint32
	Logger    Logger
}

// WpaAp runs an access point through a wpa_supplicant network block in AP
// mode and assigns the portal address to its interface.
type WpaAp struct {
	log       Logger
	wpa       *wpa.Wpa
	ifname    string
	ssid      string
	psk       string
	address   net.IP
	netmask   net.IPMask
	frequency uint32
	iface     *wpa.Interface
	network   *wpa.Network
}

func NewWpaAp(config *WpaApConfig) (*WpaAp, error) {
	a := &WpaAp{
		wpa:       config.Wpa,
		ifname:    config.Interface,
		ssid:      config.Ssid,
		psk:       config.Psk,
		address:   config.Address,
		netmask:   config.Netmask,
		frequency: config.Frequency,
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

	if a.netmask == nil {
		a.netmask = DefaultNetmask
	}

	if a.frequency == 0 {
		a.frequency = DefaultFrequency
	}

	if a.ifname == "" {
		return nil, errors.New("no access point interface given")
	}

	if len(a.ssid) > 32 {
		return nil, errors.Errorf("ssid %v is longer than 32 bytes", a.ssid)
	}

	if a.psk != "" && (len(a.psk) < 8 || len(a.psk) > 63) {
		return nil, errors.New("psk must be between 8 and 63 characters")
	}

	if a.address.To4() == nil {
		return nil, errors.Errorf("%v is not an IPv4 address", a.address)
	}

	if ones, bits := a.netmask.Size(); bits != 32 || ones == 0 {
		return nil, errors.Errorf("%v is not an IPv4 netmask", a.netmask)
	}

	return a, nil
}

func (a *WpaAp) Address() net.IP {
	return a.address.To4()
}

func (a *WpaAp) Ssid() string {
	return a.ssid
}

// Start assigns the address to the interface and selects the access point
// network block on it. The wpa client must already be started.
func (a *WpaAp) Start() error {
	err := setAddress(a.ifname, a.address.To4(), a.netmask)
	if err != nil {
		return errors.Errorf("could not configure %v: %v", a.ifname, err)
	}

	a.log.Infof("Configured %v with %v/%v", a.ifname, a.address, maskBits(a.netmask))

	iface, err := a.wpa.GetInterface(a.ifname)
	if err != nil {
		return errors.Errorf("could not get interface %v: %v", a.ifname, err)
	}

	network, err := iface.AddAccessPoint(a.ssid, a.psk, a.frequency)
	if err != nil {
		return errors.Errorf("could not add access point: %v", err)
	}

	err = iface.SelectNetwork(network)
	if err != nil {
		_ = iface.RemoveNetwork(network)
		return errors.Errorf("could not select access point: %v", err)
	}

	a.iface = iface
	a.network = network

	a.log.Infof("Started access point %v on %v at %v MHz", a.ssid, a.ifname, a.frequency)

	return nil
}

func (a *WpaAp) Stop() error {
	if a.network == nil {
		return nil
	}

	err := a.iface.RemoveNetwork(a.network)
	if err != nil {
		return errors.Errorf("could not remove access point: %v", err)
	}

	a.network = nil
	a.iface = nil

	return nil
}

func maskBits(mask net.IPMask) int {
	ones, _ := mask.Size()
	return ones
}
