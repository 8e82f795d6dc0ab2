package network

import (
	"context"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/smartd/network/wpa"
)

// check WpaNetworks compliance to its interface during compile time
var _ Network = (*WpaNetwork)(nil)

type Config struct {
	Interface string
	Wpa       *wpa.Wpa
	Logger    Logger
}

type WpaNetwork struct {
	log    Logger
	wpa    *wpa.Wpa
	ifname string
	iface  *wpa.Interface
}

func NewWpaNetwork(config *Config) *WpaNetwork {
	net := &WpaNetwork{
		ifname: config.Interface,
		wpa:    config.Wpa,
	}

	if config.Logger != nil {
		net.log = config.Logger
	} else {
		net.log = noopLogger{}
	}

	return net
}

// Start resolves the station interface. The wpa client is owned by the
// caller and must already be started.
func (n *WpaNetwork) Start() error {
	iface, err := n.wpa.GetInterface(n.ifname)
	if err != nil {
		return errors.Errorf("could not find interface %v: %v", n.ifname, err)
	}

	n.iface = iface

	n.log.Debugf("Using wpa interface %v for %v", iface.Path(), n.ifname)

	return nil
}

func (n *WpaNetwork) Stop() error {
	if n.iface == nil {
		return nil
	}

	err := n.iface.RemoveAllNetworks()
	if err != nil {
		return errors.Errorf("could not remove networks: %v", err)
	}

	n.iface = nil

	return nil
}

func (n *WpaNetwork) Status() (Status, error) {
	if n.iface == nil {
		return StatusFailed, errors.New("network is not started")
	}

	state, err := n.iface.State()
	if err != nil {
		return StatusFailed, errors.Errorf("could not get status: %v", err)
	}

	return statusFromState(state), nil
}

// statusFromState maps wpa_supplicant interface states to driver statuses.
func statusFromState(state string) Status {
	switch state {
	case "completed":
		return StatusConnected
	case "inactive":
		return StatusIdle
	case "disconnected", "scanning", "authenticating", "associating", "associated",
		"4way_handshake", "group_handshake":
		return StatusDisconnected
	default:
		return StatusFailed
	}
}

func (n *WpaNetwork) Connect(connection Connection) error {
	if n.iface == nil {
		return errors.New("network is not started")
	}

	var ssid, psk string

	switch conn := connection.(type) {
	case *WpaPskConnection:
		ssid, psk = conn.Ssid, conn.Psk
	case *WpaConnection:
		ssid = conn.Ssid
	default:
		return errors.Errorf("unsupported connection type %T", connection)
	}

	err := n.iface.RemoveAllNetworks()
	if err != nil {
		return errors.Errorf("could not remove previous networks: %v", err)
	}

	net, err := n.iface.AddNetwork(ssid, psk)
	if err != nil {
		return errors.Errorf("could not add network %v: %v", ssid, err)
	}

	err = n.iface.SelectNetwork(net)
	if err != nil {
		return errors.Errorf("could not select network %v: %v", ssid, err)
	}

	n.log.Debugf("Selected network %v", net)

	return nil
}

func (n *WpaNetwork) Scan(ctx context.Context) ([]*Wifi, error) {
	if n.iface == nil {
		return nil, errors.New("network is not started")
	}

	err := n.iface.Scan(ctx)
	if err != nil {
		return nil, errors.Errorf("unable to scan: %v", err)
	}

	bsss, err := n.iface.BSSs()
	if err != nil {
		return nil, errors.Errorf("unable to get BSSs: %v", err)
	}

	wifis := make([]*Wifi, 0, len(bsss))

	for _, bss := range bsss {
		props, err := bss.Properties()
		if err != nil {
			n.log.Debugf("Skipping %v: %v", bss, err)
			continue
		}

		wifis = append(wifis, &Wifi{
			Ssid:   props.Ssid,
			Bssid:  props.Bssid,
			Signal: int(props.Signal),
		})
	}

	return wifis, nil
}
