package wpa

import (
	"context"

	"github.com/go-errors/errors"
	"github.com/godbus/dbus/v5"
)

// Mode values of a network block, see wpa_supplicant.conf.
const (
	ModeInfrastructure uint32 = 0
	ModeAccessPoint    uint32 = 2
)

type Interface struct {
	wpa *Wpa
	obj dbus.BusObject
}

func (i *Interface) Path() dbus.ObjectPath {
	return i.obj.Path()
}

// Scan triggers an active scan and blocks until wpa_supplicant reports the
// scan as done or ctx is cancelled.
func (i *Interface) Scan(ctx context.Context) error {
	done, cancel, err := i.wpa.subscribe(i.obj.Path(), "ScanDone")
	if err != nil {
		return errors.Errorf("could not listen to scan completion: %v", err)
	}

	defer cancel()

	call := i.obj.CallWithContext(ctx, interfaceInterface+".Scan", 0, map[string]interface{}{
		"Type": "active",
	})
	if call.Err != nil {
		return errors.Errorf("could not scan: %v", call.Err)
	}

	select {
	case signal := <-done:
		if len(signal.Body) > 0 {
			if success, ok := signal.Body[0].(bool); ok && !success {
				return errors.New("scan was not successful")
			}
		}

		return nil
	case <-ctx.Done():
		return errors.Errorf("scan did not complete: %v", ctx.Err())
	}
}

func (i *Interface) BSSs() ([]*BSS, error) {
	v, err := i.obj.GetProperty(interfaceInterface + ".BSSs")
	if err != nil {
		return nil, errors.Errorf("could not get bsss: %v", err)
	}

	objectPaths, ok := v.Value().([]dbus.ObjectPath)
	if !ok {
		return nil, errors.Errorf("could not convert bsss: %v", v)
	}

	bsss := make([]*BSS, 0, len(objectPaths))

	for _, objectPath := range objectPaths {
		bsss = append(bsss, &BSS{
			obj: i.wpa.conn.Object(serviceName, objectPath),
		})
	}

	return bsss, nil
}

// State returns the wpa_supplicant state of the interface, e.g. "completed",
// "disconnected" or "4way_handshake".
func (i *Interface) State() (string, error) {
	v, err := i.obj.GetProperty(interfaceInterface + ".State")
	if err != nil {
		return "", errors.Errorf("could not get state: %v", err)
	}

	state, ok := v.Value().(string)
	if !ok {
		return "", errors.Errorf("could not convert state: %v", v)
	}

	return state, nil
}

// AddNetwork adds a station network block. An empty psk adds an open network.
func (i *Interface) AddNetwork(ssid string, psk string) (*Network, error) {
	args := map[string]interface{}{
		"ssid": ssid,
		"mode": ModeInfrastructure,
	}

	if psk != "" {
		args["psk"] = psk
	} else {
		args["key_mgmt"] = "NONE"
	}

	return i.addNetwork(args)
}

// AddAccessPoint adds a network block that makes the interface act as an
// access point on the given frequency in MHz.
func (i *Interface) AddAccessPoint(ssid string, psk string, frequency uint32) (*Network, error) {
	args := map[string]interface{}{
		"ssid":      ssid,
		"mode":      ModeAccessPoint,
		"frequency": frequency,
	}

	if psk != "" {
		args["psk"] = psk
		args["key_mgmt"] = "WPA-PSK"
	} else {
		args["key_mgmt"] = "NONE"
	}

	return i.addNetwork(args)
}

func (i *Interface) addNetwork(args map[string]interface{}) (*Network, error) {
	call := i.obj.Call(interfaceInterface+".AddNetwork", 0, args)
	if call.Err != nil {
		return nil, errors.Errorf("could not add network: %v", call.Err)
	}

	var objPath dbus.ObjectPath
	err := call.Store(&objPath)
	if err != nil {
		return nil, errors.Errorf("could not store value: %v", err)
	}

	return &Network{
		wpa: i.wpa,
		obj: i.wpa.conn.Object(serviceName, objPath),
	}, nil
}

func (i *Interface) SelectNetwork(net *Network) error {
	call := i.obj.Call(interfaceInterface+".SelectNetwork", 0, net.obj.Path())
	if call.Err != nil {
		return errors.Errorf("could not select network: %v", call.Err)
	}

	return nil
}

func (i *Interface) RemoveNetwork(net *Network) error {
	call := i.obj.Call(interfaceInterface+".RemoveNetwork", 0, net.obj.Path())
	if call.Err != nil {
		return errors.Errorf("could not remove network: %v", call.Err)
	}

	return nil
}

func (i *Interface) RemoveAllNetworks() error {
	call := i.obj.Call(interfaceInterface+".RemoveAllNetworks", 0)
	if call.Err != nil {
		return errors.Errorf("could not remove all networks: %v", call.Err)
	}

	return nil
}
