package wpa

import (
	"sync"

	"github.com/go-errors/errors"
	"github.com/godbus/dbus/v5"
)

const (
	serviceName        = "fi.w1.wpa_supplicant1"
	servicePath        = "/fi/w1/wpa_supplicant1"
	interfaceInterface = serviceName + ".Interface"
	bssInterface       = serviceName + ".BSS"
)

// Wpa is a client of the wpa_supplicant D-Bus API. A single instance can be
// shared by the station and the access point interfaces.
type Wpa struct {
	conn *dbus.Conn
	obj  dbus.BusObject

	subscriptionsMtx sync.Mutex
	subscriptions    map[uint32]*subscription
	nextSubscription uint32
}

func New() *Wpa {
	return &Wpa{
		subscriptions: make(map[uint32]*subscription),
	}
}

func (w *Wpa) Start() error {
	conn, err := dbus.ConnectSystemBus(dbus.WithSignalHandler(&wpaSignalHandler{w}))
	if err != nil {
		return errors.Errorf("could not connect to system bus: %v", err)
	}

	w.conn = conn
	w.obj = conn.Object(serviceName, servicePath)

	return nil
}

func (w *Wpa) Stop() error {
	if w.conn == nil {
		return nil
	}

	err := w.conn.Close()
	if err != nil {
		return errors.Errorf("could not close system bus connection: %v", err)
	}

	w.conn = nil

	return nil
}

// GetInterface returns the wpa_supplicant interface managing ifname, asking
// wpa_supplicant to take the interface over if it does not manage it yet.
func (w *Wpa) GetInterface(ifname string) (*Interface, error) {
	if w.conn == nil {
		return nil, errors.New("wpa is not started")
	}

	var path dbus.ObjectPath

	err := w.obj.Call(serviceName+".GetInterface", 0, ifname).Store(&path)
	if err != nil {
		err = w.obj.Call(serviceName+".CreateInterface", 0, map[string]interface{}{
			"Ifname": ifname,
		}).Store(&path)
		if err != nil {
			return nil, errors.Errorf("could not get or create interface %v: %v", ifname, err)
		}
	}

	return &Interface{
		wpa: w,
		obj: w.conn.Object(serviceName, path),
	}, nil
}
