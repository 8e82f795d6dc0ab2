package wpa

import (
	"encoding/hex"

	"github.com/go-errors/errors"
	"github.com/godbus/dbus/v5"
)

// BSS is a basic service set seen by the last scan.
type BSS struct {
	obj dbus.BusObject
}

func (b *BSS) String() string {
	return string(b.obj.Path())
}

type BSSProperties struct {
	Ssid      string
	Bssid     string
	Signal    int16
	Frequency uint16
}

func (b *BSS) Properties() (*BSSProperties, error) {
	call := b.obj.Call("org.freedesktop.DBus.Properties.GetAll", 0, bssInterface)
	if call.Err != nil {
		return nil, errors.Errorf("could not get all properties: %v", call.Err)
	}

	var props map[string]dbus.Variant
	err := call.Store(&props)
	if err != nil {
		return nil, errors.Errorf("could not convert properties: %v", err)
	}

	bss := &BSSProperties{}

	val, ok := props["SSID"]
	if !ok {
		return nil, errors.New("mandatory property SSID was missing")
	}

	ssid, ok := val.Value().([]byte)
	if !ok {
		return nil, errors.Errorf("could not convert SSID to string: %v", val)
	}

	bss.Ssid = string(ssid)

	if val, ok := props["BSSID"]; ok {
		if bssid, ok := val.Value().([]byte); ok {
			bss.Bssid = hex.EncodeToString(bssid)
		}
	}

	if val, ok := props["Signal"]; ok {
		if signal, ok := val.Value().(int16); ok {
			bss.Signal = signal
		}
	}

	if val, ok := props["Frequency"]; ok {
		if frequency, ok := val.Value().(uint16); ok {
			bss.Frequency = frequency
		}
	}

	return bss, nil
}
