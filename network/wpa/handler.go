package wpa

import "github.com/godbus/dbus/v5"

type subscription struct {
	path    dbus.ObjectPath
	name    string
	signals chan *dbus.Signal
}

type wpaSignalHandler struct {
	*Wpa
}

var _ dbus.SignalHandler = (*wpaSignalHandler)(nil)

func (n wpaSignalHandler) DeliverSignal(iface, name string, signal *dbus.Signal) {
	n.deliverSignal(iface, name, signal)
}

// deliverSignal hands a signal to every matching subscription. It never
// blocks the bus reader; a subscriber that is not keeping up loses signals.
func (w *Wpa) deliverSignal(iface, name string, signal *dbus.Signal) {
	fullName := iface + "." + name

	w.subscriptionsMtx.Lock()
	defer w.subscriptionsMtx.Unlock()

	for _, sub := range w.subscriptions {
		if sub.name != fullName || sub.path != signal.Path {
			continue
		}

		select {
		case sub.signals <- signal:
		default:
		}
	}
}

// subscribe registers a bus match for the given member of the wpa_supplicant
// interface on path and returns a channel of matching signals together with
// a function releasing the subscription.
func (w *Wpa) subscribe(path dbus.ObjectPath, member string) (<-chan *dbus.Signal, func(), error) {
	options := []dbus.MatchOption{
		dbus.WithMatchObjectPath(path),
		dbus.WithMatchInterface(interfaceInterface),
		dbus.WithMatchMember(member),
	}

	err := w.conn.AddMatchSignal(options...)
	if err != nil {
		return nil, nil, err
	}

	sub := &subscription{
		path:    path,
		name:    interfaceInterface + "." + member,
		signals: make(chan *dbus.Signal, 8),
	}

	w.subscriptionsMtx.Lock()
	id := w.nextSubscription
	w.nextSubscription++
	w.subscriptions[id] = sub
	w.subscriptionsMtx.Unlock()

	cancel := func() {
		w.subscriptionsMtx.Lock()
		delete(w.subscriptions, id)
		w.subscriptionsMtx.Unlock()

		if w.conn != nil {
			_ = w.conn.RemoveMatchSignal(options...)
		}
	}

	return sub.signals, cancel, nil
}
