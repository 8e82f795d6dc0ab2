// Package mdns advertises the portal as <hostname>.local together with an
// http service record, so it can be reached by name from the access point.
package mdns

import (
	"net"
	"strings"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
	"github.com/go-errors/errors"
)

const (
	DefaultHostname = "smart"
	DefaultService  = "_http._tcp"
	DefaultDomain   = "local."
	DefaultPort     = 80
)

type Config struct {
	// Hostname without the domain, advertised as <hostname>.local.
	Hostname string
	// Instance is the service instance name, defaults to Hostname.
	Instance string
	Service  string
	Domain   string
	Port     int
	// Address the hostname resolves to.
	Address net.IP
	// Interface limits the advertisement to one interface, all multicast
	// interfaces are used when empty.
	Interface string
	TTL       time.Duration
	Text      []string
	Logger    Logger
}

type Advertiser struct {
	log      Logger
	hostname string
	instance string
	service  string
	domain   string
	port     int
	address  net.IP
	iface    string
	ttl      time.Duration
	text     []string
	mu       sync.Mutex
	server   *zeroconf.Server
}

func New(config *Config) *Advertiser {
	a := &Advertiser{
		hostname: strings.TrimSuffix(config.Hostname, "."),
		instance: config.Instance,
		service:  config.Service,
		domain:   config.Domain,
		port:     config.Port,
		address:  config.Address,
		iface:    config.Interface,
		ttl:      config.TTL,
		text:     config.Text,
	}

	if config.Logger != nil {
		a.log = config.Logger
	} else {
		a.log = noopLogger{}
	}

	if a.hostname == "" {
		a.hostname = DefaultHostname
	}

	if a.instance == "" {
		a.instance = a.hostname
	}

	if a.service == "" {
		a.service = DefaultService
	}

	if a.domain == "" {
		a.domain = DefaultDomain
	}

	if a.port == 0 {
		a.port = DefaultPort
	}

	if a.text == nil {
		a.text = []string{"path=/"}
	}

	return a
}

// Host is the fully qualified name being advertised.
func (a *Advertiser) Host() string {
	return a.hostname + "." + strings.TrimSuffix(a.domain, ".")
}

func (a *Advertiser) interfaces() ([]net.Interface, error) {
	if a.iface == "" {
		return nil, nil
	}

	iface, err := net.InterfaceByName(a.iface)
	if err != nil {
		return nil, errors.Errorf("could not find interface %v: %v", a.iface, err)
	}

	return []net.Interface{*iface}, nil
}

func (a *Advertiser) ips() ([]string, error) {
	ip := a.address.To4()
	if ip == nil {
		return nil, errors.Errorf("could not advertise %v: not an IPv4 address", a.address)
	}

	return []string{ip.String()}, nil
}

func (a *Advertiser) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		return nil
	}

	ifaces, err := a.interfaces()
	if err != nil {
		return err
	}

	ips, err := a.ips()
	if err != nil {
		return err
	}

	var opts []zeroconf.ServerOption
	if a.ttl > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.ttl.Seconds())))
	}

	server, err := zeroconf.RegisterProxy(
		a.instance,
		a.service,
		a.domain,
		a.port,
		a.hostname,
		ips,
		a.text,
		ifaces,
		opts...,
	)
	if err != nil {
		return errors.Errorf("could not register %v: %v", a.Host(), err)
	}

	a.server = server

	a.log.Infof("Advertising %v as %v on port %v", a.Host(), ips[0], a.port)

	return nil
}

func (a *Advertiser) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server == nil {
		return nil
	}

	a.server.Shutdown()
	a.server = nil

	a.log.Infof("Stopped advertising %v", a.Host())

	return nil
}
