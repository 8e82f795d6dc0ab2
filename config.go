package main

import (
	"net"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/the-lightning-land/smartd/ap"
	"github.com/the-lightning-land/smartd/mdns"
	"github.com/the-lightning-land/smartd/portal"
	"github.com/the-lightning-land/smartd/resolver"
)

const (
	defaultConfigFile    = "/etc/smartd/smartd.conf"
	defaultNet           = "wpa"
	defaultApInterface   = "uap0"
	defaultWifiInterface = "wlan0"
	defaultHttpListen    = ":80"
	defaultDnsListen     = ":53"
)

type apConfig struct {
	Interface string `long:"interface" description:"Interface the access point runs on" env:"SMARTD_AP_INTERFACE"`
	Ssid      string `long:"ssid" description:"Name of the access point" env:"SMARTD_AP_SSID"`
	Psk       string `long:"psk" description:"Passphrase of the access point, open when empty" env:"SMARTD_AP_PSK"`
	Address   string `long:"address" description:"IPv4 address of the portal on the access point" env:"SMARTD_AP_ADDRESS"`
	Netmask   string `long:"netmask" description:"Netmask of the access point network" env:"SMARTD_AP_NETMASK"`
	Frequency uint32 `long:"frequency" description:"Frequency of the access point in MHz" env:"SMARTD_AP_FREQUENCY"`

	ip   net.IP
	mask net.IPMask
}

type wifiConfig struct {
	Interface string `long:"interface" description:"Interface used to scan and join networks" env:"SMARTD_WIFI_INTERFACE"`
}

type httpConfig struct {
	Listen string `long:"listen" description:"Address the portal is served on" env:"SMARTD_HTTP_LISTEN"`
}

type dnsConfig struct {
	Listen string `long:"listen" description:"Address DNS queries are answered on" env:"SMARTD_DNS_LISTEN"`
	Ttl    uint32 `long:"ttl" description:"Time to live of answers in seconds" env:"SMARTD_DNS_TTL"`
}

type mdnsConfig struct {
	Disable   bool   `long:"disable" description:"Do not advertise the portal over mDNS" env:"SMARTD_MDNS_DISABLE"`
	Hostname  string `long:"hostname" description:"Name the portal is reachable at as <hostname>.local" env:"SMARTD_MDNS_HOSTNAME"`
	Interface string `long:"interface" description:"Interface to advertise on, all when empty" env:"SMARTD_MDNS_INTERFACE"`
}

type connectConfig struct {
	Timeout time.Duration `long:"timeout" description:"Time after which a pending connection attempt fails, 0 waits forever" env:"SMARTD_CONNECT_TIMEOUT"`
}

type profilingConfig struct {
	Listen string `long:"listen" description:"Address the profiling server listens on, disabled when empty" env:"SMARTD_PROFILING_LISTEN"`
}

type mockConfig struct {
	Ssids        []string      `long:"ssid" description:"Network returned by scans, can be given multiple times" env:"SMARTD_MOCK_SSIDS" env-delim:","`
	ConnectDelay time.Duration `long:"connectdelay" description:"Time a connection attempt takes to settle" env:"SMARTD_MOCK_CONNECTDELAY"`
}

type config struct {
	ConfigFile  string           `long:"configfile" description:"Path to configuration file" env:"SMARTD_CONFIGFILE"`
	ShowVersion bool             `short:"V" long:"version" description:"Display version information and exit"`
	Debug       bool             `long:"debug" description:"Start in debug mode" env:"SMARTD_DEBUG"`
	Net         string           `long:"net" description:"Radio driver to use" choice:"wpa" choice:"mock" env:"SMARTD_NET"`
	Ap          *apConfig        `group:"Access point" namespace:"ap"`
	Wifi        *wifiConfig      `group:"Wifi" namespace:"wifi"`
	Http        *httpConfig      `group:"HTTP" namespace:"http"`
	Dns         *dnsConfig       `group:"DNS" namespace:"dns"`
	Mdns        *mdnsConfig      `group:"mDNS" namespace:"mdns"`
	Connect     *connectConfig   `group:"Connect" namespace:"connect"`
	Profiling   *profilingConfig `group:"Profiling" namespace:"profiling"`
	Mock        *mockConfig      `group:"Mock" namespace:"mock"`
}

func defaultConfig() *config {
	return &config{
		ConfigFile: defaultConfigFile,
		Net:        defaultNet,
		Ap: &apConfig{
			Interface: defaultApInterface,
			Ssid:      ap.DefaultSsid,
			Address:   ap.DefaultAddress.String(),
			Netmask:   net.IP(ap.DefaultNetmask).String(),
			Frequency: ap.DefaultFrequency,
		},
		Wifi: &wifiConfig{
			Interface: defaultWifiInterface,
		},
		Http: &httpConfig{
			Listen: defaultHttpListen,
		},
		Dns: &dnsConfig{
			Listen: defaultDnsListen,
			Ttl:    resolver.DefaultTTL,
		},
		Mdns: &mdnsConfig{
			Hostname: mdns.DefaultHostname,
		},
		Connect: &connectConfig{
			Timeout: portal.DefaultConnectTimeout,
		},
		Profiling: &profilingConfig{},
		Mock:      &mockConfig{},
	}
}

// loadConfig initializes and parses the config using a config file and
// command line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
func loadConfig(args []string) (*config, error) {
	preCfg := defaultConfig()

	_, err := flags.NewParser(preCfg, flags.Default).ParseArgs(args)
	if err != nil {
		return nil, err
	}

	// the version is printed by the caller
	if preCfg.ShowVersion {
		return preCfg, nil
	}

	cfg := defaultConfig()
	parser := flags.NewParser(cfg, flags.Default)

	err = flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
	if err != nil {
		if !os.IsNotExist(err) || preCfg.ConfigFile != defaultConfigFile {
			return nil, errors.Errorf("could not load config file %v: %v", preCfg.ConfigFile, err)
		}
	}

	_, err = parser.ParseArgs(args)
	if err != nil {
		return nil, err
	}

	cfg.Ap.ip = net.ParseIP(cfg.Ap.Address).To4()
	if cfg.Ap.ip == nil {
		return nil, errors.Errorf("invalid access point address %v", cfg.Ap.Address)
	}

	mask := net.ParseIP(cfg.Ap.Netmask).To4()
	if mask == nil {
		return nil, errors.Errorf("invalid access point netmask %v", cfg.Ap.Netmask)
	}

	cfg.Ap.mask = net.IPMask(mask)
	if ones, bits := cfg.Ap.mask.Size(); ones == 0 && bits == 0 {
		return nil, errors.Errorf("non-canonical access point netmask %v", cfg.Ap.Netmask)
	}

	if cfg.Connect.Timeout < 0 {
		return nil, errors.Errorf("connect timeout must not be negative, got %v", cfg.Connect.Timeout)
	}

	return cfg, nil
}
