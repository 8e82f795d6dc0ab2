// Package portal holds the captive-portal decisions: which requests get
// redirected, the cached scan results and the connection attempt state.
package portal

import (
	"context"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/smartd/connectivity"
	"github.com/the-lightning-land/smartd/network"
)

const (
	// ScanInterval is the minimum time between two scans.
	ScanInterval = 30 * time.Second

	// DefaultHostname is the mDNS name the portal answers to as <hostname>.local.
	DefaultHostname = "smart"

	// DefaultConnectTimeout bounds a connection attempt that never settles.
	DefaultConnectTimeout = 2 * time.Minute

	defaultScanTimeout = 15 * time.Second
	tickInterval       = time.Second
)

// Verdict is the answer to a connection status poll.
type Verdict int

const (
	VerdictWait Verdict = iota
	VerdictOk
	VerdictFail
)

func (v Verdict) String() string {
	switch v {
	case VerdictWait:
		return "WAIT"
	case VerdictOk:
		return "OK"
	case VerdictFail:
		return "FAIL"
	default:
		return "INVALID VERDICT"
	}
}

type Config struct {
	Network network.Network
	// Hostname without the .local suffix.
	Hostname string
	// Address is the portal address on the access point.
	Address net.IP
	// ConnectTimeout bounds a connection attempt. Zero disables the bound.
	ConnectTimeout time.Duration
	ScanTimeout    time.Duration
	Logger         Logger
	// Now replaces the wall clock, for tests.
	Now func() time.Time
}

type Controller struct {
	log            Logger
	network        network.Network
	hostname       string
	address        net.IP
	connectTimeout time.Duration
	scanTimeout    time.Duration
	now            func() time.Time
	tracker        *connectivity.Tracker
	done           chan struct{}
	shutdownOnce   sync.Once

	// radioMtx serializes scans and connection requests
	radioMtx   sync.Mutex
	// attemptMtx is held while a connection request is issued, so polls
	// never judge a new attempt by the status of the previous one
	attemptMtx sync.Mutex

	mu       sync.RWMutex
	cache    *scanCache
	lastScan time.Time
}

func New(config *Config) *Controller {
	c := &Controller{
		network:        config.Network,
		hostname:       strings.ToLower(config.Hostname),
		address:        config.Address,
		connectTimeout: config.ConnectTimeout,
		scanTimeout:    config.ScanTimeout,
		now:            config.Now,
		tracker:        connectivity.NewTracker(),
		done:           make(chan struct{}),
		cache:          newScanCache(),
	}

	if config.Logger != nil {
		c.log = config.Logger
	} else {
		c.log = noopLogger{}
	}

	if c.hostname == "" {
		c.hostname = DefaultHostname
	}

	if c.scanTimeout <= 0 {
		c.scanTimeout = defaultScanTimeout
	}

	if c.now == nil {
		c.now = time.Now
	}

	return c
}

// Address returns the configured portal address.
func (c *Controller) Address() net.IP {
	return c.address
}

// Connectivity exposes the connection state for subscribers.
func (c *Controller) Connectivity() connectivity.Reporter {
	return c.tracker
}

// IsForeignHost tells whether a request for host must be redirected to the
// portal. Only IP literals and <hostname>.local are served directly.
func (c *Controller) IsForeignHost(host string) bool {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")

	if host == "" {
		return false
	}

	if net.ParseIP(host) != nil {
		return false
	}

	return !strings.EqualFold(strings.TrimSuffix(host, "."), c.hostname+".local")
}

// RedirectURL returns the portal landing page on local, the address the
// client connected to, or on the configured address if local is unknown.
func (c *Controller) RedirectURL(local net.IP) string {
	ip := c.address
	if ip4 := local.To4(); ip4 != nil && !ip4.IsUnspecified() {
		ip = ip4
	}

	if ip == nil {
		return "/"
	}

	return "http://" + ip.String() + "/"
}

// ScanningEnabled reports whether the scan cache may be refreshed, which is
// the case unless a connection attempt is in flight.
func (c *Controller) ScanningEnabled() bool {
	return c.tracker.CurrentState() != connectivity.Connecting
}

// Connections returns the cached scan results as a JSON array.
func (c *Controller) Connections() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.cache.json()
}

// RefreshScanCache scans for networks if scanning is enabled and the last
// attempt is at least ScanInterval ago. It reports whether a scan was
// attempted. Failed or empty scans keep the cached results.
func (c *Controller) RefreshScanCache(ctx context.Context) bool {
	c.radioMtx.Lock()
	defer c.radioMtx.Unlock()

	if !c.ScanningEnabled() {
		return false
	}

	c.mu.RLock()
	lastScan := c.lastScan
	c.mu.RUnlock()

	if !lastScan.IsZero() && c.now().Sub(lastScan) < ScanInterval {
		return false
	}

	c.log.Debugf("Scanning for networks")

	scanCtx, cancel := context.WithTimeout(ctx, c.scanTimeout)
	defer cancel()

	wifis, err := c.network.Scan(scanCtx)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastScan = c.now()

	if err != nil {
		c.log.Warnf("Could not scan for networks: %v", err)
		return true
	}

	c.log.Infof("Found %v networks", len(wifis))

	if len(wifis) == 0 {
		return true
	}

	ssids := make([]string, 0, len(wifis))
	for _, wifi := range wifis {
		ssids = append(ssids, wifi.Ssid)
	}

	err = c.cache.update(ssids)
	if err != nil {
		c.log.Errorf("Could not update scan cache: %v", err)
	}

	return true
}

// Connect disables scanning and asks the radio to join ssid. It does not
// wait for the outcome, which is reported by PollConnection.
func (c *Controller) Connect(ssid string, psk string) error {
	c.radioMtx.Lock()
	defer c.radioMtx.Unlock()

	c.attemptMtx.Lock()
	defer c.attemptMtx.Unlock()

	c.log.Infof("Connecting to %v with password %v", ssid, strings.Repeat("*", len(psk)))

	previous := c.tracker.Set(connectivity.Connecting, c.now())
	c.log.Debugf("Connection state %v -> %v", previous, connectivity.Connecting)

	err := c.network.Connect(network.NewConnection(ssid, psk))
	if err != nil {
		c.tracker.Set(connectivity.Failed, c.now())
		return errors.Errorf("could not request connection to %v: %v", ssid, err)
	}

	return nil
}

// PollConnection maps the radio status onto a verdict and settles the
// connection attempt on terminal statuses. A poll arriving while a request is
// being issued waits for it. Once settled, an idle or disconnected radio
// keeps the settled verdict until the next attempt.
func (c *Controller) PollConnection() Verdict {
	c.attemptMtx.Lock()
	defer c.attemptMtx.Unlock()

	if c.expireAttempt() {
		return VerdictFail
	}

	status, err := c.network.Status()
	if err != nil {
		c.log.Errorf("Could not get connection status: %v", err)
		status = network.StatusFailed
	}

	switch status {
	case network.StatusConnected:
		if previous := c.tracker.Set(connectivity.Connected, c.now()); previous != connectivity.Connected {
			c.log.Infof("Connected to network")
		}

		return VerdictOk
	case network.StatusIdle, network.StatusDisconnected:
		switch c.tracker.CurrentState() {
		case connectivity.Failed:
			return VerdictFail
		case connectivity.Connected:
			return VerdictOk
		default:
			return VerdictWait
		}
	default:
		if previous := c.tracker.Set(connectivity.Failed, c.now()); previous != connectivity.Failed {
			c.log.Warnf("Failed to connect to network, status %v", status)
		}

		return VerdictFail
	}
}

// expireAttempt fails a connection attempt that is older than the connect
// timeout and reports whether it did.
func (c *Controller) expireAttempt() bool {
	if c.connectTimeout <= 0 {
		return false
	}

	state, since := c.tracker.Snapshot()
	if state != connectivity.Connecting || c.now().Sub(since) < c.connectTimeout {
		return false
	}

	if !c.tracker.CompareAndSet(connectivity.Connecting, connectivity.Failed, c.now()) {
		return false
	}

	c.log.Warnf("Connection attempt timed out after %v", c.connectTimeout)

	return true
}

// Run services the scan cache and the connection timeout until Shutdown.
func (c *Controller) Run() error {
	c.log.Infof("Starting portal controller")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case <-c.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		c.expireAttempt()
		c.RefreshScanCache(ctx)

		select {
		case <-ticker.C:
		case <-c.done:
			return nil
		}
	}
}

func (c *Controller) Shutdown() {
	c.shutdownOnce.Do(func() {
		close(c.done)
	})
}
