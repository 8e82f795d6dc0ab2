package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/the-lightning-land/smartd/ap"
	"github.com/the-lightning-land/smartd/api"
	"github.com/the-lightning-land/smartd/mdns"
	"github.com/the-lightning-land/smartd/network"
	"github.com/the-lightning-land/smartd/network/wpa"
	"github.com/the-lightning-land/smartd/portal"
	"github.com/the-lightning-land/smartd/resolver"

	// Blank import to set up profiling HTTP handlers.
	_ "net/http/pprof"
)

var (
	// Commit stores the current commit hash of this build. This should be set using -ldflags during compilation.
	Commit string
	// Version stores the version string of this build. This should be set using -ldflags during compilation.
	Version string
	// Date stores the date of this build. This should be set using -ldflags during compilation.
	Date string
)

const shutdownTimeout = 5 * time.Second

// smartdMain is the true entry point for smartd. This is required since defers
// created in the top-level scope of a main method aren't executed if os.Exit() is called.
func smartdMain() error {
	// every subsystem logs through the standard logger so --debug reaches them
	logger := log.StandardLogger()
	logger.SetOutput(os.Stdout)
	logger.SetLevel(log.InfoLevel)

	// Environment bindings may be kept in a .env file next to the binary
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		return errors.Errorf("Could not load .env file: %v", err)
	}

	// Load CLI configuration and defaults
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		return err
	}

	// Set logger into debug mode if called with --debug
	if cfg.Debug {
		logger.SetLevel(log.DebugLevel)
		log.Info("Setting debug mode.")
	}

	log.Debug("Loaded config.")

	// Print version of the daemon
	log.Infof("Version %s (commit %s)", Version, Commit)
	log.Infof("Built on %s", Date)

	// Stop here if only version was requested
	if cfg.ShowVersion {
		return nil
	}

	if cfg.Profiling.Listen != "" {
		go func() {
			log.Infof("Starting profiling server on %v", cfg.Profiling.Listen)
			// Redirect the root path
			http.Handle("/", http.RedirectHandler("/debug/pprof", http.StatusSeeOther))
			// All other handlers are registered on DefaultServeMux through the import of pprof
			err := http.ListenAndServe(cfg.Profiling.Listen, nil)
			if err != nil {
				log.Errorf("Could not run profiler: %v", err)
			}
		}()
	}

	// The access point clients join, and the station side of the radio
	// used to scan and join the network they choose
	var a ap.Ap
	var n network.Network

	switch cfg.Net {
	case "wpa":
		w := wpa.New()

		err := w.Start()
		if err != nil {
			return errors.Errorf("Could not connect to wpa_supplicant: %v", err)
		}

		log.Info("Connected to wpa_supplicant.")

		defer func() {
			err := w.Stop()
			if err != nil {
				log.Errorf("Could not properly disconnect from wpa_supplicant: %v", err)
			} else {
				log.Info("Disconnected from wpa_supplicant.")
			}
		}()

		a, err = ap.NewWpaAp(&ap.WpaApConfig{
			Wpa:       w,
			Interface: cfg.Ap.Interface,
			Ssid:      cfg.Ap.Ssid,
			Psk:       cfg.Ap.Psk,
			Address:   cfg.Ap.ip,
			Netmask:   cfg.Ap.mask,
			Frequency: cfg.Ap.Frequency,
			Logger:    subsystemLogger(logger, "ap"),
		})
		if err != nil {
			return errors.Errorf("Could not create access point: %v", err)
		}

		n = network.NewWpaNetwork(&network.Config{
			Interface: cfg.Wifi.Interface,
			Wpa:       w,
			Logger:    subsystemLogger(logger, "network"),
		})

		log.Infof("Created wpa_supplicant access point on %v and network on %v.", cfg.Ap.Interface, cfg.Wifi.Interface)
	case "mock":
		a = ap.NewMockAp(&ap.MockApConfig{
			Ssid:    cfg.Ap.Ssid,
			Address: cfg.Ap.ip,
			Logger:  subsystemLogger(logger, "ap"),
		})

		n = network.NewMockNetwork(&network.MockConfig{
			Ssids:        cfg.Mock.Ssids,
			ConnectDelay: cfg.Mock.ConnectDelay,
			Logger:       subsystemLogger(logger, "network"),
		})

		log.Info("Created a mock access point and network.")
	default:
		return errors.Errorf("Unknown networking type %v", cfg.Net)
	}

	err = a.Start()
	if err != nil {
		return errors.Errorf("Could not start access point: %v", err)
	}

	defer func() {
		err := a.Stop()
		if err != nil {
			log.Errorf("Could not properly shut down access point: %v", err)
		} else {
			log.Info("Stopped access point.")
		}
	}()

	err = n.Start()
	if err != nil {
		return errors.Errorf("Could not start network: %v", err)
	}

	defer func() {
		err := n.Stop()
		if err != nil {
			log.Errorf("Could not properly shut down network: %v", err)
		} else {
			log.Info("Stopped network.")
		}
	}()

	// central controller for everything the portal does
	controller := portal.New(&portal.Config{
		Network:        n,
		Hostname:       cfg.Mdns.Hostname,
		Address:        a.Address(),
		ConnectTimeout: cfg.Connect.Timeout,
		Logger:         subsystemLogger(logger, "portal"),
	})

	log.Infof("Created portal for %v.", a.Address())

	smartApi, err := api.New(&api.Config{
		Portal: controller,
		Log:    subsystemLogger(logger, "api"),
	})
	if err != nil {
		return errors.Errorf("Could not create api: %v", err)
	}

	listener, err := net.Listen("tcp", cfg.Http.Listen)
	if err != nil {
		return errors.Errorf("Could not listen on %v: %v", cfg.Http.Listen, err)
	}

	go func() {
		log.Infof("Serving portal on %v", listener.Addr())

		err := smartApi.Serve(listener)
		if err != nil {
			log.Errorf("Could not serve portal: %v", err)
			controller.Shutdown()
		}
	}()

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := smartApi.Shutdown(ctx)
		if err != nil {
			log.Errorf("Could not properly shut down api: %v", err)
		} else {
			log.Info("Stopped api.")
		}
	}()

	dns, err := resolver.New(&resolver.Config{
		Address: a.Address(),
		TTL:     cfg.Dns.Ttl,
		Logger:  subsystemLogger(logger, "dns"),
	})
	if err != nil {
		return errors.Errorf("Could not create resolver: %v", err)
	}

	packetConn, err := net.ListenPacket("udp", cfg.Dns.Listen)
	if err != nil {
		return errors.Errorf("Could not listen on %v: %v", cfg.Dns.Listen, err)
	}

	go func() {
		err := dns.Serve(packetConn)
		if err != nil {
			log.Errorf("Could not serve dns: %v", err)
			controller.Shutdown()
		}
	}()

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := dns.Shutdown(ctx)
		if err != nil {
			log.Errorf("Could not properly shut down resolver: %v", err)
		} else {
			log.Info("Stopped resolver.")
		}
	}()

	if !cfg.Mdns.Disable {
		advertiser := mdns.New(&mdns.Config{
			Hostname:  cfg.Mdns.Hostname,
			Address:   a.Address(),
			Port:      listener.Addr().(*net.TCPAddr).Port,
			Interface: cfg.Mdns.Interface,
			Logger:    subsystemLogger(logger, "mdns"),
		})

		err := advertiser.Start()
		if err != nil {
			return errors.Errorf("Could not advertise portal: %v", err)
		}

		defer func() {
			err := advertiser.Stop()
			if err != nil {
				log.Errorf("Could not properly stop mdns: %v", err)
			} else {
				log.Info("Stopped mdns.")
			}
		}()
	}

	// Handle interrupt signals correctly
	go func() {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
		sig := <-signals
		log.Info(sig)
		log.Info("Received an interrupt, stopping portal...")
		controller.Shutdown()
	}()

	// blocks until the portal is shut down
	err = controller.Run()
	if err != nil {
		return errors.Errorf("Failed running portal: %v", err)
	}

	// finish with no error
	return nil
}

// subsystemLogger tags entries of logger with the name of the subsystem.
func subsystemLogger(logger *log.Logger, system string) *log.Entry {
	return logger.WithField("system", system)
}

// isHelp tells whether err only reports that the usage was printed.
func isHelp(err error) bool {
	e, ok := err.(*flags.Error)
	return ok && e.Type == flags.ErrHelp
}

func main() {
	// Call the "real" main in a nested manner so the defers will properly
	// be executed in the case of a graceful shutdown.
	if err := smartdMain(); err != nil {
		if !isHelp(err) {
			log.WithError(err).Println("Failed running smartd.")
		}
		os.Exit(1)
	}
}
