package ap

import (
	"net"

	"github.com/go-errors/errors"
	"golang.org/x/sys/unix"
)

// setAddress assigns address and netmask to the interface and brings it up.
func setAddress(ifname string, address net.IP, netmask net.IPMask) error {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return errors.Errorf("could not open socket: %v", err)
	}

	defer unix.Close(fd)

	ifr, err := unix.NewIfreq(ifname)
	if err != nil {
		return errors.Errorf("could not use interface %v: %v", ifname, err)
	}

	err = ifr.SetInet4Addr(address.To4())
	if err != nil {
		return errors.Errorf("could not use address %v: %v", address, err)
	}

	err = unix.IoctlIfreq(fd, unix.SIOCSIFADDR, ifr)
	if err != nil {
		return errors.Errorf("could not set address %v: %v", address, err)
	}

	ifr, err = unix.NewIfreq(ifname)
	if err != nil {
		return errors.Errorf("could not use interface %v: %v", ifname, err)
	}

	err = ifr.SetInet4Addr(net.IP(netmask).To4())
	if err != nil {
		return errors.Errorf("could not use netmask %v: %v", netmask, err)
	}

	err = unix.IoctlIfreq(fd, unix.SIOCSIFNETMASK, ifr)
	if err != nil {
		return errors.Errorf("could not set netmask %v: %v", netmask, err)
	}

	ifr, err = unix.NewIfreq(ifname)
	if err != nil {
		return errors.Errorf("could not use interface %v: %v", ifname, err)
	}

	err = unix.IoctlIfreq(fd, unix.SIOCGIFFLAGS, ifr)
	if err != nil {
		return errors.Errorf("could not get flags: %v", err)
	}

	flags := ifr.Uint16()
	if flags&unix.IFF_UP != 0 {
		return nil
	}

	ifr.SetUint16(flags | unix.IFF_UP)

	err = unix.IoctlIfreq(fd, unix.SIOCSIFFLAGS, ifr)
	if err != nil {
		return errors.Errorf("could not bring interface up: %v", err)
	}

	return nil
}
