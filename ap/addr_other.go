//go:build !linux

package ap

import (
	"net"

	"github.com/go-errors/errors"
)

func setAddress(ifname string, address net.IP, netmask net.IPMask) error {
	return errors.New("configuring interface addresses is only supported on linux")
}
