//go:build linux || darwin

package collector

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/alibaba/nicinspect/pkg/nicinspect/errdefs"
)

// queryFamilies are tried in order for the ioctl socket.
var queryFamilies = []int{unix.AF_INET, unix.AF_INET6, unix.AF_UNIX}

func openSocket(family int) (int, error) {
	return unix.Socket(family, unix.SOCK_DGRAM, 0)
}

// openQuerySocket returns the first datagram socket any family allows.
func openQuerySocket() (int, error) {
	var last error
	for _, f := range queryFamilies {
		fd, err := openSocket(f)
		if err == nil {
			unix.CloseOnExec(fd)
			return fd, nil
		}
		last = err
	}
	return -1, errors.Wrapf(errdefs.ErrNoSocket, "%v", last)
}
