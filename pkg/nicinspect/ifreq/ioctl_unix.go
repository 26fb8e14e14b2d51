//go:build linux || darwin

package ifreq

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Ioctl issues request on fd with arg pointing at a codec buffer. The buffer
// passed in keep stays reachable until the syscall returns.
func Ioctl(fd int, request uint, arg unsafe.Pointer, keep ...any) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(request), uintptr(arg))
	runtime.KeepAlive(arg)
	runtime.KeepAlive(keep)
	if errno != 0 {
		return errno
	}
	return nil
}
