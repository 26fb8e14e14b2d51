package errdefs

import (
	"errors"
	"syscall"
)

var (
	// ErrNotFound means the interface vanished between enumeration and collection.
	ErrNotFound = errors.New("not found")
	// ErrUnsupported means the query mechanism is absent on this platform or kernel.
	ErrUnsupported = errors.New("unsupported")
	// ErrPermissionDenied means a namespace switch or privileged query was refused.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrParseFailure marks a malformed database line or bus-info string.
	ErrParseFailure = errors.New("parse failure")
	// ErrNoSocket is the only fatal condition: no query socket could be opened.
	ErrNoSocket = errors.New("cannot open query socket")
)

type classified struct {
	kind error
	err  error
}

func (c *classified) Error() string {
	return c.err.Error()
}

func (c *classified) Unwrap() []error {
	return []error{c.kind, c.err}
}

// Classify maps low-level errno values onto the taxonomy. Errors that carry no
// known errno are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var kind error
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ENODEV, syscall.ENXIO, syscall.ENOENT:
			kind = ErrNotFound
		case syscall.EOPNOTSUPP, syscall.ENOTTY, syscall.EINVAL, syscall.EPROTONOSUPPORT, syscall.ENOSYS:
			kind = ErrUnsupported
		case syscall.EPERM, syscall.EACCES:
			kind = ErrPermissionDenied
		}
		// ENOTSUP aliases EOPNOTSUPP on linux only
		if kind == nil && errno == syscall.ENOTSUP {
			kind = ErrUnsupported
		}
	}
	if kind == nil || errors.Is(err, kind) {
		return err
	}
	return &classified{kind: kind, err: err}
}

// Fatal reports whether err must abort the whole run.
func Fatal(err error) bool {
	return errors.Is(err, ErrNoSocket)
}
