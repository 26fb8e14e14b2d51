// Package netns lists interfaces across network namespaces. Switching the
// network namespace is a per-thread operation, so every switch happens on a
// locked OS thread through a Guard that puts the original namespace back.
package netns

import (
	"runtime"

	"github.com/pkg/errors"

	"github.com/alibaba/nicinspect/pkg/nicinspect/errdefs"
)

// Handle is an open reference to a network namespace.
type Handle interface {
	Close() error
	UniqueId() string
}

// Switcher opens and enters namespaces for the calling thread.
type Switcher interface {
	Current() (Handle, error)
	Open(path string) (Handle, error)
	Set(h Handle) error
}

// Guard holds the calling goroutine's thread inside a namespace until Release.
type Guard struct {
	sw   Switcher
	orig Handle
}

// Enter locks the OS thread, remembers its namespace and switches to target.
// On error the thread is back in its original namespace and unlocked.
func Enter(sw Switcher, target Handle) (*Guard, error) {
	if sw == nil {
		return nil, errors.Wrap(errdefs.ErrUnsupported, "namespace switching")
	}
	runtime.LockOSThread()
	orig, err := sw.Current()
	if err != nil {
		runtime.UnlockOSThread()
		return nil, errors.Wrap(errdefs.Classify(err), "get current netns")
	}
	if err := sw.Set(target); err != nil {
		orig.Close()
		runtime.UnlockOSThread()
		return nil, errors.Wrapf(errdefs.Classify(err), "enter netns %s", target.UniqueId())
	}
	return &Guard{sw: sw, orig: orig}, nil
}

// EnterPath opens the namespace bound at path and enters it.
func EnterPath(sw Switcher, path string) (*Guard, error) {
	if sw == nil {
		return nil, errors.Wrap(errdefs.ErrUnsupported, "namespace switching")
	}
	target, err := sw.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errdefs.Classify(err), "open netns %s", path)
	}
	defer target.Close()
	return Enter(sw, target)
}

// Release switches back to the original namespace. If that fails the thread
// stays locked, so the runtime terminates it once the goroutine exits instead
// of handing it to other goroutines.
func (g *Guard) Release() error {
	defer g.orig.Close()
	if err := g.sw.Set(g.orig); err != nil {
		return errors.Wrapf(err, "restore netns %s", g.orig.UniqueId())
	}
	runtime.UnlockOSThread()
	return nil
}
