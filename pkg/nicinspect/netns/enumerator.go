package netns

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/alibaba/nicinspect/pkg/nicinspect/model"
)

// DefaultDir is where iproute2 binds named namespaces.
const DefaultDir = "/var/run/netns"

type Enumerator struct {
	Switcher Switcher
	// Links lists interface names in the calling thread's namespace.
	Links func() ([]string, error)
	// Dir holds one bind mount per named namespace.
	Dir        string
	IsRoot     func() bool
	Privileged func() bool
}

// Enumerate returns the interfaces of the current namespace and, when
// privilegedScan is set and the process is privileged in the root
// namespace, those of every named namespace. The result is ordered by name
// then namespace and holds no duplicates.
func (e *Enumerator) Enumerate(privilegedScan bool) ([]model.NicHandle, error) {
	names, err := e.Links()
	if err != nil {
		return nil, errors.Wrap(err, "list links")
	}
	handles := tag(names, "")

	if privilegedScan && e.Switcher != nil && e.Privileged() && e.IsRoot() {
		named, err := e.scanNamed()
		handles = append(handles, named...)
		if err != nil {
			return sortHandles(handles), err
		}
	}
	return sortHandles(handles), nil
}

// Namespaces lists the named namespaces under Dir.
func (e *Enumerator) Namespaces() []string {
	entries, err := os.ReadDir(e.Dir)
	if err != nil {
		log.Debugf("read netns dir %s: %v", e.Dir, err)
		return nil
	}
	var names []string
	for _, ent := range entries {
		if ent.IsDir() || strings.HasPrefix(ent.Name(), ".") {
			continue
		}
		names = append(names, ent.Name())
	}
	return names
}

// Path returns the bind mount of a named namespace.
func (e *Enumerator) Path(ns string) string {
	return filepath.Join(e.Dir, ns)
}

// scanNamed visits every named namespace from a dedicated goroutine, so a
// thread whose namespace could not be restored dies with it.
func (e *Enumerator) scanNamed() ([]model.NicHandle, error) {
	type result struct {
		handles []model.NicHandle
		err     error
	}
	done := make(chan result, 1)
	go func() {
		var r result
		for _, ns := range e.Namespaces() {
			names, err := e.inNamespace(ns)
			if err != nil {
				if errors.Is(err, errRestore) {
					r.err = err
					break
				}
				log.WithField("netns", ns).Debugf("skip namespace: %v", err)
				continue
			}
			r.handles = append(r.handles, tag(names, ns)...)
		}
		done <- r
	}()
	r := <-done
	return r.handles, r.err
}

var errRestore = errors.New("namespace not restored")

func (e *Enumerator) inNamespace(ns string) (names []string, err error) {
	guard, err := EnterPath(e.Switcher, e.Path(ns))
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := guard.Release(); rerr != nil {
			err = errors.Wrapf(errRestore, "%v", rerr)
		}
	}()
	return e.Links()
}

func tag(names []string, ns string) []model.NicHandle {
	return lo.Map(names, func(n string, _ int) model.NicHandle {
		return model.NicHandle{Name: n, Namespace: ns}
	})
}

func sortHandles(handles []model.NicHandle) []model.NicHandle {
	handles = lo.Uniq(handles)
	slices.SortFunc(handles, func(a, b model.NicHandle) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Namespace, b.Namespace)
	})
	return handles
}
