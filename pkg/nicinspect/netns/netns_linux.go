package netns

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netns"
	"golang.org/x/sys/unix"
)

type nsSwitcher struct{}

// NewSwitcher switches through setns(2).
func NewSwitcher() Switcher {
	return nsSwitcher{}
}

func (nsSwitcher) Current() (Handle, error) {
	h, err := netns.Get()
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (nsSwitcher) Open(path string) (Handle, error) {
	h, err := netns.GetFromPath(path)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (nsSwitcher) Set(h Handle) error {
	nh, ok := h.(*netns.NsHandle)
	if !ok {
		return errors.Errorf("unexpected netns handle %T", h)
	}
	return netns.Set(*nh)
}

// ListLinks returns the names of the links visible to the calling thread.
func ListLinks() ([]string, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(links))
	for _, l := range links {
		names = append(names, l.Attrs().Name)
	}
	return names, nil
}

func nsInode(path string) (uint64, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return 0, err
	}
	return st.Ino, nil
}

// IsRootNamespace reports whether the process shares the network namespace
// of pid 1. Unprivileged callers cannot inspect pid 1 and get false.
func IsRootNamespace(procfsRoot string) bool {
	self, err := nsInode(filepath.Join(procfsRoot, "self", "ns", "net"))
	if err != nil {
		return false
	}
	pid1, err := nsInode(filepath.Join(procfsRoot, "1", "ns", "net"))
	if err != nil {
		return false
	}
	return self == pid1
}

func Privileged() bool {
	return os.Geteuid() == 0
}

// NewEnumerator wires the setns based switcher, netlink link listing and the
// given namespace and procfs locations.
func NewEnumerator(dir, procfsRoot string) *Enumerator {
	if dir == "" {
		dir = DefaultDir
	}
	if procfsRoot == "" {
		procfsRoot = "/proc"
	}
	return &Enumerator{
		Switcher:   NewSwitcher(),
		Links:      ListLinks,
		Dir:        dir,
		IsRoot:     func() bool { return IsRootNamespace(procfsRoot) },
		Privileged: Privileged,
	}
}
