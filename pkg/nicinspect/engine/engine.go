// Package engine runs enumeration, collection and PCI correlation for every
// interface of the host.
package engine

import (
	"context"
	"runtime"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/alibaba/nicinspect/pkg/nicinspect/collector"
	"github.com/alibaba/nicinspect/pkg/nicinspect/errdefs"
	"github.com/alibaba/nicinspect/pkg/nicinspect/model"
	"github.com/alibaba/nicinspect/pkg/nicinspect/netns"
	"github.com/alibaba/nicinspect/pkg/nicinspect/pci"
)

type Options struct {
	// ScanNamespaces visits named namespaces when the process may.
	ScanNamespaces bool
	Workers        int
	NetnsDir       string
	SysfsRoot      string
	ProcfsRoot     string
	PciIDsPaths    []string
	// PCITable overrides the per-run PCI table, e.g. with a cached one.
	PCITable func() pci.Table
	// Inventory is the last resort NIC to PCI address source. Nil uses ghw.
	Inventory pci.InventoryFunc
}

func (o *Options) setDefaults() {
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.SysfsRoot == "" {
		o.SysfsRoot = "/sys"
	}
	if o.ProcfsRoot == "" {
		o.ProcfsRoot = "/proc"
	}
	if o.NetnsDir == "" {
		o.NetnsDir = netns.DefaultDir
	}
	if len(o.PciIDsPaths) == 0 {
		o.PciIDsPaths = pci.DefaultCatalogPaths
	}
}

// Result is the outcome for one interface. Record is nil when Err is set.
type Result struct {
	Handle model.NicHandle
	Record *model.InterfaceRecord
	Err    error
}

type Engine struct {
	opts Options

	enumerate  func(privilegedScan bool) ([]model.NicHandle, error)
	enter      func(ns string) (release func() error, err error)
	newBackend collector.BackendFactory
}

func New(opts Options) *Engine {
	opts.setDefaults()
	ns := netns.NewEnumerator(opts.NetnsDir, opts.ProcfsRoot)
	return &Engine{
		opts:      opts,
		enumerate: ns.Enumerate,
		enter: func(name string) (func() error, error) {
			g, err := netns.EnterPath(ns.Switcher, ns.Path(name))
			if err != nil {
				return nil, err
			}
			return g.Release, nil
		},
		newBackend: collector.NewPlatformBackend,
	}
}

// LoadPCITable reads the catalog and enumerates PCI network devices.
func LoadPCITable(sysfsRoot string, catalogPaths []string) pci.Table {
	return pci.Enumerate(sysfsRoot, pci.LoadCatalog(catalogPaths))
}

func (e *Engine) pciTable() pci.Table {
	if e.opts.PCITable != nil {
		return e.opts.PCITable()
	}
	return LoadPCITable(e.opts.SysfsRoot, e.opts.PciIDsPaths)
}

func (e *Engine) collectorOptions() collector.Options {
	return collector.Options{ProcfsRoot: e.opts.ProcfsRoot}
}

// Run returns one Result per interface in enumeration order. Failures of
// single interfaces are reported in their Result; only a missing query
// socket or a namespace that could not be restored aborts the run.
func (e *Engine) Run(ctx context.Context) ([]Result, error) {
	handles, err := e.enumerate(e.opts.ScanNamespaces)
	if err != nil {
		if len(handles) == 0 {
			return nil, errors.Wrap(err, "enumerate interfaces")
		}
		log.Warnf("namespace scan incomplete: %v", err)
	}
	handles = lo.Uniq(handles)

	results := make([]Result, len(handles))
	var initial []int
	byNamespace := map[string][]int{}
	var namespaces []string
	for i, h := range handles {
		results[i].Handle = h
		if h.Namespace == "" {
			initial = append(initial, i)
			continue
		}
		if _, ok := byNamespace[h.Namespace]; !ok {
			namespaces = append(namespaces, h.Namespace)
		}
		byNamespace[h.Namespace] = append(byNamespace[h.Namespace], i)
	}

	g, gctx := errgroup.WithContext(ctx)
	e.collectInitial(gctx, g, results, initial)
	if len(namespaces) > 0 {
		g.Go(func() error {
			return e.collectNamespaces(gctx, results, namespaces, byNamespace)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	correlator := pci.NewCorrelator(e.pciTable(), pci.DefaultStrategies(e.opts.SysfsRoot, e.inventory()))
	for i := range results {
		if results[i].Record != nil {
			correlator.Correlate(results[i].Record)
		}
	}
	return results, nil
}

func (e *Engine) inventory() pci.InventoryFunc {
	if e.opts.Inventory != nil {
		return e.opts.Inventory
	}
	return pci.GhwInventory()
}

func collectOne(c *collector.Collector, r *Result) {
	rec, err := c.Collect(r.Handle)
	if err != nil {
		r.Err = err
		return
	}
	r.Record = rec
}

// collectInitial spreads the initial namespace over a fixed set of workers,
// each with its own collector. Unlocked threads all stay in the initial
// namespace, so the workers need no pinning.
func (e *Engine) collectInitial(ctx context.Context, g *errgroup.Group, results []Result, idx []int) {
	if len(idx) == 0 {
		return
	}
	work := make(chan int)
	g.Go(func() error {
		defer close(work)
		for _, i := range idx {
			select {
			case work <- i:
			case <-ctx.Done():
				return nil
			}
		}
		return nil
	})

	workers := min(e.opts.Workers, len(idx))
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			backend, err := e.newBackend(e.collectorOptions())
			if err != nil {
				return errors.Wrap(err, "create collector")
			}
			c := collector.New(backend)
			defer c.Close()
			for i := range work {
				if err := ctx.Err(); err != nil {
					return err
				}
				collectOne(c, &results[i])
			}
			return nil
		})
	}
}

// collectNamespaces visits the named namespaces one at a time on a single
// locked thread. Each namespace gets a collector whose sockets are opened
// inside it.
func (e *Engine) collectNamespaces(ctx context.Context, results []Result, namespaces []string, byNamespace map[string][]int) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for _, ns := range namespaces {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.collectNamespace(ctx, results, ns, byNamespace[ns]); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) collectNamespace(ctx context.Context, results []Result, ns string, idx []int) (err error) {
	logger := log.WithField("netns", ns)
	release, err := e.enter(ns)
	if err != nil {
		logger.Debugf("skip namespace: %v", err)
		for _, i := range idx {
			results[i].Err = errors.Wrapf(err, "enter netns %s", ns)
		}
		return nil
	}
	defer func() {
		if rerr := release(); rerr != nil {
			err = errors.Wrapf(rerr, "leave netns %s", ns)
		}
	}()

	backend, err := e.newBackend(e.collectorOptions())
	if err != nil {
		if errdefs.Fatal(err) {
			return errors.Wrapf(err, "create collector in netns %s", ns)
		}
		for _, i := range idx {
			results[i].Err = err
		}
		return nil
	}
	c := collector.New(backend)
	defer c.Close()

	for _, i := range idx {
		if err := ctx.Err(); err != nil {
			return err
		}
		collectOne(c, &results[i])
	}
	return nil
}
