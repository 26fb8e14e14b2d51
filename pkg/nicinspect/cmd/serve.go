package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	gops "github.com/google/gops/agent"
	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	versioncollector "github.com/prometheus/client_golang/prometheus/collectors/version"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	commonversion "github.com/prometheus/common/version"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alibaba/nicinspect/pkg/nicinspect/engine"
	"github.com/alibaba/nicinspect/pkg/nicinspect/exporter"
	"github.com/alibaba/nicinspect/pkg/nicinspect/pci"
	"github.com/alibaba/nicinspect/version"
)

var (
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "export interface metrics over http",
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := newViper(configPath)
			if err != nil {
				return err
			}
			s, err := newServer(v, !serveNoNetns)
			if err != nil {
				return err
			}

			if configPath != "" {
				v.OnConfigChange(func(e fsnotify.Event) {
					log.Infof("config %s changed, reloading", e.Name)
					if err := s.reload(); err != nil {
						log.Warnf("reload config error: %v", err)
						return
					}
					log.Info("config reload succeed")
				})
				v.WatchConfig()
			}

			if err := gops.Listen(gops.Options{}); err != nil {
				log.Infof("start gops err: %v", err)
			}
			defer gops.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return s.run(ctx)
		},
	}

	serveNoNetns bool
)

func init() {
	rootCmd.AddCommand(serveCmd)
	addNetnsFlag(serveCmd.Flags(), &serveNoNetns)
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type server struct {
	v              *viper.Viper
	scanNamespaces bool

	mu     sync.RWMutex
	config *Config

	pciCache  *exporter.PCITableCache
	inventory *pci.InventoryCache
	exporter  *exporter.Exporter
	registry  *prometheus.Registry
}

func newServer(v *viper.Viper, scanNamespaces bool) (*server, error) {
	cfg, err := decodeConfig(v)
	if err != nil {
		return nil, err
	}
	s := &server{
		v:              v,
		scanNamespaces: scanNamespaces,
		config:         cfg,
		inventory:      pci.NewInventoryCache(1024, cfg.Serve.InventoryTTL),
	}
	s.pciCache = exporter.NewPCITableCache(cfg.Serve.PCIRefresh, func() pci.Table {
		c := s.currentConfig()
		return engine.LoadPCITable(c.SysfsRoot, c.PciIDsPaths)
	})
	s.exporter = exporter.New(s)

	commonversion.Version = version.Version
	commonversion.Revision = version.Commit
	s.registry = prometheus.NewRegistry()
	s.registry.MustRegister(s.exporter, versioncollector.NewCollector(exporter.MetricsNamespace))
	return s, nil
}

func (s *server) currentConfig() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// Run builds an engine from the current config for every scrape.
func (s *server) Run(ctx context.Context) ([]engine.Result, error) {
	opts := s.currentConfig().engineOptions(s.scanNamespaces)
	opts.PCITable = s.pciCache.Get
	opts.Inventory = s.inventory.Func()
	return engine.New(opts).Run(ctx)
}

func (s *server) reload() error {
	cfg, err := decodeConfig(s.v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	old := s.config
	s.config = cfg
	s.mu.Unlock()

	if old.Serve.PCIRefresh != cfg.Serve.PCIRefresh || old.SysfsRoot != cfg.SysfsRoot {
		s.pciCache.SetTTL(cfg.Serve.PCIRefresh)
	}
	if old.Serve.Port != cfg.Serve.Port {
		log.Warnf("port change from %d to %d takes effect after restart", old.Serve.Port, cfg.Serve.Port)
	}
	return nil
}

func (s *server) router() *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/interfaces", s.interfacesPage).Methods(http.MethodGet)
	r.HandleFunc("/interfaces/{name}", s.interfacesPage).Methods(http.MethodGet)
	r.HandleFunc("/config", s.configPage).Methods(http.MethodGet)
	r.HandleFunc("/", defaultPage)

	if s.currentConfig().Serve.DebugMode {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		r.Handle("/internal", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	}
	return r
}

func (s *server) run(ctx context.Context) error {
	listenAddr := fmt.Sprintf(":%d", s.currentConfig().Serve.Port)
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           s.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("nicinspect start metric server, listenAddr: %s", listenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "metric server")
	case <-ctx.Done():
		log.Warnf("receive signal, stopping")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	raw, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		log.Errorf("failed marshal response: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	w.Write(raw) // nolint
}

func defaultPage(w http.ResponseWriter, _ *http.Request) {
	// nolint
	w.Write([]byte(`<html>
		<head><title>NIC Inspect</title></head>
		<body>
		<h1>NIC Inspect</h1>
		<p><a href="/metrics">Metrics</a></p>
		<p><a href="/interfaces">Interfaces</a></p>
		<p><a href="/config">Config</a></p>
		</body>
		</html>`))
}

func (s *server) configPage(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.currentConfig())
}

// interfacesPage serves the records of the last scrape, running one when
// nothing was collected yet.
func (s *server) interfacesPage(w http.ResponseWriter, r *http.Request) {
	recs, at := s.exporter.Snapshot()
	if at.IsZero() {
		if _, err := s.exporter.Refresh(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
			return
		}
		recs, at = s.exporter.Snapshot()
	}
	w.Header().Set("X-Snapshot-Age", exporter.FormatAge(at))

	name, ok := mux.Vars(r)["name"]
	if !ok {
		writeJSON(w, http.StatusOK, recs)
		return
	}
	netns := r.URL.Query().Get("netns")
	for _, rec := range recs {
		if rec.Name == name && rec.Namespace == netns {
			writeJSON(w, http.StatusOK, rec)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("interface %s not found", name)})
}
