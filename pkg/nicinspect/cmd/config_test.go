package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alibaba/nicinspect/pkg/nicinspect/netns"
	"github.com/alibaba/nicinspect/pkg/nicinspect/pci"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, netns.DefaultDir, cfg.NetnsDir)
	assert.Equal(t, "/sys", cfg.SysfsRoot)
	assert.Equal(t, "/proc", cfg.ProcfsRoot)
	assert.Equal(t, pci.DefaultCatalogPaths, cfg.PciIDsPaths)
	assert.Equal(t, uint16(9102), cfg.Serve.Port)
	assert.Equal(t, 5*time.Minute, cfg.Serve.PCIRefresh)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
netns_dir: /run/netns
pci_ids_paths:
  - /opt/pci.ids
workers: 4
serve:
  port: 9200
  pci_refresh: 30s
`), 0o644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/run/netns", cfg.NetnsDir)
	assert.Equal(t, []string{"/opt/pci.ids"}, cfg.PciIDsPaths)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, uint16(9200), cfg.Serve.Port)
	assert.Equal(t, 30*time.Second, cfg.Serve.PCIRefresh)
	assert.Equal(t, "/sys", cfg.SysfsRoot)

	opts := cfg.engineOptions(false)
	assert.False(t, opts.ScanNamespaces)
	assert.Equal(t, 4, opts.Workers)
	assert.Equal(t, "/run/netns", opts.NetnsDir)
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("NICINSPECT_SYSFS_ROOT", "/host/sys")
	t.Setenv("NICINSPECT_SERVE_PCI_REFRESH", "1m")
	t.Setenv("NICINSPECT_PCI_IDS_PATHS", "/a/pci.ids,/b/pci.ids")

	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "/host/sys", cfg.SysfsRoot)
	assert.Equal(t, time.Minute, cfg.Serve.PCIRefresh)
	assert.Equal(t, []string{"/a/pci.ids", "/b/pci.ids"}, cfg.PciIDsPaths)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: -2\n"), 0o644))
	_, err = loadConfig(path)
	assert.Error(t, err)
}
