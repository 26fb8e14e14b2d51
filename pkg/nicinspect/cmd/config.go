package cmd

import (
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/alibaba/nicinspect/pkg/nicinspect/engine"
	"github.com/alibaba/nicinspect/pkg/nicinspect/netns"
	"github.com/alibaba/nicinspect/pkg/nicinspect/pci"
)

const envPrefix = "NICINSPECT"

type Config struct {
	NetnsDir    string      `yaml:"netns_dir" mapstructure:"netns_dir" json:"netns_dir"`
	SysfsRoot   string      `yaml:"sysfs_root" mapstructure:"sysfs_root" json:"sysfs_root"`
	ProcfsRoot  string      `yaml:"procfs_root" mapstructure:"procfs_root" json:"procfs_root"`
	PciIDsPaths []string    `yaml:"pci_ids_paths" mapstructure:"pci_ids_paths" json:"pci_ids_paths"`
	Workers     int         `yaml:"workers" mapstructure:"workers" json:"workers"`
	Serve       ServeConfig `yaml:"serve" mapstructure:"serve" json:"serve"`
}

type ServeConfig struct {
	Port         uint16        `yaml:"port" mapstructure:"port" json:"port"`
	DebugMode    bool          `yaml:"debugmode" mapstructure:"debugmode" json:"debugmode"`
	PCIRefresh   time.Duration `yaml:"pci_refresh" mapstructure:"pci_refresh" json:"pci_refresh"`
	InventoryTTL time.Duration `yaml:"inventory_ttl" mapstructure:"inventory_ttl" json:"inventory_ttl"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("netns_dir", netns.DefaultDir)
	v.SetDefault("sysfs_root", "/sys")
	v.SetDefault("procfs_root", "/proc")
	v.SetDefault("pci_ids_paths", pci.DefaultCatalogPaths)
	v.SetDefault("workers", 0)
	v.SetDefault("serve.port", 9102)
	v.SetDefault("serve.debugmode", false)
	v.SetDefault("serve.pci_refresh", 5*time.Minute)
	v.SetDefault("serve.inventory_ttl", 10*time.Minute)
}

// newViper layers defaults, NICINSPECT_* environment variables and the
// optional config file.
func newViper(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		return v, nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "read config file %s", path)
	}
	return v, nil
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if cfg.Workers < 0 {
		return nil, errors.Errorf("workers must not be negative, got %d", cfg.Workers)
	}
	return cfg, nil
}

func loadConfig(path string) (*Config, error) {
	v, err := newViper(path)
	if err != nil {
		return nil, err
	}
	return decodeConfig(v)
}

func (c *Config) engineOptions(scanNamespaces bool) engine.Options {
	return engine.Options{
		ScanNamespaces: scanNamespaces,
		Workers:        c.Workers,
		NetnsDir:       c.NetnsDir,
		SysfsRoot:      c.SysfsRoot,
		ProcfsRoot:     c.ProcfsRoot,
		PciIDsPaths:    c.PciIDsPaths,
	}
}
