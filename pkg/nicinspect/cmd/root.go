package cmd

import (
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/alibaba/nicinspect/pkg/nicinspect/engine"
	"github.com/alibaba/nicinspect/pkg/nicinspect/filter"
	"github.com/alibaba/nicinspect/pkg/nicinspect/model"
	"github.com/alibaba/nicinspect/pkg/nicinspect/printer"
)

var (
	rootCmd = &cobra.Command{
		Use:   "nicinspect [keyword...]",
		Short: "show network interfaces with driver and hardware details",
		Long: "List network interfaces of the host and of named network namespaces.\n" +
			"Keywords match interface names, addresses, drivers and PCI device names.",
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if debug {
				log.SetLevel(log.DebugLevel)
			} else {
				log.SetLevel(log.InfoLevel)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, args)
		},
	}

	debug      bool
	configPath string
	listOpts   listOptions
)

type listOptions struct {
	all        bool
	verbose    bool
	ipv4       bool
	ipv6       bool
	running    bool
	ignoreCase bool
	noNetns    bool
	drivers    []string
	output     string
}

func (o *listOptions) matcher(keywords []string) *filter.Matcher {
	return &filter.Matcher{
		Keywords:   keywords,
		IPv4:       o.ipv4,
		IPv6:       o.ipv6,
		Running:    o.running,
		IgnoreCase: o.ignoreCase,
		All:        o.all,
		Drivers:    o.drivers,
	}
}

// Execute runs the command line and exits non-zero when the selected command
// fails.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug log information")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")

	flags := rootCmd.Flags()
	flags.BoolVarP(&listOpts.all, "all", "a", false, "show interfaces that are down")
	flags.BoolVarP(&listOpts.verbose, "verbose", "v", false, "show features, rings and channels")
	flags.BoolVarP(&listOpts.ipv4, "ipv4", "4", false, "only interfaces with an IPv4 address")
	flags.BoolVarP(&listOpts.ipv6, "ipv6", "6", false, "only interfaces with an IPv6 address")
	flags.BoolVarP(&listOpts.running, "running", "r", false, "only interfaces with a detected link")
	flags.BoolVarP(&listOpts.ignoreCase, "ignore-case", "i", false, "match keywords case insensitively")
	addNetnsFlag(flags, &listOpts.noNetns)
	flags.StringSliceVar(&listOpts.drivers, "driver", nil, "only interfaces whose driver contains one of these names")
	flags.StringVarP(&listOpts.output, "output", "o", "text", "output format, support text/json/yaml")
}

func addNetnsFlag(fs *pflag.FlagSet, target *bool) {
	fs.BoolVar(target, "no-netns", false, "skip named network namespaces")
}

func runList(cmd *cobra.Command, keywords []string) error {
	format, err := printer.ParseFormat(listOpts.output)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	results, err := engine.New(cfg.engineOptions(!listOpts.noNetns)).Run(cmd.Context())
	if err != nil {
		return errors.Wrap(err, "inspect interfaces")
	}

	recs := selectRecords(results, listOpts.matcher(keywords))
	return printer.New(cmd.OutOrStdout(), format, listOpts.verbose).Print(recs)
}

// selectRecords reports failed interfaces and keeps the matching ones in
// enumeration order.
func selectRecords(results []engine.Result, m *filter.Matcher) []*model.InterfaceRecord {
	var recs []*model.InterfaceRecord
	for _, r := range results {
		if r.Err != nil {
			log.Errorf("Error processing interface %s: %v", r.Handle, r.Err)
			continue
		}
		if m.Matches(r.Record) {
			recs = append(recs, r.Record)
		}
	}
	return recs
}
