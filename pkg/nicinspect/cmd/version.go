package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alibaba/nicinspect/version"
)

var shortVersion bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print build version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		if shortVersion {
			fmt.Fprintln(cmd.OutOrStdout(), version.Version)
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}

func init() {
	versionCmd.Flags().BoolVar(&shortVersion, "short", false, "print only the version number")
	rootCmd.AddCommand(versionCmd)
}
