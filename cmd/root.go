// Package cmd holds the lookuply command line: the HTTP server plus a few
// operational helpers for the search index.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgPath string

func rootCMD() *cobra.Command {
	var root = &cobra.Command{
		Use:           "lookuply",
		Short:         "Privacy-first search and summarize API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config.yaml or ./config.json)")

	root.AddCommand(serveCMD(), indexCMD(), healthCMD())
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCMD().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
