package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"nwnsc/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print nwnsc's version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("nwnsc %s (NWScript engine %d)\n", version.Version, version.EngineVersion)
		if version.GitCommit != "" {
			fmt.Printf("commit: %s\n", version.GitCommit)
		}
		if version.BuildDate != "" {
			fmt.Printf("built: %s\n", version.BuildDate)
		}
		return nil
	},
}
