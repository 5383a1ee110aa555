package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lablia/docflow"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of docflow",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("docflow version %s\n", strings.TrimSpace(docflow.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
