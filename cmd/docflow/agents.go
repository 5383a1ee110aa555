package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lablia/docflow/internal/agents"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the registered agents",
	Run: func(cmd *cobra.Command, args []string) {
		reg, err := agents.NewRegistry()
		if err != nil {
			fmt.Printf("Error building agent catalog: %v\n", err)
			os.Exit(1)
		}
		for _, name := range reg.Names() {
			agent, _ := reg.Get(name)
			fmt.Printf("%-30s %s\n", agent.Name, agent.Description)
		}
	},
}

func init() {
	rootCmd.AddCommand(agentsCmd)
}
