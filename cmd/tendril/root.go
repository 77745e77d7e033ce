package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tendril",
	Short: "Tendril is a dispatch runtime for state, effects and subscriptions",
	Long: `Tendril runs apps built from a single immutable state, pure actions,
one-shot effects and reconciled subscriptions. The bundled demo is a
small notes app exposed over HTTP and MCP.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
}
