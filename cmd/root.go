package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "wacore",
	Short: "Declarative WhatsApp bot framework core",
	Long:  "wacore runs the schema-driven command pipeline: parse, authorize, prompt, dispatch and reply, over an NDJSON event stream.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
