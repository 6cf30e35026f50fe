package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ebb",
		Short: "Streaming server-side rendering for Go",
		Long: `ebb renders component trees to HTML on the server and streams
the result to the browser.

Pages are built from plain Go functions. Async data is declared as
resources; regions that depend on them are wrapped in suspense
boundaries and delivered under one of four modes:

  out-of-order       stream the shell, splice regions as they resolve
  in-order           stream top to bottom, pausing at pending regions
  async              wait for everything, send one complete document
  partially-blocked  like out-of-order, but blocking resources resolve
                     into the shell`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
