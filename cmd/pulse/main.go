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

const banner = `
  ┌─┐┬ ┬┬  ┌─┐┌─┐
  ├─┘│ ││  └─┐├┤
  ┴  └─┘┴─┘└─┘└─┘
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "pulse",
		Short: "Fine-grained reactive state engine for Go",
		Long: `Pulse is a fine-grained reactive state engine.

Signals hold values, computeds derive them lazily, reactions run side
effects eagerly. Dependencies are tracked automatically and updates
can be batched so every cell notifies exactly once.

This CLI runs the engine's micro-benchmarks and a small demo pipeline
with an optional Prometheus metrics endpoint.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		benchCmd(),
		demoCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

// printBanner prints the pulse ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
