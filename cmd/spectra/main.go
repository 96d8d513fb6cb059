package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Overridden at build time via -ldflags.
var (
	version = "0.2.0-dev"
	commit  = ""
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var noColor bool

	root := &cobra.Command{
		Use:           "spectra",
		Short:         "Run markdown specification documents as tests",
		Version:       version,
		SilenceErrors: true, // We handle error printing ourselves
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		newInfoCommand(),
		newTestCommand(),
		newCompareCommand(),
		newListCommand(),
		newInstallCommand(),
	)
	return root
}

func newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Display version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			after := ""
			if commit != "" {
				after = fmt.Sprintf(" (commit %s)", commit)
			}
			fmt.Printf("spectra %s%s (powered by goldmark)\n", version, after)
		},
	}
}
