package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spectra-lang/spectra/filter"
	"github.com/spectra-lang/spectra/harness"
	"github.com/spectra-lang/spectra/runner"
)

// runFlags are the flags shared by the test and compare subcommands.
type runFlags struct {
	only            string
	onlyCS          string
	skip            string
	skipCS          string
	interactive     bool
	dryRun          bool
	listsAsExpected bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.only, "only", "", "only run tests with one of the comma-separated values in the name")
	cmd.Flags().StringVar(&f.onlyCS, "only-cs", "", "like --only, case-sensitive")
	cmd.Flags().StringVar(&f.skip, "skip", "", "skip tests with one of the comma-separated values in the name")
	cmd.Flags().StringVar(&f.skipCS, "skip-cs", "", "like --skip, case-sensitive")
	cmd.Flags().BoolVar(&f.interactive, "interactive", false, "page through output on the alternate screen, one test per line read")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "print received output without comparing")
	cmd.Flags().BoolVar(&f.listsAsExpected, "lists-as-expected", false, "use list blocks as the expected output")
}

func (f *runFlags) config() *harness.Config {
	cfg := &harness.Config{
		Interactive:     f.interactive,
		DryRun:          f.dryRun,
		ListsAsExpected: f.listsAsExpected,
	}

	for _, spec := range []struct {
		csv           string
		caseSensitive bool
		positive      bool
	}{
		{f.only, false, true},
		{f.onlyCS, true, true},
		{f.skip, false, false},
		{f.skipCS, true, false},
	} {
		if spec.csv == "" {
			continue
		}
		terms := strings.Split(spec.csv, ",")
		cfg.Filter = &filter.StringMatch{
			Matchers:      terms,
			CaseSensitive: spec.caseSensitive,
			Positive:      spec.positive,
		}
		cfg.FilterTerms = terms
	}

	return cfg
}

func newTestCommand() *cobra.Command {
	flags := &runFlags{}
	var watch bool

	cmd := &cobra.Command{
		Use:   "test <markdown> <command>",
		Short: "Run the tests in the given specification documents against a command",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg := flags.config()
			run := func() (harness.Results, error) {
				program, err := runner.NewProgram(args[1])
				if err != nil {
					return harness.Results{}, err
				}
				return harness.RunUnderPath(args[0], program, cfg)
			}

			if watch {
				return watchAndRun(args[0], run)
			}

			results, err := run()
			if err != nil {
				return err
			}
			if n := len(results.Failures); n > 0 && !cfg.DryRun {
				return fmt.Errorf("%d tests failed", n)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&watch, "watch", false, "rerun whenever a specification document changes")
	return cmd
}

func newCompareCommand() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "compare <markdown> <command-pattern>",
		Short: "Run a comma-separated list of commands against the same tests for visual comparison",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg := flags.config()
			cfg.DryRun = true

			multi, err := runner.NewMulti(args[1])
			if err != nil {
				return err
			}
			_, err = harness.RunUnderPath(args[0], multi, cfg)
			return err
		},
	}
	flags.register(cmd)
	return cmd
}
