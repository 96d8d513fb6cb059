package harness

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/muesli/termenv"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/rs/zerolog/log"

	"github.com/spectra-lang/spectra/document"
	"github.com/spectra-lang/spectra/filter"
	"github.com/spectra-lang/spectra/runner"
)

// Config carries the per-run options of the driver.
type Config struct {
	Interactive      bool
	DryRun           bool
	ListsAsExpected  bool
	SkipPrintResults bool
	Filter           filter.Filter
	// FilterTerms are the raw strings behind Filter, kept for the
	// zero-match suggestion.
	FilterTerms []string
}

// Failure records one failed test.
type Failure struct {
	Name  string
	Diff  string
	Debug string
}

// Results aggregates the outcome of a run.
type Results struct {
	Count    int
	Skipped  int
	Failures []Failure
}

// Append folds another aggregate into this one.
func (r *Results) Append(other Results) {
	r.Count += other.Count
	r.Skipped += other.Skipped
	r.Failures = append(r.Failures, other.Failures...)
}

// errStopped halts the file walk after an interactive early exit.
var errStopped = errors.New("run stopped interactively")

// Run drives every test in order. The second return is true when the user
// ended the run early from the interactive prompt.
func Run(tests []document.Test, r runner.Runner, cfg *Config) (Results, bool) {
	var results Results
	stdin := bufio.NewReader(os.Stdin)

	for i := range tests {
		test := &tests[i]
		results.Count++

		skip := cfg.Filter != nil && cfg.Filter.ShouldSkip(test.Name)
		if skip {
			results.Skipped++
		}

		name := renderName(test.Name)

		if cfg.DryRun {
			if skip {
				continue
			}
			out, _, err := r.Run(test)
			show := func() {
				if err != nil {
					fmt.Fprintf(os.Stderr, "Test %s\nerrored: %v\n", name, err)
				} else {
					fmt.Fprintf(os.Stderr, "Test %s\nreceived:\n%s\n", name, out)
				}
			}
			if cfg.Interactive {
				stop := inAlternateScreen(func() bool {
					show()
					return wantsExit(stdin)
				})
				if stop {
					return results, true
				}
			} else {
				show()
			}
			continue
		}

		if skip {
			if !cfg.SkipPrintResults {
				fmt.Printf("test %s ... %s\n", name, color.BlueString("skipped"))
			}
			continue
		}

		out, errOut, err := r.Run(test)

		var failure *Failure
		switch {
		case err != nil:
			failure = &Failure{Name: test.Name, Debug: err.Error()}
		case test.Expected != nil && !EqualIgnoringLineEndings(out, *test.Expected):
			failure = &Failure{Name: test.Name, Diff: unifiedDiff(*test.Expected, out), Debug: errOut}
		}

		if !cfg.SkipPrintResults {
			if failure == nil {
				fmt.Printf("test %s ... %s\n", name, color.GreenString("pass"))
			} else {
				fmt.Printf("test %s ... %s\n", name, color.RedString("fail"))
			}
		}
		if failure != nil {
			results.Failures = append(results.Failures, *failure)
		}
	}

	return results, false
}

// RunUnderPath walks path for specification files, runs every extracted test
// and prints the aggregate. The runner is closed before results are printed.
// The returned Results reports failures; the error covers filesystem and
// extraction problems only.
func RunUnderPath(path string, r runner.Runner, cfg *Config) (Results, error) {
	start := time.Now()

	var results Results
	var names []string

	walkErr := document.VisitSpecificationFiles(path, func(file string) error {
		content, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		input, err := document.Extract(content, cfg.ListsAsExpected)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		for _, test := range input.Tests {
			names = append(names, test.Name)
		}
		fileResults, stopped := Run(input.Tests, r, cfg)
		results.Append(fileResults)
		if stopped {
			return errStopped
		}
		return nil
	})

	if err := r.Close(); err != nil {
		log.Warn().Err(err).Msg("runner close")
	}

	if walkErr != nil && !errors.Is(walkErr, errStopped) {
		return results, walkErr
	}

	suggestNearMisses(&results, names, cfg)

	if !cfg.DryRun && !cfg.SkipPrintResults {
		PrintResults(results, cfg, time.Since(start))
	}
	return results, nil
}

// suggestNearMisses points at the closest test names when a filter skipped
// every test of the run.
func suggestNearMisses(results *Results, names []string, cfg *Config) {
	if cfg.Filter == nil || len(cfg.FilterTerms) == 0 {
		return
	}
	if results.Count == 0 || results.Skipped != results.Count {
		return
	}
	for _, term := range cfg.FilterTerms {
		matches := fuzzy.RankFindNormalizedFold(term, names)
		if len(matches) == 0 {
			continue
		}
		sort.Sort(matches)
		log.Warn().Str("term", term).Str("closest", matches[0].Target).Msg("filter matched no tests")
	}
}

func unifiedDiff(expected, received string) string {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(received),
		FromFile: "expected",
		ToFile:   "received",
		Context:  3,
	})
	if err != nil {
		return fmt.Sprintf("expected:\n%s\nreceived:\n%s", expected, received)
	}
	return text
}

// inAlternateScreen runs f with the terminal switched to the alternate
// screen, restoring it afterwards.
func inAlternateScreen(f func() bool) bool {
	output := termenv.NewOutput(os.Stdout)
	output.AltScreen()
	output.MoveCursor(1, 1)
	defer output.ExitAltScreen()
	return f()
}

// wantsExit reads one line from stdin and reports whether it asks to end the
// run.
func wantsExit(stdin *bufio.Reader) bool {
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return true
	}
	switch strings.TrimSpace(line) {
	case "exit", "e", "quit", "q":
		return true
	}
	return false
}
