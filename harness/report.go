package harness

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
)

// PrintResults renders the aggregate outcome in the conventional harness
// form: each failure with its diff and debug text, a summary of failure
// names, then a one-line totals line.
func PrintResults(results Results, cfg *Config, elapsed time.Duration) {
	if len(results.Failures) > 0 {
		fmt.Fprint(os.Stderr, "\nfailures:\n\n")

		if cfg.Interactive {
			stdin := bufio.NewReader(os.Stdin)
			inAlternateScreen(func() bool {
				for _, failure := range results.Failures {
					printFailure(failure)
					if wantsExit(stdin) {
						break
					}
				}
				return false
			})
		} else {
			for _, failure := range results.Failures {
				printFailure(failure)
			}
		}

		fmt.Fprintln(os.Stderr, "\nfailures:")
		for _, failure := range results.Failures {
			fmt.Fprintf(os.Stderr, "\t%s\n", failure.Name)
		}
	}

	outcome := color.GreenString("ok")
	if len(results.Failures) > 0 {
		outcome = color.RedString("err")
	}
	passed := results.Count - len(results.Failures) - results.Skipped

	fmt.Fprintf(os.Stderr,
		"\ntest result: %s. %d passed; %d failed; 0 ignored; 0 measured; %d filtered out; finished in %s\n",
		outcome, passed, len(results.Failures), results.Skipped, elapsed.Round(time.Millisecond))
}

func printFailure(failure Failure) {
	fmt.Fprintf(os.Stderr, "test %s failed\n%s\n%s\n", renderName(failure.Name), failure.Diff, failure.Debug)
}
