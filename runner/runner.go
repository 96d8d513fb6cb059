// Package runner translates extracted tests into child-process activity and
// hands back the captured output.
package runner

import "github.com/spectra-lang/spectra/document"

// Runner drives the program under test for one test at a time.
type Runner interface {
	// Run executes test and returns the captured stdout and stderr. A
	// returned error describes why the runner could not produce a
	// comparable result; the driver records it as a failure.
	Run(test *document.Test) (stdout, stderr string, err error)

	// Close releases any persistent child process.
	Close() error
}
