package runner

import (
	"errors"
	"strings"

	"github.com/spectra-lang/spectra/document"
)

// Multi runs every test against a list of commands and concatenates their
// outputs under per-command headings, for side-by-side comparison.
type Multi struct {
	commands []namedProgram
}

type namedProgram struct {
	name    string
	program *Program
}

// NewMulti builds a Multi from a comma-separated command pattern.
func NewMulti(pattern string) (*Multi, error) {
	multi := &Multi{}
	for _, command := range strings.Split(pattern, ",") {
		program, err := NewProgram(command)
		if err != nil {
			_ = multi.Close()
			return nil, err
		}
		multi.commands = append(multi.commands, namedProgram{name: command, program: program})
	}
	return multi, nil
}

// Run implements Runner, returning on the first sub-runner error.
func (m *Multi) Run(test *document.Test) (string, string, error) {
	var buf strings.Builder
	for _, command := range m.commands {
		out, _, err := command.program.Run(test)
		if err != nil {
			return "", "", err
		}
		buf.WriteString(command.name)
		buf.WriteString(":\n")
		buf.WriteString(out)
		buf.WriteByte('\n')
	}
	return buf.String(), "", nil
}

// Close implements Runner.
func (m *Multi) Close() error {
	var errs []error
	for _, command := range m.commands {
		errs = append(errs, command.program.Close())
	}
	return errors.Join(errs...)
}
