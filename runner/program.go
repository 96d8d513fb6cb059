package runner

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/spectra-lang/spectra/cmdline"
	"github.com/spectra-lang/spectra/document"
	"github.com/spectra-lang/spectra/process"
)

const (
	handshakeTimeout = 10 * time.Second

	startMarker = "start"
	endMarker   = "end"
	closeLine   = "close"

	timedOutLine = "PROCESS TIMED OUT"
)

// Program runs tests against a single command, either spawning it once per
// test or holding a persistent session driven over stdin/stdout.
type Program struct {
	command *cmdline.Command
	session *process.Process // non-nil only in RPC mode
}

// NewProgram parses command, strips its directives, and in RPC mode spawns
// the child and performs the start handshake.
func NewProgram(command string) (*Program, error) {
	parsed, err := cmdline.Parse(command)
	if err != nil {
		return nil, err
	}

	p := &Program{command: parsed}
	if parsed.RPC {
		session, err := p.spawnSession()
		if err != nil {
			return nil, err
		}
		p.session = session
	}
	return p, nil
}

// spawnSession starts the child and waits for its start marker. Prelude lines
// are surfaced but never fail the handshake.
func (p *Program) spawnSession() (*process.Process, error) {
	proc, err := process.Spawn(p.command.Name, p.command.Args, true)
	if err != nil {
		return nil, err
	}

	prelude, status, err := proc.ReadUntil(handshakeTimeout, startMarker)
	for _, message := range prelude {
		log.Warn().Stringer("channel", message.Channel).Str("line", message.Line).Msg("prelude over")
	}
	if err != nil {
		_ = proc.Kill()
		_, _ = proc.End()
		return nil, fmt.Errorf("handshake with %s: %w", p.command.Name, err)
	}
	if status != process.Continuing {
		_, _ = proc.End()
		return nil, fmt.Errorf("%s exited before sending %q", p.command.Name, startMarker)
	}

	return proc, nil
}

// Run implements Runner.
func (p *Program) Run(test *document.Test) (string, string, error) {
	if p.session != nil {
		return p.runSession(test)
	}
	return p.runOnce(test)
}

// runSession drives one request/response turn over the persistent child.
func (p *Program) runSession(test *document.Test) (string, string, error) {
	// A write failure means the child is already gone; the read below will
	// observe that and the crash output is still collected.
	for _, line := range caseLines(test.Case) {
		if err := p.session.WriteLine(line); err != nil {
			break
		}
	}
	_ = p.session.WriteLine(endMarker)

	messages, status, err := p.session.ReadUntil(p.command.Timeout, endMarker)

	timedOut := errors.Is(err, process.ErrDeadline)
	if err != nil && !timedOut {
		return "", "", err
	}
	if timedOut {
		_ = p.session.Kill()
	}

	dead := timedOut || status == process.Finished
	if dead {
		_, _ = p.session.End()
		session, err := p.spawnSession()
		if err != nil {
			return "", "", fmt.Errorf("restart after crash: %w", err)
		}
		p.session = session
	}

	var stdout, stderr strings.Builder
	if timedOut {
		fmt.Fprintln(&stderr, timedOutLine)
	}
	for _, message := range messages {
		switch {
		case message.Channel == process.Stdout:
			fmt.Fprintln(&stdout, message.Line)
		case test.MergeStderr:
			fmt.Fprintf(&stdout, "[%s]\n", message.Line)
		case dead:
			fmt.Fprintf(&stdout, "* %s\n", message.Line)
		default:
			fmt.Fprintln(&stderr, message.Line)
		}
	}

	out := strings.TrimRight(stdout.String(), " \t\r\n")
	errOut := strings.TrimRight(stderr.String(), " \t\r\n")

	if dead {
		// Crash context was folded into stdout above; the failure has to
		// carry it together with anything on stderr.
		var parts []string
		if out != "" {
			parts = append(parts, out)
		}
		if errOut != "" {
			parts = append(parts, errOut)
		}
		return "", "", errors.New(strings.Join(parts, "\n"))
	}
	return out, errOut, nil
}

// runOnce spawns a fresh child for the test, substituting the {content} and
// {file} placeholders in its arguments.
func (p *Program) runOnce(test *document.Test) (string, string, error) {
	args := make([]string, 0, len(p.command.Args))
	var caseFile string
	for _, arg := range p.command.Args {
		switch arg {
		case "{content}":
			args = append(args, strings.TrimRight(test.Case, " \t\r\n"))
		case "{file}":
			file, err := writeCaseFile(test.Case)
			if err != nil {
				return "", "", err
			}
			caseFile = file
			args = append(args, file)
		default:
			args = append(args, arg)
		}
	}
	if caseFile != "" {
		defer os.Remove(caseFile)
	}

	proc, err := process.Spawn(p.command.Name, args, false)
	if err != nil {
		return "", "", err
	}

	messages, _, err := proc.ReadUntil(p.command.Timeout, "")
	if err != nil {
		_ = proc.Kill()
		_, _ = proc.End()
		return "", "", fmt.Errorf("command failed: %w (captured %d lines)", err, len(messages))
	}

	code, err := proc.End()
	if err != nil {
		return "", "", err
	}

	if test.Expected == nil && len(messages) > 0 {
		log.Warn().Str("test", test.Name).Int("lines", len(messages)).Msg("possibly unexpected output from test without expected block")
	}

	var stdout, stderr strings.Builder
	for _, message := range messages {
		if message.Channel == process.Stdout {
			fmt.Fprintln(&stdout, message.Line)
		} else {
			fmt.Fprintln(&stderr, message.Line)
		}
	}

	out := strings.TrimRight(stdout.String(), " \t\r\n")
	errOut := strings.TrimRight(stderr.String(), " \t\r\n")

	if code != 0 && !p.command.IgnoreExitCode {
		return "", "", fmt.Errorf("%s exited with code %d\n%s", p.command.Name, code, errOut)
	}
	return out, errOut, nil
}

// Close implements Runner. In RPC mode it asks the child to shut down and
// drains whatever it still has to say.
func (p *Program) Close() error {
	if p.session == nil {
		return nil
	}
	session := p.session
	p.session = nil

	_ = session.WriteLine(closeLine)

	leftover, _, err := session.ReadUntil(p.command.Timeout, "")
	for _, message := range leftover {
		log.Warn().Stringer("channel", message.Channel).Str("line", message.Line).Msg("left over")
	}
	if err != nil {
		_ = session.Kill()
	}

	_, err = session.End()
	return err
}

// writeCaseFile materializes the test case for the {file} placeholder.
func writeCaseFile(content string) (string, error) {
	file, err := os.CreateTemp("", "spectra-case-*")
	if err != nil {
		return "", fmt.Errorf("case file: %w", err)
	}
	if _, err := file.WriteString(content); err != nil {
		_ = file.Close()
		_ = os.Remove(file.Name())
		return "", fmt.Errorf("case file: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(file.Name())
		return "", fmt.Errorf("case file: %w", err)
	}
	return file.Name(), nil
}

// caseLines splits a case into the lines written to the child, dropping a
// final newline so the end marker follows directly.
func caseLines(content string) []string {
	content = strings.TrimSuffix(content, "\n")
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}
