package harness

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spectra-lang/spectra/document"
	"github.com/spectra-lang/spectra/filter"
	"github.com/spectra-lang/spectra/runner"
)

// stubRunner answers from a canned table instead of spawning processes.
type stubRunner struct {
	outputs map[string]string
	stderr  map[string]string
	fail    map[string]error
	closed  bool
}

func (s *stubRunner) Run(test *document.Test) (string, string, error) {
	if err, ok := s.fail[test.Name]; ok {
		return "", "", err
	}
	return s.outputs[test.Name], s.stderr[test.Name], nil
}

func (s *stubRunner) Close() error {
	s.closed = true
	return nil
}

func quietConfig() *Config {
	return &Config{SkipPrintResults: true}
}

func expect(s string) *string { return &s }

// TestRunPassAndFail verifies matching output passes and a mismatch records
// a failure with a diff and the runner's stderr as debug text.
func TestRunPassAndFail(t *testing.T) {
	tests := []document.Test{
		{Name: "good", Case: "x\n", Expected: expect("ok")},
		{Name: "bad", Case: "y\n", Expected: expect("wanted")},
	}
	stub := &stubRunner{
		outputs: map[string]string{"good": "ok", "bad": "got"},
		stderr:  map[string]string{"bad": "grumble"},
	}

	results, stopped := Run(tests, stub, quietConfig())
	assert.False(t, stopped)
	assert.Equal(t, 2, results.Count)
	assert.Zero(t, results.Skipped)
	require.Len(t, results.Failures, 1)

	failure := results.Failures[0]
	assert.Equal(t, "bad", failure.Name)
	assert.Contains(t, failure.Diff, "wanted")
	assert.Contains(t, failure.Diff, "got")
	assert.Equal(t, "grumble", failure.Debug)
}

// TestRunWithoutExpectedPasses verifies a test with no expected block passes
// on any output.
func TestRunWithoutExpectedPasses(t *testing.T) {
	tests := []document.Test{{Name: "loose", Case: "x\n"}}
	stub := &stubRunner{outputs: map[string]string{"loose": "anything"}}

	results, _ := Run(tests, stub, quietConfig())
	assert.Empty(t, results.Failures)
}

// TestRunnerErrorBecomesFailure verifies the driver never propagates runner
// errors; they turn into failures with empty diffs.
func TestRunnerErrorBecomesFailure(t *testing.T) {
	tests := []document.Test{{Name: "broken", Case: "x\n", Expected: expect("never")}}
	stub := &stubRunner{fail: map[string]error{"broken": errors.New("PROCESS TIMED OUT")}}

	results, _ := Run(tests, stub, quietConfig())
	require.Len(t, results.Failures, 1)
	assert.Empty(t, results.Failures[0].Diff)
	assert.Equal(t, "PROCESS TIMED OUT", results.Failures[0].Debug)
}

// TestRunFilterSkips verifies the include filter runs exactly the matching
// tests and counts the rest as skipped.
func TestRunFilterSkips(t *testing.T) {
	tests := []document.Test{
		{Name: "foobar", Case: "x\n"},
		{Name: "bar", Case: "x\n"},
		{Name: "foo baz", Case: "x\n"},
	}
	stub := &stubRunner{outputs: map[string]string{}}

	cfg := quietConfig()
	cfg.Filter = &filter.StringMatch{Matchers: []string{"foo"}, Positive: true}

	results, _ := Run(tests, stub, cfg)
	assert.Equal(t, 3, results.Count)
	assert.Equal(t, 1, results.Skipped)
	assert.Empty(t, results.Failures)
}

// TestResultsAppend verifies per-file aggregates fold together.
func TestResultsAppend(t *testing.T) {
	t.Parallel()

	total := Results{Count: 1, Skipped: 1}
	total.Append(Results{Count: 2, Failures: []Failure{{Name: "x"}}})

	assert.Equal(t, 3, total.Count)
	assert.Equal(t, 1, total.Skipped)
	assert.Len(t, total.Failures, 1)
}

// TestRunUnderPath verifies the walk-extract-run-close pipeline over real
// files.
func TestRunUnderPath(t *testing.T) {
	dir := t.TempDir()
	doc := "### Upper\n\n```\nhi\n```\n\n```\nHI\n```\n\n### Lower\n\n```\nHI\n```\n\n```\nhi\n```\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spec.md"), []byte(doc), 0o644))

	stub := &stubRunner{outputs: map[string]string{"Upper": "HI", "Lower": "wrong"}}

	results, err := RunUnderPath(dir, stub, quietConfig())
	require.NoError(t, err)
	assert.True(t, stub.closed)
	assert.Equal(t, 2, results.Count)
	require.Len(t, results.Failures, 1)
	assert.Equal(t, "Lower", results.Failures[0].Name)
}

// TestRunUnderPathRPC verifies the whole pipeline against a real persistent
// child: one passing uppercase test, start to finish.
func TestRunUnderPathRPC(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("no sh on this system")
	}

	dir := t.TempDir()
	doc := "### Upper\n\n```\nhi\n```\n\n```\nHI\n```\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spec.md"), []byte(doc), 0o644))

	script := `echo start
while IFS= read -r line; do
  case "$line" in
    close) exit 0 ;;
    end) echo end ;;
    *) echo "$line" | tr "[:lower:]" "[:upper:]" ;;
  esac
done`
	program, err := runner.NewProgram("sh -c '" + script + "' --rpc")
	require.NoError(t, err)

	results, err := RunUnderPath(dir, program, quietConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, results.Count)
	assert.Empty(t, results.Failures)
}

// TestRunUnderPathExtractionError verifies a malformed document aborts with
// the file named in the error.
func TestRunUnderPathExtractionError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.md"), []byte("---\nexpected_runner: 4\n---\n"), 0o644))

	stub := &stubRunner{}
	_, err := RunUnderPath(dir, stub, quietConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.md")
	assert.True(t, stub.closed)
}
