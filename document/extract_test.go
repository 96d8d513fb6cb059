package document

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestExtractBasic verifies a level-3 heading names a test and the first two
// code blocks fill the case and expected slots.
func TestExtractBasic(t *testing.T) {
	t.Parallel()

	input, err := Extract([]byte("## Strings\n\n### Upper\n\n```\nhi\n```\n\n```\nHI\n```\n"), false)
	require.NoError(t, err)
	require.Len(t, input.Tests, 1)

	test := input.Tests[0]
	assert.Equal(t, "Strings", test.Section)
	assert.Equal(t, "Upper", test.Name)
	assert.Equal(t, "hi\n", test.Case)
	require.NotNil(t, test.Expected)
	assert.Equal(t, "HI\n", *test.Expected)
	assert.False(t, test.MergeStderr)
}

// TestExtractCaseNeverEmpty verifies headings without a code block emit
// nothing.
func TestExtractCaseNeverEmpty(t *testing.T) {
	t.Parallel()

	input, err := Extract([]byte("### Empty\n\nJust prose.\n\n### Real\n\n```\nx\n```\n"), false)
	require.NoError(t, err)
	require.Len(t, input.Tests, 1)
	assert.Equal(t, "Real", input.Tests[0].Name)
}

// TestExtractContinuation verifies a third code block under the same heading
// starts a continuation test whose name gains a trailing marker.
func TestExtractContinuation(t *testing.T) {
	t.Parallel()

	source := "### Chain\n\n```\none\n```\n\n```\nONE\n```\n\n```\ntwo\n```\n\n```\nTWO\n```\n"
	input, err := Extract([]byte(source), false)
	require.NoError(t, err)
	require.Len(t, input.Tests, 2)

	assert.Equal(t, "Chain", input.Tests[0].Name)
	assert.Equal(t, "Chain *", input.Tests[1].Name)
	assert.Equal(t, "two\n", input.Tests[1].Case)
	require.NotNil(t, input.Tests[1].Expected)
	assert.Equal(t, "TWO\n", *input.Tests[1].Expected)
}

// TestExtractOptionsParagraph verifies the inline "With `...`" form sets the
// options slot.
func TestExtractOptionsParagraph(t *testing.T) {
	t.Parallel()

	source := "### Opts\n\nWith `--flag value`\n\n```\nx\n```\n"
	input, err := Extract([]byte(source), false)
	require.NoError(t, err)
	require.Len(t, input.Tests, 1)
	assert.Equal(t, "--flag value", input.Tests[0].Options)
}

// TestExtractOptionsCodeBlock verifies a bare "With" paragraph redirects the
// next code block into the options slot, leaving the case slot for the block
// after it.
func TestExtractOptionsCodeBlock(t *testing.T) {
	t.Parallel()

	source := "### Opts\n\nWith\n\n```\noption-body\n```\n\n```\ncase-body\n```\n"
	input, err := Extract([]byte(source), false)
	require.NoError(t, err)
	require.Len(t, input.Tests, 1)

	test := input.Tests[0]
	assert.Equal(t, "option-body\n", test.Options)
	assert.Equal(t, "case-body\n", test.Case)
	assert.Nil(t, test.Expected)
}

// TestExtractMergeStderrQuote verifies the dedicated quote block flips
// MergeStderr for the in-progress test.
func TestExtractMergeStderrQuote(t *testing.T) {
	t.Parallel()

	source := "### Warns\n\n```\nwarn\n```\n\n> Merge `stderr` here\n\n```\n[warn]\n```\n"
	input, err := Extract([]byte(source), false)
	require.NoError(t, err)
	require.Len(t, input.Tests, 1)
	assert.True(t, input.Tests[0].MergeStderr)
}

// TestExtractListsAsExpected verifies list blocks fill the expected slot only
// when the caller opted in, with the two documented escapes undone.
func TestExtractListsAsExpected(t *testing.T) {
	t.Parallel()

	source := "### Listing\n\n```\nx\n```\n\n- \\<div>\n- say \\\"hi\\\"\n"

	input, err := Extract([]byte(source), true)
	require.NoError(t, err)
	require.Len(t, input.Tests, 1)
	require.NotNil(t, input.Tests[0].Expected)
	assert.Equal(t, "<div>\nsay \"hi\"", *input.Tests[0].Expected)

	input, err = Extract([]byte(source), false)
	require.NoError(t, err)
	require.Len(t, input.Tests, 1)
	assert.Nil(t, input.Tests[0].Expected)
}

// TestExtractSections verifies low-level headings only update the section and
// never finalize the in-progress test.
func TestExtractSections(t *testing.T) {
	t.Parallel()

	source := "# Doc\n\n## Numbers\n\n### One\n\n```\n1\n```\n\n## Letters\n\n### A\n\n```\na\n```\n"
	input, err := Extract([]byte(source), false)
	require.NoError(t, err)
	require.Len(t, input.Tests, 2)

	want := []Test{
		{Section: "Numbers", Name: "One", Case: "1\n"},
		{Section: "Letters", Name: "A", Case: "a\n"},
	}
	if diff := cmp.Diff(want, input.Tests); diff != "" {
		t.Errorf("tests mismatch (-want +got):\n%s", diff)
	}
}

// TestExtractNamePreservesMarkup verifies inline markup survives into the
// test name so the driver can style it.
func TestExtractNamePreservesMarkup(t *testing.T) {
	t.Parallel()

	input, err := Extract([]byte("### Calling `f(x)` *twice*\n\n```\nx\n```\n"), false)
	require.NoError(t, err)
	require.Len(t, input.Tests, 1)
	assert.Equal(t, "Calling `f(x)` *twice*", input.Tests[0].Name)
}

// TestExtractFrontMatter verifies expected_runner is read and that a
// non-string value is fatal.
func TestExtractFrontMatter(t *testing.T) {
	t.Parallel()

	input, err := Extract([]byte("---\nexpected_runner: deno\n---\n\n### T\n\n```\nx\n```\n"), false)
	require.NoError(t, err)
	assert.Equal(t, "deno", input.ExpectedRunner)
	require.Len(t, input.Tests, 1)

	_, err = Extract([]byte("---\nexpected_runner: 4\n---\n"), false)
	assert.Error(t, err)
}

// TestExtractFrontMatterUnknownKey verifies unknown keys are tolerated.
func TestExtractFrontMatterUnknownKey(t *testing.T) {
	t.Parallel()

	input, err := Extract([]byte("---\nsomething_else: true\n---\n\n### T\n\n```\nx\n```\n"), false)
	require.NoError(t, err)
	assert.Empty(t, input.ExpectedRunner)
	assert.Len(t, input.Tests, 1)
}

// TestExtractUnclosedFrontMatter verifies an opened but never closed
// front-matter block aborts the file.
func TestExtractUnclosedFrontMatter(t *testing.T) {
	t.Parallel()

	_, err := Extract([]byte("---\nexpected_runner: deno\n"), false)
	assert.Error(t, err)
}
