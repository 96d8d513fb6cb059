// Package document turns markdown specification documents into ordered test
// records. Headings name tests, fenced code blocks fill the case and expected
// slots, and a small set of context-sensitive rules covers options, stderr
// merging and front-matter.
package document

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// Test is one extracted case. It is immutable once extraction finishes.
type Test struct {
	Section     string  `json:"section,omitempty"`
	Name        string  `json:"name"`
	Options     string  `json:"options,omitempty"`
	Case        string  `json:"case"`
	Expected    *string `json:"expected,omitempty"`
	MergeStderr bool    `json:"-"`
}

// Input is the result of extracting one document.
type Input struct {
	Tests          []Test
	ExpectedRunner string
}

// mergeStderrQuote is the quote block body that flips MergeStderr on the
// in-progress test.
const mergeStderrQuote = "Merge `stderr` here"

// extraction is the transient state held while walking blocks.
type extraction struct {
	section string
	current Test
	// lastWasWith records whether the previous paragraph was the literal
	// token "With", redirecting the next code block into the options slot.
	lastWasWith     bool
	listsAsExpected bool
	tests           []Test
}

// Extract walks source as a stream of block elements and returns the tests it
// describes, in document order. When listsAsExpected is set, list blocks can
// stand in for the expected output of the current case.
func Extract(source []byte, listsAsExpected bool) (*Input, error) {
	input := &Input{}

	meta, body, err := splitFrontMatter(source)
	if err != nil {
		return nil, err
	}
	if meta != nil {
		runner, err := parseFrontMatter(meta)
		if err != nil {
			return nil, err
		}
		input.ExpectedRunner = runner
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(body))

	state := extraction{listsAsExpected: listsAsExpected}
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		state.block(node, body)
	}
	state.finish()

	input.Tests = state.tests
	return input, nil
}

// block applies the per-block extraction rules to one top-level element.
func (e *extraction) block(node ast.Node, source []byte) {
	isWith := false

	switch n := node.(type) {
	case *ast.Heading:
		if n.Level >= 3 {
			e.emit()
			e.current.Name = rawText(n, source)
			e.current.Section = e.section
		} else {
			e.section = rawText(n, source)
		}

	case *ast.Paragraph:
		content := rawText(n, source)
		if options, ok := withOptions(content); ok {
			e.current.Options = options
		} else {
			isWith = content == "With"
		}

	case *ast.FencedCodeBlock:
		e.codeBlock(blockLines(n, source))
	case *ast.CodeBlock:
		e.codeBlock(blockLines(n, source))

	case *ast.Blockquote:
		if inner, ok := n.FirstChild().(*ast.Paragraph); ok {
			if strings.TrimSpace(rawText(inner, source)) == mergeStderrQuote {
				e.current.MergeStderr = true
			}
		}

	case *ast.List:
		if e.listsAsExpected && e.current.Case != "" && e.current.Expected == nil {
			content := listText(n, source)
			content = strings.ReplaceAll(content, `\<`, "<")
			content = strings.ReplaceAll(content, `\"`, `"`)
			e.current.Expected = &content
		}
	}

	e.lastWasWith = isWith
}

// codeBlock assigns a code block to the options, case or expected slot. A
// third block under the same heading finalizes the current test as a
// continuation and starts the next one.
func (e *extraction) codeBlock(code string) {
	switch {
	case e.lastWasWith:
		e.current.Options = code
	case e.current.Case == "":
		e.current.Case = code
	case e.current.Expected == nil:
		e.current.Expected = &code
	default:
		next := e.current.Name + " *"
		section := e.current.Section
		e.emit()
		e.current.Name = next
		e.current.Section = section
		e.current.Case = code
	}
}

// emit finalizes the in-progress test when it has a case, and resets the
// in-progress test either way. The current section is kept.
func (e *extraction) emit() {
	if e.current.Case != "" {
		e.tests = append(e.tests, e.current)
	}
	e.current = Test{}
}

func (e *extraction) finish() {
	e.emit()
}

// withOptions matches a paragraph of the form "With `<options>`".
func withOptions(content string) (string, bool) {
	rest, ok := strings.CutPrefix(content, "With `")
	if !ok {
		return "", false
	}
	return strings.CutSuffix(rest, "`")
}

// rawText returns a block's text as written in the source, inline markup
// included, so names keep their backticks and asterisks.
func rawText(node ast.Node, source []byte) string {
	lines := node.Lines()
	parts := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		parts = append(parts, strings.TrimRight(string(segment.Value(source)), "\n"))
	}
	return strings.Join(parts, "\n")
}

// blockLines returns the verbatim content of a code block.
func blockLines(node ast.Node, source []byte) string {
	var buf strings.Builder
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		buf.Write(segment.Value(source))
	}
	return buf.String()
}

// listText flattens a list block into one line per item, markers dropped.
func listText(list *ast.List, source []byte) string {
	var items []string
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		for child := item.FirstChild(); child != nil; child = child.NextSibling() {
			items = append(items, rawText(child, source))
		}
	}
	return strings.Join(items, "\n")
}

// splitFrontMatter peels a leading "---" fenced block off source. It returns
// nil metadata when the document has none.
func splitFrontMatter(source []byte) (meta, body []byte, err error) {
	const fence = "---"

	lines := strings.SplitAfter(string(source), "\n")
	if len(lines) == 0 || strings.TrimRight(lines[0], "\r\n") != fence {
		return nil, source, nil
	}

	start := len(lines[0])
	offset := start
	for _, line := range lines[1:] {
		if strings.TrimRight(line, "\r\n") == fence {
			return source[start:offset], source[offset+len(line):], nil
		}
		offset += len(line)
	}
	return nil, nil, fmt.Errorf("front-matter opened with %q but never closed", fence)
}

// parseFrontMatter reads the tiny key-value schema. expected_runner must be a
// string; anything else is surfaced but ignored.
func parseFrontMatter(meta []byte) (string, error) {
	values := map[string]any{}
	if err := yaml.Unmarshal(meta, &values); err != nil {
		return "", fmt.Errorf("front-matter: %w", err)
	}

	var runner string
	for key, value := range values {
		switch key {
		case "expected_runner":
			s, ok := value.(string)
			if !ok {
				return "", fmt.Errorf("front-matter key expected_runner wants a string, got %T", value)
			}
			runner = s
		default:
			log.Warn().Str("key", key).Interface("value", value).Msg("unknown front-matter key")
		}
	}
	return runner, nil
}
