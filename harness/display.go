package harness

import (
	"strings"

	"github.com/fatih/color"
)

var (
	inlineCodeStyle = color.New(color.FgBlack, color.BgHiBlack)
	boldStyle       = color.New(color.Bold)
	italicStyle     = color.New(color.Italic)
	boldItalicStyle = color.New(color.Bold, color.Italic)
)

// renderName prepares a test name for display. Names carrying inline markup
// (backticks or asterisks) are styled; everything else passes through raw.
func renderName(name string) string {
	if !strings.ContainsAny(name, "*`") {
		return name
	}

	var out strings.Builder
	var boldOn, italicOn bool
	for i := 0; i < len(name); {
		switch {
		case name[i] == '`':
			end := strings.IndexByte(name[i+1:], '`')
			if end < 0 {
				out.WriteString(name[i:])
				return out.String()
			}
			out.WriteString(inlineCodeStyle.Sprint(name[i+1 : i+1+end]))
			i += end + 2
		case strings.HasPrefix(name[i:], "**"):
			boldOn = !boldOn
			i += 2
		case name[i] == '*':
			italicOn = !italicOn
			i++
		default:
			end := strings.IndexAny(name[i:], "*`")
			if end < 0 {
				end = len(name) - i
			}
			out.WriteString(styleFor(boldOn, italicOn).Sprint(name[i : i+end]))
			i += end
		}
	}
	return out.String()
}

func styleFor(boldOn, italicOn bool) *color.Color {
	switch {
	case boldOn && italicOn:
		return boldItalicStyle
	case boldOn:
		return boldStyle
	case italicOn:
		return italicStyle
	default:
		return color.New()
	}
}
