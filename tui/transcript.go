package tui

import (
	"strings"

	"github.com/nathoo/questrules/cli"
)

// entry is one unstyled output line. Lines are kept raw so they can be
// re-wrapped when the terminal is resized.
type entry struct {
	text   string
	kind   lineKind
	system bool // bracketed meta-command output
}

// transcript accumulates everything shown in the output pane.
type transcript struct {
	entries []entry
}

// add records an echoed input line (if any) followed by a reply and a
// blank separator.
func (t *transcript) add(input string, reply cli.Reply) {
	if input != "" {
		t.entries = append(t.entries, entry{text: "> " + input, kind: kindInput})
	}
	for _, line := range reply.Lines {
		e := entry{text: line, system: reply.System}
		switch {
		case reply.System && strings.HasPrefix(line, "warning:"):
			e.kind = kindWarning
		case reply.System:
			e.kind = kindSystem
		default:
			e.kind = classifyLine(line)
		}
		t.entries = append(t.entries, e)
	}
	t.entries = append(t.entries, entry{})
}

// render styles and wraps every entry at width.
func (t *transcript) render(width int) string {
	if width < 10 {
		width = 10
	}
	out := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		if e.text == "" {
			out = append(out, "")
			continue
		}
		text := e.text
		if e.system && text != "" {
			text = "[" + text + "]"
		}
		out = append(out, render(e.kind, wordWrap(text, width)))
	}
	return strings.Join(out, "\n")
}

// wordWrap breaks text at spaces so no line exceeds width. A word longer
// than width gets a line of its own.
func wordWrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}
	var lines []string
	var cur []string
	n := 0
	for _, w := range strings.Fields(text) {
		if len(cur) > 0 && n+1+len(w) > width {
			lines = append(lines, strings.Join(cur, " "))
			cur, n = nil, 0
		}
		if len(cur) > 0 {
			n++
		}
		cur = append(cur, w)
		n += len(w)
	}
	if len(cur) > 0 {
		lines = append(lines, strings.Join(cur, " "))
	}
	return strings.Join(lines, "\n")
}
