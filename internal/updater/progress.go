package updater

import (
	"fmt"
	"io"

	"animap/internal/logging"
)

// counterLine rewrites a "collection - (updated/records)" line in place on
// a terminal. It is a no-op for any other writer.
type counterLine struct {
	w     io.Writer
	label string
	last  string
}

func newCounterLine(w io.Writer, label string) *counterLine {
	if !logging.IsTerminal(w) {
		return &counterLine{label: label}
	}
	return &counterLine{w: w, label: label}
}

func (c *counterLine) render(r *CollectionResult) {
	if c.w == nil {
		return
	}
	line := fmt.Sprintf("%s - (%d/%d)", c.label, r.Updated, r.Records)
	if line == c.last {
		return
	}
	c.last = line
	fmt.Fprintf(c.w, "\r%s", line)
}

func (c *counterLine) finish(r *CollectionResult) {
	if c.w == nil {
		return
	}
	c.last = ""
	c.render(r)
	fmt.Fprintln(c.w)
}
