package report

import (
	"slices"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Comparison is the difference between the failure sets of two campaigns.
type Comparison struct {
	Fixed      []string
	New        []string
	Persisting []string
}

// Regressed reports whether the newer campaign found failures the older one
// did not.
func (c Comparison) Regressed() bool {
	return len(c.New) > 0
}

// Unified formats the comparison one failure per line, prefixed with "-"
// (fixed), "+" (new) or a space (persisting).
func (c Comparison) Unified() string {
	type line struct {
		mark string
		text string
	}
	var lines []line
	for _, f := range c.Fixed {
		lines = append(lines, line{"-", f})
	}
	for _, f := range c.New {
		lines = append(lines, line{"+", f})
	}
	for _, f := range c.Persisting {
		lines = append(lines, line{" ", f})
	}
	slices.SortStableFunc(lines, func(a, b line) int {
		return strings.Compare(a.text, b.text)
	})

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l.mark + " " + l.text + "\n")
	}
	return b.String()
}

// Compare diffs the distinct failure lines of old and cur.
func Compare(old, cur *Report) Comparison {
	dmp := diffmatchpatch.New()
	// Exact line diffs only; the timeout enables inexact speedups.
	dmp.DiffTimeout = 0

	a, b, lineArray := dmp.DiffLinesToChars(failureText(old), failureText(cur))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	var c Comparison
	for _, d := range diffs {
		for _, text := range strings.SplitAfter(d.Text, "\n") {
			text = strings.TrimSuffix(text, "\n")
			if text == "" {
				continue
			}
			switch d.Type {
			case diffmatchpatch.DiffDelete:
				c.Fixed = append(c.Fixed, text)
			case diffmatchpatch.DiffInsert:
				c.New = append(c.New, text)
			case diffmatchpatch.DiffEqual:
				c.Persisting = append(c.Persisting, text)
			}
		}
	}
	return c
}

// failureText lists the distinct failure lines, sorted, one per line.
func failureText(r *Report) string {
	lines := make([]string, 0, len(r.Properties))
	for _, p := range r.Properties {
		lines = append(lines, p.Failure)
	}
	slices.Sort(lines)
	lines = slices.Compact(lines)

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l + "\n")
	}
	return b.String()
}
