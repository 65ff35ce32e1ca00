package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// ColorEnabled reports whether the terminal can show a styled report.
func ColorEnabled() bool {
	return lipgloss.ColorProfile() != termenv.Ascii
}

// Markdown renders the report for humans.
func (r *Report) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Campaign %s\n\n", r.Name)
	b.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| ID | %s |\n", r.ID)
	fmt.Fprintf(&b, "| Seed | %d |\n", r.Seed)
	fmt.Fprintf(&b, "| Duration | %s |\n", r.Duration().Round(time.Second))
	fmt.Fprintf(&b, "| Generations | %d |\n", r.Generations)
	fmt.Fprintf(&b, "| Workers | %d |\n", r.Workers)
	fmt.Fprintf(&b, "| Failed workers | %d |\n", len(r.Failures))
	if r.Killed > 0 {
		fmt.Fprintf(&b, "| Killed after timeout | %d |\n", r.Killed)
	}
	if r.Interrupted {
		b.WriteString("| Interrupted | yes |\n")
	}
	b.WriteString("\n")

	if len(r.Failures) == 0 {
		b.WriteString("## NO FAILURES\n")
		return b.String()
	}

	b.WriteString("## SOME TESTS FAILED\n\n")
	if len(r.Properties) == 0 {
		b.WriteString("Failed workers reported no property failures:\n\n")
		for _, f := range r.Failures {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		return b.String()
	}

	b.WriteString("### Property results\n")
	for _, p := range r.Properties {
		b.WriteString("\n---\n\n")
		fence := codeFence(p.Failure)
		fmt.Fprintf(&b, "%stext\n%s\n%s\n\n", fence, p.Failure, fence)
		fmt.Fprintf(&b, "**FAILED %d TIMES**\n\n", p.Count)
		fmt.Fprintf(&b, "See: %s\n", strings.Join(p.LogPaths(), ", "))
	}
	return b.String()
}

// codeFence returns a backtick fence longer than any backtick run in line.
func codeFence(line string) string {
	longest, run := 0, 0
	for _, r := range line {
		if r != '`' {
			run = 0
			continue
		}
		run++
		longest = max(longest, run)
	}
	return strings.Repeat("`", max(3, longest+1))
}

// Render writes the report to w, through glamour when styled.
func (r *Report) Render(w io.Writer, styled bool) error {
	md := r.Markdown()
	if !styled {
		_, err := io.WriteString(w, md)
		return err
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := renderer.Render(md)
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}
