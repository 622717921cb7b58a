package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	heading lipgloss.Style
	fail    lipgloss.Style
	warn    lipgloss.Style
	pass    lipgloss.Style
	site    lipgloss.Style
}

// newStyles binds the palette to w, so output stays plain when w is not a
// terminal.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		heading: r.NewStyle().Bold(true),
		fail:    r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		warn:    r.NewStyle().Foreground(lipgloss.Color("214")),
		pass:    r.NewStyle().Foreground(lipgloss.Color("42")),
		site:    r.NewStyle().Foreground(lipgloss.Color("244")),
	}
}

// WriteText renders a human-readable report.
func WriteText(w io.Writer, r *Report) error {
	s := newStyles(w)
	var b strings.Builder

	if n := len(r.Coverage.Violations); n > 0 {
		fmt.Fprintf(&b, "%s\n", s.heading.Render(fmt.Sprintf("Undocumented symbols (%d)", n)))
		for _, v := range r.Coverage.Violations {
			fmt.Fprintf(&b, "  %s %s %s (%s)\n",
				s.site.Render(v.Site.String()),
				s.fail.Render(v.Symbol),
				v.Reason,
				strings.ToLower(v.Kind.String()))
		}
		b.WriteString("\n")
	}

	if unresolved := r.Links.Unresolved(); len(unresolved) > 0 {
		fmt.Fprintf(&b, "%s\n", s.heading.Render(fmt.Sprintf("Unresolved external links (%d)", len(unresolved))))
		for _, l := range unresolved {
			fmt.Fprintf(&b, "  %s %s\n", s.site.Render(l.Sites[0].String()), s.warn.Render(l.Reference))
		}
		b.WriteString("\n")
	}

	if stale := r.Coverage.StaleExemptions; len(stale) > 0 {
		fmt.Fprintf(&b, "%s\n", s.heading.Render(fmt.Sprintf("Stale exemptions (%d)", len(stale))))
		for _, name := range stale {
			fmt.Fprintf(&b, "  %s\n", s.warn.Render(name))
		}
		b.WriteString("\n")
	}

	if len(r.ParseErrors) > 0 {
		fmt.Fprintf(&b, "%s\n", s.heading.Render(fmt.Sprintf("Skipped files (%d)", len(r.ParseErrors))))
		for _, err := range r.ParseErrors {
			fmt.Fprintf(&b, "  %s\n", s.warn.Render(err.Error()))
		}
		b.WriteString("\n")
	}

	resolved := len(r.Links.Links) - len(r.Links.Unresolved())
	summary := fmt.Sprintf("%d files, %d symbols, %d undocumented, %d/%d external links resolved",
		r.Files, r.Symbols, len(r.Coverage.Violations), resolved, len(r.Links.Links))
	if r.Coverage.Clean() {
		summary = s.pass.Render(summary)
	} else {
		summary = s.fail.Render(summary)
	}
	fmt.Fprintf(&b, "%s\n", summary)

	_, err := io.WriteString(w, b.String())
	return err
}
