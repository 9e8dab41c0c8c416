package cli

import (
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/roach88/poc/internal/ir"
)

// styles renders text-mode output. Colors are dropped automatically when
// the writer is not a terminal.
type styles struct {
	pass lipgloss.Style
	fail lipgloss.Style
	dim  lipgloss.Style
	bold lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		pass: r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		fail: r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		dim:  r.NewStyle().Faint(true),
		bold: r.NewStyle().Bold(true),
	}
}

// verdict renders "✓ PASS" or "✗ FAIL".
func (s styles) verdict(v ir.Verdict) string {
	if v == ir.VerdictPass {
		return s.pass.Render("✓ PASS")
	}
	return s.fail.Render("✗ FAIL")
}

// mark renders a bare check or cross.
func (s styles) mark(ok bool) string {
	if ok {
		return s.pass.Render("✓")
	}
	return s.fail.Render("✗")
}
