package ui

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/noborus/ov/oviewer"

	"livefind/internal/domain"
	"livefind/internal/engine"
)

// PagerOps shows long content in the ov pager
type PagerOps struct {
	program *tea.Program // reference to Bubble Tea program for terminal management
}

// NewPagerOps creates a new pager operations instance
func NewPagerOps() *PagerOps {
	return &PagerOps{}
}

// SetProgram sets the program reference for terminal management
func (p *PagerOps) SetProgram(program *tea.Program) {
	p.program = program
}

// ShowInPager hands the terminal to ov until the user closes it
func (p *PagerOps) ShowInPager(content string) error {
	if p.program == nil {
		return fmt.Errorf("program not set")
	}

	if err := p.program.ReleaseTerminal(); err != nil {
		return err
	}
	defer func() {
		// Small delay to ensure ov has fully exited before restoring terminal
		time.Sleep(100 * time.Millisecond)
		_ = p.program.RestoreTerminal()
	}()

	root, err := oviewer.NewRoot(strings.NewReader(content))
	if err != nil {
		return err
	}

	// Don't write on exit, it would mess with our screen
	config := oviewer.NewConfig()
	config.IsWriteOnExit = false
	config.IsWriteOriginal = false
	root.SetConfig(config)

	return root.Run()
}

// RenderTranscript renders every candidate comment, one per line, with
// matches styled and numbered
func RenderTranscript(lines []engine.Line, location string, styles *Styles) string {
	var b strings.Builder
	b.WriteString(styles.Title.Render("livefind transcript"))
	b.WriteString("\n")
	if location != "" {
		b.WriteString(styles.Dim.Render(location))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(lines) == 0 {
		b.WriteString(styles.Dim.Render("No comments on this page"))
		b.WriteString("\n")
		return b.String()
	}

	for _, l := range lines {
		prefix := "      "
		if l.Match >= 0 {
			prefix = fmt.Sprintf("%4d. ", l.Match+1)
			if l.Active {
				prefix = styles.Key.Render(fmt.Sprintf("%4d> ", l.Match+1))
			}
		}
		b.WriteString(prefix)
		b.WriteString(renderSegments(l.Segments, styles))
		b.WriteString("\n")
	}
	return b.String()
}

// renderSegments draws comment text with its marks, on one line
func renderSegments(segs []domain.Segment, styles *Styles) string {
	var b strings.Builder
	for _, s := range segs {
		text := collapse(s.Text)
		switch {
		case s.Active:
			b.WriteString(styles.ActiveMark.Render(text))
		case s.Marked:
			b.WriteString(styles.Mark.Render(text))
		default:
			b.WriteString(text)
		}
	}
	return strings.TrimSpace(b.String())
}

// collapse folds every whitespace run into one space
func collapse(s string) string {
	var b strings.Builder
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !space {
				b.WriteByte(' ')
			}
			space = true
			continue
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}
