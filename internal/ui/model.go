package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"livefind/internal/config"
	"livefind/internal/domain"
	"livefind/internal/engine"
	"livefind/internal/eventbus"
)

// TranscriptSource renders the page's comments for the pager
type TranscriptSource interface {
	Transcript(ctx context.Context) ([]engine.Line, error)
}

// Model is the search panel: a query box plus the state of the last search
type Model struct {
	bus        eventbus.EventBus
	transcript TranscriptSource
	styles     *Styles
	input      textinput.Model
	pager      *PagerOps

	width  int
	height int

	strict    bool
	query     string // last submitted query
	sessionID string
	total     int
	index     int
	segments  []domain.Segment
	location  string
	notice    string
	err       error
}

// NewModel creates a new UI model
func NewModel(bus eventbus.EventBus, cfg *config.Config, transcript TranscriptSource, location string) *Model {
	ti := textinput.New()
	ti.Placeholder = "search comments"
	ti.Prompt = "> "
	ti.CharLimit = 256
	ti.Focus()

	return &Model{
		bus:        bus,
		transcript: transcript,
		styles:     NewStyles(),
		input:      ti,
		pager:      NewPagerOps(),
		strict:     cfg.UISettings.Strict,
		index:      -1,
		location:   location,
	}
}

// SetProgram sets the program reference for terminal management
func (m *Model) SetProgram(p *tea.Program) {
	m.pager.SetProgram(p)
}

// Strict reports whether exact-phrase mode is selected
func (m *Model) Strict() bool { return m.strict }

// Init returns an initial command
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-20, 10)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case EventMsg:
		m.handleEvent(msg.Event)
		return m, nil

	case pagerMsg:
		if msg.err != nil {
			m.err = msg.err
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit

	case "ctrl+s":
		m.strict = !m.strict
		return m, nil

	case "enter":
		m.query = m.input.Value()
		m.err = nil
		m.bus.Publish(eventbus.CommentSearchEvent{Query: m.query, Loose: !m.strict})
		return m, nil

	case "ctrl+n", "down":
		m.bus.Publish(eventbus.JumpToMatchEvent{Direction: domain.DirectionNext})
		return m, nil

	case "ctrl+p", "up":
		m.bus.Publish(eventbus.JumpToMatchEvent{Direction: domain.DirectionPrev})
		return m, nil

	case "pgdown":
		m.bus.Publish(eventbus.ScrollEvent{})
		return m, nil

	case "ctrl+o":
		return m, m.openTranscript()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) openTranscript() tea.Cmd {
	if m.transcript == nil {
		return nil
	}
	source, pager, styles, location := m.transcript, m.pager, m.styles, m.location
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		lines, err := source.Transcript(ctx)
		if err != nil {
			return pagerMsg{err: fmt.Errorf("failed to read page: %w", err)}
		}
		return pagerMsg{err: pager.ShowInPager(RenderTranscript(lines, location, styles))}
	}
}

func (m *Model) handleEvent(event eventbus.DomainEvent) {
	switch e := event.(type) {
	case eventbus.SearchCompletedEvent:
		m.sessionID = e.SessionID
		m.total = e.Total
		if e.Incremental {
			m.notice = fmt.Sprintf("%d new match(es) loaded", e.Added)
			return
		}
		m.index = e.Cursor
		if e.Total == 0 {
			m.segments = nil
			m.notice = fmt.Sprintf("no matches for %q", e.Query)
		} else {
			m.notice = ""
		}

	case eventbus.MatchFocusedEvent:
		if e.SessionID != m.sessionID {
			return
		}
		m.index = e.Index
		m.total = e.Total
		m.segments = e.Segments

	case eventbus.SearchClearedEvent:
		m.sessionID = ""
		m.total = 0
		m.index = -1
		m.segments = nil
		if e.Reason != domain.ClearReplaced {
			m.notice = fmt.Sprintf("search cleared (%s)", e.Reason)
		}

	case eventbus.NavigationDetectedEvent:
		m.location = e.To

	case eventbus.ContentInsertedEvent:
		slog.Debug("content inserted", "source", e.Source, "nodes", e.Nodes)

	case eventbus.ErrorEvent:
		if e.Err == nil {
			m.err = errors.New(e.Message)
			return
		}
		m.err = fmt.Errorf("%s: %w", e.Message, e.Err)
	}
}

// View renders the panel
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("livefind"))
	b.WriteString("\n")

	mode := "loose"
	if m.strict {
		mode = "strict"
	}
	b.WriteString(m.input.View())
	b.WriteString("  ")
	b.WriteString(m.styles.Mode.Render("[" + mode + "]"))
	b.WriteString("\n")

	var status string
	switch {
	case m.sessionID == "":
		status = "no active search"
	case m.total == 0:
		status = "0 matches"
	default:
		status = fmt.Sprintf("match %d/%d", m.index+1, m.total)
	}
	b.WriteString(m.styles.Status.Render(status))
	b.WriteString("\n")

	if len(m.segments) > 0 {
		comment := renderSegments(m.segments, m.styles)
		style := m.styles.Comment
		if m.width > 4 {
			style = style.Width(m.width - 4)
		}
		b.WriteString(style.Render(comment))
		b.WriteString("\n")
	}

	if m.location != "" {
		b.WriteString(m.styles.Dim.Render(m.location))
		b.WriteString("\n")
	}
	if m.notice != "" {
		b.WriteString(m.styles.Notice.Render(m.notice))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(m.styles.Error.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString(m.styles.Help.Render(
		fmt.Sprintf("%s search  %s next  %s prev  %s mode  %s load more  %s transcript  %s quit",
			m.styles.Key.Render("enter"),
			m.styles.Key.Render("↓/ctrl+n"),
			m.styles.Key.Render("↑/ctrl+p"),
			m.styles.Key.Render("ctrl+s"),
			m.styles.Key.Render("pgdn"),
			m.styles.Key.Render("ctrl+o"),
			m.styles.Key.Render("esc"))))
	return b.String()
}
