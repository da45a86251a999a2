// Package tui is a terminal front-end for the year timeline.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joeblew999/plat-map/internal/markers"
	"github.com/joeblew999/plat-map/internal/service"
	"github.com/joeblew999/plat-map/internal/timeline"
	"github.com/joeblew999/plat-map/internal/viewer"
)

var (
	title    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	selected = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("220"))
	inactive = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	disabled = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	dim      = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	playing  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	paused   = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

var pinColors = map[markers.Category]lipgloss.Style{
	markers.Exploration:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	markers.Production:      lipgloss.NewStyle().Foreground(lipgloss.Color("82")),
	markers.Decommissioning: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
}

// eventMsg carries a session event into the update loop.
type eventMsg service.Event

type model struct {
	session *viewer.Session
	events  chan service.Event

	state timeline.State
	asset string
	last  string
	width int
}

// New returns the player model over a session.
func New(s *viewer.Session) tea.Model {
	m := model{
		session: s,
		events:  s.Bus().Subscribe(),
		width:   80,
	}
	m.refresh()
	return m
}

// Run starts the player and blocks until the user quits or ctx is done.
func Run(ctx context.Context, s *viewer.Session) error {
	p := tea.NewProgram(New(s), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func waitForEvent(ch <-chan service.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

func (m model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case eventMsg:
		m.last = fmt.Sprintf("%s/%s %s", msg.Resource, msg.Action, msg.Value)
		m.refresh()
		return m, waitForEvent(m.events)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	tl := m.session.Timeline()
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.session.Bus().Unsubscribe(m.events)
		return m, tea.Quit
	case "p", " ":
		tl.TogglePlay()
	case "s":
		tl.CycleSpeed()
	case "l":
		tl.ToggleLanguage()
	case "left", "h":
		if year, ok := step(m.state, -1); ok {
			tl.SelectYear(year)
		}
	case "right":
		if year, ok := step(m.state, 1); ok {
			tl.SelectYear(year)
		}
	case "1", "2", "3":
		c := markers.Categories()[msg.String()[0]-'1']
		m.session.ToggleLegend(c)
	}
	m.refresh()
	return m, nil
}

func (m *model) refresh() {
	m.state = m.session.Timeline().State()
	if maps := m.session.Maps(); maps != nil {
		_, m.asset, _ = maps.Current()
	}
}

// step returns the nearest enabled year in direction dir from the current
// selection. A selection outside the row starts from its edge.
func step(st timeline.State, dir int) (string, bool) {
	i := -1
	for j, b := range st.Buttons {
		if b.Year == st.Selected {
			i = j
			break
		}
	}
	if i == -1 && dir < 0 {
		i = len(st.Buttons)
	}
	for j := i + dir; j >= 0 && j < len(st.Buttons); j += dir {
		if st.Buttons[j].Enabled() {
			return st.Buttons[j].Year, true
		}
	}
	return "", false
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(title.Render("plat-map") + dim.Render("  "+m.session.Area()) + "\n\n")

	var row []string
	for _, btn := range m.state.Buttons {
		label := " " + btn.Year + " "
		switch btn.Status {
		case timeline.StatusSelected:
			row = append(row, selected.Render(label))
		case timeline.StatusDisabled:
			row = append(row, disabled.Render(label))
		default:
			row = append(row, inactive.Render(label))
		}
	}
	b.WriteString(lipgloss.NewStyle().Width(m.width).Render(strings.Join(row, " ")) + "\n\n")

	status := paused.Render("■ paused")
	if m.state.Playing {
		status = playing.Render("▶ playing")
	}
	fmt.Fprintf(&b, "%s  %s  %s\n", status,
		inactive.Render(m.state.Speed.String()),
		inactive.Render(m.state.Language))

	legend := m.session.Legend()
	counts := map[markers.Category]int{}
	if maps := m.session.Maps(); maps != nil {
		counts = maps.Counts()
	}
	var pins []string
	for i, c := range markers.Categories() {
		mark := "●"
		if !legend.Visible(c) {
			mark = "○"
		}
		pins = append(pins, fmt.Sprintf("%d %s %s %d", i+1, pinColors[c].Render(mark), c, counts[c]))
	}
	b.WriteString(strings.Join(pins, "   ") + "\n")
	if m.asset != "" {
		b.WriteString(dim.Render("map: "+m.asset) + "\n")
	}
	if m.last != "" {
		b.WriteString(dim.Render("last: "+m.last) + "\n")
	}

	b.WriteString("\n" + dim.Render("p play  s speed  l language  ←/→ year  1-3 legend  q quit") + "\n")
	return b.String()
}
