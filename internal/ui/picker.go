// Package ui holds the interactive attach picker shown by `oc attach` when
// no session name is given.
package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"
)

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Filter key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Select: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "attach/start")),
	Filter: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
	Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q/esc", "exit")),
}

const (
	defaultWidth = 100
	minInner     = 72
	maxInner     = 120
)

// Picker is a bubbletea model listing sessions to attach to.
type Picker struct {
	rows    []Row
	visible []int // indexes into rows, in display order
	cursor  int

	filter    textinput.Model
	filtering bool

	width  int
	chosen string
	done   bool
}

// NewPicker returns a picker over rows.
func NewPicker(rows []Row) *Picker {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "type to filter"
	ti.CharLimit = 64

	p := &Picker{rows: rows, filter: ti, width: defaultWidth}
	p.applyFilter()
	return p
}

// Init implements tea.Model.
func (p *Picker) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (p *Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		return p, nil
	case tea.KeyMsg:
		if p.filtering {
			return p.updateFiltering(msg)
		}
		return p.updateBrowsing(msg)
	}
	return p, nil
}

func (p *Picker) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		p.done = true
		return p, tea.Quit
	case key.Matches(msg, keys.Up):
		p.move(-1)
	case key.Matches(msg, keys.Down):
		p.move(1)
	case key.Matches(msg, keys.Filter):
		p.filtering = true
		return p, p.filter.Focus()
	case key.Matches(msg, keys.Select):
		return p.selectCurrent()
	}
	return p, nil
}

func (p *Picker) updateFiltering(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		p.done = true
		return p, tea.Quit
	case tea.KeyEsc:
		p.filtering = false
		p.filter.Blur()
		p.filter.SetValue("")
		p.applyFilter()
		return p, nil
	case tea.KeyEnter:
		return p.selectCurrent()
	case tea.KeyUp:
		p.move(-1)
		return p, nil
	case tea.KeyDown:
		p.move(1)
		return p, nil
	}

	var cmd tea.Cmd
	p.filter, cmd = p.filter.Update(msg)
	p.applyFilter()
	return p, cmd
}

func (p *Picker) selectCurrent() (tea.Model, tea.Cmd) {
	if len(p.visible) == 0 {
		return p, nil
	}
	p.chosen = p.rows[p.visible[p.cursor]].Name
	p.done = true
	return p, tea.Quit
}

func (p *Picker) move(delta int) {
	n := len(p.visible)
	if n == 0 {
		return
	}
	p.cursor = (p.cursor + delta + n) % n
}

// applyFilter recomputes visible rows. An empty query shows every row in
// name order; otherwise rows are ranked by fuzzy score.
func (p *Picker) applyFilter() {
	query := strings.TrimSpace(p.filter.Value())
	p.visible = p.visible[:0]
	if query == "" {
		for i := range p.rows {
			p.visible = append(p.visible, i)
		}
	} else {
		names := make([]string, len(p.rows))
		for i, r := range p.rows {
			names[i] = r.Name
		}
		for _, m := range fuzzy.Find(query, names) {
			p.visible = append(p.visible, m.Index)
		}
	}
	if p.cursor >= len(p.visible) {
		p.cursor = 0
	}
}

// Choice returns the selected session name; ok is false when the user
// exited without choosing.
func (p *Picker) Choice() (name string, ok bool) {
	return p.chosen, p.chosen != ""
}

type columns struct {
	name, state, flags, win, path int
}

func (p *Picker) layout() (inner int, c columns) {
	inner = p.width - 4
	if inner < minInner {
		inner = minInner
	}
	if inner > maxInner {
		inner = maxInner
	}
	c.name = inner * 24 / 100
	if c.name < 14 {
		c.name = 14
	}
	c.state, c.flags, c.win = 8, 14, 4
	c.path = inner - (c.name + c.state + c.flags + c.win + 8)
	return inner, c
}

func fit(s string, w int) string {
	return runewidth.FillRight(runewidth.Truncate(s, w, "…"), w)
}

func fitRight(s string, w int) string {
	return runewidth.FillLeft(runewidth.Truncate(s, w, "…"), w)
}

func (c columns) line(name, state, flags, win, path string) string {
	return strings.Join([]string{
		fit(name, c.name), fit(state, c.state), fit(flags, c.flags), fitRight(win, c.win), fit(path, c.path),
	}, "  ")
}

// View implements tea.Model.
func (p *Picker) View() string {
	if p.done {
		return ""
	}
	st := currentStyles()
	inner, cols := p.layout()

	var b strings.Builder
	b.WriteString(st.title.Render("OC SESSION MANAGER"))
	b.WriteString("\n")
	b.WriteString(st.help.Render(helpLine()))
	b.WriteString("\n")
	if p.filtering || p.filter.Value() != "" {
		b.WriteString(p.filter.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(st.header.Render(cols.line("SESSION", "STATE", "FLAGS", "WIN", "PROJECT")))
	b.WriteString("\n")

	if len(p.visible) == 0 {
		msg := "no mapped or running sessions"
		if p.filter.Value() != "" {
			msg = fmt.Sprintf("nothing matches %q", p.filter.Value())
		}
		b.WriteString(st.dim.Render(msg))
		b.WriteString("\n")
	}

	for i, idx := range p.visible {
		r := p.rows[idx]
		win := "-"
		if r.Running {
			win = strconv.Itoa(r.Windows)
		}
		line := cols.line(r.Name, r.State(), r.Flags(), win, compactPath(r.Dir, 3))
		switch {
		case i == p.cursor:
			line = st.selected.Render(line)
		case r.Focused:
			line = st.focus.Render(line)
		case r.Running:
			line = st.running.Render(line)
		default:
			line = st.row.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return st.frame.Width(inner + 2).Render(strings.TrimRight(b.String(), "\n"))
}

func helpLine() string {
	var parts []string
	for _, k := range []key.Binding{keys.Up, keys.Down, keys.Select, keys.Filter, keys.Quit} {
		h := k.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return strings.Join(parts, "   ")
}

// Pick runs the picker full screen and returns the chosen session name.
// ok is false when the user exits without choosing.
func Pick(rows []Row, opts ...tea.ProgramOption) (name string, ok bool, err error) {
	p := NewPicker(rows)
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	if _, err := tea.NewProgram(p, opts...).Run(); err != nil {
		return "", false, fmt.Errorf("attach picker: %w", err)
	}
	name, ok = p.Choice()
	return name, ok, nil
}

var _ tea.Model = (*Picker)(nil)
