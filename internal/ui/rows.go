package ui

import (
	"os"
	"sort"
	"strings"

	"github.com/tchow-twistedxcom/occtl/internal/mapping"
	"github.com/tchow-twistedxcom/occtl/internal/tmux"
)

// Row is one entry of the attach picker: a mapped project, a live session,
// or both.
type Row struct {
	Name     string
	Dir      string
	Running  bool
	Attached bool
	Focused  bool
	Windows  int
}

// BuildRows merges mappings and live sessions into rows sorted by name.
func BuildRows(mappings []mapping.Entry, live []tmux.SessionInfo, focused string) []Row {
	byName := map[string]*Row{}
	get := func(name string) *Row {
		r, ok := byName[name]
		if !ok {
			r = &Row{Name: name, Focused: name == focused}
			byName[name] = r
		}
		return r
	}
	for _, m := range mappings {
		get(m.Name).Dir = m.Path
	}
	for _, s := range live {
		r := get(s.Name)
		r.Running = true
		r.Attached = s.Attached
		r.Windows = s.Windows
	}

	rows := make([]Row, 0, len(byName))
	for _, r := range byName {
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows
}

// State is RUNNING or STOPPED.
func (r Row) State() string {
	if r.Running {
		return "RUNNING"
	}
	return "STOPPED"
}

// Flags lists FOCUS and ATTACHED, or "-" when neither applies.
func (r Row) Flags() string {
	var f []string
	if r.Focused {
		f = append(f, "FOCUS")
	}
	if r.Attached {
		f = append(f, "ATTACHED")
	}
	if len(f) == 0 {
		return "-"
	}
	return strings.Join(f, ",")
}

// compactPath abbreviates the home directory and keeps the last
// maxSegments path elements.
func compactPath(path string, maxSegments int) string {
	if path == "" {
		return "(unmapped)"
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		if path == home {
			path = "~"
		} else if strings.HasPrefix(path, home+"/") {
			path = "~" + path[len(home):]
		}
	}
	parts := strings.Split(path, "/")
	if len(parts) <= maxSegments+1 {
		return path
	}
	return ".../" + strings.Join(parts[len(parts)-maxSegments:], "/")
}
