// Package navigation provides the live navigation view for the TUI.
package navigation

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sightline/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sightline/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sightline/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sightline/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sightline/internal/core/domain"
)

// historySize is how many past announcements are shown.
const historySize = 6

// View shows progress along a path and the latest guidance.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	bar    *status.Bar
	meter  progress.Model
	help   help.Model

	path     *domain.NavigationPath
	snapshot domain.NavigationSnapshot
	history  []string
	showHelp bool
	done     bool
	err      error

	width  int
	height int
	ready  bool

	now func() time.Time
}

// NewView creates a navigation view for path.
func NewView(s *styles.Styles, km *keymap.KeyMap, path *domain.NavigationPath) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	v := &View{
		styles: s,
		keymap: km,
		bar:    status.NewBar(s, km),
		meter:  progress.New(progress.WithDefaultGradient()),
		help:   help.New(),
		path:   path,
		now:    time.Now,
	}
	v.snapshot.State = domain.NavIdle
	if path != nil {
		v.snapshot.PathID = path.ID
		v.snapshot.WaypointCount = len(path.Waypoints)
		v.bar.SetMessage(fmt.Sprintf("%s → %s", path.StartNodeID, path.EndNodeID))
	}
	return v
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.bar.SetWidth(width)
	v.meter.Width = max(width-10, 10)
	v.help.Width = width
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the navigation view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case messages.Announced:
		v.history = append(v.history, msg.Text)
		if len(v.history) > historySize {
			v.history = v.history[len(v.history)-historySize:]
		}

	case messages.SnapshotUpdated:
		v.setSnapshot(msg.Snapshot)

	case messages.NavigationDone:
		v.done = true
		v.err = msg.Err
		if msg.Err != nil {
			v.bar.SetError(msg.Err)
		}
		if msg.Snapshot.State != "" {
			v.setSnapshot(msg.Snapshot)
		}

	case tea.KeyMsg:
		if keymap.Matches(msg.String(), v.keymap.Help) {
			v.showHelp = !v.showHelp
		}
	}
	return v, nil
}

func (v *View) setSnapshot(snap domain.NavigationSnapshot) {
	v.snapshot = snap
	v.bar.SetState(snap.State)
	if snap.State.IsTerminal() {
		v.bar.SetMessage("")
	}
}

// View renders the navigation screen.
func (v *View) View() string {
	var b strings.Builder

	title := "sightline"
	if v.path != nil {
		title = fmt.Sprintf("sightline  %s → %s", v.path.StartNodeID, v.path.EndNodeID)
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("  ")
	b.WriteString(v.styles.State(v.snapshot.State).Render(strings.ToUpper(v.snapshot.State.String())))
	b.WriteString("\n\n")

	instruction := v.snapshot.LastInstruction
	if instruction == "" {
		instruction = "Waiting for guidance…"
	}
	b.WriteString(v.styles.Instruction.Render(instruction))
	b.WriteString("\n\n")

	b.WriteString(v.meter.ViewAs(v.snapshot.Progress()))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(v.progressLine()))
	b.WriteString("\n")

	if countdown := v.Countdown(); countdown > 0 {
		b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Resuming in %ds", int(math.Ceil(countdown.Seconds())))))
		b.WriteString("\n")
	}

	if len(v.history) > 0 {
		b.WriteString("\n")
		lines := make([]string, len(v.history))
		for i, h := range v.history {
			lines[i] = "• " + h
		}
		b.WriteString(v.styles.Border.Render(strings.Join(lines, "\n")))
		b.WriteString("\n")
	}

	if v.showHelp {
		b.WriteString("\n")
		b.WriteString(v.help.FullHelpView(v.keymap.FullHelp()))
		b.WriteString("\n")
	}

	content := b.String()
	if v.ready && v.height > 0 {
		gap := v.height - lipgloss.Height(content) - 1
		if gap > 0 {
			content += strings.Repeat("\n", gap)
		}
	}
	return content + "\n" + v.bar.View()
}

func (v *View) progressLine() string {
	s := v.snapshot
	if s.WaypointCount == 0 {
		return "No waypoints"
	}
	current := min(s.CurrentWaypointIndex+1, s.WaypointCount)
	line := fmt.Sprintf("Waypoint %d of %d", current, s.WaypointCount)
	if s.State == domain.NavNavigating || s.State == domain.NavApproaching {
		line += fmt.Sprintf("  similarity %.2f", s.LastSimilarity)
	}
	if s.OffTrackCounter > 0 {
		line += fmt.Sprintf("  off-track %d", s.OffTrackCounter)
	}
	return line
}

// Countdown returns the time left before reorienting ends, zero otherwise.
func (v *View) Countdown() time.Duration {
	if v.snapshot.State != domain.NavReorienting || v.snapshot.ReorientDeadline.IsZero() {
		return 0
	}
	return max(v.snapshot.ReorientDeadline.Sub(v.now()), 0)
}

// Snapshot returns the last snapshot shown.
func (v *View) Snapshot() domain.NavigationSnapshot {
	return v.snapshot
}

// History returns the recent announcements, oldest first.
func (v *View) History() []string {
	return v.history
}

// Done returns true once navigation has ended.
func (v *View) Done() bool {
	return v.done
}

// Err returns the error navigation ended with, if any.
func (v *View) Err() error {
	return v.err
}
