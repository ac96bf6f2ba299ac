package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sightline/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sightline/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sightline/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sightline/internal/adapters/driving/tui/views/navigation"
	"github.com/custodia-labs/sightline/internal/core/domain"
)

// tickInterval refreshes the reorient countdown.
const tickInterval = 500 * time.Millisecond

// App is the navigation dashboard following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	sink   *Sink
	keymap *keymap.KeyMap
	view   *navigation.View

	// quitting is set once the user asked to leave; the program exits
	// when the navigator confirms it has stopped.
	quitting bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a dashboard. sink must be the GuidanceSink the navigator
// was built with.
func NewApp(ports *Ports, sink *Sink, theme *styles.Theme) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}
	if sink == nil {
		sink = NewSink(nil)
	}
	km := keymap.DefaultKeyMap()
	return &App{
		ports:  ports,
		sink:   sink,
		keymap: km,
		view:   navigation.NewView(styles.NewStyles(theme), km, ports.Path),
	}, nil
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("sightline - Navigation"),
		tick(),
	)
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg { return messages.Tick{} })
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.NavigationDone:
		a.view.Update(msg)
		if a.quitting {
			return a, tea.Quit
		}
		return a, nil

	case messages.Tick:
		a.view.Update(msg)
		if a.view.Done() {
			return a, nil
		}
		return a, tick()
	}

	var cmd tea.Cmd
	a.view, cmd = a.view.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, a.keymap.Quit):
		if a.view.Done() {
			return a, tea.Quit
		}
		a.quitting = true
		a.ports.Navigation.Stop()
		return a, nil

	case keymap.Matches(k, a.keymap.Stop):
		a.ports.Navigation.Stop()
		return a, nil

	case keymap.Matches(k, a.keymap.Resume):
		a.ports.Navigation.Resume()
		return a, nil

	case keymap.Matches(k, a.keymap.Repeat):
		if last := a.view.Snapshot().LastInstruction; last != "" {
			a.sink.Announce(last)
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.view, cmd = a.view.Update(msg)
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	return a.view.View()
}

// NavigationView returns the underlying view.
func (a *App) NavigationView() *navigation.View {
	return a.view
}

// Run starts navigation and the dashboard together and returns when both
// have finished.
func (a *App) Run(ctx context.Context, opts ...tea.ProgramOption) (domain.NavigationSnapshot, error) {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	program := tea.NewProgram(a, opts...)

	type result struct {
		snap domain.NavigationSnapshot
		err  error
	}
	done := make(chan result, 1)

	navCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.sink.pump(program.Send)
	go func() {
		snap, err := a.ports.Navigation.Navigate(navCtx, a.ports.Path, a.ports.Headings)
		a.sink.Close(messages.NavigationDone{Snapshot: snap, Err: err})
		done <- result{snap, err}
	}()

	_, runErr := program.Run()

	// The program can exit first on ctrl+c or a terminal error. Stop is a
	// no-op if Navigate has not started yet; the cancel covers that case.
	a.ports.Navigation.Stop()
	cancel()
	res := <-done

	if res.err != nil {
		return res.snap, res.err
	}
	if runErr != nil && ctx.Err() == nil {
		return res.snap, fmt.Errorf("running dashboard: %w", runErr)
	}
	return res.snap, nil
}
