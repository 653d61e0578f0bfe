// Package tui is the rendering / key-decoding front end (component outside
// the core, per SPEC_FULL.md §1): a bubbletea program that decodes
// tea.KeyMsg into keymap.Chord, resolves it against the active Route's
// keymap.Context, turns the result into an appstate.AppCommand, and hands
// it to appstate.State.Apply. It never contains business logic itself;
// every mutation flows through Apply. Grounded on the bubbletea
// Model/Update/View shape used across the retrieval pack (e.g.
// kastheco-klique's app.home and grovetools-flow's status_tui), adapted to
// drive this module's own state machine instead of an ad hoc one.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"twinfm/internal/appstate"
	"twinfm/internal/bridge"
	"twinfm/internal/help"
	"twinfm/internal/jobs"
	"twinfm/internal/keymap"
	"twinfm/internal/watcher"
)

// tickMsg drives the bridge drain loop at the configured tick rate,
// matching spec §6's "--tick-rate-ms poll budget per UI tick".
type tickMsg time.Time

// panelChangedMsg reports that a PanelWatcher observed a filesystem change
// for panel. It carries no payload beyond that: the actual reread still
// goes through appstate.State.QueuePanelRefresh, run from Update on the
// bubbletea event-loop goroutine, never from the watcher's own goroutine.
type panelChangedMsg struct{ panel jobs.PanelID }

// Model is the bubbletea root model. It owns the appstate machine, the
// bridge to the worker/background runtimes, the keymap resolver, the help
// graph, and one PanelWatcher per panel.
type Model struct {
	state    *appstate.State
	bridge   *bridge.Bridge
	resolver *keymap.Resolver
	helpG    *help.Graph

	program  *tea.Program
	watchers [2]*watcher.PanelWatcher

	tickRate time.Duration
	width    int
	height   int
}

// New builds a Model. resolver may be empty (NewResolver()) if the keymap
// file failed to load; the caller is expected to have already applied a
// ParseReport warning via applog before constructing the Model. The caller
// must still call SetProgram before Run, so PanelWatcher notifications
// (created lazily in Init, once the program reference is guaranteed set)
// have somewhere to go.
func New(state *appstate.State, br *bridge.Bridge, resolver *keymap.Resolver, tickRate time.Duration) *Model {
	return &Model{
		state:    state,
		bridge:   br,
		resolver: resolver,
		helpG:    help.NewGraph(help.IndexID),
		tickRate: tickRate,
	}
}

// SetProgram records the *tea.Program a PanelWatcher should notify through.
// Must be called after tea.NewProgram(m, ...) and before p.Run(), so it has
// happened before Init (and therefore before any watcher goroutine) runs.
func (m *Model) SetProgram(p *tea.Program) { m.program = p }

// QueuePanelRefresh implements watcher.PanelRefresher. It runs on whatever
// goroutine the PanelWatcher's debounce timer fires on, so it must never
// touch m.state directly (spec §9: "state machine as single owner ...
// events enter serially on the UI thread's tick") — it only forwards to the
// bubbletea program's message queue, which is safe to send to from any
// goroutine. The actual QueuePanelRefresh call happens in Update, handling
// panelChangedMsg on the UI goroutine.
func (m *Model) QueuePanelRefresh(panel jobs.PanelID) {
	if m.program != nil {
		m.program.Send(panelChangedMsg{panel: panel})
	}
}

func (m *Model) Init() tea.Cmd {
	for i := range m.watchers {
		m.watchers[i] = watcher.NewPanelWatcher(jobs.PanelID(i), m)
		m.watchers[i].Retarget(m.state.Panels[i].Cwd)
	}
	return tea.Batch(m.tick(), refreshCmd(jobs.PanelLeft), refreshCmd(jobs.PanelRight))
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.tickRate, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// refreshCmd returns a tea.Cmd requesting the initial panel load. Like any
// tea.Cmd, bubbletea runs its function on its own goroutine and feeds the
// returned Msg back into Update; it must not touch m.state itself, only
// return panelChangedMsg for Update to apply.
func refreshCmd(panel jobs.PanelID) tea.Cmd {
	return func() tea.Msg { return panelChangedMsg{panel: panel} }
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case panelChangedMsg:
		m.state.QueuePanelRefresh(msg.panel)
		return m, nil

	case tickMsg:
		m.drain()
		m.retargetWatchers()
		if m.state.Quit {
			m.shutdown()
			return m, tea.Quit
		}
		return m, m.tick()

	case tea.KeyMsg:
		m.handleKey(msg)
		if m.state.Quit {
			m.shutdown()
			return m, tea.Quit
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) {
	route := m.state.TopRoute()
	dialogKind := appstate.DialogKind(0)
	if m.state.Dialog != nil {
		dialogKind = m.state.Dialog.Kind
	}
	ctx := routeContext(route, dialogKind)

	// An unmodified printable rune typed into an Input dialog is text, not
	// a binding lookup: a config file cannot practically enumerate every
	// letter as its own "Action = chord" line, and ParseChord lowercases
	// its input, which would corrupt typed case. InsertChar short-circuits
	// the resolver for exactly this one case; every other key (including
	// Enter/Esc/Backspace/Tab in the same context) still resolves through
	// the normal chord table.
	if ctx == keymap.Input && !msg.Alt {
		switch {
		case msg.Type == tea.KeyRunes && len(msg.Runes) == 1:
			m.state.Apply(appstate.AppCommand{Kind: appstate.CmdDialogInsertChar, Char: msg.Runes[0]})
			return
		case msg.Type == tea.KeySpace:
			m.state.Apply(appstate.AppCommand{Kind: appstate.CmdDialogInsertChar, Char: ' '})
			return
		}
	}

	chord, ok := chordFromKeyMsg(msg)
	if !ok {
		return
	}

	action, ok := m.resolver.Resolve(ctx, chord)
	if !ok {
		return
	}

	cmd, ok := commandFor(action, 0, route)
	if !ok {
		return
	}

	if route == appstate.RouteHelp {
		m.handleHelpCommand(cmd)
		return
	}

	m.state.Apply(cmd)
}

// handleHelpCommand drives the help graph directly; the Help route has no
// appstate fields of its own (spec marks help out of scope for testing
// depth), so its navigation lives entirely in the tui layer.
func (m *Model) handleHelpCommand(cmd appstate.AppCommand) {
	switch cmd.Kind {
	case appstate.CmdDialogFocusNext:
		m.helpG.SelectNextLink()
	case appstate.CmdDialogAccept:
		m.helpG.Follow()
	case appstate.CmdDialogCancel, appstate.CmdClose:
		m.state.Apply(appstate.AppCommand{Kind: appstate.CmdClose})
	case appstate.CmdMoveUp:
		m.helpG.MoveLines(-1)
	case appstate.CmdMoveDown:
		m.helpG.MoveLines(1)
	}
}

// drain pumps one tick's worth of bridge traffic: flush outbound command
// queues, apply inbound events, and surface any dispatch failures, per
// spec §4.F/§4.G's tick-driven integration loop.
func (m *Model) drain() {
	s := m.state
	remainingWorker, remainingBackground, failures := m.bridge.DrainOutbound(s.PendingWorkerCommands, s.PendingBackgroundCommands)
	s.PendingWorkerCommands = remainingWorker
	s.PendingBackgroundCommands = remainingBackground
	for _, f := range failures {
		s.DrainDispatchFailure(f.WorkerEvent, f.StatusMessage)
	}

	workerEvents, workerDisconnect := m.bridge.DrainWorkerEvents()
	for _, ev := range workerEvents {
		s.HandleWorkerEvent(ev)
	}
	if workerDisconnect != "" {
		s.DrainDispatchFailure(nil, workerDisconnect)
	}

	bgEvents, bgDisconnect := m.bridge.DrainBackgroundEvents()
	for _, ev := range bgEvents {
		s.HandleBackgroundEvent(ev)
	}
	if bgDisconnect != "" {
		s.DrainDispatchFailure(nil, bgDisconnect)
	}
}

// retargetWatchers repoints each panel's fsnotify watch at its current
// directory once per tick; Retarget itself is a no-op when that directory
// is already being watched, and retries a watch that could not be
// established.
func (m *Model) retargetWatchers() {
	for i := range m.watchers {
		m.watchers[i].Retarget(m.state.Panels[i].Cwd)
	}
}

func (m *Model) shutdown() {
	for _, w := range m.watchers {
		w.Close()
	}
	m.bridge.Shutdown()
}
