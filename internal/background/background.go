// Package background implements the Background runtime (component E):
// two disjoint bounded pools — a scan pool (RefreshPanel/Find/BuildTree,
// default 4 slots) and a viewer pool (LoadViewer, default 2 slots) —
// executing read-only, cancellable, possibly-streaming tasks.
//
// Pool/dispatch architecture shares its shape with internal/worker
// (grounded the same way, on ChuLiYu-raft-recovery's worker.Pool), kept as
// a second, disjoint instantiation per spec §9 ("do not collapse workers
// and background tasks into one pool").
package background

import (
	"os/exec"
	"strings"
	"sync"

	"twinfm/internal/apperr"
	"twinfm/internal/cancel"
	"twinfm/internal/fileinfo"
	"twinfm/internal/fsops"
	"twinfm/internal/jobs"
)

// DefaultScanSlots is S, the default scan pool size.
const DefaultScanSlots = 4

// DefaultViewerSlots is V, the default viewer pool size.
const DefaultViewerSlots = 2

// FindChunkSize is the default CHUNK for streamed find results.
const FindChunkSize = 64

// CommandKind is the closed enumeration of BackgroundCommand kinds.
type CommandKind int

const (
	CmdRefreshPanel CommandKind = iota
	CmdLoadViewer
	CmdFind
	CmdBuildTree
	CmdShutdown
)

// Command carries the inputs for one BackgroundCommand. Only the fields
// relevant to Kind are populated.
type Command struct {
	Kind       CommandKind
	JobID      jobs.JobId
	CancelFlag *cancel.Flag
	PauseFlag  *cancel.PauseFlag // Find only

	// RefreshPanel
	Panel      jobs.PanelID
	Cwd        string
	Source     jobs.PanelListingSource
	SortMode   fileinfo.SortMode
	ShowHidden bool
	RequestID  uint64

	// LoadViewer
	ViewerPath string

	// Find
	Query      string
	BaseDir    string
	MaxResults int

	// BuildTree
	TreeRoot   string
	MaxDepth   int
	MaxEntries int
}

// EventKind is the closed enumeration of BackgroundEvent kinds.
type EventKind int

const (
	// EvtStarted marks a RefreshPanel/LoadViewer/BuildTree job as running,
	// the background-pool analogue of worker's EventStarted; Find signals
	// the same transition via EvtFindStarted instead; see
	// appstate.State.HandleBackgroundEvent for how these two feed into the
	// same job lifecycle.
	EvtStarted EventKind = iota
	EvtPanelRefreshed
	EvtViewerLoaded
	EvtFindStarted
	EvtFindChunk
	EvtFindFinished
	EvtTreeReady
)

// Event is what the runtime emits back to the state machine.
type Event struct {
	Kind  EventKind
	JobID jobs.JobId

	// PanelRefreshed
	Panel     jobs.PanelID
	Cwd       string
	Source    jobs.PanelListingSource
	SortMode  fileinfo.SortMode
	RequestID uint64
	Entries   []fileinfo.FileEntry
	Err       *apperr.JobError

	// ViewerLoaded
	ViewerContent []byte
	Truncated     bool

	// FindEntriesChunk
	FindEntries []fileinfo.FileEntry

	// TreeReady
	Tree *TreeNode
}

// TreeNode is one node of a BuildTree result.
type TreeNode struct {
	Path     string
	Name     string
	IsDir    bool
	Children []*TreeNode
}

// Runtime is the background task pool.
type Runtime struct {
	scanSlots   chan struct{}
	viewerSlots chan struct{}
	inbound     chan Command
	outbox      chan Event
	wg          sync.WaitGroup
}

// NewRuntime builds a Runtime with S scan slots and V viewer slots.
func NewRuntime(scanSlots, viewerSlots, inboundCap, outboundCap int) *Runtime {
	if scanSlots <= 0 {
		scanSlots = DefaultScanSlots
	}
	if viewerSlots <= 0 {
		viewerSlots = DefaultViewerSlots
	}
	return &Runtime{
		scanSlots:   make(chan struct{}, scanSlots),
		viewerSlots: make(chan struct{}, viewerSlots),
		inbound:     make(chan Command, inboundCap),
		outbox:      make(chan Event, outboundCap),
	}
}

// Inbound returns the channel the bridge try-sends Commands into.
func (r *Runtime) Inbound() chan<- Command { return r.inbound }

// Outbound returns the channel the bridge try-receives Events from.
func (r *Runtime) Outbound() <-chan Event { return r.outbox }

// Start runs the dispatch loop until CmdShutdown is processed.
func (r *Runtime) Start() {
	for cmd := range r.inbound {
		switch cmd.Kind {
		case CmdShutdown:
			r.wg.Wait()
			close(r.outbox)
			return
		case CmdLoadViewer:
			r.viewerSlots <- struct{}{}
			r.spawn(cmd, r.viewerSlots)
		default: // RefreshPanel, Find, BuildTree
			r.scanSlots <- struct{}{}
			r.spawn(cmd, r.scanSlots)
		}
	}
}

func (r *Runtime) spawn(cmd Command, slots chan struct{}) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() { <-slots }()
		if cmd.Kind != CmdFind {
			r.emit(Event{Kind: EvtStarted, JobID: cmd.JobID})
		}
		r.run(cmd)
	}()
}

func (r *Runtime) emit(ev Event) { r.outbox <- ev }

func (r *Runtime) run(cmd Command) {
	switch cmd.Kind {
	case CmdRefreshPanel:
		r.runRefreshPanel(cmd)
	case CmdLoadViewer:
		r.runLoadViewer(cmd)
	case CmdFind:
		r.runFind(cmd)
	case CmdBuildTree:
		r.runBuildTree(cmd)
	}
}

func (r *Runtime) runRefreshPanel(cmd Command) {
	entries, err := refreshPanelEntries(cmd.Source, cmd.Cwd, cmd.ShowHidden, cmd.SortMode, cmd.CancelFlag)
	ev := Event{
		Kind:      EvtPanelRefreshed,
		JobID:     cmd.JobID,
		Panel:     cmd.Panel,
		Cwd:       cmd.Cwd,
		Source:    cmd.Source,
		SortMode:  cmd.SortMode,
		RequestID: cmd.RequestID,
		Entries:   entries,
	}
	if err != nil {
		ev.Err = toJobError(err)
	}
	r.emit(ev)
}

// refreshPanelEntries dispatches on the three PanelListingSource variants,
// grounded on original_source/crates/core/src/background.rs's
// refresh_panel_entries.
func refreshPanelEntries(src jobs.PanelListingSource, cwd string, showHidden bool, mode fileinfo.SortMode, cf *cancel.Flag) ([]fileinfo.FileEntry, error) {
	switch src.Kind {
	case jobs.SourceDirectory:
		entries, err := fsops.ReadDir(cwd, showHidden, mode)
		if err != nil {
			return nil, err
		}
		return filterByPattern(entries, src.FilterPattern), nil

	case jobs.SourcePanelize:
		entries, err := panelizeEntries(src.Command, cf)
		if err != nil {
			return nil, err
		}
		fileinfo.Sort(entries, mode)
		return filterByPattern(entries, src.FilterPattern), nil

	case jobs.SourceFindResults:
		entries := findResultEntries(src.Paths)
		fileinfo.Sort(entries, mode)
		return filterByPattern(entries, src.FilterPattern), nil

	default:
		return nil, apperr.InvalidInput("unknown panel listing source")
	}
}

func filterByPattern(entries []fileinfo.FileEntry, pattern string) []fileinfo.FileEntry {
	if pattern == "" {
		return entries
	}
	out := entries[:0:0]
	for _, e := range entries {
		if e.IsParent || fileinfo.MatchesPattern(e.Name, pattern) {
			out = append(out, e)
		}
	}
	return out
}

// panelizeEntries runs a shell command and lists each stdout line as an
// entry, the supplemental Panelize feature named in SPEC_FULL.md.
func panelizeEntries(command string, cf *cancel.Flag) ([]fileinfo.FileEntry, error) {
	if err := cf.Check(); err != nil {
		return nil, err
	}
	out, err := exec.Command("sh", "-c", command).Output()
	if err != nil {
		return nil, apperr.NewJobError(apperr.CodeOther, "panelize command failed: "+err.Error())
	}
	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	entries := make([]fileinfo.FileEntry, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		entries = append(entries, statOrBareEntry(line))
	}
	return entries, nil
}

func findResultEntries(paths []string) []fileinfo.FileEntry {
	entries := make([]fileinfo.FileEntry, 0, len(paths))
	for _, p := range paths {
		entries = append(entries, statOrBareEntry(p))
	}
	return entries
}
