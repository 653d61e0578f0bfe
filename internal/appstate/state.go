package appstate

import (
	"path/filepath"
	"strconv"

	"twinfm/internal/background"
	"twinfm/internal/fileinfo"
	"twinfm/internal/jobs"
	"twinfm/internal/settings"
	"twinfm/internal/worker"
)

// FindMaxResults bounds how many matches a Find dialog request accepts.
const FindMaxResults = 10000

// DefaultTreeMaxDepth/DefaultTreeMaxEntries bound a ShowTree request.
const (
	DefaultTreeMaxDepth   = 32
	DefaultTreeMaxEntries = 20000
)

// PanelFocusTarget records a cursor target to apply once a panel refresh
// completes — e.g. after creating a directory, move the cursor onto it.
type PanelFocusTarget struct {
	Panel      jobs.PanelID
	TargetPath string
}

// PanelizeRevert records the source to restore if a Panelize refresh fails.
type PanelizeRevert struct {
	Panel          jobs.PanelID
	PreviousSource jobs.PanelListingSource
}

// State is the single owner of all core mutable state: panels, the route
// stack, the Job Manager, find/tree results, the status line, and the
// outbound command queues the bridge drains. Grounded on the teacher's
// main.go application struct and on spec §4.G's field list verbatim.
type State struct {
	Panels [2]Panel
	Active jobs.PanelID

	Routes []Route
	Dialog *DialogState

	Manager *jobs.Manager

	FindEntries []fileinfo.FileEntry
	FindJobID   jobs.JobId

	Tree        *background.TreeNode
	TreeJobID   jobs.JobId
	ViewerPath  string
	ViewerData  []byte
	ViewerTrunc bool
	viewerJobID jobs.JobId

	StatusLine string

	PendingWorkerCommands     []worker.Command
	PendingBackgroundCommands []background.Command

	panelRefreshRequestIDs    [2]uint64
	panelRefreshJobIDs        [2]jobs.JobId
	nextPanelRefreshRequestID uint64

	PendingPanelFocus     *PanelFocusTarget
	PendingPanelizeRevert *PanelizeRevert

	persistInFlightID      jobs.JobId
	deferredPersistRequest *jobs.JobRequest

	JobsCursor int

	Settings settings.Settings

	Quit bool
}

// New builds a State with both panels pointed at startPath, the
// FileManager route at the bottom of the stack, and the given settings
// snapshot (normally loaded at startup via internal/settingsio).
func New(startPath string, mgr *jobs.Manager, snap settings.Settings) *State {
	s := &State{
		Manager:  mgr,
		Routes:   []Route{RouteFileManager},
		Settings: snap,
	}
	for i := range s.Panels {
		s.Panels[i] = Panel{
			Cwd:        startPath,
			ShowHidden: snap.PanelOptions.ShowHiddenFiles,
		}
		if mode, ok := fileinfo.ParseSortMode(snap.PanelOptions.SortField); ok {
			s.Panels[i].SortMode = mode
		}
	}
	return s
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func (s *State) topRoute() Route {
	if len(s.Routes) == 0 {
		return RouteFileManager
	}
	return s.Routes[len(s.Routes)-1]
}

// TopRoute exposes the route on top of the stack for the rendering layer;
// it determines both what to draw and which keymap context resolves keys.
func (s *State) TopRoute() Route { return s.topRoute() }

func (s *State) pushRoute(r Route) { s.Routes = append(s.Routes, r) }

// popRoute pops the top route, refusing to pop past the bottom
// FileManager route.
func (s *State) popRoute() {
	if len(s.Routes) <= 1 {
		return
	}
	s.Routes = s.Routes[:len(s.Routes)-1]
}

func (s *State) activePanel() *Panel { return &s.Panels[s.Active] }

func (s *State) otherPanel() jobs.PanelID {
	if s.Active == jobs.PanelLeft {
		return jobs.PanelRight
	}
	return jobs.PanelLeft
}

func (s *State) pushWorkerRun(wj *jobs.WorkerJob) {
	s.PendingWorkerCommands = append(s.PendingWorkerCommands, worker.Command{Kind: worker.CmdRun, Job: wj})
}

func (s *State) pushBackgroundCommand(cmd background.Command) {
	s.PendingBackgroundCommands = append(s.PendingBackgroundCommands, cmd)
}

func findCommand(wj *jobs.WorkerJob) background.Command {
	return background.Command{
		Kind:       background.CmdFind,
		JobID:      wj.ID,
		CancelFlag: wj.CancelFlag,
		PauseFlag:  wj.FindPauseFlag,
		Query:      wj.Request.Query,
		BaseDir:    wj.Request.BaseDir,
		MaxResults: wj.Request.MaxResults,
	}
}

// Apply drives the main state-machine transition spec §4.G describes.
// Returns true if the application should quit.
func (s *State) Apply(cmd AppCommand) bool {
	if cmd.Kind == CmdQuit {
		s.Quit = true
		return true
	}

	if s.topRoute() == RouteDialog {
		s.applyDialogCommand(cmd)
		return s.Quit
	}

	switch cmd.Kind {
	case CmdSwitchPanel:
		s.Active = s.otherPanel()
		s.setStatus("")
	case CmdMoveUp:
		s.activePanel().MoveCursor(-1)
	case CmdMoveDown:
		s.activePanel().MoveCursor(1)
	case CmdOpenEntry:
		s.openEntry()
	case CmdCdUp:
		s.cdUp()
	case CmdReread:
		s.QueuePanelRefresh(s.Active)
	case CmdToggleHidden:
		p := s.activePanel()
		p.ShowHidden = !p.ShowHidden
		s.QueuePanelRefresh(s.Active)
	case CmdSortByName:
		s.activePanel().SortMode = fileinfo.SortByName
		s.QueuePanelRefresh(s.Active)
	case CmdSortBySize:
		s.activePanel().SortMode = fileinfo.SortBySize
		s.QueuePanelRefresh(s.Active)
	case CmdSortByModified:
		s.activePanel().SortMode = fileinfo.SortByModified
		s.QueuePanelRefresh(s.Active)

	case CmdOpenCopyDialog:
		s.openTransferDialog(PurposeCopyDestination)
	case CmdOpenMoveDialog:
		s.openTransferDialog(PurposeMoveDestination)
	case CmdOpenDeleteConfirm:
		s.openDeleteConfirm()
	case CmdOpenMkdirDialog:
		s.openDialog(&DialogState{Kind: DialogInput, Purpose: PurposeMkdir, Title: "Mkdir", Panel: s.Active})
	case CmdOpenRenameDialog:
		s.openRenameDialog()
	case CmdOpenFindDialog:
		s.openDialog(&DialogState{Kind: DialogInput, Purpose: PurposeFind, Title: "Find", Panel: s.Active})
	case CmdOpenPanelizeDialog:
		s.openDialog(&DialogState{Kind: DialogInput, Purpose: PurposePanelize, Title: "Panelize", Panel: s.Active})

	case CmdShowJobs:
		s.JobsCursor = 0
		s.pushRoute(RouteJobs)
	case CmdShowTree:
		s.requestTree()
	case CmdShowHotlist:
		s.pushRoute(RouteHotlist)
	case CmdShowHelp:
		s.pushRoute(RouteHelp)
	case CmdShowMenu:
		s.pushRoute(RouteMenu)
	case CmdShowSkin:
		s.pushRoute(RouteSkin)
	case CmdViewFile:
		s.requestViewFile()

	case CmdCancelLatestJob:
		s.cancelLatestJob()
	case CmdCancelAllJobs:
		s.cancelAllJobs()
	case CmdJobsCursorUp:
		if s.JobsCursor > 0 {
			s.JobsCursor--
		}
	case CmdJobsCursorDown:
		if n := len(s.Manager.All()); s.JobsCursor < n-1 {
			s.JobsCursor++
		}

	case CmdClose:
		s.popRoute()
	}

	return s.Quit
}

func (s *State) applyDialogCommand(cmd AppCommand) {
	switch cmd.Kind {
	case CmdDialogAccept:
		res := s.dialogAccept()
		s.setStatus(res.StatusLine)
	case CmdDialogCancel:
		res := s.dialogCancel()
		s.setStatus(res.StatusLine)
	case CmdDialogFocusNext:
		s.dialogFocusNext()
	case CmdDialogBackspace:
		s.dialogBackspace()
	case CmdDialogInsertChar:
		s.dialogInsertChar(cmd.Char)
	case CmdDialogListboxUp:
		s.dialogListboxUp()
	case CmdDialogListboxDown:
		s.dialogListboxDown()
	}
}

func (s *State) setStatus(line string) {
	if line != "" {
		s.StatusLine = line
	}
}

func (s *State) openDialog(d *DialogState) {
	s.Dialog = d
	s.pushRoute(RouteDialog)
}

func (s *State) openTransferDialog(purpose DialogPurpose) {
	e, ok := s.activePanel().Selected()
	if !ok || e.IsParent {
		s.setStatus("No entry selected")
		return
	}
	title := "Copy to"
	if purpose == PurposeMoveDestination {
		title = "Move to"
	}
	s.openDialog(&DialogState{
		Kind: DialogInput, Purpose: purpose, Title: title,
		Panel: s.Active, Targets: []string{e.Path},
		Input: s.Panels[s.otherPanel()].Cwd, InputCursor: len([]rune(s.Panels[s.otherPanel()].Cwd)),
	})
}

func (s *State) openDeleteConfirm() {
	e, ok := s.activePanel().Selected()
	if !ok || e.IsParent {
		s.setStatus("No entry selected")
		return
	}
	s.openDialog(&DialogState{
		Kind: DialogConfirm, Purpose: PurposeConfirmDelete, Title: "Delete",
		Message: "Delete " + e.Name + "?", Panel: s.Active, Targets: []string{e.Path},
	})
}

func (s *State) openRenameDialog() {
	e, ok := s.activePanel().Selected()
	if !ok || e.IsParent {
		s.setStatus("No entry selected")
		return
	}
	s.openDialog(&DialogState{
		Kind: DialogInput, Purpose: PurposeRename, Title: "Rename",
		Panel: s.Active, Targets: []string{e.Path},
		Input: e.Name, InputCursor: len([]rune(e.Name)),
	})
}

func (s *State) openEntry() {
	p := s.activePanel()
	e, ok := p.Selected()
	if !ok {
		return
	}
	if e.IsParent {
		s.cdUp()
		return
	}
	if e.IsDir {
		p.Cwd = e.Path
		p.Source = jobs.PanelListingSource{Kind: jobs.SourceDirectory}
		p.Cursor = 0
		s.QueuePanelRefresh(s.Active)
		return
	}
	s.requestViewFile()
}

func (s *State) cdUp() {
	p := s.activePanel()
	parent := filepath.Dir(p.Cwd)
	if parent == p.Cwd {
		return
	}
	target := p.Cwd
	p.Cwd = parent
	p.Source = jobs.PanelListingSource{Kind: jobs.SourceDirectory}
	s.PendingPanelFocus = &PanelFocusTarget{Panel: s.Active, TargetPath: target}
	s.QueuePanelRefresh(s.Active)
}

func (s *State) requestViewFile() {
	e, ok := s.activePanel().Selected()
	if !ok || e.IsDir {
		return
	}
	req := jobs.JobRequest{Kind: jobs.LoadViewer, ViewerPath: e.Path}
	wj := s.Manager.Enqueue(req)
	s.viewerJobID = wj.ID
	s.pushBackgroundCommand(background.Command{
		Kind: background.CmdLoadViewer, JobID: wj.ID, CancelFlag: wj.CancelFlag, ViewerPath: e.Path,
	})
}

func (s *State) requestTree() {
	req := jobs.JobRequest{
		Kind: jobs.BuildTree, TreeRoot: s.activePanel().Cwd,
		MaxDepth: DefaultTreeMaxDepth, MaxTreeEntries: DefaultTreeMaxEntries,
	}
	wj := s.Manager.Enqueue(req)
	s.TreeJobID = wj.ID
	s.pushBackgroundCommand(background.Command{
		Kind: background.CmdBuildTree, JobID: wj.ID, CancelFlag: wj.CancelFlag,
		TreeRoot: req.TreeRoot, MaxDepth: req.MaxDepth, MaxEntries: req.MaxTreeEntries,
	})
}

// QueuePanelRefresh cancels any previous refresh for panel, allocates a new
// monotonic request_id, marks it loading, and enqueues a RefreshPanel
// request, per spec §4.G. RefreshPanel is a background-kind job: it is
// dispatched straight to the background runtime, never the worker pool.
func (s *State) QueuePanelRefresh(panel jobs.PanelID) {
	if prevID := s.panelRefreshJobIDs[panel]; prevID != 0 {
		s.Manager.RequestCancel(prevID)
	}

	s.nextPanelRefreshRequestID++
	reqID := s.nextPanelRefreshRequestID
	s.panelRefreshRequestIDs[panel] = reqID

	p := &s.Panels[panel]
	p.Loading = true

	req := jobs.JobRequest{
		Kind: jobs.RefreshPanel, Panel: panel, Cwd: p.Cwd, Source: p.Source,
		SortMode: p.SortMode, ShowHidden: p.ShowHidden, RequestID: reqID,
	}
	wj := s.Manager.Enqueue(req)
	s.panelRefreshJobIDs[panel] = wj.ID

	s.pushBackgroundCommand(background.Command{
		Kind: background.CmdRefreshPanel, JobID: wj.ID, CancelFlag: wj.CancelFlag,
		Panel: panel, Cwd: p.Cwd, Source: p.Source, SortMode: p.SortMode,
		ShowHidden: p.ShowHidden, RequestID: reqID,
	})
}

// HandlePanelRefreshResult implements spec §4.G's stale-discard and
// cwd/source/sort_mode reverification rules (testable property 3).
func (s *State) HandlePanelRefreshResult(ev background.Event) {
	panel := ev.Panel
	if ev.RequestID != s.panelRefreshRequestIDs[panel] {
		return // stale request_id: discard silently
	}

	p := &s.Panels[panel]
	p.Loading = false

	if ev.Cwd != p.Cwd || !sameSource(ev.Source, p.Source) || ev.SortMode != p.SortMode {
		return // panel moved on (e.g. concurrent CdUp) before this result arrived
	}

	if ev.Err != nil {
		if !ev.Err.IsCanceled() {
			verb := "Panel refresh failed"
			if p.Source.Kind == jobs.SourcePanelize {
				verb = "Panelize failed"
			}
			s.setStatus(verb + ": " + ev.Err.Message)
			if p.Source.Kind == jobs.SourcePanelize && s.PendingPanelizeRevert != nil && s.PendingPanelizeRevert.Panel == panel {
				p.Source = s.PendingPanelizeRevert.PreviousSource
			}
		}
		s.PendingPanelizeRevert = nil
		return
	}

	p.Entries = ev.Entries
	s.PendingPanelizeRevert = nil

	if s.PendingPanelFocus != nil && s.PendingPanelFocus.Panel == panel {
		target := s.PendingPanelFocus.TargetPath
		s.PendingPanelFocus = nil
		found := false
		for i, e := range p.Entries {
			if e.Path == target {
				p.Cursor = i
				found = true
				break
			}
		}
		if !found {
			s.setStatus("Could not locate " + target + " after refresh")
		}
	}
}

// HandleBackgroundEvent dispatches an incoming BackgroundEvent to the
// relevant sub-handler and updates the status line. Every background job
// is also a Manager-tracked JobRecord (RefreshPanel/Find/LoadViewer/
// BuildTree are all enqueued via Manager.Enqueue), so each Started/
// terminal background.Event is first translated into the matching
// jobs.JobEvent and fed to Manager.HandleEvent — otherwise these records
// would sit at Queued forever, exactly like a worker job whose Started/
// Finished events were never applied. This runs even for a stale/
// superseded job id: the record still needs to leave Queued/Running, the
// sub-handlers below are the ones that apply-or-discard the payload.
func (s *State) HandleBackgroundEvent(ev background.Event) {
	switch ev.Kind {
	case background.EvtStarted:
		s.Manager.HandleEvent(jobs.JobEvent{ID: ev.JobID, Kind: jobs.EventStarted})
	case background.EvtFindStarted:
		s.Manager.HandleEvent(jobs.JobEvent{ID: ev.JobID, Kind: jobs.EventStarted})
		if ev.JobID != s.FindJobID {
			return
		}
		s.FindEntries = nil
	case background.EvtFindChunk:
		if ev.JobID != s.FindJobID {
			return
		}
		s.FindEntries = append(s.FindEntries, ev.FindEntries...)
	case background.EvtPanelRefreshed:
		s.Manager.HandleEvent(jobs.JobEvent{ID: ev.JobID, Kind: jobs.EventFinished, Err: ev.Err})
		s.HandlePanelRefreshResult(ev)
	case background.EvtViewerLoaded:
		s.Manager.HandleEvent(jobs.JobEvent{ID: ev.JobID, Kind: jobs.EventFinished, Err: ev.Err})
		if ev.JobID != s.viewerJobID {
			return
		}
		if ev.Err != nil {
			s.setStatus("View failed: " + ev.Err.Message)
			return
		}
		s.ViewerData = ev.ViewerContent
		s.ViewerTrunc = ev.Truncated
		s.pushRoute(RouteViewer)
	case background.EvtFindFinished:
		s.Manager.HandleEvent(jobs.JobEvent{ID: ev.JobID, Kind: jobs.EventFinished, Err: ev.Err})
		if ev.JobID != s.FindJobID {
			return
		}
		if ev.Err != nil {
			if ev.Err.IsCanceled() {
				s.setStatus("Find canceled")
			} else {
				s.setStatus("Find failed: " + ev.Err.Message)
			}
			return
		}
		s.setStatus("Find: " + itoa(int64(len(s.FindEntries))) + " match(es)")
		s.pushRoute(RouteFindResults)
	case background.EvtTreeReady:
		s.Manager.HandleEvent(jobs.JobEvent{ID: ev.JobID, Kind: jobs.EventFinished, Err: ev.Err})
		if ev.JobID != s.TreeJobID {
			return
		}
		if ev.Err != nil {
			s.setStatus("Tree build failed: " + ev.Err.Message)
			return
		}
		s.Tree = ev.Tree
		s.pushRoute(RouteTree)
	}
}

// HandleWorkerEvent feeds a JobEvent into the Job Manager, updates the
// status line per §7, and drives PersistSettings deferred-flush on
// Finished.
func (s *State) HandleWorkerEvent(ev jobs.JobEvent) {
	rec, known := s.Manager.Get(ev.ID)
	s.Manager.HandleEvent(ev)

	if known {
		s.setStatus(jobEventStatusLine(rec, ev))
	}

	if ev.Kind == jobs.EventFinished && known && rec.Kind == jobs.PersistSettings {
		s.onPersistSettingsFinished(ev.ID)
	}
}

func jobEventStatusLine(rec jobs.JobRecord, ev jobs.JobEvent) string {
	id := itoa(int64(ev.ID))
	switch ev.Kind {
	case jobs.EventStarted:
		return "Job #" + id + ": " + rec.Summary + " started"
	case jobs.EventFinished:
		if ev.Err == nil {
			return "Job #" + id + ": " + rec.Summary + " finished"
		}
		if ev.Err.IsCanceled() {
			return "Job #" + id + " canceled"
		}
		return "Job #" + id + " failed: " + ev.Err.Message
	default:
		return ""
	}
}

// EnqueuePersistSettings implements the coalescing rule of §4.G: while a
// PersistSettings job is already in flight, further requests fold into it
// instead of creating new JobRecords. Two cases, matching the original's
// "replace in place while Queued" behavior: if the in-flight job is still
// sitting undispatched in PendingWorkerCommands, its payload is overwritten
// directly, so whichever snapshot it eventually runs with is the latest one
// — no redundant second write. Once it has actually started (no longer
// present in PendingWorkerCommands, i.e. already handed to the worker pool),
// its payload can no longer change, so further requests go to the deferred
// slot and flush as one new job on Finished.
func (s *State) EnqueuePersistSettings(snapshot []byte) jobs.JobId {
	if s.persistInFlightID != 0 {
		if wj := s.pendingPersistSettingsJob(); wj != nil {
			wj.Request.SettingsSnapshot = snapshot
			return s.persistInFlightID
		}
		req := jobs.JobRequest{Kind: jobs.PersistSettings, SettingsSnapshot: snapshot}
		s.deferredPersistRequest = &req
		return s.persistInFlightID
	}
	wj := s.Manager.Enqueue(jobs.JobRequest{Kind: jobs.PersistSettings, SettingsSnapshot: snapshot})
	s.persistInFlightID = wj.ID
	s.pushWorkerRun(wj)
	return wj.ID
}

// pendingPersistSettingsJob returns the in-flight PersistSettings job if it
// is still sitting undispatched in PendingWorkerCommands, or nil once it has
// been drained to the worker runtime.
func (s *State) pendingPersistSettingsJob() *jobs.WorkerJob {
	for _, c := range s.PendingWorkerCommands {
		if c.Kind == worker.CmdRun && c.Job != nil && c.Job.ID == s.persistInFlightID {
			return c.Job
		}
	}
	return nil
}

func (s *State) onPersistSettingsFinished(id jobs.JobId) {
	if s.persistInFlightID != id {
		return
	}
	s.persistInFlightID = 0
	if s.deferredPersistRequest == nil {
		return
	}
	deferred := *s.deferredPersistRequest
	s.deferredPersistRequest = nil
	s.EnqueuePersistSettings(deferred.SettingsSnapshot)
}

// cancelLatestJob implements §4.G's cancellation UX: prefer the Jobs
// screen's current selection when that screen is on top, else the
// Manager's newest-cancelable job.
func (s *State) cancelLatestJob() {
	var id jobs.JobId
	if s.topRoute() == RouteJobs {
		all := s.Manager.All()
		if s.JobsCursor < 0 || s.JobsCursor >= len(all) {
			return
		}
		id = all[s.JobsCursor].ID
	} else {
		var ok bool
		id, ok = s.Manager.NewestCancelableJobID()
		if !ok {
			s.setStatus("No job to cancel")
			return
		}
	}
	s.requestCancel(id)
}

func (s *State) requestCancel(id jobs.JobId) {
	if !s.Manager.RequestCancel(id) {
		return
	}
	if rec, ok := s.Manager.Get(id); ok && rec.Kind.IsWorkerKind() {
		s.PendingWorkerCommands = append(s.PendingWorkerCommands, worker.Command{Kind: worker.CmdCancel, CancelID: id})
	}
	s.setStatus("Cancel requested for job #" + itoa(int64(id)))
}

// cancelAllJobs bulk-cancels every cancelable job except PersistSettings,
// so a pending settings save is never dropped by a "cancel all" shortcut.
func (s *State) cancelAllJobs() {
	ids := s.Manager.CancelAllExceptPersistSettings()
	for _, id := range ids {
		if rec, ok := s.Manager.Get(id); ok && rec.Kind.IsWorkerKind() {
			s.PendingWorkerCommands = append(s.PendingWorkerCommands, worker.Command{Kind: worker.CmdCancel, CancelID: id})
		}
	}
	if len(ids) > 0 {
		s.setStatus("Canceled " + itoa(int64(len(ids))) + " job(s)")
	}
}

// DrainDispatchFailure applies a bridge.DispatchFailure: for a worker Run
// command it feeds the synthesized Finished(Err(Dispatch)) straight into
// HandleWorkerEvent; otherwise it only sets the status line, per §7.
func (s *State) DrainDispatchFailure(workerEvent *jobs.JobEvent, statusMessage string) {
	if workerEvent != nil {
		s.HandleWorkerEvent(*workerEvent)
		return
	}
	s.setStatus(statusMessage)
}
