package appstate

import (
	"path/filepath"

	"twinfm/internal/jobs"
)

// DialogKind is the closed set of dialog widget shapes; the widget
// rendering and focus mechanics beyond this state shape live in
// internal/tui, per spec §1's scope note.
type DialogKind int

const (
	DialogConfirm DialogKind = iota
	DialogInput
	DialogListbox
)

// DialogPurpose says what Accept should do with the dialog's collected
// input; it is the tagged-variant discriminant spec §9 asks for instead of
// polymorphic dialog objects.
type DialogPurpose int

const (
	PurposeConfirmDelete DialogPurpose = iota
	PurposeConfirmExit
	PurposeMkdir
	PurposeRename
	PurposeFind
	PurposePanelize
	PurposeCopyDestination
	PurposeMoveDestination
	PurposeSkinPicker
)

// DialogState is the full state of the dialog currently on top of the
// route stack. Only the fields relevant to Kind/Purpose are meaningful.
type DialogState struct {
	Kind    DialogKind
	Purpose DialogPurpose
	Title   string
	Message string

	Input       string
	InputCursor int

	Items  []string
	Cursor int

	Panel   jobs.PanelID
	Targets []string

	// Focus distinguishes which control (e.g. OK vs Cancel) currently has
	// keyboard focus; dialogs with a single control ignore it.
	Focus int
}

// DialogResult is returned by Accept/Cancel so the caller can set the
// status line the way spec §4.G's "DialogResult.status_line()" does.
type DialogResult struct {
	StatusLine string
}

func (s *State) dialogAccept() DialogResult {
	d := s.Dialog
	if d == nil {
		return DialogResult{}
	}
	s.popRoute()
	s.Dialog = nil

	switch d.Purpose {
	case PurposeConfirmDelete:
		req := jobs.JobRequest{Kind: jobs.Delete, Targets: d.Targets}
		wj := s.Manager.Enqueue(req)
		s.pushWorkerRun(wj)
		return DialogResult{StatusLine: "Delete job #" + itoa(int64(wj.ID)) + " queued"}

	case PurposeConfirmExit:
		s.Quit = true
		return DialogResult{StatusLine: "Exiting"}

	case PurposeMkdir:
		if d.Input == "" {
			return DialogResult{StatusLine: "Mkdir canceled: empty name"}
		}
		path := filepath.Join(s.Panels[d.Panel].Cwd, d.Input)
		wj := s.Manager.Enqueue(jobs.JobRequest{Kind: jobs.Mkdir, Path: path})
		s.pushWorkerRun(wj)
		return DialogResult{StatusLine: "Mkdir job #" + itoa(int64(wj.ID)) + " queued"}

	case PurposeRename:
		if d.Input == "" || len(d.Targets) == 0 {
			return DialogResult{StatusLine: "Rename canceled: empty name"}
		}
		oldPath := d.Targets[0]
		newPath := filepath.Join(filepath.Dir(oldPath), d.Input)
		wj := s.Manager.Enqueue(jobs.JobRequest{Kind: jobs.Rename, Path: oldPath, NewPath: newPath})
		s.pushWorkerRun(wj)
		return DialogResult{StatusLine: "Rename job #" + itoa(int64(wj.ID)) + " queued"}

	case PurposeFind:
		if d.Input == "" {
			return DialogResult{StatusLine: "Find canceled: empty query"}
		}
		req := jobs.JobRequest{Kind: jobs.Find, Query: d.Input, BaseDir: s.Panels[d.Panel].Cwd, MaxResults: FindMaxResults}
		wj := s.Manager.Enqueue(req)
		s.FindEntries = nil
		s.FindJobID = wj.ID
		s.pushBackgroundCommand(findCommand(wj))
		return DialogResult{StatusLine: "Searching for " + d.Input}

	case PurposePanelize:
		if d.Input == "" {
			return DialogResult{StatusLine: "Panelize canceled: empty command"}
		}
		panel := &s.Panels[d.Panel]
		s.PendingPanelizeRevert = &PanelizeRevert{Panel: d.Panel, PreviousSource: panel.Source}
		panel.Source = jobs.PanelListingSource{Kind: jobs.SourcePanelize, Command: d.Input}
		s.QueuePanelRefresh(d.Panel)
		return DialogResult{StatusLine: "Panelize: " + d.Input}

	case PurposeCopyDestination, PurposeMoveDestination:
		if d.Input == "" {
			return DialogResult{StatusLine: "Canceled: empty destination"}
		}
		kind := jobs.Copy
		verb := "Copy"
		if d.Purpose == PurposeMoveDestination {
			kind = jobs.Move
			verb = "Move"
		}
		policy, _ := jobs.ParseOverwritePolicy(s.Settings.Confirmation.OverwritePolicy)
		req := jobs.JobRequest{Kind: kind, Sources: d.Targets, DestinationDir: d.Input, Overwrite: policy}
		wj := s.Manager.Enqueue(req)
		s.pushWorkerRun(wj)
		return DialogResult{StatusLine: verb + " job #" + itoa(int64(wj.ID)) + " queued"}

	case PurposeSkinPicker:
		if d.Input == "" {
			return DialogResult{}
		}
		s.Settings.Appearance.Skin = d.Input
		return DialogResult{StatusLine: "Skin set to " + d.Input}

	default:
		return DialogResult{}
	}
}

func (s *State) dialogCancel() DialogResult {
	s.popRoute()
	s.Dialog = nil
	return DialogResult{StatusLine: "Canceled"}
}

func (s *State) dialogFocusNext() {
	if s.Dialog == nil {
		return
	}
	s.Dialog.Focus++
}

func (s *State) dialogBackspace() {
	if s.Dialog == nil || s.Dialog.Kind != DialogInput || s.Dialog.InputCursor == 0 {
		return
	}
	runes := []rune(s.Dialog.Input)
	i := s.Dialog.InputCursor
	s.Dialog.Input = string(runes[:i-1]) + string(runes[i:])
	s.Dialog.InputCursor--
}

func (s *State) dialogInsertChar(r rune) {
	if s.Dialog == nil || s.Dialog.Kind != DialogInput {
		return
	}
	runes := []rune(s.Dialog.Input)
	i := s.Dialog.InputCursor
	s.Dialog.Input = string(runes[:i]) + string(r) + string(runes[i:])
	s.Dialog.InputCursor++
}

func (s *State) dialogListboxUp() {
	if s.Dialog == nil || s.Dialog.Kind != DialogListbox {
		return
	}
	if s.Dialog.Cursor > 0 {
		s.Dialog.Cursor--
	}
}

func (s *State) dialogListboxDown() {
	if s.Dialog == nil || s.Dialog.Kind != DialogListbox {
		return
	}
	if s.Dialog.Cursor < len(s.Dialog.Items)-1 {
		s.Dialog.Cursor++
	}
}
