// Package jobs implements the Job Manager (component C): the data model
// for job requests/records/progress and the pure bookkeeping that tracks
// their lifecycle. It does not execute anything — execution lives in
// internal/worker — mirroring how spec §4.C describes the Manager as
// enqueue/handle_event/request_cancel bookkeeping only.
//
// Adapted from the teacher's internal/jobs package: the JobId allocation,
// JobRecord history, and mutex-guarded map shape survive; the single
// goroutine worker() loop does not, since spec requires the Manager to be
// owned exclusively by the state machine with execution on a separate
// bounded pool.
package jobs

import (
	"twinfm/internal/apperr"
	"twinfm/internal/cancel"
	"twinfm/internal/fileinfo"
)

// JobId is a monotonically increasing, process-unique job identifier.
type JobId int64

// JobKind is the closed enumeration of job kinds. The first six are worker
// (mutating) jobs; the last four are background (read-only) jobs.
type JobKind int

const (
	Copy JobKind = iota
	Move
	Delete
	Mkdir
	Rename
	PersistSettings
	RefreshPanel
	Find
	LoadViewer
	BuildTree
)

func (k JobKind) String() string {
	switch k {
	case Copy:
		return "Copy"
	case Move:
		return "Move"
	case Delete:
		return "Delete"
	case Mkdir:
		return "Mkdir"
	case Rename:
		return "Rename"
	case PersistSettings:
		return "PersistSettings"
	case RefreshPanel:
		return "RefreshPanel"
	case Find:
		return "Find"
	case LoadViewer:
		return "LoadViewer"
	case BuildTree:
		return "BuildTree"
	default:
		return "Unknown"
	}
}

// IsWorkerKind reports whether this kind executes on the worker runtime
// (mutating) as opposed to the background runtime (read-only).
func (k JobKind) IsWorkerKind() bool { return k <= PersistSettings }

// OverwritePolicy governs conflict resolution for Copy/Move.
type OverwritePolicy int

const (
	Overwrite OverwritePolicy = iota
	Skip
	Rename_ // named Rename_ to avoid colliding with JobKind.Rename
)

func (p OverwritePolicy) String() string {
	switch p {
	case Overwrite:
		return "overwrite"
	case Skip:
		return "skip"
	case Rename_:
		return "rename"
	default:
		return "overwrite"
	}
}

// ParseOverwritePolicy accepts the enum whitelist from spec §6.
func ParseOverwritePolicy(s string) (OverwritePolicy, bool) {
	switch s {
	case "overwrite":
		return Overwrite, true
	case "skip":
		return Skip, true
	case "rename":
		return Rename_, true
	default:
		return Overwrite, false
	}
}

// PanelID identifies one of the two panels.
type PanelID int

const (
	PanelLeft PanelID = iota
	PanelRight
)

// PanelListingSourceKind is the closed enumeration of panel source kinds.
type PanelListingSourceKind int

const (
	SourceDirectory PanelListingSourceKind = iota
	SourcePanelize
	SourceFindResults
)

// PanelListingSource carries the variant-specific fields for a panel's
// listing source. Directory carries no extra field beyond the panel's cwd;
// Panelize carries Command; FindResults carries BaseDir/Paths/Label.
type PanelListingSource struct {
	Kind PanelListingSourceKind

	Command string // Panelize

	BaseDir string   // FindResults
	Paths   []string // FindResults
	Label   string   // FindResults

	// FilterPattern is a supplemental doublestar glob applied client-side
	// after a successful refresh; empty matches everything. Additive per
	// SPEC_FULL data-model note — does not change any source-kind wire
	// shape.
	FilterPattern string
}

// JobRequest is the tagged variant carrying the inputs for a JobKind. Only
// the fields relevant to Kind are populated; see spec §3.
type JobRequest struct {
	Kind JobKind

	// Copy / Move
	Sources        []string
	DestinationDir string
	Overwrite      OverwritePolicy

	// Delete
	Targets []string

	// Mkdir / Rename
	Path    string
	NewPath string

	// PersistSettings
	SettingsSnapshot []byte

	// RefreshPanel
	Panel      PanelID
	Cwd        string
	Source     PanelListingSource
	SortMode   fileinfo.SortMode
	ShowHidden bool
	RequestID  uint64

	// Find
	Query      string
	BaseDir    string
	MaxResults int

	// LoadViewer
	ViewerPath string

	// BuildTree
	TreeRoot       string
	MaxDepth       int
	MaxTreeEntries int
}

// ItemCount returns the number of top-level items this request will act on,
// used for the job summary line.
func (r JobRequest) ItemCount() int {
	switch r.Kind {
	case Copy, Move:
		return len(r.Sources)
	case Delete:
		return len(r.Targets)
	default:
		return 0
	}
}

// Summary renders the human-readable job description shown on the Jobs
// screen, mirroring the original's `"copy {n} item(s) -> {dest} [{policy}]"`
// shape.
func (r JobRequest) Summary() string {
	switch r.Kind {
	case Copy:
		return summarizeTransfer("copy", r)
	case Move:
		return summarizeTransfer("move", r)
	case Delete:
		return summarizeN("delete", len(r.Targets))
	case Mkdir:
		return "mkdir " + r.Path
	case Rename:
		return "rename " + r.Path + " -> " + r.NewPath
	case PersistSettings:
		return "persist settings"
	case RefreshPanel:
		return "refresh panel"
	case Find:
		return "find '" + r.Query + "'"
	case LoadViewer:
		return "view " + r.ViewerPath
	case BuildTree:
		return "build tree " + r.TreeRoot
	default:
		return r.Kind.String()
	}
}

func summarizeTransfer(verb string, r JobRequest) string {
	return summarizeN(verb, len(r.Sources)) + " -> " + r.DestinationDir + " [" + r.Overwrite.String() + "]"
}

func summarizeN(verb string, n int) string {
	if n == 1 {
		return verb + " 1 item(s)"
	}
	return verb + " " + itoa(n) + " item(s)"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// JobProgress is the mutable progress snapshot for a running job.
type JobProgress struct {
	CurrentPath string // empty means "none"
	ItemsTotal  int64
	ItemsDone   int64
	BytesTotal  int64
	BytesDone   int64
}

// Percent derives the displayed completion percentage per spec §3:
// min(100, max(bytes_pct, items_pct)); 0 if both totals are 0.
func (p JobProgress) Percent() int {
	bytesPct := ratioPct(p.BytesDone, p.BytesTotal)
	itemsPct := ratioPct(p.ItemsDone, p.ItemsTotal)
	pct := bytesPct
	if itemsPct > pct {
		pct = itemsPct
	}
	if pct > 100 {
		pct = 100
	}
	return pct
}

func ratioPct(done, total int64) int {
	if total <= 0 {
		return 0
	}
	pct := int(done * 100 / total)
	if pct > 100 {
		pct = 100
	}
	return pct
}

// JobStatus is the strict lifecycle: Queued -> Running -> {Succeeded,
// Canceled, Failed}. No back-edges.
type JobStatus int

const (
	Queued JobStatus = iota
	Running
	Succeeded
	Canceled
	Failed
)

func (s JobStatus) String() string {
	switch s {
	case Queued:
		return "Queued"
	case Running:
		return "Running"
	case Succeeded:
		return "Succeeded"
	case Canceled:
		return "Canceled"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// JobRecord is what the Manager keeps for the process lifetime.
type JobRecord struct {
	ID        JobId
	Kind      JobKind
	Summary   string
	Status    JobStatus
	Progress  *JobProgress // nil until the first Progress event (or a successful Finished)
	LastError *apperr.JobError
}

// WorkerJob is the executable form dispatched to the worker/background
// runtime.
type WorkerJob struct {
	ID            JobId
	Request       JobRequest
	CancelFlag    *cancel.Flag
	FindPauseFlag *cancel.PauseFlag // non-nil only for Find jobs
}
