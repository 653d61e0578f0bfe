package background

import (
	"os"

	"twinfm/internal/cancel"
)

// viewerMaxBytes bounds how much of a file LoadViewer reads into memory;
// larger files are truncated and the Viewer route shows a truncation
// notice.
const viewerMaxBytes = 4 << 20 // 4 MiB

func (r *Runtime) runLoadViewer(cmd Command) {
	content, truncated, err := loadViewerContent(cmd.ViewerPath, cmd.CancelFlag)
	ev := Event{Kind: EvtViewerLoaded, JobID: cmd.JobID, ViewerContent: content, Truncated: truncated}
	if err != nil {
		ev.Err = toJobError(err)
	}
	r.emit(ev)
}

func loadViewerContent(path string, cf *cancel.Flag) ([]byte, bool, error) {
	if err := cf.Check(); err != nil {
		return nil, false, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, false, toJobError(err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, false, toJobError(err)
	}

	limit := info.Size()
	truncated := false
	if limit > viewerMaxBytes {
		limit = viewerMaxBytes
		truncated = true
	}

	buf := make([]byte, limit)
	n, err := f.Read(buf)
	if err != nil && n == 0 && limit > 0 {
		return nil, false, toJobError(err)
	}
	return buf[:n], truncated, nil
}
