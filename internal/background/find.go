package background

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"twinfm/internal/apperr"
	"twinfm/internal/cancel"
	"twinfm/internal/fileinfo"
)

// runFind implements §4.E.1: iterative DFS with an explicit stack, child
// directories pushed in reverse sorted (case-insensitive) order so popping
// yields ascending lexicographic order, streaming matches in chunks of
// FindChunkSize. Ported from original_source/crates/core/src/background.rs's
// stream_find_entries.
func (r *Runtime) runFind(cmd Command) {
	r.emit(Event{Kind: EvtFindStarted, JobID: cmd.JobID})

	query := strings.ToLower(strings.TrimSpace(cmd.Query))
	maxResults := cmd.MaxResults
	if maxResults <= 0 {
		maxResults = int(^uint(0) >> 1) // unbounded
	}

	var chunk []fileinfo.FileEntry
	matched := 0
	stack := []string{cmd.BaseDir}

	flushChunk := func() {
		if len(chunk) == 0 {
			return
		}
		r.emit(Event{Kind: EvtFindChunk, JobID: cmd.JobID, FindEntries: chunk})
		chunk = nil
	}

	finish := func(err error) {
		flushChunk()
		var je *apperr.JobError
		if err != nil {
			je = toJobError(err)
		}
		r.emit(Event{Kind: EvtFindFinished, JobID: cmd.JobID, Err: je})
	}

	for len(stack) > 0 {
		if err := cancel.WaitWhilePaused(cmd.CancelFlag, cmd.PauseFlag); err != nil {
			finish(err)
			return
		}

		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			continue // unreadable directories are silently skipped
		}

		var childDirs []string
		for _, e := range entries {
			if err := cancel.WaitWhilePaused(cmd.CancelFlag, cmd.PauseFlag); err != nil {
				finish(err)
				return
			}

			full := filepath.Join(dir, e.Name())
			if e.IsDir() {
				childDirs = append(childDirs, full)
			}

			if fileinfo.QueryMatches(e.Name(), query) {
				info, err := e.Info()
				entry := fileinfo.FileEntry{Name: e.Name(), Path: full, IsDir: e.IsDir()}
				if err == nil {
					entry.Size = info.Size()
					entry.ModTime = info.ModTime()
					entry.IsSymlink = info.Mode()&os.ModeSymlink != 0
				}
				chunk = append(chunk, entry)
				matched++

				if len(chunk) >= FindChunkSize {
					flushChunk()
				}
				if matched >= maxResults {
					finish(nil)
					return
				}
			}
		}

		sort.Slice(childDirs, func(i, j int) bool {
			return fileinfo.PathSortKey(filepath.Base(childDirs[i])) < fileinfo.PathSortKey(filepath.Base(childDirs[j]))
		})
		for i := len(childDirs) - 1; i >= 0; i-- {
			stack = append(stack, childDirs[i])
		}
	}

	finish(nil)
}
