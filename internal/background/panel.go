package background

import (
	"os"
	"path/filepath"

	"twinfm/internal/apperr"
	"twinfm/internal/fileinfo"
)

// statOrBareEntry stats path for a panelize/find-results row; if the stat
// fails (e.g. a panelize command emitted a non-path token) it still
// produces a usable entry rather than dropping the line.
func statOrBareEntry(path string) fileinfo.FileEntry {
	info, err := os.Lstat(path)
	if err != nil {
		return fileinfo.FileEntry{Name: filepath.Base(path), Path: path}
	}
	return fileinfo.FileEntry{
		Name:      filepath.Base(path),
		Path:      path,
		IsDir:     info.IsDir(),
		IsSymlink: info.Mode()&os.ModeSymlink != 0,
		Size:      info.Size(),
		ModTime:   info.ModTime(),
	}
}

func toJobError(err error) *apperr.JobError {
	if je, ok := err.(*apperr.JobError); ok {
		return je
	}
	return apperr.FromIOError(err)
}
