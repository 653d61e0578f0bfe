// Package fsops implements the pure filesystem operations of spec §4.B:
// directory reads, recursive measurement, copy/move/delete, and
// destination-conflict resolution. Every operation is parameterized by a
// cancel flag and polls it at the checkpoints named in §4.A (before each
// top-level item, before each directory entry, inside the copy buffer
// loop, at every recursion entry).
//
// Adapted from the teacher's internal/jobs.Manager.copyOrMovePath /
// copyFileWithCancel, generalized from a fixed skip-if-exists policy into
// the full Overwrite/Skip/Rename resolution and progress reporting spec
// requires.
package fsops

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"twinfm/internal/apperr"
	"twinfm/internal/cancel"
	"twinfm/internal/fileinfo"
	"twinfm/internal/jobs"
)

const copyBufferSize = 64 * 1024

// ProgressSink receives incremental progress during a job body. Worker
// wires this to a JobProgress accumulator; tests can stub it.
type ProgressSink interface {
	SetCurrentPath(path string)
	AdvanceBytes(n int64)
	CompleteItem()
}

// NopSink discards all progress callbacks.
type NopSink struct{}

func (NopSink) SetCurrentPath(string) {}
func (NopSink) AdvanceBytes(int64)    {}
func (NopSink) CompleteItem()         {}

// ReadDir lists entries in cwd, optionally filtering hidden files, sorted
// per mode, with a synthetic ".." parent entry prepended whenever cwd has
// a parent.
func ReadDir(cwd string, showHidden bool, mode fileinfo.SortMode) ([]fileinfo.FileEntry, error) {
	dirEntries, err := os.ReadDir(cwd)
	if err != nil {
		return nil, apperr.FromIOError(err)
	}

	entries := make([]fileinfo.FileEntry, 0, len(dirEntries)+1)
	parent := filepath.Dir(cwd)
	if parent != cwd {
		entries = append(entries, fileinfo.ParentEntry(cwd))
	}

	for _, d := range dirEntries {
		name := d.Name()
		if !showHidden && fileinfo.IsHidden(name) {
			continue
		}
		info, err := d.Info()
		if err != nil {
			continue // vanished between readdir and stat; skip rather than abort the whole listing
		}
		entries = append(entries, fileinfo.FileEntry{
			Name:      name,
			Path:      filepath.Join(cwd, name),
			IsDir:     d.IsDir(),
			IsSymlink: fileinfo.DetermineSymlink(d),
			Size:      info.Size(),
			ModTime:   info.ModTime(),
		})
	}

	fileinfo.Sort(entries, mode)
	return entries, nil
}

// Measure pre-scans paths to compute totals for progress reporting.
// Symlinks count as 1 item, 0 bytes, and are not followed. Cancellable
// between entries.
func Measure(paths []string, cf *cancel.Flag) (items, bytes int64, err error) {
	for _, p := range paths {
		if err := cf.Check(); err != nil {
			return items, bytes, err
		}
		i, b, err := measureOne(p, cf)
		if err != nil {
			return items, bytes, err
		}
		items += i
		bytes += b
	}
	return items, bytes, nil
}

func measureOne(path string, cf *cancel.Flag) (items, bytes int64, err error) {
	if err := cf.Check(); err != nil {
		return 0, 0, err
	}

	lst, err := os.Lstat(path)
	if err != nil {
		return 0, 0, apperr.FromIOError(err)
	}
	if lst.Mode()&os.ModeSymlink != 0 {
		return 1, 0, nil
	}
	if !lst.IsDir() {
		return 1, lst.Size(), nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return 0, 0, apperr.FromIOError(err)
	}

	items, bytes = 1, 0 // the directory itself counts as one item
	for _, e := range entries {
		if err := cf.Check(); err != nil {
			return items, bytes, err
		}
		i, b, err := measureOne(filepath.Join(path, e.Name()), cf)
		if err != nil {
			return items, bytes, err
		}
		items += i
		bytes += b
	}
	return items, bytes, nil
}

// isWithin reports whether target is child equal to or below base, used
// for the "destination inside source" rejection.
func isWithin(base, target string) bool {
	base = filepath.Clean(base)
	target = filepath.Clean(target)
	if base == target {
		return true
	}
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// ResolveDestination implements §4.B's destination-resolution contract.
// finalDest is the path to actually write to; skip is true when the policy
// resolved to "do nothing, but still account for totals".
func ResolveDestination(source, destDir string, policy jobs.OverwritePolicy) (finalDest string, skip bool, err error) {
	name := filepath.Base(source)
	candidate := filepath.Join(destDir, name)

	if filepath.Clean(source) == filepath.Clean(candidate) {
		switch policy {
		case jobs.Overwrite, jobs.Skip:
			return candidate, true, nil
		case jobs.Rename_:
			next, err := nextAvailableName(destDir, name)
			return next, false, err
		}
	}

	if _, err := os.Lstat(candidate); err == nil {
		switch policy {
		case jobs.Overwrite:
			if rmErr := os.RemoveAll(candidate); rmErr != nil {
				return "", false, apperr.FromIOError(rmErr)
			}
			return candidate, false, nil
		case jobs.Skip:
			return candidate, true, nil
		case jobs.Rename_:
			next, err := nextAvailableName(destDir, name)
			return next, false, err
		}
	} else if !os.IsNotExist(err) {
		return "", false, apperr.FromIOError(err)
	}

	return candidate, false, nil
}

// nextAvailableName tries "{name}.copy", "{name}.copy2", "{name}.copy3", …
// until a non-existing candidate is found, per §4.B/testable property 6.
func nextAvailableName(dir, name string) (string, error) {
	candidate := filepath.Join(dir, name+".copy")
	if _, err := os.Lstat(candidate); os.IsNotExist(err) {
		return candidate, nil
	}
	for n := 2; ; n++ {
		candidate = filepath.Join(dir, name+".copy"+itoa(n))
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// Copy recursively copies sources into destDir under policy, reporting
// progress through sink. Rejects InvalidInput if destDir is inside a
// source tree.
func Copy(sources []string, destDir string, policy jobs.OverwritePolicy, cf *cancel.Flag, sink ProgressSink) error {
	for _, src := range sources {
		if isWithin(src, destDir) {
			return apperr.InvalidInput("cannot copy directory into itself")
		}
	}

	for _, src := range sources {
		if err := cf.Check(); err != nil {
			return err
		}
		dest, skip, err := ResolveDestination(src, destDir, policy)
		if err != nil {
			return err
		}
		if skip {
			if err := skipAccount(src, sink); err != nil {
				return err
			}
			continue
		}
		if err := copyPath(src, dest, cf, sink); err != nil {
			return err
		}
	}
	return nil
}

func skipAccount(src string, sink ProgressSink) error {
	lst, err := os.Lstat(src)
	if err != nil {
		return apperr.FromIOError(err)
	}
	if lst.IsDir() {
		return filepath.WalkDir(src, func(_ string, _ os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			sink.CompleteItem()
			return nil
		})
	}
	sink.CompleteItem()
	return nil
}

func copyPath(src, dest string, cf *cancel.Flag, sink ProgressSink) error {
	if err := cf.Check(); err != nil {
		return err
	}
	sink.SetCurrentPath(src)

	lst, err := os.Lstat(src)
	if err != nil {
		return apperr.FromIOError(err)
	}

	switch {
	case lst.Mode()&os.ModeSymlink != 0:
		target, err := os.Readlink(src)
		if err != nil {
			return apperr.FromIOError(err)
		}
		if err := os.Symlink(target, dest); err != nil {
			return apperr.FromIOError(err)
		}
		sink.CompleteItem()
		return nil

	case lst.IsDir():
		if err := os.MkdirAll(dest, lst.Mode().Perm()); err != nil {
			return apperr.FromIOError(err)
		}
		children, err := os.ReadDir(src)
		if err != nil {
			return apperr.FromIOError(err)
		}
		for _, c := range children {
			if err := cf.Check(); err != nil {
				return err
			}
			if err := copyPath(filepath.Join(src, c.Name()), filepath.Join(dest, c.Name()), cf, sink); err != nil {
				return err
			}
		}
		sink.CompleteItem()
		return nil

	default:
		if err := copyFile(src, dest, lst, cf, sink); err != nil {
			return err
		}
		sink.CompleteItem()
		return nil
	}
}

func copyFile(src, dest string, lst os.FileInfo, cf *cancel.Flag, sink ProgressSink) error {
	in, err := os.Open(src)
	if err != nil {
		return apperr.FromIOError(err)
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, lst.Mode().Perm())
	if err != nil {
		return apperr.FromIOError(err)
	}

	buf := make([]byte, copyBufferSize)
	for {
		if err := cf.Check(); err != nil {
			out.Close()
			os.Remove(dest)
			return err
		}
		n, readErr := in.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				out.Close()
				os.Remove(dest)
				return apperr.FromIOError(writeErr)
			}
			sink.AdvanceBytes(int64(n))
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			out.Close()
			os.Remove(dest)
			return apperr.FromIOError(readErr)
		}
	}

	if err := out.Sync(); err != nil {
		out.Close()
		return apperr.FromIOError(err)
	}
	if err := out.Close(); err != nil {
		return apperr.FromIOError(err)
	}

	modTime := lst.ModTime()
	_ = os.Chtimes(dest, sourceAtime(src, modTime), modTime)
	return nil
}

// sourceAtime reads src's last-access time via unix.Stat, falling back to
// modTime (copyFile's prior behavior) if the stat call itself fails --
// which can only happen here from a TOCTOU race, since src was just
// successfully opened above.
func sourceAtime(src string, modTime time.Time) time.Time {
	var st unix.Stat_t
	if err := unix.Stat(src, &st); err != nil {
		return modTime
	}
	return time.Unix(st.Atim.Sec, st.Atim.Nsec)
}

// Move relocates sources into destDir, trying an atomic rename first and
// falling back to copy-then-remove on a cross-device error. Rejects
// InvalidInput if destDir is inside a source tree.
func Move(sources []string, destDir string, policy jobs.OverwritePolicy, cf *cancel.Flag, sink ProgressSink) error {
	for _, src := range sources {
		if isWithin(src, destDir) {
			return apperr.InvalidInput("cannot move directory into itself")
		}
	}

	for _, src := range sources {
		if err := cf.Check(); err != nil {
			return err
		}
		dest, skip, err := ResolveDestination(src, destDir, policy)
		if err != nil {
			return err
		}
		if skip {
			if err := skipAccount(src, sink); err != nil {
				return err
			}
			continue
		}

		sink.SetCurrentPath(src)
		if err := os.Rename(src, dest); err == nil {
			if err := accountWholeTree(dest, sink); err != nil {
				return err
			}
			continue
		} else if !apperr.IsCrossDevice(err) {
			return apperr.FromIOError(err)
		}

		if err := copyPath(src, dest, cf, sink); err != nil {
			return err
		}
		if err := removeAll(src, cf); err != nil {
			return err
		}
	}
	return nil
}

func accountWholeTree(path string, sink ProgressSink) error {
	return filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if info, infoErr := d.Info(); infoErr == nil && !d.IsDir() {
			sink.AdvanceBytes(info.Size())
		}
		sink.CompleteItem()
		return nil
	})
}

// Delete removes targets. Directories are removed depth-first (children
// before rmdir). Progress reports each top-level target through
// SetCurrentPath; no CompleteItem call is made for the removed files and
// directories.
func Delete(targets []string, cf *cancel.Flag, sink ProgressSink) error {
	for _, t := range targets {
		if err := cf.Check(); err != nil {
			return err
		}
		sink.SetCurrentPath(t)
		if err := removeAll(t, cf); err != nil {
			return err
		}
	}
	return nil
}

func removeAll(path string, cf *cancel.Flag) error {
	if err := cf.Check(); err != nil {
		return err
	}

	lst, err := os.Lstat(path)
	if err != nil {
		return apperr.FromIOError(err)
	}

	if lst.IsDir() && lst.Mode()&os.ModeSymlink == 0 {
		children, err := os.ReadDir(path)
		if err != nil {
			return apperr.FromIOError(err)
		}
		for _, c := range children {
			if err := cf.Check(); err != nil {
				return err
			}
			if err := removeAll(filepath.Join(path, c.Name()), cf); err != nil {
				return err
			}
		}
		if err := os.Remove(path); err != nil {
			return apperr.FromIOError(err)
		}
		return nil
	}

	if err := os.Remove(path); err != nil {
		return apperr.FromIOError(err)
	}
	return nil
}

// Mkdir creates a single directory.
func Mkdir(path string) error {
	if err := os.Mkdir(path, 0o755); err != nil {
		return apperr.FromIOError(err)
	}
	return nil
}

// RenamePath renames oldPath to newPath (mkdir/rename worker kind).
func RenamePath(oldPath, newPath string) error {
	if err := os.Rename(oldPath, newPath); err != nil {
		return apperr.FromIOError(err)
	}
	return nil
}

// AtomicWriteFile writes data to path via a temp file + rename, the write
// discipline spec §6 requires for both settings files and the
// PersistSettings job kind.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperr.FromIOError(err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return apperr.FromIOError(err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return apperr.FromIOError(err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return apperr.FromIOError(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return apperr.FromIOError(err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return apperr.FromIOError(err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return apperr.FromIOError(err)
	}
	return nil
}
